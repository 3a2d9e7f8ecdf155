package mix

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

type xmeml struct {
	XMLName xml.Name `xml:"xmeml"`
	Version string   `xml:"version,attr"`
	Project project  `xml:"project"`
}

type project struct {
	Name     string   `xml:"name"`
	Sequence sequence `xml:"sequence"`
}

type sequence struct {
	Name  string `xml:"name"`
	Media media  `xml:"media"`
}

type media struct {
	Audio track `xml:"audio>track"`
}

type track struct {
	ClipItem clipItem `xml:"clipitem"`
}

type clipItem struct {
	Name string `xml:"name"`
	File file   `xml:"file"`
}

type file struct {
	Path string `xml:"filepath"`
}

// Timeline renders the xmeml document that references audioPath.
func Timeline(audioPath string) ([]byte, error) {
	abs, err := filepath.Abs(audioPath)
	if err != nil {
		return nil, err
	}
	base := filepath.Base(audioPath)
	name := strings.TrimSuffix(base, filepath.Ext(base)) + "_cut"

	doc := xmeml{
		Version: "4",
		Project: project{
			Name: name,
			Sequence: sequence{
				Name: name,
				Media: media{
					Audio: track{ClipItem: clipItem{Name: base, File: file{Path: abs}}},
				},
			},
		},
	}

	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode timeline: %w", err)
	}
	return append([]byte(xml.Header), append(body, '\n')...), nil
}

// WriteTimeline writes the xmeml document for audioPath to xmlPath.
func WriteTimeline(audioPath, xmlPath string) error {
	data, err := Timeline(audioPath)
	if err != nil {
		return err
	}
	return os.WriteFile(xmlPath, data, 0o644)
}
