// Package mix concatenates a performer's takes for one day into a single WAV
// file separated by short silences, and writes an xmeml timeline for it.
package mix

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/audio"
	"github.com/dustin/go-humanize"
)

// Gap is the silence inserted between consecutive takes.
const Gap = 500 * time.Millisecond

// DateLayout is the MMDD form used in take and output names.
const DateLayout = "0102"

// ErrChannelMismatch is returned when takes disagree on channel count.
var ErrChannelMismatch = errors.New("takes have different channel counts")

// Options selects the takes to concatenate.
type Options struct {
	// Root holds one directory of takes per performer.
	Root string
	// Output receives <performer>/<date>-mixed/. Defaults to Root/output.
	Output    string
	Performer string
	// Date is MMDD. Empty means today.
	Date   string
	Now    func() time.Time
	Logger *log.Logger
}

// Concatenate merges every <performer>_<date>_*.wav take in lexical order.
// It returns "" and no error when the performer has no matching takes.
func Concatenate(ctx context.Context, opts Options) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	if opts.Performer == "" {
		return "", errors.New("performer is required")
	}

	date := opts.Date
	if date == "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		date = now().Format(DateLayout)
	}
	output := opts.Output
	if output == "" {
		output = filepath.Join(opts.Root, "output")
	}

	logger.Info("mixing takes", "performer", opts.Performer, "date", date)

	files, err := FindTakes(opts.Root, opts.Performer, date)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		logger.Error("no takes to mix", "performer", opts.Performer, "date", date)
		return "", nil
	}
	logger.Info("takes found", "count", len(files))

	merged, err := concat(ctx, files, logger)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(output, opts.Performer, date+"-mixed")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	outPath := filepath.Join(dir, fmt.Sprintf("%s_%s-mixed.wav", opts.Performer, date))
	if err := audio.WriteClip(outPath, merged); err != nil {
		return "", fmt.Errorf("failed to write mixed file: %w", err)
	}
	logger.Info("mixed file written", "path", outPath, "duration", merged.Duration(),
		"size", humanize.Bytes(uint64(len(merged.Data)*merged.BitDepth/8)))

	xmlPath := strings.TrimSuffix(outPath, filepath.Ext(outPath)) + "_cut.xml"
	if err := WriteTimeline(outPath, xmlPath); err != nil {
		logger.Warn("failed to write timeline", "path", xmlPath, "error", err)
	} else {
		logger.Info("timeline written", "path", xmlPath)
	}

	return outPath, nil
}

// FindTakes lists <root>/<performer>/<performer>_<date>_*.wav in lexical
// order. A missing performer directory yields no takes.
func FindTakes(root, performer, date string) ([]string, error) {
	dir := filepath.Join(root, performer)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list takes: %w", err)
	}

	prefix := performer + "_" + date + "_"
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || !strings.HasSuffix(name, ".wav") {
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	sort.Strings(files)
	return files, nil
}

func concat(ctx context.Context, files []string, logger *log.Logger) (*audio.Clip, error) {
	var merged *audio.Clip
	for i, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		clip, err := audio.ReadFile(path)
		if err != nil {
			return nil, err
		}

		if merged == nil {
			merged = clip
			logger.Info("take loaded", "n", i+1, "of", len(files), "file", filepath.Base(path))
			continue
		}

		if clip.Channels != merged.Channels {
			return nil, fmt.Errorf("%w: %s has %d, expected %d",
				ErrChannelMismatch, filepath.Base(path), clip.Channels, merged.Channels)
		}
		if clip.SampleRate != merged.SampleRate {
			logger.Warn("sample rate differs from first take, not resampled",
				"file", filepath.Base(path), "rate", clip.SampleRate, "expected", merged.SampleRate)
		}

		data := clip.Data
		if clip.BitDepth != merged.BitDepth {
			data = audio.Rescale(data, clip.BitDepth, merged.BitDepth)
		}

		gapFrames := int(Gap.Seconds() * float64(merged.SampleRate))
		silence := audio.Silence(merged.BitDepth)
		for n := gapFrames * merged.Channels; n > 0; n-- {
			merged.Data = append(merged.Data, silence)
		}
		merged.Data = append(merged.Data, data...)

		logger.Info("take appended", "n", i+1, "of", len(files), "file", filepath.Base(path))
	}
	return merged, nil
}
