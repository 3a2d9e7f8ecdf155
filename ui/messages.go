package ui

import (
	"context"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

// GenerateDoneMsg is sent when a generation has finished.
type GenerateDoneMsg struct {
	Path string
	Err  error
}

// PlayDoneMsg is sent when playback has finished.
type PlayDoneMsg struct {
	Err error
}

// SaveDoneMsg is sent when the take has been saved. An empty Path with no
// error means there was nothing to save.
type SaveDoneMsg struct {
	Path string
	Err  error
}

// MixDoneMsg is sent when a mix has been written.
type MixDoneMsg struct {
	Path string
	Err  error
}

// CopyDoneMsg is sent after the clipboard has been written.
type CopyDoneMsg struct {
	Text string
	Err  error
}

// RegistryChangedMsg is sent after the performer registry has been reloaded.
type RegistryChangedMsg struct{}

func generateCmd(ctx context.Context, b Booth, instructions, direction, text string) tea.Cmd {
	return func() tea.Msg {
		path, err := b.Generate(ctx, instructions, direction, text)
		return GenerateDoneMsg{Path: path, Err: err}
	}
}

func playCmd(ctx context.Context, b Booth) tea.Cmd {
	return func() tea.Msg {
		return PlayDoneMsg{Err: b.Play(ctx, "")}
	}
}

func saveCmd(b Booth, name string) tea.Cmd {
	return func() tea.Msg {
		path, err := b.Save(name)
		return SaveDoneMsg{Path: path, Err: err}
	}
}

func mixCmd(ctx context.Context, mix Mixer, name string) tea.Cmd {
	return func() tea.Msg {
		path, err := mix(ctx, name)
		return MixDoneMsg{Path: path, Err: err}
	}
}

// copyToClipboard is replaced in tests.
var copyToClipboard = clipboard.WriteAll

func copyCmd(text string) tea.Cmd {
	return func() tea.Msg {
		return CopyDoneMsg{Text: text, Err: copyToClipboard(text)}
	}
}

func waitForChange(ch <-chan struct{}) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return RegistryChangedMsg{}
	}
}
