package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

const (
	ellipsis      = "…"
	nameColumnMax = 24
	listMaxRows   = 8
)

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}
	red       = lipgloss.AdaptiveColor{Light: "#FF4672", Dark: "#ED567A"}
	faint     = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	fuchsia   = lipgloss.Color("#EE6FF8")

	statusBarBg = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	logoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ECFD65")).
			Background(fuchsia).
			Bold(true).
			Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(faint).
				Background(statusBarBg).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(red).
				Render

	headingStyle = lipgloss.NewStyle().Foreground(fuchsia).Bold(true).Render
	faintStyle   = lipgloss.NewStyle().Foreground(faint).Render
	cursorStyle  = lipgloss.NewStyle().Foreground(fuchsia).Render
	spinnerStyle = lipgloss.NewStyle().Foreground(fuchsia)
)

func (m model) View() string {
	var b strings.Builder

	b.WriteString(m.performersView())
	b.WriteString("\n")

	fmt.Fprintf(&b, "%s %s\n\n", m.heading("Direction", focusDirection), m.direction.View())
	fmt.Fprintf(&b, "%s\n%s\n\n", m.heading("Line", focusLine), m.line.View())

	b.WriteString(m.statusBarView())
	b.WriteString("\n")
	b.WriteString(faintStyle(helpText))
	return b.String()
}

const helpText = "tab focus • ctrl+g generate • ctrl+p play • ctrl+s save • ctrl+y copy path • ctrl+x mix • ctrl+c quit"

func (m model) heading(s string, f focus) string {
	if m.focus == f {
		return headingStyle(s + ":")
	}
	return faintStyle(s + ":")
}

func (m model) performersView() string {
	var b strings.Builder

	title := "Performers"
	if m.filter != "" {
		title += " / " + m.filter
	}
	b.WriteString(m.heading(title, focusPerformers))
	b.WriteString("\n")

	if len(m.filtered) == 0 {
		b.WriteString(faintStyle("  No performers"))
		b.WriteString("\n")
		return b.String()
	}

	// Keep the cursor inside the visible window.
	start := 0
	if m.cursor >= listMaxRows {
		start = m.cursor - listMaxRows + 1
	}
	end := min(len(m.filtered), start+listMaxRows)

	promptWidth := max(0, m.width-nameColumnMax-4)
	for i := start; i < end; i++ {
		name := runewidth.Truncate(m.filtered[i], nameColumnMax, ellipsis)
		name = runewidth.FillRight(name, nameColumnMax)

		var prompt string
		if e, ok := m.cfg.Performers.Lookup(m.filtered[i]); ok {
			prompt = strings.Join(strings.Fields(e.SystemPrompt), " ")
		}
		prompt = truncate.StringWithTail(prompt, uint(promptWidth), ellipsis) //nolint:gosec

		if i == m.cursor {
			fmt.Fprintf(&b, "%s %s %s\n", cursorStyle(">"), cursorStyle(name), faintStyle(prompt))
		} else {
			fmt.Fprintf(&b, "  %s %s\n", name, faintStyle(prompt))
		}
	}
	return b.String()
}

func (m model) statusBarView() string {
	logo := logoStyle(" voicebooth ")

	note := m.status
	switch {
	case m.busy != "":
		note = m.spinner.View() + " " + m.busy + "..."
	case note == "" && m.selected != "":
		note = "Performer: " + m.selected
	}

	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-ansi.PrintableRuneWidth(logo),
	)), ellipsis)
	padding := strings.Repeat(" ", max(0, m.width-ansi.PrintableRuneWidth(logo)-ansi.PrintableRuneWidth(note)))

	render := statusBarNoteStyle
	switch {
	case m.statusErr && m.busy == "":
		render = statusBarErrorStyle
	case m.status != "" && m.busy == "":
		render = statusBarMessageStyle
	}
	return logo + render(note) + render(padding)
}
