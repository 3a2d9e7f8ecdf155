package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/performer"
	runewidth "github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const maxPromptWidth = 100

var performersCmd = &cobra.Command{
	Use:     "performers [NAME]",
	Aliases: []string{"ls"},
	Short:   "List performers or show one system prompt",
	Long: paragraph(fmt.Sprintf("\n%s the performers of the registry with their voice and speed. "+
		"Given a NAME, render that performer's system prompt.", keyword("List"))),
	Example: paragraph("voicebooth performers\nvoicebooth performers Kanda"),
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := performer.Load(cfg.Prompts, log.WithPrefix("performer"))
		if err != nil {
			return err
		}

		if len(args) == 0 {
			listPerformers(cmd.OutOrStdout(), registry)
			return nil
		}

		e, ok := registry.Lookup(args[0])
		if !ok {
			return fmt.Errorf("no performer named %q in %s", args[0], registry.Path())
		}
		out, err := renderPrompt(e.SystemPrompt)
		if err != nil {
			return err
		}
		_, err = fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	},
}

func listPerformers(w io.Writer, registry *performer.Registry) {
	names := registry.Names()
	if len(names) == 0 {
		fmt.Fprintln(w, faint("No performers in "+registry.Path()))
		return
	}

	width := 0
	for _, n := range names {
		width = max(width, runewidth.StringWidth(n))
	}

	for _, n := range names {
		e, _ := registry.Lookup(n)
		voice := faint(performer.Fallback.ID + " (fallback)")
		if e.HasVoice {
			voice = e.Voice
		}
		fmt.Fprintf(w, "%s  %s  %s\n",
			keyword(runewidth.FillRight(n, width)),
			strconv.FormatFloat(e.Speed, 'f', -1, 64),
			voice,
		)
	}
}

// renderPrompt renders a system prompt as markdown, plain when stdout is
// not a terminal.
func renderPrompt(prompt string) (string, error) {
	fd := int(os.Stdout.Fd()) //nolint:gosec
	width := 80
	style := glamour.WithStandardStyle("notty")
	if term.IsTerminal(fd) {
		if w, _, err := term.GetSize(fd); err == nil {
			width = min(w, maxPromptWidth)
		}
		style = glamour.WithAutoStyle()
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithColorProfile(termenv.EnvColorProfile()),
		style,
		glamour.WithWordWrap(width),
		glamour.WithPreservedNewLines(),
	)
	if err != nil {
		return "", fmt.Errorf("unable to create renderer: %w", err)
	}
	out, err := r.Render(prompt)
	if err != nil {
		return "", fmt.Errorf("unable to render prompt: %w", err)
	}
	return out, nil
}
