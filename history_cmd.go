package main

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/history"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	historyLimit int

	historyCmd = &cobra.Command{
		Use:     "history [NAME]",
		Short:   "List saved takes",
		Long:    paragraph(fmt.Sprintf("\n%s saved takes, newest first, optionally for one performer.", keyword("List"))),
		Example: paragraph("voicebooth history\nvoicebooth history Kanda -n 5"),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.HistoryEnabled() {
				return fmt.Errorf("take history is disabled (history: %s)", cfg.History)
			}

			store, err := history.Open(cmd.Context(), cfg.History, log.WithPrefix("history"))
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			var name string
			if len(args) == 1 {
				name = args[0]
			}
			takes, err := store.List(cmd.Context(), name, historyLimit)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(takes) == 0 {
				fmt.Fprintln(w, faint("No saved takes"))
				return nil
			}
			for _, t := range takes {
				fmt.Fprintf(w, "%s  %-12s %6s  %5.1fs  %s %s\n",
					faint(humanize.Time(t.CreatedAt)),
					t.Performer,
					humanize.Bytes(uint64(t.Bytes)), //nolint:gosec
					t.Duration.Seconds(),
					keyword(filepath.Base(t.Path)),
					faint(fmt.Sprintf("(%s %.2gx)", t.Voice, t.Speed)),
				)
			}
			return nil
		},
	}
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum number of takes")
}
