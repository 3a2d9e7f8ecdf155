package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/mix"
	"github.com/spf13/cobra"
)

var (
	mixCmdDate string

	mixCmd = &cobra.Command{
		Use:   "mix NAME",
		Short: "Concatenate a performer's takes of one day",
		Long: paragraph(fmt.Sprintf("\n%s every take of NAME recorded on the given day, with half a second of silence "+
			"between them, and write a timeline for editors next to the result.", keyword("Mix"))),
		Example: paragraph("voicebooth mix Kanda\nvoicebooth mix Kanda --date 0314"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			return mixTakes(ctx, cmd, args[0], mixCmdDate)
		},
	}
)

func init() {
	mixCmd.Flags().StringVarP(&mixCmdDate, "date", "d", "", "take date as MMDD (default today)")
}

// mixTakes concatenates the takes of name on date and reports the result on
// standard output, failures included. Finding no takes is an error so the
// exit status reflects it.
func mixTakes(ctx context.Context, cmd *cobra.Command, name, date string) error {
	out, err := mix.Concatenate(ctx, mix.Options{
		Root:      cfg.Root,
		Output:    cfg.Output,
		Performer: name,
		Date:      date,
		Logger:    log.WithPrefix("mix"),
	})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Mixing takes failed:", err)
		return fmt.Errorf("mix failed: %w", err)
	}
	if out == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "No takes to mix for", name)
		return fmt.Errorf("no takes found for %s", name)
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Mixed takes into", out)
	return nil
}
