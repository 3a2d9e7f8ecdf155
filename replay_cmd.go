package main

import (
	"fmt"

	"github.com/dgnsrekt/voicebooth/internal/realtime"
	"github.com/spf13/cobra"
)

var (
	replayPerformer string
	replaySave      bool

	replayCmd = &cobra.Command{
		Use:   "replay CAPTURE",
		Short: "Rebuild a take from a captured session",
		Long: paragraph(fmt.Sprintf("\n%s the server frames of a capture through a new session, without "+
			"connecting, and write the take again. Captures are recorded when capture is enabled.", keyword("Replay"))),
		Example: paragraph("voicebooth replay ~/.local/share/voicebooth/captures/<id>.jsonl.zst -p Kanda --save"),
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			replay, err := realtime.OpenReplay(args[0])
			if err != nil {
				return err
			}

			replayCfg := cfg
			replayCfg.Capture = false
			replayCfg.RequestsPerMinute = -1

			a, err := newApp(cmd.Context(), replayCfg, appOptions{Dialer: replay, Headless: true})
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			a.session.Configure(replayPerformer)
			path, err := a.session.Generate(cmd.Context(), "", "", "")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Rebuilt", path)

			if replaySave {
				saved, err := a.session.Save(replayPerformer)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Saved", saved)
			}
			return nil
		},
	}
)

func init() {
	replayCmd.Flags().StringVarP(&replayPerformer, "performer", "p", "replay", "performer the take is saved under")
	replayCmd.Flags().BoolVar(&replaySave, "save", false, "save the rebuilt take")
}
