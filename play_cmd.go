package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/audio"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var playCmd = &cobra.Command{
	Use:     "play FILE",
	Short:   "Play a WAV file",
	Long:    paragraph(fmt.Sprintf("\n%s a take through the default audio device.", keyword("Play"))),
	Example: paragraph("voicebooth play Kanda/Kanda_0314_092653.wav"),
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		clip, err := audio.ReadFile(args[0])
		if err != nil {
			return err
		}
		log.Info("playing", "file", args[0], "duration", clip.Duration(),
			"rate", humanize.SI(float64(clip.SampleRate), "Hz"))

		p := audio.NewPlayer(log.WithPrefix("audio"))
		defer p.Close() //nolint:errcheck
		if err := p.SetVolume(cfg.Playback.Volume); err != nil {
			return err
		}
		return p.PlayClip(ctx, clip)
	},
}
