package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
)

var (
	genPerformer string
	genSystem    string
	genDirection string
	genPlay      bool
	genSave      bool

	generateCmd = &cobra.Command{
		Use:     "generate -p NAME [flags] TEXT",
		Aliases: []string{"gen"},
		Short:   "Generate one take without the shell",
		Long: paragraph(fmt.Sprintf("\n%s a single line with a performer. The take stays unsaved unless --save is given; "+
			"its path is printed either way.", keyword("Generate"))),
		Example: paragraph(`voicebooth generate -p Kanda --direction "Whisper." "It's late."` +
			"\nvoicebooth generate -p Kanda --play --save Hello"),
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if genPerformer == "" {
				return fmt.Errorf("--performer is required")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()

			a, err := newApp(ctx, cfg, appOptions{Headless: !genPlay})
			if err != nil {
				return err
			}
			defer a.Close() //nolint:errcheck

			system := genSystem
			if !cmd.Flags().Changed("system") {
				if e, ok := a.registry.Lookup(genPerformer); ok {
					system = e.SystemPrompt
				}
			}

			a.session.Configure(genPerformer)
			path, err := a.session.Generate(ctx, system, genDirection, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Generated", path)

			if genPlay {
				if err := a.session.Play(ctx, path); err != nil {
					return err
				}
			}
			if genSave {
				saved, err := a.session.Save(genPerformer)
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
	generateCmd.Flags().StringVarP(&genPerformer, "performer", "p", "", "performer from the registry")
	generateCmd.Flags().StringVar(&genSystem, "system", "", "system prompt (default: the performer's)")
	generateCmd.Flags().StringVar(&genDirection, "direction", "", "acting direction placed before the line")
	generateCmd.Flags().BoolVar(&genPlay, "play", false, "play the take when it is ready")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "save the take under the performer directory")
	_ = generateCmd.MarkFlagRequired("performer")
}
