// Package main provides the entry point for the voicebooth CLI application.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/config"
	"github.com/dgnsrekt/voicebooth/ui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	cfg        config.Config

	mixMode      bool
	mixPerformer string
	mixDate      string

	rootCmd = &cobra.Command{
		Use:   "voicebooth",
		Short: "Direct realtime voice performers from the terminal",
		Long: paragraph(
			fmt.Sprintf("\nPick a performer, give them a line and %s.", keyword("record the take")),
		),
		Example:          paragraph("voicebooth\nvoicebooth --mix -p Kanda\nvoicebooth --mix -p Kanda -d 0314"),
		SilenceErrors:    false,
		SilenceUsage:     true,
		TraverseChildren: true,
		Args:             cobra.NoArgs,
		RunE:             execute,
	}
)

// loadConfig reads voicebooth.yml, applies the log level and routes CLI
// logging to stderr.
func loadConfig(cmd *cobra.Command) error {
	v := viper.GetViper()
	if f := cmd.Flag("config"); f != nil && f.Changed {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("unable to read config file: %w", err)
		}
	}

	var err error
	cfg, err = config.FromViper(v)
	if err != nil {
		return err
	}

	log.SetLevel(cfg.Level())
	if cmd != rootCmd || mixMode {
		logToStderr()
	}
	log.Debug("configuration loaded", "file", v.ConfigFileUsed(), "root", cfg.Root)
	return nil
}

func execute(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if mixMode {
		return runMix(ctx, cmd)
	}
	if cmd.Flags().Changed("performer") || cmd.Flags().Changed("date") {
		return errors.New("--performer and --date are only valid with --mix")
	}
	return runTUI(ctx)
}

func runMix(ctx context.Context, cmd *cobra.Command) error {
	if mixPerformer == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "Specify a performer with --performer to mix.")
		return errors.New("--mix requires --performer")
	}

	return mixTakes(ctx, cmd, mixPerformer, mixDate)
}

func runTUI(ctx context.Context) error {
	// Read environment to get shell switches
	uiCfg, err := env.ParseAs[ui.Config]()
	if err != nil {
		return fmt.Errorf("error parsing config: %v", err)
	}

	a, err := newApp(ctx, cfg, appOptions{})
	if err != nil {
		return err
	}
	defer a.Close() //nolint:errcheck

	changes := make(chan struct{}, 1)
	go func() {
		err := a.registry.Watch(ctx, func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		})
		if err != nil {
			log.Warn("performer registry is not watched", "error", err)
		}
	}()

	uiCfg.Booth = a.session
	uiCfg.Performers = a.registry
	uiCfg.Mix = a.mix
	uiCfg.Logger = log.WithPrefix("ui")
	uiCfg.Changes = changes

	// Run Bubble Tea program
	if _, err := ui.NewProgram(ctx, uiCfg).Run(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("unable to run tui program: %w", err)
	}
	return nil
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func init() {
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return loadConfig(cmd)
	}
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.Flags().BoolVarP(&mixMode, "mix", "m", false, "concatenate a performer's takes instead of starting the shell")
	rootCmd.Flags().StringVarP(&mixPerformer, "performer", "p", "", "performer to mix (with --mix)")
	rootCmd.Flags().StringVarP(&mixDate, "date", "d", "", "take date as MMDD (with --mix, default today)")

	rootCmd.AddCommand(
		generateCmd,
		playCmd,
		mixCmd,
		performersCmd,
		historyCmd,
		replayCmd,
		configCmd,
		manCmd,
	)
}

func tryLoadConfigFromDefaultPlaces() {
	dirs, err := config.SearchDirs()
	if err != nil {
		fmt.Println("Could not load find configuration directory.")
		os.Exit(1)
	}

	v := viper.GetViper()
	config.Setup(v, dirs)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := v.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		configFile = used
		return
	}

	configFile = filepath.Join(dirs[0], config.AppName+".yml")
	if err := config.EnsureFile(configFile); err != nil {
		log.Error("Could not create default configuration", "error", err)
	}
}
