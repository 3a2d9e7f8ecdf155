// Package config loads voicebooth settings from viper.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/realtime"
	"github.com/mitchellh/go-homedir"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

// AppName names the config file, env prefix and app directories.
const AppName = "voicebooth"

// Config holds every setting.
type Config struct {
	APIKey   string `yaml:"api_key"`
	Endpoint string `yaml:"endpoint"`
	Model    string `yaml:"model"`

	// Root holds takes, temp files and captures.
	Root string `yaml:"root"`
	// Prompts is the performer registry. Defaults to Root/config/prompts.json.
	Prompts string `yaml:"prompts"`
	// Output receives mixes. Defaults to Root/output.
	Output string `yaml:"output"`
	// History is the sqlite ledger. Defaults to Root/history.db; "off"
	// disables it.
	History string `yaml:"history"`

	RequestsPerMinute int    `yaml:"requests_per_minute"`
	Capture           bool   `yaml:"capture"`
	LogLevel          string `yaml:"log_level"`

	Playback Playback `yaml:"playback"`
}

// Playback holds audio device settings.
type Playback struct {
	Volume float64 `yaml:"volume"`
}

// HistoryOff disables the take ledger.
const HistoryOff = "off"

// Default returns the built-in configuration with unresolved paths.
func Default() Config {
	return Config{
		Endpoint:          realtime.Endpoint,
		Model:             realtime.DefaultModel,
		RequestsPerMinute: 20,
		LogLevel:          "info",
		Playback:          Playback{Volume: 1.0},
	}
}

// SetDefaults registers the defaults with v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("endpoint", d.Endpoint)
	v.SetDefault("model", d.Model)
	v.SetDefault("requests_per_minute", d.RequestsPerMinute)
	v.SetDefault("capture", d.Capture)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("playback.volume", d.Playback.Volume)
}

// FromViper reads, expands and validates the configuration held by v.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Default()

	if v.IsSet("api_key") {
		cfg.APIKey = v.GetString("api_key")
	}
	if v.IsSet("endpoint") {
		cfg.Endpoint = v.GetString("endpoint")
	}
	if v.IsSet("model") {
		cfg.Model = v.GetString("model")
	}
	if v.IsSet("root") {
		cfg.Root = v.GetString("root")
	}
	if v.IsSet("prompts") {
		cfg.Prompts = v.GetString("prompts")
	}
	if v.IsSet("output") {
		cfg.Output = v.GetString("output")
	}
	if v.IsSet("history") {
		cfg.History = v.GetString("history")
	}
	if v.IsSet("requests_per_minute") {
		cfg.RequestsPerMinute = v.GetInt("requests_per_minute")
	}
	if v.IsSet("capture") {
		cfg.Capture = v.GetBool("capture")
	}
	if v.IsSet("log_level") {
		cfg.LogLevel = v.GetString("log_level")
	}
	if v.IsSet("playback.volume") {
		cfg.Playback.Volume = v.GetFloat64("playback.volume")
	}

	if err := cfg.Resolve(); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Resolve expands ~ in paths and fills in paths derived from Root.
func (c *Config) Resolve() error {
	if c.Root == "" {
		root, err := DefaultRoot()
		if err != nil {
			return err
		}
		c.Root = root
	}

	var err error
	if c.Root, err = expand(c.Root); err != nil {
		return err
	}
	if c.Prompts == "" {
		c.Prompts = filepath.Join(c.Root, "config", "prompts.json")
	}
	if c.Output == "" {
		c.Output = filepath.Join(c.Root, "output")
	}
	if c.History == "" {
		c.History = filepath.Join(c.Root, "history.db")
	}

	if c.Prompts, err = expand(c.Prompts); err != nil {
		return err
	}
	if c.Output, err = expand(c.Output); err != nil {
		return err
	}
	if c.History != HistoryOff {
		if c.History, err = expand(c.History); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Root == "" {
		return errors.New("root must be set")
	}
	if c.Playback.Volume < 0 || c.Playback.Volume > 1 {
		return fmt.Errorf("playback.volume must be between 0.0 and 1.0, got %.2f", c.Playback.Volume)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	if c.Endpoint != "" && !strings.HasPrefix(c.Endpoint, "ws://") && !strings.HasPrefix(c.Endpoint, "wss://") {
		return fmt.Errorf("endpoint must be a ws:// or wss:// URL, got %q", c.Endpoint)
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// HistoryEnabled reports whether takes should be recorded.
func (c *Config) HistoryEnabled() bool {
	return c.History != HistoryOff
}

// DefaultRoot is the per-user data directory.
func DefaultRoot() (string, error) {
	scope := gap.NewScope(gap.User, AppName)
	dir, err := scope.DataPath("")
	if err != nil {
		return "", fmt.Errorf("could not determine data directory: %w", err)
	}
	return dir, nil
}

func expand(path string) (string, error) {
	p, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("could not expand %q: %w", path, err)
	}
	return filepath.Clean(p), nil
}
