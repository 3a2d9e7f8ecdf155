package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var comments = map[string]string{
	"api_key":             "API key; leave empty to use OPENAI_API_KEY",
	"endpoint":            "realtime websocket endpoint",
	"model":               "realtime model",
	"root":                "directory for takes, temp files and captures (default: user data dir)",
	"prompts":             "performer registry (default: <root>/config/prompts.json)",
	"output":              "directory for mixes (default: <root>/output)",
	"history":             `take ledger (default: <root>/history.db, "off" to disable)`,
	"requests_per_minute": "generation rate limit; negative disables it",
	"capture":             "record every realtime frame under <root>/captures",
	"log_level":           "debug, info, warn or error",
	"playback":            "audio device settings",
}

// DefaultYAML renders the default configuration with a comment on each key.
func DefaultYAML() ([]byte, error) {
	var doc yaml.Node
	if err := doc.Encode(Default()); err != nil {
		return nil, fmt.Errorf("unable to encode default config: %w", err)
	}

	content := doc.Content
	for i := 0; i+1 < len(content); i += 2 {
		if c, ok := comments[content[i].Value]; ok {
			content[i].HeadComment = c
		}
	}

	out, err := yaml.Marshal(&doc)
	if err != nil {
		return nil, fmt.Errorf("unable to render default config: %w", err)
	}
	return out, nil
}

// SearchDirs returns the directories searched for voicebooth.yml, most
// specific first.
func SearchDirs() ([]string, error) {
	scope := gap.NewScope(gap.User, AppName)
	dirs, err := scope.ConfigDirs()
	if err != nil {
		return nil, fmt.Errorf("could not find configuration directory: %w", err)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, AppName)}, dirs...)
	}
	if c := os.Getenv("VOICEBOOTH_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}
	return dirs, nil
}

// Setup points v at the config search path and environment. It does not
// read the file.
func Setup(v *viper.Viper, dirs []string) {
	for _, d := range dirs {
		v.AddConfigPath(d)
	}
	v.SetConfigName(AppName)
	v.SetConfigType("yaml")
	v.SetEnvPrefix(AppName)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
}

// EnsureFile writes the default configuration to path unless it exists.
func EnsureFile(path string) error {
	if ext := filepath.Ext(path); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("unable to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("unable create directory: %w", err)
	}
	data, err := DefaultYAML()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("unable to write config file: %w", err)
	}
	return nil
}
