// Package credential resolves the API key used to authenticate realtime
// connections.
package credential

import (
	"errors"
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// ErrMissing indicates neither the setting nor the environment holds a key.
var ErrMissing = errors.New("no API key configured: set api_key or OPENAI_API_KEY")

// Environment is the environment-backed half of the resolver.
type Environment struct {
	APIKey string `env:"OPENAI_API_KEY"`
}

// Resolve returns setting when it is non-blank, otherwise OPENAI_API_KEY from
// the process environment.
func Resolve(setting string) (string, error) {
	return ResolveFrom(setting, nil)
}

// ResolveFrom is Resolve with an explicit environment map. A nil map reads
// the process environment.
func ResolveFrom(setting string, environ map[string]string) (string, error) {
	if key := strings.TrimSpace(setting); key != "" {
		return key, nil
	}

	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	cfg, err := env.ParseAsWithOptions[Environment](opts)
	if err != nil {
		return "", fmt.Errorf("failed to read credential environment: %w", err)
	}

	if key := strings.TrimSpace(cfg.APIKey); key != "" {
		return key, nil
	}
	return "", ErrMissing
}
