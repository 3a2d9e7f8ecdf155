package ui

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/performer"
)

// Booth is the session the shell drives.
type Booth interface {
	Configure(name string)
	Generate(ctx context.Context, instructions, direction, text string) (string, error)
	Save(name string) (string, error)
	Play(ctx context.Context, path string) error
	LastTake() string
}

// Performers lists the registry.
type Performers interface {
	Names() []string
	Lookup(name string) (performer.Entry, bool)
}

// Mixer concatenates today's takes of a performer.
type Mixer func(ctx context.Context, name string) (string, error)

// Config contains TUI-specific configuration.
type Config struct {
	Booth      Booth
	Performers Performers
	Mix        Mixer
	Logger     *log.Logger

	// Changes receives a value whenever the registry has been reloaded.
	Changes <-chan struct{}

	AltScreen   bool `env:"VOICEBOOTH_ALT_SCREEN" envDefault:"true"`
	EnableMouse bool `env:"VOICEBOOTH_MOUSE"`
}
