package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/audio"
	"github.com/dgnsrekt/voicebooth/internal/config"
	"github.com/dgnsrekt/voicebooth/internal/credential"
	"github.com/dgnsrekt/voicebooth/internal/history"
	"github.com/dgnsrekt/voicebooth/internal/mix"
	"github.com/dgnsrekt/voicebooth/internal/performer"
	"github.com/dgnsrekt/voicebooth/internal/realtime"
	"github.com/dgnsrekt/voicebooth/internal/session"
)

type appOptions struct {
	// Dialer replaces the websocket dialer; no credential is needed then.
	Dialer realtime.Dialer
	// Headless records playback instead of opening the audio device.
	Headless bool
}

// app wires the components of one voicebooth run.
type app struct {
	cfg      config.Config
	registry *performer.Registry
	session  *session.Session
	player   session.Player
	store    *history.Store
}

func newApp(ctx context.Context, cfg config.Config, opts appOptions) (*app, error) {
	registry, err := performer.Load(cfg.Prompts, log.WithPrefix("performer"))
	if err != nil {
		return nil, err
	}

	dialer := opts.Dialer
	if dialer == nil {
		key, err := credential.Resolve(cfg.APIKey)
		if err != nil {
			return nil, err
		}
		dialer = &realtime.WebSocketDialer{
			Endpoint: cfg.Endpoint,
			Model:    cfg.Model,
			APIKey:   key,
			Logger:   log.WithPrefix("realtime"),
		}
	}

	a := &app{cfg: cfg, registry: registry}

	if opts.Headless {
		a.player = audio.NewMockPlayer(audio.MockCallbacks{})
	} else {
		p := audio.NewPlayer(log.WithPrefix("audio"))
		if err := p.SetVolume(cfg.Playback.Volume); err != nil {
			return nil, err
		}
		a.player = p
	}

	sessOpts := session.Options{
		Root:              cfg.Root,
		Dialer:            dialer,
		Voices:            registry,
		Player:            a.player,
		Logger:            log.WithPrefix("session"),
		RequestsPerMinute: cfg.RequestsPerMinute,
		Capture:           cfg.Capture,
	}
	if cfg.HistoryEnabled() {
		store, err := history.Open(ctx, cfg.History, log.WithPrefix("history"))
		if err != nil {
			return nil, err
		}
		a.store = store
		sessOpts.History = store
	}

	a.session, err = session.New(sessOpts)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("unable to start session: %w", err)
	}
	return a, nil
}

// mix concatenates today's takes of name.
func (a *app) mix(ctx context.Context, name string) (string, error) {
	return mix.Concatenate(ctx, mix.Options{
		Root:      a.cfg.Root,
		Output:    a.cfg.Output,
		Performer: name,
		Logger:    log.WithPrefix("mix"),
	})
}

func (a *app) Close() error {
	var errs []error
	if p, ok := a.player.(*audio.Player); ok {
		errs = append(errs, p.Close())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}
