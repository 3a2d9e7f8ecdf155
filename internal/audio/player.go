package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// Device format. oto allows a single context per process, so every clip is
// converted to this format before playback.
const (
	DeviceSampleRate = 48000
	DeviceChannels   = 2
)

// drainPoll is how often PlayFile checks whether the device has finished.
const drainPoll = 10 * time.Millisecond

// PlayerState is the current state of a player.
type PlayerState int32

const (
	StateStopped PlayerState = iota
	StatePlaying
	StateClosed
)

// String returns the name of the state.
func (s PlayerState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ErrPlayerClosed is returned by a player after Close.
var ErrPlayerClosed = errors.New("player is closed")

var (
	otoOnce sync.Once
	otoCtx  *oto.Context
	otoErr  error
)

// deviceContext returns the process-wide oto context, creating it on first use.
func deviceContext() (*oto.Context, error) {
	otoOnce.Do(func() {
		ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   DeviceSampleRate,
			ChannelCount: DeviceChannels,
			Format:       oto.FormatSignedInt16LE,
		})
		if err != nil {
			otoErr = fmt.Errorf("failed to create oto context: %w", err)
			return
		}
		<-ready
		otoCtx = ctx
	})
	return otoCtx, otoErr
}

// Player plays WAV files on the audio device, one at a time.
type Player struct {
	logger *log.Logger

	// playMu serializes playbacks.
	playMu sync.Mutex

	state  atomic.Int32
	volume atomic.Uint64

	mu     sync.Mutex
	player *oto.Player
	// stream keeps the PCM alive while oto reads from it.
	stream []byte
}

// NewPlayer creates a player. The audio device is opened lazily on the first
// playback.
func NewPlayer(logger *log.Logger) *Player {
	if logger == nil {
		logger = log.Default()
	}
	p := &Player{logger: logger}
	p.state.Store(int32(StateStopped))
	p.volume.Store(1_000_000)
	return p
}

// SetVolume sets the playback volume (0.0 to 1.0).
func (p *Player) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return fmt.Errorf("volume must be between 0.0 and 1.0, got %f", volume)
	}
	p.volume.Store(uint64(volume * 1_000_000))

	p.mu.Lock()
	if p.player != nil {
		p.player.SetVolume(volume)
	}
	p.mu.Unlock()
	return nil
}

// Volume returns the current volume.
func (p *Player) Volume() float64 {
	return float64(p.volume.Load()) / 1_000_000
}

// State returns the current player state.
func (p *Player) State() PlayerState {
	return PlayerState(p.state.Load())
}

// PlayFile decodes the WAV file at path and blocks until it has played or
// ctx is done.
func (p *Player) PlayFile(ctx context.Context, path string) error {
	clip, err := ReadFile(path)
	if err != nil {
		return err
	}
	return p.PlayClip(ctx, clip)
}

// PlayClip plays an already decoded clip and blocks until it has played or
// ctx is done.
func (p *Player) PlayClip(ctx context.Context, clip *Clip) error {
	p.playMu.Lock()
	defer p.playMu.Unlock()

	if p.State() == StateClosed {
		return ErrPlayerClosed
	}

	device, err := deviceContext()
	if err != nil {
		return err
	}

	pcm := clip.Convert(DeviceSampleRate, DeviceChannels).PCM16()
	if len(pcm) == 0 {
		return nil
	}

	player := device.NewPlayer(bytes.NewReader(pcm))
	player.SetVolume(p.Volume())

	p.mu.Lock()
	p.player = player
	p.stream = pcm
	p.mu.Unlock()

	p.logger.Debug("playback started", "duration", clip.Duration())
	p.state.Store(int32(StatePlaying))
	player.Play()

	ticker := time.NewTicker(drainPoll)
	defer ticker.Stop()

	var playErr error
drain:
	for player.IsPlaying() {
		select {
		case <-ctx.Done():
			player.Pause()
			playErr = ctx.Err()
			break drain
		case <-ticker.C:
		}
	}

	p.mu.Lock()
	closeErr := player.Close()
	p.player = nil
	p.stream = nil
	p.mu.Unlock()

	p.state.CompareAndSwap(int32(StatePlaying), int32(StateStopped))
	if playErr != nil {
		return playErr
	}
	if err := player.Err(); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return closeErr
}

// Close stops any playback and rejects further use.
func (p *Player) Close() error {
	p.state.Store(int32(StateClosed))

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.player != nil {
		p.player.Pause()
	}
	return nil
}
