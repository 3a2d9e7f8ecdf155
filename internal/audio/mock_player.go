package audio

import (
	"context"
	"sync"
	"sync/atomic"
	"time"
)

// MockPlayer records playbacks without producing sound. It is used by tests
// and by headless runs where no audio device is available.
type MockPlayer struct {
	// Test callbacks
	callbacks MockCallbacks

	mu    sync.Mutex
	plays []MockPlay

	// Test configuration
	err         error
	delay       time.Duration
	decodeFiles bool

	playCount atomic.Int64
}

// MockPlay is one recorded playback.
type MockPlay struct {
	Path string
	// Clip is set when decoding is enabled.
	Clip *Clip
}

// MockCallbacks provides hooks for testing.
type MockCallbacks struct {
	OnPlay func(path string)
}

// NewMockPlayer creates a mock player with custom callbacks.
func NewMockPlayer(callbacks MockCallbacks) *MockPlayer {
	return &MockPlayer{callbacks: callbacks}
}

// SetError makes every subsequent playback fail with err.
func (mp *MockPlayer) SetError(err error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.err = err
}

// SetDelay simulates playback time.
func (mp *MockPlayer) SetDelay(d time.Duration) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.delay = d
}

// SetDecode makes PlayFile decode the file like a real player would, so
// playing a non-WAV file fails.
func (mp *MockPlayer) SetDecode(enabled bool) {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	mp.decodeFiles = enabled
}

// PlayFile records path and returns the configured error, if any.
func (mp *MockPlayer) PlayFile(ctx context.Context, path string) error {
	mp.mu.Lock()
	err, delay, decode := mp.err, mp.delay, mp.decodeFiles
	mp.mu.Unlock()

	if err != nil {
		return err
	}

	play := MockPlay{Path: path}
	if decode {
		clip, err := ReadFile(path)
		if err != nil {
			return err
		}
		play.Clip = clip
	}

	if delay > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	mp.mu.Lock()
	mp.plays = append(mp.plays, play)
	mp.mu.Unlock()
	mp.playCount.Add(1)

	if mp.callbacks.OnPlay != nil {
		mp.callbacks.OnPlay(path)
	}
	return nil
}

// Plays returns the recorded playbacks in order.
func (mp *MockPlayer) Plays() []MockPlay {
	mp.mu.Lock()
	defer mp.mu.Unlock()
	return append([]MockPlay(nil), mp.plays...)
}

// PlayCount returns the number of completed playbacks.
func (mp *MockPlayer) PlayCount() int64 {
	return mp.playCount.Load()
}
