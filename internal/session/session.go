// Package session drives one realtime speech generation at a time: it
// negotiates the connection, collects streamed audio into a WAV take, and
// saves or plays takes on request.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/voicebooth/internal/history"
	"github.com/dgnsrekt/voicebooth/internal/performer"
	"github.com/dgnsrekt/voicebooth/internal/realtime"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	"golang.org/x/time/rate"
)

// DefaultRequestsPerMinute bounds dial attempts when Options leaves it zero.
const DefaultRequestsPerMinute = 20

// Directory names under the session root.
const (
	TempDir    = "temp"
	CaptureDir = "captures"
)

// VoiceResolver maps a performer to synthesis settings.
type VoiceResolver interface {
	Resolve(name string) (performer.Voice, bool)
}

// Player plays a WAV file and blocks until it has finished.
type Player interface {
	PlayFile(ctx context.Context, path string) error
}

// Recorder stores saved takes.
type Recorder interface {
	Record(ctx context.Context, t history.Take) error
}

// Options configures a Session.
type Options struct {
	// Root holds the temp, capture and per-performer take directories.
	Root   string
	Dialer realtime.Dialer
	Voices VoiceResolver
	Player Player
	// History is optional.
	History Recorder
	Logger  *log.Logger

	// RequestsPerMinute limits dials. Zero selects the default and a
	// negative value disables limiting.
	RequestsPerMinute int

	// Capture records every frame of each generation under Root/captures.
	Capture bool

	Clock func() time.Time
}

// Session is the streaming session manager. Generate must not be called
// concurrently; the other methods are safe to call while idle.
type Session struct {
	root    string
	dialer  realtime.Dialer
	voices  VoiceResolver
	player  Player
	history Recorder
	logger  *log.Logger
	limiter *rate.Limiter
	capture bool
	clock   func() time.Time
	newID   func() string

	busy atomic.Bool

	mu           sync.Mutex
	performer    string
	instructions string
	text         string
	voice        performer.Voice
	tempPath     string
}

// New creates a session.
func New(opts Options) (*Session, error) {
	if opts.Root == "" {
		return nil, newError(CodeConfig, "session root is required", nil)
	}
	if opts.Dialer == nil {
		return nil, newError(CodeConfig, "dialer is required", nil)
	}
	if opts.Voices == nil {
		return nil, newError(CodeConfig, "voice resolver is required", nil)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	rpm := opts.RequestsPerMinute
	if rpm == 0 {
		rpm = DefaultRequestsPerMinute
	}
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rpm > 0 {
		limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}

	return &Session{
		root:    opts.Root,
		dialer:  opts.Dialer,
		voices:  opts.Voices,
		player:  opts.Player,
		history: opts.History,
		logger:  logger,
		limiter: limiter,
		capture: opts.Capture,
		clock:   clock,
		newID:   uuid.NewString,
	}, nil
}

// Configure selects the performer for subsequent generations.
func (s *Session) Configure(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.performer = norm.NFC.String(name)
}

// Performer returns the configured performer.
func (s *Session) Performer() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.performer
}

// LastTake returns the unsaved take of the last generation, or "".
func (s *Session) LastTake() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tempPath
}

// ComposeText builds the user message from an acting direction and a line.
func ComposeText(direction, text string) string {
	return direction + "\n「" + text + "」"
}

// Generate synthesizes text and blocks until the connection has finished. It
// returns the path of the unsaved take.
func (s *Session) Generate(ctx context.Context, instructions, direction, text string) (string, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer s.busy.Store(false)

	s.mu.Lock()
	name := s.performer
	if name == "" {
		s.mu.Unlock()
		return "", newError(CodeConfig, "configure a performer before generating", ErrNotConfigured)
	}
	s.instructions = instructions
	s.text = ComposeText(direction, text)
	composed := s.text
	s.mu.Unlock()

	voice, _ := s.voices.Resolve(name)
	s.mu.Lock()
	s.voice = voice
	s.mu.Unlock()

	if err := s.resetTemp(); err != nil {
		return "", newError(CodeIO, "failed to reset temp file", err)
	}

	id := s.newID()
	logger := s.logger.With("generation", id, "performer", name)

	if err := s.limiter.Wait(ctx); err != nil {
		return "", newError(CodeTransport, "rate limit wait failed", err)
	}

	g := newGeneration(s, logger)
	if err := g.machine.Begin(); err != nil {
		return "", err
	}

	logger.Info("generating", "voice", voice.ID, "speed", voice.Speed)
	conn, err := s.dialer.Dial(ctx)
	if err != nil {
		g.apply(Event{Kind: EventTransportError, Err: err})
		return "", newError(CodeNoAudio, "connection failed", newError(CodeTransport, "dial failed", err)).
			WithContext("performer", name)
	}

	if s.capture {
		path := filepath.Join(s.root, CaptureDir, id+".jsonl.zst")
		rec, err := realtime.NewRecorder(path)
		if err != nil {
			logger.Warn("capture disabled", "error", err)
		} else {
			logger.Debug("capturing session", "path", path)
			conn = realtime.Capture(conn, rec)
		}
	}

	g.run(ctx, conn, voice, instructions, composed)

	if g.ioErr != nil {
		return "", g.ioErr
	}

	path := s.LastTake()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			logger.Info("generation finished", "state", g.machine.Current(), "path", path)
			return path, nil
		}
	}

	logger.Warn("generation produced no audio", "state", g.machine.Current())
	return "", newError(CodeNoAudio, "generation produced no audio", g.transportErr).
		WithContext("performer", name).
		WithContext("state", g.machine.Current().String())
}

// resetTemp deletes any unsaved take and clears the slot.
func (s *Session) resetTemp() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.tempPath == "" {
		return nil
	}
	if err := os.Remove(s.tempPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	s.logger.Debug("discarded unsaved take", "path", s.tempPath)
	s.tempPath = ""
	return nil
}

// discardTemp removes path and clears the slot if it still holds path.
func (s *Session) discardTemp(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		s.logger.Warn("failed to remove partial take", "path", path, "error", err)
	}
	if s.tempPath == path {
		s.tempPath = ""
	}
}

// allocateTemp replaces the temp slot with a fresh path, deleting the
// previous file.
func (s *Session) allocateTemp() (string, error) {
	if err := s.resetTemp(); err != nil {
		return "", err
	}

	dir := filepath.Join(s.root, TempDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, "take-"+s.newID()+".wav")
	s.mu.Lock()
	s.tempPath = path
	s.mu.Unlock()
	return path, nil
}

// Save promotes the unsaved take to <root>/<performer>/. It returns "" and
// no error when there is nothing to save.
func (s *Session) Save(name string) (string, error) {
	name = norm.NFC.String(name)

	s.mu.Lock()
	defer s.mu.Unlock()

	src := s.tempPath
	if src == "" {
		s.logger.Warn("no take to save")
		return "", nil
	}
	info, err := os.Stat(src)
	if err != nil {
		s.logger.Warn("no take to save", "path", src)
		return "", nil
	}

	dir := filepath.Join(s.root, name)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", newError(CodeIO, "failed to create performer directory", err)
	}

	now := s.clock()
	dst := filepath.Join(dir, fmt.Sprintf("%s_%s.wav", name, now.Format("0102_150405")))
	if err := copyFile(src, dst); err != nil {
		return "", newError(CodeIO, "failed to save take", err)
	}
	if err := os.Remove(src); err != nil {
		s.logger.Warn("failed to remove temp take", "path", src, "error", err)
	}
	s.tempPath = ""

	s.logger.Info("take saved", "path", dst, "size", humanize.Bytes(uint64(info.Size())))

	if s.history != nil {
		take := history.Take{
			Performer: name,
			Path:      dst,
			Voice:     s.voice.ID,
			Speed:     s.voice.Speed,
			Bytes:     info.Size(),
			Duration:  pcmDuration(info.Size()),
			CreatedAt: now,
		}
		if err := s.history.Record(context.Background(), take); err != nil {
			s.logger.Error("failed to record take", "error", err)
		}
	}
	return dst, nil
}

// Play plays path, or the unsaved take when path is empty. Missing files are
// logged and ignored.
func (s *Session) Play(ctx context.Context, path string) error {
	if path == "" {
		path = s.LastTake()
	}
	if path == "" {
		s.logger.Warn("nothing to play")
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		s.logger.Warn("nothing to play", "path", path)
		return nil
	}
	if s.player == nil {
		return newError(CodeConfig, "no audio player configured", nil)
	}

	s.logger.Debug("playing", "path", path)
	return s.player.PlayFile(ctx, path)
}

// copyFile copies src to dst so saves work across devices.
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close() //nolint:errcheck

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// pcmDuration estimates the length of a take from its file size.
func pcmDuration(size int64) time.Duration {
	const header = 44
	if size <= header {
		return 0
	}
	bytesPerSecond := int64(realtime.SampleRate * realtime.Channels * realtime.BitDepth / 8)
	return time.Duration(size-header) * time.Second / time.Duration(bytesPerSecond)
}
