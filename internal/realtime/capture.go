package realtime

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/klauspost/compress/zstd"
)

// Frame directions recorded in a capture.
const (
	DirectionOut = "out"
	DirectionIn  = "in"
)

// Frame is one recorded wire message. Data holds the raw text so malformed
// inbound frames survive a round trip.
type Frame struct {
	Direction string    `json:"dir"`
	At        time.Time `json:"at"`
	Data      string    `json:"data"`
}

// Recorder appends frames to a zstd-compressed JSON-lines file.
type Recorder struct {
	path string
	file *os.File
	enc  *zstd.Encoder
	json *json.Encoder

	mu     sync.Mutex
	clock  func() time.Time
	closed bool
}

// NewRecorder creates the capture file at path, creating parent directories.
func NewRecorder(path string) (*Recorder, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create capture directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}

	return &Recorder{
		path:  path,
		file:  f,
		enc:   enc,
		json:  json.NewEncoder(enc),
		clock: time.Now,
	}, nil
}

// Path returns the capture file location.
func (r *Recorder) Path() string {
	return r.path
}

// Record appends one frame.
func (r *Recorder) Record(direction string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New("capture recorder is closed")
	}
	return r.json.Encode(Frame{Direction: direction, At: r.clock(), Data: string(data)})
}

// Close flushes the compressed stream and closes the file.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	encErr := r.enc.Close()
	fileErr := r.file.Close()
	return errors.Join(encErr, fileErr)
}

// ReadCapture decodes every frame of a capture file.
func ReadCapture(path string) ([]Frame, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture: %w", err)
	}
	defer f.Close() //nolint:errcheck

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	defer dec.Close()

	var frames []Frame
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), wsMaxMessageSize)
	for scanner.Scan() {
		var fr Frame
		if err := json.Unmarshal(scanner.Bytes(), &fr); err != nil {
			return nil, fmt.Errorf("corrupt capture frame %d: %w", len(frames)+1, err)
		}
		frames = append(frames, fr)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read capture: %w", err)
	}
	return frames, nil
}

// Capture wraps conn so every frame in both directions is recorded. Closing
// the returned Conn closes both conn and the recorder.
func Capture(conn Conn, rec *Recorder) Conn {
	return &capturedConn{Conn: conn, rec: rec}
}

type capturedConn struct {
	Conn
	rec *Recorder
}

func (c *capturedConn) Send(msg interface{}) error {
	if data, err := json.Marshal(msg); err == nil {
		_ = c.rec.Record(DirectionOut, data)
	}
	return c.Conn.Send(msg)
}

func (c *capturedConn) Receive(ctx context.Context) ([]byte, error) {
	data, err := c.Conn.Receive(ctx)
	if err == nil {
		_ = c.rec.Record(DirectionIn, data)
	}
	return data, err
}

func (c *capturedConn) Close() error {
	return errors.Join(c.Conn.Close(), c.rec.Close())
}

// Replay is a Conn that plays back the inbound frames of a capture. Sends
// are accepted and discarded.
type Replay struct {
	mu     sync.Mutex
	frames [][]byte
	next   int
	closed bool
	sent   [][]byte
}

// NewReplay builds a replay from raw inbound frames.
func NewReplay(inbound ...[]byte) *Replay {
	return &Replay{frames: inbound}
}

// OpenReplay loads the inbound frames of a capture file.
func OpenReplay(path string) (*Replay, error) {
	frames, err := ReadCapture(path)
	if err != nil {
		return nil, err
	}

	var inbound [][]byte
	for _, fr := range frames {
		if fr.Direction == DirectionIn {
			inbound = append(inbound, []byte(fr.Data))
		}
	}
	return NewReplay(inbound...), nil
}

// Dial returns the replay itself, so a Replay also serves as a Dialer.
func (r *Replay) Dial(context.Context) (Conn, error) {
	return r, nil
}

// Send records msg for inspection.
func (r *Replay) Send(msg interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	r.sent = append(r.sent, data)
	return nil
}

// Receive returns the next inbound frame, or ErrClosed once exhausted.
func (r *Replay) Receive(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.next >= len(r.frames) {
		return nil, fmt.Errorf("%w: %v", ErrClosed, io.EOF)
	}
	data := r.frames[r.next]
	r.next++
	return data, nil
}

// Close marks the replay closed.
func (r *Replay) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
	return nil
}

// Sent returns the frames sent so far.
func (r *Replay) Sent() [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]byte(nil), r.sent...)
}
