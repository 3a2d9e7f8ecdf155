package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/dgnsrekt/voicebooth/internal/history"
	"github.com/dgnsrekt/voicebooth/internal/realtime"
)

// fakeConn replays scripted inbound frames and records everything sent.
type fakeConn struct {
	mu      sync.Mutex
	inbound [][]byte
	sent    []map[string]interface{}
	closes  int

	// sendErr fails the Send call with index failSend.
	sendErr  error
	failSend int
	// recvErr is returned once inbound is exhausted instead of ErrClosed.
	recvErr error
	// block makes Receive wait for ctx once inbound is exhausted.
	block bool
	// receiving is closed on the first Receive call.
	receiving chan struct{}
	once      sync.Once
}

func newFakeConn(frames ...string) *fakeConn {
	c := &fakeConn{failSend: -1, receiving: make(chan struct{})}
	for _, f := range frames {
		c.inbound = append(c.inbound, []byte(f))
	}
	return c
}

func (c *fakeConn) Send(msg interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closes > 0 {
		return realtime.ErrClosed
	}
	if c.sendErr != nil && len(c.sent) == c.failSend {
		return c.sendErr
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	c.sent = append(c.sent, m)
	return nil
}

func (c *fakeConn) Receive(ctx context.Context) ([]byte, error) {
	c.once.Do(func() { close(c.receiving) })

	c.mu.Lock()
	if len(c.inbound) > 0 {
		data := c.inbound[0]
		c.inbound = c.inbound[1:]
		c.mu.Unlock()
		return data, nil
	}
	block, recvErr := c.block, c.recvErr
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if recvErr != nil {
		return nil, recvErr
	}
	return nil, fmt.Errorf("%w: eof", realtime.ErrClosed)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	return nil
}

func (c *fakeConn) Closes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closes
}

func (c *fakeConn) Sent() []map[string]interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]map[string]interface{}(nil), c.sent...)
}

// fakeDialer hands out queued connections in order.
type fakeDialer struct {
	mu    sync.Mutex
	conns []realtime.Conn
	err   error
	dials int
}

func (d *fakeDialer) Dial(context.Context) (realtime.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.dials++
	if d.err != nil {
		return nil, d.err
	}
	if len(d.conns) == 0 {
		return nil, errors.New("no scripted connection")
	}
	c := d.conns[0]
	d.conns = d.conns[1:]
	return c, nil
}

func (d *fakeDialer) Dials() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dials
}

func delta(payload string) string {
	return fmt.Sprintf(`{"type":"response.audio.delta","delta":%q}`, base64.StdEncoding.EncodeToString([]byte(payload)))
}

const (
	audioDone    = `{"type":"response.audio.done"}`
	responseDone = `{"type":"response.done"}`
)

// fakeHistory records takes in memory.
type fakeHistory struct {
	mu    sync.Mutex
	takes []history.Take
}

func (h *fakeHistory) Record(_ context.Context, t history.Take) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.takes = append(h.takes, t)
	return nil
}

func (h *fakeHistory) Takes() []history.Take {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]history.Take(nil), h.takes...)
}
