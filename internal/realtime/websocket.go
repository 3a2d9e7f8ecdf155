package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
)

// WebSocket connection constants
const (
	wsDialTimeout      = 10 * time.Second
	wsWriteWait        = 10 * time.Second
	wsMaxMessageSize   = 64 * 1024 * 1024 // 64MB for audio
	wsCloseGracePeriod = 5 * time.Second
)

// ErrClosed is returned by Receive once the connection has been closed,
// either locally or by a normal close frame from the server.
var ErrClosed = errors.New("realtime connection closed")

// Conn is one duplex realtime connection.
type Conn interface {
	// Send marshals msg as JSON and writes it as a text frame.
	Send(msg interface{}) error

	// Receive blocks for the next inbound frame.
	Receive(ctx context.Context) ([]byte, error)

	// Close closes the connection. Calling it more than once is safe.
	Close() error
}

// Dialer opens realtime connections.
type Dialer interface {
	Dial(ctx context.Context) (Conn, error)
}

// WebSocketDialer dials the realtime endpoint over gorilla/websocket.
type WebSocketDialer struct {
	Endpoint string
	Model    string
	APIKey   string
	Logger   *log.Logger
}

// URL returns the websocket URL including the model parameter.
func (d *WebSocketDialer) URL() (string, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = Endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return "", fmt.Errorf("invalid realtime endpoint: %w", err)
	}
	if d.Model != "" {
		q := u.Query()
		q.Set("model", d.Model)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Header returns the handshake headers carrying the credential and beta marker.
func (d *WebSocketDialer) Header() http.Header {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+d.APIKey)
	headers.Set("OpenAI-Beta", BetaHeader)
	return headers
}

// Dial establishes a websocket connection to the realtime endpoint.
func (d *WebSocketDialer) Dial(ctx context.Context) (Conn, error) {
	logger := d.Logger
	if logger == nil {
		logger = log.Default()
	}

	wsURL, err := d.URL()
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: wsDialTimeout,
	}

	logger.Debug("connecting to realtime endpoint", "url", wsURL)

	conn, resp, err := dialer.DialContext(ctx, wsURL, d.Header())
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
			logger.Error("realtime dial failed", "error", err, "status", resp.StatusCode)
			return nil, fmt.Errorf("failed to connect (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}

	conn.SetReadLimit(wsMaxMessageSize)
	if err := conn.SetReadDeadline(time.Time{}); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to set read deadline: %w", err)
	}

	logger.Info("realtime connection established")
	return NewWebSocket(conn), nil
}

// WebSocket wraps a gorilla connection as a Conn.
type WebSocket struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
	reads  chan readResult
}

type readResult struct {
	data []byte
	err  error
}

// NewWebSocket wraps an established gorilla connection.
func NewWebSocket(conn *websocket.Conn) *WebSocket {
	return &WebSocket{conn: conn}
}

// Send sends a message to the websocket.
func (ws *WebSocket) Send(msg interface{}) error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.closed {
		return ErrClosed
	}

	if err := ws.conn.SetWriteDeadline(time.Now().Add(wsWriteWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	if err := ws.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	return nil
}

// Receive reads a message from the websocket with context support. A read
// abandoned by ctx is picked up by the next Receive call.
func (ws *WebSocket) Receive(ctx context.Context) ([]byte, error) {
	ws.mu.Lock()
	if ws.closed {
		ws.mu.Unlock()
		return nil, ErrClosed
	}
	if ws.reads == nil {
		ws.reads = make(chan readResult, 1)
		go ws.read(ws.reads)
	}
	reads := ws.reads
	ws.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-reads:
		ws.mu.Lock()
		ws.reads = nil
		closed := ws.closed
		ws.mu.Unlock()

		if r.err != nil {
			if closed || websocket.IsCloseError(r.err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil, fmt.Errorf("%w: %v", ErrClosed, r.err)
			}
			return nil, r.err
		}
		return r.data, nil
	}
}

func (ws *WebSocket) read(reads chan<- readResult) {
	_, data, err := ws.conn.ReadMessage()
	reads <- readResult{data: data, err: err}
}

// Close closes the websocket connection gracefully.
func (ws *WebSocket) Close() error {
	ws.mu.Lock()
	defer ws.mu.Unlock()

	if ws.closed {
		return nil
	}
	ws.closed = true

	_ = ws.conn.SetWriteDeadline(time.Now().Add(wsCloseGracePeriod))
	closeMsg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = ws.conn.WriteMessage(websocket.CloseMessage, closeMsg)

	return ws.conn.Close()
}
