package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	*httptest.Server

	mu       sync.Mutex
	headers  http.Header
	query    string
	received []string
}

// newTestServer starts a websocket server that records the handshake and
// every client frame, and answers each response.create with replies.
func newTestServer(t *testing.T, replies ...string) *testServer {
	t.Helper()

	ts := &testServer{}
	upgrader := websocket.Upgrader{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.headers = r.Header.Clone()
		ts.query = r.URL.RawQuery
		ts.mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			ts.mu.Lock()
			ts.received = append(ts.received, string(data))
			ts.mu.Unlock()

			if strings.Contains(string(data), `"response.create"`) {
				for _, reply := range replies {
					if err := conn.WriteMessage(websocket.TextMessage, []byte(reply)); err != nil {
						return
					}
				}
			}
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func (ts *testServer) wsURL() string {
	return "ws" + strings.TrimPrefix(ts.URL, "http")
}

func TestWebSocketDialerHandshake(t *testing.T) {
	ts := newTestServer(t)

	d := &WebSocketDialer{Endpoint: ts.wsURL(), Model: "test-model", APIKey: "sk-test"}
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	ts.mu.Lock()
	defer ts.mu.Unlock()
	assert.Equal(t, "Bearer sk-test", ts.headers.Get("Authorization"))
	assert.Equal(t, "realtime=v1", ts.headers.Get("OpenAI-Beta"))
	assert.Equal(t, "model=test-model", ts.query)
}

func TestWebSocketDialerURL(t *testing.T) {
	d := &WebSocketDialer{Model: DefaultModel}
	u, err := d.URL()
	require.NoError(t, err)
	assert.Equal(t, "wss://api.openai.com/v1/realtime?model=gpt-4o-realtime-preview-2024-12-17", u)

	d = &WebSocketDialer{Endpoint: "://bad"}
	_, err = d.URL()
	assert.Error(t, err)
}

func TestWebSocketSendReceive(t *testing.T) {
	ts := newTestServer(t,
		`{"type":"response.audio.delta","delta":"QUI="}`,
		`{"type":"response.done"}`,
	)

	d := &WebSocketDialer{Endpoint: ts.wsURL(), APIKey: "sk-test"}
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	require.NoError(t, conn.Send(NewResponseCreate()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	first, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"response.audio.delta","delta":"QUI="}`, string(first))

	second, err := conn.Receive(ctx)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"response.done"}`, string(second))

	ts.mu.Lock()
	require.Len(t, ts.received, 1)
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(ts.received[0]), &sent))
	ts.mu.Unlock()
	assert.Equal(t, "response.create", sent["type"])
}

func TestWebSocketCloseIsIdempotent(t *testing.T) {
	ts := newTestServer(t)

	d := &WebSocketDialer{Endpoint: ts.wsURL()}
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err = conn.Receive(context.Background())
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, conn.Send(NewResponseCreate()), ErrClosed)
}

func TestWebSocketReceiveHonoursContext(t *testing.T) {
	ts := newTestServer(t)

	d := &WebSocketDialer{Endpoint: ts.wsURL()}
	conn, err := d.Dial(context.Background())
	require.NoError(t, err)
	defer conn.Close() //nolint:errcheck

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err = conn.Receive(ctx)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestWebSocketDialFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	d := &WebSocketDialer{Endpoint: "ws" + strings.TrimPrefix(srv.URL, "http")}
	_, err := d.Dial(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 401")
}
