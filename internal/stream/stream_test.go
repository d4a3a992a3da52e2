package stream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cristianoliveira/crmsync/internal/logging"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingLogger struct {
	warns atomic.Int32
}

func (l *countingLogger) Debug(string, ...any)       {}
func (l *countingLogger) Info(string, ...any)        {}
func (l *countingLogger) Warn(string, ...any)        { l.warns.Add(1) }
func (l *countingLogger) Error(string, ...any)       {}
func (l *countingLogger) With(...any) logging.Logger { return l }
func (l *countingLogger) Shutdown() error            { return nil }

type fakeStream struct {
	closes atomic.Int32
}

func (s *fakeStream) Close() error {
	s.closes.Add(1)
	return nil
}

type fakeTransport struct {
	mu       sync.Mutex
	handlers Handlers
	url      string
	stream   *fakeStream
	openErr  error
	// duringOpen runs before Open returns, with the registered handlers.
	duringOpen func(Handlers)
}

func (t *fakeTransport) Open(ctx context.Context, rawURL string, h Handlers) (Stream, error) {
	t.mu.Lock()
	t.handlers = h
	t.url = rawURL
	t.mu.Unlock()
	if t.openErr != nil {
		return nil, t.openErr
	}
	if t.duringOpen != nil {
		t.duringOpen(h)
	}
	t.stream = &fakeStream{}
	return t.stream, nil
}

func TestReadEvents(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "single event", input: "data: {\"a\":1}\n\n", want: []string{`{"a":1}`}},
		{name: "multi line data", input: "data: line1\ndata: line2\n\n", want: []string{"line1\nline2"}},
		{name: "comments and other fields", input: ": ping\nevent: crm\nid: 7\nretry: 1000\ndata: x\n\n", want: []string{"x"}},
		{name: "crlf line endings", input: "data: x\r\n\r\n", want: []string{"x"}},
		{name: "no space after colon", input: "data:x\n\n", want: []string{"x"}},
		{name: "empty data line", input: "data\n\n", want: []string{""}},
		{name: "blank lines without data", input: "\n\n\n", want: nil},
		{name: "unterminated event dropped", input: "data: a\n\ndata: b\n", want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got []string
			err := readEvents(strings.NewReader(tt.input), func(s string) { got = append(got, s) })
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func collect(t *testing.T) (Handlers, chan string, chan error, chan struct{}) {
	t.Helper()
	messages := make(chan string, 10)
	errs := make(chan error, 1)
	opened := make(chan struct{}, 1)
	return Handlers{
		OnOpen:    func() { opened <- struct{}{} },
		OnMessage: func(data string) { messages <- data },
		OnError:   func(err error) { errs <- err },
	}, messages, errs, opened
}

func TestSSETransport(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "text/event-stream; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "data: {\"type\":\"deal.updated\"}\n\n")
		fmt.Fprint(w, ": keepalive\n\n")
		fmt.Fprint(w, "data: second\n\n")
		w.(http.Flusher).Flush()
	}))
	defer ts.Close()

	h, messages, errs, opened := collect(t)
	s, err := NewSSETransport(nil).Open(context.Background(), ts.URL, h)
	require.NoError(t, err)
	defer s.Close()

	<-opened
	assert.Equal(t, `{"type":"deal.updated"}`, <-messages)
	assert.Equal(t, "second", <-messages)
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrStreamClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("expected the end of the stream to be reported")
	}
}

func TestSSETransportRejectsBadResponses(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name:    "status",
			handler: func(w http.ResponseWriter, r *http.Request) { http.Error(w, "nope", http.StatusUnauthorized) },
			wantErr: "unexpected status",
		},
		{
			name: "content type",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				fmt.Fprint(w, "{}")
			},
			wantErr: "unexpected content type",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(tt.handler)
			defer ts.Close()
			_, err := NewSSETransport(nil).Open(context.Background(), ts.URL, Handlers{})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestSSECloseDoesNotReportError(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer ts.Close()
	defer close(release)

	h, _, errs, opened := collect(t)
	s, err := NewSSETransport(nil).Open(context.Background(), ts.URL, h)
	require.NoError(t, err)
	<-opened
	require.NoError(t, s.Close())

	select {
	case err := <-errs:
		t.Fatalf("unexpected error after Close: %v", err)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWebSocketTransport(t *testing.T) {
	upgrader := websocket.Upgrader{}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"payment.created"}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte("plain text"))
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"))
	}))
	defer ts.Close()

	h, messages, errs, opened := collect(t)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http")
	s, err := NewWebSocketTransport(nil).Open(context.Background(), wsURL, h)
	require.NoError(t, err)
	defer s.Close()

	<-opened
	assert.Equal(t, `{"type":"payment.created"}`, <-messages)
	assert.Equal(t, "plain text", <-messages)
	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrStreamClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("expected the close frame to be reported")
	}
}

func TestAutoTransport(t *testing.T) {
	sse, ws := &fakeTransport{}, &fakeTransport{}
	auto := &AutoTransport{SSE: sse, WebSocket: ws}

	_, err := auto.Open(context.Background(), "https://crm.example.com/events", Handlers{})
	require.NoError(t, err)
	_, err = auto.Open(context.Background(), "wss://crm.example.com/events", Handlers{})
	require.NoError(t, err)
	assert.Equal(t, "https://crm.example.com/events", sse.url)
	assert.Equal(t, "wss://crm.example.com/events", ws.url)

	_, err = auto.Open(context.Background(), "ftp://crm.example.com/events", Handlers{})
	assert.ErrorContains(t, err, "unsupported stream scheme")
}

func TestSubscriptionLifecycle(t *testing.T) {
	transport := &fakeTransport{}
	var received []string
	sub := NewSubscription("crm", "https://crm/events", transport, func(data string) { received = append(received, data) }, nil)
	assert.Equal(t, StateConnecting, sub.State())

	require.NoError(t, sub.Start(context.Background()))
	assert.Equal(t, StateConnecting, sub.State())

	transport.handlers.OnOpen()
	assert.Equal(t, StateOpen, sub.State())

	transport.handlers.OnMessage("a")
	sub.Close()
	transport.handlers.OnMessage("after close")

	assert.Equal(t, []string{"a"}, received)
	assert.Equal(t, StateDisabled, sub.State())
	assert.ErrorIs(t, sub.Err(), ErrClosed)
	assert.Equal(t, int32(1), transport.stream.closes.Load())
}

func TestSubscriptionDisablesExactlyOnce(t *testing.T) {
	transport := &fakeTransport{}
	logger := &countingLogger{}
	sub := NewSubscription("payments", "https://crm/payments", transport, nil, logger)
	require.NoError(t, sub.Start(context.Background()))
	transport.handlers.OnOpen()

	boom := errors.New("connection reset")
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transport.handlers.OnError(boom)
		}()
	}
	wg.Wait()
	transport.handlers.OnError(errors.New("late"))

	assert.Equal(t, int32(1), logger.warns.Load())
	assert.Equal(t, StateDisabled, sub.State())
	assert.ErrorIs(t, sub.Err(), boom)
	assert.Equal(t, int32(1), transport.stream.closes.Load())

	// no reconnection
	assert.ErrorIs(t, sub.Start(context.Background()), boom)
}

func TestSubscriptionOpenFailure(t *testing.T) {
	logger := &countingLogger{}
	refused := errors.New("connection refused")
	sub := NewSubscription("crm", "https://crm/events", &fakeTransport{openErr: refused}, nil, logger)

	err := sub.Start(context.Background())

	assert.ErrorIs(t, err, refused)
	assert.Equal(t, StateDisabled, sub.State())
	assert.Equal(t, int32(1), logger.warns.Load())
}

func TestSubscriptionErrorDuringOpen(t *testing.T) {
	logger := &countingLogger{}
	dropped := errors.New("dropped")
	transport := &fakeTransport{duringOpen: func(h Handlers) { h.OnError(dropped) }}
	sub := NewSubscription("crm", "https://crm/events", transport, nil, logger)

	err := sub.Start(context.Background())

	assert.ErrorIs(t, err, dropped)
	assert.Equal(t, StateDisabled, sub.State())
	assert.Equal(t, int32(1), logger.warns.Load())
	assert.Equal(t, int32(1), transport.stream.closes.Load())
}
