package stream

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketTransport receives push messages as WebSocket text frames.
type WebSocketTransport struct {
	Dialer *websocket.Dialer
	Header http.Header
}

// NewWebSocketTransport creates a WebSocket transport; a nil dialer means websocket.DefaultDialer.
func NewWebSocketTransport(dialer *websocket.Dialer) *WebSocketTransport {
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	return &WebSocketTransport{Dialer: dialer, Header: http.Header{}}
}

type wsStream struct {
	conn   *websocket.Conn
	once   sync.Once
	closed chan struct{}
}

func (s *wsStream) Close() error {
	var err error
	s.once.Do(func() {
		close(s.closed)
		deadline := time.Now().Add(time.Second)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
		err = s.conn.Close()
	})
	return err
}

func (s *wsStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Open dials rawURL and starts reading frames in the background.
func (t *WebSocketTransport) Open(ctx context.Context, rawURL string, h Handlers) (Stream, error) {
	conn, resp, err := t.Dialer.DialContext(ctx, rawURL, t.Header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("dial %s: %s: %w", rawURL, resp.Status, err)
		}
		return nil, fmt.Errorf("dial %s: %w", rawURL, err)
	}
	s := &wsStream{conn: conn, closed: make(chan struct{})}
	go func() {
		h.open()
		for {
			kind, data, err := conn.ReadMessage()
			if err != nil {
				if s.isClosed() {
					return
				}
				if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					err = fmt.Errorf("%w: %v", ErrStreamClosed, err)
				}
				h.fail(err)
				return
			}
			if kind == websocket.TextMessage || kind == websocket.BinaryMessage {
				h.message(string(data))
			}
		}
	}()
	return s, nil
}
