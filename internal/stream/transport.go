// Package stream provides push transports and the per-channel subscription
// state machine.
package stream

import (
	"context"
	"fmt"
	"net/url"
)

// Handlers are the callbacks of an open stream. They are called from the
// transport's reader goroutine, one at a time.
type Handlers struct {
	OnOpen    func()
	OnMessage func(data string)
	OnError   func(err error)
}

func (h Handlers) open() {
	if h.OnOpen != nil {
		h.OnOpen()
	}
}

func (h Handlers) message(data string) {
	if h.OnMessage != nil {
		h.OnMessage(data)
	}
}

func (h Handlers) fail(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

// Stream is an open push connection.
type Stream interface {
	Close() error
}

// Transport opens push connections.
type Transport interface {
	Open(ctx context.Context, rawURL string, h Handlers) (Stream, error)
}

// AutoTransport picks SSE for http(s) URLs and WebSocket for ws(s) URLs.
type AutoTransport struct {
	SSE       Transport
	WebSocket Transport
}

// NewAutoTransport returns an AutoTransport with default transports.
func NewAutoTransport() *AutoTransport {
	return &AutoTransport{SSE: NewSSETransport(nil), WebSocket: NewWebSocketTransport(nil)}
}

func (a *AutoTransport) Open(ctx context.Context, rawURL string, h Handlers) (Stream, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse stream url: %w", err)
	}
	switch u.Scheme {
	case "http", "https":
		return a.SSE.Open(ctx, rawURL, h)
	case "ws", "wss":
		return a.WebSocket.Open(ctx, rawURL, h)
	default:
		return nil, fmt.Errorf("unsupported stream scheme %q", u.Scheme)
	}
}
