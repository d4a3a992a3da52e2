package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"
	"sync"
)

// ErrStreamClosed is reported when the server ends a stream.
var ErrStreamClosed = errors.New("stream closed by server")

const maxEventSize = 1 << 20

// SSETransport opens text/event-stream connections.
type SSETransport struct {
	Client *http.Client
	Header http.Header
}

// NewSSETransport creates an SSE transport. A nil client means a client
// without timeout, as streams are long-lived.
func NewSSETransport(client *http.Client) *SSETransport {
	if client == nil {
		client = &http.Client{}
	}
	return &SSETransport{Client: client, Header: http.Header{}}
}

type sseStream struct {
	cancel context.CancelFunc
	body   io.ReadCloser
	once   sync.Once
	closed chan struct{}
}

func (s *sseStream) Close() error {
	s.once.Do(func() {
		close(s.closed)
		s.cancel()
		s.body.Close()
	})
	return nil
}

func (s *sseStream) isClosed() bool {
	select {
	case <-s.closed:
		return true
	default:
		return false
	}
}

// Open connects and starts reading events in the background.
func (t *SSETransport) Open(ctx context.Context, rawURL string, h Handlers) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create stream request: %w", err)
	}
	for k, vs := range t.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.Client.Do(req)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("connect %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("connect %s: unexpected status %s", rawURL, resp.Status)
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		resp.Body.Close()
		cancel()
		return nil, fmt.Errorf("connect %s: unexpected content type %q", rawURL, mt)
	}

	s := &sseStream{cancel: cancel, body: resp.Body, closed: make(chan struct{})}
	go func() {
		h.open()
		err := readEvents(resp.Body, h.message)
		if s.isClosed() {
			return
		}
		if err == nil {
			err = ErrStreamClosed
		}
		h.fail(err)
	}()
	return s, nil
}

// readEvents parses an event stream, calling dispatch with the data of each
// complete event. Multiple data lines are joined with a newline. It returns
// nil at end of input; an unterminated trailing event is dropped.
func readEvents(r io.Reader, dispatch func(string)) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)
	var (
		data    []string
		hasData bool
	)
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if line == "" {
			if hasData {
				dispatch(strings.Join(data, "\n"))
			}
			data, hasData = data[:0], false
			continue
		}
		if strings.HasPrefix(line, ":") {
			continue
		}
		field, value, found := strings.Cut(line, ":")
		if found {
			value = strings.TrimPrefix(value, " ")
		}
		if field == "data" {
			data = append(data, value)
			hasData = true
		}
		// event, id and retry carry nothing the bridge uses
	}
	return scanner.Err()
}
