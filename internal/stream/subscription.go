package stream

import (
	"context"
	"errors"
	"sync"

	"github.com/cristianoliveira/crmsync/internal/logging"
)

// ErrClosed is the reason recorded when a subscription is closed by its owner.
var ErrClosed = errors.New("subscription closed")

// State is the lifecycle state of a subscription.
type State int

const (
	StateConnecting State = iota
	StateOpen
	StateDisabled
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateDisabled:
		return "disabled"
	default:
		return "unknown"
	}
}

// Subscription owns one push channel. The first error disables it for good:
// there is no reconnection.
type Subscription struct {
	name      string
	url       string
	transport Transport
	onMessage func(string)
	logger    logging.Logger

	mu      sync.Mutex
	state   State
	stream  Stream
	reason  error
	disable sync.Once
}

// NewSubscription creates a subscription in the connecting state. Nothing is
// opened until Start.
func NewSubscription(name, url string, transport Transport, onMessage func(string), logger logging.Logger) *Subscription {
	if logger == nil {
		logger = logging.NewNoop()
	}
	return &Subscription{
		name:      name,
		url:       url,
		transport: transport,
		onMessage: onMessage,
		logger:    logger.With("channel", name),
	}
}

// Name returns the channel name.
func (s *Subscription) Name() string { return s.name }

// State returns the current state.
func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Err returns why the subscription was disabled, or nil.
func (s *Subscription) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Start opens the stream. An open failure disables the subscription and is returned.
func (s *Subscription) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateDisabled {
		s.mu.Unlock()
		return s.Err()
	}
	s.mu.Unlock()

	stream, err := s.transport.Open(ctx, s.url, Handlers{
		OnOpen:    s.opened,
		OnMessage: s.deliver,
		OnError:   s.Fail,
	})
	if err != nil {
		s.Fail(err)
		return err
	}

	s.mu.Lock()
	if s.state == StateDisabled {
		// an error callback won the race against Open returning
		s.mu.Unlock()
		stream.Close()
		return s.Err()
	}
	s.stream = stream
	s.mu.Unlock()
	return nil
}

func (s *Subscription) opened() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateConnecting {
		s.state = StateOpen
		s.logger.Debug("stream open")
	}
}

func (s *Subscription) deliver(data string) {
	s.mu.Lock()
	disabled := s.state == StateDisabled
	s.mu.Unlock()
	if disabled || s.onMessage == nil {
		return
	}
	s.onMessage(data)
}

// Fail disables the subscription after a transport error. Only the first call
// has an effect: one warning is logged and the stream is closed once.
func (s *Subscription) Fail(err error) {
	s.shutdown(err, true)
}

// Close disables the subscription without reporting an error.
func (s *Subscription) Close() {
	s.shutdown(ErrClosed, false)
}

func (s *Subscription) shutdown(reason error, warn bool) {
	s.disable.Do(func() {
		s.mu.Lock()
		s.state = StateDisabled
		s.reason = reason
		stream := s.stream
		s.stream = nil
		s.mu.Unlock()

		if warn {
			s.logger.Warn("stream disabled after error, not reconnecting", "url", s.url, "error", reason)
		}
		if stream != nil {
			stream.Close()
		}
	})
}
