package feed

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

var (
	// ErrChannelPending is returned when a toggle of the channel is in flight.
	ErrChannelPending = errors.New("channel update already in progress")
	// ErrUnknownChannel is returned for channels missing from the settings.
	ErrUnknownChannel = errors.New("unknown channel")
	// ErrChannelReadOnly is returned for channels that cannot be edited.
	ErrChannelReadOnly = errors.New("channel is read-only")
)

// ChannelUpdater writes a channel setting remotely and returns the stored state.
type ChannelUpdater func(ctx context.Context, channel string, enabled bool) (domain.ChannelState, error)

// Channels holds delivery settings per channel with a pending flag per
// channel, so a toggle in flight cannot be started again.
type Channels struct {
	mu       sync.Mutex
	channels map[string]domain.ChannelState
	order    []string
	pending  map[string]bool
}

// NewChannels creates an empty settings store.
func NewChannels() *Channels {
	return &Channels{
		channels: make(map[string]domain.ChannelState),
		pending:  make(map[string]bool),
	}
}

// SetSettings replaces every channel and clears the pending flags.
func (c *Channels) SetSettings(settings []domain.ChannelState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.channels = make(map[string]domain.ChannelState, len(settings))
	c.order = c.order[:0]
	for _, st := range settings {
		if _, dup := c.channels[st.Channel]; !dup {
			c.order = append(c.order, st.Channel)
		}
		c.channels[st.Channel] = cloneChannel(st)
	}
	c.pending = make(map[string]bool)
}

// SetEnabled flips the enabled flag of a known channel.
func (c *Channels) SetEnabled(channel string, enabled bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.channels[channel]
	if !ok {
		return false
	}
	st.Enabled = enabled
	c.channels[channel] = st
	return true
}

// SetPending sets the pending flag of a channel.
func (c *Channels) SetPending(channel string, pending bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[channel] = pending
}

// Pending reports whether a toggle of channel is in flight.
func (c *Channels) Pending(channel string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending[channel]
}

// SetState stores the state of one channel, appending unknown channels to the
// order, and clears its pending flag.
func (c *Channels) SetState(channel string, st domain.ChannelState) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setStateLocked(channel, st)
}

func (c *Channels) setStateLocked(channel string, st domain.ChannelState) {
	if _, ok := c.channels[channel]; !ok {
		c.order = append(c.order, channel)
	}
	c.channels[channel] = cloneChannel(st)
	c.pending[channel] = false
}

// Get returns the state of one channel.
func (c *Channels) Get(channel string) (domain.ChannelState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	st, ok := c.channels[channel]
	return cloneChannel(st), ok
}

// Settings returns every channel in settings order.
func (c *Channels) Settings() []domain.ChannelState {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.ChannelState, 0, len(c.order))
	for _, ch := range c.order {
		out = append(out, cloneChannel(c.channels[ch]))
	}
	return out
}

// Toggle enables or disables a channel through update. The change is visible
// while the update is in flight and reverted if it fails. A second toggle of
// the same channel is refused with ErrChannelPending until the first settles.
func (c *Channels) Toggle(ctx context.Context, channel string, enabled bool, update ChannelUpdater) (domain.ChannelState, error) {
	c.mu.Lock()
	prev, ok := c.channels[channel]
	switch {
	case !ok:
		c.mu.Unlock()
		return domain.ChannelState{}, fmt.Errorf("%w: %s", ErrUnknownChannel, channel)
	case !prev.Editable:
		c.mu.Unlock()
		return domain.ChannelState{}, fmt.Errorf("%w: %s", ErrChannelReadOnly, channel)
	case c.pending[channel]:
		c.mu.Unlock()
		return domain.ChannelState{}, fmt.Errorf("%w: %s", ErrChannelPending, channel)
	}
	c.pending[channel] = true
	optimistic := cloneChannel(prev)
	optimistic.Enabled = enabled
	c.channels[channel] = optimistic
	c.mu.Unlock()

	st, err := update(ctx, channel, enabled)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.channels[channel] = prev
		c.pending[channel] = false
		return domain.ChannelState{}, fmt.Errorf("update channel %s: %w", channel, err)
	}
	if st.Channel == "" {
		st.Channel = channel
	}
	c.setStateLocked(channel, st)
	return cloneChannel(st), nil
}

func cloneChannel(st domain.ChannelState) domain.ChannelState {
	if st.LastChangedAt != nil {
		t := *st.LastChangedAt
		st.LastChangedAt = &t
	}
	return st
}
