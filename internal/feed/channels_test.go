package feed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedChannels() *Channels {
	c := NewChannels()
	c.SetSettings([]domain.ChannelState{
		{Channel: "sse", Label: "In-app", Enabled: true},
		{Channel: "telegram", Label: "Telegram", Editable: true},
	})
	return c
}

func TestChannelsSettings(t *testing.T) {
	c := seedChannels()
	c.SetPending("telegram", true)

	assert.True(t, c.SetEnabled("telegram", true))
	assert.False(t, c.SetEnabled("email", true))

	c.SetState("email", domain.ChannelState{Channel: "email", Label: "Email"})
	settings := c.Settings()
	require.Len(t, settings, 3)
	assert.Equal(t, "email", settings[2].Channel)
	assert.True(t, settings[1].Enabled)

	c.SetState("telegram", domain.ChannelState{Channel: "telegram", Editable: true})
	assert.False(t, c.Pending("telegram"))

	c.SetPending("sse", true)
	c.SetSettings(nil)
	assert.False(t, c.Pending("sse"))
	assert.Empty(t, c.Settings())
}

func TestToggleSuccess(t *testing.T) {
	c := seedChannels()
	changed := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

	st, err := c.Toggle(context.Background(), "telegram", true, func(ctx context.Context, channel string, enabled bool) (domain.ChannelState, error) {
		assert.True(t, c.Pending(channel))
		got, _ := c.Get(channel)
		assert.True(t, got.Enabled, "optimistic value visible while in flight")
		return domain.ChannelState{Channel: channel, Label: "Telegram", Enabled: enabled, Editable: true, LastChangedAt: &changed}, nil
	})

	require.NoError(t, err)
	assert.True(t, st.Enabled)
	assert.False(t, c.Pending("telegram"))
	got, _ := c.Get("telegram")
	assert.Equal(t, changed, *got.LastChangedAt)
}

func TestToggleFailureReverts(t *testing.T) {
	c := seedChannels()
	boom := errors.New("boom")

	_, err := c.Toggle(context.Background(), "telegram", true, func(context.Context, string, bool) (domain.ChannelState, error) {
		return domain.ChannelState{}, boom
	})

	assert.ErrorIs(t, err, boom)
	got, _ := c.Get("telegram")
	assert.False(t, got.Enabled)
	assert.False(t, c.Pending("telegram"))
}

func TestToggleRefusals(t *testing.T) {
	c := seedChannels()
	noop := func(context.Context, string, bool) (domain.ChannelState, error) {
		t.Fatal("update must not be called")
		return domain.ChannelState{}, nil
	}

	_, err := c.Toggle(context.Background(), "email", true, noop)
	assert.ErrorIs(t, err, ErrUnknownChannel)

	_, err = c.Toggle(context.Background(), "sse", false, noop)
	assert.ErrorIs(t, err, ErrChannelReadOnly)

	c.SetPending("telegram", true)
	_, err = c.Toggle(context.Background(), "telegram", true, noop)
	assert.ErrorIs(t, err, ErrChannelPending)
}

func TestToggleWhileInFlight(t *testing.T) {
	c := seedChannels()
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := c.Toggle(context.Background(), "telegram", true, func(ctx context.Context, channel string, enabled bool) (domain.ChannelState, error) {
			close(started)
			<-release
			return domain.ChannelState{Channel: channel, Enabled: enabled, Editable: true}, nil
		})
		done <- err
	}()

	<-started
	_, err := c.Toggle(context.Background(), "telegram", false, func(context.Context, string, bool) (domain.ChannelState, error) {
		return domain.ChannelState{}, nil
	})
	assert.ErrorIs(t, err, ErrChannelPending)

	close(release)
	require.NoError(t, <-done)
	got, _ := c.Get("telegram")
	assert.True(t, got.Enabled)
}
