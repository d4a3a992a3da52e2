package core

import (
	"context"
	"fmt"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// ListChannels returns the stored channel settings.
func (c *Core) ListChannels(ctx context.Context) ([]domain.ChannelState, error) {
	states, err := c.repo.ListChannels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list channels: %w", err)
	}
	c.channels.SetSettings(states)
	return c.channels.Settings(), nil
}

// SetChannel switches a delivery channel on the server and stores the
// confirmed state. The stored settings are reverted in memory on failure.
func (c *Core) SetChannel(ctx context.Context, channel string, enabled bool) (domain.ChannelState, error) {
	if c.backend == nil {
		return domain.ChannelState{}, ErrNoBackend
	}
	if _, err := c.ListChannels(ctx); err != nil {
		return domain.ChannelState{}, err
	}
	st, err := c.channels.Toggle(ctx, channel, enabled, c.backend.UpdateNotificationChannel)
	if err != nil {
		return domain.ChannelState{}, err
	}
	if err := c.repo.SaveChannel(ctx, st); err != nil {
		return domain.ChannelState{}, fmt.Errorf("set channel: %w", err)
	}
	c.logger.Info("channel updated", "channel", st.Channel, "enabled", st.Enabled)
	return st, nil
}
