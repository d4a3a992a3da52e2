package core

import (
	"context"

	"github.com/cristianoliveira/crmsync/internal/bridge"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/uistate"
)

// WatchConfig configures Watch.
type WatchConfig struct {
	Bridge bridge.Config
	// OnNotify sees every notification surfaced by a push message.
	OnNotify func(domain.Notification)
	// OnEffects sees every applied batch of effects.
	OnEffects func(ch bridge.Channel, effects []bridge.Effect)
}

// Watch opens the push channels and applies their messages until ctx is
// done. Items ingested into the feed are persisted in the journal.
func (c *Core) Watch(ctx context.Context, cfg WatchConfig) error {
	if err := c.LoadFeed(ctx); err != nil {
		return err
	}

	ui := uistate.New(c.uiOpts...)
	defer ui.Close()

	persistCtx := context.WithoutCancel(ctx)
	b := bridge.New(cfg.Bridge, bridge.Deps{
		Transport: c.transport,
		Cache:     c.cache,
		UI:        ui,
		Feed:      c.feed,
		Logger:    c.logger,
		Observer: func(ch bridge.Channel, effects []bridge.Effect) {
			for _, e := range effects {
				switch e := e.(type) {
				case bridge.Ingest:
					if err := c.repo.SaveFeedItems(persistCtx, []domain.FeedItem{e.Item}); err != nil {
						c.logger.Error("persist feed item failed", "id", e.Item.ID, "error", err)
					}
				case bridge.Notify:
					if cfg.OnNotify != nil {
						cfg.OnNotify(e.Notification)
					}
				}
			}
			if cfg.OnEffects != nil {
				cfg.OnEffects(ch, effects)
			}
		},
	})
	b.Start(ctx)
	defer b.Close()

	for ch, state := range b.States() {
		c.logger.Info("push channel", "channel", string(ch), "state", state.String())
	}
	<-ctx.Done()
	return nil
}
