package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// SyncResult summarizes a feed sync.
type SyncResult struct {
	Items    int
	Unread   int
	Channels int
}

// SyncFeed loads the feed page matching filters from the API into the feed
// store and persists it in the journal.
func (c *Core) SyncFeed(ctx context.Context, filters domain.FeedFilters) (SyncResult, error) {
	if c.backend == nil {
		return SyncResult{}, ErrNoBackend
	}
	resp, err := c.backend.GetNotificationFeed(ctx, filters)
	if err != nil {
		return SyncResult{}, fmt.Errorf("sync feed: %w", err)
	}

	c.feed.SetFilters(filters)
	c.feed.SetFeed(resp.Items, resp.UnreadCount)
	c.feed.SetAvailableFilters(resp.AvailableCategories, resp.AvailableSources)
	if err := c.repo.SaveFeedItems(ctx, resp.Items); err != nil {
		return SyncResult{}, fmt.Errorf("sync feed: %w", err)
	}
	if len(resp.ChannelSettings) > 0 {
		c.channels.SetSettings(resp.ChannelSettings)
		if err := c.repo.SaveChannels(ctx, resp.ChannelSettings); err != nil {
			return SyncResult{}, fmt.Errorf("sync feed: %w", err)
		}
	}

	c.logger.Info("feed synced", "items", len(resp.Items), "unread", resp.UnreadCount)
	return SyncResult{Items: len(resp.Items), Unread: resp.UnreadCount, Channels: len(resp.ChannelSettings)}, nil
}

// LoadFeed fills the feed store from the journal.
func (c *Core) LoadFeed(ctx context.Context) error {
	items, err := c.repo.ListFeedItems(ctx, domain.DefaultFeedFilters())
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}
	unread, err := c.repo.UnreadCount(ctx)
	if err != nil {
		return fmt.Errorf("load feed: %w", err)
	}
	c.feed.SetFeed(items, unread)
	return nil
}

// ListFeed returns the journal items matching filters, newest first, and
// the unread count of the whole feed.
func (c *Core) ListFeed(ctx context.Context, filters domain.FeedFilters) ([]domain.FeedItem, int, error) {
	if err := c.LoadFeed(ctx); err != nil {
		return nil, 0, err
	}
	c.feed.SetFilters(filters)
	return c.feed.Items(), c.feed.UnreadCount(), nil
}

// AllFeed returns every journal item regardless of filters.
func (c *Core) AllFeed(ctx context.Context) ([]domain.FeedItem, error) {
	if err := c.LoadFeed(ctx); err != nil {
		return nil, err
	}
	return c.feed.All(), nil
}

// MarkRead marks items read on the server (when configured) and in the
// journal.
func (c *Core) MarkRead(ctx context.Context, ids []string) (int, error) {
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	if c.backend != nil {
		updated, err := c.backend.MarkNotificationsRead(ctx, ids)
		if err != nil {
			return 0, fmt.Errorf("mark read: %w", err)
		}
		if err := c.storeServerItems(ctx, updated); err != nil {
			return 0, fmt.Errorf("mark read: %w", err)
		}
	}
	n, err := c.repo.MarkRead(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	c.feed.MarkRead(ids)
	return n, nil
}

// SetImportant flags or unflags items as important.
func (c *Core) SetImportant(ctx context.Context, ids []string, important bool) (int, error) {
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	if c.backend != nil {
		updated, err := c.backend.ToggleNotificationsImportant(ctx, ids, important)
		if err != nil {
			return 0, fmt.Errorf("set important: %w", err)
		}
		if err := c.storeServerItems(ctx, updated); err != nil {
			return 0, fmt.Errorf("set important: %w", err)
		}
	}
	n, err := c.repo.SetImportant(ctx, ids, important)
	if err != nil {
		return 0, fmt.Errorf("set important: %w", err)
	}
	c.feed.MarkImportant(ids, important)
	return n, nil
}

// Remove deletes items. With a backend the items leave the store first and
// are restored if the server refuses the delete.
func (c *Core) Remove(ctx context.Context, ids []string) (int, error) {
	ids = cleanIDs(ids)
	if len(ids) == 0 {
		return 0, nil
	}
	if c.backend == nil {
		n, err := c.repo.Remove(ctx, ids)
		if err != nil {
			return 0, fmt.Errorf("remove: %w", err)
		}
		c.feed.Remove(ids)
		return n, nil
	}

	if err := c.LoadFeed(ctx); err != nil {
		return 0, err
	}
	var removed []domain.FeedItem
	for _, id := range ids {
		if item, ok := c.feed.Item(id); ok {
			removed = append(removed, item)
		}
	}
	c.feed.Remove(ids)

	deleted, err := c.backend.DeleteNotifications(ctx, ids)
	if err != nil {
		c.feed.Restore(removed)
		return 0, fmt.Errorf("remove: %w", err)
	}
	if len(removed) > 0 {
		local := make([]string, len(removed))
		for i, item := range removed {
			local[i] = item.ID
		}
		if _, err := c.repo.Remove(ctx, local); err != nil {
			return 0, fmt.Errorf("remove: %w", err)
		}
	}
	return len(deleted), nil
}

func (c *Core) storeServerItems(ctx context.Context, items []domain.FeedItem) error {
	if len(items) == 0 {
		return nil
	}
	c.feed.ReplaceItems(items)
	return c.repo.SaveFeedItems(ctx, items)
}

// cleanIDs trims ids and drops blanks and duplicates.
func cleanIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
