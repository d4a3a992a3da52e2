package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// FeedResponse is the notification feed page.
type FeedResponse struct {
	Items               []domain.FeedItem     `json:"items"`
	UnreadCount         int                   `json:"unreadCount"`
	AvailableCategories []domain.FilterOption `json:"availableCategories"`
	AvailableSources    []domain.FilterOption `json:"availableSources"`
	ChannelSettings     []domain.ChannelState `json:"channelSettings"`
}

// EncodeFeedFilters builds the feed query; "all" values are omitted.
func EncodeFeedFilters(filters domain.FeedFilters) url.Values {
	f := filters.Normalize()
	q := url.Values{}
	if f.Category != domain.FilterAll {
		q.Set("category", f.Category)
	}
	if f.Source != domain.FilterAll {
		q.Set("source", f.Source)
	}
	if f.Status != domain.FeedStatusAll {
		q.Set("status", string(f.Status))
	}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	return q
}

// GetNotificationFeed returns the feed items matching filters together with
// the authoritative unread count.
func (c *Client) GetNotificationFeed(ctx context.Context, filters domain.FeedFilters) (FeedResponse, error) {
	var resp FeedResponse
	err := c.do(ctx, http.MethodGet, "/notifications/feed", EncodeFeedFilters(filters), nil, &resp)
	return resp, err
}

type idsRequest struct {
	IDs []string `json:"ids"`
}

type importantRequest struct {
	IDs       []string `json:"ids"`
	Important bool     `json:"important"`
}

// MarkNotificationsRead marks items read and returns their updated state.
func (c *Client) MarkNotificationsRead(ctx context.Context, ids []string) ([]domain.FeedItem, error) {
	if len(ids) == 0 {
		return []domain.FeedItem{}, nil
	}
	var items []domain.FeedItem
	err := c.do(ctx, http.MethodPost, "/notifications/feed/read", nil, idsRequest{IDs: ids}, &items)
	return items, err
}

// ToggleNotificationsImportant sets the important flag and returns the updated items.
func (c *Client) ToggleNotificationsImportant(ctx context.Context, ids []string, important bool) ([]domain.FeedItem, error) {
	if len(ids) == 0 {
		return []domain.FeedItem{}, nil
	}
	var items []domain.FeedItem
	err := c.do(ctx, http.MethodPost, "/notifications/feed/important", nil, importantRequest{IDs: ids, Important: important}, &items)
	return items, err
}

// DeleteNotifications removes items and returns the removed ids.
func (c *Client) DeleteNotifications(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}
	var removed []string
	err := c.do(ctx, http.MethodDelete, "/notifications/feed", nil, idsRequest{IDs: ids}, &removed)
	return removed, err
}

type channelRequest struct {
	Enabled bool `json:"enabled"`
}

// UpdateNotificationChannel switches a delivery channel on or off.
func (c *Client) UpdateNotificationChannel(ctx context.Context, channel string, enabled bool) (domain.ChannelState, error) {
	var state domain.ChannelState
	err := c.do(ctx, http.MethodPatch, "/notifications/channels/"+url.PathEscape(channel), nil, channelRequest{Enabled: enabled}, &state)
	return state, err
}
