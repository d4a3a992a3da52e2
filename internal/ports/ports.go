// Package ports defines application boundary interfaces used by core services.
package ports

import (
	"context"

	"github.com/cristianoliveira/crmsync/internal/api"
	"github.com/cristianoliveira/crmsync/internal/domain"
)

// FeedRepository defines the local persistence of the notification feed.
// *sqlite.Journal implements it.
type FeedRepository interface {
	SaveFeedItems(ctx context.Context, items []domain.FeedItem) error
	ListFeedItems(ctx context.Context, filters domain.FeedFilters) ([]domain.FeedItem, error)
	MarkRead(ctx context.Context, ids []string) (int, error)
	SetImportant(ctx context.Context, ids []string, important bool) (int, error)
	Remove(ctx context.Context, ids []string) (int, error)
	UnreadCount(ctx context.Context) (int, error)
}

// ChannelRepository defines the local persistence of channel settings.
type ChannelRepository interface {
	SaveChannels(ctx context.Context, states []domain.ChannelState) error
	SaveChannel(ctx context.Context, state domain.ChannelState) error
	ListChannels(ctx context.Context) ([]domain.ChannelState, error)
}

// Repository is the full local store.
type Repository interface {
	FeedRepository
	ChannelRepository
}

// DealBackend defines the remote deal operations. *api.Client implements it.
type DealBackend interface {
	ListDeals(ctx context.Context, filters domain.DealFilters) ([]domain.Deal, error)
	GetDeal(ctx context.Context, id string) (domain.Deal, error)
	UpdateDealStage(ctx context.Context, id string, stage domain.Stage) (domain.Deal, error)
	GetStageMetrics(ctx context.Context) ([]domain.StageMetric, error)
	ListPayments(ctx context.Context, dealID string) ([]domain.Payment, error)
}

// FeedBackend defines the remote notification feed operations.
type FeedBackend interface {
	GetNotificationFeed(ctx context.Context, filters domain.FeedFilters) (api.FeedResponse, error)
	MarkNotificationsRead(ctx context.Context, ids []string) ([]domain.FeedItem, error)
	ToggleNotificationsImportant(ctx context.Context, ids []string, important bool) ([]domain.FeedItem, error)
	DeleteNotifications(ctx context.Context, ids []string) ([]string, error)
	UpdateNotificationChannel(ctx context.Context, channel string, enabled bool) (domain.ChannelState, error)
}

// Backend is the full CRM API surface used by core services.
type Backend interface {
	DealBackend
	FeedBackend
}
