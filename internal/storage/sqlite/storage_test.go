package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestJournal(t *testing.T) *Journal {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "feed.db")
	j, err := Open(dbPath)
	require.NoError(t, err)
	j.now = func() time.Time { return baseTime.Add(30 * 24 * time.Hour) }
	t.Cleanup(func() {
		require.NoError(t, j.Close())
	})

	return j
}

func feedItem(id string, minutes int) domain.FeedItem {
	return domain.FeedItem{
		ID:             id,
		Title:          "Deal " + id,
		Message:        "Stage changed",
		CreatedAt:      baseTime.Add(time.Duration(minutes) * time.Minute),
		Source:         domain.FeedSourceCRM,
		Category:       domain.CategoryDeal,
		DeliveryStatus: domain.DeliveryDelivered,
	}
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("  ")
	require.Error(t, err)
}

func TestSaveAndGetFeedItem(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	item := feedItem("n1", 0)
	item.Tags = []string{"vip", "stage"}
	item.Channels = []string{"email"}
	item.Context = domain.FeedContext{
		DealID:   "d1",
		ClientID: "c1",
		Link:     &domain.FeedLink{Href: "/deals/d1", Label: "Open deal"},
	}
	item.Important = true
	require.NoError(t, j.SaveFeedItem(ctx, item))

	got, err := j.GetFeedItem(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, item, got)
}

func TestSaveFeedItemUpserts(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	item := feedItem("n1", 0)
	require.NoError(t, j.SaveFeedItem(ctx, item))
	item.Title = "renamed"
	item.Read = true
	require.NoError(t, j.SaveFeedItem(ctx, item))

	got, err := j.GetFeedItem(ctx, "n1")
	require.NoError(t, err)
	require.Equal(t, "renamed", got.Title)
	require.True(t, got.Read)

	unread, err := j.UnreadCount(ctx)
	require.NoError(t, err)
	require.Zero(t, unread)
}

func TestSaveFeedItemsRejectsEmptyID(t *testing.T) {
	j := newTestJournal(t)

	err := j.SaveFeedItems(context.Background(), []domain.FeedItem{feedItem("n1", 0), feedItem(" ", 1)})
	require.ErrorIs(t, err, ErrInvalidNotificationID)

	items, err := j.ListFeedItems(context.Background(), domain.DefaultFeedFilters())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestGetFeedItemNotFound(t *testing.T) {
	j := newTestJournal(t)

	_, err := j.GetFeedItem(context.Background(), "missing")
	require.True(t, errors.Is(err, ErrNotificationNotFound))
}

func TestListFeedItemsOrderAndFilters(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	older := feedItem("a", 0)
	newer := feedItem("b", 10)
	payment := feedItem("c", 5)
	payment.Source = domain.FeedSourcePayments
	payment.Category = domain.CategoryPayment
	payment.Title = "Payment overdue"
	payment.DeliveryStatus = domain.DeliveryFailed
	payment.Read = true
	require.NoError(t, j.SaveFeedItems(ctx, []domain.FeedItem{older, newer, payment}))

	items, err := j.ListFeedItems(ctx, domain.FeedFilters{})
	require.NoError(t, err)
	require.Equal(t, []string{"b", "c", "a"}, ids(items))

	tests := []struct {
		name    string
		filters domain.FeedFilters
		want    []string
	}{
		{name: "category", filters: domain.FeedFilters{Category: domain.CategoryPayment}, want: []string{"c"}},
		{name: "source", filters: domain.FeedFilters{Source: domain.FeedSourceCRM}, want: []string{"b", "a"}},
		{name: "unread", filters: domain.FeedFilters{Status: domain.FeedStatusUnread}, want: []string{"b", "a"}},
		{name: "failed", filters: domain.FeedFilters{Status: domain.FeedStatusFailed}, want: []string{"c"}},
		{name: "search", filters: domain.FeedFilters{Search: "OVERDUE"}, want: []string{"c"}},
		{name: "no match", filters: domain.FeedFilters{Category: domain.CategoryTask}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := j.ListFeedItems(ctx, tt.filters)
			require.NoError(t, err)
			require.Equal(t, tt.want, ids(items))
		})
	}
}

func TestMarkReadAndImportant(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.SaveFeedItems(ctx, []domain.FeedItem{feedItem("a", 0), feedItem("b", 1), feedItem("c", 2)}))

	n, err := j.MarkRead(ctx, []string{"a", "b", "missing"})
	require.NoError(t, err)
	require.Equal(t, 2, n)

	unread, err := j.UnreadCount(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, unread)

	n, err = j.SetImportant(ctx, []string{"c"}, true)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	got, err := j.GetFeedItem(ctx, "c")
	require.NoError(t, err)
	require.True(t, got.Important)

	_, err = j.SetImportant(ctx, []string{"c"}, false)
	require.NoError(t, err)
	got, err = j.GetFeedItem(ctx, "c")
	require.NoError(t, err)
	require.False(t, got.Important)

	_, err = j.MarkRead(ctx, []string{"missing"})
	require.ErrorIs(t, err, ErrNotificationNotFound)

	n, err = j.MarkRead(ctx, nil)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRemove(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()
	require.NoError(t, j.SaveFeedItems(ctx, []domain.FeedItem{feedItem("a", 0), feedItem("b", 1)}))

	n, err := j.Remove(ctx, []string{"a"})
	require.NoError(t, err)
	require.Equal(t, 1, n)

	_, err = j.Remove(ctx, []string{"a"})
	require.ErrorIs(t, err, ErrNotificationNotFound)

	items, err := j.ListFeedItems(ctx, domain.DefaultFeedFilters())
	require.NoError(t, err)
	require.Equal(t, []string{"b"}, ids(items))
}

func TestPrune(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	old := feedItem("old", 0)
	old.Read = true
	kept := feedItem("kept", 0)
	kept.Read = true
	kept.Important = true
	unread := feedItem("unread", 0)
	recent := feedItem("recent", 0)
	recent.CreatedAt = baseTime.Add(29 * 24 * time.Hour)
	recent.Read = true
	require.NoError(t, j.SaveFeedItems(ctx, []domain.FeedItem{old, kept, unread, recent}))

	stats, err := j.Prune(ctx, 7, true)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Matched)
	require.Zero(t, stats.Deleted)
	require.NotEmpty(t, stats.Cutoff)

	stats, err = j.Prune(ctx, 7, false)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Deleted)

	_, err = j.GetFeedItem(ctx, "old")
	require.ErrorIs(t, err, ErrNotificationNotFound)

	stats, err = j.Prune(ctx, 0, false)
	require.NoError(t, err)
	require.Equal(t, 1, stats.Deleted)

	items, err := j.ListFeedItems(ctx, domain.DefaultFeedFilters())
	require.NoError(t, err)
	require.ElementsMatch(t, []string{"kept", "unread"}, ids(items))

	_, err = j.Prune(ctx, -1, false)
	require.Error(t, err)
}

func TestChannels(t *testing.T) {
	j := newTestJournal(t)
	ctx := context.Background()

	changed := baseTime.Add(time.Hour)
	states := []domain.ChannelState{
		{Channel: "email", Label: "Email", Enabled: true, Editable: true, LastChangedAt: &changed},
		{Channel: "sms", Label: "SMS", Description: "Short messages", Editable: true},
		{Channel: "in_app", Label: "In app", Enabled: true},
	}
	require.NoError(t, j.SaveChannels(ctx, states))

	got, err := j.ListChannels(ctx)
	require.NoError(t, err)
	require.Equal(t, states, got)

	sms := states[1]
	sms.Enabled = true
	require.NoError(t, j.SaveChannel(ctx, sms))
	require.NoError(t, j.SaveChannel(ctx, domain.ChannelState{Channel: "push", Label: "Push"}))

	got, err = j.ListChannels(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"email", "sms", "in_app", "push"}, channelNames(got))
	require.True(t, got[1].Enabled)

	one, err := j.GetChannel(ctx, "push")
	require.NoError(t, err)
	require.Equal(t, "Push", one.Label)

	_, err = j.GetChannel(ctx, "fax")
	require.ErrorIs(t, err, ErrChannelNotFound)

	require.NoError(t, j.SaveChannels(ctx, states[:1]))
	got, err = j.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func ids(items []domain.FeedItem) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.ID)
	}
	return out
}

func channelNames(states []domain.ChannelState) []string {
	out := make([]string, 0, len(states))
	for _, s := range states {
		out = append(out, s.Channel)
	}
	return out
}
