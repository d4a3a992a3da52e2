package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cristianoliveira/crmsync/internal/api/mockserver"
	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockClient(t *testing.T, opts ...mockserver.Option) (*Client, *mockserver.Server) {
	t.Helper()
	srv := mockserver.New(append([]mockserver.Option{
		mockserver.WithClock(func() time.Time { return time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC) }),
	}, opts...)...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	client, err := New(ts.URL + "/")
	require.NoError(t, err)
	return client, srv
}

func TestNewRejectsRelativeURL(t *testing.T) {
	_, err := New("/api")
	require.Error(t, err)
}

func TestRequestHeadersAndPathPrefix(t *testing.T) {
	var got *http.Request
	var body []byte
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r
		body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"d1","title":"Deal","stage":"negotiation","updatedAt":"2024-05-01T10:00:00Z"}`))
	}))
	defer ts.Close()

	client, err := New(ts.URL+"/api", WithToken("t0k3n"), WithRequestIDs(func() string { return "req-1" }))
	require.NoError(t, err)

	deal, err := client.UpdateDealStage(context.Background(), "d1", domain.StageNegotiation)
	require.NoError(t, err)

	assert.Equal(t, http.MethodPatch, got.Method)
	assert.Equal(t, "/api/crm/deals/d1/stage", got.URL.Path)
	assert.Equal(t, "Bearer t0k3n", got.Header.Get("Authorization"))
	assert.Equal(t, "req-1", got.Header.Get("X-Request-ID"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.JSONEq(t, `{"stage":"negotiation"}`, string(body))
	assert.Equal(t, domain.StageNegotiation, deal.Stage)
}

func TestErrorResponses(t *testing.T) {
	client, srv := newMockClient(t)

	_, err := client.GetDeal(context.Background(), "missing")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	srv.FailNextStageUpdate(http.StatusConflict, "stage locked")
	_, err = client.UpdateDealStage(context.Background(), "deal-1", domain.StageProposal)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.StatusCode)
	assert.Equal(t, "stage locked", apiErr.Message)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "PATCH /crm/deals/deal-1/stage: 409 stage locked")
}

func TestDeals(t *testing.T) {
	client, _ := newMockClient(t)
	ctx := context.Background()

	all, err := client.ListDeals(ctx, domain.DealFilters{})
	require.NoError(t, err)
	assert.Len(t, all, 4)

	annas, err := client.ListDeals(ctx, domain.DealFilters{Owner: "anna"})
	require.NoError(t, err)
	require.Len(t, annas, 2)

	none, err := client.ListDeals(ctx, domain.DealFilters{Search: "no such deal"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)

	moved, err := client.UpdateDealStage(ctx, "deal-1", domain.StageNegotiation)
	require.NoError(t, err)
	assert.Equal(t, domain.StageNegotiation, moved.Stage)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), moved.UpdatedAt)

	metrics, err := client.GetStageMetrics(ctx)
	require.NoError(t, err)
	require.Len(t, metrics, len(domain.Stages))
	for _, m := range metrics {
		if m.Stage == domain.StageNegotiation {
			assert.Equal(t, 2, m.Count)
		}
	}

	payments, err := client.ListPayments(ctx, "deal-1")
	require.NoError(t, err)
	require.Len(t, payments, 1)
	assert.Equal(t, "pay-1", payments[0].ID)
}

func TestNotificationFeed(t *testing.T) {
	client, _ := newMockClient(t)
	ctx := context.Background()

	feed, err := client.GetNotificationFeed(ctx, domain.DefaultFeedFilters())
	require.NoError(t, err)
	require.Len(t, feed.Items, 3)
	assert.Equal(t, "ntf-3", feed.Items[0].ID, "newest first")
	assert.Equal(t, 2, feed.UnreadCount)
	assert.Len(t, feed.ChannelSettings, 2)
	assert.NotEmpty(t, feed.AvailableCategories)

	failed, err := client.GetNotificationFeed(ctx, domain.FeedFilters{Status: domain.FeedStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed.Items, 1)
	assert.Equal(t, "ntf-2", failed.Items[0].ID)

	read, err := client.MarkNotificationsRead(ctx, []string{"ntf-1", "unknown"})
	require.NoError(t, err)
	require.Len(t, read, 1)
	assert.True(t, read[0].Read)

	important, err := client.ToggleNotificationsImportant(ctx, []string{"ntf-1"}, true)
	require.NoError(t, err)
	require.Len(t, important, 1)
	assert.True(t, important[0].Important)

	removed, err := client.DeleteNotifications(ctx, []string{"ntf-3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"ntf-3"}, removed)
	_, err = client.DeleteNotifications(ctx, []string{"ntf-3"})
	assert.ErrorIs(t, err, ErrNotFound)

	empty, err := client.MarkNotificationsRead(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestUpdateNotificationChannel(t *testing.T) {
	client, _ := newMockClient(t)
	ctx := context.Background()

	state, err := client.UpdateNotificationChannel(ctx, "telegram", true)
	require.NoError(t, err)
	assert.True(t, state.Enabled)
	require.NotNil(t, state.LastChangedAt)

	_, err = client.UpdateNotificationChannel(ctx, "sse", false)
	var apiErr *Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)

	_, err = client.UpdateNotificationChannel(ctx, "pigeon", true)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEncodeFeedFilters(t *testing.T) {
	assert.Empty(t, EncodeFeedFilters(domain.DefaultFeedFilters()))
	q := EncodeFeedFilters(domain.FeedFilters{Category: "deal", Source: "all", Status: domain.FeedStatusUnread, Search: "  acme "})
	assert.Equal(t, "category=deal&search=acme&status=unread", q.Encode())
}

func TestRegisterFetchers(t *testing.T) {
	client, _ := newMockClient(t)
	c := cache.New(cache.WithScheduler(func(job func()) { job() }))
	RegisterFetchers(c, client)
	ctx := context.Background()

	e, err := c.Fetch(ctx, DealsKey(domain.DealFilters{Stage: "proposal"}))
	require.NoError(t, err)
	deals := e.Data.([]domain.Deal)
	require.Len(t, deals, 1)
	assert.Equal(t, "deal-2", deals[0].ID)

	e, err = c.Fetch(ctx, DealKey("deal-3"))
	require.NoError(t, err)
	assert.Equal(t, "Cargo liability", e.Data.(domain.Deal).Title)

	e, err = c.Fetch(ctx, StageMetricsKey())
	require.NoError(t, err)
	assert.Len(t, e.Data.([]domain.StageMetric), len(domain.Stages))

	e, err = c.Fetch(ctx, PaymentsKey(""))
	require.NoError(t, err)
	assert.Len(t, e.Data.([]domain.Payment), 2)

	assert.Equal(t, cache.Key{Kind: "deals", Params: "stage=proposal"}, DealsKey(domain.DealFilters{Stage: "proposal"}))
}

func TestMockTransportServesInProcess(t *testing.T) {
	srv := mockserver.New()
	client, err := New("http://crmsync.mock", WithHTTPClient(&http.Client{Transport: srv.Transport()}))
	require.NoError(t, err)

	deal, err := client.GetDeal(context.Background(), "deal-2")
	require.NoError(t, err)
	raw, err := json.Marshal(deal)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"stage":"proposal"`)
}
