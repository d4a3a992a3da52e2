package hooks

import (
	"testing"
	"time"

	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestNotificationEnv(t *testing.T) {
	env := NotificationEnv(domain.Notification{
		ID:        "n1",
		Message:   "Payment received",
		Severity:  domain.SeveritySuccess,
		Source:    "payments",
		CreatedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("MSK", 3*3600)),
	})

	assert.Equal(t, "n1", env["CRMSYNC_NOTIFICATION_ID"])
	assert.Equal(t, "success", env["CRMSYNC_SEVERITY"])
	assert.Equal(t, "2024-03-01T09:00:00Z", env["CRMSYNC_CREATED_AT"])
}

func TestFeedItemEnv(t *testing.T) {
	env := FeedItemEnv(domain.FeedItem{
		ID:        "ntf-2",
		Title:     "Payment overdue",
		Tags:      []string{"finance", "overdue"},
		Important: true,
		Context:   domain.FeedContext{DealID: "deal-1"},
	})

	assert.Equal(t, "finance,overdue", env["CRMSYNC_TAGS"])
	assert.Equal(t, "true", env["CRMSYNC_IMPORTANT"])
	assert.Equal(t, "deal-1", env["CRMSYNC_DEAL_ID"])
}

func TestSyncEnv(t *testing.T) {
	assert.Equal(t, map[string]string{"CRMSYNC_ITEMS": "3", "CRMSYNC_UNREAD": "2"}, SyncEnv(3, 2))
}
