package hooks

import (
	"strconv"
	"strings"
	"time"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// NotificationEnv describes a notification to a hook script.
func NotificationEnv(n domain.Notification) map[string]string {
	return map[string]string{
		"CRMSYNC_NOTIFICATION_ID": n.ID,
		"CRMSYNC_MESSAGE":         n.Message,
		"CRMSYNC_SEVERITY":        n.Severity.String(),
		"CRMSYNC_SOURCE":          n.Source,
		"CRMSYNC_CREATED_AT":      n.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// FeedItemEnv describes a feed item to a hook script.
func FeedItemEnv(item domain.FeedItem) map[string]string {
	return map[string]string{
		"CRMSYNC_ITEM_ID":    item.ID,
		"CRMSYNC_TITLE":      item.Title,
		"CRMSYNC_MESSAGE":    item.Message,
		"CRMSYNC_CATEGORY":   item.Category,
		"CRMSYNC_SOURCE":     item.Source,
		"CRMSYNC_TAGS":       strings.Join(item.Tags, ","),
		"CRMSYNC_IMPORTANT":  strconv.FormatBool(item.Important),
		"CRMSYNC_DEAL_ID":    item.Context.DealID,
		"CRMSYNC_CREATED_AT": item.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// SyncEnv describes the result of a feed sync.
func SyncEnv(items, unread int) map[string]string {
	return map[string]string{
		"CRMSYNC_ITEMS":  strconv.Itoa(items),
		"CRMSYNC_UNREAD": strconv.Itoa(unread),
	}
}
