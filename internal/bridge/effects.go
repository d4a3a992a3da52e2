package bridge

import (
	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/domain"
)

// Channel names one push subscription.
type Channel string

const (
	ChannelCRM           Channel = "crm"
	ChannelNotifications Channel = "notifications"
	ChannelPayments      Channel = "payments"
)

// Channels lists every channel in start order.
var Channels = []Channel{ChannelCRM, ChannelNotifications, ChannelPayments}

// Effect is a side effect produced by classifying one push message.
type Effect interface {
	isEffect()
}

// Notify enqueues a notification in the ambient log.
type Notify struct {
	Notification domain.Notification
}

// Ingest stores an item in the notification feed.
type Ingest struct {
	Item domain.FeedItem
}

// Highlight sets the transient highlight on a deal.
type Highlight struct {
	DealID string
}

// MarkUpdated marks a deal as recently updated.
type MarkUpdated struct {
	DealID string
}

// Invalidate marks cache entries stale: the listed keys and every entry of
// the listed kinds.
type Invalidate struct {
	Keys  []cache.Key
	Kinds []string
}

// Refetch asks for every entry of a kind to be refreshed.
type Refetch struct {
	Kind string
}

func (Notify) isEffect()      {}
func (Ingest) isEffect()      {}
func (Highlight) isEffect()   {}
func (MarkUpdated) isEffect() {}
func (Invalidate) isEffect()  {}
func (Refetch) isEffect()     {}

// Matcher returns the cache matcher selecting the invalidated entries.
func (i Invalidate) Matcher() cache.Matcher {
	matchers := make([]cache.Matcher, 0, len(i.Kinds)+1)
	if len(i.Keys) > 0 {
		matchers = append(matchers, cache.MatchKeys(i.Keys...))
	}
	for _, kind := range i.Kinds {
		matchers = append(matchers, cache.MatchKind(kind))
	}
	return cache.MatchAny(matchers...)
}

// Describe returns a one line, human readable form of an effect.
func Describe(e Effect) (kind, detail string) {
	switch e := e.(type) {
	case Notify:
		return "notify", string(e.Notification.Severity) + ": " + e.Notification.Message
	case Ingest:
		return "ingest", e.Item.ID
	case Highlight:
		return "highlight", e.DealID
	case MarkUpdated:
		return "mark-updated", e.DealID
	case Invalidate:
		detail := ""
		for _, k := range e.Keys {
			detail += k.String() + " "
		}
		for _, kind := range e.Kinds {
			detail += kind + ":* "
		}
		if detail != "" {
			detail = detail[:len(detail)-1]
		}
		return "invalidate", detail
	case Refetch:
		return "refetch", e.Kind
	default:
		return "unknown", ""
	}
}
