package domain

import (
	"strings"
	"time"
)

// Feed sources.
const (
	FeedSourceCRM      = "crm"
	FeedSourcePayments = "payments"
	FeedSourceSystem   = "system"
)

// Feed categories.
const (
	CategoryDeal     = "deal"
	CategoryTask     = "task"
	CategoryPayment  = "payment"
	CategorySecurity = "security"
	CategorySystem   = "system"
)

// DeliveryStatus reports whether a feed item reached its channels.
type DeliveryStatus string

const (
	DeliveryDelivered DeliveryStatus = "delivered"
	DeliveryFailed    DeliveryStatus = "failed"
	DeliveryPending   DeliveryStatus = "pending"
)

// FeedLink points from a feed item to a page of the CRM.
type FeedLink struct {
	Href  string `json:"href" yaml:"href"`
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
}

// FeedContext cross-references the entities a feed item is about.
type FeedContext struct {
	DealID   string    `json:"dealId,omitempty" yaml:"deal_id,omitempty"`
	ClientID string    `json:"clientId,omitempty" yaml:"client_id,omitempty"`
	Link     *FeedLink `json:"link,omitempty" yaml:"link,omitempty"`
}

// FeedItem is a record of the notification feed.
type FeedItem struct {
	ID             string         `json:"id" yaml:"id"`
	Title          string         `json:"title" yaml:"title"`
	Message        string         `json:"message" yaml:"message"`
	CreatedAt      time.Time      `json:"createdAt" yaml:"created_at"`
	Source         string         `json:"source" yaml:"source"`
	Category       string         `json:"category" yaml:"category"`
	Tags           []string       `json:"tags,omitempty" yaml:"tags,omitempty"`
	Context        FeedContext    `json:"context" yaml:"context"`
	Channels       []string       `json:"channels,omitempty" yaml:"channels,omitempty"`
	DeliveryStatus DeliveryStatus `json:"deliveryStatus" yaml:"delivery_status"`
	Read           bool           `json:"read" yaml:"read"`
	Important      bool           `json:"important" yaml:"important"`
}

// Clone returns a copy of the item that shares no memory with the receiver.
func (i FeedItem) Clone() FeedItem {
	out := i
	if i.Tags != nil {
		out.Tags = append([]string(nil), i.Tags...)
	}
	if i.Channels != nil {
		out.Channels = append([]string(nil), i.Channels...)
	}
	if i.Context.Link != nil {
		link := *i.Context.Link
		out.Context.Link = &link
	}
	return out
}

// FeedStatus narrows the feed by read/important/delivery state.
type FeedStatus string

const (
	FeedStatusAll       FeedStatus = "all"
	FeedStatusUnread    FeedStatus = "unread"
	FeedStatusImportant FeedStatus = "important"
	FeedStatusFailed    FeedStatus = "failed"
)

// IsValid checks if the feed status is valid.
func (s FeedStatus) IsValid() bool {
	switch s {
	case FeedStatusAll, FeedStatusUnread, FeedStatusImportant, FeedStatusFailed:
		return true
	default:
		return false
	}
}

// FilterAll matches every category or source.
const FilterAll = "all"

// FeedFilters is the active feed predicate.
type FeedFilters struct {
	Category string     `json:"category" yaml:"category"`
	Source   string     `json:"source" yaml:"source"`
	Status   FeedStatus `json:"status" yaml:"status"`
	Search   string     `json:"search" yaml:"search"`
}

// DefaultFeedFilters returns filters that match every item.
func DefaultFeedFilters() FeedFilters {
	return FeedFilters{
		Category: FilterAll,
		Source:   FilterAll,
		Status:   FeedStatusAll,
	}
}

// Normalize fills empty fields with "all" and trims the search query.
func (f FeedFilters) Normalize() FeedFilters {
	if f.Category == "" {
		f.Category = FilterAll
	}
	if f.Source == "" {
		f.Source = FilterAll
	}
	if f.Status == "" || !f.Status.IsValid() {
		f.Status = FeedStatusAll
	}
	f.Search = strings.TrimSpace(f.Search)
	return f
}

// IsEmpty returns true if the filters match every item.
func (f FeedFilters) IsEmpty() bool {
	n := f.Normalize()
	return n.Category == FilterAll && n.Source == FilterAll && n.Status == FeedStatusAll && n.Search == ""
}

// Matches evaluates the filter predicate against the item.
func (i FeedItem) Matches(filters FeedFilters) bool {
	f := filters.Normalize()

	if f.Category != FilterAll && i.Category != f.Category {
		return false
	}
	if f.Source != FilterAll && i.Source != f.Source {
		return false
	}

	switch f.Status {
	case FeedStatusUnread:
		if i.Read {
			return false
		}
	case FeedStatusImportant:
		if !i.Important {
			return false
		}
	case FeedStatusFailed:
		if i.DeliveryStatus != DeliveryFailed {
			return false
		}
	}

	if f.Search == "" {
		return true
	}
	return strings.Contains(i.searchHaystack(), strings.ToLower(f.Search))
}

// searchHaystack joins the searchable fields with a separator that a query
// cannot span.
func (i FeedItem) searchHaystack() string {
	parts := make([]string, 0, len(i.Tags)+4)
	for _, part := range append([]string{i.Title, i.Message}, i.Tags...) {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if i.Context.DealID != "" {
		parts = append(parts, i.Context.DealID)
	}
	if i.Context.ClientID != "" {
		parts = append(parts, i.Context.ClientID)
	}
	return strings.ToLower(strings.Join(parts, " \x00"))
}

// FilterOption is a selectable value of a feed filter.
type FilterOption struct {
	Value string `json:"value" yaml:"value"`
	Label string `json:"label" yaml:"label"`
	Count int    `json:"count,omitempty" yaml:"count,omitempty"`
}

// ChannelState is the delivery setting of one notification channel.
type ChannelState struct {
	Channel       string     `json:"channel" yaml:"channel"`
	Label         string     `json:"label" yaml:"label"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	Enabled       bool       `json:"enabled" yaml:"enabled"`
	Editable      bool       `json:"editable" yaml:"editable"`
	LastChangedAt *time.Time `json:"lastChangedAt,omitempty" yaml:"last_changed_at,omitempty"`
}
