package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func sampleFeedItem() FeedItem {
	return FeedItem{
		ID:             "n-1",
		Title:          "Deal moved",
		Message:        "Deal Alpha moved to negotiation",
		CreatedAt:      time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC),
		Source:         FeedSourceCRM,
		Category:       CategoryDeal,
		Tags:           []string{"Pipeline", "urgent"},
		Context:        FeedContext{DealID: "deal-42", ClientID: "client-7"},
		DeliveryStatus: DeliveryDelivered,
	}
}

func TestFeedItem_Matches(t *testing.T) {
	item := sampleFeedItem()

	tests := []struct {
		name    string
		filters FeedFilters
		want    bool
	}{
		{"zero filters match", FeedFilters{}, true},
		{"default filters match", DefaultFeedFilters(), true},
		{"category match", FeedFilters{Category: CategoryDeal}, true},
		{"category mismatch", FeedFilters{Category: CategoryPayment}, false},
		{"source match", FeedFilters{Source: FeedSourceCRM}, true},
		{"source mismatch", FeedFilters{Source: FeedSourcePayments}, false},
		{"unread status", FeedFilters{Status: FeedStatusUnread}, true},
		{"important status", FeedFilters{Status: FeedStatusImportant}, false},
		{"failed status", FeedFilters{Status: FeedStatusFailed}, false},
		{"search title case insensitive", FeedFilters{Search: "deal MOVED"}, true},
		{"search tag", FeedFilters{Search: "pipeline"}, true},
		{"search deal id", FeedFilters{Search: "deal-42"}, true},
		{"search client id", FeedFilters{Search: "CLIENT-7"}, true},
		{"search trims", FeedFilters{Search: "  urgent  "}, true},
		{"search miss", FeedFilters{Search: "invoice"}, false},
		{"search does not span fields", FeedFilters{Search: "urgent deal-42"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, item.Matches(tt.filters))
		})
	}
}

func TestFeedItem_MatchesStatus(t *testing.T) {
	item := sampleFeedItem()
	item.Read = true
	item.Important = true
	item.DeliveryStatus = DeliveryFailed

	assert.False(t, item.Matches(FeedFilters{Status: FeedStatusUnread}))
	assert.True(t, item.Matches(FeedFilters{Status: FeedStatusImportant}))
	assert.True(t, item.Matches(FeedFilters{Status: FeedStatusFailed}))
}

func TestFeedFilters_Normalize(t *testing.T) {
	f := FeedFilters{Status: "bogus", Search: "  x "}.Normalize()
	assert.Equal(t, FilterAll, f.Category)
	assert.Equal(t, FilterAll, f.Source)
	assert.Equal(t, FeedStatusAll, f.Status)
	assert.Equal(t, "x", f.Search)

	assert.True(t, FeedFilters{}.IsEmpty())
	assert.False(t, FeedFilters{Search: "x"}.IsEmpty())
}

func TestFeedItem_CloneIsIndependent(t *testing.T) {
	item := sampleFeedItem()
	item.Context.Link = &FeedLink{Href: "/deals/42"}

	clone := item.Clone()
	clone.Tags[0] = "changed"
	clone.Context.Link.Href = "/elsewhere"

	assert.Equal(t, "Pipeline", item.Tags[0])
	assert.Equal(t, "/deals/42", item.Context.Link.Href)
}
