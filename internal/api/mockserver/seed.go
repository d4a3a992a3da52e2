package mockserver

import (
	"time"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

func seed(s *Server) {
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	review := base.AddDate(0, 0, 14)

	WithDeals(
		domain.Deal{ID: "deal-1", Title: "Fleet insurance renewal", ClientID: "client-1", Stage: domain.StageQualification,
			Value: 1250000, Currency: "RUB", Probability: 0.4, Owner: "anna", NextReviewAt: &review, UpdatedAt: base},
		domain.Deal{ID: "deal-2", Title: "Office property cover", ClientID: "client-2", Stage: domain.StageProposal,
			Value: 480000, Currency: "RUB", Probability: 0.6, Owner: "ivan", UpdatedAt: base.Add(time.Hour)},
		domain.Deal{ID: "deal-3", Title: "Cargo liability", ClientID: "client-1", Stage: domain.StageNegotiation,
			Value: 2100000, Currency: "RUB", Probability: 0.75, Owner: "anna", UpdatedAt: base.Add(2 * time.Hour)},
		domain.Deal{ID: "deal-4", Title: "Travel medical group plan", ClientID: "client-3", Stage: domain.StageProspecting,
			Value: 95000, Currency: "RUB", Probability: 0.1, UpdatedAt: base.Add(3 * time.Hour)},
	)(s)

	WithPayments(
		domain.Payment{ID: "pay-1", DealID: "deal-1", Amount: 312500, Currency: "RUB", Status: "planned", DueDate: "2024-04-01", Updated: base},
		domain.Payment{ID: "pay-2", DealID: "deal-3", Amount: 700000, Currency: "RUB", Status: "received", DueDate: "2024-03-15", Updated: base},
	)(s)

	WithFeed(
		domain.FeedItem{ID: "ntf-1", Title: "Deal moved to proposal", Message: "Office property cover is waiting for the client's answer",
			CreatedAt: base.Add(4 * time.Hour), Source: domain.FeedSourceCRM, Category: domain.CategoryDeal,
			Tags: []string{"pipeline"}, Context: domain.FeedContext{DealID: "deal-2", ClientID: "client-2"},
			Channels: []string{"sse"}, DeliveryStatus: domain.DeliveryDelivered},
		domain.FeedItem{ID: "ntf-2", Title: "Payment overdue", Message: "Instalment for Fleet insurance renewal is overdue",
			CreatedAt: base.Add(5 * time.Hour), Source: domain.FeedSourcePayments, Category: domain.CategoryPayment,
			Tags: []string{"finance", "overdue"}, Context: domain.FeedContext{DealID: "deal-1", ClientID: "client-1"},
			Channels: []string{"sse", "telegram"}, DeliveryStatus: domain.DeliveryFailed, Important: true},
		domain.FeedItem{ID: "ntf-3", Title: "New sign-in", Message: "A new device signed in to your account",
			CreatedAt: base.Add(6 * time.Hour), Source: domain.FeedSourceSystem, Category: domain.CategorySecurity,
			Channels: []string{"sse"}, DeliveryStatus: domain.DeliveryDelivered, Read: true},
	)(s)

	WithChannels(
		domain.ChannelState{Channel: "sse", Label: "In-app", Description: "Realtime notifications inside the CRM", Enabled: true, Editable: false},
		domain.ChannelState{Channel: "telegram", Label: "Telegram", Description: "Messages from the CRM bot", Enabled: false, Editable: true},
	)(s)
}
