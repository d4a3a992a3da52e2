package bridge

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cristianoliveira/crmsync/internal/api"
	"github.com/cristianoliveira/crmsync/internal/cache"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/payments"
	"github.com/oklog/ulid/v2"
)

// Options are the inputs of Classify besides the message itself.
type Options struct {
	// DefaultCurrency is used for payment amounts without a currency.
	DefaultCurrency string
	Now             func() time.Time
	NewID           func() string
}

func (o Options) withDefaults() Options {
	if o.DefaultCurrency == "" {
		o.DefaultCurrency = "RUB"
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = func() string { return ulid.Make().String() }
	}
	return o
}

const defaultNotificationText = "New notification"

// Classify turns one raw push message into effects. It never fails: text that
// is not a JSON object becomes a notification carrying the raw text.
func Classify(ch Channel, raw string, opts Options) []Effect {
	opts = opts.withDefaults()
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var decoded map[string]any
	err := json.Unmarshal([]byte(raw), &decoded)
	if err == nil && decoded == nil {
		// a JSON null carries neither a type nor a message
		return nil
	}
	if err != nil {
		return []Effect{Notify{Notification: domain.Notification{
			ID:        opts.NewID(),
			Message:   raw,
			Severity:  domain.SeverityInfo,
			CreatedAt: opts.Now(),
			Source:    sourceOf(ch),
		}}}
	}
	p := payload(decoded)

	eventType := p.str("type", "event_type")
	if eventType == "" {
		eventType = p.str("eventType", "event")
	}
	if payments.KindOf(eventType) != payments.KindUnknown {
		return classifyPayment(p, eventType, opts)
	}
	if ch == ChannelNotifications {
		return classifyNotification(p, opts)
	}

	message := p.str("message", "")
	dealID := NormalizeEntityRef(p)
	if dealID != "" {
		return classifyEntityChanged(ch, p, dealID, message, opts)
	}

	switch {
	case message != "":
		return []Effect{notify(p, ch, message, domain.SeverityInfo, opts)}
	case eventType != "" && len(decoded) > 0:
		// never drop push data we cannot interpret
		serialized, _ := json.Marshal(decoded)
		return []Effect{notify(p, ch, string(serialized), domain.SeverityInfo, opts)}
	default:
		return nil
	}
}

func classifyEntityChanged(ch Channel, p payload, dealID, message string, opts Options) []Effect {
	effects := []Effect{
		MarkUpdated{DealID: dealID},
		Highlight{DealID: dealID},
		Invalidate{
			Keys:  []cache.Key{api.DealKey(dealID), api.PaymentsKey(dealID)},
			Kinds: []string{api.KindDeals, api.KindStageMetrics},
		},
	}
	if message != "" {
		effects = append(effects, notify(p, ch, message, severityOf(p), opts))
	}
	return effects
}

func classifyPayment(p payload, eventType string, opts Options) []Effect {
	evt := PaymentEventFrom(p)
	evt.Type = eventType
	msg, severity, _ := payments.Describe(evt, opts.DefaultCurrency)

	effects := []Effect{notify(p, ChannelPayments, msg, severity, opts)}
	if evt.DealID != "" {
		effects = append(effects,
			MarkUpdated{DealID: evt.DealID},
			Highlight{DealID: evt.DealID},
		)
	}
	return append(effects, Refetch{Kind: api.KindPayments})
}

func classifyNotification(p payload, opts Options) []Effect {
	title := p.str("title", "")
	message := p.str("message", "")
	text := message
	if text == "" {
		text = title
	}
	if text == "" {
		text = defaultNotificationText
	}
	n := notify(p, ChannelNotifications, text, severityOf(p), opts)
	effects := []Effect{n}

	id := p.str("id", "")
	if id != "" && (title != "" || message != "") {
		effects = append(effects, Ingest{Item: feedItemFrom(p, id, title, message, n.Notification.CreatedAt)})
	}
	return effects
}

// PaymentEventFrom reads a payment event from a decoded payload, tolerating
// camel-case and snake-case field names.
func PaymentEventFrom(p map[string]any) domain.PaymentEvent {
	pl := payload(p)
	evt := domain.PaymentEvent{
		Type:      pl.str("type", "event_type"),
		ID:        pl.str("id", ""),
		DealID:    NormalizeEntityRef(p),
		PaymentID: pl.str("paymentId", "payment_id"),
		Currency:  pl.str("currency", ""),
		DueDate:   pl.str("dueDate", "due_date"),
		Status:    pl.str("status", ""),
		Message:   pl.str("message", ""),
	}
	if amount, ok := pl.number("amount", ""); ok {
		evt.Amount = &amount
	}
	return evt
}

func feedItemFrom(p payload, id, title, message string, now time.Time) domain.FeedItem {
	item := domain.FeedItem{
		ID:             id,
		Title:          title,
		Message:        message,
		CreatedAt:      now,
		Source:         p.str("source", ""),
		Category:       p.str("category", ""),
		Tags:           p.list("tags"),
		Channels:       p.list("channels"),
		DeliveryStatus: domain.DeliveryStatus(p.str("deliveryStatus", "delivery_status")),
		Read:           p.boolean("read"),
		Important:      p.boolean("important"),
		Context: domain.FeedContext{
			DealID:   NormalizeEntityRef(p),
			ClientID: p.str("clientId", "client_id"),
		},
	}
	if created := p.str("createdAt", "created_at"); created != "" {
		if t, err := time.Parse(time.RFC3339, created); err == nil {
			item.CreatedAt = t
		}
	}
	if item.Source == "" {
		item.Source = domain.FeedSourceSystem
	}
	if item.Category == "" {
		item.Category = domain.CategorySystem
	}
	if item.DeliveryStatus == "" {
		item.DeliveryStatus = domain.DeliveryDelivered
	}
	return item
}

func notify(p payload, ch Channel, message string, severity domain.Severity, opts Options) Notify {
	id := p.str("id", "")
	if id == "" {
		id = opts.NewID()
	}
	return Notify{Notification: domain.Notification{
		ID:        id,
		Message:   message,
		Severity:  severity,
		CreatedAt: opts.Now(),
		Source:    sourceOf(ch),
	}}
}

func severityOf(p payload) domain.Severity {
	if s, err := domain.ParseSeverity(p.str("level", "severity")); err == nil {
		return s
	}
	return domain.SeverityInfo
}

func sourceOf(ch Channel) string {
	switch ch {
	case ChannelNotifications:
		return domain.SourceNotifications
	case ChannelPayments:
		return domain.SourcePayments
	default:
		return domain.SourceCRM
	}
}
