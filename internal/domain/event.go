package domain

import "strings"

// channelPrefixes are the namespaces a push producer may put in front of an
// event type.
var channelPrefixes = []string{"payments.", "crm.", "notifications."}

// NormalizeEventType canonicalizes an event type tag: lower case, channel
// namespace stripped, underscores folded into dots. Both
// "payments.payment.status_changed" and "payment.status.changed" normalize to
// "payment.status.changed".
func NormalizeEventType(tag string) string {
	t := strings.ToLower(strings.TrimSpace(tag))
	for _, prefix := range channelPrefixes {
		if strings.HasPrefix(t, prefix) && len(t) > len(prefix) {
			t = strings.TrimPrefix(t, prefix)
			break
		}
	}
	t = strings.ReplaceAll(t, "_", ".")
	t = strings.ReplaceAll(t, "-", ".")
	for strings.Contains(t, "..") {
		t = strings.ReplaceAll(t, "..", ".")
	}
	return strings.Trim(t, ".")
}

// PaymentEvent is a payment push event after field-name normalization.
// Amount is nil when the producer omitted it.
type PaymentEvent struct {
	Type      string
	ID        string
	DealID    string
	PaymentID string
	Amount    *float64
	Currency  string
	DueDate   string
	Status    string
	Message   string
}
