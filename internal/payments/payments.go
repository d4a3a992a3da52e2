// Package payments turns payment push events into human readable notifications.
package payments

import (
	"fmt"
	"strings"
	"time"

	"github.com/cristianoliveira/crmsync/internal/domain"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Kind is the classified type of a payment event.
type Kind int

const (
	KindUnknown Kind = iota
	KindCreated
	KindStatusChanged
	KindOverdue
)

func (k Kind) String() string {
	switch k {
	case KindCreated:
		return "created"
	case KindStatusChanged:
		return "status_changed"
	case KindOverdue:
		return "overdue"
	default:
		return "unknown"
	}
}

// KindOf classifies a raw event type tag. Channel prefixes and
// underscore/dot variants are tolerated.
func KindOf(eventType string) Kind {
	switch domain.NormalizeEventType(eventType) {
	case "payment.created":
		return KindCreated
	case "payment.status.changed":
		return KindStatusChanged
	case "payment.overdue":
		return KindOverdue
	default:
		return KindUnknown
	}
}

type statusText struct {
	text     string
	severity domain.Severity
}

var statuses = map[string]statusText{
	"received":  {"Payment received", domain.SeveritySuccess},
	"paid_out":  {"Payment paid out", domain.SeveritySuccess},
	"cancelled": {"Payment cancelled", domain.SeverityError},
	"canceled":  {"Payment cancelled", domain.SeverityError},
	"planned":   {"Payment planned", domain.SeverityInfo},
	"expected":  {"Payment expected", domain.SeverityInfo},
}

var printer = message.NewPrinter(language.Russian)

// Describe composes the notification text and severity of a payment event.
// Clauses whose source field is missing are left out. A message carried by
// the event itself wins over the composed text. ok is false for event types
// that are not payment events.
func Describe(evt domain.PaymentEvent, defaultCurrency string) (msg string, severity domain.Severity, ok bool) {
	kind := KindOf(evt.Type)
	if kind == KindUnknown {
		return "", "", false
	}

	cur := evt.Currency
	if cur == "" {
		cur = defaultCurrency
	}
	var amount string
	if evt.Amount != nil {
		amount = FormatAmount(*evt.Amount, cur)
	}
	due := FormatDate(evt.DueDate)

	switch kind {
	case KindCreated:
		var b strings.Builder
		b.WriteString("New payment")
		if amount != "" {
			b.WriteString(" of " + amount)
		}
		if due != "" {
			b.WriteString(" due " + due)
		}
		msg, severity = b.String(), domain.SeverityInfo
	case KindStatusChanged:
		st, known := statuses[normalizeStatus(evt.Status)]
		if !known {
			st = statusText{text: unknownStatus(evt.Status), severity: domain.SeverityInfo}
		}
		msg, severity = st.text, st.severity
		if amount != "" {
			msg += " (" + amount + ")"
		}
	case KindOverdue:
		var b strings.Builder
		b.WriteString("Payment")
		if amount != "" {
			b.WriteString(" of " + amount)
		}
		b.WriteString(" is overdue")
		if due != "" {
			b.WriteString(" since " + due)
		}
		msg, severity = b.String(), domain.SeverityWarning
	}

	if m := strings.TrimSpace(evt.Message); m != "" {
		msg = m
	}
	return msg, severity, true
}

func normalizeStatus(status string) string {
	s := strings.ToLower(strings.TrimSpace(status))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}

func unknownStatus(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "Payment status changed"
	}
	return fmt.Sprintf("Payment status changed: unknown status %q", raw)
}

// FormatAmount renders amount with the ISO code of cur in Russian number
// format, e.g. "RUB 1 000,00". Unknown currency codes fall back to plain
// formatting with the raw code.
func FormatAmount(amount float64, cur string) string {
	cur = strings.ToUpper(strings.TrimSpace(cur))
	unit, err := currency.ParseISO(cur)
	if err != nil {
		if cur == "" {
			return printer.Sprintf("%.2f", amount)
		}
		return printer.Sprintf("%s %.2f", cur, amount)
	}
	return printer.Sprint(currency.ISO(unit.Amount(amount)))
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// FormatDate renders a date as DD.MM.YYYY. Text that is not a known date
// layout is returned trimmed but otherwise unchanged.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("02.01.2006")
		}
	}
	return raw
}
