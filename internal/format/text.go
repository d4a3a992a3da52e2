package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/bridge"
	"github.com/cristianoliveira/crmsync/internal/domain"
	"github.com/cristianoliveira/crmsync/internal/payments"
)

const (
	dateLayout      = "2006-01-02 15:04"
	simpleWidth     = 50
	compactWidth    = 60
	defaultCurrency = "RUB"
)

// SimpleFormatter formats records one per line with their key fields.
type SimpleFormatter struct{}

// NewSimpleFormatter creates a new SimpleFormatter.
func NewSimpleFormatter() *SimpleFormatter {
	return &SimpleFormatter{}
}

// FormatFeed formats feed items in simple format.
func (f *SimpleFormatter) FormatFeed(items []domain.FeedItem, writer io.Writer) error {
	for _, item := range items {
		_, err := fmt.Fprintf(writer, "%-12s  %s  %-6s %s - %s\n",
			item.ID, item.CreatedAt.Format(dateLayout), readMarker(item), importantMarker(item),
			truncate(headline(item), simpleWidth))
		if err != nil {
			return err
		}
	}
	return nil
}

// FormatDeals formats deals in simple format.
func (f *SimpleFormatter) FormatDeals(deals []domain.Deal, writer io.Writer) error {
	for _, d := range deals {
		_, err := fmt.Fprintf(writer, "%-12s  %-12s  %s  (%s)\n",
			d.ID, d.Stage, truncate(d.Title, simpleWidth), dealAmount(d))
		if err != nil {
			return err
		}
	}
	return nil
}

// FormatChannels formats channel settings in simple format.
func (f *SimpleFormatter) FormatChannels(states []domain.ChannelState, writer io.Writer) error {
	for _, s := range states {
		line := fmt.Sprintf("%-10s  %-3s  %s", s.Channel, onOff(s.Enabled), s.Label)
		if !s.Editable {
			line += " (read-only)"
		}
		if _, err := fmt.Fprintln(writer, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatNotifications formats notifications in simple format.
func (f *SimpleFormatter) FormatNotifications(notifications []domain.Notification, writer io.Writer) error {
	for _, n := range notifications {
		_, err := fmt.Fprintf(writer, "%s  [%s] %s\n",
			n.CreatedAt.Format(dateLayout), n.Severity, truncate(n.Message, simpleWidth))
		if err != nil {
			return err
		}
	}
	return nil
}

// FormatEffects formats effects in simple format.
func (f *SimpleFormatter) FormatEffects(effects []bridge.Effect, writer io.Writer) error {
	for _, v := range EffectViews(effects) {
		if _, err := fmt.Fprintf(writer, "%-12s  %s\n", v.Kind, v.Detail); err != nil {
			return err
		}
	}
	return nil
}

// CompactFormatter formats only the headline of each record.
type CompactFormatter struct{}

// NewCompactFormatter creates a new CompactFormatter.
func NewCompactFormatter() *CompactFormatter {
	return &CompactFormatter{}
}

// FormatFeed formats feed items in compact format.
func (f *CompactFormatter) FormatFeed(items []domain.FeedItem, writer io.Writer) error {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = headline(item)
	}
	return writeLines(writer, lines)
}

// FormatDeals formats deals in compact format.
func (f *CompactFormatter) FormatDeals(deals []domain.Deal, writer io.Writer) error {
	lines := make([]string, len(deals))
	for i, d := range deals {
		lines[i] = d.Title
	}
	return writeLines(writer, lines)
}

// FormatChannels formats enabled channels in compact format.
func (f *CompactFormatter) FormatChannels(states []domain.ChannelState, writer io.Writer) error {
	lines := make([]string, 0, len(states))
	for _, s := range states {
		if s.Enabled {
			lines = append(lines, s.Channel)
		}
	}
	return writeLines(writer, lines)
}

// FormatNotifications formats notifications in compact format.
func (f *CompactFormatter) FormatNotifications(notifications []domain.Notification, writer io.Writer) error {
	lines := make([]string, len(notifications))
	for i, n := range notifications {
		lines[i] = n.Message
	}
	return writeLines(writer, lines)
}

// FormatEffects formats effect kinds in compact format.
func (f *CompactFormatter) FormatEffects(effects []bridge.Effect, writer io.Writer) error {
	views := EffectViews(effects)
	lines := make([]string, len(views))
	for i, v := range views {
		lines[i] = v.Kind
	}
	return writeLines(writer, lines)
}

func writeLines(writer io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(writer, truncate(line, compactWidth)); err != nil {
			return err
		}
	}
	return nil
}

func headline(item domain.FeedItem) string {
	switch {
	case item.Title != "" && item.Message != "":
		return item.Title + ": " + item.Message
	case item.Title != "":
		return item.Title
	default:
		return item.Message
	}
}

func readMarker(item domain.FeedItem) string {
	if item.Read {
		return "read"
	}
	return "unread"
}

func importantMarker(item domain.FeedItem) string {
	if item.Important {
		return "!"
	}
	return " "
}

func onOff(enabled bool) string {
	if enabled {
		return "on"
	}
	return "off"
}

func dealAmount(d domain.Deal) string {
	cur := d.Currency
	if cur == "" {
		cur = defaultCurrency
	}
	return payments.FormatAmount(d.Value, cur)
}

// truncate shortens s to width runes, adding "..." if truncated. Newlines
// are folded so a record stays on one line.
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width < 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}
