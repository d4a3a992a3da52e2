// Package format provides output formatting functionality for CLI commands.
// It renders feed items, deals, channels, notifications and classified
// effects in human and machine readable styles.
package format

import (
	"io"

	"github.com/cristianoliveira/crmsync/internal/bridge"
	"github.com/cristianoliveira/crmsync/internal/domain"
)

// Formatter defines the interface for output formatters.
type Formatter interface {
	// FormatFeed formats feed items and writes to the writer.
	FormatFeed(items []domain.FeedItem, writer io.Writer) error

	// FormatDeals formats deals and writes to the writer.
	FormatDeals(deals []domain.Deal, writer io.Writer) error

	// FormatChannels formats channel settings and writes to the writer.
	FormatChannels(states []domain.ChannelState, writer io.Writer) error

	// FormatNotifications formats ambient notifications and writes to the writer.
	FormatNotifications(notifications []domain.Notification, writer io.Writer) error

	// FormatEffects formats the effects of a classified push message.
	FormatEffects(effects []bridge.Effect, writer io.Writer) error
}

// FormatterType represents the type of formatter to use.
type FormatterType string

const (
	// FormatterTypeSimple displays one line per record with its key fields.
	FormatterTypeSimple FormatterType = "simple"

	// FormatterTypeTable displays records in a table with headers.
	FormatterTypeTable FormatterType = "table"

	// FormatterTypeCompact displays only the headline of each record.
	FormatterTypeCompact FormatterType = "compact"

	// FormatterTypeJSON displays records as JSON.
	FormatterTypeJSON FormatterType = "json"

	// FormatterTypeYAML displays records as YAML.
	FormatterTypeYAML FormatterType = "yaml"
)

// FormatterTypes lists the supported formatter types.
var FormatterTypes = []FormatterType{
	FormatterTypeSimple,
	FormatterTypeTable,
	FormatterTypeCompact,
	FormatterTypeJSON,
	FormatterTypeYAML,
}

// NewFormatter creates a new formatter of the specified type.
func NewFormatter(formatterType FormatterType) Formatter {
	switch formatterType {
	case FormatterTypeTable:
		return NewTableFormatter()
	case FormatterTypeCompact:
		return NewCompactFormatter()
	case FormatterTypeJSON:
		return NewJSONFormatter()
	case FormatterTypeYAML:
		return NewYAMLFormatter()
	default:
		// Default to simple formatter for unknown types
		return NewSimpleFormatter()
	}
}

// IsValid reports whether t names a supported formatter.
func (t FormatterType) IsValid() bool {
	for _, ft := range FormatterTypes {
		if ft == t {
			return true
		}
	}
	return false
}

// GetFormatter returns the formatter named by format, falling back to the
// simple formatter.
func GetFormatter(format string) Formatter {
	return NewFormatter(FormatterType(format))
}

// EffectView is the serializable form of a bridge effect.
type EffectView struct {
	Kind   string `json:"kind" yaml:"kind"`
	Detail string `json:"detail" yaml:"detail"`
}

// EffectViews describes effects in order.
func EffectViews(effects []bridge.Effect) []EffectView {
	views := make([]EffectView, 0, len(effects))
	for _, e := range effects {
		kind, detail := bridge.Describe(e)
		views = append(views, EffectView{Kind: kind, Detail: detail})
	}
	return views
}
