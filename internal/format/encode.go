package format

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cristianoliveira/crmsync/internal/bridge"
	"github.com/cristianoliveira/crmsync/internal/domain"
)

// JSONFormatter formats records as an indented JSON array.
type JSONFormatter struct{}

// NewJSONFormatter creates a new JSONFormatter.
func NewJSONFormatter() *JSONFormatter {
	return &JSONFormatter{}
}

// FormatFeed formats feed items as JSON.
func (f *JSONFormatter) FormatFeed(items []domain.FeedItem, writer io.Writer) error {
	return writeJSON(writer, "feed items", nonNilSlice(items))
}

// FormatDeals formats deals as JSON.
func (f *JSONFormatter) FormatDeals(deals []domain.Deal, writer io.Writer) error {
	return writeJSON(writer, "deals", nonNilSlice(deals))
}

// FormatChannels formats channel settings as JSON.
func (f *JSONFormatter) FormatChannels(states []domain.ChannelState, writer io.Writer) error {
	return writeJSON(writer, "channels", nonNilSlice(states))
}

// FormatNotifications formats notifications as JSON.
func (f *JSONFormatter) FormatNotifications(notifications []domain.Notification, writer io.Writer) error {
	return writeJSON(writer, "notifications", nonNilSlice(notifications))
}

// FormatEffects formats effects as JSON.
func (f *JSONFormatter) FormatEffects(effects []bridge.Effect, writer io.Writer) error {
	return writeJSON(writer, "effects", EffectViews(effects))
}

func writeJSON(writer io.Writer, what string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s to JSON: %w", what, err)
	}
	if _, err := writer.Write(data); err != nil {
		return err
	}
	_, err = fmt.Fprintln(writer)
	return err
}

// YAMLFormatter formats records as a YAML sequence.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAMLFormatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// FormatFeed formats feed items as YAML.
func (f *YAMLFormatter) FormatFeed(items []domain.FeedItem, writer io.Writer) error {
	return writeYAML(writer, "feed items", nonNilSlice(items))
}

// FormatDeals formats deals as YAML.
func (f *YAMLFormatter) FormatDeals(deals []domain.Deal, writer io.Writer) error {
	return writeYAML(writer, "deals", nonNilSlice(deals))
}

// FormatChannels formats channel settings as YAML.
func (f *YAMLFormatter) FormatChannels(states []domain.ChannelState, writer io.Writer) error {
	return writeYAML(writer, "channels", nonNilSlice(states))
}

// FormatNotifications formats notifications as YAML.
func (f *YAMLFormatter) FormatNotifications(notifications []domain.Notification, writer io.Writer) error {
	return writeYAML(writer, "notifications", nonNilSlice(notifications))
}

// FormatEffects formats effects as YAML.
func (f *YAMLFormatter) FormatEffects(effects []bridge.Effect, writer io.Writer) error {
	return writeYAML(writer, "effects", EffectViews(effects))
}

func writeYAML(writer io.Writer, what string, v any) error {
	enc := yaml.NewEncoder(writer)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to marshal %s to YAML: %w", what, err)
	}
	return enc.Close()
}

// nonNilSlice keeps empty output as [] rather than null.
func nonNilSlice[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Encode writes an arbitrary value as JSON or YAML.
func Encode(writer io.Writer, t FormatterType, v any) error {
	switch t {
	case FormatterTypeJSON:
		return writeJSON(writer, "value", v)
	case FormatterTypeYAML:
		return writeYAML(writer, "value", v)
	default:
		return fmt.Errorf("unsupported encoding %q", t)
	}
}
