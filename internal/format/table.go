package format

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cristianoliveira/crmsync/internal/bridge"
	"github.com/cristianoliveira/crmsync/internal/domain"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("4"))

// column describes one table column. MaxWidth bounds the cell text; zero
// means unbounded.
type column[T any] struct {
	Name     string
	MaxWidth int
	Right    bool
	Value    func(T) string
}

// TableFormatter formats records in a table with headers.
type TableFormatter struct{}

// NewTableFormatter creates a new TableFormatter.
func NewTableFormatter() *TableFormatter {
	return &TableFormatter{}
}

// FormatFeed formats feed items in table format.
func (f *TableFormatter) FormatFeed(items []domain.FeedItem, writer io.Writer) error {
	return renderTable(writer, []column[domain.FeedItem]{
		{Name: "ID", Value: func(i domain.FeedItem) string { return i.ID }},
		{Name: "DATE", Value: func(i domain.FeedItem) string { return i.CreatedAt.Format(dateLayout) }},
		{Name: "SOURCE", Value: func(i domain.FeedItem) string { return i.Source }},
		{Name: "CATEGORY", Value: func(i domain.FeedItem) string { return i.Category }},
		{Name: "STATE", Value: func(i domain.FeedItem) string { return strings.TrimSpace(readMarker(i) + " " + importantMarker(i)) }},
		{Name: "TITLE", MaxWidth: 32, Value: headline},
	}, items)
}

// FormatDeals formats deals in table format.
func (f *TableFormatter) FormatDeals(deals []domain.Deal, writer io.Writer) error {
	return renderTable(writer, []column[domain.Deal]{
		{Name: "ID", Value: func(d domain.Deal) string { return d.ID }},
		{Name: "TITLE", MaxWidth: 32, Value: func(d domain.Deal) string { return d.Title }},
		{Name: "STAGE", Value: func(d domain.Deal) string { return d.Stage.String() }},
		{Name: "VALUE", Right: true, Value: dealAmount},
		{Name: "OWNER", Value: func(d domain.Deal) string { return d.Owner }},
		{Name: "UPDATED", Value: func(d domain.Deal) string { return d.UpdatedAt.Format(dateLayout) }},
	}, deals)
}

// FormatChannels formats channel settings in table format.
func (f *TableFormatter) FormatChannels(states []domain.ChannelState, writer io.Writer) error {
	return renderTable(writer, []column[domain.ChannelState]{
		{Name: "CHANNEL", Value: func(s domain.ChannelState) string { return s.Channel }},
		{Name: "LABEL", Value: func(s domain.ChannelState) string { return s.Label }},
		{Name: "ENABLED", Value: func(s domain.ChannelState) string { return onOff(s.Enabled) }},
		{Name: "EDITABLE", Value: func(s domain.ChannelState) string { return onOff(s.Editable) }},
	}, states)
}

// FormatNotifications formats notifications in table format.
func (f *TableFormatter) FormatNotifications(notifications []domain.Notification, writer io.Writer) error {
	return renderTable(writer, []column[domain.Notification]{
		{Name: "DATE", Value: func(n domain.Notification) string { return n.CreatedAt.Format(dateLayout) }},
		{Name: "SEVERITY", Value: func(n domain.Notification) string { return n.Severity.String() }},
		{Name: "SOURCE", Value: func(n domain.Notification) string { return n.Source }},
		{Name: "MESSAGE", MaxWidth: 48, Value: func(n domain.Notification) string { return n.Message }},
	}, notifications)
}

// FormatEffects formats effects in table format.
func (f *TableFormatter) FormatEffects(effects []bridge.Effect, writer io.Writer) error {
	return renderTable(writer, []column[EffectView]{
		{Name: "KIND", Value: func(v EffectView) string { return v.Kind }},
		{Name: "DETAIL", MaxWidth: 64, Value: func(v EffectView) string { return v.Detail }},
	}, EffectViews(effects))
}

// renderTable writes a header, a separator and one row per record. Nothing
// is written for an empty table.
func renderTable[T any](writer io.Writer, columns []column[T], rows []T) error {
	if len(rows) == 0 {
		return nil
	}

	cells := make([][]string, len(rows))
	widths := make([]int, len(columns))
	for c, col := range columns {
		widths[c] = lipgloss.Width(col.Name)
	}
	for r, row := range rows {
		cells[r] = make([]string, len(columns))
		for c, col := range columns {
			value := col.Value(row)
			if col.MaxWidth > 0 {
				value = truncate(value, col.MaxWidth)
			} else {
				value = strings.Join(strings.Fields(value), " ")
			}
			cells[r][c] = value
			widths[c] = max(widths[c], lipgloss.Width(value))
		}
	}

	header := make([]string, len(columns))
	separator := make([]string, len(columns))
	for c, col := range columns {
		header[c] = headerStyle.Render(pad(col.Name, widths[c], false))
		separator[c] = headerStyle.Render(strings.Repeat("-", widths[c]))
	}
	if err := writeRow(writer, header); err != nil {
		return err
	}
	if err := writeRow(writer, separator); err != nil {
		return err
	}
	for _, row := range cells {
		for c, col := range columns {
			row[c] = pad(row[c], widths[c], col.Right)
		}
		if err := writeRow(writer, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(writer io.Writer, cells []string) error {
	_, err := fmt.Fprintln(writer, strings.TrimRight(strings.Join(cells, "  "), " "))
	return err
}

// pad fills s with spaces up to width visible cells.
func pad(s string, width int, right bool) string {
	gap := width - lipgloss.Width(s)
	if gap <= 0 {
		return s
	}
	if right {
		return strings.Repeat(" ", gap) + s
	}
	return s + strings.Repeat(" ", gap)
}
