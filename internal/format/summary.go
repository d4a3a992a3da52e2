package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// FeedSummary holds aggregated feed counts.
type FeedSummary struct {
	Total      int            `json:"total"`
	Unread     int            `json:"unread"`
	Important  int            `json:"important"`
	Failed     int            `json:"failed"`
	ByCategory map[string]int `json:"byCategory"`
	BySource   map[string]int `json:"bySource"`
}

// Summarize counts items by state, category and source.
func Summarize(items []domain.FeedItem) FeedSummary {
	s := FeedSummary{
		Total:      len(items),
		ByCategory: make(map[string]int),
		BySource:   make(map[string]int),
	}
	for _, item := range items {
		if !item.Read {
			s.Unread++
		}
		if item.Important {
			s.Important++
		}
		if item.DeliveryStatus == domain.DeliveryFailed {
			s.Failed++
		}
		if item.Category != "" {
			s.ByCategory[item.Category]++
		}
		if item.Source != "" {
			s.BySource[item.Source]++
		}
	}
	return s
}

// FormatSummary writes a human summary of the feed.
// If nothing is unread, writes "No unread notifications\n" before the totals.
func FormatSummary(w io.Writer, s FeedSummary) error {
	var err error
	if s.Unread == 0 {
		_, err = fmt.Fprintf(w, "No unread notifications\n")
	} else {
		_, err = fmt.Fprintf(w, "Unread notifications: %d\n", s.Unread)
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "  total: %d, important: %d, failed: %d\n", s.Total, s.Important, s.Failed)
	return err
}

// FormatCounts writes counts in key:count format, one per line, sorted by
// key for deterministic output.
func FormatCounts(w io.Writer, counts map[string]int) error {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := fmt.Fprintf(w, "%s:%d\n", key, counts[key]); err != nil {
			return err
		}
	}
	return nil
}

// FormatSummaryJSON writes the summary as JSON.
func FormatSummaryJSON(w io.Writer, s FeedSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
