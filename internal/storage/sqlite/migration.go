package sqlite

import (
	"bufio"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

// maxImportLine bounds one JSON line of an import.
const maxImportLine = 1 << 20

// ImportOptions configures a feed import.
type ImportOptions struct {
	DryRun bool
}

// ImportStats summarizes an import run.
type ImportStats struct {
	TotalRows     int
	ImportedRows  int
	SkippedRows   int
	DuplicateRows int
	Warnings      []string
}

// ImportFeed reads feed items as JSON lines and stores the latest valid row
// per item ID.
//
// Safety behavior:
//   - Malformed rows are skipped with warnings instead of aborting the import.
//   - Writes happen inside a single transaction.
//   - Import is idempotent by upserting on the item ID.
func (j *Journal) ImportFeed(ctx context.Context, r io.Reader, opts ImportOptions) (ImportStats, error) {
	latest, order, stats, err := parseLatestItems(r)
	if err != nil {
		return stats, err
	}

	if opts.DryRun {
		stats.ImportedRows = len(latest)
		return stats, nil
	}

	err = withTx(ctx, j.db, func(tx *sql.Tx) error {
		for _, id := range order {
			if err := j.upsert(ctx, tx, latest[id]); err != nil {
				return fmt.Errorf("import: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return stats, err
	}

	stats.ImportedRows = len(latest)
	return stats, nil
}

// ExportFeed writes every stored item as JSON lines, oldest first, in the
// format ImportFeed reads.
func (j *Journal) ExportFeed(ctx context.Context, w io.Writer) (int, error) {
	items, err := j.ListFeedItems(ctx, domain.DefaultFeedFilters())
	if err != nil {
		return 0, err
	}
	enc := json.NewEncoder(w)
	for i := len(items) - 1; i >= 0; i-- {
		if err := enc.Encode(items[i]); err != nil {
			return len(items) - 1 - i, fmt.Errorf("export: encode %s: %w", items[i].ID, err)
		}
	}
	return len(items), nil
}

func parseLatestItems(r io.Reader) (map[string]domain.FeedItem, []string, ImportStats, error) {
	stats := ImportStats{}
	latest := make(map[string]domain.FeedItem)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNumber := 0
	for scanner.Scan() {
		lineNumber++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		stats.TotalRows++
		item, warning := parseImportLine(line)
		if warning != "" {
			stats.SkippedRows++
			stats.Warnings = append(stats.Warnings, fmt.Sprintf("line %d: %s", lineNumber, warning))
			continue
		}

		if _, exists := latest[item.ID]; exists {
			stats.DuplicateRows++
		}
		latest[item.ID] = item
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, stats, fmt.Errorf("import: read input: %w", err)
	}

	order := make([]string, 0, len(latest))
	for id := range latest {
		order = append(order, id)
	}
	sort.Strings(order)
	return latest, order, stats, nil
}

func parseImportLine(line string) (domain.FeedItem, string) {
	var item domain.FeedItem
	if err := json.Unmarshal([]byte(line), &item); err != nil {
		return domain.FeedItem{}, "invalid JSON"
	}
	item.ID = strings.TrimSpace(item.ID)
	if item.ID == "" {
		return domain.FeedItem{}, "missing item id"
	}
	if item.CreatedAt.IsZero() {
		return domain.FeedItem{}, "missing createdAt"
	}
	switch item.DeliveryStatus {
	case "", domain.DeliveryDelivered, domain.DeliveryFailed, domain.DeliveryPending:
	default:
		return domain.FeedItem{}, fmt.Sprintf("invalid delivery status '%s'", item.DeliveryStatus)
	}
	return item, ""
}
