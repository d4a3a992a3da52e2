// File: cleanup.go
// Purpose: Prunes read feed items older than an age threshold with optional
// dry-run support.
package sqlite

import (
	"context"
	"fmt"
)

// PruneStats summarizes a prune run.
type PruneStats struct {
	Cutoff  string
	Matched int
	Deleted int
	DryRun  bool
}

// Prune removes read, non-important feed items older than daysThreshold days.
// A threshold of zero matches every read item.
func (j *Journal) Prune(ctx context.Context, daysThreshold int, dryRun bool) (PruneStats, error) {
	stats := PruneStats{DryRun: dryRun}
	if daysThreshold < 0 {
		return stats, fmt.Errorf("sqlite journal: days threshold must be >= 0")
	}

	where := `read = 1 AND important = 0`
	var args []any
	if daysThreshold > 0 {
		stats.Cutoff = formatTime(j.now().AddDate(0, 0, -daysThreshold))
		where += ` AND created_at < ?`
		args = append(args, stats.Cutoff)
	}

	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feed_items WHERE `+where, args...).Scan(&stats.Matched); err != nil {
		return stats, fmt.Errorf("sqlite journal: count items for prune: %w", err)
	}
	if stats.Matched == 0 || dryRun {
		return stats, nil
	}

	res, err := j.db.ExecContext(ctx, `DELETE FROM feed_items WHERE `+where, args...)
	if err != nil {
		return stats, fmt.Errorf("sqlite journal: prune feed items: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return stats, fmt.Errorf("sqlite journal: read rows affected: %w", err)
	}
	stats.Deleted = int(deleted)
	return stats, nil
}
