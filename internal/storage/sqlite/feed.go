package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

const feedColumns = `id, title, message, created_at, source, category, tags, channels,
	deal_id, client_id, link_href, link_label, delivery_status, read, important`

const upsertFeedItemSQL = `
INSERT INTO feed_items (` + feedColumns + `, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
	title = excluded.title,
	message = excluded.message,
	created_at = excluded.created_at,
	source = excluded.source,
	category = excluded.category,
	tags = excluded.tags,
	channels = excluded.channels,
	deal_id = excluded.deal_id,
	client_id = excluded.client_id,
	link_href = excluded.link_href,
	link_label = excluded.link_label,
	delivery_status = excluded.delivery_status,
	read = excluded.read,
	important = excluded.important,
	updated_at = excluded.updated_at`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// SaveFeedItem inserts or replaces one item.
func (j *Journal) SaveFeedItem(ctx context.Context, item domain.FeedItem) error {
	return j.SaveFeedItems(ctx, []domain.FeedItem{item})
}

// SaveFeedItems inserts or replaces items in one transaction.
func (j *Journal) SaveFeedItems(ctx context.Context, items []domain.FeedItem) error {
	for _, item := range items {
		if strings.TrimSpace(item.ID) == "" {
			return fmt.Errorf("sqlite journal: save feed item: %w", ErrInvalidNotificationID)
		}
	}
	return withTx(ctx, j.db, func(tx *sql.Tx) error {
		for _, item := range items {
			if err := j.upsert(ctx, tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

func (j *Journal) upsert(ctx context.Context, db execer, item domain.FeedItem) error {
	tags, err := json.Marshal(nonNil(item.Tags))
	if err != nil {
		return fmt.Errorf("sqlite journal: encode tags: %w", err)
	}
	channels, err := json.Marshal(nonNil(item.Channels))
	if err != nil {
		return fmt.Errorf("sqlite journal: encode channels: %w", err)
	}
	var href, label string
	if item.Context.Link != nil {
		href, label = item.Context.Link.Href, item.Context.Link.Label
	}
	status := item.DeliveryStatus
	if status == "" {
		status = domain.DeliveryDelivered
	}
	_, err = db.ExecContext(ctx, upsertFeedItemSQL,
		item.ID, item.Title, item.Message, formatTime(item.CreatedAt), item.Source, item.Category,
		string(tags), string(channels), item.Context.DealID, item.Context.ClientID, href, label,
		string(status), boolInt(item.Read), boolInt(item.Important), j.utcNow(),
	)
	if err != nil {
		return fmt.Errorf("sqlite journal: save feed item %s: %w", item.ID, err)
	}
	return nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFeedItem(row scanner) (domain.FeedItem, error) {
	var item domain.FeedItem
	var createdAt, tags, channels string
	var href, label, status string
	var read, important int
	err := row.Scan(&item.ID, &item.Title, &item.Message, &createdAt, &item.Source, &item.Category,
		&tags, &channels, &item.Context.DealID, &item.Context.ClientID, &href, &label,
		&status, &read, &important)
	if err != nil {
		return domain.FeedItem{}, err
	}
	if item.CreatedAt, err = parseTime(createdAt); err != nil {
		return domain.FeedItem{}, fmt.Errorf("parse created_at of %s: %w", item.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &item.Tags); err != nil {
		return domain.FeedItem{}, fmt.Errorf("decode tags of %s: %w", item.ID, err)
	}
	if err := json.Unmarshal([]byte(channels), &item.Channels); err != nil {
		return domain.FeedItem{}, fmt.Errorf("decode channels of %s: %w", item.ID, err)
	}
	if len(item.Tags) == 0 {
		item.Tags = nil
	}
	if len(item.Channels) == 0 {
		item.Channels = nil
	}
	if href != "" {
		item.Context.Link = &domain.FeedLink{Href: href, Label: label}
	}
	item.DeliveryStatus = domain.DeliveryStatus(status)
	item.Read = read != 0
	item.Important = important != 0
	return item, nil
}

// GetFeedItem returns one item.
func (j *Journal) GetFeedItem(ctx context.Context, id string) (domain.FeedItem, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+feedColumns+` FROM feed_items WHERE id = ?`, id)
	item, err := scanFeedItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.FeedItem{}, fmt.Errorf("sqlite journal: get feed item: %w: id %s", ErrNotificationNotFound, id)
		}
		return domain.FeedItem{}, fmt.Errorf("sqlite journal: get feed item: %w", err)
	}
	return item, nil
}

// ListFeedItems returns the items matching filters, newest first.
func (j *Journal) ListFeedItems(ctx context.Context, filters domain.FeedFilters) ([]domain.FeedItem, error) {
	f := filters.Normalize()
	query := `SELECT ` + feedColumns + ` FROM feed_items WHERE 1 = 1`
	var args []any
	if f.Category != domain.FilterAll {
		query += ` AND category = ?`
		args = append(args, f.Category)
	}
	if f.Source != domain.FilterAll {
		query += ` AND source = ?`
		args = append(args, f.Source)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("sqlite journal: list feed items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.FeedItem, 0)
	for rows.Next() {
		item, err := scanFeedItem(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite journal: list feed items: %w", err)
		}
		// status and search share the predicate with the in-memory store
		if item.Matches(f) {
			items = append(items, item)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite journal: list feed items: %w", err)
	}
	return items, nil
}

// UnreadCount returns the number of unread items.
func (j *Journal) UnreadCount(ctx context.Context) (int, error) {
	var n int
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM feed_items WHERE read = 0`).Scan(&n); err != nil {
		return 0, fmt.Errorf("sqlite journal: count unread: %w", err)
	}
	return n, nil
}

// MarkRead marks items as read and returns how many changed. Ids of items
// that are already read count as found.
func (j *Journal) MarkRead(ctx context.Context, ids []string) (int, error) {
	return j.updateFlag(ctx, "mark read", "read = 1", ids)
}

// SetImportant sets the important flag of items.
func (j *Journal) SetImportant(ctx context.Context, ids []string, important bool) (int, error) {
	return j.updateFlag(ctx, "set important", fmt.Sprintf("important = %d", boolInt(important)), ids)
}

func (j *Journal) updateFlag(ctx context.Context, op, set string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	args := append([]any{j.utcNow()}, stringArgs(ids)...)
	res, err := j.db.ExecContext(ctx,
		`UPDATE feed_items SET `+set+`, updated_at = ? WHERE id IN (`+inClause(len(ids))+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("sqlite journal: %s: %w", op, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite journal: read rows affected: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("sqlite journal: %s: %w", op, ErrNotificationNotFound)
	}
	return int(affected), nil
}

// Remove deletes items. It fails with ErrNotificationNotFound when none of
// the ids exist.
func (j *Journal) Remove(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx,
		`DELETE FROM feed_items WHERE id IN (`+inClause(len(ids))+`)`, stringArgs(ids)...)
	if err != nil {
		return 0, fmt.Errorf("sqlite journal: remove feed items: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("sqlite journal: read rows affected: %w", err)
	}
	if affected == 0 {
		return 0, fmt.Errorf("sqlite journal: remove feed items: %w", ErrNotificationNotFound)
	}
	return int(affected), nil
}
