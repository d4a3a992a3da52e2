package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/cristianoliveira/crmsync/internal/domain"
)

const upsertChannelSQL = `
INSERT INTO channels (channel, position, label, description, enabled, editable, last_changed_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(channel) DO UPDATE SET
	position = excluded.position,
	label = excluded.label,
	description = excluded.description,
	enabled = excluded.enabled,
	editable = excluded.editable,
	last_changed_at = excluded.last_changed_at,
	updated_at = excluded.updated_at`

// SaveChannels replaces the stored channel settings with states, keeping
// their order.
func (j *Journal) SaveChannels(ctx context.Context, states []domain.ChannelState) error {
	return withTx(ctx, j.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM channels`); err != nil {
			return fmt.Errorf("sqlite journal: clear channels: %w", err)
		}
		for i, state := range states {
			if err := j.upsertChannel(ctx, tx, i, state); err != nil {
				return err
			}
		}
		return nil
	})
}

// SaveChannel updates one channel in place, appending it when unknown.
func (j *Journal) SaveChannel(ctx context.Context, state domain.ChannelState) error {
	return withTx(ctx, j.db, func(tx *sql.Tx) error {
		var position int
		err := tx.QueryRowContext(ctx, `SELECT position FROM channels WHERE channel = ?`, state.Channel).Scan(&position)
		if errors.Is(err, sql.ErrNoRows) {
			err = tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(position) + 1, 0) FROM channels`).Scan(&position)
		}
		if err != nil {
			return fmt.Errorf("sqlite journal: locate channel %s: %w", state.Channel, err)
		}
		return j.upsertChannel(ctx, tx, position, state)
	})
}

func (j *Journal) upsertChannel(ctx context.Context, db execer, position int, state domain.ChannelState) error {
	if strings.TrimSpace(state.Channel) == "" {
		return fmt.Errorf("sqlite journal: save channel: %w", ErrChannelNotFound)
	}
	var changed string
	if state.LastChangedAt != nil {
		changed = formatTime(*state.LastChangedAt)
	}
	_, err := db.ExecContext(ctx, upsertChannelSQL,
		state.Channel, position, state.Label, state.Description,
		boolInt(state.Enabled), boolInt(state.Editable), changed, j.utcNow())
	if err != nil {
		return fmt.Errorf("sqlite journal: save channel %s: %w", state.Channel, err)
	}
	return nil
}

// ListChannels returns the stored channel settings in their saved order.
func (j *Journal) ListChannels(ctx context.Context) ([]domain.ChannelState, error) {
	rows, err := j.db.QueryContext(ctx, `
SELECT channel, label, description, enabled, editable, last_changed_at
FROM channels ORDER BY position, channel`)
	if err != nil {
		return nil, fmt.Errorf("sqlite journal: list channels: %w", err)
	}
	defer rows.Close()

	states := make([]domain.ChannelState, 0)
	for rows.Next() {
		var state domain.ChannelState
		var enabled, editable int
		var changed string
		if err := rows.Scan(&state.Channel, &state.Label, &state.Description, &enabled, &editable, &changed); err != nil {
			return nil, fmt.Errorf("sqlite journal: scan channel: %w", err)
		}
		state.Enabled = enabled != 0
		state.Editable = editable != 0
		if changed != "" {
			t, err := parseTime(changed)
			if err != nil {
				return nil, fmt.Errorf("sqlite journal: parse last_changed_at of %s: %w", state.Channel, err)
			}
			state.LastChangedAt = &t
		}
		states = append(states, state)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite journal: list channels: %w", err)
	}
	return states, nil
}

// GetChannel returns one channel setting.
func (j *Journal) GetChannel(ctx context.Context, channel string) (domain.ChannelState, error) {
	states, err := j.ListChannels(ctx)
	if err != nil {
		return domain.ChannelState{}, err
	}
	for _, state := range states {
		if state.Channel == channel {
			return state, nil
		}
	}
	return domain.ChannelState{}, fmt.Errorf("sqlite journal: get channel: %w: %s", ErrChannelNotFound, channel)
}
