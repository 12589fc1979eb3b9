package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vantagegate/vantagegate/internal/core"
)

// GetUsage returns the stored counters for key, or nil when none exist.
func (s *Store) GetUsage(ctx context.Context, key string) (*core.UsageState, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	row := s.DB.QueryRowContext(ctx, `SELECT minute_count, minute_start, day_count, day_start, last_throttled_at
		FROM usage_counters WHERE key = ?`, key)

	var (
		state       core.UsageState
		minuteStart int64
		dayStart    int64
		throttled   sql.NullInt64
	)
	if err := row.Scan(&state.MinuteCount, &minuteStart, &state.DayCount, &dayStart, &throttled); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query usage counters: %w", err)
	}

	state.MinuteStart = time.Unix(minuteStart, 0).UTC()
	state.DayStart = time.Unix(dayStart, 0).UTC()
	if throttled.Valid {
		at := time.Unix(throttled.Int64, 0).UTC()
		state.LastThrottledAt = &at
	}

	return &state, nil
}

// UpdateUsage upserts the counters for key. A nil state removes the row.
func (s *Store) UpdateUsage(ctx context.Context, key string, state *core.UsageState) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if state == nil {
		if _, err := s.DB.ExecContext(ctx, `DELETE FROM usage_counters WHERE key = ?`, key); err != nil {
			return fmt.Errorf("delete usage counters: %w", err)
		}
		return nil
	}

	var throttled any
	if state.LastThrottledAt != nil {
		throttled = state.LastThrottledAt.UTC().Unix()
	}

	_, err := s.DB.ExecContext(ctx, `INSERT INTO usage_counters
		(key, minute_count, minute_start, day_count, day_start, last_throttled_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			minute_count = excluded.minute_count,
			minute_start = excluded.minute_start,
			day_count = excluded.day_count,
			day_start = excluded.day_start,
			last_throttled_at = excluded.last_throttled_at,
			updated_at = excluded.updated_at`,
		key,
		state.MinuteCount,
		state.MinuteStart.UTC().Unix(),
		state.DayCount,
		state.DayStart.UTC().Unix(),
		throttled,
		time.Now().UTC().Unix(),
	)
	if err != nil {
		return fmt.Errorf("update usage counters: %w", err)
	}
	return nil
}
