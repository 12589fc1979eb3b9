package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vantagegate/vantagegate/internal/core"
)

// UsageEntry is one stored counter row.
type UsageEntry struct {
	Key       string          `json:"key"`
	State     core.UsageState `json:"state"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// UsageQuery selects counter rows. Exactly one selector is honoured, in the
// order All, Key, Prefix.
type UsageQuery struct {
	All    bool
	Key    string
	Prefix string
}

func (q UsageQuery) Validate() error {
	if q.All || strings.TrimSpace(q.Key) != "" || strings.TrimSpace(q.Prefix) != "" {
		return nil
	}
	return errors.New("must specify --all, --key, or --prefix")
}

func (q UsageQuery) whereClause() (string, []any, error) {
	if err := q.Validate(); err != nil {
		return "", nil, err
	}
	if q.All {
		return "", nil, nil
	}
	if key := strings.TrimSpace(q.Key); key != "" {
		return "WHERE key = ?", []any{key}, nil
	}
	return "WHERE key LIKE ?", []any{strings.TrimSpace(q.Prefix) + "%"}, nil
}

func (s *Store) ListUsage(ctx context.Context, q UsageQuery) ([]UsageEntry, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx, fmt.Sprintf(`
		SELECT key, minute_count, minute_start, day_count, day_start, last_throttled_at, updated_at
		FROM usage_counters
		%s
		ORDER BY key
	`, where), args...)
	if err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup

	entries := []UsageEntry{}
	for rows.Next() {
		var (
			key         string
			minuteCount int
			minuteStart int64
			dayCount    int
			dayStart    int64
			throttled   sql.NullInt64
			updatedAt   int64
		)
		if err := rows.Scan(&key, &minuteCount, &minuteStart, &dayCount, &dayStart, &throttled, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan usage: %w", err)
		}

		state := core.UsageState{
			MinuteCount: minuteCount,
			MinuteStart: time.Unix(minuteStart, 0).UTC(),
			DayCount:    dayCount,
			DayStart:    time.Unix(dayStart, 0).UTC(),
		}
		if throttled.Valid {
			value := time.Unix(throttled.Int64, 0).UTC()
			state.LastThrottledAt = &value
		}

		entries = append(entries, UsageEntry{
			Key:       key,
			State:     state,
			UpdatedAt: time.Unix(updatedAt, 0).UTC(),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list usage: %w", err)
	}

	return entries, nil
}

func (s *Store) CountUsage(ctx context.Context, q UsageQuery) (int, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	row := s.DB.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT COUNT(*)
		FROM usage_counters
		%s
	`, where), args...)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("count usage: %w", err)
	}
	return count, nil
}

// ResetUsage deletes the selected counters and reports how many were removed.
func (s *Store) ResetUsage(ctx context.Context, q UsageQuery) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	where, args, err := q.whereClause()
	if err != nil {
		return 0, err
	}

	result, err := s.DB.ExecContext(ctx, fmt.Sprintf(`
		DELETE FROM usage_counters
		%s
	`, where), args...)
	if err != nil {
		return 0, fmt.Errorf("reset usage: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("reset usage: %w", err)
	}
	return affected, nil
}
