//go:build cgo

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vantagegate/vantagegate/internal/config"
	"github.com/vantagegate/vantagegate/internal/core"
)

func openMigrated(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), config.StoreConfig{Driver: "libsql", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func TestUsageRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := openMigrated(t)

	state, err := store.GetUsage(ctx, "alphavantage:free")
	require.NoError(t, err)
	require.Nil(t, state)

	minute := time.Date(2025, 3, 4, 10, 15, 0, 0, time.UTC)
	throttled := minute.Add(30 * time.Second)
	want := &core.UsageState{
		MinuteCount:     3,
		MinuteStart:     minute,
		DayCount:        17,
		DayStart:        time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC),
		LastThrottledAt: &throttled,
	}
	require.NoError(t, store.UpdateUsage(ctx, "alphavantage:free", want))

	got, err := store.GetUsage(ctx, "alphavantage:free")
	require.NoError(t, err)
	require.Equal(t, want, got)

	want.MinuteCount = 4
	want.LastThrottledAt = nil
	require.NoError(t, store.UpdateUsage(ctx, "alphavantage:free", want))

	got, err = store.GetUsage(ctx, "alphavantage:free")
	require.NoError(t, err)
	require.Equal(t, 4, got.MinuteCount)
	require.Nil(t, got.LastThrottledAt)

	require.NoError(t, store.UpdateUsage(ctx, "alphavantage:free", nil))
	got, err = store.GetUsage(ctx, "alphavantage:free")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestUsageAdmin(t *testing.T) {
	ctx := context.Background()
	store := openMigrated(t)

	now := time.Now().UTC().Truncate(time.Second)
	for _, key := range []string{"alphavantage:free", "alphavantage:premium", "other"} {
		require.NoError(t, store.UpdateUsage(ctx, key, &core.UsageState{MinuteCount: 1, MinuteStart: now, DayCount: 1, DayStart: now}))
	}

	entries, err := store.ListUsage(ctx, UsageQuery{All: true})
	require.NoError(t, err)
	require.Len(t, entries, 3)
	require.Equal(t, "alphavantage:free", entries[0].Key)

	count, err := store.CountUsage(ctx, UsageQuery{Prefix: "alphavantage:"})
	require.NoError(t, err)
	require.Equal(t, 2, count)

	removed, err := store.ResetUsage(ctx, UsageQuery{Key: "other"})
	require.NoError(t, err)
	require.Equal(t, int64(1), removed)

	_, err = store.ResetUsage(ctx, UsageQuery{})
	require.Error(t, err)

	count, err = store.CountUsage(ctx, UsageQuery{All: true})
	require.NoError(t, err)
	require.Equal(t, 2, count)
}
