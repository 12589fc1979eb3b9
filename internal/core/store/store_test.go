package store

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vantagegate/vantagegate/internal/config"
)

func TestBuildLibsqlDSN(t *testing.T) {
	t.Run("URLUsesRawValue", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123", dsn)
	})

	t.Run("URLWithExistingQuery", func(t *testing.T) {
		cfg := config.StoreConfig{
			URL:       "libsql://example.turso.io?foo=bar",
			AuthToken: "token123",
		}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "libsql://example.turso.io?authToken=token123&foo=bar", dsn)
	})

	t.Run("PathWithFilePrefix", func(t *testing.T) {
		cfg := config.StoreConfig{Path: "file:./vantagegate.db"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, "file:./vantagegate.db", dsn)
	})

	t.Run("PathMissing", func(t *testing.T) {
		cfg := config.StoreConfig{}

		_, err := buildLibsqlDSN(cfg)
		require.Error(t, err)
	})

	t.Run("MemoryPath", func(t *testing.T) {
		cfg := config.StoreConfig{Path: ":memory:"}

		dsn, err := buildLibsqlDSN(cfg)
		require.NoError(t, err)
		require.Equal(t, ":memory:", dsn)
	})
}

func TestUsageQueryWhereClause(t *testing.T) {
	_, _, err := UsageQuery{}.whereClause()
	require.Error(t, err)

	where, args, err := UsageQuery{All: true, Key: "ignored"}.whereClause()
	require.NoError(t, err)
	require.Empty(t, where)
	require.Nil(t, args)

	where, args, err = UsageQuery{Key: " alphavantage:free "}.whereClause()
	require.NoError(t, err)
	require.Equal(t, "WHERE key = ?", where)
	require.Equal(t, []any{"alphavantage:free"}, args)

	where, args, err = UsageQuery{Prefix: "alphavantage:"}.whereClause()
	require.NoError(t, err)
	require.Equal(t, "WHERE key LIKE ?", where)
	require.Equal(t, []any{"alphavantage:%"}, args)
}
