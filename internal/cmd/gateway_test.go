package cmd

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vantagegate/vantagegate/internal/config"
	"github.com/vantagegate/vantagegate/internal/core/tier"
)

func TestNewGatewayInMemory(t *testing.T) {
	cfg := &config.Config{
		AlphaVantage: config.AlphaVantageConfig{
			APIKey:     "demo",
			BaseURL:    "https://www.alphavantage.co/query",
			Enterprise: true,
			Timeout:    time.Second,
		},
		Usage: config.UsageConfig{Enabled: true},
	}

	gw, err := newGateway(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, gw.Close()) })

	assert.Nil(t, gw.store)
	assert.Equal(t, tier.Enterprise, gw.registry.Tier())
	assert.NotEmpty(t, gw.registry.List())

	info := gw.registry.Subscription(context.Background())
	assert.True(t, info.IsEnterprise)
	require.NotNil(t, info.Usage)
	assert.Equal(t, 0, info.Usage.MinuteCount)
}

func TestNewGatewayWithoutUsage(t *testing.T) {
	cfg := &config.Config{AlphaVantage: config.AlphaVantageConfig{APIKey: "demo"}}

	gw, err := newGateway(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, tier.Free, gw.registry.Tier())
	assert.Nil(t, gw.registry.Subscription(context.Background()).Usage)

	var nilGateway *gateway
	require.NoError(t, nilGateway.Close())
}
