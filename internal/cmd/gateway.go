package cmd

import (
	"context"
	"net/http"

	"github.com/fulmenhq/gofulmen/logging"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/config"
	"github.com/vantagegate/vantagegate/internal/core/engine"
	"github.com/vantagegate/vantagegate/internal/core/registry"
	"github.com/vantagegate/vantagegate/internal/core/store"
	"github.com/vantagegate/vantagegate/internal/core/tier"
)

// gateway bundles the registry with the resources that back it.
type gateway struct {
	cfg      *config.Config
	registry *registry.Registry
	quota    *engine.QuotaTracker
	store    *store.Store
}

// Close releases the usage store, if one was opened.
func (g *gateway) Close() error {
	if g == nil || g.store == nil {
		return nil
	}
	return g.store.Close()
}

// newGateway builds the scheduler and tool registry for the active tier.
// Usage counters live in process memory unless usage.persist is set.
func newGateway(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*gateway, error) {
	active := cfg.Tier()
	policy := tier.PolicyFor(active)

	gw := &gateway{cfg: cfg}

	var quota *engine.QuotaTracker
	if cfg.Usage.Enabled {
		var usageStore engine.UsageStore = engine.NewMemoryUsageStore()
		if cfg.Usage.Persist {
			db, err := openStore(ctx, cfg)
			if err != nil {
				return nil, err
			}
			gw.store = db
			usageStore = db
		}
		quota = &engine.QuotaTracker{Store: usageStore, Policy: policy, Key: engine.DefaultUsageKey}
		gw.quota = quota
	}

	scheduler := &engine.Scheduler{
		Client:  &http.Client{},
		BaseURL: cfg.AlphaVantage.BaseURL,
		APIKey:  cfg.AlphaVantage.APIKey,
		Policy:  policy,
		Timeout: cfg.AlphaVantage.Timeout,
		Quota:   quota,
		Logger:  logger,
	}

	opts := []registry.Option{registry.WithLogger(logger)}
	if quota != nil {
		opts = append(opts, registry.WithQuota(quota))
	}
	gw.registry = registry.New(scheduler, active, opts...)

	if logger != nil {
		logger.Debug("Gateway ready",
			zap.String("tier", active.String()),
			zap.Int("tools", len(gw.registry.List())),
			zap.Bool("usage_persist", gw.store != nil))
	}
	return gw, nil
}
