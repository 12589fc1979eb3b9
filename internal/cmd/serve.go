package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/config"
	"github.com/vantagegate/vantagegate/internal/core/engine"
	"github.com/vantagegate/vantagegate/internal/core/registry"
	errwrap "github.com/vantagegate/vantagegate/internal/errors"
	"github.com/vantagegate/vantagegate/internal/mcpserver"
	"github.com/vantagegate/vantagegate/internal/metrics"
	"github.com/vantagegate/vantagegate/internal/observability"
	"github.com/vantagegate/vantagegate/internal/server"
	"github.com/vantagegate/vantagegate/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

// signalHealthChecker implements HealthChecker for signal system
type signalHealthChecker struct{}

func (s signalHealthChecker) CheckHealth(ctx context.Context) error {
	// Check if signal system is responsive
	// This is a basic check - in production you might want more sophisticated checks
	return nil // Signal handlers are registered and ready
}

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

// registryHealthChecker fails when no tool is registered.
type registryHealthChecker struct {
	registry *registry.Registry
}

func (c registryHealthChecker) CheckHealth(ctx context.Context) error {
	if c.registry == nil || len(c.registry.List()) == 0 {
		return errwrap.NewInternalError("no tools registered")
	}
	return nil
}

// quotaHealthChecker reports degraded while either quota window is used up.
type quotaHealthChecker struct {
	quota *engine.QuotaTracker
}

func (c quotaHealthChecker) CheckHealth(ctx context.Context) error {
	usage, err := c.quota.Usage(ctx)
	if err != nil {
		return errwrap.WrapDatabaseError(ctx, err, "usage lookup failed")
	}
	if usage.Exhausted() {
		return fmt.Errorf("%w: %s quota exhausted (minute %d/%d, day %d/%d)", handlers.ErrDegraded,
			usage.Tier, usage.MinuteCount, usage.MinuteLimit, usage.DayCount, usage.DayLimit)
	}
	return nil
}

// configHealthChecker verifies the provider settings are still valid.
type configHealthChecker struct{}

func (configHealthChecker) CheckHealth(ctx context.Context) error {
	cfg := config.GetConfig()
	if cfg == nil {
		return errwrap.NewConfigInvalidError("config not loaded")
	}
	if err := cfg.Validate(); err != nil {
		return errwrap.WrapConfigInvalid(ctx, err, "config invalid")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tools over REST and MCP streamable HTTP",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  • Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  • Ctrl+C twice within 2s: Force quit
  • SIGHUP: Config reload (tier and credential changes need a restart)

Routes:
  /health, /version, /metrics   operational endpoints
  /v1/tools                     REST tool listing and invocation
  /mcp                          MCP streamable HTTP (mcp.path, mcp.http_enabled)

The server will cleanly shut down the HTTP server and flush logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		namespace := config.AppName

		// Initialize server logger with namespace
		logLevel := viper.GetString("logging.level")
		if err := observability.InitServerLogger(config.AppName, serverLogOptions(namespace)); err != nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
		}

		cfg, err := loadConfig(true)
		if err != nil {
			ExitWithCode(observability.ServerLogger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "config validation failed"))
			return nil
		}

		metricsPort := cfg.Metrics.Port
		if metricsPort == 0 {
			metricsPort = 9090
		}

		// Initialize metrics with namespace
		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(config.AppName, observability.MetricsOptions{Namespace: namespace, Port: metricsPort}); err != nil {
				observability.ServerLogger.Error("Failed to initialize metrics",
					zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		gw, err := newGateway(cmd.Context(), cfg, observability.ServerLogger)
		if err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "gateway initialization failed")
		}

		deps := server.Dependencies{Registry: gw.registry}
		if cfg.MCP.HTTPEnabled {
			mcpSrv, err := mcpserver.New(gw.registry, mcpserver.Options{
				Version:   versionInfo.Version,
				Logger:    observability.ServerLogger,
				SDKLogger: observability.NewSDKLogger(config.AppName, logLevel),
			})
			if err != nil {
				return errwrap.WrapInternal(cmd.Context(), err, "mcp server initialization failed")
			}
			deps.MCP = mcpSrv.HTTPHandler()
			deps.MCPPath = cfg.MCP.Path
		}

		observability.ServerLogger.Info("Initializing server",
			zap.String("service", config.AppName),
			zap.String("namespace", namespace),
			zap.String("version", versionInfo.Version),
			zap.String("tier", gw.registry.Tier().String()),
			zap.Int("tools", len(gw.registry.List())),
			zap.Bool("mcp_http", deps.MCP != nil),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.Int("metrics_port", observability.GetMetricsPort()))

		// Initialize health manager
		handlers.InitHealthManager(versionInfo.Version)
		hm := handlers.GetHealthManager()
		hm.RegisterChecker("signal_handlers", signalHealthChecker{})
		hm.RegisterChecker("config", configHealthChecker{})
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}
		hm.RegisterChecker("registry", registryHealthChecker{registry: gw.registry})
		if gw.quota != nil {
			hm.RegisterChecker("quota", quotaHealthChecker{quota: gw.quota})
		}
		if gw.store != nil {
			hm.RegisterChecker("usage_store", gw.store)
		}

		// Create server
		srv := server.New(cfg.Server, deps)
		metrics.SetServerStartTime(time.Now().Unix())

		handlers.SetAppName(config.AppName)

		// Get shutdown timeout from config
		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Register graceful shutdown handlers (LIFO order - last registered, first executed)
		// Handler 1: Close the usage store (executed last)
		signals.OnShutdown(func(ctx context.Context) error {
			if err := gw.Close(); err != nil {
				observability.ServerLogger.Warn("Usage store close failed", zap.Error(err))
			}
			return nil
		})

		// Handler 2: Stop the Prometheus exporter
		signals.OnShutdown(func(ctx context.Context) error {
			if err := observability.StopMetrics(); err != nil {
				observability.ServerLogger.Warn("Metrics exporter stop failed", zap.Error(err))
			}
			return nil
		})

		// Handler 3: Flush logger

		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Flushing logger...")
			if err := observability.ServerLogger.Sync(); err != nil {
				// Sync errors are often benign (stdout/stderr already closed)
				observability.ServerLogger.Warn("Logger sync returned error (may be benign)",
					zap.Error(err))
			}
			return nil
		})

		// Handler 4: Shutdown HTTP server (executed first)
		signals.OnShutdown(func(ctx context.Context) error {
			observability.ServerLogger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			observability.ServerLogger.Info("HTTP server stopped gracefully")
			return nil
		})

		// Register config reload handler (SIGHUP)
		signals.OnReload(func(ctx context.Context) error {
			observability.ServerLogger.Info("Received SIGHUP: attempting config reload")

			// Attempt to reload configuration
			if err := viper.ReadInConfig(); err != nil {
				if _, ok := err.(viper.ConfigFileNotFoundError); ok {
					observability.ServerLogger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				observability.ServerLogger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			// Tier, credential and listeners are fixed for the process lifetime;
			// the reloaded config only feeds the health checks.
			if _, err := config.Load(viper.GetViper()); err != nil {
				return errwrap.WrapConfigInvalid(ctx, err, "config reload failed")
			}

			observability.ServerLogger.Info("Configuration reloaded successfully",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		// Enable double-tap force quit (Ctrl+C within 2 seconds)
		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			observability.ServerLogger.Warn("Failed to enable double-tap force quit",
				zap.Error(err))
		}

		// Start server in background goroutine
		errChan := make(chan error, 1)
		go func() {
			observability.ServerLogger.Info("Starting HTTP server...",
				zap.String("host", cfg.Server.Host),
				zap.Int("port", cfg.Server.Port))
			if err := srv.Start(); err != nil && err != http.ErrServerClosed {
				errChan <- err
			}
		}()

		// Start signal listener in background
		go func() {
			if err := signals.Listen(cmd.Context()); err != nil {
				observability.ServerLogger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		// Wait for error or shutdown completion
		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverHost, "host", "localhost", "server host")
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "server port")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
}
