package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/config"
	"github.com/vantagegate/vantagegate/internal/core/tier"
	"github.com/vantagegate/vantagegate/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display comprehensive environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		version := crucible.GetVersion()

		observability.CLILogger.Info("=== " + config.AppName + " environment ===")
		observability.CLILogger.Info("")

		// Application Info
		observability.CLILogger.Info("Application:")
		observability.CLILogger.Info("  Name:       " + config.AppName)
		observability.CLILogger.Info("  Version:    " + versionInfo.Version)
		observability.CLILogger.Info("  Commit:     " + versionInfo.Commit)
		observability.CLILogger.Info("  Built:      " + versionInfo.BuildDate)
		observability.CLILogger.Info("")

		// SSOT Info
		observability.CLILogger.Info("SSOT:")
		observability.CLILogger.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		observability.CLILogger.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		observability.CLILogger.Info("")

		// Runtime Info
		observability.CLILogger.Info("Runtime:")
		observability.CLILogger.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		observability.CLILogger.Info("  GOOS:       "+runtime.GOOS, zap.String("goos", runtime.GOOS))
		observability.CLILogger.Info("  GOARCH:     "+runtime.GOARCH, zap.String("goarch", runtime.GOARCH))
		observability.CLILogger.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		observability.CLILogger.Info("")

		cfg, err := loadConfig(false)
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return
		}

		// Configuration
		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info("  Server Host:    "+cfg.Server.Host, zap.String("host", cfg.Server.Host))
		observability.CLILogger.Info(fmt.Sprintf("  Server Port:    %d", cfg.Server.Port), zap.Int("port", cfg.Server.Port))
		observability.CLILogger.Info("  Log Level:      "+cfg.Logging.Level, zap.String("log_level", cfg.Logging.Level))
		observability.CLILogger.Info("  Log Profile:    "+cfg.Logging.Profile, zap.String("log_profile", cfg.Logging.Profile))
		observability.CLILogger.Info("  DB Driver:      "+cfg.Store.Driver, zap.String("db_driver", cfg.Store.Driver))
		if strings.TrimSpace(cfg.Store.URL) != "" {
			observability.CLILogger.Info("  DB URL:         "+cfg.Store.URL, zap.String("db_url", cfg.Store.URL))
		} else {
			observability.CLILogger.Info("  DB Path:        "+cfg.Store.Path, zap.String("db_path", cfg.Store.Path))
		}
		observability.CLILogger.Info(fmt.Sprintf("  Metrics Port:   %d", cfg.Metrics.Port), zap.Int("metrics_port", cfg.Metrics.Port))
		observability.CLILogger.Info("  Config File:    "+config.DefaultConfigPath(), zap.String("config_file", config.DefaultConfigPath()))
		observability.CLILogger.Info("")

		// Provider
		active := cfg.Tier()
		policy := tier.PolicyFor(active)
		keyStatus := "(not set)"
		if strings.TrimSpace(cfg.AlphaVantage.APIKey) != "" {
			keyStatus = "(set)"
		}
		observability.CLILogger.Info("Alpha Vantage:")
		observability.CLILogger.Info("  Base URL:       "+cfg.AlphaVantage.BaseURL, zap.String("base_url", cfg.AlphaVantage.BaseURL))
		observability.CLILogger.Info("  API Key:        " + keyStatus)
		observability.CLILogger.Info("  Timeout:        " + cfg.AlphaVantage.Timeout.String())
		observability.CLILogger.Info("  Tier:           "+active.String(), zap.String("tier", active.String()))
		observability.CLILogger.Info(fmt.Sprintf("  Rate Limit:     %d/min (min delay %s)", policy.RequestsPerMinute, policy.MinDelay),
			zap.Int("requests_per_minute", policy.RequestsPerMinute))
		observability.CLILogger.Info("")

		// Surfaces
		observability.CLILogger.Info("Surfaces:")
		observability.CLILogger.Info(fmt.Sprintf("  MCP over HTTP:  %t (%s)", cfg.MCP.HTTPEnabled, cfg.MCP.Path), zap.Bool("mcp_http", cfg.MCP.HTTPEnabled))
		observability.CLILogger.Info(fmt.Sprintf("  Usage Counters: enabled=%t persist=%t", cfg.Usage.Enabled, cfg.Usage.Persist))
		observability.CLILogger.Info("")

		observability.CLILogger.Info("=== End Environment Information ===")
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
