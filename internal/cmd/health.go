package cmd

import (
	"fmt"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/core/registry"
	errwrap "github.com/vantagegate/vantagegate/internal/errors"
	"github.com/vantagegate/vantagegate/internal/observability"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long:  "Run a self-health check to verify the application can start successfully.",
	Run: func(cmd *cobra.Command, args []string) {
		observability.CLILogger.Info("Running health check...")

		// Check 1: Version info available
		if versionInfo.Version == "" {
			observability.CLILogger.Error("❌ FAIL: Version information missing")
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewConfigInvalidError("Version information missing"))
			return
		}
		observability.CLILogger.Debug("Version check passed", zap.String("version", versionInfo.Version))
		observability.CLILogger.Info("✅ Version information available")

		// Check 2: Logger initialized
		if observability.CLILogger == nil {
			// Can't log if logger is nil, so use stderr
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewConfigInvalidError("Logger not initialized"))
			return
		}
		observability.CLILogger.Info("✅ Logger initialized")

		// Check 3: Configuration loaded
		cfg, err := loadConfig(false)
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration failed to load", errwrap.WrapConfigInvalid(cmd.Context(), err, "config load failed"))
			return
		}
		observability.CLILogger.Info("✅ Configuration system ready")

		// Check 4: Tool catalog builds for the active tier
		reg := registry.New(nil, cfg.Tier())
		if len(reg.List()) == 0 {
			ExitWithCode(observability.CLILogger, foundry.ExitFailure, "Tool catalog empty", errwrap.NewInternalError("no tools registered"))
			return
		}
		observability.CLILogger.Info(fmt.Sprintf("✅ %d tools registered (tier: %s)", len(reg.List()), reg.Tier()))

		// Overall status
		observability.CLILogger.Info("")
		observability.CLILogger.Info("✅ All health checks passed")
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
