package cmd

import (
	"context"
	"errors"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/config"
	errwrap "github.com/vantagegate/vantagegate/internal/errors"
	"github.com/vantagegate/vantagegate/internal/mcpserver"
	"github.com/vantagegate/vantagegate/internal/observability"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the tools over MCP on stdin/stdout",
	Long: `Serve every tool to a single MCP client over stdio.

Stdout carries only protocol messages; all logs go to stderr. Use 'serve' to
expose the same tools over streamable HTTP instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		logLevel := viper.GetString("logging.level")
		if err := observability.InitServerLogger(config.AppName, serverLogOptions("")); err != nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Failed to initialize server logger", err)
		}

		cfg, err := loadConfig(true)
		if err != nil {
			ExitWithCode(observability.ServerLogger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "config validation failed"))
			return nil
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		gw, err := newGateway(ctx, cfg, observability.ServerLogger)
		if err != nil {
			return errwrap.WrapInternal(ctx, err, "gateway initialization failed")
		}
		defer gw.Close() // nolint:errcheck // best-effort cleanup

		srv, err := mcpserver.New(gw.registry, mcpserver.Options{
			Version:   versionInfo.Version,
			Logger:    observability.ServerLogger,
			SDKLogger: observability.NewSDKLogger(config.AppName, logLevel),
		})
		if err != nil {
			return errwrap.WrapInternal(ctx, err, "mcp server initialization failed")
		}

		signals.OnShutdown(func(context.Context) error {
			observability.ServerLogger.Info("Stopping MCP stdio server")
			cancel()
			return nil
		})
		go func() {
			if err := signals.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				observability.ServerLogger.Warn("Signal handler error", zap.Error(err))
			}
		}()

		if err := srv.RunStdio(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return errwrap.WrapInternal(ctx, err, "mcp stdio server failed")
		}
		_ = observability.ServerLogger.Sync()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
