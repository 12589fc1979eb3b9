package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/vantagegate/vantagegate/internal/config"
	"github.com/vantagegate/vantagegate/internal/core/store"
	errwrap "github.com/vantagegate/vantagegate/internal/errors"
)

var usageCmd = &cobra.Command{
	Use:   "usage",
	Short: "Inspect and reset persisted request counters",
	Long: `Inspect and reset the per-minute and per-day request counters kept in the
usage store. Counters are only persisted when usage.persist is enabled.`,
}

func init() {
	usageCmd.AddCommand(usageListCmd)
	usageCmd.AddCommand(usageResetCmd)
	rootCmd.AddCommand(usageCmd)
}

// openUsageStore opens the configured store regardless of usage.persist.
func openUsageStore(cmd *cobra.Command) (*store.Store, *config.Config, error) {
	cfg, err := loadConfig(false)
	if err != nil {
		return nil, nil, errwrap.WrapConfigInvalid(cmd.Context(), err, "failed to load configuration")
	}
	if !cfg.Usage.Persist {
		return nil, nil, errors.New("usage.persist is disabled; counters live in process memory")
	}
	db, err := openStore(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, errwrap.WrapDatabaseError(cmd.Context(), err, "failed to open usage store")
	}
	return db, cfg, nil
}
