package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vantagegate/vantagegate/internal/core/store"
	errwrap "github.com/vantagegate/vantagegate/internal/errors"
	"github.com/vantagegate/vantagegate/internal/output"
)

var (
	usageResetAll    bool
	usageResetKey    string
	usageResetPrefix string
	usageResetYes    bool
	usageResetDryRun bool
	usageResetOutput string
	usageResetOut    string
	usageResetOutDir string
)

var usageResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset stored request counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(usageResetOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		query := store.UsageQuery{
			All:    usageResetAll,
			Key:    strings.TrimSpace(usageResetKey),
			Prefix: strings.TrimSpace(usageResetPrefix),
		}
		if err := query.Validate(); err != nil {
			return err
		}

		if query.All && !usageResetYes && !usageResetDryRun {
			return errors.New("--all requires --yes (or use --dry-run)")
		}

		db, _, err := openUsageStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		matched, err := db.CountUsage(cmd.Context(), query)
		if err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "failed to count usage counters")
		}

		outPath := strings.TrimSpace(usageResetOut)
		outDir := strings.TrimSpace(usageResetOutDir)
		if outPath != "" && outDir != "" {
			return fmt.Errorf("--out and --out-dir are mutually exclusive")
		}
		ext := outputExtension(format)
		if outDir != "" {
			var err error
			outDir, err = ensureOutDir(outDir)
			if err != nil {
				return err
			}
			outPath = filepath.Join(outDir, fmt.Sprintf("usage.reset.%s", ext))
		}
		sink, err := openSink(outPath)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if usageResetDryRun {
			return writeUsageResetResult(format, sink.writer, matched, 0, true)
		}

		deleted, err := db.ResetUsage(cmd.Context(), query)
		if err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "failed to reset usage counters")
		}

		return writeUsageResetResult(format, sink.writer, matched, deleted, false)
	},
}

func writeUsageResetResult(format output.Format, w io.Writer, matched int, deleted int64, dryRun bool) error {
	result := map[string]any{
		"matched": matched,
		"deleted": deleted,
		"dry_run": dryRun,
	}

	if format == output.FormatJSON {
		payload, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(payload))
		return err
	}

	if dryRun {
		_, err := fmt.Fprintf(w, "Would delete %d usage counter(s)\n", matched)
		return err
	}
	_, err := fmt.Fprintf(w, "Deleted %d/%d usage counter(s)\n", deleted, matched)
	return err
}

func init() {
	usageResetCmd.Flags().BoolVar(&usageResetAll, "all", false, "Reset all keys")
	usageResetCmd.Flags().StringVar(&usageResetKey, "key", "", "Reset a single key (exact match)")
	usageResetCmd.Flags().StringVar(&usageResetPrefix, "prefix", "", "Reset keys with matching prefix")
	usageResetCmd.Flags().BoolVar(&usageResetYes, "yes", false, "Confirm destructive reset")
	usageResetCmd.Flags().BoolVar(&usageResetDryRun, "dry-run", false, "Show what would be deleted")
	usageResetCmd.Flags().StringVar(&usageResetOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	usageResetCmd.Flags().StringVar(&usageResetOut, "out", "", "Write output to a file (default stdout)")
	usageResetCmd.Flags().StringVar(&usageResetOutDir, "out-dir", "", "Write output to a directory")
}
