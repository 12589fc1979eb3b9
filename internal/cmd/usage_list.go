package cmd

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/ascii"
	"github.com/spf13/cobra"

	"github.com/vantagegate/vantagegate/internal/core/store"
	"github.com/vantagegate/vantagegate/internal/core/tier"
	errwrap "github.com/vantagegate/vantagegate/internal/errors"
	"github.com/vantagegate/vantagegate/internal/output"
)

var (
	usageListOutput string
	usageListOut    string
	usageListOutDir string
	usageListAll    bool
	usageListPrefix string
)

var usageListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored request counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := output.ParseFormat(usageListOutput)
		if err != nil {
			return err
		}
		if format != output.FormatJSON && format != output.FormatTable {
			return fmt.Errorf("unsupported output format: %s", format)
		}

		db, cfg, err := openUsageStore(cmd)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup

		query := store.UsageQuery{
			All:    usageListAll,
			Prefix: strings.TrimSpace(usageListPrefix),
		}
		if !query.All && query.Prefix == "" {
			query.All = true
		}

		entries, err := db.ListUsage(cmd.Context(), query)
		if err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "failed to list usage counters")
		}

		outPath := strings.TrimSpace(usageListOut)
		outDir := strings.TrimSpace(usageListOutDir)
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
			outPath = filepath.Join(outDir, fmt.Sprintf("usage.list.%s", ext))
		}

		sink, err := openSink(outPath)
		if err != nil {
			return err
		}
		defer func() { _ = sink.close() }()

		if format == output.FormatJSON {
			payload, err := json.MarshalIndent(entries, "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(sink.writer, string(payload))
			return err
		}

		policy := tier.PolicyFor(cfg.Tier())
		lines := []string{fmt.Sprintf("Usage (tier: %s)", policy.Tier), ""}
		if len(entries) == 0 {
			lines = append(lines, "(no stored usage counters)")
			_, _ = fmt.Fprint(sink.writer, ascii.DrawBox(strings.Join(lines, "\n"), 0))
			return nil
		}

		for _, entry := range entries {
			lines = append(lines, formatUsageLine(entry, policy))
		}

		_, _ = fmt.Fprint(sink.writer, ascii.DrawBox(strings.Join(lines, "\n"), 0))
		return nil
	},
}

func formatUsageLine(entry store.UsageEntry, policy tier.Policy) string {
	day := fmt.Sprintf("%d", entry.State.DayCount)
	if policy.RequestsPerDay > 0 {
		day = fmt.Sprintf("%d/%d", entry.State.DayCount, policy.RequestsPerDay)
	}
	throttled := "-"
	if entry.State.LastThrottledAt != nil {
		throttled = entry.State.LastThrottledAt.UTC().Format(time.RFC3339)
	}
	return fmt.Sprintf("%s: minute=%d/%d day=%s last_throttled=%s",
		entry.Key, entry.State.MinuteCount, policy.RequestsPerMinute, day, throttled)
}

func init() {
	usageListCmd.Flags().StringVar(&usageListOutput, "output-format", string(output.FormatTable), "Output format: table|json")
	usageListCmd.Flags().StringVar(&usageListOut, "out", "", "Write output to a file (default stdout)")
	usageListCmd.Flags().StringVar(&usageListOutDir, "out-dir", "", "Write output to a directory")
	usageListCmd.Flags().BoolVar(&usageListAll, "all", false, "List all keys")
	usageListCmd.Flags().StringVar(&usageListPrefix, "prefix", "", "List keys with matching prefix")
}
