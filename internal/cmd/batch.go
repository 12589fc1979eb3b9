package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vantagegate/vantagegate/internal/core/registry"
	"github.com/vantagegate/vantagegate/internal/observability"
	"github.com/vantagegate/vantagegate/internal/output"
)

var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Invoke a list of tools from file",
	Long: `Read a YAML or JSON list of tool calls and invoke them concurrently.

Each entry names a tool and its arguments:

  - tool: get_stock_quote
    args: {symbol: IBM}
  - tool: get_rsi
    args: {symbol: MSFT, interval: daily}

Provider requests are still spaced by the tier's rate limit, so concurrency only
overlaps validation, local tools and response handling. A failed call does not
stop the others.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|yaml|markdown")
	batchCmd.Flags().String("out", "", "Write output to a file (default stdout)")
	batchCmd.Flags().String("out-dir", "", "Write output to a directory")
	batchCmd.Flags().Int("concurrency", 3, "Concurrent calls")
	batchCmd.Flags().Bool("fail-fast", false, "Exit non-zero when any call fails")
}

func runBatch(cmd *cobra.Command, args []string) error {
	format, err := resolveOutputFormat(cmd)
	if err != nil {
		return err
	}

	concurrency, err := cmd.Flags().GetInt("concurrency")
	if err != nil {
		return err
	}
	if concurrency < 1 {
		return errors.New("concurrency must be at least 1")
	}

	failFast, err := cmd.Flags().GetBool("fail-fast")
	if err != nil {
		return err
	}

	calls, err := readBatchCalls(args[0])
	if err != nil {
		return err
	}
	if len(calls) == 0 {
		return errors.New("no calls found in batch file")
	}

	cfg, err := loadConfig(true)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	startedAt := time.Now()

	gw, err := newGateway(ctx, cfg, observability.CLILogger)
	if err != nil {
		return err
	}
	defer gw.Close() // nolint:errcheck // best-effort cleanup

	outcomes := gw.registry.InvokeAll(ctx, calls, concurrency)

	rendered, err := output.NewFormatter(format).FormatOutcomes(outcomes)
	if err != nil {
		return err
	}
	if err := writeRendered(cmd, format, "batch", rendered); err != nil {
		return err
	}

	failed := countFailed(outcomes)
	logThroughput(len(outcomes), failed, startedAt)

	if failFast && failed > 0 {
		return fmt.Errorf("%d of %d calls failed", failed, len(outcomes))
	}
	return nil
}

// readBatchCalls decodes a YAML or JSON list of calls.
func readBatchCalls(path string) ([]registry.Call, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var calls []registry.Call
	if err := yaml.Unmarshal(data, &calls); err != nil {
		return nil, fmt.Errorf("parse batch file: %w", err)
	}

	for i := range calls {
		calls[i].Tool = strings.TrimSpace(calls[i].Tool)
		if calls[i].Tool == "" {
			return nil, fmt.Errorf("entry %d: tool is required", i+1)
		}
	}
	return calls, nil
}

func countFailed(outcomes []registry.Outcome) int {
	failed := 0
	for _, o := range outcomes {
		if o.Err != nil {
			failed++
		}
	}
	return failed
}

func logThroughput(total int, failed int, startedAt time.Time) {
	elapsed := time.Since(startedAt)
	rate := 0.0
	if elapsed > 0 {
		rate = float64(total) / elapsed.Seconds()
	}
	observability.CLILogger.Info("Batch complete",
		zap.Int("calls", total),
		zap.Int("failed", failed),
		zap.Duration("elapsed", elapsed.Round(time.Millisecond)),
		zap.String("calls_per_sec", fmt.Sprintf("%.2f", rate)))
}
