package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/vantagegate/vantagegate/internal/core"
	errwrap "github.com/vantagegate/vantagegate/internal/errors"
	"github.com/vantagegate/vantagegate/internal/observability"
	"github.com/vantagegate/vantagegate/internal/output"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List, describe and call market data tools",
}

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the tools available to every tier",
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		gw, err := newGateway(cmd.Context(), cfg, observability.CLILogger)
		if err != nil {
			return err
		}
		defer gw.Close() // nolint:errcheck // best-effort cleanup

		rendered, err := output.NewFormatter(format).FormatTools(gw.registry.List())
		if err != nil {
			return err
		}
		return writeRendered(cmd, format, "tools.list", rendered)
	},
}

var toolsDescribeCmd = &cobra.Command{
	Use:   "describe <tool>",
	Short: "Print the input schema of a tool",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(false)
		if err != nil {
			return err
		}
		gw, err := newGateway(cmd.Context(), cfg, observability.CLILogger)
		if err != nil {
			return err
		}
		defer gw.Close() // nolint:errcheck // best-effort cleanup

		desc, ok := gw.registry.Describe(args[0])
		if !ok {
			return errwrap.FromCore(cmd.Context(), &core.UnknownToolError{Name: args[0]})
		}

		payload, err := json.MarshalIndent(map[string]any{
			"name":        desc.Name,
			"description": desc.Description,
			"capability":  desc.Capability,
			"inputSchema": desc.Schema.JSONSchema(),
		}, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(payload))
		return err
	},
}

var toolsCallCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke one tool against Alpha Vantage",
	Long: `Invoke one tool and print the normalized result.

Arguments come from --args-file (YAML or JSON object) and repeated --arg key=value
flags; flags win over the file. Values are coerced by the tool's input schema.`,
	Example: `  vantagegate tools call get_stock_quote --arg symbol=IBM
  vantagegate tools call get_sma --arg symbol=MSFT --arg time_period=20 --output-format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := resolveOutputFormat(cmd)
		if err != nil {
			return err
		}

		toolArgs, err := collectToolArgs(cmd)
		if err != nil {
			return errwrap.WrapInvalidInput(cmd.Context(), err, "invalid tool arguments")
		}

		cfg, err := loadConfig(true)
		if err != nil {
			ExitWithCode(observability.CLILogger, foundry.ExitConfigInvalid, "Configuration invalid", errwrap.WrapConfigInvalid(cmd.Context(), err, "config validation failed"))
			return nil
		}
		gw, err := newGateway(cmd.Context(), cfg, observability.CLILogger)
		if err != nil {
			return err
		}
		defer gw.Close() // nolint:errcheck // best-effort cleanup

		name := args[0]
		result, err := gw.registry.Invoke(cmd.Context(), name, toolArgs)
		if err != nil {
			_ = gw.Close()
			ExitWithCode(observability.CLILogger, exitCodeFor(err), "Tool call failed", errwrap.FromCore(cmd.Context(), err))
			return nil
		}

		rendered, err := output.NewFormatter(format).FormatResult(name, result)
		if err != nil {
			return err
		}
		return writeRendered(cmd, format, name, rendered)
	},
}

func init() {
	rootCmd.AddCommand(toolsCmd)
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsDescribeCmd)
	toolsCmd.AddCommand(toolsCallCmd)

	for _, c := range []*cobra.Command{toolsListCmd, toolsCallCmd} {
		c.Flags().String("output-format", string(output.FormatTable), "Output format: table|json|yaml|markdown")
		c.Flags().String("out", "", "Write output to a file (default stdout)")
		c.Flags().String("out-dir", "", "Write output to a directory")
	}

	toolsCallCmd.Flags().StringArray("arg", nil, "Tool argument as key=value (repeatable)")
	toolsCallCmd.Flags().String("args-file", "", "YAML or JSON file holding an argument object")
}

// collectToolArgs merges --args-file with --arg pairs.
func collectToolArgs(cmd *cobra.Command) (map[string]any, error) {
	args := map[string]any{}

	path, err := cmd.Flags().GetString("args-file")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(path) != "" {
		fromFile, err := readArgsFile(path)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			args[k] = v
		}
	}

	pairs, err := cmd.Flags().GetStringArray("arg")
	if err != nil {
		return nil, err
	}
	fromFlags, err := parseArgPairs(pairs)
	if err != nil {
		return nil, err
	}
	for k, v := range fromFlags {
		args[k] = v
	}

	return args, nil
}

// parseArgPairs splits key=value flags. Values stay strings; the tool schema coerces them.
func parseArgPairs(pairs []string) (map[string]any, error) {
	args := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("argument %q must be key=value", pair)
		}
		args[key] = value
	}
	return args, nil
}

// readArgsFile decodes a YAML or JSON object. JSON parses as YAML.
func readArgsFile(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var args map[string]any
	if err := yaml.Unmarshal(data, &args); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return args, nil
}

// writeRendered sends rendered output to the --out/--out-dir sink.
func writeRendered(cmd *cobra.Command, format output.Format, stem string, rendered string) error {
	outPath, outDir, err := resolveOutputTargets(cmd)
	if err != nil {
		return err
	}
	if outDir != "" {
		outDir, err = ensureOutDir(outDir)
		if err != nil {
			return err
		}
		outPath = filepath.Join(outDir, fmt.Sprintf("%s.%s", sanitizeFilename(stem), outputExtension(format)))
	}

	sink, err := openSink(outPath)
	if err != nil {
		return err
	}
	defer func() { _ = sink.close() }()

	if sink.path != "-" {
		observability.CLILogger.Debug("Writing output", zap.String("path", sink.path))
	}
	_, err = fmt.Fprintln(sink.writer, strings.TrimRight(rendered, "\n"))
	return err
}
