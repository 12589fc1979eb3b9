package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/vantagegate/vantagegate/internal/config"
	"github.com/vantagegate/vantagegate/internal/core/store"
	"github.com/vantagegate/vantagegate/internal/core/tier"
	errwrap "github.com/vantagegate/vantagegate/internal/errors"
	"github.com/vantagegate/vantagegate/internal/observability"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run diagnostic checks",
	Long:  "Run diagnostic checks on the system and suggest fixes for common issues.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		observability.CLILogger.Info("=== " + config.AppName + " doctor ===")
		observability.CLILogger.Info("")
		observability.CLILogger.Info("Running diagnostic checks...")
		observability.CLILogger.Info("")

		allChecks := true
		totalChecks := 8

		// Check 1: Go version
		goVersion := runtime.Version()
		if goVersion >= "go1.23" {
			observability.CLILogger.Info(fmt.Sprintf("[1/%d] Checking Go version... ✅ %s", totalChecks, goVersion), zap.String("go_version", goVersion))
		} else {
			observability.CLILogger.Warn(fmt.Sprintf("[1/%d] Checking Go version... ⚠️  %s (recommended: go1.23+)", totalChecks, goVersion), zap.String("go_version", goVersion))
			allChecks = false
		}

		// Check 2: Crucible access
		version := crucible.GetVersion()
		if version.Crucible != "" {
			observability.CLILogger.Info(fmt.Sprintf("[2/%d] Checking Crucible access... ✅ v%s", totalChecks, version.Crucible), zap.String("crucible_version", version.Crucible))
		} else {
			observability.CLILogger.Error(fmt.Sprintf("[2/%d] Checking Crucible access... ❌ Cannot access Crucible", totalChecks))
			ExitWithCode(observability.CLILogger, foundry.ExitExternalServiceUnavailable, "Cannot access Crucible", errwrap.NewExternalServiceError("Crucible service unavailable"))
			allChecks = false
		}

		// Check 3: Gofulmen access
		if version.Gofulmen != "" {
			observability.CLILogger.Info(fmt.Sprintf("[3/%d] Checking Gofulmen access... ✅ v%s", totalChecks, version.Gofulmen), zap.String("gofulmen_version", version.Gofulmen))
		} else {
			observability.CLILogger.Error(fmt.Sprintf("[3/%d] Checking Gofulmen access... ❌ Cannot access Gofulmen", totalChecks))
			allChecks = false
		}

		// Check 4: Config directory
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			observability.CLILogger.Error(fmt.Sprintf("[4/%d] Checking config directory... ❌ Cannot resolve config directory", totalChecks))
			ExitWithCode(observability.CLILogger, foundry.ExitFileNotFound, "Cannot resolve config directory", errwrap.NewInternalError("config directory not resolved"))
			allChecks = false
		} else {
			configDir := filepath.Dir(configPath)
			observability.CLILogger.Info(fmt.Sprintf("[4/%d] Checking config directory... ✅ %s", totalChecks, configDir), zap.String("config_dir", configDir))
		}

		// Check 5: Environment
		observability.CLILogger.Info(fmt.Sprintf("[5/%d] Checking environment... ✅ %s/%s", totalChecks, runtime.GOOS, runtime.GOARCH),
			zap.String("os", runtime.GOOS),
			zap.String("arch", runtime.GOARCH))

		// Check 6: Provider credential and tier
		cfg, cfgErr := loadConfig(false)
		if cfgErr != nil {
			observability.CLILogger.Error(fmt.Sprintf("[6/%d] Checking provider credential... ❌ config not loaded", totalChecks), zap.Error(cfgErr))
			allChecks = false
		} else if err := cfg.Validate(); err != nil {
			observability.CLILogger.Error(fmt.Sprintf("[6/%d] Checking provider credential... ❌ %v", totalChecks, err))
			allChecks = false
		} else {
			observability.CLILogger.Info(fmt.Sprintf("[6/%d] Checking provider credential... ✅ set (tier: %s)", totalChecks, cfg.Tier()),
				zap.String("tier", cfg.Tier().String()))
		}

		// Check 7: Provider reachability
		switch {
		case cfgErr != nil:
			observability.CLILogger.Warn(fmt.Sprintf("[7/%d] Checking provider endpoint... ⚠️  skipped (config not loaded)", totalChecks))
		case doctorOffline:
			observability.CLILogger.Info(fmt.Sprintf("[7/%d] Checking provider endpoint... skipped (--offline)", totalChecks))
		default:
			elapsed, err := probeEndpoint(ctx, cfg.AlphaVantage.BaseURL, doctorProbeTimeout)
			if err != nil {
				observability.CLILogger.Warn(fmt.Sprintf("[7/%d] Checking provider endpoint... ⚠️  %s unreachable", totalChecks, cfg.AlphaVantage.BaseURL), zap.Error(err))
				allChecks = false
			} else {
				observability.CLILogger.Info(fmt.Sprintf("[7/%d] Checking provider endpoint... ✅ %s (%s)", totalChecks, cfg.AlphaVantage.BaseURL, elapsed.Round(time.Millisecond)),
					zap.Duration("latency", elapsed))
			}
		}

		// Check 8: Usage store
		switch {
		case cfgErr != nil:
			observability.CLILogger.Warn(fmt.Sprintf("[8/%d] Checking usage store... ⚠️  skipped (config not loaded)", totalChecks))
		case !cfg.Usage.Enabled:
			observability.CLILogger.Info(fmt.Sprintf("[8/%d] Checking usage store... disabled", totalChecks))
		case !cfg.Usage.Persist:
			observability.CLILogger.Info(fmt.Sprintf("[8/%d] Checking usage store... ✅ in memory", totalChecks))
		default:
			db, storeErr := openStore(ctx, cfg)
			if storeErr != nil {
				observability.CLILogger.Warn(fmt.Sprintf("[8/%d] Checking usage store... ⚠️  cannot open store", totalChecks), zap.Error(storeErr))
				allChecks = false
				break
			}
			defer db.Close() //nolint:errcheck
			count, countErr := db.CountUsage(ctx, store.UsageQuery{All: true})
			if countErr != nil {
				observability.CLILogger.Warn(fmt.Sprintf("[8/%d] Checking usage store... ⚠️  cannot read counters", totalChecks), zap.Error(countErr))
				allChecks = false
			} else {
				observability.CLILogger.Info(fmt.Sprintf("[8/%d] Checking usage store... ✅ %s (%d key(s))", totalChecks, describeStore(cfg), count))
			}
		}

		observability.CLILogger.Info("")
		if allChecks {
			observability.CLILogger.Info(fmt.Sprintf("✅ All checks passed! Your %s installation is healthy.", config.AppName))
		} else {
			observability.CLILogger.Warn("⚠️  Some checks failed. Review the output above for details.")
		}
		observability.CLILogger.Info("")
		observability.CLILogger.Info("=== End Diagnostics ===")
	},
}

var (
	doctorOffline      bool
	doctorProbeTimeout time.Duration
	doctorInitForce    bool
	doctorInitAPIKey   string
	doctorResetConfig  bool
	doctorResetData    bool
	doctorResetAll     bool
)

var doctorInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a default config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}

		if _, err := os.Stat(configPath); err == nil && !doctorInitForce {
			return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
		}

		apiKey := strings.TrimSpace(doctorInitAPIKey)
		if strings.EqualFold(apiKey, "prompt") {
			key, err := promptForValue("Enter Alpha Vantage API key (leave blank to skip): ")
			if err != nil {
				return err
			}
			apiKey = key
		}

		if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}

		mode := os.FileMode(0644)
		if apiKey != "" {
			mode = 0600
		}

		if err := os.WriteFile(configPath, []byte(buildInitConfig(apiKey)), mode); err != nil {
			return fmt.Errorf("write config file: %w", err)
		}

		observability.CLILogger.Info("Config initialized", zap.String("path", configPath))
		return nil
	},
}

var doctorConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show configuration status and paths",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := config.DefaultConfigPath()
		configExists := fileExists(configPath)
		dataDir := config.DefaultDataDir()

		observability.CLILogger.Info("Configuration:")
		observability.CLILogger.Info(fmt.Sprintf("  Config file:    %s (%s)", configPath, existenceStatus(configExists)))
		if dataDir != "" {
			observability.CLILogger.Info(fmt.Sprintf("  Data directory: %s (%s)", dataDir, existenceStatus(fileExists(dataDir))))
		} else {
			observability.CLILogger.Info("  Data directory: (not resolved)")
		}

		cfg, err := loadConfig(false)
		if err != nil {
			observability.CLILogger.Warn("Config load failed", zap.Error(err))
			return nil
		}

		observability.CLILogger.Info(fmt.Sprintf("  Usage store:    %s", describeStore(cfg)))

		observability.CLILogger.Info("")
		observability.CLILogger.Info("Environment:")
		for _, name := range []string{"ALPHAVANTAGE_API_KEY", "ALPHAVANTAGE_PREMIUM", "ALPHAVANTAGE_ENTERPRISE"} {
			observability.CLILogger.Info(fmt.Sprintf("  %s: %s", name, envStatus(name)))
		}

		policy := tier.PolicyFor(cfg.Tier())
		observability.CLILogger.Info("")
		observability.CLILogger.Info("Effective Settings:")
		observability.CLILogger.Info("  tier: " + cfg.Tier().String())
		observability.CLILogger.Info(fmt.Sprintf("  requests_per_minute: %d", policy.RequestsPerMinute))
		observability.CLILogger.Info("  min_delay: " + policy.MinDelay.String())
		observability.CLILogger.Info("  alphavantage.base_url: " + cfg.AlphaVantage.BaseURL)
		observability.CLILogger.Info("  alphavantage.timeout: " + cfg.AlphaVantage.Timeout.String())
		observability.CLILogger.Info(fmt.Sprintf("  usage.enabled: %t", cfg.Usage.Enabled))
		observability.CLILogger.Info(fmt.Sprintf("  usage.persist: %t", cfg.Usage.Persist))
		return nil
	},
}

var doctorResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset user configuration and/or data",
	RunE: func(cmd *cobra.Command, args []string) error {
		if doctorResetAll {
			doctorResetConfig = true
			doctorResetData = true
		}

		if !doctorResetConfig && !doctorResetData {
			return fmt.Errorf("specify --config, --data, or --all")
		}

		if doctorResetConfig {
			configPath := config.DefaultConfigPath()
			if configPath == "" {
				observability.CLILogger.Warn("Config path not resolved; skipping config reset")
			} else if err := os.Remove(configPath); err == nil {
				observability.CLILogger.Info("Config removed", zap.String("path", configPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Config already removed", zap.String("path", configPath))
			} else {
				return fmt.Errorf("remove config file: %w", err)
			}
		}

		if doctorResetData {
			cfg, err := loadConfig(false)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if cfg.Store.URL != "" {
				return fmt.Errorf("remote store configured; database reset is not supported")
			}

			absPath, _ := filepath.Abs(storePath(cfg))
			if err := os.Remove(absPath); err == nil {
				observability.CLILogger.Info("Database removed", zap.String("path", absPath))
			} else if os.IsNotExist(err) {
				observability.CLILogger.Info("Database already removed", zap.String("path", absPath))
			} else {
				return fmt.Errorf("remove database: %w", err)
			}
		}

		return nil
	},
}

var doctorValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the current config file",
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := viper.ConfigFileUsed()
		if configPath == "" {
			configPath = config.DefaultConfigPath()
		}
		if configPath == "" {
			return fmt.Errorf("config path not resolved")
		}
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return fmt.Errorf("config file not found: %s", configPath)
		}

		if _, err := loadConfig(true); err != nil {
			return err
		}

		observability.CLILogger.Info("Config is valid", zap.String("path", configPath))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(doctorCmd)
	doctorCmd.AddCommand(doctorInitCmd)
	doctorCmd.AddCommand(doctorConfigCmd)
	doctorCmd.AddCommand(doctorResetCmd)
	doctorCmd.AddCommand(doctorValidateCmd)

	doctorCmd.Flags().BoolVar(&doctorOffline, "offline", false, "skip the provider reachability check")
	doctorCmd.Flags().DurationVar(&doctorProbeTimeout, "probe-timeout", 5*time.Second, "timeout for the provider reachability check")

	doctorInitCmd.Flags().BoolVar(&doctorInitForce, "force", false, "overwrite existing config file")
	doctorInitCmd.Flags().StringVar(&doctorInitAPIKey, "api-key", "", "set the Alpha Vantage API key or use 'prompt' to enter")

	doctorResetCmd.Flags().BoolVar(&doctorResetConfig, "config", false, "remove user config file")
	doctorResetCmd.Flags().BoolVar(&doctorResetData, "data", false, "remove local usage database")
	doctorResetCmd.Flags().BoolVar(&doctorResetAll, "all", false, "remove config and data")
}

// probeEndpoint issues a GET without credentials. Any HTTP response counts as reachable.
func probeEndpoint(ctx context.Context, endpoint string, timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return 0, err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
	return time.Since(start), nil
}

func storePath(cfg *config.Config) string {
	if cfg.Store.Path != "" {
		return cfg.Store.Path
	}
	return config.DefaultStorePath()
}

// describeStore summarizes where usage counters are kept.
func describeStore(cfg *config.Config) string {
	if !cfg.Usage.Persist {
		return "memory"
	}
	if cfg.Store.URL != "" {
		return cfg.Store.URL + " (remote)"
	}
	absPath, _ := filepath.Abs(storePath(cfg))
	info, err := os.Stat(absPath)
	switch {
	case err == nil:
		return fmt.Sprintf("%s (%s)", absPath, formatFileSize(info.Size()))
	case os.IsNotExist(err):
		return absPath + " (not created yet)"
	default:
		return fmt.Sprintf("%s (error: %v)", absPath, err)
	}
}

// formatFileSize returns a human-readable file size
func formatFileSize(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)
	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.1f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d bytes", bytes)
	}
}

func buildInitConfig(apiKey string) string {
	lines := []string{
		"# " + config.AppName + " config - created by '" + config.AppName + " doctor init'",
		"alphavantage:",
	}

	if strings.TrimSpace(apiKey) != "" {
		lines = append(lines, fmt.Sprintf("  api_key: %q", apiKey))
	} else {
		lines = append(lines, "  # api_key: \"\"  # Set via ALPHAVANTAGE_API_KEY or uncomment")
	}

	lines = append(lines,
		"  premium: false",
		"  enterprise: false",
		"  timeout: 30s",
		"usage:",
		"  enabled: true",
		"  persist: false",
		"mcp:",
		"  http_enabled: true",
		"  path: /mcp",
	)

	return strings.Join(lines, "\n") + "\n"
}

func promptForValue(prompt string) (string, error) {
	if _, err := fmt.Fprint(os.Stderr, prompt); err != nil {
		return "", err
	}
	reader := bufio.NewReader(os.Stdin)
	value, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return "", err
	}
	return strings.TrimSpace(value), nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(path)
	return err == nil
}

func existenceStatus(exists bool) string {
	if exists {
		return "exists"
	}
	return "missing"
}

func envStatus(name string) string {
	if strings.TrimSpace(os.Getenv(name)) != "" {
		return "(set)"
	}
	return "(not set)"
}
