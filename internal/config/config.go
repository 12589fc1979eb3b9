package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/vantagegate/vantagegate/internal/core/tier"
)

// Config represents the complete application configuration.
// Sources, lowest precedence first: defaults, config file, environment, flags.
type Config struct {
	AlphaVantage AlphaVantageConfig `mapstructure:"alphavantage"`
	Server       ServerConfig       `mapstructure:"server"`
	Store        StoreConfig        `mapstructure:"store"`
	Usage        UsageConfig        `mapstructure:"usage"`
	MCP          MCPConfig          `mapstructure:"mcp"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	Health       HealthConfig       `mapstructure:"health"`
	Debug        DebugConfig        `mapstructure:"debug"`
	Workers      int                `mapstructure:"workers"`
}

// AlphaVantageConfig contains provider credentials and subscription flags.
type AlphaVantageConfig struct {
	APIKey     string        `mapstructure:"api_key"`
	BaseURL    string        `mapstructure:"base_url"`
	Premium    bool          `mapstructure:"premium"`
	Enterprise bool          `mapstructure:"enterprise"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// StoreConfig contains database configuration for libsql/Turso
type StoreConfig struct {
	Driver    string `mapstructure:"driver"`
	Path      string `mapstructure:"path"`
	URL       string `mapstructure:"url"`
	AuthToken string `mapstructure:"auth_token"`
}

// UsageConfig controls request accounting.
type UsageConfig struct {
	// Enabled turns on per-minute and per-day counters.
	Enabled bool `mapstructure:"enabled"`
	// Persist keeps counters in the store instead of process memory.
	Persist bool `mapstructure:"persist"`
}

// MCPConfig controls the streamable HTTP MCP endpoint of the server.
type MCPConfig struct {
	HTTPEnabled bool   `mapstructure:"http_enabled"`
	Path        string `mapstructure:"path"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	// Level controls the minimum log level
	// Valid values: trace, debug, info, warn, error
	Level string `mapstructure:"level"`

	// Profile selects the logging complexity level
	// Valid values: SIMPLE, STRUCTURED
	Profile string `mapstructure:"profile"`
}

// MetricsConfig contains Prometheus metrics configuration
type MetricsConfig struct {
	// Enabled controls whether metrics are exposed
	Enabled bool `mapstructure:"enabled"`

	// Port is the dedicated metrics endpoint port (Prometheus format)
	Port int `mapstructure:"port"`
}

// HealthConfig contains health check configuration
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// DebugConfig contains debug and profiling configuration
type DebugConfig struct {
	Enabled bool `mapstructure:"enabled"`

	// PprofEnabled controls whether pprof endpoints are exposed
	// WARNING: Only enable in development/staging environments
	PprofEnabled bool `mapstructure:"pprof_enabled"`
}

// ErrMissingAPIKey is returned by Validate when no credential is configured.
var ErrMissingAPIKey = errors.New("ALPHAVANTAGE_API_KEY environment variable is required")

// Tier returns the subscription tier derived from the premium and enterprise flags.
func (c *Config) Tier() tier.Tier {
	if c == nil {
		return tier.Free
	}
	return tier.FromFlags(c.AlphaVantage.Premium, c.AlphaVantage.Enterprise)
}

// Validate checks the settings required to reach the provider.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config not loaded")
	}
	if strings.TrimSpace(c.AlphaVantage.APIKey) == "" {
		return ErrMissingAPIKey
	}

	parsed, err := url.Parse(strings.TrimSpace(c.AlphaVantage.BaseURL))
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("invalid alphavantage.base_url %q", c.AlphaVantage.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("alphavantage.base_url must use http or https, got %q", parsed.Scheme)
	}

	if c.AlphaVantage.Timeout <= 0 {
		return fmt.Errorf("alphavantage.timeout must be positive, got %s", c.AlphaVantage.Timeout)
	}

	if c.MCP.HTTPEnabled && !strings.HasPrefix(c.MCP.Path, "/") {
		return fmt.Errorf("mcp.path must start with /, got %q", c.MCP.Path)
	}
	return nil
}
