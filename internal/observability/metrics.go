package observability

import (
	"fmt"
	"net"
	"strconv"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/fulmenhq/gofulmen/telemetry/exporters"
)

var (
	// TelemetrySystem receives every gateway metric. Nil disables emission.
	TelemetrySystem *telemetry.System

	// PrometheusExporter serves the scrape endpoint proxied by /metrics.
	PrometheusExporter *exporters.PrometheusExporter

	// metricsPort is the port the exporter actually bound.
	metricsPort int
)

// MetricsOptions configures the Prometheus exporter.
type MetricsOptions struct {
	// Namespace prefixes metric names. Defaults to the service name.
	Namespace string
	// Port for the exporter listener; 0 picks a free port.
	Port int
}

// InitMetrics starts the Prometheus exporter and installs the telemetry
// system. A previously started exporter is stopped first.
func InitMetrics(serviceName string, opts MetricsOptions) error {
	if err := StopMetrics(); err != nil {
		return fmt.Errorf("stop previous exporter: %w", err)
	}

	port := opts.Port
	if port < 0 {
		port = 0
	}
	namespace := opts.Namespace
	if namespace == "" {
		namespace = serviceName
	}

	exporter := exporters.NewPrometheusExporter(namespace, fmt.Sprintf(":%d", port))
	if err := exporter.Start(); err != nil {
		return err
	}

	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: exporter})
	if err != nil {
		_ = exporter.Stop()
		return err
	}

	metricsPort = port
	if actual, err := resolvePort(exporter.GetAddr()); err == nil {
		metricsPort = actual
	}
	PrometheusExporter = exporter
	TelemetrySystem = sys
	return nil
}

// StopMetrics closes the exporter listener and disables emission.
func StopMetrics() error {
	exporter := PrometheusExporter
	PrometheusExporter = nil
	TelemetrySystem = nil
	metricsPort = 0
	if exporter == nil {
		return nil
	}
	return exporter.Stop()
}

// GetMetricsPort returns the exporter's bound port, or 0 when not running.
func GetMetricsPort() int {
	return metricsPort
}

func resolvePort(addr string) (int, error) {
	_, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(portStr)
}
