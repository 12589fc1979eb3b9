package metrics

import (
	"time"

	"github.com/vantagegate/vantagegate/internal/observability"
)

// Application-level metrics following Prometheus conventions
var (
	// Tool registry metrics
	ToolInvocationsTotal     = "tool_invocations_total"
	ToolInvocationDurationMs = "tool_invocation_duration_ms"

	// Upstream (Alpha Vantage) metrics
	UpstreamRequestsTotal     = "upstream_requests_total"
	UpstreamRequestDurationMs = "upstream_request_duration_ms"
	SchedulerWaitMs           = "scheduler_wait_ms"
	UsageRequests             = "usage_requests"

	// Health check metrics
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
)

// RecordToolInvocation records one registry invocation. status is "success"
// or the error kind.
func RecordToolInvocation(tool string, status string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(
		ToolInvocationsTotal,
		1,
		map[string]string{
			"tool":   tool,
			"status": status,
		},
	)

	_ = observability.TelemetrySystem.Histogram(
		ToolInvocationDurationMs,
		duration,
		map[string]string{
			"tool": tool,
		},
	)
}

// RecordUpstreamRequest records one provider request outcome.
func RecordUpstreamRequest(function string, outcome string, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}

	_ = observability.TelemetrySystem.Counter(
		UpstreamRequestsTotal,
		1,
		map[string]string{
			"function": function,
			"outcome":  outcome,
		},
	)

	if duration > 0 {
		_ = observability.TelemetrySystem.Histogram(
			UpstreamRequestDurationMs,
			duration,
			map[string]string{
				"function": function,
			},
		)
	}
}

// RecordSchedulerWait records how long a request waited for its dispatch slot.
func RecordSchedulerWait(wait time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(
			SchedulerWaitMs,
			wait,
			nil,
		)
	}
}

// SetUsage records the request count of a quota window ("minute" or "day").
func SetUsage(window string, count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			UsageRequests,
			float64(count),
			map[string]string{
				"window": window,
			},
		)
	}
}

// RecordHealthCheck records one checker run. status is healthy, degraded or unhealthy.
func RecordHealthCheck(checkName string, status string, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			HealthCheckTotal,
			1,
			map[string]string{
				"check":  checkName,
				"status": status,
			},
		)

		_ = observability.TelemetrySystem.Histogram(
			HealthCheckDuration,
			duration,
			map[string]string{
				"check": checkName,
			},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}
