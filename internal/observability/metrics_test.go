package observability

import (
	"testing"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStopMetricsResetsState(t *testing.T) {
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: telemetrytesting.NewFakeCollector()})
	require.NoError(t, err)
	TelemetrySystem = sys
	metricsPort = 9091

	require.NoError(t, StopMetrics())
	assert.Nil(t, TelemetrySystem)
	assert.Nil(t, PrometheusExporter)
	assert.Zero(t, GetMetricsPort())

	require.NoError(t, StopMetrics())
}

func TestResolvePortMetricsAddr(t *testing.T) {
	port, err := resolvePort("[::]:41234")
	require.NoError(t, err)
	assert.Equal(t, 41234, port)

	_, err = resolvePort(":metrics")
	assert.Error(t, err)

	_, err = resolvePort("no-port")
	assert.Error(t, err)
}
