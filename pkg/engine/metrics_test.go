package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/opd-ai/go-starfight/pkg/physics"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(t.Context(), &rm))

	found := make(map[string]metricdata.Aggregation)
	for _, scope := range rm.ScopeMetrics {
		if scope.Scope.Name != instrumentationName {
			continue
		}
		for _, m := range scope.Metrics {
			found[m.Name] = m.Data
		}
	}
	return found
}

func sumValue(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := data.(metricdata.Sum[int64])
	require.True(t, ok, "expected an int64 sum, got %T", data)
	require.Len(t, sum.DataPoints, 1)
	return sum.DataPoints[0].Value
}

func gaugeValue(t *testing.T, data metricdata.Aggregation) int64 {
	t.Helper()
	gauge, ok := data.(metricdata.Gauge[int64])
	require.True(t, ok, "expected an int64 gauge, got %T", data)
	require.Len(t, gauge.DataPoints, 1)
	return gauge.DataPoints[0].Value
}

func TestLevelMetricsAreRecorded(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(t.Context()) })

	level := newTestLevel(t, nil, WithMeterProvider(provider))
	shooter := spawnFighter(t, level, "shooter", physics.Vector3D{})
	spawnFighter(t, level, "target", physics.Vector3D{Y: 100})

	require.True(t, shooter.Fire(false))
	level.Tick(20)

	data := collect(t, reader)
	require.Contains(t, data, "level.ticks")
	assert.Equal(t, int64(1), sumValue(t, data["level.ticks"]))
	assert.Equal(t, int64(1), sumValue(t, data["level.projectiles.fired"]))
	assert.Equal(t, int64(1), gaugeValue(t, data["level.projectiles.live"]))
	assert.Equal(t, int64(2), gaugeValue(t, data["level.spacecraft.live"]))

	for i := 0; i < 4; i++ {
		level.Tick(20)
	}

	data = collect(t, reader)
	assert.Equal(t, int64(5), sumValue(t, data["level.ticks"]))
	assert.Equal(t, int64(1), sumValue(t, data["level.spacecraft.hits"]))
	assert.Equal(t, int64(0), gaugeValue(t, data["level.projectiles.live"]))
}
