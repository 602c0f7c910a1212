// pkg/engine/metrics.go
package engine

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/opd-ai/go-starfight/pkg/engine"

func meter(provider metric.MeterProvider) metric.Meter {
	return provider.Meter(instrumentationName)
}

// levelMetrics mirrors the level's counters into OpenTelemetry. Gauges are
// read from atomics because exporters observe them from their own goroutine.
type levelMetrics struct {
	attrs metric.MeasurementOption

	ticks     metric.Int64Counter
	fired     metric.Int64Counter
	hits      metric.Int64Counter
	destroyed metric.Int64Counter

	projectiles  metric.Int64ObservableGauge
	spacecrafts  metric.Int64ObservableGauge
	registration metric.Registration

	liveProjectiles atomic.Int64
	liveSpacecrafts atomic.Int64
}

func newLevelMetrics(provider metric.MeterProvider, levelID string) (*levelMetrics, error) {
	m := meter(provider)
	lm := &levelMetrics{
		attrs: metric.WithAttributes(attribute.String("level", levelID)),
	}

	var err error
	lm.ticks, err = m.Int64Counter(
		"level.ticks",
		metric.WithDescription("Total simulation ticks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating ticks counter: %w", err)
	}

	lm.fired, err = m.Int64Counter(
		"level.projectiles.fired",
		metric.WithDescription("Total projectiles fired"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating fired counter: %w", err)
	}

	lm.hits, err = m.Int64Counter(
		"level.spacecraft.hits",
		metric.WithDescription("Total projectile hits on spacecraft"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating hits counter: %w", err)
	}

	lm.destroyed, err = m.Int64Counter(
		"level.spacecraft.destroyed",
		metric.WithDescription("Total spacecraft destroyed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating destroyed counter: %w", err)
	}

	lm.projectiles, err = m.Int64ObservableGauge(
		"level.projectiles.live",
		metric.WithDescription("Projectiles in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating projectile gauge: %w", err)
	}

	lm.spacecrafts, err = m.Int64ObservableGauge(
		"level.spacecraft.live",
		metric.WithDescription("Spacecraft taking part in the battle"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating spacecraft gauge: %w", err)
	}

	lm.registration, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			o.ObserveInt64(lm.projectiles, lm.liveProjectiles.Load(), lm.attrs)
			o.ObserveInt64(lm.spacecrafts, lm.liveSpacecrafts.Load(), lm.attrs)
			return nil
		},
		lm.projectiles,
		lm.spacecrafts,
	)
	if err != nil {
		return nil, fmt.Errorf("registering level callback: %w", err)
	}

	return lm, nil
}

func (m *levelMetrics) close() {
	if m.registration != nil {
		m.registration.Unregister()
	}
}
