package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/engine"
	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/logging"
)

func TestMeterProviderExportsLevelMetrics(t *testing.T) {
	var out bytes.Buffer
	provider, shutdown, err := newMeterProvider(&out, time.Hour)
	require.NoError(t, err)

	catalog, err := entity.NewCatalog(demoClasses())
	require.NoError(t, err)
	level, err := engine.NewLevel(config.DefaultSettings(), catalog,
		engine.WithLogger(logging.Discard()),
		engine.WithMeterProvider(provider),
	)
	require.NoError(t, err)
	require.NoError(t, level.LoadFromDescriptor(t.Context(), demoLevel(3)))

	for i := 0; i < 10; i++ {
		level.Tick(16)
	}
	assert.Zero(t, out.Len(), "nothing exported before the interval")

	require.NoError(t, shutdown(t.Context()))
	level.Destroy()
	assert.Contains(t, out.String(), "level.ticks")
	assert.Contains(t, out.String(), "level.spacecraft.live")
}
