package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/engine"
	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/event"
	"github.com/opd-ai/go-starfight/pkg/logging"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

func newDemoLevel(t *testing.T) *engine.Level {
	t.Helper()
	catalog, err := entity.NewCatalog(demoClasses())
	require.NoError(t, err)
	level, err := engine.NewLevel(config.DefaultSettings(), catalog, engine.WithLogger(logging.Discard()))
	require.NoError(t, err)
	t.Cleanup(level.Destroy)
	level.AddTeam("rebels", "Rebels")
	level.AddTeam("empire", "Empire")
	return level
}

func spawn(t *testing.T, level *engine.Level, team string, position physics.Vector3D) *entity.Spacecraft {
	t.Helper()
	craft, err := level.Spawn(t.Context(), engine.SpawnRequest{Class: "falcon", Team: team, Position: position})
	require.NoError(t, err)
	return craft
}

func TestDemoContentLoads(t *testing.T) {
	catalog, err := entity.NewCatalog(demoClasses())
	require.NoError(t, err)
	assert.Equal(t, []string{"bulwark", "falcon"}, catalog.SpacecraftClassNames())

	level, err := engine.NewLevel(config.DefaultSettings(), catalog, engine.WithLogger(logging.Discard()))
	require.NoError(t, err)
	defer level.Destroy()
	require.NoError(t, level.LoadFromDescriptor(t.Context(), demoLevel(7)))

	assert.Len(t, level.Spacecrafts(), 7)
	require.NotNil(t, level.Pilot())
	assert.Equal(t, "Red Leader", level.Pilot().Name())
	assert.Len(t, level.Spacecrafts()[2].Weapons(), 3)
	assert.True(t, level.HostilesRemain())
}

func TestAggressorPilotTargetsNearestHostile(t *testing.T) {
	level := newDemoLevel(t)
	shooter := spawn(t, level, "rebels", physics.Vector3D{})
	spawn(t, level, "rebels", physics.Vector3D{Y: 50})
	near := spawn(t, level, "empire", physics.Vector3D{Y: 300})
	spawn(t, level, "empire", physics.Vector3D{Y: 900})

	var fired int
	shooter.Subscribe(event.WeaponFired, func(e event.Event) {
		fired += e.(*event.FireEvent).Projectiles
	})

	// let the cannons cool down
	level.Tick(300)

	NewAggressorPilot(true).Fly(level.Spacecrafts())
	assert.Same(t, near, shooter.Target())
	assert.Equal(t, 4, fired)
	assert.Greater(t, shooter.Computer().SpeedTarget(), 0.0)
}

func TestAggressorPilotTurnsTowardsTarget(t *testing.T) {
	level := newDemoLevel(t)
	shooter := spawn(t, level, "rebels", physics.Vector3D{})
	spawn(t, level, "empire", physics.Vector3D{X: -300, Z: 300})
	level.Tick(300)

	var fired bool
	shooter.Subscribe(event.WeaponFired, func(event.Event) { fired = true })
	NewAggressorPilot(true).Fly([]*entity.Spacecraft{shooter})

	assert.Greater(t, shooter.Computer().YawTarget(), 0.0, "turns left")
	assert.Greater(t, shooter.Computer().PitchTarget(), 0.0, "pitches up")
	assert.False(t, fired)
}

func TestAggressorPilotIdlesWithoutEnemies(t *testing.T) {
	level := newDemoLevel(t)
	craft := spawn(t, level, "rebels", physics.Vector3D{})
	spawn(t, level, "rebels", physics.Vector3D{X: 100})

	NewAggressorPilot(true).Fly(level.Spacecrafts())
	assert.Nil(t, craft.Target())
	assert.Equal(t, 0.0, craft.Computer().SpeedTarget())
	assert.Equal(t, 0.0, craft.Computer().YawTarget())
}

func TestAssetLoader(t *testing.T) {
	assert.NoError(t, assetLoader("").Load(t.Context(), "models/falcon.glb"))

	dir := t.TempDir()
	loader := assetLoader(dir)
	assert.NoError(t, loader.Load(t.Context(), "fireball"), "effects have no files")
	assert.Error(t, loader.Load(t.Context(), "models/falcon.glb"))
}
