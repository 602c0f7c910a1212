package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-starfight/pkg/event"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

func laserClass(t *testing.T) *ProjectileClass {
	t.Helper()
	class, err := testCatalog(t).ProjectileClass("laser")
	require.NoError(t, err)
	return class
}

func octreeOf(crafts ...*Spacecraft) *physics.Octree[*Spacecraft] {
	return physics.NewOctree(crafts, 4, 6)
}

func TestProjectile_LifetimeOnlyDecreases(t *testing.T) {
	world := newTestWorld()
	p := NewProjectile(laserClass(t), physics.Vector3D{}, physics.Identity3(), physics.Vector3D{Y: 1000}, nil)

	prior := p.TimeLeft()
	for i := 0; i < 3; i++ {
		p.Simulate(500, nil, world)
		assert.Equal(t, prior-500, p.TimeLeft())
		assert.False(t, p.CanBeReused())
		prior = p.TimeLeft()
	}

	p.Simulate(500, nil, world)
	assert.LessOrEqual(t, p.TimeLeft(), 0.0)
	assert.True(t, p.CanBeReused())

	dead := p.TimeLeft()
	position := p.Position()
	p.Simulate(500, nil, world)
	assert.True(t, p.CanBeReused())
	assert.Equal(t, dead, p.TimeLeft())
	assert.Equal(t, position, p.Position())
}

func TestProjectile_InitReusesInstance(t *testing.T) {
	class := laserClass(t)
	p := NewProjectile(class, physics.Vector3D{}, physics.Identity3(), physics.Vector3D{Y: 1000}, nil)
	p.Simulate(5000, nil, newTestWorld())
	require.True(t, p.CanBeReused())

	p.Init(class, physics.Vector3D{X: 5}, physics.Identity3(), physics.Vector3D{X: 10}, nil)
	assert.False(t, p.CanBeReused())
	assert.Equal(t, class.Duration, p.TimeLeft())
	assert.Equal(t, 0.0, p.Age())
	assert.Equal(t, physics.Vector3D{X: 5}, p.Position())
	assert.Equal(t, physics.Vector3D{X: 10}, p.Velocity())
}

func TestProjectile_HitsTargetOnce(t *testing.T) {
	world := newTestWorld()
	shooter := newTestCraft(t, world, "empty", physics.Vector3D{Y: -20})
	target := newTestCraft(t, world, "empty", physics.Vector3D{Y: 50})

	var hits []*event.HitEvent
	target.Subscribe(event.SpacecraftHit, func(e event.Event) {
		hits = append(hits, e.(*event.HitEvent))
	})

	p := NewProjectile(laserClass(t), physics.Vector3D{}, physics.Identity3(), physics.Vector3D{Y: 1000}, shooter)
	tree := octreeOf(shooter, target)

	for i := 0; i < 2; i++ {
		p.Simulate(20, tree, world)
		require.False(t, p.CanBeReused(), "tick %d", i)
	}
	p.Simulate(20, tree, world)

	assert.True(t, p.CanBeReused())
	assert.Equal(t, 90.0, target.Hitpoints())
	require.Len(t, hits, 1)
	assert.Equal(t, shooter.ID(), hits[0].AttackerID)
	assert.Equal(t, 10.0, hits[0].Damage)
	assert.InDelta(t, -3, hits[0].LocalPosition.Y, 1e-9)
	assert.InDelta(t, 1, hits[0].LocalDirection.Y, 1e-9)

	explosions := world.effectsOf(EffectExplosion)
	require.Len(t, explosions, 1)
	assert.InDelta(t, 47, explosions[0].Position.Y, 1e-9)

	target.Body().Simulate(1)
	assert.Greater(t, target.Velocity().Y, 0.0)

	p.Simulate(20, tree, world)
	assert.Len(t, hits, 1)
}

func TestProjectile_HitsCloseTargetOnLaunchTick(t *testing.T) {
	world := newTestWorld()
	shooter := newTestCraft(t, world, "empty", physics.Vector3D{Y: -20})
	// hull spans Y 7..13, inside the first 20ms of flight
	target := newTestCraft(t, world, "empty", physics.Vector3D{Y: 10})

	p := NewProjectile(laserClass(t), physics.Vector3D{}, physics.Identity3(), physics.Vector3D{Y: 1000}, shooter)
	p.Simulate(20, octreeOf(shooter, target), world)

	assert.True(t, p.CanBeReused())
	assert.Equal(t, 90.0, target.Hitpoints())
	explosions := world.effectsOf(EffectExplosion)
	require.Len(t, explosions, 1)
	assert.InDelta(t, 7, explosions[0].Position.Y, 1e-9)
}

func TestProjectile_FirstCandidateWins(t *testing.T) {
	tests := []struct {
		name      string
		nearFirst bool
	}{
		{"near returned first", true},
		{"far returned first", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := newTestWorld()
			// both hulls lie on the path swept in one 20ms tick
			near := newTestCraft(t, world, "empty", physics.Vector3D{Y: 6})
			far := newTestCraft(t, world, "empty", physics.Vector3D{Y: 15})

			// a root leaf returns its objects in insertion order
			tree := octreeOf(far, near)
			if tt.nearFirst {
				tree = octreeOf(near, far)
			}
			require.True(t, tree.IsLeaf())

			p := NewProjectile(laserClass(t), physics.Vector3D{}, physics.Identity3(), physics.Vector3D{Y: 1000}, nil)
			p.Simulate(20, tree, world)

			require.True(t, p.CanBeReused())
			require.Len(t, world.effectsOf(EffectExplosion), 1)
			hit, spared := far, near
			if tt.nearFirst {
				hit, spared = near, far
			}
			assert.Equal(t, 90.0, hit.Hitpoints())
			assert.Equal(t, 100.0, spared.Hitpoints())
		})
	}
}

func TestProjectile_SelfFire(t *testing.T) {
	tests := []struct {
		name     string
		selfFire bool
		wantHit  bool
	}{
		{"origin skipped", false, false},
		{"origin hit with self fire", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world := newTestWorld()
			world.settings.SelfFire = tt.selfFire
			shooter := newTestCraft(t, world, "empty", physics.Vector3D{})

			p := NewProjectile(laserClass(t), physics.Vector3D{}, physics.Identity3(), physics.Vector3D{Y: 1000}, shooter)
			p.Simulate(1, octreeOf(shooter), world)

			assert.Equal(t, tt.wantHit, p.CanBeReused())
			assert.Equal(t, tt.wantHit, shooter.Hitpoints() < 100)
		})
	}
}

func TestProjectile_SkipsDestroyedTargets(t *testing.T) {
	world := newTestWorld()
	target := newTestCraft(t, world, "empty", physics.Vector3D{Y: 10})
	target.Damage(1000, physics.Vector3D{}, physics.Vector3D{}, nil)

	p := NewProjectile(laserClass(t), physics.Vector3D{}, physics.Identity3(), physics.Vector3D{Y: 1000}, nil)
	tree := octreeOf(target)
	for i := 0; i < 3; i++ {
		p.Simulate(10, tree, world)
	}

	assert.False(t, p.CanBeReused())
	assert.Empty(t, world.effectsOf(EffectExplosion))
}

func TestProjectile_MissesWhenPathIsClear(t *testing.T) {
	world := newTestWorld()
	target := newTestCraft(t, world, "empty", physics.Vector3D{X: 30, Y: 50})

	p := NewProjectile(laserClass(t), physics.Vector3D{}, physics.Identity3(), physics.Vector3D{Y: 1000}, nil)
	tree := octreeOf(target)
	for i := 0; i < 10; i++ {
		p.Simulate(20, tree, world)
	}

	assert.False(t, p.CanBeReused())
	assert.Equal(t, 100.0, target.Hitpoints())
}
