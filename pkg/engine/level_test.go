package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/event"
	"github.com/opd-ai/go-starfight/pkg/logging"
	"github.com/opd-ai/go-starfight/pkg/physics"
	"github.com/opd-ai/go-starfight/pkg/resource"
	"github.com/opd-ai/go-starfight/pkg/scene"
)

func TestNewLevel(t *testing.T) {
	level := newTestLevel(t, nil, WithName("skirmish"))

	_, err := uuid.Parse(level.ID())
	require.NoError(t, err)
	assert.Equal(t, level.ID(), logging.GetCorrelationID(level.Context()))
	assert.Equal(t, "skirmish", level.Name())
	assert.Empty(t, level.Spacecrafts())
	assert.Equal(t, Stats{}, level.Stats())
}

func TestNewLevelRejectsInvalidInput(t *testing.T) {
	settings := config.DefaultSettings()
	settings.MomentDuration = 0
	_, err := NewLevel(settings, testCatalog(t), WithLogger(logging.Discard()))
	assert.Error(t, err)

	_, err = NewLevel(nil, nil, WithLogger(logging.Discard()))
	assert.Error(t, err)
}

func TestLevelTickRunsEnvironmentFirst(t *testing.T) {
	env := &recordingEnvironment{}
	level := newTestLevel(t, nil, WithEnvironment(env))
	env.level = level
	spawnFighter(t, level, "a", physics.Vector3D{})
	spawnFighter(t, level, "b", physics.Vector3D{X: 50})

	level.Tick(16)
	level.Tick(0)
	level.Tick(-5)
	level.Tick(16)

	assert.Equal(t, 2, env.ticks)
	assert.Equal(t, 32.0, env.elapsed)
	assert.Equal(t, []int{2, 2}, env.seen)
	stats := level.Stats()
	assert.Equal(t, uint64(2), stats.Tick)
	assert.Equal(t, 32.0, stats.Elapsed)
	assert.Equal(t, 2, stats.Spacecrafts)
}

func TestAddAndRemoveSpacecraft(t *testing.T) {
	level := newTestLevel(t, nil)
	log := recordEvents(level.Events(), event.SpacecraftAdded, event.SpacecraftRemoved)

	a := spawnFighter(t, level, "a", physics.Vector3D{})
	b := spawnFighter(t, level, "b", physics.Vector3D{Y: 100})
	level.AddSpacecraft(a)
	assert.Len(t, level.Spacecrafts(), 2)
	assert.Same(t, b, level.SpacecraftByID(b.ID()))
	assert.Nil(t, level.SpacecraftByID(0))

	a.SetTarget(b)
	require.Same(t, b, a.Target())

	assert.True(t, level.RemoveSpacecraft(b))
	assert.False(t, level.RemoveSpacecraft(b))
	assert.Nil(t, a.Target())
	assert.Equal(t, []*entity.Spacecraft{a}, level.Spacecrafts())

	added := log.of(event.SpacecraftAdded)
	removed := log.of(event.SpacecraftRemoved)
	require.Len(t, added, 2)
	require.Len(t, removed, 1)
	assert.Equal(t, b.ID(), removed[0].(*event.SpacecraftEvent).SpacecraftID)

	// events of a removed spacecraft are no longer relayed
	hits := recordEvents(level.Events(), event.SpacecraftHit)
	b.Damage(5, physics.Vector3D{}, physics.Vector3D{}, nil)
	assert.Empty(t, hits.of(event.SpacecraftHit))
}

func TestProjectileHitsThroughLevel(t *testing.T) {
	level := newTestLevel(t, nil)
	log := recordEvents(level.Events(), event.SpacecraftHit, event.WeaponFired, event.TargetFired)

	shooter := spawnFighter(t, level, "shooter", physics.Vector3D{})
	target := spawnFighter(t, level, "target", physics.Vector3D{Y: 100})
	target.SetTarget(shooter)

	require.True(t, shooter.Fire(false))
	assert.Equal(t, 1, level.ProjectileCount())
	assert.Equal(t, 1, level.EffectCount())
	require.Len(t, log.of(event.WeaponFired), 1)
	assert.Empty(t, log.of(event.TargetFired))

	for i := 0; i < 4; i++ {
		level.Tick(20)
	}
	assert.Equal(t, 50.0, target.Hitpoints())
	assert.Equal(t, 1, level.ProjectileCount())
	assert.Equal(t, 0, level.EffectCount(), "muzzle flash played out")

	level.Tick(20)
	assert.Equal(t, 25.0, target.Hitpoints())
	assert.Equal(t, 0, level.ProjectileCount())

	hits := log.of(event.SpacecraftHit)
	require.Len(t, hits, 1)
	hit := hits[0].(*event.HitEvent)
	assert.Equal(t, target.ID(), hit.SpacecraftID)
	assert.Equal(t, shooter.ID(), hit.AttackerID)
	assert.InDelta(t, -5, hit.LocalPosition.Y, 1e-9)

	var effects []*Effect
	level.ForEachEffect(func(e *Effect) { effects = append(effects, e) })
	require.Len(t, effects, 1)
	assert.Equal(t, entity.EffectExplosion, effects[0].Kind())
	assert.Equal(t, "blast", effects[0].Class())
	assert.InDelta(t, 95, effects[0].Position().Y, 1e-9)

	stats := level.Stats()
	assert.Equal(t, uint64(1), stats.ProjectilesFired)
	assert.Equal(t, uint64(1), stats.Hits)
}

func TestProjectilesAreRecycled(t *testing.T) {
	level := newTestLevel(t, nil)
	shooter := spawnFighter(t, level, "shooter", physics.Vector3D{})

	require.True(t, shooter.Fire(false))
	var first *entity.Projectile
	level.ForEachProjectile(func(p *entity.Projectile) { first = p })

	for elapsed := 0; elapsed < 1000; elapsed += 100 {
		level.Tick(100)
	}
	require.Equal(t, 0, level.ProjectileCount())

	require.True(t, shooter.Fire(false))
	var second *entity.Projectile
	level.ForEachProjectile(func(p *entity.Projectile) { second = p })
	assert.Same(t, first, second)
	assert.Equal(t, 0.0, second.Age())
}

func TestDestroyedSpacecraftIsCompacted(t *testing.T) {
	level := newTestLevel(t, nil)
	log := recordEvents(level.Events(), event.DestructionStarted, event.SpacecraftDestroyed, event.SpacecraftRemoved)

	watcher := spawnFighter(t, level, "watcher", physics.Vector3D{})
	victim := spawnFighter(t, level, "victim", physics.Vector3D{Y: 100})
	other := spawnFighter(t, level, "other", physics.Vector3D{X: 100})
	watcher.SetTarget(victim)

	victim.Damage(1000, physics.Vector3D{}, physics.Vector3D{}, nil)
	for i := 0; i < 7; i++ {
		level.Tick(20)
	}
	assert.Nil(t, watcher.Target())
	assert.True(t, victim.IsDestructing())
	assert.Len(t, level.Spacecrafts(), 3)
	assert.Len(t, log.of(event.DestructionStarted), 1)

	level.Tick(20)
	assert.Equal(t, []*entity.Spacecraft{watcher, other}, level.Spacecrafts())
	assert.True(t, victim.CanBeReused())
	require.Len(t, log.of(event.SpacecraftDestroyed), 1)
	removed := log.of(event.SpacecraftRemoved)
	require.Len(t, removed, 1)
	assert.Equal(t, victim.ID(), removed[0].(*event.SpacecraftEvent).SpacecraftID)
	assert.Equal(t, uint64(1), level.Stats().Destroyed)
}

func TestAdjacentDestroyedSpacecraftAreCompactedTogether(t *testing.T) {
	level := newTestLevel(t, nil)
	log := recordEvents(level.Events(), event.SpacecraftRemoved)

	first := spawnFighter(t, level, "first", physics.Vector3D{})
	victimA := spawnFighter(t, level, "victim a", physics.Vector3D{Y: 100})
	victimB := spawnFighter(t, level, "victim b", physics.Vector3D{Y: 200})
	second := spawnFighter(t, level, "second", physics.Vector3D{X: 100})
	third := spawnFighter(t, level, "third", physics.Vector3D{X: 200})

	victimA.Damage(1000, physics.Vector3D{}, physics.Vector3D{}, nil)
	victimB.Damage(1000, physics.Vector3D{}, physics.Vector3D{}, nil)
	for i := 0; i < 7; i++ {
		level.Tick(20)
	}
	require.Len(t, level.Spacecrafts(), 5)

	level.Tick(20)
	assert.Equal(t, []*entity.Spacecraft{first, second, third}, level.Spacecrafts())
	assert.True(t, victimA.CanBeReused())
	assert.True(t, victimB.CanBeReused())

	removed := log.of(event.SpacecraftRemoved)
	require.Len(t, removed, 2)
	assert.Equal(t, victimA.ID(), removed[0].(*event.SpacecraftEvent).SpacecraftID)
	assert.Equal(t, victimB.ID(), removed[1].(*event.SpacecraftEvent).SpacecraftID)
	assert.Equal(t, uint64(2), level.Stats().Destroyed)
}

func TestDestructionPolicyKeepsSpacecraft(t *testing.T) {
	keep := func(*entity.Spacecraft) bool { return true }
	level := newTestLevel(t, nil, WithDestructionPolicy(keep))
	log := recordEvents(level.Events(), event.SpacecraftRespawned)

	craft := spawnFighter(t, level, "phoenix", physics.Vector3D{})
	craft.Damage(1000, physics.Vector3D{}, physics.Vector3D{}, nil)
	for i := 0; i < 10; i++ {
		level.Tick(20)
	}
	require.Len(t, level.Spacecrafts(), 1)
	assert.True(t, craft.IsAway())
	assert.False(t, craft.IsHittable())

	require.True(t, craft.Respawn(physics.Vector3D{X: 10}, physics.Identity3()))
	assert.True(t, craft.IsHittable())
	assert.Equal(t, 50.0, craft.Hitpoints())
	assert.Len(t, log.of(event.SpacecraftRespawned), 1)
}

func TestEffectsDriftAndExpire(t *testing.T) {
	view := scene.NewTerminalView(20, 10, 1)
	level := newTestLevel(t, nil, WithScene(view))

	level.SpawnEffect(entity.EffectRequest{Kind: entity.EffectMuzzleFlash, Class: "slug", Duration: 0, Count: 1})
	assert.Equal(t, 0, level.EffectCount())

	level.SpawnEffect(entity.EffectRequest{
		Kind:     entity.EffectExplosion,
		Class:    "blast",
		Velocity: physics.Vector3D{X: 10},
		Duration: 300,
		Count:    1,
	})
	require.Equal(t, 1, level.EffectCount())
	nodes := view.Nodes(scene.NodeExplosion)
	require.Len(t, nodes, 1)
	id := nodes[0].ID

	level.Tick(100)
	node, ok := view.Node(id)
	require.True(t, ok)
	assert.InDelta(t, 1, node.Position.X, 1e-9)

	level.Tick(100)
	level.Tick(100)
	assert.Equal(t, 0, level.EffectCount())
	_, ok = view.Node(id)
	assert.False(t, ok)
}

func TestRecenterMovesEverything(t *testing.T) {
	settings := config.DefaultSettings()
	settings.RecenterDistance = 100
	camera := scene.NewChaseCamera(physics.Vector3D{})
	env := &recordingEnvironment{}
	level := newTestLevel(t, settings, WithCamera(camera), WithEnvironment(env))
	log := recordEvents(level.Events(), event.LevelRecentered)

	craft := spawnFighter(t, level, "far", physics.Vector3D{Y: 150})
	camera.Follow(craft)
	level.SpawnEffect(entity.EffectRequest{Kind: entity.EffectExplosion, Class: "blast", Position: physics.Vector3D{Y: 160}, Duration: 1000, Count: 1})

	level.Tick(10)

	assert.InDelta(t, 0, craft.Position().Y, 1e-9)
	assert.InDelta(t, 0, camera.Position().Y, 1e-9)
	assert.InDelta(t, -150, env.offset.Y, 1e-9)
	level.ForEachEffect(func(e *Effect) {
		assert.InDelta(t, 10, e.Position().Y, 1e-9)
	})
	recentered := log.of(event.LevelRecentered)
	require.Len(t, recentered, 1)
	assert.InDelta(t, -150, recentered[0].(*event.RecenterEvent).Offset.Y, 1e-9)

	level.Tick(10)
	assert.Len(t, log.of(event.LevelRecentered), 1)
}

func TestAttachmentWaitsForResources(t *testing.T) {
	var loaded []string
	tracker := resource.NewTracker(resource.LoaderFunc(func(_ context.Context, name string) error {
		loaded = append(loaded, name)
		return nil
	}), resource.DefaultBreakerSettings(), logging.Discard())
	view := scene.NewTerminalView(20, 10, 10)
	level := newTestLevel(t, nil, WithScene(view), WithResources(tracker))

	craft := spawnFighter(t, level, "late", physics.Vector3D{})
	level.Tick(16)
	assert.False(t, level.IsAttached(craft))
	assert.Equal(t, 0, view.Len())
	assert.Equal(t, []string{"blast", "fighter.model"}, tracker.Pending())

	require.NoError(t, tracker.Load(t.Context()))
	assert.ElementsMatch(t, []string{"blast", "fighter.model"}, loaded)
	level.Tick(16)
	assert.True(t, level.IsAttached(craft))

	// assets already loaded attach right away
	second := spawnFighter(t, level, "second", physics.Vector3D{X: 20})
	assert.True(t, level.IsAttached(second))
	assert.Len(t, view.Nodes(scene.NodeSpacecraft), 2)
}

func TestAttachmentWaitsOnFailedResources(t *testing.T) {
	tracker := resource.NewTracker(resource.LoaderFunc(func(context.Context, string) error {
		return errors.New("missing file")
	}), resource.DefaultBreakerSettings(), logging.Discard())
	level := newTestLevel(t, nil, WithResources(tracker))

	craft := spawnFighter(t, level, "ghost", physics.Vector3D{})
	assert.Error(t, tracker.Load(t.Context()))
	level.Tick(16)
	assert.False(t, level.IsAttached(craft))
	assert.Len(t, level.Spacecrafts(), 1, "simulation does not wait for assets")
}

func TestHitboxNodesFollowSpacecraft(t *testing.T) {
	settings := config.DefaultSettings()
	settings.ShowHitboxes = true
	view := scene.NewTerminalView(20, 10, 10)
	level := newTestLevel(t, settings, WithScene(view))

	craft := spawnFighter(t, level, "boxed", physics.Vector3D{})
	hitboxes := level.HitboxNodes(craft)
	require.Len(t, hitboxes, 1)
	node, ok := view.Node(hitboxes[0])
	require.True(t, ok)
	assert.Equal(t, scene.NodeHitbox, node.Kind)
	assert.Equal(t, craft.ID(), node.Parent)
	assert.Equal(t, craft.Class().Hitboxes[0], node.Box)

	craft.Translate(physics.Vector3D{X: 30})
	level.Tick(16)
	node, _ = view.Node(hitboxes[0])
	assert.InDelta(t, 30, node.Position.X, 1e-9)

	level.RemoveSpacecraft(craft)
	assert.Equal(t, 0, view.Len())
	assert.Empty(t, level.HitboxNodes(craft))
}

func TestTeamsAndPilot(t *testing.T) {
	level := newTestLevel(t, nil)
	red := level.AddTeam("red", "Red Squadron")
	assert.Same(t, red, level.AddTeam("red", "ignored"))
	level.AddTeam("blue", "Blue Squadron")
	assert.Len(t, level.Teams(), 2)
	assert.Equal(t, "Red Squadron", level.Team("red").Name)
	assert.Nil(t, level.Team("green"))

	assert.Nil(t, level.Pilot())
	craft, err := level.Spawn(t.Context(), SpawnRequest{Class: "fighter", Team: "red", Piloted: true})
	require.NoError(t, err)
	assert.Same(t, craft, level.Pilot())
	assert.Equal(t, "red", craft.TeamID())
}

func TestLevelDestroy(t *testing.T) {
	view := scene.NewTerminalView(20, 10, 10)
	level := newTestLevel(t, nil, WithScene(view))
	shooter := spawnFighter(t, level, "a", physics.Vector3D{})
	spawnFighter(t, level, "b", physics.Vector3D{X: 50})
	require.True(t, shooter.Fire(false))

	level.Destroy()
	level.Destroy()

	assert.True(t, level.IsDestroyed())
	assert.Empty(t, level.Spacecrafts())
	assert.Equal(t, 0, level.ProjectileCount())
	assert.Equal(t, 0, level.EffectCount())
	assert.Equal(t, 0, view.Len())
	assert.Equal(t, 0, level.Events().HandlerCount(event.SpacecraftHit))

	level.Tick(16)
	assert.Equal(t, uint64(0), level.Stats().Tick)
	level.AddSpacecraft(shooter)
	assert.Empty(t, level.Spacecrafts())
}

func TestHostilesRemain(t *testing.T) {
	level := newTestLevel(t, nil)
	level.AddTeam("red", "Red")
	level.AddTeam("blue", "Blue")
	assert.False(t, level.HostilesRemain())

	spawn := func(team string) *entity.Spacecraft {
		craft, err := level.Spawn(t.Context(), SpawnRequest{Class: "fighter", Team: team})
		require.NoError(t, err)
		return craft
	}
	spawn("red")
	spawn("red")
	assert.False(t, level.HostilesRemain())

	blue := spawn("blue")
	assert.True(t, level.HostilesRemain())

	blue.Damage(1000, physics.Vector3D{}, physics.Vector3D{}, nil)
	assert.False(t, level.HostilesRemain())
}
