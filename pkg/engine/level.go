// pkg/engine/level.go
package engine

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/EngoEngine/ecs"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/event"
	"github.com/opd-ai/go-starfight/pkg/logging"
	"github.com/opd-ai/go-starfight/pkg/physics"
	"github.com/opd-ai/go-starfight/pkg/pool"
	"github.com/opd-ai/go-starfight/pkg/resource"
	"github.com/opd-ai/go-starfight/pkg/scene"
)

// Environment is the backdrop simulated at the start of every tick
type Environment interface {
	Simulate(dt float64)
}

// translatable is implemented by environments that move with recentering
type translatable interface {
	Translate(offset physics.Vector3D)
}

// updatable is implemented by cameras that move on their own
type updatable interface {
	Update(dt float64)
}

// relayedEvents are the spacecraft events republished on the level bus
var relayedEvents = []event.Type{
	event.SpacecraftHit,
	event.WeaponFired,
	event.TargetChanged,
	event.DestructionStarted,
	event.SpacecraftDestroyed,
	event.SpacecraftRespawned,
}

// Stats is a snapshot of the level's counters
type Stats struct {
	Tick             uint64
	Elapsed          float64
	Spacecrafts      int
	Projectiles      int
	Effects          int
	ProjectilesFired uint64
	Hits             uint64
	Destroyed        uint64
}

// Level is one battle: it owns the spacecraft, the projectile and effect
// pools and runs the simulation tick
type Level struct {
	id       string
	name     string
	ctx      context.Context
	settings *config.Settings
	catalog  *entity.Catalog
	logger   *logging.Logger
	events   *event.Bus

	spacecrafts   []*entity.Spacecraft
	subscriptions map[uint64][]*event.Subscription
	teams         map[string]*entity.Team
	teamOrder     []*entity.Team
	policy        entity.DestructionPolicy

	projectiles *pool.Pool[*entity.Projectile]
	effects     *pool.Pool[*Effect]
	octree      *physics.Octree[*entity.Spacecraft]

	environment Environment
	camera      scene.Camera
	scene       scene.Scene

	// spacecraft wait here until their assets are loaded
	resources      *resource.Tracker
	pendingAttach  []*entity.Spacecraft
	attached       map[uint64]bool
	hitboxNodes    map[uint64][]uint64
	acquiredGen    atomic.Uint64
	readyGen       atomic.Uint64

	meterProvider metric.MeterProvider
	metrics       *levelMetrics
	stats         Stats
	destroyed bool
}

// Option configures a level
type Option func(*Level)

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(l *Level) { l.logger = logger }
}

// WithScene sets the scene that shows the battle
func WithScene(s scene.Scene) Option {
	return func(l *Level) { l.scene = s }
}

// WithResources defers scene attachment until the tracker has loaded the
// assets of each spacecraft
func WithResources(tracker *resource.Tracker) Option {
	return func(l *Level) { l.resources = tracker }
}

// WithEnvironment sets the environment
func WithEnvironment(env Environment) Option {
	return func(l *Level) { l.environment = env }
}

// WithCamera sets the camera used for recentering
func WithCamera(camera scene.Camera) Option {
	return func(l *Level) { l.camera = camera }
}

// WithDestructionPolicy sets the policy given to spacecraft the level creates
func WithDestructionPolicy(policy entity.DestructionPolicy) Option {
	return func(l *Level) { l.policy = policy }
}

// WithName sets the level name
func WithName(name string) Option {
	return func(l *Level) { l.name = name }
}

// WithMeterProvider sets where level metrics are recorded. The global
// provider is used otherwise.
func WithMeterProvider(provider metric.MeterProvider) Option {
	return func(l *Level) { l.meterProvider = provider }
}

// NewLevel creates an empty level. Settings are validated once here and
// never change afterwards.
func NewLevel(settings *config.Settings, catalog *entity.Catalog, opts ...Option) (*Level, error) {
	if settings == nil {
		settings = config.DefaultSettings()
	}
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if catalog == nil {
		return nil, fmt.Errorf("level needs a class catalog")
	}

	id := uuid.NewString()
	l := &Level{
		id:            id,
		ctx:           logging.WithCorrelationID(context.Background(), id),
		settings:      settings,
		catalog:       catalog,
		events:        event.NewEventBus(),
		subscriptions: make(map[uint64][]*event.Subscription),
		teams:         make(map[string]*entity.Team),
		projectiles:   pool.New[*entity.Projectile](settings.MinimumInstancingCount),
		effects:       pool.New[*Effect](settings.MinimumInstancingCount),
		attached:      make(map[uint64]bool),
		hitboxNodes:   make(map[uint64][]uint64),
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logging.NewLogger()
	}
	l.logger = l.logger.Component("level")
	if l.scene == nil {
		l.scene = scene.NewNullScene(l.logger)
	}

	if l.meterProvider == nil {
		l.meterProvider = otel.GetMeterProvider()
	}
	metrics, err := newLevelMetrics(l.meterProvider, id)
	if err != nil {
		return nil, err
	}
	l.metrics = metrics

	l.logger.Info(l.ctx, "level created", "level_id", id, "name", l.name)
	return l, nil
}

// ID returns the unique level id, also used as log correlation id
func (l *Level) ID() string { return l.id }

// Name returns the level name
func (l *Level) Name() string { return l.name }

// Context returns the level's logging context
func (l *Level) Context() context.Context { return l.ctx }

// Catalog returns the class catalog
func (l *Level) Catalog() *entity.Catalog { return l.catalog }

// Events returns the level event bus. Spacecraft events are relayed here.
func (l *Level) Events() *event.Bus { return l.events }

// SetEnvironment replaces the environment
func (l *Level) SetEnvironment(env Environment) { l.environment = env }

// SetCamera replaces the camera used for recentering
func (l *Level) SetCamera(camera scene.Camera) { l.camera = camera }

// Camera returns the camera or nil
func (l *Level) Camera() scene.Camera { return l.camera }

// Settings implements entity.World
func (l *Level) Settings() *config.Settings { return l.settings }

// Spacecrafts implements entity.World. The slice must not be modified.
func (l *Level) Spacecrafts() []*entity.Spacecraft { return l.spacecrafts }

// Tick advances the battle by dt milliseconds
func (l *Level) Tick(dt float64) {
	if l.destroyed || dt <= 0 {
		return
	}

	l.attachPending()
	l.simulateEnvironment(dt)
	l.simulateSpacecrafts(dt)
	l.simulateProjectiles(dt)
	l.reclaimEffects(dt)
	if camera, ok := l.camera.(updatable); ok {
		camera.Update(dt)
	}
	l.recenter()
	l.syncScene()

	l.stats.Tick++
	l.stats.Elapsed += dt
	l.metrics.ticks.Add(l.ctx, 1, l.metrics.attrs)
	l.metrics.liveProjectiles.Store(int64(l.projectiles.LockedCount()))
	l.metrics.liveSpacecrafts.Store(int64(len(l.spacecrafts)))
}

// simulateEnvironment runs the environment first so spacecraft see its
// state for this tick.
func (l *Level) simulateEnvironment(dt float64) {
	if l.environment != nil {
		l.environment.Simulate(dt)
	}
}

// simulateSpacecrafts simulates every spacecraft, then compacts the list
// dropping the ones whose destruction finished. Marking first keeps the
// list stable while spacecraft look at each other.
func (l *Level) simulateSpacecrafts(dt float64) {
	var finished []*entity.Spacecraft
	for _, craft := range l.spacecrafts {
		craft.Simulate(dt)
		if craft.CanBeReused() {
			finished = append(finished, craft)
		}
	}
	if len(finished) == 0 {
		return
	}
	l.spacecrafts = slices.DeleteFunc(l.spacecrafts, (*entity.Spacecraft).CanBeReused)
	for _, craft := range finished {
		l.release(craft)
	}
}

// simulateProjectiles rebuilds the octree from the hittable spacecraft and
// moves every live projectile against it. Dead projectiles go back to the
// pool.
func (l *Level) simulateProjectiles(dt float64) {
	if !l.projectiles.HasLockedObjects() {
		return
	}
	hittable := make([]*entity.Spacecraft, 0, len(l.spacecrafts))
	for _, craft := range l.spacecrafts {
		if craft.IsHittable() {
			hittable = append(hittable, craft)
		}
	}
	l.octree = physics.NewOctree(hittable, l.settings.OctreeMaxDepth, l.settings.OctreeMaxObjects)

	l.projectiles.ForEachLocked(func(index int, p *entity.Projectile) {
		p.Simulate(dt, l.octree, l)
		if p.CanBeReused() {
			l.projectiles.MarkAsFree(index)
		}
	})
}

// reclaimEffects plays effects on and frees the finished ones
func (l *Level) reclaimEffects(dt float64) {
	l.effects.ForEachLocked(func(index int, e *Effect) {
		e.simulate(dt)
		if e.CanBeReused() {
			l.scene.Remove(e.nodeID)
			l.effects.MarkAsFree(index)
		}
	})
}

// recenter moves everything back near the origin once the camera drifted
// beyond the configured distance
func (l *Level) recenter() {
	if l.camera == nil || l.settings.RecenterDistance <= 0 {
		return
	}
	position := l.camera.Position()
	if position.Length() <= l.settings.RecenterDistance {
		return
	}
	l.Translate(position.Neg())
}

// Translate shifts every tracked object, the camera and a translatable
// environment by offset
func (l *Level) Translate(offset physics.Vector3D) {
	for _, craft := range l.spacecrafts {
		craft.Translate(offset)
	}
	l.projectiles.ForEachLocked(func(_ int, p *entity.Projectile) {
		p.Translate(offset)
	})
	l.effects.ForEachLocked(func(_ int, e *Effect) {
		e.translate(offset)
	})
	if l.camera != nil {
		l.camera.Translate(offset)
	}
	if env, ok := l.environment.(translatable); ok {
		env.Translate(offset)
	}
	l.logger.Debug(l.ctx, "level recentered", "offset_x", offset.X, "offset_y", offset.Y, "offset_z", offset.Z)
	l.events.Publish(event.NewRecenterEvent(l, offset))
}

// syncScene pushes the new transforms of attached spacecraft and drifting
// effects to the scene
func (l *Level) syncScene() {
	for _, craft := range l.spacecrafts {
		if !l.attached[craft.ID()] {
			continue
		}
		position, orientation := craft.Position(), craft.Orientation()
		l.scene.Move(craft.ID(), position, orientation)
		for _, nodeID := range l.hitboxNodes[craft.ID()] {
			l.scene.Move(nodeID, position, orientation)
		}
	}
	l.effects.ForEachLocked(func(_ int, e *Effect) {
		l.scene.Move(e.nodeID, e.Position(), physics.Identity3())
	})
}

// SpawnProjectile implements entity.World using the projectile pool
func (l *Level) SpawnProjectile(class *entity.ProjectileClass, position physics.Vector3D, orientation physics.Matrix3, velocity physics.Vector3D, origin *entity.Spacecraft) *entity.Projectile {
	p, _ := l.projectiles.Acquire(func() *entity.Projectile { return &entity.Projectile{} })
	p.Init(class, position, orientation, velocity, origin)
	l.stats.ProjectilesFired++
	l.metrics.fired.Add(l.ctx, 1, l.metrics.attrs)
	return p
}

// SpawnEffect implements entity.World using the effect pool
func (l *Level) SpawnEffect(request entity.EffectRequest) {
	if request.Duration <= 0 {
		return
	}
	e, _ := l.effects.Acquire(func() *Effect { return &Effect{} })
	e.init(request, ecs.NewBasic().ID())
	l.scene.Add(e.node())
}

// AddSpacecraft adds a spacecraft to the battle and relays its events to
// the level bus
func (l *Level) AddSpacecraft(craft *entity.Spacecraft) {
	if craft == nil || l.destroyed || slices.Contains(l.spacecrafts, craft) {
		return
	}
	l.spacecrafts = append(l.spacecrafts, craft)

	subs := make([]*event.Subscription, 0, len(relayedEvents))
	for _, eventType := range relayedEvents {
		subs = append(subs, craft.Subscribe(eventType, l.relay))
	}
	l.subscriptions[craft.ID()] = subs

	l.acquireResources(craft)
	l.pendingAttach = append(l.pendingAttach, craft)
	l.attachPending()

	l.events.Publish(event.NewSpacecraftEvent(event.SpacecraftAdded, l, craft.ID(), craft.TeamID()))
}

// RemoveSpacecraft takes a spacecraft out of the battle. Spacecraft
// targeting it lose their target.
func (l *Level) RemoveSpacecraft(craft *entity.Spacecraft) bool {
	index := slices.Index(l.spacecrafts, craft)
	if index < 0 {
		return false
	}
	l.spacecrafts = slices.Delete(l.spacecrafts, index, index+1)
	l.release(craft)
	return true
}

// SpacecraftByID finds a spacecraft by its entity id
func (l *Level) SpacecraftByID(id uint64) *entity.Spacecraft {
	for _, craft := range l.spacecrafts {
		if craft.ID() == id {
			return craft
		}
	}
	return nil
}

// Pilot returns the first piloted spacecraft, or nil
func (l *Level) Pilot() *entity.Spacecraft {
	for _, craft := range l.spacecrafts {
		if craft.IsPiloted() {
			return craft
		}
	}
	return nil
}

// release detaches a spacecraft that already left the list
func (l *Level) release(craft *entity.Spacecraft) {
	for _, other := range l.spacecrafts {
		if other.Target() == craft {
			other.SetTarget(nil)
		}
	}
	for _, sub := range l.subscriptions[craft.ID()] {
		sub.Cancel()
	}
	delete(l.subscriptions, craft.ID())
	l.pendingAttach = slices.DeleteFunc(l.pendingAttach, func(c *entity.Spacecraft) bool { return c == craft })
	l.detach(craft)
	l.events.Publish(event.NewSpacecraftEvent(event.SpacecraftRemoved, l, craft.ID(), craft.TeamID()))
}

// relay republishes spacecraft events on the level bus and counts them
func (l *Level) relay(e event.Event) {
	switch e.GetType() {
	case event.SpacecraftHit:
		l.stats.Hits++
		l.metrics.hits.Add(l.ctx, 1, l.metrics.attrs)
	case event.SpacecraftDestroyed:
		l.stats.Destroyed++
		l.metrics.destroyed.Add(l.ctx, 1, l.metrics.attrs)
		if se, ok := e.(*event.SpacecraftEvent); ok {
			l.logger.Info(l.ctx, "spacecraft destroyed", "spacecraft_id", se.SpacecraftID, "team", se.Team)
		}
	}
	l.events.Publish(e)
}

// Teams

// AddTeam declares a team; the existing team is returned for a known id
func (l *Level) AddTeam(id, name string) *entity.Team {
	if team, ok := l.teams[id]; ok {
		return team
	}
	team := &entity.Team{ID: id, Name: name}
	l.teams[id] = team
	l.teamOrder = append(l.teamOrder, team)
	return team
}

// Team returns a team by id, or nil
func (l *Level) Team(id string) *entity.Team { return l.teams[id] }

// Teams returns the teams in declaration order
func (l *Level) Teams() []*entity.Team { return l.teamOrder }

// HostilesRemain reports whether at least two living spacecraft are
// hostile to each other, i.e. whether the battle can go on
func (l *Level) HostilesRemain() bool {
	for i, a := range l.spacecrafts {
		if !a.IsHittable() {
			continue
		}
		for _, b := range l.spacecrafts[i+1:] {
			if b.IsHittable() && a.IsHostile(b) {
				return true
			}
		}
	}
	return false
}

// Counts

// ProjectileCount returns the number of projectiles in flight
func (l *Level) ProjectileCount() int { return l.projectiles.LockedCount() }

// EffectCount returns the number of effects playing
func (l *Level) EffectCount() int { return l.effects.LockedCount() }

// ForEachProjectile calls fn for every projectile in flight
func (l *Level) ForEachProjectile(fn func(*entity.Projectile)) {
	l.projectiles.ForEachLocked(func(_ int, p *entity.Projectile) { fn(p) })
}

// ForEachEffect calls fn for every playing effect
func (l *Level) ForEachEffect(fn func(*Effect)) {
	l.effects.ForEachLocked(func(_ int, e *Effect) { fn(e) })
}

// Stats returns a snapshot of the level counters
func (l *Level) Stats() Stats {
	stats := l.stats
	stats.Spacecrafts = len(l.spacecrafts)
	stats.Projectiles = l.projectiles.LockedCount()
	stats.Effects = l.effects.LockedCount()
	return stats
}

// Destroy ends the battle and releases everything the level holds. The
// level ignores further ticks.
func (l *Level) Destroy() {
	if l.destroyed {
		return
	}
	crafts := l.spacecrafts
	l.spacecrafts = nil
	for _, craft := range crafts {
		l.release(craft)
	}
	l.effects.ForEachLocked(func(_ int, e *Effect) {
		l.scene.Remove(e.nodeID)
	})
	l.effects.Clear()
	l.projectiles.Clear()
	l.octree = nil
	l.metrics.close()
	l.destroyed = true

	l.logger.Info(l.ctx, "level destroyed",
		"ticks", l.stats.Tick,
		"projectiles_fired", l.stats.ProjectilesFired,
		"hits", l.stats.Hits,
		"destroyed", l.stats.Destroyed,
	)
	l.events.Clear()
}

// IsDestroyed reports whether Destroy was called
func (l *Level) IsDestroyed() bool { return l.destroyed }
