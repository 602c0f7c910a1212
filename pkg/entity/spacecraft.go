// pkg/entity/spacecraft.go
package entity

import (
	"context"
	"fmt"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/event"
	"github.com/opd-ai/go-starfight/pkg/logging"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

// Team groups spacecraft that are not hostile to each other
type Team struct {
	ID   string
	Name string
}

// DestructionPolicy decides what happens once a destroyed spacecraft's
// explosion has played out: true keeps it for a later Respawn, false lets
// the level discard it.
type DestructionPolicy func(*Spacecraft) bool

// Spacecraft is one ship taking part in a battle
type Spacecraft struct {
	ecs.BasicEntity

	name      string
	class     *SpacecraftClass
	team      *Team
	world     World
	settings  *config.Settings
	body      physics.Body
	transform physics.Transform
	logger    *logging.Logger

	hitpoints  float64
	weapons    []*Weapon
	propulsion *Propulsion
	computer   *ManeuveringComputer
	target     *Spacecraft
	piloted    bool

	destructing     bool
	destructionTime float64
	destructionEnd  float64
	away            bool
	reusable        bool
	suppressControl bool

	policy DestructionPolicy
	events *event.Bus
}

// Option configures a spacecraft at construction
type Option func(*Spacecraft)

// WithName sets the display name
func WithName(name string) Option {
	return func(s *Spacecraft) { s.name = name }
}

// WithTeam sets the team
func WithTeam(team *Team) Option {
	return func(s *Spacecraft) { s.team = team }
}

// WithBody replaces the default rigid body
func WithBody(body physics.Body) Option {
	return func(s *Spacecraft) { s.body = body }
}

// WithDestructionPolicy sets the keep or discard decision
func WithDestructionPolicy(policy DestructionPolicy) Option {
	return func(s *Spacecraft) { s.policy = policy }
}

// WithLogger sets the logger
func WithLogger(logger *logging.Logger) Option {
	return func(s *Spacecraft) { s.logger = logger }
}

// Piloted marks the spacecraft as controlled by the local player
func Piloted() Option {
	return func(s *Spacecraft) { s.piloted = true }
}

// NewSpacecraft creates a spacecraft without equipment. The world may be nil
// for a craft that only flies; firing needs a world.
func NewSpacecraft(world World, class *SpacecraftClass, position physics.Vector3D, orientation physics.Matrix3, opts ...Option) *Spacecraft {
	s := &Spacecraft{
		BasicEntity: ecs.NewBasic(),
		name:        class.Name,
		class:       class,
		world:       world,
		hitpoints:   class.Hitpoints,
		events:      event.NewEventBus(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if world != nil {
		s.settings = world.Settings()
	}
	if s.settings == nil {
		s.settings = config.DefaultSettings()
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.body == nil {
		s.body = physics.NewRigidBody(position, orientation, class.Mass, class.Hitboxes...)
	}
	s.computer = newManeuveringComputer(s)
	s.refreshTransform()
	return s
}

// Equip installs a loadout by name; an empty name selects the class default.
// Equipping nothing is allowed and only logged.
func (s *Spacecraft) Equip(ctx context.Context, name string) error {
	if name == "" {
		name = s.class.DefaultLoadout
	}
	if name == "" {
		s.logger.Warn(ctx, "spacecraft has no loadout", "spacecraft", s.name, "class", s.class.Name)
		return nil
	}
	loadout, ok := s.class.Loadouts[name]
	if !ok {
		return dataError("spacecraft class", s.class.Name, "loadout", fmt.Errorf("%w: loadout %q", ErrUnknownClass, name))
	}
	if loadout.IsEmpty() {
		s.logger.Warn(ctx, "equipping empty loadout", "spacecraft", s.name, "loadout", name)
	}
	s.UnequipAll()
	for i, class := range loadout.Weapons {
		if class != nil {
			if err := s.EquipWeapon(class, i); err != nil {
				return err
			}
		}
	}
	if loadout.Propulsion != nil {
		s.EquipPropulsion(loadout.Propulsion)
	}
	return nil
}

// EquipWeapon mounts a weapon into the given slot
func (s *Spacecraft) EquipWeapon(class *WeaponClass, slot int) error {
	if slot < 0 || slot >= len(s.class.WeaponSlots) {
		return dataError("spacecraft class", s.class.Name, "weaponSlots", fmt.Errorf("%w: no slot %d", ErrInvalidValue, slot))
	}
	weapon := NewWeapon(class, s.class.WeaponSlots[slot])
	weapon.craft = s
	s.weapons = append(s.weapons, weapon)
	return nil
}

// EquipPropulsion installs an engine
func (s *Spacecraft) EquipPropulsion(class *PropulsionClass) {
	s.propulsion = NewPropulsion(class, s.settings.EngineSoundGrades)
	s.propulsion.attach(s.body)
}

// UnequipAll removes weapons and propulsion
func (s *Spacecraft) UnequipAll() {
	for _, w := range s.weapons {
		w.craft = nil
	}
	s.weapons = nil
	if s.propulsion != nil {
		s.propulsion.StopSound()
		s.propulsion = nil
	}
}

// Simulate advances the spacecraft by dt milliseconds
func (s *Spacecraft) Simulate(dt float64) {
	if s.away || s.reusable {
		return
	}
	if s.target != nil && !s.target.IsTargetable() {
		s.SetTarget(nil)
	}

	if s.hitpoints <= 0 {
		if !s.destructing {
			s.startDestruction()
		}
		s.destructionTime += dt
		s.body.Simulate(dt)
		s.refreshTransform()
		if s.destructionTime >= s.destructionEnd {
			s.finishDestruction()
		}
		return
	}

	for _, w := range s.weapons {
		w.Simulate(dt)
	}
	s.aimWeapons(dt)

	if s.propulsion != nil {
		if !s.suppressControl {
			s.computer.ControlThrusters(dt)
		}
		s.propulsion.Simulate(dt, true)
		s.propulsion.ResetThrusterBurn()
	}
	s.suppressControl = false

	s.body.Simulate(dt)
	s.refreshTransform()
}

func (s *Spacecraft) aimWeapons(dt float64) {
	target := s.target
	turn := physics.Radians(s.settings.WeaponTurnThreshold)
	fire := physics.Radians(s.settings.WeaponFireThreshold)
	for _, w := range s.weapons {
		if w.IsFixed() {
			continue
		}
		if target == nil {
			w.ResetRotation(dt)
			continue
		}
		lead, _ := physics.LeadPosition(w.WorldPosition(), s.Velocity(), target.Position(), target.Velocity(), w.ProjectileSpeed())
		w.AimTowards(lead, turn, fire, dt)
	}
}

func (s *Spacecraft) startDestruction() {
	s.destructing = true
	s.destructionTime = 0
	s.destructionEnd = 0
	if s.propulsion != nil {
		s.propulsion.StopSound()
	}
	if explosion := s.class.Explosion; explosion != nil {
		s.destructionEnd = s.settings.DestructionDelayFraction * explosion.Duration
		if s.world != nil {
			s.world.SpawnEffect(EffectRequest{
				Kind:     EffectExplosion,
				Class:    explosion.Name,
				Position: s.Position(),
				Velocity: s.Velocity(),
				Duration: explosion.Duration,
				Count:    1,
				SourceID: s.ID(),
			})
		}
	}
	s.events.Publish(event.NewSpacecraftEvent(event.DestructionStarted, s, s.ID(), s.TeamID()))
}

func (s *Spacecraft) finishDestruction() {
	s.target = nil
	if s.policy != nil && s.policy(s) {
		s.away = true
	} else {
		s.reusable = true
	}
	s.events.Publish(event.NewSpacecraftEvent(event.SpacecraftDestroyed, s, s.ID(), s.TeamID()))
}

type resettableBody interface {
	Reset(position physics.Vector3D, orientation physics.Matrix3, velocity physics.Vector3D)
}

// Respawn brings a kept spacecraft back at full hitpoints. It does nothing
// unless the spacecraft is away.
func (s *Spacecraft) Respawn(position physics.Vector3D, orientation physics.Matrix3) bool {
	if !s.away {
		return false
	}
	if body, ok := s.body.(resettableBody); ok {
		body.Reset(position, orientation, physics.Vector3D{})
	} else {
		s.body.Translate(position.Sub(s.body.Position()))
	}
	s.hitpoints = s.class.Hitpoints
	s.destructing = false
	s.destructionTime = 0
	s.away = false
	s.computer.ResetSpeed()
	s.refreshTransform()
	s.events.Publish(event.NewSpacecraftEvent(event.SpacecraftRespawned, s, s.ID(), s.TeamID()))
	return true
}

// Damage takes hitpoints away. Hitpoints never drop below zero and a
// spacecraft at zero ignores further damage.
func (s *Spacecraft) Damage(amount float64, localPosition, localDirection physics.Vector3D, attacker *Spacecraft) {
	if s.hitpoints <= 0 || s.away || amount <= 0 {
		return
	}
	s.hitpoints -= amount
	if s.hitpoints < 0 {
		s.hitpoints = 0
	}
	var attackerID uint64
	if attacker != nil {
		attackerID = attacker.ID()
	}
	s.events.Publish(event.NewHitEvent(s, s.ID(), attackerID, amount, localPosition, localDirection, s.hitpoints))
}

// Fire fires every ready weapon and reports whether any fired
func (s *Spacecraft) Fire(onlyIfAimedOrFixed bool) bool {
	if !s.IsAlive() || s.destructing || s.away {
		return false
	}
	projectiles := 0
	for _, w := range s.weapons {
		if w.Fire(onlyIfAimedOrFixed) {
			projectiles += len(w.class.Barrels)
		}
	}
	if projectiles == 0 {
		return false
	}
	s.events.Publish(event.NewFireEvent(event.WeaponFired, s, s.ID(), projectiles))
	if s.world != nil {
		for _, other := range s.world.Spacecrafts() {
			if other != s && other.target == s {
				other.events.Publish(event.NewFireEvent(event.TargetFired, s, s.ID(), projectiles))
			}
		}
	}
	return true
}

// Targeting

// SetTarget selects a target. Selecting itself or an unusable spacecraft
// clears the target.
func (s *Spacecraft) SetTarget(target *Spacecraft) {
	if target == s || (target != nil && !target.IsTargetable()) {
		target = nil
	}
	if target == s.target {
		return
	}
	old := s.target
	s.target = target
	s.events.Publish(event.NewTargetEvent(s, s.ID(), idOf(old), idOf(target)))
}

func idOf(s *Spacecraft) uint64 {
	if s == nil {
		return 0
	}
	return s.ID()
}

// Target returns the current target or nil
func (s *Spacecraft) Target() *Spacecraft { return s.target }

// TargetNext cycles to the next targetable spacecraft of the world
func (s *Spacecraft) TargetNext() *Spacecraft {
	return s.targetNextMatching(func(*Spacecraft) bool { return true })
}

// TargetNextHostile cycles to the next hostile spacecraft of the world
func (s *Spacecraft) TargetNextHostile() *Spacecraft {
	return s.targetNextMatching(s.IsHostile)
}

func (s *Spacecraft) targetNextMatching(match func(*Spacecraft) bool) *Spacecraft {
	if s.world == nil {
		return nil
	}
	crafts := s.world.Spacecrafts()
	start := -1
	for i, c := range crafts {
		if c == s.target {
			start = i
			break
		}
	}
	for step := 1; step <= len(crafts); step++ {
		c := crafts[(start+step+len(crafts))%len(crafts)]
		if c != s && c.IsTargetable() && match(c) {
			s.SetTarget(c)
			return c
		}
	}
	s.SetTarget(nil)
	return nil
}

// IsHostile reports whether other is an enemy. Spacecraft without a team
// are hostile to everyone else.
func (s *Spacecraft) IsHostile(other *Spacecraft) bool {
	if other == nil || other == s {
		return false
	}
	if s.team == nil || other.team == nil {
		return true
	}
	return s.team.ID != other.team.ID
}

// State

// Hitpoints returns the remaining hitpoints
func (s *Spacecraft) Hitpoints() float64 { return s.hitpoints }

// HullIntegrity returns the remaining hitpoints as a share of the maximum
func (s *Spacecraft) HullIntegrity() float64 { return s.hitpoints / s.class.Hitpoints }

// IsAlive reports whether the spacecraft has hitpoints left
func (s *Spacecraft) IsAlive() bool { return s.hitpoints > 0 }

// IsDestructing reports whether the destruction sequence is running
func (s *Spacecraft) IsDestructing() bool { return s.destructing && !s.away && !s.reusable }

// IsAway reports whether the spacecraft was destroyed and kept for respawn
func (s *Spacecraft) IsAway() bool { return s.away }

// CanBeReused reports whether the level may discard the spacecraft
func (s *Spacecraft) CanBeReused() bool { return s.reusable }

// IsHittable reports whether projectiles can hit the spacecraft
func (s *Spacecraft) IsHittable() bool { return s.IsAlive() && !s.destructing && !s.away && !s.reusable }

// IsTargetable reports whether the spacecraft can be selected as target
func (s *Spacecraft) IsTargetable() bool { return s.IsHittable() }

// SuppressControlThisTick lets the host drive thruster burns directly for
// the next Simulate
func (s *Spacecraft) SuppressControlThisTick() { s.suppressControl = true }

// Accessors

// Name returns the display name
func (s *Spacecraft) Name() string { return s.name }

// Class returns the hull class
func (s *Spacecraft) Class() *SpacecraftClass { return s.class }

// Team returns the team or nil
func (s *Spacecraft) Team() *Team { return s.team }

// TeamID returns the team id or ""
func (s *Spacecraft) TeamID() string {
	if s.team == nil {
		return ""
	}
	return s.team.ID
}

// SetTeam changes the team
func (s *Spacecraft) SetTeam(team *Team) { s.team = team }

// IsPiloted reports whether the local player flies the spacecraft
func (s *Spacecraft) IsPiloted() bool { return s.piloted }

// SetDestructionPolicy replaces the keep or discard decision
func (s *Spacecraft) SetDestructionPolicy(policy DestructionPolicy) { s.policy = policy }

// Weapons returns the mounted weapons
func (s *Spacecraft) Weapons() []*Weapon { return s.weapons }

// Propulsion returns the engine or nil
func (s *Spacecraft) Propulsion() *Propulsion { return s.propulsion }

// Computer returns the maneuvering computer
func (s *Spacecraft) Computer() *ManeuveringComputer { return s.computer }

// Body returns the physical body
func (s *Spacecraft) Body() physics.Body { return s.body }

// Transform returns the cached transform refreshed after every Simulate
func (s *Spacecraft) Transform() *physics.Transform { return &s.transform }

// Position returns the world position
func (s *Spacecraft) Position() physics.Vector3D { return s.body.Position() }

// Orientation returns the world orientation
func (s *Spacecraft) Orientation() physics.Matrix3 { return s.body.Orientation() }

// Velocity returns the world velocity
func (s *Spacecraft) Velocity() physics.Vector3D { return s.body.Velocity() }

// GetPosition implements physics.Locatable
func (s *Spacecraft) GetPosition() physics.Vector3D { return s.body.Position() }

// GetBoundingRadius implements physics.Locatable
func (s *Spacecraft) GetBoundingRadius() float64 { return s.class.BoundingRadius() }

// Translate shifts the spacecraft without changing its motion
func (s *Spacecraft) Translate(offset physics.Vector3D) {
	s.body.Translate(offset)
	s.refreshTransform()
}

func (s *Spacecraft) refreshTransform() {
	s.transform.SetPosition(s.body.Position())
	s.transform.SetOrientation(s.body.Orientation())
}

// Events returns the spacecraft's own event bus
func (s *Spacecraft) Events() *event.Bus { return s.events }

// Subscribe registers a handler for events of this spacecraft
func (s *Spacecraft) Subscribe(eventType event.Type, handler event.Handler) *event.Subscription {
	return s.events.Subscribe(eventType, handler)
}

// Pilot controls, forwarded to the maneuvering computer

func (s *Spacecraft) YawLeft(intensity ...float64)     { s.computer.YawLeft(intensity...) }
func (s *Spacecraft) YawRight(intensity ...float64)    { s.computer.YawRight(intensity...) }
func (s *Spacecraft) PitchUp(intensity ...float64)     { s.computer.PitchUp(intensity...) }
func (s *Spacecraft) PitchDown(intensity ...float64)   { s.computer.PitchDown(intensity...) }
func (s *Spacecraft) RollLeft(intensity ...float64)    { s.computer.RollLeft(intensity...) }
func (s *Spacecraft) RollRight(intensity ...float64)   { s.computer.RollRight(intensity...) }
func (s *Spacecraft) Forward(intensity ...float64)     { s.computer.Forward(intensity...) }
func (s *Spacecraft) Reverse(intensity ...float64)     { s.computer.Reverse(intensity...) }
func (s *Spacecraft) StrafeLeft(intensity ...float64)  { s.computer.StrafeLeft(intensity...) }
func (s *Spacecraft) StrafeRight(intensity ...float64) { s.computer.StrafeRight(intensity...) }
func (s *Spacecraft) Raise(intensity ...float64)       { s.computer.Raise(intensity...) }
func (s *Spacecraft) Lower(intensity ...float64)       { s.computer.Lower(intensity...) }
func (s *Spacecraft) StopYaw()                         { s.computer.StopYaw() }
func (s *Spacecraft) StopPitch()                       { s.computer.StopPitch() }
func (s *Spacecraft) StopRoll()                        { s.computer.StopRoll() }
func (s *Spacecraft) ResetSpeed()                      { s.computer.ResetSpeed() }
func (s *Spacecraft) ChangeFlightMode()                { s.computer.ChangeFlightMode() }
