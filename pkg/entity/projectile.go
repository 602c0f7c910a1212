// pkg/entity/projectile.go
package entity

import "github.com/opd-ai/go-starfight/pkg/physics"

// Hittables is the spatial index a projectile queries for candidates
type Hittables interface {
	Query(box physics.Box) []*Spacecraft
}

// Projectile is one in-flight shot. Projectiles live in the level's pool and
// are reinitialized with Init instead of being reallocated.
type Projectile struct {
	class    *ProjectileClass
	body     *physics.RigidBody
	origin   *Spacecraft
	timeLeft float64
	age      float64
}

// NewProjectile creates a launched projectile
func NewProjectile(class *ProjectileClass, position physics.Vector3D, orientation physics.Matrix3, velocity physics.Vector3D, origin *Spacecraft) *Projectile {
	p := &Projectile{}
	p.Init(class, position, orientation, velocity, origin)
	return p
}

// Init (re)launches the projectile
func (p *Projectile) Init(class *ProjectileClass, position physics.Vector3D, orientation physics.Matrix3, velocity physics.Vector3D, origin *Spacecraft) {
	if p.body == nil {
		p.body = physics.NewRigidBody(position, orientation, class.Mass)
	}
	p.body.Reset(position, orientation, velocity)
	p.class = class
	p.origin = origin
	p.timeLeft = class.Duration
	p.age = 0
}

// Simulate advances the projectile by dt milliseconds and resolves at most
// one hit against the candidates of targets. Candidates are tested in the
// order the index returns them and the first contact wins.
func (p *Projectile) Simulate(dt float64, targets Hittables, world World) {
	if p.timeLeft <= 0 {
		return
	}
	p.timeLeft -= dt
	if p.timeLeft <= 0 {
		return
	}

	p.body.Simulate(dt)
	p.age += dt
	if targets == nil {
		return
	}

	position := p.body.Position()
	velocity := p.body.Velocity()
	// sweep back over the whole tick, the launch tick included
	box := physics.BoxAround(position, position.Sub(velocity.Scale(dt/1000)))
	selfFire := world.Settings().SelfFire

	for _, target := range targets.Query(box) {
		if target == p.origin && !selfFire {
			continue
		}
		if !target.IsHittable() {
			continue
		}
		relative := velocity.Sub(target.Velocity())
		local, ok := target.Body().CheckHit(position, relative, dt)
		if !ok {
			continue
		}
		p.hit(target, local, relative, world)
		return
	}
}

func (p *Projectile) hit(target *Spacecraft, local, relative physics.Vector3D, world World) {
	moment := world.Settings().MomentDuration
	transform := target.Transform()
	hitPosition := transform.ToWorld(local)
	direction := relative.Normalize()

	if !direction.IsZero() && p.class.Mass > 0 && moment > 0 {
		strength := p.class.Mass * relative.Length() / (moment / 1000)
		body := target.Body()
		body.AddForce(direction, strength, moment)
		torque := hitPosition.Sub(target.Position()).Cross(direction)
		if !torque.IsZero() {
			body.AddTorque(torque, strength*torque.Length(), moment)
		}
	}

	if p.class.Explosion != nil {
		world.SpawnEffect(EffectRequest{
			Kind:     EffectExplosion,
			Class:    p.class.Explosion.Name,
			Position: hitPosition,
			Velocity: target.Velocity(),
			Duration: p.class.Explosion.Duration,
			Count:    1,
			SourceID: target.ID(),
		})
	}

	target.Damage(p.class.Damage, local, transform.DirectionToLocal(direction), p.origin)
	p.timeLeft = 0
}

// CanBeReused reports whether the projectile is dead
func (p *Projectile) CanBeReused() bool {
	return p.timeLeft <= 0
}

// TimeLeft returns the remaining lifetime in ms
func (p *Projectile) TimeLeft() float64 { return p.timeLeft }

// Age returns the time since launch in ms
func (p *Projectile) Age() float64 { return p.age }

// Class returns the projectile class
func (p *Projectile) Class() *ProjectileClass { return p.class }

// Origin returns the spacecraft that fired the projectile
func (p *Projectile) Origin() *Spacecraft { return p.origin }

// Position returns the world position
func (p *Projectile) Position() physics.Vector3D { return p.body.Position() }

// Orientation returns the world orientation
func (p *Projectile) Orientation() physics.Matrix3 { return p.body.Orientation() }

// Velocity returns the world velocity
func (p *Projectile) Velocity() physics.Vector3D { return p.body.Velocity() }

// Translate shifts the projectile without changing its motion
func (p *Projectile) Translate(offset physics.Vector3D) { p.body.Translate(offset) }
