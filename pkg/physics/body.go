// pkg/physics/body.go
package physics

import "math"

// Body is the physics integrator collaborator the simulation core drives.
// Forces and torques are applied for a duration in milliseconds; the body
// accumulates them and integrates its motion when Simulate is called.
type Body interface {
	Simulate(dt float64)
	Position() Vector3D
	Orientation() Matrix3
	// Velocity is the world-space linear velocity in m/s
	Velocity() Vector3D
	// AngularVelocity is the world-space rotation axis scaled by rad/s
	AngularVelocity() Vector3D
	Mass() float64
	Translate(offset Vector3D)
	AddForce(direction Vector3D, strength, duration float64)
	AddOrRenewForce(id string, direction Vector3D, strength, duration float64)
	AddTorque(axis Vector3D, strength, duration float64)
	AddOrRenewTorque(id string, axis Vector3D, strength, duration float64)
	// CheckHit tests the path a point travelled during the last dt
	// milliseconds with the given velocity and returns the object-space
	// position of the first contact.
	CheckHit(position, velocity Vector3D, dt float64) (Vector3D, bool)
}

type appliedForce struct {
	id        string
	direction Vector3D
	strength  float64
	duration  float64
}

// RigidBody is a reference Body: point mass with box hitboxes, where the
// moment of inertia is approximated by the mass.
type RigidBody struct {
	transform       Transform
	velocity        Vector3D
	angularVelocity Vector3D
	mass            float64
	forces          []appliedForce
	torques         []appliedForce
	hitboxes        []Box
	boundingRadius  float64
}

// NewRigidBody creates a body at rest. Hitboxes are given in object space.
func NewRigidBody(position Vector3D, orientation Matrix3, mass float64, hitboxes ...Box) *RigidBody {
	body := &RigidBody{
		transform: NewTransform(position, orientation),
		mass:      mass,
		hitboxes:  hitboxes,
	}
	for _, box := range hitboxes {
		body.boundingRadius = math.Max(body.boundingRadius, box.Min.Length())
		body.boundingRadius = math.Max(body.boundingRadius, box.Max.Length())
	}
	return body
}

// Reset reinitializes a body for reuse
func (b *RigidBody) Reset(position Vector3D, orientation Matrix3, velocity Vector3D) {
	b.transform.SetPosition(position)
	b.transform.SetOrientation(orientation)
	b.velocity = velocity
	b.angularVelocity = Vector3D{}
	b.forces = b.forces[:0]
	b.torques = b.torques[:0]
}

// Simulate integrates forces, torques and motion for dt milliseconds
func (b *RigidBody) Simulate(dt float64) {
	if dt <= 0 {
		return
	}
	if b.mass > 0 {
		b.forces = integrate(b.forces, dt, func(f appliedForce, seconds float64) {
			b.velocity = b.velocity.Add(f.direction.Scale(f.strength / b.mass * seconds))
		})
		b.torques = integrate(b.torques, dt, func(f appliedForce, seconds float64) {
			b.angularVelocity = b.angularVelocity.Add(f.direction.Scale(f.strength / b.mass * seconds))
		})
	}

	seconds := dt / 1000
	b.transform.Translate(b.velocity.Scale(seconds))

	angle := b.angularVelocity.Length() * seconds
	if angle > 0 {
		rotation := RotationAxis(b.angularVelocity, angle)
		b.transform.SetOrientation(rotation.Mul(b.transform.Orientation()).Orthonormalize())
	}
}

// integrate applies every force for its remaining share of dt and drops
// the expired ones in place.
func integrate(forces []appliedForce, dt float64, apply func(appliedForce, float64)) []appliedForce {
	kept := forces[:0]
	for _, f := range forces {
		effective := math.Min(dt, f.duration)
		apply(f, effective/1000)
		f.duration -= dt
		if f.duration > 0 {
			kept = append(kept, f)
		}
	}
	return kept
}

// Position returns the world position
func (b *RigidBody) Position() Vector3D { return b.transform.Position() }

// Orientation returns the world orientation
func (b *RigidBody) Orientation() Matrix3 { return b.transform.Orientation() }

// Velocity returns the linear velocity
func (b *RigidBody) Velocity() Vector3D { return b.velocity }

// SetVelocity overrides the linear velocity
func (b *RigidBody) SetVelocity(velocity Vector3D) { b.velocity = velocity }

// AngularVelocity returns the angular velocity
func (b *RigidBody) AngularVelocity() Vector3D { return b.angularVelocity }

// SetAngularVelocity overrides the angular velocity
func (b *RigidBody) SetAngularVelocity(angular Vector3D) { b.angularVelocity = angular }

// Mass returns the mass in kg
func (b *RigidBody) Mass() float64 { return b.mass }

// BoundingRadius returns the radius of a sphere around all hitboxes
func (b *RigidBody) BoundingRadius() float64 { return b.boundingRadius }

// Hitboxes returns the object-space hitboxes
func (b *RigidBody) Hitboxes() []Box { return b.hitboxes }

// Transform exposes the body's transform
func (b *RigidBody) Transform() *Transform { return &b.transform }

// Translate moves the body without affecting its velocity
func (b *RigidBody) Translate(offset Vector3D) { b.transform.Translate(offset) }

// AddForce applies a force for duration milliseconds
func (b *RigidBody) AddForce(direction Vector3D, strength, duration float64) {
	b.forces = append(b.forces, appliedForce{direction: direction.Normalize(), strength: strength, duration: duration})
}

// AddOrRenewForce replaces the force with the same id, or adds it
func (b *RigidBody) AddOrRenewForce(id string, direction Vector3D, strength, duration float64) {
	b.forces = addOrRenew(b.forces, appliedForce{id: id, direction: direction.Normalize(), strength: strength, duration: duration})
}

// AddTorque applies a torque around a world-space axis
func (b *RigidBody) AddTorque(axis Vector3D, strength, duration float64) {
	b.torques = append(b.torques, appliedForce{direction: axis.Normalize(), strength: strength, duration: duration})
}

// AddOrRenewTorque replaces the torque with the same id, or adds it
func (b *RigidBody) AddOrRenewTorque(id string, axis Vector3D, strength, duration float64) {
	b.torques = addOrRenew(b.torques, appliedForce{id: id, direction: axis.Normalize(), strength: strength, duration: duration})
}

func addOrRenew(forces []appliedForce, f appliedForce) []appliedForce {
	for i := range forces {
		if forces[i].id == f.id {
			forces[i] = f
			return forces
		}
	}
	return append(forces, f)
}

// CheckHit implements Body
func (b *RigidBody) CheckHit(position, velocity Vector3D, dt float64) (Vector3D, bool) {
	start := b.transform.ToLocal(position.Sub(velocity.Scale(dt / 1000)))
	end := b.transform.ToLocal(position)

	var (
		best     Vector3D
		bestDist = math.Inf(1)
		hit      bool
	)
	for _, box := range b.hitboxes {
		point, ok := box.SegmentIntersection(start, end)
		if !ok {
			continue
		}
		if d := point.Sub(start).LengthSquared(); d < bestDist {
			best, bestDist, hit = point, d, true
		}
	}
	return best, hit
}
