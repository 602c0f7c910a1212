// pkg/physics/body_test.go
package physics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRigidBody_ForceIntegration(t *testing.T) {
	body := NewRigidBody(Vector3D{}, Identity3(), 100)
	// 1000 N for 500 ms on 100 kg -> 5 m/s
	body.AddForce(UnitY, 1000, 500)

	body.Simulate(250)
	assert.InDelta(t, 2.5, body.Velocity().Y, 1e-9)

	body.Simulate(1000)
	assert.InDelta(t, 5, body.Velocity().Y, 1e-9)

	body.Simulate(1000)
	assert.InDelta(t, 5, body.Velocity().Y, 1e-9, "expired force must not keep accelerating")
}

func TestRigidBody_AddOrRenewForceReplaces(t *testing.T) {
	body := NewRigidBody(Vector3D{}, Identity3(), 10)
	body.AddOrRenewForce("thrust", UnitY, 10, 1000)
	body.AddOrRenewForce("thrust", UnitY, 20, 1000)
	body.Simulate(1000)
	assert.InDelta(t, 2, body.Velocity().Y, 1e-9)
}

func TestRigidBody_TorqueRotates(t *testing.T) {
	body := NewRigidBody(Vector3D{}, Identity3(), 1)
	body.SetAngularVelocity(UnitZ.Scale(math.Pi / 2))
	body.Simulate(1000)
	forward := body.Orientation().Forward()
	assert.InDelta(t, -1, forward.X, 1e-9)
	assert.InDelta(t, 0, forward.Y, 1e-9)

	body.AddOrRenewTorque("yaw", UnitZ, 1, 1000)
	body.Simulate(1000)
	assert.InDelta(t, math.Pi/2+1, body.AngularVelocity().Z, 1e-9)
}

func TestRigidBody_CheckHit(t *testing.T) {
	hull := NewBox(Vector3D{}, Vector3D{X: 5, Y: 10, Z: 3})
	body := NewRigidBody(Vector3D{X: 100}, RotationZ(math.Pi/2), 1000, hull)
	assert.InDelta(t, math.Sqrt(25+100+9), body.BoundingRadius(), 1e-9)

	// a shot travelling along +X that passed through the ship during the last 100 ms
	local, ok := body.CheckHit(Vector3D{X: 120}, Vector3D{X: 400}, 100)
	assert.True(t, ok)
	// +X in world is -Y in the rotated object's frame; the shot enters the nose at Y = +10
	assert.InDelta(t, 10, local.Y, 1e-9)

	_, ok = body.CheckHit(Vector3D{X: 120, Z: 50}, Vector3D{X: 400}, 100)
	assert.False(t, ok)
}
