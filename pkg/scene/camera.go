// pkg/scene/camera.go
package scene

import "github.com/opd-ai/go-starfight/pkg/physics"

// Camera is the viewpoint the level keeps near the origin
type Camera interface {
	Position() physics.Vector3D
	Translate(offset physics.Vector3D)
}

// ChaseCamera follows a target, easing towards it
type ChaseCamera struct {
	position physics.Vector3D
	offset   physics.Vector3D
	target   physics.Locatable

	// followSpeed is the share of the remaining distance covered per second
	followSpeed float64
	smoothing   bool
}

// NewChaseCamera creates a camera at position that snaps to its target
// until SetSmoothing is enabled
func NewChaseCamera(position physics.Vector3D) *ChaseCamera {
	return &ChaseCamera{
		position:    position,
		followSpeed: 2.0,
	}
}

// Follow sets the target to follow; nil stops following
func (c *ChaseCamera) Follow(target physics.Locatable) {
	c.target = target
}

// SetOffset sets where the camera sits relative to the target
func (c *ChaseCamera) SetOffset(offset physics.Vector3D) {
	c.offset = offset
}

// SetSmoothing enables easing with the given follow speed
func (c *ChaseCamera) SetSmoothing(enabled bool, followSpeed float64) {
	c.smoothing = enabled
	if followSpeed > 0 {
		c.followSpeed = followSpeed
	}
}

// Update moves the camera for dt milliseconds
func (c *ChaseCamera) Update(dt float64) {
	if c.target == nil {
		return
	}
	desired := c.target.GetPosition().Add(c.offset)
	if !c.smoothing {
		c.position = desired
		return
	}
	t := physics.Clamp(c.followSpeed*dt/1000, 0, 1)
	c.position = c.position.Add(desired.Sub(c.position).Scale(t))
}

// Position implements Camera
func (c *ChaseCamera) Position() physics.Vector3D { return c.position }

// Translate implements Camera
func (c *ChaseCamera) Translate(offset physics.Vector3D) {
	c.position = c.position.Add(offset)
}
