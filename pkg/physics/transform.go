// pkg/physics/transform.go
package physics

// Transform holds position, orientation and scale of an object together with
// derived values that are cached until the next mutation.
type Transform struct {
	position    Vector3D
	orientation Matrix3
	scale       float64

	inverse      Matrix3
	inverseValid bool
}

// NewTransform creates a unit-scale transform
func NewTransform(position Vector3D, orientation Matrix3) Transform {
	return Transform{
		position:    position,
		orientation: orientation,
		scale:       1,
	}
}

// Position returns the world position
func (t *Transform) Position() Vector3D {
	return t.position
}

// SetPosition moves the transform to an absolute position
func (t *Transform) SetPosition(position Vector3D) {
	t.position = position
}

// Translate moves the transform by offset
func (t *Transform) Translate(offset Vector3D) {
	t.position = t.position.Add(offset)
}

// Orientation returns the world orientation
func (t *Transform) Orientation() Matrix3 {
	return t.orientation
}

// SetOrientation replaces the orientation and invalidates cached inverses
func (t *Transform) SetOrientation(orientation Matrix3) {
	t.orientation = orientation
	t.inverseValid = false
}

// Scale returns the uniform scale factor
func (t *Transform) Scale() float64 {
	if t.scale == 0 {
		return 1
	}
	return t.scale
}

// SetScale sets the uniform scale factor
func (t *Transform) SetScale(scale float64) {
	t.scale = scale
}

func (t *Transform) inverseOrientation() Matrix3 {
	if !t.inverseValid {
		t.inverse = t.orientation.Transpose()
		t.inverseValid = true
	}
	return t.inverse
}

// ToWorld converts an object-space point to world space
func (t *Transform) ToWorld(local Vector3D) Vector3D {
	return t.position.Add(t.orientation.Apply(local.Scale(t.Scale())))
}

// ToLocal converts a world-space point to object space
func (t *Transform) ToLocal(world Vector3D) Vector3D {
	return t.inverseOrientation().Apply(world.Sub(t.position)).Scale(1 / t.Scale())
}

// DirectionToWorld rotates an object-space direction into world space
func (t *Transform) DirectionToWorld(local Vector3D) Vector3D {
	return t.orientation.Apply(local)
}

// DirectionToLocal rotates a world-space direction into object space
func (t *Transform) DirectionToLocal(world Vector3D) Vector3D {
	return t.inverseOrientation().Apply(world)
}
