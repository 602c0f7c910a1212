// pkg/physics/matrix.go
package physics

import "math"

// Matrix3 is a row-major 3x3 matrix used for orientations.
// Applied to column vectors, so the columns are the object's right, forward
// and up axes expressed in the parent space.
type Matrix3 [3][3]float64

// Identity3 returns the identity matrix
func Identity3() Matrix3 {
	return Matrix3{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
}

// RotationX returns a rotation around the X (pitch) axis
func RotationX(angle float64) Matrix3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix3{
		{1, 0, 0},
		{0, c, -s},
		{0, s, c},
	}
}

// RotationY returns a rotation around the Y (roll) axis
func RotationY(angle float64) Matrix3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix3{
		{c, 0, s},
		{0, 1, 0},
		{-s, 0, c},
	}
}

// RotationZ returns a rotation around the Z (yaw) axis
func RotationZ(angle float64) Matrix3 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix3{
		{c, -s, 0},
		{s, c, 0},
		{0, 0, 1},
	}
}

// RotationAxis returns a rotation of angle radians around an arbitrary axis
func RotationAxis(axis Vector3D, angle float64) Matrix3 {
	a := axis.Normalize()
	if a.IsZero() {
		return Identity3()
	}
	c, s := math.Cos(angle), math.Sin(angle)
	t := 1 - c
	return Matrix3{
		{t*a.X*a.X + c, t*a.X*a.Y - s*a.Z, t*a.X*a.Z + s*a.Y},
		{t*a.X*a.Y + s*a.Z, t*a.Y*a.Y + c, t*a.Y*a.Z - s*a.X},
		{t*a.X*a.Z - s*a.Y, t*a.Y*a.Z + s*a.X, t*a.Z*a.Z + c},
	}
}

// Mul returns m * other
func (m Matrix3) Mul(other Matrix3) Matrix3 {
	var result Matrix3
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			result[r][c] = m[r][0]*other[0][c] + m[r][1]*other[1][c] + m[r][2]*other[2][c]
		}
	}
	return result
}

// Apply transforms a vector by the matrix
func (m Matrix3) Apply(v Vector3D) Vector3D {
	return Vector3D{
		X: m[0][0]*v.X + m[0][1]*v.Y + m[0][2]*v.Z,
		Y: m[1][0]*v.X + m[1][1]*v.Y + m[1][2]*v.Z,
		Z: m[2][0]*v.X + m[2][1]*v.Y + m[2][2]*v.Z,
	}
}

// Transpose returns the transposed matrix, which is the inverse for rotations
func (m Matrix3) Transpose() Matrix3 {
	return Matrix3{
		{m[0][0], m[1][0], m[2][0]},
		{m[0][1], m[1][1], m[2][1]},
		{m[0][2], m[1][2], m[2][2]},
	}
}

// Column returns the given column as a vector
func (m Matrix3) Column(c int) Vector3D {
	return Vector3D{X: m[0][c], Y: m[1][c], Z: m[2][c]}
}

// Right returns the object's right axis
func (m Matrix3) Right() Vector3D { return m.Column(0) }

// Forward returns the object's forward axis
func (m Matrix3) Forward() Vector3D { return m.Column(1) }

// Up returns the object's up axis
func (m Matrix3) Up() Vector3D { return m.Column(2) }

// Orthonormalize removes accumulated numeric drift from a rotation matrix.
func (m Matrix3) Orthonormalize() Matrix3 {
	forward := m.Forward().Normalize()
	right := forward.Cross(m.Up()).Normalize()
	if right.IsZero() {
		return Identity3()
	}
	up := right.Cross(forward)
	return Matrix3{
		{right.X, forward.X, up.X},
		{right.Y, forward.Y, up.Y},
		{right.Z, forward.Z, up.Z},
	}
}

// FromYawPitchRoll builds an orientation by yawing, then pitching, then
// rolling in object space.
func FromYawPitchRoll(yaw, pitch, roll float64) Matrix3 {
	return RotationZ(yaw).Mul(RotationX(pitch)).Mul(RotationY(roll))
}
