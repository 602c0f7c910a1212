// pkg/physics/ballistics.go
package physics

import "math"

const ballisticsEpsilon = 1e-9

// InterceptTime returns the earliest positive time (seconds) at which a
// projectile launched from the origin with the given speed can meet a point
// starting at relativePosition and moving with relativeVelocity.
func InterceptTime(relativePosition, relativeVelocity Vector3D, projectileSpeed float64) (float64, bool) {
	if projectileSpeed <= 0 {
		return 0, false
	}
	// |p + v*t| = s*t  =>  (v.v - s^2) t^2 + 2 (p.v) t + p.p = 0
	a := relativeVelocity.Dot(relativeVelocity) - projectileSpeed*projectileSpeed
	b := 2 * relativePosition.Dot(relativeVelocity)
	c := relativePosition.Dot(relativePosition)

	if math.Abs(a) < ballisticsEpsilon {
		if math.Abs(b) < ballisticsEpsilon {
			return 0, c == 0
		}
		t := -c / b
		return t, t >= 0
	}

	discriminant := b*b - 4*a*c
	if discriminant < 0 {
		return 0, false
	}
	sqrtD := math.Sqrt(discriminant)
	t1 := (-b - sqrtD) / (2 * a)
	t2 := (-b + sqrtD) / (2 * a)
	if t1 > t2 {
		t1, t2 = t2, t1
	}
	switch {
	case t1 >= 0:
		return t1, true
	case t2 >= 0:
		return t2, true
	default:
		return 0, false
	}
}

// LeadPosition predicts where a projectile fired now from shooterPosition
// meets the target. Without a valid intercept the current target position
// is returned together with false.
func LeadPosition(shooterPosition, shooterVelocity, targetPosition, targetVelocity Vector3D, projectileSpeed float64) (Vector3D, bool) {
	relativeVelocity := targetVelocity.Sub(shooterVelocity)
	t, ok := InterceptTime(targetPosition.Sub(shooterPosition), relativeVelocity, projectileSpeed)
	if !ok {
		return targetPosition, false
	}
	return targetPosition.Add(relativeVelocity.Scale(t)), true
}
