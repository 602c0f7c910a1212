// pkg/physics/collision.go
package physics

import "math"

// Box represents an axis-aligned bounding box
type Box struct {
	Min Vector3D
	Max Vector3D
}

// NewBox creates a box from its center and half extents
func NewBox(center, halfSize Vector3D) Box {
	return Box{
		Min: center.Sub(halfSize),
		Max: center.Add(halfSize),
	}
}

// BoxAround returns the smallest box containing all given points
func BoxAround(first Vector3D, rest ...Vector3D) Box {
	box := Box{Min: first, Max: first}
	for _, p := range rest {
		box.Min = box.Min.Min(p)
		box.Max = box.Max.Max(p)
	}
	return box
}

// Expand grows the box by margin on every side
func (b Box) Expand(margin float64) Box {
	m := Vector3D{X: margin, Y: margin, Z: margin}
	return Box{Min: b.Min.Sub(m), Max: b.Max.Add(m)}
}

// Union returns the smallest box containing both boxes
func (b Box) Union(other Box) Box {
	return Box{Min: b.Min.Min(other.Min), Max: b.Max.Max(other.Max)}
}

// Center returns the center point of the box
func (b Box) Center() Vector3D {
	return b.Min.Add(b.Max).Scale(0.5)
}

// Contains checks whether the point lies inside the box (bounds inclusive)
func (b Box) Contains(point Vector3D) bool {
	return point.X >= b.Min.X && point.X <= b.Max.X &&
		point.Y >= b.Min.Y && point.Y <= b.Max.Y &&
		point.Z >= b.Min.Z && point.Z <= b.Max.Z
}

// Intersects checks whether two boxes overlap (touching counts)
func (b Box) Intersects(other Box) bool {
	return !(other.Min.X > b.Max.X || other.Max.X < b.Min.X ||
		other.Min.Y > b.Max.Y || other.Max.Y < b.Min.Y ||
		other.Min.Z > b.Max.Z || other.Max.Z < b.Min.Z)
}

// SegmentIntersection returns the first point where the segment from -> to
// enters the box. A segment starting inside the box hits at its start.
func (b Box) SegmentIntersection(from, to Vector3D) (Vector3D, bool) {
	d := to.Sub(from)
	tMin, tMax := 0.0, 1.0

	for axis := 0; axis < 3; axis++ {
		origin := from.Component(axis)
		dir := d.Component(axis)
		lo := b.Min.Component(axis)
		hi := b.Max.Component(axis)

		if math.Abs(dir) < 1e-12 {
			if origin < lo || origin > hi {
				return Vector3D{}, false
			}
			continue
		}

		t1 := (lo - origin) / dir
		t2 := (hi - origin) / dir
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return Vector3D{}, false
		}
	}

	return from.Add(d.Scale(tMin)), true
}
