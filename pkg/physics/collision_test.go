// pkg/physics/collision_test.go
package physics

import (
	"testing"
)

func TestBox_Intersects(t *testing.T) {
	unit := NewBox(Vector3D{}, Vector3D{X: 1, Y: 1, Z: 1})
	tests := []struct {
		name     string
		other    Box
		expected bool
	}{
		{"overlapping", NewBox(Vector3D{X: 1.5}, Vector3D{X: 1, Y: 1, Z: 1}), true},
		{"touching", NewBox(Vector3D{X: 2}, Vector3D{X: 1, Y: 1, Z: 1}), true},
		{"separate_on_z", NewBox(Vector3D{Z: 3}, Vector3D{X: 1, Y: 1, Z: 1}), false},
		{"contained", NewBox(Vector3D{}, Vector3D{X: 0.1, Y: 0.1, Z: 0.1}), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := unit.Intersects(tt.other); got != tt.expected {
				t.Errorf("Intersects() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestBoxAround(t *testing.T) {
	box := BoxAround(Vector3D{X: 1, Y: -2, Z: 3}, Vector3D{X: -1, Y: 4, Z: 0})
	if box.Min != (Vector3D{X: -1, Y: -2, Z: 0}) || box.Max != (Vector3D{X: 1, Y: 4, Z: 3}) {
		t.Errorf("unexpected box %+v", box)
	}
	if !box.Contains(Vector3D{}) {
		t.Error("box should contain the origin")
	}
	if box.Expand(1).Min != (Vector3D{X: -2, Y: -3, Z: -1}) {
		t.Errorf("Expand() min = %+v", box.Expand(1).Min)
	}
}

func TestBox_SegmentIntersection(t *testing.T) {
	box := NewBox(Vector3D{}, Vector3D{X: 1, Y: 1, Z: 1})

	t.Run("entering_from_behind", func(t *testing.T) {
		p, ok := box.SegmentIntersection(Vector3D{Y: -5}, Vector3D{Y: 5})
		if !ok || !vecAlmostEqual(p, Vector3D{Y: -1}) {
			t.Errorf("got %+v, %v", p, ok)
		}
	})
	t.Run("missing", func(t *testing.T) {
		if _, ok := box.SegmentIntersection(Vector3D{X: 3, Y: -5}, Vector3D{X: 3, Y: 5}); ok {
			t.Error("expected no intersection")
		}
	})
	t.Run("too_short", func(t *testing.T) {
		if _, ok := box.SegmentIntersection(Vector3D{Y: -5}, Vector3D{Y: -2}); ok {
			t.Error("segment ends before the box")
		}
	})
	t.Run("starting_inside", func(t *testing.T) {
		p, ok := box.SegmentIntersection(Vector3D{Z: 0.5}, Vector3D{Z: 5})
		if !ok || !vecAlmostEqual(p, Vector3D{Z: 0.5}) {
			t.Errorf("got %+v, %v", p, ok)
		}
	})
}
