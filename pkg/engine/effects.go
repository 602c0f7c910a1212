// pkg/engine/effects.go
package engine

import (
	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/physics"
	"github.com/opd-ai/go-starfight/pkg/scene"
)

// Effect is a transient particle effect instance: an explosion or a muzzle
// flash. Instances are pooled and reinitialized.
type Effect struct {
	request entity.EffectRequest
	nodeID  uint64
	age     float64
}

func (e *Effect) init(request entity.EffectRequest, nodeID uint64) {
	e.request = request
	e.nodeID = nodeID
	e.age = 0
}

// simulate drifts the effect with its velocity for dt milliseconds
func (e *Effect) simulate(dt float64) {
	e.request.Position = e.request.Position.Add(e.request.Velocity.Scale(dt / 1000))
	e.age += dt
}

// CanBeReused reports whether the effect has played out
func (e *Effect) CanBeReused() bool {
	return e.age >= e.request.Duration
}

// Kind returns the effect kind
func (e *Effect) Kind() entity.EffectKind { return e.request.Kind }

// Class returns the explosion or projectile class name
func (e *Effect) Class() string { return e.request.Class }

// Position returns the current world position
func (e *Effect) Position() physics.Vector3D { return e.request.Position }

// Count returns how many sources the effect merges
func (e *Effect) Count() int { return e.request.Count }

// Age returns the time played so far in ms
func (e *Effect) Age() float64 { return e.age }

func (e *Effect) translate(offset physics.Vector3D) {
	e.request.Position = e.request.Position.Add(offset)
}

func (e *Effect) node() scene.Node {
	kind := scene.NodeExplosion
	if e.request.Kind == entity.EffectMuzzleFlash {
		kind = scene.NodeMuzzleFlash
	}
	return scene.Node{
		ID:          e.nodeID,
		Kind:        kind,
		Class:       e.request.Class,
		Position:    e.request.Position,
		Orientation: physics.Identity3(),
		Duration:    e.request.Duration,
		Count:       e.request.Count,
	}
}
