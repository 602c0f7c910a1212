// pkg/scene/scene.go
package scene

import (
	"context"

	"github.com/opd-ai/go-starfight/pkg/logging"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

// NodeKind tells the scene what a node shows
type NodeKind int

const (
	NodeSpacecraft NodeKind = iota
	NodeHitbox
	NodeExplosion
	NodeMuzzleFlash
)

func (k NodeKind) String() string {
	switch k {
	case NodeSpacecraft:
		return "spacecraft"
	case NodeHitbox:
		return "hitbox"
	case NodeExplosion:
		return "explosion"
	case NodeMuzzleFlash:
		return "muzzleFlash"
	default:
		return "unknown"
	}
}

// Node is one renderable the simulation asks the scene to show. Transforms
// are already computed; hitbox nodes carry their object-space box and follow
// their parent.
type Node struct {
	ID          uint64
	Parent      uint64
	Kind        NodeKind
	Class       string
	Label       string
	Team        string
	Position    physics.Vector3D
	Orientation physics.Matrix3
	Box         physics.Box
	// Duration is the lifetime in ms of transient nodes, 0 for persistent ones
	Duration float64
	// Count is the number of merged effect sources
	Count int
}

// Scene receives add, move and remove requests. Removing a node removes
// its children as well.
type Scene interface {
	Add(node Node)
	Move(id uint64, position physics.Vector3D, orientation physics.Matrix3)
	Remove(id uint64)
}

// NullScene discards every request and logs it at debug level
type NullScene struct {
	logger *logging.Logger
}

// NewNullScene creates a new NullScene with structured logging.
func NewNullScene(logger *logging.Logger) *NullScene {
	if logger == nil {
		logger = logging.Discard()
	}
	return &NullScene{logger: logger.Component("scene")}
}

// Add implements Scene.
func (s *NullScene) Add(node Node) {
	s.logger.Debug(context.Background(), "Add called",
		"node_id", node.ID,
		"kind", node.Kind.String(),
		"class", node.Class,
	)
}

// Move implements Scene.
func (s *NullScene) Move(id uint64, position physics.Vector3D, orientation physics.Matrix3) {}

// Remove implements Scene.
func (s *NullScene) Remove(id uint64) {
	s.logger.Debug(context.Background(), "Remove called", "node_id", id)
}
