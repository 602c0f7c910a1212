// pkg/engine/system.go
package engine

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-starfight/pkg/entity"
)

// System drives a level from an ecs.World. Update receives seconds, the
// level ticks in milliseconds.
type System struct {
	level *Level
	// Speed scales simulated time
	speed float64
}

// NewSystem wraps a level
func NewSystem(level *Level) *System {
	return &System{level: level, speed: 1}
}

// Add registers a spacecraft with the level
func (s *System) Add(craft *entity.Spacecraft) {
	s.level.AddSpacecraft(craft)
}

// Remove satisfies the ecs.System interface
func (s *System) Remove(basic ecs.BasicEntity) {
	if craft := s.level.SpacecraftByID(basic.ID()); craft != nil {
		s.level.RemoveSpacecraft(craft)
	}
}

// Update advances the level
func (s *System) Update(dt float32) {
	if s.level.IsDestroyed() || dt <= 0 {
		return
	}
	s.level.Tick(float64(dt) * 1000 * s.speed)
}

// Priority runs the simulation before presentation systems
func (s *System) Priority() int { return 100 }

// SetSpeed changes the time scale; non-positive values pause the level
func (s *System) SetSpeed(speed float64) { s.speed = speed }

// Speed returns the time scale
func (s *System) Speed() float64 { return s.speed }

// Level returns the simulated level
func (s *System) Level() *Level { return s.level }

var _ ecs.System = (*System)(nil)
