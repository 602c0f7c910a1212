// pkg/event/event.go
package event

import (
	"sync"

	"github.com/opd-ai/go-starfight/pkg/physics"
)

// Type represents the type of event
type Type string

// Simulation event types
const (
	SpacecraftAdded     Type = "spacecraft_added"
	SpacecraftRemoved   Type = "spacecraft_removed"
	SpacecraftHit       Type = "spacecraft_hit"
	WeaponFired         Type = "weapon_fired"
	TargetFired         Type = "target_fired"
	TargetChanged       Type = "target_changed"
	DestructionStarted  Type = "destruction_started"
	SpacecraftDestroyed Type = "spacecraft_destroyed"
	SpacecraftRespawned Type = "spacecraft_respawned"
	LevelRecentered     Type = "level_recentered"
)

// Event is the base interface for all events
type Event interface {
	GetType() Type
	GetSource() interface{}
}

// BaseEvent provides common functionality for all events
type BaseEvent struct {
	EventType Type
	Source    interface{}
}

// GetType returns the event type
func (e *BaseEvent) GetType() Type {
	return e.EventType
}

// GetSource returns the event source
func (e *BaseEvent) GetSource() interface{} {
	return e.Source
}

// Handler is a function that handles events
type Handler func(Event)

// Subscription identifies one registered handler
type Subscription struct {
	ID     uint64
	Type   Type
	Cancel func()
}

type registration struct {
	id      uint64
	handler Handler
}

// Bus keeps an ordered observer list per event type. Handlers run
// synchronously in subscription order.
type Bus struct {
	handlers map[Type][]registration
	nextID   uint64
	mu       sync.RWMutex
}

// NewEventBus creates a new event bus
func NewEventBus() *Bus {
	return &Bus{
		handlers: make(map[Type][]registration),
		nextID:   1,
	}
}

// Subscribe registers a handler for a specific event type
func (b *Bus) Subscribe(eventType Type, handler Handler) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.handlers[eventType] = append(b.handlers[eventType], registration{id: id, handler: handler})

	return &Subscription{
		ID:     id,
		Type:   eventType,
		Cancel: func() { b.Unsubscribe(id) },
	}
}

// Unsubscribe removes the handler registered under id. Unknown ids are ignored.
func (b *Bus) Unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for eventType, regs := range b.handlers {
		for i, reg := range regs {
			if reg.id != id {
				continue
			}
			kept := make([]registration, 0, len(regs)-1)
			kept = append(kept, regs[:i]...)
			b.handlers[eventType] = append(kept, regs[i+1:]...)
			return
		}
	}
}

// HandlerCount returns the number of handlers for an event type
func (b *Bus) HandlerCount(eventType Type) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

// Clear drops every subscription
func (b *Bus) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers = make(map[Type][]registration)
}

// Publish sends an event to all subscribed handlers
func (b *Bus) Publish(event Event) {
	b.mu.RLock()
	regs := b.handlers[event.GetType()]
	b.mu.RUnlock()

	// regs is never mutated in place, so handlers may (un)subscribe freely
	for _, reg := range regs {
		reg.handler(event)
	}
}

// Specific event implementations

// SpacecraftEvent carries lifecycle changes of one spacecraft
type SpacecraftEvent struct {
	BaseEvent
	SpacecraftID uint64
	Team         string
}

// NewSpacecraftEvent creates a new spacecraft event
func NewSpacecraftEvent(eventType Type, source interface{}, spacecraftID uint64, team string) *SpacecraftEvent {
	return &SpacecraftEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		SpacecraftID: spacecraftID,
		Team:         team,
	}
}

// HitEvent reports damage taken by a spacecraft. Positions and directions
// are in the object space of the hit spacecraft.
type HitEvent struct {
	BaseEvent
	SpacecraftID   uint64
	AttackerID     uint64
	Damage         float64
	LocalPosition  physics.Vector3D
	LocalDirection physics.Vector3D
	Hitpoints      float64
}

// NewHitEvent creates a new hit event
func NewHitEvent(source interface{}, spacecraftID, attackerID uint64, damage float64, localPosition, localDirection physics.Vector3D, hitpoints float64) *HitEvent {
	return &HitEvent{
		BaseEvent: BaseEvent{
			EventType: SpacecraftHit,
			Source:    source,
		},
		SpacecraftID:   spacecraftID,
		AttackerID:     attackerID,
		Damage:         damage,
		LocalPosition:  localPosition,
		LocalDirection: localDirection,
		Hitpoints:      hitpoints,
	}
}

// FireEvent reports projectiles leaving the weapons of a spacecraft.
// The TargetFired variant is delivered to spacecraft targeting the shooter.
type FireEvent struct {
	BaseEvent
	ShooterID   uint64
	Projectiles int
}

// NewFireEvent creates a new fire event
func NewFireEvent(eventType Type, source interface{}, shooterID uint64, projectiles int) *FireEvent {
	return &FireEvent{
		BaseEvent: BaseEvent{
			EventType: eventType,
			Source:    source,
		},
		ShooterID:   shooterID,
		Projectiles: projectiles,
	}
}

// TargetEvent reports a change of the selected target. Zero ids mean no target.
type TargetEvent struct {
	BaseEvent
	SpacecraftID uint64
	OldTargetID  uint64
	NewTargetID  uint64
}

// NewTargetEvent creates a new target change event
func NewTargetEvent(source interface{}, spacecraftID, oldTargetID, newTargetID uint64) *TargetEvent {
	return &TargetEvent{
		BaseEvent: BaseEvent{
			EventType: TargetChanged,
			Source:    source,
		},
		SpacecraftID: spacecraftID,
		OldTargetID:  oldTargetID,
		NewTargetID:  newTargetID,
	}
}

// RecenterEvent reports the world being shifted back near the origin
type RecenterEvent struct {
	BaseEvent
	Offset physics.Vector3D
}

// NewRecenterEvent creates a new recenter event
func NewRecenterEvent(source interface{}, offset physics.Vector3D) *RecenterEvent {
	return &RecenterEvent{
		BaseEvent: BaseEvent{
			EventType: LevelRecentered,
			Source:    source,
		},
		Offset: offset,
	}
}
