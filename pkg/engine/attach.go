// pkg/engine/attach.go
package engine

import (
	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/scene"
)

// assetNames lists what a spacecraft needs loaded before it can be shown:
// its model and the explosions it and its projectiles can cause
func assetNames(craft *entity.Spacecraft) []string {
	class := craft.Class()
	names := []string{class.Model}
	if class.Explosion != nil {
		names = append(names, class.Explosion.Name)
	}
	for _, w := range craft.Weapons() {
		for _, barrel := range w.Class().Barrels {
			if barrel.ProjectileClass.Explosion != nil {
				names = append(names, barrel.ProjectileClass.Explosion.Name)
			}
		}
	}
	return names
}

// acquireResources registers the assets of a spacecraft. Each acquisition
// starts a new generation; attachment waits until the tracker reports the
// latest generation ready.
func (l *Level) acquireResources(craft *entity.Spacecraft) {
	if l.resources == nil {
		return
	}
	gen := l.acquiredGen.Add(1)
	l.resources.Acquire(assetNames(craft)...)
	l.resources.ExecuteWhenReady(func() {
		for {
			ready := l.readyGen.Load()
			if ready >= gen || l.readyGen.CompareAndSwap(ready, gen) {
				return
			}
		}
	})
}

// resourcesLoaded reports whether every acquired generation is ready
func (l *Level) resourcesLoaded() bool {
	return l.resources == nil || l.readyGen.Load() >= l.acquiredGen.Load()
}

// attachPending adds waiting spacecraft to the scene once their assets are
// loaded
func (l *Level) attachPending() {
	if len(l.pendingAttach) == 0 || !l.resourcesLoaded() {
		return
	}
	for _, craft := range l.pendingAttach {
		l.attach(craft)
	}
	l.pendingAttach = l.pendingAttach[:0]
}

func (l *Level) attach(craft *entity.Spacecraft) {
	id := craft.ID()
	if l.attached[id] {
		return
	}
	l.scene.Add(scene.Node{
		ID:          id,
		Kind:        scene.NodeSpacecraft,
		Class:       craft.Class().Name,
		Label:       craft.Name(),
		Team:        craft.TeamID(),
		Position:    craft.Position(),
		Orientation: craft.Orientation(),
	})
	l.attached[id] = true

	if !l.settings.ShowHitboxes {
		return
	}
	for _, box := range craft.Class().Hitboxes {
		nodeID := ecs.NewBasic().ID()
		l.scene.Add(scene.Node{
			ID:          nodeID,
			Parent:      id,
			Kind:        scene.NodeHitbox,
			Position:    craft.Position(),
			Orientation: craft.Orientation(),
			Box:         box,
		})
		l.hitboxNodes[id] = append(l.hitboxNodes[id], nodeID)
	}
}

// detach removes a spacecraft and its hitboxes from the scene
func (l *Level) detach(craft *entity.Spacecraft) {
	id := craft.ID()
	if !l.attached[id] {
		return
	}
	for _, nodeID := range l.hitboxNodes[id] {
		l.scene.Remove(nodeID)
	}
	l.scene.Remove(id)
	delete(l.attached, id)
	delete(l.hitboxNodes, id)
}

// HitboxNodes returns the scene node ids of a spacecraft's hitboxes
func (l *Level) HitboxNodes(craft *entity.Spacecraft) []uint64 {
	return l.hitboxNodes[craft.ID()]
}

// IsAttached reports whether a spacecraft is shown in the scene
func (l *Level) IsAttached(craft *entity.Spacecraft) bool {
	return l.attached[craft.ID()]
}

var _ entity.World = (*Level)(nil)
