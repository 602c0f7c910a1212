// pkg/entity/weapon.go
package entity

import (
	"math"

	"github.com/opd-ai/go-starfight/pkg/physics"
)

// AimStatus is the aiming state of a weapon relative to its target
type AimStatus int

const (
	// AimFixed is permanent for weapons that cannot rotate
	AimFixed AimStatus = iota
	AimNoTarget
	AimAiming
	AimAimingOutOfReach
	AimAimedOutOfRange
	AimAimedInRange
)

func (s AimStatus) String() string {
	switch s {
	case AimFixed:
		return "FIXED"
	case AimNoTarget:
		return "NO_TARGET"
	case AimAiming:
		return "AIMING"
	case AimAimingOutOfReach:
		return "AIMING_OUT_OF_REACH"
	case AimAimedOutOfRange:
		return "AIMED_OUT_OF_RANGE"
	case AimAimedInRange:
		return "AIMED_IN_RANGE"
	default:
		return "UNKNOWN"
	}
}

// Weapon is one armament mounted in a weapon slot of a spacecraft
type Weapon struct {
	class *WeaponClass
	slot  WeaponSlot
	craft *Spacecraft

	// cooldown is the time accumulated since the last shot, in ms
	cooldown float64
	angles   [2]float64
	status   AimStatus
}

// NewWeapon creates a weapon for a slot. It is ready to fire only after its
// class cooldown has elapsed.
func NewWeapon(class *WeaponClass, slot WeaponSlot) *Weapon {
	w := &Weapon{class: class, slot: slot, status: AimFixed}
	if class.IsRotatable() {
		w.status = AimNoTarget
		for i, rotator := range class.Rotators {
			w.angles[i] = rotator.DefaultAngle
		}
	}
	return w
}

// Simulate advances the cooldown timer
func (w *Weapon) Simulate(dt float64) {
	w.cooldown = math.Min(w.cooldown+dt, w.class.Cooldown)
}

// Ready reports whether the cooldown has elapsed
func (w *Weapon) Ready() bool {
	return w.cooldown >= w.class.Cooldown
}

// RotateTo turns the rotators towards the given angles for dt milliseconds
// and updates the aim status. Thresholds are in radians.
func (w *Weapon) RotateTo(angle1, angle2, turnThreshold, fireThreshold float64, inRange bool, dt float64) {
	if !w.class.IsRotatable() {
		w.status = AimFixed
		return
	}
	targets := [2]float64{angle1, angle2}
	if w.class.RotationStyle == RotationRollYaw {
		targets = w.closerRollYaw(angle1, angle2)
	}

	outOfReach := false
	remaining := 0.0
	for i, rotator := range w.class.Rotators {
		target, reachable := rotator.reach(targets[i])
		if !reachable {
			outOfReach = true
		}
		diff := rotator.difference(w.angles[i], target)
		if math.Abs(diff) > turnThreshold {
			step := math.Min(math.Abs(diff), rotator.RotationRate*dt/1000)
			step = math.Copysign(step, diff)
			w.angles[i] += step
			if !rotator.Restricted {
				w.angles[i] = physics.WrapAngle(w.angles[i])
			}
			diff -= step
		}
		remaining = math.Max(remaining, math.Abs(diff))
	}

	switch {
	case outOfReach:
		w.status = AimAimingOutOfReach
	case remaining > fireThreshold:
		w.status = AimAiming
	case inRange:
		w.status = AimAimedInRange
	default:
		w.status = AimAimedOutOfRange
	}
}

// reach returns the closest angle the rotator can take to target
func (r Rotator) reach(target float64) (float64, bool) {
	target = physics.WrapAngle(target)
	if !r.Restricted {
		return target, true
	}
	clamped := physics.Clamp(target, r.Min, r.Max)
	return clamped, clamped == target
}

// difference returns the signed rotation from current to target, taking the
// short way around for unrestricted rotators
func (r Rotator) difference(current, target float64) float64 {
	if r.Restricted {
		return target - current
	}
	return physics.WrapAngle(target - current)
}

// closerRollYaw picks between (roll, yaw) and its mirror (roll+pi, -yaw),
// which point the barrels the same way, preferring a reachable pair and
// then the smaller net rotation.
func (w *Weapon) closerRollYaw(roll, yaw float64) [2]float64 {
	primary := [2]float64{roll, yaw}
	mirror := [2]float64{physics.WrapAngle(roll + math.Pi), -yaw}
	pReach, pCost := w.rotationCost(primary)
	mReach, mCost := w.rotationCost(mirror)
	if mReach != pReach {
		if mReach {
			return mirror
		}
		return primary
	}
	if mCost < pCost {
		return mirror
	}
	return primary
}

func (w *Weapon) rotationCost(targets [2]float64) (bool, float64) {
	reachable := true
	cost := 0.0
	for i, rotator := range w.class.Rotators {
		target, ok := rotator.reach(targets[i])
		reachable = reachable && ok
		cost += math.Abs(rotator.difference(w.angles[i], target))
	}
	return reachable, cost
}

// AimTowards turns the weapon towards a world position
func (w *Weapon) AimTowards(target physics.Vector3D, turnThreshold, fireThreshold, dt float64) {
	if !w.class.IsRotatable() || w.craft == nil {
		return
	}
	base := w.WorldPosition()
	offset := target.Sub(base)
	distance := offset.Length()
	if distance == 0 {
		return
	}
	transform := w.craft.Transform()
	d := w.slot.Orientation.Transpose().Apply(transform.DirectionToLocal(offset)).Scale(1 / distance)
	angle1, angle2 := w.anglesFor(d)
	w.RotateTo(angle1, angle2, turnThreshold, fireThreshold, distance <= w.Range(), dt)
}

// anglesFor converts a mount-space unit direction into rotator angles
func (w *Weapon) anglesFor(d physics.Vector3D) (float64, float64) {
	switch w.class.RotationStyle {
	case RotationRollYaw:
		yaw := math.Acos(physics.Clamp(d.Y, -1, 1))
		if math.Abs(math.Sin(yaw)) < 1e-9 {
			return w.angles[0], yaw
		}
		return math.Atan2(d.Z, -d.X), yaw
	default:
		return math.Atan2(-d.X, d.Y), math.Asin(physics.Clamp(d.Z, -1, 1))
	}
}

// ResetRotation turns the weapon back to its default angles
func (w *Weapon) ResetRotation(dt float64) {
	if !w.class.IsRotatable() {
		return
	}
	var defaults [2]float64
	for i, rotator := range w.class.Rotators {
		defaults[i] = rotator.DefaultAngle
	}
	w.RotateTo(defaults[0], defaults[1], 0, 0, false, dt)
	w.status = AimNoTarget
}

// mountRotation returns the rotation produced by the rotators in slot space
func (w *Weapon) mountRotation() physics.Matrix3 {
	switch w.class.RotationStyle {
	case RotationYawPitch:
		return physics.RotationZ(w.angles[0]).Mul(physics.RotationX(w.angles[1]))
	case RotationRollYaw:
		return physics.RotationY(w.angles[0]).Mul(physics.RotationZ(w.angles[1]))
	default:
		return physics.Identity3()
	}
}

// localOrientation is the barrel orientation in the spacecraft's object space
func (w *Weapon) localOrientation() physics.Matrix3 {
	return w.slot.Orientation.Mul(w.mountRotation())
}

func (w *Weapon) localBarrelPosition(barrel Barrel) physics.Vector3D {
	mount := w.class.BasePoint.Add(w.mountRotation().Apply(barrel.Position))
	return w.slot.Position.Add(w.slot.Orientation.Apply(mount))
}

// Orientation returns the world orientation of the barrels
func (w *Weapon) Orientation() physics.Matrix3 {
	if w.craft == nil {
		return w.localOrientation()
	}
	return w.craft.Orientation().Mul(w.localOrientation())
}

// WorldPosition returns the world position of the rotation base point
func (w *Weapon) WorldPosition() physics.Vector3D {
	local := w.slot.Position.Add(w.slot.Orientation.Apply(w.class.BasePoint))
	if w.craft == nil {
		return local
	}
	return w.craft.Transform().ToWorld(local)
}

// Fire launches one projectile per barrel. It fails while cooling down, when
// the weapon has no barrels or is not mounted, and, if onlyIfAimedOrFixed is
// set, unless the weapon is fixed or aimed at a target in range.
func (w *Weapon) Fire(onlyIfAimedOrFixed bool) bool {
	if !w.Ready() || len(w.class.Barrels) == 0 {
		return false
	}
	if onlyIfAimedOrFixed && w.status != AimFixed && w.status != AimAimedInRange {
		return false
	}
	if w.craft == nil || w.craft.world == nil {
		return false
	}
	w.cooldown = 0

	craft := w.craft
	world := craft.world
	moment := world.Settings().MomentDuration
	transform := craft.Transform()
	orientation := w.Orientation()
	forward := orientation.Forward()

	var flashes []EffectRequest
	for _, barrel := range w.class.Barrels {
		class := barrel.ProjectileClass
		position := transform.ToWorld(w.localBarrelPosition(barrel))
		world.SpawnProjectile(class, position, orientation, craft.Velocity().Add(forward.Scale(class.Speed)), craft)

		if class.Mass > 0 && moment > 0 {
			craft.Body().AddForce(forward.Neg(), class.Mass*class.Speed/(moment/1000), moment)
		}
		if class.MuzzleFlashDuration > 0 {
			flashes = mergeFlash(flashes, class, position, craft)
		}
	}
	for _, flash := range flashes {
		flash.Position = flash.Position.Scale(1 / float64(flash.Count))
		world.SpawnEffect(flash)
	}
	return true
}

// mergeFlash accumulates one muzzle flash per projectile class. Position
// holds the sum of barrel positions until the flashes are spawned.
func mergeFlash(flashes []EffectRequest, class *ProjectileClass, position physics.Vector3D, craft *Spacecraft) []EffectRequest {
	for i := range flashes {
		if flashes[i].Class == class.Name {
			flashes[i].Position = flashes[i].Position.Add(position)
			flashes[i].Count++
			return flashes
		}
	}
	return append(flashes, EffectRequest{
		Kind:     EffectMuzzleFlash,
		Class:    class.Name,
		Position: position,
		Velocity: craft.Velocity(),
		Duration: class.MuzzleFlashDuration,
		Count:    1,
		SourceID: craft.ID(),
	})
}

// Class returns the weapon class
func (w *Weapon) Class() *WeaponClass { return w.class }

// Slot returns the mount point
func (w *Weapon) Slot() WeaponSlot { return w.slot }

// AimStatus returns the current aiming state
func (w *Weapon) AimStatus() AimStatus { return w.status }

// IsFixed reports whether the weapon cannot rotate
func (w *Weapon) IsFixed() bool { return !w.class.IsRotatable() }

// Range returns the weapon range in meters
func (w *Weapon) Range() float64 { return w.class.Range() }

// ProjectileSpeed returns the muzzle speed in m/s
func (w *Weapon) ProjectileSpeed() float64 { return w.class.ProjectileSpeed() }

// RotationAngles returns the current rotator angles in radians
func (w *Weapon) RotationAngles() (float64, float64) { return w.angles[0], w.angles[1] }

// Cooldown returns the time accumulated since the last shot in ms
func (w *Weapon) Cooldown() float64 { return w.cooldown }
