// cmd/skirmish/pilot.go
package main

import (
	"math"

	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

// AggressorPilot flies every spacecraft of a level at the nearest enemy and
// fires once the nose points at it
type AggressorPilot struct {
	// AimTolerance is the angle (radians) within which fixed guns fire
	AimTolerance float64
	// FullTurnAngle is the error at which turning is at full intensity
	FullTurnAngle float64
	// CloseRange is the distance below which the pilot slows down
	CloseRange float64
	// FireOnlyIfAimed is passed to Spacecraft.Fire
	FireOnlyIfAimed bool
}

// NewAggressorPilot creates a pilot with the demo tuning
func NewAggressorPilot(fireOnlyIfAimed bool) *AggressorPilot {
	return &AggressorPilot{
		AimTolerance:    physics.Radians(4),
		FullTurnAngle:   physics.Radians(30),
		CloseRange:      250,
		FireOnlyIfAimed: fireOnlyIfAimed,
	}
}

// Fly issues commands to every living spacecraft. Commands take effect on
// the next tick.
func (p *AggressorPilot) Fly(crafts []*entity.Spacecraft) {
	for _, craft := range crafts {
		if craft.IsHittable() {
			p.fly(craft, crafts)
		}
	}
}

func (p *AggressorPilot) fly(craft *entity.Spacecraft, crafts []*entity.Spacecraft) {
	target := craft.Target()
	if target == nil || !craft.IsHostile(target) {
		target = nearestHostile(craft, crafts)
		craft.SetTarget(target)
	}
	if target == nil {
		craft.StopYaw()
		craft.StopPitch()
		craft.Forward(0)
		return
	}

	aim := target.Position()
	if speed := projectileSpeed(craft); speed > 0 {
		aim, _ = physics.LeadPosition(craft.Position(), craft.Velocity(), target.Position(), target.Velocity(), speed)
	}
	yawError, pitchError := p.steer(craft, aim)

	distance := craft.Position().Distance(target.Position())
	if distance > p.CloseRange {
		craft.Forward(0.8)
	} else {
		craft.Forward(0.3)
	}

	if math.Abs(yawError) < p.AimTolerance && math.Abs(pitchError) < p.AimTolerance && distance < weaponRange(craft) {
		craft.Fire(p.FireOnlyIfAimed)
	}
}

// steer turns towards a world position and returns the remaining yaw and
// pitch errors in radians
func (p *AggressorPilot) steer(craft *entity.Spacecraft, aim physics.Vector3D) (float64, float64) {
	local := craft.Transform().DirectionToLocal(aim.Sub(craft.Position()))
	yawError := math.Atan2(-local.X, local.Y)
	pitchError := math.Atan2(local.Z, math.Hypot(local.X, local.Y))

	if intensity := p.intensity(yawError); yawError > 0 {
		craft.YawLeft(intensity)
	} else {
		craft.YawRight(intensity)
	}
	if intensity := p.intensity(pitchError); pitchError > 0 {
		craft.PitchUp(intensity)
	} else {
		craft.PitchDown(intensity)
	}
	return yawError, pitchError
}

func (p *AggressorPilot) intensity(angleError float64) float64 {
	if p.FullTurnAngle <= 0 {
		return 1
	}
	return math.Min(1, math.Abs(angleError)/p.FullTurnAngle)
}

func nearestHostile(craft *entity.Spacecraft, crafts []*entity.Spacecraft) *entity.Spacecraft {
	var (
		nearest *entity.Spacecraft
		best    = math.Inf(1)
	)
	for _, other := range crafts {
		if !other.IsTargetable() || !craft.IsHostile(other) {
			continue
		}
		if d := craft.Position().Distance(other.Position()); d < best {
			nearest, best = other, d
		}
	}
	return nearest
}

// projectileSpeed is the muzzle speed of the first fixed weapon, which the
// pilot aims with its nose
func projectileSpeed(craft *entity.Spacecraft) float64 {
	for _, w := range craft.Weapons() {
		if w.IsFixed() {
			return w.ProjectileSpeed()
		}
	}
	return 0
}

func weaponRange(craft *entity.Spacecraft) float64 {
	longest := 0.0
	for _, w := range craft.Weapons() {
		longest = math.Max(longest, w.Range())
	}
	return longest
}
