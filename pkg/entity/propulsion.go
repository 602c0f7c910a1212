// pkg/entity/propulsion.go
package entity

import (
	"math"

	"github.com/opd-ai/go-starfight/pkg/physics"
)

// ThrusterUse names a directional thruster group
type ThrusterUse int

const (
	UseForward ThrusterUse = iota
	UseReverse
	UseStrafeLeft
	UseStrafeRight
	UseRaise
	UseLower
	UseYawLeft
	UseYawRight
	UsePitchUp
	UsePitchDown
	UseRollLeft
	UseRollRight
	thrusterUseCount
)

var thrusterUseNames = [thrusterUseCount]string{
	"forward", "reverse", "strafeLeft", "strafeRight", "raise", "lower",
	"yawLeft", "yawRight", "pitchUp", "pitchDown", "rollLeft", "rollRight",
}

func (u ThrusterUse) String() string {
	if u < 0 || u >= thrusterUseCount {
		return "unknown"
	}
	return thrusterUseNames[u]
}

// IsTurn reports whether the use produces torque
func (u ThrusterUse) IsTurn() bool {
	return u >= UseYawLeft && u < thrusterUseCount
}

// AllThrusterUses lists every thruster use in a fixed order
func AllThrusterUses() []ThrusterUse {
	uses := make([]ThrusterUse, thrusterUseCount)
	for i := range uses {
		uses[i] = ThrusterUse(i)
	}
	return uses
}

// Propulsion turns per-tick burn levels into forces on a body. Burn levels
// are an assertion for one tick only and are zeroed by ResetThrusterBurn.
type Propulsion struct {
	class *PropulsionClass
	body  physics.Body
	burn  [thrusterUseCount]float64

	soundGrades int
	soundGrade  int
	soundOn     bool
}

// NewPropulsion creates a propulsion whose engine sound is quantized into
// soundGrades volume steps
func NewPropulsion(class *PropulsionClass, soundGrades int) *Propulsion {
	if soundGrades < 1 {
		soundGrades = 1
	}
	return &Propulsion{class: class, soundGrades: soundGrades}
}

func (p *Propulsion) attach(body physics.Body) {
	p.body = body
}

// ResetThrusterBurn zeroes every burn level
func (p *Propulsion) ResetThrusterBurn() {
	p.burn = [thrusterUseCount]float64{}
}

// AddThrusterBurn raises the burn level of a use, saturating at its maximum
func (p *Propulsion) AddThrusterBurn(use ThrusterUse, value float64) {
	if use < 0 || use >= thrusterUseCount || value <= 0 {
		return
	}
	p.burn[use] = math.Min(p.burn[use]+value, p.maxBurn(use))
}

// ThrusterBurn returns the current burn level of a use
func (p *Propulsion) ThrusterBurn(use ThrusterUse) float64 {
	if use < 0 || use >= thrusterUseCount {
		return 0
	}
	return p.burn[use]
}

func (p *Propulsion) maxBurn(use ThrusterUse) float64 {
	if use.IsTurn() {
		return p.class.MaxTurnBurnLevel
	}
	return p.class.MaxMoveBurnLevel
}

// MaxMoveBurnLevel returns the burn level of full linear thrust
func (p *Propulsion) MaxMoveBurnLevel() float64 { return p.class.MaxMoveBurnLevel }

// MaxTurnBurnLevel returns the burn level of full angular thrust
func (p *Propulsion) MaxTurnBurnLevel() float64 { return p.class.MaxTurnBurnLevel }

// Thrust returns the full linear thrust in N
func (p *Propulsion) Thrust() float64 { return p.class.Thrust }

// AngularThrust returns the full angular thrust in N*m
func (p *Propulsion) AngularThrust() float64 { return p.class.AngularThrust }

// Class returns the propulsion class
func (p *Propulsion) Class() *PropulsionClass { return p.class }

// Simulate applies the accumulated burn for dt milliseconds. With
// applyForces false only the engine sound state is updated.
func (p *Propulsion) Simulate(dt float64, applyForces bool) {
	p.updateSound()
	if !applyForces || p.body == nil || dt <= 0 {
		return
	}
	orientation := p.body.Orientation()
	move := p.class.Thrust / p.class.MaxMoveBurnLevel
	turn := p.class.AngularThrust / p.class.MaxTurnBurnLevel

	p.body.AddOrRenewForce("thrust_forward", orientation.Forward(), move*(p.burn[UseForward]-p.burn[UseReverse]), dt)
	p.body.AddOrRenewForce("thrust_strafe", orientation.Right(), move*(p.burn[UseStrafeRight]-p.burn[UseStrafeLeft]), dt)
	p.body.AddOrRenewForce("thrust_lift", orientation.Up(), move*(p.burn[UseRaise]-p.burn[UseLower]), dt)
	p.body.AddOrRenewTorque("thrust_yaw", orientation.Up(), turn*(p.burn[UseYawLeft]-p.burn[UseYawRight]), dt)
	p.body.AddOrRenewTorque("thrust_pitch", orientation.Right(), turn*(p.burn[UsePitchUp]-p.burn[UsePitchDown]), dt)
	p.body.AddOrRenewTorque("thrust_roll", orientation.Forward(), turn*(p.burn[UseRollRight]-p.burn[UseRollLeft]), dt)
}

// updateSound stacks the relative burn of all uses into a volume in [0, 1]
// and quantizes it
func (p *Propulsion) updateSound() {
	var volume float64
	for use := ThrusterUse(0); use < thrusterUseCount; use++ {
		if limit := p.maxBurn(use); limit > 0 {
			volume += p.burn[use] / limit
		}
	}
	volume = math.Min(volume, 1)
	p.soundGrade = int(math.Ceil(volume * float64(p.soundGrades)))
	p.soundOn = p.soundGrade > 0
}

// SoundGrade returns the quantized engine volume, 0 meaning silent
func (p *Propulsion) SoundGrade() int {
	if !p.soundOn {
		return 0
	}
	return p.soundGrade
}

// SoundGrades returns the number of volume steps
func (p *Propulsion) SoundGrades() int { return p.soundGrades }

// StopSound silences the engine until the next Simulate
func (p *Propulsion) StopSound() {
	p.soundOn = false
	p.soundGrade = 0
}
