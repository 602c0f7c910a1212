// pkg/entity/maneuvering.go
package entity

import (
	"fmt"
	"math"
	"strings"

	"github.com/opd-ai/go-starfight/pkg/physics"
)

// FlightMode selects how pilot intent is turned into thrust
type FlightMode int

const (
	// FlightModeFree thrusts while a direction is commanded and coasts otherwise
	FlightModeFree FlightMode = iota
	// FlightModeCompensated holds speed targets and cancels drift
	FlightModeCompensated
	// FlightModeRestricted is compensated flight with a speed dependent turn limit
	FlightModeRestricted
	flightModeCount
)

func (m FlightMode) String() string {
	switch m {
	case FlightModeFree:
		return "free"
	case FlightModeCompensated:
		return "compensated"
	case FlightModeRestricted:
		return "restricted"
	default:
		return "unknown"
	}
}

// ParseFlightMode converts a flight mode name
func ParseFlightMode(s string) (FlightMode, error) {
	for m := FlightMode(0); m < flightModeCount; m++ {
		if strings.EqualFold(s, m.String()) {
			return m, nil
		}
	}
	return FlightModeCompensated, fmt.Errorf("%w: flight mode %q", ErrInvalidValue, s)
}

const (
	axisSpeed = iota
	axisStrafe
	axisLift
)

// ManeuveringComputer translates pilot intent into thruster burn levels.
// Pilot calls set targets for the next ControlThrusters call.
type ManeuveringComputer struct {
	craft *Spacecraft
	mode  FlightMode

	speedTarget  float64
	strafeTarget float64
	liftTarget   float64
	yawTarget    float64
	pitchTarget  float64
	rollTarget   float64

	// throttle scales full thrust on the linear axes in free mode
	throttle [3]float64
}

func newManeuveringComputer(craft *Spacecraft) *ManeuveringComputer {
	return &ManeuveringComputer{
		craft:    craft,
		mode:     FlightModeCompensated,
		throttle: [3]float64{1, 1, 1},
	}
}

func intensityOf(intensity []float64) float64 {
	if len(intensity) == 0 {
		return 1
	}
	return physics.Clamp(intensity[0], 0, 1)
}

// FlightMode returns the active flight mode
func (c *ManeuveringComputer) FlightMode() FlightMode { return c.mode }

// SetFlightMode switches modes. Entering a compensated mode keeps the
// current forward speed as target; entering free mode coasts.
func (c *ManeuveringComputer) SetFlightMode(mode FlightMode) {
	if mode == c.mode || mode < 0 || mode >= flightModeCount {
		return
	}
	c.mode = mode
	c.strafeTarget, c.liftTarget = 0, 0
	c.throttle = [3]float64{1, 1, 1}
	if mode == FlightModeFree {
		c.speedTarget = 0
		return
	}
	forward := c.craft.Transform().DirectionToLocal(c.craft.Velocity()).Y
	c.speedTarget = physics.Clamp(forward, -c.MaxReverseSpeed(), c.MaxForwardSpeed())
}

// ChangeFlightMode cycles to the next flight mode
func (c *ManeuveringComputer) ChangeFlightMode() {
	c.SetFlightMode((c.mode + 1) % flightModeCount)
}

// FullAcceleration returns the linear acceleration at full thrust in m/s^2
func (c *ManeuveringComputer) FullAcceleration() float64 {
	prop := c.craft.propulsion
	mass := c.craft.Body().Mass()
	if prop == nil || mass <= 0 {
		return 0
	}
	return prop.Thrust() / mass
}

// FullAngularAcceleration returns the angular acceleration at full thrust in rad/s^2
func (c *ManeuveringComputer) FullAngularAcceleration() float64 {
	prop := c.craft.propulsion
	mass := c.craft.Body().Mass()
	if prop == nil || mass <= 0 {
		return 0
	}
	return prop.AngularThrust() / mass
}

// SpeedIncrement is the change of the speed target per keyboard step
func (c *ManeuveringComputer) SpeedIncrement() float64 {
	return c.FullAcceleration() * c.craft.settings.SpeedIncrementFactor
}

// MaxForwardSpeed is the highest forward speed target in compensated modes
func (c *ManeuveringComputer) MaxForwardSpeed() float64 {
	return c.FullAcceleration() * c.craft.settings.CompensatedForwardSpeedFactor
}

// MaxReverseSpeed is the highest reverse speed target in compensated modes
func (c *ManeuveringComputer) MaxReverseSpeed() float64 {
	return c.FullAcceleration() * c.craft.settings.CompensatedReverseSpeedFactor
}

// MaxStrafeSpeed is the highest strafe speed target in compensated modes
func (c *ManeuveringComputer) MaxStrafeSpeed() float64 {
	return c.FullAcceleration() * c.craft.settings.CompensatedStrafeSpeedFactor
}

// MaxLiftSpeed is the highest lift speed target in compensated modes
func (c *ManeuveringComputer) MaxLiftSpeed() float64 {
	return c.FullAcceleration() * c.craft.settings.CompensatedLiftSpeedFactor
}

// TurningLimit returns the highest turning rate target in rad/s. In
// restricted mode it is the rate the thrusters can sustain at the current
// speed, and the hull's base limit when they can sustain any rate.
func (c *ManeuveringComputer) TurningLimit() float64 {
	base := c.craft.class.TurnRate
	if c.mode != FlightModeRestricted {
		return base
	}
	speed := c.craft.Velocity().Length()
	mass := c.craft.Body().Mass()
	prop := c.craft.propulsion
	if prop == nil || speed <= 0 || mass <= 0 {
		return base
	}
	arg := prop.Thrust() / (mass * speed)
	if arg >= 1 {
		return base
	}
	return math.Min(base, math.Asin(arg))
}

// ControlThrusters asserts the burn levels that move the craft towards its
// targets within dt milliseconds
func (c *ManeuveringComputer) ControlThrusters(dt float64) {
	prop := c.craft.propulsion
	if prop == nil || dt <= 0 {
		return
	}
	seconds := dt / 1000
	transform := c.craft.Transform()

	if accel := c.FullAngularAcceleration(); accel > 0 {
		angular := transform.DirectionToLocal(c.craft.Body().AngularVelocity())
		limit := c.TurningLimit()
		maxTurn := prop.MaxTurnBurnLevel()
		burnAxis(prop, UseYawLeft, UseYawRight, physics.Clamp(c.yawTarget, -limit, limit)-angular.Z, accel, maxTurn, seconds)
		burnAxis(prop, UsePitchUp, UsePitchDown, physics.Clamp(c.pitchTarget, -limit, limit)-angular.X, accel, maxTurn, seconds)
		burnAxis(prop, UseRollRight, UseRollLeft, physics.Clamp(c.rollTarget, -limit, limit)-angular.Y, accel, maxTurn, seconds)
	}

	if accel := c.FullAcceleration(); accel > 0 {
		maxMove := prop.MaxMoveBurnLevel()
		if c.mode == FlightModeFree {
			freeBurn(prop, UseForward, UseReverse, c.speedTarget, c.throttle[axisSpeed]*maxMove)
			freeBurn(prop, UseStrafeRight, UseStrafeLeft, c.strafeTarget, c.throttle[axisStrafe]*maxMove)
			freeBurn(prop, UseRaise, UseLower, c.liftTarget, c.throttle[axisLift]*maxMove)
		} else {
			velocity := transform.DirectionToLocal(c.craft.Velocity())
			burnAxis(prop, UseForward, UseReverse, c.speedTarget-velocity.Y, accel, maxMove, seconds)
			burnAxis(prop, UseStrafeRight, UseStrafeLeft, c.strafeTarget-velocity.X, accel, maxMove, seconds)
			burnAxis(prop, UseRaise, UseLower, c.liftTarget-velocity.Z, accel, maxMove, seconds)
		}
	}

	if c.mode != FlightModeFree {
		c.strafeTarget, c.liftTarget = 0, 0
	}
}

// burnAxis converts a velocity error into the burn level that cancels it
// within one tick
func burnAxis(prop *Propulsion, positive, negative ThrusterUse, err, fullAccel, maxLevel, seconds float64) {
	level := err / fullAccel * maxLevel / seconds
	switch {
	case level > 0:
		prop.AddThrusterBurn(positive, math.Min(level, maxLevel))
	case level < 0:
		prop.AddThrusterBurn(negative, math.Min(-level, maxLevel))
	}
}

func freeBurn(prop *Propulsion, positive, negative ThrusterUse, target, level float64) {
	switch {
	case math.IsInf(target, 1):
		prop.AddThrusterBurn(positive, level)
	case math.IsInf(target, -1):
		prop.AddThrusterBurn(negative, level)
	}
}

// Targets

// SpeedTarget returns the forward speed target in m/s
func (c *ManeuveringComputer) SpeedTarget() float64 { return c.speedTarget }

// StrafeTarget returns the rightward speed target in m/s
func (c *ManeuveringComputer) StrafeTarget() float64 { return c.strafeTarget }

// LiftTarget returns the upward speed target in m/s
func (c *ManeuveringComputer) LiftTarget() float64 { return c.liftTarget }

// YawTarget returns the leftward turning rate target in rad/s
func (c *ManeuveringComputer) YawTarget() float64 { return c.yawTarget }

// PitchTarget returns the upward turning rate target in rad/s
func (c *ManeuveringComputer) PitchTarget() float64 { return c.pitchTarget }

// RollTarget returns the rightward rolling rate target in rad/s
func (c *ManeuveringComputer) RollTarget() float64 { return c.rollTarget }

// SetSpeedTarget sets the forward speed target, clamped in compensated modes
func (c *ManeuveringComputer) SetSpeedTarget(speed float64) {
	if c.mode != FlightModeFree {
		speed = physics.Clamp(speed, -c.MaxReverseSpeed(), c.MaxForwardSpeed())
	}
	c.speedTarget = speed
}

// ResetSpeed brings every linear target to rest
func (c *ManeuveringComputer) ResetSpeed() {
	c.speedTarget, c.strafeTarget, c.liftTarget = 0, 0, 0
}

// Pilot controls. Without intensity a control applies its full extent; an
// intensity in [0, 1] scales it.

// YawLeft turns left
func (c *ManeuveringComputer) YawLeft(intensity ...float64) {
	c.yawTarget = intensityOf(intensity) * c.craft.class.TurnRate
}

// YawRight turns right
func (c *ManeuveringComputer) YawRight(intensity ...float64) {
	c.yawTarget = -intensityOf(intensity) * c.craft.class.TurnRate
}

// PitchUp turns the nose up
func (c *ManeuveringComputer) PitchUp(intensity ...float64) {
	c.pitchTarget = intensityOf(intensity) * c.craft.class.TurnRate
}

// PitchDown turns the nose down
func (c *ManeuveringComputer) PitchDown(intensity ...float64) {
	c.pitchTarget = -intensityOf(intensity) * c.craft.class.TurnRate
}

// RollRight rolls clockwise as seen from behind
func (c *ManeuveringComputer) RollRight(intensity ...float64) {
	c.rollTarget = intensityOf(intensity) * c.craft.class.TurnRate
}

// RollLeft rolls counterclockwise as seen from behind
func (c *ManeuveringComputer) RollLeft(intensity ...float64) {
	c.rollTarget = -intensityOf(intensity) * c.craft.class.TurnRate
}

// Forward raises the speed target by one increment, or sets it to the given
// share of the maximum forward speed
func (c *ManeuveringComputer) Forward(intensity ...float64) {
	if c.mode == FlightModeFree {
		c.speedTarget = math.Inf(1)
		c.throttle[axisSpeed] = intensityOf(intensity)
		return
	}
	if len(intensity) == 0 {
		c.speedTarget = math.Min(c.speedTarget+c.SpeedIncrement(), c.MaxForwardSpeed())
		return
	}
	c.speedTarget = intensityOf(intensity) * c.MaxForwardSpeed()
}

// Reverse lowers the speed target by one increment, or sets it to the given
// share of the maximum reverse speed
func (c *ManeuveringComputer) Reverse(intensity ...float64) {
	if c.mode == FlightModeFree {
		c.speedTarget = math.Inf(-1)
		c.throttle[axisSpeed] = intensityOf(intensity)
		return
	}
	if len(intensity) == 0 {
		c.speedTarget = math.Max(c.speedTarget-c.SpeedIncrement(), -c.MaxReverseSpeed())
		return
	}
	c.speedTarget = -intensityOf(intensity) * c.MaxReverseSpeed()
}

// StrafeRight moves sideways to the right
func (c *ManeuveringComputer) StrafeRight(intensity ...float64) {
	c.strafeTarget = c.linearCommand(axisStrafe, 1, c.MaxStrafeSpeed(), intensity)
}

// StrafeLeft moves sideways to the left
func (c *ManeuveringComputer) StrafeLeft(intensity ...float64) {
	c.strafeTarget = c.linearCommand(axisStrafe, -1, c.MaxStrafeSpeed(), intensity)
}

// Raise moves upwards
func (c *ManeuveringComputer) Raise(intensity ...float64) {
	c.liftTarget = c.linearCommand(axisLift, 1, c.MaxLiftSpeed(), intensity)
}

// Lower moves downwards
func (c *ManeuveringComputer) Lower(intensity ...float64) {
	c.liftTarget = c.linearCommand(axisLift, -1, c.MaxLiftSpeed(), intensity)
}

func (c *ManeuveringComputer) linearCommand(axis int, sign, maxSpeed float64, intensity []float64) float64 {
	if c.mode == FlightModeFree {
		c.throttle[axis] = intensityOf(intensity)
		return math.Inf(int(sign))
	}
	return sign * intensityOf(intensity) * maxSpeed
}

// Directional stops only clear a target set in their own direction.

// StopLeftYaw stops turning left
func (c *ManeuveringComputer) StopLeftYaw() { c.yawTarget = stopPositive(c.yawTarget) }

// StopRightYaw stops turning right
func (c *ManeuveringComputer) StopRightYaw() { c.yawTarget = stopNegative(c.yawTarget) }

// StopYaw stops turning in either direction
func (c *ManeuveringComputer) StopYaw() { c.yawTarget = 0 }

// StopPitchUp stops pitching up
func (c *ManeuveringComputer) StopPitchUp() { c.pitchTarget = stopPositive(c.pitchTarget) }

// StopPitchDown stops pitching down
func (c *ManeuveringComputer) StopPitchDown() { c.pitchTarget = stopNegative(c.pitchTarget) }

// StopPitch stops pitching in either direction
func (c *ManeuveringComputer) StopPitch() { c.pitchTarget = 0 }

// StopRightRoll stops rolling right
func (c *ManeuveringComputer) StopRightRoll() { c.rollTarget = stopPositive(c.rollTarget) }

// StopLeftRoll stops rolling left
func (c *ManeuveringComputer) StopLeftRoll() { c.rollTarget = stopNegative(c.rollTarget) }

// StopRoll stops rolling in either direction
func (c *ManeuveringComputer) StopRoll() { c.rollTarget = 0 }

// StopForward clears a forward speed target
func (c *ManeuveringComputer) StopForward() { c.speedTarget = stopPositive(c.speedTarget) }

// StopReverse clears a reverse speed target
func (c *ManeuveringComputer) StopReverse() { c.speedTarget = stopNegative(c.speedTarget) }

// StopRightStrafe clears a rightward strafe target
func (c *ManeuveringComputer) StopRightStrafe() { c.strafeTarget = stopPositive(c.strafeTarget) }

// StopLeftStrafe clears a leftward strafe target
func (c *ManeuveringComputer) StopLeftStrafe() { c.strafeTarget = stopNegative(c.strafeTarget) }

// StopRaise clears an upward target
func (c *ManeuveringComputer) StopRaise() { c.liftTarget = stopPositive(c.liftTarget) }

// StopLower clears a downward target
func (c *ManeuveringComputer) StopLower() { c.liftTarget = stopNegative(c.liftTarget) }

func stopPositive(target float64) float64 {
	if target > 0 {
		return 0
	}
	return target
}

func stopNegative(target float64) float64 {
	if target < 0 {
		return 0
	}
	return target
}
