// pkg/entity/entity.go
package entity

import (
	"errors"
	"fmt"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

// ErrInvalidData marks configuration and content errors that must stop the
// caller. Every data error wraps it.
var ErrInvalidData = errors.New("invalid data")

// Data error sentinels
var (
	ErrMissingField         = fmt.Errorf("%w: missing required field", ErrInvalidData)
	ErrInvalidValue         = fmt.Errorf("%w: invalid value", ErrInvalidData)
	ErrUnknownRotationStyle = fmt.Errorf("%w: unknown rotation style", ErrInvalidData)
	ErrUnknownClass         = fmt.Errorf("%w: unknown class", ErrInvalidData)
)

// DataError describes which descriptor field was rejected
type DataError struct {
	Kind  string
	Name  string
	Field string
	Err   error
}

func (e *DataError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s %q: %v", e.Kind, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %q, field %q: %v", e.Kind, e.Name, e.Field, e.Err)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// IsFatal reports whether err is a data error
func IsFatal(err error) bool {
	return errors.Is(err, ErrInvalidData)
}

func dataError(kind, name, field string, err error) error {
	return &DataError{Kind: kind, Name: name, Field: field, Err: err}
}

// EffectKind identifies a visual effect the simulation asks the host to show
type EffectKind int

const (
	EffectExplosion EffectKind = iota
	EffectMuzzleFlash
)

func (k EffectKind) String() string {
	switch k {
	case EffectExplosion:
		return "explosion"
	case EffectMuzzleFlash:
		return "muzzle_flash"
	default:
		return "unknown"
	}
}

// EffectRequest asks the world to spawn a short-lived effect
type EffectRequest struct {
	Kind     EffectKind
	Class    string
	Position physics.Vector3D
	Velocity physics.Vector3D
	// Duration in ms
	Duration float64
	// Count is the number of sources merged into one effect
	Count    int
	SourceID uint64
}

// World is what spacecraft, weapons and projectiles need from the battle
// they take part in.
type World interface {
	Settings() *config.Settings
	// SpawnProjectile takes a projectile from the shared pool and launches it
	SpawnProjectile(class *ProjectileClass, position physics.Vector3D, orientation physics.Matrix3, velocity physics.Vector3D, origin *Spacecraft) *Projectile
	SpawnEffect(request EffectRequest)
	Spacecrafts() []*Spacecraft
}
