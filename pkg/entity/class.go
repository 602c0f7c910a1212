// pkg/entity/class.go
package entity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

// ExplosionClass describes an explosion effect
type ExplosionClass struct {
	Name string
	// Duration in ms
	Duration float64
}

// ProjectileClass describes a kind of shot
type ProjectileClass struct {
	Name   string
	Damage float64
	// Speed in m/s
	Speed float64
	// Duration is the lifetime in ms
	Duration            float64
	Size                float64
	Mass                float64
	Explosion           *ExplosionClass
	MuzzleFlashDuration float64
}

// Range returns the distance travelled during the projectile's lifetime
func (c *ProjectileClass) Range() float64 {
	return c.Speed * c.Duration / 1000
}

// Rotator is one rotational degree of freedom of a weapon mount.
// Angles are in radians, RotationRate in rad/s.
type Rotator struct {
	Restricted   bool
	Min, Max     float64
	DefaultAngle float64
	RotationRate float64
}

// Barrel is a projectile emitter. Position is relative to the weapon's
// base point, in mount space.
type Barrel struct {
	ProjectileClass *ProjectileClass
	Position        physics.Vector3D
}

// WeaponClass describes a kind of weapon
type WeaponClass struct {
	Name string
	// Cooldown between shots in ms
	Cooldown      float64
	RotationStyle RotationStyle
	// BasePoint is the pivot of the rotators in slot space
	BasePoint physics.Vector3D
	Barrels   []Barrel
	Rotators  []Rotator
}

// IsRotatable reports whether the weapon can aim on its own
func (c *WeaponClass) IsRotatable() bool {
	return c.RotationStyle != RotationNone && len(c.Rotators) > 0
}

// ProjectileSpeed returns the speed of the first barrel's projectile
func (c *WeaponClass) ProjectileSpeed() float64 {
	if len(c.Barrels) == 0 {
		return 0
	}
	return c.Barrels[0].ProjectileClass.Speed
}

// Range returns the longest range among the barrels
func (c *WeaponClass) Range() float64 {
	var r float64
	for _, barrel := range c.Barrels {
		r = math.Max(r, barrel.ProjectileClass.Range())
	}
	return r
}

// PropulsionClass describes an engine with its thrusters
type PropulsionClass struct {
	Name             string
	Thrust           float64
	AngularThrust    float64
	MaxMoveBurnLevel float64
	MaxTurnBurnLevel float64
}

// WeaponSlot is a mount point on a hull
type WeaponSlot struct {
	Position    physics.Vector3D
	Orientation physics.Matrix3
}

// Loadout is a resolved equipment profile. A nil weapon leaves its slot empty.
type Loadout struct {
	Name       string
	Weapons    []*WeaponClass
	Propulsion *PropulsionClass
}

// IsEmpty reports whether equipping the loadout adds nothing
func (l *Loadout) IsEmpty() bool {
	if l.Propulsion != nil {
		return false
	}
	for _, w := range l.Weapons {
		if w != nil {
			return false
		}
	}
	return true
}

// SpacecraftClass describes a hull
type SpacecraftClass struct {
	Name      string
	Model     string
	Mass      float64
	Hitpoints float64
	// TurnRate is the base turning rate limit in rad/s
	TurnRate       float64
	Explosion      *ExplosionClass
	Hitboxes       []physics.Box
	WeaponSlots    []WeaponSlot
	Loadouts       map[string]*Loadout
	DefaultLoadout string
}

// BoundingRadius returns the radius of a sphere around all hitboxes
func (c *SpacecraftClass) BoundingRadius() float64 {
	var r float64
	for _, box := range c.Hitboxes {
		r = math.Max(r, math.Max(box.Min.Length(), box.Max.Length()))
	}
	return r
}

// Catalog resolves classes by name
type Catalog struct {
	explosions  map[string]*ExplosionClass
	projectiles map[string]*ProjectileClass
	weapons     map[string]*WeaponClass
	propulsions map[string]*PropulsionClass
	spacecrafts map[string]*SpacecraftClass
}

// NewCatalog builds and cross-links every class of the descriptor. Any
// invalid or dangling reference is a data error.
func NewCatalog(desc *config.ClassCatalog) (*Catalog, error) {
	c := &Catalog{
		explosions:  make(map[string]*ExplosionClass),
		projectiles: make(map[string]*ProjectileClass),
		weapons:     make(map[string]*WeaponClass),
		propulsions: make(map[string]*PropulsionClass),
		spacecrafts: make(map[string]*SpacecraftClass),
	}
	if desc == nil {
		return c, nil
	}

	for _, d := range desc.ExplosionClasses {
		if err := requireName("explosion class", d.Name, c.explosions); err != nil {
			return nil, err
		}
		if d.Duration < 0 {
			return nil, dataError("explosion class", d.Name, "duration", ErrInvalidValue)
		}
		c.explosions[d.Name] = &ExplosionClass{Name: d.Name, Duration: d.Duration}
	}
	for _, d := range desc.ProjectileClasses {
		class, err := c.buildProjectile(d)
		if err != nil {
			return nil, err
		}
		c.projectiles[d.Name] = class
	}
	for _, d := range desc.WeaponClasses {
		class, err := c.buildWeapon(d)
		if err != nil {
			return nil, err
		}
		c.weapons[d.Name] = class
	}
	for _, d := range desc.PropulsionClasses {
		class, err := buildPropulsion(d)
		if err != nil {
			return nil, err
		}
		if _, dup := c.propulsions[d.Name]; dup {
			return nil, dataError("propulsion class", d.Name, "name", ErrInvalidValue)
		}
		c.propulsions[d.Name] = class
	}
	for _, d := range desc.SpacecraftClasses {
		class, err := c.buildSpacecraft(d)
		if err != nil {
			return nil, err
		}
		c.spacecrafts[d.Name] = class
	}
	return c, nil
}

// LoadCatalog reads a class catalog file and builds it
func LoadCatalog(path string) (*Catalog, error) {
	desc, err := config.LoadClasses(path)
	if err != nil {
		return nil, err
	}
	return NewCatalog(desc)
}

func requireName[T any](kind, name string, existing map[string]T) error {
	if name == "" {
		return dataError(kind, name, "name", ErrMissingField)
	}
	if _, dup := existing[name]; dup {
		return dataError(kind, name, "name", fmt.Errorf("%w: duplicate name", ErrInvalidValue))
	}
	return nil
}

func (c *Catalog) buildProjectile(d config.ProjectileClassDescriptor) (*ProjectileClass, error) {
	const kind = "projectile class"
	if err := requireName(kind, d.Name, c.projectiles); err != nil {
		return nil, err
	}
	if d.Speed <= 0 {
		return nil, dataError(kind, d.Name, "speed", ErrInvalidValue)
	}
	if d.Duration <= 0 {
		return nil, dataError(kind, d.Name, "duration", ErrInvalidValue)
	}
	if d.Mass < 0 || d.Damage < 0 || d.MuzzleFlashDuration < 0 {
		return nil, dataError(kind, d.Name, "", ErrInvalidValue)
	}
	explosion, err := c.optionalExplosion(kind, d.Name, d.Explosion)
	if err != nil {
		return nil, err
	}
	return &ProjectileClass{
		Name:                d.Name,
		Damage:              d.Damage,
		Speed:               d.Speed,
		Duration:            d.Duration,
		Size:                d.Size,
		Mass:                d.Mass,
		Explosion:           explosion,
		MuzzleFlashDuration: d.MuzzleFlashDuration,
	}, nil
}

func (c *Catalog) optionalExplosion(kind, name, explosion string) (*ExplosionClass, error) {
	if explosion == "" {
		return nil, nil
	}
	class, ok := c.explosions[explosion]
	if !ok {
		return nil, dataError(kind, name, "explosion", fmt.Errorf("%w: %q", ErrUnknownClass, explosion))
	}
	return class, nil
}

func (c *Catalog) buildWeapon(d config.WeaponClassDescriptor) (*WeaponClass, error) {
	const kind = "weapon class"
	if err := requireName(kind, d.Name, c.weapons); err != nil {
		return nil, err
	}
	if d.Cooldown < 0 {
		return nil, dataError(kind, d.Name, "cooldown", ErrInvalidValue)
	}
	style, err := ParseRotationStyle(d.RotationStyle)
	if err != nil {
		return nil, dataError(kind, d.Name, "rotationStyle", err)
	}
	basePoint, err := vectorFrom(kind, d.Name, "basePoint", d.BasePoint, false)
	if err != nil {
		return nil, err
	}

	class := &WeaponClass{
		Name:          d.Name,
		Cooldown:      d.Cooldown,
		RotationStyle: style,
		BasePoint:     basePoint,
	}
	for i, b := range d.Barrels {
		field := fmt.Sprintf("barrels[%d]", i)
		projectile, ok := c.projectiles[b.ProjectileClass]
		if !ok {
			return nil, dataError(kind, d.Name, field, fmt.Errorf("%w: %q", ErrUnknownClass, b.ProjectileClass))
		}
		position, err := vectorFrom(kind, d.Name, field+".position", b.Position, true)
		if err != nil {
			return nil, err
		}
		class.Barrels = append(class.Barrels, Barrel{ProjectileClass: projectile, Position: position})
	}

	if len(d.Rotators) > 2 {
		return nil, dataError(kind, d.Name, "rotators", fmt.Errorf("%w: at most 2 rotators", ErrInvalidValue))
	}
	if style != RotationNone && len(d.Rotators) == 0 {
		return nil, dataError(kind, d.Name, "rotators", ErrMissingField)
	}
	for i, r := range d.Rotators {
		field := fmt.Sprintf("rotators[%d]", i)
		rotator := Rotator{
			Restricted:   r.Restricted,
			DefaultAngle: physics.Radians(r.DefaultAngle),
			RotationRate: physics.Radians(r.RotationRate),
		}
		if r.RotationRate <= 0 {
			return nil, dataError(kind, d.Name, field+".rotationRate", ErrInvalidValue)
		}
		if r.Restricted {
			if len(r.Range) == 0 {
				return nil, dataError(kind, d.Name, field+".range", ErrMissingField)
			}
			if len(r.Range) != 2 || r.Range[0] > r.Range[1] {
				return nil, dataError(kind, d.Name, field+".range", ErrInvalidValue)
			}
			rotator.Min = physics.Radians(r.Range[0])
			rotator.Max = physics.Radians(r.Range[1])
			rotator.DefaultAngle = physics.Clamp(rotator.DefaultAngle, rotator.Min, rotator.Max)
		}
		class.Rotators = append(class.Rotators, rotator)
	}
	return class, nil
}

func buildPropulsion(d config.PropulsionClassDescriptor) (*PropulsionClass, error) {
	const kind = "propulsion class"
	if d.Name == "" {
		return nil, dataError(kind, d.Name, "name", ErrMissingField)
	}
	if d.Thrust < 0 || d.AngularThrust < 0 {
		return nil, dataError(kind, d.Name, "thrust", ErrInvalidValue)
	}
	class := &PropulsionClass{
		Name:             d.Name,
		Thrust:           d.Thrust,
		AngularThrust:    d.AngularThrust,
		MaxMoveBurnLevel: d.MaxMoveBurnLevel,
		MaxTurnBurnLevel: d.MaxTurnBurnLevel,
	}
	if class.MaxMoveBurnLevel <= 0 {
		class.MaxMoveBurnLevel = 1
	}
	if class.MaxTurnBurnLevel <= 0 {
		class.MaxTurnBurnLevel = 1
	}
	return class, nil
}

func (c *Catalog) buildSpacecraft(d config.SpacecraftClassDescriptor) (*SpacecraftClass, error) {
	const kind = "spacecraft class"
	if err := requireName(kind, d.Name, c.spacecrafts); err != nil {
		return nil, err
	}
	if d.Mass <= 0 {
		return nil, dataError(kind, d.Name, "mass", ErrInvalidValue)
	}
	if d.Hitpoints <= 0 {
		return nil, dataError(kind, d.Name, "hitpoints", ErrInvalidValue)
	}
	if d.TurnRate < 0 {
		return nil, dataError(kind, d.Name, "turnRate", ErrInvalidValue)
	}
	explosion, err := c.optionalExplosion(kind, d.Name, d.Explosion)
	if err != nil {
		return nil, err
	}

	class := &SpacecraftClass{
		Name:           d.Name,
		Model:          d.Model,
		Mass:           d.Mass,
		Hitpoints:      d.Hitpoints,
		TurnRate:       physics.Radians(d.TurnRate),
		Explosion:      explosion,
		Loadouts:       make(map[string]*Loadout),
		DefaultLoadout: d.DefaultLoadout,
	}

	if len(d.Hitboxes) == 0 {
		return nil, dataError(kind, d.Name, "hitboxes", ErrMissingField)
	}
	for i, h := range d.Hitboxes {
		field := fmt.Sprintf("hitboxes[%d]", i)
		center, err := vectorFrom(kind, d.Name, field+".center", h.Center, false)
		if err != nil {
			return nil, err
		}
		size, err := vectorFrom(kind, d.Name, field+".size", h.Size, true)
		if err != nil {
			return nil, err
		}
		if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
			return nil, dataError(kind, d.Name, field+".size", ErrInvalidValue)
		}
		class.Hitboxes = append(class.Hitboxes, physics.NewBox(center, size.Scale(0.5)))
	}

	for i, s := range d.WeaponSlots {
		field := fmt.Sprintf("weaponSlots[%d].position", i)
		position, err := vectorFrom(kind, d.Name, field, s.Position, true)
		if err != nil {
			return nil, err
		}
		class.WeaponSlots = append(class.WeaponSlots, WeaponSlot{
			Position:    position,
			Orientation: orientationFrom(s.Orientation),
		})
	}

	for _, l := range d.Loadouts {
		loadout, err := c.buildLoadout(class, l)
		if err != nil {
			return nil, err
		}
		class.Loadouts[l.Name] = loadout
	}
	if class.DefaultLoadout != "" {
		if _, ok := class.Loadouts[class.DefaultLoadout]; !ok {
			return nil, dataError(kind, d.Name, "defaultLoadout", fmt.Errorf("%w: loadout %q", ErrUnknownClass, class.DefaultLoadout))
		}
	}
	return class, nil
}

func (c *Catalog) buildLoadout(class *SpacecraftClass, d config.LoadoutDescriptor) (*Loadout, error) {
	const kind = "spacecraft class"
	field := fmt.Sprintf("loadouts[%s]", d.Name)
	if d.Name == "" {
		return nil, dataError(kind, class.Name, "loadouts.name", ErrMissingField)
	}
	if len(d.Weapons) > len(class.WeaponSlots) {
		return nil, dataError(kind, class.Name, field, fmt.Errorf("%w: %d weapons for %d slots", ErrInvalidValue, len(d.Weapons), len(class.WeaponSlots)))
	}
	loadout := &Loadout{Name: d.Name, Weapons: make([]*WeaponClass, len(d.Weapons))}
	for i, name := range d.Weapons {
		if name == "" {
			continue
		}
		weapon, ok := c.weapons[name]
		if !ok {
			return nil, dataError(kind, class.Name, field, fmt.Errorf("%w: weapon %q", ErrUnknownClass, name))
		}
		loadout.Weapons[i] = weapon
	}
	if d.Propulsion != "" {
		propulsion, ok := c.propulsions[d.Propulsion]
		if !ok {
			return nil, dataError(kind, class.Name, field, fmt.Errorf("%w: propulsion %q", ErrUnknownClass, d.Propulsion))
		}
		loadout.Propulsion = propulsion
	}
	return loadout, nil
}

func vectorFrom(kind, name, field string, values []float64, required bool) (physics.Vector3D, error) {
	if values == nil {
		if required {
			return physics.Vector3D{}, dataError(kind, name, field, ErrMissingField)
		}
		return physics.Vector3D{}, nil
	}
	if len(values) != 3 {
		return physics.Vector3D{}, dataError(kind, name, field, fmt.Errorf("%w: expected 3 components, got %d", ErrInvalidValue, len(values)))
	}
	return physics.Vector3D{X: values[0], Y: values[1], Z: values[2]}, nil
}

func orientationFrom(d config.OrientationDescriptor) physics.Matrix3 {
	return physics.FromYawPitchRoll(physics.Radians(d.Yaw), physics.Radians(d.Pitch), physics.Radians(d.Roll))
}

// ExplosionClass looks up an explosion class
func (c *Catalog) ExplosionClass(name string) (*ExplosionClass, error) {
	return lookup(c.explosions, "explosion class", name)
}

// ProjectileClass looks up a projectile class
func (c *Catalog) ProjectileClass(name string) (*ProjectileClass, error) {
	return lookup(c.projectiles, "projectile class", name)
}

// WeaponClass looks up a weapon class
func (c *Catalog) WeaponClass(name string) (*WeaponClass, error) {
	return lookup(c.weapons, "weapon class", name)
}

// PropulsionClass looks up a propulsion class
func (c *Catalog) PropulsionClass(name string) (*PropulsionClass, error) {
	return lookup(c.propulsions, "propulsion class", name)
}

// SpacecraftClass looks up a spacecraft class
func (c *Catalog) SpacecraftClass(name string) (*SpacecraftClass, error) {
	return lookup(c.spacecrafts, "spacecraft class", name)
}

// SpacecraftClassNames returns the sorted names of all hulls
func (c *Catalog) SpacecraftClassNames() []string {
	names := make([]string, 0, len(c.spacecrafts))
	for name := range c.spacecrafts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookup[T any](classes map[string]*T, kind, name string) (*T, error) {
	class, ok := classes[name]
	if !ok {
		return nil, dataError(kind, name, "", ErrUnknownClass)
	}
	return class, nil
}

// RotationStyle selects how a weapon's two rotators map onto aiming angles
type RotationStyle int

const (
	RotationNone RotationStyle = iota
	// RotationYawPitch turns around the mount's up axis, then its right axis
	RotationYawPitch
	// RotationRollYaw turns around the mount's forward axis, then its up axis
	RotationRollYaw
)

// ParseRotationStyle converts a descriptor value
func ParseRotationStyle(s string) (RotationStyle, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return RotationNone, nil
	case "yawpitch":
		return RotationYawPitch, nil
	case "rollyaw":
		return RotationRollYaw, nil
	default:
		return RotationNone, fmt.Errorf("%w: %q", ErrUnknownRotationStyle, s)
	}
}

func (s RotationStyle) String() string {
	switch s {
	case RotationNone:
		return "none"
	case RotationYawPitch:
		return "yawPitch"
	case RotationRollYaw:
		return "rollYaw"
	default:
		return "unknown"
	}
}
