// pkg/config/descriptors.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
)

// ClassCatalog lists the class descriptors of every simulated object kind
type ClassCatalog struct {
	ExplosionClasses  []ExplosionClassDescriptor  `json:"explosionClasses"`
	ProjectileClasses []ProjectileClassDescriptor `json:"projectileClasses"`
	WeaponClasses     []WeaponClassDescriptor     `json:"weaponClasses"`
	PropulsionClasses []PropulsionClassDescriptor `json:"propulsionClasses"`
	SpacecraftClasses []SpacecraftClassDescriptor `json:"spacecraftClasses"`
}

// ExplosionClassDescriptor describes an explosion effect
type ExplosionClassDescriptor struct {
	Name string `json:"name"`
	// Duration of the whole effect in ms
	Duration float64 `json:"duration"`
}

// ProjectileClassDescriptor describes a kind of shot
type ProjectileClassDescriptor struct {
	Name   string  `json:"name"`
	Damage float64 `json:"damage"`
	// Speed in m/s relative to the firing weapon
	Speed float64 `json:"speed"`
	// Duration is the lifetime in ms
	Duration  float64 `json:"duration"`
	Size      float64 `json:"size"`
	Mass      float64 `json:"mass"`
	Explosion string  `json:"explosion"`
	// MuzzleFlashDuration in ms; 0 means no flash
	MuzzleFlashDuration float64 `json:"muzzleFlashDuration"`
}

// BarrelDescriptor places one barrel of a weapon
type BarrelDescriptor struct {
	ProjectileClass string    `json:"projectileClass"`
	Position        []float64 `json:"position"`
}

// RotatorDescriptor describes one rotational degree of freedom of a mount.
// Angles are in degrees, rates in degrees per second.
type RotatorDescriptor struct {
	Restricted   bool      `json:"restricted"`
	Range        []float64 `json:"range"`
	DefaultAngle float64   `json:"defaultAngle"`
	RotationRate float64   `json:"rotationRate"`
}

// WeaponClassDescriptor describes a kind of weapon
type WeaponClassDescriptor struct {
	Name string `json:"name"`
	// Cooldown between shots in ms
	Cooldown      float64             `json:"cooldown"`
	RotationStyle string              `json:"rotationStyle"`
	BasePoint     []float64           `json:"basePoint"`
	Barrels       []BarrelDescriptor  `json:"barrels"`
	Rotators      []RotatorDescriptor `json:"rotators"`
}

// PropulsionClassDescriptor describes an engine and its thrusters
type PropulsionClassDescriptor struct {
	Name string `json:"name"`
	// Thrust in N, AngularThrust in N*m
	Thrust           float64 `json:"thrust"`
	AngularThrust    float64 `json:"angularThrust"`
	MaxMoveBurnLevel float64 `json:"maxMoveBurnLevel"`
	MaxTurnBurnLevel float64 `json:"maxTurnBurnLevel"`
}

// OrientationDescriptor is a yaw, pitch, roll sequence in degrees
type OrientationDescriptor struct {
	Yaw   float64 `json:"yaw"`
	Pitch float64 `json:"pitch"`
	Roll  float64 `json:"roll"`
}

// WeaponSlotDescriptor places a weapon mount on a hull
type WeaponSlotDescriptor struct {
	Position    []float64             `json:"position"`
	Orientation OrientationDescriptor `json:"orientation"`
}

// HitboxDescriptor is an object-space box given by center and full size
type HitboxDescriptor struct {
	Center []float64 `json:"center"`
	Size   []float64 `json:"size"`
}

// LoadoutDescriptor equips a spacecraft; Weapons are matched to weapon
// slots by index, an empty name leaves the slot empty
type LoadoutDescriptor struct {
	Name       string   `json:"name"`
	Weapons    []string `json:"weapons"`
	Propulsion string   `json:"propulsion"`
}

// SpacecraftClassDescriptor describes a hull
type SpacecraftClassDescriptor struct {
	Name      string  `json:"name"`
	Model     string  `json:"model"`
	Mass      float64 `json:"mass"`
	Hitpoints float64 `json:"hitpoints"`
	// TurnRate is the maximum turning rate in degrees per second
	TurnRate       float64                `json:"turnRate"`
	Explosion      string                 `json:"explosion"`
	Hitboxes       []HitboxDescriptor     `json:"hitboxes"`
	WeaponSlots    []WeaponSlotDescriptor `json:"weaponSlots"`
	Loadouts       []LoadoutDescriptor    `json:"loadouts"`
	DefaultLoadout string                 `json:"defaultLoadout"`
}

// TeamDescriptor declares a team
type TeamDescriptor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpacecraftDescriptor places a spacecraft in a level
type SpacecraftDescriptor struct {
	Class       string                `json:"class"`
	Name        string                `json:"name"`
	Team        string                `json:"team"`
	Position    []float64             `json:"position"`
	Orientation OrientationDescriptor `json:"orientation"`
	Loadout     string                `json:"loadout"`
	Piloted     bool                  `json:"piloted"`
}

// RandomShipsDescriptor asks the level to scatter extra spacecraft
type RandomShipsDescriptor struct {
	Counts  map[string]int `json:"counts"`
	MapSize float64        `json:"mapSize"`
	Seed    uint64         `json:"seed"`
	// RandomTeams assigns the ships to the declared teams at random
	RandomTeams bool `json:"randomTeams"`
}

// LevelDescriptor describes one battle
type LevelDescriptor struct {
	Name        string                 `json:"name"`
	Teams       []TeamDescriptor       `json:"teams"`
	Spacecrafts []SpacecraftDescriptor `json:"spacecrafts"`
	RandomShips *RandomShipsDescriptor `json:"randomShips,omitempty"`
}

// ParseClasses decodes a class catalog
func ParseClasses(data []byte) (*ClassCatalog, error) {
	var catalog ClassCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse class catalog: %w", err)
	}
	return &catalog, nil
}

// LoadClasses loads a class catalog from a file
func LoadClasses(path string) (*ClassCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read class catalog: %w", err)
	}
	return ParseClasses(data)
}

// ParseLevel decodes a level descriptor
func ParseLevel(data []byte) (*LevelDescriptor, error) {
	var level LevelDescriptor
	if err := json.Unmarshal(data, &level); err != nil {
		return nil, fmt.Errorf("failed to parse level: %w", err)
	}
	return &level, nil
}

// LoadLevel loads a level descriptor from a file
func LoadLevel(path string) (*LevelDescriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read level file: %w", err)
	}
	return ParseLevel(data)
}
