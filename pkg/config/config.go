// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables overriding settings
const EnvPrefix = "STARFIGHT"

// Settings holds the tuning constants of the simulation core. They are read
// once at startup and passed to the level; nothing modifies them afterwards.
type Settings struct {
	// SelfFire lets projectiles hit the spacecraft that fired them
	SelfFire bool `json:"selfFire" mapstructure:"selfFire"`
	// MomentDuration is how long (ms) hit impulses and recoil forces act
	MomentDuration float64 `json:"momentDuration" mapstructure:"momentDuration"`

	SpeedIncrementFactor          float64 `json:"speedIncrementFactor" mapstructure:"speedIncrementFactor"`
	CompensatedForwardSpeedFactor float64 `json:"compensatedForwardSpeedFactor" mapstructure:"compensatedForwardSpeedFactor"`
	CompensatedReverseSpeedFactor float64 `json:"compensatedReverseSpeedFactor" mapstructure:"compensatedReverseSpeedFactor"`
	CompensatedStrafeSpeedFactor  float64 `json:"compensatedStrafeSpeedFactor" mapstructure:"compensatedStrafeSpeedFactor"`
	CompensatedLiftSpeedFactor    float64 `json:"compensatedLiftSpeedFactor" mapstructure:"compensatedLiftSpeedFactor"`

	// Weapon aiming thresholds in degrees
	WeaponTurnThreshold float64 `json:"weaponTurnThreshold" mapstructure:"weaponTurnThreshold"`
	WeaponFireThreshold float64 `json:"weaponFireThreshold" mapstructure:"weaponFireThreshold"`
	FireOnlyIfAimed     bool    `json:"fireOnlyIfAimed" mapstructure:"fireOnlyIfAimed"`

	// DestructionDelayFraction is the share of the explosion after which a
	// destroyed spacecraft is finalized
	DestructionDelayFraction float64 `json:"destructionDelayFraction" mapstructure:"destructionDelayFraction"`

	OctreeMaxDepth   int `json:"octreeMaxDepth" mapstructure:"octreeMaxDepth"`
	OctreeMaxObjects int `json:"octreeMaxObjects" mapstructure:"octreeMaxObjects"`

	// RecenterDistance is the camera distance from the origin that triggers
	// moving the world back; 0 disables recentering
	RecenterDistance float64 `json:"recenterDistance" mapstructure:"recenterDistance"`

	ShowHitboxes           bool `json:"showHitboxes" mapstructure:"showHitboxes"`
	MinimumInstancingCount int  `json:"minimumInstancingCount" mapstructure:"minimumInstancingCount"`
	EngineSoundGrades      int  `json:"engineSoundGrades" mapstructure:"engineSoundGrades"`
}

// DefaultSettings returns the default tuning
func DefaultSettings() *Settings {
	return &Settings{
		SelfFire:                      false,
		MomentDuration:                1,
		SpeedIncrementFactor:          0.05,
		CompensatedForwardSpeedFactor: 5,
		CompensatedReverseSpeedFactor: 2,
		CompensatedStrafeSpeedFactor:  1,
		CompensatedLiftSpeedFactor:    1,
		WeaponTurnThreshold:           0.05,
		WeaponFireThreshold:           2,
		FireOnlyIfAimed:               true,
		DestructionDelayFraction:      0.3,
		OctreeMaxDepth:                4,
		OctreeMaxObjects:              6,
		RecenterDistance:              5000,
		ShowHitboxes:                  false,
		MinimumInstancingCount:        4,
		EngineSoundGrades:             5,
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultSettings()
	v.SetDefault("selfFire", d.SelfFire)
	v.SetDefault("momentDuration", d.MomentDuration)
	v.SetDefault("speedIncrementFactor", d.SpeedIncrementFactor)
	v.SetDefault("compensatedForwardSpeedFactor", d.CompensatedForwardSpeedFactor)
	v.SetDefault("compensatedReverseSpeedFactor", d.CompensatedReverseSpeedFactor)
	v.SetDefault("compensatedStrafeSpeedFactor", d.CompensatedStrafeSpeedFactor)
	v.SetDefault("compensatedLiftSpeedFactor", d.CompensatedLiftSpeedFactor)
	v.SetDefault("weaponTurnThreshold", d.WeaponTurnThreshold)
	v.SetDefault("weaponFireThreshold", d.WeaponFireThreshold)
	v.SetDefault("fireOnlyIfAimed", d.FireOnlyIfAimed)
	v.SetDefault("destructionDelayFraction", d.DestructionDelayFraction)
	v.SetDefault("octreeMaxDepth", d.OctreeMaxDepth)
	v.SetDefault("octreeMaxObjects", d.OctreeMaxObjects)
	v.SetDefault("recenterDistance", d.RecenterDistance)
	v.SetDefault("showHitboxes", d.ShowHitboxes)
	v.SetDefault("minimumInstancingCount", d.MinimumInstancingCount)
	v.SetDefault("engineSoundGrades", d.EngineSoundGrades)
}

// LoadSettings reads settings from a JSON file, applies STARFIGHT_*
// environment overrides and validates the result. An empty path loads the
// defaults with environment overrides only.
func LoadSettings(path string) (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read settings file: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse settings: %w", err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return &settings, nil
}

// SaveSettings writes settings to a JSON file
func SaveSettings(settings *Settings, path string) error {
	if settings == nil {
		return errors.New("cannot save nil settings")
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}
	return nil
}

// Validate checks that the settings can drive a simulation
func (s *Settings) Validate() error {
	var errs []error
	if s.MomentDuration <= 0 {
		errs = append(errs, fmt.Errorf("momentDuration must be positive, got %v", s.MomentDuration))
	}
	if s.SpeedIncrementFactor <= 0 {
		errs = append(errs, fmt.Errorf("speedIncrementFactor must be positive, got %v", s.SpeedIncrementFactor))
	}
	for name, factor := range map[string]float64{
		"compensatedForwardSpeedFactor": s.CompensatedForwardSpeedFactor,
		"compensatedReverseSpeedFactor": s.CompensatedReverseSpeedFactor,
		"compensatedStrafeSpeedFactor":  s.CompensatedStrafeSpeedFactor,
		"compensatedLiftSpeedFactor":    s.CompensatedLiftSpeedFactor,
	} {
		if factor < 0 {
			errs = append(errs, fmt.Errorf("%s cannot be negative, got %v", name, factor))
		}
	}
	if s.WeaponTurnThreshold < 0 || s.WeaponFireThreshold < 0 {
		errs = append(errs, errors.New("weapon thresholds cannot be negative"))
	}
	if s.DestructionDelayFraction < 0 || s.DestructionDelayFraction > 1 {
		errs = append(errs, fmt.Errorf("destructionDelayFraction must be within [0, 1], got %v", s.DestructionDelayFraction))
	}
	if s.OctreeMaxDepth < 0 || s.OctreeMaxObjects < 1 {
		errs = append(errs, fmt.Errorf("invalid octree limits: depth %d, objects %d", s.OctreeMaxDepth, s.OctreeMaxObjects))
	}
	if s.RecenterDistance < 0 {
		errs = append(errs, fmt.Errorf("recenterDistance cannot be negative, got %v", s.RecenterDistance))
	}
	if s.EngineSoundGrades < 1 {
		errs = append(errs, fmt.Errorf("engineSoundGrades must be at least 1, got %d", s.EngineSoundGrades))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid settings: %w", errors.Join(errs...))
	}
	return nil
}
