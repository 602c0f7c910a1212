// cmd/skirmish/demo.go
package main

import "github.com/opd-ai/go-starfight/pkg/config"

// demoClasses is the built-in catalog used when no class file is given
func demoClasses() *config.ClassCatalog {
	return &config.ClassCatalog{
		ExplosionClasses: []config.ExplosionClassDescriptor{
			{Name: "spark", Duration: 300},
			{Name: "fireball", Duration: 2000},
			{Name: "shockwave", Duration: 4000},
		},
		ProjectileClasses: []config.ProjectileClassDescriptor{
			{Name: "pulse", Damage: 20, Speed: 800, Duration: 1500, Size: 1, Mass: 0.2, Explosion: "spark", MuzzleFlashDuration: 50},
			{Name: "flak", Damage: 45, Speed: 500, Duration: 2500, Size: 2, Mass: 1, Explosion: "fireball", MuzzleFlashDuration: 80},
		},
		WeaponClasses: []config.WeaponClassDescriptor{
			{
				Name:     "pulse cannon",
				Cooldown: 250,
				Barrels: []config.BarrelDescriptor{
					{ProjectileClass: "pulse", Position: []float64{-0.5, 2, 0}},
					{ProjectileClass: "pulse", Position: []float64{0.5, 2, 0}},
				},
			},
			{
				Name:          "flak turret",
				Cooldown:      900,
				RotationStyle: "yawPitch",
				BasePoint:     []float64{0, 0, 1},
				Barrels:       []config.BarrelDescriptor{{ProjectileClass: "flak", Position: []float64{0, 3, 0}}},
				Rotators: []config.RotatorDescriptor{
					{RotationRate: 60},
					{Restricted: true, Range: []float64{-5, 85}, RotationRate: 45},
				},
			},
		},
		PropulsionClasses: []config.PropulsionClassDescriptor{
			{Name: "ion drive", Thrust: 20000, AngularThrust: 8000, MaxMoveBurnLevel: 1, MaxTurnBurnLevel: 1},
			{Name: "fusion drive", Thrust: 60000, AngularThrust: 30000, MaxMoveBurnLevel: 1, MaxTurnBurnLevel: 0.5},
		},
		SpacecraftClasses: []config.SpacecraftClassDescriptor{
			{
				Name:      "falcon",
				Model:     "models/falcon.glb",
				Mass:      1000,
				Hitpoints: 200,
				TurnRate:  60,
				Explosion: "fireball",
				Hitboxes:  []config.HitboxDescriptor{{Center: []float64{0, 0, 0}, Size: []float64{8, 12, 4}}},
				WeaponSlots: []config.WeaponSlotDescriptor{
					{Position: []float64{-3, 4, 0}},
					{Position: []float64{3, 4, 0}},
				},
				Loadouts: []config.LoadoutDescriptor{
					{Name: "standard", Weapons: []string{"pulse cannon", "pulse cannon"}, Propulsion: "ion drive"},
				},
				DefaultLoadout: "standard",
			},
			{
				Name:      "bulwark",
				Model:     "models/bulwark.glb",
				Mass:      5000,
				Hitpoints: 800,
				TurnRate:  25,
				Explosion: "shockwave",
				Hitboxes: []config.HitboxDescriptor{
					{Center: []float64{0, 0, 0}, Size: []float64{14, 40, 10}},
					{Center: []float64{0, -12, 6}, Size: []float64{8, 10, 4}},
				},
				WeaponSlots: []config.WeaponSlotDescriptor{
					{Position: []float64{0, 14, 5}},
					{Position: []float64{0, -6, 5}, Orientation: config.OrientationDescriptor{Yaw: 180}},
					{Position: []float64{0, 20, 0}},
				},
				Loadouts: []config.LoadoutDescriptor{
					{Name: "escort", Weapons: []string{"flak turret", "flak turret", "pulse cannon"}, Propulsion: "fusion drive"},
				},
				DefaultLoadout: "escort",
			},
		},
	}
}

// demoLevel is the built-in battle used when no level file is given
func demoLevel(seed uint64) *config.LevelDescriptor {
	return &config.LevelDescriptor{
		Name: "demo skirmish",
		Teams: []config.TeamDescriptor{
			{ID: "empire", Name: "Empire"},
			{ID: "rebels", Name: "Rebels"},
		},
		Spacecrafts: []config.SpacecraftDescriptor{
			{Class: "falcon", Name: "Red Leader", Team: "rebels", Piloted: true, Position: []float64{0, -600, 0}},
			{Class: "falcon", Name: "Red Two", Team: "rebels", Position: []float64{40, -620, 0}},
			{Class: "bulwark", Name: "Anvil", Team: "empire", Position: []float64{0, 600, 0}, Orientation: config.OrientationDescriptor{Yaw: 180}},
		},
		RandomShips: &config.RandomShipsDescriptor{
			Counts:      map[string]int{"falcon": 4},
			MapSize:     1500,
			Seed:        seed,
			RandomTeams: true,
		},
	}
}
