package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

// testWorld records everything the simulation asks of it
type testWorld struct {
	settings    *config.Settings
	crafts      []*Spacecraft
	projectiles []*Projectile
	effects     []EffectRequest
}

func newTestWorld() *testWorld {
	return &testWorld{settings: config.DefaultSettings()}
}

func (w *testWorld) Settings() *config.Settings { return w.settings }

func (w *testWorld) SpawnProjectile(class *ProjectileClass, position physics.Vector3D, orientation physics.Matrix3, velocity physics.Vector3D, origin *Spacecraft) *Projectile {
	p := NewProjectile(class, position, orientation, velocity, origin)
	w.projectiles = append(w.projectiles, p)
	return p
}

func (w *testWorld) SpawnEffect(request EffectRequest) { w.effects = append(w.effects, request) }

func (w *testWorld) Spacecrafts() []*Spacecraft { return w.crafts }

func (w *testWorld) effectsOf(kind EffectKind) []EffectRequest {
	var found []EffectRequest
	for _, e := range w.effects {
		if e.Kind == kind {
			found = append(found, e)
		}
	}
	return found
}

func testCatalogDescriptor() *config.ClassCatalog {
	return &config.ClassCatalog{
		ExplosionClasses: []config.ExplosionClassDescriptor{
			{Name: "small", Duration: 1000},
		},
		ProjectileClasses: []config.ProjectileClassDescriptor{
			{Name: "laser", Damage: 10, Speed: 1000, Duration: 2000, Size: 1, Mass: 0.1, Explosion: "small", MuzzleFlashDuration: 50},
		},
		WeaponClasses: []config.WeaponClassDescriptor{
			{
				Name:     "cannon",
				Cooldown: 200,
				Barrels: []config.BarrelDescriptor{
					{ProjectileClass: "laser", Position: []float64{-1, 2, 0}},
					{ProjectileClass: "laser", Position: []float64{1, 2, 0}},
				},
			},
			{
				Name:          "turret",
				Cooldown:      500,
				RotationStyle: "yawPitch",
				Barrels:       []config.BarrelDescriptor{{ProjectileClass: "laser", Position: []float64{0, 1, 0}}},
				Rotators: []config.RotatorDescriptor{
					{Restricted: true, Range: []float64{-30, 30}, RotationRate: 90},
					{Restricted: true, Range: []float64{-10, 80}, RotationRate: 90},
				},
			},
			{
				Name:          "swivel",
				Cooldown:      500,
				RotationStyle: "yawPitch",
				Barrels:       []config.BarrelDescriptor{{ProjectileClass: "laser", Position: []float64{0, 1, 0}}},
				Rotators: []config.RotatorDescriptor{
					{RotationRate: 90},
					{Restricted: true, Range: []float64{-10, 80}, RotationRate: 90},
				},
			},
			{
				Name:          "rollTurret",
				Cooldown:      500,
				RotationStyle: "rollYaw",
				Barrels:       []config.BarrelDescriptor{{ProjectileClass: "laser", Position: []float64{0, 1, 0}}},
				Rotators: []config.RotatorDescriptor{
					{RotationRate: 180},
					{Restricted: true, Range: []float64{-90, 90}, RotationRate: 180},
				},
			},
		},
		PropulsionClasses: []config.PropulsionClassDescriptor{
			{Name: "engine", Thrust: 1000, AngularThrust: 500, MaxMoveBurnLevel: 1, MaxTurnBurnLevel: 1},
		},
		SpacecraftClasses: []config.SpacecraftClassDescriptor{
			{
				Name:      "fighter",
				Mass:      100,
				Hitpoints: 100,
				TurnRate:  90,
				Explosion: "small",
				Hitboxes:  []config.HitboxDescriptor{{Center: []float64{0, 0, 0}, Size: []float64{4, 6, 2}}},
				WeaponSlots: []config.WeaponSlotDescriptor{
					{Position: []float64{-2, 1, 0}},
					{Position: []float64{2, 1, 0}},
				},
				Loadouts: []config.LoadoutDescriptor{
					{Name: "standard", Weapons: []string{"cannon", "turret"}, Propulsion: "engine"},
					{Name: "swivel", Weapons: []string{"swivel"}, Propulsion: "engine"},
					{Name: "roll", Weapons: []string{"rollTurret"}},
					{Name: "empty"},
				},
				DefaultLoadout: "standard",
			},
		},
	}
}

func testCatalog(t *testing.T) *Catalog {
	t.Helper()
	catalog, err := NewCatalog(testCatalogDescriptor())
	require.NoError(t, err)
	return catalog
}

// newTestCraft creates a fighter registered with the world and equipped with
// the given loadout
func newTestCraft(t *testing.T, world *testWorld, loadout string, position physics.Vector3D, opts ...Option) *Spacecraft {
	t.Helper()
	class, err := testCatalog(t).SpacecraftClass("fighter")
	require.NoError(t, err)
	craft := NewSpacecraft(world, class, position, physics.Identity3(), opts...)
	require.NoError(t, craft.Equip(t.Context(), loadout))
	world.crafts = append(world.crafts, craft)
	return craft
}
