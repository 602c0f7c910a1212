package engine

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/event"
	"github.com/opd-ai/go-starfight/pkg/logging"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

func testCatalogDescriptor() *config.ClassCatalog {
	return &config.ClassCatalog{
		ExplosionClasses: []config.ExplosionClassDescriptor{
			{Name: "blast", Duration: 500},
		},
		ProjectileClasses: []config.ProjectileClassDescriptor{
			{Name: "slug", Damage: 25, Speed: 1000, Duration: 1000, Size: 1, Explosion: "blast", MuzzleFlashDuration: 40},
		},
		WeaponClasses: []config.WeaponClassDescriptor{
			{
				Name:    "gun",
				Barrels: []config.BarrelDescriptor{{ProjectileClass: "slug", Position: []float64{0, 0, 0}}},
			},
		},
		PropulsionClasses: []config.PropulsionClassDescriptor{
			{Name: "engine", Thrust: 1000, AngularThrust: 500, MaxMoveBurnLevel: 1, MaxTurnBurnLevel: 1},
		},
		SpacecraftClasses: []config.SpacecraftClassDescriptor{
			{
				Name:        "fighter",
				Model:       "fighter.model",
				Mass:        100,
				Hitpoints:   50,
				TurnRate:    90,
				Explosion:   "blast",
				Hitboxes:    []config.HitboxDescriptor{{Center: []float64{0, 0, 0}, Size: []float64{10, 10, 10}}},
				WeaponSlots: []config.WeaponSlotDescriptor{{Position: []float64{0, 6, 0}}},
				Loadouts: []config.LoadoutDescriptor{
					{Name: "armed", Weapons: []string{"gun"}, Propulsion: "engine"},
					{Name: "unarmed", Propulsion: "engine"},
				},
				DefaultLoadout: "armed",
			},
			{
				Name:      "drone",
				Model:     "drone.model",
				Mass:      10,
				Hitpoints: 10,
				Hitboxes:  []config.HitboxDescriptor{{Center: []float64{0, 0, 0}, Size: []float64{2, 2, 2}}},
			},
		},
	}
}

func testCatalog(t *testing.T) *entity.Catalog {
	t.Helper()
	catalog, err := entity.NewCatalog(testCatalogDescriptor())
	require.NoError(t, err)
	return catalog
}

// newTestLevel creates a level with default settings and a silent logger
func newTestLevel(t *testing.T, settings *config.Settings, opts ...Option) *Level {
	t.Helper()
	if settings == nil {
		settings = config.DefaultSettings()
	}
	opts = append([]Option{WithLogger(logging.Discard())}, opts...)
	level, err := NewLevel(settings, testCatalog(t), opts...)
	require.NoError(t, err)
	t.Cleanup(level.Destroy)
	return level
}

func spawnFighter(t *testing.T, level *Level, name string, position physics.Vector3D) *entity.Spacecraft {
	t.Helper()
	craft, err := level.Spawn(t.Context(), SpawnRequest{Class: "fighter", Name: name, Position: position})
	require.NoError(t, err)
	return craft
}

// eventLog records events published on a bus
type eventLog struct {
	mu     sync.Mutex
	events []event.Event
}

func recordEvents(bus *event.Bus, types ...event.Type) *eventLog {
	log := &eventLog{}
	for _, eventType := range types {
		bus.Subscribe(eventType, func(e event.Event) {
			log.mu.Lock()
			defer log.mu.Unlock()
			log.events = append(log.events, e)
		})
	}
	return log
}

func (l *eventLog) of(eventType event.Type) []event.Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	var found []event.Event
	for _, e := range l.events {
		if e.GetType() == eventType {
			found = append(found, e)
		}
	}
	return found
}

// recordingEnvironment counts simulated time and recenter offsets
type recordingEnvironment struct {
	ticks   int
	elapsed float64
	offset  physics.Vector3D
	// seen is the spacecraft count observed on each tick
	level *Level
	seen  []int
}

func (e *recordingEnvironment) Simulate(dt float64) {
	e.ticks++
	e.elapsed += dt
	if e.level != nil {
		e.seen = append(e.seen, len(e.level.Spacecrafts()))
	}
}

func (e *recordingEnvironment) Translate(offset physics.Vector3D) {
	e.offset = e.offset.Add(offset)
}
