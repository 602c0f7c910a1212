// pkg/engine/loader.go
package engine

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/physics"
)

// SpawnRequest describes a spacecraft the level should create
type SpawnRequest struct {
	Class       string
	Name        string
	Team        string
	Position    physics.Vector3D
	Orientation physics.Matrix3
	Loadout     string
	Piloted     bool
}

// Spawn creates, equips and adds a spacecraft. Unknown classes, teams and
// loadouts are data errors.
func (l *Level) Spawn(ctx context.Context, req SpawnRequest) (*entity.Spacecraft, error) {
	class, err := l.catalog.SpacecraftClass(req.Class)
	if err != nil {
		return nil, err
	}

	opts := []entity.Option{entity.WithLogger(l.logger)}
	if req.Name != "" {
		opts = append(opts, entity.WithName(req.Name))
	}
	if req.Team != "" {
		team := l.Team(req.Team)
		if team == nil {
			return nil, levelError(l.name, "team", fmt.Errorf("%w: unknown team %q", entity.ErrInvalidValue, req.Team))
		}
		opts = append(opts, entity.WithTeam(team))
	}
	if l.policy != nil {
		opts = append(opts, entity.WithDestructionPolicy(l.policy))
	}
	if req.Piloted {
		opts = append(opts, entity.Piloted())
	}

	orientation := req.Orientation
	if orientation == (physics.Matrix3{}) {
		orientation = physics.Identity3()
	}
	craft := entity.NewSpacecraft(l, class, req.Position, orientation, opts...)
	if err := craft.Equip(ctx, req.Loadout); err != nil {
		return nil, err
	}
	l.AddSpacecraft(craft)
	return craft, nil
}

// LoadFromDescriptor populates the level from a level descriptor. The
// first data error stops loading; spacecraft created before it stay.
func (l *Level) LoadFromDescriptor(ctx context.Context, desc *config.LevelDescriptor) error {
	if desc == nil {
		return levelError(l.name, "", fmt.Errorf("%w: no level descriptor", entity.ErrMissingField))
	}
	if desc.Name != "" {
		l.name = desc.Name
	}

	for i, t := range desc.Teams {
		if t.ID == "" {
			return levelError(l.name, fmt.Sprintf("teams[%d].id", i), entity.ErrMissingField)
		}
		l.AddTeam(t.ID, t.Name)
	}

	for i, sd := range desc.Spacecrafts {
		req, err := l.spawnRequestFrom(ctx, i, sd)
		if err != nil {
			return err
		}
		if _, err := l.Spawn(ctx, req); err != nil {
			return fmt.Errorf("spacecrafts[%d]: %w", i, err)
		}
	}

	if desc.RandomShips != nil {
		if err := l.AddRandomShips(ctx, *desc.RandomShips); err != nil {
			return err
		}
	}

	l.logger.Info(ctx, "level loaded",
		"name", l.name,
		"teams", len(l.teamOrder),
		"spacecrafts", len(l.spacecrafts),
	)
	return nil
}

// spawnRequestFrom converts one spacecraft descriptor. A missing position
// is recoverable and defaults to the origin.
func (l *Level) spawnRequestFrom(ctx context.Context, index int, sd config.SpacecraftDescriptor) (SpawnRequest, error) {
	levelName := l.name
	field := fmt.Sprintf("spacecrafts[%d]", index)
	if sd.Class == "" {
		return SpawnRequest{}, levelError(levelName, field+".class", entity.ErrMissingField)
	}
	var position physics.Vector3D
	switch len(sd.Position) {
	case 0:
		l.logger.Warn(ctx, "spacecraft position missing, using origin",
			"level_name", levelName,
			"index", index,
			"class", sd.Class,
		)
	case 3:
		position = physics.Vector3D{X: sd.Position[0], Y: sd.Position[1], Z: sd.Position[2]}
	default:
		return SpawnRequest{}, levelError(levelName, field+".position",
			fmt.Errorf("%w: expected 3 components, got %d", entity.ErrInvalidValue, len(sd.Position)))
	}
	return SpawnRequest{
		Class:    sd.Class,
		Name:     sd.Name,
		Team:     sd.Team,
		Position: position,
		Orientation: physics.FromYawPitchRoll(
			physics.Radians(sd.Orientation.Yaw),
			physics.Radians(sd.Orientation.Pitch),
			physics.Radians(sd.Orientation.Roll),
		),
		Loadout: sd.Loadout,
		Piloted: sd.Piloted,
	}, nil
}

// LoadLevelFile reads a level descriptor from a JSON file and loads it
func (l *Level) LoadLevelFile(ctx context.Context, path string) error {
	desc, err := config.LoadLevel(path)
	if err != nil {
		return levelError(path, "", fmt.Errorf("%w: %v", entity.ErrInvalidData, err))
	}
	return l.LoadFromDescriptor(ctx, desc)
}

// AddRandomShips scatters spacecraft of the requested classes inside a cube
// of MapSize meters around the origin with random headings. The same seed
// produces the same battle.
func (l *Level) AddRandomShips(ctx context.Context, desc config.RandomShipsDescriptor) error {
	if desc.MapSize < 0 {
		return levelError(l.name, "randomShips.mapSize", fmt.Errorf("%w: negative map size", entity.ErrInvalidValue))
	}
	rng := rand.New(rand.NewPCG(desc.Seed, desc.Seed^0x9e3779b97f4a7c15))

	classes := make([]string, 0, len(desc.Counts))
	for class := range desc.Counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)

	half := desc.MapSize / 2
	for _, class := range classes {
		for i := 0; i < desc.Counts[class]; i++ {
			req := SpawnRequest{
				Class: class,
				Name:  fmt.Sprintf("%s %d", class, i+1),
				Position: physics.Vector3D{
					X: (rng.Float64()*2 - 1) * half,
					Y: (rng.Float64()*2 - 1) * half,
					Z: (rng.Float64()*2 - 1) * half,
				},
				Orientation: physics.RotationZ(rng.Float64() * 2 * math.Pi),
			}
			if desc.RandomTeams && len(l.teamOrder) > 0 {
				req.Team = l.teamOrder[rng.IntN(len(l.teamOrder))].ID
			}
			if _, err := l.Spawn(ctx, req); err != nil {
				return fmt.Errorf("random %s: %w", class, err)
			}
		}
	}
	return nil
}

func levelError(name, field string, err error) error {
	return &entity.DataError{Kind: "level", Name: name, Field: field, Err: err}
}
