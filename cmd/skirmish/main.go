// cmd/skirmish/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/EngoEngine/ecs"

	"github.com/opd-ai/go-starfight/pkg/config"
	"github.com/opd-ai/go-starfight/pkg/engine"
	"github.com/opd-ai/go-starfight/pkg/entity"
	"github.com/opd-ai/go-starfight/pkg/event"
	"github.com/opd-ai/go-starfight/pkg/health"
	"github.com/opd-ai/go-starfight/pkg/logging"
	"github.com/opd-ai/go-starfight/pkg/physics"
	"github.com/opd-ai/go-starfight/pkg/resource"
	"github.com/opd-ai/go-starfight/pkg/scene"
)

// options collects the command line
type options struct {
	settingsPath  string
	createDefault bool
	classesPath   string
	levelPath     string
	assetsDir     string
	duration      time.Duration
	tick          time.Duration
	realtime      bool
	render        bool
	renderEvery   int
	seed          uint64
	healthAddr    string
	metricsEvery  time.Duration
}

func parseOptions() options {
	var opts options
	flag.StringVar(&opts.settingsPath, "settings", "settings.json", "Path to simulation settings")
	flag.BoolVar(&opts.createDefault, "default", false, "Write default settings to the settings path and exit")
	flag.StringVar(&opts.classesPath, "classes", "", "Class catalog JSON (built-in demo catalog if empty)")
	flag.StringVar(&opts.levelPath, "level", "", "Level JSON (built-in demo level if empty)")
	flag.StringVar(&opts.assetsDir, "assets", "", "Directory the spacecraft models are checked against")
	flag.DurationVar(&opts.duration, "duration", 2*time.Minute, "Simulated time before the battle is called off")
	flag.DurationVar(&opts.tick, "tick", 16*time.Millisecond, "Simulation step")
	flag.BoolVar(&opts.realtime, "realtime", false, "Pace ticks with the wall clock")
	flag.BoolVar(&opts.render, "render", false, "Draw a top-down map to stdout")
	flag.IntVar(&opts.renderEvery, "render-every", 30, "Ticks between drawn frames")
	flag.Uint64Var(&opts.seed, "seed", 1, "Seed for randomly placed spacecraft")
	flag.StringVar(&opts.healthAddr, "health", "", "Address of the health probe server, e.g. :8080")
	flag.DurationVar(&opts.metricsEvery, "metrics", 0, "Interval for printing metrics to stderr (disabled if 0)")
	flag.Parse()
	return opts
}

func main() {
	logger := logging.NewLogger()
	ctx := logging.WithCorrelationID(context.Background(), logging.GenerateCorrelationID())

	opts := parseOptions()
	if opts.createDefault {
		if err := config.SaveSettings(config.DefaultSettings(), opts.settingsPath); err != nil {
			logger.Error(ctx, "Failed to write default settings", err, "settings_path", opts.settingsPath)
			os.Exit(1)
		}
		logger.Info(ctx, "Wrote default settings", "settings_path", opts.settingsPath)
		return
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, opts); err != nil {
		logger.Error(ctx, "Skirmish failed", err, "fatal", entity.IsFatal(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *logging.Logger, opts options) error {
	settings, err := loadSettings(ctx, logger, opts.settingsPath)
	if err != nil {
		return err
	}
	catalog, err := loadCatalog(opts.classesPath)
	if err != nil {
		return err
	}

	tracker := resource.NewTracker(assetLoader(opts.assetsDir), resource.DefaultBreakerSettings(), logger)
	camera := scene.NewChaseCamera(physics.Vector3D{})
	camera.SetOffset(physics.Vector3D{Y: -60, Z: 20})
	camera.SetSmoothing(true, 2)

	levelOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithResources(tracker),
		engine.WithCamera(camera),
	}
	if opts.metricsEvery > 0 {
		provider, shutdown, err := newMeterProvider(os.Stderr, opts.metricsEvery)
		if err != nil {
			return err
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Error(ctx, "Metric export shutdown failed", err)
			}
		}()
		levelOpts = append(levelOpts, engine.WithMeterProvider(provider))
	}

	var view *scene.TerminalView
	if opts.render {
		view = scene.NewTerminalView(78, 24, 40)
		view.ClearScreen = true
		levelOpts = append(levelOpts, engine.WithScene(view))
	}

	level, err := engine.NewLevel(settings, catalog, levelOpts...)
	if err != nil {
		return err
	}
	defer level.Destroy()

	if opts.levelPath != "" {
		err = level.LoadLevelFile(ctx, opts.levelPath)
	} else {
		err = level.LoadFromDescriptor(ctx, demoLevel(opts.seed))
	}
	if err != nil {
		return err
	}
	if err := tracker.Load(ctx); err != nil {
		logger.Warn(ctx, "Some assets failed to load, their spacecraft stay hidden", "error", err.Error())
	}

	if pilot := level.Pilot(); pilot != nil {
		camera.Follow(pilot)
	} else if crafts := level.Spacecrafts(); len(crafts) > 0 {
		camera.Follow(crafts[0])
	}
	logBattleEvents(ctx, logger, level)

	heartbeat := &health.Heartbeat{}
	if opts.healthAddr != "" {
		checker := health.NewHealthChecker()
		checker.AddCheck(health.NewSimulationHealthCheck(heartbeat, 5*time.Second))
		checker.AddCheck(health.NewMemoryHealthCheck(500, nil))
		checker.AddCheck(tracker)
		shutdown := serveHealth(ctx, logger, opts.healthAddr, checker)
		defer shutdown()
	}

	world := &ecs.World{}
	world.AddSystem(engine.NewSystem(level))
	pilot := NewAggressorPilot(settings.FireOnlyIfAimed)

	var ticker *time.Ticker
	if opts.realtime {
		ticker = time.NewTicker(opts.tick)
		defer ticker.Stop()
	}

	logger.Info(ctx, "Battle started",
		"level", level.Name(),
		"spacecrafts", len(level.Spacecrafts()),
		"tick", opts.tick.String(),
	)

	limit := opts.duration.Milliseconds()
	var ticks int
	for level.Stats().Elapsed < float64(limit) && level.HostilesRemain() {
		if ticker != nil {
			select {
			case <-ctx.Done():
			case <-ticker.C:
			}
		}
		if ctx.Err() != nil {
			logger.Info(ctx, "Battle interrupted")
			break
		}

		pilot.Fly(level.Spacecrafts())
		world.Update(float32(opts.tick.Seconds()))
		heartbeat.Beat(time.Now())
		ticks++

		if view != nil && ticks%max(opts.renderEvery, 1) == 0 {
			view.SetCenter(camera.Position())
			if err := view.Render(os.Stdout); err != nil {
				return fmt.Errorf("render: %w", err)
			}
		}
	}
	heartbeat.Stop()

	logSummary(ctx, logger, level)
	return nil
}

func loadSettings(ctx context.Context, logger *logging.Logger, path string) (*config.Settings, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		logger.Info(ctx, "Settings file not found, using defaults", "settings_path", path)
		return config.DefaultSettings(), nil
	}
	settings, err := config.LoadSettings(path)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	return settings, nil
}

func loadCatalog(path string) (*entity.Catalog, error) {
	if path == "" {
		return entity.NewCatalog(demoClasses())
	}
	return entity.LoadCatalog(path)
}

// assetLoader checks that model files exist below dir. Without a directory
// every asset counts as loaded.
func assetLoader(dir string) resource.Loader {
	return resource.LoaderFunc(func(ctx context.Context, name string) error {
		if dir == "" || filepath.Ext(name) == "" {
			return nil
		}
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return fmt.Errorf("asset %q: %w", name, err)
		}
		return nil
	})
}

func serveHealth(ctx context.Context, logger *logging.Logger, addr string, checker *health.HealthChecker) func() {
	server := &http.Server{
		Addr:         addr,
		Handler:      checker.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info(ctx, "Starting health check server", "address", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error(ctx, "Health check server failed", err)
		}
	}()
	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error(ctx, "Health check server shutdown failed", err)
		}
	}
}

func logBattleEvents(ctx context.Context, logger *logging.Logger, level *engine.Level) {
	names := func(id uint64) string {
		if craft := level.SpacecraftByID(id); craft != nil {
			return craft.Name()
		}
		return ""
	}
	level.Events().Subscribe(event.DestructionStarted, func(e event.Event) {
		if se, ok := e.(*event.SpacecraftEvent); ok {
			logger.Info(ctx, "Spacecraft exploding", "spacecraft", names(se.SpacecraftID), "team", se.Team)
		}
	})
	level.Events().Subscribe(event.SpacecraftHit, func(e event.Event) {
		if he, ok := e.(*event.HitEvent); ok {
			logger.Debug(ctx, "Spacecraft hit",
				"spacecraft", names(he.SpacecraftID),
				"attacker", names(he.AttackerID),
				"damage", he.Damage,
				"hitpoints", he.Hitpoints,
			)
		}
	})
}

func logSummary(ctx context.Context, logger *logging.Logger, level *engine.Level) {
	stats := level.Stats()
	survivors := make(map[string]int)
	for _, craft := range level.Spacecrafts() {
		if craft.IsHittable() {
			team := craft.TeamID()
			if team == "" {
				team = "none"
			}
			survivors[team]++
		}
	}
	logger.Info(ctx, "Battle over",
		"level", level.Name(),
		"elapsed_ms", stats.Elapsed,
		"ticks", stats.Tick,
		"projectiles_fired", stats.ProjectilesFired,
		"hits", stats.Hits,
		"destroyed", stats.Destroyed,
		"survivors", survivors,
	)
}
