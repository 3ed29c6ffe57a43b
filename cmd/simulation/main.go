package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/internal/engine"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/internal/render"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/internal/telemetry"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	golog "github.com/tochemey/goakt/v3/log"
)

func main() {
	configPath := flag.String("config", "", "Config YAML file layered over the defaults (empty = use defaults)")
	seed := flag.Uint64("seed", 0, "Random seed (0 = time based)")
	headless := flag.Bool("headless", false, "Run without a window")
	maxTicks := flag.Int("max-ticks", 9000, "Ticks to run in headless mode")
	telemetryPath := flag.String("telemetry", "", "CSV file for flock telemetry (empty = off)")
	debug := flag.Bool("debug", false, "Activate every event and log at debug level")
	dumpConfig := flag.String("dump-config", "", "Write the effective config to this YAML file and exit")
	flag.Parse()

	cfg, err := simulation.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if *debug {
		cfg.Debug = true
	}
	if *dumpConfig != "" {
		if err := cfg.WriteYAML(*dumpConfig); err != nil {
			log.Fatalf("failed to write config: %v", err)
		}
		return
	}

	if *seed == 0 {
		*seed = uint64(time.Now().UnixNano())
	}

	level := golog.InfoLevel
	if cfg.Debug {
		level = golog.DebugLevel
	}
	logger := golog.New(level, os.Stdout)
	logger.Infof("seed %d", *seed)

	world, err := simulation.NewWorld(cfg,
		simulation.WithRand(rand.New(rand.NewPCG(*seed, *seed))),
		simulation.WithLogger(logger))
	if err != nil {
		log.Fatalf("failed to build world: %v", err)
	}

	recorder, err := telemetry.Create(*telemetryPath, cfg.Telemetry.EveryTicks)
	if err != nil {
		log.Fatalf("failed to open telemetry: %v", err)
	}
	defer func() {
		if err := recorder.Close(); err != nil {
			logger.Warnf("closing telemetry: %v", err)
		}
	}()

	ctx := context.Background()
	system, err := actor.NewActorSystem("ButterflyWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		log.Fatalf("failed to create actor system: %v", err)
	}
	if err := system.Start(ctx); err != nil {
		log.Fatalf("failed to start actor system: %v", err)
	}
	defer func() { _ = system.Stop(ctx) }()

	if *headless {
		if err := runHeadless(ctx, system, world, *maxTicks, recorder); err != nil {
			logger.Errorf("headless run: %v", err)
		}
		return
	}

	ebiten.SetWindowSize(int(cfg.World.Width), int(cfg.World.Height))
	ebiten.SetWindowTitle("Butterfly flock")

	game, err := render.NewGame(ctx, system, world, recorder)
	if err != nil {
		log.Fatalf("failed to create game: %v", err)
	}
	if err := ebiten.RunGame(game); err != nil {
		logger.Errorf("game stopped: %v", err)
	}
}

// runHeadless ticks the world actor in lock step: each tick waits for its
// snapshot before the next one is sent.
func runHeadless(ctx context.Context, system actor.ActorSystem, world *simulation.World, maxTicks int, recorder *telemetry.Recorder) error {
	snapshots := make(chan *simulation.Snapshot, 1)
	pid, err := system.Spawn(ctx, "world", engine.NewWorldActor(world, snapshots, recorder))
	if err != nil {
		return fmt.Errorf("spawning world: %w", err)
	}

	dt := time.Duration(world.Config().World.TimeStep * float64(time.Second))
	var last *simulation.Snapshot
	for i := range maxTicks {
		if err := actor.Tell(ctx, pid, engine.Tick(dt)); err != nil {
			return fmt.Errorf("tick: %w", err)
		}
		select {
		case last = <-snapshots:
		case <-time.After(10 * time.Second):
			return fmt.Errorf("no snapshot for tick %d", i+1)
		}
		if last.Population == 0 {
			system.Logger().Infof("every boid died at tick %d", last.Tick)
			break
		}
	}

	if last != nil {
		system.Logger().Infof("finished at tick %d in %s: %d boids in flock, %d alive, %d telemetry rows",
			last.Tick, last.Level.Name, len(last.Boids), last.Population, recorder.Written())
	}
	return nil
}
