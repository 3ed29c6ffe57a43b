// Package render draws world snapshots with ebiten and turns keyboard and
// panel input into world actor commands.
package render

import (
	"context"
	"fmt"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/internal/engine"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/ui"
	"github.com/tochemey/goakt/v3/actor"
)

const panelWidth = 260

type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	worldPID   *actor.PID
	snapshotCh chan *simulation.Snapshot
	lastState  *simulation.Snapshot

	cfg      *simulation.Config
	timeStep time.Duration
	paused   bool

	// UI Controls
	panel       *ui.Panel
	showPanel   bool
	showRanges  *ui.Checkbox
	showHUD     *ui.Checkbox
	showMarkers *ui.Checkbox

	// Timing instrumentation
	lastUpdateDuration time.Duration
	lastDrawDuration   time.Duration
	updateAvg          float64 // Rolling average in ms
	drawAvg            float64 // Rolling average in ms
}

// NewGame spawns the world actor in system and builds the control panel
// from the world's forces. Observers see every tick, see engine.WorldActor.
func NewGame(ctx context.Context, system actor.ActorSystem, world *simulation.World, observers ...engine.Observer) (*Game, error) {
	snapshotCh := make(chan *simulation.Snapshot, 10)

	worldPID, err := system.Spawn(ctx, "world", engine.NewWorldActor(world, snapshotCh, observers...))
	if err != nil {
		return nil, fmt.Errorf("spawning world: %w", err)
	}

	cfg := world.Config()
	g := &Game{
		ctx:        ctx,
		System:     system,
		worldPID:   worldPID,
		snapshotCh: snapshotCh,
		lastState:  world.Snapshot(),
		cfg:        cfg,
		timeStep:   time.Duration(cfg.World.TimeStep * float64(time.Second)),
		showPanel:  true,
	}
	g.buildPanel(world.Forces())
	return g, nil
}

func (g *Game) buildPanel(forces []simulation.Force) {
	panel := ui.NewPanel("Flock", 10, 10, panelWidth, g.cfg.World.Height-20)

	section := panel.Section("Forces")
	for _, f := range forces {
		name := f.Name
		row := section.Weight(name, f.Active, max(2*f.Weight, 1), f.Weight)
		row.Active.OnChange = func(v bool) {
			g.send(engine.CmdSetForceActive, map[string]any{"force": name, "active": v})
		}
		row.Weight.OnChange = func(v float64) {
			g.send(engine.CmdSetForceWeight, map[string]any{"force": name, "weight": v})
		}
	}

	section = panel.Section("Leader")
	section.Button("Shout (space)", func() { g.send(engine.CmdShout, nil) })
	section.Button("Land / take off (L)", func() { g.send(engine.CmdToggleLanding, nil) })
	section.Button("Plant flower (F)", func() { g.send(engine.CmdPlantFlower, nil) })
	section.Button("Reset speed (R)", func() { g.send(engine.CmdResetSpeed, nil) })

	section = panel.Section("Visualization")
	g.showRanges = section.Checkbox("Gate and food ranges", true)
	g.showMarkers = section.Checkbox("Attractors", false)
	g.showHUD = section.Checkbox("Status", true)

	g.panel = panel
}

// send delivers a command to the world actor. Failures are logged, the
// game keeps running.
func (g *Game) send(name string, args map[string]any) {
	cmd, err := engine.NewCommand(name, args)
	if err != nil {
		g.System.Logger().Warnf("building command %s: %v", name, err)
		return
	}
	if err := actor.Tell(g.ctx, g.worldPID, cmd); err != nil {
		g.System.Logger().Warnf("sending command %s: %v", name, err)
	}
}

// keyCommands are sent once per key press.
var keyCommands = map[ebiten.Key]string{
	ebiten.KeyArrowUp:   engine.CmdSpeedUp,
	ebiten.KeyArrowDown: engine.CmdSlowDown,
	ebiten.KeyR:         engine.CmdResetSpeed,
	ebiten.KeyL:         engine.CmdToggleLanding,
	ebiten.KeySpace:     engine.CmdShout,
	ebiten.KeyF:         engine.CmdPlantFlower,
}

func (g *Game) handleKeys() {
	// turning is held, not pressed
	if ebiten.IsKeyPressed(ebiten.KeyArrowLeft) {
		g.send(engine.CmdTurnLeft, nil)
	}
	if ebiten.IsKeyPressed(ebiten.KeyArrowRight) {
		g.send(engine.CmdTurnRight, nil)
	}
	for key, cmd := range keyCommands {
		if inpututil.IsKeyJustPressed(key) {
			g.send(cmd, nil)
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		g.paused = !g.paused
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyTab) {
		g.showPanel = !g.showPanel
	}
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		g.lastUpdateDuration = time.Since(start)
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(g.lastUpdateDuration.Microseconds())/1000.0*0.05
	}()

	if g.showPanel {
		g.panel.Update()
	}
	g.handleKeys()

	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
		// Use previous state if new one isn't ready
	}

	if !g.paused {
		if err := actor.Tell(g.ctx, g.worldPID, engine.Tick(g.timeStep)); err != nil {
			return fmt.Errorf("ticking world: %w", err)
		}
	}
	return nil
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.lastDrawDuration = time.Since(start)
		g.drawAvg = g.drawAvg*0.95 + float64(g.lastDrawDuration.Microseconds())/1000.0*0.05
	}()

	s := g.lastState
	screen.Fill(skyColor(s.Phase, s.Clock))

	g.drawScenery(screen, s)
	drawBoids(screen, s.Boids)

	if g.showPanel {
		g.panel.Draw(screen)
	}
	g.drawStatsBar(screen, s)
	if g.showHUD.Value {
		g.drawHUD(screen, s)
	}
	if g.paused {
		ebitenutil.DebugPrintAt(screen, "PAUSED (P)", int(g.cfg.World.Width/2-40), int(g.cfg.World.Height/2))
	}

	msg := fmt.Sprintf("FPS: %.2f\nTPS: %.2f\n\nUpdate: %.2fms\nDraw:   %.2fms\nTotal:  %.2fms",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg,
		g.updateAvg+g.drawAvg)
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.World.Width)-150, 60)
}

func (g *Game) drawHUD(screen *ebiten.Image, s *simulation.Snapshot) {
	leader := "none"
	for _, b := range s.Boids {
		if b.Leader {
			leader = fmt.Sprintf("#%d %s food %.1f", b.ID, b.State, b.Food)
			break
		}
	}
	clock := "stopped"
	if s.Clock {
		clock = s.Phase.String()
	}
	exit := "closed"
	if s.Level.ExitOpen {
		exit = "open"
	}
	completed := ""
	if s.Level.Completed {
		completed = " (completed)"
	}

	msg := fmt.Sprintf("%s%s  exit %s\nclock: %s  need food: %t\nflock: %d  population: %d\nleader: %s\ntick %d  t=%.1fs",
		s.Level.Name, completed, exit,
		clock, s.NeedFood,
		len(s.Boids), s.Population,
		leader,
		s.Tick, s.Elapsed)
	x := 10
	if g.showPanel {
		x += panelWidth + 10
	}
	ebitenutil.DebugPrintAt(screen, msg, x, 10)
}

func (g *Game) Layout(w, h int) (int, int) {
	return int(g.cfg.World.Width), int(g.cfg.World.Height)
}
