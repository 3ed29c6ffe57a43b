package simulation

import (
	"errors"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
)

const tolerance = 1e-9

func newTestWorld(t testing.TB, mutate func(*Config), opts ...Option) *World {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	opts = append([]Option{WithRand(rand.New(rand.NewPCG(7, 7)))}, opts...)
	w, err := NewWorld(cfg, opts...)
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	return w
}

// follower returns a member of the current flock that is not the leader.
func follower(t testing.TB, w *World) *Boid {
	t.Helper()
	for _, b := range w.Current().Flock().Boids() {
		if !b.IsLeader() {
			return b
		}
	}
	t.Fatal("no follower in the current flock")
	return nil
}

func TestNewWorld_StartingFlock(t *testing.T) {
	w := newTestWorld(t, nil)

	first := w.Current()
	if first.Index() != 0 {
		t.Fatalf("Current().Index() = %d; want 0", first.Index())
	}
	if got := first.Flock().Len(); got != 10 {
		t.Errorf("starting flock = %d; want 10", got)
	}
	if w.Leader() == nil {
		t.Fatal("Leader() = nil; want a leader")
	}
	if !first.Visited() {
		t.Error("first level should count as visited")
	}

	seen := make(map[AgentID]bool)
	for _, b := range first.Flock().Boids() {
		if seen[b.ID()] {
			t.Errorf("duplicate id %d", b.ID())
		}
		seen[b.ID()] = true
		if b.State() != Flying {
			t.Errorf("%s starts in %s; want FLYING", b, b.State())
		}
		if !b.IsAdult() {
			t.Errorf("%s should start adult", b)
		}
		if b.Pos.X < 275 || b.Pos.X > 485 || b.Pos.Y < 840 || b.Pos.Y > 925 {
			t.Errorf("%s spawned at %s, outside the spawn box", b, b.Pos)
		}
		if b.Food < 36 || b.Food > 44 {
			t.Errorf("%s food = %v; want 40 +/- 10%%", b, b.Food)
		}
	}

	// the exit gate gets an attractor
	attractors := first.Attractors()
	if len(attractors) != 1 {
		t.Fatalf("attractors = %d; want 1", len(attractors))
	}
	if a := attractors[0]; a.Location != *first.ExitGate || a.Weight != 500 || a.Distance != 60 {
		t.Errorf("exit attractor = %+v", a)
	}
}

func TestNewWorld_SeedIsDeterministic(t *testing.T) {
	a := newTestWorld(t, nil)
	b := newTestWorld(t, nil)
	for range 50 {
		a.Tick(1.0 / 30)
		b.Tick(1.0 / 30)
	}
	sa, sb := a.Snapshot(), b.Snapshot()
	if len(sa.Boids) != len(sb.Boids) {
		t.Fatalf("populations differ: %d vs %d", len(sa.Boids), len(sb.Boids))
	}
	for i := range sa.Boids {
		if sa.Boids[i] != sb.Boids[i] {
			t.Errorf("boid %d differs: %+v vs %+v", i, sa.Boids[i], sb.Boids[i])
		}
	}
}

func TestNewWorld_InvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Levels = nil
	if _, err := NewWorld(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("NewWorld() error = %v; want ErrInvalidConfig", err)
	}
}

func TestWorld_EventFilter(t *testing.T) {
	var seen []Event
	w := newTestWorld(t, nil, WithEventHook(func(ev Event, _ *Boid) { seen = append(seen, ev) }))
	b := follower(t, w)

	// TOGGLE_LANDING is not active until Level03
	if err := w.RaiseEventFor(ToggleLanding, b.ID()); err != nil {
		t.Fatalf("RaiseEventFor() error = %v", err)
	}
	if b.State() != Flying {
		t.Errorf("state = %s; want FLYING", b.State())
	}
	if len(seen) != 0 {
		t.Errorf("hook saw %v; want nothing", seen)
	}

	w.ActivateEvents(ToggleLanding)
	if err := w.RaiseEventFor(ToggleLanding, b.ID()); err != nil {
		t.Fatalf("RaiseEventFor() error = %v", err)
	}
	if b.State() != Landing {
		t.Errorf("state = %s; want LANDING", b.State())
	}
	if len(seen) != 1 || seen[0] != ToggleLanding {
		t.Errorf("hook saw %v; want [TOGGLE_LANDING]", seen)
	}
}

func TestWorld_DebugActivatesEverything(t *testing.T) {
	w := newTestWorld(t, func(c *Config) { c.Debug = true })
	if got, want := len(w.ActiveEvents()), len(AllEvents()); got != want {
		t.Errorf("active events = %d; want %d", got, want)
	}
	for _, l := range w.Levels() {
		if !l.Completed() {
			t.Errorf("level %s not completed in debug mode", l.Name)
		}
	}
}

func TestWorld_RaiseEventForUnknownAgent(t *testing.T) {
	w := newTestWorld(t, nil)
	if err := w.RaiseEventFor(GotHungry, 9999); !errors.Is(err, ErrUnknownAgent) {
		t.Errorf("RaiseEventFor() error = %v; want ErrUnknownAgent", err)
	}
}

func TestWorld_TransferFollower(t *testing.T) {
	w := newTestWorld(t, nil)
	levels := w.Levels()
	source, target := levels[0], levels[1]

	b := follower(t, w)
	b.Pos = *source.ExitGate
	b.Vel = geometry.NewVector(10, 0)

	if err := w.RaiseEventFor(ThroughExitGate, b.ID()); err != nil {
		t.Fatalf("RaiseEventFor() error = %v", err)
	}

	if got := source.Flock().Len(); got != 9 {
		t.Errorf("source flock = %d; want 9", got)
	}
	if got := target.Flock().Len(); got != 1 {
		t.Errorf("target flock = %d; want 1", got)
	}
	if source.Flock().Get(b.ID()) != nil {
		t.Error("boid still in the source flock")
	}
	if b.Flock() != target.Flock() {
		t.Error("boid does not reference the target flock")
	}
	// entrance (160, 430) + (1, 0) * 30 * 2.5
	if want := geometry.NewVector(235, 430); !b.Pos.Eq(want) {
		t.Errorf("Pos = %s; want %s", b.Pos, want)
	}
	if w.Current() != source {
		t.Error("a follower must not change the current level")
	}
	if target.Visited() {
		t.Error("a follower must not run the first-entry hook")
	}
}

func TestWorld_TransferLeader(t *testing.T) {
	w := newTestWorld(t, nil)
	levels := w.Levels()
	source, target := levels[0], levels[1]

	leader := w.Leader()
	leader.Pos = *source.ExitGate
	leader.Vel = geometry.Zero

	if w.EventActive(Shout) {
		t.Fatal("SHOUT should be inactive before Level02")
	}
	if err := w.RaiseEventFor(ThroughExitGate, leader.ID()); err != nil {
		t.Fatalf("RaiseEventFor() error = %v", err)
	}

	if source.Flock().Leader() != nil {
		t.Error("source flock kept its leader")
	}
	if target.Flock().Leader() != leader {
		t.Error("target flock did not get the leader")
	}
	if w.Current() != target {
		t.Errorf("Current() = %s; want %s", w.Current().Name, target.Name)
	}
	if !target.Visited() {
		t.Error("target level should be visited")
	}
	if !w.EventActive(Shout) {
		t.Error("Level02 first-entry hook should activate SHOUT")
	}
	// zero velocity falls back to +x
	if want := geometry.NewVector(235, 430); !leader.Pos.Eq(want) {
		t.Errorf("Pos = %s; want %s", leader.Pos, want)
	}
}

func TestWorld_ClosedExitGate(t *testing.T) {
	w := newTestWorld(t, func(c *Config) { c.Levels[0].ExitClosed = true })
	source := w.Current()
	b := follower(t, w)

	if err := w.RaiseEventFor(ThroughExitGate, b.ID()); err != nil {
		t.Fatalf("RaiseEventFor() error = %v", err)
	}
	if b.Flock() != source.Flock() {
		t.Error("boid went through a closed exit gate")
	}
}

func TestWorld_EntranceGateWithoutPreviousLevel(t *testing.T) {
	w := newTestWorld(t, nil)
	leader := w.Leader()
	if err := w.RaiseEventFor(ThroughEntranceGate, leader.ID()); err != nil {
		t.Fatalf("RaiseEventFor() error = %v", err)
	}
	if leader.Flock() != w.Levels()[0].Flock() {
		t.Error("leader left the first level through a missing gate")
	}
}

func TestWorld_TickPurgesDeadLeader(t *testing.T) {
	w := newTestWorld(t, nil)
	old := w.Leader()
	old.alive = false

	w.Tick(1.0 / 30)

	flock := w.Current().Flock()
	if got := flock.Len(); got != 9 {
		t.Errorf("flock = %d; want 9", got)
	}
	if old.Flock() != nil {
		t.Error("dead boid still references a flock")
	}
	leader := w.Leader()
	if leader == nil || leader == old {
		t.Fatalf("Leader() = %v; want a new leader", leader)
	}
	if !leader.IsLeader() {
		t.Error("new leader does not know it leads")
	}
}

func TestWorld_StickyCompletion(t *testing.T) {
	w := newTestWorld(t, nil)
	level := w.Current()
	if level.checkCompletion() {
		t.Fatal("Level01 completed with 10 boids")
	}

	killed := 0
	for _, b := range level.Flock().Boids() {
		if killed == 6 {
			break
		}
		if !b.IsLeader() {
			b.alive = false
			killed++
		}
	}
	level.Flock().purge()
	if !level.checkCompletion() {
		t.Fatalf("Level01 not completed with %d boids", level.Flock().Len())
	}

	for range 5 {
		level.Flock().Add(w.newBoid(geometry.NewVector(900, 500), geometry.Zero, Female, 0))
	}
	if !level.checkCompletion() || !level.Completed() {
		t.Error("completion must stay latched once reached")
	}
}

func TestWorld_CompletionLatchesOnTick(t *testing.T) {
	w := newTestWorld(t, nil)
	level := w.Current()
	killed := 0
	for _, b := range level.Flock().Boids() {
		if killed == 6 {
			break
		}
		if !b.IsLeader() {
			b.alive = false
			killed++
		}
	}
	level.Flock().purge()

	// reading does not latch
	if snap := w.Snapshot(); snap.Level.Completed {
		t.Error("snapshot reports a completion no tick has latched")
	}
	if level.Completed() {
		t.Error("Completed() latched from a read")
	}

	w.Tick(1.0 / 30)
	if !level.Completed() {
		t.Error("Completed() = false after the tick that met the predicate")
	}
	if !w.Snapshot().Level.Completed {
		t.Error("snapshot misses the latched completion")
	}
}

func TestWorld_NextLevelCompletion(t *testing.T) {
	w := newTestWorld(t, nil)
	levels := w.Levels()
	third, fourth := levels[2], levels[3]
	if third.checkCompletion() {
		t.Fatal("Level03 completed with an empty Level04")
	}
	for range 5 {
		fourth.Flock().Add(w.newBoid(geometry.NewVector(900, 500), geometry.Zero, Male, 0))
	}
	if !third.checkCompletion() {
		t.Error("Level03 should complete once Level04 holds 5 boids")
	}
}

func TestWorld_Shout(t *testing.T) {
	w := newTestWorld(t, nil)
	w.ActivateEvents(Shout)
	leader := w.Leader()
	leader.Pos = geometry.NewVector(900, 500)

	near := follower(t, w)
	near.Pos = geometry.NewVector(800, 500)
	near.Vel = geometry.Zero

	if err := w.Shout(); err != nil {
		t.Fatalf("Shout() error = %v", err)
	}
	if want := geometry.NewVector(50, 0); !near.Vel.Eq(want) {
		t.Errorf("Vel = %s; want %s", near.Vel, want)
	}
}

func TestWorld_PlantFlower(t *testing.T) {
	tests := []struct {
		name string
		y    float64
		want int
	}{
		{"inside the band", 700, 1},
		{"above the band", 500, 0},
		{"on the landing line", 820, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t, nil)
			w.ActivateEvents(PlantFlower)
			w.Leader().Pos = geometry.NewVector(900, tt.y)

			if err := w.PlantFlower(); err != nil {
				t.Fatalf("PlantFlower() error = %v", err)
			}
			flowers := w.Current().Flowers()
			if len(flowers) != tt.want {
				t.Fatalf("flowers = %d; want %d", len(flowers), tt.want)
			}
			if tt.want == 1 && flowers[0].Age != -5 {
				t.Errorf("seed age = %v; want -5", flowers[0].Age)
			}
		})
	}
}

func TestWorld_ForceControls(t *testing.T) {
	w := newTestWorld(t, nil)
	if err := w.SetForceWeight("cohesion", 0.5); err != nil {
		t.Fatalf("SetForceWeight() error = %v", err)
	}
	if err := w.SetForceActive("wind", true); err != nil {
		t.Fatalf("SetForceActive() error = %v", err)
	}
	if err := w.SetForceActive("gravity well", true); !errors.Is(err, ErrUnknownForce) {
		t.Errorf("SetForceActive() error = %v; want ErrUnknownForce", err)
	}

	for _, f := range w.Forces() {
		switch f.Name {
		case "cohesion":
			if f.Weight != 0.5 {
				t.Errorf("cohesion weight = %v; want 0.5", f.Weight)
			}
		case "wind":
			if !f.Active {
				t.Error("wind should be active")
			}
		}
	}
}

func TestWorld_NeighbourRadius(t *testing.T) {
	w := newTestWorld(t, nil)
	// obstacles has the longest range among the active forces
	if got := w.neighbourRadius(); got != 400 {
		t.Errorf("neighbourRadius() = %v; want 400", got)
	}
	if err := w.SetForceActive("obstacles", false); err != nil {
		t.Fatal(err)
	}
	if got := w.neighbourRadius(); got != 200 {
		t.Errorf("neighbourRadius() = %v; want 200", got)
	}
}

func TestWorld_Snapshot(t *testing.T) {
	w := newTestWorld(t, nil)
	w.Tick(1.0 / 30)
	s := w.Snapshot()

	if s.Tick != 1 {
		t.Errorf("Tick = %d; want 1", s.Tick)
	}
	if s.Level.Name != "Level01" {
		t.Errorf("Level = %s; want Level01", s.Level.Name)
	}
	if len(s.Boids) != 10 || s.Population != 10 {
		t.Errorf("boids = %d, population = %d; want 10, 10", len(s.Boids), s.Population)
	}
	if s.Leader != w.Leader().ID() {
		t.Errorf("Leader = %d; want %d", s.Leader, w.Leader().ID())
	}
	leaders := 0
	for _, b := range s.Boids {
		if b.Leader {
			leaders++
		}
	}
	if leaders != 1 {
		t.Errorf("leaders in snapshot = %d; want 1", leaders)
	}
	if got := s.StateCounts()[Flying]; got != 10 {
		t.Errorf("FLYING = %d; want 10", got)
	}

	// mutating the snapshot leaves the world alone
	s.Boids[0].Pos = geometry.NewVector(-1, -1)
	if math.Abs(w.Current().Flock().Boids()[0].Pos.X+1) < tolerance {
		t.Error("snapshot shares memory with the world")
	}
}

func BenchmarkWorld_Tick(b *testing.B) {
	w := newTestWorld(b, func(c *Config) { c.Levels[0].StartingFlock.Count = 200 })
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Tick(1.0 / 30)
	}
}

func BenchmarkWorld_TickGrid(b *testing.B) {
	w := newTestWorld(b, func(c *Config) {
		c.Levels[0].StartingFlock.Count = 200
		c.Spatial.Index = "grid"
	})
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		w.Tick(1.0 / 30)
	}
}
