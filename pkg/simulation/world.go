// Package simulation is the butterfly flock engine: boids moved by steering
// forces, a lifecycle state machine per boid, and a chain of levels the
// leader leads its flock through.
//
// A World is not safe for concurrent use. Hosts serialise Tick and every
// command on one goroutine.
package simulation

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/spatial"
	golog "github.com/tochemey/goakt/v3/log"
)

var (
	ErrUnknownEvent = errors.New("unknown event")
	ErrUnknownAgent = errors.New("unknown agent")
	ErrNoLeader     = errors.New("no leader")
)

// Logger is the subset of the goakt logger the engine writes to.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
}

// EventHook observes every event that passes the active filter.
// target is nil for flock-wide events.
type EventHook func(ev Event, target *Boid)

type Option func(*World)

// WithRand injects the random source used for spawning, leadership and
// food selection. Tests pass a seeded source for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(w *World) { w.rng = r }
}

func WithLogger(l Logger) Option {
	return func(w *World) { w.log = l }
}

func WithEventHook(h EventHook) Option {
	return func(w *World) { w.hook = h }
}

type World struct {
	cfg     *Config
	rng     *rand.Rand
	log     Logger
	hook    EventHook
	machine *lifecycle
	clock   *TimeKeeper

	levels  []*Level
	current int
	forces  []*Force
	active  map[Event]bool

	needFood bool
	debug    bool
	nextID   AgentID
	ticks    uint64
	elapsed  float64
}

// NewWorld builds every level from cfg, spawns the starting flock in the
// first level and gives it a random leader.
func NewWorld(cfg *Config, opts ...Option) (*World, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	w := &World{
		cfg:     cfg,
		rng:     rand.New(rand.NewPCG(1, 1)),
		log:     golog.DiscardLogger,
		machine: newLifecycle(),
		clock:   NewTimeKeeper(cfg.DayNight),
		active:  make(map[Event]bool),
		debug:   cfg.Debug,
	}
	for _, opt := range opts {
		opt(w)
	}

	for _, fc := range cfg.Forces {
		f, err := newForce(fc)
		if err != nil {
			return nil, fmt.Errorf("force %q: %w", fc.Name, err)
		}
		w.forces = append(w.forces, f)
	}

	if w.debug {
		w.ActivateEvents(AllEvents()...)
	}
	for _, name := range cfg.World.ActiveEvents {
		ev, err := ParseEvent(name)
		if err != nil {
			return nil, err
		}
		w.ActivateEvents(ev)
	}

	for i, lc := range cfg.Levels {
		l, err := w.buildLevel(i, lc)
		if err != nil {
			return nil, fmt.Errorf("level %q: %w", lc.Name, err)
		}
		w.levels = append(w.levels, l)
	}

	first := w.levels[0]
	if leader := first.flock.chooseLeader(); leader != nil {
		w.log.Debugf("%s leads the flock", leader)
	}
	first.leaderEnters()
	return w, nil
}

func (w *World) buildLevel(i int, lc LevelConfig) (*Level, error) {
	completion, err := parseCompletion(lc.Completion)
	if err != nil {
		return nil, err
	}
	index, err := spatial.New(spatial.Kind(w.cfg.Spatial.Index))
	if err != nil {
		return nil, err
	}

	l := &Level{
		Name:              lc.Name,
		LandingZoneTop:    w.cfg.World.LandingZoneTop,
		PlantMin:          w.cfg.World.PlantMin,
		PlantMax:          w.cfg.World.PlantMax,
		index:             i,
		world:             w,
		exitOpen:          !lc.ExitClosed,
		openExitAtSunrise: lc.OpenExitAtSunrise,
		completion:        completion,
		firstEntry:        lc.OnFirstEntry,
	}
	l.flock = newFlock(l, index)

	if lc.EntranceGate != nil {
		gate := *lc.EntranceGate
		l.EntranceGate = &gate
	}
	if lc.ExitGate != nil {
		gate := *lc.ExitGate
		l.ExitGate = &gate
		l.attractors = append(l.attractors, Attractor{
			Location: gate,
			Weight:   w.cfg.World.ExitAttractorWeight,
			Distance: w.cfg.World.GateRadius * w.cfg.World.ExitAttractorRange,
		})
	}
	for _, o := range lc.Obstacles {
		l.obstacles = append(l.obstacles, Obstacle(o))
	}
	for _, a := range lc.Attractors {
		l.attractors = append(l.attractors, Attractor(a))
	}
	fc := w.cfg.Flower
	for _, loc := range lc.Flowers {
		l.addFlower(loc, fc.AdultAge*w.uniform(fc.InitialAgeMin, fc.InitialAgeMax))
	}

	if s := lc.StartingFlock; s != nil {
		for n := range s.Count {
			pos := geometry.NewVector(w.uniform(s.Min.X, s.Max.X), w.uniform(s.Min.Y, s.Max.Y))
			vel := geometry.NewVectorPolarDegrees(s.Speed, w.uniform(s.HeadingMin, s.HeadingMax))
			sex := Female
			if n%2 == 1 {
				sex = Male
			}
			age := 0.0
			if s.Adult {
				age = w.cfg.Boid.AdultAge
			}
			l.flock.Add(w.newBoid(pos, vel, sex, age))
		}
	}
	return l, nil
}

func (w *World) newBoid(pos, vel geometry.Vector2D, sex Sex, age float64) *Boid {
	w.nextID++
	jitter := w.cfg.Boid.StartingFoodJitter
	return &Boid{
		id:              w.nextID,
		Pos:             pos,
		Vel:             vel,
		Mass:            w.cfg.Boid.Mass,
		Sex:             sex,
		Age:             age,
		Food:            w.cfg.Boid.StartingFood * w.uniform(1-jitter, 1+jitter),
		state:           Flying,
		alive:           true,
		speedMultiplier: 1,
	}
}

func (w *World) randomSex() Sex {
	if w.rng.IntN(2) == 0 {
		return Female
	}
	return Male
}

// uniform draws from [lo, hi).
func (w *World) uniform(lo, hi float64) float64 {
	return lo + w.rng.Float64()*(hi-lo)
}

// Tick advances the current level by dt seconds:
//  1. refresh the spatial index of its flock
//  2. apply every active force to every boid
//  3. advance the day/night clock, then update every boid
//  4. purge dead boids
//  5. give a leaderless flock whose leader died a new leader
//  6. latch the completion of every level
//
// and finally grow its flowers and refill its food sources.
func (w *World) Tick(dt float64) {
	w.ticks++
	w.elapsed += dt

	level := w.Current()
	flock := level.flock
	flock.refresh(w.neighbourRadius())

	members := flock.Boids()
	for _, b := range members {
		for _, f := range w.forces {
			if f.Active {
				f.apply(b, dt)
			}
		}
	}

	for _, ev := range w.clock.Advance(dt) {
		w.RaiseEvent(ev)
	}
	for _, b := range members {
		if b.flock != nil {
			b.update(dt)
		}
	}

	var orphaned []*Flock
	for _, l := range w.levels {
		if l.flock.purge() {
			orphaned = append(orphaned, l.flock)
		}
	}
	for _, f := range orphaned {
		if leader := f.chooseLeader(); leader != nil {
			w.log.Debugf("%s now leads the flock of %s", leader, f.level.Name)
		}
	}
	for _, l := range w.levels {
		l.checkCompletion()
	}

	level.updateScenery(dt)
}

// neighbourRadius bounds the neighbour lists by the longest active range.
func (w *World) neighbourRadius() float64 {
	radius := 0.0
	for _, f := range w.forces {
		if f.Active {
			radius = max(radius, f.Distance)
		}
	}
	return radius
}

// RaiseEvent sends ev to every boid of the current flock.
func (w *World) RaiseEvent(ev Event) {
	w.handle(ev, nil)
}

// RaiseEventFor sends ev to a single boid, wherever it is.
func (w *World) RaiseEventFor(ev Event, id AgentID) error {
	b := w.Boid(id)
	if b == nil {
		return fmt.Errorf("%w: %d", ErrUnknownAgent, id)
	}
	w.handle(ev, b)
	return nil
}

func (w *World) raiseFor(ev Event, b *Boid) {
	w.handle(ev, b)
}

func (w *World) handle(ev Event, target *Boid) {
	if !w.active[ev] {
		w.log.Debugf("ignored inactive event %s", ev)
		return
	}
	if w.hook != nil {
		w.hook(ev, target)
	}

	switch ev {
	case ThroughExitGate:
		if target != nil {
			w.throughExitGate(target)
		}
	case ThroughEntranceGate:
		if target != nil {
			w.throughEntranceGate(target)
		}
	case PlantFlower:
		if target == nil {
			target = w.Leader()
		}
		if target != nil {
			w.plantFlower(target)
		}
	case Shout:
		w.shout()
		w.dispatch(ev, target)
	default:
		w.dispatch(ev, target)
	}
}

func (w *World) dispatch(ev Event, target *Boid) {
	targets := []*Boid{target}
	if target == nil {
		targets = w.Current().flock.Boids()
	}
	for _, b := range targets {
		if !w.machine.Dispatch(b, ev) {
			w.log.Debugf("no transition for %s on %s", b, ev)
		}
	}
}

func (w *World) throughExitGate(b *Boid) {
	source := b.flock.level
	if !source.exitOpen {
		return
	}
	target := w.nextLevel(source)
	if target == nil || target.EntranceGate == nil {
		return
	}
	w.transfer(b, target, *target.EntranceGate)
}

func (w *World) throughEntranceGate(b *Boid) {
	target := w.previousLevel(b.flock.level)
	if target == nil || target.ExitGate == nil {
		return
	}
	w.transfer(b, target, *target.ExitGate)
}

// transfer moves b to target in one step: membership, leadership and the
// first-entry hook, then places it just inside gate along its heading.
func (w *World) transfer(b *Boid, target *Level, gate geometry.Vector2D) {
	source := b.flock
	wasLeader := b.IsLeader()

	source.Remove(b)
	target.flock.Add(b)
	if wasLeader {
		source.SetLeader(nil)
		target.flock.SetLeader(b)
		w.current = target.index
	}

	heading := b.Vel.Normalize()
	if heading.IsZero() {
		heading = geometry.NewVector(1, 0)
	}
	b.Pos = gate.Add(heading.Mul(w.cfg.World.GateRadius * w.cfg.World.GateRepositionFactor))
	w.log.Debugf("%s moved from %s to %s", b, source.level.Name, target.Name)

	if wasLeader {
		target.leaderEnters()
	}
}

// shout pulls every boid within shouting distance toward the leader.
func (w *World) shout() {
	leader := w.Leader()
	if leader == nil {
		return
	}
	lc := w.cfg.Leader
	for _, b := range leader.flock.boids {
		if b == leader {
			continue
		}
		toLeader := leader.Pos.Sub(b.Pos)
		if toLeader.Len() > lc.ShoutingDistance {
			continue
		}
		b.ApplyForce(toLeader.Normalize().Mul(lc.ShoutingForce), false)
	}
}

func (w *World) plantFlower(b *Boid) {
	level := b.flock.level
	if !level.CanPlant(b.Pos.Y) {
		return
	}
	level.addFlower(b.Pos, -w.cfg.Flower.SeedPeriod)
	w.log.Debugf("%s planted a seed in %s", b, level.Name)
}

// ActivateEvents lets events through the active filter.
func (w *World) ActivateEvents(events ...Event) {
	for _, ev := range events {
		w.active[ev] = true
	}
}

func (w *World) EventActive(ev Event) bool { return w.active[ev] }

// ActiveEvents lists the active events in declaration order.
func (w *World) ActiveEvents() []Event {
	var out []Event
	for _, ev := range AllEvents() {
		if w.active[ev] {
			out = append(out, ev)
		}
	}
	return out
}

// Forces returns copies of the configured forces.
func (w *World) Forces() []Force {
	out := make([]Force, len(w.forces))
	for i, f := range w.forces {
		out[i] = *f
	}
	return out
}

func (w *World) force(name string) (*Force, error) {
	i := slices.IndexFunc(w.forces, func(f *Force) bool { return f.Name == name })
	if i < 0 {
		return nil, fmt.Errorf("%w %q", ErrUnknownForce, name)
	}
	return w.forces[i], nil
}

func (w *World) SetForceActive(name string, active bool) error {
	f, err := w.force(name)
	if err != nil {
		return err
	}
	f.Active = active
	return nil
}

func (w *World) SetForceWeight(name string, weight float64) error {
	f, err := w.force(name)
	if err != nil {
		return err
	}
	f.Weight = weight
	return nil
}

// Current is the level that holds the leader.
func (w *World) Current() *Level { return w.levels[w.current] }

func (w *World) Levels() []*Level { return slices.Clone(w.levels) }

func (w *World) nextLevel(l *Level) *Level {
	if l.index+1 >= len(w.levels) {
		return nil
	}
	return w.levels[l.index+1]
}

func (w *World) previousLevel(l *Level) *Level {
	if l.index == 0 {
		return nil
	}
	return w.levels[l.index-1]
}

// Leader returns the leader of the current flock, nil if there is none.
func (w *World) Leader() *Boid { return w.Current().flock.Leader() }

// Boid finds a live boid in any level.
func (w *World) Boid(id AgentID) *Boid {
	for _, l := range w.levels {
		if b := l.flock.Get(id); b != nil {
			return b
		}
	}
	return nil
}

func (w *World) Config() *Config { return w.cfg }

func (w *World) Clock() *TimeKeeper { return w.clock }

// Phase is the current day/night phase, DAYTIME while the clock is stopped.
func (w *World) Phase() Phase { return w.clock.Phase() }

func (w *World) NeedFood() bool { return w.needFood }

func (w *World) Ticks() uint64 { return w.ticks }

// Elapsed is the simulated time in seconds.
func (w *World) Elapsed() float64 { return w.elapsed }
