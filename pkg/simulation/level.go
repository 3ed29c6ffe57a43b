package simulation

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
)

// CompletionKind names the predicate that decides when a level is done.
type CompletionKind string

const (
	AtMostBoids      CompletionKind = "at_most_boids"       // own flock shrank to Count or fewer
	NextLevelAtLeast CompletionKind = "next_level_at_least" // next flock grew to Count or more
	Never            CompletionKind = "never"
	Always           CompletionKind = "always"
)

type completion struct {
	kind  CompletionKind
	count int
}

func parseCompletion(c CompletionConfig) (completion, error) {
	switch k := CompletionKind(c.Kind); k {
	case AtMostBoids, NextLevelAtLeast, Never, Always:
		return completion{kind: k, count: c.Count}, nil
	}
	return completion{}, fmt.Errorf("unknown completion kind %q", c.Kind)
}

// Level is one area of the world with its own flock and scenery.
type Level struct {
	Name           string
	EntranceGate   *geometry.Vector2D
	ExitGate       *geometry.Vector2D
	LandingZoneTop float64
	PlantMin       float64
	PlantMax       float64

	index       int
	world       *World
	flock       *Flock
	obstacles   []Obstacle
	attractors  []Attractor
	flowers     []*Flower
	foodSources []*FoodSource

	exitOpen          bool
	openExitAtSunrise bool
	completion        completion
	completed         bool
	visited           bool
	firstEntry        FirstEntryConfig
}

func (l *Level) Index() int { return l.index }

func (l *Level) Flock() *Flock { return l.flock }

func (l *Level) ExitOpen() bool { return l.exitOpen }

func (l *Level) Visited() bool { return l.visited }

func (l *Level) Obstacles() []Obstacle { return append([]Obstacle(nil), l.obstacles...) }

func (l *Level) Attractors() []Attractor { return append([]Attractor(nil), l.attractors...) }

func (l *Level) Flowers() []*Flower { return append([]*Flower(nil), l.flowers...) }

func (l *Level) FoodSources() []*FoodSource { return append([]*FoodSource(nil), l.foodSources...) }

// Completed reports whether the level has been completed. It only reads
// the latch; the world evaluates the predicate every tick.
func (l *Level) Completed() bool {
	return l.world.debug || l.completed
}

// checkCompletion evaluates the completion predicate and latches it: once
// true the level stays completed whatever happens next.
func (l *Level) checkCompletion() bool {
	if l.Completed() {
		return true
	}
	if l.completionCheck() {
		l.completed = true
		l.world.log.Debugf("level %s completed", l.Name)
	}
	return l.completed
}

func (l *Level) completionCheck() bool {
	switch l.completion.kind {
	case AtMostBoids:
		return l.flock.Len() <= l.completion.count
	case NextLevelAtLeast:
		next := l.world.nextLevel(l)
		return next != nil && next.flock.Len() >= l.completion.count
	case Always:
		return true
	default:
		return false
	}
}

// leaderEnters runs the first-entry hook, once per level.
func (l *Level) leaderEnters() {
	if l.visited {
		return
	}
	l.visited = true

	w := l.world
	hook := l.firstEntry
	for _, name := range hook.ActivateEvents {
		if ev, err := ParseEvent(name); err == nil {
			w.ActivateEvents(ev)
		}
	}
	for _, name := range hook.ActivateForces {
		if err := w.SetForceActive(name, true); err != nil {
			w.log.Warnf("level %s: %v", l.Name, err)
		}
	}
	if hook.StartClock {
		w.clock.Start()
	}
	if hook.ClockTime != nil {
		w.clock.SetTime(*hook.ClockTime)
	}
	if hook.NeedFood {
		w.needFood = true
	}
	if hook.FoodFactorMax > 0 {
		for _, b := range l.flock.boids {
			b.Food = w.cfg.Boid.HungryLevel * w.uniform(hook.FoodFactorMin, hook.FoodFactorMax)
		}
	}
	w.log.Infof("leader entered %s for the first time", l.Name)
}

func (l *Level) onSunrise() {
	if l.openExitAtSunrise && !l.exitOpen {
		l.exitOpen = true
		l.world.log.Debugf("exit gate of %s opened at sunrise", l.Name)
	}
}

// CanPlant reports whether y lies strictly inside the plantable band.
func (l *Level) CanPlant(y float64) bool {
	return l.PlantMin < y && y < l.PlantMax
}

func (l *Level) addFlower(location geometry.Vector2D, age float64) *Flower {
	f := &Flower{Location: location, Age: age}
	l.flowers = append(l.flowers, f)
	return f
}

func (l *Level) updateScenery(dt float64) {
	for _, f := range l.flowers {
		f.update(dt, l)
	}
	for _, s := range l.foodSources {
		s.update(dt)
	}
}
