package simulation

import (
	"fmt"
	"slices"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
)

// AgentID identifies a boid for the lifetime of a World. Zero is never used.
type AgentID int64

type Sex uint8

const (
	Male Sex = iota + 1
	Female
)

func (s Sex) String() string {
	switch s {
	case Male:
		return "male"
	case Female:
		return "female"
	default:
		return fmt.Sprintf("Sex(%d)", s)
	}
}

// Boid is one butterfly. Kinematic and biological fields are plain data;
// lifecycle state only changes through events.
type Boid struct {
	id   AgentID
	Pos  geometry.Vector2D
	Vel  geometry.Vector2D
	Mass float64
	Sex  Sex

	Age       float64
	Food      float64
	LastMated float64
	mate      AgentID // potential mate, re-validated before use

	state       State
	timeInState float64
	deathClock  float64
	alive       bool

	exhausted       []*FoodSource // most recent last
	feedingFrom     *FoodSource
	speedMultiplier float64
	inLandingZone   bool

	flock *Flock
}

func (b *Boid) ID() AgentID { return b.id }

func (b *Boid) State() State { return b.state }

// SetState commits a lifecycle state. It is called by the lifecycle
// machine; other callers should raise an event instead.
func (b *Boid) SetState(s State) {
	b.state = s
	b.timeInState = 0
}

func (b *Boid) TimeInState() float64 { return b.timeInState }

func (b *Boid) Alive() bool { return b.alive }

func (b *Boid) DeathClock() float64 { return b.deathClock }

func (b *Boid) Flock() *Flock { return b.flock }

func (b *Boid) InLandingZone() bool { return b.inLandingZone }

func (b *Boid) SpeedMultiplier() float64 { return b.speedMultiplier }

func (b *Boid) FeedingFrom() *FoodSource { return b.feedingFrom }

// PotentialMate is the id of the boid this one is courting, zero if none.
func (b *Boid) PotentialMate() AgentID { return b.mate }

func (b *Boid) IsLeader() bool {
	return b.flock != nil && b.flock.leader == b.id
}

func (b *Boid) IsAdult() bool {
	return b.Age >= b.world().cfg.Boid.AdultAge
}

func (b *Boid) IsHungry() bool {
	return b.Food <= b.world().cfg.Boid.HungryLevel
}

func (b *Boid) RecentlyMated() bool {
	return b.Age-b.LastMated < b.world().cfg.Reproduction.MinInterval
}

// Speed is the length of the velocity.
func (b *Boid) Speed() float64 { return b.Vel.Len() }

// MaximumSpeed is the effective speed cap: the base cap, scaled by the
// speed multiplier while the boid leads its flock.
func (b *Boid) MaximumSpeed() float64 {
	maximum := b.world().cfg.Boid.MaximumSpeed
	if b.IsLeader() {
		maximum *= b.speedMultiplier
	}
	return maximum
}

// Exhausted reports whether the food source is in the recent exhausted set.
func (b *Boid) Exhausted(src *FoodSource) bool {
	return slices.Contains(b.exhausted, src)
}

func (b *Boid) markExhausted(src *FoodSource) {
	capacity := b.world().cfg.Boid.ExhaustedMemory
	if capacity <= 0 {
		return
	}
	if i := slices.Index(b.exhausted, src); i >= 0 {
		b.exhausted = slices.Delete(b.exhausted, i, i+1)
	}
	b.exhausted = append(b.exhausted, src)
	if len(b.exhausted) > capacity {
		b.exhausted = slices.Delete(b.exhausted, 0, len(b.exhausted)-capacity)
	}
}

func (b *Boid) world() *World {
	return b.flock.level.world
}

func (b *Boid) String() string {
	if b.IsLeader() {
		return fmt.Sprintf("<leader %d (%s)>", b.id, b.state)
	}
	return fmt.Sprintf("<boid %d (%s)>", b.id, b.state)
}

// ApplyForce adds force/mass to the velocity and clamps the speed.
//
// While LANDING a non-essential force whose resulting heading points up
// (normalised heading above 180 degrees) is dropped entirely. Each call is
// judged on its own, never on a summed vector.
func (b *Boid) ApplyForce(force geometry.Vector2D, essential bool) {
	acceleration := force.Mul(1 / b.Mass)
	velocity := b.Vel.Add(acceleration)

	if b.state == Landing && !force.IsZero() && !essential {
		if velocity.Heading() > 180 {
			return
		}
	}

	b.Vel = velocity.ClampLen(b.MaximumSpeed())
}

// update advances the boid by dt seconds. Checks raise events; the order
// of the checks matters because each observes the effects of the previous.
func (b *Boid) update(dt float64) {
	b.checkHungry(dt)
	b.checkFoodSources()
	b.feed(dt)
	b.Age += dt
	b.timeInState += dt

	if b.moving() {
		b.Pos = b.Pos.Add(b.Vel.Mul(dt))
	}

	b.checkExitGate()
	b.checkEntranceGate()
	b.checkLandingZone()
	b.checkMating()

	if b.state == Dying {
		b.deathClock -= dt
		if b.deathClock <= 0 {
			b.alive = false
		}
	}
}

func (b *Boid) moving() bool {
	switch b.state {
	case Landed, Sleeping, Feeding:
		return false
	default:
		return true
	}
}

func (b *Boid) checkHungry(dt float64) {
	w := b.world()
	wasHungry := b.IsHungry()
	if w.needFood {
		b.Food -= dt
	}
	if b.IsHungry() && !wasHungry {
		w.raiseFor(GotHungry, b)
	}
	if b.Food < 0 && b.state != Dying {
		w.raiseFor(Starving, b)
	}
}

func (b *Boid) checkFoodSources() {
	if b.state != Hungry {
		return
	}
	for _, src := range b.flock.level.foodSources {
		if src.Level <= 0 || b.Exhausted(src) {
			continue
		}
		if b.Pos.DistanceTo(src.Location) < src.Radius {
			b.feedingFrom = src
			b.world().raiseFor(StartFeeding, b)
			return
		}
	}
}

// exhaustedLevel is the source level below which a feeding boid gives up.
const exhaustedLevel = 0.1

func (b *Boid) feed(dt float64) {
	if b.state != Feeding {
		return
	}
	w := b.world()
	maximum := w.cfg.Boid.MaximumFood
	amount := min(dt*w.cfg.Boid.FeedingSpeed, maximum-b.Food)

	src := b.feedingFrom
	if src != nil {
		amount = min(amount, src.Level)
		src.Level -= amount
	}
	b.Food += max(amount, 0)

	switch {
	case b.Food >= maximum:
		w.raiseFor(Replete, b)
	case src != nil && src.Level < exhaustedLevel:
		b.markExhausted(src)
		if b.IsHungry() {
			w.raiseFor(GotHungry, b)
		} else {
			w.raiseFor(Replete, b)
		}
	}
}

func (b *Boid) checkGate(gate *geometry.Vector2D, ev Event) {
	if gate == nil {
		return
	}
	if b.Pos.DistanceTo(*gate) > b.world().cfg.World.GateRadius {
		return
	}
	b.world().raiseFor(ev, b)
}

// checkExitGate lets the leader through only once its level is complete.
func (b *Boid) checkExitGate() {
	level := b.flock.level
	if b.IsLeader() && !level.checkCompletion() {
		return
	}
	b.checkGate(level.ExitGate, ThroughExitGate)
}

func (b *Boid) checkEntranceGate() {
	if b.IsLeader() {
		b.checkGate(b.flock.level.EntranceGate, ThroughEntranceGate)
	}
}

func (b *Boid) checkLandingZone() {
	if b.Pos.Y > b.flock.level.LandingZoneTop {
		if !b.inLandingZone {
			b.world().raiseFor(LandingZoneEntered, b)
			b.inLandingZone = true
		}
		return
	}
	b.inLandingZone = false
}

// checkMating lets a landed adult female court a landed adult male nearby.
// The choice is remembered as a handle and mating happens on the next
// update if the mate is still eligible.
func (b *Boid) checkMating() {
	w := b.world()
	if !w.cfg.Reproduction.Enabled || b.Sex != Female {
		return
	}
	if !b.alive || b.state != Landed || !b.IsAdult() || b.IsHungry() || b.RecentlyMated() || b.flock.full() {
		b.mate = 0
		return
	}

	if b.mate != 0 {
		mate := b.flock.Get(b.mate)
		b.mate = 0
		if mate == nil || !b.eligibleMate(mate) {
			return
		}
		b.LastMated = b.Age
		mate.LastMated = mate.Age
		w.log.Debugf("%s mated with %s", b, mate)
		b.flock.MakeBabies(b.Pos)
		return
	}

	var candidates []*Boid
	for _, other := range b.flock.boids {
		if other != b && b.eligibleMate(other) {
			candidates = append(candidates, other)
		}
	}
	if len(candidates) > 0 {
		b.mate = candidates[w.rng.IntN(len(candidates))].id
	}
}

func (b *Boid) eligibleMate(m *Boid) bool {
	return m.alive &&
		m.flock == b.flock &&
		m.Sex == Male &&
		m.state == Landed &&
		m.IsAdult() &&
		!m.IsHungry() &&
		!m.RecentlyMated() &&
		b.Pos.DistanceTo(m.Pos) <= b.world().cfg.Reproduction.MateDistance
}
