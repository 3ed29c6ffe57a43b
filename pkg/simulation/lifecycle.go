package simulation

import (
	"fmt"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/fsm"
)

// State is a boid lifecycle state. The set is closed.
type State uint8

const (
	Flying State = iota
	Landing
	Landed
	Sleeping
	Dying
	Hungry
	Feeding
)

var stateNames = [...]string{
	Flying:   "FLYING",
	Landing:  "LANDING",
	Landed:   "LANDED",
	Sleeping: "SLEEPING",
	Dying:    "DYING",
	Hungry:   "HUNGRY",
	Feeding:  "FEEDING",
}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", s)
}

// AllStates lists every state in declaration order.
func AllStates() []State {
	return []State{Flying, Landing, Landed, Sleeping, Dying, Hungry, Feeding}
}

// Event drives boid transitions and world reactions.
type Event uint8

const (
	ThroughEntranceGate Event = iota + 1
	ThroughExitGate
	Shout
	ToggleLanding
	LandingZoneEntered
	StartOfSunset
	StartOfDaytime
	StartOfNighttime
	StartOfSunrise
	GotHungry
	Starving
	StartFeeding
	Replete
	PlantFlower
)

var eventNames = map[Event]string{
	ThroughEntranceGate: "THROUGH_ENTRANCE_GATE",
	ThroughExitGate:     "THROUGH_EXIT_GATE",
	Shout:               "SHOUT",
	ToggleLanding:       "TOGGLE_LANDING",
	LandingZoneEntered:  "LANDING_ZONE_ENTERED",
	StartOfSunset:       "START_OF_SUNSET",
	StartOfDaytime:      "START_OF_DAYTIME",
	StartOfNighttime:    "START_OF_NIGHTTIME",
	StartOfSunrise:      "START_OF_SUNRISE",
	GotHungry:           "GOT_HUNGRY",
	Starving:            "STARVING",
	StartFeeding:        "START_FEEDING",
	Replete:             "REPLETE",
	PlantFlower:         "PLANT_FLOWER",
}

func (e Event) String() string {
	if name, ok := eventNames[e]; ok {
		return name
	}
	return fmt.Sprintf("Event(%d)", e)
}

// AllEvents lists every event in declaration order.
func AllEvents() []Event {
	events := make([]Event, 0, len(eventNames))
	for e := ThroughEntranceGate; e <= PlantFlower; e++ {
		events = append(events, e)
	}
	return events
}

// ParseEvent maps an upper snake case name to its Event.
func ParseEvent(name string) (Event, error) {
	for e, n := range eventNames {
		if n == name {
			return e, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownEvent, name)
}

type lifecycle = fsm.Machine[State, Event, *Boid]

type transition = fsm.Transition[State, *Boid]

// newLifecycle builds the transition table shared by every boid of a world.
// Guards only read the boid and the world it lives in.
func newLifecycle() *lifecycle {
	m := fsm.NewMachine[State, Event, *Boid]()
	for _, s := range AllStates() {
		m.AddState(s)
	}

	notInLandingZone := func(b *Boid) bool { return !b.inLandingZone }
	inLandingZone := func(b *Boid) bool { return b.inLandingZone }
	isSunset := func(b *Boid) bool { return b.world().clock.IsSunset() }
	notSunset := func(b *Boid) bool { return !b.world().clock.IsSunset() }
	leaderGrounded := func(b *Boid) bool {
		leader := b.flock.Leader()
		return leader != nil && (leader.state == Landing || leader.state == Landed)
	}

	// landing and landed
	m.AddTransition(Flying, ToggleLanding, transition{Target: Landing, Guards: []fsm.Guard[*Boid]{notInLandingZone}})
	m.AddTransition(Flying, ToggleLanding, transition{Target: Landed, Guards: []fsm.Guard[*Boid]{inLandingZone}})
	m.AddTransitions([]State{Landing, Landed}, ToggleLanding, transition{Target: Flying})
	m.AddTransition(Flying, Shout, transition{Target: Landing, Guards: []fsm.Guard[*Boid]{leaderGrounded}})
	m.AddTransition(Landing, LandingZoneEntered, transition{Target: Landed, Guards: []fsm.Guard[*Boid]{notSunset}})
	m.AddTransition(Landing, LandingZoneEntered, transition{Target: Sleeping, Guards: []fsm.Guard[*Boid]{isSunset}})
	m.OnEnter(Landing, notBelowLandingLine)
	m.OnEnter(Landed, toLandingLine)

	// day and night
	m.AddTransition(Landed, StartOfSunset, transition{Target: Sleeping})
	m.AddTransition(Sleeping, StartOfSunrise, transition{Target: Flying, Action: notifySunrise})
	m.AddTransitions([]State{Flying, Landing}, StartOfNighttime, transition{Target: Dying})

	// food
	m.AddTransitions([]State{Flying, Landed, Landing}, GotHungry, transition{Target: Hungry})
	m.AddTransitions([]State{Flying, Landing, Sleeping, Hungry}, Starving, transition{Target: Dying})
	m.AddTransition(Hungry, StartFeeding, transition{Target: Feeding})
	m.AddTransition(Feeding, Replete, transition{Target: Flying})
	// the food source ran dry before the boid was full
	m.AddTransition(Feeding, GotHungry, transition{Target: Hungry})

	m.OnEnter(Dying, startDeathClock)
	m.OnExit(Feeding, stopFeeding)
	return m
}

func notBelowLandingLine(b *Boid) {
	top := b.flock.level.LandingZoneTop
	if b.Pos.Y > top {
		b.Pos.Y = top
	}
}

func toLandingLine(b *Boid) {
	b.Pos.Y = b.flock.level.LandingZoneTop
}

func startDeathClock(b *Boid) {
	b.deathClock = b.world().cfg.Boid.TimeToDie
}

func notifySunrise(b *Boid) {
	b.flock.level.onSunrise()
}

func stopFeeding(b *Boid) {
	b.feedingFrom = nil
}
