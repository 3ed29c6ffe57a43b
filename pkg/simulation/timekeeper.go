package simulation

import (
	"fmt"
	"math"
)

type Phase uint8

const (
	Daytime Phase = iota
	Sunset
	Nighttime
	Sunrise
)

func (p Phase) String() string {
	switch p {
	case Daytime:
		return "DAYTIME"
	case Sunset:
		return "SUNSET"
	case Nighttime:
		return "NIGHTTIME"
	case Sunrise:
		return "SUNRISE"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// startEvent is the event raised when p begins.
func (p Phase) startEvent() Event {
	return [...]Event{StartOfDaytime, StartOfSunset, StartOfNighttime, StartOfSunrise}[p]
}

// TimeKeeper is the day/night clock. It stays idle until started and is
// advanced only by the simulation tick, never by wall time.
type TimeKeeper struct {
	durations  [4]float64
	multiplier float64
	running    bool
	time       float64 // clock seconds within the current cycle
	phase      Phase
}

func NewTimeKeeper(cfg DayNightConfig) *TimeKeeper {
	multiplier := cfg.Multiplier
	if multiplier <= 0 {
		multiplier = 1
	}
	return &TimeKeeper{
		durations:  [4]float64{cfg.Daytime, cfg.Sunset, cfg.Nighttime, cfg.Sunrise},
		multiplier: multiplier,
	}
}

func (t *TimeKeeper) Running() bool { return t.running }

func (t *TimeKeeper) Start() { t.running = true }

func (t *TimeKeeper) Phase() Phase { return t.phase }

func (t *TimeKeeper) Time() float64 { return t.time }

func (t *TimeKeeper) IsSunset() bool { return t.running && t.phase == Sunset }

func (t *TimeKeeper) cycle() float64 {
	return t.durations[0] + t.durations[1] + t.durations[2] + t.durations[3]
}

// SetTime jumps to clock time s and starts the clock. No events are raised
// for the phases skipped over.
func (t *TimeKeeper) SetTime(s float64) {
	t.running = true
	if t.cycle() <= 0 {
		return
	}
	t.time = math.Mod(s, t.cycle())
	if t.time < 0 {
		t.time += t.cycle()
	}
	t.phase = t.phaseAt(t.time)
}

func (t *TimeKeeper) phaseAt(s float64) Phase {
	for p := Daytime; p < Sunrise; p++ {
		if s < t.durations[p] {
			return p
		}
		s -= t.durations[p]
	}
	return Sunrise
}

// phaseEnd is the clock time at which the current phase ends.
func (t *TimeKeeper) phaseEnd() float64 {
	end := 0.0
	for p := Daytime; p <= t.phase; p++ {
		end += t.durations[p]
	}
	return end
}

// Advance moves the clock by dt simulated seconds and returns the start
// events of every phase entered, in order.
func (t *TimeKeeper) Advance(dt float64) []Event {
	if !t.running || dt <= 0 || t.cycle() <= 0 {
		return nil
	}
	var events []Event
	remaining := dt * t.multiplier
	for remaining > 0 {
		toEnd := t.phaseEnd() - t.time
		if remaining < toEnd {
			t.time += remaining
			break
		}
		remaining -= toEnd
		t.time = t.phaseEnd()
		t.phase = (t.phase + 1) % 4
		if t.phase == Daytime {
			t.time = 0
		}
		events = append(events, t.phase.startEvent())
	}
	return events
}
