package engine

import (
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/simulation"
)

func newTestWorld(t testing.TB) *simulation.World {
	t.Helper()
	w, err := simulation.NewWorld(simulation.DefaultConfig(), simulation.WithRand(rand.New(rand.NewPCG(11, 11))))
	if err != nil {
		t.Fatalf("NewWorld() error = %v", err)
	}
	return w
}

func forceByName(w *simulation.World, name string) simulation.Force {
	for _, f := range w.Forces() {
		if f.Name == name {
			return f
		}
	}
	return simulation.Force{}
}

func TestApplyCommand_Steering(t *testing.T) {
	w := newTestWorld(t)
	leader := w.Leader()
	leader.Vel = geometry.NewVector(10, 0)

	if err := ApplyCommand(w, MustCommand(CmdSpeedUp, nil)); err != nil {
		t.Fatalf("speed_up error = %v", err)
	}
	if got := leader.SpeedMultiplier(); got <= 1 {
		t.Errorf("SpeedMultiplier() = %v; want > 1", got)
	}

	if err := ApplyCommand(w, MustCommand(CmdResetSpeed, nil)); err != nil {
		t.Fatalf("reset_speed error = %v", err)
	}
	if got := leader.SpeedMultiplier(); got != 1 {
		t.Errorf("SpeedMultiplier() = %v; want 1", got)
	}

	before := leader.Vel
	if err := ApplyCommand(w, MustCommand(CmdTurnLeft, nil)); err != nil {
		t.Fatalf("turn_left error = %v", err)
	}
	if leader.Vel == before {
		t.Error("turn_left did not change the leader velocity")
	}
}

func TestApplyCommand_Forces(t *testing.T) {
	w := newTestWorld(t)

	if err := ApplyCommand(w, MustCommand(CmdSetForceWeight, map[string]any{"force": "cohesion", "weight": 0.25})); err != nil {
		t.Fatalf("set_force_weight error = %v", err)
	}
	if got := forceByName(w, "cohesion").Weight; got != 0.25 {
		t.Errorf("cohesion weight = %v; want 0.25", got)
	}

	if err := ApplyCommand(w, MustCommand(CmdSetForceActive, map[string]any{"force": "wind", "active": true})); err != nil {
		t.Fatalf("set_force_active error = %v", err)
	}
	if !forceByName(w, "wind").Active {
		t.Error("wind should be active")
	}
}

func TestApplyCommand_RaiseEvent(t *testing.T) {
	w := newTestWorld(t)
	b := w.Leader()

	err := ApplyCommand(w, MustCommand(CmdRaiseEvent, map[string]any{"event": "STARVING", "agent": float64(b.ID())}))
	if err != nil {
		t.Fatalf("raise_event error = %v", err)
	}
	if b.State() != simulation.Dying {
		t.Errorf("state = %s; want DYING", b.State())
	}

	// flock-wide
	if err := ApplyCommand(w, MustCommand(CmdRaiseEvent, map[string]any{"event": "STARVING"})); err != nil {
		t.Fatalf("raise_event error = %v", err)
	}
	for _, other := range w.Current().Flock().Boids() {
		if other.State() != simulation.Dying {
			t.Errorf("%s state = %s; want DYING", other, other.State())
		}
	}
}

func TestApplyCommand_Errors(t *testing.T) {
	tests := []struct {
		name string
		cmd  string
		args map[string]any
		want error
	}{
		{"unknown command", "loop_the_loop", nil, ErrUnknownCommand},
		{"missing name", "", nil, ErrUnknownCommand},
		{"unknown event", CmdRaiseEvent, map[string]any{"event": "TAKE_OFF"}, simulation.ErrUnknownEvent},
		{"unknown agent", CmdRaiseEvent, map[string]any{"event": "SHOUT", "agent": 12345.0}, simulation.ErrUnknownAgent},
		{"agent is not a number", CmdRaiseEvent, map[string]any{"event": "SHOUT", "agent": "leader"}, ErrBadArgument},
		{"unknown force", CmdSetForceWeight, map[string]any{"force": "magnetism", "weight": 1.0}, simulation.ErrUnknownForce},
		{"missing weight", CmdSetForceWeight, map[string]any{"force": "cohesion"}, ErrBadArgument},
		{"missing active", CmdSetForceActive, map[string]any{"force": "wind"}, ErrBadArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := newTestWorld(t)
			err := ApplyCommand(w, MustCommand(tt.cmd, tt.args))
			if !errors.Is(err, tt.want) {
				t.Errorf("ApplyCommand() error = %v; want %v", err, tt.want)
			}
		})
	}
}

func TestApplyCommand_NoLeader(t *testing.T) {
	w := newTestWorld(t)
	w.Current().Flock().SetLeader(nil)
	if err := ApplyCommand(w, MustCommand(CmdShout, nil)); !errors.Is(err, simulation.ErrNoLeader) {
		t.Errorf("shout error = %v; want ErrNoLeader", err)
	}
}

func TestNewCommand_RejectsUnsupportedValues(t *testing.T) {
	if _, err := NewCommand(CmdSetForceWeight, map[string]any{"weight": make(chan int)}); err == nil {
		t.Error("NewCommand() accepted a channel argument")
	}
}
