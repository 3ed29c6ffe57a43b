package engine

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/simulation"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad command argument")
)

// Command names understood by ApplyCommand.
const (
	CmdTurnLeft       = "turn_left"
	CmdTurnRight      = "turn_right"
	CmdSpeedUp        = "speed_up"
	CmdSlowDown       = "slow_down"
	CmdResetSpeed     = "reset_speed"
	CmdToggleLanding  = "toggle_landing"
	CmdShout          = "shout"
	CmdPlantFlower    = "plant_flower"
	CmdRaiseEvent     = "raise_event"      // event, optional agent
	CmdSetForceWeight = "set_force_weight" // force, weight
	CmdSetForceActive = "set_force_active" // force, active
)

// NewCommand builds the wire form of a command: a struct with a "name"
// field plus its arguments.
func NewCommand(name string, args map[string]any) (*structpb.Struct, error) {
	fields := map[string]any{"name": name}
	for k, v := range args {
		fields[k] = v
	}
	return structpb.NewStruct(fields)
}

// MustCommand is NewCommand for arguments known to be valid.
func MustCommand(name string, args map[string]any) *structpb.Struct {
	cmd, err := NewCommand(name, args)
	if err != nil {
		panic(err)
	}
	return cmd
}

// ApplyCommand decodes cmd and runs it against w.
func ApplyCommand(w *simulation.World, cmd *structpb.Struct) error {
	fields := cmd.GetFields()
	name := fields["name"].GetStringValue()

	steering := map[string]func() error{
		CmdTurnLeft:      w.TurnLeft,
		CmdTurnRight:     w.TurnRight,
		CmdSpeedUp:       w.SpeedUp,
		CmdSlowDown:      w.SlowDown,
		CmdResetSpeed:    w.ResetSpeed,
		CmdToggleLanding: w.ToggleLanding,
		CmdShout:         w.Shout,
		CmdPlantFlower:   w.PlantFlower,
	}
	if fn, ok := steering[name]; ok {
		return fn()
	}

	switch name {
	case CmdRaiseEvent:
		ev, err := simulation.ParseEvent(fields["event"].GetStringValue())
		if err != nil {
			return err
		}
		agent, ok := fields["agent"]
		if !ok {
			w.RaiseEvent(ev)
			return nil
		}
		if _, isNumber := agent.GetKind().(*structpb.Value_NumberValue); !isNumber {
			return fmt.Errorf("%w: agent must be a number", ErrBadArgument)
		}
		return w.RaiseEventFor(ev, simulation.AgentID(agent.GetNumberValue()))

	case CmdSetForceWeight:
		weight, ok := fields["weight"]
		if !ok {
			return fmt.Errorf("%w: %s needs a weight", ErrBadArgument, name)
		}
		return w.SetForceWeight(fields["force"].GetStringValue(), weight.GetNumberValue())

	case CmdSetForceActive:
		active, ok := fields["active"]
		if !ok {
			return fmt.Errorf("%w: %s needs active", ErrBadArgument, name)
		}
		return w.SetForceActive(fields["force"].GetStringValue(), active.GetBoolValue())
	}
	return fmt.Errorf("%w %q", ErrUnknownCommand, name)
}
