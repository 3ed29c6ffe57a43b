// Package engine hosts a simulation.World inside a goakt actor so that
// ticks and commands from any goroutine are applied one at a time.
package engine

import (
	"errors"
	"time"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/simulation"
	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Observer receives every snapshot on the actor goroutine.
type Observer interface {
	Observe(s *simulation.Snapshot) error
}

// WorldActor owns the world. It understands two messages:
//   - *durationpb.Duration advances the world by that much simulated time
//   - *structpb.Struct is a command, see ApplyCommand
type WorldActor struct {
	world      *simulation.World
	snapshotCh chan<- *simulation.Snapshot
	observers  []Observer

	ticks    int
	commands int
	rejected int
	dropped  int

	lastLogTime time.Time
}

// NewWorldActor wraps world. After each tick a snapshot is offered to
// snapshotCh without blocking; a nil channel disables that.
func NewWorldActor(world *simulation.World, snapshotCh chan<- *simulation.Snapshot, observers ...Observer) *WorldActor {
	return &WorldActor{
		world:       world,
		snapshotCh:  snapshotCh,
		observers:   observers,
		lastLogTime: time.Now(),
	}
}

// Tick is the message that advances the world by dt.
func Tick(dt time.Duration) *durationpb.Duration {
	return durationpb.New(dt)
}

func (a *WorldActor) PreStart(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("world %s starting in %s", ctx.ActorName(), a.world.Current().Name)
	return nil
}

func (a *WorldActor) Receive(ctx *actor.ReceiveContext) {
	switch msg := ctx.Message().(type) {
	case *goaktpb.PostStart:
		ctx.Logger().Infof("world started with %d boids", a.world.Current().Flock().Len())

	case *durationpb.Duration:
		if err := msg.CheckValid(); err != nil {
			ctx.Logger().Warnf("ignoring tick: %v", err)
			return
		}
		if _, err := a.step(msg.AsDuration().Seconds()); err != nil {
			ctx.Logger().Warnf("observer failed: %v", err)
		}
		a.logStats(ctx)

	case *structpb.Struct:
		a.commands++
		if err := ApplyCommand(a.world, msg); err != nil {
			a.rejected++
			ctx.Logger().Warnf("command rejected: %v", err)
		}

	default:
		ctx.Unhandled()
	}
}

func (a *WorldActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Infof("world stopped after %d ticks", a.world.Ticks())
	return nil
}

// step ticks the world, then publishes the snapshot. Observer failures
// are returned but do not stop the simulation.
func (a *WorldActor) step(dt float64) (*simulation.Snapshot, error) {
	a.world.Tick(dt)
	a.ticks++

	snap := a.world.Snapshot()
	var errs []error
	for _, o := range a.observers {
		if err := o.Observe(snap); err != nil {
			errs = append(errs, err)
		}
	}
	a.pushSnapshot(snap)
	return snap, errors.Join(errs...)
}

func (a *WorldActor) pushSnapshot(snap *simulation.Snapshot) {
	if a.snapshotCh == nil {
		return
	}
	select {
	case a.snapshotCh <- snap:
	default:
		// consumer busy, skip frame
		a.dropped++
	}
}

func (a *WorldActor) logStats(ctx *actor.ReceiveContext) {
	if time.Since(a.lastLogTime) < time.Second {
		return
	}
	ctx.Logger().Infof("ticks: %d/sec, commands: %d (%d rejected), dropped frames: %d, level %s",
		a.ticks, a.commands, a.rejected, a.dropped, a.world.Current().Name)
	a.ticks, a.commands, a.rejected, a.dropped = 0, 0, 0, 0
	a.lastLogTime = time.Now()
}
