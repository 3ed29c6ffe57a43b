package simulation

import "github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"

// Leader steering. Turning and thrust are essential forces: they are never
// dropped by the LANDING rule.

func (w *World) leader() (*Boid, error) {
	b := w.Leader()
	if b == nil {
		return nil, ErrNoLeader
	}
	return b, nil
}

// TurnLeft pushes the leader perpendicular to its heading, to its left on
// screen (y grows downward).
func (w *World) TurnLeft() error {
	return w.turn(-90)
}

func (w *World) TurnRight() error {
	return w.turn(90)
}

func (w *World) turn(degrees float64) error {
	b, err := w.leader()
	if err != nil {
		return err
	}
	heading := b.Vel.Heading() + degrees
	b.ApplyForce(geometry.NewVectorPolarDegrees(w.cfg.Boid.SteeringForce, heading), true)
	return nil
}

// SpeedUp raises the leader speed multiplier by one step, up to the
// configured maximum, and thrusts it forward.
func (w *World) SpeedUp() error {
	b, err := w.leader()
	if err != nil {
		return err
	}
	lc := w.cfg.Leader
	b.speedMultiplier = min(b.speedMultiplier*lc.SpeedStep, lc.MaxSpeedMultiplier)
	if forward := b.Vel.Normalize(); !forward.IsZero() {
		b.ApplyForce(forward.Mul(w.cfg.Boid.SteeringForce), true)
	}
	return nil
}

func (w *World) SlowDown() error {
	b, err := w.leader()
	if err != nil {
		return err
	}
	lc := w.cfg.Leader
	if lc.SpeedStep > 0 {
		b.speedMultiplier = max(b.speedMultiplier/lc.SpeedStep, lc.MinSpeedMultiplier)
	}
	b.Vel = b.Vel.ClampLen(b.MaximumSpeed())
	return nil
}

func (w *World) ResetSpeed() error {
	b, err := w.leader()
	if err != nil {
		return err
	}
	b.speedMultiplier = 1
	b.Vel = b.Vel.ClampLen(b.MaximumSpeed())
	return nil
}

// ToggleLanding asks the whole current flock to land or take off.
func (w *World) ToggleLanding() error {
	if _, err := w.leader(); err != nil {
		return err
	}
	w.RaiseEvent(ToggleLanding)
	return nil
}

func (w *World) Shout() error {
	if _, err := w.leader(); err != nil {
		return err
	}
	w.RaiseEvent(Shout)
	return nil
}

// PlantFlower plants a seed where the leader is, if that spot is plantable.
func (w *World) PlantFlower() error {
	b, err := w.leader()
	if err != nil {
		return err
	}
	w.raiseFor(PlantFlower, b)
	return nil
}
