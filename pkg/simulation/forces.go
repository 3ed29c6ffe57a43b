package simulation

import (
	"errors"
	"fmt"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
)

var ErrUnknownForce = errors.New("unknown force")

// ForceKind is the closed set of steering policies.
type ForceKind string

const (
	KindSeparation     ForceKind = "separation"
	KindAlignment      ForceKind = "alignment"
	KindCohesion       ForceKind = "cohesion"
	KindBoundary       ForceKind = "boundary"
	KindObstacle       ForceKind = "obstacle"
	KindAttractor      ForceKind = "attractor"
	KindHunger         ForceKind = "hunger"
	KindLandingGravity ForceKind = "landing_gravity"
	KindConstant       ForceKind = "constant"
)

func ParseForceKind(s string) (ForceKind, error) {
	switch k := ForceKind(s); k {
	case KindSeparation, KindAlignment, KindCohesion, KindBoundary, KindObstacle,
		KindAttractor, KindHunger, KindLandingGravity, KindConstant:
		return k, nil
	}
	return "", fmt.Errorf("%w kind %q", ErrUnknownForce, s)
}

// FoodSelection decides which food source a hungry boid heads for.
type FoodSelection string

const (
	SelectNearest FoodSelection = "nearest" // nearest source not recently exhausted
	SelectRandom  FoodSelection = "random"  // any source, uniformly
)

const defaultPassingFactor = 1.5

// Force is one configured steering policy. Fields not used by its Kind are ignored.
type Force struct {
	Name           string
	Kind           ForceKind
	Weight         float64
	Distance       float64 // neighbour or obstacle range; 0 for forces without one
	Active         bool
	WeightedLeader bool              // alignment, cohesion
	PassingFactor  float64           // obstacle
	Gravity        float64           // landing_gravity
	Vector         geometry.Vector2D // constant
	Selection      FoodSelection     // hunger
}

func newForce(c ForceConfig) (*Force, error) {
	kind, err := ParseForceKind(c.Kind)
	if err != nil {
		return nil, err
	}
	f := &Force{
		Name:           c.Name,
		Kind:           kind,
		Weight:         c.Weight,
		Distance:       c.Distance,
		Active:         c.Active,
		WeightedLeader: c.WeightedLeader,
		PassingFactor:  c.PassingFactor,
		Gravity:        c.Gravity,
		Selection:      FoodSelection(c.Selection),
	}
	if c.Vector != nil {
		f.Vector = *c.Vector
	}
	if f.PassingFactor == 0 {
		f.PassingFactor = defaultPassingFactor
	}
	if f.Selection == "" {
		f.Selection = SelectNearest
	}
	return f, nil
}

// apply computes this force for b and feeds it to b.ApplyForce, once per
// contribution so that the LANDING rule sees each one separately.
func (f *Force) apply(b *Boid, dt float64) {
	switch f.Kind {
	case KindSeparation:
		neighbours := b.flock.Neighbours(b, f.Distance, false)
		if len(neighbours) == 0 {
			return
		}
		centre := geometry.Centroid(positions(neighbours))
		b.ApplyForce(b.Pos.Sub(centre).Mul(f.Weight*dt), false)

	case KindAlignment:
		neighbours := b.flock.Neighbours(b, f.Distance, f.WeightedLeader)
		if len(neighbours) == 0 {
			return
		}
		average := geometry.Centroid(velocities(neighbours))
		b.ApplyForce(average.Mul(f.Weight*dt), false)

	case KindCohesion:
		neighbours := b.flock.Neighbours(b, f.Distance, f.WeightedLeader)
		if len(neighbours) == 0 {
			return
		}
		centre := geometry.Centroid(positions(neighbours))
		b.ApplyForce(centre.Sub(b.Pos).Mul(f.Weight*dt), false)

	case KindBoundary:
		f.applyBoundary(b)

	case KindObstacle:
		f.applyObstacles(b, dt)

	case KindAttractor:
		for _, a := range b.flock.level.attractors {
			if b.Pos.DistanceTo(a.Location) < a.Distance {
				pull := a.Location.Sub(b.Pos).Normalize().Mul(a.Weight * f.Weight)
				b.ApplyForce(pull.Mul(dt), false)
			}
		}

	case KindHunger:
		f.applyHunger(b, dt)

	case KindLandingGravity:
		if b.state == Landing {
			b.ApplyForce(geometry.NewVector(0, f.Gravity).Mul(f.Weight), false)
		}

	case KindConstant:
		b.ApplyForce(f.Vector.Mul(f.Weight*dt), false)

	default:
		panic(fmt.Sprintf("force %q has unhandled kind %q", f.Name, f.Kind))
	}
}

// applyBoundary pushes back from each box edge closer than Distance with a
// constant magnitude of Weight. It is not scaled by dt.
func (f *Force) applyBoundary(b *Boid) {
	w := b.world().cfg.World
	if b.Pos.X < f.Distance {
		b.ApplyForce(geometry.NewVector(f.Weight, 0), false)
	}
	if b.Pos.X > w.Width-f.Distance {
		b.ApplyForce(geometry.NewVector(-f.Weight, 0), false)
	}
	if b.Pos.Y < f.Distance {
		b.ApplyForce(geometry.NewVector(0, f.Weight), false)
	}
	if b.Pos.Y > w.Height-f.Distance {
		b.ApplyForce(geometry.NewVector(0, -f.Weight), false)
	}
}

// applyObstacles projects the boid forward by its distance to each obstacle
// in range; if that passing point falls within PassingFactor radii of the
// obstacle, the boid is pushed away from the centre.
func (f *Force) applyObstacles(b *Boid, dt float64) {
	for _, o := range b.flock.level.obstacles {
		distance := b.Pos.DistanceTo(o.Location)
		if distance > f.Distance {
			continue
		}
		passing := b.Pos.Add(b.Vel.Normalize().Mul(distance))
		offset := passing.Sub(o.Location)
		if offset.Len() > o.Radius*f.PassingFactor {
			continue
		}
		weight := o.Weight
		if weight == 0 {
			weight = f.Weight
		}
		b.ApplyForce(offset.Mul(weight*dt), false)
	}
}

func (f *Force) applyHunger(b *Boid, dt float64) {
	if !b.IsHungry() {
		return
	}
	sources := b.flock.level.foodSources
	if len(sources) == 0 {
		return
	}

	var target *FoodSource
	switch f.Selection {
	case SelectRandom:
		target = sources[b.world().rng.IntN(len(sources))]
	default:
		best := 0.0
		for _, src := range sources {
			if b.Exhausted(src) {
				continue
			}
			if d := b.Pos.DistanceTo(src.Location); target == nil || d < best {
				target, best = src, d
			}
		}
	}
	if target == nil {
		return
	}

	pull := target.Location.Sub(b.Pos).Normalize().Mul(target.Weight * f.Weight)
	b.ApplyForce(pull.Mul(dt), false)
}

func positions(boids []*Boid) []geometry.Vector2D {
	out := make([]geometry.Vector2D, len(boids))
	for i, b := range boids {
		out[i] = b.Pos
	}
	return out
}

func velocities(boids []*Boid) []geometry.Vector2D {
	out := make([]geometry.Vector2D, len(boids))
	for i, b := range boids {
		out[i] = b.Vel
	}
	return out
}
