package simulation

import "github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"

// Snapshot is a copy of what a renderer or recorder needs from one tick.
// It shares no memory with the World.
type Snapshot struct {
	Tick     uint64
	Elapsed  float64
	Level    LevelView
	Phase    Phase
	Clock    bool // day/night clock running
	NeedFood bool
	Leader   AgentID
	Boids    []BoidView
	// Population counts live boids in every level.
	Population int
}

type BoidView struct {
	ID     AgentID
	Pos    geometry.Vector2D
	Vel    geometry.Vector2D
	Sex    Sex
	State  State
	Food   float64
	Age    float64
	Adult  bool
	Leader bool
}

type LevelView struct {
	Name           string
	Index          int
	EntranceGate   *geometry.Vector2D
	ExitGate       *geometry.Vector2D
	ExitOpen       bool
	Completed      bool
	LandingZoneTop float64
	Obstacles      []Obstacle
	Attractors     []Attractor
	Flowers        []FlowerView
	FoodSources    []FoodView
}

type FlowerView struct {
	Location geometry.Vector2D
	Age      float64
	Adult    bool
}

type FoodView struct {
	Location geometry.Vector2D
	Radius   float64
	Fraction float64
}

// Snapshot captures the current level.
func (w *World) Snapshot() *Snapshot {
	level := w.Current()
	s := &Snapshot{
		Tick:     w.ticks,
		Elapsed:  w.elapsed,
		Level:    level.view(),
		Phase:    w.clock.Phase(),
		Clock:    w.clock.Running(),
		NeedFood: w.needFood,
	}
	if leader := level.flock.Leader(); leader != nil {
		s.Leader = leader.id
	}
	for _, l := range w.levels {
		s.Population += l.flock.Len()
	}

	s.Boids = make([]BoidView, 0, level.flock.Len())
	for _, b := range level.flock.boids {
		s.Boids = append(s.Boids, BoidView{
			ID:     b.id,
			Pos:    b.Pos,
			Vel:    b.Vel,
			Sex:    b.Sex,
			State:  b.state,
			Food:   b.Food,
			Age:    b.Age,
			Adult:  b.IsAdult(),
			Leader: b.IsLeader(),
		})
	}
	return s
}

func (l *Level) view() LevelView {
	v := LevelView{
		Name:           l.Name,
		Index:          l.index,
		ExitOpen:       l.exitOpen,
		Completed:      l.Completed(),
		LandingZoneTop: l.LandingZoneTop,
		Obstacles:      l.Obstacles(),
		Attractors:     l.Attractors(),
	}
	if l.EntranceGate != nil {
		gate := *l.EntranceGate
		v.EntranceGate = &gate
	}
	if l.ExitGate != nil {
		gate := *l.ExitGate
		v.ExitGate = &gate
	}
	cfg := l.world.cfg.Flower
	for _, f := range l.flowers {
		v.Flowers = append(v.Flowers, FlowerView{Location: f.Location, Age: f.Age, Adult: f.Adult(cfg)})
	}
	for _, s := range l.foodSources {
		v.FoodSources = append(v.FoodSources, FoodView{Location: s.Location, Radius: s.Radius, Fraction: s.Fraction()})
	}
	return v
}

// StateCounts tallies the boids of the snapshot by state.
func (s *Snapshot) StateCounts() map[State]int {
	counts := make(map[State]int, len(AllStates()))
	for _, b := range s.Boids {
		counts[b.State]++
	}
	return counts
}
