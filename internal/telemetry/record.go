package telemetry

import (
	"slices"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/simulation"
	"gonum.org/v1/gonum/stat"
)

// Record is one telemetry row, sampled from a snapshot of the current level.
type Record struct {
	Tick    uint64  `csv:"tick"`
	SimTime float64 `csv:"sim_time"`
	Level   string  `csv:"level"`
	Phase   string  `csv:"phase"`

	// Population is every live boid, Flock only the current level.
	Population int `csv:"population"`
	Flock      int `csv:"flock"`

	Flying   int `csv:"flying"`
	Landing  int `csv:"landing"`
	Landed   int `csv:"landed"`
	Sleeping int `csv:"sleeping"`
	Dying    int `csv:"dying"`
	Hungry   int `csv:"hungry"`
	Feeding  int `csv:"feeding"`

	LeaderState string `csv:"leader_state"`

	FoodMean  float64 `csv:"food_mean"`
	FoodStd   float64 `csv:"food_std"`
	FoodP50   float64 `csv:"food_p50"`
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`

	Flowers     int `csv:"flowers"`
	FoodSources int `csv:"food_sources"`
}

// Summarize builds a Record from s.
func Summarize(s *simulation.Snapshot) Record {
	r := Record{
		Tick:        s.Tick,
		SimTime:     s.Elapsed,
		Level:       s.Level.Name,
		Phase:       s.Phase.String(),
		Population:  s.Population,
		Flock:       len(s.Boids),
		LeaderState: "NONE",
		Flowers:     len(s.Level.Flowers),
		FoodSources: len(s.Level.FoodSources),
	}

	counts := s.StateCounts()
	r.Flying = counts[simulation.Flying]
	r.Landing = counts[simulation.Landing]
	r.Landed = counts[simulation.Landed]
	r.Sleeping = counts[simulation.Sleeping]
	r.Dying = counts[simulation.Dying]
	r.Hungry = counts[simulation.Hungry]
	r.Feeding = counts[simulation.Feeding]

	food := make([]float64, 0, len(s.Boids))
	speed := make([]float64, 0, len(s.Boids))
	for _, b := range s.Boids {
		food = append(food, b.Food)
		speed = append(speed, b.Vel.Len())
		if b.Leader {
			r.LeaderState = b.State.String()
		}
	}
	r.FoodMean, r.FoodStd = meanStdDev(food)
	r.SpeedMean, r.SpeedStd = meanStdDev(speed)
	if len(food) > 0 {
		slices.Sort(food)
		r.FoodP50 = stat.Quantile(0.5, stat.Empirical, food, nil)
	}
	return r
}

// meanStdDev is stat.MeanStdDev with 0 instead of NaN for short samples.
func meanStdDev(x []float64) (mean, std float64) {
	switch len(x) {
	case 0:
		return 0, 0
	case 1:
		return x[0], 0
	}
	return stat.MeanStdDev(x, nil)
}
