package simulation

import "github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"

// Obstacle is a static disc boids steer around.
type Obstacle struct {
	Location geometry.Vector2D
	Radius   float64
	Weight   float64 // 0 uses the obstacle force weight
}

// Attractor pulls boids within Distance toward Location.
type Attractor struct {
	Location geometry.Vector2D
	Weight   float64
	Distance float64
}

// FoodSource is a replenishing pool of nectar.
type FoodSource struct {
	Location geometry.Vector2D
	Radius   float64
	Weight   float64
	Level    float64
	Maximum  float64
	topUp    float64
}

func (s *FoodSource) update(dt float64) {
	s.Level = min(s.Level+dt*s.topUp, s.Maximum)
}

// Fraction is Level/Maximum, for drawing depletion arcs.
func (s *FoodSource) Fraction() float64 {
	if s.Maximum <= 0 {
		return 0
	}
	return s.Level / s.Maximum
}

// Flower starts as a seed (negative age) and spawns a food source and an
// obstacle in its level once it reaches adult age.
type Flower struct {
	Location geometry.Vector2D
	Age      float64
	source   *FoodSource
}

func (f *Flower) Adult(cfg FlowerConfig) bool { return f.Age >= cfg.AdultAge }

// Source is the food source grown by this flower, nil before maturity.
func (f *Flower) Source() *FoodSource { return f.source }

func (f *Flower) update(dt float64, level *Level) {
	cfg := level.world.cfg.Flower
	if f.Adult(cfg) {
		return
	}
	f.Age += dt
	if !f.Adult(cfg) {
		return
	}

	location := f.Location.Add(cfg.FoodOffset)
	f.source = &FoodSource{
		Location: location,
		Radius:   cfg.FoodRadius,
		Weight:   cfg.FoodWeight,
		Level:    cfg.FoodStartingLevel,
		Maximum:  cfg.FoodMaximumLevel,
		topUp:    cfg.TopUpSpeed,
	}
	level.foodSources = append(level.foodSources, f.source)
	level.obstacles = append(level.obstacles, Obstacle{
		Location: location,
		Radius:   cfg.FoodRadius,
		Weight:   cfg.ObstacleWeight,
	})
	level.world.log.Debugf("flower at %s bloomed in %s", f.Location, level.Name)
}
