package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/lao-tseu-is-alive/go-butterfly-flock/pkg/geometry"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

//go:embed config.schema.json
var configSchemaJSON string

// ErrInvalidConfig wraps every configuration failure after parsing.
var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	World        WorldConfig        `yaml:"world"`
	Boid         BoidConfig         `yaml:"boid"`
	Leader       LeaderConfig       `yaml:"leader"`
	Forces       []ForceConfig      `yaml:"forces"`
	Reproduction ReproductionConfig `yaml:"reproduction"`
	Flower       FlowerConfig       `yaml:"flower"`
	DayNight     DayNightConfig     `yaml:"day_night"`
	Spatial      SpatialConfig      `yaml:"spatial"`
	Telemetry    TelemetryConfig    `yaml:"telemetry"`
	Debug        bool               `yaml:"debug"`
	Levels       []LevelConfig      `yaml:"levels"`
}

type WorldConfig struct {
	Width                float64  `yaml:"width"`
	Height               float64  `yaml:"height"`
	GateRadius           float64  `yaml:"gate_radius"`
	GateRepositionFactor float64  `yaml:"gate_reposition_factor"` // boids re-appear this many gate radii inside
	LandingZoneTop       float64  `yaml:"landing_zone_top"`
	PlantMin             float64  `yaml:"plant_min"`
	PlantMax             float64  `yaml:"plant_max"`
	ExitAttractorWeight  float64  `yaml:"exit_attractor_weight"`
	ExitAttractorRange   float64  `yaml:"exit_attractor_range"` // in gate radii
	TimeStep             float64  `yaml:"time_step"`            // seconds per tick for headless runs
	ActiveEvents         []string `yaml:"active_events"`
}

type BoidConfig struct {
	MaximumSpeed       float64 `yaml:"maximum_speed"`
	Mass               float64 `yaml:"mass"`
	SteeringForce      float64 `yaml:"steering_force"`
	StartingFood       float64 `yaml:"starting_food"`
	StartingFoodJitter float64 `yaml:"starting_food_jitter"`
	MaximumFood        float64 `yaml:"maximum_food"`
	HungryLevel        float64 `yaml:"hungry_level"`
	AdultAge           float64 `yaml:"adult_age"`
	FeedingSpeed       float64 `yaml:"feeding_speed"`
	ExhaustedMemory    int     `yaml:"exhausted_memory"`
	TimeToDie          float64 `yaml:"time_to_die"`
}

type LeaderConfig struct {
	MinSpeedMultiplier float64 `yaml:"min_speed_multiplier"`
	MaxSpeedMultiplier float64 `yaml:"max_speed_multiplier"`
	SpeedStep          float64 `yaml:"speed_step"`
	Weighting          int     `yaml:"weighting"` // how many times the leader counts as a neighbour
	ShoutingDistance   float64 `yaml:"shouting_distance"`
	ShoutingForce      float64 `yaml:"shouting_force"`
}

type ForceConfig struct {
	Name           string             `yaml:"name"`
	Kind           string             `yaml:"kind"`
	Weight         float64            `yaml:"weight"`
	Distance       float64            `yaml:"distance,omitempty"`
	Active         bool               `yaml:"active"`
	WeightedLeader bool               `yaml:"weighted_leader,omitempty"`
	PassingFactor  float64            `yaml:"passing_factor,omitempty"`
	Gravity        float64            `yaml:"gravity,omitempty"`
	Vector         *geometry.Vector2D `yaml:"vector,omitempty"`
	Selection      string             `yaml:"selection,omitempty"`
}

type ReproductionConfig struct {
	Enabled         bool              `yaml:"enabled"`
	MinInterval     float64           `yaml:"min_interval"`
	MinBabies       int               `yaml:"min_babies"`
	MaxBabies       int               `yaml:"max_babies"`
	MaxBabyDistance float64           `yaml:"max_baby_distance"`
	MateDistance    float64           `yaml:"mate_distance"`
	BabyVelocity    geometry.Vector2D `yaml:"baby_velocity"`
	MaxFlock        int               `yaml:"max_flock"` // no births once a flock holds this many, 0 = no cap
}

type FlowerConfig struct {
	AdultAge          float64           `yaml:"adult_age"`
	SeedPeriod        float64           `yaml:"seed_period"`
	InitialAgeMin     float64           `yaml:"initial_age_min"` // fraction of adult_age for level flowers
	InitialAgeMax     float64           `yaml:"initial_age_max"`
	FoodOffset        geometry.Vector2D `yaml:"food_offset"`
	FoodRadius        float64           `yaml:"food_radius"`
	FoodStartingLevel float64           `yaml:"food_starting_level"`
	FoodMaximumLevel  float64           `yaml:"food_maximum_level"`
	FoodWeight        float64           `yaml:"food_weight"`
	TopUpSpeed        float64           `yaml:"top_up_speed"`
	ObstacleWeight    float64           `yaml:"obstacle_weight"`
}

// DayNightConfig holds the phase lengths in clock seconds.
type DayNightConfig struct {
	Daytime    float64 `yaml:"daytime"`
	Sunset     float64 `yaml:"sunset"`
	Nighttime  float64 `yaml:"nighttime"`
	Sunrise    float64 `yaml:"sunrise"`
	Multiplier float64 `yaml:"multiplier"` // clock seconds per simulated second
}

type SpatialConfig struct {
	Index string `yaml:"index"`
}

type TelemetryConfig struct {
	EveryTicks int `yaml:"every_ticks"`
}

type LevelConfig struct {
	Name              string              `yaml:"name"`
	EntranceGate      *geometry.Vector2D  `yaml:"entrance_gate,omitempty"`
	ExitGate          *geometry.Vector2D  `yaml:"exit_gate,omitempty"`
	ExitClosed        bool                `yaml:"exit_closed,omitempty"`
	OpenExitAtSunrise bool                `yaml:"open_exit_at_sunrise,omitempty"`
	Obstacles         []ObstacleConfig    `yaml:"obstacles,omitempty"`
	Attractors        []AttractorConfig   `yaml:"attractors,omitempty"`
	Flowers           []geometry.Vector2D `yaml:"flowers,omitempty"`
	StartingFlock     *FlockSpawnConfig   `yaml:"starting_flock,omitempty"`
	Completion        CompletionConfig    `yaml:"completion"`
	OnFirstEntry      FirstEntryConfig    `yaml:"on_first_entry,omitempty"`
}

type ObstacleConfig struct {
	Location geometry.Vector2D `yaml:"location"`
	Radius   float64           `yaml:"radius"`
	Weight   float64           `yaml:"weight,omitempty"` // 0 falls back to the force weight
}

type AttractorConfig struct {
	Location geometry.Vector2D `yaml:"location"`
	Weight   float64           `yaml:"weight"`
	Distance float64           `yaml:"distance"`
}

// FlockSpawnConfig places boids uniformly in the [Min, Max] box.
type FlockSpawnConfig struct {
	Count      int               `yaml:"count"`
	Min        geometry.Vector2D `yaml:"min"`
	Max        geometry.Vector2D `yaml:"max"`
	Speed      float64           `yaml:"speed"`
	HeadingMin float64           `yaml:"heading_min"`
	HeadingMax float64           `yaml:"heading_max"`
	Adult      bool              `yaml:"adult"`
}

type CompletionConfig struct {
	Kind  string `yaml:"kind"`
	Count int    `yaml:"count,omitempty"`
}

type FirstEntryConfig struct {
	ActivateEvents []string `yaml:"activate_events,omitempty"`
	ActivateForces []string `yaml:"activate_forces,omitempty"`
	StartClock     bool     `yaml:"start_clock,omitempty"`
	ClockTime      *float64 `yaml:"clock_time,omitempty"`
	NeedFood       bool     `yaml:"need_food,omitempty"`
	FoodFactorMin  float64  `yaml:"food_factor_min,omitempty"` // food = hungry_level * U(min, max)
	FoodFactorMax  float64  `yaml:"food_factor_max,omitempty"`
}

// DefaultConfig returns the embedded defaults.
func DefaultConfig() *Config {
	cfg, err := LoadConfig("")
	if err != nil {
		panic(fmt.Sprintf("embedded defaults are invalid: %v", err))
	}
	return cfg
}

// LoadConfig decodes the embedded defaults, overlays the YAML file at path
// (if any), validates the result against the JSON schema and then runs
// the cross-field checks of Validate.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := validateSchema(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validateSchema checks the merged configuration, not the raw user file,
// so that a partial overlay is judged together with the defaults.
func validateSchema(cfg *Config) error {
	sch, err := jsonschema.CompileString("config.schema.json", configSchemaJSON)
	if err != nil {
		return fmt.Errorf("failed to compile schema: %w", err)
	}

	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	var doc any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("decoding config: %w", err)
	}
	// the validator wants JSON values (float64, map[string]any)
	js, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("converting config to json: %w", err)
	}
	var v any
	if err := json.Unmarshal(js, &v); err != nil {
		return fmt.Errorf("converting config to json: %w", err)
	}

	if err := sch.Validate(v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// Validate enforces the rules the schema cannot express.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(c.Levels) == 0 {
		fail("at least one level is required")
	}
	if c.Leader.MinSpeedMultiplier > c.Leader.MaxSpeedMultiplier {
		fail("leader.min_speed_multiplier %v > max_speed_multiplier %v",
			c.Leader.MinSpeedMultiplier, c.Leader.MaxSpeedMultiplier)
	}
	if c.Leader.MinSpeedMultiplier > 1 || c.Leader.MaxSpeedMultiplier < 1 {
		fail("leader speed multiplier range must contain 1")
	}
	if c.Reproduction.MinBabies > c.Reproduction.MaxBabies {
		fail("reproduction.min_babies %d > max_babies %d", c.Reproduction.MinBabies, c.Reproduction.MaxBabies)
	}
	if c.Flower.InitialAgeMin > c.Flower.InitialAgeMax {
		fail("flower.initial_age_min > initial_age_max")
	}
	if c.World.PlantMin > c.World.PlantMax {
		fail("world.plant_min > plant_max")
	}

	for _, name := range c.World.ActiveEvents {
		if _, err := ParseEvent(name); err != nil {
			fail("world.active_events: %w", err)
		}
	}

	forces := make(map[string]bool, len(c.Forces))
	for _, f := range c.Forces {
		if forces[f.Name] {
			fail("force %q declared twice", f.Name)
		}
		forces[f.Name] = true
		if _, err := ParseForceKind(f.Kind); err != nil {
			fail("force %q: %w", f.Name, err)
		}
		if f.Kind == string(KindConstant) && f.Vector == nil {
			fail("force %q: constant force needs a vector", f.Name)
		}
	}

	levels := make(map[string]bool, len(c.Levels))
	for i, l := range c.Levels {
		if levels[l.Name] {
			fail("level %q declared twice", l.Name)
		}
		levels[l.Name] = true
		if i == 0 && l.StartingFlock == nil {
			fail("level %q: the first level needs a starting_flock", l.Name)
		}
		if _, err := parseCompletion(l.Completion); err != nil {
			fail("level %q: %w", l.Name, err)
		}
		for _, name := range l.OnFirstEntry.ActivateEvents {
			if _, err := ParseEvent(name); err != nil {
				fail("level %q: %w", l.Name, err)
			}
		}
		for _, name := range l.OnFirstEntry.ActivateForces {
			if !forces[name] {
				fail("level %q: %w %q", l.Name, ErrUnknownForce, name)
			}
		}
		if f := l.OnFirstEntry; f.FoodFactorMin > f.FoodFactorMax {
			fail("level %q: food_factor_min > food_factor_max", l.Name)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
