package simulation

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if got := len(cfg.Levels); got != 5 {
		t.Errorf("levels = %d; want 5", got)
	}
	if got := len(cfg.Forces); got != 9 {
		t.Errorf("forces = %d; want 9", got)
	}
	if cfg.World.Width != 1800 || cfg.World.Height != 1000 {
		t.Errorf("world = %vx%v; want 1800x1000", cfg.World.Width, cfg.World.Height)
	}
	if cfg.Boid.TimeToDie != 3 {
		t.Errorf("time_to_die = %v; want 3", cfg.Boid.TimeToDie)
	}
	if third := cfg.Levels[2]; third.OnFirstEntry.ClockTime == nil || *third.OnFirstEntry.ClockTime != 45 {
		t.Errorf("Level03 clock_time = %v; want 45", third.OnFirstEntry.ClockTime)
	}
	if err := validateSchema(cfg); err != nil {
		t.Errorf("defaults fail the schema: %v", err)
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_Overlay(t *testing.T) {
	path := writeConfig(t, `
boid:
  maximum_speed: 90
  mass: 2
spatial:
  index: grid
debug: true
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Boid.MaximumSpeed != 90 || cfg.Boid.Mass != 2 {
		t.Errorf("boid = %+v; want the overlay values", cfg.Boid)
	}
	// untouched keys keep their defaults
	if cfg.Boid.HungryLevel != 5 {
		t.Errorf("hungry_level = %v; want the default 5", cfg.Boid.HungryLevel)
	}
	if cfg.Spatial.Index != "grid" || !cfg.Debug {
		t.Errorf("spatial = %q, debug = %v", cfg.Spatial.Index, cfg.Debug)
	}
	if got := len(cfg.Levels); got != 5 {
		t.Errorf("levels = %d; want the 5 defaults", got)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		invalid bool
	}{
		{"schema: negative speed", "boid: {maximum_speed: -1, mass: 1}", true},
		{"schema: unknown index", "spatial: {index: quadtree}", true},
		{"schema: unknown event", "world: {width: 10, height: 10, gate_radius: 1, active_events: [TAKE_OFF]}", true},
		{"schema: unknown force kind", "forces: [{name: gust, kind: tornado, weight: 1}]", true},
		{"validate: inverted multiplier", "leader: {min_speed_multiplier: 3, max_speed_multiplier: 2}", true},
		{"validate: constant force without vector", "forces: [{name: gust, kind: constant, weight: 1}]", true},
		{"validate: hook names an unknown force", `
levels:
  - name: Only
    starting_flock: {count: 1, min: {x: 0, y: 0}, max: {x: 1, y: 1}}
    completion: {kind: never}
    on_first_entry: {activate_forces: [magnetism]}
`, true},
		{"validate: first level without a flock", `
levels:
  - name: Empty
    completion: {kind: never}
`, true},
		{"parse: broken yaml", "boid: [", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			if err == nil {
				t.Fatal("LoadConfig() error = nil; want an error")
			}
			if got := errors.Is(err, ErrInvalidConfig); got != tt.invalid {
				t.Errorf("errors.Is(ErrInvalidConfig) = %v; want %v (%v)", got, tt.invalid, err)
			}
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading config file") {
		t.Errorf("LoadConfig() error = %v; want a read error", err)
	}
}

func TestConfig_ValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Levels = append(cfg.Levels, cfg.Levels[1])
	cfg.Reproduction.MinBabies = 9

	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("Validate() error = %v; want ErrInvalidConfig", err)
	}
	for _, want := range []string{"declared twice", "min_babies"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate() error %q does not mention %q", err, want)
		}
	}
}

func TestConfig_WriteYAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Boid.MaximumSpeed = 123
	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML() error = %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if loaded.Boid.MaximumSpeed != 123 {
		t.Errorf("maximum_speed = %v; want 123", loaded.Boid.MaximumSpeed)
	}
	if got := len(loaded.Levels); got != len(cfg.Levels) {
		t.Errorf("levels = %d; want %d", got, len(cfg.Levels))
	}
}
