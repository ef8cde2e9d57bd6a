package game

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns the stock arena from config/field.yml
func DefaultConfig() Config {
	return Config{
		Map: MapConfig{Size: [2]float64{DefaultArenaWidth, DefaultArenaHeight}},
		Robot: RobotConfig{
			Size:                   [2]float64{DefaultRobotWidth, DefaultRobotHeight},
			MaxSpeed:               [2]float64{200, 150},
			RotationMaxSpeed:       100,
			TurretRotationMaxSpeed: 100,
			Shield:                 5,
			BulletSpeed:            400,
			FireMinInterval:        1.0,
		},
	}
}

// LoadConfig decodes a YAML configuration on top of the defaults and validates it
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFile reads a configuration from a YAML file
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := LoadConfig(f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the values the simulation relies on
func (c Config) Validate() error {
	w, h := c.ArenaSize()
	if w <= 0 || h <= 0 {
		return ErrInvalidArenaSize
	}
	rw, rh := c.Robot.Size[0], c.Robot.Size[1]
	if rw <= 0 || rh <= 0 || rw >= w || rh >= h {
		return ErrInvalidRobotSize
	}
	rc := c.Robot
	if rc.MaxSpeed[0] < 0 || rc.MaxSpeed[1] < 0 || rc.RotationMaxSpeed < 0 ||
		rc.TurretRotationMaxSpeed < 0 || rc.BulletSpeed < 0 || rc.FireMinInterval < 0 {
		return ErrInvalidLimits
	}
	if rc.Shield < 1 {
		return ErrInvalidShield
	}
	return nil
}
