package game

import (
	"math"
	"sort"
	"time"
)

// Arena defaults (mirrors config/field.yml)
const (
	DefaultArenaWidth  = 640
	DefaultArenaHeight = 480

	DefaultRobotWidth  = 40
	DefaultRobotHeight = 32

	// Game timing
	FPS            = 60
	UpdateInterval = time.Second / FPS // Tick pacing used when a human is watching
)

// MapConfig describes the arena
type MapConfig struct {
	Size [2]float64 `yaml:"size" json:"size"` // width, height
}

// RobotConfig holds per-robot limits shared by every robot in a battle
type RobotConfig struct {
	Size                   [2]float64 `yaml:"size" json:"size"`           // body width, height
	MaxSpeed               [2]float64 `yaml:"max_speed" json:"maxSpeed"` // forward, backward (both positive)
	RotationMaxSpeed       float64    `yaml:"rotation_max_speed" json:"rotationMaxSpeed"`
	TurretRotationMaxSpeed float64    `yaml:"turret_rotation_max_speed" json:"turretRotationMaxSpeed"`
	Shield                 int        `yaml:"shield" json:"shield"`
	BulletSpeed            float64    `yaml:"bullet_speed" json:"bulletSpeed"`
	FireMinInterval        float64    `yaml:"fire_min_interval" json:"fireMinInterval"` // Seconds between shots
}

// Config is the read-only battle configuration
type Config struct {
	Map   MapConfig   `yaml:"map" json:"map"`
	Robot RobotConfig `yaml:"robot" json:"robot"`
}

// ArenaSize returns the arena width and height
func (c Config) ArenaSize() (float64, float64) {
	return c.Map.Size[0], c.Map.Size[1]
}

// Robot is a snapshot of one robot. Values are copied, never shared.
type Robot struct {
	Name   string  `yaml:"name" json:"name"`
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`

	// Kinematics
	Speed    float64 `yaml:"speed" json:"speed"`       // Units per second along the heading
	Rotation float64 `yaml:"rotation" json:"rotation"` // Degrees per second
	Angle    float64 `yaml:"angle" json:"angle"`       // Heading in degrees, (-180, 180]

	// Turret (angle is relative to the body)
	TurretRotation float64 `yaml:"turret_rotation" json:"turretRotation"`
	TurretAngle    float64 `yaml:"turret_angle" json:"turretAngle"`

	Shield     int     `yaml:"shield" json:"shield"`
	TimeToFire float64 `yaml:"time_to_fire" json:"timeToFire"` // Reload countdown, 0 means ready

	// Pending turret targets (absolute angles)
	FireAngle        *float64 `yaml:"fire_angle" json:"fireAngle"`                 // Rotate and fire
	TurretFinalAngle *float64 `yaml:"turret_final_angle" json:"turretFinalAngle"` // Rotate only
}

// Alive reports whether the robot still has shield left
func (r Robot) Alive() bool {
	return r.Shield > 0
}

// Position returns the robot center
func (r Robot) Position() Point {
	return Point{X: r.X, Y: r.Y}
}

// Bullet is a projectile in flight
type Bullet struct {
	X      float64 `yaml:"x" json:"x"`
	Y      float64 `yaml:"y" json:"y"`
	Angle  float64 `yaml:"angle" json:"angle"`
	Speed  float64 `yaml:"speed" json:"speed"`
	Origin string  `yaml:"origin" json:"origin"` // Name of the robot that fired it
}

// Position returns the bullet position
func (b Bullet) Position() Point {
	return Point{X: b.X, Y: b.Y}
}

// Field holds the entire battle state
type Field struct {
	Config     Config           `yaml:"config" json:"config"`
	Robots     map[string]Robot `yaml:"robots" json:"robots"`
	Bullets    []Bullet         `yaml:"bullets" json:"bullets"`
	BattleTime float64          `yaml:"battle_time" json:"battleTime"`
}

// NewField creates an empty field for a configuration
func NewField(cfg Config) *Field {
	return &Field{
		Config:  cfg,
		Robots:  make(map[string]Robot),
		Bullets: make([]Bullet, 0),
	}
}

// RobotNames returns the names of the robots on the field in lexical order
func (f *Field) RobotNames() []string {
	names := make([]string, 0, len(f.Robots))
	for name := range f.Robots {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SortedRobots returns the robots ordered by name
func (f *Field) SortedRobots() []Robot {
	robots := make([]Robot, 0, len(f.Robots))
	for _, name := range f.RobotNames() {
		robots = append(robots, f.Robots[name])
	}
	return robots
}

// Clone returns a copy that shares nothing mutable with f
func (f *Field) Clone() *Field {
	c := &Field{
		Config:     f.Config,
		Robots:     make(map[string]Robot, len(f.Robots)),
		Bullets:    make([]Bullet, len(f.Bullets)),
		BattleTime: f.BattleTime,
	}
	for name, r := range f.Robots {
		c.Robots[name] = r
	}
	copy(c.Bullets, f.Bullets)
	return c
}

// StateChange is how every computation reports what it wants changed.
// Only the battle orchestrator applies it to a Field.
type StateChange struct {
	UpdateRobots []Robot
	NewBullets   []Bullet
}

// Empty reports whether the change carries nothing
func (sc StateChange) Empty() bool {
	return len(sc.UpdateRobots) == 0 && len(sc.NewBullets) == 0
}

// NewRobot creates a robot with zeroed kinematics and the configured body and shield
func NewRobot(name string, x, y float64, cfg Config) Robot {
	return Robot{
		Name:   name,
		X:      x,
		Y:      y,
		Width:  cfg.Robot.Size[0],
		Height: cfg.Robot.Size[1],
		Shield: cfg.Robot.Shield,
	}
}

// ApplyLimits clamps speed and rotation rates to the configured maxima
func ApplyLimits(r Robot, rc RobotConfig) Robot {
	r.Speed = clamp(r.Speed, -rc.MaxSpeed[1], rc.MaxSpeed[0])
	r.Rotation = clamp(r.Rotation, -rc.RotationMaxSpeed, rc.RotationMaxSpeed)
	r.TurretRotation = clamp(r.TurretRotation, -rc.TurretRotationMaxSpeed, rc.TurretRotationMaxSpeed)
	return r
}

// clamp maps NaN to zero, or to the nearest bound when zero is out of range
func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		v = 0
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Float returns a pointer to v, for the optional turret targets
func Float(v float64) *float64 {
	return &v
}
