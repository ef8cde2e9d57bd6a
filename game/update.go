package game

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// NoTickID prefixes agent lines that are not an answer to a particular update
const NoTickID = "-"

// RobotView is what an agent sees of a robot
type RobotView struct {
	X              float64 `yaml:"x"`
	Y              float64 `yaml:"y"`
	Angle          float64 `yaml:"angle"`
	Rotation       float64 `yaml:"rotation"`
	Shield         int     `yaml:"shield"`
	Speed          float64 `yaml:"speed"`
	TimeToFire     float64 `yaml:"time_to_fire"`
	TurretAngle    float64 `yaml:"turret_angle"`
	TurretRotation float64 `yaml:"turret_rotation"`
}

// BulletView is what an agent sees of a bullet
type BulletView struct {
	X     float64 `yaml:"x"`
	Y     float64 `yaml:"y"`
	Angle float64 `yaml:"angle"`
	Speed float64 `yaml:"speed"`
}

// UpdateRobots groups the agent's own robot and everybody else
type UpdateRobots struct {
	Me     RobotView   `yaml:"me"`
	Others []RobotView `yaml:"others"`
}

// Update is the per-tick snapshot sent to an agent
type Update struct {
	ID      string       `yaml:"id"`
	Time    float64      `yaml:"time"`
	Robots  UpdateRobots `yaml:"robots"`
	Bullets []BulletView `yaml:"bullets"`
}

// ViewOf strips a robot down to the fields agents may see
func ViewOf(r Robot) RobotView {
	return RobotView{
		X:              r.X,
		Y:              r.Y,
		Angle:          r.Angle,
		Rotation:       r.Rotation,
		Shield:         r.Shield,
		Speed:          r.Speed,
		TimeToFire:     r.TimeToFire,
		TurretAngle:    r.TurretAngle,
		TurretRotation: r.TurretRotation,
	}
}

// NewUpdate builds the snapshot of field as seen by the robot called me
func NewUpdate(id string, f *Field, me string) (Update, error) {
	own, ok := f.Robots[me]
	if !ok {
		return Update{}, fmt.Errorf("%w: %s", ErrRobotNotFound, me)
	}
	u := Update{
		ID:      id,
		Time:    f.BattleTime,
		Robots:  UpdateRobots{Me: ViewOf(own), Others: make([]RobotView, 0, len(f.Robots)-1)},
		Bullets: make([]BulletView, 0, len(f.Bullets)),
	}
	for _, r := range f.SortedRobots() {
		if r.Name == me {
			continue
		}
		u.Robots.Others = append(u.Robots.Others, ViewOf(r))
	}
	for _, b := range f.Bullets {
		u.Bullets = append(u.Bullets, BulletView{X: b.X, Y: b.Y, Angle: b.Angle, Speed: b.Speed})
	}
	return u, nil
}

// WriteBlock writes v as a YAML document followed by a blank line
func WriteBlock(w io.Writer, v any) error {
	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode block: %w", err)
	}
	data = bytes.TrimRight(data, "\n")
	data = append(data, '\n', '\n')
	_, err = w.Write(data)
	return err
}

// ReadBlock reads lines up to the next blank line.
// It returns io.EOF when the stream ends before any line of the block was read.
func ReadBlock(r *bufio.Reader) ([]byte, error) {
	var buf bytes.Buffer
	for {
		line, err := r.ReadString('\n')
		if strings.TrimSpace(line) == "" {
			if buf.Len() > 0 {
				return buf.Bytes(), nil
			}
			if err != nil {
				return nil, err
			}
			// An empty block ends the stream
			return nil, io.EOF
		}
		buf.WriteString(line)
		if !strings.HasSuffix(line, "\n") {
			buf.WriteByte('\n')
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return buf.Bytes(), nil
			}
			return nil, err
		}
	}
}

// DecodeBlock reads the next block into v
func DecodeBlock(r *bufio.Reader, v any) error {
	data, err := ReadBlock(r)
	if err != nil {
		return err
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode block: %w", err)
	}
	return nil
}
