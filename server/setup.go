package server

import (
	"fmt"
	"math"
	"strings"

	"github.com/lab1702/langbots/game"
)

// Input modules
const (
	InputCommands = "commands"
	InputKeyboard = "keyboard"
)

// Output modules
const (
	OutputTerminal  = "terminal"
	OutputWebSocket = "ws"
	OutputDump      = "dump"
	OutputVideo     = "video"
	OutputSound     = "sound"
)

// RobotSpec is a parsed -robot flag: name:commands:path or name:keyboard
type RobotSpec struct {
	Name       string
	Input      string
	Executable string
}

// ParseRobotSpec parses a robot flag value
func ParseRobotSpec(s string) (RobotSpec, error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) < 2 || parts[0] == "" {
		return RobotSpec{}, fmt.Errorf("%w: %q", ErrInvalidRobotSpec, s)
	}
	if strings.ContainsAny(parts[0], " \t") {
		return RobotSpec{}, fmt.Errorf("%w: name %q contains spaces", ErrInvalidRobotSpec, parts[0])
	}

	spec := RobotSpec{Name: parts[0], Input: parts[1]}
	switch spec.Input {
	case InputCommands:
		if len(parts) < 3 || parts[2] == "" {
			return RobotSpec{}, fmt.Errorf("%w: %q needs an executable", ErrInvalidRobotSpec, s)
		}
		spec.Executable = parts[2]
	case InputKeyboard:
		if len(parts) > 2 {
			return RobotSpec{}, fmt.Errorf("%w: %q takes no arguments", ErrInvalidRobotSpec, s)
		}
	default:
		return RobotSpec{}, fmt.Errorf("%w: %s", ErrUnknownInput, spec.Input)
	}
	return spec, nil
}

// OutputSpec is a parsed -output flag: terminal, sound, ws:addr, dump:file or video:file
type OutputSpec struct {
	Kind string
	Arg  string
}

// ParseOutputSpec parses an output flag value
func ParseOutputSpec(s string) (OutputSpec, error) {
	kind, arg, hasArg := strings.Cut(s, ":")
	spec := OutputSpec{Kind: kind, Arg: arg}
	switch kind {
	case OutputTerminal, OutputSound:
		if hasArg {
			return OutputSpec{}, fmt.Errorf("%w: %q takes no arguments", ErrInvalidOutputSpec, s)
		}
	case OutputDump, OutputVideo:
		if arg == "" {
			return OutputSpec{}, fmt.Errorf("%w: %q needs a file name", ErrInvalidOutputSpec, s)
		}
	case OutputWebSocket:
		if arg == "" {
			spec.Arg = ":8080"
		}
	default:
		return OutputSpec{}, fmt.Errorf("%w: %s", ErrUnknownOutput, kind)
	}
	return spec, nil
}

// DefaultPositions places n robots on an ellipse around the arena center, the first
// at the top. Two robots face each other at (W/2, H/5) and (W/2, 4H/5).
func DefaultPositions(n int, cfg game.Config) []game.Point {
	width, height := cfg.ArenaSize()
	cx, cy := width/2, height/2
	rx, ry := 0.35*width, 0.3*height

	points := make([]game.Point, n)
	for i := range points {
		theta := 2 * math.Pi * float64(i) / float64(n)
		points[i] = game.Point{
			X: cx + rx*math.Sin(theta),
			Y: cy - ry*math.Cos(theta),
		}
	}
	if n == 2 {
		// Exact, without the rounding of sin(pi)
		points[1].X = cx
	}
	return points
}

// PlaceRobots creates the robots named by specs at their default positions
func PlaceRobots(specs []RobotSpec, cfg game.Config) ([]game.Robot, error) {
	if len(specs) < 2 {
		return nil, ErrNotEnoughRobots
	}
	seen := make(map[string]bool, len(specs))
	positions := DefaultPositions(len(specs), cfg)
	robots := make([]game.Robot, len(specs))
	for i, spec := range specs {
		if seen[spec.Name] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRobot, spec.Name)
		}
		seen[spec.Name] = true
		robots[i] = game.NewRobot(spec.Name, positions[i].X, positions[i].Y, cfg)
	}
	return robots, nil
}
