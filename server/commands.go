package server

import (
	"fmt"
	"math"
	"strconv"

	"github.com/lab1702/langbots/game"
)

// Agent commands
const (
	CmdSetSpeed               = "set-speed"
	CmdSetRotationSpeed       = "set-rotation-speed"
	CmdSetTurretRotationSpeed = "set-turret-rotation-speed"
	CmdFire                   = "fire"
	CmdRotateTurretAndFire    = "rotate-turret-to-angle-and-fire"
	CmdRotateTurret           = "rotate-turret-to-angle"
)

// InterpretCommands turns the tokens of one agent line into a StateChange for robot.
//
// Interpretation stops at the first unknown or malformed command. The change
// accumulated up to that point is returned together with the error, so a bad
// tail never rolls back the commands before it.
func InterpretCommands(cfg game.Config, robot game.Robot, tokens []string) (game.StateChange, error) {
	var bullets []game.Bullet
	result := func() game.StateChange {
		return game.StateChange{UpdateRobots: []game.Robot{robot}, NewBullets: bullets}
	}

	for len(tokens) > 0 {
		command := tokens[0]
		consumed := 1

		switch command {
		case CmdFire:
			if b, ok := game.Fire(cfg, robot); ok {
				bullets = append(bullets, b)
			}

		case CmdSetSpeed, CmdSetRotationSpeed, CmdSetTurretRotationSpeed,
			CmdRotateTurretAndFire, CmdRotateTurret:
			value, err := floatArgument(tokens)
			if err != nil {
				return result(), err
			}
			consumed = 2
			robot = applyCommand(robot, command, value)

		default:
			return result(), fmt.Errorf("%w: %s", ErrUnknownCommand, command)
		}

		tokens = tokens[consumed:]
	}

	return result(), nil
}

func floatArgument(tokens []string) (float64, error) {
	if len(tokens) < 2 {
		return 0, fmt.Errorf("%w: %s", ErrMissingArgument, tokens[0])
	}
	value, err := strconv.ParseFloat(tokens[1], 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("%w: %s %q", ErrInvalidArgument, tokens[0], tokens[1])
	}
	return value, nil
}

// applyCommand handles the commands that take one numeric argument
func applyCommand(robot game.Robot, command string, value float64) game.Robot {
	switch command {
	case CmdSetSpeed:
		robot.Speed = value
	case CmdSetRotationSpeed:
		robot.Rotation = value
	case CmdSetTurretRotationSpeed:
		robot.TurretRotation = value
	case CmdRotateTurretAndFire:
		// While reloading the request degrades to a plain rotation
		if robot.TimeToFire > 0 {
			if robot.TurretFinalAngle == nil {
				robot.TurretFinalAngle = game.Float(value)
			}
		} else if robot.FireAngle == nil {
			robot.FireAngle = game.Float(value)
		}
	case CmdRotateTurret:
		if robot.TurretFinalAngle == nil {
			robot.TurretFinalAngle = game.Float(value)
		}
	}
	return robot
}
