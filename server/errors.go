package server

import "errors"

// Command interpretation errors
var (
	ErrUnknownCommand  = errors.New("unknown command")
	ErrMissingArgument = errors.New("missing argument")
	ErrInvalidArgument = errors.New("invalid argument")
)

// Battle setup errors
var (
	ErrNotEnoughRobots   = errors.New("need at least 2 robots to fight")
	ErrDuplicateRobot    = errors.New("duplicate robot name")
	ErrInvalidRobotSpec  = errors.New("invalid robot spec")
	ErrInvalidOutputSpec = errors.New("invalid output spec")
	ErrUnknownInput      = errors.New("input module not available")
	ErrUnknownOutput     = errors.New("output module not available")
)

// ErrAgentDisconnected is reported once when an agent closes its output stream
var ErrAgentDisconnected = errors.New("agent disconnected")
