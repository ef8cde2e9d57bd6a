package game

import "errors"

// Configuration errors
var (
	ErrInvalidArenaSize = errors.New("arena size must be positive")
	ErrInvalidRobotSize = errors.New("robot size must be positive and fit the arena")
	ErrInvalidLimits    = errors.New("speed limits must not be negative")
	ErrInvalidShield    = errors.New("shield must be at least 1")
)

// ErrRobotNotFound is returned when a snapshot is requested for a robot not on the field
var ErrRobotNotFound = errors.New("robot not found")
