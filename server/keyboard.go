package server

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/lab1702/langbots/game"
)

// Keyboard drive rates
const (
	KeyboardForwardSpeed   = 150.0
	KeyboardBackwardSpeed  = -100.0
	KeyboardRotationSpeed  = 100.0
	KeyboardTurretRotation = 100.0
)

// KeyboardControls maps keys to robot actions
type KeyboardControls struct {
	Forward, Backward       tcell.Key
	RotateLeft, RotateRight tcell.Key
	TurretLeft, TurretRight rune
	Fire, Stop              rune
}

// DefaultKeyboardControls: arrows drive, z/x turn the turret, c fires, s stops
var DefaultKeyboardControls = KeyboardControls{
	Forward:     tcell.KeyUp,
	Backward:    tcell.KeyDown,
	RotateLeft:  tcell.KeyLeft,
	RotateRight: tcell.KeyRight,
	TurretLeft:  'z',
	TurretRight: 'x',
	Fire:        'c',
	Stop:        's',
}

// KeyboardInput lets a human drive a robot.
// Terminals report key presses but no releases, so each direction is a latch:
// a key engages its direction and the opposite key releases it.
type KeyboardInput struct {
	controls KeyboardControls
	drive    int // +1 forward, -1 backward
	turn     int // +1 left (counter-clockwise), -1 right
	turret   int
}

// NewKeyboardInput creates a keyboard controller
func NewKeyboardInput(controls KeyboardControls) *KeyboardInput {
	return &KeyboardInput{controls: controls}
}

// Play reads the key events of this tick
func (k *KeyboardInput) Play(_ context.Context, turn *Turn) error {
	fire := false
	for _, ev := range turn.Tick.Events {
		key, ok := ev.(*tcell.EventKey)
		if !ok {
			continue
		}
		switch {
		case key.Key() == k.controls.Forward:
			k.drive = latch(k.drive, 1)
		case key.Key() == k.controls.Backward:
			k.drive = latch(k.drive, -1)
		case key.Key() == k.controls.RotateLeft:
			k.turn = latch(k.turn, 1)
		case key.Key() == k.controls.RotateRight:
			k.turn = latch(k.turn, -1)
		case key.Key() == tcell.KeyRune:
			switch key.Rune() {
			case k.controls.TurretLeft:
				k.turret = latch(k.turret, 1)
			case k.controls.TurretRight:
				k.turret = latch(k.turret, -1)
			case k.controls.Fire:
				fire = true
			case k.controls.Stop:
				k.drive, k.turn, k.turret = 0, 0, 0
			}
		}
	}

	robot := turn.Robot
	speed := 0.0
	switch {
	case k.drive > 0:
		speed = KeyboardForwardSpeed
	case k.drive < 0:
		speed = KeyboardBackwardSpeed
	}
	// Turning follows the drive direction, like steering a car in reverse
	steer := 1.0
	if speed < 0 {
		steer = -1.0
	}

	changed := robot
	changed.Speed = speed
	changed.Rotation = KeyboardRotationSpeed * float64(k.turn) * steer
	changed.TurretRotation = KeyboardTurretRotation * float64(k.turret)

	var bullets []game.Bullet
	if fire {
		if b, ok := game.Fire(turn.Field.Config, changed); ok {
			bullets = append(bullets, b)
		}
	}

	if changed == robot && len(bullets) == 0 {
		return nil
	}
	turn.Apply(game.StateChange{UpdateRobots: []game.Robot{changed}, NewBullets: bullets})
	return nil
}

// latch engages dir, or releases the direction when the opposite key is pressed
func latch(current, dir int) int {
	if current == -dir {
		return 0
	}
	return dir
}
