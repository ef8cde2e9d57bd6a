package server_test

import (
	"context"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lab1702/langbots/game"
	"github.com/lab1702/langbots/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keyEvent(k tcell.Key) tcell.Event {
	return tcell.NewEventKey(k, 0, tcell.ModNone)
}

func runeEvent(r rune) tcell.Event {
	return tcell.NewEventKey(tcell.KeyRune, r, tcell.ModNone)
}

func TestKeyboardInput(t *testing.T) {
	cfg := game.DefaultConfig()
	f := game.NewField(cfg)
	f.Robots["human"] = game.NewRobot("human", 320, 240, cfg)
	kb := server.NewKeyboardInput(server.DefaultKeyboardControls)

	press := func(events ...tcell.Event) game.Robot {
		t.Helper()
		tc := &server.TickContext{ID: "t", Tick: 1, Events: events}
		require.NoError(t, kb.Play(context.Background(), server.NewTestTurn(tc, f, "human")))
		return f.Robots["human"]
	}

	r := press(keyEvent(tcell.KeyUp))
	assert.Equal(t, server.KeyboardForwardSpeed, r.Speed)

	r = press()
	assert.Equal(t, server.KeyboardForwardSpeed, r.Speed, "keys stay latched")

	r = press(keyEvent(tcell.KeyLeft))
	assert.Equal(t, server.KeyboardRotationSpeed, r.Rotation)

	r = press(keyEvent(tcell.KeyDown))
	assert.Zero(t, r.Speed, "the opposite key releases")
	assert.Equal(t, server.KeyboardRotationSpeed, r.Rotation)

	r = press(keyEvent(tcell.KeyDown))
	assert.Equal(t, server.KeyboardBackwardSpeed, r.Speed)
	assert.Equal(t, -server.KeyboardRotationSpeed, r.Rotation, "steering flips in reverse")

	r = press(runeEvent('z'))
	assert.Equal(t, server.KeyboardTurretRotation, r.TurretRotation)
	r = press(runeEvent('x'))
	assert.Zero(t, r.TurretRotation)
	r = press(runeEvent('x'))
	assert.Equal(t, -server.KeyboardTurretRotation, r.TurretRotation)

	r = press(runeEvent('s'))
	assert.Zero(t, r.Speed)
	assert.Zero(t, r.Rotation)
	assert.Zero(t, r.TurretRotation)
}

func TestKeyboardInputFire(t *testing.T) {
	cfg := game.DefaultConfig()
	f := game.NewField(cfg)
	f.Robots["human"] = game.NewRobot("human", 320, 240, cfg)
	kb := server.NewKeyboardInput(server.DefaultKeyboardControls)

	fire := func() {
		tc := &server.TickContext{ID: "t", Tick: 1, Events: []tcell.Event{runeEvent('c')}}
		require.NoError(t, kb.Play(context.Background(), server.NewTestTurn(tc, f, "human")))
	}

	fire()
	require.Len(t, f.Bullets, 1)
	assert.Equal(t, "human", f.Bullets[0].Origin)
	assert.Equal(t, cfg.Robot.FireMinInterval, f.Robots["human"].TimeToFire)

	fire()
	assert.Len(t, f.Bullets, 1, "still reloading")
}

func TestKeyboardInputIgnoresOtherEvents(t *testing.T) {
	cfg := game.DefaultConfig()
	f := game.NewField(cfg)
	f.Robots["human"] = game.NewRobot("human", 320, 240, cfg)
	before := f.Robots["human"]

	kb := server.NewKeyboardInput(server.DefaultKeyboardControls)
	tc := &server.TickContext{Events: []tcell.Event{
		tcell.NewEventResize(80, 24),
		runeEvent('q'),
		keyEvent(tcell.KeyEnter),
	}}
	require.NoError(t, kb.Play(context.Background(), server.NewTestTurn(tc, f, "human")))
	assert.Equal(t, before, f.Robots["human"])
	assert.Empty(t, f.Bullets)
}

func TestQuitRequested(t *testing.T) {
	assert.True(t, server.QuitRequested([]tcell.Event{runeEvent('a'), keyEvent(tcell.KeyEscape)}))
	assert.True(t, server.QuitRequested([]tcell.Event{keyEvent(tcell.KeyCtrlC)}))
	assert.False(t, server.QuitRequested([]tcell.Event{runeEvent('q'), tcell.NewEventResize(1, 1)}))
	assert.False(t, server.QuitRequested(nil))
}

func TestScreenEvents(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	events := server.NewScreenEvents(screen)

	screen.InjectKey(tcell.KeyRune, 'c', tcell.ModNone)
	require.Eventually(t, func() bool {
		for _, ev := range events.PollEvents() {
			if k, ok := ev.(*tcell.EventKey); ok && k.Rune() == 'c' {
				return true
			}
		}
		return false
	}, time.Second, 5*time.Millisecond)
	screen.Fini()
}
