package main

import (
	"bytes"
	"math/rand"
	"strings"
	"testing"

	"github.com/lab1702/langbots/game"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func updateBlock(t *testing.T, u game.Update) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, game.WriteBlock(&buf, u))
	return buf.String()
}

func newTestBot() *simpleBot {
	return &simpleBot{cfg: game.DefaultConfig(), rng: rand.New(neverWander{}), logger: zap.NewNop()}
}

func TestAimAt(t *testing.T) {
	bot := newTestBot()
	me := game.RobotView{X: 100, Y: 100}
	tests := []struct {
		target game.RobotView
		want   float64
	}{
		{game.RobotView{X: 200, Y: 100}, 0},
		{game.RobotView{X: 100, Y: 0}, 90},
		{game.RobotView{X: 0, Y: 100}, 180},
		{game.RobotView{X: 100, Y: 200}, -90},
		{game.RobotView{X: 200, Y: 0}, 45},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, bot.aimAt(me, tt.target), 1e-9, "target %+v", tt.target)
	}
}

func TestAimAtLeadsMovingTarget(t *testing.T) {
	bot := newTestBot()
	me := game.RobotView{X: 100, Y: 100}
	// Target to the east driving up the screen
	target := game.RobotView{X: 300, Y: 100, Speed: 100, Angle: 90}

	angle := bot.aimAt(me, target)
	assert.Greater(t, angle, 0.0)
	assert.Less(t, angle, 45.0)
}

func TestSimpleBotControl(t *testing.T) {
	var input strings.Builder
	input.WriteString(updateBlock(t, game.Update{
		ID: "t1",
		Robots: game.UpdateRobots{
			Me:     game.RobotView{X: 320, Y: 96},
			Others: []game.RobotView{{X: 320, Y: 384}},
		},
	}))
	input.WriteString(updateBlock(t, game.Update{
		ID: "t2",
		Robots: game.UpdateRobots{
			Me:     game.RobotView{X: 320, Y: 96, TurretRotation: -100},
			Others: []game.RobotView{{X: 320, Y: 384}},
		},
	}))
	input.WriteString(updateBlock(t, game.Update{
		ID:     "t3",
		Robots: game.UpdateRobots{Me: game.RobotView{X: 320, Y: 96}},
	}))

	var out bytes.Buffer
	require.NoError(t, newTestBot().control(strings.NewReader(input.String()), &out))

	assert.Equal(t, []string{
		"- set-speed 200 set-rotation-speed 30",
		"t1 rotate-turret-to-angle-and-fire -90",
		"t2 ",
	}, strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n"))
}

func TestSimpleBotStopsAtEOF(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, newTestBot().control(strings.NewReader(""), &out))
	assert.Equal(t, "- set-speed 200 set-rotation-speed 30\n", out.String())
}

// neverWander is a rand.Source whose Float64 is always 0.5
type neverWander struct{}

func (neverWander) Int63() int64 { return 1 << 62 }
func (neverWander) Seed(int64) {}
