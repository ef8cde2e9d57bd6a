package server_test

import (
	"context"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/lab1702/langbots/game"
	"github.com/lab1702/langbots/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSimScreen maps the default 640x480 arena onto 10x20 unit cells
func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(64, 25)
	return screen
}

func cellRune(screen tcell.Screen, x, y int) rune {
	r, _, _, _ := screen.GetContent(x, y)
	return r
}

func statusLine(screen tcell.Screen) string {
	cols, rows := screen.Size()
	var sb strings.Builder
	for x := 0; x < cols; x++ {
		sb.WriteRune(cellRune(screen, x, rows-1))
	}
	return strings.TrimSpace(sb.String())
}

func TestTerminalOutputDraw(t *testing.T) {
	screen := newSimScreen(t)
	out := server.NewTerminalOutput(screen)
	defer out.Close()

	cfg := game.DefaultConfig()
	f := game.NewField(cfg)
	f.Robots["alpha"] = game.NewRobot("alpha", 320, 240, cfg)
	f.Robots["beta"] = game.NewRobot("beta", 100, 100, cfg)
	f.Bullets = []game.Bullet{{X: 555, Y: 405, Origin: "alpha"}}
	f.BattleTime = 2.5

	require.NoError(t, out.Draw(context.Background(), f))

	// alpha spans x 300..340 and y 224..256
	assert.Equal(t, '█', cellRune(screen, 31, 11))
	assert.Equal(t, '█', cellRune(screen, 30, 12))
	_, _, style, _ := screen.GetContent(31, 11)
	fg, _, _ := style.Decompose()
	assert.Equal(t, tcell.ColorBlue, fg, "first robot by name gets the first color")

	// turret tip points east, about 21 units from the center
	assert.Equal(t, '+', cellRune(screen, 34, 12))

	assert.Equal(t, '•', cellRune(screen, 55, 20))
	assert.Equal(t, ' ', cellRune(screen, 5, 22))

	assert.Equal(t, "t=2.5s  alpha:5  beta:5", statusLine(screen))
}

func TestTerminalOutputReport(t *testing.T) {
	screen := newSimScreen(t)
	out := server.NewTerminalOutput(screen)
	defer out.Close()

	cfg := game.DefaultConfig()
	f := game.NewField(cfg)
	f.Robots["alpha"] = game.NewRobot("alpha", 320, 240, cfg)
	f.BattleTime = 4
	require.NoError(t, out.Draw(context.Background(), f))

	winner := f.Robots["alpha"]
	out.Report(server.Result{Winner: &winner, BattleTime: 4})
	assert.Equal(t, "t=4.0s  alpha:5  winner: alpha (4.00)", statusLine(screen))
}

func TestTerminalOutputTinyScreen(t *testing.T) {
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(4, 3)
	out := server.NewTerminalOutput(screen)
	defer out.Close()

	cfg := game.DefaultConfig()
	f := game.NewField(cfg)
	f.Robots["alpha"] = game.NewRobot("alpha", 20, 16, cfg)
	f.Bullets = []game.Bullet{{X: 639, Y: 479}}
	require.NoError(t, out.Draw(context.Background(), f))

	// A robot smaller than a cell is still visible
	assert.Contains(t, []rune{'█', '+'}, cellRune(screen, 0, 0))
	assert.Equal(t, '•', cellRune(screen, 3, 1))
}
