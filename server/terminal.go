package server

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/lab1702/langbots/game"
)

var robotColors = []tcell.Color{
	tcell.ColorBlue,
	tcell.ColorRed,
	tcell.ColorYellow,
	tcell.ColorFuchsia,
	tcell.ColorAqua,
	tcell.ColorWhite,
}

var (
	arenaStyle  = tcell.StyleDefault.Background(tcell.NewRGBColor(0, 40, 0))
	bulletStyle = arenaStyle.Foreground(tcell.ColorOrange)
	statusStyle = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// TerminalOutput draws the arena scaled onto a terminal screen, with a status line at the bottom
type TerminalOutput struct {
	screen tcell.Screen
	colors map[string]tcell.Color
	last   *game.Field
	result string
}

// NewTerminalOutput draws on an initialised screen. Close finalises it.
func NewTerminalOutput(screen tcell.Screen) *TerminalOutput {
	return &TerminalOutput{screen: screen, colors: make(map[string]tcell.Color)}
}

// Draw renders one snapshot
func (t *TerminalOutput) Draw(_ context.Context, f *game.Field) error {
	cols, rows := t.screen.Size()
	rows-- // status line
	if cols <= 0 || rows <= 0 {
		return nil
	}

	width, height := f.Config.ArenaSize()
	sx, sy := width/float64(cols), height/float64(rows)

	t.screen.Clear()
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			t.screen.SetContent(x, y, ' ', nil, arenaStyle)
		}
	}

	// center of a cell in arena units
	toArena := func(x, y int) game.Point {
		return game.Point{X: (float64(x) + 0.5) * sx, Y: (float64(y) + 0.5) * sy}
	}
	toCell := func(p game.Point) (int, int) {
		return int(math.Floor(p.X / sx)), int(math.Floor(p.Y / sy))
	}

	robots := f.SortedRobots()
	for _, r := range robots {
		style := arenaStyle.Foreground(t.colorOf(r.Name))
		polygon := game.RobotPolygon(r)

		minX, minY, maxX, maxY := game.Bounds(polygon)
		x0, y0 := toCell(game.Point{X: minX, Y: minY})
		x1, y1 := toCell(game.Point{X: maxX, Y: maxY})
		filled := false
		for y := max(y0, 0); y <= min(y1, rows-1); y++ {
			for x := max(x0, 0); x <= min(x1, cols-1); x++ {
				if game.PointInConvexPolygon(toArena(x, y), polygon) {
					t.screen.SetContent(x, y, '█', nil, style)
					filled = true
				}
			}
		}
		// Small robots on a small terminal still get one cell
		if !filled {
			cx, cy := toCell(r.Position())
			t.setCell(cx, cy, rows, cols, '█', style)
		}

		length := r.Height / game.TurretLengthFactor
		rad := game.ToRad(r.Angle + r.TurretAngle)
		tip := game.Point{X: r.X + length*math.Cos(rad), Y: r.Y - length*math.Sin(rad)}
		tx, ty := toCell(tip)
		t.setCell(tx, ty, rows, cols, '+', style)
	}

	for _, b := range f.Bullets {
		bx, by := toCell(b.Position())
		t.setCell(bx, by, rows, cols, '•', bulletStyle)
	}

	t.last = f
	t.drawStatus(cols, rows)
	t.screen.Show()
	return nil
}

func (t *TerminalOutput) setCell(x, y, rows, cols int, ch rune, style tcell.Style) {
	if x < 0 || y < 0 || x >= cols || y >= rows {
		return
	}
	t.screen.SetContent(x, y, ch, nil, style)
}

func (t *TerminalOutput) drawStatus(cols, row int) {
	var parts []string
	if t.last != nil {
		parts = append(parts, fmt.Sprintf("t=%.1fs", t.last.BattleTime))
		for _, r := range t.last.SortedRobots() {
			parts = append(parts, fmt.Sprintf("%s:%d", r.Name, r.Shield))
		}
	}
	if t.result != "" {
		parts = append(parts, t.result)
	}
	status := []rune(strings.Join(parts, "  "))
	for x := 0; x < cols; x++ {
		ch := ' '
		if x < len(status) {
			ch = status[x]
		}
		t.screen.SetContent(x, row, ch, nil, statusStyle)
	}
}

// colorOf assigns colors in order of first appearance
func (t *TerminalOutput) colorOf(name string) tcell.Color {
	c, ok := t.colors[name]
	if !ok {
		c = robotColors[len(t.colors)%len(robotColors)]
		t.colors[name] = c
	}
	return c
}

// Report shows the battle result on the status line
func (t *TerminalOutput) Report(result Result) {
	t.result = result.String()
	cols, rows := t.screen.Size()
	if rows > 0 {
		t.drawStatus(cols, rows-1)
		t.screen.Show()
	}
}

// Close restores the terminal
func (t *TerminalOutput) Close() error {
	t.screen.Fini()
	return nil
}
