package server

import (
	"math"

	"github.com/lab1702/langbots/game"
)

// SpatialGrid buckets robots by the cells their bodies touch, so a bullet only
// has to be tested against the robots sharing its cell.
type SpatialGrid struct {
	cellSize float64
	cols     int
	rows     int
	cells    [][]int // Each cell contains indices into robots
	robots   []game.Robot
}

// NewSpatialGrid creates a grid covering the arena with cells twice the size of a robot
func NewSpatialGrid(cfg game.Config) *SpatialGrid {
	width, height := cfg.ArenaSize()
	cellSize := 2 * math.Max(cfg.Robot.Size[0], cfg.Robot.Size[1])
	if cellSize <= 0 {
		cellSize = math.Max(width, height)
	}
	cols := int(math.Ceil(width / cellSize))
	rows := int(math.Ceil(height / cellSize))
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}

	cells := make([][]int, cols*rows)
	for i := range cells {
		cells[i] = make([]int, 0, 4)
	}

	return &SpatialGrid{
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		cells:    cells,
	}
}

// Clear resets the grid for a new tick
func (g *SpatialGrid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.robots = g.robots[:0]
}

// cell returns the clamped column and row of a position
func (g *SpatialGrid) cell(x, y float64) (int, int) {
	col := int(math.Floor(x / g.cellSize))
	row := int(math.Floor(y / g.cellSize))

	if col < 0 {
		col = 0
	} else if col >= g.cols {
		col = g.cols - 1
	}
	if row < 0 {
		row = 0
	} else if row >= g.rows {
		row = g.rows - 1
	}
	return col, row
}

// IndexRobots populates the grid, inserting each robot in every cell its bounding box touches
func (g *SpatialGrid) IndexRobots(robots []game.Robot) {
	g.Clear()
	g.robots = append(g.robots, robots...)
	for i, r := range robots {
		minX, minY, maxX, maxY := game.Bounds(game.RobotPolygon(r))
		c0, r0 := g.cell(minX, minY)
		c1, r1 := g.cell(maxX, maxY)
		for row := r0; row <= r1; row++ {
			for col := c0; col <= c1; col++ {
				idx := row*g.cols + col
				g.cells[idx] = append(g.cells[idx], i)
			}
		}
	}
}

// Nearby returns the robots that might contain p, in indexing order.
// The caller must still perform the exact polygon test.
func (g *SpatialGrid) Nearby(p game.Point) []game.Robot {
	col, row := g.cell(p.X, p.Y)
	indices := g.cells[row*g.cols+col]
	result := make([]game.Robot, 0, len(indices))
	for _, i := range indices {
		result = append(result, g.robots[i])
	}
	return result
}
