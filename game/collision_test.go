package game

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func body(name string, x, y float64) Robot {
	return Robot{Name: name, X: x, Y: y, Width: 40, Height: 30}
}

func TestFindCollision(t *testing.T) {
	robots := []Robot{body("a", 100, 100), body("b", 300, 100), body("c", 310, 110)}
	i, j, ok := FindCollision(robots)
	require.True(t, ok)
	assert.Equal(t, 1, i)
	assert.Equal(t, 2, j)

	_, _, ok = FindCollision(robots[:2])
	assert.False(t, ok)
}

func TestResolveMoves(t *testing.T) {
	tests := []struct {
		name  string
		moves []Move
		kept  []string
	}{
		{
			name: "no collision keeps every move",
			moves: []Move{
				{Old: body("a", 100, 100), New: body("a", 110, 100)},
				{Old: body("b", 300, 100), New: body("b", 290, 100)},
			},
			kept: []string{"a", "b"},
		},
		{
			name: "robot driving into a stationary one is rolled back",
			moves: []Move{
				{Old: body("a", 100, 100), New: body("a", 100, 100)},
				{Old: body("b", 200, 100), New: body("b", 120, 100)},
			},
			kept: []string{"a"},
		},
		{
			name: "culprit listed first is rolled back",
			moves: []Move{
				{Old: body("b", 200, 100), New: body("b", 120, 100)},
				{Old: body("a", 100, 100), New: body("a", 100, 100)},
			},
			kept: []string{"a"},
		},
		{
			name: "head on collision that needs both rollbacks",
			moves: []Move{
				{Old: body("a", 100, 100), New: body("a", 130, 100)},
				{Old: body("b", 150, 100), New: body("b", 135, 100)},
			},
			kept: nil,
		},
		{
			name: "third robot unaffected",
			moves: []Move{
				{Old: body("a", 100, 100), New: body("a", 100, 100)},
				{Old: body("b", 200, 100), New: body("b", 120, 100)},
				{Old: body("c", 400, 300), New: body("c", 410, 300)},
			},
			kept: []string{"a", "c"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolved := ResolveMoves(tt.moves)
			names := make([]string, 0, len(resolved))
			for _, r := range resolved {
				names = append(names, r.Name)
			}
			assert.ElementsMatch(t, tt.kept, names)
		})
	}
}

func TestResolveMovesIsCollisionFree(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for round := 0; round < 200; round++ {
		moves := make([]Move, 0, 5)
		for i := 0; i < 5; i++ {
			old := body(string(rune('a'+i)), rng.Float64()*300, rng.Float64()*300)
			next := old
			next.X += rng.Float64()*80 - 40
			next.Y += rng.Float64()*80 - 40
			next.Angle = rng.Float64()*360 - 180
			moves = append(moves, Move{Old: old, New: next})
		}
		resolved := ResolveMoves(moves)
		_, _, found := FindCollision(resolved)
		require.False(t, found, "round %d left colliding moves", round)
		assert.LessOrEqual(t, len(resolved), len(moves))
	}
}

func TestResolveMovesDoesNotMutateInput(t *testing.T) {
	moves := []Move{
		{Old: body("a", 100, 100), New: body("a", 100, 100)},
		{Old: body("b", 200, 100), New: body("b", 120, 100)},
	}
	ResolveMoves(moves)
	require.Len(t, moves, 2)
	assert.Equal(t, "b", moves[1].New.Name)
}

func TestBulletHit(t *testing.T) {
	robots := []Robot{body("a", 100, 100), body("b", 200, 100)}

	hit, ok := BulletHit(robots, Bullet{X: 205, Y: 95, Origin: "a"})
	require.True(t, ok)
	assert.Equal(t, "b", hit.Name)

	_, ok = BulletHit(robots, Bullet{X: 105, Y: 100, Origin: "a"})
	assert.False(t, ok, "a robot is never hit by its own bullet")

	_, ok = BulletHit(robots, Bullet{X: 150, Y: 100, Origin: "a"})
	assert.False(t, ok)
}
