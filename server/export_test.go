package server

import "github.com/lab1702/langbots/game"

// Test helpers to reach battle internals from the server_test package

// LiveField returns the field the battle mutates, not a snapshot
func (b *Battle) LiveField() *game.Field {
	return b.field
}

// ApplyStateChange exposes applyStateChange
func ApplyStateChange(f *game.Field, sc game.StateChange) {
	applyStateChange(f, sc)
}

// NewTestTurn builds a turn whose changes are applied to f
func NewTestTurn(tc *TickContext, f *game.Field, name string) *Turn {
	return &Turn{
		Tick:  tc,
		Field: f.Clone(),
		Robot: f.Robots[name],
		apply: func(sc game.StateChange) game.Robot {
			applyStateChange(f, sc)
			return f.Robots[name]
		},
	}
}
