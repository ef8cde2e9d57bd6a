package server

import (
	"context"

	"github.com/lab1702/langbots/game"
)

// Output receives a snapshot of the field once per tick.
// The snapshot belongs to the output; changes to it never reach the battle.
type Output interface {
	Draw(ctx context.Context, field *game.Field) error
	Close() error
}

// ResultReporter is implemented by outputs that show how the battle ended
type ResultReporter interface {
	Report(result Result)
}
