package server

import (
	"fmt"

	"github.com/lab1702/langbots/game"
)

// Outcome tags how a tick ended
type Outcome int

const (
	OutcomeContinue Outcome = iota
	OutcomeFinished
	OutcomeAborted
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeFinished:
		return "finished"
	case OutcomeAborted:
		return "aborted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// TickResult is returned by every tick of the battle loop
type TickResult struct {
	Outcome Outcome
	Winner  *game.Robot // Set only when finished with a survivor
}

// Result summarises a battle
type Result struct {
	BattleID   string
	Winner     *game.Robot // nil when nobody survived or the battle was aborted
	BattleTime float64
	Ticks      int
	Aborted    bool
}

// String renders the battle summary line
func (r Result) String() string {
	switch {
	case r.Aborted:
		return "Battle aborted"
	case r.Winner == nil:
		return fmt.Sprintf("no winner (%.2f)", r.BattleTime)
	default:
		return fmt.Sprintf("winner: %s (%.2f)", r.Winner.Name, r.BattleTime)
	}
}

// checkVictoryConditions ends the battle once fewer than two robots are alive
func checkVictoryConditions(f *game.Field) TickResult {
	if len(f.Robots) > 1 {
		return TickResult{Outcome: OutcomeContinue}
	}
	for _, r := range f.Robots {
		winner := r
		return TickResult{Outcome: OutcomeFinished, Winner: &winner}
	}
	return TickResult{Outcome: OutcomeFinished}
}
