package server

import (
	"context"

	"github.com/gdamore/tcell/v2"
	"github.com/lab1702/langbots/game"
)

// TickContext is shared by every input of one tick
type TickContext struct {
	ID     string        // Opaque id agents echo back
	Tick   int           // 1-based tick number
	Time   float64       // Battle time at the start of the tick
	Events []tcell.Event // UI events, polled once per tick

	aborted bool
}

// Abort asks the orchestrator to stop the battle after the current input
func (tc *TickContext) Abort() {
	tc.aborted = true
}

// Aborted reports whether an abort was requested during this tick
func (tc *TickContext) Aborted() bool {
	return tc.aborted
}

// Turn is one robot's input phase within a tick
type Turn struct {
	Tick  *TickContext
	Field *game.Field // Snapshot taken before the phase, safe to read
	Robot game.Robot  // Current state of the robot, refreshed by Apply

	apply func(game.StateChange) game.Robot
}

// Apply hands a change to the orchestrator immediately, so later commands of the
// same turn see its effects (a fired bullet arms the reload countdown).
func (t *Turn) Apply(sc game.StateChange) {
	if sc.Empty() {
		return
	}
	t.Robot = t.apply(sc)
}

// InputSource produces the commands of one robot
type InputSource interface {
	Play(ctx context.Context, turn *Turn) error
}

// EventSource supplies pending UI events without blocking
type EventSource interface {
	PollEvents() []tcell.Event
}

// QuitRequested reports whether any event is an operator abort key
func QuitRequested(events []tcell.Event) bool {
	for _, ev := range events {
		if key, ok := ev.(*tcell.EventKey); ok {
			if key.Key() == tcell.KeyEscape || key.Key() == tcell.KeyCtrlC {
				return true
			}
		}
	}
	return false
}

// ScreenEvents forwards screen events from a polling goroutine
type ScreenEvents struct {
	events chan tcell.Event
}

// NewScreenEvents starts polling screen until it is finalized
func NewScreenEvents(screen tcell.Screen) *ScreenEvents {
	se := &ScreenEvents{events: make(chan tcell.Event, 100)}
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				close(se.events)
				return
			}
			se.events <- ev
		}
	}()
	return se
}

// PollEvents drains the events received since the last call
func (se *ScreenEvents) PollEvents() []tcell.Event {
	var out []tcell.Event
	for {
		select {
		case ev, ok := <-se.events:
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}
