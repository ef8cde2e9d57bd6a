package server_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lab1702/langbots/game"
	"github.com/lab1702/langbots/server"
	"github.com/stretchr/testify/require"
)

// scriptedInput plays a fixed command line on given ticks
type scriptedInput struct {
	lines map[int]string
}

func script(lines map[int]string) *scriptedInput {
	return &scriptedInput{lines: lines}
}

func (s *scriptedInput) Play(_ context.Context, turn *server.Turn) error {
	line, ok := s.lines[turn.Tick.Tick]
	if !ok {
		return nil
	}
	sc, err := server.InterpretCommands(turn.Field.Config, turn.Robot, strings.Fields(line))
	turn.Apply(sc)
	return err
}

// idle never sends a command
var idle = script(nil)

// inputFunc adapts a function to server.InputSource
type inputFunc func(ctx context.Context, turn *server.Turn) error

func (f inputFunc) Play(ctx context.Context, turn *server.Turn) error {
	return f(ctx, turn)
}

// recordingOutput keeps every snapshot it is given
type recordingOutput struct {
	mu      sync.Mutex
	fields  []*game.Field
	results []server.Result
	closed  bool
	mutate  bool
}

func (r *recordingOutput) Draw(_ context.Context, f *game.Field) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fields = append(r.fields, f)
	if r.mutate {
		// Outputs own their snapshot; scribbling on it must not leak into the battle
		for name, robot := range f.Robots {
			robot.X = -1000
			f.Robots[name] = robot
		}
		f.Bullets = append(f.Bullets[:0], game.Bullet{Origin: "ghost"})
	}
	return nil
}

func (r *recordingOutput) Report(result server.Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, result)
}

func (r *recordingOutput) Close() error {
	r.closed = true
	return nil
}

func (r *recordingOutput) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fields)
}

// eventQueue hands out one batch of events per poll
type eventQueue struct {
	batches [][]tcell.Event
}

func (q *eventQueue) PollEvents() []tcell.Event {
	if len(q.batches) == 0 {
		return nil
	}
	batch := q.batches[0]
	q.batches = q.batches[1:]
	return batch
}

// testConfig is the default arena with one-hit robots
func testConfig() game.Config {
	cfg := game.DefaultConfig()
	cfg.Robot.Shield = 1
	return cfg
}

// newTestBattle builds a fixed-step battle with robots placed as given
func newTestBattle(t *testing.T, cfg game.Config, opts ...server.Option) *server.Battle {
	t.Helper()
	opts = append([]server.Option{server.WithFixedStep(1.0 / game.FPS)}, opts...)
	return server.NewBattle(cfg, opts...)
}

func addRobot(t *testing.T, b *server.Battle, cfg game.Config, name string, x, y float64, in server.InputSource) {
	t.Helper()
	require.NoError(t, b.AddRobot(game.NewRobot(name, x, y, cfg), in))
}

// runBattle runs with a deadline so a broken loop fails instead of hanging
func runBattle(t *testing.T, b *server.Battle) server.Result {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	result, err := b.Run(ctx)
	require.NoError(t, err)
	return result
}
