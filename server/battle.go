package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lab1702/langbots/game"
	"go.uber.org/zap"
)

// Battle runs the tick loop over one field. It is not safe for concurrent use:
// the field is only touched by the goroutine calling Run or Step.
type Battle struct {
	id     string
	field  *game.Field
	order  []string // Registration order of robots
	inputs map[string]InputSource

	outputs []Output
	events  EventSource
	logger  *zap.Logger
	grid    *SpatialGrid

	fixedStep    float64 // Seconds per tick, 0 uses the wall clock
	tickInterval time.Duration
	now          func() time.Time

	tick      int
	startTime time.Time
	lastTime  time.Time
	started   bool
}

// Option configures a Battle
type Option func(*Battle)

// WithLogger sets the battle logger
func WithLogger(logger *zap.Logger) Option {
	return func(b *Battle) { b.logger = orNop(logger) }
}

// WithBattleID replaces the generated battle id
func WithBattleID(id string) Option {
	return func(b *Battle) {
		if id != "" {
			b.id = id
		}
	}
}

// WithFixedStep advances the battle by dt seconds per tick instead of the wall clock
func WithFixedStep(dt float64) Option {
	return func(b *Battle) { b.fixedStep = dt }
}

// WithFrameRate is WithFixedStep expressed in ticks per second
func WithFrameRate(fps int) Option {
	return func(b *Battle) {
		if fps > 0 {
			b.fixedStep = 1.0 / float64(fps)
		}
	}
}

// WithClock replaces the wall clock used for time deltas
func WithClock(now func() time.Time) Option {
	return func(b *Battle) { b.now = now }
}

// WithTickInterval spaces ticks at least d apart, for battles a human watches or plays
func WithTickInterval(d time.Duration) Option {
	return func(b *Battle) { b.tickInterval = d }
}

// WithOutputs adds output collaborators, drawn in order
func WithOutputs(outputs ...Output) Option {
	return func(b *Battle) { b.outputs = append(b.outputs, outputs...) }
}

// WithEventSource sets where UI events come from
func WithEventSource(es EventSource) Option {
	return func(b *Battle) { b.events = es }
}

// NewBattle creates a battle with an empty field
func NewBattle(cfg game.Config, opts ...Option) *Battle {
	b := &Battle{
		id:     uuid.NewString(),
		field:  game.NewField(cfg),
		inputs: make(map[string]InputSource),
		logger: zap.NewNop(),
		grid:   NewSpatialGrid(cfg),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.logger = b.logger.With(zap.String("battle", b.id))
	return b
}

// ID returns the battle id
func (b *Battle) ID() string {
	return b.id
}

// Field returns a snapshot of the current field
func (b *Battle) Field() *game.Field {
	return b.field.Clone()
}

// AddRobot places a robot on the field, controlled by in
func (b *Battle) AddRobot(robot game.Robot, in InputSource) error {
	if _, exists := b.field.Robots[robot.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateRobot, robot.Name)
	}
	b.field.Robots[robot.Name] = robot
	b.order = append(b.order, robot.Name)
	b.inputs[robot.Name] = in
	return nil
}

// Run plays ticks until one robot (or none) is left, the operator aborts or ctx is done
func (b *Battle) Run(ctx context.Context) (Result, error) {
	if len(b.field.Robots) < 2 {
		return Result{}, ErrNotEnoughRobots
	}

	b.logger.Info("Battle started",
		zap.Strings("robots", b.order),
		zap.Float64("fixed_step", b.fixedStep))

	var ticker *time.Ticker
	if b.tickInterval > 0 {
		ticker = time.NewTicker(b.tickInterval)
		defer ticker.Stop()
	}

	for {
		if ticker != nil {
			select {
			case <-ctx.Done():
				return b.finish(ctx, TickResult{Outcome: OutcomeAborted}), nil
			case <-ticker.C:
			}
		}

		tr, err := b.Step(ctx)
		if err != nil {
			return Result{}, err
		}
		if tr.Outcome != OutcomeContinue {
			return b.finish(ctx, tr), nil
		}
	}
}

// finish draws the final field and builds the battle summary
func (b *Battle) finish(ctx context.Context, tr TickResult) Result {
	result := Result{
		BattleID:   b.id,
		Winner:     tr.Winner,
		BattleTime: b.field.BattleTime,
		Ticks:      b.tick,
		Aborted:    tr.Outcome == OutcomeAborted,
	}

	if !result.Aborted {
		b.draw(context.WithoutCancel(ctx))
	}
	for _, out := range b.outputs {
		if rr, ok := out.(ResultReporter); ok {
			rr.Report(result)
		}
	}

	fields := []zap.Field{
		zap.Int("ticks", result.Ticks),
		zap.Float64("battle_time", result.BattleTime),
	}
	switch {
	case result.Aborted:
		b.logger.Info("Battle aborted", fields...)
	case result.Winner != nil:
		b.logger.Info("Battle finished", append(fields, zap.String("winner", result.Winner.Name))...)
	default:
		b.logger.Info("Battle finished without survivors", fields...)
	}
	return result
}

// Step runs one tick: draw, input, turrets, bullets, movement, bullet hits
func (b *Battle) Step(ctx context.Context) (TickResult, error) {
	if tr := checkVictoryConditions(b.field); tr.Outcome != OutcomeContinue {
		return tr, nil
	}
	if !b.started {
		b.started = true
		b.startTime = b.now()
		b.lastTime = b.startTime
		b.field.BattleTime = 0
	}

	b.tick++
	tc := &TickContext{
		ID:   uuid.NewString(),
		Tick: b.tick,
		Time: b.field.BattleTime,
	}
	if b.events != nil {
		tc.Events = b.events.PollEvents()
		if QuitRequested(tc.Events) {
			tc.Abort()
		}
	}
	if tc.Aborted() || ctx.Err() != nil {
		return TickResult{Outcome: OutcomeAborted}, nil
	}

	b.draw(ctx)

	if aborted := b.processInputs(ctx, tc); aborted {
		return TickResult{Outcome: OutcomeAborted}, nil
	}

	dt := b.advanceClock()
	b.updateTurrets(dt)
	b.updateBullets(dt)
	b.moveRobots(dt)
	b.checkBulletHits()

	return checkVictoryConditions(b.field), nil
}

// draw hands every output its own snapshot
func (b *Battle) draw(ctx context.Context) {
	for _, out := range b.outputs {
		if err := out.Draw(ctx, b.field.Clone()); err != nil {
			b.logger.Error("Output failed", zap.Int("tick", b.tick), zap.Error(err))
		}
	}
}

// processInputs gives each live robot its turn in registration order.
// It returns true when the battle must stop.
func (b *Battle) processInputs(ctx context.Context, tc *TickContext) bool {
	for _, name := range b.order {
		robot, alive := b.field.Robots[name]
		if !alive {
			continue
		}

		turn := &Turn{
			Tick:  tc,
			Field: b.field.Clone(),
			Robot: robot,
			apply: func(sc game.StateChange) game.Robot {
				applyStateChange(b.field, sc)
				if r, ok := b.field.Robots[name]; ok {
					return r
				}
				return robot
			},
		}

		err := b.inputs[name].Play(ctx, turn)
		switch {
		case ctx.Err() != nil:
			return true
		case err != nil && !errors.Is(err, context.Canceled):
			b.logger.Error("Input failed",
				zap.String("robot", name),
				zap.Int("tick", tc.Tick),
				zap.Error(err))
		}
		if tc.Aborted() {
			return true
		}
	}
	return false
}

// advanceClock returns the time delta of this tick and updates the battle time
func (b *Battle) advanceClock() float64 {
	if b.fixedStep > 0 {
		b.field.BattleTime += b.fixedStep
		return b.fixedStep
	}
	now := b.now()
	dt := now.Sub(b.lastTime).Seconds()
	b.lastTime = now
	b.field.BattleTime = now.Sub(b.startTime).Seconds()
	return dt
}

func (b *Battle) updateTurrets(dt float64) {
	for _, robot := range b.field.SortedRobots() {
		applyStateChange(b.field, game.AdvanceTurret(b.field.Config, robot, dt))
	}
}

func (b *Battle) updateBullets(dt float64) {
	width, height := b.field.Config.ArenaSize()
	bullets := b.field.Bullets[:0]
	for _, bullet := range b.field.Bullets {
		if moved, inside := game.StepBullet(bullet, dt, width, height); inside {
			bullets = append(bullets, moved)
		}
	}
	b.field.Bullets = bullets
}

func (b *Battle) moveRobots(dt float64) {
	width, height := b.field.Config.ArenaSize()
	robots := b.field.SortedRobots()
	moves := make([]game.Move, len(robots))
	for i, r := range robots {
		moves[i] = game.Move{Old: r, New: game.StepRobot(r, dt, width, height)}
	}

	resolved := game.ResolveMoves(moves)
	if dropped := len(moves) - len(resolved); dropped > 0 {
		b.logger.Debug("Robot moves rolled back", zap.Int("tick", b.tick), zap.Int("dropped", dropped))
	}
	applyStateChange(b.field, game.StateChange{UpdateRobots: resolved})
}

// checkBulletHits finds every hit against the robots as they stand after movement,
// then applies the damage. A bullet that hit a robot already destroyed during this
// pass is consumed without further effect.
func (b *Battle) checkBulletHits() {
	if len(b.field.Bullets) == 0 {
		return
	}
	b.grid.IndexRobots(b.field.SortedRobots())

	type hit struct {
		bullet int
		robot  string
	}
	var hits []hit
	for i, bullet := range b.field.Bullets {
		if r, ok := game.BulletHit(b.grid.Nearby(bullet.Position()), bullet); ok {
			hits = append(hits, hit{bullet: i, robot: r.Name})
		}
	}
	if len(hits) == 0 {
		return
	}

	consumed := make(map[int]bool, len(hits))
	for _, h := range hits {
		consumed[h.bullet] = true
		robot, alive := b.field.Robots[h.robot]
		if !alive {
			continue
		}
		robot.Shield--
		if robot.Shield <= 0 {
			delete(b.field.Robots, h.robot)
			b.logger.Info("Robot destroyed",
				zap.String("robot", h.robot),
				zap.String("by", b.field.Bullets[h.bullet].Origin),
				zap.Int("tick", b.tick))
			continue
		}
		b.field.Robots[h.robot] = robot
	}

	bullets := b.field.Bullets[:0]
	for i, bullet := range b.field.Bullets {
		if !consumed[i] {
			bullets = append(bullets, bullet)
		}
	}
	b.field.Bullets = bullets
}
