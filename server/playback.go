package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/lab1702/langbots/game"
	"go.uber.org/zap"
)

// Playback replays a dump, drawing each field once its recorded battle time is reached
type Playback struct {
	r       *bufio.Reader
	outputs []Output
	logger  *zap.Logger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error
}

// PlaybackOption configures a Playback
type PlaybackOption func(*Playback)

// WithPlaybackLogger sets the playback logger
func WithPlaybackLogger(logger *zap.Logger) PlaybackOption {
	return func(p *Playback) { p.logger = orNop(logger) }
}

// WithPlaybackClock replaces the wall clock and the sleep used for pacing
func WithPlaybackClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) PlaybackOption {
	return func(p *Playback) {
		p.now = now
		p.sleep = sleep
	}
}

// NewPlayback reads a dump from r and draws it on outputs
func NewPlayback(r io.Reader, outputs []Output, opts ...PlaybackOption) *Playback {
	p := &Playback{
		r:       bufio.NewReader(r),
		outputs: outputs,
		logger:  zap.NewNop(),
		now:     time.Now,
		sleep:   sleepContext,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run plays the whole dump and returns the number of fields drawn
func (p *Playback) Run(ctx context.Context) (int, error) {
	start := p.now()
	frames := 0
	for {
		var f game.Field
		if err := game.DecodeBlock(p.r, &f); err != nil {
			if errors.Is(err, io.EOF) {
				p.logger.Info("Playback finished", zap.Int("frames", frames))
				return frames, nil
			}
			return frames, fmt.Errorf("playback frame %d: %w", frames+1, err)
		}

		due := time.Duration(f.BattleTime * float64(time.Second))
		if wait := due - p.now().Sub(start); wait > 0 {
			if err := p.sleep(ctx, wait); err != nil {
				return frames, err
			}
		}
		if err := ctx.Err(); err != nil {
			return frames, err
		}

		for _, out := range p.outputs {
			if err := out.Draw(ctx, f.Clone()); err != nil {
				p.logger.Error("Output failed", zap.Int("frame", frames+1), zap.Error(err))
			}
		}
		frames++
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
