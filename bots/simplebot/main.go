// Command simplebot is a sample agent: it drives in circles and shoots at the
// first robot it sees whenever its turret is idle and loaded, leading moving targets.
//
// It is started by the arena as `simplebot <config.yml>` and talks the line
// protocol on stdin/stdout.
package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"

	"github.com/lab1702/langbots/game"
	"github.com/lab1702/langbots/server"
	"go.uber.org/zap"
)

// Chance per update of picking a new random course
const wanderProbability = 0.01

func main() {
	logger, err := server.NewLogger("info", "")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if len(os.Args) != 2 {
		logger.Error("Usage: simplebot <config.yml>")
		os.Exit(2)
	}
	cfg, err := game.LoadConfigFile(os.Args[1])
	if err != nil {
		logger.Error("Loading config failed", zap.Error(err))
		os.Exit(1)
	}

	bot := &simpleBot{cfg: cfg, rng: rand.New(rand.NewSource(rand.Int63())), logger: logger}
	if err := bot.control(os.Stdin, os.Stdout); err != nil {
		logger.Error("Bot stopped", zap.Error(err))
		os.Exit(1)
	}
}

type simpleBot struct {
	cfg    game.Config
	rng    *rand.Rand
	logger *zap.Logger
}

// control answers every update until the input ends or nobody is left to shoot at
func (b *simpleBot) control(r io.Reader, w io.Writer) error {
	out := bufio.NewWriter(w)
	send := func(id, command string) error {
		if _, err := fmt.Fprintf(out, "%s %s\n", id, command); err != nil {
			return err
		}
		return out.Flush()
	}

	b.logger.Info("Bot ready", zap.Float64s("arena", b.cfg.Map.Size[:]))
	if err := send(game.NoTickID, "set-speed 200 set-rotation-speed 30"); err != nil {
		return err
	}

	in := bufio.NewReader(r)
	for {
		var u game.Update
		if err := game.DecodeBlock(in, &u); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if b.rng.Float64() < wanderProbability {
			speed := b.rng.Intn(300) - 150
			rotation := b.rng.Intn(200) - 100
			if err := send(game.NoTickID, fmt.Sprintf("set-speed %d set-rotation-speed %d", speed, rotation)); err != nil {
				return err
			}
		}

		me, others := u.Robots.Me, u.Robots.Others
		if len(others) == 0 {
			b.logger.Info("No robots left", zap.Float64("time", u.Time))
			return nil
		}
		if me.TimeToFire != 0 || me.TurretRotation != 0 {
			if err := send(u.ID, ""); err != nil {
				return err
			}
			continue
		}

		angle := b.aimAt(me, others[0])
		if err := send(u.ID, fmt.Sprintf("rotate-turret-to-angle-and-fire %d", int(math.Round(angle)))); err != nil {
			return err
		}
	}
}

// aimAt leads a moving target, assuming it keeps its current speed and heading
func (b *simpleBot) aimAt(me, target game.RobotView) float64 {
	from := game.Point{X: me.X, Y: me.Y}
	to := game.Point{X: target.X, Y: target.Y}
	velocity := game.Velocity(target.Speed, target.Angle)
	if lead, ok := game.SolveIntercept(from, to, velocity, b.cfg.Robot.BulletSpeed); ok {
		return lead.Angle
	}
	return game.AngleTo(from, to)
}
