package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/lab1702/langbots/game"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ProtocolInput drives a robot through the line protocol: one YAML update block
// per tick, answered by command lines.
type ProtocolInput struct {
	name   string
	w      io.Writer
	lines  chan string
	done   chan struct{}
	group  errgroup.Group
	logger *zap.Logger

	disconnected bool
}

// NewProtocolInput starts reading agent lines from r. Updates are written to w.
func NewProtocolInput(name string, w io.Writer, r io.Reader, logger *zap.Logger) *ProtocolInput {
	p := &ProtocolInput{
		name:   name,
		w:      w,
		lines:  make(chan string, 16),
		done:   make(chan struct{}),
		logger: orNop(logger).With(zap.String("robot", name)),
	}
	p.group.Go(func() error { return p.readLines(r) })
	return p
}

// readLines forwards lines until EOF so a blocked read never holds up cancellation
func (p *ProtocolInput) readLines(r io.Reader) error {
	defer close(p.lines)
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			select {
			case p.lines <- line:
			case <-p.done:
				return nil
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("read agent %s: %w", p.name, err)
		}
	}
}

// Play sends the update for this tick and applies the agent's answer.
// Lines whose id starts with "-" are applied and reading continues; the line
// carrying the tick id is applied and ends the turn; other ids are stale and skipped.
func (p *ProtocolInput) Play(ctx context.Context, turn *Turn) error {
	if p.disconnected {
		return nil
	}

	update, err := game.NewUpdate(turn.Tick.ID, turn.Field, turn.Robot.Name)
	if err != nil {
		return err
	}
	if err := game.WriteBlock(p.w, update); err != nil {
		p.disconnect(err)
		return nil
	}

	for {
		var line string
		var ok bool
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok = <-p.lines:
		}
		if !ok {
			p.disconnect(io.EOF)
			return nil
		}

		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		id, tokens := fields[0], fields[1:]

		switch {
		case strings.HasPrefix(id, game.NoTickID):
			p.apply(turn, tokens)
		case id == turn.Tick.ID:
			p.apply(turn, tokens)
			return nil
		default:
			p.logger.Debug("Ignoring stale agent line", zap.String("id", id), zap.Int("tick", turn.Tick.Tick))
		}
	}
}

func (p *ProtocolInput) apply(turn *Turn, tokens []string) {
	sc, err := InterpretCommands(turn.Field.Config, turn.Robot, tokens)
	if err != nil {
		p.logger.Debug("Command line truncated",
			zap.Int("tick", turn.Tick.Tick),
			zap.Strings("tokens", tokens),
			zap.Error(err))
	}
	turn.Apply(sc)
}

// disconnect is logged once; the robot stays on the field without commands
func (p *ProtocolInput) disconnect(cause error) {
	p.disconnected = true
	p.logger.Warn("Agent disconnected", zap.Error(fmt.Errorf("%w: %w", ErrAgentDisconnected, cause)))
}

// Disconnected reports whether the agent stopped answering
func (p *ProtocolInput) Disconnected() bool {
	return p.disconnected
}

// Close stops forwarding lines. It does not wait for a blocked read.
func (p *ProtocolInput) Close() error {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
	return nil
}

// ProcessAgent is a ProtocolInput talking to a child process
type ProcessAgent struct {
	*ProtocolInput
	cmd   *exec.Cmd
	stdin io.WriteCloser
}

// StartAgent runs executable with the field configuration path as its only argument.
// The agent's stderr is forwarded to the log.
func StartAgent(ctx context.Context, name, executable, configPath string, logger *zap.Logger) (*ProcessAgent, error) {
	logger = orNop(logger)
	cmd := exec.CommandContext(ctx, executable, configPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("agent %s stdin: %w", name, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("agent %s stdout: %w", name, err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("agent %s stderr: %w", name, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start agent %s: %w", name, err)
	}

	agent := &ProcessAgent{
		ProtocolInput: NewProtocolInput(name, stdin, stdout, logger),
		cmd:           cmd,
		stdin:         stdin,
	}
	agent.group.Go(func() error {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			agent.logger.Info("Agent stderr", zap.String("line", scanner.Text()))
		}
		return nil
	})

	agent.logger.Info("Agent started", zap.String("executable", executable), zap.Int("pid", cmd.Process.Pid))
	return agent, nil
}

// Close stops the child process and waits for its pipes to drain
func (a *ProcessAgent) Close() error {
	a.ProtocolInput.Close()
	a.stdin.Close()
	if a.cmd.ProcessState == nil {
		a.cmd.Process.Kill()
	}

	err := a.group.Wait()
	waitErr := a.cmd.Wait()

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		err = errors.Join(err, waitErr)
	}
	return err
}
