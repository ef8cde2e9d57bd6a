package main

import (
	"context"
	"embed"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/google/uuid"
	"github.com/lab1702/langbots/game"
	"github.com/lab1702/langbots/server"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed static/*
var staticFiles embed.FS

// Exit codes
const (
	exitOK      = 0
	exitFailure = 1 // Battle aborted or a runtime failure
	exitUsage   = 2
)

// Spectators get this long to receive the result before the server stops
const spectatorGrace = time.Second

// listFlag collects a repeatable flag
type listFlag []string

func (l *listFlag) String() string {
	return strings.Join(*l, ",")
}

func (l *listFlag) Set(v string) error {
	*l = append(*l, v)
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var robotFlags, outputFlags listFlag
	flag.Var(&robotFlags, "robot", "Robot as name:commands:executable or name:keyboard (repeatable, at least 2)")
	flag.Var(&outputFlags, "output", "Output: terminal, sound, ws[:addr], dump:file or video:file, - is stdout (repeatable)")
	configPath := flag.String("config", "config/field.yml", "Field configuration file")
	framerate := flag.Int("framerate", 0, "Simulate at a fixed number of ticks per second of battle time, 0 follows the wall clock")
	play := flag.String("play", "", "Replay a dump file instead of running a battle")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	logFile := flag.String("log-file", "", "Write logs to this file instead of stderr")
	flag.Parse()

	logger, err := server.NewLogger(*logLevel, *logFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	defer logger.Sync()

	cfg, err := game.LoadConfigFile(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}

	var outSpecs []server.OutputSpec
	for _, s := range outputFlags {
		spec, err := server.ParseOutputSpec(s)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitUsage
		}
		outSpecs = append(outSpecs, spec)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *play != "" {
		return runPlayback(ctx, *play, outSpecs, logger)
	}

	var robotSpecs []server.RobotSpec
	for _, s := range robotFlags {
		spec, err := server.ParseRobotSpec(s)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitUsage
		}
		robotSpecs = append(robotSpecs, spec)
	}
	robots, err := server.PlaceRobots(robotSpecs, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		return exitUsage
	}

	return runBattle(ctx, cfg, *configPath, *framerate, robotSpecs, robots, outSpecs, logger)
}

// session holds the collaborators chosen on the command line
type session struct {
	logger  *zap.Logger
	screen  tcell.Screen
	events  *server.ScreenEvents
	outputs []server.Output
	hub     *server.Hub
	wsAddr  string
	stdout  bool // An output writes to stdout
}

// useScreen initialises the terminal the first time a terminal output or keyboard needs it
func (s *session) useScreen() (tcell.Screen, error) {
	if s.screen != nil {
		return s.screen, nil
	}
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	if err := screen.Init(); err != nil {
		return nil, fmt.Errorf("terminal: %w", err)
	}
	s.screen = screen
	s.events = server.NewScreenEvents(screen)
	return screen, nil
}

// openOutputs creates every output collaborator
func (s *session) openOutputs(battleID string, specs []server.OutputSpec) error {
	for _, spec := range specs {
		switch spec.Kind {
		case server.OutputTerminal:
			screen, err := s.useScreen()
			if err != nil {
				return err
			}
			s.outputs = append(s.outputs, server.NewTerminalOutput(screen))

		case server.OutputWebSocket:
			if s.hub != nil {
				return fmt.Errorf("%w: only one ws output", server.ErrInvalidOutputSpec)
			}
			s.hub = server.NewHub(battleID, s.logger)
			s.wsAddr = spec.Arg
			s.outputs = append(s.outputs, s.hub)

		case server.OutputDump:
			if spec.Arg == "-" {
				s.stdout = true
				s.outputs = append(s.outputs, server.NewDumpOutput(plainWriter{os.Stdout}))
				continue
			}
			out, err := server.CreateDumpFile(spec.Arg)
			if err != nil {
				return err
			}
			s.outputs = append(s.outputs, out)

		case server.OutputVideo:
			if spec.Arg == "-" {
				s.stdout = true
				s.outputs = append(s.outputs, server.NewFrameOutput(plainWriter{os.Stdout}))
				continue
			}
			out, err := server.CreateFrameFile(spec.Arg)
			if err != nil {
				return err
			}
			s.outputs = append(s.outputs, out)

		case server.OutputSound:
			out, err := server.OpenSpeaker()
			if err != nil {
				return fmt.Errorf("sound: %w", err)
			}
			s.outputs = append(s.outputs, out)
		}
	}
	return nil
}

// interactive reports whether a human is watching or playing, so ticks are paced
func (s *session) interactive() bool {
	return s.screen != nil || s.hub != nil || hasOutput(s.outputs, func(o server.Output) bool {
		_, ok := o.(*server.SoundOutput)
		return ok
	})
}

func hasOutput(outputs []server.Output, match func(server.Output) bool) bool {
	for _, o := range outputs {
		if match(o) {
			return true
		}
	}
	return false
}

// close releases outputs in reverse order; the terminal is restored last
func (s *session) close() {
	for i := len(s.outputs) - 1; i >= 0; i-- {
		if err := s.outputs[i].Close(); err != nil {
			s.logger.Error("Closing output failed", zap.Error(err))
		}
	}
	if s.screen != nil && !hasOutput(s.outputs, func(o server.Output) bool {
		_, ok := o.(*server.TerminalOutput)
		return ok
	}) {
		s.screen.Fini()
	}
}

// serve runs the spectator hub and its HTTP server until ctx is done
func (s *session) serve(ctx context.Context, g *errgroup.Group) error {
	if s.hub == nil {
		return nil
	}
	static, err := fs.Sub(staticFiles, "static")
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:         s.wsAddr,
		Handler:      s.hub.Handler(static),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	g.Go(func() error { return s.hub.Run(ctx) })
	g.Go(func() error {
		s.logger.Info("Spectator server running", zap.String("addr", s.wsAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("spectator server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return nil
}

func runBattle(ctx context.Context, cfg game.Config, configPath string, framerate int,
	specs []server.RobotSpec, robots []game.Robot, outSpecs []server.OutputSpec, logger *zap.Logger) int {

	battleID := uuid.NewString()
	s := &session{logger: logger.With(zap.String("battle", battleID))}
	defer s.close()

	if err := s.openOutputs(battleID, outSpecs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	var agents []*server.ProcessAgent
	defer func() {
		for _, a := range agents {
			if err := a.Close(); err != nil {
				logger.Warn("Stopping agent failed", zap.Error(err))
			}
		}
	}()

	inputs := make([]server.InputSource, len(specs))
	for i, spec := range specs {
		switch spec.Input {
		case server.InputCommands:
			agent, err := server.StartAgent(ctx, spec.Name, spec.Executable, configPath, logger)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				return exitFailure
			}
			agents = append(agents, agent)
			inputs[i] = agent
		case server.InputKeyboard:
			if _, err := s.useScreen(); err != nil {
				fmt.Fprintln(os.Stderr, err)
				return exitFailure
			}
			inputs[i] = server.NewKeyboardInput(server.DefaultKeyboardControls)
		}
	}

	opts := []server.Option{
		server.WithBattleID(battleID),
		server.WithLogger(logger),
		server.WithFrameRate(framerate),
		server.WithOutputs(s.outputs...),
	}
	if s.events != nil {
		opts = append(opts, server.WithEventSource(s.events))
	}
	if s.interactive() {
		opts = append(opts, server.WithTickInterval(game.UpdateInterval))
	}

	battle := server.NewBattle(cfg, opts...)
	for i, r := range robots {
		if err := battle.AddRobot(r, inputs[i]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitUsage
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	if err := s.serve(gctx, g); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	var result server.Result
	g.Go(func() error {
		defer cancel()
		var err error
		result, err = battle.Run(gctx)
		if err == nil && s.hub != nil && !result.Aborted {
			select {
			case <-time.After(spectatorGrace):
			case <-gctx.Done():
			}
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Battle failed", zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	// Restore the terminal before printing the summary
	s.close()
	s.outputs, s.screen = nil, nil

	printResult(s.stdout, result.String())
	if result.Aborted {
		return exitFailure
	}
	return exitOK
}

func runPlayback(ctx context.Context, path string, outSpecs []server.OutputSpec, logger *zap.Logger) int {
	file, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitUsage
	}
	defer file.Close()

	s := &session{logger: logger}
	defer s.close()
	if err := s.openOutputs(uuid.NewString(), outSpecs); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(runCtx)
	if err := s.serve(gctx, g); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	if s.events != nil {
		// The terminal swallows Ctrl-C as a key, so watch for it here
		g.Go(func() error {
			watchQuit(gctx, s.events, cancel)
			return nil
		})
	}

	var frames int
	g.Go(func() error {
		defer cancel()
		var err error
		frames, err = server.NewPlayback(file, s.outputs, server.WithPlaybackLogger(logger)).Run(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if err := g.Wait(); err != nil {
		logger.Error("Playback failed", zap.Int("frames", frames), zap.Error(err))
		fmt.Fprintln(os.Stderr, err)
		return exitFailure
	}
	return exitOK
}

// watchQuit cancels when the operator presses Esc or Ctrl-C
func watchQuit(ctx context.Context, events server.EventSource, cancel context.CancelFunc) {
	ticker := time.NewTicker(game.UpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if server.QuitRequested(events.PollEvents()) {
				cancel()
				return
			}
		}
	}
}

// printResult writes the summary to stdout unless an output is streaming there
func printResult(stdoutBusy bool, summary string) {
	var w io.Writer = os.Stdout
	if stdoutBusy {
		w = os.Stderr
	}
	fmt.Fprintln(w, summary)
}

// plainWriter hides Close so an output never closes stdout
type plainWriter struct {
	io.Writer
}
