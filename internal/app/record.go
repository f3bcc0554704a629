package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/rbright/recast/internal/archive"
	"github.com/rbright/recast/internal/audio"
	"github.com/rbright/recast/internal/config"
	"github.com/rbright/recast/internal/indicator"
	"github.com/rbright/recast/internal/ipc"
	"github.com/rbright/recast/internal/playback"
	"github.com/rbright/recast/internal/session"
	"github.com/rbright/recast/internal/transform"
	"github.com/rbright/recast/internal/version"
)

// commandRecord runs the owner process: the session controller, its IPC
// server, and the keyboard loop.
func (r Runner) commandRecord(ctx context.Context, cfg config.Config, logger *slog.Logger) int {
	socketPath, err := ipc.RuntimeSocketPath()
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}

	listener, err := ipc.Acquire(ctx, socketPath, 180*time.Millisecond, 8, nil)
	if err != nil {
		if errors.Is(err, ipc.ErrAlreadyRunning) {
			fmt.Fprintf(r.Stderr, "error: a %s session is already running; use `%s status`\n", version.Name, version.Name)
			return 1
		}
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	defer func() {
		_ = listener.Close()
		_ = os.Remove(socketPath)
	}()

	term := indicator.NewTerminal(r.Stdout, cfg.Indicator, logger)
	deps, err := buildDependencies(cfg, logger)
	if err != nil {
		fmt.Fprintf(r.Stderr, "error: %v\n", err)
		return 1
	}
	deps.Presenter = term
	controller := session.NewController(logger, deps)

	serverCtx, serverCancel := context.WithCancel(ctx)
	defer serverCancel()

	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- ipc.Serve(serverCtx, listener, controller)
	}()

	if r.Stdin != nil {
		go readKeys(serverCtx, r.Stdin, controller, r.Stderr)
	}

	result := controller.Run(ctx)
	serverCancel()
	term.Wait()

	logSessionResult(logger, controller.Snapshot().ID, result)
	if serverErr := <-serverErrCh; serverErr != nil {
		fmt.Fprintf(r.Stderr, "error: ipc server failed: %v\n", serverErr)
		return 1
	}

	if result.Interrupted {
		fmt.Fprintln(r.Stdout, "interrupted")
	}
	return 0
}

// buildDependencies constructs the controller collaborators from cfg.
func buildDependencies(cfg config.Config, logger *slog.Logger) (session.Dependencies, error) {
	transformer, err := transform.New(transform.Config{
		Endpoint: cfg.Transform.Endpoint,
		Timeout:  cfg.Transform.Timeout(),
		Logger:   logger,
	})
	if err != nil {
		return session.Dependencies{}, err
	}

	player, err := playback.New(cfg.Playback.Backend, cfg.Playback.Command.Argv, logger)
	if err != nil {
		return session.Dependencies{}, err
	}

	capturer := audio.PulseCapturer{Input: cfg.Audio.Input, Fallback: cfg.Audio.Fallback, Logger: logger}
	deps := session.Dependencies{
		Capture: session.CapturerFunc(func(ctx context.Context) (session.Stream, error) {
			capture, err := capturer.Open(ctx)
			if err != nil {
				return nil, err
			}
			return capture, nil
		}),
		Transformer: transformer,
		Player:      player,
	}

	if cfg.Archive.Enable {
		dir, err := archive.New(config.ExpandUserPath(cfg.Archive.Dir))
		if err != nil {
			return session.Dependencies{}, err
		}
		deps.Archive = dir
	}
	return deps, nil
}

func logSessionResult(logger *slog.Logger, id string, result session.Result) {
	if logger == nil {
		return
	}
	logger.Info("session finished",
		"session", id,
		"state", result.State,
		"interrupted", result.Interrupted,
		"started_at", result.StartedAt.Format(time.RFC3339Nano),
		"finished_at", result.FinishedAt.Format(time.RFC3339Nano),
		"duration_ms", result.FinishedAt.Sub(result.StartedAt).Milliseconds(),
		"recordings", result.Stats.Recordings,
		"uploads", result.Stats.Uploads,
		"upload_failures", result.Stats.UploadFailures,
		"completed", result.Stats.Completed,
	)
}
