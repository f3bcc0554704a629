package playback

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"

	"github.com/rbright/recast/internal/audio"
)

// Command plays clips by handing a temporary file to an external player,
// e.g. `pw-play --media-role Music <file>`.
type Command struct {
	argv   []string
	dir    string
	logger *slog.Logger

	mu     sync.Mutex
	clip   audio.Clip
	active *commandRun
}

type commandRun struct {
	cancel context.CancelFunc
	done   chan struct{}
	path   string
	err    error
}

// NewCommand constructs a Command player. The clip path is appended to argv.
func NewCommand(argv []string, logger *slog.Logger) (*Command, error) {
	if len(argv) == 0 {
		return nil, errors.New("playback command argv cannot be empty")
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Command{argv: append([]string(nil), argv...), logger: logger}, nil
}

// Load attaches clip as the playback source and stops anything playing.
func (c *Command) Load(_ context.Context, clip audio.Clip) error {
	if clip.Empty() {
		return errors.New("load clip: clip is empty")
	}
	c.mu.Lock()
	active := c.active
	c.active = nil
	c.clip = clip
	c.mu.Unlock()

	active.stop()
	return nil
}

// Play starts the player process for the loaded clip and returns once it is running.
func (c *Command) Play(ctx context.Context) error {
	c.mu.Lock()
	clip, previous := c.clip, c.active
	c.active = nil
	c.mu.Unlock()

	previous.stop()
	if clip.Empty() {
		return ErrNothingLoaded
	}

	path, err := writeTempClip(c.dir, clip)
	if err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	argv := append(append([]string(nil), c.argv...), path)
	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		cancel()
		_ = os.Remove(path)
		return fmt.Errorf("start command %s: %w", argv[0], err)
	}

	run := &commandRun{cancel: cancel, done: make(chan struct{}), path: path}
	go func() {
		defer close(run.done)
		if err := cmd.Wait(); err != nil && runCtx.Err() == nil {
			run.err = fmt.Errorf("wait for %s: %w", argv[0], err)
			c.logger.Warn("playback command failed", "error", run.err.Error())
		}
		_ = os.Remove(path)
	}()

	c.mu.Lock()
	c.active = run
	c.mu.Unlock()
	return nil
}

// Detach stops playback and drops the loaded clip.
func (c *Command) Detach() {
	c.mu.Lock()
	active := c.active
	c.active = nil
	c.clip = audio.Clip{}
	c.mu.Unlock()

	active.stop()
}

// Wait blocks until the current player process exits.
func (c *Command) Wait() error {
	c.mu.Lock()
	active := c.active
	c.mu.Unlock()
	if active == nil {
		return nil
	}
	<-active.done
	return active.err
}

func (r *commandRun) stop() {
	if r == nil {
		return
	}
	r.cancel()
	<-r.done
}

func writeTempClip(dir string, clip audio.Clip) (string, error) {
	file, err := os.CreateTemp(dir, "recast-*"+audio.Extension(clip.MIME))
	if err != nil {
		return "", fmt.Errorf("create playback file: %w", err)
	}
	if _, err := file.Write(clip.Data); err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("write playback file: %w", err)
	}
	if err := file.Close(); err != nil {
		_ = os.Remove(file.Name())
		return "", fmt.Errorf("close playback file: %w", err)
	}
	return filepath.Clean(file.Name()), nil
}
