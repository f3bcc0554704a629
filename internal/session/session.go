// Package session coordinates the record, translate, and replay lifecycle.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/recast/internal/audio"
	"github.com/rbright/recast/internal/fsm"
)

const (
	tickInterval   = 100 * time.Millisecond
	ticksPerSecond = 10
)

var (
	// ErrCaptureDenied wraps capture-open failures.
	ErrCaptureDenied = errors.New("capture access denied")
	// ErrBusy rejects operations while another one is still in flight.
	ErrBusy = errors.New("operation already in progress")
	// ErrEmptyResult marks a transformation response carrying no audio bytes.
	ErrEmptyResult = errors.New("transformation returned empty audio")
)

// Source names the clip currently attached to the player.
type Source string

const (
	SourceNone   Source = "none"
	SourceLocal  Source = "local"
	SourceResult Source = "result"
)

// Snapshot is a consistent read of controller state.
type Snapshot struct {
	ID          string
	State       fsm.State
	Ticks       int
	Elapsed     float64
	Chunks      int
	LocalBytes  int
	ResultBytes int
	Source      Source
	Busy        bool
}

// Stats counts lifecycle outcomes across one owner run.
type Stats struct {
	Recordings     int
	Uploads        int
	UploadFailures int
	Completed      int
}

// Dependencies carries the controller collaborators. Nil fields get inert fallbacks.
type Dependencies struct {
	Capture     Capturer
	Transformer Transformer
	Player      Player
	Presenter   Presenter
	Archive     Archiver
	Clock       Clock
}

// Controller owns the recording session and serializes its transitions.
type Controller struct {
	logger      *slog.Logger
	capture     Capturer
	transformer Transformer
	player      Player
	presenter   Presenter
	archive     Archiver
	clock       Clock

	mu     sync.Mutex
	state  fsm.State
	busy   bool
	id     string
	ticks  int
	chunks [][]byte
	local  audio.Clip
	result audio.Clip
	source Source
	rec    *recording
	stats  Stats

	actions chan string
}

// recording holds the resources of one active capture.
type recording struct {
	stream      Stream
	ticker      Ticker
	halted      bool
	stopTick    chan struct{}
	tickDone    chan struct{}
	collectDone chan struct{}
	haltOnce    sync.Once
	stopErr     error
}

// NewController constructs a controller in Idle with safe default fallbacks.
func NewController(logger *slog.Logger, deps Dependencies) *Controller {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if deps.Capture == nil {
		deps.Capture = unavailableCapturer{}
	}
	if deps.Transformer == nil {
		deps.Transformer = unavailableTransformer{}
	}
	if deps.Player == nil {
		deps.Player = noopPlayer{}
	}
	if deps.Presenter == nil {
		deps.Presenter = noopPresenter{}
	}
	if deps.Clock == nil {
		deps.Clock = systemClock{}
	}

	return &Controller{
		logger:      logger,
		capture:     deps.Capture,
		transformer: deps.Transformer,
		player:      deps.Player,
		presenter:   deps.Presenter,
		archive:     deps.Archive,
		clock:       deps.Clock,
		state:       fsm.StateIdle,
		id:          uuid.NewString(),
		source:      SourceNone,
		actions:     make(chan string, 1),
	}
}

// State returns the current FSM state.
func (c *Controller) State() fsm.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Snapshot returns a consistent copy of the session state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Stats returns lifecycle counters.
func (c *Controller) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// StartRecording requests capture access and enters Recording once granted.
// A denial leaves the state unchanged and surfaces a permission notice.
func (c *Controller) StartRecording(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(fsm.EventCaptureGranted); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	c.mu.Unlock()

	stream, err := c.capture.Open(ctx)
	if err == nil && stream == nil {
		err = errors.New("capture returned no stream")
	}
	if err != nil {
		c.mu.Lock()
		c.busy = false
		c.mu.Unlock()

		err = fmt.Errorf("%w: %w", ErrCaptureDenied, err)
		c.logger.Warn("capture denied", "error", err.Error())
		c.presenter.Notify(ctx, permissionNotice(err))
		return err
	}

	rec := &recording{
		stream:      stream,
		ticker:      c.clock.NewTicker(tickInterval),
		stopTick:    make(chan struct{}),
		tickDone:    make(chan struct{}),
		collectDone: make(chan struct{}),
	}

	c.mu.Lock()
	c.busy = false
	c.ticks = 0
	c.chunks = nil
	c.rec = rec
	c.stats.Recordings++
	c.applyLocked(fsm.EventCaptureGranted)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.presenter.StateChanged(ctx, snap)
	go c.collect(rec)
	go c.runTicker(ctx, rec)
	return nil
}

// StopRecording halts capture, freezes the timer, and finalizes the local clip.
func (c *Controller) StopRecording(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(fsm.EventStop); err != nil {
		c.mu.Unlock()
		return err
	}
	rec := c.rec
	if rec == nil {
		c.mu.Unlock()
		return fmt.Errorf("%w: no active capture", fsm.ErrInvalidTransition)
	}
	c.busy = true
	rec.halted = true
	c.mu.Unlock()

	stopErr := rec.halt()
	if stopErr != nil {
		c.logger.Warn("capture stop failed", "error", stopErr.Error())
	}

	c.mu.Lock()
	c.rec = nil
	local := audio.Assemble(c.chunks, rec.stream.Format())
	chunkCount := len(c.chunks)
	c.local = local
	c.source = SourceLocal
	c.applyLocked(fsm.EventStop)
	stopped := c.snapshotLocked()
	c.chunks = nil
	c.mu.Unlock()

	c.logger.Info("recording finalized",
		"session_id", stopped.ID,
		"chunks", chunkCount,
		"bytes", len(local.Data),
		"elapsed_s", stopped.Elapsed,
	)
	c.presenter.StateChanged(ctx, stopped)

	if err := c.player.Load(ctx, local); err != nil {
		c.presenter.Notify(ctx, playbackNotice(err))
	}
	c.archiveClip(ctx, "recording", local)

	c.mu.Lock()
	c.applyLocked(fsm.EventFinalized)
	c.busy = false
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.presenter.StateChanged(ctx, snap)
	return nil
}

// ChooseTranslate uploads the local clip and auto-plays the transformed result.
// Upload failures return to AwaitingTranslationChoice; playback failures still
// reach AwaitingRerecordChoice.
func (c *Controller) ChooseTranslate(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(fsm.EventTranslate); err != nil {
		c.mu.Unlock()
		return err
	}
	c.busy = true
	c.applyLocked(fsm.EventTranslate)
	c.stats.Uploads++
	local := c.local
	uploading := c.snapshotLocked()
	c.mu.Unlock()

	c.presenter.StateChanged(ctx, uploading)

	started := time.Now()
	result, err := c.transformer.Transform(ctx, local)
	if err == nil && result.Empty() {
		err = ErrEmptyResult
	}
	if err != nil {
		c.mu.Lock()
		c.applyLocked(fsm.EventUploadFailed)
		c.busy = false
		c.stats.UploadFailures++
		snap := c.snapshotLocked()
		c.mu.Unlock()

		c.logger.Error("transformation failed",
			"session_id", snap.ID,
			"transport", IsTransportFailure(err),
			"error", err.Error(),
		)
		c.presenter.StateChanged(ctx, snap)
		c.presenter.Notify(ctx, uploadNotice(err))
		return fmt.Errorf("transform recording: %w", err)
	}

	c.mu.Lock()
	c.result = result
	c.source = SourceResult
	c.applyLocked(fsm.EventUploadSucceeded)
	playing := c.snapshotLocked()
	c.mu.Unlock()

	c.logger.Info("transformation complete",
		"session_id", playing.ID,
		"mime", result.MIME,
		"bytes", len(result.Data),
		"latency_ms", time.Since(started).Milliseconds(),
	)
	c.presenter.StateChanged(ctx, playing)
	c.archiveClip(ctx, "result", result)

	playErr := c.player.Load(ctx, result)
	if playErr == nil {
		playErr = c.player.Play(ctx)
	}
	if playErr != nil {
		c.logger.Warn("result playback failed", "error", playErr.Error())
		c.presenter.Notify(ctx, playbackNotice(playErr))
	}

	c.mu.Lock()
	c.applyLocked(fsm.EventPlaybackDispatched)
	c.busy = false
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.presenter.StateChanged(ctx, snap)
	return nil
}

// SkipTranslate moves straight to the re-record prompt.
func (c *Controller) SkipTranslate(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(fsm.EventSkip); err != nil {
		c.mu.Unlock()
		return err
	}
	c.applyLocked(fsm.EventSkip)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.presenter.StateChanged(ctx, snap)
	return nil
}

// ChooseRecordAgain starts a fresh recording from the re-record prompt.
func (c *Controller) ChooseRecordAgain(ctx context.Context) error {
	c.mu.Lock()
	state := c.state
	c.mu.Unlock()
	if state != fsm.StateAwaitingRerecordChoice {
		return fmt.Errorf("%w: %s --(again)--> ?", fsm.ErrInvalidTransition, state)
	}
	return c.StartRecording(ctx)
}

// ChooseDone clears all session data, detaches the player, and returns to Idle.
func (c *Controller) ChooseDone(ctx context.Context) error {
	c.mu.Lock()
	if err := c.guardLocked(fsm.EventDone); err != nil {
		c.mu.Unlock()
		return err
	}
	rec := c.rec
	c.rec = nil
	if rec != nil {
		rec.halted = true
	}
	c.resetLocked()
	c.applyLocked(fsm.EventDone)
	c.stats.Completed++
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if rec != nil {
		_ = rec.halt()
	}
	c.player.Detach()
	c.presenter.StateChanged(ctx, snap)
	c.presenter.Notify(ctx, completionNotice())
	return nil
}

// PlaySource replays whatever clip is attached to the player.
func (c *Controller) PlaySource(ctx context.Context) error {
	c.mu.Lock()
	state, busy, source := c.state, c.busy, c.source
	c.mu.Unlock()

	if busy {
		return fmt.Errorf("%w: %s", ErrBusy, state)
	}
	if !canReplay(state) || source == SourceNone {
		return fmt.Errorf("%w: %s --(play)--> ?", fsm.ErrInvalidTransition, state)
	}
	if err := c.player.Play(ctx); err != nil {
		c.presenter.Notify(ctx, playbackNotice(err))
		return fmt.Errorf("play %s clip: %w", source, err)
	}
	return nil
}

// Close releases any active capture and the player. State is left as is.
func (c *Controller) Close() {
	c.mu.Lock()
	rec := c.rec
	c.rec = nil
	if rec != nil {
		rec.halted = true
	}
	c.mu.Unlock()

	if rec != nil {
		_ = rec.halt()
	}
	c.player.Detach()
}

// guardLocked rejects event while busy or when the current state does not accept it.
func (c *Controller) guardLocked(event fsm.Event) error {
	if c.busy {
		return fmt.Errorf("%w: %s", ErrBusy, c.state)
	}
	if _, err := fsm.Transition(c.state, event); err != nil {
		return err
	}
	return nil
}

// applyLocked advances state. Callers have already validated event.
func (c *Controller) applyLocked(event fsm.Event) {
	next, err := fsm.Transition(c.state, event)
	if err != nil {
		c.logger.Error("unexpected transition failure", "error", err.Error())
		return
	}
	c.logger.Debug("state transition", "session_id", c.id, "from", c.state, "event", event, "to", next)
	c.state = next
}

func (c *Controller) resetLocked() {
	c.ticks = 0
	c.chunks = nil
	c.local = audio.Clip{}
	c.result = audio.Clip{}
	c.source = SourceNone
	c.id = uuid.NewString()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		ID:          c.id,
		State:       c.state,
		Ticks:       c.ticks,
		Elapsed:     float64(c.ticks) / ticksPerSecond,
		Chunks:      len(c.chunks),
		LocalBytes:  len(c.local.Data),
		ResultBytes: len(c.result.Data),
		Source:      c.source,
		Busy:        c.busy,
	}
}

// collect drains capture chunks into the session buffer in arrival order.
func (c *Controller) collect(rec *recording) {
	defer close(rec.collectDone)
	for chunk := range rec.stream.Chunks() {
		if len(chunk) == 0 {
			continue
		}
		c.mu.Lock()
		if c.rec == rec {
			c.chunks = append(c.chunks, chunk)
		}
		c.mu.Unlock()
	}
}

// runTicker adds one tick per interval until the recording is halted.
func (c *Controller) runTicker(ctx context.Context, rec *recording) {
	defer close(rec.tickDone)
	defer rec.ticker.Stop()

	for {
		select {
		case <-rec.stopTick:
			return
		case <-rec.ticker.C():
			c.mu.Lock()
			if rec.halted || c.state != fsm.StateRecording {
				c.mu.Unlock()
				continue
			}
			c.ticks++
			snap := c.snapshotLocked()
			c.mu.Unlock()
			c.presenter.Tick(ctx, snap)
		}
	}
}

func (c *Controller) archiveClip(ctx context.Context, kind string, clip audio.Clip) {
	if c.archive == nil || clip.Empty() {
		return
	}
	path, err := c.archive.Archive(ctx, kind, clip)
	if err != nil {
		c.logger.Warn("archive clip failed", "kind", kind, "error", err.Error())
		return
	}
	c.logger.Debug("clip archived", "kind", kind, "path", path)
}

// halt stops the ticker first, then the stream, and waits for both goroutines.
func (r *recording) halt() error {
	r.haltOnce.Do(func() {
		close(r.stopTick)
		<-r.tickDone
		r.stopErr = r.stream.Stop()
		<-r.collectDone
	})
	return r.stopErr
}

func canReplay(state fsm.State) bool {
	return state == fsm.StateAwaitingTranslationChoice || state == fsm.StateAwaitingRerecordChoice
}
