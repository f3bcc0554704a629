package indicator

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/rbright/recast/internal/config"
	"github.com/rbright/recast/internal/fsm"
	"github.com/rbright/recast/internal/session"
)

type notifyFunc func(ctx context.Context, appName string, replaceID uint32, summary string, timeoutMS int) (uint32, error)
type dismissFunc func(ctx context.Context, id uint32) error

// Terminal renders session progress to a line-oriented writer and
// optionally mirrors it through desktop notifications and audio cues.
type Terminal struct {
	cfg    config.IndicatorConfig
	logger *slog.Logger
	text   messages

	mu       sync.Mutex
	out      io.Writer
	ticking  bool
	notifyID uint32

	cue     cuePlayer
	notify  notifyFunc
	dismiss dismissFunc
	pending sync.WaitGroup
}

var _ session.Presenter = (*Terminal)(nil)

// NewTerminal builds a presenter writing to out.
func NewTerminal(out io.Writer, cfg config.IndicatorConfig, logger *slog.Logger) *Terminal {
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Terminal{
		cfg:     cfg,
		logger:  logger,
		text:    messagesFromEnv(),
		out:     out,
		cue:     newCuePlayer(cfg),
		notify:  desktopNotify,
		dismiss: desktopDismiss,
	}
}

// StateChanged prints the prompt for the new state.
func (t *Terminal) StateChanged(ctx context.Context, snap session.Snapshot) {
	view := ViewFor(snap.State)

	t.mu.Lock()
	t.endTickLocked()
	switch {
	case view.Listening:
		t.printf("%s\n", t.text.listening)
		t.printf("\r%s", FormatElapsed(snap.Elapsed))
		t.ticking = true
	case view.Busy:
		t.printf("%s\n", t.text.busy)
	case view.TranslatePrompt:
		t.printf("%s\n", FormatElapsed(snap.Elapsed))
		t.printf("%s\n", t.text.translatePrompt)
	case view.RerecordPrompt:
		t.printf("%s\n", t.text.rerecordPrompt)
	case snap.State == fsm.StateStopped:
		t.printf("%s\n", t.text.stopped)
	case snap.State == fsm.StatePlayingResult:
		t.printf("%s\n", t.text.playing)
	case view.StartEnabled:
		t.printf("%s\n", t.text.idle)
	}
	t.mu.Unlock()

	switch snap.State {
	case fsm.StateRecording:
		t.playCue(ctx, cueStart)
		t.showDesktop(ctx, t.text.listening, 0)
	case fsm.StateStopped:
		t.playCue(ctx, cueStop)
	case fsm.StateUploading:
		t.showDesktop(ctx, t.text.busy, 0)
	case fsm.StatePlayingResult:
		t.playCue(ctx, cueComplete)
	case fsm.StateIdle, fsm.StateAwaitingTranslationChoice, fsm.StateAwaitingRerecordChoice:
		t.hideDesktop(ctx)
	}
}

// Tick rewrites the timer readout in place.
func (t *Terminal) Tick(_ context.Context, snap session.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.ticking {
		return
	}
	t.printf("\r%s", FormatElapsed(snap.Elapsed))
}

// Notify prints a notice. Errors also trigger the error cue and a desktop popup.
func (t *Terminal) Notify(ctx context.Context, notice session.Notice) {
	t.mu.Lock()
	t.endTickLocked()
	if notice.IsError() {
		t.printf("%s%s\n", t.text.errorPrefix, notice.Message)
	} else {
		t.printf("%s\n", notice.Message)
	}
	t.mu.Unlock()

	if !notice.IsError() {
		return
	}
	t.playCue(ctx, cueError)
	t.showDesktop(ctx, notice.Message, t.cfg.ErrorTimeoutMS)
}

// Wait blocks until in-flight cues and desktop calls finish.
func (t *Terminal) Wait() {
	t.pending.Wait()
}

func (t *Terminal) endTickLocked() {
	if t.ticking {
		t.printf("\n")
		t.ticking = false
	}
}

func (t *Terminal) printf(format string, args ...any) {
	if _, err := fmt.Fprintf(t.out, format, args...); err != nil {
		t.logger.Debug("terminal write failed", "error", err.Error())
	}
}

func (t *Terminal) playCue(ctx context.Context, kind cueKind) {
	if !t.cfg.SoundEnable || t.cue == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	t.pending.Go(func() {
		if err := t.cue(ctx, kind); err != nil {
			t.logger.Debug("cue playback failed", "cue", int(kind), "error", err.Error())
		}
	})
}

// showDesktop posts summary, replacing the tracked notification. A
// non-zero timeout detaches the popup so later state changes leave it up.
func (t *Terminal) showDesktop(ctx context.Context, summary string, timeoutMS int) {
	if !t.cfg.DesktopNotify {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	t.mu.Lock()
	replace := t.notifyID
	t.mu.Unlock()

	id, err := t.notify(ctx, t.cfg.DesktopAppName, replace, summary, timeoutMS)
	if err != nil {
		t.logger.Debug("desktop notify failed", "error", err.Error())
		return
	}

	t.mu.Lock()
	if timeoutMS > 0 {
		t.notifyID = 0
	} else {
		t.notifyID = id
	}
	t.mu.Unlock()
}

func (t *Terminal) hideDesktop(ctx context.Context) {
	if !t.cfg.DesktopNotify {
		return
	}
	t.mu.Lock()
	id := t.notifyID
	t.notifyID = 0
	t.mu.Unlock()
	if id == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()
	if err := t.dismiss(ctx, id); err != nil {
		t.logger.Debug("desktop dismiss failed", "id", id, "error", err.Error())
	}
}
