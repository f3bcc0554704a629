package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rbright/recast/internal/fsm"
	"github.com/rbright/recast/internal/ipc"
)

const (
	actionStart     = "start"
	actionStop      = "stop"
	actionTranslate = "translate"
	actionSkip      = "skip"
	actionAgain     = "again"
	actionDone      = "done"
	actionPlay      = "play"
	actionQuit      = "quit"
)

// Result summarizes one owner Run.
type Result struct {
	State       fsm.State
	Stats       Stats
	Interrupted bool
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Run executes queued actions serially until quit or context cancellation.
func (c *Controller) Run(ctx context.Context) Result {
	result := Result{StartedAt: time.Now()}
	c.presenter.StateChanged(ctx, c.Snapshot())

	for {
		select {
		case <-ctx.Done():
			c.Close()
			result.Interrupted = true
			return c.finish(result)
		case a := <-c.actions:
			if a == actionQuit {
				c.Close()
				return c.finish(result)
			}
			if err := c.dispatch(ctx, a); err != nil {
				c.logger.Debug("action finished with error", "action", a, "error", err.Error())
				if errors.Is(err, fsm.ErrInvalidTransition) || errors.Is(err, ErrBusy) {
					c.presenter.Notify(ctx, Notice{Kind: NoticeInfo, Message: err.Error(), Err: err})
				}
			}
		}
	}
}

// Dispatch runs one named action synchronously.
func (c *Controller) Dispatch(ctx context.Context, action string) error {
	if action == actionQuit {
		return errors.New("quit is only accepted through the action queue")
	}
	return c.dispatch(ctx, action)
}

func (c *Controller) dispatch(ctx context.Context, action string) error {
	switch action {
	case actionStart:
		return c.StartRecording(ctx)
	case actionStop:
		return c.StopRecording(ctx)
	case actionTranslate:
		return c.ChooseTranslate(ctx)
	case actionSkip:
		return c.SkipTranslate(ctx)
	case actionAgain:
		return c.ChooseRecordAgain(ctx)
	case actionDone:
		return c.ChooseDone(ctx)
	case actionPlay:
		return c.PlaySource(ctx)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (c *Controller) finish(result Result) Result {
	c.mu.Lock()
	result.State = c.state
	result.Stats = c.stats
	c.mu.Unlock()
	result.FinishedAt = time.Now()
	return result
}

// Handle serves IPC commands for the owner process.
func (c *Controller) Handle(_ context.Context, req ipc.Request) ipc.Response {
	snap := c.Snapshot()
	if req.Command == "status" {
		return statusResponse(snap, "status")
	}

	if !commandAllowed(req.Command, snap.State) {
		switch req.Command {
		case actionStart, actionStop, actionTranslate, actionSkip, actionAgain, actionDone, actionPlay, actionQuit:
			return ipc.Response{OK: false, State: string(snap.State), Error: fmt.Sprintf("cannot %s from state %s", req.Command, snap.State)}
		default:
			return ipc.Response{OK: false, State: string(snap.State), Error: fmt.Sprintf("unknown command: %s", req.Command)}
		}
	}
	if snap.Busy && req.Command != actionQuit {
		return ipc.Response{OK: false, State: string(snap.State), Error: fmt.Sprintf("busy in state %s", snap.State)}
	}

	select {
	case c.actions <- req.Command:
		return statusResponse(snap, req.Command+" requested")
	default:
		return ipc.Response{OK: false, State: string(snap.State), Error: ipc.ErrorPending}
	}
}

// commandAllowed reports whether command may be queued from state.
func commandAllowed(command string, state fsm.State) bool {
	switch command {
	case actionStart:
		return fsm.Allowed(state, fsm.EventCaptureGranted)
	case actionStop:
		return fsm.Allowed(state, fsm.EventStop)
	case actionTranslate:
		return fsm.Allowed(state, fsm.EventTranslate)
	case actionSkip:
		return fsm.Allowed(state, fsm.EventSkip)
	case actionAgain:
		return state == fsm.StateAwaitingRerecordChoice
	case actionDone:
		return fsm.Allowed(state, fsm.EventDone)
	case actionPlay:
		return canReplay(state)
	case actionQuit:
		return true
	default:
		return false
	}
}

func statusResponse(snap Snapshot, message string) ipc.Response {
	return ipc.Response{
		OK:      true,
		State:   string(snap.State),
		Elapsed: snap.Elapsed,
		Source:  string(snap.Source),
		Session: snap.ID,
		Message: message,
	}
}
