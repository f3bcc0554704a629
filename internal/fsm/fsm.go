// Package fsm defines the recording session state table.
package fsm

import (
	"errors"
	"fmt"
)

type State string

type Event string

const (
	StateIdle                      State = "idle"
	StateRecording                 State = "recording"
	StateStopped                   State = "stopped"
	StateAwaitingTranslationChoice State = "awaiting_translation_choice"
	StateUploading                 State = "uploading"
	StatePlayingResult             State = "playing_result"
	StateAwaitingRerecordChoice    State = "awaiting_rerecord_choice"
)

const (
	EventCaptureGranted     Event = "capture_granted"
	EventStop               Event = "stop"
	EventFinalized          Event = "finalized"
	EventTranslate          Event = "translate"
	EventSkip               Event = "skip"
	EventUploadSucceeded    Event = "upload_succeeded"
	EventUploadFailed       Event = "upload_failed"
	EventPlaybackDispatched Event = "playback_dispatched"
	EventDone               Event = "done"
)

// ErrInvalidTransition marks an event that the current state does not accept.
var ErrInvalidTransition = errors.New("invalid transition")

// States lists every known state in lifecycle order.
func States() []State {
	return []State{
		StateIdle,
		StateRecording,
		StateStopped,
		StateAwaitingTranslationChoice,
		StateUploading,
		StatePlayingResult,
		StateAwaitingRerecordChoice,
	}
}

// Transition returns the next state for event, or the unchanged state and an error.
func Transition(current State, event Event) (State, error) {
	switch current {
	case StateIdle:
		switch event {
		case EventCaptureGranted:
			return StateRecording, nil
		}
	case StateRecording:
		switch event {
		case EventStop:
			return StateStopped, nil
		}
	case StateStopped:
		switch event {
		case EventFinalized:
			return StateAwaitingTranslationChoice, nil
		}
	case StateAwaitingTranslationChoice:
		switch event {
		case EventTranslate:
			return StateUploading, nil
		case EventSkip:
			return StateAwaitingRerecordChoice, nil
		}
	case StateUploading:
		switch event {
		case EventUploadSucceeded:
			return StatePlayingResult, nil
		case EventUploadFailed:
			return StateAwaitingTranslationChoice, nil
		}
	case StatePlayingResult:
		switch event {
		case EventPlaybackDispatched:
			return StateAwaitingRerecordChoice, nil
		}
	case StateAwaitingRerecordChoice:
		switch event {
		case EventCaptureGranted:
			return StateRecording, nil
		case EventDone:
			return StateIdle, nil
		}
	default:
		return current, fmt.Errorf("unknown state %q", current)
	}
	return current, invalidTransition(current, event)
}

// Allowed reports whether event is accepted in state.
func Allowed(state State, event Event) bool {
	_, err := Transition(state, event)
	return err == nil
}

func invalidTransition(state State, event Event) error {
	return fmt.Errorf("%w: %s --(%s)--> ?", ErrInvalidTransition, state, event)
}
