package indicator

import (
	"fmt"

	"github.com/rbright/recast/internal/fsm"
)

// View is the control visibility for one state.
type View struct {
	StartEnabled    bool
	StopEnabled     bool
	Listening       bool
	Busy            bool
	TranslatePrompt bool
	RerecordPrompt  bool
}

// ViewFor maps a session state onto control visibility.
func ViewFor(state fsm.State) View {
	return View{
		StartEnabled:    state == fsm.StateIdle,
		StopEnabled:     fsm.Allowed(state, fsm.EventStop),
		Listening:       state == fsm.StateRecording,
		Busy:            state == fsm.StateUploading,
		TranslatePrompt: state == fsm.StateAwaitingTranslationChoice,
		RerecordPrompt:  state == fsm.StateAwaitingRerecordChoice,
	}
}

// FormatElapsed renders the timer readout with two decimals.
func FormatElapsed(seconds float64) string {
	return fmt.Sprintf("Time: %.2fs", seconds)
}
