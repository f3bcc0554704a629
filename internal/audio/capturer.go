package audio

import (
	"context"
	"log/slog"
)

// PulseCapturer opens capture streams on the configured input preference.
type PulseCapturer struct {
	Input    string
	Fallback string
	Logger   *slog.Logger
}

// Open selects a usable source and starts capturing from it.
func (p PulseCapturer) Open(ctx context.Context) (*Capture, error) {
	selection, err := SelectDevice(ctx, p.Input, p.Fallback)
	if err != nil {
		return nil, err
	}
	if selection.Warning != "" && p.Logger != nil {
		p.Logger.Warn(selection.Warning, "device", selection.Device.ID)
	}

	capture, err := StartCapture(ctx, selection.Device)
	if err != nil {
		return nil, err
	}
	if p.Logger != nil {
		p.Logger.Info("capture opened", "device", selection.Device.Label(), "fallback", selection.Fallback)
	}
	return capture, nil
}
