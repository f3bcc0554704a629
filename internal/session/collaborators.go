package session

import (
	"context"
	"errors"

	"github.com/rbright/recast/internal/audio"
)

// ErrTransformUnavailable indicates no transformation service is wired.
var ErrTransformUnavailable = errors.New("transformation service not configured")

// Stream is one open capture stream. Chunks is closed once Stop has flushed.
type Stream interface {
	Chunks() <-chan []byte
	Format() audio.Format
	Stop() error
}

// Capturer opens the capture device; an error means access was not granted.
type Capturer interface {
	Open(context.Context) (Stream, error)
}

// CapturerFunc adapts a function to the Capturer interface.
type CapturerFunc func(context.Context) (Stream, error)

func (f CapturerFunc) Open(ctx context.Context) (Stream, error) {
	return f(ctx)
}

// Transformer submits a finalized recording and returns the transformed audio.
type Transformer interface {
	Transform(context.Context, audio.Clip) (audio.Clip, error)
}

// TransformFunc adapts a function to the Transformer interface.
type TransformFunc func(context.Context, audio.Clip) (audio.Clip, error)

func (f TransformFunc) Transform(ctx context.Context, clip audio.Clip) (audio.Clip, error) {
	return f(ctx, clip)
}

// Player is the playback device. Load replaces the source; Detach clears it.
type Player interface {
	Load(context.Context, audio.Clip) error
	Play(context.Context) error
	Detach()
}

// Presenter receives state snapshots and user-facing notices.
type Presenter interface {
	StateChanged(context.Context, Snapshot)
	Tick(context.Context, Snapshot)
	Notify(context.Context, Notice)
}

// Archiver keeps copies of finalized clips. kind is "recording" or "result".
type Archiver interface {
	Archive(ctx context.Context, kind string, clip audio.Clip) (string, error)
}

type unavailableCapturer struct{}

func (unavailableCapturer) Open(context.Context) (Stream, error) {
	return nil, errors.New("no capture device configured")
}

type unavailableTransformer struct{}

func (unavailableTransformer) Transform(context.Context, audio.Clip) (audio.Clip, error) {
	return audio.Clip{}, ErrTransformUnavailable
}

type noopPlayer struct{}

func (noopPlayer) Load(context.Context, audio.Clip) error { return nil }
func (noopPlayer) Play(context.Context) error             { return nil }
func (noopPlayer) Detach()                                {}

type noopPresenter struct{}

func (noopPresenter) StateChanged(context.Context, Snapshot) {}
func (noopPresenter) Tick(context.Context, Snapshot)         {}
func (noopPresenter) Notify(context.Context, Notice)         {}
