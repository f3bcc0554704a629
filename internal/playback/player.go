package playback

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rbright/recast/internal/audio"
)

const (
	BackendPulse   = "pulse"
	BackendCommand = "command"
)

// Player is the playback surface shared by both backends.
type Player interface {
	Load(context.Context, audio.Clip) error
	Play(context.Context) error
	Detach()
}

// New selects the player for backend.
func New(backend string, argv []string, logger *slog.Logger) (Player, error) {
	switch backend {
	case "", BackendPulse:
		return NewPulse(logger), nil
	case BackendCommand:
		player, err := NewCommand(argv, logger)
		if err != nil {
			return nil, err
		}
		return player, nil
	default:
		return nil, fmt.Errorf("unknown playback backend %q", backend)
	}
}
