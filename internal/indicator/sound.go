package indicator

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/exec"
	"time"

	"github.com/rbright/recast/internal/audio"
	"github.com/rbright/recast/internal/config"
	"github.com/rbright/recast/internal/playback"
)

type cueKind int

const (
	cueStart cueKind = iota + 1
	cueStop
	cueComplete
	cueError
)

const cueSampleRate = 16000

var cueFormat = audio.Format{SampleRate: cueSampleRate, Channels: 1, BitsPerSample: 16}

type tone struct {
	hz     float64
	length time.Duration
	gain   float64
}

var cueTones = map[cueKind][]tone{
	cueStart:    {{hz: 660, length: 60 * time.Millisecond, gain: 0.16}, {hz: 990, length: 80 * time.Millisecond, gain: 0.16}},
	cueStop:     {{hz: 990, length: 60 * time.Millisecond, gain: 0.16}, {hz: 660, length: 80 * time.Millisecond, gain: 0.16}},
	cueComplete: {{hz: 784, length: 55 * time.Millisecond, gain: 0.16}, {hz: 1046, length: 55 * time.Millisecond, gain: 0.16}, {hz: 1318, length: 90 * time.Millisecond, gain: 0.16}},
	cueError:    {{hz: 330, length: 140 * time.Millisecond, gain: 0.2}, {hz: 247, length: 160 * time.Millisecond, gain: 0.2}},
}

// cuePlayer plays one cue. Tests replace it.
type cuePlayer func(ctx context.Context, kind cueKind) error

func newCuePlayer(cfg config.IndicatorConfig) cuePlayer {
	return func(ctx context.Context, kind cueKind) error {
		if path := cuePath(kind, cfg); path != "" {
			if err := playCueFile(ctx, path); err == nil {
				return nil
			}
		}
		return playSynthCue(ctx, kind)
	}
}

func cuePath(kind cueKind, cfg config.IndicatorConfig) string {
	switch kind {
	case cueStart:
		return config.ExpandUserPath(cfg.SoundStartFile)
	case cueStop:
		return config.ExpandUserPath(cfg.SoundStopFile)
	case cueComplete:
		return config.ExpandUserPath(cfg.SoundCompleteFile)
	case cueError:
		return config.ExpandUserPath(cfg.SoundErrorFile)
	default:
		return ""
	}
}

func playCueFile(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("stat cue file %q: %w", path, err)
	}
	ctx, cancel := context.WithTimeout(ctx, 4*time.Second)
	defer cancel()

	if err := exec.CommandContext(ctx, "pw-play", "--media-role", "Notification", path).Run(); err != nil {
		return fmt.Errorf("play cue file %q: %w", path, err)
	}
	return nil
}

func playSynthCue(ctx context.Context, kind cueKind) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pcm := cuePCM(kind)
	if len(pcm) == 0 {
		return nil
	}
	return playback.PlayPCM(ctx, cueFormat, pcm, "recast cue")
}

// cuePCM renders a cue as little-endian 16-bit mono PCM.
func cuePCM(kind cueKind) []byte {
	samples := synthesize(cueTones[kind])
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}

func synthesize(parts []tone) []int16 {
	gap := sampleCount(20 * time.Millisecond)
	var pcm []int16
	for i, part := range parts {
		if i > 0 {
			pcm = append(pcm, make([]int16, gap)...)
		}
		pcm = append(pcm, renderTone(part)...)
	}
	return pcm
}

func renderTone(t tone) []int16 {
	n := sampleCount(t.length)
	if n <= 0 || t.hz <= 0 || t.gain <= 0 {
		return nil
	}

	// 5ms linear ramps on each edge avoid clicks.
	ramp := min(n/10, cueSampleRate/200)
	ramp = max(ramp, 1)

	pcm := make([]int16, n)
	for i := range n {
		env := 1.0
		if i < ramp {
			env = float64(i) / float64(ramp)
		}
		if tail := n - i - 1; tail < ramp {
			env = min(env, float64(tail)/float64(ramp))
		}
		phase := 2 * math.Pi * t.hz * float64(i) / cueSampleRate
		pcm[i] = int16(math.Round(math.Sin(phase) * t.gain * env * 32767))
	}
	return pcm
}

func sampleCount(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Round(d.Seconds() * cueSampleRate))
}
