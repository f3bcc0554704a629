// Package playback plays finalized clips through PulseAudio or an external command.
package playback

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"

	"github.com/rbright/recast/internal/audio"
)

// ErrNothingLoaded is returned by Play before any clip was loaded.
var ErrNothingLoaded = errors.New("no audio loaded")

// handle is one running playback.
type handle interface {
	Stop()
	Wait() error
}

type startFunc func(format audio.Format, pcm []byte) (handle, error)

// Pulse plays WAV clips on the default PulseAudio sink.
type Pulse struct {
	logger *slog.Logger
	start  startFunc

	mu     sync.Mutex
	format audio.Format
	pcm    []byte
	active handle
}

// NewPulse constructs a Pulse player.
func NewPulse(logger *slog.Logger) *Pulse {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Pulse{
		logger: logger,
		start: func(format audio.Format, pcm []byte) (handle, error) {
			s, err := startPulse(format, pcm, "recast playback")
			if err != nil {
				return nil, err
			}
			return s, nil
		},
	}
}

// Load decodes clip and attaches it as the playback source. Anything
// playing is stopped.
func (p *Pulse) Load(_ context.Context, clip audio.Clip) error {
	if clip.MIME != "" && clip.MIME != audio.MIMEWAV && clip.MIME != "audio/x-wav" && clip.MIME != "audio/wave" {
		return fmt.Errorf("pulse playback cannot decode %s; set playback.backend to \"command\"", clip.MIME)
	}
	format, pcm, err := audio.DecodeWAV(clip.Data)
	if err != nil {
		return fmt.Errorf("load clip: %w", err)
	}

	p.mu.Lock()
	active := p.active
	p.active = nil
	p.format = format
	p.pcm = pcm
	p.mu.Unlock()

	if active != nil {
		active.Stop()
	}
	return nil
}

// Play starts the loaded clip from the beginning and returns once the stream is running.
func (p *Pulse) Play(_ context.Context) error {
	p.mu.Lock()
	format, pcm, previous := p.format, p.pcm, p.active
	p.active = nil
	p.mu.Unlock()

	if previous != nil {
		previous.Stop()
	}
	if pcm == nil {
		return ErrNothingLoaded
	}

	h, err := p.start(format, pcm)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.active = h
	p.mu.Unlock()

	go func() {
		if err := h.Wait(); err != nil {
			p.logger.Warn("playback stream failed", "error", err.Error())
		}
	}()
	return nil
}

// Detach stops playback and drops the loaded clip.
func (p *Pulse) Detach() {
	p.mu.Lock()
	active := p.active
	p.active = nil
	p.pcm = nil
	p.format = audio.Format{}
	p.mu.Unlock()

	if active != nil {
		active.Stop()
	}
}

// PlayPCM plays 16-bit PCM to completion or until ctx is done.
func PlayPCM(ctx context.Context, format audio.Format, pcm []byte, mediaName string) error {
	h, err := startPulse(format, pcm, mediaName)
	if err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- h.Wait() }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		h.Stop()
		<-done
		return ctx.Err()
	}
}

type pulseStream struct {
	client  *pulse.Client
	stream  *pulse.PlaybackStream
	stopped atomic.Bool
	done    chan struct{}
	err     error
}

func startPulse(format audio.Format, pcm []byte, mediaName string) (*pulseStream, error) {
	if format.BitsPerSample != 16 {
		return nil, fmt.Errorf("unsupported sample width %d bits", format.BitsPerSample)
	}
	var layout pulse.PlaybackOption
	switch format.Channels {
	case 1:
		layout = pulse.PlaybackMono
	case 2:
		layout = pulse.PlaybackStereo
	default:
		return nil, fmt.Errorf("unsupported channel count %d", format.Channels)
	}

	client, err := pulse.NewClient(
		pulse.ClientApplicationName("recast"),
		pulse.ClientApplicationIconName("audio-speakers"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}

	s := &pulseStream{client: client, done: make(chan struct{})}
	cursor := 0
	reader := pulse.Int16Reader(func(buf []int16) (int, error) {
		if s.stopped.Load() {
			return 0, pulse.EndOfData
		}
		n := 0
		for n < len(buf) && cursor+1 < len(pcm) {
			buf[n] = int16(binary.LittleEndian.Uint16(pcm[cursor:]))
			cursor += 2
			n++
		}
		if cursor+1 >= len(pcm) {
			return n, pulse.EndOfData
		}
		return n, nil
	})

	stream, err := client.NewPlayback(
		reader,
		layout,
		pulse.PlaybackSampleRate(format.SampleRate),
		pulse.PlaybackLatency(0.05),
		pulse.PlaybackMediaName(mediaName),
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("create pulse playback stream: %w", err)
	}
	s.stream = stream

	stream.Start()
	go func() {
		defer close(s.done)
		stream.Drain()
		s.err = stream.Error()
		stream.Close()
		client.Close()
	}()
	return s, nil
}

func (s *pulseStream) Stop() {
	s.stopped.Store(true)
	<-s.done
}

func (s *pulseStream) Wait() error {
	<-s.done
	if s.err != nil {
		return fmt.Errorf("play stream: %w", s.err)
	}
	return nil
}
