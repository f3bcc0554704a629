package playback

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/recast/internal/audio"
)

type fakeHandle struct {
	stops atomic.Int32
	done  chan struct{}
}

func newFakeHandle() *fakeHandle {
	return &fakeHandle{done: make(chan struct{})}
}

func (h *fakeHandle) Stop() {
	if h.stops.Add(1) == 1 {
		close(h.done)
	}
}

func (h *fakeHandle) Wait() error {
	<-h.done
	return nil
}

type startRecorder struct {
	formats []audio.Format
	pcm     [][]byte
	handles []*fakeHandle
}

func (r *startRecorder) start(format audio.Format, pcm []byte) (handle, error) {
	h := newFakeHandle()
	r.formats = append(r.formats, format)
	r.pcm = append(r.pcm, pcm)
	r.handles = append(r.handles, h)
	return h, nil
}

func newTestPulse() (*Pulse, *startRecorder) {
	recorder := &startRecorder{}
	player := NewPulse(nil)
	player.start = recorder.start
	return player, recorder
}

func TestPulsePlayBeforeLoad(t *testing.T) {
	player, _ := newTestPulse()
	require.ErrorIs(t, player.Play(context.Background()), ErrNothingLoaded)
}

func TestPulseLoadAndReplay(t *testing.T) {
	player, recorder := newTestPulse()
	pcm := []byte{1, 0, 2, 0, 3, 0, 4, 0}
	clip := audio.EncodeWAV(pcm, audio.CaptureFormat)

	require.NoError(t, player.Load(context.Background(), clip))
	require.NoError(t, player.Play(context.Background()))
	require.NoError(t, player.Play(context.Background()))

	require.Len(t, recorder.handles, 2)
	require.Equal(t, audio.CaptureFormat, recorder.formats[0])
	require.Equal(t, pcm, recorder.pcm[0])
	require.Equal(t, int32(1), recorder.handles[0].stops.Load())
	require.Zero(t, recorder.handles[1].stops.Load())

	player.Detach()
	require.Equal(t, int32(1), recorder.handles[1].stops.Load())
	require.ErrorIs(t, player.Play(context.Background()), ErrNothingLoaded)
}

func TestPulseLoadStopsActivePlayback(t *testing.T) {
	player, recorder := newTestPulse()
	clip := audio.EncodeWAV([]byte{1, 0}, audio.CaptureFormat)

	require.NoError(t, player.Load(context.Background(), clip))
	require.NoError(t, player.Play(context.Background()))
	require.NoError(t, player.Load(context.Background(), clip))
	require.Equal(t, int32(1), recorder.handles[0].stops.Load())
}

func TestPulseLoadRejectsUndecodableClips(t *testing.T) {
	player, _ := newTestPulse()

	err := player.Load(context.Background(), audio.Clip{MIME: "audio/mpeg", Data: []byte("ID3")})
	require.ErrorContains(t, err, "set playback.backend")

	err = player.Load(context.Background(), audio.Clip{MIME: audio.MIMEWAV, Data: []byte("nope")})
	require.ErrorContains(t, err, "load clip")
}
