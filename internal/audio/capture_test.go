package audio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChunkerSplitsAndFlushes(t *testing.T) {
	c := chunker{size: 4}

	require.Empty(t, c.push([]byte{1, 2, 3}))
	require.Equal(t, [][]byte{{1, 2, 3, 4}, {5, 6, 7, 8}}, c.push([]byte{4, 5, 6, 7, 8, 9}))
	require.Equal(t, []byte{9}, c.flush())
	require.Empty(t, c.flush())
}

func TestChunkerCopiesChunks(t *testing.T) {
	c := chunker{size: 2}
	src := []byte{1, 2}
	out := c.push(src)
	src[0] = 9
	require.Equal(t, []byte{1, 2}, out[0])
}

func TestCaptureChunksAndStopFlushesTail(t *testing.T) {
	capture := newCapture(Device{ID: "mic-1"})

	input := make([]byte, 2*chunkBytes+17)
	for i := range input {
		input[i] = byte(i % 251)
	}

	n, err := capture.write(input)
	require.NoError(t, err)
	require.Equal(t, len(input), n)
	require.Equal(t, int64(len(input)), capture.BytesCaptured())
	require.Equal(t, CaptureFormat, capture.Format())

	require.NoError(t, capture.Stop())
	require.NoError(t, capture.Stop())

	var got bytes.Buffer
	count := 0
	for chunk := range capture.Chunks() {
		got.Write(chunk)
		count++
	}
	require.Equal(t, 3, count)
	require.Equal(t, input, got.Bytes())
}

func TestCaptureWriteReturnsEOFAfterStop(t *testing.T) {
	capture := newCapture(Device{ID: "mic-1"})
	require.Equal(t, "mic-1", capture.Device().ID)
	capture.Close()

	n, err := capture.write([]byte{1, 2, 3})
	require.Equal(t, 0, n)
	require.ErrorIs(t, err, io.EOF)
	require.Zero(t, capture.BytesCaptured())

	_, ok := <-capture.Chunks()
	require.False(t, ok)
}

func TestCaptureWriteIgnoresEmptyFrames(t *testing.T) {
	capture := newCapture(Device{})
	n, err := capture.write(nil)
	require.NoError(t, err)
	require.Zero(t, n)
	capture.Close()
}
