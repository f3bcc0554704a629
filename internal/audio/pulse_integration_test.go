//go:build integration

package audio

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestListDevicesIntegration(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	devices, err := ListDevices(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, devices)
}

func TestCaptureIntegrationProducesChunks(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	capture, err := PulseCapturer{Input: "default", Fallback: "default"}.Open(ctx)
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, capture.Stop())

	var chunks [][]byte
	for chunk := range capture.Chunks() {
		chunks = append(chunks, chunk)
	}
	require.NotEmpty(t, chunks)
	require.False(t, Assemble(chunks, capture.Format()).Empty())
}
