package audio

import (
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// chunkBytes is 100ms of CaptureFormat audio.
const chunkBytes = 3200

// chunker slices a byte stream into fixed-size chunks, holding back the remainder.
type chunker struct {
	size int
	tail []byte
}

func (c *chunker) push(b []byte) [][]byte {
	c.tail = append(c.tail, b...)
	var out [][]byte
	for len(c.tail) >= c.size {
		out = append(out, append([]byte(nil), c.tail[:c.size]...))
		c.tail = c.tail[c.size:]
	}
	return out
}

func (c *chunker) flush() []byte {
	rest := c.tail
	c.tail = nil
	return rest
}

// Capture streams PCM chunks from one Pulse source until stopped.
type Capture struct {
	device Device
	client *pulse.Client
	stream *pulse.RecordStream

	chunks chan []byte
	done   chan struct{}

	mu      sync.Mutex
	split   chunker
	stopped bool
	writers sync.WaitGroup
	total   atomic.Int64
}

func newCapture(device Device) *Capture {
	return &Capture{
		device: device,
		chunks: make(chan []byte, 256),
		done:   make(chan struct{}),
		split:  chunker{size: chunkBytes},
	}
}

// StartCapture opens a CaptureFormat record stream on the selected source.
// Cancelling ctx stops the capture.
func StartCapture(ctx context.Context, selected Device) (*Capture, error) {
	client, err := connect()
	if err != nil {
		return nil, err
	}
	source, err := client.SourceByID(selected.ID)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("resolve source %q: %w", selected.ID, err)
	}

	c := newCapture(selected)
	c.client = client

	stream, err := client.NewRecord(
		pulse.NewWriter(writerFunc(c.write), pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(CaptureFormat.SampleRate),
		pulse.RecordBufferFragmentSize(chunkBytes),
		pulse.RecordMediaName("recast recording"),
	)
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("create pulse record stream: %w", err)
	}
	c.stream = stream
	stream.Start()

	go func() {
		select {
		case <-ctx.Done():
			_ = c.Stop()
		case <-c.done:
		}
	}()
	return c, nil
}

func (c *Capture) Device() Device {
	return c.device
}

// Format reports the PCM layout of emitted chunks.
func (c *Capture) Format() Format {
	return CaptureFormat
}

// Chunks is closed once Stop has flushed the final partial chunk.
func (c *Capture) Chunks() <-chan []byte {
	return c.chunks
}

// BytesCaptured reports total bytes accepted from Pulse.
func (c *Capture) BytesCaptured() int64 {
	return c.total.Load()
}

// Stop releases the Pulse stream and closes Chunks. Repeated calls are no-ops.
func (c *Capture) Stop() error {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return nil
	}
	c.stopped = true
	close(c.done)
	c.mu.Unlock()

	if c.stream != nil {
		c.stream.Stop()
		c.stream.Close()
	}
	if c.client != nil {
		c.client.Close()
	}
	c.writers.Wait()

	c.mu.Lock()
	rest := c.split.flush()
	c.mu.Unlock()
	if len(rest) > 0 {
		select {
		case c.chunks <- rest:
		default:
		}
	}
	close(c.chunks)
	return nil
}

func (c *Capture) Close() {
	_ = c.Stop()
}

// write receives raw frames from Pulse.
func (c *Capture) write(b []byte) (int, error) {
	if len(b) == 0 {
		return 0, nil
	}

	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return 0, io.EOF
	}
	// Registered under mu so Stop cannot pass Wait before this write finishes.
	c.writers.Add(1)
	defer c.writers.Done()
	ready := c.split.push(b)
	c.mu.Unlock()

	c.total.Add(int64(len(b)))
	for _, chunk := range ready {
		select {
		case c.chunks <- chunk:
		case <-c.done:
			return 0, io.EOF
		}
	}
	return len(b), nil
}

type writerFunc func([]byte) (int, error)

func (f writerFunc) Write(b []byte) (int, error) {
	return f(b)
}
