package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

// MIMEWAV is the container type for finalized recordings.
const MIMEWAV = "audio/wav"

const wavHeaderSize = 44

// Format describes interleaved little-endian PCM.
type Format struct {
	SampleRate    int
	Channels      int
	BitsPerSample int
}

// CaptureFormat is the fixed format produced by Capture.
var CaptureFormat = Format{SampleRate: 16000, Channels: 1, BitsPerSample: 16}

// BytesPerSecond returns the PCM byte rate for f.
func (f Format) BytesPerSecond() int {
	return f.SampleRate * f.Channels * (f.BitsPerSample / 8)
}

// Duration returns the playback length of n PCM bytes.
func (f Format) Duration(n int) time.Duration {
	rate := f.BytesPerSecond()
	if rate <= 0 || n <= 0 {
		return 0
	}
	return time.Duration(int64(n) * int64(time.Second) / int64(rate))
}

// Clip is one finalized audio object.
type Clip struct {
	MIME string
	Data []byte
}

// Empty reports whether the clip carries no bytes.
func (c Clip) Empty() bool {
	return len(c.Data) == 0
}

// Assemble joins captured PCM chunks, in order, into a single WAV clip.
func Assemble(chunks [][]byte, format Format) Clip {
	size := 0
	for _, chunk := range chunks {
		size += len(chunk)
	}
	pcm := make([]byte, 0, size)
	for _, chunk := range chunks {
		pcm = append(pcm, chunk...)
	}
	return EncodeWAV(pcm, format)
}

// EncodeWAV wraps raw PCM in a canonical 44-byte RIFF/WAVE header.
func EncodeWAV(pcm []byte, format Format) Clip {
	if format.Channels <= 0 {
		format.Channels = 1
	}
	if format.BitsPerSample <= 0 {
		format.BitsPerSample = 16
	}
	blockAlign := format.Channels * (format.BitsPerSample / 8)

	out := make([]byte, wavHeaderSize, wavHeaderSize+len(pcm))
	copy(out[0:4], "RIFF")
	binary.LittleEndian.PutUint32(out[4:8], uint32(36+len(pcm)))
	copy(out[8:12], "WAVE")
	copy(out[12:16], "fmt ")
	binary.LittleEndian.PutUint32(out[16:20], 16)
	binary.LittleEndian.PutUint16(out[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(out[22:24], uint16(format.Channels))
	binary.LittleEndian.PutUint32(out[24:28], uint32(format.SampleRate))
	binary.LittleEndian.PutUint32(out[28:32], uint32(format.BytesPerSecond()))
	binary.LittleEndian.PutUint16(out[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(out[34:36], uint16(format.BitsPerSample))
	copy(out[36:40], "data")
	binary.LittleEndian.PutUint32(out[40:44], uint32(len(pcm)))
	out = append(out, pcm...)

	return Clip{MIME: MIMEWAV, Data: out}
}

var errNotWAV = errors.New("not a RIFF/WAVE payload")

// DecodeWAV extracts the PCM format and sample bytes from a WAV payload.
//
// Only uncompressed PCM is accepted. A data chunk whose declared size runs past
// the payload (streamed writers) is clamped to the bytes present.
func DecodeWAV(data []byte) (Format, []byte, error) {
	if len(data) < 12 || !bytes.Equal(data[0:4], []byte("RIFF")) || !bytes.Equal(data[8:12], []byte("WAVE")) {
		return Format{}, nil, errNotWAV
	}

	var (
		format  Format
		haveFmt bool
	)
	offset := 12
	for offset+8 <= len(data) {
		id := string(data[offset : offset+4])
		size := int(binary.LittleEndian.Uint32(data[offset+4 : offset+8]))
		body := offset + 8
		end := body + size
		if size < 0 || end > len(data) {
			end = len(data)
		}

		switch id {
		case "fmt ":
			if end-body < 16 {
				return Format{}, nil, fmt.Errorf("wav fmt chunk too short (%d bytes)", end-body)
			}
			if tag := binary.LittleEndian.Uint16(data[body : body+2]); tag != 1 {
				return Format{}, nil, fmt.Errorf("unsupported wav encoding tag %d", tag)
			}
			format = Format{
				Channels:      int(binary.LittleEndian.Uint16(data[body+2 : body+4])),
				SampleRate:    int(binary.LittleEndian.Uint32(data[body+4 : body+8])),
				BitsPerSample: int(binary.LittleEndian.Uint16(data[body+14 : body+16])),
			}
			haveFmt = true
		case "data":
			if !haveFmt {
				return Format{}, nil, errors.New("wav data chunk precedes fmt chunk")
			}
			if format.BitsPerSample != 16 {
				return Format{}, nil, fmt.Errorf("unsupported wav sample width %d bits", format.BitsPerSample)
			}
			if format.Channels <= 0 || format.SampleRate <= 0 {
				return Format{}, nil, fmt.Errorf("invalid wav format %+v", format)
			}
			return format, data[body:end], nil
		}

		offset = end + size%2
	}

	return Format{}, nil, errors.New("wav payload has no data chunk")
}

// Extension returns the file extension conventionally used for mime.
func Extension(mime string) string {
	switch mime {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/ogg":
		return ".ogg"
	case "audio/webm":
		return ".webm"
	case "audio/flac":
		return ".flac"
	default:
		return ".wav"
	}
}
