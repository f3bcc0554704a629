package transform

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/rbright/recast/internal/audio"
)

// DecodeDataURI strips everything up to and including the first comma and
// base64-decodes the rest. Without a comma the whole string is the payload.
// The MIME type comes from a "data:<mime>;base64" prefix, defaulting to audio/wav.
func DecodeDataURI(value string) (audio.Clip, error) {
	mime := audio.MIMEWAV
	payload := strings.TrimSpace(value)

	if prefix, rest, ok := strings.Cut(payload, ","); ok {
		payload = rest
		if m := prefixMIME(prefix); m != "" {
			mime = m
		}
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return audio.Clip{}, fmt.Errorf("decode audio payload: %w", err)
	}
	return audio.Clip{MIME: mime, Data: data}, nil
}

// EncodeDataURI renders clip the way the service returns it.
func EncodeDataURI(clip audio.Clip) string {
	mime := clip.MIME
	if mime == "" {
		mime = audio.MIMEWAV
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(clip.Data)
}

func prefixMIME(prefix string) string {
	rest, ok := strings.CutPrefix(strings.TrimSpace(prefix), "data:")
	if !ok {
		return ""
	}
	mime, _, _ := strings.Cut(rest, ";")
	return strings.TrimSpace(mime)
}
