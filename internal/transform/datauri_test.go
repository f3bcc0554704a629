package transform

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rbright/recast/internal/audio"
)

func TestDecodeDataURI(t *testing.T) {
	tests := []struct {
		name  string
		value string
		mime  string
		data  string
	}{
		{name: "wav prefix", value: "data:audio/wav;base64,QUJD", mime: "audio/wav", data: "ABC"},
		{name: "mpeg prefix", value: "data:audio/mpeg;base64,QUJD", mime: "audio/mpeg", data: "ABC"},
		{name: "arbitrary prefix", value: "anything-at-all,QUJD", mime: "audio/wav", data: "ABC"},
		{name: "empty prefix", value: ",QUJD", mime: "audio/wav", data: "ABC"},
		{name: "no comma", value: "QUJD", mime: "audio/wav", data: "ABC"},
		{name: "ogg prefix", value: "data:audio/ogg;base64,QUJD", mime: "audio/ogg", data: "ABC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			clip, err := DecodeDataURI(tc.value)
			require.NoError(t, err)
			require.Equal(t, tc.mime, clip.MIME)
			require.Equal(t, tc.data, string(clip.Data))
		})
	}
}

func TestDecodeDataURIRejectsSecondComma(t *testing.T) {
	_, err := DecodeDataURI("data:audio/wav;base64,QUJD,QUJD")
	require.ErrorContains(t, err, "decode audio payload")
}

func TestEncodeDataURIRoundTrip(t *testing.T) {
	clip := audio.Clip{MIME: "audio/mpeg", Data: []byte("ABC")}
	require.Equal(t, "data:audio/mpeg;base64,QUJD", EncodeDataURI(clip))

	decoded, err := DecodeDataURI(EncodeDataURI(clip))
	require.NoError(t, err)
	require.Equal(t, clip, decoded)

	require.Equal(t, "data:audio/wav;base64,", EncodeDataURI(audio.Clip{}))
}
