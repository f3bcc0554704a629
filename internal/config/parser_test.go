package config

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseEmptyContentReturnsBase(t *testing.T) {
	cfg, warnings, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Equal(t, Default(), cfg)
}

func TestParseAppliesEverySection(t *testing.T) {
	cfg, _, err := Parse(`{
  "transform": {
    "endpoint": " https://voice.example.com/process_audio/ ",
    "health_url": "https://voice.example.com/",
    "grpc_health": "voice.example.com:50051",
    "timeout_ms": 12000
  },
  "audio": {"input": "usb headset", "fallback": "default"},
  "playback": {"backend": "pulse"},
  "indicator": {
    "desktop_notify": true,
    "desktop_app_name": "  recast  ",
    "sound_enable": false,
    "error_timeout_ms": 2500
  },
  "archive": {"enable": true, "dir": "/tmp/recast-archive"}
}`, Default())
	require.NoError(t, err)

	require.Equal(t, "https://voice.example.com/process_audio/", cfg.Transform.Endpoint)
	require.Equal(t, "voice.example.com:50051", cfg.Transform.GRPCHealth)
	require.Equal(t, 12000, cfg.Transform.TimeoutMS)
	require.Equal(t, "usb headset", cfg.Audio.Input)
	require.True(t, cfg.Indicator.DesktopNotify)
	require.Equal(t, "recast", cfg.Indicator.DesktopAppName)
	require.False(t, cfg.Indicator.SoundEnable)
	require.Equal(t, 2500, cfg.Indicator.ErrorTimeoutMS)
	require.True(t, cfg.Archive.Enable)
	require.Equal(t, "/tmp/recast-archive", cfg.Archive.Dir)
}

func TestParseRejectsUnknownKeysWithPosition(t *testing.T) {
	_, _, err := Parse(`{
  "transform": {
    "endpont": "http://127.0.0.1:8000/"
  }
}`, Default())
	require.ErrorContains(t, err, "unknown field")
	require.ErrorContains(t, err, "line 3")
}

func TestParseTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := Parse(`{
  "transform": {"timeout_ms": "fast"}
}`, Default())
	require.ErrorContains(t, err, "line 2 column")
}

func TestParseRejectsNonObjectAndMultipleValues(t *testing.T) {
	_, _, err := Parse(`input = default`, Default())
	require.ErrorContains(t, err, "JSONC object")

	_, _, err = Parse(`{"audio":{}}{"audio":{}}`, Default())
	require.ErrorContains(t, err, "multiple JSON values")
}

func TestParseRejectsInvalidPlaybackCommand(t *testing.T) {
	_, _, err := Parse(`{"playback":{"command":"pw-play 'oops"}}`, Default())
	require.ErrorContains(t, err, "invalid playback.command")
}

func TestParseRunsValidation(t *testing.T) {
	_, _, err := Parse(`{"transform":{"timeout_ms":-5}}`, Default())
	require.ErrorContains(t, err, "transform.timeout_ms")
}

func TestNormalizeJSONCBlanksCommentsAndTrailingCommas(t *testing.T) {
	input := `
{
  // line comment
  "items": [
    "one", /* block comment */
    "two",
  ],
  "nested": {
    "enabled": true, // trailing
  },
}
`

	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Len(t, normalized, len(input))
	require.NotContains(t, normalized, "//")
	require.NotContains(t, normalized, "/*")

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(normalized), &decoded))
	require.Equal(t, []any{"one", "two"}, decoded["items"])
}

func TestNormalizeJSONCKeepsCommentLikeTextInsideStrings(t *testing.T) {
	input := `{"value":"contains // and /* comment-like */ text, \"quoted,\" ]",}`
	normalized, err := normalizeJSONC(input)
	require.NoError(t, err)
	require.Contains(t, normalized, `// and /* comment-like */ text, \"quoted,\" ]`)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(normalized), &decoded))
}

func TestNormalizeJSONCUnterminatedBlockCommentFails(t *testing.T) {
	_, err := normalizeJSONC("{ /* unterminated ")
	require.ErrorContains(t, err, "unterminated block comment")
}

func TestEnsureSingleJSONValueRejectsExtraPayload(t *testing.T) {
	decoder := json.NewDecoder(strings.NewReader(`{"one":1}{"two":2}`))
	var payload map[string]any
	require.NoError(t, decoder.Decode(&payload))

	require.ErrorContains(t, ensureSingleJSONValue(decoder), "multiple JSON values")
}

func TestLineCol(t *testing.T) {
	content := "line1\nline2\nline3"

	line, col := lineCol(content, 1)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)

	line, col = lineCol(content, 8)
	require.Equal(t, 2, line)
	require.Equal(t, 2, col)

	line, col = lineCol(content, 999)
	require.Equal(t, 3, line)
	require.Equal(t, 6, col)

	line, col = lineCol(content, 0)
	require.Equal(t, 1, line)
	require.Equal(t, 1, col)
}
