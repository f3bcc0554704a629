package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

type fileConfig struct {
	Transform *fileTransform `json:"transform"`
	Audio     *fileAudio     `json:"audio"`
	Playback  *filePlayback  `json:"playback"`
	Indicator *fileIndicator `json:"indicator"`
	Archive   *fileArchive   `json:"archive"`
}

type fileTransform struct {
	Endpoint   *string `json:"endpoint"`
	HealthURL  *string `json:"health_url"`
	GRPCHealth *string `json:"grpc_health"`
	TimeoutMS  *int    `json:"timeout_ms"`
}

type fileAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type filePlayback struct {
	Backend *string `json:"backend"`
	Command *string `json:"command"`
}

type fileIndicator struct {
	DesktopNotify     *bool   `json:"desktop_notify"`
	DesktopAppName    *string `json:"desktop_app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundErrorFile    *string `json:"sound_error_file"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type fileArchive struct {
	Enable *bool   `json:"enable"`
	Dir    *string `json:"dir"`
}

// Parse reads JSONC content (comments and trailing commas allowed) over base.
// Empty content yields base unchanged.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}
	if !strings.HasPrefix(strings.TrimSpace(normalized), "{") {
		return Config{}, nil, errors.New("config must be a JSONC object")
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload fileConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, positionError(normalized, decoder.InputOffset(), err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, positionError(normalized, decoder.InputOffset(), err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func (payload fileConfig) applyTo(cfg *Config) error {
	if t := payload.Transform; t != nil {
		setString(&cfg.Transform.Endpoint, t.Endpoint)
		setString(&cfg.Transform.HealthURL, t.HealthURL)
		setString(&cfg.Transform.GRPCHealth, t.GRPCHealth)
		setValue(&cfg.Transform.TimeoutMS, t.TimeoutMS)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if p := payload.Playback; p != nil {
		setString(&cfg.Playback.Backend, p.Backend)
		if p.Command != nil {
			argv, err := parseArgv(*p.Command)
			if err != nil {
				return fmt.Errorf("invalid playback.command: %w", err)
			}
			cfg.Playback.Command = CommandConfig{Raw: *p.Command, Argv: argv}
		}
	}

	if i := payload.Indicator; i != nil {
		setValue(&cfg.Indicator.DesktopNotify, i.DesktopNotify)
		setString(&cfg.Indicator.DesktopAppName, i.DesktopAppName)
		setValue(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setString(&cfg.Indicator.SoundStopFile, i.SoundStopFile)
		setString(&cfg.Indicator.SoundCompleteFile, i.SoundCompleteFile)
		setString(&cfg.Indicator.SoundErrorFile, i.SoundErrorFile)
		setValue(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if a := payload.Archive; a != nil {
		setValue(&cfg.Archive.Enable, a.Enable)
		setString(&cfg.Archive.Dir, a.Dir)
	}
	return nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// normalizeJSONC blanks comments and trailing commas with spaces so decoder
// offsets still point into the original text.
func normalizeJSONC(content string) (string, error) {
	const (
		inCode = iota
		inString
		inLineComment
		inBlockComment
	)

	out := []byte(content)
	mode := inCode
	pendingComma := -1

	for i := 0; i < len(out); i++ {
		ch := out[i]
		switch mode {
		case inString:
			switch ch {
			case '\\':
				i++
			case '"':
				mode = inCode
			}
		case inLineComment:
			if ch == '\n' || ch == '\r' {
				mode = inCode
				continue
			}
			out[i] = ' '
		case inBlockComment:
			if ch == '*' && i+1 < len(out) && out[i+1] == '/' {
				out[i], out[i+1] = ' ', ' '
				i++
				mode = inCode
				continue
			}
			if ch != '\n' && ch != '\r' && ch != '\t' {
				out[i] = ' '
			}
		default:
			switch {
			case ch == '/' && i+1 < len(out) && out[i+1] == '/':
				out[i], out[i+1] = ' ', ' '
				i++
				mode = inLineComment
			case ch == '/' && i+1 < len(out) && out[i+1] == '*':
				out[i], out[i+1] = ' ', ' '
				i++
				mode = inBlockComment
			case ch == '"':
				mode = inString
				pendingComma = -1
			case ch == ',':
				pendingComma = i
			case ch == '}' || ch == ']':
				if pendingComma >= 0 {
					out[pendingComma] = ' '
				}
				pendingComma = -1
			case isJSONWhitespace(ch):
			default:
				pendingComma = -1
			}
		}
	}

	if mode == inBlockComment {
		return "", fmt.Errorf("unterminated block comment in JSONC")
	}
	return string(out), nil
}

func isJSONWhitespace(ch byte) bool {
	switch ch {
	case ' ', '\n', '\r', '\t':
		return true
	default:
		return false
	}
}

func ensureSingleJSONValue(decoder *json.Decoder) error {
	var extra json.RawMessage
	err := decoder.Decode(&extra)
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err == nil {
		return fmt.Errorf("multiple JSON values are not allowed")
	}
	return err
}

// positionError prefixes err with the line and column it refers to.
func positionError(content string, fallback int64, err error) error {
	offset := fallback
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &syntaxErr):
		offset = syntaxErr.Offset
	case errors.As(err, &typeErr):
		offset = typeErr.Offset
	default:
		if field, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
			if idx := strings.Index(content, field); idx >= 0 {
				offset = int64(idx) + 1
			}
		}
	}
	line, col := lineCol(content, offset)
	return fmt.Errorf("line %d column %d: %w", line, col, err)
}

func lineCol(content string, offset int64) (int, int) {
	limit := min(max(int(offset), 1), len(content)+1)
	prefix := content[:limit-1]
	line := strings.Count(prefix, "\n") + 1
	col := len(prefix) - strings.LastIndexByte(prefix, '\n')
	return line, col
}
