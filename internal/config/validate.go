package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Transform.Endpoint) == "" {
		return nil, fmt.Errorf("transform.endpoint must not be empty")
	}
	if err := validateHTTPURL(cfg.Transform.Endpoint); err != nil {
		return nil, fmt.Errorf("transform.endpoint: %w", err)
	}
	if strings.TrimSpace(cfg.Transform.HealthURL) != "" {
		if err := validateHTTPURL(cfg.Transform.HealthURL); err != nil {
			return nil, fmt.Errorf("transform.health_url: %w", err)
		}
	}
	if target := strings.TrimSpace(cfg.Transform.GRPCHealth); target != "" {
		if _, _, err := net.SplitHostPort(target); err != nil {
			return nil, fmt.Errorf("transform.grpc_health must be host:port: %w", err)
		}
	}
	if cfg.Transform.TimeoutMS <= 0 {
		return nil, fmt.Errorf("transform.timeout_ms must be > 0")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Playback.Backend)) {
	case "pulse":
	case "command":
		if len(cfg.Playback.Command.Argv) == 0 {
			return nil, fmt.Errorf("playback.command must not be empty when playback.backend=command")
		}
	case "":
		return nil, fmt.Errorf("playback.backend must not be empty")
	default:
		return nil, fmt.Errorf("playback.backend must be one of: pulse, command")
	}

	if cfg.Indicator.DesktopNotify && strings.TrimSpace(cfg.Indicator.DesktopAppName) == "" {
		return nil, fmt.Errorf("indicator.desktop_app_name must not be empty when indicator.desktop_notify=true")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	if cfg.Indicator.SoundEnable {
		cueFiles := [][2]string{
			{"indicator.sound_start_file", cfg.Indicator.SoundStartFile},
			{"indicator.sound_stop_file", cfg.Indicator.SoundStopFile},
			{"indicator.sound_complete_file", cfg.Indicator.SoundCompleteFile},
			{"indicator.sound_error_file", cfg.Indicator.SoundErrorFile},
		}
		for _, entry := range cueFiles {
			if warning, ok := missingFileWarning(entry[0], entry[1]); ok {
				warnings = append(warnings, warning)
			}
		}
	}

	return warnings, nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("scheme must be http or https, got %q", parsed.Scheme)
	}
	if parsed.Host == "" {
		return errors.New("host must not be empty")
	}
	return nil
}

func missingFileWarning(key string, path string) (Warning, bool) {
	path = ExpandUserPath(path)
	if path == "" {
		return Warning{}, false
	}
	if _, err := os.Stat(path); err != nil {
		return Warning{Message: fmt.Sprintf("%s %q is not readable; the built-in cue is used instead", key, path)}, true
	}
	return Warning{}, false
}
