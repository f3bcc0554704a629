package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidateDefaults(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty endpoint", mutate: func(c *Config) { c.Transform.Endpoint = " " }, wantErr: "transform.endpoint must not be empty"},
		{name: "endpoint scheme", mutate: func(c *Config) { c.Transform.Endpoint = "ftp://host/x" }, wantErr: "scheme must be http or https"},
		{name: "endpoint host", mutate: func(c *Config) { c.Transform.Endpoint = "http:///process_audio/" }, wantErr: "host must not be empty"},
		{name: "health url", mutate: func(c *Config) { c.Transform.HealthURL = "localhost:8000" }, wantErr: "transform.health_url"},
		{name: "grpc target", mutate: func(c *Config) { c.Transform.GRPCHealth = "localhost" }, wantErr: "transform.grpc_health"},
		{name: "timeout", mutate: func(c *Config) { c.Transform.TimeoutMS = 0 }, wantErr: "transform.timeout_ms"},
		{name: "empty backend", mutate: func(c *Config) { c.Playback.Backend = "" }, wantErr: "playback.backend must not be empty"},
		{name: "unknown backend", mutate: func(c *Config) { c.Playback.Backend = "alsa" }, wantErr: "one of: pulse, command"},
		{name: "command backend without argv", mutate: func(c *Config) {
			c.Playback.Backend = "command"
			c.Playback.Command = CommandConfig{}
		}, wantErr: "playback.command"},
		{name: "desktop app name", mutate: func(c *Config) {
			c.Indicator.DesktopNotify = true
			c.Indicator.DesktopAppName = ""
		}, wantErr: "desktop_app_name"},
		{name: "negative error timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)

			_, err := Validate(cfg)
			require.ErrorContains(t, err, tc.wantErr)
		})
	}
}

func TestValidateWarnsOnMissingCueFiles(t *testing.T) {
	cfg := Default()
	cfg.Indicator.SoundStartFile = filepath.Join(t.TempDir(), "missing.wav")
	cfg.Indicator.SoundErrorFile = filepath.Join(t.TempDir(), "also-missing.wav")

	warnings, err := Validate(cfg)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	require.Contains(t, warnings[0].Message, "indicator.sound_start_file")
	require.Contains(t, warnings[1].Message, "indicator.sound_error_file")

	cfg.Indicator.SoundEnable = false
	warnings, err = Validate(cfg)
	require.NoError(t, err)
	require.Empty(t, warnings)
}
