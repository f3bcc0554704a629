package config

const (
	defaultEndpoint        = "http://127.0.0.1:8000/process_audio/"
	defaultHealthURL       = "http://127.0.0.1:8000/"
	defaultPlaybackCommand = "pw-play --media-role Music"
)

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Transform: TransformConfig{
			Endpoint:  defaultEndpoint,
			HealthURL: defaultHealthURL,
			TimeoutMS: 30000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Playback: PlaybackConfig{
			Backend: "pulse",
			Command: CommandConfig{Raw: defaultPlaybackCommand, Argv: mustParseArgv(defaultPlaybackCommand)},
		},
		Indicator: IndicatorConfig{
			DesktopAppName: "recast",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
	}
}
