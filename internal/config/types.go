// Package config resolves, parses, validates, and defaults recast configuration.
package config

import "time"

// Config is the fully materialized runtime configuration.
type Config struct {
	Transform TransformConfig
	Audio     AudioConfig
	Playback  PlaybackConfig
	Indicator IndicatorConfig
	Archive   ArchiveConfig
}

// TransformConfig locates the remote transformation service.
type TransformConfig struct {
	Endpoint   string
	HealthURL  string
	GRPCHealth string
	TimeoutMS  int
}

// Timeout returns the upload timeout.
func (t TransformConfig) Timeout() time.Duration {
	return time.Duration(t.TimeoutMS) * time.Millisecond
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// PlaybackConfig selects the playback backend.
type PlaybackConfig struct {
	Backend string
	Command CommandConfig
}

// IndicatorConfig controls desktop notifications and audio cues.
type IndicatorConfig struct {
	DesktopNotify     bool
	DesktopAppName    string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundErrorFile    string
	ErrorTimeoutMS    int
}

// ArchiveConfig controls copies of finalized clips on disk.
type ArchiveConfig struct {
	Enable bool
	Dir    string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}
