// Package doctor runs readiness diagnostics for config, audio devices,
// playback tooling, and the transformation service.
package doctor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/rbright/recast/internal/audio"
	"github.com/rbright/recast/internal/config"
	"github.com/rbright/recast/internal/playback"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as user-facing text output.
func (r Report) String() string {
	lines := make([]string, 0, len(r.Checks))
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		lines = append(lines, fmt.Sprintf("[%s] %s: %s", status, check.Name, check.Message))
	}
	return strings.Join(lines, "\n")
}

// Run executes environment and service checks for a loaded config.
func Run(ctx context.Context, loaded config.Loaded) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkAudioSelection(ctx, cfg.Audio))
	checks = append(checks, checkPlayback(cfg.Playback))
	if cfg.Indicator.DesktopNotify {
		checks = append(checks, checkBinary("busctl", "desktop notifications"))
	}
	checks = append(checks, checkServiceHealth(ctx, cfg.Transform))
	if strings.TrimSpace(cfg.Transform.GRPCHealth) != "" {
		checks = append(checks, checkGRPCHealth(ctx, cfg.Transform.GRPCHealth))
	}

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	msg := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		msg = fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		msg += fmt.Sprintf(" with %d warning(s)", n)
	}
	return Check{Name: "config", Pass: true, Message: msg}
}

// checkPlayback validates the configured playback backend's tooling.
func checkPlayback(cfg config.PlaybackConfig) Check {
	if cfg.Backend != playback.BackendCommand {
		return Check{Name: "playback", Pass: true, Message: fmt.Sprintf("backend %q", cfg.Backend)}
	}
	if len(cfg.Command.Argv) == 0 {
		return Check{Name: "playback.command", Pass: false, Message: "command is empty"}
	}
	return checkBinary(cfg.Command.Argv[0], "playback.command is available")
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkAudioSelection runs live device selection to surface fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.AudioConfig) Check {
	selection, err := audio.SelectDevice(ctx, cfg.Input, cfg.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}

// checkServiceHealth probes the transformation service's HTTP health URL.
func checkServiceHealth(ctx context.Context, cfg config.TransformConfig) Check {
	url := strings.TrimSpace(cfg.HealthURL)
	if url == "" {
		return Check{Name: "transform.reachable", Pass: false, Message: "transform.health_url is empty"}
	}

	resp, err := resty.New().
		SetTimeout(probeTimeout).
		R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return Check{Name: "transform.reachable", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	if !resp.IsSuccess() {
		return Check{Name: "transform.reachable", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode(), url)}
	}
	return Check{Name: "transform.reachable", Pass: true, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode(), url)}
}
