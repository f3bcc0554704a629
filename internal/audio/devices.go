// Package audio handles input device selection, PCM capture, and WAV clip framing.
package audio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const clientName = "recast"

// Device describes one Pulse input source.
type Device struct {
	ID          string
	Description string
	State       string
	Available   bool
	Muted       bool
	Default     bool
}

// Label formats device metadata for logs and prompts.
func (d Device) Label() string {
	desc, id := strings.TrimSpace(d.Description), strings.TrimSpace(d.ID)
	if desc == "" {
		return id
	}
	if id == "" {
		return desc
	}
	return desc + " (" + id + ")"
}

// problem names why d cannot record, or "" when it can.
func (d Device) problem() string {
	switch {
	case d.Muted:
		return "muted"
	case !d.Available:
		return "unavailable"
	default:
		return ""
	}
}

// Selection is the resolved capture source. Warning is set when a fallback was used.
type Selection struct {
	Device   Device
	Warning  string
	Fallback bool
}

func connect() (*pulse.Client, error) {
	client, err := pulse.NewClient(
		pulse.ClientApplicationName(clientName),
		pulse.ClientApplicationIconName("audio-input-microphone"),
	)
	if err != nil {
		return nil, fmt.Errorf("connect pulse server: %w", err)
	}
	return client, nil
}

// ListDevices returns Pulse input sources with default and availability metadata.
func ListDevices(_ context.Context) ([]Device, error) {
	client, err := connect()
	if err != nil {
		return nil, err
	}
	defer client.Close()

	def, err := client.DefaultSource()
	if err != nil {
		return nil, fmt.Errorf("read default source: %w", err)
	}

	var reply pulseproto.GetSourceInfoListReply
	if err := client.RawRequest(&pulseproto.GetSourceInfoList{}, &reply); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}

	devices := make([]Device, 0, len(reply))
	for _, src := range reply {
		if src == nil {
			continue
		}
		devices = append(devices, Device{
			ID:          src.SourceName,
			Description: src.Device,
			State:       sourceStateString(src.State),
			Available:   sourceAvailable(src),
			Muted:       src.Mute,
			Default:     src.SourceName == def.ID(),
		})
	}
	return devices, nil
}

// SelectDevice resolves the input and fallback preferences against live devices.
func SelectDevice(ctx context.Context, input string, fallback string) (Selection, error) {
	devices, err := ListDevices(ctx)
	if err != nil {
		return Selection{}, err
	}
	return choose(devices, input, fallback)
}

type deviceList []Device

// lookup resolves a preference term. "" and "default" name the server default;
// anything else is a case-insensitive substring of the ID or description.
func (l deviceList) lookup(term string) (Device, bool) {
	term = strings.ToLower(strings.TrimSpace(term))
	for _, d := range l {
		if term == "" || term == "default" {
			if d.Default {
				return d, true
			}
			continue
		}
		if strings.Contains(strings.ToLower(d.ID), term) || strings.Contains(strings.ToLower(d.Description), term) {
			return d, true
		}
	}
	return Device{}, false
}

func isDefaultTerm(term string) bool {
	term = strings.ToLower(strings.TrimSpace(term))
	return term == "" || term == "default"
}

// choose applies the selection policy to a fetched device list.
func choose(devices []Device, input string, fallback string) (Selection, error) {
	if len(devices) == 0 {
		return Selection{}, errors.New("no audio input devices found")
	}
	list := deviceList(devices)

	primary, ok := list.lookup(input)
	if !ok {
		if isDefaultTerm(input) {
			return Selection{}, errors.New("default audio source is unavailable")
		}
		return Selection{}, fmt.Errorf("audio.input %q did not match any device", strings.TrimSpace(input))
	}
	reason := primary.problem()
	if reason == "" {
		return Selection{Device: primary}, nil
	}

	backup, ok := list.lookup(fallback)
	if !ok {
		if isDefaultTerm(fallback) {
			return Selection{}, fmt.Errorf("primary input %q is %s and no usable fallback: default audio source is unavailable", primary.ID, reason)
		}
		return Selection{}, fmt.Errorf("primary input %q is %s and fallback %q not found", primary.ID, reason, strings.TrimSpace(fallback))
	}
	if p := backup.problem(); p != "" {
		return Selection{}, fmt.Errorf("audio fallback device %q is %s", backup.ID, p)
	}

	return Selection{
		Device:   backup,
		Warning:  fmt.Sprintf("audio.input %q is %s; falling back to %q", primary.ID, reason, backup.ID),
		Fallback: backup.ID != primary.ID,
	}, nil
}

// sourceStateString maps Pulse source state constants to readable names.
func sourceStateString(state uint32) string {
	names := [...]string{"running", "idle", "suspended"}
	if int(state) < len(names) {
		return names[state]
	}
	return fmt.Sprintf("unknown(%d)", state)
}

// sourceAvailable reports whether the active port is not marked unavailable.
// Pulse port availability: 0 unknown, 1 no, 2 yes.
func sourceAvailable(src *pulseproto.GetSourceInfoReply) bool {
	if src == nil {
		return false
	}
	for _, port := range src.Ports {
		if port.Name == src.ActivePortName {
			return port.Available != 1
		}
	}
	return true
}
