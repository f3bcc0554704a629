package audio

import (
	"context"
	"reflect"
	"testing"

	pulseproto "github.com/jfreymuth/pulse/proto"
	"github.com/stretchr/testify/require"
)

func TestChooseMatrix(t *testing.T) {
	headset := Device{ID: "alsa_input.usb-headset", Description: "USB Headset", Available: true}
	builtin := Device{ID: "alsa_input.pci-builtin", Description: "Built-in Audio", Available: true, Default: true}

	tests := []struct {
		name         string
		devices      []Device
		input        string
		fallback     string
		wantID       string
		wantWarning  string
		wantFallback bool
		wantErr      string
	}{
		{name: "default input", devices: []Device{builtin, headset}, input: "default", fallback: "default", wantID: builtin.ID},
		{name: "empty input uses default", devices: []Device{builtin, headset}, wantID: builtin.ID},
		{name: "match by description", devices: []Device{builtin, headset}, input: "usb headset", wantID: headset.ID},
		{name: "match is case insensitive", devices: []Device{builtin, headset}, input: "HEADSET", wantID: headset.ID},
		{
			name:         "muted input falls back to default",
			devices:      []Device{builtin, {ID: headset.ID, Description: headset.Description, Available: true, Muted: true}},
			input:        "headset",
			wantID:       builtin.ID,
			wantWarning:  "muted",
			wantFallback: true,
		},
		{
			name:         "unavailable input uses named fallback",
			devices:      []Device{{ID: builtin.ID, Description: builtin.Description, Default: true}, headset},
			input:        "default",
			fallback:     "headset",
			wantID:       headset.ID,
			wantWarning:  "unavailable",
			wantFallback: true,
		},
		{name: "no devices", wantErr: "no audio input devices"},
		{name: "unknown input", devices: []Device{builtin}, input: "missing", wantErr: "did not match"},
		{
			name:     "unknown fallback",
			devices:  []Device{{ID: builtin.ID, Muted: true, Available: true, Default: true}},
			fallback: "missing",
			wantErr:  "fallback \"missing\" not found",
		},
		{
			name:    "default muted with no alternative",
			devices: []Device{{ID: builtin.ID, Muted: true, Available: true, Default: true}},
			wantErr: "muted",
		},
		{
			name:    "no default source",
			devices: []Device{headset},
			wantErr: "default audio source is unavailable",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			selection, err := choose(tc.devices, tc.input, tc.fallback)
			if tc.wantErr != "" {
				require.Error(t, err)
				require.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.wantID, selection.Device.ID)
			require.Equal(t, tc.wantFallback, selection.Fallback)
			if tc.wantWarning == "" {
				require.Empty(t, selection.Warning)
			} else {
				require.Contains(t, selection.Warning, tc.wantWarning)
			}
		})
	}
}

func TestDeviceLabel(t *testing.T) {
	require.Equal(t, "Mic (mic-1)", Device{ID: "mic-1", Description: "Mic"}.Label())
	require.Equal(t, "mic-1", Device{ID: "mic-1"}.Label())
	require.Equal(t, "Mic", Device{Description: " Mic "}.Label())
}

func TestListDevicesFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	_, err := ListDevices(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "connect pulse server")
}

func TestPulseCapturerFailsWhenPulseUnavailable(t *testing.T) {
	t.Setenv("PULSE_SERVER", "unix:/tmp/definitely-missing-pulse-server")
	capture, err := PulseCapturer{Input: "default", Fallback: "default"}.Open(context.Background())
	require.Error(t, err)
	require.Nil(t, capture)
}

func TestSourceStateString(t *testing.T) {
	require.Equal(t, "running", sourceStateString(0))
	require.Equal(t, "idle", sourceStateString(1))
	require.Equal(t, "suspended", sourceStateString(2))
	require.Equal(t, "unknown(7)", sourceStateString(7))
}

func TestSourceAvailable(t *testing.T) {
	require.False(t, sourceAvailable(nil))
	require.True(t, sourceAvailable(&pulseproto.GetSourceInfoReply{}))

	yes := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, yes, []sourcePort{{name: "line", available: 1}, {name: "mic", available: 2}})
	require.True(t, sourceAvailable(yes))

	no := &pulseproto.GetSourceInfoReply{ActivePortName: "mic"}
	setSourcePorts(t, no, []sourcePort{{name: "mic", available: 1}})
	require.False(t, sourceAvailable(no))
}

type sourcePort struct {
	name      string
	available uint32
}

func setSourcePorts(t *testing.T, reply *pulseproto.GetSourceInfoReply, ports []sourcePort) {
	t.Helper()

	sliceValue := reflect.MakeSlice(reflect.TypeOf(reply.Ports), len(ports), len(ports))
	for i, port := range ports {
		item := sliceValue.Index(i)
		item.FieldByName("Name").SetString(port.name)
		item.FieldByName("Available").SetUint(uint64(port.available))
	}
	reflect.ValueOf(reply).Elem().FieldByName("Ports").Set(sliceValue)
}
