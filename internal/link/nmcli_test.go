package link

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceConnected(t *testing.T) {
	statusOut := "wlan0:connected\neth0:unavailable\nlo:unmanaged (externally)\n"

	tests := []struct {
		name  string
		out   string
		iface string
		want  bool
	}{
		{"managed interface connected", statusOut, "wlan0", true},
		{"managed interface down", "wlan0:disconnected\n", "wlan0", false},
		{"other interface connected", statusOut, "wlan1", false},
		{"any interface", statusOut, "", true},
		{"local connection counts", "wlan0:connected (local only)\n", "wlan0", true},
		{"activation in flight", "wlan0:connecting (getting IP configuration)\n", "wlan0", false},
		{"empty output", "", "wlan0", false},
		{"garbage line skipped", "not a pair\nwlan0:connected\n", "wlan0", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, deviceConnected(tt.out, tt.iface))
		})
	}
}

func TestNMCliJoinArgs(t *testing.T) {
	var captured []string
	n := &NMCli{
		Interface: "wlan0",
		SSID:      "ward-7",
		Password:  "secret",
		runner: func(_ context.Context, args ...string) ([]byte, error) {
			captured = args
			return nil, nil
		},
	}

	require.NoError(t, n.Join(context.Background()))
	assert.Equal(t, []string{"device", "wifi", "connect", "ward-7", "password", "secret", "ifname", "wlan0"}, captured)
}

func TestNMCliJoinOpenNetwork(t *testing.T) {
	var captured []string
	n := &NMCli{
		SSID: "open-net",
		runner: func(_ context.Context, args ...string) ([]byte, error) {
			captured = args
			return nil, nil
		},
	}

	require.NoError(t, n.Join(context.Background()))
	assert.Equal(t, []string{"device", "wifi", "connect", "open-net"}, captured)
}

func TestNMCliJoinFailureIncludesOutput(t *testing.T) {
	n := &NMCli{
		SSID: "ward-7",
		runner: func(context.Context, ...string) ([]byte, error) {
			return []byte("Error: No network with SSID 'ward-7' found.\n"), errors.New("exit status 10")
		},
	}

	err := n.Join(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No network with SSID")
}

func TestNMCliIsUp(t *testing.T) {
	n := &NMCli{
		Interface: "wlan0",
		runner: func(_ context.Context, args ...string) ([]byte, error) {
			assert.Equal(t, []string{"-t", "-f", "DEVICE,STATE", "device", "status"}, args)
			return []byte("wlan0:connected\n"), nil
		},
	}
	assert.True(t, n.IsUp(context.Background()))

	n.runner = func(context.Context, ...string) ([]byte, error) {
		return nil, errors.New("nmcli not found")
	}
	assert.False(t, n.IsUp(context.Background()))
}
