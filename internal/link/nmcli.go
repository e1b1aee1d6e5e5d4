package link

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// NMCli associates with a wireless network by driving the system network
// manager CLI. Join issues one `nmcli device wifi connect`; IsUp parses the
// terse device status table and looks for the managed interface in the
// connected state.
type NMCli struct {
	Interface string
	SSID      string
	Password  string

	// runner is swapped in tests. nil means exec the real binary.
	runner func(ctx context.Context, args ...string) ([]byte, error)
}

func (n *NMCli) run(ctx context.Context, args ...string) ([]byte, error) {
	if n.runner != nil {
		return n.runner(ctx, args...)
	}
	return exec.CommandContext(ctx, "nmcli", args...).CombinedOutput()
}

func (n *NMCli) Join(ctx context.Context) error {
	args := []string{"device", "wifi", "connect", n.SSID}
	if n.Password != "" {
		args = append(args, "password", n.Password)
	}
	if n.Interface != "" {
		args = append(args, "ifname", n.Interface)
	}

	out, err := n.run(ctx, args...)
	if err != nil {
		return fmt.Errorf("nmcli connect: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

func (n *NMCli) IsUp(ctx context.Context) bool {
	out, err := n.run(ctx, "-t", "-f", "DEVICE,STATE", "device", "status")
	if err != nil {
		return false
	}
	return deviceConnected(string(out), n.Interface)
}

// deviceConnected parses `nmcli -t -f DEVICE,STATE device status` output,
// one "device:state" pair per line. An empty iface matches any wifi-looking
// connected device.
func deviceConnected(out, iface string) bool {
	for _, line := range strings.Split(out, "\n") {
		device, state, found := strings.Cut(strings.TrimSpace(line), ":")
		if !found {
			continue
		}
		if iface != "" && device != iface {
			continue
		}
		if strings.HasPrefix(state, "connected") {
			return true
		}
	}
	return false
}
