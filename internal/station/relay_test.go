package station

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTunnelInterface(t *testing.T) {
	ipNet := func(s string) net.Addr {
		return &net.IPNet{IP: net.ParseIP(s), Mask: net.CIDRMask(24, 32)}
	}

	tests := []struct {
		name  string
		iface string
		addrs []net.Addr
		want  bool
	}{
		{"wireguard", "wg0", nil, true},
		{"openvpn", "tun0", nil, true},
		{"warp name", "CloudflareWARP", nil, true},
		{"cgnat address", "eth0", []net.Addr{ipNet("100.72.1.5")}, true},
		{"cgnat ipaddr", "en0", []net.Addr{&net.IPAddr{IP: net.ParseIP("100.127.0.1")}}, true},
		{"plain lan", "eth0", []net.Addr{ipNet("192.168.1.10")}, false},
		{"just outside cgnat", "eth0", []net.Addr{ipNet("100.128.0.1")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tunnelInterface(tt.iface, tt.addrs))
		})
	}
}
