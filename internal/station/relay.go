package station

import (
	"net"
	"strings"
)

var (
	cgnatBlock = mustCIDR("100.64.0.0/10")

	tunnelHints = []string{"tun", "tap", "wg", "ppp", "warp"}
)

func mustCIDR(s string) *net.IPNet {
	_, block, err := net.ParseCIDR(s)
	if err != nil {
		panic(err)
	}
	return block
}

// behindTunnel reports whether this host looks like it sits behind a VPN or
// carrier-grade NAT, where direct paths rarely form and TURN is the only route.
func behindTunnel() bool {
	ifaces, err := net.Interfaces()
	if err != nil {
		return false
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		addrs, _ := iface.Addrs()
		if tunnelInterface(iface.Name, addrs) {
			return true
		}
	}
	return false
}

func tunnelInterface(name string, addrs []net.Addr) bool {
	name = strings.ToLower(name)
	for _, hint := range tunnelHints {
		if strings.Contains(name, hint) {
			return true
		}
	}
	for _, addr := range addrs {
		var ip net.IP
		switch v := addr.(type) {
		case *net.IPNet:
			ip = v.IP
		case *net.IPAddr:
			ip = v.IP
		}
		if ip != nil && cgnatBlock.Contains(ip) {
			return true
		}
	}
	return false
}
