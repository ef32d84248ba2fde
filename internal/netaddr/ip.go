// Package netaddr implements the packet and routing primitives: IP
// addresses, prefixes, longest-prefix-match routing, and the
// deterministic five-tuple hash used by ECMP/flowlet/adaptive routing.
package netaddr

import (
	"fmt"
	"strconv"
	"strings"
)

// IP is a 32-bit unsigned IPv4 address.
type IP uint32

// ParseIP parses a dotted-quad string ("10.0.1.2") into an IP.
func ParseIP(s string) (IP, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 4 {
		return 0, fmt.Errorf("netaddr: invalid IPv4 address %q", s)
	}
	var v uint32
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > 255 {
			return 0, fmt.Errorf("netaddr: invalid IPv4 octet %q in %q", p, s)
		}
		v = v<<8 | uint32(n)
	}
	return IP(v), nil
}

// MustParseIP is ParseIP, panicking on error. For use in topology
// builders and tests where the address is a compile-time constant.
func MustParseIP(s string) IP {
	ip, err := ParseIP(s)
	if err != nil {
		panic(err)
	}
	return ip
}

// String renders the address back to dotted-quad form.
func (ip IP) String() string {
	return fmt.Sprintf("%d.%d.%d.%d", byte(ip>>24), byte(ip>>16), byte(ip>>8), byte(ip))
}
