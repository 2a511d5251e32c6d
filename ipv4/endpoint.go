package ipv4

import (
	"fmt"
	"net"
)

// Addr is a 4-byte IPv4 address.
type Addr [4]byte

func (a Addr) String() string {
	return net.IP(a[:]).String()
}

// ParseAddr parses a dotted-quad string into an Addr.
func ParseAddr(s string) (Addr, error) {
	ip := net.ParseIP(s)
	if ip == nil {
		return Addr{}, fmt.Errorf("ipv4: invalid address %q", s)
	}
	ip4 := ip.To4()
	if ip4 == nil {
		return Addr{}, fmt.Errorf("ipv4: %q is not an IPv4 address", s)
	}
	var a Addr
	copy(a[:], ip4)
	return a, nil
}

// Endpoint is an (IPv4 address, 16-bit port) pair. A zero Port is treated
// as absent by the UDP wire codec, matching the source-port-zero
// convention of the wire format.
type Endpoint struct {
	Addr Addr
	Port uint16
}

func (e Endpoint) String() string {
	return fmt.Sprintf("%s:%d", e.Addr, e.Port)
}
