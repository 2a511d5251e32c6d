package ethernet

import (
	"encoding/binary"
	"fmt"
)

// HeaderLen is the length, in bytes, of an Ethernet II header.
const HeaderLen = 14

// EtherTypeIPv4 is the EtherType value for an IPv4 payload.
const EtherTypeIPv4 = 0x0800

// MAC is a 6-byte hardware address.
type MAC [6]byte

func (m MAC) String() string {
	return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", m[0], m[1], m[2], m[3], m[4], m[5])
}

// Header is an Ethernet II frame header: destination MAC, source MAC, and
// a 2-byte EtherType.
type Header struct {
	Dst       MAC
	Src       MAC
	EtherType uint16
}

// MarshalTo encodes h into buf, which must be at least HeaderLen bytes.
func (h Header) MarshalTo(buf []byte) (int, error) {
	if len(buf) < HeaderLen {
		return 0, fmt.Errorf("ethernet: buffer too small: %d < %d", len(buf), HeaderLen)
	}
	copy(buf[0:6], h.Dst[:])
	copy(buf[6:12], h.Src[:])
	binary.BigEndian.PutUint16(buf[12:14], h.EtherType)
	return HeaderLen, nil
}

// Parse decodes an Ethernet II header from the front of buf.
func Parse(buf []byte) (Header, int, error) {
	if len(buf) < HeaderLen {
		return Header{}, 0, fmt.Errorf("ethernet: frame too short for header: %d bytes", len(buf))
	}
	var h Header
	copy(h.Dst[:], buf[0:6])
	copy(h.Src[:], buf[6:12])
	h.EtherType = binary.BigEndian.Uint16(buf[12:14])
	return h, HeaderLen, nil
}
