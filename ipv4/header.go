package ipv4

import (
	"encoding/binary"
	"fmt"
)

// ProtocolUDP is the IPv4 protocol number for UDP.
const ProtocolUDP = 17

// HeaderLen is the length, in bytes, of the fixed-size IPv4 header this
// module emits (no options).
const HeaderLen = 20

// Header is the subset of the IPv4 header fields this module needs to
// compose and parse a UDP datagram's wire representation.
type Header struct {
	Protocol uint8
	Src      Addr
	Dst      Addr
	// PayloadLen is the length, in bytes, of the data following this
	// header (the UDP datagram: header + payload).
	PayloadLen int
}

// MarshalTo encodes h into buf, which must be at least HeaderLen bytes; the
// total-length field is HeaderLen plus h.PayloadLen. Returns the number of
// bytes written.
func (h Header) MarshalTo(buf []byte) (int, error) {
	if len(buf) < HeaderLen {
		return 0, fmt.Errorf("ipv4: buffer too small: %d < %d", len(buf), HeaderLen)
	}
	totalLen := HeaderLen + h.PayloadLen

	buf[0] = 0x45 // version 4, IHL 5 (20 bytes, no options)
	buf[1] = 0    // DSCP/ECN
	binary.BigEndian.PutUint16(buf[2:4], uint16(totalLen))
	binary.BigEndian.PutUint16(buf[4:6], 0) // identification
	binary.BigEndian.PutUint16(buf[6:8], 0) // flags/fragment offset
	buf[8] = 64                             // TTL
	buf[9] = h.Protocol
	binary.BigEndian.PutUint16(buf[10:12], 0) // checksum, filled below
	copy(buf[12:16], h.Src[:])
	copy(buf[16:20], h.Dst[:])

	binary.BigEndian.PutUint16(buf[10:12], headerChecksum(buf[:HeaderLen]))
	return HeaderLen, nil
}

// Parse decodes an IPv4 header from the front of buf, returning it and the
// number of header bytes consumed (the declared IHL, which may exceed
// HeaderLen if options are present).
func Parse(buf []byte) (Header, int, error) {
	if len(buf) < HeaderLen {
		return Header{}, 0, fmt.Errorf("ipv4: packet too short for header: %d bytes", len(buf))
	}
	version := buf[0] >> 4
	if version != 4 {
		return Header{}, 0, fmt.Errorf("ipv4: unsupported version %d", version)
	}
	ihl := int(buf[0]&0x0f) * 4
	if ihl < HeaderLen || len(buf) < ihl {
		return Header{}, 0, fmt.Errorf("ipv4: invalid header length %d", ihl)
	}
	totalLen := int(binary.BigEndian.Uint16(buf[2:4]))

	var h Header
	h.Protocol = buf[9]
	copy(h.Src[:], buf[12:16])
	copy(h.Dst[:], buf[16:20])
	h.PayloadLen = totalLen - ihl
	if h.PayloadLen < 0 {
		return Header{}, 0, fmt.Errorf("ipv4: total length %d shorter than header %d", totalLen, ihl)
	}
	return h, ihl, nil
}

// headerChecksum computes the RFC 791 one's-complement checksum over an
// IPv4 header with the checksum field itself zeroed.
func headerChecksum(header []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(header); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(header[i : i+2]))
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	return ^uint16(sum)
}
