package udp

import (
	"encoding/binary"
	"fmt"

	"github.com/amirmnoohi/demikernel/ipv4"
)

// HeaderLen is the length, in bytes, of a UDP header.
const HeaderLen = 8

// header is the wire representation of a UDP header: 2 source port, 2
// destination port, 2 length, 2 checksum. srcPort zero means absent in the
// internal model (the sending socket has no bound local endpoint).
type header struct {
	srcPort  uint16
	dstPort  uint16
	length   uint16
	checksum uint16
}

// marshalTo encodes h into buf, which must be at least HeaderLen bytes.
func (h header) marshalTo(buf []byte) (int, error) {
	if len(buf) < HeaderLen {
		return 0, fmt.Errorf("udp: buffer too small: %d < %d", len(buf), HeaderLen)
	}
	binary.BigEndian.PutUint16(buf[0:2], h.srcPort)
	binary.BigEndian.PutUint16(buf[2:4], h.dstPort)
	binary.BigEndian.PutUint16(buf[4:6], h.length)
	binary.BigEndian.PutUint16(buf[6:8], h.checksum)
	return HeaderLen, nil
}

// parseHeader decodes a UDP header from the front of buf.
func parseHeader(buf []byte) (header, int, error) {
	if len(buf) < HeaderLen {
		return header{}, 0, fmt.Errorf("udp: datagram too short for header: %d bytes", len(buf))
	}
	var h header
	h.srcPort = binary.BigEndian.Uint16(buf[0:2])
	h.dstPort = binary.BigEndian.Uint16(buf[2:4])
	h.length = binary.BigEndian.Uint16(buf[4:6])
	h.checksum = binary.BigEndian.Uint16(buf[6:8])
	return h, HeaderLen, nil
}

// pseudoHeaderChecksum computes the RFC 768 one's-complement checksum of a
// UDP datagram: the IPv4 pseudo header (source address, destination
// address, zero byte, protocol, UDP length) followed by the UDP header
// (with its checksum field zeroed) and the payload. An odd trailing byte is
// padded with a zero byte for the checksum computation only, not written to
// the wire.
func pseudoHeaderChecksum(src, dst ipv4.Addr, srcPort, dstPort uint16, payload []byte) uint16 {
	udpLen := HeaderLen + len(payload)

	pseudo := make([]byte, 12+HeaderLen+len(payload))
	copy(pseudo[0:4], src[:])
	copy(pseudo[4:8], dst[:])
	pseudo[8] = 0
	pseudo[9] = ipv4.ProtocolUDP
	binary.BigEndian.PutUint16(pseudo[10:12], uint16(udpLen))

	binary.BigEndian.PutUint16(pseudo[12:14], srcPort)
	binary.BigEndian.PutUint16(pseudo[14:16], dstPort)
	binary.BigEndian.PutUint16(pseudo[16:18], uint16(udpLen))
	binary.BigEndian.PutUint16(pseudo[18:20], 0) // checksum field, zeroed
	copy(pseudo[20:], payload)

	var sum uint32
	i := 0
	for ; i+1 < len(pseudo); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(pseudo[i : i+2]))
	}
	if i < len(pseudo) {
		sum += uint32(pseudo[i]) << 8
	}
	for sum>>16 != 0 {
		sum = (sum & 0xffff) + (sum >> 16)
	}
	cs := ^uint16(sum)
	if cs == 0 {
		// RFC 768: an all-zero computed checksum is transmitted as all-ones.
		cs = 0xffff
	}
	return cs
}
