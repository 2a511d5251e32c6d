//go:build linux

package runtime

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// RawSocketTransmitter sends whole Ethernet frames through an AF_PACKET
// SOCK_RAW socket bound to a specific interface, the raw Ethernet/IPv4
// transmit path this module's runtime needs on Linux.
type RawSocketTransmitter struct {
	fd int
}

// NewRawSocketTransmitter opens an AF_PACKET/SOCK_RAW socket bound to the
// interface with the given index. EtherType ETH_P_ALL is used so the
// socket carries whatever frames this runtime composes (it only ever
// writes, never reads, through this fd).
func NewRawSocketTransmitter(ifIndex int) (*RawSocketTransmitter, error) {
	fd, err := unix.Socket(unix.AF_PACKET, unix.SOCK_RAW, int(htons(unix.ETH_P_ALL)))
	if err != nil {
		return nil, fmt.Errorf("runtime: opening AF_PACKET socket: %w", err)
	}
	addr := &unix.SockaddrLinklayer{
		Protocol: htons(unix.ETH_P_ALL),
		Ifindex:  ifIndex,
	}
	if err := unix.Bind(fd, addr); err != nil {
		_ = unix.Close(fd)
		return nil, fmt.Errorf("runtime: binding AF_PACKET socket to ifindex %d: %w", ifIndex, err)
	}
	return &RawSocketTransmitter{fd: fd}, nil
}

func (t *RawSocketTransmitter) Transmit(frame []byte) error {
	_, err := unix.Write(t.fd, frame)
	return err
}

func (t *RawSocketTransmitter) Close() error {
	return unix.Close(t.fd)
}

func htons(v uint16) uint16 {
	return v<<8 | v>>8
}
