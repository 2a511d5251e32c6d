// Package ipv4 implements the IPv4 header encode/decode used by the UDP
// peer's wire path, and the Endpoint type (IPv4 address, 16-bit port) used
// throughout the module as the address of a socket.
package ipv4
