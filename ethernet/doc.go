// Package ethernet implements the Ethernet II header encode/decode used as
// the outermost layer of every datagram this module transmits or parses.
package ethernet
