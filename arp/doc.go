// Package arp implements the address resolution collaborator the UDP peer
// uses to map an IPv4 address to an Ethernet MAC: a non-blocking
// TryQuery against a resolution table, and an async Query that suspends
// via the scheduler, de-duplicates concurrent lookups for the same
// address, and throttles outbound ARP request emission per target.
package arp
