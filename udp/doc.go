// Package udp implements socket-style UDP semantics (socket, bind, connect,
// push, pushto, pop, close) on top of a scheduler.Scheduler, an
// arp.Resolver, and a runtime.Runtime's transmit path. It composes its own
// Ethernet/IPv4/UDP wire codec and demultiplexes inbound datagrams onto
// per-local-endpoint Listeners woken on arrival.
package udp
