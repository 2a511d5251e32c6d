// Package runtime implements the Runtime collaborator the UDP peer is
// built on: local link/IPv4 addresses, a fire-and-forget transmit path
// (a raw AF_PACKET socket on Linux, an injected io.Writer elsewhere or in
// tests), and spawn/clone, delegating task scheduling to package
// scheduler.
package runtime
