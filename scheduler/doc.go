// Package scheduler implements the cooperative task scheduler the waker
// page primitive (package waker) and the UDP peer (package udp) run on top
// of: a single goroutine drives a Tick loop that harvests notified slots
// from one or more waker pages ("slabs") and polls the corresponding tasks,
// growing to additional slabs once a page's 64 slots are exhausted.
package scheduler
