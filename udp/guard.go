package udp

import "sync/atomic"

// reentryGuard is a non-blocking mutual-exclusion guard: enter panics
// instead of blocking if the Peer is already entered by another call. The
// UDP peer's inner state is single-threaded cooperative by design (every
// public method is a short, non-suspending borrow); a second goroutine
// calling in concurrently is a programming error, not a race to serialize
// away quietly.
type reentryGuard struct {
	locked atomic.Bool
}

func (g *reentryGuard) enter() {
	if !g.locked.CompareAndSwap(false, true) {
		panic("udp: concurrent call into Peer from a second goroutine")
	}
}

func (g *reentryGuard) exit() {
	g.locked.Store(false)
}
