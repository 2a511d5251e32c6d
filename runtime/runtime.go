package runtime

import (
	"context"
	"io"

	"github.com/amirmnoohi/demikernel/ethernet"
	"github.com/amirmnoohi/demikernel/ipv4"
	"github.com/amirmnoohi/demikernel/scheduler"
	"github.com/amirmnoohi/demikernel/telemetry"
	"github.com/amirmnoohi/demikernel/waker"
)

// Transmitter sends a fully-framed Ethernet datagram. Implementations
// must be safe to call from any goroutine and must not block the caller
// on backpressure beyond what a single write syscall takes.
type Transmitter interface {
	Transmit(frame []byte) error
	io.Closer
}

// Runtime is the UDP peer's collaborator for addressing, transmission, and
// task spawning. Clone returns a cheap handle copy sharing the same
// underlying scheduler and transmit path.
type Runtime struct {
	sched       *scheduler.Scheduler
	linkAddr    ethernet.MAC
	ipv4Addr    ipv4.Addr
	transmitter Transmitter
	logger      *telemetry.Logger
}

// New constructs a Runtime bound to linkAddr/ipv4Addr, driving tasks on
// sched and sending frames through transmitter.
func New(sched *scheduler.Scheduler, linkAddr ethernet.MAC, ipv4Addr ipv4.Addr, transmitter Transmitter, opts ...Option) *Runtime {
	rt := &Runtime{
		sched:       sched,
		linkAddr:    linkAddr,
		ipv4Addr:    ipv4Addr,
		transmitter: transmitter,
		logger:      telemetry.New(),
	}
	for _, o := range opts {
		o.apply(rt)
	}
	return rt
}

// LocalLinkAddr returns this runtime's local MAC address.
func (rt *Runtime) LocalLinkAddr() ethernet.MAC { return rt.linkAddr }

// LocalIPv4Addr returns this runtime's local IPv4 address.
func (rt *Runtime) LocalIPv4Addr() ipv4.Addr { return rt.ipv4Addr }

// Transmit sends frame fire-and-forget: errors are logged, not returned,
// matching the "fire-and-forget" contract this collaborator exposes to
// the UDP peer.
func (rt *Runtime) Transmit(frame []byte) {
	if err := rt.transmitter.Transmit(frame); err != nil {
		rt.logger.Warn("runtime: transmit failed", "err", err.Error())
	}
}

// Spawn schedules t on the underlying scheduler, returning a handle the
// caller can use to cancel it.
func (rt *Runtime) Spawn(t scheduler.Task) scheduler.Handle {
	return rt.sched.Spawn(t)
}

// RegisterFD registers fd with the scheduler's I/O poller.
func (rt *Runtime) RegisterFD(fd int, events scheduler.IOEvents, cb scheduler.IOCallback) error {
	return rt.sched.RegisterFD(fd, events, cb)
}

// Run drives the underlying scheduler until ctx is cancelled.
func (rt *Runtime) Run(ctx context.Context) error {
	return rt.sched.Run(ctx)
}

// Shutdown requests the underlying scheduler stop.
func (rt *Runtime) Shutdown() { rt.sched.Shutdown() }

// Clone returns a cheap handle copy of rt: the same scheduler, addresses,
// and transmit path, matching the "clone() -> cheap handle copy" contract
// the UDP peer's background task relies on to avoid borrowing rt itself
// across a suspension point.
func (rt *Runtime) Clone() *Runtime {
	cp := *rt
	return &cp
}

// Waker adapts rt's scheduler as a waker.Waker, for constructing
// waker.Page instances that wake this runtime's scheduler.
func (rt *Runtime) Waker() waker.Waker { return schedWaker{rt.sched} }

type schedWaker struct{ s *scheduler.Scheduler }

func (w schedWaker) Wake() { w.s.Wake() }

// Close releases the underlying transmitter's resources.
func (rt *Runtime) Close() error { return rt.transmitter.Close() }
