package arp

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/amirmnoohi/demikernel/ethernet"
	"github.com/amirmnoohi/demikernel/ipv4"
	"github.com/amirmnoohi/demikernel/telemetry"
	"github.com/amirmnoohi/demikernel/waker"
)

// RequestFunc emits an ARP request for addr onto the wire. It is called at
// most at the configured retry rate per address.
type RequestFunc func(addr ipv4.Addr)

// Resolver is the ARP collaborator: TryQuery never suspends, Query may,
// and concurrent Query calls for the same unresolved address share one
// in-flight resolution (golang.org/x/sync/singleflight) whose outbound
// request emission is throttled per target (github.com/joeycumines/go-catrate).
type Resolver struct {
	mu    sync.RWMutex
	table map[ipv4.Addr]ethernet.MAC

	group   singleflight.Group
	limiter RateLimiter
	request RequestFunc
	logger  *telemetry.Logger

	retryInterval time.Duration
	timeout       time.Duration
}

// RateLimiter is the subset of *catrate.Limiter the resolver depends on.
type RateLimiter interface {
	Allow(category any) (time.Time, bool)
}

// New constructs a Resolver. request is called (subject to rate limiting)
// whenever a Query needs a fresh ARP request transmitted.
func New(request RequestFunc, opts ...Option) *Resolver {
	r := &Resolver{
		table:         make(map[ipv4.Addr]ethernet.MAC),
		request:       request,
		logger:        telemetry.New(),
		retryInterval: 200 * time.Millisecond,
		timeout:       3 * time.Second,
	}
	for _, o := range opts {
		o.apply(r)
	}
	return r
}

// TryQuery performs a non-blocking lookup of addr in the resolution
// table.
func (r *Resolver) TryQuery(addr ipv4.Addr) (ethernet.MAC, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	mac, ok := r.table[addr]
	return mac, ok
}

// Insert records a resolved (or learned) mapping, e.g. from a received ARP
// reply.
func (r *Resolver) Insert(addr ipv4.Addr, mac ethernet.MAC) {
	r.mu.Lock()
	r.table[addr] = mac
	r.mu.Unlock()
}

// Query asks for addr's MAC. If already cached, the returned Query is
// immediately resolved. Otherwise it starts (or joins) an in-flight
// resolution and arranges for n to be woken when it completes; the caller
// must poll the returned Query (typically from within a scheduler.Task) to
// observe the outcome.
func (r *Resolver) Query(addr ipv4.Addr, n *waker.Notifier) *Query {
	if mac, ok := r.TryQuery(addr); ok {
		return &Query{resolved: true, mac: mac}
	}

	q := &Query{}
	wake := n.Clone()
	ch := r.group.DoChan(addr.String(), func() (any, error) {
		return r.resolveBlocking(addr)
	})

	go func() {
		res := <-ch
		q.mu.Lock()
		if res.Err != nil {
			q.err = res.Err
		} else {
			q.mac, _ = res.Val.(ethernet.MAC)
		}
		q.resolved = true
		q.mu.Unlock()
		wake.WakeByRef()
		wake.Drop()
	}()

	return q
}

// resolveBlocking runs in a singleflight-managed goroutine, never the
// scheduler goroutine, so blocking here does not stall Tick.
func (r *Resolver) resolveBlocking(addr ipv4.Addr) (ethernet.MAC, error) {
	if mac, ok := r.TryQuery(addr); ok {
		return mac, nil
	}

	r.emitRequest(addr)

	deadline := time.NewTimer(r.timeout)
	defer deadline.Stop()
	retry := time.NewTicker(r.retryInterval)
	defer retry.Stop()

	for {
		select {
		case <-deadline.C:
			return ethernet.MAC{}, fmt.Errorf("arp: resolution of %s timed out", addr)
		case <-retry.C:
			if mac, ok := r.TryQuery(addr); ok {
				return mac, nil
			}
			r.emitRequest(addr)
		}
	}
}

func (r *Resolver) emitRequest(addr ipv4.Addr) {
	if r.limiter != nil {
		if _, ok := r.limiter.Allow(addr); !ok {
			r.logger.Warn("arp: request throttled", "addr", addr.String())
			return
		}
	}
	if r.request != nil {
		r.request(addr)
	}
}

// Query represents an in-flight or resolved address resolution.
type Query struct {
	mu       sync.Mutex
	resolved bool
	mac      ethernet.MAC
	err      error
}

// Poll matches the operations.Pop-style poll signature: it reports the
// resolved MAC/error and whether resolution has completed.
func (q *Query) Poll(_ *waker.Notifier) (mac ethernet.MAC, err error, done bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.mac, q.err, q.resolved
}
