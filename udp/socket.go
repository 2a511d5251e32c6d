package udp

import (
	"sync"

	"github.com/amirmnoohi/demikernel/ipv4"
	"github.com/amirmnoohi/demikernel/waker"
)

// socket records a UDP descriptor's bound local endpoint (set by bind) and
// fixed remote endpoint (set by connect). A nil field means absent.
type socket struct {
	local  *ipv4.Endpoint
	remote *ipv4.Endpoint
}

// inboundDatagram is one item queued on a Listener: the sender's endpoint,
// if the received datagram carried a source port, and the payload.
type inboundDatagram struct {
	remote  *ipv4.Endpoint
	payload []byte
}

// listener is the per-bound-local-endpoint record: an ordered queue of
// inbound datagrams and at most one suspended pop's waker. It is shared
// between the peer and any outstanding PopFuture for its endpoint, and
// stays alive for as long as either holds a reference, even after close
// removes it from the peer's bound map.
type listener struct {
	mu    sync.Mutex
	queue []inboundDatagram
	waker *waker.Notifier
}

// enqueue appends dgram to l's queue and wakes its suspended consumer, if
// any. At most one waker is ever stored (the last poller wins), matching
// the "single outstanding pop" contract of this layer.
func (l *listener) enqueue(dgram inboundDatagram) {
	l.mu.Lock()
	l.queue = append(l.queue, dgram)
	w := l.waker
	l.waker = nil
	l.mu.Unlock()
	if w != nil {
		w.Wake()
	}
}

// take pops the front datagram, if any, or records n as the waker to
// invoke on the next enqueue, overwriting any previously stored waker (its
// reference is dropped; it will never be woken).
func (l *listener) take(n *waker.Notifier) (inboundDatagram, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.queue) > 0 {
		dgram := l.queue[0]
		l.queue = l.queue[1:]
		return dgram, true
	}
	prev := l.waker
	l.waker = n.Clone()
	if prev != nil {
		prev.Drop()
	}
	return inboundDatagram{}, false
}
