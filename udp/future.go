package udp

import (
	"github.com/amirmnoohi/demikernel/ipv4"
	"github.com/amirmnoohi/demikernel/operations"
	"github.com/amirmnoohi/demikernel/waker"
)

type popState int

const (
	popWaiting popState = iota
	popReady
	popInvalid
)

// PopFuture is the future returned by Peer.Pop: polling it yields the next
// (optional remote endpoint, payload) pair received on the descriptor's
// bound local endpoint, or a *operations.Fail if the descriptor was not
// bound at construction time. It satisfies operations.Pop.
type PopFuture struct {
	fd      int
	l       *listener
	state   popState
	err     *operations.Fail
	remote  ipv4.Endpoint
	payload []byte
}

// newInvalidPopFuture constructs a PopFuture that always fails with err,
// for a descriptor that was not bound when pop was called.
func newInvalidPopFuture(fd int, err *operations.Fail) *PopFuture {
	return &PopFuture{fd: fd, state: popInvalid, err: err}
}

// newPopFuture constructs a PopFuture that polls l for fd's inbound queue.
func newPopFuture(fd int, l *listener) *PopFuture {
	return &PopFuture{fd: fd, l: l, state: popWaiting}
}

// FD returns the descriptor this future was constructed for.
func (f *PopFuture) FD() int { return f.fd }

// Poll implements operations.Pop. invalid futures are terminal and return
// the stored error on every poll; otherwise each poll takes the listener's
// front item if any, or records n as the listener's waker and reports not
// done.
func (f *PopFuture) Poll(n *waker.Notifier) (remote ipv4.Endpoint, payload []byte, err error, done bool) {
	switch f.state {
	case popInvalid:
		return ipv4.Endpoint{}, nil, f.err, true
	case popReady:
		return f.remote, f.payload, nil, true
	}

	dgram, ok := f.l.take(n)
	if !ok {
		return ipv4.Endpoint{}, nil, nil, false
	}
	f.state = popReady
	if dgram.remote != nil {
		f.remote = *dgram.remote
	}
	f.payload = dgram.payload
	return f.remote, f.payload, nil, true
}
