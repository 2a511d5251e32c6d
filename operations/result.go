package operations

import (
	"github.com/amirmnoohi/demikernel/ipv4"
	"github.com/amirmnoohi/demikernel/waker"
)

// Variant tags which operation a Result carries.
type Variant int

const (
	VariantAccept Variant = iota
	VariantConnect
	VariantPush
	VariantPop
)

// Pop is the subset of the pop future state machine (package udp) this
// package needs: something that can be polled to completion, yielding a
// remote endpoint and payload or an error.
type Pop interface {
	Poll(n *waker.Notifier) (remote ipv4.Endpoint, payload []byte, err error, done bool)
}

// Result is the tagged variant over {Accept, Connect, Push, Pop}. The
// first three are constructed already resolved; Pop wraps a future that
// must be polled to reach a result.
type Result struct {
	variant Variant
	fd      int
	err     error
	pop     Pop

	resolved bool
	remote   ipv4.Endpoint
	payload  []byte
}

// Accept constructs an already-resolved Accept result.
func Accept(fd int, err error) *Result {
	return &Result{variant: VariantAccept, fd: fd, err: err, resolved: true}
}

// Connect constructs an already-resolved Connect result.
func Connect(fd int, err error) *Result {
	return &Result{variant: VariantConnect, fd: fd, err: err, resolved: true}
}

// Push constructs an already-resolved Push result.
func Push(fd int, err error) *Result {
	return &Result{variant: VariantPush, fd: fd, err: err, resolved: true}
}

// PopResult wraps a not-yet-resolved pop future.
func PopResult(fd int, pop Pop) *Result {
	return &Result{variant: VariantPop, fd: fd, pop: pop}
}

// Variant reports which operation this Result carries.
func (r *Result) Variant() Variant { return r.variant }

// FD returns the descriptor this Result is for.
func (r *Result) FD() int { return r.fd }

// Poll advances the Result. Accept, Connect, and Push are already
// terminal and always report done=true; Pop polls its embedded future and
// stashes the outcome in the done-slot on completion.
func (r *Result) Poll(n *waker.Notifier) bool {
	if r.resolved {
		return true
	}
	remote, payload, err, done := r.pop.Poll(n)
	if !done {
		return false
	}
	r.remote, r.payload, r.err, r.resolved = remote, payload, err, true
	return true
}

// OutcomeKind tags the synchronous projection of a resolved Result.
type OutcomeKind int

const (
	OutcomeConnect OutcomeKind = iota
	OutcomePush
	OutcomePop
	OutcomeFailed
)

// Outcome is the synchronous projection of a resolved Result: (descriptor,
// outcome), where outcome is one of {Connect, Push, Pop(remote, bytes),
// Failed(err)}.
type Outcome struct {
	Kind    OutcomeKind
	FD      int
	Remote  ipv4.Endpoint
	Payload []byte
	Err     error
}

// Project maps r to its synchronous Outcome. r must be resolved (Poll must
// have returned true, or r must have been constructed already resolved);
// projecting a not-ready Pop result is a programming error and panics.
func (r *Result) Project() Outcome {
	if !r.resolved {
		panic("operations: projecting a not-ready operation result")
	}
	if r.err != nil || r.variant == VariantAccept {
		return Outcome{Kind: OutcomeFailed, FD: r.fd, Err: r.err}
	}
	switch r.variant {
	case VariantConnect:
		return Outcome{Kind: OutcomeConnect, FD: r.fd}
	case VariantPush:
		return Outcome{Kind: OutcomePush, FD: r.fd}
	case VariantPop:
		return Outcome{Kind: OutcomePop, FD: r.fd, Remote: r.remote, Payload: r.payload}
	default:
		panic("operations: unknown result variant")
	}
}
