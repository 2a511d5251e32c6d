package scheduler

import "sync/atomic"

// RunState is the cooperative scheduler's lock-free run-state machine.
//
//	Awake (0)       -> Running (3)      [Run()]
//	Running (3)     -> Sleeping (2)     [Tick() finds nothing notified]
//	Sleeping (2)    -> Running (3)      [a wake arrives]
//	Running (3)     -> Terminating (4)  [Shutdown()]
//	Sleeping (2)    -> Terminating (4)  [Shutdown()]
//	Terminating (4) -> Terminated (1)   [Run() returns]
type RunState uint64

const (
	Awake RunState = iota
	Terminated
	Sleeping
	Running
	Terminating
)

func (s RunState) String() string {
	switch s {
	case Awake:
		return "Awake"
	case Running:
		return "Running"
	case Sleeping:
		return "Sleeping"
	case Terminating:
		return "Terminating"
	case Terminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// FastState is a cache-line-padded atomic RunState, guarding against false
// sharing between the goroutine driving Tick and goroutines calling Wake.
type FastState struct {
	_ [64]byte
	v atomic.Uint64
	_ [56]byte
}

func newFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(Awake))
	return s
}

func (s *FastState) Load() RunState { return RunState(s.v.Load()) }

func (s *FastState) Store(state RunState) { s.v.Store(uint64(state)) }

func (s *FastState) TryTransition(from, to RunState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}

func (s *FastState) IsTerminal() bool { return s.Load() == Terminated }
