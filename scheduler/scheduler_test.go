package scheduler

import (
	"testing"

	"github.com/amirmnoohi/demikernel/waker"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestScheduler_SpawnPollsOnce(t *testing.T) {
	s := newTestScheduler(t)

	polls := 0
	s.Spawn(TaskFunc(func(n *waker.Notifier) bool {
		polls++
		return true
	}))

	if got := s.Tick(); got != 1 {
		t.Fatalf("Tick() polled %d tasks, want 1", got)
	}
	if polls != 1 {
		t.Fatalf("task polled %d times, want 1", polls)
	}
	// A completed task must not be polled again even if re-ticked.
	if got := s.Tick(); got != 0 {
		t.Fatalf("second Tick() polled %d tasks, want 0", got)
	}
}

func TestScheduler_TaskReschedulesItself(t *testing.T) {
	s := newTestScheduler(t)

	remaining := 3
	s.Spawn(TaskFunc(func(n *waker.Notifier) bool {
		remaining--
		if remaining == 0 {
			return true
		}
		n.WakeByRef()
		return false
	}))

	for i := 0; i < 3; i++ {
		s.Tick()
	}
	if remaining != 0 {
		t.Fatalf("remaining = %d, want 0", remaining)
	}
}

func TestScheduler_GrowsBeyondOneSlab(t *testing.T) {
	s := newTestScheduler(t)

	const n = waker.NumSlots + 10
	done := make([]bool, n)
	for i := 0; i < n; i++ {
		i := i
		s.Spawn(TaskFunc(func(_ *waker.Notifier) bool {
			done[i] = true
			return true
		}))
	}

	if got, want := len(s.slabs), 2; got != want {
		t.Fatalf("slab count = %d, want %d", got, want)
	}

	if got := s.Tick(); got != n {
		t.Fatalf("Tick() polled %d tasks, want %d", got, n)
	}
	for i, d := range done {
		if !d {
			t.Fatalf("task %d was not polled", i)
		}
	}
}

func TestScheduler_HandleCancel(t *testing.T) {
	s := newTestScheduler(t)

	polled := false
	h := s.Spawn(TaskFunc(func(n *waker.Notifier) bool {
		polled = true
		return false
	}))

	// Drain the initial notification without letting Cancel race it.
	s.Tick()
	polled = false

	h.Cancel()
	s.Tick()

	if polled {
		t.Fatal("cancelled task was polled again")
	}
}

func TestScheduler_SlotReuseAfterCompletion(t *testing.T) {
	s := newTestScheduler(t)

	for i := 0; i < waker.NumSlots; i++ {
		s.Spawn(TaskFunc(func(_ *waker.Notifier) bool { return true }))
	}
	s.Tick()

	if got, want := len(s.slabs), 1; got != want {
		t.Fatalf("slab count = %d, want %d (slots should have been reclaimed)", got, want)
	}

	s.Spawn(TaskFunc(func(_ *waker.Notifier) bool { return true }))
	if got, want := len(s.slabs), 1; got != want {
		t.Fatalf("slab count after reuse = %d, want %d", got, want)
	}
}

func TestScheduler_PanicInTaskIsContained(t *testing.T) {
	s := newTestScheduler(t)

	s.Spawn(TaskFunc(func(_ *waker.Notifier) bool {
		panic("boom")
	}))

	if got := s.Tick(); got != 1 {
		t.Fatalf("Tick() polled %d tasks, want 1", got)
	}
	// The panicking task must be treated as complete, not re-polled.
	if got := s.Tick(); got != 0 {
		t.Fatalf("second Tick() polled %d tasks, want 0", got)
	}
}

func TestFastState_Transitions(t *testing.T) {
	s := newFastState()
	if got := s.Load(); got != Awake {
		t.Fatalf("initial state = %v, want Awake", got)
	}
	if !s.TryTransition(Awake, Running) {
		t.Fatal("Awake -> Running should succeed")
	}
	if s.TryTransition(Awake, Running) {
		t.Fatal("Awake -> Running should fail a second time")
	}
	if !s.TryTransition(Running, Sleeping) {
		t.Fatal("Running -> Sleeping should succeed")
	}
	if !s.TryTransition(Sleeping, Terminating) {
		t.Fatal("Sleeping -> Terminating should succeed")
	}
	s.Store(Terminated)
	if !s.IsTerminal() {
		t.Fatal("expected IsTerminal() after Store(Terminated)")
	}
}
