package scheduler

import (
	"context"
	"sync"

	"github.com/amirmnoohi/demikernel/waker"
)

// Task is a cooperatively-scheduled unit of work. Poll is called at least
// once after the task is spawned, and again each time n is woken. n is
// borrowed for the duration of the call and remains valid (owned by the
// scheduler) until the task completes or is cancelled; a task that needs
// to arrange a wake from outside this call (e.g. a goroutine waiting on a
// channel) must call n.Clone() and have that goroutine Wake() the clone.
// Poll returns true once the task has finished and must never be polled
// again.
type Task interface {
	Poll(n *waker.Notifier) bool
}

// TaskFunc adapts a plain function to Task, for tasks that don't need to
// retain state between polls (they close over it instead).
type TaskFunc func(n *waker.Notifier) bool

func (f TaskFunc) Poll(n *waker.Notifier) bool { return f(n) }

// wakeSource is the portable interface behind the platform-specific wake
// primitive (an eventfd on Linux, a channel elsewhere): Notify arranges for
// a blocked Wait/Tick loop to return promptly.
type wakeSource interface {
	Fd() int
	Notify()
	Drain()
	Close() error
}

// slot identifies a task's location: which slab (page) and which of its 64
// bit positions.
type slot struct {
	page int
	bit  int
}

type slab struct {
	handle *waker.Handle
	tasks  [waker.NumSlots]Task
	notifs [waker.NumSlots]*waker.Notifier
	free   []int
}

// Handle identifies a spawned task, for cancellation.
type Handle struct {
	s   *Scheduler
	loc slot
}

// Cancel marks the task's slot dropped. The scheduler reclaims the slot on
// its next Tick; Cancel does not block for that to happen.
func (h Handle) Cancel() {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()
	if h.loc.page >= len(h.s.slabs) {
		return
	}
	h.s.slabs[h.loc.page].handle.Page().MarkDropped(h.loc.bit)
}

// Scheduler is a single-threaded cooperative task scheduler built directly
// on package waker: it is the "custom cooperative task scheduler" the UDP
// peer and waker page primitive assume exists.
type Scheduler struct {
	mu     sync.Mutex
	slabs  []*slab
	state  *FastState
	wake   wakeSource
	poller Poller
	opts   *options
}

// New constructs a Scheduler with one initial slab and starts it in the
// Awake state; call Run to drive it. The wake source's fd is registered
// with the poller (when it has one, i.e. on Linux) so a blocked Run/Tick
// wait returns as soon as Wake/Shutdown signal it, instead of only on the
// next tick timeout.
func New(opts ...Option) (*Scheduler, error) {
	ws, err := newWakeSource()
	if err != nil {
		return nil, err
	}
	p, err := newPoller()
	if err != nil {
		_ = ws.Close()
		return nil, err
	}
	if fd := ws.Fd(); fd >= 0 {
		if err := p.RegisterFD(fd, EventRead, func(IOEvents) { ws.Drain() }); err != nil {
			_ = ws.Close()
			_ = p.Close()
			return nil, err
		}
	}
	s := &Scheduler{
		state:  newFastState(),
		wake:   ws,
		poller: p,
		opts:   resolveOptions(opts),
	}
	s.slabs = append(s.slabs, s.newSlab())
	return s, nil
}

func (s *Scheduler) newSlab() *slab {
	sl := &slab{}
	sl.handle = waker.New(schedulerWaker{s})
	sl.free = make([]int, waker.NumSlots)
	for i := range sl.free {
		sl.free[i] = waker.NumSlots - 1 - i
	}
	return sl
}

// schedulerWaker adapts *Scheduler to waker.Waker without exposing Wake on
// the public Scheduler type's primary documented surface twice.
type schedulerWaker struct{ s *Scheduler }

func (w schedulerWaker) Wake() { w.s.Wake() }

// Wake arranges for a blocked Run/Tick loop to return promptly. Safe to
// call from any goroutine; this is what every waker.Page.Notify ultimately
// calls.
func (s *Scheduler) Wake() {
	if s.state.TryTransition(Sleeping, Running) {
		s.wake.Notify()
		return
	}
	// Already Awake/Running/Terminating: the next Tick will observe the
	// notification regardless, but nudge the wake source anyway so a
	// concurrent transition into Sleeping doesn't miss it.
	s.wake.Notify()
}

// Spawn allocates a task slot from the first slab with room (growing by
// one slab if all existing ones are full) and schedules t to be polled on
// the next Tick.
func (s *Scheduler) Spawn(t Task) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, sl := range s.slabs {
		if len(sl.free) > 0 {
			return s.install(i, sl, t)
		}
	}
	sl := s.newSlab()
	s.slabs = append(s.slabs, sl)
	return s.install(len(s.slabs)-1, sl, t)
}

func (s *Scheduler) install(page int, sl *slab, t Task) Handle {
	bit := sl.free[len(sl.free)-1]
	sl.free = sl.free[:len(sl.free)-1]

	n := sl.handle.Notifier(bit)
	sl.tasks[bit] = t
	sl.notifs[bit] = n
	sl.handle.Page().Initialize(bit)

	return Handle{s: s, loc: slot{page: page, bit: bit}}
}

// Tick harvests and polls every currently-notified task across all slabs,
// reclaiming slots for tasks that complete or were dropped. It returns the
// number of tasks polled.
func (s *Scheduler) Tick() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	polled := 0
	for page, sl := range s.slabs {
		notified := sl.handle.Page().TakeNotified()
		for bit := 0; bit < waker.NumSlots; bit++ {
			if notified&(uint64(1)<<uint(bit)) == 0 {
				continue
			}
			task := sl.tasks[bit]
			if task == nil {
				continue
			}
			polled++
			done := s.pollTask(task, sl.notifs[bit])
			if done {
				sl.handle.Page().MarkCompleted(bit)
				s.reclaim(page, sl, bit)
			}
		}
		if dropped := sl.handle.Page().TakeDropped(); dropped != 0 {
			for bit := 0; bit < waker.NumSlots; bit++ {
				if dropped&(uint64(1)<<uint(bit)) != 0 && sl.tasks[bit] != nil {
					s.reclaim(page, sl, bit)
				}
			}
		}
	}
	return polled
}

func (s *Scheduler) pollTask(t Task, n *waker.Notifier) (done bool) {
	defer func() {
		if r := recover(); r != nil {
			s.opts.logger.Error("scheduler: task panicked", "recover", r)
			done = true
		}
	}()
	return t.Poll(n)
}

func (s *Scheduler) reclaim(page int, sl *slab, bit int) {
	if sl.notifs[bit] != nil {
		sl.notifs[bit].Drop()
	}
	sl.tasks[bit] = nil
	sl.notifs[bit] = nil
	sl.handle.Page().Clear(bit)
	sl.free = append(sl.free, bit)
}

// RegisterFD registers a raw file descriptor with the scheduler's I/O
// poller; used by package runtime to learn when a raw socket becomes
// readable or writable.
func (s *Scheduler) RegisterFD(fd int, events IOEvents, cb IOCallback) error {
	return s.poller.RegisterFD(fd, events, cb)
}

// UnregisterFD removes a previously-registered descriptor.
func (s *Scheduler) UnregisterFD(fd int) error {
	return s.poller.UnregisterFD(fd)
}

// Run drives Tick until ctx is cancelled or Shutdown is called, blocking
// between iterations for a wake or I/O readiness event (bounded by the
// configured tick timeout so ctx cancellation is still observed promptly).
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.TryTransition(Awake, Running) {
		return errAlreadyRunning
	}
	defer s.state.Store(Terminated)

	timeoutMs := int(s.opts.tickTimeout / 1_000_000)
	if timeoutMs <= 0 {
		timeoutMs = 1
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.state.Load() == Terminating {
			return nil
		}

		if polled := s.Tick(); polled > 0 {
			continue
		}

		s.wake.Drain()
		s.state.TryTransition(Running, Sleeping)
		_, _ = s.poller.Wait(timeoutMs)
		s.wake.Drain()
		s.state.TryTransition(Sleeping, Running)
	}
}

// Shutdown requests the Run loop exit at its next opportunity.
func (s *Scheduler) Shutdown() {
	for {
		cur := s.state.Load()
		if cur == Terminated || cur == Terminating {
			return
		}
		if s.state.TryTransition(cur, Terminating) {
			s.wake.Notify()
			return
		}
	}
}

// Close releases the scheduler's OS resources (wake primitive, poller).
// Run must have returned before calling Close.
func (s *Scheduler) Close() error {
	err1 := s.wake.Close()
	err2 := s.poller.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
