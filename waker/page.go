package waker

import (
	"sync"
	"sync/atomic"
	"unsafe"
)

// NumSlots is the number of task slots tracked by a single Page.
const NumSlots = 64

const (
	pageSize  = 64
	pageAlign = 64
)

// Waker is the scheduler-level wake primitive a Page holds a shared handle
// to. Its sole method re-enters the scheduler loop; implementations must be
// safe to call from any goroutine.
type Waker interface {
	Wake()
}

// wakerHolder boxes a Waker so the Page can reference it through a single
// unsafe.Pointer-sized field, keeping sizeof(Page) == 64. Storing the Waker
// interface inline would cost two words (type + data pointer) and blow the
// cache-line budget.
type wakerHolder struct {
	w Waker
}

// wakerPins keeps each Page's wakerHolder reachable to the garbage
// collector for exactly as long as the Page is logically alive.
//
// A Page is carved out of a raw, pointer-free []byte allocation (see New),
// so the GC never scans p.waker for an outgoing pointer; the backing slice
// stays alive through the interior Page pointer, but that does nothing to
// keep a *separate* heap object (the wakerHolder, and the Waker it boxes)
// alive. wakerPins is an ordinary scanned map, so storing the holder here
// under the Page's own address roots it for as long as the entry exists;
// teardown removes the entry once the last Handle or Notifier releases the
// page, matching the holder's lifetime to the page's refcount exactly
// (rather than to whether some Go variable still happens to reference a
// Handle, which Clone/Close make no promises about).
var wakerPins sync.Map // map[*Page]*wakerHolder

// Page is the 64-byte, 64-byte-aligned waker page. See the package doc for
// the semantics of the three bitmaps.
//
// Layout (64 bytes total): four atomic.Uint64 bitmaps (32 bytes) + one
// pointer to the boxed Waker (8 bytes) + 24 bytes of padding, matching the
// original Rust layout (refcount, notified, completed, dropped, an 8-byte
// Arc<AtomicWaker>, and a 24-byte _unused tail).
type Page struct {
	refcount  atomic.Uint64
	notified  atomic.Uint64
	completed atomic.Uint64
	dropped   atomic.Uint64
	waker     unsafe.Pointer // *wakerHolder, set once at New, read-only thereafter
	_         [24]byte
}

func checkSlot(slot int) {
	if slot < 0 || slot >= NumSlots {
		panic("waker: slot out of range [0, 64)")
	}
}

// atomicOr performs an atomic fetch-then-OR, returning the prior value.
// sync/atomic has no bitwise primitive, so this is a CAS loop; Go's atomic
// operations are sequentially consistent, which subsumes the SeqCst
// ordering the design calls for.
func atomicOr(v *atomic.Uint64, mask uint64) uint64 {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old|mask) {
			return old
		}
	}
}

// atomicAndNot performs an atomic fetch-then-AND-NOT, returning the prior value.
func atomicAndNot(v *atomic.Uint64, mask uint64) uint64 {
	for {
		old := v.Load()
		if v.CompareAndSwap(old, old&^mask) {
			return old
		}
	}
}

// Notify atomically OR-sets the notified bit for slot and wakes the
// scheduler. The bit set happens-before the wake is observed.
func (p *Page) Notify(slot int) {
	checkSlot(slot)
	atomicOr(&p.notified, uint64(1)<<uint(slot))
	p.wake()
}

// TakeNotified atomically swaps the notified bitmap to zero, then masks out
// any bit whose slot is currently completed or dropped, and returns the
// result. A task that completed or was dropped between its notification and
// this harvest must not be polled again.
func (p *Page) TakeNotified() uint64 {
	notified := p.notified.Swap(0)
	notified &^= p.completed.Load()
	notified &^= p.dropped.Load()
	return notified
}

// MarkCompleted atomically OR-sets the completed bit. Does not wake.
func (p *Page) MarkCompleted(slot int) {
	checkSlot(slot)
	atomicOr(&p.completed, uint64(1)<<uint(slot))
}

// MarkDropped atomically OR-sets the dropped bit and wakes the scheduler, so
// it observes the drop and reclaims the slot.
func (p *Page) MarkDropped(slot int) {
	checkSlot(slot)
	atomicOr(&p.dropped, uint64(1)<<uint(slot))
	p.wake()
}

// HasCompleted atomically reads the completed bit for slot.
func (p *Page) HasCompleted(slot int) bool {
	checkSlot(slot)
	return p.completed.Load()&(uint64(1)<<uint(slot)) != 0
}

// WasDropped atomically reads the dropped bit for slot.
func (p *Page) WasDropped(slot int) bool {
	checkSlot(slot)
	return p.dropped.Load()&(uint64(1)<<uint(slot)) != 0
}

// TakeDropped atomically swaps the dropped bitmap to zero and returns the
// prior value.
func (p *Page) TakeDropped() uint64 {
	return p.dropped.Swap(0)
}

// Initialize sets the notified bit and clears the completed and dropped
// bits for slot. Used when a slot is assigned to a fresh task: the initial
// notification ensures the task is polled at least once.
func (p *Page) Initialize(slot int) {
	checkSlot(slot)
	mask := uint64(1) << uint(slot)
	atomicOr(&p.notified, mask)
	atomicAndNot(&p.completed, mask)
	atomicAndNot(&p.dropped, mask)
}

// Clear clears all three bits of slot. Used when a slot is reclaimed for
// reuse.
func (p *Page) Clear(slot int) {
	checkSlot(slot)
	mask := uint64(1) << uint(slot)
	atomicAndNot(&p.notified, mask)
	atomicAndNot(&p.completed, mask)
	atomicAndNot(&p.dropped, mask)
}

func (p *Page) wake() {
	h := (*wakerHolder)(atomic.LoadPointer(&p.waker))
	if h != nil && h.w != nil {
		h.w.Wake()
	}
}

// release decrements refcount by one; when it reaches zero, the page has no
// remaining Handle or Notifier and is torn down. Go's atomics are
// sequentially consistent, so the release-then-acquire-fence pairing the
// original design calls for is already implied by the CompareAndSwap/Add
// used throughout this package.
func (p *Page) release() {
	if p.refcount.Add(^uint64(0)) == 0 {
		p.teardown()
	}
}

// teardown drops the page's reference to its Waker. The Page's backing
// memory (the over-sized []byte allocated in New) is reclaimed by the
// garbage collector once this is the last reachable pointer into it; there
// is no explicit free in a GC'd runtime.
func (p *Page) teardown() {
	atomic.StorePointer(&p.waker, nil)
	wakerPins.Delete(p)
}
