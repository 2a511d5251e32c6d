package waker

import (
	"sync/atomic"
	"unsafe"
)

// Handle is an owning reference to a Page: Clone increments the page's
// refcount, Close decrements it, and the page is torn down on the last
// release. The zero Handle is not valid; obtain one from New.
type Handle struct {
	page   *Page
	closed atomic.Bool
}

// New allocates a zeroed, 64-byte-aligned Page with refcount 1, wired to
// wake via w, and returns the owning Handle.
//
// Go's allocator does not guarantee 64-byte alignment for an ordinary
// allocation (only for the largest scalar field, typically 8 bytes), so New
// carves the Page out of an over-sized raw byte slice at a manually
// computed 64-byte-aligned offset — the same thing the original Rust
// implementation does with a custom Layout, adapted to Go's allocator
// model. If the computed address is somehow not aligned, allocation fails
// loudly (panics) rather than silently violating the slot-notifier
// encoding's load-bearing invariant.
func New(w Waker) *Handle {
	if w == nil {
		panic("waker: New requires a non-nil Waker")
	}

	raw := make([]byte, pageSize+pageAlign-1)
	base := unsafe.Pointer(&raw[0])
	offset := (pageAlign - (uintptr(base) % pageAlign)) % pageAlign
	p := (*Page)(unsafe.Pointer(uintptr(base) + offset))

	if uintptr(unsafe.Pointer(p))%pageAlign != 0 {
		panic("waker: failed to allocate a 64-byte-aligned page")
	}
	if unsafe.Sizeof(*p) != pageSize {
		panic("waker: Page layout drifted from 64 bytes")
	}

	p.refcount.Store(1)
	holder := &wakerHolder{w: w}
	wakerPins.Store(p, holder)
	p.waker = unsafe.Pointer(holder)

	return &Handle{page: p}
}

// Page returns the underlying Page. The Handle must outlive any use of the
// returned pointer through this accessor unless the caller holds another
// reference (e.g. a cloned Handle or a live Notifier).
func (h *Handle) Page() *Page {
	return h.page
}

// Clone returns a new Handle to the same Page, incrementing its refcount.
func (h *Handle) Clone() *Handle {
	h.page.refcount.Add(1)
	return &Handle{page: h.page}
}

// Close releases this Handle's reference, deallocating the Page if it was
// the last outstanding Handle or Notifier. Closing the same Handle twice is
// a programming error and panics.
func (h *Handle) Close() {
	if !h.closed.CompareAndSwap(false, true) {
		panic("waker: Handle closed twice")
	}
	h.page.release()
}

// Notifier mints a fresh slot notifier for slot, bumping the page's
// refcount by one. The returned Notifier is a single machine pointer; the
// caller is expected to hand it to a scheduler's task-polling ABI (see
// package scheduler) and treat the refcount it carries as logically owned
// by that ABI from this point on.
func (h *Handle) Notifier(slot int) *Notifier {
	checkSlot(slot)
	h.page.refcount.Add(1)
	ptr := unsafe.Pointer(uintptr(unsafe.Pointer(h.page)) + uintptr(slot))
	return &Notifier{ptr: ptr}
}
