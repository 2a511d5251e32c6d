package waker

import (
	"testing"
	"unsafe"
)

// Test_PageSize verifies the load-bearing invariant: sizeof(Page) == 64.
func Test_PageSize(t *testing.T) {
	var p Page
	if got := unsafe.Sizeof(p); got != pageSize {
		t.Fatalf("sizeof(Page) = %d, want %d", got, pageSize)
	}
}

// Test_PageAllocationAligned verifies every Page minted by New lands on a
// 64-byte boundary, since the slot-notifier encoding depends on it.
func Test_PageAllocationAligned(t *testing.T) {
	for i := 0; i < 64; i++ {
		h := New(wakeFunc(func() {}))
		addr := uintptr(unsafe.Pointer(h.Page()))
		if addr%pageAlign != 0 {
			t.Fatalf("iteration %d: page address %#x not 64-byte aligned", i, addr)
		}
		h.Close()
	}
}

// Test_SlotAddressRoundTrip verifies property 6 from the testable
// properties list: for every slot in [0, 64), decoding base+slot yields
// (base, slot).
func Test_SlotAddressRoundTrip(t *testing.T) {
	h := New(wakeFunc(func() {}))
	defer h.Close()

	for slot := 0; slot < NumSlots; slot++ {
		n := h.Notifier(slot)
		gotPage, gotSlot := decode(n.ptr)
		if gotPage != h.Page() {
			t.Fatalf("slot %d: decoded page %p, want %p", slot, gotPage, h.Page())
		}
		if gotSlot != slot {
			t.Fatalf("slot %d: decoded slot %d", slot, gotSlot)
		}
		n.Drop()
	}
}

type wakeFunc func()

func (f wakeFunc) Wake() { f() }
