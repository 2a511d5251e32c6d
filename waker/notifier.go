package waker

import "unsafe"

// Notifier is a lightweight handle identifying one slot of one Page,
// encoded as a single pointer into the page's 64-byte byte range: the low 6
// bits of the address give the slot index, and masking them off yields the
// page base. This is the entire reason Page is 64-byte aligned — a
// Notifier occupies no memory beyond the pointer itself.
//
// Each live Notifier contributes 1 to its Page's refcount. A Notifier
// supports the four operations a cooperative scheduler's wake ABI needs:
// Clone, Wake (consuming), WakeByRef, and Drop.
type Notifier struct {
	ptr unsafe.Pointer
}

// decode recovers the page base and slot index from a notifier pointer.
// Exact because a Page is exactly 64 bytes wide and 64-byte aligned:
// forward = bytes to the next 64-byte boundary. If forward == 0, ptr is
// already page-aligned (slot 0, base = ptr). Otherwise slot = 64 - forward
// and base = ptr - slot.
func decode(ptr unsafe.Pointer) (*Page, int) {
	addr := uintptr(ptr)
	forward := (-addr) & (pageAlign - 1)
	if forward == 0 {
		return (*Page)(ptr), 0
	}
	slot := int(pageAlign - forward)
	return (*Page)(unsafe.Pointer(addr - uintptr(slot))), slot
}

// Clone increments the underlying page's refcount and returns a new
// Notifier for the same slot.
func (n *Notifier) Clone() *Notifier {
	page, _ := decode(n.ptr)
	page.refcount.Add(1)
	return &Notifier{ptr: n.ptr}
}

// WakeByRef resolves the page and slot this Notifier identifies and calls
// Page.Notify, without consuming the Notifier's reference.
func (n *Notifier) WakeByRef() {
	page, slot := decode(n.ptr)
	page.Notify(slot)
}

// Wake is WakeByRef followed by Drop: it notifies the slot and then
// releases this Notifier's reference, matching the "wake-consuming"
// operation of the scheduler's wake ABI.
func (n *Notifier) Wake() {
	n.WakeByRef()
	n.Drop()
}

// Drop releases this Notifier's reference to its page, deallocating the
// page if this was the last outstanding Handle or Notifier.
func (n *Notifier) Drop() {
	page, _ := decode(n.ptr)
	page.release()
}

// Slot returns the slot index this Notifier identifies, without consuming
// or cloning it.
func (n *Notifier) Slot() int {
	_, slot := decode(n.ptr)
	return slot
}
