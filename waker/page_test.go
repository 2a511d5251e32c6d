package waker

import (
	"sync/atomic"
	"testing"
)

// countingWaker counts how many times Wake is invoked.
type countingWaker struct {
	n atomic.Int64
}

func (w *countingWaker) Wake() { w.n.Add(1) }

// TestWakerPage_S1_Basic reproduces scenario S1 from the spec: wake 0 and
// 63, harvest, then wake 16 and harvest again.
func TestWakerPage_S1_Basic(t *testing.T) {
	w := &countingWaker{}
	h := New(w)
	defer h.Close()

	n0 := h.Notifier(0)
	n63 := h.Notifier(63)
	n16 := h.Notifier(16)
	defer n0.Drop()
	defer n63.Drop()
	defer n16.Drop()

	n0.WakeByRef()
	n63.WakeByRef()

	if got, want := h.Page().TakeNotified(), uint64(1)<<0|uint64(1)<<63; got != want {
		t.Fatalf("TakeNotified() = %#x, want %#x", got, want)
	}

	n16.WakeByRef()

	if got, want := h.Page().TakeNotified(), uint64(1)<<16; got != want {
		t.Fatalf("TakeNotified() = %#x, want %#x", got, want)
	}
}

// TestWakerPage_S2_CompletionMasking reproduces scenario S2: a completed
// slot's notification is masked out of TakeNotified.
func TestWakerPage_S2_CompletionMasking(t *testing.T) {
	h := New(&countingWaker{})
	defer h.Close()

	p := h.Page()
	p.Notify(5)
	p.MarkCompleted(5)

	if got := p.TakeNotified(); got != 0 {
		t.Fatalf("TakeNotified() = %#x, want 0", got)
	}
}

// TestWakerPage_S3_DropMasking reproduces scenario S3: a dropped slot's
// notification is masked out, take_dropped reports it exactly once.
func TestWakerPage_S3_DropMasking(t *testing.T) {
	h := New(&countingWaker{})
	defer h.Close()

	p := h.Page()
	p.Notify(7)
	p.MarkDropped(7)

	if got := p.TakeNotified(); got != 0 {
		t.Fatalf("TakeNotified() = %#x, want 0", got)
	}
	if got, want := p.TakeDropped(), uint64(1)<<7; got != want {
		t.Fatalf("TakeDropped() = %#x, want %#x", got, want)
	}
	if got := p.TakeDropped(); got != 0 {
		t.Fatalf("second TakeDropped() = %#x, want 0", got)
	}
}

// TestWakerPage_TakeNotifiedIdempotent verifies property 3: a second
// immediate TakeNotified call, with no intervening notify, returns 0.
func TestWakerPage_TakeNotifiedIdempotent(t *testing.T) {
	h := New(&countingWaker{})
	defer h.Close()

	p := h.Page()
	p.Notify(3)
	_ = p.TakeNotified()

	if got := p.TakeNotified(); got != 0 {
		t.Fatalf("second TakeNotified() = %#x, want 0", got)
	}
}

// TestWakerPage_Initialize verifies property 4: Initialize(i) followed by
// TakeNotified reports bit i set. Initialize also clears an earlier
// completion, so a completed slot that is initialized again is reported.
func TestWakerPage_Initialize(t *testing.T) {
	h := New(&countingWaker{})
	defer h.Close()

	p := h.Page()
	p.Initialize(9)

	if got, want := p.TakeNotified(), uint64(1)<<9; got != want {
		t.Fatalf("TakeNotified() = %#x, want %#x", got, want)
	}

	p.MarkCompleted(9)
	p.Initialize(9)
	if got, want := p.TakeNotified(), uint64(1)<<9; got != want {
		t.Fatalf("TakeNotified() after re-Initialize of a completed slot = %#x, want %#x", got, want)
	}
}

// TestWakerPage_Clear verifies Clear wipes all three bits for a slot.
func TestWakerPage_Clear(t *testing.T) {
	h := New(&countingWaker{})
	defer h.Close()

	p := h.Page()
	p.Notify(1)
	p.MarkCompleted(2)
	p.MarkDropped(3)

	p.Clear(1)
	p.Clear(2)
	p.Clear(3)

	if p.HasCompleted(2) {
		t.Fatal("HasCompleted(2) still true after Clear")
	}
	if p.WasDropped(3) {
		t.Fatal("WasDropped(3) still true after Clear")
	}
	if got := p.TakeNotified(); got != 0 {
		t.Fatalf("TakeNotified() after Clear = %#x, want 0", got)
	}
}

// TestWakerPage_NotifyWakes confirms Notify and MarkDropped invoke the
// scheduler wake primitive, while MarkCompleted does not.
func TestWakerPage_NotifyWakes(t *testing.T) {
	w := &countingWaker{}
	h := New(w)
	defer h.Close()

	p := h.Page()
	p.Notify(0)
	if got := w.n.Load(); got != 1 {
		t.Fatalf("wake count after Notify = %d, want 1", got)
	}

	p.MarkCompleted(1)
	if got := w.n.Load(); got != 1 {
		t.Fatalf("wake count after MarkCompleted = %d, want 1 (unchanged)", got)
	}

	p.MarkDropped(2)
	if got := w.n.Load(); got != 2 {
		t.Fatalf("wake count after MarkDropped = %d, want 2", got)
	}
}

// TestRefcountConservation reproduces property 5: constructing N notifiers
// and M handles, then dropping/closing them all, brings the refcount back
// to exactly 0, the point at which the page is torn down (Go has no
// explicit free to count).
func TestRefcountConservation(t *testing.T) {
	h := New(&countingWaker{})

	var clones []*Handle
	for i := 0; i < 5; i++ {
		clones = append(clones, h.Clone())
	}

	var notifiers []*Notifier
	for slot := 0; slot < 10; slot++ {
		notifiers = append(notifiers, h.Notifier(slot%NumSlots))
	}

	page := h.Page()
	if got, want := page.refcount.Load(), uint64(1+len(clones)+len(notifiers)); got != want {
		t.Fatalf("refcount = %d, want %d", got, want)
	}

	for _, n := range notifiers {
		n.Drop()
	}
	for _, c := range clones {
		c.Close()
	}
	h.Close()

	if got := page.refcount.Load(); got != 0 {
		t.Fatalf("refcount after full release = %d, want 0", got)
	}
}

// TestHandleDoubleClosePanics verifies closing a Handle twice is a
// programming error.
func TestHandleDoubleClosePanics(t *testing.T) {
	h := New(&countingWaker{})
	h.Close()

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on double Close")
		}
	}()
	h.Close()
}

// TestSlotOutOfRangePanics verifies out-of-range slot indices panic rather
// than silently corrupting an adjacent slot.
func TestSlotOutOfRangePanics(t *testing.T) {
	h := New(&countingWaker{})
	defer h.Close()

	for _, slot := range []int{-1, 64, 1000} {
		func() {
			defer func() {
				if recover() == nil {
					t.Fatalf("slot %d: expected panic", slot)
				}
			}()
			h.Page().Notify(slot)
		}()
	}
}
