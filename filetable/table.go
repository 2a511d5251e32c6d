package filetable

import "sync"

// Kind tags what a descriptor was allocated for.
type Kind int

const (
	// UdpSocket tags a descriptor allocated for a UDP socket.
	UdpSocket Kind = iota
)

// Descriptor is an opaque file-descriptor-like handle minted by Table.
type Descriptor int

// Table allocates and frees Descriptors, recycling freed ones. Safe for
// concurrent use, though under the single-threaded cooperative scheduling
// model described in the udp package, it is only ever touched from the
// scheduler goroutine.
type Table struct {
	mu   sync.Mutex
	next Descriptor
	free []Descriptor
	kind map[Descriptor]Kind
}

// New constructs an empty Table.
func New() *Table {
	return &Table{kind: make(map[Descriptor]Kind)}
}

// Alloc mints a Descriptor tagged with kind, reusing a previously freed one
// if available.
func (t *Table) Alloc(kind Kind) Descriptor {
	t.mu.Lock()
	defer t.mu.Unlock()

	var d Descriptor
	if n := len(t.free); n > 0 {
		d = t.free[n-1]
		t.free = t.free[:n-1]
	} else {
		d = t.next
		t.next++
	}
	t.kind[d] = kind
	return d
}

// Free releases d, making it available for reuse. Freeing an unallocated
// descriptor is a no-op.
func (t *Table) Free(d Descriptor) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.kind[d]; !ok {
		return
	}
	delete(t.kind, d)
	t.free = append(t.free, d)
}

// Kind reports the kind d was allocated with, and whether d is currently
// allocated.
func (t *Table) Kind(d Descriptor) (Kind, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	k, ok := t.kind[d]
	return k, ok
}
