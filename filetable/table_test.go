package filetable

import "testing"

func TestAllocFreeReuse(t *testing.T) {
	tb := New()

	a := tb.Alloc(UdpSocket)
	b := tb.Alloc(UdpSocket)
	if a == b {
		t.Fatalf("Alloc returned duplicate descriptor %v", a)
	}

	tb.Free(a)
	c := tb.Alloc(UdpSocket)
	if c != a {
		t.Fatalf("Alloc after Free = %v, want reused descriptor %v", c, a)
	}
}

func TestKindLookup(t *testing.T) {
	tb := New()
	d := tb.Alloc(UdpSocket)

	k, ok := tb.Kind(d)
	if !ok || k != UdpSocket {
		t.Fatalf("Kind(%v) = (%v, %v), want (UdpSocket, true)", d, k, ok)
	}

	tb.Free(d)
	if _, ok := tb.Kind(d); ok {
		t.Fatal("Kind() reports freed descriptor as allocated")
	}
}
