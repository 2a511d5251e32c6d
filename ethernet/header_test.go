package ethernet

import "testing"

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		Dst:       MAC{0x01, 0x02, 0x03, 0x04, 0x05, 0x06},
		Src:       MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff},
		EtherType: EtherTypeIPv4,
	}
	buf := make([]byte, HeaderLen)
	if _, err := h.MarshalTo(buf); err != nil {
		t.Fatalf("MarshalTo() error = %v", err)
	}
	got, n, err := Parse(buf)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if n != HeaderLen {
		t.Fatalf("Parse() consumed %d bytes, want %d", n, HeaderLen)
	}
	if got != h {
		t.Fatalf("Parse() = %+v, want %+v", got, h)
	}
}

func TestParseRejectsShortFrame(t *testing.T) {
	if _, _, err := Parse(make([]byte, 4)); err == nil {
		t.Fatal("expected error for short frame")
	}
}
