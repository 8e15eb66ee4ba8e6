package buf

import "testing"

func TestEndianHelpers(t *testing.T) {
	data := []byte{0x01, 0x23, 0x45, 0x67, 0x89, 0xab, 0xcd, 0xef}

	if got := U64LE(data); got != 0xefcdab8967452301 {
		t.Fatalf("U64LE = 0x%x, want 0xefcdab8967452301", got)
	}

	short := []byte{0xAA}
	if U64LE(short) != 0 {
		t.Fatalf("short reads should return 0")
	}
}

func TestPutU64LE(t *testing.T) {
	b := make([]byte, 8)
	if !PutU64LE(b, 0x1122334455667788) {
		t.Fatalf("PutU64LE should succeed on 8-byte buffer")
	}
	if b[0] != 0x88 || b[7] != 0x11 {
		t.Fatalf("PutU64LE wrote wrong byte order: % x", b)
	}
	if got := U64LE(b); got != 0x1122334455667788 {
		t.Fatalf("round trip = 0x%x", got)
	}
	if PutU64LE(make([]byte, 7), 1) {
		t.Fatalf("PutU64LE should reject short buffers")
	}
}
