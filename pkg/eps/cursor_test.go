package eps

import (
	"math"
	"testing"
)

func TestCursorReadsBigEndian(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{
		0x12,
		0x01, 0x02,
		0x00, 0x00, 0x01, 0x00,
		0xFF, 0xFE,
	})
	if got := c.U8(); got != 0x12 {
		t.Fatalf("u8: got %#x", got)
	}
	if got := c.U16(); got != 0x0102 {
		t.Fatalf("u16: got %#x", got)
	}
	if got := c.U32(); got != 256 {
		t.Fatalf("u32: got %d", got)
	}
	if got := c.I16(); got != -2 {
		t.Fatalf("i16: got %d", got)
	}
	if c.Short() {
		t.Fatalf("cursor should not be short after exact reads")
	}
	if c.Remaining() != 0 {
		t.Fatalf("remaining: got %d", c.Remaining())
	}
}

func TestCursorZeroFillsPastEnd(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{0xAB})
	got := c.Take(4)
	want := []byte{0xAB, 0, 0, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("take: got %v want %v", got, want)
		}
	}
	if !c.Short() {
		t.Fatalf("reading past the end must mark the cursor short")
	}
	if c.Offset() != 4 {
		t.Fatalf("offset should count zero-filled bytes, got %d", c.Offset())
	}
}

func TestCursorVInt32(t *testing.T) {
	t.Parallel()

	// Exponent 2, mantissa 12345: 123.45.
	c := NewCursor([]byte{0x02, 0x00, 0x00, 0x30, 0x39})
	if got := c.VInt32(); got != 123.45 {
		t.Fatalf("vint: got %v", got)
	}

	// Negative exponent multiplies instead of divides.
	c = NewCursor([]byte{0xFF, 0x00, 0x00, 0x00, 0x07})
	if got := c.VInt32(); got != 70 {
		t.Fatalf("vint negative exponent: got %v", got)
	}
}

func TestCursorShortCDS(t *testing.T) {
	t.Parallel()

	c := NewCursor([]byte{0x1C, 0x84, 0x02, 0x93, 0x7F, 0x00})
	day, msec := c.ShortCDS()
	if day != 7300 || msec != 43_220_736 {
		t.Fatalf("short cds: got day=%d msec=%d", day, msec)
	}
}

func TestPow10(t *testing.T) {
	t.Parallel()

	cases := map[int]float64{0: 1, 1: 10, 5: 100000, -2: 0.01}
	for n, want := range cases {
		if got := pow10(n); math.Abs(got-want) > 1e-12 {
			t.Fatalf("pow10(%d): got %v want %v", n, got, want)
		}
	}
}
