package eps

import "encoding/binary"

// Cursor is a positional reader over a record payload. All multi-byte
// reads are big-endian, matching the EPS wire format.
//
// Reads past the end of the buffer do not fail: the missing tail is
// zero-filled and the cursor is marked short. This is how incomplete
// trailing data blocks in real files are recovered; the record decoder
// turns the short flag into Record.Truncated.
type Cursor struct {
	buf   []byte
	off   int
	short bool
}

func NewCursor(b []byte) *Cursor { return &Cursor{buf: b} }

// Offset is the number of bytes consumed so far, including zero-filled
// bytes past the end of the buffer.
func (c *Cursor) Offset() int { return c.off }

// Remaining is the number of real bytes left.
func (c *Cursor) Remaining() int {
	if c.off >= len(c.buf) {
		return 0
	}
	return len(c.buf) - c.off
}

// Short reports whether any read ran past the end of the buffer.
func (c *Cursor) Short() bool { return c.short }

// Take consumes n bytes. If fewer than n remain, the result is padded
// with zeros and the cursor is marked short.
func (c *Cursor) Take(n int) []byte {
	if n <= 0 {
		return nil
	}
	if c.off+n <= len(c.buf) {
		b := c.buf[c.off : c.off+n]
		c.off += n
		return b
	}
	out := make([]byte, n)
	if c.off < len(c.buf) {
		copy(out, c.buf[c.off:])
	}
	c.off += n
	c.short = true
	return out
}

// Skip advances the cursor without interpreting the bytes.
func (c *Cursor) Skip(n int) {
	if n <= 0 {
		return
	}
	c.off += n
	if c.off > len(c.buf) {
		c.short = true
	}
}

func (c *Cursor) U8() uint8   { return c.Take(1)[0] }
func (c *Cursor) I8() int8    { return int8(c.U8()) }
func (c *Cursor) U16() uint16 { return binary.BigEndian.Uint16(c.Take(2)) }
func (c *Cursor) I16() int16  { return int16(c.U16()) }
func (c *Cursor) U32() uint32 { return binary.BigEndian.Uint32(c.Take(4)) }
func (c *Cursor) I32() int32  { return int32(c.U32()) }

func (c *Cursor) Bool() bool { return c.U8() != 0 }

// VInt32 decodes the variable-scale integer used throughout the IASI
// layouts: a 1-byte signed power-of-ten exponent followed by a 4-byte
// unsigned mantissa, value = mantissa / 10^sf.
func (c *Cursor) VInt32() float64 {
	sf := c.I8()
	mantissa := c.U32()
	return float64(mantissa) / pow10(int(sf))
}

// ShortCDS decodes a short CDS date: day count and millisecond of day
// since the 2000-01-01 instrument epoch.
func (c *Cursor) ShortCDS() (day, msec int64) {
	d := c.U16()
	m := c.U32()
	return int64(d), int64(m)
}

// Pow10 computes 10^n for the signed scale exponents carried by the
// format. Product packages use it to invert raw-count scaling.
func Pow10(n int) float64 { return pow10(n) }

// pow10 avoids math.Pow for the small exponents used by scale factors;
// exact powers keep inverse-scale round trips bit-stable for the
// common cases.
func pow10(n int) float64 {
	switch {
	case n == 0:
		return 1
	case n > 0:
		v := 1.0
		for i := 0; i < n; i++ {
			v *= 10
		}
		return v
	default:
		v := 1.0
		for i := 0; i < -n; i++ {
			v /= 10
		}
		return v
	}
}
