// Package epstest builds small synthetic EPS native files for tests.
// Builders assemble GRH-framed records around a minimal MPHR so that
// decoder tests do not depend on multi-hundred-megabyte real products.
package epstest

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/samcharles93/epsio/pkg/eps"
)

// Payload accumulates big-endian field bytes for one record body.
type Payload struct {
	buf []byte
}

func NewPayload() *Payload { return &Payload{} }

func (p *Payload) Bytes() []byte { return p.buf }

func (p *Payload) Raw(b []byte) *Payload {
	p.buf = append(p.buf, b...)
	return p
}

func (p *Payload) U8(v uint8) *Payload {
	p.buf = append(p.buf, v)
	return p
}

func (p *Payload) I8(v int8) *Payload { return p.U8(uint8(v)) }

func (p *Payload) Bool(v bool) *Payload {
	if v {
		return p.U8(1)
	}
	return p.U8(0)
}

func (p *Payload) U16(v uint16) *Payload {
	p.buf = binary.BigEndian.AppendUint16(p.buf, v)
	return p
}

func (p *Payload) I16(v int16) *Payload { return p.U16(uint16(v)) }

func (p *Payload) U32(v uint32) *Payload {
	p.buf = binary.BigEndian.AppendUint32(p.buf, v)
	return p
}

func (p *Payload) I32(v int32) *Payload { return p.U32(uint32(v)) }

// VInt writes the 5-byte scaled integer form: a signed power-of-ten
// exponent followed by an unsigned 32-bit mantissa.
func (p *Payload) VInt(scale int8, mantissa uint32) *Payload {
	return p.I8(scale).U32(mantissa)
}

// ShortCDS writes a day/millisecond timestamp pair.
func (p *Payload) ShortCDS(day uint16, msec uint32) *Payload {
	return p.U16(day).U32(msec)
}

// RepeatU16 writes the same 16-bit value n times.
func (p *Payload) RepeatU16(v uint16, n int) *Payload {
	for range n {
		p.U16(v)
	}
	return p
}

// RepeatI16 writes the same signed 16-bit value n times.
func (p *Payload) RepeatI16(v int16, n int) *Payload {
	for range n {
		p.I16(v)
	}
	return p
}

// RepeatU32 writes the same 32-bit value n times.
func (p *Payload) RepeatU32(v uint32, n int) *Payload {
	for range n {
		p.U32(v)
	}
	return p
}

// RepeatI32 writes the same signed 32-bit value n times.
func (p *Payload) RepeatI32(v int32, n int) *Payload {
	for range n {
		p.I32(v)
	}
	return p
}

// RepeatU8 writes the same byte n times.
func (p *Payload) RepeatU8(v uint8, n int) *Payload {
	for range n {
		p.U8(v)
	}
	return p
}

// RepeatI8 writes the same signed byte n times.
func (p *Payload) RepeatI8(v int8, n int) *Payload {
	for range n {
		p.I8(v)
	}
	return p
}

// Pad writes n zero bytes.
func (p *Payload) Pad(n int) *Payload { return p.RepeatU8(0, n) }

type record struct {
	class    eps.RecordClass
	subclass uint8
	version  uint8
	group    uint8
	payload  []byte
	startDay uint16
	startMs  uint32
	stopDay  uint16
	stopMs   uint32
}

// Builder assembles a complete native file: MPHR first, then header
// records in insertion order, an optional IPR, then the MDRs.
type Builder struct {
	mphr    map[string]string
	headers []record
	mdrs    []record
	withIPR bool
	// mphrOverride replaces the generated MPHR payload when set.
	mphrOverride []byte
}

// NewBuilder starts a file for the given PRODUCT_TYPE ("SND", "PCS",
// "PCR", or an instrument level-1 type).
func NewBuilder(productType string) *Builder {
	return &Builder{
		mphr: map[string]string{
			"PRODUCT_NAME":         "IASI_xxx_1C_M02",
			"INSTRUMENT_ID":        "IASI",
			"PRODUCT_TYPE":         productType,
			"PROCESSING_LEVEL":     "1C",
			"SPACECRAFT_ID":        "M02",
			"FORMAT_MAJOR_VERSION": "11",
			"FORMAT_MINOR_VERSION": "0",
		},
	}
}

// SetMPHR sets or overrides one MPHR line.
func (b *Builder) SetMPHR(name, value string) *Builder {
	b.mphr[name] = value
	return b
}

// SetMPHRPayload replaces the whole generated MPHR body, for tests
// that need a malformed header record.
func (b *Builder) SetMPHRPayload(payload []byte) *Builder {
	b.mphrOverride = payload
	return b
}

// WithIPR emits an internal pointer record targeting the first MDR.
func (b *Builder) WithIPR() *Builder {
	b.withIPR = true
	return b
}

// AddHeaderRecord appends a non-MDR record after the MPHR.
func (b *Builder) AddHeaderRecord(class eps.RecordClass, subclass, version uint8, payload []byte) *Builder {
	b.headers = append(b.headers, record{class: class, subclass: subclass, version: version, payload: payload})
	return b
}

// AddMDR appends a measurement record.
func (b *Builder) AddMDR(subclass, version uint8, payload []byte) *Builder {
	b.mdrs = append(b.mdrs, record{class: eps.ClassMDR, subclass: subclass, version: version, payload: payload})
	return b
}

// AddMDRAt appends a measurement record with explicit sensing times.
func (b *Builder) AddMDRAt(subclass, version uint8, payload []byte, day uint16, msec uint32) *Builder {
	b.mdrs = append(b.mdrs, record{
		class: eps.ClassMDR, subclass: subclass, version: version,
		payload:  payload,
		startDay: day, startMs: msec,
		stopDay: day, stopMs: msec,
	})
	return b
}

func frame(r record) []byte {
	g := eps.GRH{
		Class:           r.class,
		InstrumentGroup: r.group,
		Subclass:        r.subclass,
		SubclassVersion: r.version,
		RecordSize:      uint32(eps.GRHSize + len(r.payload)),
		StartDay:        r.startDay,
		StartMsec:       r.startMs,
		StopDay:         r.stopDay,
		StopMsec:        r.stopMs,
	}
	return append(g.Encode(), r.payload...)
}

func (b *Builder) mphrPayload() []byte {
	if b.mphrOverride != nil {
		return b.mphrOverride
	}
	lines := b.mphr
	if _, ok := lines["TOTAL_MDR"]; !ok {
		lines["TOTAL_MDR"] = fmt.Sprintf("%d", len(b.mdrs))
	}
	names := make([]string, 0, len(lines))
	for name := range lines {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%-30s= %s\n", name, lines[name])
	}
	return []byte(sb.String())
}

// Build assembles the file bytes.
func (b *Builder) Build() []byte {
	records := []record{{class: eps.ClassMPHR, version: 2, payload: b.mphrPayload()}}
	records = append(records, b.headers...)

	if b.withIPR && len(b.mdrs) > 0 {
		// Two passes: the IPR body holds the absolute offset of the
		// first MDR, which depends on the IPR's own framed size.
		offset := 0
		for _, r := range records {
			offset += eps.GRHSize + len(r.payload)
		}
		offset += eps.GRHSize + 6
		ipr := NewPayload().
			U8(uint8(eps.ClassMDR)).
			U8(b.mdrs[0].group).
			U32(uint32(offset)).
			Bytes()
		records = append(records, record{class: eps.ClassIPR, payload: ipr})
	}
	records = append(records, b.mdrs...)

	var out []byte
	for _, r := range records {
		out = append(out, frame(r)...)
	}
	return out
}

// WriteFile builds the file under t.TempDir() and returns its path.
func WriteFile(t *testing.T, b *Builder, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, b.Build(), 0o644); err != nil {
		t.Fatalf("write synthetic product: %v", err)
	}
	return path
}

// WriteBytes dumps raw bytes to a temp file, for truncation tests.
func WriteBytes(t *testing.T, data []byte, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write synthetic product: %v", err)
	}
	return path
}

// F64 converts through float32 precision, matching the tolerance used
// when comparing reconstructed radiances.
func F64(v float64) float64 { return float64(float32(v)) }

// NearEqual reports whether two floats agree within rel relative
// tolerance, treating NaN as equal to NaN.
func NearEqual(a, b, rel float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	if a == b {
		return true
	}
	scale := math.Max(math.Abs(a), math.Abs(b))
	return math.Abs(a-b) <= rel*scale
}
