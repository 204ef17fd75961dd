package epstest

import (
	"testing"

	"github.com/samcharles93/epsio/pkg/eps"
)

// BuildRecordPayload walks a layout and emits every field in wire
// order, zero-filled unless covered by scalars or set. scalars supplies
// values for scalar fields (length counters in particular); dependent
// dimensions resolve against it. Setters in set must append exactly the
// field's wire size.
func BuildRecordPayload(t *testing.T, specs []eps.FieldSpec, scalars map[string]int64, set map[string]func(*Payload)) []byte {
	t.Helper()
	p := NewPayload()
	for _, spec := range specs {
		n := 1
		for _, d := range spec.Shape {
			if d.Field != "" {
				v, ok := scalars[d.Field]
				if !ok {
					t.Fatalf("field %s depends on %s, which has no scalar value", spec.Name, d.Field)
				}
				n *= int(v)
				continue
			}
			n *= d.N
		}
		size := spec.Type.Size()
		if spec.Type == eps.TypeBitfield {
			size = spec.Width
		}
		want := len(p.buf) + n*size

		switch fn, ok := set[spec.Name]; {
		case ok:
			fn(p)
		default:
			if v, scalar := scalars[spec.Name]; scalar && n == 1 {
				putScalar(t, p, spec.Type, v)
			} else {
				p.Pad(n * size)
			}
		}
		if len(p.buf) != want {
			t.Fatalf("field %s: wrote %d bytes, wire size is %d", spec.Name, len(p.buf)-(want-n*size), n*size)
		}
	}
	return p.buf
}

func putScalar(t *testing.T, p *Payload, typ eps.ElemType, v int64) {
	t.Helper()
	switch typ {
	case eps.TypeBool:
		p.Bool(v != 0)
	case eps.TypeU1:
		p.U8(uint8(v))
	case eps.TypeI1:
		p.I8(int8(v))
	case eps.TypeU2:
		p.U16(uint16(v))
	case eps.TypeI2:
		p.I16(int16(v))
	case eps.TypeU4:
		p.U32(uint32(v))
	case eps.TypeI4:
		p.I32(int32(v))
	default:
		t.Fatalf("no scalar encoding for %s", typ)
	}
}
