package eps

import (
	"fmt"
	"math"
)

// Record is one decoded GRH-framed record: an ordered mapping from
// field name to decoded value. Records are immutable once built.
//
// Truncated is set when the payload ended before the layout's declared
// extent; the missing tail of every affected field is zero-filled and
// the record is still usable. Callers decide whether a truncated
// record's fields are acceptable.
type Record struct {
	GRH       GRH
	Truncated bool

	fields []*Value
	byName map[string]*Value
}

// DecodeRecord decodes payload against the given field specs, in
// declared order. Later specs may reference earlier fields for their
// extents. A payload shorter than the layout clips and zero-fills
// rather than failing; see Record.Truncated.
func DecodeRecord(grh GRH, payload []byte, specs []FieldSpec) (*Record, error) {
	r := &Record{
		GRH:    grh,
		fields: make([]*Value, 0, len(specs)),
		byName: make(map[string]*Value, len(specs)),
	}
	cur := NewCursor(payload)
	for _, spec := range specs {
		shape, err := r.resolveShape(spec)
		if err != nil {
			return nil, err
		}
		v := decodeField(cur, spec, shape)
		r.fields = append(r.fields, v)
		r.byName[spec.Name] = v
	}
	r.Truncated = cur.Short()
	return r, nil
}

func (r *Record) resolveShape(spec FieldSpec) ([]int, error) {
	if len(spec.Shape) == 0 {
		return []int{1}, nil
	}
	shape := make([]int, len(spec.Shape))
	for i, d := range spec.Shape {
		if d.Field == "" {
			if d.N < 0 {
				return nil, fmt.Errorf("field %q: negative extent %d", spec.Name, d.N)
			}
			shape[i] = d.N
			continue
		}
		dep, ok := r.byName[d.Field]
		if !ok {
			return nil, fmt.Errorf("%w: field %q depends on undeclared field %q", ErrFieldNotPresent, spec.Name, d.Field)
		}
		n, ok := dep.Int()
		if !ok || n < 0 {
			return nil, fmt.Errorf("field %q: length field %q is not a usable count", spec.Name, d.Field)
		}
		shape[i] = int(n)
	}
	return shape, nil
}

func decodeField(cur *Cursor, spec FieldSpec, shape []int) *Value {
	n := 1
	for _, d := range shape {
		n *= d
	}
	v := &Value{Spec: spec, Shape: shape}

	switch spec.Type {
	case TypeBool:
		v.Bools = make([]bool, n)
		for i := range v.Bools {
			v.Bools[i] = cur.Bool()
		}
	case TypeVI4:
		v.Floats = make([]float64, n)
		for i := range v.Floats {
			f := cur.VInt32()
			if spec.Scaled {
				f /= pow10(spec.Scale)
			}
			v.Floats[i] = f
		}
	case TypeShortCDS:
		v.Ints = make([]int64, 2*n)
		for i := 0; i < n; i++ {
			day, msec := cur.ShortCDS()
			v.Ints[2*i] = day
			v.Ints[2*i+1] = msec
		}
		v.Shape = append(shape, 2)
	case TypeBitfield:
		v.Bytes = cur.Take(n * spec.Width)
	default:
		if spec.Scaled {
			v.Floats = make([]float64, n)
			div := pow10(spec.Scale)
			for i := range v.Floats {
				raw, sentinel := readInt(cur, spec.Type)
				if sentinel {
					v.Floats[i] = math.NaN()
					continue
				}
				v.Floats[i] = float64(raw) / div
			}
		} else {
			v.Ints = make([]int64, n)
			for i := range v.Ints {
				raw, sentinel := readInt(cur, spec.Type)
				v.Ints[i] = raw
				if sentinel {
					if v.Missing == nil {
						v.Missing = make([]bool, n)
					}
					v.Missing[i] = true
				}
			}
		}
	}
	return v
}

// readInt reads one integer element and reports whether it carried the
// wire sentinel for "value missing" (max unsigned / min signed, fields
// wider than one byte only).
func readInt(cur *Cursor, t ElemType) (int64, bool) {
	switch t {
	case TypeI1:
		return int64(cur.I8()), false
	case TypeU1:
		return int64(cur.U8()), false
	case TypeI2:
		raw := cur.I16()
		return int64(raw), raw == math.MinInt16
	case TypeU2:
		raw := cur.U16()
		return int64(raw), raw == math.MaxUint16
	case TypeI4:
		raw := cur.I32()
		return int64(raw), raw == math.MinInt32
	case TypeU4:
		raw := cur.U32()
		return int64(raw), raw == math.MaxUint32
	default:
		return 0, false
	}
}

// Has reports whether the record defines the named field.
func (r *Record) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// Names lists the record's fields in declared order.
func (r *Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Spec.Name
	}
	return names
}

// Field returns the named decoded value.
func (r *Record) Field(name string) (*Value, error) {
	v, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrFieldNotPresent, name)
	}
	return v, nil
}

// Floats returns the named field as float64 elements, converting
// integer and boolean fields as needed. Integer elements that carried
// the wire sentinel come back as NaN.
func (r *Record) Floats(name string) ([]float64, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	switch {
	case v.Floats != nil:
		return v.Floats, nil
	case v.Ints != nil:
		out := make([]float64, len(v.Ints))
		for i, n := range v.Ints {
			if v.Missing != nil && v.Missing[i] {
				out[i] = math.NaN()
				continue
			}
			out[i] = float64(n)
		}
		return out, nil
	case v.Bools != nil:
		out := make([]float64, len(v.Bools))
		for i, b := range v.Bools {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q has no numeric representation", name)
	}
}

// Ints returns the named field's integer elements.
func (r *Record) Ints(name string) ([]int64, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	switch {
	case v.Ints != nil:
		return v.Ints, nil
	case v.Bools != nil:
		out := make([]int64, len(v.Bools))
		for i, b := range v.Bools {
			if b {
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("field %q is not integer typed", name)
	}
}

// Bools returns the named boolean field.
func (r *Record) Bools(name string) ([]bool, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	if v.Bools == nil {
		return nil, fmt.Errorf("field %q is not boolean typed", name)
	}
	return v.Bools, nil
}

// Bitfield returns the raw flag bytes of the named bitfield.
func (r *Record) Bitfield(name string) ([]byte, error) {
	v, err := r.Field(name)
	if err != nil {
		return nil, err
	}
	if v.Spec.Type != TypeBitfield {
		return nil, fmt.Errorf("field %q is not a bitfield", name)
	}
	return v.Bytes, nil
}

// Int returns the named field as a scalar integer.
func (r *Record) Int(name string) (int64, error) {
	v, err := r.Field(name)
	if err != nil {
		return 0, err
	}
	n, ok := v.Int()
	if !ok {
		return 0, fmt.Errorf("field %q is not scalar integer", name)
	}
	return n, nil
}

// Float returns the named field as a scalar float.
func (r *Record) Float(name string) (float64, error) {
	fs, err := r.Floats(name)
	if err != nil {
		return 0, err
	}
	if len(fs) == 0 {
		return 0, fmt.Errorf("field %q is empty", name)
	}
	return fs[0], nil
}

// LayoutSize is the encoded byte extent of the given specs once all
// dependent dimensions resolve against this record's values. It is
// what the declared record size is validated against.
func (r *Record) LayoutSize() int {
	total := 0
	for _, v := range r.fields {
		n := 1
		for _, d := range v.Shape {
			n *= d
		}
		if v.Spec.Type == TypeShortCDS {
			// Shape gained a trailing pair axis during decode.
			n /= 2
		}
		total += n * v.Spec.elemSize()
	}
	return total
}
