package eps

import "fmt"

// ElemType enumerates the wire encodings a field element can have.
type ElemType uint8

const (
	TypeBool     ElemType = iota // 1-byte boolean
	TypeI1                       // signed 8-bit
	TypeI2                       // signed 16-bit
	TypeI4                       // signed 32-bit
	TypeU1                       // unsigned 8-bit
	TypeU2                       // unsigned 16-bit
	TypeU4                       // unsigned 32-bit
	TypeVI4                      // 1-byte scale exponent + 4-byte mantissa
	TypeShortCDS                 // u16 day + u32 millisecond of day
	TypeBitfield                 // opaque flag bytes, width per element
)

func (t ElemType) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeI1:
		return "i1"
	case TypeI2:
		return "i2"
	case TypeI4:
		return "i4"
	case TypeU1:
		return "u1"
	case TypeU2:
		return "u2"
	case TypeU4:
		return "u4"
	case TypeVI4:
		return "vi4"
	case TypeShortCDS:
		return "short-cds"
	case TypeBitfield:
		return "bitfield"
	default:
		return fmt.Sprintf("elemtype(%d)", uint8(t))
	}
}

// Size is the encoded byte width of one element. Bitfield widths are
// per-field, not per-type, so they are carried on the FieldSpec.
func (t ElemType) Size() int {
	switch t {
	case TypeBool, TypeI1, TypeU1:
		return 1
	case TypeI2, TypeU2:
		return 2
	case TypeI4, TypeU4:
		return 4
	case TypeVI4:
		return 5
	case TypeShortCDS:
		return 6
	default:
		return 0
	}
}

// Dim is one axis of a field's shape. Either N is a fixed extent, or
// Field names an earlier scalar field of the same record whose decoded
// value supplies the extent (e.g. the NERR-counted covariance blocks
// in the L2 MDR).
type Dim struct {
	N     int
	Field string
}

// Fixed builds a static dimension.
func Fixed(n int) Dim { return Dim{N: n} }

// FromField builds a dimension resolved from an earlier field's value.
func FromField(name string) Dim { return Dim{Field: name} }

// FieldSpec declares one field of a record layout: its wire type, its
// shape and an optional decimal scale exponent. Specs are immutable
// and decoded strictly in declared order, since later shapes may
// depend on earlier values.
type FieldSpec struct {
	Name  string
	Type  ElemType
	Shape []Dim

	// Width is the byte width of one element for TypeBitfield.
	Width int

	// Scale divides the raw integer by 10^Scale when Scaled is set.
	// The exponent may be negative.
	Scale  int
	Scaled bool
}

// Field is a convenience constructor for an unscaled field.
func Field(name string, t ElemType, dims ...Dim) FieldSpec {
	return FieldSpec{Name: name, Type: t, Shape: dims}
}

// ScaledField builds a field whose raw integers are divided by
// 10^scale on decode.
func ScaledField(name string, t ElemType, scale int, dims ...Dim) FieldSpec {
	return FieldSpec{Name: name, Type: t, Shape: dims, Scale: scale, Scaled: true}
}

// BitfieldSpec builds an opaque flag field of width bytes per element.
func BitfieldSpec(name string, width int, dims ...Dim) FieldSpec {
	return FieldSpec{Name: name, Type: TypeBitfield, Shape: dims, Width: width}
}

func (s FieldSpec) elemSize() int {
	if s.Type == TypeBitfield {
		return s.Width
	}
	return s.Type.Size()
}

// Value is one decoded field. Exactly one of the payload slices is
// populated, according to the field's element type:
//
//   - Bools:  TypeBool
//   - Ints:   integer types without a scale factor, and TypeShortCDS
//     (flattened day,msec pairs)
//   - Floats: scaled integer types and TypeVI4; wire sentinels decode
//     to NaN
//   - Bytes:  TypeBitfield, Width bytes per element
//
// Shape holds the resolved extents in row-major order; scalars have an
// all-ones shape.
//
// Missing flags the elements of an unscaled integer field that carried
// the wire sentinel (max unsigned or min signed, fields wider than one
// byte). Ints keeps the raw sentinel value; float views map flagged
// elements to NaN. Missing is nil when every element is present.
type Value struct {
	Spec  FieldSpec
	Shape []int

	Bools   []bool
	Ints    []int64
	Floats  []float64
	Bytes   []byte
	Missing []bool
}

// Len is the number of elements in the value.
func (v *Value) Len() int {
	n := 1
	for _, d := range v.Shape {
		n *= d
	}
	return n
}

// Int returns the value as a scalar integer. Boolean fields map to
// 0/1. It is the lookup used to resolve dependent dimensions.
func (v *Value) Int() (int64, bool) {
	switch {
	case len(v.Ints) > 0:
		return v.Ints[0], true
	case len(v.Bools) > 0:
		if v.Bools[0] {
			return 1, true
		}
		return 0, true
	case len(v.Floats) > 0:
		return int64(v.Floats[0]), true
	default:
		return 0, false
	}
}
