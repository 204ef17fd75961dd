package eps

import (
	"fmt"
	"math"
)

// End marks an unspecified bound in Range selectors. Resolve
// substitutes the direction-appropriate default, mirroring an
// open-ended slice.
const End = math.MaxInt

type selectorKind uint8

const (
	selAll selectorKind = iota
	selOne
	selMany
	selRange
)

// Selector describes which MDRs to decode: all of them, a single
// index, an explicit list, or a strided range. Negative indices count
// from the end. It is resolved once, against the pointer index length,
// before any decoding begins.
type Selector struct {
	kind  selectorKind
	one   int
	many  []int
	start int
	stop  int
	step  int
}

// All selects every MDR. It is the zero value of Selector.
func All() Selector { return Selector{kind: selAll} }

// At selects the single MDR with the given index.
func At(i int) Selector { return Selector{kind: selOne, one: i} }

// Pick selects an explicit ordered list of indices.
func Pick(indices ...int) Selector {
	return Selector{kind: selMany, many: append([]int(nil), indices...)}
}

// Range selects [start, stop) with step 1. Use End for an open bound.
func Range(start, stop int) Selector { return RangeStep(start, stop, 1) }

// RangeStep selects a strided range with slice semantics: bounds
// clamp, negative values count from the end, and a negative step walks
// backwards.
func RangeStep(start, stop, step int) Selector {
	return Selector{kind: selRange, start: start, stop: stop, step: step}
}

// Resolve turns the selector into a concrete ordered index list over n
// available MDRs. Out-of-range single or listed indices fail with
// ErrIndexOutOfRange; range bounds clamp the way slices do. An empty
// resolution is valid.
func (s Selector) Resolve(n int) ([]int, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative MDR count %d", ErrIndexOutOfRange, n)
	}
	switch s.kind {
	case selAll:
		out := make([]int, n)
		for i := range out {
			out[i] = i
		}
		return out, nil
	case selOne:
		i, err := resolveIndex(s.one, n)
		if err != nil {
			return nil, err
		}
		return []int{i}, nil
	case selMany:
		out := make([]int, 0, len(s.many))
		for _, raw := range s.many {
			i, err := resolveIndex(raw, n)
			if err != nil {
				return nil, err
			}
			out = append(out, i)
		}
		return out, nil
	case selRange:
		return resolveRange(s.start, s.stop, s.step, n)
	default:
		return nil, fmt.Errorf("%w: unknown selector", ErrIndexOutOfRange)
	}
}

func resolveIndex(i, n int) (int, error) {
	resolved := i
	if resolved < 0 {
		resolved += n
	}
	if resolved < 0 || resolved >= n {
		return 0, fmt.Errorf("%w: index %d with %d MDRs", ErrIndexOutOfRange, i, n)
	}
	return resolved, nil
}

func resolveRange(start, stop, step, n int) ([]int, error) {
	if step == 0 {
		return nil, fmt.Errorf("%w: zero step", ErrIndexOutOfRange)
	}

	// Default and clamp the bounds exactly the way sequence slicing
	// does, including the off-by-one asymmetry of negative steps.
	lo, hi := start, stop
	if step > 0 {
		if lo == End {
			lo = 0
		}
		if hi == End {
			hi = n
		}
	} else {
		if lo == End {
			lo = n - 1
		}
		if hi == End {
			hi = -n - 1
		}
	}
	if lo < 0 {
		lo += n
	}
	if hi < 0 {
		hi += n
	}

	var out []int
	if step > 0 {
		lo = clamp(lo, 0, n)
		hi = clamp(hi, 0, n)
		for i := lo; i < hi; i += step {
			out = append(out, i)
		}
	} else {
		lo = clamp(lo, -1, n-1)
		hi = clamp(hi, -1, n-1)
		for i := lo; i > hi; i += step {
			out = append(out, i)
		}
	}
	return out, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
