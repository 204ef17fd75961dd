package eps

import (
	"errors"
	"fmt"
)

// Product names a product family for layout selection.
type Product string

const (
	ProductL1C Product = "L1C"
	ProductSND Product = "SND"
	ProductPCS Product = "PCS"
	ProductPCR Product = "PCR"
)

// AnyVersion and AnySubclass are wildcard key components for record
// classes whose layout does not vary across that axis.
const (
	AnyVersion  = -1
	AnySubclass = -1
)

// LayoutKey selects a field layout: product family, record class, GRH
// subclass and subclass version. The version comes from the records
// themselves (and the MPHR), never from a caller hint, because a wrong
// guess at a binary layout corrupts data silently.
type LayoutKey struct {
	Product  Product
	Class    RecordClass
	Subclass int
	Version  int
}

// Dims carries the dimension parameters a layout may need, typically
// decoded from a product's GIADR (e.g. pressure-level counts in the
// L2 sounding product, per-band score counts in the PC products).
type Dims map[string]int

// LayoutFunc builds the ordered field specs for one record layout.
type LayoutFunc func(dims Dims) ([]FieldSpec, error)

// Registry is the read-only table of record layouts for one product
// family. Product packages populate it at init time; lookups at decode
// time resolve the exact (subclass, version) first and then the
// wildcard entries.
type Registry struct {
	product Product
	layouts map[LayoutKey]LayoutFunc
}

func NewRegistry(product Product) *Registry {
	return &Registry{product: product, layouts: make(map[LayoutKey]LayoutFunc)}
}

// Register adds a layout for the given class, subclass and version.
// Use AnySubclass / AnyVersion for axes the layout does not vary on.
func (r *Registry) Register(class RecordClass, subclass, version int, fn LayoutFunc) {
	r.layouts[LayoutKey{r.product, class, subclass, version}] = fn
}

// Resolve finds the layout for a concrete record header. A missing
// layout is ErrUnsupportedVersion: a hard stop, because decoding with
// the wrong offsets would produce corrupted values instead of a
// visible error.
func (r *Registry) Resolve(class RecordClass, subclass, version int) (LayoutFunc, error) {
	for _, key := range []LayoutKey{
		{r.product, class, subclass, version},
		{r.product, class, subclass, AnyVersion},
		{r.product, class, AnySubclass, version},
		{r.product, class, AnySubclass, AnyVersion},
	} {
		if fn, ok := r.layouts[key]; ok {
			return fn, nil
		}
	}
	return nil, fmt.Errorf("%w: %s %s subclass %d version %d", ErrUnsupportedVersion, r.product, class, subclass, version)
}

// Specs resolves and builds the layout in one step.
func (r *Registry) Specs(class RecordClass, subclass, version int, dims Dims) ([]FieldSpec, error) {
	fn, err := r.Resolve(class, subclass, version)
	if err != nil {
		return nil, err
	}
	return fn(dims)
}

// errorsIsLayoutMiss reports whether err is a registry miss, which the
// MDR loop treats as a skippable record rather than a broken file.
func errorsIsLayoutMiss(err error) bool {
	return errors.Is(err, ErrUnsupportedVersion)
}
