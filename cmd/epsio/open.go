package main

import (
	"fmt"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
	"github.com/samcharles93/epsio/pkg/eps/l2"
	"github.com/samcharles93/epsio/pkg/eps/pc"
)

// product is one native file opened through the facade matching its
// MPHR product type. Exactly one facade field is set.
type product struct {
	typ eps.Product
	l1c *l1c.File
	l2  *l2.File
	pc  *pc.File
}

func openProduct(path string, sel eps.Selector) (*product, error) {
	ef, err := eps.Open(path, eps.NewRegistry(""))
	if err != nil {
		return nil, err
	}
	typ := eps.Product(ef.MPHR().ProductType)
	_ = ef.Close()

	p := &product{typ: typ}
	switch typ {
	case eps.ProductL1C:
		p.l1c, err = l1c.Open(path, sel)
	case eps.ProductSND:
		p.l2, err = l2.Open(path, sel)
	case eps.ProductPCS, eps.ProductPCR:
		p.pc, err = pc.Open(path, sel)
	default:
		return nil, fmt.Errorf("product type %q has no decoder", typ)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *product) close() error {
	switch {
	case p.l1c != nil:
		return p.l1c.Close()
	case p.l2 != nil:
		return p.l2.Close()
	case p.pc != nil:
		return p.pc.Close()
	}
	return nil
}
