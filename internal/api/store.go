package api

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
	"github.com/samcharles93/epsio/pkg/eps/l2"
	"github.com/samcharles93/epsio/pkg/eps/pc"
)

// productExt is the filename extension of EPS native products.
const productExt = ".nat"

// geolocated is the accessor pair every instrument facade shares.
type geolocated interface {
	Latitudes() ([]float64, error)
	Longitudes() ([]float64, error)
}

// openProduct is one product opened through its instrument facade.
// Exactly one of the facade fields is set.
type openProduct struct {
	typ eps.Product
	l1c *l1c.File
	l2  *l2.File
	pc  *pc.File
}

func (p *openProduct) close() error {
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

func (p *openProduct) geolocated() geolocated {
	switch {
	case p.l1c != nil:
		return p.l1c
	case p.l2 != nil:
		return p.l2
	case p.pc != nil:
		return p.pc
	}
	return nil
}

func (p *openProduct) badMDRs() []int {
	switch {
	case p.l1c != nil:
		return p.l1c.BadMDRs()
	case p.l2 != nil:
		return p.l2.BadMDRs()
	case p.pc != nil:
		return p.pc.BadMDRs()
	}
	return nil
}

// ProductStore serves EPS native products out of a single directory.
// Decoded products are cached by file name; the cache holds the mmap
// open until the store is closed.
type ProductStore struct {
	dir string

	mu    sync.Mutex
	cache map[string]*openProduct
}

func NewProductStore(dir string) *ProductStore {
	return &ProductStore{
		dir:   dir,
		cache: make(map[string]*openProduct),
	}
}

// Close releases every cached product.
func (s *ProductStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, p := range s.cache {
		if err := p.close(); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(s.cache, name)
	}
	return firstErr
}

// path validates a client-supplied product name and resolves it inside
// the store directory. Names never traverse out of the directory.
func (s *ProductStore) path(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || name == "." || name == ".." {
		return "", newInvalidRequest(fmt.Sprintf("invalid product name %q", name))
	}
	return filepath.Join(s.dir, name), nil
}

// inspect opens a product for header-level access only. No record
// layouts are registered, so measurement records stay undecoded.
func (s *ProductStore) inspect(name string) (*eps.File, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	return eps.Open(path, eps.NewRegistry(""))
}

// List scans the store directory and describes every readable product.
// Files that are not parseable EPS products are skipped.
func (s *ProductStore) List() ([]ProductInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	infos := make([]ProductInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), productExt) {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		ef, err := s.inspect(entry.Name())
		if err != nil {
			continue
		}
		infos = append(infos, productInfo(entry.Name(), fi.Size(), ef))
		_ = ef.Close()
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// Describe returns the full header picture of one product.
func (s *ProductStore) Describe(name string) (*ProductDetail, error) {
	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	ef, err := s.inspect(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ef.Close() }()

	m := ef.MPHR()
	detail := &ProductDetail{
		ProductInfo:      productInfo(name, fi.Size(), ef),
		ProcessingLevel:  m.ProcessingLevel,
		ProcessingCentre: m.ProcessingCentre,
		FormatVersion:    fmt.Sprintf("%d.%d", m.FormatMajorVersion, m.FormatMinorVersion),
		TotalRecords:     m.TotalRecords,
		DegradedInstMDR:  m.CountDegradedInstMDR,
		DegradedProcMDR:  m.CountDegradedProcMDR,
	}
	for i, rec := range ef.HeaderRecords() {
		detail.Headers = append(detail.Headers, recordInfo(i, rec))
	}
	return detail, nil
}

// Records lists every record in the file, headers first, then the
// measurement records from the pointer index. Measurement records that
// the product decoder rejected are flagged when the product type has a
// decoder.
func (s *ProductStore) Records(name string) ([]RecordInfo, error) {
	ef, err := s.inspect(name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ef.Close() }()

	headers := ef.HeaderRecords()
	records := make([]RecordInfo, 0, len(headers)+ef.MDRCount())
	for i, rec := range headers {
		records = append(records, recordInfo(i, rec))
	}

	bad := make(map[int]bool)
	if p, err := s.Product(name); err == nil {
		for _, i := range p.badMDRs() {
			bad[i] = true
		}
	}
	for i := 0; i < ef.MDRCount(); i++ {
		raw, err := ef.RawMDR(i)
		if err != nil {
			return nil, err
		}
		info := recordInfo(len(headers)+i, raw)
		info.Bad = bad[i]
		records = append(records, info)
	}
	return records, nil
}

// Product opens name through the facade matching its MPHR product
// type, decoding every measurement record. Opens are cached.
func (s *ProductStore) Product(name string) (*openProduct, error) {
	s.mu.Lock()
	if p, ok := s.cache[name]; ok {
		s.mu.Unlock()
		return p, nil
	}
	s.mu.Unlock()

	ef, err := s.inspect(name)
	if err != nil {
		return nil, err
	}
	typ := eps.Product(ef.MPHR().ProductType)
	_ = ef.Close()

	path, err := s.path(name)
	if err != nil {
		return nil, err
	}
	p := &openProduct{typ: typ}
	switch typ {
	case eps.ProductL1C:
		p.l1c, err = l1c.Open(path, eps.All())
	case eps.ProductSND:
		p.l2, err = l2.Open(path, eps.All())
	case eps.ProductPCS, eps.ProductPCR:
		p.pc, err = pc.Open(path, eps.All())
	default:
		return nil, newInvalidRequest(fmt.Sprintf("product type %q has no decoder", typ))
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if prev, ok := s.cache[name]; ok {
		_ = p.close()
		return prev, nil
	}
	s.cache[name] = p
	return p, nil
}

// NotFound reports whether err means the product does not exist.
func NotFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}

func productInfo(name string, size int64, ef *eps.File) ProductInfo {
	m := ef.MPHR()
	return ProductInfo{
		Name:         name,
		SizeBytes:    size,
		ProductType:  m.ProductType,
		InstrumentID: m.InstrumentID,
		SpacecraftID: m.SpacecraftID,
		SensingStart: m.SensingStart,
		SensingEnd:   m.SensingEnd,
		OrbitStart:   m.OrbitStart,
		MDRCount:     ef.MDRCount(),
	}
}

func recordInfo(index int, rec eps.RawRecord) RecordInfo {
	return RecordInfo{
		Index:    index,
		Class:    rec.GRH.Class.String(),
		Subclass: int(rec.GRH.Subclass),
		Version:  int(rec.GRH.SubclassVersion),
		Offset:   rec.Offset,
		Size:     int64(rec.GRH.RecordSize),
		Start:    rec.GRH.StartTime(),
		Stop:     rec.GRH.StopTime(),
	}
}
