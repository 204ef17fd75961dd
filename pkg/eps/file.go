package eps

import (
	"fmt"
	"io"
	"os"
	"runtime"
	"sync"

	"golang.org/x/sys/unix"
)

// RawRecord is one undecoded record: its header plus a zero-copy view
// of its payload bytes.
type RawRecord struct {
	GRH     GRH
	Offset  int64
	Payload []byte
}

// File is an open EPS native product. It holds the raw bytes (mmapped
// where the platform allows), the decoded MPHR, every header record up
// to the first MDR, and a pointer index over the MDR region.
//
// Payload slices handed out by a File alias the underlying mapping and
// must not be retained after Close.
type File struct {
	data    []byte
	mmapped bool

	mphr    *MPHR
	headers []RawRecord
	iprs    []IPR
	index   []PointerEntry

	registry *Registry
	dims     Dims
}

// Open maps an EPS native file read-only and scans its record
// structure. If mmap is unavailable, it falls back to ReadAt-based
// loading. The returned file must be closed to release any mapping.
func Open(path string, registry *Registry) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	size64 := stat.Size()
	if size64 < 0 {
		return nil, ErrCorruptFile
	}
	if size64 > int64(int(^uint(0)>>1)) {
		// cannot index this file safely as []byte on this architecture.
		return nil, ErrCorruptFile
	}
	size := int(size64)
	if size < GRHSize {
		return nil, fmt.Errorf("%w: %d bytes is too small for a record header", ErrCorruptFile, size)
	}

	// Prefer mmap where available for zero-copy record payloads.
	data, err := unix.Mmap(
		int(f.Fd()),
		0,
		size,
		unix.PROT_READ,
		unix.MAP_SHARED,
	)
	if err == nil {
		nf, parseErr := parseFileData(data, true, registry)
		if parseErr != nil {
			_ = unix.Munmap(data)
			return nil, parseErr
		}
		return nf, nil
	}

	data, err = readAllAt(f, size)
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false, registry)
}

// OpenReaderAt scans an EPS native product from a random-access reader
// without mmap.
func OpenReaderAt(r io.ReaderAt, size int64, registry *Registry) (*File, error) {
	if size < 0 || size > int64(int(^uint(0)>>1)) {
		return nil, ErrCorruptFile
	}
	data, err := readAllAt(r, int(size))
	if err != nil {
		return nil, err
	}
	return parseFileData(data, false, registry)
}

func readAllAt(r io.ReaderAt, size int) ([]byte, error) {
	if size < 0 {
		return nil, ErrCorruptFile
	}
	if size == 0 {
		return []byte{}, nil
	}
	out := make([]byte, size)
	var off int64
	for off < int64(size) {
		n, err := r.ReadAt(out[off:], off)
		off += int64(n)
		if err == nil {
			continue
		}
		if err == io.EOF && off == int64(size) {
			break
		}
		return nil, err
	}
	return out, nil
}

func parseFileData(data []byte, mmapped bool, registry *Registry) (*File, error) {
	nf := &File{
		data:     data,
		mmapped:  mmapped,
		registry: registry,
		dims:     Dims{},
	}

	// Walk header records until the first MDR. Every record here must
	// fit entirely inside the file.
	var offset int64
	size := int64(len(data))
	for offset < size {
		if size-offset < GRHSize {
			return nil, fmt.Errorf("%w: %d trailing bytes at offset %d", ErrCorruptFile, size-offset, offset)
		}
		grh, err := ParseGRH(data[offset:])
		if err != nil {
			return nil, fmt.Errorf("offset %d: %w", offset, err)
		}
		if grh.Class == ClassMDR {
			break
		}
		end := offset + int64(grh.RecordSize)
		if end > size {
			return nil, fmt.Errorf("%w: %s record at offset %d runs past end of file", ErrCorruptFile, grh.Class, offset)
		}
		rec := RawRecord{
			GRH:     grh,
			Offset:  offset,
			Payload: data[offset+GRHSize : end],
		}
		nf.headers = append(nf.headers, rec)

		switch grh.Class {
		case ClassMPHR:
			mphr, err := ParseMPHR(rec.Payload)
			if err != nil {
				return nil, err
			}
			nf.mphr = mphr
		case ClassIPR:
			ipr, err := parseIPR(rec.Payload)
			if err != nil {
				return nil, err
			}
			nf.iprs = append(nf.iprs, ipr)
		}
		offset = end
	}

	if nf.mphr == nil {
		return nil, fmt.Errorf("%w: no MPHR record", ErrCorruptFile)
	}

	if offset < size {
		index, err := buildPointerIndex(data, offset)
		if err != nil {
			return nil, err
		}
		nf.index = index
	}

	// Cross-check against the MDR pointers when the product carries
	// them. Several subclasses may each have an IPR; the earliest must
	// agree with where the header walk found the MDR region.
	firstMDRTarget := int64(-1)
	for _, ipr := range nf.iprs {
		if ipr.TargetClass != ClassMDR {
			continue
		}
		if firstMDRTarget < 0 || int64(ipr.TargetOffset) < firstMDRTarget {
			firstMDRTarget = int64(ipr.TargetOffset)
		}
	}
	if firstMDRTarget >= 0 {
		if len(nf.index) == 0 {
			return nil, fmt.Errorf("%w: IPR points at an MDR region but the file has none", ErrIndexCorrupt)
		}
		if firstMDRTarget != nf.index[0].Offset {
			return nil, fmt.Errorf("%w: IPR says first MDR at %d, header walk found %d",
				ErrIndexCorrupt, firstMDRTarget, nf.index[0].Offset)
		}
	}

	if want := nf.mphr.TotalMDR; want >= 0 && want != len(nf.index) {
		return nil, fmt.Errorf("%w: MPHR declares %d MDRs, file holds %d", ErrIndexCorrupt, want, len(nf.index))
	}

	return nf, nil
}

// Close releases file resources and any mmap backing. It is safe to
// call more than once.
func (f *File) Close() error {
	if f == nil {
		return nil
	}
	if f.data != nil {
		var err error
		if f.mmapped {
			err = unix.Munmap(f.data)
		}
		f.data = nil
		f.headers = nil
		f.index = nil
		f.mmapped = false
		return err
	}
	f.headers = nil
	f.index = nil
	f.mmapped = false
	return nil
}

// MPHR returns the decoded main product header.
func (f *File) MPHR() *MPHR { return f.mphr }

// Dims exposes the mutable dimension table used to resolve dependent
// field extents. Product packages populate it from their GIADRs before
// decoding MDRs.
func (f *File) Dims() Dims { return f.dims }

// HeaderRecords returns every record before the first MDR, in file
// order. Payload slices must not be retained after Close.
func (f *File) HeaderRecords() []RawRecord { return f.headers }

// HeaderRecord returns the first header record of the given class and
// subclass, or false when the product carries none.
func (f *File) HeaderRecord(class RecordClass, subclass int) (RawRecord, bool) {
	for _, rec := range f.headers {
		if rec.GRH.Class != class {
			continue
		}
		if subclass >= 0 && int(rec.GRH.Subclass) != subclass {
			continue
		}
		return rec, true
	}
	return RawRecord{}, false
}

// IPRs returns the decoded internal pointer records.
func (f *File) IPRs() []IPR { return f.iprs }

// MDRCount reports how many measurement records the file holds.
func (f *File) MDRCount() int { return len(f.index) }

// Pointer returns the index entry for the i-th MDR.
func (f *File) Pointer(i int) (PointerEntry, error) {
	if i < 0 || i >= len(f.index) {
		return PointerEntry{}, fmt.Errorf("%w: MDR %d of %d", ErrIndexOutOfRange, i, len(f.index))
	}
	return f.index[i], nil
}

// Index resolves a selector against the MDR count.
func (f *File) Index(sel Selector) ([]int, error) {
	return sel.Resolve(len(f.index))
}

// RawMDR returns the i-th measurement record undecoded. The payload
// may be shorter than the GRH declares when the file is truncated.
func (f *File) RawMDR(i int) (RawRecord, error) {
	if f.data == nil {
		return RawRecord{}, ErrFileClosed
	}
	entry, err := f.Pointer(i)
	if err != nil {
		return RawRecord{}, err
	}
	payload := f.data[entry.Offset+GRHSize : entry.Offset+entry.Length]
	grh, err := ParseGRH(f.data[entry.Offset:])
	if err != nil {
		return RawRecord{}, err
	}
	return RawRecord{GRH: grh, Offset: entry.Offset, Payload: payload}, nil
}

// DecodeHeader decodes a header record through the layout registry.
func (f *File) DecodeHeader(rec RawRecord) (*Record, error) {
	if f.data == nil {
		return nil, ErrFileClosed
	}
	specs, err := f.registry.Specs(rec.GRH.Class, int(rec.GRH.Subclass), int(rec.GRH.SubclassVersion), f.dims)
	if err != nil {
		return nil, err
	}
	return DecodeRecord(rec.GRH, rec.Payload, specs)
}

// DecodeMDRAt decodes the i-th measurement record.
func (f *File) DecodeMDRAt(i int) (*Record, error) {
	rec, err := f.RawMDR(i)
	if err != nil {
		return nil, err
	}
	specs, err := f.registry.Specs(rec.GRH.Class, int(rec.GRH.Subclass), int(rec.GRH.SubclassVersion), f.dims)
	if err != nil {
		return nil, err
	}
	return DecodeRecord(rec.GRH, rec.Payload, specs)
}

// DecodeMDRs decodes the selected measurement records concurrently and
// returns them in selection order. A record whose layout the registry
// does not know is returned as nil rather than failing the whole file;
// hard decode errors abort.
func (f *File) DecodeMDRs(sel Selector) ([]*Record, error) {
	if f.data == nil {
		return nil, ErrFileClosed
	}
	indices, err := f.Index(sel)
	if err != nil {
		return nil, err
	}

	out := make([]*Record, len(indices))
	workers := min(runtime.GOMAXPROCS(0), len(indices))
	if workers < 1 {
		return out, nil
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	next := make(chan int)
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pos := range next {
				rec, err := f.DecodeMDRAt(indices[pos])
				if err != nil {
					if errorsIsLayoutMiss(err) {
						continue
					}
					mu.Lock()
					if firstErr == nil {
						firstErr = fmt.Errorf("MDR %d: %w", indices[pos], err)
					}
					mu.Unlock()
					continue
				}
				out[pos] = rec
			}
		}()
	}
	for pos := range indices {
		next <- pos
	}
	close(next)
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}
