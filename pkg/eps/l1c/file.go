package l1c

import (
	"fmt"
	"time"

	"github.com/samcharles93/epsio/pkg/eps"
)

// badRecordSize is the record size of a placeholder MDR carrying no
// measurement: a bare header plus one byte.
const badRecordSize = 21

// File is an open level-1C product. Measurement records are decoded at
// open; records with an unknown subclass version or a placeholder size
// are kept as gaps rather than failing the file.
type File struct {
	eps     *eps.File
	scale   ScaleFactors
	mdrs    []*eps.Record
	indices []int
	bad     []int
}

// Open decodes the level-1C product at path. The selector restricts
// which measurement records are decoded; eps.All() decodes every one.
func Open(path string, sel eps.Selector) (*File, error) {
	ef, err := eps.Open(path, NewRegistry())
	if err != nil {
		return nil, err
	}
	f, err := wrap(ef, sel)
	if err != nil {
		_ = ef.Close()
		return nil, err
	}
	return f, nil
}

func wrap(ef *eps.File, sel eps.Selector) (*File, error) {
	sfRec, ok := ef.HeaderRecord(eps.ClassGIADR, SubclassScaleFactors)
	if !ok {
		return nil, fmt.Errorf("%w: no GIADR scale-factors record", eps.ErrCorruptFile)
	}
	dec, err := ef.DecodeHeader(sfRec)
	if err != nil {
		return nil, err
	}
	scale, err := scaleFactorsFromRecord(dec)
	if err != nil {
		return nil, err
	}

	indices, err := ef.Index(sel)
	if err != nil {
		return nil, err
	}
	mdrs, err := ef.DecodeMDRs(sel)
	if err != nil {
		return nil, err
	}

	f := &File{eps: ef, scale: scale, mdrs: mdrs, indices: indices}
	for pos, rec := range f.mdrs {
		if rec != nil && rec.GRH.RecordSize == badRecordSize {
			f.mdrs[pos] = nil
		}
		if f.mdrs[pos] == nil {
			f.bad = append(f.bad, indices[pos])
		}
	}
	return f, nil
}

// Close releases the underlying file. Safe to call more than once.
func (f *File) Close() error { return f.eps.Close() }

// MPHR returns the product's main header.
func (f *File) MPHR() *eps.MPHR { return f.eps.MPHR() }

// ScaleFactors returns the decoded GIADR scale factors.
func (f *File) ScaleFactors() ScaleFactors { return f.scale }

// GIADRQuality decodes the GIADR quality record on demand.
func (f *File) GIADRQuality() (*eps.Record, error) {
	rec, ok := f.eps.HeaderRecord(eps.ClassGIADR, SubclassQuality)
	if !ok {
		return nil, fmt.Errorf("%w: no GIADR quality record", eps.ErrCorruptFile)
	}
	return f.eps.DecodeHeader(rec)
}

// MDRs returns the selected measurement records in selection order.
// Entries are nil where the file carried a bad record.
func (f *File) MDRs() []*eps.Record { return f.mdrs }

// BadMDRs lists the file positions of selected records that could not
// be decoded: unknown subclass version or placeholder size.
func (f *File) BadMDRs() []int { return f.bad }

func (f *File) good() []*eps.Record {
	out := make([]*eps.Record, 0, len(f.mdrs))
	for _, rec := range f.mdrs {
		if rec != nil {
			out = append(out, rec)
		}
	}
	return out
}

// component flattens one component of a (SNOT, n, 2) pair field across
// every good record.
func (f *File) component(field string, n, comp int) ([]float64, error) {
	recs := f.good()
	out := make([]float64, 0, len(recs)*SNOT*n)
	for _, rec := range recs {
		vals, err := rec.Floats(field)
		if err != nil {
			return nil, err
		}
		for i := 0; i < SNOT*n; i++ {
			out = append(out, vals[2*i+comp])
		}
	}
	return out, nil
}

// Latitudes returns the sounder pixel latitudes of every good record,
// flattened in scan order.
func (f *File) Latitudes() ([]float64, error) {
	return f.component("GGeoSondLoc", PN, 1)
}

// Longitudes returns the sounder pixel longitudes of every good
// record, flattened in scan order.
func (f *File) Longitudes() ([]float64, error) {
	return f.component("GGeoSondLoc", PN, 0)
}

// SatZenithAngles returns the satellite zenith angle per pixel.
func (f *File) SatZenithAngles() ([]float64, error) {
	return f.component("GGeoSondAnglesMETOP", PN, 0)
}

// SatAzimuthAngles returns the satellite azimuth angle per pixel.
func (f *File) SatAzimuthAngles() ([]float64, error) {
	return f.component("GGeoSondAnglesMETOP", PN, 1)
}

// SolarZenithAngles returns the solar zenith angle per pixel.
func (f *File) SolarZenithAngles() ([]float64, error) {
	return f.component("GGeoSondAnglesSUN", PN, 0)
}

// SolarAzimuthAngles returns the solar azimuth angle per pixel.
func (f *File) SolarAzimuthAngles() ([]float64, error) {
	return f.component("GGeoSondAnglesSUN", PN, 1)
}

func (f *File) byteField(field string) ([]int64, error) {
	recs := f.good()
	out := make([]int64, 0, len(recs)*SNOT*PN)
	for _, rec := range recs {
		vals, err := rec.Ints(field)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// AvhrrCloudFractions returns the collocated AVHRR cloud fraction per
// pixel, in percent. Only version 5 records carry it.
func (f *File) AvhrrCloudFractions() ([]int64, error) {
	return f.byteField("GEUMAvhrr1BCldFrac")
}

// LandFractions returns the collocated AVHRR land fraction per pixel,
// in percent. Only version 5 records carry it.
func (f *File) LandFractions() ([]int64, error) {
	return f.byteField("GEUMAvhrr1BLandFrac")
}

// DegradedFlags returns the instrument and processing degradation
// flags of every good record, one pair per record.
func (f *File) DegradedFlags() (inst, proc []bool, err error) {
	for _, rec := range f.good() {
		i, err := rec.Int("DEGRADED_INST_MDR")
		if err != nil {
			return nil, nil, err
		}
		p, err := rec.Int("DEGRADED_PROC_MDR")
		if err != nil {
			return nil, nil, err
		}
		inst = append(inst, i != 0)
		proc = append(proc, p != 0)
	}
	return inst, proc, nil
}

// ObsTimes returns one observation timestamp per sounder pixel. The
// instrument dates one step of PN pixels at a time, so each step's
// time repeats PN times.
func (f *File) ObsTimes() ([]time.Time, error) {
	recs := f.good()
	out := make([]time.Time, 0, len(recs)*SNOT*PN)
	for _, rec := range recs {
		pairs, err := rec.Ints("GEPSDatIasi")
		if err != nil {
			return nil, err
		}
		for i := 0; i < SNOT; i++ {
			ts := eps.EpochTime(pairs[2*i], pairs[2*i+1])
			for range PN {
				out = append(out, ts)
			}
		}
	}
	return out, nil
}

// NumChannels is the meaningful spectrum width of the product, taken
// from the first good record.
func (f *File) NumChannels() (int, error) {
	recs := f.good()
	if len(recs) == 0 {
		return 0, fmt.Errorf("%w: no decodable measurement records", eps.ErrCorruptFile)
	}
	first, err := recs[0].Int("IDefNsfirst1b")
	if err != nil {
		return 0, err
	}
	last, err := recs[0].Int("IDefNslast1b")
	if err != nil {
		return 0, err
	}
	n := int(last - first + 1)
	if n < 1 || n > SS {
		return 0, fmt.Errorf("%w: channel interval [%d, %d]", eps.ErrCorruptFile, first, last)
	}
	return n, nil
}

// Radiances returns the calibrated spectra of every good record as one
// row per sounder pixel. Raw counts are divided by the per-channel
// GIADR scale factor and converted from W/(m2 sr m-1) to
// mW/(m2 sr cm-1). Samples carrying the wire sentinel come back as
// NaN.
func (f *File) Radiances() ([][]float64, error) {
	recs := f.good()
	numCh, err := f.NumChannels()
	if err != nil {
		return nil, err
	}

	out := make([][]float64, 0, len(recs)*SNOT*PN)
	for _, rec := range recs {
		first, err := rec.Int("IDefNsfirst1b")
		if err != nil {
			return nil, err
		}
		// One divisor per channel, resolved once per record.
		div := make([]float64, numCh)
		for ch := range div {
			sf, err := f.scale.ChannelScale(first + int64(ch))
			if err != nil {
				return nil, err
			}
			div[ch] = eps.Pow10(sf)
		}
		raw, err := rec.Floats("GS1cSpect")
		if err != nil {
			return nil, err
		}
		for px := 0; px < SNOT*PN; px++ {
			row := make([]float64, numCh)
			base := px * SS
			for ch := range row {
				row[ch] = raw[base+ch] / div[ch] * 1e5
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// Channels returns the wavenumber grid of the meaningful spectrum, in
// cm-1.
func Channels() []float64 {
	out := make([]float64, S)
	for i := range out {
		out[i] = 645 + float64(i)*(2760-645)/float64(S-1)
	}
	return out
}
