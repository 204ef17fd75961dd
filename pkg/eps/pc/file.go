package pc

import (
	"fmt"
	"time"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
)

// File is an open principal-component product, either scores ("PCS")
// or residual ("PCR"). Accessors for data the other variant does not
// carry return eps.ErrFieldNotPresent.
type File struct {
	eps     *eps.File
	variant eps.Product
	giadr   *GIADR
	mdrs    []*eps.Record
	indices []int
	bad     []int
}

// Open decodes the PC product at path. The selector restricts which
// measurement records are decoded; eps.All() decodes every one.
func Open(path string, sel eps.Selector) (*File, error) {
	reg, variant := newRegistry()
	ef, err := eps.Open(path, reg)
	if err != nil {
		return nil, err
	}
	f, err := wrap(ef, sel, variant)
	if err != nil {
		_ = ef.Close()
		return nil, err
	}
	return f, nil
}

func wrap(ef *eps.File, sel eps.Selector, variant *eps.Product) (*File, error) {
	switch p := eps.Product(ef.MPHR().ProductType); p {
	case eps.ProductPCS, eps.ProductPCR:
		*variant = p
	default:
		return nil, fmt.Errorf("%w: product type %q is not a PC product", eps.ErrUnsupportedVersion, ef.MPHR().ProductType)
	}

	rec, ok := ef.HeaderRecord(eps.ClassGIADR, eps.AnySubclass)
	if !ok {
		return nil, fmt.Errorf("%w: no GIADR record", eps.ErrCorruptFile)
	}
	dec, err := ef.DecodeHeader(rec)
	if err != nil {
		return nil, err
	}
	giadr, err := giadrFromRecord(dec)
	if err != nil {
		return nil, err
	}
	giadr.fillDims(ef.Dims())

	indices, err := ef.Index(sel)
	if err != nil {
		return nil, err
	}
	mdrs, err := ef.DecodeMDRs(sel)
	if err != nil {
		return nil, err
	}

	f := &File{eps: ef, variant: *variant, giadr: giadr, mdrs: mdrs, indices: indices}
	for pos, mdr := range f.mdrs {
		if mdr != nil && f.variant == eps.ProductPCS && mdr.GRH.RecordSize < minScoresMDRSize {
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

// Variant reports whether the file is a scores or a residual product.
func (f *File) Variant() eps.Product { return f.variant }

// MPHR returns the product's main header.
func (f *File) MPHR() *eps.MPHR { return f.eps.MPHR() }

// GIADR returns the decoded quantisation parameters.
func (f *File) GIADR() *GIADR { return f.giadr }

// MDRs returns the selected measurement records in selection order.
// Entries are nil where the file carried a bad record.
func (f *File) MDRs() []*eps.Record { return f.mdrs }

// BadMDRs lists the file positions of selected records that could not
// be decoded: unknown subclass version or undersized record.
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

func (f *File) needScores(what string) error {
	if f.variant != eps.ProductPCS {
		return fmt.Errorf("%w: %s products carry no %s", eps.ErrFieldNotPresent, f.variant, what)
	}
	return nil
}

// component flattens one component of a (SNOT, PN, 2) pair field
// across every good record.
func (f *File) component(field string, comp int) ([]float64, error) {
	if err := f.needScores(field); err != nil {
		return nil, err
	}
	recs := f.good()
	out := make([]float64, 0, len(recs)*l1c.SNOT*l1c.PN)
	for _, rec := range recs {
		vals, err := rec.Floats(field)
		if err != nil {
			return nil, err
		}
		for i := 0; i < l1c.SNOT*l1c.PN; i++ {
			out = append(out, vals[2*i+comp])
		}
	}
	return out, nil
}

// Latitudes returns the sounder pixel latitudes of every good record,
// flattened in scan order. Scores product only.
func (f *File) Latitudes() ([]float64, error) {
	return f.component("GGeoSondLoc", 1)
}

// Longitudes returns the sounder pixel longitudes of every good
// record, flattened in scan order. Scores product only.
func (f *File) Longitudes() ([]float64, error) {
	return f.component("GGeoSondLoc", 0)
}

// SatZenithAngles returns the satellite zenith angle per pixel.
func (f *File) SatZenithAngles() ([]float64, error) {
	return f.component("GGeoSondAnglesMETOP", 0)
}

// SatAzimuthAngles returns the satellite azimuth angle per pixel.
func (f *File) SatAzimuthAngles() ([]float64, error) {
	return f.component("GGeoSondAnglesMETOP", 1)
}

// SolarZenithAngles returns the solar zenith angle per pixel.
func (f *File) SolarZenithAngles() ([]float64, error) {
	return f.component("GGeoSondAnglesSUN", 0)
}

// SolarAzimuthAngles returns the solar azimuth angle per pixel.
func (f *File) SolarAzimuthAngles() ([]float64, error) {
	return f.component("GGeoSondAnglesSUN", 1)
}

func (f *File) byteField(field string) ([]int64, error) {
	if err := f.needScores(field); err != nil {
		return nil, err
	}
	recs := f.good()
	out := make([]int64, 0, len(recs)*l1c.SNOT*l1c.PN)
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
// pixel, in percent. Scores product only.
func (f *File) AvhrrCloudFractions() ([]int64, error) {
	return f.byteField("GEUMAvhrr1BCldFrac")
}

// LandFractions returns the collocated AVHRR land fraction per pixel,
// in percent. Scores product only.
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

// QualityFlags returns the per-band spectrum quality flag of every
// pixel, flattened in scan order with the band as the fastest axis.
// Scores product only.
func (f *File) QualityFlags() ([]bool, error) {
	if err := f.needScores("spectrum quality flags"); err != nil {
		return nil, err
	}
	recs := f.good()
	out := make([]bool, 0, len(recs)*l1c.SNOT*l1c.PN*l1c.SB)
	for _, rec := range recs {
		vals, err := rec.Bools("GQisFlagQual")
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// ObsTimes returns one observation timestamp per sounder pixel. Each
// step's time repeats PN times. Scores product only.
func (f *File) ObsTimes() ([]time.Time, error) {
	if err := f.needScores("observation dates"); err != nil {
		return nil, err
	}
	recs := f.good()
	out := make([]time.Time, 0, len(recs)*l1c.SNOT*l1c.PN)
	for _, rec := range recs {
		pairs, err := rec.Ints("GEPSDatIasi")
		if err != nil {
			return nil, err
		}
		for i := 0; i < l1c.SNOT; i++ {
			ts := eps.EpochTime(pairs[2*i], pairs[2*i+1])
			for range l1c.PN {
				out = append(out, ts)
			}
		}
	}
	return out, nil
}

// Scores returns the quantised PC scores of every good record, one row
// per sounder pixel. Each row concatenates the bands in order, with
// the wide, medium and narrow score blocks of each band back to back.
// Scores product only.
func (f *File) Scores() ([][]float64, error) {
	if err := f.needScores("PC scores"); err != nil {
		return nil, err
	}
	recs := f.good()
	total := f.giadr.TotalScores()
	out := make([][]float64, 0, len(recs)*l1c.SNOT*l1c.PN)
	for _, rec := range recs {
		blocks := make([][]int64, 0, l1c.SB*3)
		counts := make([]int, 0, l1c.SB*3)
		for band := range scoreDims {
			for part := range scoreDims[band] {
				vals, err := rec.Ints(scoreField(band, part))
				if err != nil {
					return nil, err
				}
				blocks = append(blocks, vals)
				counts = append(counts, f.giadr.ScoreCounts[band][part])
			}
		}
		for px := 0; px < l1c.SNOT*l1c.PN; px++ {
			row := make([]float64, 0, total)
			for blk, vals := range blocks {
				n := counts[blk]
				for _, v := range vals[px*n : (px+1)*n] {
					row = append(row, float64(v))
				}
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// ResidualRMS returns the per-band reconstruction RMS of every pixel,
// one row of SB values per pixel. Scores product only.
func (f *File) ResidualRMS() ([][]float64, error) {
	if err := f.needScores("reconstruction RMS"); err != nil {
		return nil, err
	}
	recs := f.good()
	out := make([][]float64, 0, len(recs)*l1c.SNOT*l1c.PN)
	for _, rec := range recs {
		vals, err := rec.Floats("ResidualRMS")
		if err != nil {
			return nil, err
		}
		for px := 0; px < l1c.SNOT*l1c.PN; px++ {
			row := make([]float64, l1c.SB)
			copy(row, vals[px*l1c.SB:(px+1)*l1c.SB])
			out = append(out, row)
		}
	}
	return out, nil
}

// Residual returns the quantised reconstruction residual of every good
// record, one row of S values per sounder pixel. Residual product
// only.
func (f *File) Residual() ([][]float64, error) {
	if f.variant != eps.ProductPCR {
		return nil, fmt.Errorf("%w: %s products carry no residual spectra", eps.ErrFieldNotPresent, f.variant)
	}
	recs := f.good()
	out := make([][]float64, 0, len(recs)*l1c.SNOT*l1c.PN)
	for _, rec := range recs {
		vals, err := rec.Ints("PccResidual")
		if err != nil {
			return nil, err
		}
		for px := 0; px < l1c.SNOT*l1c.PN; px++ {
			row := make([]float64, l1c.S)
			for ch := range row {
				row[ch] = float64(vals[px*l1c.S+ch])
			}
			out = append(out, row)
		}
	}
	return out, nil
}

// Channels returns the wavenumber grid the reconstructed spectra live
// on, in cm-1.
func Channels() []float64 { return l1c.Channels() }
