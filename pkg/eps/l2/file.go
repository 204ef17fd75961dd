package l2

import (
	"fmt"
	"time"

	"github.com/samcharles93/epsio/pkg/eps"
)

// File is an open level-2 sounding product.
type File struct {
	eps   *eps.File
	giadr *GIADR
	mdrs  []*eps.Record
	bad   []int
}

// Open decodes the level-2 product at path, restricted to the
// measurement records the selector picks.
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
	if pt := ef.MPHR().ProductType; pt != "SND" {
		return nil, fmt.Errorf("%w: product type %q is not a level-2 sounding", eps.ErrUnsupportedVersion, pt)
	}
	rec, ok := ef.HeaderRecord(eps.ClassGIADR, -1)
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
	f := &File{eps: ef, giadr: giadr, mdrs: mdrs}
	for pos, rec := range f.mdrs {
		if rec == nil {
			f.bad = append(f.bad, indices[pos])
		}
	}
	return f, nil
}

// Close releases the underlying file. Safe to call more than once.
func (f *File) Close() error { return f.eps.Close() }

// MPHR returns the product's main header.
func (f *File) MPHR() *eps.MPHR { return f.eps.MPHR() }

// GIADR returns the decoded dimensioning record.
func (f *File) GIADR() *GIADR { return f.giadr }

// MDRs returns the selected measurement records in selection order.
func (f *File) MDRs() []*eps.Record { return f.mdrs }

// BadMDRs lists the file positions of selected records that could not
// be decoded.
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

// gather flattens a float field across every good record.
func (f *File) gather(field string) ([]float64, error) {
	var out []float64
	for _, rec := range f.good() {
		vals, err := rec.Floats(field)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// gatherInts flattens an integer field across every good record.
func (f *File) gatherInts(field string) ([]int64, error) {
	var out []int64
	for _, rec := range f.good() {
		vals, err := rec.Ints(field)
		if err != nil {
			return nil, err
		}
		out = append(out, vals...)
	}
	return out, nil
}

// gatherRows flattens a (FOV, width) field into rows.
func (f *File) gatherRows(field string, width int) ([][]float64, error) {
	var out [][]float64
	for _, rec := range f.good() {
		vals, err := rec.Floats(field)
		if err != nil {
			return nil, err
		}
		if len(vals) != FOV*width {
			return nil, fmt.Errorf("%w: field %s has %d elements, want %d", eps.ErrCorruptFile, field, len(vals), FOV*width)
		}
		for i := 0; i < FOV; i++ {
			out = append(out, vals[i*width:(i+1)*width])
		}
	}
	return out, nil
}

// component extracts one column of a (FOV, width) field.
func (f *File) component(field string, width, comp int) ([]float64, error) {
	var out []float64
	for _, rec := range f.good() {
		vals, err := rec.Floats(field)
		if err != nil {
			return nil, err
		}
		for i := 0; i < FOV; i++ {
			out = append(out, vals[i*width+comp])
		}
	}
	return out, nil
}

// Latitudes returns the field-of-view latitudes in degrees.
func (f *File) Latitudes() ([]float64, error) { return f.component("EARTH_LOCATION", 2, 0) }

// Longitudes returns the field-of-view longitudes in degrees.
func (f *File) Longitudes() ([]float64, error) { return f.component("EARTH_LOCATION", 2, 1) }

// SunZenithAngles returns the solar zenith angle per field of view.
func (f *File) SunZenithAngles() ([]float64, error) { return f.component("ANGULAR_RELATION", 4, 0) }

// SatZenithAngles returns the satellite zenith angle per field of view.
func (f *File) SatZenithAngles() ([]float64, error) { return f.component("ANGULAR_RELATION", 4, 1) }

// SunAzimuthAngles returns the solar azimuth angle per field of view.
func (f *File) SunAzimuthAngles() ([]float64, error) { return f.component("ANGULAR_RELATION", 4, 2) }

// SatAzimuthAngles returns the satellite azimuth angle per field of
// view.
func (f *File) SatAzimuthAngles() ([]float64, error) { return f.component("ANGULAR_RELATION", 4, 3) }

// TemperatureProfiles returns one retrieved temperature profile per
// field of view, in kelvin on the GIADR temperature pressure grid.
func (f *File) TemperatureProfiles() ([][]float64, error) {
	return f.gatherRows("ATMOSPHERIC_TEMPERATURE", len(f.giadr.PressureLevelsTemp))
}

// WaterVapourProfiles returns one specific humidity profile per field
// of view, in kg/kg on the GIADR humidity pressure grid.
func (f *File) WaterVapourProfiles() ([][]float64, error) {
	return f.gatherRows("ATMOSPHERIC_WATER_VAPOUR", len(f.giadr.PressureLevelsHumidity))
}

// OzoneProfiles returns one ozone profile per field of view on the
// GIADR ozone pressure grid.
func (f *File) OzoneProfiles() ([][]float64, error) {
	return f.gatherRows("ATMOSPHERIC_OZONE", len(f.giadr.PressureLevelsOzone))
}

// IntegratedColumns bundles the six retrieved total-column gases.
type IntegratedColumns struct {
	WaterVapour []float64
	Ozone       []float64
	N2O         []float64
	CO          []float64
	CH4         []float64
	CO2         []float64
}

// Integrated returns the total-column amounts per field of view.
func (f *File) Integrated() (*IntegratedColumns, error) {
	var out IntegratedColumns
	var err error
	if out.WaterVapour, err = f.gather("INTEGRATED_WATER_VAPOUR"); err != nil {
		return nil, err
	}
	if out.Ozone, err = f.gather("INTEGRATED_OZONE"); err != nil {
		return nil, err
	}
	if out.N2O, err = f.gather("INTEGRATED_N2O"); err != nil {
		return nil, err
	}
	if out.CO, err = f.gather("INTEGRATED_CO"); err != nil {
		return nil, err
	}
	if out.CH4, err = f.gather("INTEGRATED_CH4"); err != nil {
		return nil, err
	}
	if out.CO2, err = f.gather("INTEGRATED_CO2"); err != nil {
		return nil, err
	}
	return &out, nil
}

// FractionalCloudCover returns the per-formation cloud fraction, in
// percent, three formations per field of view.
func (f *File) FractionalCloudCover() ([][]float64, error) {
	return f.gatherRows("FRACTIONAL_CLOUD_COVER", 3)
}

// CloudTopTemperatures returns the per-formation cloud top
// temperature in kelvin.
func (f *File) CloudTopTemperatures() ([][]float64, error) {
	return f.gatherRows("CLOUD_TOP_TEMPERATURE", 3)
}

// CloudTopPressures returns the per-formation cloud top pressure in
// hPa.
func (f *File) CloudTopPressures() ([][]float64, error) {
	return f.gatherRows("CLOUD_TOP_PRESSURE", 3)
}

// CloudMask returns the cloudiness flag per field of view; 1 is clear.
func (f *File) CloudMask() ([]int64, error) { return f.gatherInts("FLG_CLDNES") }

// LandSea returns the surface type flag per field of view.
func (f *File) LandSea() ([]int64, error) { return f.gatherInts("FLG_LANSEA") }

// Sunglint returns the sunglint flag per field of view.
func (f *File) Sunglint() ([]int64, error) { return f.gatherInts("FLG_SUNGLNT") }

// SurfaceTemperatures returns the retrieved skin temperature in
// kelvin.
func (f *File) SurfaceTemperatures() ([]float64, error) { return f.gather("SURFACE_TEMPERATURE") }

// SurfacePressures returns the surface pressure in hPa.
func (f *File) SurfacePressures() ([]float64, error) { return f.gather("SURFACE_PRESSURE") }

// SurfaceElevations returns the surface height in metres.
func (f *File) SurfaceElevations() ([]int64, error) { return f.gatherInts("SURFACE_Z") }

// SurfaceEmissivities returns one emissivity row per field of view on
// the GIADR wavelength grid.
func (f *File) SurfaceEmissivities() ([][]float64, error) {
	return f.gatherRows("SURFACE_EMISSIVITY", len(f.giadr.EmissivityWavelengths))
}

// QualityMask conjoins the retrieval quality flags the way operational
// users filter soundings: clear converged retrievals over a known
// surface, without dust or thin cirrus contamination.
func (f *File) QualityMask() ([]bool, error) {
	fields := []string{
		"FLG_IASIBAD", "FLG_CLDNES", "FLG_DUSTCLD", "FLG_ITCONV",
		"FLG_PHYSCHECK", "FLG_RETCHECK", "FLG_THICIR", "FLG_LANSEA",
	}
	flags := make(map[string][]int64, len(fields))
	for _, name := range fields {
		vals, err := f.gatherInts(name)
		if err != nil {
			return nil, err
		}
		flags[name] = vals
	}
	n := len(flags["FLG_IASIBAD"])
	out := make([]bool, n)
	for i := range out {
		landsea := flags["FLG_LANSEA"][i]
		out[i] = flags["FLG_IASIBAD"][i] == 0 &&
			flags["FLG_CLDNES"][i] == 1 &&
			flags["FLG_DUSTCLD"][i] < 2 &&
			flags["FLG_ITCONV"][i] == 5 &&
			flags["FLG_PHYSCHECK"][i] == 0 &&
			flags["FLG_RETCHECK"][i] == 0 &&
			flags["FLG_THICIR"][i] == 0 &&
			(landsea == 0 || landsea == 1 || landsea == 3)
	}
	return out, nil
}

// ErrorIndex reports which fields of view carry an error covariance:
// true where ERROR_DATA_INDEX is a real index, false where the 255
// fill marks absence.
func (f *File) ErrorIndex() ([]bool, error) {
	idx, err := f.gatherInts("ERROR_DATA_INDEX")
	if err != nil {
		return nil, err
	}
	out := make([]bool, len(idx))
	for i, v := range idx {
		out[i] = v != 255
	}
	return out, nil
}

// Times returns each good record's sensing start time.
func (f *File) Times() []time.Time {
	recs := f.good()
	out := make([]time.Time, len(recs))
	for i, rec := range recs {
		out[i] = rec.GRH.StartTime()
	}
	return out
}
