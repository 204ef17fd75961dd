package l2

import "github.com/samcharles93/epsio/pkg/eps"

// GIADR holds the decoded product dimensioning record: pressure level
// grids, emissivity wavelengths and the principal-component counts
// that size the per-scan error covariance triangles.
type GIADR struct {
	PressureLevelsTemp     []float64 // hPa
	PressureLevelsHumidity []float64 // hPa
	PressureLevelsOzone    []float64 // hPa
	EmissivityWavelengths  []float64

	NumTemperaturePCs int
	NumWaterVapourPCs int
	NumOzonePCs       int

	ForliLayerHeightsCO   []int64
	ForliLayerHeightsHNO3 []int64
	ForliLayerHeightsO3   []int64
	BresciaAltitudesSO2   []int64
}

func giadrFromRecord(rec *eps.Record) (*GIADR, error) {
	g := &GIADR{}
	var err error
	if g.PressureLevelsTemp, err = rec.Floats("PRESSURE_LEVELS_TEMP"); err != nil {
		return nil, err
	}
	if g.PressureLevelsHumidity, err = rec.Floats("PRESSURE_LEVELS_HUMIDITY"); err != nil {
		return nil, err
	}
	if g.PressureLevelsOzone, err = rec.Floats("PRESSURE_LEVELS_OZONE"); err != nil {
		return nil, err
	}
	if g.EmissivityWavelengths, err = rec.Floats("SURFACE_EMISSIVITY_WAVELENGTHS"); err != nil {
		return nil, err
	}
	for name, dst := range map[string]*int{
		"NUM_TEMPERATURE_PCS":  &g.NumTemperaturePCs,
		"NUM_WATER_VAPOUR_PCS": &g.NumWaterVapourPCs,
		"NUM_OZONE_PCS":        &g.NumOzonePCs,
	} {
		n, err := rec.Int(name)
		if err != nil {
			return nil, err
		}
		*dst = int(n)
	}
	if g.ForliLayerHeightsCO, err = rec.Ints("FORLI_LAYER_HEIGHTS_CO"); err != nil {
		return nil, err
	}
	if g.ForliLayerHeightsHNO3, err = rec.Ints("FORLI_LAYER_HEIGHTS_HNO3"); err != nil {
		return nil, err
	}
	if g.ForliLayerHeightsO3, err = rec.Ints("FORLI_LAYER_HEIGHTS_O3"); err != nil {
		return nil, err
	}
	if g.BresciaAltitudesSO2, err = rec.Ints("BRESCIA_ALTITUDES_SO2"); err != nil {
		return nil, err
	}
	return g, nil
}

// triangle is the element count of a packed symmetric matrix of order n.
func triangle(n int) int { return n * (n + 1) / 2 }

// fillDims publishes the extents MDR layouts depend on.
func (g *GIADR) fillDims(dims eps.Dims) {
	dims[dimNLT] = len(g.PressureLevelsTemp)
	dims[dimNLQ] = len(g.PressureLevelsHumidity)
	dims[dimNLO] = len(g.PressureLevelsOzone)
	dims[dimNEW] = len(g.EmissivityWavelengths)
	dims[dimSO2] = len(g.BresciaAltitudesSO2)
	dims[dimErrT] = triangle(g.NumTemperaturePCs)
	dims[dimErrW] = triangle(g.NumWaterVapourPCs)
	dims[dimErrO] = triangle(g.NumOzonePCs)
}
