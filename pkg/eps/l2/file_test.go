package l2

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/epstest"
)

var testDims = eps.Dims{
	dimNLT:  3,
	dimNLQ:  2,
	dimNLO:  2,
	dimNEW:  2,
	dimSO2:  1,
	dimErrT: 3, // NPCT = 2
	dimErrW: 1, // NPCW = 1
	dimErrO: 1, // NPCO = 1
}

func giadrPayload(t *testing.T) []byte {
	specs, err := giadrLayout(nil)
	require.NoError(t, err)
	return epstest.BuildRecordPayload(t, specs, map[string]int64{
		"NUM_PRESSURE_LEVELS_TEMP":           3,
		"NUM_PRESSURE_LEVELS_HUMIDITY":       2,
		"NUM_PRESSURE_LEVELS_OZONE":          2,
		"NUM_SURFACE_EMISSIVITY_WAVELENGTHS": 2,
		"NUM_TEMPERATURE_PCS":                2,
		"NUM_WATER_VAPOUR_PCS":               1,
		"NUM_OZONE_PCS":                      1,
		"FORLI_NUM_LAYERS_CO":                2,
		"FORLI_NUM_LAYERS_HNO3":              1,
		"FORLI_NUM_LAYERS_O3":                1,
		"BRESCIA_NUM_ALTITUDES_SO2":          1,
	}, map[string]func(*epstest.Payload){
		// 1000 hPa, 500 hPa, 100 hPa stored as Pa with two decimals.
		"PRESSURE_LEVELS_TEMP": func(p *epstest.Payload) {
			p.U32(10_000_000).U32(5_000_000).U32(1_000_000)
		},
	})
}

func mdrPayload(t *testing.T, nerr int64) []byte {
	specs, err := mdrLayout(testDims)
	require.NoError(t, err)
	return epstest.BuildRecordPayload(t, specs, map[string]int64{
		"NERR": nerr,
	}, map[string]func(*epstest.Payload){
		"EARTH_LOCATION": func(p *epstest.Payload) {
			for i := range FOV {
				p.I32(int32(i * 10_000))  // lat = i deg
				p.I32(int32(-i * 10_000)) // lon = -i deg
			}
		},
		"ANGULAR_RELATION": func(p *epstest.Payload) {
			for range FOV {
				p.I16(6000) // sun zenith 60
				p.I16(3000) // sat zenith 30
				p.I16(1000) // sun azimuth 10
				p.I16(2000) // sat azimuth 20
			}
		},
		"ATMOSPHERIC_TEMPERATURE": func(p *epstest.Payload) {
			for range FOV {
				p.U16(28015).U16(25000).U16(22000)
			}
		},
		"SURFACE_TEMPERATURE": func(p *epstest.Payload) {
			p.U16(30012)
			p.RepeatU16(0xFFFF, FOV-1) // missing elsewhere
		},
		"FRACTIONAL_CLOUD_COVER": func(p *epstest.Payload) {
			for range FOV {
				p.U16(10000).U16(0).U16(0xFFFF)
			}
		},
		"CLOUD_TOP_PRESSURE": func(p *epstest.Payload) {
			for range FOV {
				p.U32(85000).U32(0).U32(0)
			}
		},
		"FLG_CLDNES":  func(p *epstest.Payload) { p.RepeatU8(1, FOV) },
		"FLG_ITCONV":  func(p *epstest.Payload) { p.RepeatU8(5, FOV) },
		"FLG_LANSEA":  func(p *epstest.Payload) { p.U8(2).RepeatU8(0, FOV-1) },
		"FLG_SUNGLNT": func(p *epstest.Payload) { p.RepeatU8(1, FOV) },
		"ERROR_DATA_INDEX": func(p *epstest.Payload) {
			p.U8(0).U8(1).RepeatU8(255, FOV-2)
		},
		"SURFACE_Z": func(p *epstest.Payload) { p.RepeatI16(123, FOV) },
	})
}

func buildProduct(t *testing.T) string {
	b := epstest.NewBuilder("SND").
		WithIPR().
		AddHeaderRecord(eps.ClassGIADR, 1, 1, giadrPayload(t)).
		AddMDRAt(1, 4, mdrPayload(t, 2), 7300, 0).
		AddMDRAt(1, 4, mdrPayload(t, 0), 7300, 120_000)
	return epstest.WriteFile(t, b, "l2.nat")
}

func TestOpenDecodesSounding(t *testing.T) {
	t.Parallel()

	f, err := Open(buildProduct(t), eps.All())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	g := f.GIADR()
	require.Equal(t, []float64{1000, 500, 100}, g.PressureLevelsTemp)
	require.Equal(t, 2, g.NumTemperaturePCs)

	lats, err := f.Latitudes()
	require.NoError(t, err)
	require.Len(t, lats, 2*FOV)
	require.InDelta(t, 3.0, lats[3], 1e-9)

	lons, err := f.Longitudes()
	require.NoError(t, err)
	require.InDelta(t, -3.0, lons[3], 1e-9)

	sunZen, err := f.SunZenithAngles()
	require.NoError(t, err)
	require.InDelta(t, 60.0, sunZen[0], 1e-9)

	satAz, err := f.SatAzimuthAngles()
	require.NoError(t, err)
	require.InDelta(t, 20.0, satAz[0], 1e-9)
}

func TestProfilesAndSurface(t *testing.T) {
	t.Parallel()

	f, err := Open(buildProduct(t), eps.All())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	temps, err := f.TemperatureProfiles()
	require.NoError(t, err)
	require.Len(t, temps, 2*FOV)
	require.InDelta(t, 280.15, temps[0][0], 1e-9)
	require.InDelta(t, 220.0, temps[0][2], 1e-9)

	st, err := f.SurfaceTemperatures()
	require.NoError(t, err)
	require.InDelta(t, 300.12, st[0], 1e-9)
	require.True(t, isNaN(st[1]), "missing surface temperature must be NaN")

	elev, err := f.SurfaceElevations()
	require.NoError(t, err)
	require.Equal(t, int64(123), elev[0])
}

func TestCloudFields(t *testing.T) {
	t.Parallel()

	f, err := Open(buildProduct(t), eps.All())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	cc, err := f.FractionalCloudCover()
	require.NoError(t, err)
	require.InDelta(t, 100.0, cc[0][0], 1e-9)
	require.True(t, isNaN(cc[0][2]), "fill cloud fraction must be NaN")

	ctp, err := f.CloudTopPressures()
	require.NoError(t, err)
	require.InDelta(t, 850.0, ctp[0][0], 1e-9)

	mask, err := f.CloudMask()
	require.NoError(t, err)
	require.Equal(t, int64(1), mask[0])
}

func TestQualityAndErrorIndex(t *testing.T) {
	t.Parallel()

	f, err := Open(buildProduct(t), eps.All())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	mask, err := f.QualityMask()
	require.NoError(t, err)
	require.Len(t, mask, 2*FOV)
	// FOV 0 fails on FLG_LANSEA == 2; the rest pass.
	require.False(t, mask[0])
	require.True(t, mask[1])

	errIdx, err := f.ErrorIndex()
	require.NoError(t, err)
	require.True(t, errIdx[0])
	require.True(t, errIdx[1])
	require.False(t, errIdx[2])

	// NERR sizes the covariance block; the second record has none.
	rec := f.MDRs()[0]
	v, err := rec.Field("TEMPERATURE_ERROR")
	require.NoError(t, err)
	require.Equal(t, []int{2, 3}, v.Shape)

	rec = f.MDRs()[1]
	v, err = rec.Field("TEMPERATURE_ERROR")
	require.NoError(t, err)
	require.Zero(t, v.Len())
}

func TestTimesAndProductGuard(t *testing.T) {
	t.Parallel()

	f, err := Open(buildProduct(t), eps.All())
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	times := f.Times()
	require.Len(t, times, 2)
	require.Equal(t, 2*60, times[1].Second()+times[1].Minute()*60)

	// A non-SND product must be refused.
	bad := epstest.NewBuilder("PCS").
		AddHeaderRecord(eps.ClassGIADR, 1, 1, giadrPayload(t))
	_, err = Open(epstest.WriteFile(t, bad, "wrong.nat"), eps.All())
	require.ErrorIs(t, err, eps.ErrUnsupportedVersion)
}

func isNaN(f float64) bool { return f != f }
