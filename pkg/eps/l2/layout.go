// Package l2 decodes IASI level-2 sounding products ("SND"): retrieved
// temperature, humidity and ozone profiles with cloud and surface
// parameters for the 120 fields of view of a scan line.
package l2

import (
	"fmt"

	"github.com/samcharles93/epsio/pkg/eps"
)

// FOV is the number of fields of view per scan line.
const FOV = 120

// Dimension names the MDR layout resolves from the GIADR.
const (
	dimNLT  = "NLT"
	dimNLQ  = "NLQ"
	dimNLO  = "NLO"
	dimNEW  = "NEW"
	dimSO2  = "NL_SO2"
	dimErrT = "NERRT"
	dimErrW = "NERRW"
	dimErrO = "NERRO"
)

// NewRegistry returns the layout registry for level-2 products. MDR
// layouts resolve their profile and covariance extents from the GIADR
// dimensions, so the GIADR must be decoded into File dims first.
func NewRegistry() *eps.Registry {
	reg := eps.NewRegistry(eps.ProductSND)
	reg.Register(eps.ClassGIADR, eps.AnySubclass, eps.AnyVersion, giadrLayout)
	reg.Register(eps.ClassMDR, eps.AnySubclass, eps.AnyVersion, mdrLayout)
	return reg
}

// giadrLayout declares the GIADR. Every table is preceded by its own
// length byte, so the record is self-describing.
func giadrLayout(eps.Dims) ([]eps.FieldSpec, error) {
	return []eps.FieldSpec{
		eps.Field("NUM_PRESSURE_LEVELS_TEMP", eps.TypeU1),
		// Pa with two decimals on the wire; decoded to hPa.
		eps.ScaledField("PRESSURE_LEVELS_TEMP", eps.TypeU4, 4, eps.FromField("NUM_PRESSURE_LEVELS_TEMP")),
		eps.Field("NUM_PRESSURE_LEVELS_HUMIDITY", eps.TypeU1),
		eps.ScaledField("PRESSURE_LEVELS_HUMIDITY", eps.TypeU4, 4, eps.FromField("NUM_PRESSURE_LEVELS_HUMIDITY")),
		eps.Field("NUM_PRESSURE_LEVELS_OZONE", eps.TypeU1),
		eps.ScaledField("PRESSURE_LEVELS_OZONE", eps.TypeU4, 4, eps.FromField("NUM_PRESSURE_LEVELS_OZONE")),
		eps.Field("NUM_SURFACE_EMISSIVITY_WAVELENGTHS", eps.TypeU1),
		eps.ScaledField("SURFACE_EMISSIVITY_WAVELENGTHS", eps.TypeU4, 4, eps.FromField("NUM_SURFACE_EMISSIVITY_WAVELENGTHS")),
		eps.Field("NUM_TEMPERATURE_PCS", eps.TypeU1),
		eps.Field("NUM_WATER_VAPOUR_PCS", eps.TypeU1),
		eps.Field("NUM_OZONE_PCS", eps.TypeU1),
		eps.Field("FORLI_NUM_LAYERS_CO", eps.TypeU1),
		eps.Field("FORLI_LAYER_HEIGHTS_CO", eps.TypeU2, eps.FromField("FORLI_NUM_LAYERS_CO")),
		eps.Field("FORLI_NUM_LAYERS_HNO3", eps.TypeU1),
		eps.Field("FORLI_LAYER_HEIGHTS_HNO3", eps.TypeU2, eps.FromField("FORLI_NUM_LAYERS_HNO3")),
		eps.Field("FORLI_NUM_LAYERS_O3", eps.TypeU1),
		eps.Field("FORLI_LAYER_HEIGHTS_O3", eps.TypeU2, eps.FromField("FORLI_NUM_LAYERS_O3")),
		eps.Field("BRESCIA_NUM_ALTITUDES_SO2", eps.TypeU1),
		eps.Field("BRESCIA_ALTITUDES_SO2", eps.TypeU2, eps.FromField("BRESCIA_NUM_ALTITUDES_SO2")),
	}, nil
}

func need(dims eps.Dims, name string) (int, error) {
	n, ok := dims[name]
	if !ok {
		return 0, fmt.Errorf("%w: MDR layout needs GIADR dimension %s", eps.ErrUnsupportedVersion, name)
	}
	return n, nil
}

// mdrLayout declares the measurement record. Profile widths come from
// the GIADR; the covariance block count NERR is read mid-record.
func mdrLayout(dims eps.Dims) ([]eps.FieldSpec, error) {
	nlt, err := need(dims, dimNLT)
	if err != nil {
		return nil, err
	}
	nlq, err := need(dims, dimNLQ)
	if err != nil {
		return nil, err
	}
	nlo, err := need(dims, dimNLO)
	if err != nil {
		return nil, err
	}
	nEmis, err := need(dims, dimNEW)
	if err != nil {
		return nil, err
	}
	nerrt, err := need(dims, dimErrT)
	if err != nil {
		return nil, err
	}
	nerrw, err := need(dims, dimErrW)
	if err != nil {
		return nil, err
	}
	nerro, err := need(dims, dimErrO)
	if err != nil {
		return nil, err
	}

	flag8 := func(name string) eps.FieldSpec { return eps.Field(name, eps.TypeU1, eps.Fixed(FOV)) }
	flag16 := func(name string) eps.FieldSpec { return eps.Field(name, eps.TypeU2, eps.Fixed(FOV)) }

	return []eps.FieldSpec{
		eps.Field("DEGRADED_INST_MDR", eps.TypeBool),
		eps.Field("DEGRADED_PROC_MDR", eps.TypeBool),
		eps.ScaledField("FG_ATMOSPHERIC_TEMPERATURE", eps.TypeU2, 2, eps.Fixed(FOV), eps.Fixed(nlt)),
		eps.ScaledField("FG_ATMOSPHERIC_WATER_VAPOUR", eps.TypeU4, 7, eps.Fixed(FOV), eps.Fixed(nlq)),
		eps.ScaledField("FG_ATMOSPHERIC_OZONE", eps.TypeU2, 8, eps.Fixed(FOV), eps.Fixed(nlo)),
		eps.ScaledField("FG_SURFACE_TEMPERATURE", eps.TypeU2, 2, eps.Fixed(FOV)),
		eps.ScaledField("FG_QI_ATMOSPHERIC_TEMPERATURE", eps.TypeU1, 1, eps.Fixed(FOV)),
		eps.ScaledField("FG_QI_ATMOSPHERIC_WATER_VAPOUR", eps.TypeU1, 1, eps.Fixed(FOV)),
		eps.ScaledField("FG_QI_ATMOSPHERIC_OZONE", eps.TypeU1, 1, eps.Fixed(FOV)),
		eps.ScaledField("FG_QI_SURFACE_TEMPERATURE", eps.TypeU1, 1, eps.Fixed(FOV)),
		eps.ScaledField("ATMOSPHERIC_TEMPERATURE", eps.TypeU2, 2, eps.Fixed(FOV), eps.Fixed(nlt)),
		eps.ScaledField("ATMOSPHERIC_WATER_VAPOUR", eps.TypeU4, 7, eps.Fixed(FOV), eps.Fixed(nlq)),
		eps.ScaledField("ATMOSPHERIC_OZONE", eps.TypeU2, 8, eps.Fixed(FOV), eps.Fixed(nlo)),
		eps.ScaledField("SURFACE_TEMPERATURE", eps.TypeU2, 2, eps.Fixed(FOV)),
		eps.ScaledField("INTEGRATED_WATER_VAPOUR", eps.TypeU2, 2, eps.Fixed(FOV)),
		eps.ScaledField("INTEGRATED_OZONE", eps.TypeU2, 6, eps.Fixed(FOV)),
		eps.ScaledField("INTEGRATED_N2O", eps.TypeU2, 6, eps.Fixed(FOV)),
		eps.ScaledField("INTEGRATED_CO", eps.TypeU2, 7, eps.Fixed(FOV)),
		eps.ScaledField("INTEGRATED_CH4", eps.TypeU2, 6, eps.Fixed(FOV)),
		eps.ScaledField("INTEGRATED_CO2", eps.TypeU2, 3, eps.Fixed(FOV)),
		eps.ScaledField("SURFACE_EMISSIVITY", eps.TypeU2, 4, eps.Fixed(FOV), eps.Fixed(nEmis)),
		eps.Field("NUMBER_CLOUD_FORMATIONS", eps.TypeU1, eps.Fixed(FOV)),
		eps.ScaledField("FRACTIONAL_CLOUD_COVER", eps.TypeU2, 2, eps.Fixed(FOV), eps.Fixed(3)),
		eps.ScaledField("CLOUD_TOP_TEMPERATURE", eps.TypeU2, 2, eps.Fixed(FOV), eps.Fixed(3)),
		// Pa on the wire; decoded to hPa.
		eps.ScaledField("CLOUD_TOP_PRESSURE", eps.TypeU4, 2, eps.Fixed(FOV), eps.Fixed(3)),
		eps.Field("CLOUD_PHASE", eps.TypeU1, eps.Fixed(FOV), eps.Fixed(3)),
		eps.ScaledField("SURFACE_PRESSURE", eps.TypeU4, 2, eps.Fixed(FOV)),
		eps.Field("INSTRUMENT_MODE", eps.TypeU1),
		eps.ScaledField("SPACECRAFT_ALTITUDE", eps.TypeU4, 1),
		eps.ScaledField("ANGULAR_RELATION", eps.TypeI2, 2, eps.Fixed(FOV), eps.Fixed(4)),
		eps.ScaledField("EARTH_LOCATION", eps.TypeI4, 4, eps.Fixed(FOV), eps.Fixed(2)),
		flag8("FLG_AMSUBAD"),
		flag8("FLG_AVHRRBAD"),
		flag8("FLG_CLDFRM"),
		flag8("FLG_CLDNES"),
		flag16("FLG_CLDTST"),
		flag8("FLG_DAYNIT"),
		flag8("FLG_DUSTCLD"),
		flag16("FLG_FGCHECK"),
		flag8("FLG_IASIBAD"),
		flag8("FLG_INITIA"),
		flag8("FLG_ITCONV"),
		flag8("FLG_LANSEA"),
		flag8("FLG_MHSBAD"),
		flag8("FLG_NUMIT"),
		flag8("FLG_NWPBAD"),
		flag8("FLG_PHYSCHECK"),
		flag16("FLG_RETCHECK"),
		flag8("FLG_SATMAN"),
		flag8("FLG_SUNGLNT"),
		flag8("FLG_THICIR"),
		eps.Field("NERR", eps.TypeU1),
		eps.Field("ERROR_DATA_INDEX", eps.TypeU1, eps.Fixed(FOV)),
		eps.Field("TEMPERATURE_ERROR", eps.TypeU4, eps.FromField("NERR"), eps.Fixed(nerrt)),
		eps.Field("WATER_VAPOUR_ERROR", eps.TypeU4, eps.FromField("NERR"), eps.Fixed(nerrw)),
		eps.Field("OZONE_ERROR", eps.TypeU4, eps.FromField("NERR"), eps.Fixed(nerro)),
		eps.Field("SURFACE_Z", eps.TypeI2, eps.Fixed(FOV)),
	}, nil
}
