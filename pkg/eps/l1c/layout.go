// Package l1c decodes IASI level-1C native products: calibrated and
// apodised spectra with their geolocation, angles and imager context.
package l1c

import "github.com/samcharles93/epsio/pkg/eps"

// Grid constants of the IASI level-1C product. A scan line holds SNOT
// step positions of PN detector pixels each; every pixel carries a
// spectrum of up to SS samples of which S are meaningful.
const (
	SNOT = 30   // steps per scan line
	PN   = 4    // sounder pixels per step
	SS   = 8700 // allocated spectrum samples
	S    = 8461 // meaningful spectrum samples
	SB   = 3    // spectral bands
	SGI  = 25   // imager sub-grid points per step
	CCD  = 2    // corner cube directions
	IMCO = 64   // imager columns
	IMLI = 64   // imager lines
	AMCO = 100  // AVHRRR analysis columns
	AMLI = 100  // AVHRR analysis lines
	NBK  = 6    // AVHRR channels in radiance analysis
	NCL  = 7    // classes in radiance analysis
)

// GIADR subclasses of the level-1C product.
const (
	SubclassQuality      = 0
	SubclassScaleFactors = 1
)

// MDR subclass versions this package can decode.
const (
	MDRVersion4 = 4
	MDRVersion5 = 5
)

// NewRegistry returns the layout registry for level-1C products.
func NewRegistry() *eps.Registry {
	reg := eps.NewRegistry(eps.ProductL1C)
	reg.Register(eps.ClassGIADR, SubclassQuality, eps.AnyVersion, giadrQualityLayout)
	reg.Register(eps.ClassGIADR, SubclassScaleFactors, eps.AnyVersion, giadrScaleFactorsLayout)
	reg.Register(eps.ClassMDR, eps.AnySubclass, MDRVersion4, mdrLayout(MDRVersion4))
	reg.Register(eps.ClassMDR, eps.AnySubclass, MDRVersion5, mdrLayout(MDRVersion5))
	return reg
}

func giadrQualityLayout(eps.Dims) ([]eps.FieldSpec, error) {
	return []eps.FieldSpec{
		eps.Field("IDefPsfSondNbLin", eps.TypeI4, eps.Fixed(PN)),
		eps.Field("IDefPsfSondNbCol", eps.TypeI4, eps.Fixed(PN)),
		eps.Field("IDefPsfSondOverSampFactor", eps.TypeVI4),
		eps.ScaledField("IDefPsfSondY", eps.TypeI4, 6, eps.Fixed(PN), eps.Fixed(100)),
		eps.ScaledField("IDefPsfSondZ", eps.TypeI4, 6, eps.Fixed(PN), eps.Fixed(100)),
		eps.Field("IDefPsfSondWgt", eps.TypeVI4, eps.Fixed(PN), eps.Fixed(100), eps.Fixed(100)),
		eps.Field("IDefllSSrfNsfirst", eps.TypeI4),
		eps.Field("IDefllSSrfNslast", eps.TypeI4),
		eps.Field("IDefllSSrf", eps.TypeVI4, eps.Fixed(100)),
		eps.Field("IDefllSSrfDWn", eps.TypeVI4),
		eps.Field("IDefIISNeDT", eps.TypeVI4, eps.Fixed(IMLI), eps.Fixed(IMCO)),
		eps.Field("IDefDptIISDeadPix", eps.TypeBool, eps.Fixed(IMLI), eps.Fixed(IMCO)),
	}, nil
}

func giadrScaleFactorsLayout(eps.Dims) ([]eps.FieldSpec, error) {
	return []eps.FieldSpec{
		eps.Field("IDefScaleSondNbScale", eps.TypeI2),
		eps.Field("IDefScaleSondNsfirst", eps.TypeI2, eps.Fixed(10)),
		eps.Field("IDefScaleSondNslast", eps.TypeI2, eps.Fixed(10)),
		eps.Field("IDefScaleSondScaleFactor", eps.TypeI2, eps.Fixed(10)),
		eps.Field("IDefScaleIISScaleFactor", eps.TypeI2),
	}, nil
}

// mdrLayout declares the measurement record. Version 5 widens the
// per-spectrum quality flag to one per band and appends the detailed
// quality, IIS statistics and collocated AVHRR fields.
func mdrLayout(version int) eps.LayoutFunc {
	return func(eps.Dims) ([]eps.FieldSpec, error) {
		specs := []eps.FieldSpec{
			eps.Field("DEGRADED_INST_MDR", eps.TypeBool),
			eps.Field("DEGRADED_PROC_MDR", eps.TypeBool),
			eps.BitfieldSpec("GEPSIasiMode", 4),
			eps.BitfieldSpec("GEPSOPSProcessingMode", 4),
			eps.BitfieldSpec("GEPSIdConf", 32),
			eps.Field("GEPSLocIasiAvhrr_IASI", eps.TypeVI4, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(2)),
			eps.Field("GEPSLocIasiAvhrr_IIS", eps.TypeVI4, eps.Fixed(SNOT), eps.Fixed(SGI), eps.Fixed(2)),
			eps.BitfieldSpec("OBT", 6, eps.Fixed(SNOT)),
			eps.Field("ONBoardUTC", eps.TypeShortCDS, eps.Fixed(SNOT)),
			eps.Field("GEPSDatIasi", eps.TypeShortCDS, eps.Fixed(SNOT)),
			eps.Field("GIsfLinOrigin", eps.TypeI4, eps.Fixed(CCD)),
			eps.Field("GIsfColOrigin", eps.TypeI4, eps.Fixed(CCD)),
			eps.ScaledField("GIsfPds1", eps.TypeI4, 6, eps.Fixed(CCD)),
			eps.ScaledField("GIsfPds2", eps.TypeI4, 6, eps.Fixed(CCD)),
			eps.ScaledField("GIsfPds3", eps.TypeI4, 6, eps.Fixed(CCD)),
			eps.ScaledField("GIsfPds4", eps.TypeI4, 6, eps.Fixed(CCD)),
			eps.Field("GEPS_CCD", eps.TypeBool, eps.Fixed(SNOT)),
			eps.Field("GEPS_SP", eps.TypeI4, eps.Fixed(SNOT)),
			eps.ScaledField("GIrcImage", eps.TypeU2, -5, eps.Fixed(SNOT), eps.Fixed(IMLI), eps.Fixed(IMCO)),
		}
		if version == MDRVersion4 {
			specs = append(specs,
				eps.Field("GQisFlagQual", eps.TypeBool, eps.Fixed(SNOT), eps.Fixed(PN)),
			)
		} else {
			specs = append(specs,
				eps.Field("GQisFlagQual", eps.TypeBool, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(SB)),
				eps.Field("GQisFlagQualDetailed", eps.TypeI2, eps.Fixed(SNOT), eps.Fixed(PN)),
			)
		}
		specs = append(specs,
			eps.Field("GQisQualIndex", eps.TypeVI4),
			eps.Field("GQisQualIndexIIS", eps.TypeVI4),
			eps.Field("GQisQualIndexLoc", eps.TypeVI4),
			eps.Field("GQisQualIndexRad", eps.TypeVI4),
			eps.Field("GQisQualIndexSpect", eps.TypeVI4),
			eps.Field("GQisSysTecIISQual", eps.TypeU4),
			eps.Field("GQisSysTecSondQual", eps.TypeU4),
			eps.ScaledField("GGeoSondLoc", eps.TypeI4, 6, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(2)),
			eps.ScaledField("GGeoSondAnglesMETOP", eps.TypeI4, 6, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(2)),
			eps.ScaledField("GGeoIISAnglesMETOP", eps.TypeI4, 6, eps.Fixed(SNOT), eps.Fixed(SGI), eps.Fixed(2)),
			eps.ScaledField("GGeoSondAnglesSUN", eps.TypeI4, 6, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(2)),
			eps.ScaledField("GGeoIISAnglesSUN", eps.TypeI4, 6, eps.Fixed(SNOT), eps.Fixed(SGI), eps.Fixed(2)),
			eps.ScaledField("GGeoIISLoc", eps.TypeI4, 6, eps.Fixed(SNOT), eps.Fixed(SGI), eps.Fixed(2)),
			eps.Field("EARTH_SATELLITE_DISTANCE", eps.TypeU4),
			eps.Field("IDefSpectDWn1b", eps.TypeVI4),
			eps.Field("IDefNsfirst1b", eps.TypeI4),
			eps.Field("IDefNslast1b", eps.TypeI4),
			// Raw counts; the per-channel scale factors from the GIADR
			// are applied by File.Radiances.
			eps.Field("GS1cSpect", eps.TypeI2, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(SS)),
			eps.Field("IDefCovarMatEigenVal1c", eps.TypeVI4, eps.Fixed(100), eps.Fixed(CCD)),
			eps.Field("IDefCcsChannelId", eps.TypeI4, eps.Fixed(NBK)),
			eps.Field("GCcsRadAnalNbClass", eps.TypeI4, eps.Fixed(SNOT), eps.Fixed(PN)),
			eps.Field("GCcsRadAnalWgt", eps.TypeVI4, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(NCL)),
			eps.ScaledField("GCcsRadAnalY", eps.TypeI4, 6, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(NCL)),
			eps.ScaledField("GCcsRadAnalZ", eps.TypeI4, 6, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(NCL)),
			eps.ScaledField("GCcsRadAnalMean", eps.TypeVI4, -3, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(NCL), eps.Fixed(NBK)),
			eps.ScaledField("GCcsRadAnalStd", eps.TypeVI4, -3, eps.Fixed(SNOT), eps.Fixed(PN), eps.Fixed(NCL), eps.Fixed(NBK)),
			eps.Field("GCcsImageClassified", eps.TypeU1, eps.Fixed(SNOT), eps.Fixed(AMLI), eps.Fixed(AMCO)),
			eps.BitfieldSpec("IDefCcsMode", 4),
			eps.Field("GCcsImageClassifiedNbLin", eps.TypeI2, eps.Fixed(SNOT)),
			eps.Field("GCcsImageClassifiedNbCol", eps.TypeI2, eps.Fixed(SNOT)),
			eps.Field("GCcsImageClassifiedFirstLin", eps.TypeVI4, eps.Fixed(SNOT)),
			eps.Field("GCcsImageClassifiedFirstCol", eps.TypeVI4, eps.Fixed(SNOT)),
			eps.Field("GCcsRadAnalType", eps.TypeBool, eps.Fixed(SNOT), eps.Fixed(NCL)),
		)
		if version == MDRVersion5 {
			specs = append(specs,
				eps.ScaledField("GIacVarImagIIS", eps.TypeVI4, -5, eps.Fixed(SNOT)),
				eps.ScaledField("GIacAvgImagIIS", eps.TypeVI4, -5, eps.Fixed(SNOT)),
				eps.Field("GEUMAvhrr1BCldFrac", eps.TypeU1, eps.Fixed(SNOT), eps.Fixed(PN)),
				eps.Field("GEUMAvhrr1BLandFrac", eps.TypeU1, eps.Fixed(SNOT), eps.Fixed(PN)),
				eps.BitfieldSpec("GEUMAvhrr1BQual", 1, eps.Fixed(SNOT), eps.Fixed(PN)),
			)
		}
		return specs, nil
	}
}
