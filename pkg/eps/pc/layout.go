// Package pc decodes IASI principal-component products: the scores
// product "PCS" and the residual product "PCR". Both carry the
// level-1C scan geometry; the spectra are replaced by quantised PC
// scores and, in the residual product, the per-channel reconstruction
// residual.
package pc

import (
	"fmt"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
)

// MDRVersion is the subclass version of the score MDR.
const MDRVersion = 1

// minScoresMDRSize is the smallest plausible scores record. Shorter
// records carry no measurement and are kept as gaps.
const minScoresMDRSize = 122094

// scoreDims names the GIADR score counts published to the MDR layout.
// Band b part p counts the scores stored as 4, 2 and 1 byte integers
// respectively.
var scoreDims = [l1c.SB][3]string{
	{"NBS1P1", "NBS1P2", "NBS1P3"},
	{"NBS2P1", "NBS2P2", "NBS2P3"},
	{"NBS3P1", "NBS3P2", "NBS3P3"},
}

func scoreField(band, part int) string {
	return fmt.Sprintf("PcScoresB%dP%d", band+1, part+1)
}

// newRegistry builds a per-open registry. The scores and residual MDRs
// share class, subclass and version, so the layout follows the product
// variant, which is only known once the MPHR is decoded. The returned
// pointer must be set before measurement records are decoded.
func newRegistry() (*eps.Registry, *eps.Product) {
	variant := new(eps.Product)
	reg := eps.NewRegistry(eps.ProductPCS)
	reg.Register(eps.ClassGIADR, eps.AnySubclass, eps.AnyVersion, giadrLayout)
	reg.Register(eps.ClassMDR, eps.AnySubclass, MDRVersion, func(dims eps.Dims) ([]eps.FieldSpec, error) {
		if *variant == eps.ProductPCR {
			return residualLayout(dims)
		}
		return scoresLayout(dims)
	})
	reg.Register(eps.ClassMDR, eps.AnySubclass, eps.AnyVersion, func(dims eps.Dims) ([]eps.FieldSpec, error) {
		// The residual product does not pin a subclass version.
		if *variant == eps.ProductPCR {
			return residualLayout(dims)
		}
		return nil, fmt.Errorf("%w: scores MDR must be version %d", eps.ErrUnsupportedVersion, MDRVersion)
	})
	return reg, variant
}

func giadrLayout(eps.Dims) ([]eps.FieldSpec, error) {
	specs := make([]eps.FieldSpec, 0, 13)
	for _, band := range scoreDims {
		for _, name := range band {
			specs = append(specs, eps.Field(name, eps.TypeU2))
		}
	}
	return append(specs,
		eps.Field("FirstChannel", eps.TypeU2, eps.Fixed(l1c.SB)),
		eps.Field("NbrChannels", eps.TypeU2, eps.Fixed(l1c.SB)),
		eps.ScaledField("ScoreQuantisationFactor", eps.TypeU2, 2, eps.Fixed(l1c.SB)),
		eps.ScaledField("ResidualQuantisationFactor", eps.TypeU2, 2, eps.Fixed(l1c.SB)),
	), nil
}

// scoresLayout declares the PCS measurement record: the level-1C scan
// context followed by the per-band score blocks and the reconstruction
// RMS the ground segment computed when quantising.
func scoresLayout(dims eps.Dims) ([]eps.FieldSpec, error) {
	specs := []eps.FieldSpec{
		eps.Field("DEGRADED_INST_MDR", eps.TypeBool),
		eps.Field("DEGRADED_PROC_MDR", eps.TypeBool),
		eps.BitfieldSpec("GEPSIasiMode", 4),
		eps.BitfieldSpec("GEPSOPSProcessingMode", 4),
		eps.BitfieldSpec("GEPSIdConf", 32),
		eps.BitfieldSpec("OBT", 6, eps.Fixed(l1c.SNOT)),
		eps.Field("ONBoardUTC", eps.TypeShortCDS, eps.Fixed(l1c.SNOT)),
		eps.Field("GEPSDatIasi", eps.TypeShortCDS, eps.Fixed(l1c.SNOT)),
		eps.Field("GEPS_SP", eps.TypeI4, eps.Fixed(l1c.SNOT)),
		eps.Field("GQisFlagQual", eps.TypeBool, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(l1c.SB)),
		eps.Field("GQisFlagQualDetailed", eps.TypeI2, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN)),
		eps.Field("GQisQualIndex", eps.TypeVI4),
		eps.Field("GQisQualIndexLoc", eps.TypeVI4),
		eps.Field("GQisQualIndexRad", eps.TypeVI4),
		eps.Field("GQisQualIndexSpect", eps.TypeVI4),
		eps.Field("GQisSysTecSondQual", eps.TypeU4),
		eps.ScaledField("GGeoSondLoc", eps.TypeI4, 6, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(2)),
		eps.ScaledField("GGeoSondAnglesMETOP", eps.TypeI4, 6, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(2)),
		eps.ScaledField("GGeoSondAnglesSUN", eps.TypeI4, 6, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(2)),
		eps.Field("EARTH_SATELLITE_DISTANCE", eps.TypeU4),
		eps.Field("IDefCcsChannelId", eps.TypeI4, eps.Fixed(l1c.NBK)),
		eps.Field("GCcsRadAnalNbClass", eps.TypeI4, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN)),
		eps.Field("GCcsRadAnalWgt", eps.TypeVI4, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(l1c.NCL)),
		eps.ScaledField("GCcsRadAnalY", eps.TypeI4, 6, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(l1c.NCL)),
		eps.ScaledField("GCcsRadAnalZ", eps.TypeI4, 6, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(l1c.NCL)),
		eps.ScaledField("GCcsRadAnalMean", eps.TypeVI4, -3, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(l1c.NCL), eps.Fixed(l1c.NBK)),
		eps.ScaledField("GCcsRadAnalStd", eps.TypeVI4, -3, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(l1c.NCL), eps.Fixed(l1c.NBK)),
		eps.Field("GEUMAvhrr1BCldFrac", eps.TypeU1, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN)),
		eps.Field("GEUMAvhrr1BLandFrac", eps.TypeU1, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN)),
		eps.BitfieldSpec("GEUMAvhrr1BQual", 1, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN)),
	}
	widths := [3]eps.ElemType{eps.TypeI4, eps.TypeI2, eps.TypeI1}
	for band := range scoreDims {
		for part, dim := range scoreDims[band] {
			n, ok := dims[dim]
			if !ok {
				return nil, fmt.Errorf("%w: scores layout needs GIADR dimension %s", eps.ErrUnsupportedVersion, dim)
			}
			specs = append(specs, eps.Field(scoreField(band, part), widths[part],
				eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(n)))
		}
	}
	return append(specs,
		eps.ScaledField("ResidualRMS", eps.TypeU2, 3, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(l1c.SB)),
	), nil
}

// residualLayout declares the PCR measurement record: the quantised
// per-channel residual for every sounder pixel.
func residualLayout(eps.Dims) ([]eps.FieldSpec, error) {
	return []eps.FieldSpec{
		eps.Field("DEGRADED_INST_MDR", eps.TypeBool),
		eps.Field("DEGRADED_PROC_MDR", eps.TypeBool),
		eps.Field("PccResidual", eps.TypeI1, eps.Fixed(l1c.SNOT), eps.Fixed(l1c.PN), eps.Fixed(l1c.S)),
	}, nil
}
