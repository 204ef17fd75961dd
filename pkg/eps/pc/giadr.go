package pc

import (
	"fmt"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/l1c"
)

// GIADR holds the quantisation parameters shared by the scores and
// residual products. The decoder needs the score counts to size the
// MDR; reconstruction needs the band boundaries and the quantisation
// factors.
type GIADR struct {
	// ScoreCounts[b][p] is the number of band-b scores stored as
	// 4, 2 and 1 byte integers for p = 0, 1, 2.
	ScoreCounts [l1c.SB][3]int

	// FirstChannel is the zero-based spectrum index where each band
	// starts. NbrChannels is the width of each band.
	FirstChannel [l1c.SB]int
	NbrChannels  [l1c.SB]int

	ScoreQuantisation    [l1c.SB]float64
	ResidualQuantisation [l1c.SB]float64
}

func giadrFromRecord(rec *eps.Record) (*GIADR, error) {
	g := &GIADR{}
	for band := range scoreDims {
		for part, name := range scoreDims[band] {
			n, err := rec.Int(name)
			if err != nil {
				return nil, err
			}
			g.ScoreCounts[band][part] = int(n)
		}
	}

	first, err := rec.Ints("FirstChannel")
	if err != nil {
		return nil, err
	}
	nbr, err := rec.Ints("NbrChannels")
	if err != nil {
		return nil, err
	}
	sqf, err := rec.Floats("ScoreQuantisationFactor")
	if err != nil {
		return nil, err
	}
	rqf, err := rec.Floats("ResidualQuantisationFactor")
	if err != nil {
		return nil, err
	}
	for b := range l1c.SB {
		if first[b] < 1 {
			return nil, fmt.Errorf("%w: band %d first channel %d", eps.ErrCorruptFile, b+1, first[b])
		}
		// The file numbers channels from 1.
		g.FirstChannel[b] = int(first[b]) - 1
		g.NbrChannels[b] = int(nbr[b])
		g.ScoreQuantisation[b] = sqf[b]
		g.ResidualQuantisation[b] = rqf[b]
	}
	return g, nil
}

// fillDims publishes the score counts the MDR layout sizes its score
// blocks with.
func (g *GIADR) fillDims(dims eps.Dims) {
	for band := range scoreDims {
		for part, name := range scoreDims[band] {
			dims[name] = g.ScoreCounts[band][part]
		}
	}
}

// BandScores is the total number of scores of one band.
func (g *GIADR) BandScores(band int) int {
	n := 0
	for _, c := range g.ScoreCounts[band] {
		n += c
	}
	return n
}

// TotalScores is the number of scores per sounder pixel across all
// bands.
func (g *GIADR) TotalScores() int {
	n := 0
	for b := range g.ScoreCounts {
		n += g.BandScores(b)
	}
	return n
}
