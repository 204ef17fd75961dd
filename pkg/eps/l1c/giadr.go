package l1c

import (
	"fmt"

	"github.com/samcharles93/epsio/pkg/eps"
)

// ScaleFactors is the decoded GIADR scale-factors record. The sounder
// spectrum is scaled in up to ten channel intervals; interval i covers
// 1-based channels [Nsfirst[i], Nslast[i]] and divides raw counts by
// 10^Factor[i].
type ScaleFactors struct {
	NbScale   int
	Nsfirst   []int64
	Nslast    []int64
	Factor    []int64
	IISFactor int
}

func scaleFactorsFromRecord(rec *eps.Record) (ScaleFactors, error) {
	var sf ScaleFactors
	n, err := rec.Int("IDefScaleSondNbScale")
	if err != nil {
		return sf, err
	}
	sf.NbScale = int(n)
	if sf.Nsfirst, err = rec.Ints("IDefScaleSondNsfirst"); err != nil {
		return sf, err
	}
	if sf.Nslast, err = rec.Ints("IDefScaleSondNslast"); err != nil {
		return sf, err
	}
	if sf.Factor, err = rec.Ints("IDefScaleSondScaleFactor"); err != nil {
		return sf, err
	}
	iis, err := rec.Int("IDefScaleIISScaleFactor")
	if err != nil {
		return sf, err
	}
	sf.IISFactor = int(iis)
	return sf, nil
}

// ChannelScale returns the scale exponent for a 1-based spectrum
// channel: the factor of the first interval whose last channel covers
// it.
func (sf ScaleFactors) ChannelScale(channel int64) (int, error) {
	for i, last := range sf.Nslast {
		if last >= channel {
			return int(sf.Factor[i]), nil
		}
	}
	return 0, fmt.Errorf("%w: channel %d beyond scale-factor intervals", eps.ErrCorruptFile, channel)
}
