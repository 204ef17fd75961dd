package api

import (
	"math"
	"strconv"
	"time"
)

// Float encodes NaN sentinels as JSON null.
type Float float64

func (f Float) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'g', -1, 64), nil
}

func floats(v []float64) []Float {
	out := make([]Float, len(v))
	for i, x := range v {
		out[i] = Float(x)
	}
	return out
}

// ProductInfo is one row of the product directory listing, taken from
// the file size and the MPHR.
type ProductInfo struct {
	Name         string `json:"name"`
	SizeBytes    int64  `json:"size_bytes"`
	ProductType  string `json:"product_type"`
	InstrumentID string `json:"instrument_id"`
	SpacecraftID string `json:"spacecraft_id"`
	SensingStart string `json:"sensing_start"`
	SensingEnd   string `json:"sensing_end"`
	OrbitStart   int    `json:"orbit_start"`
	MDRCount     int    `json:"mdr_count"`
}

// ProductDetail extends the listing row with the full header picture
// of one product.
type ProductDetail struct {
	ProductInfo

	ProcessingLevel  string `json:"processing_level"`
	ProcessingCentre string `json:"processing_centre"`
	FormatVersion    string `json:"format_version"`
	TotalRecords     int    `json:"total_records"`
	DegradedInstMDR  int    `json:"degraded_inst_mdr"`
	DegradedProcMDR  int    `json:"degraded_proc_mdr"`

	Headers []RecordInfo `json:"headers"`
}

// RecordInfo describes one GRH-framed record without decoding its
// payload.
type RecordInfo struct {
	Index    int       `json:"index"`
	Class    string    `json:"class"`
	Subclass int       `json:"subclass"`
	Version  int       `json:"version"`
	Offset   int64     `json:"offset"`
	Size     int64     `json:"size"`
	Start    time.Time `json:"start"`
	Stop     time.Time `json:"stop"`
	Bad      bool      `json:"bad,omitempty"`
}

// GeolocationResponse carries per-pixel ground coordinates in degrees.
type GeolocationResponse struct {
	Product    string  `json:"product"`
	Start      int     `json:"start"`
	Count      int     `json:"count"`
	Total      int     `json:"total"`
	Latitudes  []Float `json:"latitudes"`
	Longitudes []Float `json:"longitudes"`
}

// ScoresResponse carries principal-component scores together with the
// band metadata needed to interpret them.
type ScoresResponse struct {
	Product           string      `json:"product"`
	FirstChannel      []int       `json:"first_channel"`
	NbrChannels       []int       `json:"nbr_channels"`
	ScoreQuantisation []float64   `json:"score_quantisation"`
	Start             int         `json:"start"`
	Count             int         `json:"count"`
	Total             int         `json:"total"`
	Scores            [][]float64 `json:"scores"`
}

// ResponseError is the error body returned by every failing endpoint.
type ResponseError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Param   string `json:"param,omitempty"`
}
