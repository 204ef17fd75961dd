package main

import (
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/epsio/pkg/eps"
)

// jsonFloat encodes NaN sentinels as null instead of failing the whole
// document.
type jsonFloat float64

func (f jsonFloat) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, float64(f), 'g', -1, 64), nil
}

func jsonFloats(v []float64) []jsonFloat {
	out := make([]jsonFloat, len(v))
	for i, x := range v {
		out[i] = jsonFloat(x)
	}
	return out
}

func jsonRows(rows [][]float64) [][]jsonFloat {
	out := make([][]jsonFloat, len(rows))
	for i, row := range rows {
		out[i] = jsonFloats(row)
	}
	return out
}

// dumpDoc is the JSON document the dump command emits. Exactly one of
// the data members is populated, matching the requested field.
type dumpDoc struct {
	Product string `json:"product"`
	Type    string `json:"type"`
	Field   string `json:"field"`
	Start   int    `json:"start"`
	Count   int    `json:"count"`
	Total   int    `json:"total"`

	Values []jsonFloat   `json:"values,omitempty"`
	Rows   [][]jsonFloat `json:"rows,omitempty"`
	Flags  []bool        `json:"flags,omitempty"`
	Times  []time.Time   `json:"times,omitempty"`
}

func dumpCmd() *cli.Command {
	var (
		field   string
		start   int64
		count   int64
		output  string
		compact bool
	)

	return &cli.Command{
		Name:      "dump",
		Usage:     "Decode one field of a product as JSON",
		ArgsUsage: "<product.nat>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "field",
				Aliases:     []string{"f"},
				Usage:       "field to dump (latitudes, longitudes, times, radiances, temperature, surface-temperature, quality, scores, residual-rms, residual)",
				Value:       "latitudes",
				Destination: &field,
			},
			&cli.Int64Flag{
				Name:        "start",
				Usage:       "first pixel to emit",
				Destination: &start,
			},
			&cli.Int64Flag{
				Name:        "count",
				Usage:       "number of pixels to emit (0 = all)",
				Destination: &count,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (default stdout)",
				Destination: &output,
			},
			&cli.BoolFlag{
				Name:        "compact",
				Usage:       "emit compact JSON",
				Destination: &compact,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("product path required")
			}
			p, err := openProduct(path, eps.All())
			if err != nil {
				return err
			}
			defer func() { _ = p.close() }()

			doc := dumpDoc{Product: path, Type: string(p.typ), Field: field}
			if err := fillDump(&doc, p, field); err != nil {
				return err
			}
			if err := sliceDump(&doc, int(start), int(count)); err != nil {
				return err
			}

			out := io.Writer(os.Stdout)
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			enc := json.NewEncoder(out)
			if !compact {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(doc)
		},
	}
}

func fillDump(doc *dumpDoc, p *product, field string) error {
	var (
		values []float64
		rows   [][]float64
		err    error
	)
	switch field {
	case "latitudes":
		values, err = latitudes(p)
	case "longitudes":
		values, err = longitudes(p)
	case "times":
		doc.Times, err = obsTimes(p)
	case "radiances":
		if p.l1c == nil {
			return fmt.Errorf("field %q needs a level-1C product", field)
		}
		rows, err = p.l1c.Radiances()
	case "temperature":
		if p.l2 == nil {
			return fmt.Errorf("field %q needs a level-2 sounding product", field)
		}
		rows, err = p.l2.TemperatureProfiles()
	case "surface-temperature":
		if p.l2 == nil {
			return fmt.Errorf("field %q needs a level-2 sounding product", field)
		}
		values, err = p.l2.SurfaceTemperatures()
	case "quality":
		doc.Flags, err = qualityFlags(p)
	case "scores":
		if p.pc == nil {
			return fmt.Errorf("field %q needs a principal-component product", field)
		}
		rows, err = p.pc.Scores()
	case "residual-rms":
		if p.pc == nil {
			return fmt.Errorf("field %q needs a principal-component product", field)
		}
		rows, err = p.pc.ResidualRMS()
	case "residual":
		if p.pc == nil {
			return fmt.Errorf("field %q needs a principal-component product", field)
		}
		rows, err = p.pc.Residual()
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	if err != nil {
		return err
	}
	if values != nil {
		doc.Values = jsonFloats(values)
	}
	if rows != nil {
		doc.Rows = jsonRows(rows)
	}
	return nil
}

func latitudes(p *product) ([]float64, error) {
	switch {
	case p.l1c != nil:
		return p.l1c.Latitudes()
	case p.l2 != nil:
		return p.l2.Latitudes()
	default:
		return p.pc.Latitudes()
	}
}

func longitudes(p *product) ([]float64, error) {
	switch {
	case p.l1c != nil:
		return p.l1c.Longitudes()
	case p.l2 != nil:
		return p.l2.Longitudes()
	default:
		return p.pc.Longitudes()
	}
}

func obsTimes(p *product) ([]time.Time, error) {
	switch {
	case p.l1c != nil:
		return p.l1c.ObsTimes()
	case p.l2 != nil:
		return p.l2.Times(), nil
	default:
		return p.pc.ObsTimes()
	}
}

func qualityFlags(p *product) ([]bool, error) {
	switch {
	case p.l2 != nil:
		return p.l2.QualityMask()
	case p.pc != nil:
		return p.pc.QualityFlags()
	default:
		return nil, fmt.Errorf("field %q has no meaning for a %s product", "quality", p.typ)
	}
}

// sliceDump applies the start/count window to whichever member holds
// the data.
func sliceDump(doc *dumpDoc, start, count int) error {
	total := 0
	switch {
	case doc.Values != nil:
		total = len(doc.Values)
	case doc.Rows != nil:
		total = len(doc.Rows)
	case doc.Flags != nil:
		total = len(doc.Flags)
	case doc.Times != nil:
		total = len(doc.Times)
	}
	if start < 0 || start > total {
		return fmt.Errorf("start %d out of range [0,%d]", start, total)
	}
	if count <= 0 || start+count > total {
		count = total - start
	}
	doc.Start, doc.Count, doc.Total = start, count, total

	switch {
	case doc.Values != nil:
		doc.Values = doc.Values[start : start+count]
	case doc.Rows != nil:
		doc.Rows = doc.Rows[start : start+count]
	case doc.Flags != nil:
		doc.Flags = doc.Flags[start : start+count]
	case doc.Times != nil:
		doc.Times = doc.Times[start : start+count]
	}
	return nil
}
