package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/samcharles93/epsio/pkg/eps"
	"github.com/samcharles93/epsio/pkg/eps/pc"
	"github.com/samcharles93/epsio/pkg/pcc"
)

// spectraMagic heads the binary spectra container: rows of big-endian
// float64 radiances, one row per sounder pixel.
var spectraMagic = [4]byte{'E', 'P', 'S', 'R'}

func reconstructCmd() *cli.Command {
	var (
		basisPath    string
		residualPath string
		output       string
		asJSON       bool
	)

	return &cli.Command{
		Name:      "reconstruct",
		Usage:     "Reconstruct radiance spectra from a PC scores product",
		ArgsUsage: "<scores.nat>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "basis",
				Aliases:     []string{"b"},
				Usage:       "eigenvector basis file",
				Required:    true,
				Destination: &basisPath,
			},
			&cli.StringFlag{
				Name:        "residual",
				Aliases:     []string{"r"},
				Usage:       "matching residual product for lossless reconstruction",
				Destination: &residualPath,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (default stdout)",
				Destination: &output,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "emit JSON instead of the binary container",
				Destination: &asJSON,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			scoresPath := cmd.Args().First()
			if scoresPath == "" {
				return fmt.Errorf("scores product path required")
			}
			applyBasisConfig(LoadConfig(), &basisPath)

			basis, err := pcc.Load(basisPath)
			if err != nil {
				return err
			}
			sf, err := pc.Open(scoresPath, eps.All())
			if err != nil {
				return err
			}
			defer func() { _ = sf.Close() }()
			if sf.Variant() != eps.ProductPCS {
				return fmt.Errorf("%s is a %s product, need PCS", scoresPath, sf.Variant())
			}

			rec, err := pcc.New(basis, sf.GIADR())
			if err != nil {
				return err
			}
			scores, err := sf.Scores()
			if err != nil {
				return err
			}

			var spectra [][]float64
			if residualPath != "" {
				rf, err := pc.Open(residualPath, eps.All())
				if err != nil {
					return err
				}
				defer func() { _ = rf.Close() }()
				residual, err := rf.Residual()
				if err != nil {
					return err
				}
				spectra, err = rec.ReconstructWithResidual(scores, residual)
				if err != nil {
					return err
				}
			} else {
				spectra, err = rec.Reconstruct(scores)
				if err != nil {
					return err
				}
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
			if asJSON {
				enc := json.NewEncoder(out)
				return enc.Encode(map[string]any{
					"channels": pc.Channels(),
					"rows":     jsonRows(spectra),
				})
			}
			return writeSpectra(out, spectra, rec.Channels())
		},
	}
}

func writeSpectra(w io.Writer, spectra [][]float64, cols int) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.Write(spectraMagic[:]); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(len(spectra))); err != nil {
		return err
	}
	if err := binary.Write(bw, binary.BigEndian, uint32(cols)); err != nil {
		return err
	}
	for i, row := range spectra {
		if len(row) != cols {
			return fmt.Errorf("row %d holds %d channels, want %d", i, len(row), cols)
		}
		if err := binary.Write(bw, binary.BigEndian, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}
