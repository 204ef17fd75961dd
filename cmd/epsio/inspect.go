package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/epsio/pkg/eps"
)

func inspectCmd() *cli.Command {
	var showValues bool

	return &cli.Command{
		Name:      "inspect",
		Usage:     "Print product-level metadata",
		ArgsUsage: "<product.nat>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:        "values",
				Usage:       "print every MPHR line verbatim",
				Destination: &showValues,
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return fmt.Errorf("product path required")
			}
			f, err := eps.Open(path, eps.NewRegistry(""))
			if err != nil {
				return err
			}
			defer func() { _ = f.Close() }()

			m := f.MPHR()
			fmt.Printf("product:        %s\n", m.ProductName)
			fmt.Printf("type:           %s (level %s)\n", m.ProductType, m.ProcessingLevel)
			fmt.Printf("instrument:     %s (model %d)\n", m.InstrumentID, m.InstrumentModel)
			fmt.Printf("spacecraft:     %s\n", m.SpacecraftID)
			fmt.Printf("sensing:        %s .. %s\n", m.SensingStart, m.SensingEnd)
			fmt.Printf("orbit:          %d .. %d\n", m.OrbitStart, m.OrbitEnd)
			fmt.Printf("format version: %d.%d\n", m.FormatMajorVersion, m.FormatMinorVersion)
			fmt.Printf("centre:         %s\n", m.ProcessingCentre)
			fmt.Printf("records:        %d total, %d MDR\n", m.TotalRecords, f.MDRCount())
			if m.CountDegradedInstMDR > 0 || m.CountDegradedProcMDR > 0 {
				fmt.Printf("degraded:       %d instrument, %d processing\n",
					m.CountDegradedInstMDR, m.CountDegradedProcMDR)
			}

			if n := f.MDRCount(); n > 0 {
				first, err := f.RawMDR(0)
				if err != nil {
					return err
				}
				last, err := f.RawMDR(n - 1)
				if err != nil {
					return err
				}
				fmt.Printf("measurements:   %s .. %s\n",
					first.GRH.StartTime().Format("2006-01-02T15:04:05.000"),
					last.GRH.StopTime().Format("2006-01-02T15:04:05.000"))
			}

			if showValues {
				names := make([]string, 0, len(m.Values))
				for name := range m.Values {
					names = append(names, name)
				}
				sort.Strings(names)
				fmt.Println()
				for _, name := range names {
					fmt.Printf("%s = %s\n", name, m.Values[name])
				}
			}
			return nil
		},
	}
}
