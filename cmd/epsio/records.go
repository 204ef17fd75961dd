package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/epsio/pkg/eps"
)

func recordsCmd() *cli.Command {
	return &cli.Command{
		Name:      "records",
		Usage:     "Print the record table",
		ArgsUsage: "<product.nat>",
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

			fmt.Printf("%-5s %-8s %-8s %-7s %-12s %-10s %s\n",
				"idx", "class", "subclass", "version", "offset", "size", "start")
			printRecord := func(idx int, rec eps.RawRecord) {
				fmt.Printf("%-5d %-8s %-8d %-7d %-12d %-10d %s\n",
					idx, rec.GRH.Class, rec.GRH.Subclass, rec.GRH.SubclassVersion,
					rec.Offset, rec.GRH.RecordSize,
					rec.GRH.StartTime().Format("2006-01-02T15:04:05.000"))
			}

			idx := 0
			for _, rec := range f.HeaderRecords() {
				printRecord(idx, rec)
				idx++
			}
			for i := 0; i < f.MDRCount(); i++ {
				raw, err := f.RawMDR(i)
				if err != nil {
					return err
				}
				printRecord(idx, raw)
				idx++
			}
			return nil
		},
	}
}
