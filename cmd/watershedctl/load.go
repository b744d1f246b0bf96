package main

import (
	"runtime"

	"github.com/okian/watershed/internal/loadtest"
	"github.com/spf13/cobra"
)

func newLoadCmd(g *globals) *cobra.Command {
	cfg := &loadtest.Config{}
	var area string
	cmd := &cobra.Command{
		Use:   "load",
		Short: "Submit concurrent grid jobs and verify every heatmap",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := parseBox(area)
			if err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			cfg.BaseURL = g.url
			cfg.Area = b
			cfg.Verbose = g.verbose
			stats, err := loadtest.Run(cmd.Context(), cfg, c)
			if stats != nil {
				if perr := printJSON(cmd, stats); perr != nil {
					return perr
				}
			}
			return err
		},
	}
	f := cmd.Flags()
	f.StringVar(&area, "area", "-105.30,40.00,-105.25,40.05", "Box minx,miny,maxx,maxy the job tiles are drawn from")
	f.IntVar(&cfg.Jobs, "jobs", 50, "Number of grid jobs to submit")
	f.IntVar(&cfg.Workers, "workers", runtime.NumCPU(), "Concurrent submitters and pollers")
	f.Float64Var(&cfg.TileDeg, "tile", 0.004, "Side of each job tile in degrees")
	f.Float64Var(&cfg.SpacingM, "spacing", 0, "Grid spacing in meters (server default when 0)")
	f.Uint64Var(&cfg.Seed, "seed", 1, "Tile generator seed")
	f.StringVar(&cfg.OutputFile, "output", "", "Write the JSON report to this file")
	return cmd
}
