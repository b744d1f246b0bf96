package main

import (
	"github.com/spf13/cobra"
)

func newHealthCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check that the server is up",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			h, err := c.Health(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, h)
		},
	}
}

func newStatsCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			s, err := c.Stats(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd, s)
		},
	}
}

func newFlowCmd(g *globals) *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Trace the downhill flow path from a point",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			f, err := c.FlowPath(cmd.Context(), lat, lon)
			if err != nil {
				return err
			}
			return printJSON(cmd, f)
		},
	}
	pointFlags(cmd, &lat, &lon)
	return cmd
}

func newWatershedCmd(g *globals) *cobra.Command {
	var lat, lon, radius, interval float64
	cmd := &cobra.Command{
		Use:   "watershed",
		Short: "Delineate the basin draining to a point",
		Long: `Delineate the basin draining to a point. With --interval the answer is
the contour set clipped to the basin instead of its outline.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			if interval > 0 {
				fc, err := c.WatershedContours(cmd.Context(), lat, lon, radius, interval)
				if err != nil {
					return err
				}
				return printJSON(cmd, fc)
			}
			f, err := c.Watershed(cmd.Context(), lat, lon, radius)
			if err != nil {
				return err
			}
			return printJSON(cmd, f)
		},
	}
	pointFlags(cmd, &lat, &lon)
	cmd.Flags().Float64Var(&radius, "radius", 0, "Terrain radius in meters (server default when 0)")
	cmd.Flags().Float64Var(&interval, "interval", 0, "Contour interval in meters")
	return cmd
}

func newContoursCmd(g *globals) *cobra.Command {
	var lat, lon, radius, interval float64
	var bbox string
	cmd := &cobra.Command{
		Use:   "contours",
		Short: "Contour lines around a point or inside a box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			if bbox != "" {
				b, err := parseBox(bbox)
				if err != nil {
					return err
				}
				fc, err := c.BBoxContours(cmd.Context(), b, interval)
				if err != nil {
					return err
				}
				return printJSON(cmd, fc)
			}
			fc, err := c.Contours(cmd.Context(), lat, lon, radius, interval)
			if err != nil {
				return err
			}
			return printJSON(cmd, fc)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().StringVar(&bbox, "bbox", "", "Box minx,miny,maxx,maxy instead of a point")
	cmd.Flags().Float64Var(&radius, "radius", 0, "Radius in meters around the point")
	cmd.Flags().Float64Var(&interval, "interval", 0, "Contour interval in meters")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsOneRequired("lat", "bbox")
	cmd.MarkFlagsMutuallyExclusive("lat", "bbox")
	return cmd
}

func newGridCmd(g *globals) *cobra.Command {
	var bbox string
	var spacing float64
	var async bool
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Compute a watershed heatmap over a box",
		Long: `Compute a watershed heatmap over a box. With --async the heatmap is
queued as a job and polled until it finishes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			b, err := parseBox(bbox)
			if err != nil {
				return err
			}
			c, err := g.client()
			if err != nil {
				return err
			}
			if !async {
				fc, err := c.Grid(cmd.Context(), b, spacing)
				if err != nil {
					return err
				}
				return printJSON(cmd, fc)
			}
			acc, err := c.SubmitGridJob(cmd.Context(), b, spacing)
			if err != nil {
				return err
			}
			st, err := c.WaitJob(cmd.Context(), acc.ID)
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	}
	cmd.Flags().StringVar(&bbox, "bbox", "", "Box minx,miny,maxx,maxy")
	cmd.Flags().Float64Var(&spacing, "spacing", 0, "Grid spacing in meters (server default when 0)")
	cmd.Flags().BoolVar(&async, "async", false, "Queue as a job and wait for it")
	_ = cmd.MarkFlagRequired("bbox")
	return cmd
}

func newJobCmd(g *globals) *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "job ID",
		Short: "Show a grid job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			if wait {
				st, err := c.WaitJob(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printJSON(cmd, st)
			}
			st, err := c.Job(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(cmd, st)
		},
	}
	cmd.Flags().BoolVar(&wait, "wait", false, "Poll until the job finishes")
	return cmd
}

func newFloodCmd(g *globals) *cobra.Command {
	var lat, lon float64
	var bbox string
	cmd := &cobra.Command{
		Use:   "flood",
		Short: "Flood zone at a point, or zones inside a box",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			if bbox != "" {
				b, err := parseBox(bbox)
				if err != nil {
					return err
				}
				fc, err := c.FloodZones(cmd.Context(), b)
				if err != nil {
					return err
				}
				return printJSON(cmd, fc)
			}
			fp, err := c.FloodPoint(cmd.Context(), lat, lon)
			if err != nil {
				return err
			}
			return printJSON(cmd, fp)
		},
	}
	cmd.Flags().Float64Var(&lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(&lon, "lon", 0, "Longitude in degrees")
	cmd.Flags().StringVar(&bbox, "bbox", "", "Box minx,miny,maxx,maxy instead of a point")
	cmd.MarkFlagsRequiredTogether("lat", "lon")
	cmd.MarkFlagsOneRequired("lat", "bbox")
	cmd.MarkFlagsMutuallyExclusive("lat", "bbox")
	return cmd
}

func newBuildabilityCmd(g *globals) *cobra.Command {
	var lat, lon float64
	cmd := &cobra.Command{
		Use:   "buildability",
		Short: "Check whether a point is buildable",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			b, err := c.Buildability(cmd.Context(), lat, lon)
			if err != nil {
				return err
			}
			return printJSON(cmd, b)
		},
	}
	pointFlags(cmd, &lat, &lon)
	return cmd
}

func newPlacementCmd(g *globals) *cobra.Command {
	var lat, lon, radius float64
	var n int
	cmd := &cobra.Command{
		Use:   "placement",
		Short: "Suggest building sites outside flood zones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := g.client()
			if err != nil {
				return err
			}
			out, err := c.Placement(cmd.Context(), lat, lon, radius, n)
			if err != nil {
				return err
			}
			return printJSON(cmd, out)
		},
	}
	pointFlags(cmd, &lat, &lon)
	cmd.Flags().Float64Var(&radius, "radius", 0, "Search radius in meters (server default when 0)")
	cmd.Flags().IntVarP(&n, "num", "n", 0, "Number of suggestions (server default when 0)")
	return cmd
}
