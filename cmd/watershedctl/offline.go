package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/okian/watershed/internal/adapters/dem"
	"github.com/okian/watershed/internal/domain/raster"
	"github.com/okian/watershed/internal/domain/watershed"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
)

const demFilePermission = 0o644

// errOffRaster is returned when the query point is not on a data cell.
var errOffRaster = errors.New("point is not on a data cell of the DEM")

func newAnalyzeCmd() *cobra.Command {
	var (
		path     string
		nodata   float64
		lat, lon float64
		interval float64
	)
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Delineate a basin from a local ESRI ASCII grid",
		Long: `Delineate the basin draining to a point using a local ESRI ASCII grid
instead of a server. With --interval the answer is the contour set clipped
to the basin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := readDEM(path, nodata)
			if err != nil {
				return err
			}
			a := watershed.NewAnalysis(r)
			p := orb.Point{lon, lat}
			if !r.Bound().Contains(p) || !a.Valid(p) {
				return errOffRaster
			}
			if interval > 0 {
				return printJSON(cmd, a.Contours(p, interval).FeatureCollection())
			}
			return printJSON(cmd, a.Watershed(p).Feature())
		},
	}
	cmd.Flags().StringVar(&path, "dem", "", "Path to an ESRI ASCII grid")
	cmd.Flags().Float64Var(&nodata, "nodata", raster.DefaultNodata, "Nodata value when the header has none")
	cmd.Flags().Float64Var(&interval, "interval", 0, "Contour interval in meters")
	pointFlags(cmd, &lat, &lon)
	_ = cmd.MarkFlagRequired("dem")
	return cmd
}

func readDEM(path string, nodata float64) (*raster.Raster, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dem: %w", err)
	}
	defer func() { _ = f.Close() }()
	r, err := dem.ReadASCII(f, nodata)
	if err != nil {
		return nil, fmt.Errorf("read dem %s: %w", path, err)
	}
	return r, nil
}

func newDEMCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dem",
		Short: "Elevation file utilities",
	}
	cmd.AddCommand(newDEMSynthCmd())
	return cmd
}

func newDEMSynthCmd() *cobra.Command {
	var (
		lat, lon float64
		radius   float64
		size     int
		out      string
	)
	cmd := &cobra.Command{
		Use:   "synth",
		Short: "Write the synthetic dome used when no terrain is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if radius <= 0 {
				return fmt.Errorf("radius must be positive, got %g", radius)
			}
			r := raster.Synthetic(lon, lat, radius, size, raster.SeedFor(lon, lat))
			f, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, demFilePermission)
			if err != nil {
				return fmt.Errorf("create %s: %w", out, err)
			}
			if err := dem.WriteASCII(f, r); err != nil {
				_ = f.Close()
				return fmt.Errorf("write %s: %w", out, err)
			}
			if err := f.Close(); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "wrote %dx%d grid to %s\n", r.Rows(), r.Cols(), out)
			return err
		},
	}
	pointFlags(cmd, &lat, &lon)
	cmd.Flags().Float64Var(&radius, "radius", 500, "Half-side of the grid in meters")
	cmd.Flags().IntVar(&size, "size", raster.SyntheticSize, "Cells per side")
	cmd.Flags().StringVarP(&out, "out", "o", "synthetic.asc", "Output path")
	return cmd
}
