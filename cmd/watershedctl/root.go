package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/okian/watershed/internal/client"
	"github.com/okian/watershed/pkg/logger"
	"github.com/paulmach/orb"
	"github.com/spf13/cobra"
)

const (
	defaultURL     = "http://localhost:9080"
	defaultTimeout = 2 * time.Minute
)

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	url       string
	timeout   time.Duration
	logFormat string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "watershedctl",
		Short: "Query a watershed server or analyze a local DEM",
		Long: `watershedctl talks to a running watershed server and can run the same
analyses offline against an ESRI ASCII grid.

Remote commands take --url (default ` + defaultURL + `). Points are given
with --lat and --lon, boxes with --bbox minx,miny,maxx,maxy.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(cmd.ErrOrStderr(), logger.Format(g.logFormat)); err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			if g.verbose {
				return logger.SetLevelString("debug")
			}
			return logger.SetLevelString("warn")
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.url, "url", envOr("WATERSHED_URL", defaultURL), "Base URL of the watershed server")
	pf.DurationVar(&g.timeout, "timeout", defaultTimeout, "HTTP request timeout")
	pf.StringVar(&g.logFormat, "log-format", "text", "Log format (text, json)")
	pf.BoolVarP(&g.verbose, "verbose", "v", false, "Enable debug logging")

	root.AddCommand(
		newHealthCmd(g),
		newStatsCmd(g),
		newFlowCmd(g),
		newWatershedCmd(g),
		newContoursCmd(g),
		newGridCmd(g),
		newJobCmd(g),
		newFloodCmd(g),
		newBuildabilityCmd(g),
		newPlacementCmd(g),
		newLoadCmd(g),
		newAnalyzeCmd(),
		newDEMCmd(),
	)
	return root
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (g *globals) client() (*client.Client, error) {
	return client.New(g.url, client.WithTimeout(g.timeout))
}

// printJSON writes v indented to the command output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// pointFlags registers the required --lat and --lon flags.
func pointFlags(cmd *cobra.Command, lat, lon *float64) {
	cmd.Flags().Float64Var(lat, "lat", 0, "Latitude in degrees")
	cmd.Flags().Float64Var(lon, "lon", 0, "Longitude in degrees")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
}

// parseBox reads "minx,miny,maxx,maxy".
func parseBox(s string) (orb.Bound, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return orb.Bound{}, fmt.Errorf("bbox %q: want minx,miny,maxx,maxy", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return orb.Bound{}, fmt.Errorf("bbox %q: %w", s, err)
		}
		v[i] = f
	}
	if v[0] >= v[2] || v[1] >= v[3] {
		return orb.Bound{}, fmt.Errorf("bbox %q: min must be below max", s)
	}
	return orb.Bound{Min: orb.Point{v[0], v[1]}, Max: orb.Point{v[2], v[3]}}, nil
}
