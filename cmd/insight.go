package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/crisp-geo/crisp/internal/bng"
	"github.com/crisp-geo/crisp/internal/geodata"
	"github.com/crisp-geo/crisp/internal/insight"
)

var insightFlags struct {
	query      string
	lon, lat   float64
	radius     float64
	layers     []string
	crimeTypes []string
	start, end string
}

var insightCmd = &cobra.Command{
	Use:   "insight",
	Short: "Run the analysis pipeline once and print the summaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		req := insight.Request{
			Lon:          insightFlags.lon,
			Lat:          insightFlags.lat,
			RadiusMeters: insightFlags.radius,
			CrimeTypes:   insightFlags.crimeTypes,
		}
		for _, l := range insightFlags.layers {
			req.Layers = append(req.Layers, geodata.Source(l))
		}
		if insightFlags.start != "" {
			if req.Start, err = time.Parse("2006-01-02", insightFlags.start); err != nil {
				return eris.Wrap(err, "cmd: parse start date")
			}
		}
		if insightFlags.end != "" {
			if req.End, err = time.Parse("2006-01-02", insightFlags.end); err != nil {
				return eris.Wrap(err, "cmd: parse end date")
			}
		}

		if insightFlags.query != "" {
			match, err := env.geocoder.Find(cmd.Context(), insightFlags.query)
			if err != nil {
				return eris.Wrap(err, "cmd: geocode")
			}
			if !match.Matched {
				return eris.Errorf("no match for %q", insightFlags.query)
			}
			req.Lon, req.Lat = bng.ToWGS84(match.Easting, match.Northing)
			fmt.Fprintf(os.Stderr, "centre: %s (%.5f, %.5f)\n", match.Address, req.Lat, req.Lon)
		}

		res, err := env.runner.Run(cmd.Context(), req)
		if err != nil {
			return err
		}

		out := struct {
			Events    int                `json:"events"`
			Filtered  int                `json:"filtered"`
			GridCells int                `json:"grid_cells"`
			Summaries []*insight.Summary `json:"summaries"`
		}{
			Events:    len(res.Events),
			Filtered:  len(res.Filtered),
			GridCells: len(res.Grid.Cells),
			Summaries: res.Summaries,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	insightCmd.Flags().StringVar(&insightFlags.query, "query", "", "address or postcode to centre on")
	insightCmd.Flags().Float64Var(&insightFlags.lon, "lon", 0, "centre longitude (ignored when --query is set)")
	insightCmd.Flags().Float64Var(&insightFlags.lat, "lat", 0, "centre latitude (ignored when --query is set)")
	insightCmd.Flags().Float64Var(&insightFlags.radius, "radius", 500, "buffer radius in meters")
	insightCmd.Flags().StringSliceVar(&insightFlags.layers, "layers", []string{"streetlights"}, "layers to analyse (buildings, streetlights, landuse, greenspace, crime)")
	insightCmd.Flags().StringSliceVar(&insightFlags.crimeTypes, "types", nil, "crime types to include")
	insightCmd.Flags().StringVar(&insightFlags.start, "start", "", "start date (YYYY-MM-DD)")
	insightCmd.Flags().StringVar(&insightFlags.end, "end", "", "end date (YYYY-MM-DD)")
	rootCmd.AddCommand(insightCmd)
}
