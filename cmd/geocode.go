package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/crisp-geo/crisp/internal/bng"
)

var geocodeCmd = &cobra.Command{
	Use:   "geocode <address>",
	Short: "Look up an address or postcode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		match, err := env.geocoder.Find(cmd.Context(), args[0])
		if err != nil {
			return eris.Wrap(err, "cmd: geocode")
		}
		if !match.Matched {
			return eris.Errorf("no match for %q", args[0])
		}

		lon, lat := bng.ToWGS84(match.Easting, match.Northing)
		out := struct {
			Address            string  `json:"address"`
			AdministrativeArea string  `json:"administrative_area"`
			Classification     string  `json:"classification"`
			MatchScore         float64 `json:"match_score"`
			Easting            float64 `json:"easting"`
			Northing           float64 `json:"northing"`
			Lon                float64 `json:"lon"`
			Lat                float64 `json:"lat"`
		}{
			Address:            match.Address,
			AdministrativeArea: match.AdministrativeArea,
			Classification:     match.Classification,
			MatchScore:         match.MatchScore,
			Easting:            match.Easting,
			Northing:           match.Northing,
			Lon:                lon,
			Lat:                lat,
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	rootCmd.AddCommand(geocodeCmd)
}
