// Package insight is the analytics core: it filters crime events, joins
// them to the pre-aggregated H3 hexagonal grid, classifies grid cells
// into environmental context buckets, and produces per-bucket totals and
// monthly time series.
package insight

import (
	"time"

	"github.com/rotisserie/eris"

	"github.com/crisp-geo/crisp/internal/geodata"
)

// Request is the immutable per-interaction configuration. It is built
// once from user input and threaded through the pipeline; nothing in
// this package carries ambient state.
type Request struct {
	Lon          float64          `json:"lon"`
	Lat          float64          `json:"lat"`
	RadiusMeters float64          `json:"radius_meters"`
	Layers       []geodata.Source `json:"layers"`
	CrimeTypes   []string         `json:"crime_types"`
	Start        time.Time        `json:"start"`
	End          time.Time        `json:"end"`
}

// Validate checks the request before any store query is issued. A zero
// radius or an empty layer selection is user input to fix, not a reason
// to run empty queries.
func (r Request) Validate() error {
	if r.RadiusMeters <= 0 {
		return eris.Errorf("insight: radius must be positive, got %g", r.RadiusMeters)
	}
	if len(r.Layers) == 0 {
		return eris.New("insight: no layers selected")
	}
	for _, l := range r.Layers {
		switch l {
		case geodata.SourceBuildings, geodata.SourceStreetLights,
			geodata.SourceLandUse, geodata.SourceGreenspace, geodata.SourceCrime:
		default:
			return eris.Errorf("insight: unknown layer %q", l)
		}
	}
	if !r.Start.IsZero() && !r.End.IsZero() && r.End.Before(r.Start) {
		return eris.Errorf("insight: end date %s before start date %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return nil
}

// HasLayer reports whether the layer is part of the selection.
func (r Request) HasLayer(src geodata.Source) bool {
	for _, l := range r.Layers {
		if l == src {
			return true
		}
	}
	return false
}

// typeSet builds the crime-type membership set. An empty selection
// yields an empty set, which filters everything out rather than
// everything in.
func (r Request) typeSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.CrimeTypes))
	for _, t := range r.CrimeTypes {
		set[t] = struct{}{}
	}
	return set
}
