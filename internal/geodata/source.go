// Package geodata builds distance-bounded spatial queries against the
// analytical store and materializes the results as typed feature tables.
package geodata

import (
	"github.com/rotisserie/eris"

	"github.com/crisp-geo/crisp/internal/config"
)

// Source identifies one of the queryable geospatial datasets.
type Source string

const (
	SourceBuildings    Source = "buildings"
	SourceStreetLights Source = "streetlights"
	SourceLandUse      Source = "landuse"
	SourceGreenspace   Source = "greenspace"
	SourceCrime        Source = "crime"
	SourceHexGrid      Source = "hexgrid"
)

// LayerSources are the sources selectable as map layers, in draw order
// (polygons under points).
var LayerSources = []Source{
	SourceLandUse,
	SourceGreenspace,
	SourceBuildings,
	SourceStreetLights,
	SourceCrime,
}

// Registry maps sources to their fully-qualified store tables. It doubles
// as the allowlist for the query builder: a table name can only reach SQL
// text by passing through the registry.
type Registry struct {
	tables map[Source]string
}

// NewRegistry builds the source registry from store configuration.
func NewRegistry(cfg config.StoreConfig) *Registry {
	return &Registry{tables: map[Source]string{
		SourceBuildings:    cfg.BuildingsTable,
		SourceStreetLights: cfg.StreetLightsTable,
		SourceLandUse:      cfg.LandUseTable,
		SourceGreenspace:   cfg.GreenspaceTable,
		SourceCrime:        cfg.CrimeTable,
		SourceHexGrid:      cfg.HexGridTable,
	}}
}

// Table resolves a source to its table name.
func (r *Registry) Table(src Source) (string, error) {
	t, ok := r.tables[src]
	if !ok || t == "" {
		return "", eris.Errorf("geodata: unknown source %q", src)
	}
	return t, nil
}
