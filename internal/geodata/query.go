package geodata

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// BuildDistanceQuery constructs the SQL selecting every row of the source
// whose geography lies within radiusMeters of the centre point. The store's
// geography distance function operates on true metres, so the radius needs
// no degree conversion here; only the buffer drawing does.
//
// Coordinates are formatted with %g, never user strings, and the table name
// comes from the registry allowlist, so the statement is injection-safe
// despite being assembled as text.
func (r *Registry) BuildDistanceQuery(src Source, lon, lat, radiusMeters float64) (string, error) {
	table, err := r.Table(src)
	if err != nil {
		return "", err
	}
	if radiusMeters <= 0 {
		return "", eris.Errorf("geodata: non-positive radius %g", radiusMeters)
	}

	q := fmt.Sprintf(
		`SELECT a.* FROM %s a WHERE ST_DISTANCE(a.GEOGRAPHY, TO_GEOGRAPHY('POINT(%g %g)')) <= %g`,
		table, lon, lat, radiusMeters,
	)
	return q, nil
}
