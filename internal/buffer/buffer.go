// Package buffer builds the circular search area drawn around a geocoded
// point and the bounding box used to frame the map viewport.
package buffer

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// metersPerDegree is the small-angle conversion used to draw the buffer in
// degree space. It is deliberately approximate: correct to within a few
// percent for sub-kilometre radii at British latitudes, and only used for
// drawing and viewport framing — the store-side distance predicate works
// in true metres.
const metersPerDegree = 111320.0

// defaultSegments is the polygon vertex count approximating the circle.
const defaultSegments = 64

// Buffer is a circular search area around a centre point, in EPSG:4326
// degree space.
type Buffer struct {
	Lon          float64
	Lat          float64
	RadiusMeters float64
	Polygon      *geom.Polygon
}

// Circle builds a buffer polygon of the given radius around the centre.
// A non-positive radius is an insufficient-input error: the caller should
// ask the user to increase it rather than issue zero-extent queries.
func Circle(lon, lat, radiusMeters float64) (*Buffer, error) {
	return CircleSegments(lon, lat, radiusMeters, defaultSegments)
}

// CircleSegments is Circle with an explicit vertex count.
func CircleSegments(lon, lat, radiusMeters float64, segments int) (*Buffer, error) {
	if radiusMeters <= 0 {
		return nil, eris.Errorf("buffer: non-positive radius %g", radiusMeters)
	}
	if segments < 3 {
		return nil, eris.Errorf("buffer: need at least 3 segments, got %d", segments)
	}

	r := radiusMeters / metersPerDegree

	// Closed ring: first vertex repeated at the end.
	flat := make([]float64, 0, (segments+1)*2)
	for i := 0; i <= segments; i++ {
		theta := 2 * math.Pi * float64(i) / float64(segments)
		flat = append(flat, lon+r*math.Cos(theta), lat+r*math.Sin(theta))
	}

	poly := geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}).SetSRID(4326)

	return &Buffer{
		Lon:          lon,
		Lat:          lat,
		RadiusMeters: radiusMeters,
		Polygon:      poly,
	}, nil
}

// Bounds returns the axis-aligned bounding box of the buffer polygon as
// (minLon, minLat, maxLon, maxLat).
func (b *Buffer) Bounds() (minLon, minLat, maxLon, maxLat float64) {
	bounds := b.Polygon.Bounds()
	return bounds.Min(0), bounds.Min(1), bounds.Max(0), bounds.Max(1)
}

// Contains reports whether the point lies within the buffer's bounding
// box. Viewport framing needs no exact point-in-polygon test.
func (b *Buffer) Contains(lon, lat float64) bool {
	minLon, minLat, maxLon, maxLat := b.Bounds()
	return lon >= minLon && lon <= maxLon && lat >= minLat && lat <= maxLat
}
