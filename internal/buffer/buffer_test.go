package buffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircle_BoundsContainCentre(t *testing.T) {
	tests := []struct {
		name     string
		lon, lat float64
		radius   float64
	}{
		{"birmingham 500m", -1.8998, 52.4814, 500},
		{"london 100m", -0.1276, 51.5072, 100},
		{"equatorish 1000m", 0.01, 0.01, 1000},
		{"tiny radius", -1.9, 52.5, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := Circle(tt.lon, tt.lat, tt.radius)
			require.NoError(t, err)
			assert.True(t, b.Contains(tt.lon, tt.lat))
		})
	}
}

func TestCircle_ZeroRadiusRejected(t *testing.T) {
	_, err := Circle(-1.9, 52.5, 0)
	require.Error(t, err)

	_, err = Circle(-1.9, 52.5, -100)
	require.Error(t, err)
}

func TestCircle_BoundsMatchRadius(t *testing.T) {
	b, err := Circle(-1.9, 52.5, 500)
	require.NoError(t, err)

	minLon, minLat, maxLon, maxLat := b.Bounds()
	r := 500.0 / metersPerDegree

	assert.InDelta(t, -1.9-r, minLon, 1e-9)
	assert.InDelta(t, -1.9+r, maxLon, 1e-9)
	assert.InDelta(t, 52.5-r, minLat, 1e-6)
	assert.InDelta(t, 52.5+r, maxLat, 1e-6)
}

func TestCircle_RingClosed(t *testing.T) {
	b, err := CircleSegments(-1.9, 52.5, 250, 32)
	require.NoError(t, err)

	coords := b.Polygon.Coords()[0]
	assert.Equal(t, 33, len(coords))
	assert.InDelta(t, coords[0][0], coords[len(coords)-1][0], 1e-12)
	assert.InDelta(t, coords[0][1], coords[len(coords)-1][1], 1e-12)
}

func TestCircleSegments_TooFewSegments(t *testing.T) {
	_, err := CircleSegments(-1.9, 52.5, 250, 2)
	require.Error(t, err)
}
