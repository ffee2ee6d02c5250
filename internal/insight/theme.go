package insight

import (
	"github.com/rotisserie/eris"

	"github.com/crisp-geo/crisp/internal/geodata"
)

// Bucket classifies grid cells under one label within a theme.
type Bucket struct {
	Label string
	Match func(GridCell) bool
}

// Theme is a set of buckets over one environmental layer. Exclusive
// themes partition the joined cells (every cell matches exactly one
// bucket); non-exclusive themes may overlap and may leave cells
// unmatched.
type Theme struct {
	Name      string
	Layer     geodata.Source
	Exclusive bool
	Buckets   []Bucket
}

// The four themes, defined as data. Bucket boundaries follow the
// upstream analysis: lighting partitions on street light counts,
// greenspace on presence, buildings and land-use sites on one-or-more
// of each category.
var (
	LightingTheme = Theme{
		Name:      "Street Lights",
		Layer:     geodata.SourceStreetLights,
		Exclusive: true,
		Buckets: []Bucket{
			{Label: "Dark Areas", Match: func(c GridCell) bool { return c.LightCount == 0 }},
			{Label: "Slightly lit", Match: func(c GridCell) bool { return c.LightCount >= 1 && c.LightCount <= 2 }},
			{Label: "Well Lit", Match: func(c GridCell) bool { return c.LightCount > 2 }},
		},
	}

	GreenspaceTheme = Theme{
		Name:      "Greenspaces",
		Layer:     geodata.SourceGreenspace,
		Exclusive: true,
		Buckets: []Bucket{
			{Label: "Not near greenspace", Match: func(c GridCell) bool { return c.GreenspaceCount == 0 }},
			{Label: "Near greenspace", Match: func(c GridCell) bool { return c.GreenspaceCount >= 1 }},
		},
	}

	BuildingsTheme = Theme{
		Name:      "Buildings",
		Layer:     geodata.SourceBuildings,
		Exclusive: false,
		Buckets: []Bucket{
			{Label: "Near residential buildings", Match: func(c GridCell) bool { return c.ResidentialBuildingCount >= 1 }},
			{Label: "Near retail buildings", Match: func(c GridCell) bool { return c.RetailBuildingCount >= 1 }},
			{Label: "Near mixed use buildings", Match: func(c GridCell) bool { return c.MixedUseCount >= 1 }},
		},
	}

	LandUseTheme = Theme{
		Name:      "Land Use Sites",
		Layer:     geodata.SourceLandUse,
		Exclusive: false,
		Buckets: []Bucket{
			{Label: "Near residential sites", Match: func(c GridCell) bool { return c.ResidentialSiteCount >= 1 }},
			{Label: "Near retail sites", Match: func(c GridCell) bool { return c.RetailSiteCount >= 1 }},
			{Label: "Near industrial sites", Match: func(c GridCell) bool { return c.IndustrialSiteCount >= 1 }},
		},
	}
)

// Themes lists every theme in presentation order.
func Themes() []Theme {
	return []Theme{LightingTheme, GreenspaceTheme, BuildingsTheme, LandUseTheme}
}

// ThemeForLayer finds the theme driven by the given layer.
func ThemeForLayer(src geodata.Source) (Theme, error) {
	for _, th := range Themes() {
		if th.Layer == src {
			return th, nil
		}
	}
	return Theme{}, eris.Errorf("insight: no theme for layer %q", src)
}
