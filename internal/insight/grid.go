package insight

import (
	"github.com/crisp-geo/crisp/internal/geodata"
)

// Store column names on the hex grid table. The spellings match the
// columns as they exist upstream, typos included.
const (
	colGridCell        = "H3_CELL_11"
	colLightCount      = "LIGHT COUNT"
	colGreenspaceCount = "GREENSPACE COUNT"
	colResBuildings    = "RESIDENITAL BUILDING COUNT"
	colRetailBuildings = "RETAIL BUILDING COUNT"
	colMixedUse        = "MIXED_USE_COUNT"
	colResSites        = "RESIDENTIAL SITE COUNT"
	colRetailSites     = "RETAIL SITE COUNT"
	colIndustrialSites = "INUSTRIAL SITE COUNT"
)

// GridCell is one pre-aggregated H3 resolution-11 hexagon with its
// environmental context counts.
type GridCell struct {
	Cell                     string
	LightCount               int
	GreenspaceCount          int
	ResidentialBuildingCount int
	RetailBuildingCount      int
	MixedUseCount            int
	ResidentialSiteCount     int
	RetailSiteCount          int
	IndustrialSiteCount      int
}

// JoinedCell is a grid cell after the crime join. Joined distinguishes
// a cell with zero events from a cell the join never touched: only
// joined cells take part in bucketing.
type JoinedCell struct {
	GridCell
	CrimeCount int
	Joined     bool
}

// Grid is the result of joining filtered events onto the hex grid.
type Grid struct {
	Cells []JoinedCell
}

// CellsFromTable converts a fetched grid feature table into cells.
// Missing count attributes read as zero; a row without a cell id is
// useless and dropped.
func CellsFromTable(t *geodata.FeatureTable) []GridCell {
	cells := make([]GridCell, 0, t.Len())
	for _, f := range t.Features {
		id, ok := f.AttrString(colGridCell)
		if !ok || id == "" {
			continue
		}
		c := GridCell{Cell: id}
		c.LightCount, _ = f.AttrInt(colLightCount)
		c.GreenspaceCount, _ = f.AttrInt(colGreenspaceCount)
		c.ResidentialBuildingCount, _ = f.AttrInt(colResBuildings)
		c.RetailBuildingCount, _ = f.AttrInt(colRetailBuildings)
		c.MixedUseCount, _ = f.AttrInt(colMixedUse)
		c.ResidentialSiteCount, _ = f.AttrInt(colResSites)
		c.RetailSiteCount, _ = f.AttrInt(colRetailSites)
		c.IndustrialSiteCount, _ = f.AttrInt(colIndustrialSites)
		cells = append(cells, c)
	}
	return cells
}

// JoinGrid left-joins filtered events onto the grid by cell id. Events
// whose cell is not in the grid contribute nothing; cells with no
// events stay unjoined.
func JoinGrid(cells []GridCell, events []Event) *Grid {
	perCell := make(map[string]int, len(events))
	for _, e := range events {
		perCell[e.Cell]++
	}

	g := &Grid{Cells: make([]JoinedCell, 0, len(cells))}
	for _, c := range cells {
		jc := JoinedCell{GridCell: c}
		if n, ok := perCell[c.Cell]; ok {
			jc.CrimeCount = n
			jc.Joined = true
		}
		g.Cells = append(g.Cells, jc)
	}
	return g
}

// CrimePresent returns only the cells at least one filtered event
// landed in. All bucketing operates on this subset.
func (g *Grid) CrimePresent() []JoinedCell {
	out := make([]JoinedCell, 0, len(g.Cells))
	for _, c := range g.Cells {
		if c.Joined {
			out = append(out, c)
		}
	}
	return out
}

// JoinedTotal is the event count over all joined cells.
func (g *Grid) JoinedTotal() int {
	total := 0
	for _, c := range g.Cells {
		total += c.CrimeCount
	}
	return total
}
