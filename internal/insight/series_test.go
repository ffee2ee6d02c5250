package insight

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Three cells: a dark one with three events, a slightly lit one with
// two, a well lit one with one.
func lightingFixture() (*Grid, []Event) {
	cells := []GridCell{
		{Cell: "dark", LightCount: 0},
		{Cell: "mid", LightCount: 2},
		{Cell: "lit", LightCount: 5},
		{Cell: "empty", LightCount: 1},
	}
	events := []Event{
		{Type: "Burglary", Date: day(2024, 1, 5), Cell: "dark"},
		{Type: "Burglary", Date: day(2024, 1, 12), Cell: "dark"},
		{Type: "Burglary", Date: day(2024, 2, 3), Cell: "dark"},
		{Type: "Burglary", Date: day(2024, 1, 8), Cell: "mid"},
		{Type: "Burglary", Date: day(2024, 2, 20), Cell: "mid"},
		{Type: "Burglary", Date: day(2024, 2, 25), Cell: "lit"},
	}
	return JoinGrid(cells, events), events
}

func TestSummarize_LightingBuckets(t *testing.T) {
	grid, events := lightingFixture()
	s := Summarize(LightingTheme, grid, events)

	require.Len(t, s.Totals, 3)
	assert.Equal(t, BucketStat{Label: "Dark Areas", Total: 3}, s.Totals[0])
	assert.Equal(t, BucketStat{Label: "Slightly lit", Total: 2}, s.Totals[1])
	assert.Equal(t, BucketStat{Label: "Well Lit", Total: 1}, s.Totals[2])
}

func TestSummarize_ExclusiveThemeSumsToJoinedTotal(t *testing.T) {
	grid, events := lightingFixture()
	s := Summarize(LightingTheme, grid, events)

	sum := 0
	for _, b := range s.Totals {
		sum += b.Total
	}
	assert.Equal(t, grid.JoinedTotal(), sum)
}

func TestSummarize_OverallSeriesEqualsFilteredCount(t *testing.T) {
	grid, events := lightingFixture()
	s := Summarize(LightingTheme, grid, events)

	assert.Equal(t, len(events), s.Series.GroupTotal(OverallGroup))
}

func TestSummarize_MonthlySeries(t *testing.T) {
	grid, events := lightingFixture()
	s := Summarize(LightingTheme, grid, events)

	var dark []SeriesRow
	for _, r := range s.Series {
		if r.Group == "Dark Areas" {
			dark = append(dark, r)
		}
	}
	require.Len(t, dark, 2)
	assert.Equal(t, day(2024, 1, 1), dark[0].Month)
	assert.Equal(t, 2, dark[0].Count)
	assert.Equal(t, day(2024, 2, 1), dark[1].Month)
	assert.Equal(t, 1, dark[1].Count)
}

func TestSummarize_OverallSeriesFirst(t *testing.T) {
	grid, events := lightingFixture()
	s := Summarize(LightingTheme, grid, events)

	groups := s.Series.Groups()
	require.NotEmpty(t, groups)
	assert.Equal(t, OverallGroup, groups[0])
	assert.Equal(t, []string{OverallGroup, "Dark Areas", "Slightly lit", "Well Lit"}, groups)
}

func TestSummarize_NonExclusiveTotalsBounded(t *testing.T) {
	cells := []GridCell{
		{Cell: "both", ResidentialBuildingCount: 2, RetailBuildingCount: 1},
		{Cell: "res", ResidentialBuildingCount: 1},
		{Cell: "none"},
	}
	events := []Event{
		{Type: "Robbery", Date: day(2024, 3, 1), Cell: "both"},
		{Type: "Robbery", Date: day(2024, 3, 2), Cell: "both"},
		{Type: "Robbery", Date: day(2024, 3, 3), Cell: "res"},
		{Type: "Robbery", Date: day(2024, 3, 4), Cell: "none"},
	}
	grid := JoinGrid(cells, events)
	s := Summarize(BuildingsTheme, grid, events)

	joined := grid.JoinedTotal()
	for _, b := range s.Totals {
		assert.LessOrEqual(t, b.Total, joined, b.Label)
	}

	// Overlapping cells count toward every matching bucket.
	assert.Equal(t, BucketStat{Label: "Near residential buildings", Total: 3}, s.Totals[0])
	assert.Equal(t, BucketStat{Label: "Near retail buildings", Total: 2}, s.Totals[1])
	assert.Equal(t, BucketStat{Label: "Near mixed use buildings", Total: 0}, s.Totals[2])
}

func TestSummarize_EmptyBucketIsNotAnError(t *testing.T) {
	cells := []GridCell{{Cell: "a", GreenspaceCount: 1}}
	events := []Event{{Type: "Robbery", Date: day(2024, 4, 1), Cell: "a"}}
	grid := JoinGrid(cells, events)

	s := Summarize(GreenspaceTheme, grid, events)
	require.Len(t, s.Totals, 2)
	assert.Equal(t, 0, s.Totals[0].Total)
	assert.Equal(t, 1, s.Totals[1].Total)
	assert.Empty(t, s.Series.GroupTotal("Not near greenspace"))
}

func TestSummarize_NoEvents(t *testing.T) {
	grid := JoinGrid([]GridCell{{Cell: "a"}}, nil)
	s := Summarize(LightingTheme, grid, nil)

	for _, b := range s.Totals {
		assert.Equal(t, 0, b.Total)
	}
	assert.Empty(t, s.Series)
}

func TestSeriesTable_MaxCount(t *testing.T) {
	grid, events := lightingFixture()
	s := Summarize(LightingTheme, grid, events)

	// Overall series peaks at three events in a month.
	assert.Equal(t, 3, s.Series.MaxCount())
}
