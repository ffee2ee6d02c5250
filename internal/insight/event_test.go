package insight

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crisp-geo/crisp/internal/geodata"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestFilterEvents_TypeAndDateRange(t *testing.T) {
	events := []Event{
		{Type: "Burglary", Date: day(2024, 1, 10), Cell: "a"},
		{Type: "Burglary", Date: day(2024, 2, 5), Cell: "b"},
		{Type: "Vehicle crime", Date: day(2024, 1, 20), Cell: "a"},
		{Type: "Burglary", Date: day(2024, 6, 1), Cell: "c"},
	}

	got := FilterEvents(events, Request{
		CrimeTypes: []string{"Burglary"},
		Start:      day(2024, 1, 1),
		End:        day(2024, 3, 31),
	})

	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Cell)
	assert.Equal(t, "b", got[1].Cell)
}

func TestFilterEvents_BoundariesInclusive(t *testing.T) {
	events := []Event{
		{Type: "Burglary", Date: day(2024, 1, 1), Cell: "a"},
		{Type: "Burglary", Date: day(2024, 1, 31), Cell: "b"},
		{Type: "Burglary", Date: day(2023, 12, 31), Cell: "c"},
		{Type: "Burglary", Date: day(2024, 2, 1), Cell: "d"},
	}

	got := FilterEvents(events, Request{
		CrimeTypes: []string{"Burglary"},
		Start:      day(2024, 1, 1),
		End:        day(2024, 1, 31),
	})

	require.Len(t, got, 2)
}

func TestFilterEvents_TimeOfDayIgnored(t *testing.T) {
	// An event late on the end date still falls inside the range.
	events := []Event{
		{Type: "Burglary", Date: time.Date(2024, 1, 31, 23, 45, 0, 0, time.UTC), Cell: "a"},
	}

	got := FilterEvents(events, Request{
		CrimeTypes: []string{"Burglary"},
		Start:      day(2024, 1, 1),
		End:        day(2024, 1, 31),
	})
	assert.Len(t, got, 1)
}

func TestFilterEvents_NoTypesSelectedIsEmpty(t *testing.T) {
	events := []Event{
		{Type: "Burglary", Date: day(2024, 1, 10), Cell: "a"},
		{Type: "Robbery", Date: day(2024, 1, 11), Cell: "b"},
	}

	got := FilterEvents(events, Request{Start: day(2024, 1, 1), End: day(2024, 12, 31)})
	assert.Empty(t, got)
}

func TestFilterEvents_OpenEndedRange(t *testing.T) {
	events := []Event{
		{Type: "Burglary", Date: day(2022, 5, 1), Cell: "a"},
		{Type: "Burglary", Date: day(2024, 5, 1), Cell: "b"},
	}

	got := FilterEvents(events, Request{CrimeTypes: []string{"Burglary"}})
	assert.Len(t, got, 2)
}

func TestEventsFromTable_SkipsIncompleteRows(t *testing.T) {
	table := &geodata.FeatureTable{
		CRS: geodata.CRSWGS84,
		Features: []geodata.Feature{
			{Attrs: map[string]any{"CRIME_TYPE": "Burglary", "RANDOM_DATE": day(2024, 1, 1), "H3_11": "cell1"}},
			{Attrs: map[string]any{"CRIME_TYPE": "Burglary", "RANDOM_DATE": day(2024, 1, 2)}},
			{Attrs: map[string]any{"RANDOM_DATE": day(2024, 1, 3), "H3_11": "cell3"}},
		},
	}

	events := EventsFromTable(table)
	require.Len(t, events, 1)
	assert.Equal(t, "cell1", events[0].Cell)
}

func TestDateRange(t *testing.T) {
	events := []Event{
		{Type: "Burglary", Date: day(2024, 3, 15)},
		{Type: "Burglary", Date: day(2023, 11, 2)},
		{Type: "Burglary", Date: day(2024, 8, 30)},
	}

	min, max, ok := DateRange(events)
	require.True(t, ok)
	assert.Equal(t, day(2023, 11, 2), min)
	assert.Equal(t, day(2024, 8, 30), max)

	_, _, ok = DateRange(nil)
	assert.False(t, ok)
}

func TestCrimeTypes_FirstAppearanceOrder(t *testing.T) {
	events := []Event{
		{Type: "Burglary"},
		{Type: "Robbery"},
		{Type: "Burglary"},
		{Type: ""},
		{Type: "Vehicle crime"},
	}
	assert.Equal(t, []string{"Burglary", "Robbery", "Vehicle crime"}, CrimeTypes(events))
}
