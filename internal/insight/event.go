package insight

import (
	"time"

	"go.uber.org/zap"

	"github.com/crisp-geo/crisp/internal/geodata"
)

// Store column names on the crime table.
const (
	colCrimeType = "CRIME_TYPE"
	colCrimeDate = "RANDOM_DATE"
	colCrimeCell = "H3_11"
)

// Event is a single crime record: type, occurrence date, and the H3
// resolution-11 cell it falls in.
type Event struct {
	Type string
	Date time.Time
	Cell string
}

// EventsFromTable converts a fetched crime feature table into events.
// Rows missing any of the three required attributes are skipped with a
// warn log; the geometry is not needed here (the cell id carries the
// spatial join key).
func EventsFromTable(t *geodata.FeatureTable) []Event {
	events := make([]Event, 0, t.Len())
	skipped := 0
	for _, f := range t.Features {
		typ, okT := f.AttrString(colCrimeType)
		date, okD := f.AttrTime(colCrimeDate)
		cell, okC := f.AttrString(colCrimeCell)
		if !okT || !okD || !okC {
			skipped++
			continue
		}
		events = append(events, Event{Type: typ, Date: date, Cell: cell})
	}
	if skipped > 0 {
		zap.L().Warn("insight: skipped crime rows missing attributes",
			zap.Int("skipped", skipped),
			zap.Int("kept", len(events)))
	}
	return events
}

// FilterEvents applies the crime-type and date-range filters. Both date
// boundaries are inclusive and compared on calendar dates only; the
// time of day on an event is discarded. Zero selected crime types
// yields an empty result, never the unfiltered set.
func FilterEvents(events []Event, req Request) []Event {
	types := req.typeSet()
	if len(types) == 0 {
		return nil
	}

	var start, end time.Time
	if !req.Start.IsZero() {
		start = dateOnly(req.Start)
	}
	if !req.End.IsZero() {
		end = dateOnly(req.End)
	}

	out := make([]Event, 0, len(events))
	for _, e := range events {
		if _, ok := types[e.Type]; !ok {
			continue
		}
		d := dateOnly(e.Date)
		if !start.IsZero() && d.Before(start) {
			continue
		}
		if !end.IsZero() && d.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// DateRange returns the earliest and latest event dates, used to seed
// the date pickers. ok is false for an empty slice.
func DateRange(events []Event) (min, max time.Time, ok bool) {
	if len(events) == 0 {
		return time.Time{}, time.Time{}, false
	}
	min, max = dateOnly(events[0].Date), dateOnly(events[0].Date)
	for _, e := range events[1:] {
		d := dateOnly(e.Date)
		if d.Before(min) {
			min = d
		}
		if d.After(max) {
			max = d
		}
	}
	return min, max, true
}

// CrimeTypes returns the distinct event types in first-appearance
// order, used to populate the type selector.
func CrimeTypes(events []Event) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, e := range events {
		if e.Type == "" {
			continue
		}
		if _, ok := seen[e.Type]; ok {
			continue
		}
		seen[e.Type] = struct{}{}
		out = append(out, e.Type)
	}
	return out
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func monthOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}
