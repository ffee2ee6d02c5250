package insight

import (
	"sort"
	"time"
)

// OverallGroup labels the series covering every filtered event,
// regardless of bucket.
const OverallGroup = "Total crime"

// SeriesRow is one long-format observation: events in one group during
// one calendar month.
type SeriesRow struct {
	Month time.Time `json:"month"`
	Count int       `json:"count"`
	Group string    `json:"group"`
}

// SeriesTable is the long-format assembly of all series for one theme,
// overall series first, bucket series after in bucket order.
type SeriesTable []SeriesRow

// Groups returns the distinct group labels in first-appearance order.
func (t SeriesTable) Groups() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t {
		if _, ok := seen[r.Group]; ok {
			continue
		}
		seen[r.Group] = struct{}{}
		out = append(out, r.Group)
	}
	return out
}

// MaxCount returns the largest monthly count in the table.
func (t SeriesTable) MaxCount() int {
	max := 0
	for _, r := range t {
		if r.Count > max {
			max = r.Count
		}
	}
	return max
}

// GroupTotal sums the counts of one group across all months.
func (t SeriesTable) GroupTotal(group string) int {
	total := 0
	for _, r := range t {
		if r.Group == group {
			total += r.Count
		}
	}
	return total
}

// BucketStat is the headline figure for one bucket, shown on the stat
// cards.
type BucketStat struct {
	Label string `json:"label"`
	Total int    `json:"total"`
}

// Summary is the analysis output for one theme: per-bucket totals and
// the assembled monthly series.
type Summary struct {
	Theme  string       `json:"theme"`
	Totals []BucketStat `json:"totals"`
	Series SeriesTable  `json:"series"`
}

// Summarize runs bucketing and aggregation for one theme over a joined
// grid and the filtered events that produced it.
//
// A bucket's total is the sum of per-cell event counts over the joined
// cells it matches. Its monthly series counts the filtered events whose
// cell belongs to the bucket, grouped by calendar month. An empty
// bucket yields total 0 and no rows; that is a result, not an error.
func Summarize(theme Theme, grid *Grid, events []Event) *Summary {
	s := &Summary{Theme: theme.Name}

	s.Series = append(s.Series, monthlyRows(events, OverallGroup)...)

	present := grid.CrimePresent()
	for _, b := range theme.Buckets {
		cells := make(map[string]struct{})
		total := 0
		for _, c := range present {
			if b.Match(c.GridCell) {
				cells[c.Cell] = struct{}{}
				total += c.CrimeCount
			}
		}

		var bucketEvents []Event
		for _, e := range events {
			if _, ok := cells[e.Cell]; ok {
				bucketEvents = append(bucketEvents, e)
			}
		}

		s.Totals = append(s.Totals, BucketStat{Label: b.Label, Total: total})
		s.Series = append(s.Series, monthlyRows(bucketEvents, b.Label)...)
	}
	return s
}

// monthlyRows groups events by calendar month under one label, in
// chronological order.
func monthlyRows(events []Event, group string) []SeriesRow {
	perMonth := make(map[time.Time]int)
	for _, e := range events {
		perMonth[monthOf(e.Date)]++
	}

	months := make([]time.Time, 0, len(perMonth))
	for m := range perMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool { return months[i].Before(months[j]) })

	rows := make([]SeriesRow, 0, len(months))
	for _, m := range months {
		rows = append(rows, SeriesRow{Month: m, Count: perMonth[m], Group: group})
	}
	return rows
}
