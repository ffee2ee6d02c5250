// Package chart renders the monthly crime trend as a multi-series line
// chart, delivered as a self-contained HTML fragment.
package chart

import (
	"bytes"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rotisserie/eris"

	"github.com/crisp-geo/crisp/internal/insight"
)

// MaxGroups caps the number of series on one chart; the palette has
// five entries and more lines than that stop being readable.
const MaxGroups = 5

// palette is the fixed blue ramp, darkest first. The overall series
// always takes the first colour.
var palette = []string{"#1C56F6", "#226E9C", "#3C93C2", "#9EC9E2", "#E4F1F7"}

// headroom scales the Y axis above the tallest point.
const headroom = 1.2

// RenderTrend renders the series table as a line chart. Series appear
// in first-appearance order; the X axis carries one tick per calendar
// month spanned by the data, months with no events plotting as zero.
func RenderTrend(title string, table insight.SeriesTable) (string, error) {
	groups := table.Groups()
	if len(groups) == 0 {
		return "", eris.New("chart: no series to render")
	}
	if len(groups) > MaxGroups {
		return "", eris.Errorf("chart: %d series exceeds the maximum of %d", len(groups), MaxGroups)
	}

	months := monthSpan(table)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "420px"}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithColorsOpts(opts.Colors(palette)),
		charts.WithYAxisOpts(opts.YAxis{
			Name: "Crimes",
			Max:  yMax(table),
		}),
	)

	labels := make([]string, len(months))
	for i, m := range months {
		labels[i] = m.Format("Jan 2006")
	}
	line.SetXAxis(labels)

	for _, group := range groups {
		counts := countsByMonth(table, group)
		data := make([]opts.LineData, len(months))
		for i, m := range months {
			data[i] = opts.LineData{Value: counts[m]}
		}
		line.AddSeries(group, data)
	}

	var buf bytes.Buffer
	if err := line.Render(&buf); err != nil {
		return "", eris.Wrap(err, "chart: render")
	}
	return buf.String(), nil
}

// yMax gives the axis ceiling: headroom above the tallest point, with
// a floor of 1 so an all-zero chart still has a visible axis.
func yMax(table insight.SeriesTable) float64 {
	max := table.MaxCount()
	if max == 0 {
		return 1
	}
	return float64(max) * headroom
}

// monthSpan enumerates every calendar month from the earliest to the
// latest observation, inclusive.
func monthSpan(table insight.SeriesTable) []time.Time {
	var min, max time.Time
	for _, r := range table {
		if min.IsZero() || r.Month.Before(min) {
			min = r.Month
		}
		if max.IsZero() || r.Month.After(max) {
			max = r.Month
		}
	}
	if min.IsZero() {
		return nil
	}

	var months []time.Time
	for m := min; !m.After(max); m = m.AddDate(0, 1, 0) {
		months = append(months, m)
	}
	return months
}

// countsByMonth indexes one group's observations by month.
func countsByMonth(table insight.SeriesTable, group string) map[time.Time]int {
	counts := make(map[time.Time]int)
	for _, r := range table {
		if r.Group == group {
			counts[r.Month] += r.Count
		}
	}
	return counts
}
