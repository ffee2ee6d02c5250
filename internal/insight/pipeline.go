package insight

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/crisp-geo/crisp/internal/geodata"
)

// fetchParallelism bounds concurrent store round-trips per interaction.
const fetchParallelism = 4

// Runner executes the full pipeline for one request: fetch the selected
// layers plus the crime events and the hex grid, filter, join, and
// summarize each themed layer.
type Runner struct {
	fetcher  *geodata.Fetcher
	registry *geodata.Registry
}

// NewRunner wires a pipeline over a fetcher and its source registry.
func NewRunner(fetcher *geodata.Fetcher, registry *geodata.Registry) *Runner {
	return &Runner{fetcher: fetcher, registry: registry}
}

// Result carries everything an interaction produces: the raw layer
// tables for the map, the event sets, the joined grid, and one summary
// per selected themed layer.
type Result struct {
	Request   Request
	Layers    map[geodata.Source]*geodata.FeatureTable
	Events    []Event
	Filtered  []Event
	Grid      *Grid
	Summaries []*Summary
}

// Run executes the pipeline. The crime table and the hex grid are
// always fetched; overlay layers only when selected. Fetches run in
// parallel, bounded; aggregation is single-pass afterwards.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	wanted := map[geodata.Source]struct{}{
		geodata.SourceCrime:   {},
		geodata.SourceHexGrid: {},
	}
	for _, l := range req.Layers {
		wanted[l] = struct{}{}
	}

	res := &Result{
		Request: req,
		Layers:  make(map[geodata.Source]*geodata.FeatureTable, len(wanted)),
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchParallelism)
	for src := range wanted {
		src := src
		g.Go(func() error {
			table, err := r.fetcher.Fetch(gctx, r.registry, src, req.Lon, req.Lat, req.RadiusMeters)
			if err != nil {
				return eris.Wrapf(err, "insight: fetch %s", src)
			}
			mu.Lock()
			res.Layers[src] = table
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res.Events = EventsFromTable(res.Layers[geodata.SourceCrime])
	res.Filtered = FilterEvents(res.Events, req)

	cells := CellsFromTable(res.Layers[geodata.SourceHexGrid])
	res.Grid = JoinGrid(cells, res.Filtered)

	for _, l := range req.Layers {
		theme, err := ThemeForLayer(l)
		if err != nil {
			// The crime layer is an overlay, not a theme.
			continue
		}
		res.Summaries = append(res.Summaries, Summarize(theme, res.Grid, res.Filtered))
	}

	zap.L().Info("insight: pipeline complete",
		zap.Int("events", len(res.Events)),
		zap.Int("filtered", len(res.Filtered)),
		zap.Int("grid_cells", len(res.Grid.Cells)),
		zap.Int("summaries", len(res.Summaries)))

	return res, nil
}

// MapEvents returns the event set the crime map layer should draw: the
// filtered set when a filter narrowed it, otherwise everything fetched.
func (res *Result) MapEvents() []Event {
	if len(res.Filtered) > 0 {
		return res.Filtered
	}
	return res.Events
}
