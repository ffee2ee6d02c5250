package geodata

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/crisp-geo/crisp/internal/db"
	"github.com/crisp-geo/crisp/internal/resilience"
)

// GeographyColumn is the serialized geography column every source table
// carries. It is parsed into the feature geometry and dropped from the
// attribute set.
const GeographyColumn = "GEOGRAPHY"

// Fetcher executes spatial queries against the analytical store and
// materializes feature tables. Results are cached by query text with a
// short TTL; the crime source bypasses the cache because its rows are
// point-in-time sensitive.
type Fetcher struct {
	pool    db.Pool
	cache   *QueryCache
	timeout time.Duration
}

// NewFetcher creates a Fetcher. cache may be nil to disable caching.
func NewFetcher(pool db.Pool, cache *QueryCache, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Fetcher{pool: pool, cache: cache, timeout: timeout}
}

// Fetch builds the distance query for src and returns its feature table.
func (f *Fetcher) Fetch(ctx context.Context, reg *Registry, src Source, lon, lat, radiusMeters float64) (*FeatureTable, error) {
	query, err := reg.BuildDistanceQuery(src, lon, lat, radiusMeters)
	if err != nil {
		return nil, err
	}
	return f.FetchQuery(ctx, src, query)
}

// FetchQuery executes an already-built query. Identical query text within
// the cache TTL returns the previously fetched table without re-querying.
func (f *Fetcher) FetchQuery(ctx context.Context, src Source, query string) (*FeatureTable, error) {
	cacheable := f.cache != nil && src != SourceCrime
	if cacheable {
		if t := f.cache.Get(query); t != nil {
			return t, nil
		}
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	cfg := resilience.DefaultRetryConfig()
	cfg.OnRetry = resilience.RetryLogger("store", string(src))

	table, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) (*FeatureTable, error) {
		return f.queryTable(ctx, src, query)
	})
	if err != nil {
		return nil, err
	}

	if cacheable {
		f.cache.Put(query, table)
	}
	return table, nil
}

// queryTable runs the query and parses rows into features.
func (f *Fetcher) queryTable(ctx context.Context, src Source, query string) (*FeatureTable, error) {
	rows, err := f.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "geodata: query %s", src)
	}
	defer rows.Close()

	cols := make([]string, 0, len(rows.FieldDescriptions()))
	geogIdx := -1
	for i, fd := range rows.FieldDescriptions() {
		cols = append(cols, fd.Name)
		if fd.Name == GeographyColumn {
			geogIdx = i
		}
	}

	table := &FeatureTable{CRS: CRSWGS84}
	total, dropped := 0, 0
	for rows.Next() {
		vals, err := rows.Values()
		if err != nil {
			return nil, eris.Wrapf(err, "geodata: read %s row", src)
		}
		total++

		if geogIdx < 0 || geogIdx >= len(vals) {
			return nil, eris.Errorf("geodata: %s result has no %s column", src, GeographyColumn)
		}

		g, err := parseGeography(vals[geogIdx])
		if err != nil {
			// Rows with unparseable geography are dropped, not nulled: the
			// table invariant is that every feature has a geometry.
			dropped++
			zap.L().Warn("geodata: dropping row with bad geography",
				zap.String("source", string(src)),
				zap.Error(err),
			)
			continue
		}

		attrs := make(map[string]any, len(cols)-1)
		for i, col := range cols {
			if i == geogIdx {
				continue
			}
			attrs[col] = vals[i]
		}
		table.Features = append(table.Features, Feature{Attrs: attrs, Geom: g})
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrapf(err, "geodata: iterate %s rows", src)
	}

	if total > 0 && dropped == total {
		return nil, eris.Errorf("geodata: all %d %s rows had unparseable geography", total, src)
	}
	if dropped > 0 {
		zap.L().Warn("geodata: dropped rows with bad geography",
			zap.String("source", string(src)),
			zap.Int("dropped", dropped),
			zap.Int("total", total),
		)
	}

	return table, nil
}

// parseGeography parses the serialized geography value (GeoJSON text or
// bytes) into a geometry.
func parseGeography(v any) (geom.T, error) {
	var raw []byte
	switch s := v.(type) {
	case string:
		raw = []byte(s)
	case []byte:
		raw = s
	case nil:
		return nil, eris.New("geodata: null geography")
	default:
		return nil, eris.Errorf("geodata: unsupported geography type %T", v)
	}

	var g geom.T
	if err := geojson.Unmarshal(raw, &g); err != nil {
		return nil, eris.Wrap(err, "geodata: parse geography")
	}
	if g == nil {
		return nil, eris.New("geodata: empty geography")
	}
	return g, nil
}

// CacheStats exposes the fetch cache statistics, or zero stats when
// caching is disabled.
func (f *Fetcher) CacheStats() CacheStats {
	if f.cache == nil {
		return CacheStats{}
	}
	return f.cache.Stats()
}
