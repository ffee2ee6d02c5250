package webmap

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Basemap styles served by the OS Maps raster API.
const (
	StyleRoad  = "Road_3857"
	StyleLight = "Light_3857"
)

// styleAliases maps the short path segments the dashboard uses to the
// upstream style identifiers.
var styleAliases = map[string]string{
	"road":  StyleRoad,
	"light": StyleLight,
}

// TileProxy proxies basemap raster tiles from the OS Maps API, keeping
// the API key server-side and caching responses.
type TileProxy struct {
	baseURL string
	key     string
	client  *http.Client
	cache   *TileCache
}

// NewTileProxy creates a basemap tile proxy.
func NewTileProxy(baseURL, key string, cache *TileCache) *TileProxy {
	return &TileProxy{
		baseURL: baseURL,
		key:     key,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		cache: cache,
	}
}

// ResolveStyle maps a dashboard style alias to the upstream style
// identifier.
func ResolveStyle(alias string) (string, error) {
	style, ok := styleAliases[alias]
	if !ok {
		return "", eris.Errorf("webmap: unknown basemap style %q", alias)
	}
	return style, nil
}

// Fetch retrieves one basemap tile from the upstream server or cache.
func (p *TileProxy) Fetch(ctx context.Context, style string, z, x, y int) ([]byte, error) {
	if p.cache != nil {
		if cached := p.cache.Get(style, z, x, y); cached != nil {
			return cached, nil
		}
	}

	url := fmt.Sprintf("%s/%s/%d/%d/%d.png?key=%s", p.baseURL, style, z, x, y, p.key)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, eris.Wrap(err, "webmap: create basemap request")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "webmap: fetch basemap tile")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("webmap: basemap upstream returned %d for %s/%d/%d/%d", resp.StatusCode, style, z, x, y)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "webmap: read basemap tile body")
	}

	if p.cache != nil {
		p.cache.Put(style, z, x, y, data)
	}

	zap.L().Debug("webmap: fetched basemap tile",
		zap.String("style", style),
		zap.Int("z", z), zap.Int("x", x), zap.Int("y", y),
		zap.Int("bytes", len(data)))
	return data, nil
}

// CacheStats exposes the tile cache counters, nil-safe.
func (p *TileProxy) CacheStats() TileCacheStats {
	if p.cache == nil {
		return TileCacheStats{}
	}
	return p.cache.Stats()
}
