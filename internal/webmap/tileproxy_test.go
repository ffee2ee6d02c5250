package webmap

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestTileProxy_Fetch_Success(t *testing.T) {
	tileData := []byte("fake-png-tile-data")
	var gotPath, gotQuery string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_, _ = w.Write(tileData)
	}))
	defer upstream.Close()

	proxy := NewTileProxy(upstream.URL, "test-key", nil)
	data, err := proxy.Fetch(context.Background(), StyleRoad, 10, 512, 384)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(data) != string(tileData) {
		t.Errorf("expected tile data %q, got %q", tileData, data)
	}
	if gotPath != "/Road_3857/10/512/384.png" {
		t.Errorf("unexpected upstream path %s", gotPath)
	}
	if !strings.Contains(gotQuery, "key=test-key") {
		t.Errorf("API key missing from upstream query %s", gotQuery)
	}
}

func TestTileProxy_Fetch_CacheHit(t *testing.T) {
	calls := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte("tile"))
	}))
	defer upstream.Close()

	cache := NewTileCache(100, 10*time.Minute)
	proxy := NewTileProxy(upstream.URL, "k", cache)

	// First fetch — cache miss.
	if _, err := proxy.Fetch(context.Background(), StyleLight, 5, 10, 10); err != nil {
		t.Fatalf("first fetch: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", calls)
	}

	// Second fetch — cache hit, no upstream call.
	if _, err := proxy.Fetch(context.Background(), StyleLight, 5, 10, 10); err != nil {
		t.Fatalf("second fetch: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 upstream call (cached), got %d", calls)
	}
}

func TestTileProxy_StylesCachedSeparately(t *testing.T) {
	calls := 0
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		_, _ = w.Write([]byte("tile"))
	}))
	defer upstream.Close()

	cache := NewTileCache(100, 10*time.Minute)
	proxy := NewTileProxy(upstream.URL, "k", cache)

	_, _ = proxy.Fetch(context.Background(), StyleRoad, 5, 10, 10)
	_, _ = proxy.Fetch(context.Background(), StyleLight, 5, 10, 10)
	if calls != 2 {
		t.Errorf("expected 2 upstream calls for 2 styles, got %d", calls)
	}
}

func TestTileProxy_Fetch_UpstreamError(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	proxy := NewTileProxy(upstream.URL, "k", nil)
	if _, err := proxy.Fetch(context.Background(), StyleRoad, 1, 0, 0); err == nil {
		t.Fatal("expected error for 500 upstream response")
	}
}

func TestTileProxy_Fetch_ConnectionError(t *testing.T) {
	proxy := NewTileProxy("http://127.0.0.1:1", "k", nil)
	if _, err := proxy.Fetch(context.Background(), StyleRoad, 1, 0, 0); err == nil {
		t.Fatal("expected error for unreachable host")
	}
}

func TestResolveStyle(t *testing.T) {
	tests := []struct {
		alias   string
		want    string
		wantErr bool
	}{
		{"road", StyleRoad, false},
		{"light", StyleLight, false},
		{"satellite", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.alias, func(t *testing.T) {
			got, err := ResolveStyle(tt.alias)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for alias %q", tt.alias)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ResolveStyle(%s) = %s, want %s", tt.alias, got, tt.want)
			}
		})
	}
}

func TestTileCache_TTLExpiry(t *testing.T) {
	cache := NewTileCache(10, 10*time.Millisecond)
	cache.Put(StyleRoad, 1, 2, 3, []byte("tile"))

	time.Sleep(20 * time.Millisecond)
	if got := cache.Get(StyleRoad, 1, 2, 3); got != nil {
		t.Errorf("expected expired entry, got %q", got)
	}
}

func TestTileCache_EvictsOldest(t *testing.T) {
	cache := NewTileCache(2, time.Minute)
	cache.Put(StyleRoad, 1, 0, 0, []byte("a"))
	cache.Put(StyleRoad, 1, 0, 1, []byte("b"))
	cache.Put(StyleRoad, 1, 0, 2, []byte("c"))

	if cache.Get(StyleRoad, 1, 0, 0) != nil {
		t.Error("expected oldest entry evicted")
	}
	if cache.Get(StyleRoad, 1, 0, 2) == nil {
		t.Error("expected newest entry present")
	}

	stats := cache.Stats()
	if stats.Entries != 2 {
		t.Errorf("expected 2 entries, got %d", stats.Entries)
	}
}
