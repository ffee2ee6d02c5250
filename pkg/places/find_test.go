package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const matchBody = `{
	"results": [
		{
			"LPI": {
				"ADDRESS": "10 DOWNING STREET, LONDON, SW1A 2AA",
				"ADMINISTRATIVE_AREA": "CITY OF WESTMINSTER",
				"BLPU_STATE_CODE_DESCRIPTION": "Approved",
				"CLASSIFICATION_CODE_DESCRIPTION": "Office / Work Studio",
				"MATCH": 1.0,
				"X_COORDINATE": 530047.0,
				"Y_COORDINATE": 179951.0
			}
		}
	]
}`

func TestFind_Match(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/find", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "sw1a 2aa", q.Get("query"))
		assert.Equal(t, "LPI", q.Get("dataset"))
		assert.Equal(t, "1", q.Get("maxresults"))
		assert.NotEmpty(t, q.Get("fq"))
		_, _ = w.Write([]byte(matchBody))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	m, err := c.Find(context.Background(), "sw1a 2aa")
	require.NoError(t, err)

	assert.True(t, m.Matched)
	assert.Equal(t, "10 DOWNING STREET, LONDON, SW1A 2AA", m.Address)
	assert.Equal(t, "CITY OF WESTMINSTER", m.AdministrativeArea)
	assert.Equal(t, "Approved", m.StatusDescription)
	assert.InDelta(t, 1.0, m.MatchScore, 1e-9)
	assert.InDelta(t, 530047.0, m.Easting, 1e-9)
	assert.InDelta(t, 179951.0, m.Northing, 1e-9)
}

func TestFind_NoMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results": []}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	m, err := c.Find(context.Background(), "nowhere at all")
	require.NoError(t, err)
	assert.False(t, m.Matched)
}

func TestFind_StringMatchScore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"LPI":{"ADDRESS":"X","MATCH":"0.8","X_COORDINATE":1,"Y_COORDINATE":2}}]}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	m, err := c.Find(context.Background(), "x")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, m.MatchScore, 1e-9)
}

func TestFind_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(matchBody))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	m, err := c.Find(context.Background(), "sw1a 2aa")
	require.NoError(t, err)
	assert.True(t, m.Matched)
	assert.Equal(t, int32(2), calls.Load())
}

func TestFind_PermanentStatusFails(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.Find(context.Background(), "sw1a 2aa")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFind_UsesCache(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(matchBody))
	}))
	defer srv.Close()

	cache, err := OpenCache(filepath.Join(t.TempDir(), "places.db"), 30)
	require.NoError(t, err)
	defer cache.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL), WithCache(cache))

	m1, err := c.Find(context.Background(), "SW1A 2AA")
	require.NoError(t, err)
	// Same query with different whitespace/case hits the cache.
	m2, err := c.Find(context.Background(), "  sw1a   2aa ")
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCache_RoundTripNonMatch(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "places.db"), 0)
	require.NoError(t, err)
	defer cache.Close()

	require.NoError(t, cache.Put(context.Background(), "nowhere", &Match{Matched: false}))

	m, ok := cache.Get(context.Background(), "nowhere")
	require.True(t, ok)
	assert.False(t, m.Matched)
}

func TestCache_MissOnUnknownQuery(t *testing.T) {
	cache, err := OpenCache(filepath.Join(t.TempDir(), "places.db"), 30)
	require.NoError(t, err)
	defer cache.Close()

	_, ok := cache.Get(context.Background(), "never stored")
	assert.False(t, ok)
}
