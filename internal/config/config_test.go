package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "https://api.os.uk/search/places/v1", cfg.Places.BaseURL)
	assert.Equal(t, "LPI", cfg.Places.Dataset)
	assert.Equal(t, "COUNTRY_CODE:E COUNTRY_CODE:S COUNTRY_CODE:W", cfg.Places.CountryFilter)
	assert.Equal(t, 256, cfg.Fetch.CacheEntries)
	assert.Equal(t, "COLLATERAL.CRIME_INDEXED", cfg.Store.CrimeTable)
	assert.Equal(t, "COLLATERAL.H3_11_GRID_AGGREGATED", cfg.Store.HexGridTable)
	assert.Equal(t, 1000.0, cfg.Insight.MaxRadiusMeters)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("CRISP_SERVER_PORT", "9090")
	t.Setenv("CRISP_LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestInitLogger_BadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
	require.Error(t, err)
}
