// Package config loads application configuration from config.yaml and
// CRISP_-prefixed environment variables.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/crisp-geo/crisp/internal/db"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Places  PlacesConfig  `yaml:"places" mapstructure:"places"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Tiles   TilesConfig   `yaml:"tiles" mapstructure:"tiles"`
	Insight InsightConfig `yaml:"insight" mapstructure:"insight"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the analytical store connection.
type StoreConfig struct {
	Pool db.PoolConfig `yaml:"pool" mapstructure:"pool"`
	// Schema-qualified source tables, overridable per deployment.
	BuildingsTable    string `yaml:"buildings_table" mapstructure:"buildings_table"`
	StreetLightsTable string `yaml:"street_lights_table" mapstructure:"street_lights_table"`
	LandUseTable      string `yaml:"land_use_table" mapstructure:"land_use_table"`
	GreenspaceTable   string `yaml:"greenspace_table" mapstructure:"greenspace_table"`
	CrimeTable        string `yaml:"crime_table" mapstructure:"crime_table"`
	HexGridTable      string `yaml:"hex_grid_table" mapstructure:"hex_grid_table"`
}

// PlacesConfig configures the OS Places geocoding API.
type PlacesConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	CountryFilter string  `yaml:"country_filter" mapstructure:"country_filter"`
	Dataset       string  `yaml:"dataset" mapstructure:"dataset"`
	RateLimit     float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
	CachePath     string  `yaml:"cache_path" mapstructure:"cache_path"`
	CacheTTLDays  int     `yaml:"cache_ttl_days" mapstructure:"cache_ttl_days"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// FetchConfig configures the geodata fetch cache.
type FetchConfig struct {
	CacheTTL     time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
	CacheEntries int           `yaml:"cache_entries" mapstructure:"cache_entries"`
	TimeoutSecs  int           `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// TilesConfig configures the basemap raster tile proxy.
type TilesConfig struct {
	BaseURL      string        `yaml:"base_url" mapstructure:"base_url"`
	Key          string        `yaml:"key" mapstructure:"key"`
	CacheEntries int           `yaml:"cache_entries" mapstructure:"cache_entries"`
	CacheTTL     time.Duration `yaml:"cache_ttl" mapstructure:"cache_ttl"`
}

// InsightConfig bounds the search inputs accepted by the insight pipeline.
type InsightConfig struct {
	MaxRadiusMeters float64 `yaml:"max_radius_meters" mapstructure:"max_radius_meters"`
	RadiusStep      float64 `yaml:"radius_step" mapstructure:"radius_step"`
}

// ServerConfig configures the dashboard HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("CRISP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("places.base_url", "https://api.os.uk/search/places/v1")
	v.SetDefault("places.country_filter", "COUNTRY_CODE:E COUNTRY_CODE:S COUNTRY_CODE:W")
	v.SetDefault("places.dataset", "LPI")
	v.SetDefault("places.rate_limit", 10)
	v.SetDefault("places.cache_ttl_days", 30)
	v.SetDefault("places.timeout_secs", 30)
	v.SetDefault("fetch.cache_ttl", 10*time.Minute)
	v.SetDefault("fetch.cache_entries", 256)
	v.SetDefault("fetch.timeout_secs", 60)
	v.SetDefault("tiles.base_url", "https://api.os.uk/maps/raster/v1/zxy")
	v.SetDefault("tiles.cache_entries", 10000)
	v.SetDefault("tiles.cache_ttl", 1*time.Hour)
	v.SetDefault("insight.max_radius_meters", 1000)
	v.SetDefault("insight.radius_step", 100)
	v.SetDefault("store.buildings_table", "COLLATERAL.BUILDINGS_INDEXED")
	v.SetDefault("store.street_lights_table", "COLLATERAL.STREET_LIGHTS_INDEXED")
	v.SetDefault("store.land_use_table", "COLLATERAL.LAND_USE_SITES")
	v.SetDefault("store.greenspace_table", "COLLATERAL.GREENSPACE_OPEN")
	v.SetDefault("store.crime_table", "COLLATERAL.CRIME_INDEXED")
	v.SetDefault("store.hex_grid_table", "COLLATERAL.H3_11_GRID_AGGREGATED")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
