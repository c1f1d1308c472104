// Package config loads pipeline settings from environment variables.
// Request-specific parameters (region, dates, point of interest) arrive as
// CLI flags instead; everything here is policy that stays stable across
// runs.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	OutputDir string `env:"OUTPUT_DIR" envDefault:"./simulations"`
	CacheDir  string `env:"CACHE_DIR" envDefault:"./cache"`

	// Optional directory of user-supplied .sno files copied into every
	// package verbatim.
	SnowFilesDir string `env:"SNOW_FILES_DIR"`

	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"json"`
	MetricsAddr string `env:"METRICS_ADDR"`

	// Grid policy.
	CoordSys         string  `env:"COORD_SYS" envDefault:"CH1903+"`
	Resolution       float64 `env:"RESOLUTION" envDefault:"25"`
	SourceResolution float64 `env:"SOURCE_RESOLUTION" envDefault:"2"`
	MaxCells         int     `env:"MAX_CELLS" envDefault:"4000000"`
	MinCoverage      float64 `env:"MIN_COVERAGE" envDefault:"0.9"`

	// Land cover policy.
	LandCoverSource   string `env:"LANDCOVER_SOURCE" envDefault:"bfs"` // "bfs" or "constant"
	LandCoverConstant int    `env:"LANDCOVER_CONSTANT" envDefault:"7"`

	// Station selection policy. The scoring weights are deliberately
	// configuration rather than constants; the defaults favor distance
	// slightly over elevation difference and completeness.
	StationSearchRadius float64       `env:"STATION_SEARCH_RADIUS" envDefault:"20000"`
	MaxStations         int           `env:"MAX_STATIONS" envDefault:"5"`
	MinCompleteness     float64       `env:"MIN_COMPLETENESS" envDefault:"0.8"`
	DistanceWeight      float64       `env:"SCORE_DISTANCE_WEIGHT" envDefault:"0.4"`
	ElevationWeight     float64       `env:"SCORE_ELEVATION_WEIGHT" envDefault:"0.3"`
	CompletenessWeight  float64       `env:"SCORE_COMPLETENESS_WEIGHT" envDefault:"0.3"`
	SampleStep          time.Duration `env:"SAMPLE_STEP" envDefault:"1h"`

	// Upstream adapter policy.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"3"`

	DEMEndpoint       string `env:"DEM_ENDPOINT" envDefault:"https://data.geo.admin.ch/api/stac/v0.9/collections/ch.swisstopo.swissalti3d/items"`
	LandCoverEndpoint string `env:"LANDCOVER_ENDPOINT" envDefault:"https://data.geo.admin.ch/ch.bfs.arealstatistik"`
	StationEndpoint   string `env:"STATION_ENDPOINT" envDefault:"https://measurement-api.slf.ch/public/api"`
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.Resolution <= 0 {
		return nil, errors.New("RESOLUTION must be positive")
	}
	if cfg.SourceResolution <= 0 || cfg.SourceResolution > cfg.Resolution {
		return nil, fmt.Errorf("SOURCE_RESOLUTION must be in (0, %g]", cfg.Resolution)
	}
	if cfg.MaxCells <= 0 {
		return nil, errors.New("MAX_CELLS must be positive")
	}
	if cfg.MinCoverage < 0 || cfg.MinCoverage > 1 {
		return nil, errors.New("MIN_COVERAGE must be within [0, 1]")
	}
	if cfg.LandCoverSource != "bfs" && cfg.LandCoverSource != "constant" {
		return nil, fmt.Errorf("unknown LANDCOVER_SOURCE %q", cfg.LandCoverSource)
	}
	if cfg.MaxStations < 1 {
		return nil, errors.New("MAX_STATIONS must be at least 1")
	}
	if cfg.MinCompleteness < 0 || cfg.MinCompleteness > 1 {
		return nil, errors.New("MIN_COMPLETENESS must be within [0, 1]")
	}
	if cfg.SampleStep <= 0 || 24*time.Hour%cfg.SampleStep != 0 {
		return nil, errors.New("SAMPLE_STEP must divide one day evenly")
	}
	if cfg.MaxAttempts < 1 {
		return nil, errors.New("MAX_ATTEMPTS must be at least 1")
	}

	return cfg, nil
}
