package config

import (
	"errors"
	"os"
	"runtime"
	"strconv"
	"time"
)

// Config holds all service settings, populated from environment variables.
// Analysis parameters arrive separately through flags; see Analysis.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Workers is the tile worker count, resolved to NumCPU when the
	// variable is 0 or unset.
	Workers   int
	TileRows  int
	CacheSize int
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	workers, err := parseCount("CLIMSTATS_WORKERS", 0)
	if err != nil {
		return nil, err
	}
	if workers == 0 {
		workers = runtime.NumCPU()
	}

	tileRows, err := parseCount("CLIMSTATS_TILE_ROWS", 4)
	if err != nil || tileRows == 0 {
		return nil, errors.New("invalid CLIMSTATS_TILE_ROWS")
	}

	cacheSize, err := parseCount("CLIMSTATS_CHUNK_CACHE", 16)
	if err != nil || cacheSize == 0 {
		return nil, errors.New("invalid CLIMSTATS_CHUNK_CACHE")
	}

	return &Config{
		HTTPAddr:        envOrDefault("CLIMSTATS_HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("CLIMSTATS_LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("CLIMSTATS_LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		Workers:         workers,
		TileRows:        tileRows,
		CacheSize:       cacheSize,
	}, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseShutdownTimeout() (time.Duration, error) {
	s := envOrDefault("CLIMSTATS_SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, errors.New("invalid CLIMSTATS_SHUTDOWN_TIMEOUT")
	}
	return d, nil
}

func parseCount(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}
