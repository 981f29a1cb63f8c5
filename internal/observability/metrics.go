package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for an
// analysis run.
type Metrics struct {
	TilesProcessed  prometheus.Counter
	DaysFlagged     prometheus.Counter
	AnalysisRunning prometheus.Gauge
	Progress        prometheus.Gauge

	// Tile processing metrics.
	TileDuration prometheus.Histogram
	CellsPerTile prometheus.Histogram

	// Chunk store metrics.
	ChunksRead        prometheus.Counter
	DecompressedBytes prometheus.Counter
	ChunkCache        *prometheus.CounterVec   // labels: result={hit,miss}
	ChunkReadDuration *prometheus.HistogramVec // labels: codec={lz4,zstd,s2,none}
}

// NewMetrics creates and registers all run metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		TilesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climstats",
			Name:      "tiles_processed_total",
			Help:      "Total latitude-band tiles completed.",
		}),
		DaysFlagged: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climstats",
			Name:      "days_flagged_total",
			Help:      "Total cell-days flagged by the active analysis.",
		}),
		AnalysisRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climstats",
			Name:      "analysis_running",
			Help:      "1 while the analysis is active, 0 when finished.",
		}),
		Progress: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "climstats",
			Name:      "progress_ratio",
			Help:      "Fraction of tiles completed, 0 through 1.",
		}),
		TileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climstats",
			Name:      "tile_duration_seconds",
			Help:      "Wall time to fully process one tile.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		CellsPerTile: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "climstats",
			Name:      "cells_per_tile",
			Help:      "Grid cells per tile, land and ocean.",
			Buckets:   []float64{16, 32, 64, 128, 256, 512, 1024},
		}),
		ChunksRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climstats",
			Name:      "chunks_read_total",
			Help:      "Total store chunks fetched and decoded.",
		}),
		DecompressedBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "climstats",
			Name:      "decompressed_bytes_total",
			Help:      "Total bytes produced by chunk decompression.",
		}),
		ChunkCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "climstats",
			Name:      "chunk_cache_total",
			Help:      "Decompressed-chunk cache lookups by result.",
		}, []string{"result"}),
		ChunkReadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "climstats",
			Name:      "chunk_read_duration_seconds",
			Help:      "Chunk fetch-and-decode duration by codec.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		}, []string{"codec"}),
	}

	prometheus.MustRegister(
		m.TilesProcessed,
		m.DaysFlagged,
		m.AnalysisRunning,
		m.Progress,
		m.TileDuration,
		m.CellsPerTile,
		m.ChunksRead,
		m.DecompressedBytes,
		m.ChunkCache,
		m.ChunkReadDuration,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		TilesProcessed:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climstats", Name: "tiles_processed_total"}),
		DaysFlagged:       prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climstats", Name: "days_flagged_total"}),
		AnalysisRunning:   prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climstats", Name: "analysis_running"}),
		Progress:          prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "climstats", Name: "progress_ratio"}),
		TileDuration:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climstats", Name: "tile_duration_seconds"}),
		CellsPerTile:      prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "climstats", Name: "cells_per_tile"}),
		ChunksRead:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climstats", Name: "chunks_read_total"}),
		DecompressedBytes: prometheus.NewCounter(prometheus.CounterOpts{Namespace: "climstats", Name: "decompressed_bytes_total"}),
		ChunkCache:        prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "climstats", Name: "chunk_cache_total"}, []string{"result"}),
		ChunkReadDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "climstats", Name: "chunk_read_duration_seconds"}, []string{"codec"}),
	}
}
