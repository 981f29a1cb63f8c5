// Package store persists the daily temperature field as a directory of
// compressed chunks plus a JSON manifest. Chunks are keyed by (calendar
// year, latitude band) so the analysis pipeline can stream one year of one
// band at a time; an LRU cache keeps recently decoded chunks hot while
// neighboring tiles work through the same band.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/ctessum/sparse"

	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
	"github.com/aedessler/DOE-report-section-6-3/internal/observability"
)

// Store reads a chunk store. It implements grid.Source and is safe for
// concurrent readers.
type Store struct {
	dir     string
	man     Manifest
	coords  grid.Coords
	codec   Codec
	cache   *lruCache
	index   map[chunkKey]int
	logger  *slog.Logger
	metrics *observability.Metrics
}

// Open loads and validates the manifest under dir. cacheSize bounds the
// number of decompressed chunks held in memory.
func Open(dir string, cacheSize int, logger *slog.Logger, metrics *observability.Metrics) (*Store, error) {
	man, err := ReadManifest(dir)
	if err != nil {
		return nil, err
	}
	coords, err := man.Coords()
	if err != nil {
		return nil, err
	}
	codec, err := NewCodec(man.Codec)
	if err != nil {
		return nil, err
	}
	if cacheSize < 1 {
		cacheSize = 1
	}

	index := make(map[chunkKey]int, len(man.Chunks))
	for i, ci := range man.Chunks {
		index[chunkKey{year: ci.Year, band: ci.Band}] = i
	}

	s := &Store{
		dir:     dir,
		man:     *man,
		coords:  coords,
		codec:   codec,
		cache:   newLRUCache(cacheSize),
		index:   index,
		logger:  logger,
		metrics: metrics,
	}
	logger.Info("store opened",
		"dir", dir,
		"days", man.Days,
		"rows", man.Rows,
		"cols", man.Cols,
		"chunks", len(man.Chunks),
		"codec", man.Codec,
	)
	return s, nil
}

// Coords returns the grid coordinates recorded in the manifest.
func (s *Store) Coords() grid.Coords { return s.coords }

// Land returns the manifest land mask.
func (s *Store) Land() []bool { return s.man.LandMask }

// Dataset wraps the store in a validated dataset view.
func (s *Store) Dataset() (*grid.Dataset, error) {
	return grid.New(s.coords, s.man.LandMask, s)
}

func (s *Store) Shape() (int, int, int) { return s.man.Days, s.man.Rows, s.man.Cols }

// ReadBlock assembles the requested block from every chunk it intersects.
func (s *Store) ReadBlock(ctx context.Context, day0, day1, row0, row1 int) (*sparse.DenseArray, error) {
	out := sparse.ZerosDense(day1-day0, row1-row0, s.man.Cols)
	if day1 <= day0 || row1 <= row0 {
		return out, nil
	}
	t := day0
	for t < day1 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		year := s.coords.Time.Year(t)
		dayHi := day1
		for band := row0 / s.man.BandRows; band*s.man.BandRows < row1; band++ {
			key := chunkKey{year: year, band: band}
			i, ok := s.index[key]
			if !ok {
				return nil, fmt.Errorf("store has no chunk for year %d band %d", year, band)
			}
			ci := &s.man.Chunks[i]
			vals, err := s.loadChunk(key, ci)
			if err != nil {
				return nil, err
			}

			chunkEnd := ci.Day0 + ci.Days
			if chunkEnd < dayHi {
				dayHi = chunkEnd
			}
			rLo, rHi := row0, row1
			if ci.Row0 > rLo {
				rLo = ci.Row0
			}
			if ci.Row0+ci.Rows < rHi {
				rHi = ci.Row0 + ci.Rows
			}
			for d := t; d < chunkEnd && d < day1; d++ {
				for r := rLo; r < rHi; r++ {
					base := ((d-ci.Day0)*ci.Rows + (r - ci.Row0)) * s.man.Cols
					for c := 0; c < s.man.Cols; c++ {
						out.Set(vals[base+c], d-day0, r-row0, c)
					}
				}
			}
		}
		t = dayHi
	}
	return out, nil
}

// loadChunk fetches one chunk through the cache, verifying length and
// checksum before decoding.
func (s *Store) loadChunk(key chunkKey, ci *ChunkInfo) ([]float64, error) {
	if vals, ok := s.cache.get(key); ok {
		s.metrics.ChunkCache.WithLabelValues("hit").Inc()
		return vals, nil
	}
	s.metrics.ChunkCache.WithLabelValues("miss").Inc()

	start := time.Now()
	raw, err := os.ReadFile(filepath.Join(s.dir, ci.File))
	if err != nil {
		return nil, fmt.Errorf("read chunk %s: %w", ci.File, err)
	}
	if len(raw) != ci.StoredBytes {
		return nil, fmt.Errorf("chunk %s: %d bytes on disk, manifest says %d", ci.File, len(raw), ci.StoredBytes)
	}
	if sum := fmt.Sprintf("%016x", xxhash.Sum64(raw)); sum != ci.Checksum {
		return nil, fmt.Errorf("chunk %s: checksum mismatch (%s, manifest says %s)", ci.File, sum, ci.Checksum)
	}

	payload := raw
	if ci.StoredBytes != ci.RawBytes {
		payload, err = s.codec.Decompress(raw, ci.RawBytes)
		if err != nil {
			return nil, fmt.Errorf("chunk %s: %w", ci.File, err)
		}
	}
	vals, err := decodeFloat32(payload)
	if err != nil {
		return nil, fmt.Errorf("chunk %s: %w", ci.File, err)
	}
	if len(vals) != ci.Days*ci.Rows*s.man.Cols {
		return nil, fmt.Errorf("chunk %s: %d values, want %d", ci.File, len(vals), ci.Days*ci.Rows*s.man.Cols)
	}

	s.metrics.ChunksRead.Inc()
	s.metrics.DecompressedBytes.Add(float64(len(payload)))
	s.metrics.ChunkReadDuration.WithLabelValues(s.codec.Name()).Observe(time.Since(start).Seconds())

	s.cache.put(key, vals)
	return vals, nil
}
