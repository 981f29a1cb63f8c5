package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
	"github.com/ctessum/sparse"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
)

// Writer builds a chunk store on disk. Chunks are written one (year, band)
// at a time; Finish verifies full coverage and writes the manifest last, so
// a crashed ingest never leaves a store that opens.
type Writer struct {
	dir    string
	codec  Codec
	man    *Manifest
	logger *slog.Logger
}

// NewWriter prepares the store layout under dir.
func NewWriter(dir string, coords grid.Coords, land []bool, bandRows int, codecName string, logger *slog.Logger) (*Writer, error) {
	if bandRows < 1 {
		return nil, &domain.ConfigError{Param: "band rows", Detail: fmt.Sprintf("%d is not positive", bandRows)}
	}
	if len(land) != len(coords.Lat)*len(coords.Lon) {
		return nil, &domain.ShapeError{
			Subject: "land mask",
			Detail:  fmt.Sprintf("%d cells, want %d×%d", len(land), len(coords.Lat), len(coords.Lon)),
		}
	}
	codec, err := NewCodec(codecName)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Join(dir, chunkDir), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	man := &Manifest{
		Version:   manifestVersion,
		Codec:     codec.Name(),
		StartDate: coords.Time.Start().Format(dateLayout),
		Days:      coords.Time.Len(),
		Rows:      len(coords.Lat),
		Cols:      len(coords.Lon),
		BandRows:  bandRows,
		Latitude:  coords.Lat,
		Longitude: coords.Lon,
		LandMask:  land,
	}
	return &Writer{dir: dir, codec: codec, man: man, logger: logger}, nil
}

// Bands returns the number of latitude bands per year.
func (w *Writer) Bands() int { return w.man.Bands() }

// BandRange returns the half-open row interval of a band.
func (w *Writer) BandRange(band int) (row0, row1 int) {
	row0 = band * w.man.BandRows
	row1 = row0 + w.man.BandRows
	if row1 > w.man.Rows {
		row1 = w.man.Rows
	}
	return row0, row1
}

// WriteChunk stores the block for one calendar year and band. The block
// shape must be [days-in-year, band rows, cols].
func (w *Writer) WriteChunk(year, band int, block *sparse.DenseArray) error {
	coords, err := w.man.Coords()
	if err != nil {
		return err
	}
	day0, day1 := coords.Time.YearIndexRange(domain.YearRange{First: year, Last: year})
	if day0 == day1 {
		return &domain.ConfigError{Param: "chunk year", Detail: fmt.Sprintf("%d is outside the time axis", year)}
	}
	if band < 0 || band >= w.Bands() {
		return &domain.ConfigError{Param: "chunk band", Detail: fmt.Sprintf("%d outside [0, %d)", band, w.Bands())}
	}
	row0, row1 := w.BandRange(band)
	want := []int{day1 - day0, row1 - row0, w.man.Cols}
	if len(block.Shape) != 3 || block.Shape[0] != want[0] || block.Shape[1] != want[1] || block.Shape[2] != want[2] {
		return &domain.ShapeError{
			Subject: "chunk",
			Detail:  fmt.Sprintf("year %d band %d: block is %v, want %v", year, band, block.Shape, want),
		}
	}

	raw := encodeFloat32(block.Elements)
	stored, err := w.codec.Compress(raw)
	if err != nil {
		return fmt.Errorf("compress chunk %d/%d: %w", year, band, err)
	}
	// Keep incompressible chunks raw; the reader detects this by the equal
	// raw and stored sizes.
	if len(stored) == 0 || len(stored) >= len(raw) {
		stored = raw
	}

	name := filepath.Join(chunkDir, fmt.Sprintf("t_%04d_b%02d.bin", year, band))
	if err := os.WriteFile(filepath.Join(w.dir, name), stored, 0o644); err != nil {
		return fmt.Errorf("write chunk %d/%d: %w", year, band, err)
	}

	w.man.Chunks = append(w.man.Chunks, ChunkInfo{
		Year:        year,
		Band:        band,
		File:        name,
		Day0:        day0,
		Days:        day1 - day0,
		Row0:        row0,
		Rows:        row1 - row0,
		RawBytes:    len(raw),
		StoredBytes: len(stored),
		Checksum:    fmt.Sprintf("%016x", xxhash.Sum64(stored)),
	})
	w.logger.Debug("wrote chunk",
		"year", year,
		"band", band,
		"raw_bytes", len(raw),
		"stored_bytes", len(stored),
	)
	return nil
}

// Finish checks that every (year, band) chunk was written, then writes the
// manifest.
func (w *Writer) Finish() error {
	coords, err := w.man.Coords()
	if err != nil {
		return err
	}
	seen := make(map[chunkKey]bool, len(w.man.Chunks))
	for _, ci := range w.man.Chunks {
		seen[chunkKey{year: ci.Year, band: ci.Band}] = true
	}
	for year := coords.Time.FirstYear(); year <= coords.Time.LastYear(); year++ {
		for band := 0; band < w.Bands(); band++ {
			if !seen[chunkKey{year: year, band: band}] {
				return fmt.Errorf("store incomplete: missing chunk for year %d band %d", year, band)
			}
		}
	}

	raw, err := json.MarshalIndent(w.man, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(w.dir, manifestName), raw, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	w.logger.Info("store complete",
		"dir", w.dir,
		"chunks", len(w.man.Chunks),
		"codec", w.man.Codec,
	)
	return nil
}
