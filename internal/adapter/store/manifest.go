package store

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
)

const (
	manifestName    = "manifest.json"
	chunkDir        = "chunks"
	manifestVersion = 1
	dateLayout      = "2006-01-02"
)

// Manifest describes a chunk store on disk: the grid geometry, the codec,
// and one entry per chunk. Chunks partition the field by calendar year and
// latitude band; payloads are little-endian float32, row-major
// [days, rows, cols], NaN for missing.
type Manifest struct {
	Version   int         `json:"version"`
	Codec     string      `json:"codec"`
	StartDate string      `json:"start_date"`
	Days      int         `json:"days"`
	Rows      int         `json:"rows"`
	Cols      int         `json:"cols"`
	BandRows  int         `json:"band_rows"`
	Latitude  []float64   `json:"latitude"`
	Longitude []float64   `json:"longitude"`
	LandMask  []bool      `json:"land_mask"`
	Chunks    []ChunkInfo `json:"chunks"`
}

// ChunkInfo locates and verifies one chunk. Checksum is the xxhash64 of the
// stored (possibly compressed) bytes, hex encoded. StoredBytes equal to
// RawBytes means the chunk is stored raw because compression did not shrink
// it.
type ChunkInfo struct {
	Year        int    `json:"year"`
	Band        int    `json:"band"`
	File        string `json:"file"`
	Day0        int    `json:"day0"`
	Days        int    `json:"days"`
	Row0        int    `json:"row0"`
	Rows        int    `json:"rows"`
	RawBytes    int    `json:"raw_bytes"`
	StoredBytes int    `json:"stored_bytes"`
	Checksum    string `json:"checksum"`
}

// ReadManifest loads and validates the manifest under dir without touching
// any chunks.
func ReadManifest(dir string) (*Manifest, error) {
	raw, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	var man Manifest
	if err := json.Unmarshal(raw, &man); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if err := man.validate(); err != nil {
		return nil, fmt.Errorf("open store %s: %w", dir, err)
	}
	return &man, nil
}

func (m *Manifest) validate() error {
	if m.Version != manifestVersion {
		return fmt.Errorf("manifest version %d, want %d", m.Version, manifestVersion)
	}
	if m.Days <= 0 || m.Rows <= 0 || m.Cols <= 0 || m.BandRows <= 0 {
		return &domain.ShapeError{Subject: "manifest", Detail: fmt.Sprintf("degenerate dimensions %d×%d×%d band %d", m.Days, m.Rows, m.Cols, m.BandRows)}
	}
	if len(m.Latitude) != m.Rows || len(m.Longitude) != m.Cols {
		return &domain.ShapeError{Subject: "manifest", Detail: "coordinate vectors disagree with dimensions"}
	}
	if len(m.LandMask) != m.Rows*m.Cols {
		return &domain.ShapeError{Subject: "manifest", Detail: "land mask disagrees with dimensions"}
	}
	if _, err := time.Parse(dateLayout, m.StartDate); err != nil {
		return fmt.Errorf("manifest start date: %w", err)
	}
	return nil
}

// Coords reconstructs the grid coordinates the manifest describes.
func (m *Manifest) Coords() (grid.Coords, error) {
	start, err := time.Parse(dateLayout, m.StartDate)
	if err != nil {
		return grid.Coords{}, fmt.Errorf("manifest start date: %w", err)
	}
	return grid.Coords{
		Time: domain.NewTimeAxis(start, m.Days),
		Lat:  m.Latitude,
		Lon:  m.Longitude,
	}, nil
}

// Bands returns the number of latitude bands.
func (m *Manifest) Bands() int {
	return (m.Rows + m.BandRows - 1) / m.BandRows
}

// encodeFloat32 packs values into the little-endian float32 chunk payload.
func encodeFloat32(vals []float64) []byte {
	raw := make([]byte, 4*len(vals))
	for i, v := range vals {
		binary.LittleEndian.PutUint32(raw[4*i:], math.Float32bits(float32(v)))
	}
	return raw
}

// decodeFloat32 unpacks a chunk payload into float64 values.
func decodeFloat32(raw []byte) ([]float64, error) {
	if len(raw)%4 != 0 {
		return nil, fmt.Errorf("payload length %d is not a multiple of 4", len(raw))
	}
	vals := make([]float64, len(raw)/4)
	for i := range vals {
		vals[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(raw[4*i:])))
	}
	return vals, nil
}
