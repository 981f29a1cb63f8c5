package store

import (
	"context"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
	"github.com/aedessler/DOE-report-section-6-3/internal/observability"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// cellValue stays exactly representable in float32 for every index used in
// these tests, so round trips compare equal.
func cellValue(day, row, col int) float64 {
	return float64(day)*10000 + float64(row)*100 + float64(col)
}

func testCoords() (grid.Coords, []bool) {
	coords := grid.Coords{
		Time: domain.NewTimeAxisYears(2000, 2001),
		Lat:  []float64{30, 32, 34, 36, 38},
		Lon:  []float64{-120, -110, -100, -90},
	}
	land := make([]bool, 5*4)
	for i := range land {
		land[i] = true
	}
	land[3] = false
	return coords, land
}

// writeStore builds a 2-year, 5-row, 4-col store with 2-row bands.
func writeStore(t *testing.T, dir, codec string) {
	t.Helper()

	coords, land := testCoords()
	w, err := NewWriter(dir, coords, land, 2, codec, testLogger())
	require.NoError(t, err)
	require.Equal(t, 3, w.Bands())

	for year := 2000; year <= 2001; year++ {
		day0, day1 := coords.Time.YearIndexRange(domain.YearRange{First: year, Last: year})
		for band := 0; band < w.Bands(); band++ {
			row0, row1 := w.BandRange(band)
			block := sparse.ZerosDense(day1-day0, row1-row0, 4)
			for d := day0; d < day1; d++ {
				for r := row0; r < row1; r++ {
					for c := 0; c < 4; c++ {
						block.Set(cellValue(d, r, c), d-day0, r-row0, c)
					}
				}
			}
			// One missing observation survives the round trip as NaN.
			if year == 2000 && band == 0 {
				block.Set(math.NaN(), 0, 0, 0)
			}
			require.NoError(t, w.WriteChunk(year, band, block))
		}
	}
	require.NoError(t, w.Finish())
}

func TestStoreRoundTrip(t *testing.T) {
	for _, codec := range []string{"lz4", "zstd", "s2", "none"} {
		t.Run(codec, func(t *testing.T) {
			dir := t.TempDir()
			writeStore(t, dir, codec)

			s, err := Open(dir, 4, testLogger(), observability.NewMetricsForTesting())
			require.NoError(t, err)

			days, rows, cols := s.Shape()
			assert.Equal(t, 731, days)
			assert.Equal(t, 5, rows)
			assert.Equal(t, 4, cols)

			// A block spanning the year boundary and two bands.
			block, err := s.ReadBlock(context.Background(), 360, 370, 1, 4)
			require.NoError(t, err)
			assert.Equal(t, []int{10, 3, 4}, block.Shape)
			for d := 360; d < 370; d++ {
				for r := 1; r < 4; r++ {
					for c := 0; c < 4; c++ {
						assert.Equal(t, cellValue(d, r, c), block.Get(d-360, r-1, c),
							"day %d row %d col %d", d, r, c)
					}
				}
			}

			// The NaN planted at (0, 0, 0) comes back as NaN.
			block, err = s.ReadBlock(context.Background(), 0, 1, 0, 1)
			require.NoError(t, err)
			assert.True(t, math.IsNaN(block.Get(0, 0, 0)))

			ds, err := s.Dataset()
			require.NoError(t, err)
			assert.False(t, ds.Land(0, 3))
			assert.Equal(t, 19, ds.LandCells())
		})
	}
}

func TestStoreChecksumMismatch(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, "lz4")

	// Flip one byte without changing the length.
	name := filepath.Join(dir, chunkDir, "t_2000_b00.bin")
	raw, err := os.ReadFile(name)
	require.NoError(t, err)
	raw[len(raw)/2] ^= 0xff
	require.NoError(t, os.WriteFile(name, raw, 0o644))

	s, err := Open(dir, 4, testLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	_, err = s.ReadBlock(context.Background(), 0, 1, 0, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checksum mismatch")
}

func TestStoreCacheServesRepeatReads(t *testing.T) {
	dir := t.TempDir()
	writeStore(t, dir, "lz4")

	s, err := Open(dir, 4, testLogger(), observability.NewMetricsForTesting())
	require.NoError(t, err)

	_, err = s.ReadBlock(context.Background(), 0, 5, 0, 2)
	require.NoError(t, err)

	// Removing the file behind the chunk proves the second read never
	// touches disk.
	require.NoError(t, os.Remove(filepath.Join(dir, chunkDir, "t_2000_b00.bin")))

	block, err := s.ReadBlock(context.Background(), 0, 5, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, cellValue(1, 1, 2), block.Get(1, 1, 2))
}

func TestWriterRejectsBadChunks(t *testing.T) {
	coords, land := testCoords()
	w, err := NewWriter(t.TempDir(), coords, land, 2, "lz4", testLogger())
	require.NoError(t, err)

	var shapeErr *domain.ShapeError
	err = w.WriteChunk(2000, 0, sparse.ZerosDense(10, 2, 4))
	require.ErrorAs(t, err, &shapeErr)

	var cfgErr *domain.ConfigError
	err = w.WriteChunk(1980, 0, sparse.ZerosDense(366, 2, 4))
	require.ErrorAs(t, err, &cfgErr)
	err = w.WriteChunk(2000, 9, sparse.ZerosDense(366, 2, 4))
	require.ErrorAs(t, err, &cfgErr)
}

func TestWriterFinishRequiresFullCoverage(t *testing.T) {
	coords, land := testCoords()
	dir := t.TempDir()
	w, err := NewWriter(dir, coords, land, 2, "lz4", testLogger())
	require.NoError(t, err)

	require.NoError(t, w.WriteChunk(2000, 0, sparse.ZerosDense(366, 2, 4)))
	err = w.Finish()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing chunk")

	// No manifest means the partial store does not open.
	_, err = Open(dir, 4, testLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
}

func TestOpenMissingDir(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "absent"), 4, testLogger(), observability.NewMetricsForTesting())
	require.Error(t, err)
}
