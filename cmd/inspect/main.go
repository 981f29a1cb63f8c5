// Command inspect performs phased integrity checks on a chunk store: the
// manifest geometry and chunk coverage, every chunk file's checksum and
// payload size, the assembled read path with physical-range sampling, and
// optionally a value-for-value cross-check against the source NetCDF.
//
// Usage:
//
//	inspect -store data/store
//	inspect -store data/store -netcdf data/tmax_daily.nc -sample-years 5
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/cespare/xxhash/v2"

	"github.com/aedessler/DOE-report-section-6-3/internal/adapter/netcdf"
	"github.com/aedessler/DOE-report-section-6-3/internal/adapter/store"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
	"github.com/aedessler/DOE-report-section-6-3/internal/observability"
)

// Non-NaN temperatures outside this band mean a broken ingest, not weather.
const (
	minPlausibleC = -90.0
	maxPlausibleC = 65.0
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	storeDir := flag.String("store", "", "chunk store directory")
	netcdfPath := flag.String("netcdf", "", "source NetCDF for cross-checking (optional)")
	sampleYears := flag.Int("sample-years", 3, "years sampled by the read-path and cross-check phases")
	flag.Parse()

	if *storeDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*storeDir, *netcdfPath, *sampleYears); code != 0 {
		os.Exit(code)
	}
}

func run(storeDir, netcdfPath string, sampleYears int) int {
	fmt.Println("=== Chunk Store Integrity Inspection ===")
	fmt.Println()

	man, err := store.ReadManifest(storeDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	coords, err := man.Coords()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}

	logger := observability.NewLogger("error", "text")
	metrics := observability.NewMetrics()
	st, openErr := store.Open(storeDir, 8, logger, metrics)

	phases := []*phase{
		validateManifest(man, coords),
		validateChunks(storeDir, man),
		validateReadPath(st, openErr, man, coords, sampleYears),
	}
	if netcdfPath != "" {
		phases = append(phases, validateSource(st, openErr, netcdfPath, man, coords, sampleYears, logger))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-44s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Store: %d chunks, %d days, %dx%d cells, codec %s\n",
		len(man.Chunks), man.Days, man.Rows, man.Cols, man.Codec)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll checks passed.")
		return 0
	}
	fmt.Println("\nInspection FAILED.")
	return 1
}

// ── Phase 1: Manifest ──
// Chunk coverage and per-chunk metadata against the declared geometry.

func validateManifest(man *store.Manifest, coords grid.Coords) *phase {
	p := &phase{name: "Phase 1: Manifest (coverage, geometry)"}
	axis := coords.Time

	count := map[[2]int]int{}
	files := map[string]string{}
	for i := range man.Chunks {
		ci := &man.Chunks[i]
		count[[2]int{ci.Year, ci.Band}]++

		if prev, dup := files[ci.File]; dup {
			p.errorf("chunk file %s referenced twice (also %s)", ci.File, prev)
		}
		files[ci.File] = fmt.Sprintf("year %d band %d", ci.Year, ci.Band)

		if ci.Band < 0 || ci.Band >= man.Bands() {
			p.errorf("chunk %s: band %d outside [0, %d)", ci.File, ci.Band, man.Bands())
			continue
		}
		day0, day1 := axis.YearIndexRange(domain.YearRange{First: ci.Year, Last: ci.Year})
		if day0 == day1 {
			p.errorf("chunk %s: year %d outside the time axis", ci.File, ci.Year)
			continue
		}
		if ci.Day0 != day0 || ci.Days != day1-day0 {
			p.errorf("chunk %s: days [%d, +%d), axis says [%d, +%d)", ci.File, ci.Day0, ci.Days, day0, day1-day0)
		}
		row0 := ci.Band * man.BandRows
		row1 := min(row0+man.BandRows, man.Rows)
		if ci.Row0 != row0 || ci.Rows != row1-row0 {
			p.errorf("chunk %s: rows [%d, +%d), bands say [%d, +%d)", ci.File, ci.Row0, ci.Rows, row0, row1-row0)
		}
		if want := 4 * ci.Days * ci.Rows * man.Cols; ci.RawBytes != want {
			p.errorf("chunk %s: raw_bytes %d, want %d", ci.File, ci.RawBytes, want)
		}
	}

	for year := axis.FirstYear(); year <= axis.LastYear(); year++ {
		for band := 0; band < man.Bands(); band++ {
			switch n := count[[2]int{year, band}]; {
			case n == 0:
				p.errorf("no chunk for year %d band %d", year, band)
			case n > 1:
				p.errorf("%d chunks for year %d band %d", n, year, band)
			}
		}
	}
	return p
}

// ── Phase 2: Chunk files ──
// Every stored file decodes: size, checksum, decompression, payload length.

func validateChunks(dir string, man *store.Manifest) *phase {
	p := &phase{name: "Phase 2: Chunk files (checksums, payloads)"}

	codec, err := store.NewCodec(man.Codec)
	if err != nil {
		p.errorf("codec: %v", err)
		return p
	}

	var rawTotal, storedTotal int
	for i := range man.Chunks {
		ci := &man.Chunks[i]
		raw, err := os.ReadFile(filepath.Join(dir, ci.File))
		if err != nil {
			p.errorf("chunk %s: %v", ci.File, err)
			continue
		}
		if len(raw) != ci.StoredBytes {
			p.errorf("chunk %s: %d bytes on disk, manifest says %d", ci.File, len(raw), ci.StoredBytes)
			continue
		}
		if sum := fmt.Sprintf("%016x", xxhash.Sum64(raw)); sum != ci.Checksum {
			p.errorf("chunk %s: checksum %s, manifest says %s", ci.File, sum, ci.Checksum)
			continue
		}
		payload := raw
		if ci.StoredBytes != ci.RawBytes {
			payload, err = codec.Decompress(raw, ci.RawBytes)
			if err != nil {
				p.errorf("chunk %s: decompress: %v", ci.File, err)
				continue
			}
		}
		if len(payload) != ci.RawBytes {
			p.errorf("chunk %s: payload %d bytes, want %d", ci.File, len(payload), ci.RawBytes)
		}
		rawTotal += ci.RawBytes
		storedTotal += ci.StoredBytes
	}

	if rawTotal > 0 {
		fmt.Printf("  Note: stored size is %.1f%% of raw (%d of %d bytes)\n",
			100*float64(storedTotal)/float64(rawTotal), storedTotal, rawTotal)
	}
	return p
}

// ── Phase 3: Read path ──
// Sampled years assembled through the full store stack, values checked
// against physical bounds.

func validateReadPath(st *store.Store, openErr error, man *store.Manifest, coords grid.Coords, sampleYears int) *phase {
	p := &phase{name: "Phase 3: Read path (assembly, physical range)"}
	if openErr != nil {
		p.errorf("open store: %v", openErr)
		return p
	}

	ctx := context.Background()
	var total, missing int
	for _, year := range sampleYearList(coords.Time, sampleYears) {
		day0, day1 := coords.Time.YearIndexRange(domain.YearRange{First: year, Last: year})
		var outOfRange int
		example := math.NaN()
		for band := 0; band < man.Bands(); band++ {
			row0 := band * man.BandRows
			row1 := min(row0+man.BandRows, man.Rows)
			block, err := st.ReadBlock(ctx, day0, day1, row0, row1)
			if err != nil {
				p.errorf("year %d band %d: %v", year, band, err)
				continue
			}
			for _, v := range block.Elements {
				total++
				if math.IsNaN(v) {
					missing++
					continue
				}
				if v < minPlausibleC || v > maxPlausibleC {
					outOfRange++
					example = v
				}
			}
		}
		if outOfRange > 0 {
			p.errorf("year %d: %d values outside [%g, %g] C (e.g. %g)", year, outOfRange, minPlausibleC, maxPlausibleC, example)
		}
	}

	if total > 0 {
		fmt.Printf("  Note: %.2f%% of sampled values missing\n", 100*float64(missing)/float64(total))
	}
	return p
}

// ── Phase 4: Source cross-check ──
// Sampled years compared value-for-value with the NetCDF the store was
// ingested from. Both sides carry float32 quantization, so values must
// match exactly.

func validateSource(st *store.Store, openErr error, path string, man *store.Manifest, coords grid.Coords, sampleYears int, logger *slog.Logger) *phase {
	p := &phase{name: "Phase 4: Source cross-check (NetCDF)"}
	if openErr != nil {
		p.errorf("open store: %v", openErr)
		return p
	}

	r, err := netcdf.OpenReader(path, logger)
	if err != nil {
		p.errorf("open netcdf: %v", err)
		return p
	}
	defer r.Close()

	days, rows, cols := r.Shape()
	if days != man.Days || rows != man.Rows || cols != man.Cols {
		p.errorf("shape mismatch: netcdf %dx%dx%d, store %dx%dx%d",
			days, rows, cols, man.Days, man.Rows, man.Cols)
		return p
	}

	land := r.Land()
	landDiffs := 0
	for i, v := range man.LandMask {
		if land[i] != v {
			landDiffs++
		}
	}
	if landDiffs > 0 {
		p.errorf("%d land mask cells differ", landDiffs)
	}
	src := r.Coords()
	for i := range coords.Lat {
		if !floatEq(coords.Lat[i], src.Lat[i]) {
			p.errorf("latitude %d: store %g, netcdf %g", i, coords.Lat[i], src.Lat[i])
		}
	}
	for i := range coords.Lon {
		if !floatEq(coords.Lon[i], src.Lon[i]) {
			p.errorf("longitude %d: store %g, netcdf %g", i, coords.Lon[i], src.Lon[i])
		}
	}

	ctx := context.Background()
	for _, year := range sampleYearList(coords.Time, sampleYears) {
		day0, day1 := coords.Time.YearIndexRange(domain.YearRange{First: year, Last: year})
		for band := 0; band < man.Bands(); band++ {
			row0 := band * man.BandRows
			row1 := min(row0+man.BandRows, man.Rows)
			got, err := st.ReadBlock(ctx, day0, day1, row0, row1)
			if err != nil {
				p.errorf("store year %d band %d: %v", year, band, err)
				continue
			}
			want, err := r.ReadBlock(ctx, day0, day1, row0, row1)
			if err != nil {
				p.errorf("netcdf year %d band %d: %v", year, band, err)
				continue
			}
			mismatches, example := 0, 0
			for i := range want.Elements {
				a, b := want.Elements[i], got.Elements[i]
				if math.IsNaN(a) && math.IsNaN(b) {
					continue
				}
				if math.IsNaN(a) != math.IsNaN(b) || a != b {
					mismatches++
					example = i
				}
			}
			if mismatches > 0 {
				p.errorf("year %d band %d: %d values differ (e.g. index %d: store %g, netcdf %g)",
					year, band, mismatches, example, got.Elements[example], want.Elements[example])
			}
		}
	}
	return p
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// sampleYearList picks up to n years spread evenly across the axis.
func sampleYearList(axis domain.TimeAxis, n int) []int {
	first, last := axis.FirstYear(), axis.LastYear()
	if n < 1 {
		n = 1
	}
	if n == 1 || first == last {
		return []int{first}
	}
	years := make([]int, 0, n)
	prev := first - 1
	for i := 0; i < n; i++ {
		y := first + i*(last-first)/(n-1)
		if y != prev {
			years = append(years, y)
			prev = y
		}
	}
	return years
}
