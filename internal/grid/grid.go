// Package grid provides the logical view over a gridded daily temperature
// field: coordinate vectors, a land mask, and blocked read access so the
// full field never needs to reside in memory.
package grid

import (
	"context"
	"fmt"

	"github.com/ctessum/sparse"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Coords are the coordinate vectors of a dataset. Latitude and longitude are
// strictly increasing; the time axis is a contiguous daily calendar.
type Coords struct {
	Time domain.TimeAxis
	Lat  []float64
	Lon  []float64
}

// Source reads temperature blocks. Implementations are safe for concurrent
// readers.
type Source interface {
	// Shape returns the (days, rows, cols) extent of the field.
	Shape() (days, rows, cols int)

	// ReadBlock returns temperatures for days [day0, day1) and rows
	// [row0, row1), all columns, as a dense array of shape
	// [day1-day0, row1-row0, cols]. Missing values are NaN.
	ReadBlock(ctx context.Context, day0, day1, row0, row1 int) (*sparse.DenseArray, error)
}

// Dataset is an immutable view over a temperature field plus its land mask.
// Subsetting returns a new view; the source is never mutated.
type Dataset struct {
	coords Coords
	land   []bool // row-major [rows*cols], true = land
	source Source
}

// New validates that the field, mask, and coordinates agree and returns the
// dataset view. Violations are *domain.ShapeError and abort before any
// computation.
func New(coords Coords, land []bool, source Source) (*Dataset, error) {
	if len(coords.Lat) == 0 || len(coords.Lon) == 0 {
		return nil, &domain.ShapeError{Subject: "coordinates", Detail: "empty latitude or longitude vector"}
	}
	if coords.Time.Len() == 0 {
		return nil, &domain.ShapeError{Subject: "time", Detail: "empty time axis"}
	}
	if err := checkMonotonic("latitude", coords.Lat); err != nil {
		return nil, err
	}
	if err := checkMonotonic("longitude", coords.Lon); err != nil {
		return nil, err
	}
	if len(land) != len(coords.Lat)*len(coords.Lon) {
		return nil, &domain.ShapeError{
			Subject: "land mask",
			Detail:  fmt.Sprintf("%d cells, want %d×%d", len(land), len(coords.Lat), len(coords.Lon)),
		}
	}
	days, rows, cols := source.Shape()
	if days != coords.Time.Len() || rows != len(coords.Lat) || cols != len(coords.Lon) {
		return nil, &domain.ShapeError{
			Subject: "temperature",
			Detail: fmt.Sprintf("field is %d×%d×%d, coordinates are %d×%d×%d",
				days, rows, cols, coords.Time.Len(), len(coords.Lat), len(coords.Lon)),
		}
	}
	return &Dataset{coords: coords, land: land, source: source}, nil
}

func checkMonotonic(name string, v []float64) error {
	for i := 1; i < len(v); i++ {
		if v[i] <= v[i-1] {
			return &domain.ShapeError{
				Subject: name,
				Detail:  fmt.Sprintf("not strictly increasing at index %d (%g then %g)", i, v[i-1], v[i]),
			}
		}
	}
	return nil
}

func (d *Dataset) Rows() int                 { return len(d.coords.Lat) }
func (d *Dataset) Cols() int                 { return len(d.coords.Lon) }
func (d *Dataset) Days() int                 { return d.coords.Time.Len() }
func (d *Dataset) TimeAxis() domain.TimeAxis { return d.coords.Time }

// Lat and Lon expose the coordinate vectors. Callers must not modify them.
func (d *Dataset) Lat() []float64 { return d.coords.Lat }
func (d *Dataset) Lon() []float64 { return d.coords.Lon }

// Land reports whether the cell at (row, col) is land.
func (d *Dataset) Land(row, col int) bool { return d.land[row*d.Cols()+col] }

// LandCells returns the number of land cells.
func (d *Dataset) LandCells() int {
	n := 0
	for _, l := range d.land {
		if l {
			n++
		}
	}
	return n
}

// ReadBlock reads temperatures for days [day0, day1) and rows [row0, row1),
// all columns.
func (d *Dataset) ReadBlock(ctx context.Context, day0, day1, row0, row1 int) (*sparse.DenseArray, error) {
	if day0 < 0 || day1 > d.Days() || day0 > day1 {
		return nil, fmt.Errorf("read block: day range [%d, %d) outside [0, %d)", day0, day1, d.Days())
	}
	if row0 < 0 || row1 > d.Rows() || row0 > row1 {
		return nil, fmt.Errorf("read block: row range [%d, %d) outside [0, %d)", row0, row1, d.Rows())
	}
	return d.source.ReadBlock(ctx, day0, day1, row0, row1)
}

// Subset returns a reduced view: the closed year interval years, keeping
// every stride-th row and column. Stride 1 with a range covering the whole
// axis returns the receiver unchanged. The source is shared, never copied.
func (d *Dataset) Subset(years domain.YearRange, stride int) (*Dataset, error) {
	if stride < 1 {
		return nil, &domain.ConfigError{Param: "spatial stride", Detail: fmt.Sprintf("%d is not positive", stride)}
	}
	if err := years.Validate(); err != nil {
		return nil, err
	}

	axis := d.coords.Time
	lo, hi := axis.YearIndexRange(years)
	if lo == hi {
		return nil, &domain.ConfigError{
			Param:  "year range",
			Detail: fmt.Sprintf("%d-%d does not intersect the record %d-%d", years.First, years.Last, axis.FirstYear(), axis.LastYear()),
		}
	}
	if stride == 1 && lo == 0 && hi == axis.Len() {
		return d, nil
	}

	rows := stridedIndices(d.Rows(), stride)
	cols := stridedIndices(d.Cols(), stride)

	coords := Coords{
		Time: domain.NewTimeAxis(axis.Date(lo), hi-lo),
		Lat:  pick(d.coords.Lat, rows),
		Lon:  pick(d.coords.Lon, cols),
	}
	land := make([]bool, len(rows)*len(cols))
	for ri, r := range rows {
		for ci, c := range cols {
			land[ri*len(cols)+ci] = d.Land(r, c)
		}
	}
	view := &subsetSource{parent: d.source, dayOff: lo, days: hi - lo, rows: rows, cols: cols}
	return New(coords, land, view)
}

func stridedIndices(n, stride int) []int {
	idx := make([]int, 0, (n+stride-1)/stride)
	for i := 0; i < n; i += stride {
		idx = append(idx, i)
	}
	return idx
}

func pick(v []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = v[j]
	}
	return out
}

// subsetSource remaps block reads from a strided, time-clipped view onto the
// parent source.
type subsetSource struct {
	parent Source
	dayOff int
	days   int
	rows   []int // parent row index per view row
	cols   []int // parent col index per view col
}

func (s *subsetSource) Shape() (int, int, int) { return s.days, len(s.rows), len(s.cols) }

func (s *subsetSource) ReadBlock(ctx context.Context, day0, day1, row0, row1 int) (*sparse.DenseArray, error) {
	pr0 := s.rows[row0]
	pr1 := s.rows[row1-1] + 1
	block, err := s.parent.ReadBlock(ctx, day0+s.dayOff, day1+s.dayOff, pr0, pr1)
	if err != nil {
		return nil, err
	}
	out := sparse.ZerosDense(day1-day0, row1-row0, len(s.cols))
	for t := 0; t < day1-day0; t++ {
		for ri := row0; ri < row1; ri++ {
			for ci, pc := range s.cols {
				out.Set(block.Get(t, s.rows[ri]-pr0, pc), t, ri-row0, ci)
			}
		}
	}
	return out, nil
}
