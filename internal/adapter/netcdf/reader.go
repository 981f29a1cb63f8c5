// Package netcdf reads and writes the NetCDF layout the analyses consume:
//
//	temperature(time, latitude, longitude)  float32 °C, NaN missing
//	land_mask(latitude, longitude)          land fraction, land where > 0.5
//	latitude(latitude), longitude(longitude)
//	time(time)                              "days since YYYY-MM-DD", daily
//
// A fill value declared on the temperature variable is mapped to NaN on
// read.
package netcdf

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"
	"time"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
)

const landThreshold = 0.5

// Reader exposes a NetCDF temperature file as a grid source.
type Reader struct {
	f      *os.File
	ff     *cdf.File
	coords grid.Coords
	land   []bool
	fill   float64 // NaN when the file declares no fill value
	logger *slog.Logger
}

// OpenReader opens and validates the file layout.
func OpenReader(path string, logger *slog.Logger) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open netcdf: %w", err)
	}
	ff, err := cdf.Open(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("parse netcdf %s: %w", path, err)
	}
	r := &Reader{f: f, ff: ff, fill: math.NaN(), logger: logger}
	if err := r.init(); err != nil {
		f.Close()
		return nil, fmt.Errorf("netcdf %s: %w", path, err)
	}
	logger.Info("netcdf opened",
		"path", path,
		"days", r.coords.Time.Len(),
		"rows", len(r.coords.Lat),
		"cols", len(r.coords.Lon),
	)
	return r, nil
}

func (r *Reader) init() error {
	for _, v := range []string{"temperature", "land_mask", "latitude", "longitude", "time"} {
		if !r.hasVariable(v) {
			return &domain.ShapeError{Subject: v, Detail: "variable missing from file"}
		}
	}
	dims := r.ff.Header.Lengths("temperature")
	if len(dims) != 3 {
		return &domain.ShapeError{Subject: "temperature", Detail: fmt.Sprintf("rank %d variable, want (time, latitude, longitude)", len(dims))}
	}
	nt, ny, nx := dims[0], dims[1], dims[2]

	lat, err := r.readVector("latitude", ny)
	if err != nil {
		return err
	}
	lon, err := r.readVector("longitude", nx)
	if err != nil {
		return err
	}
	axis, err := r.readTimeAxis(nt)
	if err != nil {
		return err
	}

	mask, err := r.readVector("land_mask", ny*nx)
	if err != nil {
		return err
	}
	land := make([]bool, len(mask))
	for i, v := range mask {
		land[i] = v > landThreshold
	}

	if fv, ok := r.attrFloat("temperature", "_FillValue"); ok {
		r.fill = fv
	} else if fv, ok := r.attrFloat("temperature", "missing_value"); ok {
		r.fill = fv
	}

	r.coords = grid.Coords{Time: axis, Lat: lat, Lon: lon}
	r.land = land
	return nil
}

func (r *Reader) hasVariable(name string) bool {
	for _, v := range r.ff.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// readVector reads a whole variable as float64 regardless of its on-disk
// type.
func (r *Reader) readVector(name string, n int) ([]float64, error) {
	rd := r.ff.Reader(name, nil, nil)
	buf := rd.Zero(n)
	if _, err := rd.Read(buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	return toFloat64(buf, name)
}

func toFloat64(buf interface{}, name string) ([]float64, error) {
	switch v := buf.(type) {
	case []float64:
		return v, nil
	case []float32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	case []int32:
		out := make([]float64, len(v))
		for i, x := range v {
			out[i] = float64(x)
		}
		return out, nil
	default:
		return nil, &domain.ShapeError{Subject: name, Detail: fmt.Sprintf("unsupported on-disk type %T", buf)}
	}
}

// readTimeAxis parses the "days since" epoch and verifies the axis is
// contiguous daily.
func (r *Reader) readTimeAxis(nt int) (domain.TimeAxis, error) {
	units, ok := r.attrString("time", "units")
	if !ok {
		return domain.TimeAxis{}, &domain.ShapeError{Subject: "time", Detail: "no units attribute"}
	}
	fields := strings.Fields(units)
	if len(fields) < 3 || fields[0] != "days" || fields[1] != "since" {
		return domain.TimeAxis{}, &domain.ShapeError{Subject: "time", Detail: fmt.Sprintf("units %q, want \"days since YYYY-MM-DD\"", units)}
	}
	epoch, err := time.Parse("2006-01-02", fields[2])
	if err != nil {
		return domain.TimeAxis{}, &domain.ShapeError{Subject: "time", Detail: fmt.Sprintf("bad epoch in units %q", units)}
	}

	vals, err := r.readVector("time", nt)
	if err != nil {
		return domain.TimeAxis{}, err
	}
	for i := 1; i < len(vals); i++ {
		if math.Abs(vals[i]-vals[i-1]-1) > 1e-6 {
			return domain.TimeAxis{}, &domain.ShapeError{
				Subject: "time",
				Detail:  fmt.Sprintf("not contiguous daily at index %d (%g then %g)", i, vals[i-1], vals[i]),
			}
		}
	}
	start := epoch.AddDate(0, 0, int(math.Round(vals[0])))
	return domain.NewTimeAxis(start, nt), nil
}

func (r *Reader) attrString(v, name string) (string, bool) {
	a := r.ff.Header.GetAttribute(v, name)
	if a == nil {
		return "", false
	}
	s, ok := a.(string)
	return s, ok
}

func (r *Reader) attrFloat(v, name string) (float64, bool) {
	a := r.ff.Header.GetAttribute(v, name)
	if a == nil {
		return 0, false
	}
	switch x := a.(type) {
	case []float64:
		if len(x) > 0 {
			return x[0], true
		}
	case []float32:
		if len(x) > 0 {
			return float64(x[0]), true
		}
	}
	return 0, false
}

// Coords returns the file's coordinate vectors.
func (r *Reader) Coords() grid.Coords { return r.coords }

// Land returns the boolean land mask derived from the land fraction.
func (r *Reader) Land() []bool { return r.land }

// Dataset wraps the reader in a validated dataset view.
func (r *Reader) Dataset() (*grid.Dataset, error) {
	return grid.New(r.coords, r.land, r)
}

func (r *Reader) Shape() (int, int, int) {
	return r.coords.Time.Len(), len(r.coords.Lat), len(r.coords.Lon)
}

// ReadBlock reads a temperature hyperslab, mapping fill values to NaN.
func (r *Reader) ReadBlock(ctx context.Context, day0, day1, row0, row1 int) (*sparse.DenseArray, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	nx := len(r.coords.Lon)
	start := []int{day0, row0, 0}
	end := []int{day1, row1, nx}
	rd := r.ff.Reader("temperature", start, end)
	n := (day1 - day0) * (row1 - row0) * nx
	buf := rd.Zero(n)
	if _, err := rd.Read(buf); err != nil {
		return nil, fmt.Errorf("read temperature block: %w", err)
	}
	vals, err := toFloat64(buf, "temperature")
	if err != nil {
		return nil, err
	}

	out := sparse.ZerosDense(day1-day0, row1-row0, nx)
	hasFill := !math.IsNaN(r.fill)
	for i, v := range vals {
		if hasFill && v == r.fill {
			v = math.NaN()
		}
		out.Elements[i] = v
	}
	return out, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error { return r.f.Close() }
