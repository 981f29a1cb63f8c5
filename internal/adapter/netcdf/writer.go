package netcdf

import (
	"fmt"
	"os"

	"github.com/ctessum/cdf"
	"github.com/ctessum/sparse"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
)

// WriteFile writes a complete temperature field in the layout OpenReader
// expects. temps is [days, rows, cols] in °C with NaN for missing; land is
// the row-major land fraction mask (1 land, 0 ocean).
func WriteFile(path string, coords grid.Coords, land []float64, temps *sparse.DenseArray) error {
	nt, ny, nx := coords.Time.Len(), len(coords.Lat), len(coords.Lon)
	if len(temps.Shape) != 3 || temps.Shape[0] != nt || temps.Shape[1] != ny || temps.Shape[2] != nx {
		return &domain.ShapeError{
			Subject: "temperature",
			Detail:  fmt.Sprintf("field is %v, coordinates are %d×%d×%d", temps.Shape, nt, ny, nx),
		}
	}
	if len(land) != ny*nx {
		return &domain.ShapeError{Subject: "land mask", Detail: fmt.Sprintf("%d cells, want %d×%d", len(land), ny, nx)}
	}

	h := cdf.NewHeader(
		[]string{"time", "latitude", "longitude"},
		[]int{nt, ny, nx})
	h.AddAttribute("", "title", "daily maximum surface air temperature")

	h.AddVariable("time", []string{"time"}, []int32{0})
	h.AddAttribute("time", "units", "days since "+coords.Time.Start().Format("2006-01-02"))
	h.AddVariable("latitude", []string{"latitude"}, []float64{0})
	h.AddAttribute("latitude", "units", "degrees_north")
	h.AddVariable("longitude", []string{"longitude"}, []float64{0})
	h.AddAttribute("longitude", "units", "degrees_east")
	h.AddVariable("land_mask", []string{"latitude", "longitude"}, []float32{0})
	h.AddVariable("temperature", []string{"time", "latitude", "longitude"}, []float32{0})
	h.AddAttribute("temperature", "units", "degC")
	h.Define()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create netcdf: %w", err)
	}
	defer f.Close()

	ff, err := cdf.Create(f, h) // writes the header
	if err != nil {
		return fmt.Errorf("write netcdf header: %w", err)
	}

	days := make([]int32, nt)
	for i := range days {
		days[i] = int32(i)
	}
	if err := writeVar(ff, "time", days); err != nil {
		return err
	}
	if err := writeVar(ff, "latitude", coords.Lat); err != nil {
		return err
	}
	if err := writeVar(ff, "longitude", coords.Lon); err != nil {
		return err
	}
	if err := writeVar(ff, "land_mask", toFloat32(land)); err != nil {
		return err
	}
	if err := writeVar(ff, "temperature", toFloat32(temps.Elements)); err != nil {
		return err
	}

	if err := cdf.UpdateNumRecs(f); err != nil {
		return fmt.Errorf("finalize netcdf: %w", err)
	}
	return nil
}

func writeVar(ff *cdf.File, name string, data interface{}) error {
	end := ff.Header.Lengths(name)
	start := make([]int, len(end))
	w := ff.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

func toFloat32(vals []float64) []float32 {
	out := make([]float32, len(vals))
	for i, v := range vals {
		out[i] = float32(v)
	}
	return out
}
