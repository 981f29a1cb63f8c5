package aggregate

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// TrendPerDecade fits an ordinary least squares line through the non-missing
// points of an annual series and returns the slope in units per decade.
// Fewer than two valid points yield NaN.
func TrendPerDecade(s domain.AnnualSeries) float64 {
	var xs, ys []float64
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		xs = append(xs, float64(s.Years[i]))
		ys = append(ys, v)
	}
	if len(xs) < 2 {
		return math.NaN()
	}
	_, beta := stat.LinearRegression(xs, ys, nil, false)
	return beta * 10
}
