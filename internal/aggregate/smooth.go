package aggregate

import (
	"fmt"
	"math"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Smoother applies a trailing moving average: the value at year i averages
// the window ending at i. Early years use however many samples exist, so
// the output starts at the first year rather than window-1 years in.
type Smoother struct {
	window int
}

func NewSmoother(window int) (*Smoother, error) {
	if window < 1 {
		return nil, &domain.ConfigError{Param: "smoothing window", Detail: fmt.Sprintf("%d years is not positive", window)}
	}
	return &Smoother{window: window}, nil
}

// Smooth returns a series of the same length. NaN samples are excluded from
// each window mean; a window with no valid samples yields NaN.
func (s *Smoother) Smooth(vals []float64) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		lo := i - s.window + 1
		if lo < 0 {
			lo = 0
		}
		sum, n := 0.0, 0
		for j := lo; j <= i; j++ {
			if math.IsNaN(vals[j]) {
				continue
			}
			sum += vals[j]
			n++
		}
		if n == 0 {
			out[i] = math.NaN()
		} else {
			out[i] = sum / float64(n)
		}
	}
	return out
}

// SmoothSeries returns a copy of the series with smoothed values and the
// year axis untouched.
func (s *Smoother) SmoothSeries(in domain.AnnualSeries) domain.AnnualSeries {
	return domain.AnnualSeries{Years: in.Years, Values: s.Smooth(in.Values)}
}
