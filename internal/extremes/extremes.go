// Package extremes implements the per-cell statistics of the report:
// day-of-year percentile thresholds, heatwave run detection, fixed-threshold
// exceedance counts, and daily record counts.
//
// All functions operate on plain float64 slices with NaN marking missing
// observations. Callers lay data out as [year][bucket] matrices where a
// bucket is a raw day-of-year ordinal offset; leap years shift the season
// window by one ordinal, so in any given year one edge bucket is missing.
// That is intentional and reproduces grouping by calendar ordinal.
package extremes

import (
	"math"
	"sort"
)

// Percentile returns the p-th percentile (0 <= p <= 100) of the valid
// values in vals, interpolating linearly between order statistics at
// position h = (n-1)*p/100. NaNs are skipped; no valid values yields NaN.
func Percentile(vals []float64, p float64) float64 {
	valid := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			valid = append(valid, v)
		}
	}
	if len(valid) == 0 {
		return math.NaN()
	}
	sort.Float64s(valid)
	if len(valid) == 1 {
		return valid[0]
	}
	h := float64(len(valid)-1) * p / 100
	lo := int(math.Floor(h))
	if lo >= len(valid)-1 {
		return valid[len(valid)-1]
	}
	return valid[lo] + (h-float64(lo))*(valid[lo+1]-valid[lo])
}

func countValid(vals []float64) int {
	n := 0
	for _, v := range vals {
		if !math.IsNaN(v) {
			n++
		}
	}
	return n
}
