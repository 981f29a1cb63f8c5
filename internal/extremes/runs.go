package extremes

import (
	"fmt"
	"math"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// RunDetector flags days belonging to sustained exceedance runs. A day
// counts when at least one window of minRun consecutive days containing it
// exceeds the threshold on every day, so a run of length L >= minRun
// contributes all L of its days.
type RunDetector struct {
	minRun int
}

func NewRunDetector(minRun int) (*RunDetector, error) {
	if minRun < 1 {
		return nil, &domain.ConfigError{Param: "min run", Detail: fmt.Sprintf("%d days is not positive", minRun)}
	}
	return &RunDetector{minRun: minRun}, nil
}

// Flag marks the heatwave days of one contiguous day sequence. values and
// thresholds must be the same length and aligned day-for-day; exceedance is
// strict, and a NaN on either side never exceeds.
func (d *RunDetector) Flag(values, thresholds []float64) []bool {
	flagged := make([]bool, len(values))
	run := 0
	for i := range values {
		if exceeds(values[i], thresholds[i]) {
			run++
		} else {
			run = 0
			continue
		}
		switch {
		case run == d.minRun:
			for j := i - d.minRun + 1; j <= i; j++ {
				flagged[j] = true
			}
		case run > d.minRun:
			flagged[i] = true
		}
	}
	return flagged
}

// CountDays returns the number of flagged days in the sequence.
func (d *RunDetector) CountDays(values, thresholds []float64) int {
	n := 0
	for _, f := range d.Flag(values, thresholds) {
		if f {
			n++
		}
	}
	return n
}

func exceeds(v, thr float64) bool {
	if math.IsNaN(v) || math.IsNaN(thr) {
		return false
	}
	return v > thr
}
