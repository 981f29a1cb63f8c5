package extremes

import (
	"fmt"
	"math"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// minThresholdObs is the smallest sample a calendar-day group may have and
// still produce a threshold. Sparser groups get NaN, which exempts that day
// from exceedance everywhere downstream.
const minThresholdObs = 2

// ThresholdEstimator derives a per-calendar-day percentile climatology for
// one cell from its full observational record.
type ThresholdEstimator struct {
	pct float64
}

func NewThresholdEstimator(pct float64) (*ThresholdEstimator, error) {
	if pct < 0 || pct > 100 || math.IsNaN(pct) {
		return nil, &domain.ConfigError{Param: "percentile", Detail: fmt.Sprintf("%g outside [0, 100]", pct)}
	}
	return &ThresholdEstimator{pct: pct}, nil
}

// Estimate computes one threshold per bucket from a [year][bucket] matrix.
// Each bucket pools that calendar day's observations across every year on
// record; the baseline is the full record, not a fixed normal period.
func (e *ThresholdEstimator) Estimate(years [][]float64) []float64 {
	if len(years) == 0 {
		return nil
	}
	nb := len(years[0])
	thresholds := make([]float64, nb)
	group := make([]float64, 0, len(years))
	for b := 0; b < nb; b++ {
		group = group[:0]
		for _, yr := range years {
			group = append(group, yr[b])
		}
		if countValid(group) < minThresholdObs {
			thresholds[b] = math.NaN()
			continue
		}
		thresholds[b] = Percentile(group, e.pct)
	}
	return thresholds
}
