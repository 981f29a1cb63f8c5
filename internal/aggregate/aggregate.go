// Package aggregate reduces per-cell annual statistics to regional series:
// unweighted means over region cells, multi-year period bins, trailing
// smoothing, and station-coverage fractions.
package aggregate

import (
	"math"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Accumulator folds per-cell annual values into a running regional sum.
// Each worker owns its own accumulator; Merge combines them afterwards, so
// no locking is needed.
type Accumulator struct {
	first int
	sum   []float64
	n     []float64
}

// NewAccumulator covers the closed year span [first, last].
func NewAccumulator(first, last int) *Accumulator {
	years := last - first + 1
	return &Accumulator{first: first, sum: make([]float64, years), n: make([]float64, years)}
}

// Add contributes one cell-year value. NaN values are skipped, so a cell
// with no valid data simply does not dilute the mean.
func (a *Accumulator) Add(year int, v float64) {
	if math.IsNaN(v) {
		return
	}
	i := year - a.first
	if i < 0 || i >= len(a.sum) {
		return
	}
	a.sum[i] += v
	a.n[i]++
}

// AddSeries contributes one cell's values for consecutive years starting at
// firstYear.
func (a *Accumulator) AddSeries(firstYear int, vals []float64) {
	for i, v := range vals {
		a.Add(firstYear+i, v)
	}
}

// Merge folds another accumulator over the same span into this one.
func (a *Accumulator) Merge(o *Accumulator) {
	for i := range a.sum {
		a.sum[i] += o.sum[i]
		a.n[i] += o.n[i]
	}
}

// Mean returns the per-year unweighted mean across contributing cells.
// Years with no contributions are NaN; an accumulator that never saw a cell
// yields an all-NaN series of full length.
func (a *Accumulator) Mean() domain.AnnualSeries {
	s := domain.NewAnnualSeries(a.first, a.first+len(a.sum)-1)
	for i := range a.sum {
		if a.n[i] > 0 {
			s.Values[i] = a.sum[i] / a.n[i]
		}
	}
	return s
}
