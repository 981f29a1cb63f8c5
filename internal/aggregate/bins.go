package aggregate

import (
	"fmt"
	"math"
	"sort"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Binner assigns years to fixed-width period bins anchored so that the
// final bin ends exactly at the anchor end year. With 6-year bins ending
// 2024 the bins run ..., 2013-2018, 2019-2024, extending backwards past the
// start of the record as needed.
type Binner struct {
	width       int
	anchorStart int
}

func NewBinner(width, endYear int) (*Binner, error) {
	if width < 1 {
		return nil, &domain.ConfigError{Param: "bin years", Detail: fmt.Sprintf("%d is not positive", width)}
	}
	return &Binner{width: width, anchorStart: endYear - (width - 1)}, nil
}

// Width returns the bin width in years.
func (b *Binner) Width() int { return b.width }

// Start returns the first year of the bin containing year. Years before the
// anchor need flooring division so the grid stays aligned.
func (b *Binner) Start(year int) int {
	return floorDiv(year-b.anchorStart, b.width)*b.width + b.anchorStart
}

// Fold sums consecutive annual values into their bins, skipping NaN, and
// returns the occupied bins in ascending order. Bins only partially covered
// by the year span still appear, holding the sum of the years present.
func (b *Binner) Fold(firstYear int, vals []float64) domain.PeriodSeries {
	sums := make(map[int]float64)
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		sums[b.Start(firstYear+i)] += v
	}
	starts := make([]int, 0, len(sums))
	for s := range sums {
		starts = append(starts, s)
	}
	sort.Ints(starts)
	out := domain.PeriodSeries{Starts: starts, Totals: make([]float64, len(starts))}
	for i, s := range starts {
		out.Totals[i] = sums[s]
	}
	return out
}

// Starts lists the bin starts whose bins intersect [first, last].
func (b *Binner) Starts(first, last int) []int {
	var starts []int
	for s := b.Start(first); s <= last; s += b.width {
		starts = append(starts, s)
	}
	return starts
}

// floorDiv is integer division rounding toward negative infinity. Go's
// native division truncates toward zero, which misplaces years before the
// anchor.
func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
