package aggregate

import (
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Coverage tracks the fraction of region cells with a usable observational
// record each year. A cell is covered in a year when it has at least minObs
// valid daily values; the denominator is every cell seen, covered or not.
type Coverage struct {
	first   int
	minObs  int
	covered []float64
	cells   int
}

func NewCoverage(first, last, minObs int) *Coverage {
	return &Coverage{first: first, minObs: minObs, covered: make([]float64, last-first+1)}
}

// AddCell contributes one cell's per-year valid-observation counts, aligned
// to the accumulator's first year.
func (c *Coverage) AddCell(obsPerYear []int) {
	c.cells++
	for i, n := range obsPerYear {
		if i >= len(c.covered) {
			break
		}
		if n >= c.minObs {
			c.covered[i]++
		}
	}
}

// Merge folds another accumulator over the same span into this one.
func (c *Coverage) Merge(o *Coverage) {
	c.cells += o.cells
	for i := range c.covered {
		c.covered[i] += o.covered[i]
	}
}

// Fractions returns the covered fraction per year, NaN when no cells were
// seen at all.
func (c *Coverage) Fractions() domain.AnnualSeries {
	s := domain.NewAnnualSeries(c.first, c.first+len(c.covered)-1)
	if c.cells == 0 {
		return s
	}
	for i := range c.covered {
		s.Values[i] = c.covered[i] / float64(c.cells)
	}
	return s
}
