package domain

import "math"

// AnnualSeries is one value per calendar year, years strictly ascending with
// no gaps. Missing years carry NaN rather than being dropped, so downstream
// smoothing always sees a continuous axis.
type AnnualSeries struct {
	Years  []int
	Values []float64
}

// NewAnnualSeries allocates a NaN-filled series covering [first, last].
func NewAnnualSeries(first, last int) AnnualSeries {
	n := last - first + 1
	s := AnnualSeries{Years: make([]int, n), Values: make([]float64, n)}
	for i := range s.Years {
		s.Years[i] = first + i
		s.Values[i] = math.NaN()
	}
	return s
}

func (s AnnualSeries) Len() int { return len(s.Years) }

// At returns the value for a year, or NaN if the year is outside the series.
func (s AnnualSeries) At(year int) float64 {
	if s.Len() == 0 || year < s.Years[0] || year > s.Years[s.Len()-1] {
		return math.NaN()
	}
	return s.Values[year-s.Years[0]]
}

// Clone returns an independent copy sharing no backing storage.
func (s AnnualSeries) Clone() AnnualSeries {
	c := AnnualSeries{Years: make([]int, s.Len()), Values: make([]float64, s.Len())}
	copy(c.Years, s.Years)
	copy(c.Values, s.Values)
	return c
}

// PeriodSeries is one total per multi-year period bin, keyed by the first
// year of each bin.
type PeriodSeries struct {
	Starts []int
	Totals []float64
}

func (s PeriodSeries) Len() int { return len(s.Starts) }
