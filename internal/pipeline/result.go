package pipeline

import (
	"github.com/aedessler/DOE-report-section-6-3/internal/config"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Result is the assembled output of one analysis run, one entry per region
// in the order the regions were configured.
type Result struct {
	Kind      config.Kind
	FirstYear int
	LastYear  int
	BinYears  int // hot-day bin width; zero for other analyses
	Regions   []RegionResult
}

// RegionResult carries every series produced for one region. Annual,
// Smoothed, and TrendPerDecade are populated for heatwave and record
// analyses, Periods for hot-day analyses; Coverage is always present.
type RegionResult struct {
	Name     string
	Cells    int
	Annual   domain.AnnualSeries
	Smoothed domain.AnnualSeries
	// TrendPerDecade is the least-squares slope of the annual series in
	// days per decade, NaN when the analysis has no annual series.
	TrendPerDecade float64
	Periods        []ThresholdPeriods
	Coverage       domain.AnnualSeries
}

// ThresholdPeriods is the binned hot-day series for one Fahrenheit
// threshold: per-cell period totals averaged over region cells.
type ThresholdPeriods struct {
	ThresholdF float64
	Days       domain.PeriodSeries
}
