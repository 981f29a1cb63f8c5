package config

import (
	"fmt"
	"math"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// Kind names one of the report's analyses.
type Kind string

const (
	// KindHeatwave counts days inside sustained percentile-exceedance runs.
	KindHeatwave Kind = "heatwave"
	// KindHotDays counts days at or above fixed temperature thresholds,
	// summed over multi-year bins.
	KindHotDays Kind = "hotdays"
	// KindRecords counts daily record-setting days.
	KindRecords Kind = "records"
)

// Analysis carries every parameter of a single run. Fields come from flags;
// Validate runs before any data is opened.
type Analysis struct {
	Kind    Kind
	DataDir string
	OutDir  string

	// Region selection: a built-in set name, or a YAML rules file that
	// overrides it.
	RegionSet   string
	RegionsFile string

	// Heatwave parameters.
	MinRun      int
	Percentile  float64
	Season      domain.SeasonWindow
	WindowYears int

	// Hot-day parameters.
	ThresholdsF []float64
	BinYears    int
	EndYear     int

	// Record parameters.
	RecordKind string

	// Coverage reporting.
	MinObsPerYear int

	// Quick mode subsets the dataset before anything heavy runs.
	Quick       bool
	QuickYears  domain.YearRange
	QuickStride int

	PlotPath string
}

// DefaultAnalysis returns the parameters of the published figures.
func DefaultAnalysis() Analysis {
	return Analysis{
		Kind:          KindHeatwave,
		RegionSet:     "us",
		MinRun:        6,
		Percentile:    90,
		Season:        domain.DefaultSeason(),
		WindowYears:   15,
		ThresholdsF:   []float64{95, 97.5, 100, 102.5, 105},
		BinYears:      6,
		EndYear:       2024,
		RecordKind:    "high",
		MinObsPerYear: 300,
		QuickYears:    domain.YearRange{First: 1990, Last: 1999},
		QuickStride:   6,
		OutDir:        "out",
	}
}

// Validate checks every parameter the run will touch. All failures are
// *domain.ConfigError so the caller can distinguish bad flags from bad data.
func (a *Analysis) Validate() error {
	switch a.Kind {
	case KindHeatwave, KindHotDays, KindRecords:
	default:
		return &domain.ConfigError{Param: "analysis", Detail: fmt.Sprintf("unknown analysis %q", a.Kind)}
	}
	if a.DataDir == "" {
		return &domain.ConfigError{Param: "data", Detail: "no store directory given"}
	}
	if a.OutDir == "" {
		return &domain.ConfigError{Param: "out", Detail: "no output directory given"}
	}
	if a.RegionsFile == "" {
		if _, err := domain.RegionSet(a.RegionSet); err != nil {
			return err
		}
	}
	if a.MinRun < 1 {
		return &domain.ConfigError{Param: "min-run", Detail: fmt.Sprintf("%d days is not positive", a.MinRun)}
	}
	if a.Percentile < 0 || a.Percentile > 100 || math.IsNaN(a.Percentile) {
		return &domain.ConfigError{Param: "percentile", Detail: fmt.Sprintf("%g outside [0, 100]", a.Percentile)}
	}
	if err := a.Season.Validate(); err != nil {
		return err
	}
	if a.WindowYears < 1 {
		return &domain.ConfigError{Param: "window", Detail: fmt.Sprintf("%d years is not positive", a.WindowYears)}
	}
	if len(a.ThresholdsF) == 0 {
		return &domain.ConfigError{Param: "thresholds-f", Detail: "no thresholds given"}
	}
	for _, f := range a.ThresholdsF {
		if math.IsNaN(f) {
			return &domain.ConfigError{Param: "thresholds-f", Detail: "threshold is NaN"}
		}
	}
	if a.BinYears < 1 {
		return &domain.ConfigError{Param: "bin-years", Detail: fmt.Sprintf("%d years is not positive", a.BinYears)}
	}
	if a.RecordKind != "high" && a.RecordKind != "low" {
		return &domain.ConfigError{Param: "record-kind", Detail: fmt.Sprintf("unknown kind %q (want high or low)", a.RecordKind)}
	}
	if a.MinObsPerYear < 1 {
		return &domain.ConfigError{Param: "coverage threshold", Detail: fmt.Sprintf("%d observations is not positive", a.MinObsPerYear)}
	}
	if a.Quick {
		if err := a.QuickYears.Validate(); err != nil {
			return err
		}
		if a.QuickStride < 1 {
			return &domain.ConfigError{Param: "quick-step", Detail: fmt.Sprintf("%d is not positive", a.QuickStride)}
		}
	}
	return nil
}

// Regions resolves the rule set for this run: the YAML file when given,
// otherwise the named built-in set.
func (a *Analysis) Regions() ([]domain.RegionRule, error) {
	if a.RegionsFile != "" {
		return LoadRegions(a.RegionsFile)
	}
	return domain.RegionSet(a.RegionSet)
}
