package pipeline

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/aedessler/DOE-report-section-6-3/internal/config"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// WriteOutputs writes the run's CSV tables and the combined JSON document
// into dir, creating it if needed. Heatwave and record runs produce an
// annual table, hot-day runs a binned table; every run gets a coverage
// table and result.json.
func WriteOutputs(dir string, res *Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	switch res.Kind {
	case config.KindHotDays:
		if err := writeBinsCSV(filepath.Join(dir, "hotdays_bins.csv"), res); err != nil {
			return err
		}
	default:
		name := fmt.Sprintf("%s_annual.csv", res.Kind)
		if err := writeAnnualCSV(filepath.Join(dir, name), res); err != nil {
			return err
		}
	}
	if err := writeCoverageCSV(filepath.Join(dir, "coverage.csv"), res); err != nil {
		return err
	}
	return writeResultJSON(filepath.Join(dir, "result.json"), res)
}

func writeAnnualCSV(path string, res *Result) error {
	header := []string{"year"}
	for _, reg := range res.Regions {
		header = append(header, reg.Name, reg.Name+" smoothed")
	}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for year := res.FirstYear; year <= res.LastYear; year++ {
			rec := []string{strconv.Itoa(year)}
			for _, reg := range res.Regions {
				rec = append(rec, formatValue(reg.Annual.At(year)), formatValue(reg.Smoothed.At(year)))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeCoverageCSV(path string, res *Result) error {
	header := []string{"year"}
	for _, reg := range res.Regions {
		header = append(header, reg.Name)
	}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for year := res.FirstYear; year <= res.LastYear; year++ {
			rec := []string{strconv.Itoa(year)}
			for _, reg := range res.Regions {
				rec = append(rec, formatValue(reg.Coverage.At(year)))
			}
			if err := w.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeBinsCSV(path string, res *Result) error {
	header := []string{"region", "threshold_f", "bin_start", "bin_end", "days"}
	return writeCSV(path, header, func(w *csv.Writer) error {
		for _, reg := range res.Regions {
			for _, tp := range reg.Periods {
				for i, start := range tp.Days.Starts {
					rec := []string{
						reg.Name,
						strconv.FormatFloat(tp.ThresholdF, 'g', -1, 64),
						strconv.Itoa(start),
						strconv.Itoa(start + res.BinYears - 1),
						formatValue(tp.Days.Totals[i]),
					}
					if err := w.Write(rec); err != nil {
						return err
					}
				}
			}
		}
		return nil
	})
}

func writeCSV(path string, header []string, body func(*csv.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err == nil {
		err = body(w)
	}
	w.Flush()
	if err == nil {
		err = w.Error()
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// formatValue renders a float for CSV; missing values become empty fields.
func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// JSON mirror of Result. Values are pointers because JSON has no NaN;
// missing values encode as null.
type jsonDoc struct {
	Analysis    string       `json:"analysis"`
	FirstYear   int          `json:"first_year"`
	LastYear    int          `json:"last_year"`
	BinYears    int          `json:"bin_years,omitempty"`
	GeneratedAt time.Time    `json:"generated_at"`
	Regions     []jsonRegion `json:"regions"`
}

type jsonRegion struct {
	Name           string        `json:"name"`
	Cells          int           `json:"cells"`
	Annual         *jsonSeries   `json:"annual,omitempty"`
	Smoothed       *jsonSeries   `json:"smoothed,omitempty"`
	TrendPerDecade *float64      `json:"trend_per_decade,omitempty"`
	Periods        []jsonPeriods `json:"periods,omitempty"`
	Coverage       *jsonSeries   `json:"coverage"`
}

type jsonSeries struct {
	Years  []int      `json:"years"`
	Values []*float64 `json:"values"`
}

type jsonPeriods struct {
	ThresholdF float64    `json:"threshold_f"`
	Starts     []int      `json:"starts"`
	Totals     []*float64 `json:"totals"`
}

func writeResultJSON(path string, res *Result) error {
	doc := jsonDoc{
		Analysis:    string(res.Kind),
		FirstYear:   res.FirstYear,
		LastYear:    res.LastYear,
		BinYears:    res.BinYears,
		GeneratedAt: domain.Now().UTC(),
		Regions:     make([]jsonRegion, 0, len(res.Regions)),
	}
	for _, reg := range res.Regions {
		jr := jsonRegion{
			Name:           reg.Name,
			Cells:          reg.Cells,
			Annual:         seriesDoc(reg.Annual),
			Smoothed:       seriesDoc(reg.Smoothed),
			TrendPerDecade: jsonFloat(reg.TrendPerDecade),
			Coverage:       seriesDoc(reg.Coverage),
		}
		for _, tp := range reg.Periods {
			jr.Periods = append(jr.Periods, jsonPeriods{
				ThresholdF: tp.ThresholdF,
				Starts:     tp.Days.Starts,
				Totals:     jsonFloats(tp.Days.Totals),
			})
		}
		doc.Regions = append(doc.Regions, jr)
	}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func seriesDoc(s domain.AnnualSeries) *jsonSeries {
	if s.Len() == 0 {
		return nil
	}
	return &jsonSeries{Years: s.Years, Values: jsonFloats(s.Values)}
}

func jsonFloats(vals []float64) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		out[i] = jsonFloat(v)
	}
	return out
}

func jsonFloat(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
