package pipeline_test

import (
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedessler/DOE-report-section-6-3/internal/config"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/pipeline"
)

func TestWriteOutputs_Annual(t *testing.T) {
	nan := math.NaN()
	res := &pipeline.Result{
		Kind:      config.KindHeatwave,
		FirstYear: 2000,
		LastYear:  2002,
		Regions: []pipeline.RegionResult{
			{
				Name:     "West",
				Cells:    2,
				Annual:   domain.AnnualSeries{Years: []int{2000, 2001, 2002}, Values: []float64{6, nan, 4}},
				Smoothed: domain.AnnualSeries{Years: []int{2000, 2001, 2002}, Values: []float64{6, 6, 5}},
				Coverage: domain.AnnualSeries{Years: []int{2000, 2001, 2002}, Values: []float64{1, 0.5, 1}},
			},
		},
	}

	dir := t.TempDir()
	require.NoError(t, pipeline.WriteOutputs(dir, res))

	annual, err := os.ReadFile(filepath.Join(dir, "heatwave_annual.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(annual)), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "year,West,West smoothed", lines[0])
	assert.Equal(t, "2000,6,6", lines[1])
	assert.Equal(t, "2001,,6", lines[2], "missing value must be an empty field")
	assert.Equal(t, "2002,4,5", lines[3])

	coverage, err := os.ReadFile(filepath.Join(dir, "coverage.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(coverage), "2001,0.5")

	raw, err := os.ReadFile(filepath.Join(dir, "result.json"))
	require.NoError(t, err)
	var doc struct {
		Analysis  string `json:"analysis"`
		FirstYear int    `json:"first_year"`
		Regions   []struct {
			Name   string `json:"name"`
			Annual struct {
				Years  []int      `json:"years"`
				Values []*float64 `json:"values"`
			} `json:"annual"`
		} `json:"regions"`
	}
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "heatwave", doc.Analysis)
	assert.Equal(t, 2000, doc.FirstYear)
	require.Len(t, doc.Regions, 1)
	require.Len(t, doc.Regions[0].Annual.Values, 3)
	assert.NotNil(t, doc.Regions[0].Annual.Values[0])
	assert.Nil(t, doc.Regions[0].Annual.Values[1], "NaN must encode as null")
}

func TestWriteOutputs_HotDayBins(t *testing.T) {
	res := &pipeline.Result{
		Kind:      config.KindHotDays,
		FirstYear: 2021,
		LastYear:  2024,
		BinYears:  2,
		Regions: []pipeline.RegionResult{
			{
				Name:  "West",
				Cells: 1,
				Periods: []pipeline.ThresholdPeriods{
					{ThresholdF: 95, Days: domain.PeriodSeries{Starts: []int{2021, 2023}, Totals: []float64{6, 2}}},
					{ThresholdF: 100, Days: domain.PeriodSeries{Starts: []int{2021, 2023}, Totals: []float64{4, 0}}},
				},
				Coverage: domain.AnnualSeries{Years: []int{2021, 2022, 2023, 2024}, Values: []float64{1, 1, 1, 1}},
			},
		},
	}

	dir := t.TempDir()
	require.NoError(t, pipeline.WriteOutputs(dir, res))

	bins, err := os.ReadFile(filepath.Join(dir, "hotdays_bins.csv"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(bins)), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "region,threshold_f,bin_start,bin_end,days", lines[0])
	assert.Equal(t, "West,95,2021,2022,6", lines[1])
	assert.Equal(t, "West,95,2023,2024,2", lines[2])
	assert.Equal(t, "West,100,2021,2022,4", lines[3])
	assert.Equal(t, "West,100,2023,2024,0", lines[4])

	_, err = os.Stat(filepath.Join(dir, "result.json"))
	require.NoError(t, err)
}
