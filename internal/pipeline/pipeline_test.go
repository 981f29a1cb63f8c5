package pipeline_test

import (
	"context"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedessler/DOE-report-section-6-3/internal/config"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
	"github.com/aedessler/DOE-report-section-6-3/internal/observability"
	"github.com/aedessler/DOE-report-section-6-3/internal/pipeline"
	"github.com/aedessler/DOE-report-section-6-3/internal/region"
)

func newTestMetrics() *observability.Metrics {
	// Fresh registry per test to avoid "already registered" panics.
	return observability.NewMetricsForTesting()
}

// fillConstant builds a [days, rows, cols] field holding one value.
func fillConstant(axis domain.TimeAxis, rows, cols int, v float64) *sparse.DenseArray {
	arr := sparse.ZerosDense(axis.Len(), rows, cols)
	for i := 0; i < axis.Len(); i++ {
		for r := 0; r < rows; r++ {
			for c := 0; c < cols; c++ {
				arr.Set(v, i, r, c)
			}
		}
	}
	return arr
}

func newDataset(t *testing.T, axis domain.TimeAxis, lat, lon []float64, land []bool, arr *sparse.DenseArray) *grid.Dataset {
	t.Helper()
	src, err := grid.NewMemSource(arr)
	require.NoError(t, err)
	ds, err := grid.New(grid.Coords{Time: axis, Lat: lat, Lon: lon}, land, src)
	require.NoError(t, err)
	return ds
}

func usMasks(t *testing.T, ds *grid.Dataset) []*region.Mask {
	t.Helper()
	rules, err := domain.RegionSet("us")
	require.NoError(t, err)
	masks, err := region.FromRules(ds, rules)
	require.NoError(t, err)
	return masks
}

// heatwaveDataset is ten years of daily data for four land cells, two west
// of -105° and two east. Every year the west cells get a 35° spike for six
// consecutive days, on a different calendar window each year so the
// full-record percentile for those days stays well below the spike. All
// other values are a constant 20°.
func heatwaveDataset(t *testing.T) *grid.Dataset {
	t.Helper()
	axis := domain.NewTimeAxisYears(2000, 2009)
	arr := fillConstant(axis, 2, 2, 20)
	for yi := 0; yi < 10; yi++ {
		start := time.Date(2000+yi, time.June, 1+7*yi, 0, 0, 0, 0, time.UTC)
		for d := 0; d < 6; d++ {
			i := axis.Index(start.AddDate(0, 0, d))
			arr.Set(35, i, 0, 0)
			arr.Set(35, i, 1, 0)
		}
	}
	return newDataset(t, axis,
		[]float64{35, 40}, []float64{-110, -100},
		[]bool{true, true, true, true}, arr)
}

func TestRunner_Run_HeatwaveScenario(t *testing.T) {
	ds := heatwaveDataset(t)
	masks := usMasks(t, ds)
	params := config.DefaultAnalysis()
	params.Kind = config.KindHeatwave

	r, err := pipeline.New(ds, masks, params, 2, 1, slog.Default(), newTestMetrics())
	require.NoError(t, err)
	require.Error(t, r.CheckReadiness(context.Background()))

	res, err := r.Run(context.Background())
	require.NoError(t, err)
	require.NoError(t, r.CheckReadiness(context.Background()))

	require.Len(t, res.Regions, 3)
	west, east, all := res.Regions[0], res.Regions[1], res.Regions[2]
	assert.Equal(t, "West", west.Name)
	assert.Equal(t, "Central-East", east.Name)
	assert.Equal(t, "US48", all.Name)
	assert.Equal(t, 2, west.Cells)
	assert.Equal(t, 2, east.Cells)
	assert.Equal(t, 4, all.Cells)

	require.Equal(t, 10, west.Annual.Len())
	for i, year := range west.Annual.Years {
		assert.InDelta(t, 6, west.Annual.Values[i], 1e-9, "west year %d", year)
		assert.InDelta(t, 0, east.Annual.Values[i], 1e-9, "east year %d", year)
		assert.InDelta(t, 3, all.Annual.Values[i], 1e-9, "us48 year %d", year)
		assert.InDelta(t, 1, west.Coverage.Values[i], 1e-9, "coverage year %d", year)
	}

	// A constant annual series smooths to itself, partial windows included.
	for i := range west.Smoothed.Values {
		assert.InDelta(t, 6, west.Smoothed.Values[i], 1e-9)
	}
	assert.InDelta(t, 0, west.TrendPerDecade, 1e-9)

	snap := r.Progress()
	assert.False(t, snap.Running)
	assert.Equal(t, 2, snap.TilesDone)
	assert.Equal(t, 2, snap.TilesTotal)
	assert.InDelta(t, 1, snap.Ratio, 1e-9)
	assert.Equal(t, float64(0), snap.EtaSeconds)
}

func TestRunner_Run_HotDays(t *testing.T) {
	// One land cell west of the split; the east region matches nothing and
	// must come back all-NaN.
	axis := domain.NewTimeAxisYears(2021, 2024)
	arr := fillConstant(axis, 1, 2, 20)
	setDays := func(year int, month time.Month, day, n int, v float64) {
		start := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		for d := 0; d < n; d++ {
			arr.Set(v, axis.Index(start.AddDate(0, 0, d)), 0, 0)
		}
	}
	// 2021: five days ≥ 95°F of which three ≥ 100°F; 2022: one of each;
	// 2023: none; 2024: two days ≥ 95°F only.
	setDays(2021, time.July, 1, 3, 38)
	setDays(2021, time.July, 10, 2, 36)
	setDays(2022, time.June, 5, 1, 38)
	setDays(2024, time.August, 20, 2, 36)

	ds := newDataset(t, axis, []float64{40}, []float64{-110, -100}, []bool{true, false}, arr)
	masks := usMasks(t, ds)

	params := config.DefaultAnalysis()
	params.Kind = config.KindHotDays
	params.ThresholdsF = []float64{95, 100}
	params.BinYears = 2
	params.EndYear = 2024

	r, err := pipeline.New(ds, masks, params, 1, 4, slog.Default(), newTestMetrics())
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	require.Len(t, res.Regions, 3)
	west, east := res.Regions[0], res.Regions[1]
	assert.Equal(t, 2, res.BinYears)
	assert.Equal(t, 1, west.Cells)
	assert.Equal(t, 0, east.Cells)

	require.Len(t, west.Periods, 2)
	opts := cmpopts.EquateNaNs()
	want95 := domain.PeriodSeries{Starts: []int{2021, 2023}, Totals: []float64{6, 2}}
	if diff := cmp.Diff(want95, west.Periods[0].Days, opts); diff != "" {
		t.Fatalf("95°F bins mismatch (-want +got):\n%s", diff)
	}
	want100 := domain.PeriodSeries{Starts: []int{2021, 2023}, Totals: []float64{4, 0}}
	if diff := cmp.Diff(want100, west.Periods[1].Days, opts); diff != "" {
		t.Fatalf("100°F bins mismatch (-want +got):\n%s", diff)
	}

	// Empty region: full-length series, every value NaN.
	require.Len(t, east.Periods, 2)
	wantEmpty := domain.PeriodSeries{Starts: []int{2021, 2023}, Totals: []float64{nan(), nan()}}
	if diff := cmp.Diff(wantEmpty, east.Periods[0].Days, opts); diff != "" {
		t.Fatalf("empty region bins mismatch (-want +got):\n%s", diff)
	}
	for _, v := range east.Coverage.Values {
		assert.True(t, math.IsNaN(v), "empty region coverage must be NaN")
	}
	assert.True(t, math.IsNaN(west.TrendPerDecade), "no trend for binned counts")
}

func TestRunner_Run_Records(t *testing.T) {
	// One cell, three years, constant except July 1 which sets a new high
	// every year after the first.
	axis := domain.NewTimeAxisYears(2001, 2003)
	arr := fillConstant(axis, 1, 1, 20)
	for yi, v := range []float64{25, 26, 27} {
		arr.Set(v, axis.Index(time.Date(2001+yi, time.July, 1, 0, 0, 0, 0, time.UTC)), 0, 0)
	}
	ds := newDataset(t, axis, []float64{40}, []float64{-110}, []bool{true}, arr)
	masks := usMasks(t, ds)

	params := config.DefaultAnalysis()
	params.Kind = config.KindRecords

	r, err := pipeline.New(ds, masks, params, 1, 2, slog.Default(), newTestMetrics())
	require.NoError(t, err)
	res, err := r.Run(context.Background())
	require.NoError(t, err)

	west := res.Regions[0]
	assert.Equal(t, []int{2001, 2002, 2003}, west.Annual.Years)
	assert.InDeltaSlice(t, []float64{0, 1, 1}, west.Annual.Values, 1e-9)
	assert.InDeltaSlice(t, []float64{0, 0.5, 2.0 / 3.0}, west.Smoothed.Values, 1e-9)
	// Least-squares slope of {0, 1, 1} is 0.5/year.
	assert.InDelta(t, 5, west.TrendPerDecade, 1e-9)
}

func TestRunner_Run_ContextCancelled(t *testing.T) {
	ds := heatwaveDataset(t)
	masks := usMasks(t, ds)
	params := config.DefaultAnalysis()

	r, err := pipeline.New(ds, masks, params, 2, 1, slog.Default(), newTestMetrics())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := r.Run(ctx)
	require.Error(t, err)
	assert.Nil(t, res)
	assert.Error(t, r.CheckReadiness(context.Background()))
}

func TestRunner_New_RejectsBadParameters(t *testing.T) {
	ds := heatwaveDataset(t)
	masks := usMasks(t, ds)

	params := config.DefaultAnalysis()
	params.Kind = config.KindHeatwave
	params.Percentile = 140
	_, err := pipeline.New(ds, masks, params, 1, 1, slog.Default(), newTestMetrics())
	var cfgErr *domain.ConfigError
	require.ErrorAs(t, err, &cfgErr)

	params = config.DefaultAnalysis()
	params.Kind = config.Kind("trend")
	_, err = pipeline.New(ds, masks, params, 1, 1, slog.Default(), newTestMetrics())
	require.ErrorAs(t, err, &cfgErr)
}

func nan() float64 {
	return math.NaN()
}
