// Package pipeline orchestrates an analysis run. The spatial grid is cut
// into latitude-band tiles and fanned out to a worker pool; each worker
// streams one calendar year at a time from the store, reduces per-cell
// statistics entirely within its tile, and folds them into per-region
// partial sums. Partials are merged after the pool drains, so no stage
// shares mutable state while computing.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aedessler/DOE-report-section-6-3/internal/aggregate"
	"github.com/aedessler/DOE-report-section-6-3/internal/config"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/extremes"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
	"github.com/aedessler/DOE-report-section-6-3/internal/observability"
	"github.com/aedessler/DOE-report-section-6-3/internal/region"
)

// span is a half-open index interval, used both for tile rows and for the
// day range of one calendar year.
type span struct {
	lo, hi int
}

// dayInfo is the precomputed calendar position of one axis day.
type dayInfo struct {
	bucket   int
	inSeason bool
}

// Runner executes one analysis over a dataset. Construct with New, then
// call Run once; Progress and CheckReadiness are safe concurrently.
type Runner struct {
	ds       *grid.Dataset
	masks    []*region.Mask
	params   config.Analysis
	workers  int
	tileRows int
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
	prog     *progress

	firstYear int
	lastYear  int
	season    domain.SeasonWindow
	yearSpan  []span // day interval per calendar year, indexed by year-firstYear

	est      *extremes.ThresholdEstimator
	det      *extremes.RunDetector
	fixed    *extremes.FixedCounter
	records  *extremes.RecordCounter
	smoother *aggregate.Smoother
	binner   *aggregate.Binner
	starts   []int       // hot-day bin starts over the record
	startPos map[int]int // bin start year -> index into starts
}

// New builds a Runner for the given dataset, realized region masks, and
// validated analysis parameters.
func New(ds *grid.Dataset, masks []*region.Mask, params config.Analysis, workers, tileRows int, logger *slog.Logger, metrics *observability.Metrics) (*Runner, error) {
	if workers < 1 {
		workers = 1
	}
	if tileRows < 1 {
		tileRows = 1
	}
	axis := ds.TimeAxis()
	r := &Runner{
		ds:        ds,
		masks:     masks,
		params:    params,
		workers:   workers,
		tileRows:  tileRows,
		logger:    logger,
		metrics:   metrics,
		prog:      &progress{},
		firstYear: axis.FirstYear(),
		lastYear:  axis.LastYear(),
		season:    domain.FullYear(),
	}

	var err error
	switch params.Kind {
	case config.KindHeatwave:
		r.season = params.Season
		if r.est, err = extremes.NewThresholdEstimator(params.Percentile); err != nil {
			return nil, err
		}
		if r.det, err = extremes.NewRunDetector(params.MinRun); err != nil {
			return nil, err
		}
	case config.KindHotDays:
		if r.fixed, err = extremes.NewFixedCounter(params.ThresholdsF); err != nil {
			return nil, err
		}
		if r.binner, err = aggregate.NewBinner(params.BinYears, params.EndYear); err != nil {
			return nil, err
		}
		r.starts = r.binner.Starts(r.firstYear, r.lastYear)
		r.startPos = make(map[int]int, len(r.starts))
		for i, s := range r.starts {
			r.startPos[s] = i
		}
	case config.KindRecords:
		if r.records, err = extremes.NewRecordCounter(extremes.RecordKind(params.RecordKind)); err != nil {
			return nil, err
		}
	default:
		return nil, &domain.ConfigError{Param: "analysis", Detail: fmt.Sprintf("unknown analysis %q", params.Kind)}
	}
	if params.Kind != config.KindHotDays {
		if r.smoother, err = aggregate.NewSmoother(params.WindowYears); err != nil {
			return nil, err
		}
	}

	r.yearSpan = make([]span, r.lastYear-r.firstYear+1)
	for year := r.firstYear; year <= r.lastYear; year++ {
		lo, hi := axis.YearIndexRange(domain.YearRange{First: year, Last: year})
		r.yearSpan[year-r.firstYear] = span{lo: lo, hi: hi}
	}
	return r, nil
}

// CheckReadiness returns nil once at least one tile has completed, or an
// error describing why the service is not yet ready.
func (r *Runner) CheckReadiness(_ context.Context) error {
	if !r.ready.Load() {
		return errors.New("analysis has not completed any tiles yet")
	}
	return nil
}

// Progress returns a snapshot of tile completion for the HTTP API.
func (r *Runner) Progress() Snapshot {
	return r.prog.snapshot()
}

// Run executes the analysis to completion or until the context is
// cancelled. The returned Result holds one entry per configured region.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	tiles := r.tiles()
	r.logger.Info("analysis started",
		"kind", string(r.params.Kind),
		"years", fmt.Sprintf("%d-%d", r.firstYear, r.lastYear),
		"grid", fmt.Sprintf("%dx%d", r.ds.Rows(), r.ds.Cols()),
		"tiles", len(tiles),
		"workers", r.workers,
	)
	r.metrics.AnalysisRunning.Set(1)
	defer r.metrics.AnalysisRunning.Set(0)
	r.prog.begin(len(tiles))

	meta := r.dayMeta()
	master := r.newPartials()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		firstErr error
	)
	tileCh := make(chan span)
	var wg sync.WaitGroup
	for w := 0; w < r.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range tileCh {
				start := time.Now()
				part, err := r.processTile(runCtx, t, meta)
				mu.Lock()
				if err != nil {
					if firstErr == nil {
						firstErr = fmt.Errorf("tile rows [%d, %d): %w", t.lo, t.hi, err)
						if runCtx.Err() == nil {
							r.logger.Error("tile failed", "row0", t.lo, "row1", t.hi, "error", err)
						}
						cancel()
					}
					mu.Unlock()
					continue
				}
				master.merge(part)
				done, total := r.prog.tileDone()
				mu.Unlock()

				r.ready.Store(true)
				r.metrics.TilesProcessed.Inc()
				r.metrics.DaysFlagged.Add(part.flagged)
				r.metrics.TileDuration.Observe(time.Since(start).Seconds())
				r.metrics.CellsPerTile.Observe(float64((t.hi - t.lo) * r.ds.Cols()))
				r.metrics.Progress.Set(float64(done) / float64(total))
			}
		}()
	}

feed:
	for _, t := range tiles {
		select {
		case <-runCtx.Done():
			break feed
		case tileCh <- t:
		}
	}
	close(tileCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		r.logger.Info("analysis stopping", "reason", err)
		return nil, err
	}
	if firstErr != nil {
		return nil, firstErr
	}

	res := r.assemble(master)
	r.logger.Info("analysis finished",
		"regions", len(res.Regions),
		"elapsed_seconds", r.prog.snapshot().ElapsedSeconds,
	)
	return res, nil
}

// tiles cuts the row axis into latitude-band spans.
func (r *Runner) tiles() []span {
	var out []span
	rows := r.ds.Rows()
	for lo := 0; lo < rows; lo += r.tileRows {
		hi := lo + r.tileRows
		if hi > rows {
			hi = rows
		}
		out = append(out, span{lo: lo, hi: hi})
	}
	return out
}

// dayMeta resolves every axis day to its season membership and raw
// day-of-year bucket once, shared read-only by all workers.
func (r *Runner) dayMeta() []dayInfo {
	axis := r.ds.TimeAxis()
	meta := make([]dayInfo, axis.Len())
	for i := range meta {
		t := axis.Date(i)
		if !r.season.Contains(t.Month(), t.Day()) {
			continue
		}
		meta[i] = dayInfo{bucket: r.season.Bucket(t), inSeason: true}
	}
	return meta
}

// partials are per-region accumulators owned by one worker (or the merged
// master). No locking: workers never share a partials value.
type partials struct {
	annual  []*aggregate.Accumulator   // heatwave, records
	bins    [][]*aggregate.Accumulator // hotdays: per region, per threshold, keyed by bin position
	cov     []*aggregate.Coverage
	flagged float64
}

func (r *Runner) newPartials() *partials {
	p := &partials{}
	for range r.masks {
		p.cov = append(p.cov, aggregate.NewCoverage(r.firstYear, r.lastYear, r.params.MinObsPerYear))
		switch r.params.Kind {
		case config.KindHotDays:
			levels := make([]*aggregate.Accumulator, r.fixed.Levels())
			for i := range levels {
				levels[i] = aggregate.NewAccumulator(0, len(r.starts)-1)
			}
			p.bins = append(p.bins, levels)
		default:
			p.annual = append(p.annual, aggregate.NewAccumulator(r.firstYear, r.lastYear))
		}
	}
	return p
}

func (p *partials) merge(o *partials) {
	for i := range p.annual {
		p.annual[i].Merge(o.annual[i])
	}
	for i := range p.bins {
		for j := range p.bins[i] {
			p.bins[i][j].Merge(o.bins[i][j])
		}
	}
	for i := range p.cov {
		p.cov[i].Merge(o.cov[i])
	}
	p.flagged += o.flagged
}

// tileCells indexes the cells of one tile that belong to at least one
// region. Ocean cells and cells outside every region are skipped entirely.
type tileCells struct {
	row  []int   // tile-relative row per active cell
	col  []int   // column per active cell
	regs [][]int // region indexes per active cell
	obs  [][]int // valid observations per active cell per year
}

func (r *Runner) newTileCells(t span) *tileCells {
	tc := &tileCells{}
	years := r.lastYear - r.firstYear + 1
	for row := t.lo; row < t.hi; row++ {
		for col := 0; col < r.ds.Cols(); col++ {
			var regs []int
			for gi, m := range r.masks {
				if m.Contains(row, col) {
					regs = append(regs, gi)
				}
			}
			if len(regs) == 0 {
				continue
			}
			tc.row = append(tc.row, row-t.lo)
			tc.col = append(tc.col, col)
			tc.regs = append(tc.regs, regs)
			tc.obs = append(tc.obs, make([]int, years))
		}
	}
	return tc
}

func (tc *tileCells) n() int { return len(tc.row) }

func (r *Runner) processTile(ctx context.Context, t span, meta []dayInfo) (*partials, error) {
	tc := r.newTileCells(t)
	switch r.params.Kind {
	case config.KindHotDays:
		return r.hotdayTile(ctx, t, tc)
	case config.KindRecords:
		return r.recordTile(ctx, t, tc, meta)
	default:
		return r.heatwaveTile(ctx, t, tc, meta)
	}
}

// heatwaveTile fills a [year][bucket] matrix per cell, estimates per-bucket
// percentile thresholds over the full record, and counts days inside
// qualifying exceedance runs within each year's season window.
func (r *Runner) heatwaveTile(ctx context.Context, t span, tc *tileCells, meta []dayInfo) (*partials, error) {
	p := r.newPartials()
	years := len(r.yearSpan)
	buckets := r.season.BucketCount()

	mats := make([][][]float64, tc.n())
	for ai := range mats {
		backing := make([]float64, years*buckets)
		for i := range backing {
			backing[i] = math.NaN()
		}
		m := make([][]float64, years)
		for y := range m {
			m[y] = backing[y*buckets : (y+1)*buckets]
		}
		mats[ai] = m
	}

	for yi, ys := range r.yearSpan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		block, err := r.ds.ReadBlock(ctx, ys.lo, ys.hi, t.lo, t.hi)
		if err != nil {
			return nil, err
		}
		for d := 0; d < ys.hi-ys.lo; d++ {
			md := meta[ys.lo+d]
			for ai := 0; ai < tc.n(); ai++ {
				v := block.Get(d, tc.row[ai], tc.col[ai])
				if math.IsNaN(v) {
					continue
				}
				tc.obs[ai][yi]++
				if md.inSeason {
					mats[ai][yi][md.bucket] = v
				}
			}
		}
	}

	flagged := 0
	for ai := 0; ai < tc.n(); ai++ {
		thr := r.est.Estimate(mats[ai])
		for yi := range r.yearSpan {
			year := r.firstYear + yi
			lo, hi := r.season.BucketRange(year)
			n := r.det.CountDays(mats[ai][yi][lo:hi], thr[lo:hi])
			flagged += n
			for _, gi := range tc.regs[ai] {
				p.annual[gi].Add(year, float64(n))
			}
		}
		for _, gi := range tc.regs[ai] {
			p.cov[gi].AddCell(tc.obs[ai])
		}
	}
	p.flagged = float64(flagged)
	return p, nil
}

// hotdayTile counts days at or above each fixed threshold per cell-year and
// folds the counts into anchored multi-year bins.
func (r *Runner) hotdayTile(ctx context.Context, t span, tc *tileCells) (*partials, error) {
	p := r.newPartials()
	levels := r.fixed.Levels()

	totals := make([][][]float64, tc.n()) // per cell, per level, per bin position
	bufs := make([][]float64, tc.n())
	for ai := range totals {
		totals[ai] = make([][]float64, levels)
		for li := range totals[ai] {
			totals[ai][li] = make([]float64, len(r.starts))
		}
		bufs[ai] = make([]float64, 366)
	}

	flagged := 0
	for yi, ys := range r.yearSpan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		block, err := r.ds.ReadBlock(ctx, ys.lo, ys.hi, t.lo, t.hi)
		if err != nil {
			return nil, err
		}
		days := ys.hi - ys.lo
		for d := 0; d < days; d++ {
			for ai := 0; ai < tc.n(); ai++ {
				v := block.Get(d, tc.row[ai], tc.col[ai])
				bufs[ai][d] = v
				if !math.IsNaN(v) {
					tc.obs[ai][yi]++
				}
			}
		}
		pos := r.startPos[r.binner.Start(r.firstYear+yi)]
		for ai := 0; ai < tc.n(); ai++ {
			counts := r.fixed.Count(bufs[ai][:days])
			for li, n := range counts {
				totals[ai][li][pos] += float64(n)
			}
			flagged += counts[0]
		}
	}

	for ai := 0; ai < tc.n(); ai++ {
		for _, gi := range tc.regs[ai] {
			for li := 0; li < levels; li++ {
				for pos, total := range totals[ai][li] {
					p.bins[gi][li].Add(pos, total)
				}
			}
			p.cov[gi].AddCell(tc.obs[ai])
		}
	}
	p.flagged = float64(flagged)
	return p, nil
}

// recordTile streams years in ascending order through a per-cell running
// extreme per calendar day and counts record-setting days per year.
func (r *Runner) recordTile(ctx context.Context, t span, tc *tileCells, meta []dayInfo) (*partials, error) {
	p := r.newPartials()
	years := len(r.yearSpan)

	trackers := make([]*extremes.Tracker, tc.n())
	counts := make([][]int, tc.n())
	for ai := range trackers {
		trackers[ai] = r.records.NewTracker(r.season.BucketCount())
		counts[ai] = make([]int, years)
	}

	for yi, ys := range r.yearSpan {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		block, err := r.ds.ReadBlock(ctx, ys.lo, ys.hi, t.lo, t.hi)
		if err != nil {
			return nil, err
		}
		for d := 0; d < ys.hi-ys.lo; d++ {
			md := meta[ys.lo+d]
			for ai := 0; ai < tc.n(); ai++ {
				v := block.Get(d, tc.row[ai], tc.col[ai])
				if math.IsNaN(v) {
					continue
				}
				tc.obs[ai][yi]++
				if trackers[ai].Observe(md.bucket, v) {
					counts[ai][yi]++
				}
			}
		}
	}

	flagged := 0
	for ai := 0; ai < tc.n(); ai++ {
		for yi := range r.yearSpan {
			flagged += counts[ai][yi]
			for _, gi := range tc.regs[ai] {
				p.annual[gi].Add(r.firstYear+yi, float64(counts[ai][yi]))
			}
		}
		for _, gi := range tc.regs[ai] {
			p.cov[gi].AddCell(tc.obs[ai])
		}
	}
	p.flagged = float64(flagged)
	return p, nil
}

// assemble turns merged partials into the final per-region series.
func (r *Runner) assemble(p *partials) *Result {
	res := &Result{Kind: r.params.Kind, FirstYear: r.firstYear, LastYear: r.lastYear}
	if r.params.Kind == config.KindHotDays {
		res.BinYears = r.params.BinYears
	}
	for gi, m := range r.masks {
		reg := RegionResult{
			Name:           m.Name,
			Cells:          m.Count(),
			TrendPerDecade: math.NaN(),
			Coverage:       p.cov[gi].Fractions(),
		}
		switch r.params.Kind {
		case config.KindHotDays:
			for li, f := range r.params.ThresholdsF {
				mean := p.bins[gi][li].Mean()
				reg.Periods = append(reg.Periods, ThresholdPeriods{
					ThresholdF: f,
					Days: domain.PeriodSeries{
						Starts: append([]int(nil), r.starts...),
						Totals: mean.Values,
					},
				})
			}
		default:
			reg.Annual = p.annual[gi].Mean()
			reg.Smoothed = r.smoother.SmoothSeries(reg.Annual)
			reg.TrendPerDecade = aggregate.TrendPerDecade(reg.Annual)
		}
		res.Regions = append(res.Regions, reg)
	}
	return res
}
