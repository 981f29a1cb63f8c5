// Command climstats runs one extreme-event analysis over a chunk store and
// writes regional series as CSV, JSON, and figures. While the run is in
// flight an HTTP server reports health, readiness, metrics, and progress.
//
// Usage:
//
//	climstats -analysis heatwave -data data/store -out out -plot out/heatwave.png
//	climstats -analysis hotdays -data data/store -bin-years 6 -end-year 2024
//	climstats -analysis records -record-kind high -quick -quick-years 1990-1999
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/aedessler/DOE-report-section-6-3/internal/adapter/figures"
	"github.com/aedessler/DOE-report-section-6-3/internal/adapter/httpapi"
	"github.com/aedessler/DOE-report-section-6-3/internal/adapter/store"
	"github.com/aedessler/DOE-report-section-6-3/internal/config"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/observability"
	"github.com/aedessler/DOE-report-section-6-3/internal/pipeline"
	"github.com/aedessler/DOE-report-section-6-3/internal/region"
)

func main() {
	params, err := parseFlags()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if err := params.Validate(); err != nil {
		logger.Error("invalid analysis parameters", "error", err)
		os.Exit(2)
	}

	st, err := store.Open(params.DataDir, cfg.CacheSize, logger, metrics)
	if err != nil {
		logger.Error("failed to open store", "dir", params.DataDir, "error", err)
		os.Exit(1)
	}
	ds, err := st.Dataset()
	if err != nil {
		logger.Error("bad store coordinates", "error", err)
		os.Exit(1)
	}

	if params.Quick {
		ds, err = ds.Subset(params.QuickYears, params.QuickStride)
		if err != nil {
			logger.Error("quick subset failed", "error", err)
			os.Exit(1)
		}
		logger.Info("quick mode",
			"years", fmt.Sprintf("%d-%d", params.QuickYears.First, params.QuickYears.Last),
			"stride", params.QuickStride)
	}

	rules, err := params.Regions()
	if err != nil {
		logger.Error("failed to resolve regions", "error", err)
		os.Exit(1)
	}
	masks, err := region.FromRules(ds, rules)
	if err != nil {
		logger.Error("failed to build region masks", "error", err)
		os.Exit(1)
	}

	runner, err := pipeline.New(ds, masks, params, cfg.Workers, cfg.TileRows, logger, metrics)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	srv := httpapi.NewServer(cfg.HTTPAddr, runner, runner, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	res, runErr := runner.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	if runErr != nil {
		logger.Error("analysis failed", "error", runErr)
		os.Exit(1)
	}

	if err := pipeline.WriteOutputs(params.OutDir, res); err != nil {
		logger.Error("failed to write outputs", "error", err)
		os.Exit(1)
	}
	logger.Info("outputs written", "dir", params.OutDir)

	if params.PlotPath != "" {
		if err := figures.Write(params.PlotPath, res); err != nil {
			logger.Error("failed to render figure", "error", err)
			os.Exit(1)
		}
		cov := coveragePath(params.PlotPath)
		if err := figures.WriteCoverage(cov, res); err != nil {
			logger.Error("failed to render coverage figure", "error", err)
			os.Exit(1)
		}
		logger.Info("figures written", "figure", params.PlotPath, "coverage", cov)
	}
}

func parseFlags() (config.Analysis, error) {
	p := config.DefaultAnalysis()

	analysis := flag.String("analysis", string(p.Kind), "analysis to run: heatwave, hotdays, or records")
	data := flag.String("data", "", "chunk store directory")
	out := flag.String("out", p.OutDir, "output directory")
	regionSet := flag.String("region", p.RegionSet, "built-in region set: us or nh")
	regionsFile := flag.String("regions", "", "YAML region rules file, overrides -region")
	minRun := flag.Int("min-run", p.MinRun, "minimum consecutive exceedance days")
	percentile := flag.Float64("percentile", p.Percentile, "calendar-day threshold percentile")
	season := flag.String("season", p.Season.String(), "season window, MM-DD:MM-DD")
	window := flag.Int("window", p.WindowYears, "smoothing window in years")
	thresholds := flag.String("thresholds-f", formatThresholds(p.ThresholdsF), "comma-separated thresholds in degrees F")
	binYears := flag.Int("bin-years", p.BinYears, "bin width in years")
	endYear := flag.Int("end-year", p.EndYear, "last year of the final bin")
	recordKind := flag.String("record-kind", p.RecordKind, "record kind: high or low")
	minObs := flag.Int("min-obs", p.MinObsPerYear, "valid days per year for a cell to count as covered")
	quick := flag.Bool("quick", false, "subset the data for a fast run")
	quickYears := flag.String("quick-years", fmt.Sprintf("%d-%d", p.QuickYears.First, p.QuickYears.Last), "year range for -quick, FIRST-LAST")
	quickStep := flag.Int("quick-step", p.QuickStride, "spatial stride for -quick")
	plot := flag.String("plot", "", "write the main figure to this file")
	flag.Parse()

	p.Kind = config.Kind(*analysis)
	p.DataDir = *data
	p.OutDir = *out
	p.RegionSet = *regionSet
	p.RegionsFile = *regionsFile
	p.MinRun = *minRun
	p.Percentile = *percentile
	p.WindowYears = *window
	p.BinYears = *binYears
	p.EndYear = *endYear
	p.RecordKind = *recordKind
	p.MinObsPerYear = *minObs
	p.Quick = *quick
	p.QuickStride = *quickStep
	p.PlotPath = *plot

	var err error
	if p.Season, err = domain.ParseSeason(*season); err != nil {
		return p, err
	}
	if p.ThresholdsF, err = parseThresholds(*thresholds); err != nil {
		return p, err
	}
	if p.QuickYears, err = domain.ParseYearRange(*quickYears); err != nil {
		return p, err
	}
	return p, nil
}

func parseThresholds(s string) ([]float64, error) {
	parts := strings.Split(s, ",")
	vals := make([]float64, 0, len(parts))
	for _, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, &domain.ConfigError{Param: "thresholds-f", Detail: fmt.Sprintf("%q is not a number", part)}
		}
		vals = append(vals, v)
	}
	return vals, nil
}

func formatThresholds(vals []float64) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strings.Join(parts, ",")
}

// coveragePath derives the coverage figure path from the main figure path,
// out/heatwave.png becoming out/heatwave_coverage.png.
func coveragePath(plotPath string) string {
	ext := filepath.Ext(plotPath)
	return strings.TrimSuffix(plotPath, ext) + "_coverage" + ext
}
