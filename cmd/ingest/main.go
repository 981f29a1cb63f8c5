// Command ingest converts a preprocessed NetCDF temperature file into the
// chunk store the analysis pipeline reads. One chunk is written per
// (calendar year, latitude band); the manifest goes last, so an interrupted
// ingest never leaves a store that opens.
//
// Usage:
//
//	ingest -netcdf data/tmax_daily.nc -out data/store -codec lz4
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aedessler/DOE-report-section-6-3/internal/adapter/netcdf"
	"github.com/aedessler/DOE-report-section-6-3/internal/adapter/store"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/observability"
)

func main() {
	if err := run(); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	in := flag.String("netcdf", "", "source NetCDF file")
	out := flag.String("out", "", "destination store directory")
	bandRows := flag.Int("band-rows", 8, "latitude rows per chunk band")
	codec := flag.String("codec", "lz4", "chunk codec: lz4, zstd, s2, or none")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if *in == "" || *out == "" {
		flag.Usage()
		return errors.New("missing required flags: -netcdf, -out")
	}

	logger := observability.NewLogger(*logLevel, "text")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r, err := netcdf.OpenReader(*in, logger)
	if err != nil {
		return fmt.Errorf("open %s: %w", *in, err)
	}
	defer r.Close()

	w, err := store.NewWriter(*out, r.Coords(), r.Land(), *bandRows, *codec, logger)
	if err != nil {
		return err
	}

	axis := r.Coords().Time
	days, rows, cols := r.Shape()
	logger.Info("ingest started",
		"source", *in,
		"days", days,
		"rows", rows,
		"cols", cols,
		"years", fmt.Sprintf("%d-%d", axis.FirstYear(), axis.LastYear()),
		"bands", w.Bands(),
	)

	for year := axis.FirstYear(); year <= axis.LastYear(); year++ {
		day0, day1 := axis.YearIndexRange(domain.YearRange{First: year, Last: year})
		for band := 0; band < w.Bands(); band++ {
			row0, row1 := w.BandRange(band)
			block, err := r.ReadBlock(ctx, day0, day1, row0, row1)
			if err != nil {
				return fmt.Errorf("read year %d band %d: %w", year, band, err)
			}
			if err := w.WriteChunk(year, band, block); err != nil {
				return err
			}
		}
		logger.Debug("year ingested", "year", year)
	}

	return w.Finish()
}
