// Package figures renders analysis results to image files with gonum/plot.
// The annual figure overlays raw and smoothed regional series, the bin
// figure draws grouped bars per threshold, and the coverage figure tracks
// reporting density per region.
package figures

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/aedessler/DOE-report-section-6-3/internal/config"
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/pipeline"
)

// palette cycles per region or per threshold.
var palette = []color.RGBA{
	{R: 0xd6, G: 0x28, B: 0x28, A: 0xff},
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
}

// Write renders the main figure for one result. The image format follows
// the file extension, .png or .pdf or anything else gonum/plot recognizes.
func Write(path string, res *pipeline.Result) error {
	if res.Kind == config.KindHotDays {
		return writeBins(path, res)
	}
	return writeAnnual(path, res)
}

func writeAnnual(path string, res *pipeline.Result) error {
	p := plot.New()
	p.Title.Text = titleFor(res.Kind)
	p.X.Label.Text = "year"
	p.Y.Label.Text = "days per year"
	p.X.Tick.Marker = plot.TickerFunc(yearTicks)
	p.Legend.Top = true

	for i, reg := range res.Regions {
		col := palette[i%len(palette)]

		raw, err := plotter.NewLine(seriesXYs(reg.Annual))
		if err != nil {
			return fmt.Errorf("annual line for %s: %w", reg.Name, err)
		}
		raw.LineStyle.Color = color.NRGBA{R: col.R, G: col.G, B: col.B, A: 0x55}
		raw.LineStyle.Width = vg.Points(0.5)
		p.Add(raw)

		smoothed, err := plotter.NewLine(seriesXYs(reg.Smoothed))
		if err != nil {
			return fmt.Errorf("smoothed line for %s: %w", reg.Name, err)
		}
		smoothed.LineStyle.Color = col
		smoothed.LineStyle.Width = vg.Points(2)
		p.Add(smoothed)
		p.Legend.Add(reg.Name, smoothed)
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// writeBins draws one grouped bar panel for the widest region, one bar
// group per period bin and one color per threshold.
func writeBins(path string, res *pipeline.Result) error {
	if len(res.Regions) == 0 {
		return errors.New("no regions to plot")
	}
	reg := widest(res)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Hot days per %d-year period, %s", res.BinYears, reg.Name)
	p.Y.Label.Text = "days per period"
	p.Legend.Top = true

	w := vg.Points(8)
	for ti, tp := range reg.Periods {
		bars, err := plotter.NewBarChart(barValues(tp.Days), w)
		if err != nil {
			return fmt.Errorf("bars for %g°F: %w", tp.ThresholdF, err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = palette[ti%len(palette)]
		bars.Offset = vg.Length(float64(ti)-float64(len(reg.Periods)-1)/2) * w
		p.Add(bars)
		p.Legend.Add(fmt.Sprintf("≥ %g°F", tp.ThresholdF), bars)
	}

	if len(reg.Periods) > 0 {
		labels := make([]string, reg.Periods[0].Days.Len())
		for i, start := range reg.Periods[0].Days.Starts {
			labels[i] = strconv.Itoa(start)
		}
		p.NominalX(labels...)
	}
	return p.Save(8*vg.Inch, 5*vg.Inch, path)
}

// WriteCoverage renders the per-region station coverage series.
func WriteCoverage(path string, res *pipeline.Result) error {
	p := plot.New()
	p.Title.Text = "Station coverage"
	p.X.Label.Text = "year"
	p.Y.Label.Text = "mean fraction of days reported"
	p.X.Tick.Marker = plot.TickerFunc(yearTicks)
	p.Y.Min = 0
	p.Legend.Top = true

	for i, reg := range res.Regions {
		ln, err := plotter.NewLine(seriesXYs(reg.Coverage))
		if err != nil {
			return fmt.Errorf("coverage line for %s: %w", reg.Name, err)
		}
		ln.LineStyle.Color = palette[i%len(palette)]
		ln.LineStyle.Width = vg.Points(1.5)
		p.Add(ln)
		p.Legend.Add(reg.Name, ln)
	}
	return p.Save(8*vg.Inch, 4*vg.Inch, path)
}

func titleFor(kind config.Kind) string {
	switch kind {
	case config.KindHeatwave:
		return "Heatwave days per year"
	case config.KindRecords:
		return "Record-setting days per year"
	default:
		return string(kind)
	}
}

// seriesXYs drops NaN years; gonum/plot refuses non-finite points.
func seriesXYs(s domain.AnnualSeries) plotter.XYs {
	pts := make(plotter.XYs, 0, s.Len())
	for i, v := range s.Values {
		if math.IsNaN(v) {
			continue
		}
		pts = append(pts, plotter.XY{X: float64(s.Years[i]), Y: v})
	}
	return pts
}

// barValues maps NaN bins to zero-height bars.
func barValues(s domain.PeriodSeries) plotter.Values {
	vals := make(plotter.Values, s.Len())
	for i, v := range s.Totals {
		if !math.IsNaN(v) {
			vals[i] = v
		}
	}
	return vals
}

// widest returns the region covering the most cells, normally the
// whole-domain aggregate.
func widest(res *pipeline.Result) pipeline.RegionResult {
	best := res.Regions[0]
	for _, reg := range res.Regions[1:] {
		if reg.Cells > best.Cells {
			best = reg
		}
	}
	return best
}

// yearTicks relabels whole-year default ticks without a decimal point.
func yearTicks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i, t := range ticks {
		if t.Label == "" {
			continue
		}
		if v := math.Trunc(t.Value); v == t.Value {
			ticks[i].Label = strconv.Itoa(int(v))
		}
	}
	return ticks
}
