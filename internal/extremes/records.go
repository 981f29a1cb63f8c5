package extremes

import (
	"fmt"
	"math"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// RecordKind selects which tail of the distribution sets records.
type RecordKind string

const (
	RecordHigh RecordKind = "high"
	RecordLow  RecordKind = "low"
)

// RecordCounter counts, per year, the calendar days that set a new daily
// record for their ordinal. The first valid observation of an ordinal only
// seeds the running extreme; ties never break a record.
type RecordCounter struct {
	kind RecordKind
}

func NewRecordCounter(kind RecordKind) (*RecordCounter, error) {
	if kind != RecordHigh && kind != RecordLow {
		return nil, &domain.ConfigError{Param: "record kind", Detail: fmt.Sprintf("unknown kind %q (want high or low)", kind)}
	}
	return &RecordCounter{kind: kind}, nil
}

// Count scans a [year][bucket] matrix in year order and returns the number
// of record-setting days in each year. Missing observations neither set nor
// extend records.
func (c *RecordCounter) Count(years [][]float64) []int {
	counts := make([]int, len(years))
	if len(years) == 0 {
		return counts
	}
	tr := c.NewTracker(len(years[0]))
	for y, row := range years {
		for b, v := range row {
			if tr.Observe(b, v) {
				counts[y]++
			}
		}
	}
	return counts
}

// Tracker holds the running per-bucket extremes of one cell so record days
// can be counted while streaming years in ascending order, without holding
// the whole record in memory.
type Tracker struct {
	kind RecordKind
	best []float64
}

// NewTracker prepares a tracker over the given number of buckets.
func (c *RecordCounter) NewTracker(buckets int) *Tracker {
	best := make([]float64, buckets)
	for i := range best {
		best[i] = math.NaN()
	}
	return &Tracker{kind: c.kind, best: best}
}

// Observe feeds one observation and reports whether it sets a record.
// Observations must arrive in ascending year order.
func (t *Tracker) Observe(bucket int, v float64) bool {
	if math.IsNaN(v) {
		return false
	}
	if math.IsNaN(t.best[bucket]) {
		t.best[bucket] = v
		return false
	}
	if (t.kind == RecordHigh && v > t.best[bucket]) || (t.kind == RecordLow && v < t.best[bucket]) {
		t.best[bucket] = v
		return true
	}
	return false
}
