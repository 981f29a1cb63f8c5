package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// TimeAxis is a contiguous daily calendar: a start date plus a day count.
// All dates are UTC civil dates; leap days are real calendar days. Index 0
// is the start date, index Len()-1 the last day.
type TimeAxis struct {
	start time.Time
	days  int
}

// NewTimeAxis builds a daily axis of n days beginning at the given date.
// The time-of-day portion of start is discarded.
func NewTimeAxis(start time.Time, n int) TimeAxis {
	d := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	return TimeAxis{start: d, days: n}
}

// NewTimeAxisYears builds an axis covering the closed year interval
// [first, last], from Jan 1 of first through Dec 31 of last.
func NewTimeAxisYears(first, last int) TimeAxis {
	start := time.Date(first, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(last+1, time.January, 1, 0, 0, 0, 0, time.UTC)
	return TimeAxis{start: start, days: int(end.Sub(start).Hours() / 24)}
}

func (a TimeAxis) Len() int         { return a.days }
func (a TimeAxis) Start() time.Time { return a.start }

// Date returns the civil date at index i.
func (a TimeAxis) Date(i int) time.Time { return a.start.AddDate(0, 0, i) }

// Year returns the calendar year of the day at index i.
func (a TimeAxis) Year(i int) int { return a.Date(i).Year() }

// Index returns the axis index of the given date, which may be negative or
// beyond Len() when the date falls outside the axis.
func (a TimeAxis) Index(t time.Time) int {
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return int(d.Sub(a.start).Hours() / 24)
}

// FirstYear and LastYear bound the calendar years touched by the axis.
func (a TimeAxis) FirstYear() int { return a.start.Year() }
func (a TimeAxis) LastYear() int  { return a.Date(a.days - 1).Year() }

// YearIndexRange returns the half-open index interval [lo, hi) of days whose
// calendar year falls inside the closed interval yr, clipped to the axis.
func (a TimeAxis) YearIndexRange(yr YearRange) (lo, hi int) {
	lo = a.Index(time.Date(yr.First, time.January, 1, 0, 0, 0, 0, time.UTC))
	hi = a.Index(time.Date(yr.Last+1, time.January, 1, 0, 0, 0, 0, time.UTC))
	if lo < 0 {
		lo = 0
	}
	if hi > a.days {
		hi = a.days
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// YearRange is a closed calendar-year interval.
type YearRange struct {
	First int
	Last  int
}

// ParseYearRange parses "1990-1999" style ranges.
func ParseYearRange(s string) (YearRange, error) {
	parts := strings.SplitN(strings.TrimSpace(s), "-", 2)
	if len(parts) != 2 {
		return YearRange{}, &ConfigError{Param: "year range", Detail: fmt.Sprintf("%q is not of the form FIRST-LAST", s)}
	}
	first, err1 := strconv.Atoi(parts[0])
	last, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil {
		return YearRange{}, &ConfigError{Param: "year range", Detail: fmt.Sprintf("%q is not of the form FIRST-LAST", s)}
	}
	yr := YearRange{First: first, Last: last}
	if err := yr.Validate(); err != nil {
		return YearRange{}, err
	}
	return yr, nil
}

func (r YearRange) Validate() error {
	if r.Last < r.First {
		return &ConfigError{Param: "year range", Detail: fmt.Sprintf("last year %d precedes first year %d", r.Last, r.First)}
	}
	return nil
}

func (r YearRange) Contains(year int) bool { return year >= r.First && year <= r.Last }
func (r YearRange) Count() int             { return r.Last - r.First + 1 }

// IsLeap reports whether the year has a Feb 29.
func IsLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DayOfYear returns the 1-based ordinal day for a (year, month, day) date:
// Jan 1 is 1, Dec 31 is 365 or 366.
func DayOfYear(year int, month time.Month, day int) int {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).YearDay()
}
