package domain

import (
	"fmt"
	"time"
)

// SeasonWindow restricts analysis to an inclusive (month, day) window within
// each calendar year, e.g. May 1 through Sep 30. Membership is decided by
// calendar position, so the window covers the same civil dates every year;
// a window that does not touch late February has the same length in leap and
// non-leap years. Windows wrapping the year end (e.g. Nov–Feb) are rejected:
// annual counts are grouped by calendar year and a wrapping season would
// split every run across two years.
type SeasonWindow struct {
	StartMonth time.Month
	StartDay   int
	EndMonth   time.Month
	EndDay     int
}

// DefaultSeason is the May 1 – Sep 30 warm-season window, 153 days in every
// year. It never contains Feb 29.
func DefaultSeason() SeasonWindow {
	return SeasonWindow{StartMonth: time.May, StartDay: 1, EndMonth: time.September, EndDay: 30}
}

// FullYear is the whole-calendar-year window used by analyses that do not
// filter by season.
func FullYear() SeasonWindow {
	return SeasonWindow{StartMonth: time.January, StartDay: 1, EndMonth: time.December, EndDay: 31}
}

// ParseSeason parses "MM-DD:MM-DD", e.g. "05-01:09-30".
func ParseSeason(s string) (SeasonWindow, error) {
	var sm, sd, em, ed int
	if _, err := fmt.Sscanf(s, "%d-%d:%d-%d", &sm, &sd, &em, &ed); err != nil {
		return SeasonWindow{}, &ConfigError{Param: "season", Detail: fmt.Sprintf("%q is not of the form MM-DD:MM-DD", s)}
	}
	w := SeasonWindow{StartMonth: time.Month(sm), StartDay: sd, EndMonth: time.Month(em), EndDay: ed}
	if err := w.Validate(); err != nil {
		return SeasonWindow{}, err
	}
	return w, nil
}

func (w SeasonWindow) String() string {
	return fmt.Sprintf("%02d-%02d:%02d-%02d", w.StartMonth, w.StartDay, w.EndMonth, w.EndDay)
}

// Validate rejects malformed or wrapping windows.
func (w SeasonWindow) Validate() error {
	for _, p := range []struct {
		m time.Month
		d int
	}{{w.StartMonth, w.StartDay}, {w.EndMonth, w.EndDay}} {
		if p.m < time.January || p.m > time.December {
			return &ConfigError{Param: "season", Detail: fmt.Sprintf("month %d out of range", p.m)}
		}
		if p.d < 1 || p.d > daysInMonth(p.m) {
			return &ConfigError{Param: "season", Detail: fmt.Sprintf("day %d invalid for %s", p.d, p.m)}
		}
	}
	if w.EndMonth < w.StartMonth || (w.EndMonth == w.StartMonth && w.EndDay < w.StartDay) {
		return &ConfigError{Param: "season", Detail: "window must not wrap the year end"}
	}
	return nil
}

// Contains reports whether the calendar position (month, day) falls inside
// the window, inclusive on both ends.
func (w SeasonWindow) Contains(m time.Month, d int) bool {
	if m < w.StartMonth || m > w.EndMonth {
		return false
	}
	if m == w.StartMonth && d < w.StartDay {
		return false
	}
	if m == w.EndMonth && d > w.EndDay {
		return false
	}
	return true
}

// Days returns the number of window days in the given year.
func (w SeasonWindow) Days(year int) int {
	start := time.Date(year, w.StartMonth, w.StartDay, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, w.EndMonth, w.EndDay, 0, 0, 0, 0, time.UTC)
	return int(end.Sub(start).Hours()/24) + 1
}

// MaxDays returns the window length in its longest year. Only windows
// spanning Feb 29 vary; the default warm season is 153 days always.
func (w SeasonWindow) MaxDays() int {
	leap := w.Days(2000)
	if n := w.Days(2001); n > leap {
		return n
	}
	return leap
}

// Slot returns the 0-based position of a date within that year's window:
// the window start maps to 0. The caller guarantees the date is inside the
// window.
func (w SeasonWindow) Slot(t time.Time) int {
	start := time.Date(t.Year(), w.StartMonth, w.StartDay, 0, 0, 0, 0, time.UTC)
	return int(t.Sub(start).Hours() / 24)
}

// MinDayOfYear and MaxDayOfYear bound the raw ordinal days the window can
// occupy across leap and non-leap years. Calendar-day statistics are bucketed
// by raw day-of-year, so the bucket range must cover both calendars: May 1 is
// ordinal 121 in a non-leap year but 122 in a leap year.
func (w SeasonWindow) MinDayOfYear() int {
	a := DayOfYear(2001, w.StartMonth, w.StartDay)
	if b := DayOfYear(2000, w.StartMonth, w.StartDay); b < a {
		return b
	}
	return a
}

func (w SeasonWindow) MaxDayOfYear() int {
	a := DayOfYear(2001, w.EndMonth, w.EndDay)
	if b := DayOfYear(2000, w.EndMonth, w.EndDay); b > a {
		return b
	}
	return a
}

// BucketCount is the number of distinct raw day-of-year values the window
// can contain (154 for the default season: ordinals 121 through 274).
func (w SeasonWindow) BucketCount() int {
	return w.MaxDayOfYear() - w.MinDayOfYear() + 1
}

// Bucket maps a window date to its raw day-of-year bucket index in
// [0, BucketCount).
func (w SeasonWindow) Bucket(t time.Time) int {
	return t.YearDay() - w.MinDayOfYear()
}

// BucketRange returns the half-open bucket interval [lo, hi) the window
// occupies in the given year. Window days are consecutive ordinals within
// one year, so the interval is contiguous and hi-lo equals Days(year).
func (w SeasonWindow) BucketRange(year int) (lo, hi int) {
	lo = DayOfYear(year, w.StartMonth, w.StartDay) - w.MinDayOfYear()
	return lo, lo + w.Days(year)
}

func daysInMonth(m time.Month) int {
	switch m {
	case time.February:
		return 29
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}
