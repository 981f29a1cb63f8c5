// Package domain models the calendar, region, and series vocabulary of the
// extreme-temperature analyses.
//
// # Data Source
//
// Input is a preprocessed daily temperature field derived from the Berkeley
// Earth gridded product: anomalies already converted to absolute temperatures
// (°C) with a land-positive mask applied, subset to one of two analysis
// domains (CONUS, or the northern hemisphere between 24°N and 50°N). The
// engine never sees raw anomalies or the climatology; that conversion happens
// upstream.
//
// # Calendar Conventions
//
// The time axis is a contiguous daily calendar with real leap days,
// represented as a start date plus a day count ([TimeAxis]). Per-calendar-day
// statistics bucket observations by raw ordinal day-of-year:
//
//	May 1  → ordinal 121 in a non-leap year, 122 in a leap year
//	Sep 30 → ordinal 273 in a non-leap year, 274 in a leap year
//
// so the default May 1 – Sep 30 season occupies 154 distinct ordinals even
// though every individual year contributes exactly 153 season days. Edge
// ordinals pool fewer years; that is expected and handled by the minimum
// sample rule, not special-cased.
//
// # Heatwave Definition
//
// A heatwave day is a day that both exceeds its calendar-day percentile
// threshold (default 90th, strict >) and belongs to a run of at least
// minRunDays consecutive exceedance days (default 6). Counts are days, not
// events: a 12-day run contributes 12. Thresholds always pool the full
// record; there is no separate baseline period.
//
// # Hot-Day Period Bins
//
// The fixed-threshold analysis counts days at or above configured thresholds
// (given in °F, converted via [FahrenheitToCelsius]) over the whole year, and
// groups them into non-overlapping bins (default 6 years) anchored so the
// final bin ends at a configured year: with end year 2024, bins start at
// ..., 2007, 2013, 2019.
//
// # Record Days
//
// A record-high day strictly exceeds every prior valid observation for the
// same cell and calendar day; the first valid observation of a bucket is not
// a record. Record-low days mirror this with strict <.
package domain
