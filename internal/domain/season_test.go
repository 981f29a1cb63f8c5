package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeasonWindowContains(t *testing.T) {
	w := DefaultSeason()

	tests := []struct {
		name  string
		month time.Month
		day   int
		want  bool
	}{
		{"first day", time.May, 1, true},
		{"last day", time.September, 30, true},
		{"mid window", time.July, 15, true},
		{"day before", time.April, 30, false},
		{"day after", time.October, 1, false},
		{"deep winter", time.January, 15, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, w.Contains(tc.month, tc.day))
		})
	}
}

func TestSeasonWindowDays(t *testing.T) {
	t.Run("default season is 153 days every year", func(t *testing.T) {
		w := DefaultSeason()
		assert.Equal(t, 153, w.Days(2000))
		assert.Equal(t, 153, w.Days(2001))
		assert.Equal(t, 153, w.MaxDays())
	})

	t.Run("window spanning Feb 29 varies by calendar", func(t *testing.T) {
		w := SeasonWindow{StartMonth: time.February, StartDay: 20, EndMonth: time.March, EndDay: 10}
		require.NoError(t, w.Validate())
		assert.Equal(t, 20, w.Days(2000))
		assert.Equal(t, 19, w.Days(2001))
		assert.Equal(t, 20, w.MaxDays())
	})

	t.Run("full year", func(t *testing.T) {
		w := FullYear()
		assert.Equal(t, 366, w.Days(2000))
		assert.Equal(t, 365, w.Days(2001))
	})
}

func TestSeasonWindowSlots(t *testing.T) {
	w := DefaultSeason()

	for _, year := range []int{2000, 2001} {
		assert.Equal(t, 0, w.Slot(time.Date(year, time.May, 1, 0, 0, 0, 0, time.UTC)))
		assert.Equal(t, 152, w.Slot(time.Date(year, time.September, 30, 0, 0, 0, 0, time.UTC)))
	}
}

func TestSeasonWindowBuckets(t *testing.T) {
	w := DefaultSeason()

	assert.Equal(t, 121, w.MinDayOfYear())
	assert.Equal(t, 274, w.MaxDayOfYear())
	assert.Equal(t, 154, w.BucketCount())

	// May 1 lands in different buckets in leap vs non-leap years; pooling by
	// raw ordinal keeps parity with day-of-year threshold grouping.
	assert.Equal(t, 0, w.Bucket(time.Date(2001, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 1, w.Bucket(time.Date(2000, time.May, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 152, w.Bucket(time.Date(2001, time.September, 30, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 153, w.Bucket(time.Date(2000, time.September, 30, 0, 0, 0, 0, time.UTC)))
}

func TestSeasonWindowBucketRange(t *testing.T) {
	w := DefaultSeason()

	lo, hi := w.BucketRange(2001)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 153, hi)

	lo, hi = w.BucketRange(2000)
	assert.Equal(t, 1, lo)
	assert.Equal(t, 154, hi)

	// Full-year buckets cover every ordinal.
	lo, hi = FullYear().BucketRange(2000)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 366, hi)
	lo, hi = FullYear().BucketRange(2001)
	assert.Equal(t, 0, lo)
	assert.Equal(t, 365, hi)
}

func TestParseSeason(t *testing.T) {
	t.Run("default form", func(t *testing.T) {
		w, err := ParseSeason("05-01:09-30")
		require.NoError(t, err)
		assert.Equal(t, DefaultSeason(), w)
	})

	t.Run("round trip", func(t *testing.T) {
		w, err := ParseSeason(DefaultSeason().String())
		require.NoError(t, err)
		assert.Equal(t, DefaultSeason(), w)
	})

	tests := []struct {
		name  string
		input string
	}{
		{"wrapping window", "11-01:02-28"},
		{"bad month", "13-01:09-30"},
		{"bad day", "05-32:09-30"},
		{"malformed", "May 1 to Sep 30"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseSeason(tc.input)
			require.Error(t, err)
			var cfgErr *ConfigError
			assert.ErrorAs(t, err, &cfgErr)
		})
	}
}
