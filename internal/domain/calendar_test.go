package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimeAxis(t *testing.T) {
	axis := NewTimeAxisYears(1999, 2001)

	t.Run("covers leap year", func(t *testing.T) {
		// 1999: 365, 2000: 366, 2001: 365
		assert.Equal(t, 1096, axis.Len())
		assert.Equal(t, 1999, axis.FirstYear())
		assert.Equal(t, 2001, axis.LastYear())
	})

	t.Run("date round trip", func(t *testing.T) {
		d := axis.Date(365 + 59) // Feb 29, 2000
		assert.Equal(t, time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC), d)
		assert.Equal(t, 365+59, axis.Index(d))
	})

	t.Run("year lookup", func(t *testing.T) {
		assert.Equal(t, 1999, axis.Year(0))
		assert.Equal(t, 2000, axis.Year(365))
		assert.Equal(t, 2001, axis.Year(axis.Len()-1))
	})

	t.Run("year index range", func(t *testing.T) {
		lo, hi := axis.YearIndexRange(YearRange{First: 2000, Last: 2000})
		assert.Equal(t, 365, lo)
		assert.Equal(t, 365+366, hi)

		lo, hi = axis.YearIndexRange(YearRange{First: 1990, Last: 2050})
		assert.Equal(t, 0, lo)
		assert.Equal(t, axis.Len(), hi)

		lo, hi = axis.YearIndexRange(YearRange{First: 1980, Last: 1985})
		assert.Equal(t, lo, hi)
	})

	t.Run("start time of day discarded", func(t *testing.T) {
		a := NewTimeAxis(time.Date(1931, time.January, 1, 13, 45, 0, 0, time.UTC), 10)
		assert.Equal(t, time.Date(1931, time.January, 1, 0, 0, 0, 0, time.UTC), a.Start())
	})
}

func TestParseYearRange(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    YearRange
		wantErr bool
	}{
		{"valid", "1990-1999", YearRange{1990, 1999}, false},
		{"single year", "2000-2000", YearRange{2000, 2000}, false},
		{"inverted", "1999-1990", YearRange{}, true},
		{"garbage", "abc", YearRange{}, true},
		{"missing last", "1990-", YearRange{}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseYearRange(tc.input)
			if tc.wantErr {
				require.Error(t, err)
				var cfgErr *ConfigError
				assert.ErrorAs(t, err, &cfgErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestIsLeap(t *testing.T) {
	assert.True(t, IsLeap(2000))
	assert.True(t, IsLeap(2024))
	assert.False(t, IsLeap(1900))
	assert.False(t, IsLeap(2023))
}

func TestDayOfYear(t *testing.T) {
	assert.Equal(t, 1, DayOfYear(2001, time.January, 1))
	assert.Equal(t, 121, DayOfYear(2001, time.May, 1))
	assert.Equal(t, 122, DayOfYear(2000, time.May, 1))
	assert.Equal(t, 273, DayOfYear(2001, time.September, 30))
	assert.Equal(t, 274, DayOfYear(2000, time.September, 30))
	assert.Equal(t, 365, DayOfYear(2001, time.December, 31))
	assert.Equal(t, 366, DayOfYear(2000, time.December, 31))
}
