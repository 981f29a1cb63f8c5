package grid

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ctessum/sparse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// testDataset builds a 2000-2001 field of 3×4 cells where the value at
// (t, r, c) is t*10000 + r*100 + c, with one ocean cell at (0, 3).
func testDataset(t *testing.T) *Dataset {
	t.Helper()

	axis := domain.NewTimeAxisYears(2000, 2001)
	arr := sparse.ZerosDense(axis.Len(), 3, 4)
	for d := 0; d < axis.Len(); d++ {
		for r := 0; r < 3; r++ {
			for c := 0; c < 4; c++ {
				arr.Set(float64(d)*10000+float64(r)*100+float64(c), d, r, c)
			}
		}
	}
	src, err := NewMemSource(arr)
	require.NoError(t, err)

	land := make([]bool, 3*4)
	for i := range land {
		land[i] = true
	}
	land[0*4+3] = false

	ds, err := New(Coords{
		Time: axis,
		Lat:  []float64{30, 35, 40},
		Lon:  []float64{-120, -110, -100, -90},
	}, land, src)
	require.NoError(t, err)
	return ds
}

func TestNewValidation(t *testing.T) {
	axis := domain.NewTimeAxisYears(2000, 2000)
	src, err := NewMemSource(sparse.ZerosDense(axis.Len(), 2, 2))
	require.NoError(t, err)
	land := []bool{true, true, true, true}

	tests := []struct {
		name   string
		coords Coords
		land   []bool
	}{
		{
			name:   "empty longitude",
			coords: Coords{Time: axis, Lat: []float64{30, 35}, Lon: nil},
			land:   land,
		},
		{
			name:   "land mask size mismatch",
			coords: Coords{Time: axis, Lat: []float64{30, 35}, Lon: []float64{-120, -110}},
			land:   []bool{true, true},
		},
		{
			name:   "latitude not increasing",
			coords: Coords{Time: axis, Lat: []float64{35, 30}, Lon: []float64{-120, -110}},
			land:   land,
		},
		{
			name:   "longitude repeated",
			coords: Coords{Time: axis, Lat: []float64{30, 35}, Lon: []float64{-120, -120}},
			land:   land,
		},
		{
			name:   "field shape disagrees",
			coords: Coords{Time: axis, Lat: []float64{30, 35, 40}, Lon: []float64{-120, -110}},
			land:   []bool{true, true, true, true, true, true},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.coords, tt.land, src)
			var shapeErr *domain.ShapeError
			require.ErrorAs(t, err, &shapeErr)
		})
	}
}

func TestReadBlock(t *testing.T) {
	ds := testDataset(t)
	ctx := context.Background()

	block, err := ds.ReadBlock(ctx, 5, 8, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 2, 4}, block.Shape)
	assert.Equal(t, 5.0*10000+100+0, block.Get(0, 0, 0))
	assert.Equal(t, 7.0*10000+200+3, block.Get(2, 1, 3))

	_, err = ds.ReadBlock(ctx, 5, 8, 1, 5)
	assert.Error(t, err)
	_, err = ds.ReadBlock(ctx, -1, 8, 0, 3)
	assert.Error(t, err)
}

func TestLand(t *testing.T) {
	ds := testDataset(t)
	assert.False(t, ds.Land(0, 3))
	assert.True(t, ds.Land(0, 0))
	assert.Equal(t, 11, ds.LandCells())
}

func TestSubsetIdentity(t *testing.T) {
	ds := testDataset(t)
	sub, err := ds.Subset(domain.YearRange{First: 2000, Last: 2001}, 1)
	require.NoError(t, err)
	assert.Same(t, ds, sub)
}

func TestSubsetYears(t *testing.T) {
	ds := testDataset(t)
	sub, err := ds.Subset(domain.YearRange{First: 2001, Last: 2001}, 1)
	require.NoError(t, err)

	assert.Equal(t, 365, sub.Days())
	assert.Equal(t, time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC), sub.TimeAxis().Start())

	// Day 0 of the view is day 366 of the parent (2000 is a leap year).
	block, err := sub.ReadBlock(context.Background(), 0, 1, 0, 3)
	require.NoError(t, err)
	assert.Equal(t, 366.0*10000, block.Get(0, 0, 0))
}

func TestSubsetStride(t *testing.T) {
	ds := testDataset(t)
	sub, err := ds.Subset(domain.YearRange{First: 2000, Last: 2001}, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, sub.Rows())
	assert.Equal(t, 2, sub.Cols())
	assert.Equal(t, []float64{30, 40}, sub.Lat())
	assert.Equal(t, []float64{-120, -100}, sub.Lon())

	// Row 1 col 1 of the view is parent (2, 2).
	block, err := sub.ReadBlock(context.Background(), 10, 12, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 2, 2}, block.Shape)
	assert.Equal(t, 10.0*10000+200+2, block.Get(0, 1, 1))
	assert.Equal(t, 11.0*10000+0+0, block.Get(1, 0, 0))

	// Land survives striding: parent (0, 3) is ocean but is dropped, so
	// every kept cell is land.
	assert.Equal(t, 4, sub.LandCells())
}

func TestSubsetErrors(t *testing.T) {
	ds := testDataset(t)

	var cfgErr *domain.ConfigError
	_, err := ds.Subset(domain.YearRange{First: 2000, Last: 2001}, 0)
	require.ErrorAs(t, err, &cfgErr)

	_, err = ds.Subset(domain.YearRange{First: 1980, Last: 1985}, 1)
	require.ErrorAs(t, err, &cfgErr)

	_, err = ds.Subset(domain.YearRange{First: 2001, Last: 2000}, 1)
	require.ErrorAs(t, err, &cfgErr)
}
