package raster

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGrid(w, h int) Grid {
	return Grid{
		Width:        w,
		Height:       h,
		GeoTransform: [6]float64{0, 1, 0, float64(h), 0, -1},
	}
}

func testEpoch(t *testing.T, year int, grid Grid, fill float64) Epoch {
	t.Helper()
	data := make([][]float64, 2)
	for b := range data {
		data[b] = make([]float64, grid.Pixels())
		for i := range data[b] {
			data[b][i] = fill
		}
	}
	e, err := NewEpoch(year, grid, []string{"AFG", "PFG"}, data)
	require.NoError(t, err)
	return e
}

func TestNewSeriesRejectsUnorderedYears(t *testing.T) {
	grid := testGrid(2, 2)
	_, err := NewSeries([]Epoch{
		testEpoch(t, 2001, grid, 1),
		testEpoch(t, 2001, grid, 2),
	})
	require.ErrorIs(t, err, ErrShape)

	_, err = NewSeries([]Epoch{
		testEpoch(t, 2002, grid, 1),
		testEpoch(t, 2001, grid, 2),
	})
	require.ErrorIs(t, err, ErrShape)
}

func TestNewSeriesRejectsGridMismatch(t *testing.T) {
	_, err := NewSeries([]Epoch{
		testEpoch(t, 2001, testGrid(2, 2), 1),
		testEpoch(t, 2002, testGrid(3, 2), 2),
	})
	require.ErrorIs(t, err, ErrShape)
}

func TestNewSeriesRejectsBandMismatch(t *testing.T) {
	grid := testGrid(2, 2)
	a := testEpoch(t, 2001, grid, 1)
	b := testEpoch(t, 2002, grid, 2)
	b.Bands = []string{"AFG", "SHR"}
	_, err := NewSeries([]Epoch{a, b})
	require.ErrorIs(t, err, ErrShape)
}

func TestNewSeriesToleratesYearGaps(t *testing.T) {
	grid := testGrid(2, 2)
	s, err := NewSeries([]Epoch{
		testEpoch(t, 2001, grid, 1),
		testEpoch(t, 2005, grid, 2),
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2001, 2005}, s.Years())
}

func TestNewEpochRejectsShortBand(t *testing.T) {
	grid := testGrid(2, 2)
	_, err := NewEpoch(2001, grid, []string{"AFG"}, [][]float64{{1, 2}})
	require.ErrorIs(t, err, ErrShape)
}

func TestCropRowBand(t *testing.T) {
	grid := testGrid(3, 4)
	data := [][]float64{make([]float64, grid.Pixels())}
	for i := range data[0] {
		data[0][i] = float64(i)
	}
	e, err := NewEpoch(2001, grid, []string{"AFG"}, data)
	require.NoError(t, err)

	tile := Tile{Y0: 1, Height: 2}
	sub, err := e.Crop(tile)
	require.NoError(t, err)
	assert.Equal(t, 2, sub.Grid.Height)
	assert.Equal(t, 3, sub.Grid.Width)
	// Rows 1 and 2 of a 3-wide grid.
	assert.Equal(t, []float64{3, 4, 5, 6, 7, 8}, sub.Data[0])

	// Cropped grid origin moves down by Y0 rows.
	_, my := sub.Grid.PixelCenter(0, 0)
	_, wantY := grid.PixelCenter(0, 1)
	assert.Equal(t, wantY, my)
}

func TestCropOutsideGrid(t *testing.T) {
	grid := testGrid(3, 4)
	_, err := grid.Crop(Tile{Y0: 3, Height: 2})
	require.ErrorIs(t, err, ErrShape)
}

func TestTilesCoverGrid(t *testing.T) {
	grid := testGrid(3, 10)
	tiles := grid.Tiles(4)
	require.Len(t, tiles, 3)
	total := 0
	for _, tl := range tiles {
		total += tl.Height
	}
	assert.Equal(t, grid.Height, total)
	assert.Equal(t, 2, tiles[2].Height)
}

func TestMapToPixelRoundTrip(t *testing.T) {
	grid := testGrid(4, 4)
	mx, my := grid.PixelCenter(2, 1)
	x, y, ok := grid.MapToPixel(mx, my)
	require.True(t, ok)
	assert.Equal(t, 2, x)
	assert.Equal(t, 1, y)

	_, _, ok = grid.MapToPixel(-1, 0)
	assert.False(t, ok)
}
