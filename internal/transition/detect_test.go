package transition

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
)

var detectGrid = raster.Grid{Width: 2, Height: 2, GeoTransform: [6]float64{0, 1, 0, 2, 0, -1}}

func labelYears(years []int, labels ...[]int) []raster.LabelRaster {
	out := make([]raster.LabelRaster, len(years))
	for i, y := range years {
		out[i] = raster.LabelRaster{Year: y, Grid: detectGrid, Labels: labels[i]}
	}
	return out
}

func TestDetectFirstYearIsMinimum(t *testing.T) {
	// Pixel 0 is target in 2001 and 2003, pixel 1 only in 2003,
	// pixel 2 never, pixel 3 in every year.
	labels := labelYears([]int{2001, 2002, 2003},
		[]int{0, 1, 1, 0},
		[]int{1, 1, 1, 0},
		[]int{0, 0, 1, 0},
	)

	tr, err := Detect(labels, 0, raster.FullMask(detectGrid))
	require.NoError(t, err)

	assert.True(t, tr.Observed[0])
	assert.Equal(t, 2001, tr.Years[0])
	assert.True(t, tr.Observed[1])
	assert.Equal(t, 2003, tr.Years[1])
	assert.False(t, tr.Observed[2])
	assert.True(t, tr.Observed[3])
	assert.Equal(t, 2001, tr.Years[3])
}

func TestDetectNeverTransitionedUsesSentinel(t *testing.T) {
	labels := labelYears([]int{2001}, []int{1, 1, 1, 1})
	tr, err := Detect(labels, 0, raster.FullMask(detectGrid))
	require.NoError(t, err)

	for pix := 0; pix < 4; pix++ {
		assert.False(t, tr.Observed[pix])
		assert.Equal(t, SentinelYear, tr.FirstYearOrSentinel(pix))
	}
}

func TestDetectMaskedPixelIsNoData(t *testing.T) {
	labels := labelYears([]int{2001}, []int{0, 0, 0, 0})
	bits := []bool{true, false, true, true}
	mask, err := raster.NewMask(detectGrid, bits)
	require.NoError(t, err)

	tr, err := Detect(labels, 0, mask)
	require.NoError(t, err)

	// Pixel 1 was labeled target but sits outside the analysis mask: it is
	// no-data, not "never transitioned", and never observed.
	assert.False(t, tr.Valid[1])
	assert.False(t, tr.Observed[1])
	assert.Equal(t, SentinelYear, tr.FirstYearOrSentinel(1))
	assert.True(t, tr.Observed[0])
}

func TestDetectRejectsUnorderedYears(t *testing.T) {
	labels := labelYears([]int{2002, 2001}, []int{0, 0, 0, 0}, []int{0, 0, 0, 0})
	_, err := Detect(labels, 0, raster.FullMask(detectGrid))
	require.ErrorIs(t, err, raster.ErrShape)
}

func TestDetectRejectsGridMismatch(t *testing.T) {
	other := raster.Grid{Width: 3, Height: 1, GeoTransform: [6]float64{0, 1, 0, 1, 0, -1}}
	labels := []raster.LabelRaster{{Year: 2001, Grid: other, Labels: []int{0, 0, 0}}}
	_, err := Detect(labels, 0, raster.FullMask(detectGrid))
	require.ErrorIs(t, err, raster.ErrShape)
}

func TestIndicators(t *testing.T) {
	labels := labelYears([]int{2001, 2002},
		[]int{0, 1, 2, 0},
		[]int{1, 0, 0, 2},
	)
	inds := Indicators(labels, 0)
	require.Len(t, inds, 2)
	assert.Equal(t, []bool{true, false, false, true}, inds[0].Bits)
	assert.Equal(t, []bool{false, true, true, false}, inds[1].Bits)
	assert.Equal(t, 2001, inds[0].Year)
}

func TestSentinelComparesLargerThanAnyRealYear(t *testing.T) {
	assert.Greater(t, SentinelYear, 2100)
}
