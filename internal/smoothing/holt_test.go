package smoothing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
)

func seriesFromSequence(t *testing.T, values ...float64) raster.Series {
	t.Helper()
	grid := raster.Grid{Width: 1, Height: 1, GeoTransform: [6]float64{0, 1, 0, 1, 0, -1}}
	epochs := make([]raster.Epoch, len(values))
	for i, v := range values {
		e, err := raster.NewEpoch(2000+i, grid, []string{"AFG"}, [][]float64{{v}})
		require.NoError(t, err)
		epochs[i] = e
	}
	s, err := raster.NewSeries(epochs)
	require.NoError(t, err)
	return s
}

func TestNewHoltValidatesParameters(t *testing.T) {
	_, err := NewHolt(0, 0.5)
	require.Error(t, err)
	_, err = NewHolt(1.1, 0.5)
	require.Error(t, err)
	_, err = NewHolt(0.5, -0.1)
	require.Error(t, err)
	_, err = NewHolt(1, 0)
	require.NoError(t, err)
}

func TestSmoothHandComputedRecurrence(t *testing.T) {
	h, err := NewHolt(0.25, 0.01)
	require.NoError(t, err)

	out, err := h.Smooth(seriesFromSequence(t, 10, 20, 30))
	require.NoError(t, err)
	require.Len(t, out.Epochs, 3)

	// Year 1 passes through; year 2 is 0.25*20 + 0.75*(10+0) = 12.5;
	// year 3 follows with trend 0.01*(12.5-10) = 0.025 carried in:
	// 0.25*30 + 0.75*(12.5+0.025) = 16.89375.
	assert.InDelta(t, 10, out.Epochs[0].Data[0][0], 1e-9)
	assert.InDelta(t, 12.5, out.Epochs[1].Data[0][0], 1e-4)
	assert.InDelta(t, 16.89375, out.Epochs[2].Data[0][0], 1e-4)
}

func TestSmoothDegenerateParametersPassThrough(t *testing.T) {
	h, err := NewHolt(1, 0)
	require.NoError(t, err)

	out, err := h.Smooth(seriesFromSequence(t, 37.5, 81.25))
	require.NoError(t, err)
	assert.Equal(t, 37.5, out.Epochs[0].Data[0][0])
	assert.Equal(t, 81.25, out.Epochs[1].Data[0][0])
}

func TestSmoothNeverNegative(t *testing.T) {
	h, err := NewHolt(0.9, 0.9)
	require.NoError(t, err)

	// A hard crash after a steep climb drives the raw recurrence negative.
	out, err := h.Smooth(seriesFromSequence(t, 100, 50, 0, 0, 0, 0))
	require.NoError(t, err)
	for _, e := range out.Epochs {
		assert.GreaterOrEqual(t, e.Data[0][0], 0.0)
	}
}

func TestSmoothSingleEpoch(t *testing.T) {
	h, err := NewHolt(0.25, 0.01)
	require.NoError(t, err)

	out, err := h.Smooth(seriesFromSequence(t, 42))
	require.NoError(t, err)
	require.Len(t, out.Epochs, 1)
	assert.Equal(t, 42.0, out.Epochs[0].Data[0][0])
}

func TestSmoothDoesNotMutateInput(t *testing.T) {
	h, err := NewHolt(0.25, 0.01)
	require.NoError(t, err)

	in := seriesFromSequence(t, 10, 20, 30)
	_, err = h.Smooth(in)
	require.NoError(t, err)
	assert.Equal(t, 20.0, in.Epochs[1].Data[0][0])
}

func TestStepIsPure(t *testing.T) {
	h := Holt{Alpha: 0.5, Beta: 0.5}
	st := State{Level: 10, Trend: 1}
	a1, l1 := h.Step(st, 20)
	a2, l2 := h.Step(st, 20)
	assert.Equal(t, a1, a2)
	assert.Equal(t, l1, l2)
	assert.Equal(t, State{Level: 10, Trend: 1}, st)
}
