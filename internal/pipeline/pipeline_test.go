package pipeline

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/the1joesmith/ascent-and-spread/internal/cluster"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
	"github.com/the1joesmith/ascent-and-spread/internal/zonal"
)

// 8x8 grid of 100m pixels. The north half of the map converts to high
// annual-grass cover from 2002 on; the south half never does.
func testInputs(t *testing.T) Inputs {
	t.Helper()
	grid := raster.Grid{Width: 8, Height: 8, GeoTransform: [6]float64{0, 100, 0, 800, 0, -100}}

	years := []int{2000, 2001, 2002, 2003, 2004, 2005}
	epochs := make([]raster.Epoch, len(years))
	for i, year := range years {
		afg := make([]float64, grid.Pixels())
		pfg := make([]float64, grid.Pixels())
		for y := 0; y < grid.Height; y++ {
			for x := 0; x < grid.Width; x++ {
				pix := grid.Index(x, y)
				converted := y < grid.Height/2 && year >= 2002
				if converted {
					afg[pix] = 80
					pfg[pix] = 10
				} else {
					afg[pix] = 5
					pfg[pix] = 60
				}
			}
		}
		e, err := raster.NewEpoch(year, grid, []string{"AFG", "PFG"}, [][]float64{afg, pfg})
		require.NoError(t, err)
		epochs[i] = e
	}
	series, err := raster.NewSeries(epochs)
	require.NoError(t, err)

	n := grid.Pixels()
	aspect := make([]float64, n)
	slope := make([]float64, n)
	for i := range slope {
		slope[i] = 10
	}

	return Inputs{
		Series:    series,
		Mask:      raster.FullMask(grid),
		StudyArea: orb.MultiPolygon{{{{0, 0}, {800, 0}, {800, 800}, {0, 800}, {0, 0}}}},
		Zones: []zonal.Zone{
			{ID: "north", Geometry: orb.MultiPolygon{{{{0, 400}, {800, 400}, {800, 800}, {0, 800}, {0, 400}}}}},
			{ID: "south", Geometry: orb.MultiPolygon{{{{0, 0}, {800, 0}, {800, 400}, {0, 400}, {0, 0}}}}},
		},
		Aspect: aspect,
		Slope:  slope,
	}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.SampleSize = 40
	cfg.Oversample = 5
	cfg.K = 2
	cfg.Bins = 4
	cfg.Periods = []zonal.Period{
		{Name: "early", Start: 2000, End: 2002},
		{Name: "late", Start: 2003, End: 2005},
	}
	cfg.TileRows = 8
	cfg.Workers = 2
	return cfg
}

func TestDetectEndToEnd(t *testing.T) {
	in := testInputs(t)
	cfg := testConfig()

	result, err := Detect(in, cfg)
	require.NoError(t, err)

	grid := in.Series.Grid
	require.Len(t, result.Labels, 6)
	require.Len(t, result.Indicators, 6)
	require.Len(t, result.Transition.Years, grid.Pixels())

	// Every north-half pixel eventually reaches the target state in the same
	// year; the smoothed level needs a few years to cross the centroid
	// midpoint, so it lags the raw 2002 shift.
	northYear := result.Transition.Years[0]
	require.True(t, result.Transition.Observed[0])
	assert.GreaterOrEqual(t, northYear, 2002)
	for y := 0; y < 4; y++ {
		for x := 0; x < 8; x++ {
			pix := grid.Index(x, y)
			assert.True(t, result.Transition.Observed[pix])
			assert.Equal(t, northYear, result.Transition.Years[pix])
		}
	}
	// The south half never converts.
	for y := 4; y < 8; y++ {
		for x := 0; x < 8; x++ {
			assert.False(t, result.Transition.Observed[grid.Index(x, y)])
		}
	}

	// Areal totals: the full (zone, year) product, 32 ha of north transition
	// per year from the transition year on, zero south.
	require.Len(t, result.Areal, 2*6)
	for _, rec := range result.Areal {
		switch {
		case rec.Zone == "south":
			assert.Zero(t, rec.AreaHa)
		case rec.Year < northYear:
			assert.Zero(t, rec.AreaHa)
		default:
			assert.InDelta(t, 32, rec.AreaHa, 1e-9)
		}
	}

	// Histogram rows cover the full (zone, period, bin) product; every
	// defined proportion set sums to one.
	require.Len(t, result.Histograms, 2*2*4)
	sums := make(map[string]float64)
	defined := make(map[string]bool)
	for _, rec := range result.Histograms {
		key := rec.Zone + "/" + rec.Period
		if rec.Proportion != nil {
			defined[key] = true
			sums[key] += *rec.Proportion
		}
	}
	for key, sum := range sums {
		assert.InDelta(t, 1, sum, 1e-6, key)
	}
	assert.False(t, defined["south/early"])
	assert.False(t, defined["south/late"])
}

func TestRunRetilingInvariance(t *testing.T) {
	in := testInputs(t)
	cfg := testConfig()

	model, target, err := FitModel(in, cfg)
	require.NoError(t, err)

	wholeCfg := cfg
	wholeCfg.TileRows = in.Series.Grid.Height
	whole, err := Run(in, wholeCfg, model, target)
	require.NoError(t, err)

	tiledCfg := cfg
	tiledCfg.TileRows = 3
	tiled, err := Run(in, tiledCfg, model, target)
	require.NoError(t, err)

	assert.Equal(t, whole.Labels, tiled.Labels)
	assert.Equal(t, whole.Indicators, tiled.Indicators)
	assert.Equal(t, whole.Transition, tiled.Transition)
	assert.Equal(t, whole.Areal, tiled.Areal)
	assert.Equal(t, whole.Histograms, tiled.Histograms)
}

func TestRunRequiresFittedModel(t *testing.T) {
	in := testInputs(t)
	cfg := testConfig()
	_, err := Run(in, cfg, cluster.Model{}, 0)
	require.ErrorIs(t, err, cluster.ErrNotFitted)
}

func TestConfigValidate(t *testing.T) {
	cfg := testConfig()
	require.NoError(t, cfg.Validate())

	bad := cfg
	bad.Alpha = 0
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Beta = 1.5
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Periods = nil
	require.Error(t, bad.Validate())

	bad = cfg
	bad.Periods = []zonal.Period{{Name: "x", Start: 2005, End: 2000}}
	require.Error(t, bad.Validate())

	bad = cfg
	bad.HistMin, bad.HistMax = 1, -1
	require.Error(t, bad.Validate())
}

func TestFitModelRequiresGrassBand(t *testing.T) {
	in := testInputs(t)
	cfg := testConfig()
	cfg.GrassBand = "SAGEBRUSH"
	_, _, err := FitModel(in, cfg)
	require.ErrorIs(t, err, raster.ErrShape)
}
