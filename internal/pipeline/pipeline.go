package pipeline

import (
	"fmt"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/schollz/progressbar/v3"
	"github.com/the1joesmith/ascent-and-spread/internal/cluster"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
	"github.com/the1joesmith/ascent-and-spread/internal/sampling"
	"github.com/the1joesmith/ascent-and-spread/internal/smoothing"
	"github.com/the1joesmith/ascent-and-spread/internal/transition"
	"github.com/the1joesmith/ascent-and-spread/internal/zonal"
)

// Result holds everything a detection run produces: the fitted model and
// target label, the full-grid label and indicator series, the transition
// raster, and the two aggregate tables.
type Result struct {
	Model      cluster.Model
	Target     int
	Labels     []raster.LabelRaster
	Indicators []transition.Indicator
	Transition transition.Raster
	Areal      []zonal.ArealRecord
	Histograms []zonal.HistogramRecord
}

// FitModel draws the stratified training sample from the raw series and fits
// the cluster model on it. This is the one blocking, non-parallel phase; the
// returned model is immutable and shared read-only by every tile. The target
// label is the centroid highest on the annual-grass band.
func FitModel(in Inputs, cfg Config) (cluster.Model, int, error) {
	grassBand := in.Series.BandIndex(cfg.GrassBand)
	if grassBand < 0 {
		return cluster.Model{}, 0, fmt.Errorf("%w: series has no %q band", raster.ErrShape, cfg.GrassBand)
	}

	fmt.Printf("Sampling %d training vectors\n", cfg.SampleSize)
	samples, err := sampling.Sample(in.Series, in.Mask, in.StudyArea, sampling.Config{
		Size:       cfg.SampleSize,
		Oversample: cfg.Oversample,
		Seed:       cfg.SampleSeed,
	})
	if err != nil {
		return cluster.Model{}, 0, fmt.Errorf("training sample failed: %w", err)
	}

	model, err := cluster.Fit(samples, cluster.Config{K: cfg.K, MaxIter: cfg.MaxIter, Seed: cfg.FitSeed})
	if err != nil {
		return cluster.Model{}, 0, fmt.Errorf("cluster fit failed: %w", err)
	}

	target, err := cluster.TargetLabel(model, grassBand)
	if err != nil {
		return cluster.Model{}, 0, err
	}
	fmt.Printf("Fitted %d clusters, target label %d\n", cfg.K, target)
	return model, target, nil
}

// Run executes the tile phase with an already-fitted model: per tile, smooth
// the raw series, classify it, detect first transitions and reduce the zonal
// partials. Tiles share only read-only inputs; each writes its disjoint row
// band of the full-grid outputs, and the map-valued partials merge under one
// mutex with commutative sums, so any tiling yields identical results.
func Run(in Inputs, cfg Config, model cluster.Model, target int) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	if !model.Fitted() {
		return nil, cluster.ErrNotFitted
	}

	grid := in.Series.Grid
	years := in.Series.Years()
	zi := zonal.BuildZoneIndex(grid, in.Zones)

	result := &Result{
		Model:  model,
		Target: target,
		Labels: make([]raster.LabelRaster, len(years)),
		Transition: transition.Raster{
			Grid:     grid,
			Years:    make([]int, grid.Pixels()),
			Observed: make([]bool, grid.Pixels()),
			Valid:    make([]bool, grid.Pixels()),
		},
	}
	result.Indicators = make([]transition.Indicator, len(years))
	for i, y := range years {
		result.Labels[i] = raster.LabelRaster{Year: y, Grid: grid, Labels: make([]int, grid.Pixels())}
		result.Indicators[i] = transition.Indicator{Year: y, Grid: grid, Bits: make([]bool, grid.Pixels())}
	}

	holt, err := smoothing.NewHolt(cfg.Alpha, cfg.Beta)
	if err != nil {
		return nil, err
	}

	tiles := grid.Tiles(cfg.TileRows)
	progressBar := progressbar.Default(int64(len(tiles)), "Processing tiles")

	var (
		mu         sync.Mutex
		arealSums  = make(map[zonal.ArealKey]float64)
		histCounts = make(map[zonal.HistKey][]float64)
		errChan    = make(chan error, 1)
		firstErr   sync.Once
	)

	wp := workerpool.New(cfg.Workers)
	for _, tile := range tiles {
		t := tile
		wp.Submit(func() {
			partial, err := runTile(in, holt, model, target, zi, cfg, t)
			if err != nil {
				firstErr.Do(func() { errChan <- fmt.Errorf("tile at row %d: %w", t.Y0, err) })
				return
			}

			off := t.Offset(grid)
			for i := range years {
				copy(result.Labels[i].Labels[off:], partial.labels[i].Labels)
				copy(result.Indicators[i].Bits[off:], partial.indicators[i].Bits)
			}
			copy(result.Transition.Years[off:], partial.transition.Years)
			copy(result.Transition.Observed[off:], partial.transition.Observed)
			copy(result.Transition.Valid[off:], partial.transition.Valid)

			mu.Lock()
			for k, v := range partial.arealSums {
				arealSums[k] += v
			}
			for k, binned := range partial.histCounts {
				if histCounts[k] == nil {
					histCounts[k] = make([]float64, cfg.Bins)
				}
				for b, c := range binned {
					histCounts[k][b] += c
				}
			}
			progressBar.Add(1)
			mu.Unlock()
		})
	}

	go func() {
		wp.StopWait()
		close(errChan)
	}()
	if err := <-errChan; err != nil {
		return nil, err
	}
	progressBar.Finish()

	result.Areal = zonal.ArealRecords(arealSums, zi.IDs, years)
	result.Histograms = zonal.HistogramRecords(histCounts, zi.IDs, cfg.Periods, cfg.histogramConfig())
	return result, nil
}

// Detect is the whole pipeline in one call: fit, then run.
func Detect(in Inputs, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	model, target, err := FitModel(in, cfg)
	if err != nil {
		return nil, err
	}
	return Run(in, cfg, model, target)
}

type tilePartial struct {
	labels     []raster.LabelRaster
	indicators []transition.Indicator
	transition transition.Raster
	arealSums  map[zonal.ArealKey]float64
	histCounts map[zonal.HistKey][]float64
}

// runTile is the pure per-tile transform. It has no partial-resume point mid
// series (the smoothing recurrence restarts at the first year), so a failed
// tile retries as a whole.
func runTile(in Inputs, holt smoothing.Holt, model cluster.Model, target int, zi zonal.ZoneIndex, cfg Config, t raster.Tile) (*tilePartial, error) {
	sub, err := in.Series.Crop(t)
	if err != nil {
		return nil, err
	}
	mask, err := in.Mask.Crop(t)
	if err != nil {
		return nil, err
	}
	tileZi, err := zi.Crop(t)
	if err != nil {
		return nil, err
	}
	off := t.Offset(in.Series.Grid)
	n := sub.Grid.Pixels()
	aspect := in.Aspect[off : off+n]
	slope := in.Slope[off : off+n]

	smoothed, err := holt.Smooth(sub)
	if err != nil {
		return nil, err
	}
	labels, err := model.ClassifySeries(smoothed)
	if err != nil {
		return nil, err
	}
	indicators := transition.Indicators(labels, target)
	tr, err := transition.Detect(labels, target, mask)
	if err != nil {
		return nil, err
	}

	partial := &tilePartial{
		labels:     labels,
		indicators: indicators,
		transition: tr,
		arealSums:  make(map[zonal.ArealKey]float64),
		histCounts: make(map[zonal.HistKey][]float64),
	}
	if err := zonal.AccumulateAreal(partial.arealSums, indicators, mask, tileZi); err != nil {
		return nil, err
	}
	if err := zonal.AccumulateHistograms(partial.histCounts, tr, aspect, slope, tileZi, cfg.Periods, cfg.histogramConfig()); err != nil {
		return nil, err
	}
	return partial, nil
}
