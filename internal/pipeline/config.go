package pipeline

import (
	"fmt"
	"runtime"

	"github.com/paulmach/orb"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
	"github.com/the1joesmith/ascent-and-spread/internal/zonal"
)

// Config carries every scalar the detection run needs.
type Config struct {
	// Holt smoothing.
	Alpha float64
	Beta  float64

	// k-means.
	K         int
	MaxIter   int
	FitSeed   int64
	GrassBand string

	// Training sampler.
	SampleSize int
	SampleSeed int64
	Oversample float64

	// Northness histograms.
	Bins     int
	HistMin  float64
	HistMax  float64
	MinSlope float64
	Periods  []zonal.Period

	// Tiling.
	TileRows int
	Workers  int
}

// DefaultConfig mirrors the published analysis parameters: gentle level
// smoothing, three vegetation states, 80 northness bins over [-1,1].
func DefaultConfig() Config {
	return Config{
		Alpha:      0.25,
		Beta:       0.01,
		K:          3,
		MaxIter:    100,
		FitSeed:    42,
		GrassBand:  "AFG",
		SampleSize: 5000,
		SampleSeed: 42,
		Oversample: 3,
		Bins:       80,
		HistMin:    -1,
		HistMax:    1,
		MinSlope:   5,
		TileRows:   512,
		Workers:    runtime.NumCPU(),
	}
}

// Validate rejects out-of-range scalars before any work starts.
func (c Config) Validate() error {
	if c.Alpha <= 0 || c.Alpha > 1 {
		return fmt.Errorf("alpha %v outside (0,1]", c.Alpha)
	}
	if c.Beta < 0 || c.Beta > 1 {
		return fmt.Errorf("beta %v outside [0,1]", c.Beta)
	}
	if c.K <= 0 {
		return fmt.Errorf("cluster count %d must be positive", c.K)
	}
	if c.MaxIter <= 0 {
		return fmt.Errorf("max iterations %d must be positive", c.MaxIter)
	}
	if c.GrassBand == "" {
		return fmt.Errorf("annual-grass band name is required")
	}
	if c.SampleSize <= 0 {
		return fmt.Errorf("sample size %d must be positive", c.SampleSize)
	}
	if c.Bins <= 0 {
		return fmt.Errorf("histogram bin count %d must be positive", c.Bins)
	}
	if c.HistMax <= c.HistMin {
		return fmt.Errorf("histogram range [%v,%v] is empty", c.HistMin, c.HistMax)
	}
	if len(c.Periods) == 0 {
		return fmt.Errorf("at least one period is required")
	}
	for _, p := range c.Periods {
		if p.End < p.Start {
			return fmt.Errorf("period %q ends (%d) before it starts (%d)", p.Name, p.End, p.Start)
		}
	}
	if c.Workers <= 0 {
		return fmt.Errorf("worker count %d must be positive", c.Workers)
	}
	return nil
}

func (c Config) histogramConfig() zonal.HistogramConfig {
	return zonal.HistogramConfig{Bins: c.Bins, Min: c.HistMin, Max: c.HistMax, MinSlope: c.MinSlope}
}

// Inputs bundles the shared, read-only collaborator data for one run. Aspect
// and Slope are terrain-derivative rasters over the series grid (degrees);
// StudyArea bounds the training draw; Zones drive the aggregations.
type Inputs struct {
	Series    raster.Series
	Mask      raster.Mask
	StudyArea orb.MultiPolygon
	Zones     []zonal.Zone
	Aspect    []float64
	Slope     []float64
}

func (in Inputs) validate() error {
	if !in.Mask.Grid.Same(in.Series.Grid) {
		return fmt.Errorf("%w: mask grid differs from series grid", raster.ErrShape)
	}
	n := in.Series.Grid.Pixels()
	if len(in.Aspect) != n || len(in.Slope) != n {
		return fmt.Errorf("%w: terrain rasters do not match the series grid", raster.ErrShape)
	}
	if len(in.Zones) == 0 {
		return fmt.Errorf("at least one zone is required")
	}
	return nil
}
