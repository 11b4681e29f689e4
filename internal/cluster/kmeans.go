package cluster

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/the1joesmith/ascent-and-spread/internal/raster"
	"gonum.org/v1/gonum/floats"
)

// ErrNotFitted is returned when a zero-value Model is asked to classify.
// Classifying before fitting is a programming-contract violation.
var ErrNotFitted = errors.New("cluster model not fitted")

// Config controls the k-means fit.
type Config struct {
	K       int
	MaxIter int
	Seed    int64
}

// Model is an immutable set of k centroids in band-space. It is fit exactly
// once per run and shared read-only by every classification call; Predict is
// a pure function of (model, vector). The exported field exists for the JSON
// model cache, callers must not modify it.
type Model struct {
	Centroids [][]float64 `json:"centroids"`
}

// Fitted reports whether the model holds centroids.
func (m Model) Fitted() bool {
	return len(m.Centroids) > 0
}

// Fit runs Lloyd's k-means on the sample vectors with Euclidean distance.
// Centroid initialization picks cfg.K distinct sample vectors from a seeded
// source. Iteration stops at cfg.MaxIter or when no assignment changes. An
// emptied cluster keeps its previous centroid.
func Fit(samples [][]float64, cfg Config) (Model, error) {
	if cfg.K <= 0 {
		return Model{}, fmt.Errorf("cluster count %d must be positive", cfg.K)
	}
	if cfg.MaxIter <= 0 {
		return Model{}, fmt.Errorf("max iterations %d must be positive", cfg.MaxIter)
	}
	if len(samples) < cfg.K {
		return Model{}, fmt.Errorf("%d samples cannot seed %d clusters", len(samples), cfg.K)
	}
	dims := len(samples[0])
	for i, s := range samples {
		if len(s) != dims {
			return Model{}, fmt.Errorf("sample %d has %d dimensions, expected %d", i, len(s), dims)
		}
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	centroids := make([][]float64, cfg.K)
	for i, pick := range rng.Perm(len(samples))[:cfg.K] {
		centroids[i] = append([]float64(nil), samples[pick]...)
	}

	assign := make([]int, len(samples))
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < cfg.MaxIter; iter++ {
		changed := false
		for i, s := range samples {
			best := nearest(centroids, s)
			if best != assign[i] {
				assign[i] = best
				changed = true
			}
		}
		if !changed {
			break
		}

		sums := make([][]float64, cfg.K)
		counts := make([]int, cfg.K)
		for i := range sums {
			sums[i] = make([]float64, dims)
		}
		for i, s := range samples {
			floats.Add(sums[assign[i]], s)
			counts[assign[i]]++
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			floats.Scale(1/float64(counts[c]), sums[c])
			centroids[c] = sums[c]
		}
	}

	return Model{Centroids: centroids}, nil
}

// nearest returns the index of the closest centroid; equidistant centroids
// resolve to the lowest index.
func nearest(centroids [][]float64, vec []float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for c, centroid := range centroids {
		d := floats.Distance(vec, centroid, 2)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

// Predict assigns a single band vector to its nearest centroid.
func (m Model) Predict(vec []float64) (int, error) {
	if !m.Fitted() {
		return 0, ErrNotFitted
	}
	if len(vec) != len(m.Centroids[0]) {
		return 0, fmt.Errorf("vector has %d dimensions, centroids have %d", len(vec), len(m.Centroids[0]))
	}
	return nearest(m.Centroids, vec), nil
}

// ClassifySeries labels every pixel of every epoch with its nearest centroid,
// producing one LabelRaster per year. The pipeline feeds it the smoothed
// series; the function itself only sees band vectors.
func (m Model) ClassifySeries(s raster.Series) ([]raster.LabelRaster, error) {
	if !m.Fitted() {
		return nil, ErrNotFitted
	}
	if len(s.Bands) != len(m.Centroids[0]) {
		return nil, fmt.Errorf("%w: series has %d bands, centroids have %d dimensions", raster.ErrShape, len(s.Bands), len(m.Centroids[0]))
	}

	out := make([]raster.LabelRaster, len(s.Epochs))
	vec := make([]float64, len(s.Bands))
	for i, e := range s.Epochs {
		labels := make([]int, s.Grid.Pixels())
		for pix := range labels {
			e.Vector(pix, vec)
			labels[pix] = nearest(m.Centroids, vec)
		}
		out[i] = raster.LabelRaster{Year: e.Year, Grid: s.Grid, Labels: labels}
	}
	return out, nil
}
