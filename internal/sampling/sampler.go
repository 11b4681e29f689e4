package sampling

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
)

// ErrInsufficientSample is returned when oversampling still leaves fewer
// valid vectors than the requested size.
var ErrInsufficientSample = errors.New("insufficient training sample")

// Config controls the training draw. Oversample is the candidate multiplier
// covering candidates lost to the mask and study-area filters; it defaults
// to 3 when zero.
type Config struct {
	Size       int
	Oversample float64
	Seed       int64
}

// Sample draws cfg.Size raw band vectors for clustering. Candidate locations
// come from a jittered lattice over the study area's bounding box, so the
// draw is spatially stratified rather than clumped; each candidate gets an
// independent uniform year index. Candidates off-mask or outside the study
// polygon are dropped. Given the same seed, mask, study area and series the
// returned vectors are identical.
func Sample(s raster.Series, mask raster.Mask, study orb.MultiPolygon, cfg Config) ([][]float64, error) {
	if cfg.Size <= 0 {
		return nil, fmt.Errorf("sample size %d must be positive", cfg.Size)
	}
	if !mask.Grid.Same(s.Grid) {
		return nil, fmt.Errorf("%w: sampling mask grid differs from series grid", raster.ErrShape)
	}
	if len(study) == 0 {
		return nil, errors.New("empty study area")
	}

	over := cfg.Oversample
	if over <= 1 {
		over = 3
	}
	candidates := int(math.Ceil(float64(cfg.Size) * over))

	bound := study.Bound()
	// One lattice cell per candidate, laid out to roughly match the bounding
	// box aspect ratio.
	cols := int(math.Ceil(math.Sqrt(float64(candidates) * (bound.Max[0] - bound.Min[0]) / math.Max(bound.Max[1]-bound.Min[1], 1e-12))))
	if cols < 1 {
		cols = 1
	}
	rows := (candidates + cols - 1) / cols
	cellW := (bound.Max[0] - bound.Min[0]) / float64(cols)
	cellH := (bound.Max[1] - bound.Min[1]) / float64(rows)

	rng := rand.New(rand.NewSource(cfg.Seed))
	vectors := make([][]float64, 0, cfg.Size)

	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			// Draws happen for every cell regardless of the filters below so
			// the rng stream, and therefore the sample, stays reproducible.
			px := bound.Min[0] + (float64(col)+rng.Float64())*cellW
			py := bound.Min[1] + (float64(row)+rng.Float64())*cellH
			yearIdx := rng.Intn(len(s.Epochs))

			if !planar.MultiPolygonContains(study, orb.Point{px, py}) {
				continue
			}
			x, y, ok := s.Grid.MapToPixel(px, py)
			if !ok {
				continue
			}
			pix := s.Grid.Index(x, y)
			if !mask.Bits[pix] {
				continue
			}

			vec := make([]float64, len(s.Bands))
			s.Epochs[yearIdx].Vector(pix, vec)
			vectors = append(vectors, vec)
		}
	}

	if len(vectors) < cfg.Size {
		return nil, fmt.Errorf("%w: wanted %d vectors, only %d candidates survived the mask and study-area filters", ErrInsufficientSample, cfg.Size, len(vectors))
	}
	return vectors[:cfg.Size], nil
}
