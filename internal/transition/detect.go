package transition

import (
	"fmt"

	"github.com/the1joesmith/ascent-and-spread/internal/raster"
)

// SentinelYear stands in for "never observed in the target state" at
// serialization boundaries. It must compare larger than any real year so a
// minimum-reduction favors any real transition over it. Core logic uses the
// typed Observed flag instead.
const SentinelYear = 9999

// Indicator is one year's binary "in target state" raster.
type Indicator struct {
	Year int
	Grid raster.Grid
	Bits []bool
}

// Raster summarizes the first year each pixel was observed in the target
// state. Years[i] is meaningful only where Observed[i] is true. Valid carries
// the upstream analysis mask so consumers can tell "never transitioned" from
// "no data".
type Raster struct {
	Grid     raster.Grid
	Years    []int
	Observed []bool
	Valid    []bool
}

// FirstYearOrSentinel flattens the typed option for writers: the first
// transition year, or SentinelYear when the pixel never reached the target
// state or sits outside the analysis mask.
func (r Raster) FirstYearOrSentinel(pix int) int {
	if r.Valid[pix] && r.Observed[pix] {
		return r.Years[pix]
	}
	return SentinelYear
}

// Indicators remaps the label series into per-year binary target-state
// rasters.
func Indicators(labels []raster.LabelRaster, target int) []Indicator {
	out := make([]Indicator, len(labels))
	for i, lr := range labels {
		bits := make([]bool, len(lr.Labels))
		for pix, l := range lr.Labels {
			bits[pix] = l == target
		}
		out[i] = Indicator{Year: lr.Year, Grid: lr.Grid, Bits: bits}
	}
	return out
}

// Detect reduces the label series to the earliest target-state year per
// pixel. Labels must arrive in increasing year order on the mask's grid.
// Pixels masked out of the analysis propagate as no-data, not as "never
// transitioned".
func Detect(labels []raster.LabelRaster, target int, mask raster.Mask) (Raster, error) {
	if len(labels) == 0 {
		return Raster{}, fmt.Errorf("%w: empty label series", raster.ErrShape)
	}
	for i, lr := range labels {
		if !lr.Grid.Same(mask.Grid) {
			return Raster{}, fmt.Errorf("%w: label raster %d grid differs from mask grid", raster.ErrShape, lr.Year)
		}
		if i > 0 && lr.Year <= labels[i-1].Year {
			return Raster{}, fmt.Errorf("%w: label years not strictly increasing (%d then %d)", raster.ErrShape, labels[i-1].Year, lr.Year)
		}
	}

	n := mask.Grid.Pixels()
	out := Raster{
		Grid:     mask.Grid,
		Years:    make([]int, n),
		Observed: make([]bool, n),
		Valid:    append([]bool(nil), mask.Bits...),
	}

	// Years come in ascending order, so the first hit per pixel is the
	// minimum.
	for _, lr := range labels {
		for pix, l := range lr.Labels {
			if l != target || out.Observed[pix] || !out.Valid[pix] {
				continue
			}
			out.Observed[pix] = true
			out.Years[pix] = lr.Year
		}
	}
	return out, nil
}
