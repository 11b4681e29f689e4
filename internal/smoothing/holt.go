package smoothing

import (
	"fmt"

	"github.com/the1joesmith/ascent-and-spread/internal/raster"
)

// Holt is a double-exponential smoother: Alpha weighs the level update,
// Beta weighs the trend update.
type Holt struct {
	Alpha float64
	Beta  float64
}

// NewHolt validates alpha in (0,1] and beta in [0,1].
func NewHolt(alpha, beta float64) (Holt, error) {
	if alpha <= 0 || alpha > 1 {
		return Holt{}, fmt.Errorf("holt alpha %v outside (0,1]", alpha)
	}
	if beta < 0 || beta > 1 {
		return Holt{}, fmt.Errorf("holt beta %v outside [0,1]", beta)
	}
	return Holt{Alpha: alpha, Beta: beta}, nil
}

// State carries the per-pixel, per-band smoothing recurrence between years.
type State struct {
	Level float64
	Trend float64
}

// Step advances the recurrence by one observation and returns the new state
// and the smoothed level for this year. Cover fractions cannot be negative,
// so the level is clamped at zero before the trend update sees it.
func (h Holt) Step(s State, obs float64) (State, float64) {
	level := h.Alpha*obs + (1-h.Alpha)*(s.Level+s.Trend)
	if level < 0 {
		level = 0
	}
	trend := h.Beta*(level-s.Level) + (1-h.Beta)*s.Trend
	return State{Level: level, Trend: trend}, level
}

// Smooth produces a new series of the same length where each epoch holds the
// Holt-smoothed level per band. The first year passes through as-is with zero
// trend. Years must be processed in increasing order; every pixel's chain is
// independent of every other pixel's, so callers parallelize across space,
// never across time.
func (h Holt) Smooth(s raster.Series) (raster.Series, error) {
	if len(s.Epochs) == 0 {
		return raster.Series{}, fmt.Errorf("%w: cannot smooth empty series", raster.ErrShape)
	}

	out := make([]raster.Epoch, len(s.Epochs))
	for i, e := range s.Epochs {
		data := make([][]float64, len(s.Bands))
		for b := range data {
			data[b] = make([]float64, s.Grid.Pixels())
		}
		epoch, err := raster.NewEpoch(e.Year, s.Grid, s.Bands, data)
		if err != nil {
			return raster.Series{}, err
		}
		out[i] = epoch
	}

	for b := range s.Bands {
		first := s.Epochs[0].Data[b]
		copy(out[0].Data[b], first)
		for pix := 0; pix < s.Grid.Pixels(); pix++ {
			st := State{Level: first[pix], Trend: 0}
			for t := 1; t < len(s.Epochs); t++ {
				var level float64
				st, level = h.Step(st, s.Epochs[t].Data[b][pix])
				out[t].Data[b][pix] = level
			}
		}
	}

	return raster.NewSeries(out)
}
