package raster

import (
	"fmt"
	"slices"
)

// Series is a year-ordered sequence of Epochs over one Grid with one band
// set. Years must be strictly increasing; calendar gaps are tolerated, the
// smoother treats each element as the next observed year.
type Series struct {
	Grid   Grid
	Bands  []string
	Epochs []Epoch
}

// NewSeries validates ordering and uniformity of the epochs.
func NewSeries(epochs []Epoch) (Series, error) {
	if len(epochs) == 0 {
		return Series{}, fmt.Errorf("%w: empty series", ErrShape)
	}
	first := epochs[0]
	for i, e := range epochs {
		if i > 0 && e.Year <= epochs[i-1].Year {
			return Series{}, fmt.Errorf("%w: years not strictly increasing (%d then %d)", ErrShape, epochs[i-1].Year, e.Year)
		}
		if !e.Grid.Same(first.Grid) {
			return Series{}, fmt.Errorf("%w: epoch %d grid differs from epoch %d", ErrShape, e.Year, first.Year)
		}
		if !slices.Equal(e.Bands, first.Bands) {
			return Series{}, fmt.Errorf("%w: epoch %d bands %v differ from %v", ErrShape, e.Year, e.Bands, first.Bands)
		}
	}
	return Series{Grid: first.Grid, Bands: first.Bands, Epochs: epochs}, nil
}

// Years lists the epoch years in order.
func (s Series) Years() []int {
	years := make([]int, len(s.Epochs))
	for i, e := range s.Epochs {
		years[i] = e.Year
	}
	return years
}

// BandIndex returns the position of the named band, or -1.
func (s Series) BandIndex(name string) int {
	for i, b := range s.Bands {
		if b == name {
			return i
		}
	}
	return -1
}

// Crop restricts every epoch to the tile's rows.
func (s Series) Crop(t Tile) (Series, error) {
	epochs := make([]Epoch, len(s.Epochs))
	for i, e := range s.Epochs {
		sub, err := e.Crop(t)
		if err != nil {
			return Series{}, err
		}
		epochs[i] = sub
	}
	return NewSeries(epochs)
}
