package raster

import "fmt"

// Mask is a boolean raster over a Grid, true where a pixel is eligible for
// analysis.
type Mask struct {
	Grid Grid
	Bits []bool
}

// NewMask validates the bit count against the grid.
func NewMask(grid Grid, bits []bool) (Mask, error) {
	if len(bits) != grid.Pixels() {
		return Mask{}, fmt.Errorf("%w: mask has %d bits, grid has %d pixels", ErrShape, len(bits), grid.Pixels())
	}
	return Mask{Grid: grid, Bits: bits}, nil
}

// FullMask returns a mask with every pixel eligible.
func FullMask(grid Grid) Mask {
	bits := make([]bool, grid.Pixels())
	for i := range bits {
		bits[i] = true
	}
	return Mask{Grid: grid, Bits: bits}
}

// Crop restricts the mask to the tile's rows.
func (m Mask) Crop(t Tile) (Mask, error) {
	sub, err := m.Grid.Crop(t)
	if err != nil {
		return Mask{}, err
	}
	off := t.Offset(m.Grid)
	return Mask{Grid: sub, Bits: m.Bits[off : off+sub.Pixels()]}, nil
}

// LabelRaster holds one year's integer cluster ids over a Grid, values in
// [0, k). Derived from a classified epoch, never mutated after creation.
type LabelRaster struct {
	Year   int
	Grid   Grid
	Labels []int
}
