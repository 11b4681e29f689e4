package raster

import (
	"errors"
	"fmt"
)

// ErrShape marks data-shape violations: band mismatches, grid mismatches,
// out-of-order years. Shape errors abort the affected operation; they are
// never coerced into partial output.
var ErrShape = errors.New("raster shape error")

// Epoch is one calendar year's multi-band snapshot over a Grid. Band data is
// band-major, each band a row-major Width*Height slice. Epochs are never
// mutated after creation; pipeline stages always produce new ones.
type Epoch struct {
	Year  int
	Grid  Grid
	Bands []string
	Data  [][]float64
}

// NewEpoch validates band names against data slices and pixel counts.
func NewEpoch(year int, grid Grid, bands []string, data [][]float64) (Epoch, error) {
	if len(bands) == 0 {
		return Epoch{}, fmt.Errorf("%w: epoch %d has no bands", ErrShape, year)
	}
	if len(bands) != len(data) {
		return Epoch{}, fmt.Errorf("%w: epoch %d has %d band names but %d band buffers", ErrShape, year, len(bands), len(data))
	}
	for i, b := range data {
		if len(b) != grid.Pixels() {
			return Epoch{}, fmt.Errorf("%w: epoch %d band %q has %d values, grid has %d pixels", ErrShape, year, bands[i], len(b), grid.Pixels())
		}
	}
	return Epoch{Year: year, Grid: grid, Bands: bands, Data: data}, nil
}

// BandIndex returns the position of the named band, or -1.
func (e Epoch) BandIndex(name string) int {
	for i, b := range e.Bands {
		if b == name {
			return i
		}
	}
	return -1
}

// Vector copies pixel pix's band values into buf, which must hold len(Bands)
// elements.
func (e Epoch) Vector(pix int, buf []float64) {
	for b := range e.Data {
		buf[b] = e.Data[b][pix]
	}
}

// Crop returns a new Epoch restricted to the tile's rows.
func (e Epoch) Crop(t Tile) (Epoch, error) {
	sub, err := e.Grid.Crop(t)
	if err != nil {
		return Epoch{}, err
	}
	off := t.Offset(e.Grid)
	n := sub.Pixels()
	data := make([][]float64, len(e.Data))
	for b, band := range e.Data {
		data[b] = band[off : off+n : off+n]
	}
	return Epoch{Year: e.Year, Grid: sub, Bands: e.Bands, Data: data}, nil
}
