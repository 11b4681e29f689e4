package raster

import "fmt"

// Grid is the shared 2-D spatial domain for every raster in a run: pixel
// dimensions, the GDAL-style 6-element geotransform and the projection WKT.
// All pipeline stages require their inputs to share one Grid.
type Grid struct {
	Width        int
	Height       int
	GeoTransform [6]float64
	Projection   string
}

// Same reports whether two grids describe the same spatial domain.
func (g Grid) Same(o Grid) bool {
	return g.Width == o.Width && g.Height == o.Height &&
		g.GeoTransform == o.GeoTransform && g.Projection == o.Projection
}

// Pixels returns the total pixel count.
func (g Grid) Pixels() int {
	return g.Width * g.Height
}

// Index converts pixel coordinates to a flat row-major offset.
func (g Grid) Index(x, y int) int {
	return y*g.Width + x
}

// PixelCenter returns the map coordinates of the center of pixel (x, y).
func (g Grid) PixelCenter(x, y int) (float64, float64) {
	gt := g.GeoTransform
	mx := gt[0] + gt[1]*(float64(x)+0.5) + gt[2]*(float64(y)+0.5)
	my := gt[3] + gt[4]*(float64(x)+0.5) + gt[5]*(float64(y)+0.5)
	return mx, my
}

// MapToPixel converts map coordinates to pixel coordinates. The second return
// is false when the point falls outside the grid. Rotated geotransforms are
// not supported.
func (g Grid) MapToPixel(mx, my float64) (int, int, bool) {
	gt := g.GeoTransform
	x := int((mx - gt[0]) / gt[1])
	y := int((my - gt[3]) / gt[5])
	if x < 0 || x >= g.Width || y < 0 || y >= g.Height {
		return 0, 0, false
	}
	return x, y, true
}

// CellArea returns the area of one pixel in squared map units.
func (g Grid) CellArea() float64 {
	a := g.GeoTransform[1] * g.GeoTransform[5]
	if a < 0 {
		a = -a
	}
	return a
}

// Tile is a horizontal band of rows, full grid width. Row bands keep tile
// outputs contiguous in the row-major full-grid buffers they merge into.
type Tile struct {
	Y0     int
	Height int
}

// Offset returns the flat offset of the tile's first pixel in the full grid.
func (t Tile) Offset(g Grid) int {
	return t.Y0 * g.Width
}

// Tiles splits the grid into row bands of at most rows rows each.
func (g Grid) Tiles(rows int) []Tile {
	if rows <= 0 || rows > g.Height {
		rows = g.Height
	}
	var tiles []Tile
	for y := 0; y < g.Height; y += rows {
		h := rows
		if y+h > g.Height {
			h = g.Height - y
		}
		tiles = append(tiles, Tile{Y0: y, Height: h})
	}
	return tiles
}

// Crop returns the sub-grid covered by the tile.
func (g Grid) Crop(t Tile) (Grid, error) {
	if t.Y0 < 0 || t.Height <= 0 || t.Y0+t.Height > g.Height {
		return Grid{}, fmt.Errorf("%w: tile rows [%d,%d) outside grid of height %d", ErrShape, t.Y0, t.Y0+t.Height, g.Height)
	}
	gt := g.GeoTransform
	gt[0] += gt[2] * float64(t.Y0)
	gt[3] += gt[5] * float64(t.Y0)
	return Grid{
		Width:        g.Width,
		Height:       t.Height,
		GeoTransform: gt,
		Projection:   g.Projection,
	}, nil
}
