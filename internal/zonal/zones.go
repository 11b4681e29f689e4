package zonal

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
)

// Zone is a named aggregation polygon (an ecoregion) in the grid's spatial
// reference.
type Zone struct {
	ID       string
	Geometry orb.MultiPolygon
}

// ZoneIndex assigns each pixel of a grid to at most one zone. Point-in-
// polygon tests run once per grid here; the reducers then work on plain
// integer lookups. Idx holds a position into IDs, or -1 for pixels in no
// zone. Overlapping zones resolve to the first match in input order.
type ZoneIndex struct {
	Grid raster.Grid
	IDs  []string
	Idx  []int
}

// BuildZoneIndex rasterizes zone membership on pixel centers.
func BuildZoneIndex(g raster.Grid, zones []Zone) ZoneIndex {
	zi := ZoneIndex{
		Grid: g,
		IDs:  make([]string, len(zones)),
		Idx:  make([]int, g.Pixels()),
	}
	bounds := make([]orb.Bound, len(zones))
	for i, z := range zones {
		zi.IDs[i] = z.ID
		bounds[i] = z.Geometry.Bound()
	}

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			pix := g.Index(x, y)
			zi.Idx[pix] = -1
			mx, my := g.PixelCenter(x, y)
			pt := orb.Point{mx, my}
			for i, z := range zones {
				if !bounds[i].Contains(pt) {
					continue
				}
				if planar.MultiPolygonContains(z.Geometry, pt) {
					zi.Idx[pix] = i
					break
				}
			}
		}
	}
	return zi
}

// Crop restricts the index to the tile's rows.
func (zi ZoneIndex) Crop(t raster.Tile) (ZoneIndex, error) {
	sub, err := zi.Grid.Crop(t)
	if err != nil {
		return ZoneIndex{}, err
	}
	off := t.Offset(zi.Grid)
	return ZoneIndex{Grid: sub, IDs: zi.IDs, Idx: zi.Idx[off : off+sub.Pixels()]}, nil
}
