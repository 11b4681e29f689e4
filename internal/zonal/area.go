package zonal

import (
	"fmt"
	"sort"

	"github.com/the1joesmith/ascent-and-spread/internal/raster"
	"github.com/the1joesmith/ascent-and-spread/internal/transition"
)

const squareMetersPerHectare = 10000

// ArealKey identifies one (zone, year) cell of the areal totals.
type ArealKey struct {
	Zone string
	Year int
}

// ArealRecord is one row of the per-zone, per-year target-state area table.
type ArealRecord struct {
	Zone   string  `csv:"zone"`
	Year   int     `csv:"year"`
	AreaHa float64 `csv:"area_ha"`
}

// AccumulateAreal adds one tile's target-state area into totals, per zone and
// year. Indicator, mask and zone index must share a grid; mask and no-zone
// pixels are excluded, not counted as zero. Sums are associative and
// commutative, so tiles merge in any order.
func AccumulateAreal(totals map[ArealKey]float64, inds []transition.Indicator, mask raster.Mask, zi ZoneIndex) error {
	cellHa := mask.Grid.CellArea() / squareMetersPerHectare
	for _, ind := range inds {
		if !ind.Grid.Same(mask.Grid) || !zi.Grid.Same(mask.Grid) {
			return fmt.Errorf("%w: indicator year %d, mask and zone index grids differ", raster.ErrShape, ind.Year)
		}
		for pix, on := range ind.Bits {
			if !on || !mask.Bits[pix] || zi.Idx[pix] < 0 {
				continue
			}
			totals[ArealKey{Zone: zi.IDs[zi.Idx[pix]], Year: ind.Year}] += cellHa
		}
	}
	return nil
}

// ArealRecords flattens accumulated totals into rows sorted by zone then
// year. Zones and years with no target-state area appear with a zero total so
// the table covers the full (zone, year) product.
func ArealRecords(totals map[ArealKey]float64, zones []string, years []int) []ArealRecord {
	records := make([]ArealRecord, 0, len(zones)*len(years))
	for _, z := range zones {
		for _, y := range years {
			records = append(records, ArealRecord{Zone: z, Year: y, AreaHa: totals[ArealKey{Zone: z, Year: y}]})
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Zone != records[j].Zone {
			return records[i].Zone < records[j].Zone
		}
		return records[i].Year < records[j].Year
	})
	return records
}
