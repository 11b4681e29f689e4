package zonal

import (
	"fmt"
	"math"
	"sort"

	"github.com/the1joesmith/ascent-and-spread/internal/raster"
	"github.com/the1joesmith/ascent-and-spread/internal/transition"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Period is an inclusive range of calendar years.
type Period struct {
	Name  string
	Start int
	End   int
}

// Contains reports whether the year falls in the period.
func (p Period) Contains(year int) bool {
	return year >= p.Start && year <= p.End
}

// HistogramConfig controls the directional histograms: bin count and value
// range of the northness covariate, and the minimum slope (degrees) a pixel
// needs for its aspect to be meaningful.
type HistogramConfig struct {
	Bins     int
	Min      float64
	Max      float64
	MinSlope float64
}

// HistKey identifies one (zone, period) histogram.
type HistKey struct {
	Zone   string
	Period string
}

// HistogramRecord is one bin row of the per-(zone, period) northness
// distribution. Proportion is nil when the (zone, period) selected no pixels,
// the undefined case is never emitted as NaN.
type HistogramRecord struct {
	Zone       string   `csv:"zone"`
	Period     string   `csv:"period"`
	Bin        int      `csv:"bin"`
	BinStart   float64  `csv:"bin_start"`
	BinEnd     float64  `csv:"bin_end"`
	Count      int      `csv:"count"`
	Proportion *float64 `csv:"proportion"`
}

// Northness maps an aspect in degrees clockwise from north to cos(aspect),
// +1 facing due north, -1 due south.
func Northness(aspectDeg float64) float64 {
	return math.Cos(aspectDeg * math.Pi / 180)
}

// dividers returns cfg.Bins+1 bin edges. stat.Histogram treats the top
// divider as exclusive, so it is nudged up to keep values equal to cfg.Max
// (a due-north pixel at exactly +1) countable.
func (cfg HistogramConfig) dividers() []float64 {
	div := make([]float64, cfg.Bins+1)
	floats.Span(div, cfg.Min, cfg.Max)
	div[cfg.Bins] = math.Nextafter(cfg.Max, math.Inf(1))
	return div
}

// AccumulateHistograms adds one tile's bin counts into counts. For each zone
// and period it selects pixels whose first transition year falls in the
// period, intersected with the steepness filter and aspect validity (GDAL
// writes negative aspect for flat/no-data cells), then bins their northness.
// Element-wise count addition keeps the merge associative and commutative.
func AccumulateHistograms(counts map[HistKey][]float64, tr transition.Raster, aspect, slope []float64, zi ZoneIndex, periods []Period, cfg HistogramConfig) error {
	if cfg.Bins <= 0 || cfg.Max <= cfg.Min {
		return fmt.Errorf("invalid histogram binning: %d bins over [%v,%v]", cfg.Bins, cfg.Min, cfg.Max)
	}
	n := tr.Grid.Pixels()
	if len(aspect) != n || len(slope) != n {
		return fmt.Errorf("%w: terrain rasters do not match the transition grid", raster.ErrShape)
	}
	if !zi.Grid.Same(tr.Grid) {
		return fmt.Errorf("%w: zone index grid differs from transition grid", raster.ErrShape)
	}

	selected := make(map[HistKey][]float64)
	for pix := 0; pix < n; pix++ {
		if !tr.Valid[pix] || !tr.Observed[pix] || zi.Idx[pix] < 0 {
			continue
		}
		if aspect[pix] < 0 || slope[pix] < cfg.MinSlope {
			continue
		}
		v := Northness(aspect[pix])
		if v < cfg.Min || v > cfg.Max {
			continue
		}
		zone := zi.IDs[zi.Idx[pix]]
		for _, p := range periods {
			if !p.Contains(tr.Years[pix]) {
				continue
			}
			key := HistKey{Zone: zone, Period: p.Name}
			selected[key] = append(selected[key], v)
		}
	}

	div := cfg.dividers()
	for key, values := range selected {
		sort.Float64s(values)
		binned := stat.Histogram(make([]float64, cfg.Bins), div, values, nil)
		if counts[key] == nil {
			counts[key] = make([]float64, cfg.Bins)
		}
		floats.Add(counts[key], binned)
	}
	return nil
}

// HistogramRecords normalizes accumulated counts into proportion rows for
// the full (zone, period, bin) product, sorted by zone, period then bin.
// Empty cells keep zero counts and a nil proportion instead of dividing by
// zero.
func HistogramRecords(counts map[HistKey][]float64, zones []string, periods []Period, cfg HistogramConfig) []HistogramRecord {
	width := (cfg.Max - cfg.Min) / float64(cfg.Bins)
	records := make([]HistogramRecord, 0, len(zones)*len(periods)*cfg.Bins)
	for _, z := range zones {
		for _, p := range periods {
			binned := counts[HistKey{Zone: z, Period: p.Name}]
			total := 0.0
			if binned != nil {
				total = floats.Sum(binned)
			}
			for b := 0; b < cfg.Bins; b++ {
				rec := HistogramRecord{
					Zone:     z,
					Period:   p.Name,
					Bin:      b,
					BinStart: cfg.Min + float64(b)*width,
					BinEnd:   cfg.Min + float64(b+1)*width,
				}
				if binned != nil {
					rec.Count = int(binned[b])
				}
				if total > 0 {
					prop := float64(rec.Count) / total
					rec.Proportion = &prop
				}
				records = append(records, rec)
			}
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Zone != records[j].Zone {
			return records[i].Zone < records[j].Zone
		}
		if records[i].Period != records[j].Period {
			return records[i].Period < records[j].Period
		}
		return records[i].Bin < records[j].Bin
	})
	return records
}
