package geotiff

import (
	"fmt"

	"github.com/airbusgeo/godal"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
	"github.com/the1joesmith/ascent-and-spread/internal/transition"
	"github.com/the1joesmith/ascent-and-spread/internal/utils"
)

func createDataset(path string, grid raster.Grid, nBands int) (*godal.Dataset, error) {
	var (
		ds  *godal.Dataset
		err error
	)
	utils.ExecuteWithMutex(func() {
		godal.RegisterInternalDrivers()
		ds, err = godal.Create(godal.GTiff, path, nBands, godal.Int32, grid.Width, grid.Height)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := ds.SetGeoTransform(grid.GeoTransform); err != nil {
		ds.Close()
		return nil, fmt.Errorf("failed to set geotransform: %w", err)
	}
	if grid.Projection != "" {
		if err := ds.SetProjection(grid.Projection); err != nil {
			ds.Close()
			return nil, fmt.Errorf("failed to set projection: %w", err)
		}
	}
	return ds, nil
}

// WriteTransition writes the transition raster as a two-band GTiff: band 1
// the first transition year with the never-transitioned sentinel applied,
// band 2 the data-mask (1 = observed in the target state at least once).
// This is the one place the typed option flattens to the sentinel.
func WriteTransition(tr transition.Raster, path string) error {
	ds, err := createDataset(path, tr.Grid, 2)
	if err != nil {
		return err
	}
	defer ds.Close()

	n := tr.Grid.Pixels()
	years := make([]int32, n)
	observed := make([]int32, n)
	for pix := 0; pix < n; pix++ {
		years[pix] = int32(tr.FirstYearOrSentinel(pix))
		if tr.Valid[pix] && tr.Observed[pix] {
			observed[pix] = 1
		}
	}

	bands := ds.Bands()
	if err := bands[0].Write(0, 0, years, tr.Grid.Width, tr.Grid.Height); err != nil {
		return fmt.Errorf("failed to write first-year band: %w", err)
	}
	if err := bands[1].Write(0, 0, observed, tr.Grid.Width, tr.Grid.Height); err != nil {
		return fmt.Errorf("failed to write data-mask band: %w", err)
	}

	fmt.Printf("Transition raster saved to: %s\n", path)
	return nil
}

// WriteLabels writes one year's cluster labels as a single-band GTiff.
func WriteLabels(lr raster.LabelRaster, path string) error {
	ds, err := createDataset(path, lr.Grid, 1)
	if err != nil {
		return err
	}
	defer ds.Close()

	buf := make([]int32, len(lr.Labels))
	for i, l := range lr.Labels {
		buf[i] = int32(l)
	}
	if err := ds.Bands()[0].Write(0, 0, buf, lr.Grid.Width, lr.Grid.Height); err != nil {
		return fmt.Errorf("failed to write label band: %w", err)
	}
	return nil
}
