package geotiff

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/airbusgeo/godal"
	"github.com/the1joesmith/ascent-and-spread/internal/raster"
	"github.com/the1joesmith/ascent-and-spread/internal/utils"
	"golang.org/x/sync/errgroup"
)

// loadConcurrency bounds the parallel GeoTIFF reads in LoadSeries.
const loadConcurrency = 4

func openDataset(path string) (*godal.Dataset, error) {
	var (
		ds  *godal.Dataset
		err error
	)
	// GDAL driver registration and dataset opening are not thread-safe.
	utils.ExecuteWithMutex(func() {
		godal.RegisterInternalDrivers()
		ds, err = godal.Open(path)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return ds, nil
}

func readGrid(ds *godal.Dataset) (raster.Grid, error) {
	gt, err := ds.GeoTransform()
	if err != nil {
		return raster.Grid{}, fmt.Errorf("failed to get geotransform: %w", err)
	}
	return raster.Grid{
		Width:        ds.Structure().SizeX,
		Height:       ds.Structure().SizeY,
		GeoTransform: gt,
		Projection:   ds.Projection(),
	}, nil
}

func readBands(ds *godal.Dataset, grid raster.Grid, count int) ([][]float64, error) {
	bands := ds.Bands()
	if len(bands) < count {
		return nil, fmt.Errorf("%w: dataset has %d bands, expected %d", raster.ErrShape, len(bands), count)
	}
	data := make([][]float64, count)
	for i := 0; i < count; i++ {
		buf := make([]float64, grid.Pixels())
		if err := bands[i].Read(0, 0, buf, grid.Width, grid.Height); err != nil {
			return nil, fmt.Errorf("failed to read band %d: %w", i+1, err)
		}
		data[i] = buf
	}
	return data, nil
}

// epochYear extracts the year from a cover_<year>.tif file name.
func epochYear(path string) (int, error) {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	idx := strings.LastIndex(base, "_")
	if idx < 0 {
		return 0, fmt.Errorf("no year in file name %s", filepath.Base(path))
	}
	year, err := strconv.Atoi(base[idx+1:])
	if err != nil {
		return 0, fmt.Errorf("no year in file name %s: %w", filepath.Base(path), err)
	}
	return year, nil
}

// LoadSeries reads every cover_<year>.tif under dir into a year-ordered
// Series carrying the named bands in file band order. Files load
// concurrently; the series constructor then enforces grid and band
// uniformity.
func LoadSeries(dir string, bands []string) (raster.Series, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "cover_*.tif"))
	if err != nil {
		return raster.Series{}, err
	}
	if len(paths) == 0 {
		return raster.Series{}, fmt.Errorf("no cover_*.tif files under %s", dir)
	}
	sort.Strings(paths)

	epochs := make([]raster.Epoch, len(paths))
	var g errgroup.Group
	g.SetLimit(loadConcurrency)
	for i, path := range paths {
		g.Go(func() error {
			year, err := epochYear(path)
			if err != nil {
				return err
			}
			ds, err := openDataset(path)
			if err != nil {
				return err
			}
			defer ds.Close()

			grid, err := readGrid(ds)
			if err != nil {
				return err
			}
			data, err := readBands(ds, grid, len(bands))
			if err != nil {
				return fmt.Errorf("year %d: %w", year, err)
			}
			epoch, err := raster.NewEpoch(year, grid, bands, data)
			if err != nil {
				return err
			}
			epochs[i] = epoch
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return raster.Series{}, err
	}

	fmt.Printf("Loaded %d cover epochs from %s\n", len(epochs), dir)
	return raster.NewSeries(epochs)
}

// LoadMask reads a single-band raster as a boolean analysis mask, true where
// the band is nonzero.
func LoadMask(path string, grid raster.Grid) (raster.Mask, error) {
	ds, err := openDataset(path)
	if err != nil {
		return raster.Mask{}, err
	}
	defer ds.Close()

	g, err := readGrid(ds)
	if err != nil {
		return raster.Mask{}, err
	}
	if !g.Same(grid) {
		return raster.Mask{}, fmt.Errorf("%w: mask %s grid differs from series grid", raster.ErrShape, filepath.Base(path))
	}
	data, err := readBands(ds, g, 1)
	if err != nil {
		return raster.Mask{}, err
	}
	bits := make([]bool, len(data[0]))
	for i, v := range data[0] {
		bits[i] = v != 0
	}
	return raster.NewMask(g, bits)
}

// LoadTerrain reads a single-band terrain-derivative raster (aspect or slope
// in degrees) over the series grid.
func LoadTerrain(path string, grid raster.Grid) ([]float64, error) {
	ds, err := openDataset(path)
	if err != nil {
		return nil, err
	}
	defer ds.Close()

	g, err := readGrid(ds)
	if err != nil {
		return nil, err
	}
	if !g.Same(grid) {
		return nil, fmt.Errorf("%w: terrain raster %s grid differs from series grid", raster.ErrShape, filepath.Base(path))
	}
	data, err := readBands(ds, g, 1)
	if err != nil {
		return nil, err
	}
	return data[0], nil
}
