package delivery

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
	"github.com/the1joesmith/ascent-and-spread/internal/cache"
	"github.com/the1joesmith/ascent-and-spread/internal/cluster"
	"github.com/the1joesmith/ascent-and-spread/internal/geotiff"
	"github.com/the1joesmith/ascent-and-spread/internal/notification"
	"github.com/the1joesmith/ascent-and-spread/internal/pipeline"
	"github.com/the1joesmith/ascent-and-spread/internal/properties"
	"github.com/the1joesmith/ascent-and-spread/output"
)

// RunParams names the input files of one detection run, all relative to
// ROOT_PATH/data, plus the band layout of the cover rasters.
type RunParams struct {
	Bands          []string
	CoverDir       string
	MaskFile       string
	AspectFile     string
	SlopeFile      string
	ZonesFile      string
	ZoneIDProperty string
	StudyAreaFile  string
	WriteLabels    bool
}

func dataPath(parts ...string) string {
	return filepath.Join(append([]string{properties.RootPath(), "data"}, parts...)...)
}

func loadInputs(p RunParams) (pipeline.Inputs, error) {
	series, err := geotiff.LoadSeries(dataPath(p.CoverDir), p.Bands)
	if err != nil {
		return pipeline.Inputs{}, fmt.Errorf("loading cover series: %w", err)
	}
	mask, err := geotiff.LoadMask(dataPath(p.MaskFile), series.Grid)
	if err != nil {
		return pipeline.Inputs{}, fmt.Errorf("loading analysis mask: %w", err)
	}
	aspect, err := geotiff.LoadTerrain(dataPath(p.AspectFile), series.Grid)
	if err != nil {
		return pipeline.Inputs{}, fmt.Errorf("loading aspect raster: %w", err)
	}
	slope, err := geotiff.LoadTerrain(dataPath(p.SlopeFile), series.Grid)
	if err != nil {
		return pipeline.Inputs{}, fmt.Errorf("loading slope raster: %w", err)
	}
	zones, err := geotiff.LoadZones(dataPath(p.ZonesFile), p.ZoneIDProperty)
	if err != nil {
		return pipeline.Inputs{}, fmt.Errorf("loading zones: %w", err)
	}
	study, err := geotiff.LoadStudyArea(dataPath(p.StudyAreaFile))
	if err != nil {
		return pipeline.Inputs{}, fmt.Errorf("loading study area: %w", err)
	}
	return pipeline.Inputs{
		Series:    series,
		Mask:      mask,
		StudyArea: study,
		Zones:     zones,
		Aspect:    aspect,
		Slope:     slope,
	}, nil
}

// fitOrRecallModel reuses a cached fit when the parameters and input extent
// are unchanged, otherwise fits and caches.
func fitOrRecallModel(in pipeline.Inputs, cfg pipeline.Config) (cluster.Model, int, error) {
	modelCache := cache.NewFileCache[cluster.Model]("models")
	years := in.Series.Years()
	key := modelCache.GenerateKey(
		cfg.K, cfg.MaxIter, cfg.FitSeed,
		cfg.SampleSize, cfg.SampleSeed, cfg.Oversample, cfg.GrassBand,
		in.Series.Grid.Width, in.Series.Grid.Height, years[0], years[len(years)-1],
	)

	if model, ok := modelCache.Get(key); ok {
		fmt.Println("Reusing cached cluster model")
		grassBand := in.Series.BandIndex(cfg.GrassBand)
		target, err := cluster.TargetLabel(model, grassBand)
		if err != nil {
			return cluster.Model{}, 0, err
		}
		return model, target, nil
	}

	model, target, err := pipeline.FitModel(in, cfg)
	if err != nil {
		return cluster.Model{}, 0, err
	}
	if err := modelCache.Set(key, model); err != nil {
		fmt.Printf("Warning: could not cache cluster model: %v\n", err)
	}
	return model, target, nil
}

func writeCSV(records interface{}, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(records, file); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	fmt.Printf("Table saved to: %s\n", path)
	return nil
}

// RunTransitionAnalysis is the end-to-end run: load inputs, fit or recall the
// cluster model, execute the tile pipeline and export every output.
func RunTransitionAnalysis(p RunParams, cfg pipeline.Config) error {
	in, err := loadInputs(p)
	if err != nil {
		return err
	}

	model, target, err := fitOrRecallModel(in, cfg)
	if err != nil {
		return err
	}

	result, err := pipeline.Run(in, cfg, model, target)
	if err != nil {
		return err
	}

	resultPath := dataPath("result")
	if err := os.MkdirAll(resultPath, os.ModePerm); err != nil {
		return fmt.Errorf("failed to create result folder: %w", err)
	}

	if err := geotiff.WriteTransition(result.Transition, filepath.Join(resultPath, "transition.tif")); err != nil {
		return err
	}
	if p.WriteLabels {
		for _, lr := range result.Labels {
			path := filepath.Join(resultPath, fmt.Sprintf("labels_%d.tif", lr.Year))
			if err := geotiff.WriteLabels(lr, path); err != nil {
				return err
			}
		}
	}

	if err := writeCSV(&result.Areal, filepath.Join(resultPath, "areal_totals.csv")); err != nil {
		return err
	}
	if err := writeCSV(&result.Histograms, filepath.Join(resultPath, "northness_histograms.csv")); err != nil {
		return err
	}

	years := in.Series.Years()
	if err := output.CreateTransitionImage(result.Transition, years[0], years[len(years)-1], filepath.Join(resultPath, "transition.png")); err != nil {
		return err
	}

	if err := notification.SendDiscordSuccessNotification(fmt.Sprintf("Processed %d epochs over %d zones, outputs under %s", len(years), len(in.Zones), resultPath)); err != nil {
		fmt.Printf("Warning: could not send success notification: %v\n", err)
	}
	return nil
}
