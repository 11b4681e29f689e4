package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/the1joesmith/ascent-and-spread/internal/delivery"
	"github.com/the1joesmith/ascent-and-spread/internal/notification"
	"github.com/the1joesmith/ascent-and-spread/internal/pipeline"
	"github.com/the1joesmith/ascent-and-spread/internal/zonal"
)

// parsePeriods turns "early:1990-2000,late:2001-2020" into period values.
func parsePeriods(s string) ([]zonal.Period, error) {
	var periods []zonal.Period
	for _, part := range strings.Split(s, ",") {
		name, span, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("period %q is not name:start-end", part)
		}
		startStr, endStr, ok := strings.Cut(span, "-")
		if !ok {
			return nil, fmt.Errorf("period %q is not name:start-end", part)
		}
		start, err := strconv.Atoi(startStr)
		if err != nil {
			return nil, fmt.Errorf("period %q: %w", part, err)
		}
		end, err := strconv.Atoi(endStr)
		if err != nil {
			return nil, fmt.Errorf("period %q: %w", part, err)
		}
		periods = append(periods, zonal.Period{Name: name, Start: start, End: end})
	}
	return periods, nil
}

func run() error {
	cfg := pipeline.DefaultConfig()

	bands := flag.String("bands", "AFG,PFG,SHR,TRE,BGR", "comma-separated cover band names in file order")
	coverDir := flag.String("cover-dir", "cover", "cover raster directory under ROOT_PATH/data")
	maskFile := flag.String("mask", "rangeland_mask.tif", "analysis mask raster")
	aspectFile := flag.String("aspect", "aspect.tif", "aspect raster (degrees)")
	slopeFile := flag.String("slope", "slope.tif", "slope raster (degrees)")
	zonesFile := flag.String("zones", "ecoregions.geojson", "zone polygons geojson")
	zoneIDProp := flag.String("zone-id", "ecoregion", "zone id feature property")
	studyFile := flag.String("study-area", "study_area.geojson", "training study area geojson")
	periods := flag.String("periods", "early:1990-2004,late:2005-2020", "histogram periods as name:start-end,...")
	writeLabels := flag.Bool("write-labels", false, "also write per-year label rasters")

	flag.Float64Var(&cfg.Alpha, "alpha", cfg.Alpha, "Holt level smoothing factor")
	flag.Float64Var(&cfg.Beta, "beta", cfg.Beta, "Holt trend smoothing factor")
	flag.IntVar(&cfg.K, "k", cfg.K, "cluster count")
	flag.IntVar(&cfg.MaxIter, "max-iter", cfg.MaxIter, "k-means iteration cap")
	flag.Int64Var(&cfg.FitSeed, "fit-seed", cfg.FitSeed, "centroid initialization seed")
	flag.StringVar(&cfg.GrassBand, "grass-band", cfg.GrassBand, "annual-grass band name")
	flag.IntVar(&cfg.SampleSize, "sample-size", cfg.SampleSize, "training sample size")
	flag.Int64Var(&cfg.SampleSeed, "sample-seed", cfg.SampleSeed, "training sample seed")
	flag.IntVar(&cfg.Bins, "bins", cfg.Bins, "northness histogram bin count")
	flag.Float64Var(&cfg.MinSlope, "min-slope", cfg.MinSlope, "minimum slope (degrees) for northness histograms")
	flag.IntVar(&cfg.TileRows, "tile-rows", cfg.TileRows, "rows per processing tile")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "parallel tile workers")
	flag.Parse()

	parsed, err := parsePeriods(*periods)
	if err != nil {
		return err
	}
	cfg.Periods = parsed

	return delivery.RunTransitionAnalysis(delivery.RunParams{
		Bands:          strings.Split(*bands, ","),
		CoverDir:       *coverDir,
		MaskFile:       *maskFile,
		AspectFile:     *aspectFile,
		SlopeFile:      *slopeFile,
		ZonesFile:      *zonesFile,
		ZoneIDProperty: *zoneIDProp,
		StudyAreaFile:  *studyFile,
		WriteLabels:    *writeLabels,
	}, cfg)
}

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, relying on the environment")
	}

	if err := run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		if notifyErr := notification.SendDiscordErrorNotification(err.Error()); notifyErr != nil {
			fmt.Printf("Warning: could not send error notification: %v\n", notifyErr)
		}
		os.Exit(1)
	}
}
