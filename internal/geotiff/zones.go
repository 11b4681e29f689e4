package geotiff

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/the1joesmith/ascent-and-spread/internal/zonal"
)

func featureMultiPolygon(f *geojson.Feature) (orb.MultiPolygon, error) {
	switch geom := f.Geometry.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{geom}, nil
	case orb.MultiPolygon:
		return geom, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %s", geom.GeoJSONType())
	}
}

// LoadZones reads named aggregation polygons from a GeoJSON file, taking the
// zone identifier from idProperty on each feature. Geometries must be in the
// grid's spatial reference.
func LoadZones(path, idProperty string) ([]zonal.Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var zones []zonal.Zone
	for _, f := range fc.Features {
		id, ok := f.Properties[idProperty].(string)
		if !ok || id == "" {
			return nil, fmt.Errorf("feature in %s has no %q property", path, idProperty)
		}
		mp, err := featureMultiPolygon(f)
		if err != nil {
			return nil, fmt.Errorf("zone %s: %w", id, err)
		}
		zones = append(zones, zonal.Zone{ID: id, Geometry: mp})
	}
	if len(zones) == 0 {
		return nil, fmt.Errorf("no zone features in %s", path)
	}
	return zones, nil
}

// LoadStudyArea reads a GeoJSON file and unions every polygon feature into
// one study-area multipolygon for the training sampler.
func LoadStudyArea(path string) (orb.MultiPolygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var study orb.MultiPolygon
	for _, f := range fc.Features {
		mp, err := featureMultiPolygon(f)
		if err != nil {
			return nil, err
		}
		study = append(study, mp...)
	}
	if len(study) == 0 {
		return nil, fmt.Errorf("no polygon features in %s", path)
	}
	return study, nil
}
