package render

import (
	"github.com/UnknownOlympus/crashmap/internal/models"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// FeatureCollection converts markers into a GeoJSON feature collection of points.
// Each feature carries its position in the input as the "seq" property.
func FeatureCollection(coords []models.Coordinates) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(coords))}
	if len(coords) == 0 {
		return fc
	}

	bounds := geom.NewBounds(geom.XY)
	for i, c := range coords {
		point := geom.NewPointFlat(geom.XY, []float64{c.Longitude, c.Latitude})
		bounds.Extend(point)
		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   point,
			Properties: map[string]interface{}{"seq": i},
		})
	}
	fc.BBox = bounds

	return fc
}
