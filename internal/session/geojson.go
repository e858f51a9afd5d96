package session

import (
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/trainmap/gymdex/internal/cluster"
	"github.com/trainmap/gymdex/internal/geo"
)

// MarkersToGeoJSON encodes viewport markers as a GeoJSON FeatureCollection.
// Cluster features carry point_count; individual features carry the gym id.
func MarkersToGeoJSON(markers []cluster.Marker) *geojson.FeatureCollection {
	features := make([]*geojson.Feature, 0, len(markers))
	for _, m := range markers {
		props := map[string]interface{}{
			"type": string(m.Type),
		}
		if m.Type == cluster.MarkerCluster {
			props["point_count"] = m.Count
		}
		features = append(features, &geojson.Feature{
			ID:         m.ID,
			Geometry:   geo.Point(m.Lng, m.Lat),
			Properties: props,
		})
	}
	return &geojson.FeatureCollection{Features: features}
}
