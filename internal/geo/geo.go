// Package geo provides coordinate math shared by the filter codec and the
// marker clustering engine: haversine distance, range clamping, bounding
// boxes, and the spherical-mercator projection used for pixel-space grouping.
package geo

import (
	"math"

	"github.com/twpayne/go-geom"
)

const (
	// earthRadiusKm is the mean earth radius used for haversine distance.
	earthRadiusKm = 6371.0088

	MinLat = -90.0
	MaxLat = 90.0
	MinLng = -180.0
	MaxLng = 180.0
)

// HaversineKm returns the great-circle distance between two points in km.
func HaversineKm(lat1, lng1, lat2, lng2 float64) float64 {
	rad := math.Pi / 180
	dLat := (lat2 - lat1) * rad
	dLng := (lng2 - lng1) * rad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*rad)*math.Cos(lat2*rad)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// ClampLat clamps a latitude to the valid [-90, 90] range.
func ClampLat(lat float64) float64 {
	return math.Min(MaxLat, math.Max(MinLat, lat))
}

// ClampLng clamps a longitude to the valid [-180, 180] range.
func ClampLng(lng float64) float64 {
	return math.Min(MaxLng, math.Max(MinLng, lng))
}

// BBox is a geographic bounding box.
type BBox struct {
	MinLng float64 `json:"min_lng"`
	MinLat float64 `json:"min_lat"`
	MaxLng float64 `json:"max_lng"`
	MaxLat float64 `json:"max_lat"`
}

// Contains reports whether the point lies inside the box (inclusive).
func (b BBox) Contains(lng, lat float64) bool {
	return lng >= b.MinLng && lng <= b.MaxLng && lat >= b.MinLat && lat <= b.MaxLat
}

// Clamped returns the box clamped to valid coordinate ranges.
func (b BBox) Clamped() BBox {
	return BBox{
		MinLng: ClampLng(b.MinLng),
		MinLat: ClampLat(b.MinLat),
		MaxLng: ClampLng(b.MaxLng),
		MaxLat: ClampLat(b.MaxLat),
	}
}

// BBoxAround returns a bounding box roughly radiusKm around a center point.
// Longitude spread widens with latitude; near the poles it degrades to the
// full longitude range.
func BBoxAround(lat, lng, radiusKm float64) BBox {
	dLat := radiusKm / 110.574
	cosLat := math.Cos(lat * math.Pi / 180)
	dLng := 180.0
	if cosLat > 1e-9 {
		dLng = radiusKm / (111.320 * cosLat)
	}
	return BBox{
		MinLng: lng - dLng,
		MinLat: lat - dLat,
		MaxLng: lng + dLng,
		MaxLat: lat + dLat,
	}.Clamped()
}

// LngToX projects a longitude to mercator x in [0, 1).
func LngToX(lng float64) float64 {
	return lng/360 + 0.5
}

// LatToY projects a latitude to mercator y in [0, 1]. Latitudes beyond the
// mercator limits pin to the edge rather than diverging.
func LatToY(lat float64) float64 {
	sin := math.Sin(lat * math.Pi / 180)
	y := 0.5 - 0.25*math.Log((1+sin)/(1-sin))/math.Pi
	return math.Min(1, math.Max(0, y))
}

// XToLng is the inverse of LngToX.
func XToLng(x float64) float64 {
	return (x - 0.5) * 360
}

// YToLat is the inverse of LatToY.
func YToLat(y float64) float64 {
	y2 := (180 - y*360) * math.Pi / 180
	return 360*math.Atan(math.Exp(y2))/math.Pi - 90
}

// Point builds a go-geom point in lng/lat order, the convention used by
// GeoJSON output.
func Point(lng, lat float64) *geom.Point {
	return geom.NewPointFlat(geom.XY, []float64{lng, lat})
}
