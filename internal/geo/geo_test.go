package geo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHaversineKm(t *testing.T) {
	t.Parallel()

	// Tokyo Station to Shinjuku Station is about 6.4km.
	d := HaversineKm(35.681236, 139.767125, 35.690921, 139.700258)
	assert.InDelta(t, 6.2, d, 0.5)

	// Zero distance.
	assert.Zero(t, HaversineKm(35.0, 139.0, 35.0, 139.0))
}

func TestClamp(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 90.0, ClampLat(123.4))
	assert.Equal(t, -90.0, ClampLat(-91))
	assert.Equal(t, 35.5, ClampLat(35.5))
	assert.Equal(t, 180.0, ClampLng(999))
	assert.Equal(t, -180.0, ClampLng(-200))
	assert.Equal(t, 139.7, ClampLng(139.7))
}

func TestBBoxContains(t *testing.T) {
	t.Parallel()

	b := BBox{MinLng: 139, MinLat: 35, MaxLng: 140, MaxLat: 36}
	assert.True(t, b.Contains(139.5, 35.5))
	assert.True(t, b.Contains(139, 35), "edges are inclusive")
	assert.False(t, b.Contains(138.9, 35.5))
	assert.False(t, b.Contains(139.5, 36.1))
}

func TestBBoxAround(t *testing.T) {
	t.Parallel()

	b := BBoxAround(35.68, 139.76, 10)
	assert.True(t, b.Contains(139.76, 35.68), "center inside")
	assert.True(t, b.MinLat < 35.68 && b.MaxLat > 35.68)
	assert.True(t, b.MinLng < 139.76 && b.MaxLng > 139.76)

	// Boxes near the poles stay within valid ranges.
	b = BBoxAround(89.9, 0, 100)
	assert.LessOrEqual(t, b.MaxLat, 90.0)
}

func TestMercatorRoundTrip(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct{ lng, lat float64 }{
		{0, 0},
		{139.767125, 35.681236},
		{-73.9857, 40.7484},
		{179.9, -85},
	} {
		assert.InDelta(t, tt.lng, XToLng(LngToX(tt.lng)), 1e-9)
		assert.InDelta(t, tt.lat, YToLat(LatToY(tt.lat)), 1e-6)
	}
}

func TestPoint(t *testing.T) {
	t.Parallel()

	p := Point(139.7, 35.6)
	assert.Equal(t, 139.7, p.X())
	assert.Equal(t, 35.6, p.Y())
}
