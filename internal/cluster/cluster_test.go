package cluster

import (
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainmap/gymdex/internal/geo"
)

var tokyoBox = geo.BBox{MinLng: 138, MinLat: 34, MaxLng: 141, MaxLat: 37}

// scatter generates n points spread around central Tokyo.
func scatter(n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			ID:  fmt.Sprintf("g%d", i),
			Lng: 139.7 + 0.001*float64(i%10),
			Lat: 35.68 + 0.001*float64(i/10),
		}
	}
	return pts
}

// tight generates n points within a few meters of each other.
func tight(n int) []Point {
	pts := make([]Point, n)
	for i := range pts {
		pts[i] = Point{
			ID:  fmt.Sprintf("g%d", i),
			Lng: 139.7 + 0.000001*float64(i),
			Lat: 35.68,
		}
	}
	return pts
}

func TestBuildEmpty(t *testing.T) {
	t.Parallel()

	ix := Build(nil, DefaultOptions())
	assert.True(t, ix.Flat())
	assert.Zero(t, ix.Len())
	assert.Empty(t, ix.Query(tokyoBox, 12))
}

func TestBuildDropsNonFinitePoints(t *testing.T) {
	t.Parallel()

	ix := Build([]Point{
		{ID: "ok", Lng: 139.7, Lat: 35.68},
		{ID: "nan", Lng: math.NaN(), Lat: 35.68},
		{ID: "inf", Lng: 139.7, Lat: math.Inf(1)},
	}, DefaultOptions())
	assert.Equal(t, 1, ix.Len())
}

func TestBelowThresholdStaysFlat(t *testing.T) {
	t.Parallel()

	ix := Build(scatter(49), DefaultOptions())
	assert.True(t, ix.Flat())

	markers := ix.Query(tokyoBox, 12)
	assert.Len(t, markers, 49)
	for _, m := range markers {
		assert.Equal(t, MarkerPoint, m.Type)
		assert.Equal(t, 1, m.Count)
		require.NotNil(t, m.Point)
	}
}

func TestFlatQueryFiltersByBBox(t *testing.T) {
	t.Parallel()

	pts := []Point{
		{ID: "in", Lng: 139.7, Lat: 35.68},
		{ID: "out", Lng: 135.5, Lat: 34.7}, // Osaka
	}
	ix := Build(pts, DefaultOptions())

	markers := ix.Query(tokyoBox, 12)
	require.Len(t, markers, 1)
	assert.Equal(t, "in", markers[0].ID)
}

func TestTightGroupClustersToOne(t *testing.T) {
	t.Parallel()

	ix := Build(tight(51), DefaultOptions())
	require.False(t, ix.Flat())

	markers := ix.Query(tokyoBox, 10)
	require.Len(t, markers, 1)
	assert.Equal(t, MarkerCluster, markers[0].Type)
	assert.Equal(t, 51, markers[0].Count)
	assert.InDelta(t, 139.7, markers[0].Lng, 0.001)
	assert.InDelta(t, 35.68, markers[0].Lat, 0.001)
}

func TestClusterCountsSumToPointCount(t *testing.T) {
	t.Parallel()

	ix := Build(scatter(200), DefaultOptions())
	require.False(t, ix.Flat())

	for _, zoom := range []float64{0, 8, 13, 16} {
		total := 0
		for _, m := range ix.Query(tokyoBox, zoom) {
			total += m.Count
		}
		assert.Equal(t, 200, total, "zoom %v", zoom)
	}
}

func TestZoomBeyondMaxShowsIndividualPoints(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	ix := Build(scatter(60), opts)

	markers := ix.Query(tokyoBox, float64(opts.MaxZoom+3))
	assert.Len(t, markers, 60)
	for _, m := range markers {
		assert.Equal(t, MarkerPoint, m.Type)
	}
}

func TestFractionalZoomRounds(t *testing.T) {
	t.Parallel()

	ix := Build(scatter(60), DefaultOptions())

	// 11.5 rounds away from zero to 12, and 11.4 down to 11.
	assert.Equal(t, ix.Query(tokyoBox, 12), ix.Query(tokyoBox, 11.5))
	assert.Equal(t, ix.Query(tokyoBox, 11), ix.Query(tokyoBox, 11.4))

	// Negative zooms clamp to zero.
	assert.Equal(t, ix.Query(tokyoBox, 0), ix.Query(tokyoBox, -4))
}

func TestExpansionZoom(t *testing.T) {
	t.Parallel()

	ix := Build(scatter(200), DefaultOptions())
	require.False(t, ix.Flat())

	markers := ix.Query(tokyoBox, 8)
	var clusterID string
	for _, m := range markers {
		if m.Type == MarkerCluster {
			clusterID = m.ID
			break
		}
	}
	require.NotEmpty(t, clusterID)

	z, ok := ix.ExpansionZoom(clusterID)
	require.True(t, ok)
	assert.Greater(t, z, 8)

	// The cluster must actually be gone (split) at its expansion zoom.
	for _, m := range ix.Query(tokyoBox, float64(z)) {
		assert.NotEqual(t, clusterID, m.ID)
	}
}

func TestExpansionZoomUnknownID(t *testing.T) {
	t.Parallel()

	ix := Build(scatter(200), DefaultOptions())
	_, ok := ix.ExpansionZoom("stale-id-from-previous-index")
	assert.False(t, ok)

	flat := Build(scatter(10), DefaultOptions())
	_, ok = flat.ExpansionZoom("anything")
	assert.False(t, ok)
}

func TestCustomThreshold(t *testing.T) {
	t.Parallel()

	opts := DefaultOptions()
	opts.MinPointsToCluster = 5
	ix := Build(scatter(6), opts)
	assert.False(t, ix.Flat())

	ix = Build(scatter(4), opts)
	assert.True(t, ix.Flat())
}
