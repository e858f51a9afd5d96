package filter

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainmap/gymdex/internal/model"
)

func ptr(v float64) *float64 { return &v }

func TestParseDefaults(t *testing.T) {
	t.Parallel()

	s := Parse(url.Values{})
	assert.Equal(t, Default(), s)
}

func TestSerializeDefaultIsEmpty(t *testing.T) {
	t.Parallel()

	assert.Empty(t, Serialize(Default()))
	assert.Equal(t, "", Default().Encode())
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		state State
	}{
		{"default", Default()},
		{"keyword only", State{Query: "bench press"}},
		{"region", State{Pref: "tokyo", City: "shibuya"}},
		{"categories", State{Categories: []string{"squat-rack", "smith-machine"}}},
		{"sort and order", State{Sort: model.SortNewest, Order: model.OrderAsc}},
		{"pagination", State{Page: 4, Limit: 50}},
		{"location", State{Lat: ptr(35.681236), Lng: ptr(139.767125), DistanceKm: 25, Sort: model.SortDistance}},
		{"everything", State{
			Query: "24h", Pref: "kanagawa", City: "yokohama",
			Categories: []string{"pool"}, Sort: model.SortFresh,
			Page: 2, Limit: 30, DistanceKm: 5,
			Lat: ptr(35.443708), Lng: ptr(139.638026),
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			want := tt.state.Normalized()
			got := Parse(Serialize(want))
			assert.Equal(t, want, got)
		})
	}
}

func TestParseClamping(t *testing.T) {
	t.Parallel()

	s := Parse(url.Values{"page": {"-3"}})
	assert.Equal(t, 1, s.Page)

	s = Parse(url.Values{"per_page": {"9999"}})
	assert.Equal(t, MaxLimit, s.Limit)

	s = Parse(url.Values{"distance": {"999"}})
	assert.Equal(t, MaxDistanceKm, s.DistanceKm)

	s = Parse(url.Values{"distance": {"0"}})
	assert.Equal(t, DefaultDistanceKm, s.DistanceKm)

	// An explicit zero means unset and takes the default, not the range floor.
	s = Parse(url.Values{"per_page": {"0"}})
	assert.Equal(t, DefaultLimit, s.Limit)

	s = Parse(url.Values{"page": {"not-a-number"}, "per_page": {"1e9"}})
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, DefaultLimit, s.Limit)
}

func TestParseCategoryDedup(t *testing.T) {
	t.Parallel()

	s := Parse(url.Values{"cats": {"a,a,b"}})
	assert.Equal(t, []string{"a", "b"}, s.Categories)

	// Repeated params and aliases union in first-seen order.
	s = Parse(url.Values{"cats": {"a", "b,c"}, "equipment": {"b,d"}})
	assert.Equal(t, []string{"a", "b", "c", "d"}, s.Categories)

	s = Parse(url.Values{"cats": {" , ,"}})
	assert.Nil(t, s.Categories)
}

func TestParseLegacyAliases(t *testing.T) {
	t.Parallel()

	s := Parse(url.Values{"prefecture": {"kanagawa"}})
	assert.Equal(t, "kanagawa", s.Pref)

	// Canonical name wins over the alias.
	s = Parse(url.Values{"pref": {"tokyo"}, "prefecture": {"kanagawa"}})
	assert.Equal(t, "tokyo", s.Pref)

	s = Parse(url.Values{"equipments": {"rack"}})
	assert.Equal(t, []string{"rack"}, s.Categories)

	s = Parse(url.Values{"radius_km": {"42"}})
	assert.Equal(t, 42, s.DistanceKm)

	s = Parse(url.Values{"radius": {"7"}})
	assert.Equal(t, 7, s.DistanceKm)
}

func TestParseSortValidation(t *testing.T) {
	t.Parallel()

	s := Parse(url.Values{"sort": {"bogus"}})
	assert.Equal(t, DefaultSort, s.Sort)
	assert.Equal(t, model.OrderDesc, s.Order)

	s = Parse(url.Values{"sort": {"newest"}})
	assert.Equal(t, model.SortNewest, s.Sort)
	assert.Equal(t, model.OrderDesc, s.Order)

	// Distance implies ascending even against an explicit desc.
	s = Parse(url.Values{"sort": {"distance"}, "order": {"desc"}})
	assert.Equal(t, model.SortDistance, s.Sort)
	assert.Equal(t, model.OrderAsc, s.Order)
}

func TestParseLocation(t *testing.T) {
	t.Parallel()

	s := Parse(url.Values{"lat": {"35.681236"}, "lng": {"139.767125"}})
	require.True(t, s.HasLocation())
	assert.Equal(t, 35.681236, *s.Lat)
	assert.Equal(t, 139.767125, *s.Lng)

	// Half a coordinate pair is no coordinate at all.
	s = Parse(url.Values{"lat": {"35.681236"}})
	assert.False(t, s.HasLocation())

	// Out-of-range values clamp instead of erroring.
	s = Parse(url.Values{"lat": {"95"}, "lng": {"-999"}})
	require.True(t, s.HasLocation())
	assert.Equal(t, 90.0, *s.Lat)
	assert.Equal(t, -180.0, *s.Lng)

	s = Parse(url.Values{"lat": {"abc"}, "lng": {"139"}})
	assert.False(t, s.HasLocation())
}

func TestParseLocationNonFinite(t *testing.T) {
	t.Parallel()

	// ParseFloat accepts these; the codec must not.
	for _, v := range []string{"NaN", "nan", "Inf", "+Inf", "-Inf"} {
		s := Parse(url.Values{"lat": {v}, "lng": {"139.7"}})
		assert.False(t, s.HasLocation(), "lat=%s", v)
		assert.NotContains(t, s.Encode(), "lat", "lat=%s must not serialize", v)

		s = Parse(url.Values{"lat": {"35.6"}, "lng": {v}})
		assert.False(t, s.HasLocation(), "lng=%s", v)
	}

	s := State{Lat: ptr(math.NaN()), Lng: ptr(139.7)}.Normalized()
	assert.False(t, s.HasLocation(), "non-finite pairs drop in Normalized too")
}

func TestSerializeOmitsDefaults(t *testing.T) {
	t.Parallel()

	v := Serialize(State{Query: "bench", Page: 1})
	assert.Equal(t, "bench", v.Get("q"))
	assert.Empty(t, v.Get("page"), "page=1 is omitted")
	assert.Empty(t, v.Get("sort"))
	assert.Empty(t, v.Get("per_page"))

	v = Serialize(State{Lat: ptr(35.6), Lng: ptr(139.7)})
	assert.Equal(t, "35.600000", v.Get("lat"))
	assert.Equal(t, "139.700000", v.Get("lng"))
}

func TestNormalizeQueryWidthFolding(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "bench", NormalizeQuery("  bench  "))
	// Full-width ASCII folds to half-width.
	assert.Equal(t, "gym24", NormalizeQuery("ｇｙｍ２４"))
}

func TestPrefClearsOrphanCity(t *testing.T) {
	t.Parallel()

	s := State{City: "shibuya"}.Normalized()
	assert.Empty(t, s.City)
}

func TestAdversarialEndToEnd(t *testing.T) {
	t.Parallel()

	s := ParseQuery("q=%20bench%20&pref=tokyo&cats=squat-rack,squat-rack&page=-3&per_page=9999")
	assert.Equal(t, "bench", s.Query)
	assert.Equal(t, "tokyo", s.Pref)
	assert.Equal(t, []string{"squat-rack"}, s.Categories)
	assert.Equal(t, 1, s.Page)
	assert.Equal(t, MaxLimit, s.Limit)
}

func TestParseQueryMalformed(t *testing.T) {
	t.Parallel()

	assert.Equal(t, Default(), ParseQuery("%zz=%"))
}
