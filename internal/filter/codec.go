package filter

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/trainmap/gymdex/internal/model"
)

// Canonical query parameter names. Legacy aliases are accepted on read only.
const (
	paramQuery    = "q"
	paramPref     = "pref"
	paramCity     = "city"
	paramCats     = "cats"
	paramSort     = "sort"
	paramOrder    = "order"
	paramPage     = "page"
	paramPerPage  = "per_page"
	paramDistance = "distance"
	paramLat      = "lat"
	paramLng      = "lng"
)

var (
	prefAliases     = []string{paramPref, "prefecture"}
	catsAliases     = []string{paramCats, "equipments", "equipment"}
	distanceAliases = []string{paramDistance, "radius", "radius_km"}
)

// Parse decodes query parameters into a normalized State. Malformed values
// never produce an error; they fall back to defaults.
func Parse(values url.Values) State {
	s := Default()

	s.Query = values.Get(paramQuery)
	s.Pref = firstOf(values, prefAliases)
	s.City = values.Get(paramCity)
	s.Categories = parseCategories(values)

	if sort, ok := model.ParseSort(values.Get(paramSort)); ok {
		s.Sort = sort
		s.Order = sort.DefaultOrder()
	}
	if order, ok := model.ParseOrder(values.Get(paramOrder)); ok {
		s.Order = order
	}

	s.Page = parseIntOr(values.Get(paramPage), 1)
	s.Limit = parseIntOr(values.Get(paramPerPage), DefaultLimit)
	s.DistanceKm = parseIntOr(firstOf(values, distanceAliases), DefaultDistanceKm)

	if lat, err := strconv.ParseFloat(values.Get(paramLat), 64); err == nil {
		if lng, err := strconv.ParseFloat(values.Get(paramLng), 64); err == nil {
			s.Lat, s.Lng = &lat, &lng
		}
	}

	return s.Normalized()
}

// ParseQuery decodes a raw query string. Undecodable input yields defaults.
func ParseQuery(rawQuery string) State {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return Default()
	}
	return Parse(values)
}

// Serialize encodes a State into query parameters, omitting every field that
// equals its default so shareable URLs stay minimal.
func Serialize(s State) url.Values {
	s = s.Normalized()
	values := url.Values{}

	if s.Query != "" {
		values.Set(paramQuery, s.Query)
	}
	if s.Pref != "" {
		values.Set(paramPref, s.Pref)
	}
	if s.City != "" {
		values.Set(paramCity, s.City)
	}
	if len(s.Categories) > 0 {
		values.Set(paramCats, strings.Join(s.Categories, ","))
	}
	if s.Sort != DefaultSort {
		values.Set(paramSort, string(s.Sort))
	}
	if s.Order != s.Sort.DefaultOrder() {
		values.Set(paramOrder, string(s.Order))
	}
	if s.Page > 1 {
		values.Set(paramPage, strconv.Itoa(s.Page))
	}
	if s.Limit != DefaultLimit {
		values.Set(paramPerPage, strconv.Itoa(s.Limit))
	}
	if s.DistanceKm != DefaultDistanceKm {
		values.Set(paramDistance, strconv.Itoa(s.DistanceKm))
	}
	if s.HasLocation() {
		values.Set(paramLat, strconv.FormatFloat(*s.Lat, 'f', 6, 64))
		values.Set(paramLng, strconv.FormatFloat(*s.Lng, 'f', 6, 64))
	}

	return values
}

// Encode returns the canonical query-string form of s. Keys are emitted in
// sorted order so equal states always encode identically.
func (s State) Encode() string {
	return Serialize(s).Encode()
}

// firstOf returns the first non-empty value among the aliased parameter names.
func firstOf(values url.Values, names []string) string {
	for _, name := range names {
		if v := values.Get(name); v != "" {
			return v
		}
	}
	return ""
}

// parseCategories unions all category aliases, splitting each value on commas.
// Repeated parameters and repeated slugs collapse via normalization.
func parseCategories(values url.Values) []string {
	var raw []string
	for _, name := range catsAliases {
		for _, v := range values[name] {
			raw = append(raw, strings.Split(v, ",")...)
		}
	}
	return NormalizeCategories(raw)
}

// parseIntOr parses a decimal integer, substituting def on failure.
func parseIntOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}
