// Package filter defines the canonical search filter state and the
// query-string codec that maps it to and from shareable URLs.
//
// A State that has passed through Normalized holds no out-of-range,
// duplicate, or denormalized value; Parse and Serialize round-trip any
// normalized state exactly.
package filter

import (
	"math"
	"strings"

	"golang.org/x/text/width"

	"github.com/trainmap/gymdex/internal/geo"
	"github.com/trainmap/gymdex/internal/model"
)

const (
	DefaultLimit      = 20
	MaxLimit          = 100
	DefaultDistanceKm = 10
	MinDistanceKm     = 1
	MaxDistanceKm     = 100
	DefaultSort       = model.SortPopular
)

// State is the normalized representation of a search query.
// Lat and Lng are either both set or both nil.
type State struct {
	Query      string
	Pref       string
	City       string
	Categories []string
	Sort       model.Sort
	Order      model.Order
	Page       int
	Limit      int
	DistanceKm int
	Lat        *float64
	Lng        *float64
}

// Default returns the default filter state.
func Default() State {
	return State{
		Sort:       DefaultSort,
		Order:      DefaultSort.DefaultOrder(),
		Page:       1,
		Limit:      DefaultLimit,
		DistanceKm: DefaultDistanceKm,
	}
}

// Normalized returns a copy of s with every field clamped and canonicalized.
func (s State) Normalized() State {
	out := s

	out.Query = NormalizeQuery(s.Query)
	out.Pref = strings.TrimSpace(s.Pref)
	out.City = strings.TrimSpace(s.City)
	// City is only meaningful under a prefecture.
	if out.Pref == "" {
		out.City = ""
	}
	out.Categories = NormalizeCategories(s.Categories)

	if _, ok := model.ParseSort(string(s.Sort)); !ok {
		out.Sort = DefaultSort
	}
	if _, ok := model.ParseOrder(string(s.Order)); !ok {
		out.Order = out.Sort.DefaultOrder()
	}
	// Distance sorting is ascending by convention regardless of input.
	if out.Sort == model.SortDistance {
		out.Order = model.OrderAsc
	}

	if out.Page < 1 {
		out.Page = 1
	}
	out.Limit = clampInt(out.Limit, 1, MaxLimit, DefaultLimit)
	out.DistanceKm = clampInt(out.DistanceKm, MinDistanceKm, MaxDistanceKm, DefaultDistanceKm)

	// ParseFloat accepts NaN and Inf; a non-finite coordinate drops the pair.
	if s.Lat == nil || s.Lng == nil || !finite(*s.Lat) || !finite(*s.Lng) {
		out.Lat, out.Lng = nil, nil
	} else {
		lat := round6(geo.ClampLat(*s.Lat))
		lng := round6(geo.ClampLng(*s.Lng))
		out.Lat, out.Lng = &lat, &lng
	}

	return out
}

// HasLocation reports whether a search center is set.
func (s State) HasLocation() bool {
	return s.Lat != nil && s.Lng != nil
}

// WithoutPage returns s with pagination reset, for comparing whether two
// states differ by anything other than the page cursor.
func (s State) WithoutPage() State {
	s.Page = 1
	return s
}

// NormalizeQuery folds full-width characters to their half-width forms and
// trims surrounding whitespace.
func NormalizeQuery(q string) string {
	return strings.TrimSpace(width.Fold.String(q))
}

// NormalizeCategories trims, drops empties, and deduplicates preserving
// first-seen order.
func NormalizeCategories(cats []string) []string {
	if len(cats) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(cats))
	var out []string
	for _, c := range cats {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// clampInt clamps v to [min, max], substituting def when v is unset (zero).
func clampInt(v, min, max, def int) int {
	if v == 0 {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
