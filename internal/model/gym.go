// Package model defines the domain types shared across the gym directory.
package model

import "time"

// Sort identifies a search result ordering.
type Sort string

const (
	SortDistance Sort = "distance"
	SortPopular  Sort = "popular"
	SortFresh    Sort = "fresh"
	SortNewest   Sort = "newest"
)

// ParseSort validates a sort slug against the closed enum.
func ParseSort(s string) (Sort, bool) {
	switch Sort(s) {
	case SortDistance, SortPopular, SortFresh, SortNewest:
		return Sort(s), true
	}
	return "", false
}

// Order is the sort direction.
type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// DefaultOrder returns the conventional direction for a sort key.
// Distance sorts ascending (nearest first); everything else descending.
func (s Sort) DefaultOrder() Order {
	if s == SortDistance {
		return OrderAsc
	}
	return OrderDesc
}

// ParseOrder validates an order slug.
func ParseOrder(s string) (Order, bool) {
	switch Order(s) {
	case OrderAsc, OrderDesc:
		return Order(s), true
	}
	return "", false
}

// Gym is a facility record as returned by the search and detail endpoints.
type Gym struct {
	ID         string   `json:"id"`
	Slug       string   `json:"slug"`
	Name       string   `json:"name"`
	Pref       string   `json:"pref"`
	City       string   `json:"city"`
	Address    string   `json:"address,omitempty"`
	Categories []string `json:"categories,omitempty"`
	Latitude   float64  `json:"latitude"`
	Longitude  float64  `json:"longitude"`
	DistanceKm float64  `json:"distance_km,omitempty"`
	Popularity int      `json:"popularity,omitempty"`
	UpdatedAt  string   `json:"updated_at,omitempty"`
}

// SearchMeta carries pagination metadata for a search response.
type SearchMeta struct {
	Total   int  `json:"total"`
	Page    int  `json:"page"`
	PerPage int  `json:"perPage"`
	HasNext bool `json:"hasNext"`
	HasPrev bool `json:"hasPrev"`
}

// SearchResult is one page of paginated search results.
type SearchResult struct {
	Items []Gym      `json:"items"`
	Meta  SearchMeta `json:"meta"`
}

// NearbyGym is the slim record used for map markers.
type NearbyGym struct {
	ID        string  `json:"id"`
	Slug      string  `json:"slug"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// NearbyResult is one page of map markers with cursor pagination.
type NearbyResult struct {
	Items     []NearbyGym `json:"items"`
	HasNext   bool        `json:"hasNext"`
	PageToken string      `json:"pageToken,omitempty"`
}

// Prefecture is a top-level region option.
type Prefecture struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// City is a second-level region option scoped to a prefecture.
type City struct {
	Slug     string `json:"slug"`
	Name     string `json:"name"`
	PrefSlug string `json:"pref"`
}

// Category is an equipment/category filter option.
type Category struct {
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// ViewEntry is one row of the local browsing history.
type ViewEntry struct {
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	ViewedAt time.Time `json:"viewed_at"`
}

// Favorite is a locally cached favorite.
type Favorite struct {
	Slug    string    `json:"slug"`
	AddedAt time.Time `json:"added_at"`
}
