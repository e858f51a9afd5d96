// Package searchstate holds the per-session search state: filters, map
// viewport, pagination, and selection. It is the single shared mutable
// resource of a browsing session; every write goes through a named action
// and every read is an immutable snapshot.
package searchstate

import (
	"net/url"
	"sync"
	"time"

	"github.com/trainmap/gymdex/internal/filter"
	"github.com/trainmap/gymdex/internal/model"
)

// SelectionSource tags which surface produced a selection.
type SelectionSource string

const (
	SourceMap   SelectionSource = "map"
	SourceList  SelectionSource = "list"
	SourcePanel SelectionSource = "panel"
	SourceURL   SelectionSource = "url"
)

// HistoryMode selects how the next URL sync touches browser history.
// Filter and map edits replace the current entry so continuous editing does
// not pollute back/forward navigation; explicit pagination pushes.
type HistoryMode string

const (
	HistoryPush    HistoryMode = "push"
	HistoryReplace HistoryMode = "replace"
)

// DefaultZoom is the initial map zoom level.
const DefaultZoom = 13.0

// State is a snapshot of the session search state. Filter-relevant fields
// are carried by the canonical query string; the rest is transient view
// state that survives URL hydration.
type State struct {
	Filter filter.State

	Zoom                float64
	SelectedID          string
	SelectedSlug        string
	LastSelectionSource SelectionSource
	LastSelectionAt     time.Time
	RightPanelOpen      bool
	TotalPages          int

	PendingHistoryMode HistoryMode

	// Busy flags let subscribers distinguish why the state changed and
	// break store<->URL feedback loops.
	Hydrating      bool
	URLSyncing     bool
	MapInteracting bool
}

// Store is the session state container. All mutations are atomic; snapshots
// never alias internal state.
type Store struct {
	mu    sync.Mutex
	state State
	subs  map[int]func(State)
	next  int
	now   func() time.Time
}

// New creates a store with default state.
func New() *Store {
	return &Store{
		state: State{
			Filter:             filter.Default(),
			Zoom:               DefaultZoom,
			PendingHistoryMode: HistoryReplace,
		},
		subs: make(map[int]func(State)),
		now:  time.Now,
	}
}

// WithNow fixes the clock, for tests.
func (s *Store) WithNow(now func() time.Time) *Store {
	s.now = now
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn to be called with a snapshot after every mutation.
// The returned function cancels the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.next
	s.next++
	s.subs[id] = fn
	s.mu.Unlock()
	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (st State) clone() State {
	out := st
	out.Filter.Categories = append([]string(nil), st.Filter.Categories...)
	if st.Filter.Lat != nil {
		lat, lng := *st.Filter.Lat, *st.Filter.Lng
		out.Filter.Lat, out.Filter.Lng = &lat, &lng
	}
	return out
}

// update applies mutate under the lock, then notifies subscribers in
// registration order with the resulting snapshot.
func (s *Store) update(mutate func(*State)) {
	s.mu.Lock()
	mutate(&s.state)
	s.state.Filter = s.state.Filter.Normalized()
	snap := s.state.clone()
	fns := make([]func(State), 0, len(s.subs))
	for i := 0; i < s.next; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

// filterEdit marks the common consequences of a filter mutation: pagination
// restarts and the next URL sync replaces history.
func filterEdit(st *State) {
	st.Filter.Page = 1
	st.PendingHistoryMode = HistoryReplace
}

// SetQuery replaces the free-text keyword.
func (s *Store) SetQuery(q string) {
	s.update(func(st *State) {
		st.Filter.Query = q
		filterEdit(st)
	})
}

// SetPrefecture replaces the prefecture and clears any city, which is only
// meaningful under its prefecture.
func (s *Store) SetPrefecture(pref string) {
	s.update(func(st *State) {
		st.Filter.Pref = pref
		st.Filter.City = ""
		filterEdit(st)
	})
}

// SetCity replaces the city within the current prefecture.
func (s *Store) SetCity(city string) {
	s.update(func(st *State) {
		st.Filter.City = city
		filterEdit(st)
	})
}

// SetCategories replaces the category filter.
func (s *Store) SetCategories(cats []string) {
	s.update(func(st *State) {
		st.Filter.Categories = append([]string(nil), cats...)
		filterEdit(st)
	})
}

// SetSort replaces the sort key and renormalizes the order against it.
// An unrecognized key falls back to the default sort.
func (s *Store) SetSort(sort string) {
	s.update(func(st *State) {
		st.Filter.Sort = model.Sort(sort)
		if v, ok := model.ParseSort(sort); ok {
			st.Filter.Order = v.DefaultOrder()
		} else {
			st.Filter.Order = ""
		}
		filterEdit(st)
	})
}

// SetDistance replaces the search radius in km.
func (s *Store) SetDistance(km int) {
	s.update(func(st *State) {
		st.Filter.DistanceKm = km
		filterEdit(st)
	})
}

// SetLocation replaces the search center. Passing nils clears it.
func (s *Store) SetLocation(lat, lng *float64) {
	s.update(func(st *State) {
		st.Filter.Lat = lat
		st.Filter.Lng = lng
		filterEdit(st)
	})
}

// PaginationOpts overrides SetPagination defaults.
type PaginationOpts struct {
	// History overrides the default push mode.
	History HistoryMode
}

// SetPagination moves to a page without touching other filters. Page
// navigation pushes a history entry by default so it stays back-buttonable.
func (s *Store) SetPagination(page int, opts ...PaginationOpts) {
	mode := HistoryPush
	if len(opts) > 0 && opts[0].History != "" {
		mode = opts[0].History
	}
	s.update(func(st *State) {
		st.Filter.Page = page
		st.PendingHistoryMode = mode
	})
}

// MapState carries a map-interaction update.
type MapState struct {
	Lat      float64
	Lng      float64
	RadiusKm int     // 0 keeps the current radius
	Zoom     float64 // 0 keeps the current zoom
}

// SetMapState applies a pan/zoom from the map surface. Continuous panning
// must not flood browser history, so it always replaces.
func (s *Store) SetMapState(m MapState) {
	s.update(func(st *State) {
		lat, lng := m.Lat, m.Lng
		st.Filter.Lat, st.Filter.Lng = &lat, &lng
		if m.RadiusKm > 0 {
			st.Filter.DistanceKm = m.RadiusKm
		}
		if m.Zoom > 0 {
			st.Zoom = m.Zoom
		}
		filterEdit(st)
	})
}

// SetMapInteracting flags an in-progress drag so consumers can suppress
// reactions until it settles.
func (s *Store) SetMapInteracting(v bool) {
	s.update(func(st *State) {
		st.MapInteracting = v
	})
}

// Selection identifies a selected gym and the surface that selected it.
type Selection struct {
	Slug   string
	ID     string
	Source SelectionSource
}

// SetSelectedGym records a selection. The right panel opens exactly when a
// non-empty slug is selected.
func (s *Store) SetSelectedGym(sel Selection) {
	s.update(func(st *State) {
		st.SelectedSlug = sel.Slug
		st.SelectedID = sel.ID
		st.LastSelectionSource = sel.Source
		st.LastSelectionAt = s.now()
		st.RightPanelOpen = sel.Slug != ""
	})
}

// ResetSelectionIfMissing clears the selection when the selected id is no
// longer present in the latest result set.
func (s *Store) ResetSelectionIfMissing(availableIDs []string) {
	s.mu.Lock()
	id := s.state.SelectedID
	s.mu.Unlock()
	if id == "" {
		return
	}
	for _, a := range availableIDs {
		if a == id {
			return
		}
	}
	s.update(func(st *State) {
		st.SelectedID = ""
		st.SelectedSlug = ""
		st.RightPanelOpen = false
	})
}

// SetTotalPages records the page count from the latest result. A current
// page beyond the new total clamps down with a history replace so a
// narrowed filter never strands the session on an empty page.
func (s *Store) SetTotalPages(n int) {
	s.update(func(st *State) {
		st.TotalPages = n
		if n > 0 && st.Filter.Page > n {
			st.Filter.Page = n
			st.PendingHistoryMode = HistoryReplace
		}
	})
}

// ApplyURLState overwrites the filter-relevant fields from a browser URL
// query while preserving transient view state (zoom, selection). The
// URLSyncing flag is visible to subscribers during the notification so the
// URL synchronizer does not echo the change back.
func (s *Store) ApplyURLState(values url.Values) {
	s.hydrate(filter.Parse(values), func(st *State) { st.URLSyncing = true })
}

// HydrateFromURL seeds the store from the initial URL at session start.
func (s *Store) HydrateFromURL(rawQuery string) {
	s.hydrate(filter.ParseQuery(rawQuery), func(st *State) { st.Hydrating = true })
}

func (s *Store) hydrate(f filter.State, flag func(*State)) {
	s.update(func(st *State) {
		flag(st)
		st.Filter = f
		st.PendingHistoryMode = HistoryReplace
	})
	// Clear the busy flag without notifying: the flag only exists to tag
	// the hydration notification itself.
	s.mu.Lock()
	s.state.Hydrating = false
	s.state.URLSyncing = false
	s.mu.Unlock()
}
