package searchstate

import (
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainmap/gymdex/internal/model"
)

func TestFilterEditsResetPageAndReplaceHistory(t *testing.T) {
	t.Parallel()

	edits := []struct {
		name string
		edit func(s *Store)
	}{
		{"query", func(s *Store) { s.SetQuery("bench") }},
		{"pref", func(s *Store) { s.SetPrefecture("tokyo") }},
		{"city", func(s *Store) { s.SetPrefecture("tokyo"); s.SetCity("shibuya") }},
		{"categories", func(s *Store) { s.SetCategories([]string{"rack"}) }},
		{"sort", func(s *Store) { s.SetSort("newest") }},
		{"distance", func(s *Store) { s.SetDistance(25) }},
		{"map", func(s *Store) { s.SetMapState(MapState{Lat: 35.6, Lng: 139.7}) }},
	}

	for _, tt := range edits {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s := New()
			s.SetPagination(5)
			tt.edit(s)

			snap := s.Snapshot()
			assert.Equal(t, 1, snap.Filter.Page, "filter edit resets pagination")
			assert.Equal(t, HistoryReplace, snap.PendingHistoryMode)
		})
	}
}

func TestSetPaginationPushesByDefault(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetQuery("bench")
	s.SetPagination(3)

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Filter.Page)
	assert.Equal(t, "bench", snap.Filter.Query, "other filters untouched")
	assert.Equal(t, HistoryPush, snap.PendingHistoryMode)

	s.SetPagination(4, PaginationOpts{History: HistoryReplace})
	assert.Equal(t, HistoryReplace, s.Snapshot().PendingHistoryMode)
}

func TestSetPrefectureClearsCity(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetPrefecture("tokyo")
	s.SetCity("shibuya")
	s.SetPrefecture("kanagawa")

	snap := s.Snapshot()
	assert.Equal(t, "kanagawa", snap.Filter.Pref)
	assert.Empty(t, snap.Filter.City)
}

func TestSetSortNormalizesOrder(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetSort("distance")
	assert.Equal(t, model.OrderAsc, s.Snapshot().Filter.Order)

	s.SetSort("popular")
	assert.Equal(t, model.OrderDesc, s.Snapshot().Filter.Order)

	s.SetSort("garbage")
	snap := s.Snapshot()
	assert.Equal(t, model.SortPopular, snap.Filter.Sort)
}

func TestSetMapState(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetMapState(MapState{Lat: 35.68, Lng: 139.76, RadiusKm: 5, Zoom: 15})

	snap := s.Snapshot()
	require.True(t, snap.Filter.HasLocation())
	assert.Equal(t, 35.68, *snap.Filter.Lat)
	assert.Equal(t, 5, snap.Filter.DistanceKm)
	assert.Equal(t, 15.0, snap.Zoom)
	assert.Equal(t, HistoryReplace, snap.PendingHistoryMode)

	// Zero radius/zoom keep previous values.
	s.SetMapState(MapState{Lat: 35.7, Lng: 139.8})
	snap = s.Snapshot()
	assert.Equal(t, 5, snap.Filter.DistanceKm)
	assert.Equal(t, 15.0, snap.Zoom)
}

func TestSelection(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s := New().WithNow(func() time.Time { return now })

	s.SetSelectedGym(Selection{Slug: "gold-gym-ebisu", ID: "g1", Source: SourceMap})
	snap := s.Snapshot()
	assert.Equal(t, "g1", snap.SelectedID)
	assert.Equal(t, SourceMap, snap.LastSelectionSource)
	assert.Equal(t, now, snap.LastSelectionAt)
	assert.True(t, snap.RightPanelOpen)

	// Clearing the slug closes the panel.
	s.SetSelectedGym(Selection{Source: SourcePanel})
	assert.False(t, s.Snapshot().RightPanelOpen)
}

func TestResetSelectionIfMissing(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetSelectedGym(Selection{Slug: "a", ID: "g1", Source: SourceList})

	s.ResetSelectionIfMissing([]string{"g1", "g2"})
	assert.Equal(t, "g1", s.Snapshot().SelectedID, "still present, kept")

	s.ResetSelectionIfMissing([]string{"g2", "g3"})
	snap := s.Snapshot()
	assert.Empty(t, snap.SelectedID)
	assert.Empty(t, snap.SelectedSlug)
	assert.False(t, snap.RightPanelOpen)
}

func TestSetTotalPagesClampsCurrentPage(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetPagination(9)
	s.SetTotalPages(3)

	snap := s.Snapshot()
	assert.Equal(t, 3, snap.Filter.Page)
	assert.Equal(t, HistoryReplace, snap.PendingHistoryMode)

	// Within range: untouched, history mode preserved.
	s.SetPagination(2)
	s.SetTotalPages(3)
	snap = s.Snapshot()
	assert.Equal(t, 2, snap.Filter.Page)
	assert.Equal(t, HistoryPush, snap.PendingHistoryMode)
}

func TestApplyURLStatePreservesViewState(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetMapState(MapState{Lat: 35.6, Lng: 139.7, Zoom: 16})
	s.SetSelectedGym(Selection{Slug: "anytime-meguro", ID: "g9", Source: SourceURL})

	s.ApplyURLState(url.Values{"q": {"sauna"}, "pref": {"tokyo"}, "page": {"2"}})

	snap := s.Snapshot()
	assert.Equal(t, "sauna", snap.Filter.Query)
	assert.Equal(t, "tokyo", snap.Filter.Pref)
	assert.Equal(t, 2, snap.Filter.Page)
	assert.Equal(t, 16.0, snap.Zoom, "zoom survives hydration")
	assert.Equal(t, "g9", snap.SelectedID, "selection survives hydration")
	assert.False(t, snap.URLSyncing, "flag cleared after the update")
}

func TestHydrationNotificationCarriesBusyFlag(t *testing.T) {
	t.Parallel()

	s := New()
	var flagged []bool
	s.Subscribe(func(st State) {
		flagged = append(flagged, st.URLSyncing || st.Hydrating)
	})

	s.ApplyURLState(url.Values{"q": {"pool"}})
	s.SetQuery("yoga")
	s.HydrateFromURL("q=crossfit")

	require.Len(t, flagged, 3)
	assert.True(t, flagged[0], "URL-driven update is flagged")
	assert.False(t, flagged[1], "user edit is not")
	assert.True(t, flagged[2], "initial hydration is flagged")
}

func TestSubscribeAndUnsubscribe(t *testing.T) {
	t.Parallel()

	s := New()
	var calls int
	cancel := s.Subscribe(func(State) { calls++ })

	s.SetQuery("a")
	s.SetQuery("b")
	cancel()
	s.SetQuery("c")

	assert.Equal(t, 2, calls)
}

func TestSnapshotDoesNotAliasInternalState(t *testing.T) {
	t.Parallel()

	s := New()
	s.SetCategories([]string{"rack", "pool"})

	snap := s.Snapshot()
	snap.Filter.Categories[0] = "mutated"

	assert.Equal(t, []string{"rack", "pool"}, s.Snapshot().Filter.Categories)
}
