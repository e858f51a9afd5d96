package urlsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trainmap/gymdex/internal/searchstate"
)

const testDebounce = 20 * time.Millisecond

func settle() { time.Sleep(5 * testDebounce) }

func newSync(t *testing.T) (*searchstate.Store, *MemoryHistory, *Synchronizer) {
	t.Helper()
	store := searchstate.New()
	hist := NewMemoryHistory()
	s := New(store, hist, WithDebounce(testDebounce))
	s.Start()
	t.Cleanup(s.Stop)
	return store, hist, s
}

func TestDebouncedEditsCollapseToOneReplace(t *testing.T) {
	t.Parallel()

	store, hist, _ := newSync(t)

	store.SetQuery("b")
	store.SetQuery("be")
	store.SetQuery("bench")
	settle()

	assert.Equal(t, 1, hist.Len(), "filter edits replace, never push")
	assert.Equal(t, "q=bench", hist.Current())
}

func TestPaginationPushesImmediately(t *testing.T) {
	t.Parallel()

	store, hist, _ := newSync(t)

	store.SetQuery("bench")
	settle()
	store.SetPagination(2)

	assert.Equal(t, 2, hist.Len(), "pagination creates a history entry")
	assert.Equal(t, "page=2&q=bench", hist.Current())
}

func TestPushSupersedesPendingReplace(t *testing.T) {
	t.Parallel()

	store, hist, _ := newSync(t)

	// An edit still inside its debounce window followed by pagination:
	// the push carries the combined state, and the stale replace never fires.
	store.SetQuery("yoga")
	store.SetPagination(3)
	settle()

	assert.Equal(t, 2, hist.Len())
	assert.Equal(t, "page=3&q=yoga", hist.Current())
	assert.Equal(t, "", hist.Entries()[0], "base entry untouched")
}

func TestURLChangeDoesNotEchoBack(t *testing.T) {
	t.Parallel()

	store, hist, s := newSync(t)

	s.OnURLChange("q=sauna&pref=tokyo")
	settle()

	assert.Equal(t, 1, hist.Len(), "hydration must not navigate")
	assert.Equal(t, "", hist.Current())
	assert.Equal(t, "sauna", store.Snapshot().Filter.Query)
	assert.Equal(t, "pref=tokyo&q=sauna", s.LastSynced())
}

func TestBackNavigationRoundTrip(t *testing.T) {
	t.Parallel()

	store, hist, s := newSync(t)

	store.SetQuery("bench")
	settle()
	store.SetPagination(2)

	prev, ok := hist.Back()
	require.True(t, ok)
	s.OnURLChange(prev)
	settle()

	assert.Equal(t, 1, store.Snapshot().Filter.Page)
	assert.Equal(t, "bench", store.Snapshot().Filter.Query)
	assert.Equal(t, 2, hist.Len(), "back navigation adds nothing")
}

func TestNoopMutationDoesNotNavigate(t *testing.T) {
	t.Parallel()

	store, hist, _ := newSync(t)

	store.SetQuery("bench")
	settle()
	store.SetQuery("bench")
	settle()

	assert.Equal(t, 1, hist.Len())
}

func TestStopDiscardsPendingNavigation(t *testing.T) {
	t.Parallel()

	store := searchstate.New()
	hist := NewMemoryHistory()
	s := New(store, hist, WithDebounce(testDebounce))
	s.Start()

	store.SetQuery("bench")
	s.Stop()
	settle()

	assert.Equal(t, "", hist.Current(), "torn-down session must not navigate")
}

func TestMemoryHistoryForwardDropsOnPush(t *testing.T) {
	t.Parallel()

	h := NewMemoryHistory()
	h.Push("a")
	h.Push("b")
	_, ok := h.Back()
	require.True(t, ok)
	h.Push("c")

	assert.Equal(t, []string{"", "a", "c"}, h.Entries())
	_, ok = h.Forward()
	assert.False(t, ok)
}
