// Package urlsync bridges the search-state store and a navigable URL.
//
// The bridge is one-directional at a time: URL changes hydrate the store
// (tagged with a busy flag so they are not echoed back), and store changes
// navigate via push or replace depending on the pending history mode.
// Filter and map edits are debounced so continuous editing collapses into a
// single replace; explicit pagination pushes immediately so the back button
// works.
package urlsync

import (
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/trainmap/gymdex/internal/searchstate"
)

// DefaultDebounce is how long keyword/filter/map edits settle before the
// URL (and therefore the fetch layer keyed off it) sees them.
const DefaultDebounce = 300 * time.Millisecond

// Navigator is the browser-history surface the synchronizer writes to.
// Implementations must not mutate the store synchronously.
type Navigator interface {
	// Push creates a new history entry for the query string.
	Push(query string)
	// Replace overwrites the current history entry.
	Replace(query string)
}

// Synchronizer keeps the store and the URL consistent without feedback loops.
type Synchronizer struct {
	store    *searchstate.Store
	nav      Navigator
	debounce time.Duration

	mu         sync.Mutex
	lastSynced string
	pending    string
	timer      *time.Timer
	stopped    bool
	unsub      func()
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithDebounce overrides the edit debounce. Zero disables debouncing.
func WithDebounce(d time.Duration) Option {
	return func(s *Synchronizer) { s.debounce = d }
}

// New creates a synchronizer. Call Start to begin observing the store.
func New(store *searchstate.Store, nav Navigator, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:    store,
		nav:      nav,
		debounce: DefaultDebounce,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Start subscribes to the store and records the current state as already
// synced, so starting never triggers a navigation by itself.
func (s *Synchronizer) Start() {
	s.mu.Lock()
	s.lastSynced = s.store.Snapshot().Filter.Encode()
	s.stopped = false
	s.mu.Unlock()
	s.unsub = s.store.Subscribe(s.onStore)
}

// Stop tears the bridge down: unsubscribes and discards any pending
// debounced navigation so a late-firing timer cannot touch a dead session.
func (s *Synchronizer) Stop() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.mu.Lock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.pending = ""
	s.mu.Unlock()
}

// OnURLChange feeds a browser-driven URL change (navigation, back/forward)
// into the store. The store tags the resulting notification with its
// URL-syncing flag, which onStore treats as already synced.
func (s *Synchronizer) OnURLChange(rawQuery string) {
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		zap.L().Warn("urlsync: unparseable query, using defaults", zap.Error(err))
		values = url.Values{}
	}
	s.store.ApplyURLState(values)
}

// LastSynced returns the most recently synced canonical query string.
func (s *Synchronizer) LastSynced() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSynced
}

func (s *Synchronizer) onStore(snap searchstate.State) {
	canonical := snap.Filter.Encode()

	// Store changed because the URL changed: record, never echo back.
	if snap.Hydrating || snap.URLSyncing {
		s.mu.Lock()
		s.lastSynced = canonical
		s.pending = ""
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || canonical == s.lastSynced {
		return
	}

	if snap.PendingHistoryMode == searchstate.HistoryPush {
		// Pagination must be revisitable: navigate now, superseding any
		// pending debounced replace.
		if s.timer != nil {
			s.timer.Stop()
			s.timer = nil
		}
		s.pending = ""
		s.lastSynced = canonical
		s.nav.Push(canonical)
		zap.L().Debug("urlsync: push", zap.String("query", canonical))
		return
	}

	if s.debounce <= 0 {
		s.lastSynced = canonical
		s.nav.Replace(canonical)
		return
	}

	// Debounce replaces: only the last state within the window lands.
	s.pending = canonical
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.debounce, s.flush)
}

func (s *Synchronizer) flush() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || s.pending == "" || s.pending == s.lastSynced {
		s.pending = ""
		return
	}
	s.lastSynced = s.pending
	s.nav.Replace(s.pending)
	zap.L().Debug("urlsync: replace", zap.String("query", s.pending))
	s.pending = ""
}
