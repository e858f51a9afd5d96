// Package orchestrator owns the two async query lifecycles of a search
// session: the paginated result list and the nearby map markers.
//
// Every state change that affects query parameters aborts the in-flight
// request for that query and issues a new one; a generation counter
// guarantees that only the most recently issued request's result is ever
// applied, so late responses from superseded requests are discarded.
package orchestrator

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/trainmap/gymdex/internal/filter"
	"github.com/trainmap/gymdex/internal/model"
)

// Status is the lifecycle state of one query.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusPending Status = "pending"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Backend is the slice of the API client the orchestrator needs.
type Backend interface {
	SearchGyms(ctx context.Context, st filter.State) (*model.SearchResult, error)
	NearbyGyms(ctx context.Context, lat, lng float64, radiusKm int) (*model.NearbyResult, error)
}

// SearchView is a snapshot of the list query.
type SearchView struct {
	Status  Status
	Items   []model.Gym
	Meta    model.SearchMeta
	ErrText string
}

// NearbyView is a snapshot of the map query.
type NearbyView struct {
	Status  Status
	Items   []model.NearbyGym
	ErrText string
}

type searchQuery struct {
	status  Status
	items   []model.Gym
	meta    model.SearchMeta
	errText string
	lastKey string // canonical params of the last issued fetch
	gen     uint64
	cancel  context.CancelFunc
}

type nearbyQuery struct {
	status  Status
	items   []model.NearbyGym
	errText string
	lastKey string
	gen     uint64
	cancel  context.CancelFunc
}

// Orchestrator coordinates the search and nearby lifecycles.
type Orchestrator struct {
	backend Backend

	mu     sync.Mutex
	search searchQuery
	nearby nearbyQuery
	last   filter.State

	onSearch func(SearchView)
	onNearby func(NearbyView)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithOnSearch registers a callback fired after every search status change.
func WithOnSearch(fn func(SearchView)) Option {
	return func(o *Orchestrator) { o.onSearch = fn }
}

// WithOnNearby registers a callback fired after every nearby status change.
func WithOnNearby(fn func(NearbyView)) Option {
	return func(o *Orchestrator) { o.onNearby = fn }
}

// New creates an orchestrator over the given backend.
func New(backend Backend, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		backend: backend,
		search:  searchQuery{status: StatusIdle},
		nearby:  nearbyQuery{status: StatusIdle},
	}
	for _, op := range opts {
		op(o)
	}
	return o
}

// Apply reconciles both queries against a new filter state. Unchanged
// parameters leave the corresponding in-flight or settled query alone;
// changed parameters abort and refetch with replace semantics.
func (o *Orchestrator) Apply(ctx context.Context, st filter.State) {
	st = st.Normalized()
	o.applySearch(ctx, st, false)
	o.applyNearby(ctx, st)

	o.mu.Lock()
	o.last = st
	o.mu.Unlock()
}

// Refetch re-issues both queries with current parameters, for the UI's
// retry action after an error.
func (o *Orchestrator) Refetch(ctx context.Context) {
	o.mu.Lock()
	st := o.last
	o.search.lastKey = ""
	o.nearby.lastKey = ""
	o.mu.Unlock()

	o.applySearch(ctx, st, false)
	o.applyNearby(ctx, st)
}

// LoadNextPage fetches the next result page and appends it to the current
// list. It is a no-op while a fetch is pending or when the last response
// reported no further pages.
func (o *Orchestrator) LoadNextPage(ctx context.Context) {
	o.mu.Lock()
	if o.search.status == StatusPending || !o.search.meta.HasNext {
		o.mu.Unlock()
		return
	}
	st := o.last
	st.Page = o.search.meta.Page + 1
	o.mu.Unlock()

	o.applySearch(ctx, st, true)

	o.mu.Lock()
	o.last = st
	o.mu.Unlock()
}

// SearchView returns a snapshot of the list query.
func (o *Orchestrator) SearchView() SearchView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return SearchView{
		Status:  o.search.status,
		Items:   append([]model.Gym(nil), o.search.items...),
		Meta:    o.search.meta,
		ErrText: o.search.errText,
	}
}

// NearbyView returns a snapshot of the map query.
func (o *Orchestrator) NearbyView() NearbyView {
	o.mu.Lock()
	defer o.mu.Unlock()
	return NearbyView{
		Status:  o.nearby.status,
		Items:   append([]model.NearbyGym(nil), o.nearby.items...),
		ErrText: o.nearby.errText,
	}
}

// Close aborts all in-flight fetches.
func (o *Orchestrator) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.search.cancel != nil {
		o.search.cancel()
		o.search.cancel = nil
	}
	if o.nearby.cancel != nil {
		o.nearby.cancel()
		o.nearby.cancel = nil
	}
}

func (o *Orchestrator) applySearch(ctx context.Context, st filter.State, appendMode bool) {
	key := st.Encode()

	o.mu.Lock()
	if key == o.search.lastKey {
		// De-duplicate: identical parameters are already in flight or settled.
		o.mu.Unlock()
		return
	}
	if o.search.cancel != nil {
		o.search.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	o.search.cancel = cancel
	o.search.lastKey = key
	o.search.gen++
	gen := o.search.gen
	o.search.status = StatusPending
	o.mu.Unlock()
	o.notifySearch()

	go func() {
		res, err := o.backend.SearchGyms(fetchCtx, st)
		o.settleSearch(gen, st, res, err, appendMode)
	}()
}

func (o *Orchestrator) settleSearch(gen uint64, st filter.State, res *model.SearchResult, err error, appendMode bool) {
	o.mu.Lock()
	if gen != o.search.gen {
		// Superseded: a newer request owns the lifecycle now.
		o.mu.Unlock()
		return
	}

	switch {
	case err != nil && isCanceled(err):
		// Cancellation is not an error; the superseding request will settle.
		o.mu.Unlock()
		return
	case err != nil:
		o.search.status = StatusError
		o.search.errText = "search failed, showing previous results"
		// Allow a retry with the same params.
		o.search.lastKey = ""
		o.mu.Unlock()
		zap.L().Warn("search fetch failed", zap.Error(err))
		o.notifySearch()
		return
	}

	if appendMode {
		o.search.items = mergeByID(o.search.items, res.Items)
	} else {
		o.search.items = append([]model.Gym(nil), res.Items...)
	}
	o.search.meta = res.Meta
	o.search.status = StatusSuccess
	o.search.errText = ""
	o.mu.Unlock()

	zap.L().Debug("search settled",
		zap.String("params", st.Encode()),
		zap.Int("items", len(res.Items)),
		zap.Bool("append", appendMode),
	)
	o.notifySearch()
}

func (o *Orchestrator) applyNearby(ctx context.Context, st filter.State) {
	// The map query needs a finite center; without one it is idle.
	if !st.HasLocation() {
		o.mu.Lock()
		if o.nearby.cancel != nil {
			o.nearby.cancel()
			o.nearby.cancel = nil
		}
		changed := o.nearby.status != StatusIdle
		o.nearby.status = StatusIdle
		o.nearby.lastKey = ""
		o.mu.Unlock()
		if changed {
			o.notifyNearby()
		}
		return
	}

	key := nearbyKey(st)

	o.mu.Lock()
	if key == o.nearby.lastKey {
		o.mu.Unlock()
		return
	}
	if o.nearby.cancel != nil {
		o.nearby.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	o.nearby.cancel = cancel
	o.nearby.lastKey = key
	o.nearby.gen++
	gen := o.nearby.gen
	o.nearby.status = StatusPending
	lat, lng, radius := *st.Lat, *st.Lng, st.DistanceKm
	o.mu.Unlock()
	o.notifyNearby()

	go func() {
		res, err := o.backend.NearbyGyms(fetchCtx, lat, lng, radius)
		o.settleNearby(gen, res, err)
	}()
}

func (o *Orchestrator) settleNearby(gen uint64, res *model.NearbyResult, err error) {
	o.mu.Lock()
	if gen != o.nearby.gen {
		o.mu.Unlock()
		return
	}

	switch {
	case err != nil && isCanceled(err):
		o.mu.Unlock()
		return
	case err != nil:
		o.nearby.status = StatusError
		o.nearby.errText = "map results failed to refresh"
		o.nearby.lastKey = ""
		o.mu.Unlock()
		zap.L().Warn("nearby fetch failed", zap.Error(err))
		o.notifyNearby()
		return
	}

	o.nearby.items = append([]model.NearbyGym(nil), res.Items...)
	o.nearby.status = StatusSuccess
	o.nearby.errText = ""
	o.mu.Unlock()
	o.notifyNearby()
}

func (o *Orchestrator) notifySearch() {
	if o.onSearch != nil {
		o.onSearch(o.SearchView())
	}
}

func (o *Orchestrator) notifyNearby() {
	if o.onNearby != nil {
		o.onNearby(o.NearbyView())
	}
}

// nearbyKey extracts only the parameters the map query depends on.
func nearbyKey(st filter.State) string {
	slim := filter.State{
		Lat:        st.Lat,
		Lng:        st.Lng,
		DistanceKm: st.DistanceKm,
	}
	return slim.Encode()
}

// mergeByID appends extras to base, dropping duplicates and preserving
// original-then-new order.
func mergeByID(base, extra []model.Gym) []model.Gym {
	seen := make(map[string]struct{}, len(base))
	for _, g := range base {
		seen[g.ID] = struct{}{}
	}
	out := append([]model.Gym(nil), base...)
	for _, g := range extra {
		if _, ok := seen[g.ID]; ok {
			continue
		}
		seen[g.ID] = struct{}{}
		out = append(out, g)
	}
	return out
}

// isCanceled matches only explicit cancellation, the signature of a
// superseded fetch. Deadline exhaustion is a timeout and must surface as an
// error, not vanish as if a newer request were going to settle.
func isCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
