// Package session composes the search core into one headless search session:
// state store, URL synchronizer, fetch orchestrator, selection coordinator,
// and the marker clustering index, backed by the API client and the local
// device store.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/trainmap/gymdex/internal/api"
	"github.com/trainmap/gymdex/internal/cluster"
	"github.com/trainmap/gymdex/internal/model"
	"github.com/trainmap/gymdex/internal/orchestrator"
	"github.com/trainmap/gymdex/internal/searchstate"
	"github.com/trainmap/gymdex/internal/selection"
	"github.com/trainmap/gymdex/internal/storage"
	"github.com/trainmap/gymdex/internal/urlsync"
)

// Meta bundles the filter option lists prefetched at session start.
type Meta struct {
	Prefectures []model.Prefecture `json:"prefectures"`
	Cities      []model.City       `json:"cities"`
	Categories  []model.Category   `json:"categories"`
}

// Session is one live search session.
type Session struct {
	client api.Client
	local  storage.Local

	store   *searchstate.Store
	history *urlsync.MemoryHistory
	sync    *urlsync.Synchronizer
	orch    *orchestrator.Orchestrator
	sel     *selection.Coordinator

	clusterOpts cluster.Options

	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	index *cluster.Index
	meta  Meta

	unsub func()
}

// Option configures a Session.
type Option func(*settings)

type settings struct {
	debounce    time.Duration
	selWindow   time.Duration
	clusterOpts cluster.Options
}

// WithDebounce overrides the URL-sync debounce.
func WithDebounce(d time.Duration) Option {
	return func(s *settings) { s.debounce = d }
}

// WithSelectionWindow overrides the selection suppression window.
func WithSelectionWindow(d time.Duration) Option {
	return func(s *settings) { s.selWindow = d }
}

// WithClusterOptions overrides the clustering parameters.
func WithClusterOptions(o cluster.Options) Option {
	return func(s *settings) { s.clusterOpts = o }
}

// New creates a session over the given backend client and local store.
func New(client api.Client, local storage.Local, opts ...Option) *Session {
	cfg := settings{
		debounce:    urlsync.DefaultDebounce,
		selWindow:   selection.DefaultSuppressionWindow,
		clusterOpts: cluster.DefaultOptions(),
	}
	for _, o := range opts {
		o(&cfg)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Session{
		client:      client,
		local:       local,
		store:       searchstate.New(),
		history:     urlsync.NewMemoryHistory(),
		clusterOpts: cfg.clusterOpts,
		ctx:         ctx,
		cancel:      cancel,
		index:       cluster.Build(nil, cfg.clusterOpts),
	}
	s.sync = urlsync.New(s.store, s.history, urlsync.WithDebounce(cfg.debounce))
	s.sel = selection.New(selection.WithSuppressionWindow(cfg.selWindow))
	s.orch = orchestrator.New(client,
		orchestrator.WithOnSearch(s.onSearch),
		orchestrator.WithOnNearby(s.onNearby),
	)
	return s
}

// Start hydrates the session from an initial URL query, begins URL syncing,
// prefetches the filter option lists, and issues the first fetch. The meta
// prefetch is best-effort; a failed option list leaves that list empty.
func (s *Session) Start(initialQuery string) {
	s.store.HydrateFromURL(initialQuery)
	s.sync.Start()
	s.unsub = s.store.Subscribe(s.onStore)

	// Each list fetches independently: one failure must not cancel or empty
	// the others.
	var g errgroup.Group
	var meta Meta
	g.Go(func() error {
		prefs, err := s.client.Prefectures(s.ctx)
		if err != nil {
			zap.L().Warn("session: prefecture prefetch failed", zap.Error(err))
			return nil
		}
		meta.Prefectures = prefs
		return nil
	})
	g.Go(func() error {
		cats, err := s.client.Categories(s.ctx)
		if err != nil {
			zap.L().Warn("session: category prefetch failed", zap.Error(err))
			return nil
		}
		meta.Categories = cats
		return nil
	})
	if pref := s.store.Snapshot().Filter.Pref; pref != "" {
		g.Go(func() error {
			cities, err := s.client.Cities(s.ctx, pref)
			if err != nil {
				zap.L().Warn("session: city prefetch failed", zap.Error(err))
				return nil
			}
			meta.Cities = cities
			return nil
		})
	}
	_ = g.Wait()
	s.mu.Lock()
	s.meta = meta
	s.mu.Unlock()

	s.orch.Apply(s.ctx, s.store.Snapshot().Filter)
}

// Close tears the session down.
func (s *Session) Close() {
	if s.unsub != nil {
		s.unsub()
		s.unsub = nil
	}
	s.sync.Stop()
	s.orch.Close()
	s.cancel()
}

// Store exposes the underlying state store.
func (s *Session) Store() *searchstate.Store { return s.store }

// History exposes the session's URL history.
func (s *Session) History() *urlsync.MemoryHistory { return s.history }

// Meta returns the prefetched option lists.
func (s *Session) Meta() Meta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta
}

// Results returns the current list query snapshot.
func (s *Session) Results() orchestrator.SearchView {
	return s.orch.SearchView()
}

// Nearby returns the current map query snapshot.
func (s *Session) Nearby() orchestrator.NearbyView {
	return s.orch.NearbyView()
}

// LoadNextPage appends the next result page.
func (s *Session) LoadNextPage() {
	s.orch.LoadNextPage(s.ctx)
}

// Select records a user selection from a surface. The detail record is
// fetched in the background to feed the local view history.
func (s *Session) Select(id, slug string, src selection.Source) {
	s.sel.SetSelected(id, src)
	s.store.SetSelectedGym(searchstate.Selection{
		ID:     id,
		Slug:   slug,
		Source: searchstate.SelectionSource(src),
	})

	if slug == "" {
		return
	}
	go func() {
		g, err := s.client.GymBySlug(s.ctx, slug)
		if err != nil {
			zap.L().Debug("session: detail fetch for history failed", zap.Error(err))
			return
		}
		if err := s.local.RecordView(s.ctx, g.Slug, g.Name); err != nil {
			zap.L().Debug("session: record view failed", zap.Error(err))
		}
	}()
}

// ClearSelection drops the current selection.
func (s *Session) ClearSelection() {
	s.sel.Clear()
	s.store.SetSelectedGym(searchstate.Selection{})
}

// Index returns the current marker cluster index.
func (s *Session) Index() *cluster.Index {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index
}

// onStore reconciles fetches after every store change. The orchestrator
// de-duplicates identical parameters, so over-calling is harmless.
func (s *Session) onStore(snap searchstate.State) {
	if snap.MapInteracting {
		return
	}
	s.orch.Apply(s.ctx, snap.Filter)
}

func (s *Session) onSearch(v orchestrator.SearchView) {
	if v.Status != orchestrator.StatusSuccess {
		return
	}
	totalPages := 0
	if v.Meta.PerPage > 0 {
		totalPages = (v.Meta.Total + v.Meta.PerPage - 1) / v.Meta.PerPage
	}
	s.store.SetTotalPages(totalPages)

	ids := make([]string, len(v.Items))
	for i, g := range v.Items {
		ids[i] = g.ID
	}
	s.store.ResetSelectionIfMissing(ids)
}

func (s *Session) onNearby(v orchestrator.NearbyView) {
	if v.Status != orchestrator.StatusSuccess {
		return
	}
	points := make([]cluster.Point, len(v.Items))
	for i, g := range v.Items {
		points[i] = cluster.Point{ID: g.ID, Lng: g.Longitude, Lat: g.Latitude}
	}
	ix := cluster.Build(points, s.clusterOpts)

	s.mu.Lock()
	s.index = ix
	s.mu.Unlock()
	zap.L().Debug("session: marker index rebuilt", zap.Int("points", len(points)))
}
