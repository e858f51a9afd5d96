package session

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/trainmap/gymdex/internal/geo"
	"github.com/trainmap/gymdex/internal/searchstate"
	"github.com/trainmap/gymdex/internal/selection"
)

// Router exposes the session over HTTP for a web UI.
func (s *Session) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/session", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/results", s.handleResults)
		r.Get("/markers", s.handleMarkers)
		r.Get("/meta", s.handleMeta)
		r.Post("/query", s.handleQuery)
		r.Post("/page", s.handlePage)
		r.Post("/viewport", s.handleViewport)
		r.Post("/select", s.handleSelect)
	})

	return r
}

type stateResponse struct {
	URL            string   `json:"url"`
	Query          string   `json:"query"`
	Pref           string   `json:"pref,omitempty"`
	City           string   `json:"city,omitempty"`
	Categories     []string `json:"categories,omitempty"`
	Sort           string   `json:"sort"`
	Order          string   `json:"order"`
	Page           int      `json:"page"`
	TotalPages     int      `json:"total_pages"`
	Zoom           float64  `json:"zoom"`
	SelectedID     string   `json:"selected_id,omitempty"`
	SelectedSlug   string   `json:"selected_slug,omitempty"`
	RightPanelOpen bool     `json:"right_panel_open"`
	SearchStatus   string   `json:"search_status"`
	NearbyStatus   string   `json:"nearby_status"`
	SearchError    string   `json:"search_error,omitempty"`
}

func (s *Session) handleState(w http.ResponseWriter, _ *http.Request) {
	snap := s.store.Snapshot()
	sv := s.Results()
	nv := s.Nearby()
	writeJSON(w, http.StatusOK, stateResponse{
		URL:            s.history.Current(),
		Query:          snap.Filter.Query,
		Pref:           snap.Filter.Pref,
		City:           snap.Filter.City,
		Categories:     snap.Filter.Categories,
		Sort:           string(snap.Filter.Sort),
		Order:          string(snap.Filter.Order),
		Page:           snap.Filter.Page,
		TotalPages:     snap.TotalPages,
		Zoom:           snap.Zoom,
		SelectedID:     snap.SelectedID,
		SelectedSlug:   snap.SelectedSlug,
		RightPanelOpen: snap.RightPanelOpen,
		SearchStatus:   string(sv.Status),
		NearbyStatus:   string(nv.Status),
		SearchError:    sv.ErrText,
	})
}

func (s *Session) handleResults(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Results())
}

func (s *Session) handleMeta(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.Meta())
}

type queryRequest struct {
	Q             *string   `json:"q,omitempty"`
	Pref          *string   `json:"pref,omitempty"`
	City          *string   `json:"city,omitempty"`
	Categories    *[]string `json:"categories,omitempty"`
	Sort          *string   `json:"sort,omitempty"`
	DistanceKm    *int      `json:"distance_km,omitempty"`
	Lat           *float64  `json:"lat,omitempty"`
	Lng           *float64  `json:"lng,omitempty"`
	ClearLocation bool      `json:"clear_location,omitempty"`
}

func (s *Session) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	if req.Q != nil {
		s.store.SetQuery(*req.Q)
	}
	if req.Pref != nil {
		s.store.SetPrefecture(*req.Pref)
	}
	if req.City != nil {
		s.store.SetCity(*req.City)
	}
	if req.Categories != nil {
		s.store.SetCategories(*req.Categories)
	}
	if req.Sort != nil {
		s.store.SetSort(*req.Sort)
	}
	if req.DistanceKm != nil {
		s.store.SetDistance(*req.DistanceKm)
	}
	switch {
	case req.ClearLocation:
		s.store.SetLocation(nil, nil)
	case req.Lat != nil && req.Lng != nil:
		s.store.SetLocation(req.Lat, req.Lng)
	}

	s.handleState(w, r)
}

type pageRequest struct {
	Page    int    `json:"page"`
	History string `json:"history,omitempty"` // "push" (default) or "replace"
}

func (s *Session) handlePage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.History == string(searchstate.HistoryReplace) {
		s.store.SetPagination(req.Page, searchstate.PaginationOpts{History: searchstate.HistoryReplace})
	} else {
		s.store.SetPagination(req.Page)
	}
	s.handleState(w, r)
}

type viewportRequest struct {
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	RadiusKm int     `json:"radius_km,omitempty"`
	Zoom     float64 `json:"zoom,omitempty"`
}

func (s *Session) handleViewport(w http.ResponseWriter, r *http.Request) {
	var req viewportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	s.store.SetMapState(searchstate.MapState{
		Lat:      req.Lat,
		Lng:      req.Lng,
		RadiusKm: req.RadiusKm,
		Zoom:     req.Zoom,
	})
	s.handleState(w, r)
}

type selectRequest struct {
	ID     string `json:"id"`
	Slug   string `json:"slug"`
	Source string `json:"source"`
}

func (s *Session) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}
	if req.ID == "" {
		s.ClearSelection()
	} else {
		src := selection.Source(req.Source)
		if src == "" {
			src = selection.SourceList
		}
		s.Select(req.ID, req.Slug, src)
	}
	s.handleState(w, r)
}

// handleMarkers answers a viewport query. Bounds default to the whole world
// and zoom defaults to the session's current zoom.
func (s *Session) handleMarkers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bbox := geo.BBox{MinLng: -180, MinLat: -85, MaxLng: 180, MaxLat: 85}
	if v := q.Get("west"); v != "" {
		bbox.MinLng = parseFloatOr(v, bbox.MinLng)
	}
	if v := q.Get("south"); v != "" {
		bbox.MinLat = parseFloatOr(v, bbox.MinLat)
	}
	if v := q.Get("east"); v != "" {
		bbox.MaxLng = parseFloatOr(v, bbox.MaxLng)
	}
	if v := q.Get("north"); v != "" {
		bbox.MaxLat = parseFloatOr(v, bbox.MaxLat)
	}
	zoom := s.store.Snapshot().Zoom
	if v := q.Get("zoom"); v != "" {
		zoom = parseFloatOr(v, zoom)
	}

	markers := s.Index().Query(bbox, zoom)
	fc := MarkersToGeoJSON(markers)
	writeJSON(w, http.StatusOK, fc)
}

func parseFloatOr(s string, def float64) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("session: encode response", zap.Error(err))
	}
}
