package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/trainmap/gymdex/internal/model"
)

// Memory is the fallback Local implementation. Data lives for the process
// lifetime only.
type Memory struct {
	mu       sync.Mutex
	deviceID string
	favs     map[string]time.Time
	history  []model.ViewEntry
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{favs: make(map[string]time.Time)}
}

func (m *Memory) Close() error { return nil }

func (m *Memory) DeviceID(context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.deviceID == "" {
		m.deviceID = uuid.New().String()
	}
	return m.deviceID, nil
}

func (m *Memory) Favorites(context.Context) ([]model.Favorite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Favorite, 0, len(m.favs))
	for slug, at := range m.favs {
		out = append(out, model.Favorite{Slug: slug, AddedAt: at})
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Equal(out[j].AddedAt) {
			return out[i].AddedAt.After(out[j].AddedAt)
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (m *Memory) AddFavorite(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.favs[slug] = time.Now().UTC()
	return nil
}

func (m *Memory) RemoveFavorite(_ context.Context, slug string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.favs, slug)
	return nil
}

func (m *Memory) IsFavorite(_ context.Context, slug string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.favs[slug]
	return ok, nil
}

func (m *Memory) History(context.Context) ([]model.ViewEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.ViewEntry(nil), m.history...), nil
}

func (m *Memory) RecordView(_ context.Context, slug, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := model.ViewEntry{Slug: slug, Name: name, ViewedAt: time.Now().UTC()}
	kept := make([]model.ViewEntry, 0, len(m.history)+1)
	kept = append(kept, entry)
	for _, e := range m.history {
		if e.Slug == slug {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) > HistoryCap {
		kept = kept[:HistoryCap]
	}
	m.history = kept
	return nil
}

func (m *Memory) ClearHistory(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = nil
	return nil
}
