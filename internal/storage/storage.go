// Package storage is the device-local persistence layer: an anonymous device
// identifier, the favorites cache, and a bounded view history.
//
// Persistence is best-effort. Open degrades to an in-memory store when the
// database cannot be opened, so a broken disk never takes the session down.
package storage

import (
	"context"

	"go.uber.org/zap"

	"github.com/trainmap/gymdex/internal/model"
)

// HistoryCap bounds the view history.
const HistoryCap = 50

// Local is the device-local store.
type Local interface {
	// DeviceID returns the stable anonymous device identifier, creating it
	// on first access.
	DeviceID(ctx context.Context) (string, error)

	// Favorites lists favorites, most recently added first.
	Favorites(ctx context.Context) ([]model.Favorite, error)
	// AddFavorite records a favorite. Adding an existing slug refreshes its
	// timestamp.
	AddFavorite(ctx context.Context, slug string) error
	// RemoveFavorite deletes a favorite. Removing an absent slug is a no-op.
	RemoveFavorite(ctx context.Context, slug string) error
	// IsFavorite reports whether a slug is a favorite.
	IsFavorite(ctx context.Context, slug string) (bool, error)

	// History lists viewed gyms, most recent first, at most HistoryCap rows.
	History(ctx context.Context) ([]model.ViewEntry, error)
	// RecordView records a detail view. Re-viewing a gym moves it to the
	// front instead of duplicating it.
	RecordView(ctx context.Context, slug, name string) error
	// ClearHistory drops all history rows.
	ClearHistory(ctx context.Context) error

	Close() error
}

// Open returns a sqlite-backed store at path, or an in-memory store when the
// database cannot be opened or migrated.
func Open(ctx context.Context, path string) Local {
	s, err := NewSQLite(ctx, path)
	if err != nil {
		zap.L().Warn("storage: sqlite unavailable, using in-memory store",
			zap.String("path", path),
			zap.Error(err),
		)
		return NewMemory()
	}
	return s
}
