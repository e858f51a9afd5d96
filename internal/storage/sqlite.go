package storage

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/trainmap/gymdex/internal/model"
)

// SQLite is the durable Local implementation.
type SQLite struct {
	db *sql.DB
}

const migration = `
CREATE TABLE IF NOT EXISTS kv (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS favorites (
	slug     TEXT PRIMARY KEY,
	added_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS view_history (
	slug      TEXT PRIMARY KEY,
	name      TEXT NOT NULL,
	viewed_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_view_history_viewed_at ON view_history(viewed_at);
`

// NewSQLite opens the database at path, configures WAL mode, and migrates.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "storage: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "storage: exec %s", pragma)
		}
	}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "storage: migrate")
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) DeviceID(ctx context.Context) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = 'device_id'`).Scan(&id)
	if err == nil && id != "" {
		return id, nil
	}
	if err != nil && !eris.Is(err, sql.ErrNoRows) {
		return "", eris.Wrap(err, "storage: read device id")
	}

	id = uuid.New().String()
	// Another opener may have raced us; the stored value wins.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value) VALUES ('device_id', ?)
		 ON CONFLICT(key) DO NOTHING`, id)
	if err != nil {
		return "", eris.Wrap(err, "storage: persist device id")
	}
	if err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE key = 'device_id'`).Scan(&id); err != nil {
		return "", eris.Wrap(err, "storage: reread device id")
	}
	return id, nil
}

func (s *SQLite) Favorites(ctx context.Context) ([]model.Favorite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, added_at FROM favorites ORDER BY added_at DESC, slug`)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list favorites")
	}
	defer rows.Close()

	var out []model.Favorite
	for rows.Next() {
		var f model.Favorite
		if err := rows.Scan(&f.Slug, &f.AddedAt); err != nil {
			zap.L().Warn("storage: skipping corrupt favorite row", zap.Error(err))
			continue
		}
		out = append(out, f)
	}
	return out, eris.Wrap(rows.Err(), "storage: iterate favorites")
}

func (s *SQLite) AddFavorite(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO favorites (slug, added_at) VALUES (?, ?)
		 ON CONFLICT(slug) DO UPDATE SET added_at = excluded.added_at`,
		slug, time.Now().UTC())
	return eris.Wrapf(err, "storage: add favorite %s", slug)
}

func (s *SQLite) RemoveFavorite(ctx context.Context, slug string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM favorites WHERE slug = ?`, slug)
	return eris.Wrapf(err, "storage: remove favorite %s", slug)
}

func (s *SQLite) IsFavorite(ctx context.Context, slug string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(1) FROM favorites WHERE slug = ?`, slug).Scan(&n)
	if err != nil {
		return false, eris.Wrapf(err, "storage: check favorite %s", slug)
	}
	return n > 0, nil
}

func (s *SQLite) History(ctx context.Context) ([]model.ViewEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT slug, name, viewed_at FROM view_history
		 ORDER BY viewed_at DESC LIMIT ?`, HistoryCap)
	if err != nil {
		return nil, eris.Wrap(err, "storage: list history")
	}
	defer rows.Close()

	var out []model.ViewEntry
	for rows.Next() {
		var e model.ViewEntry
		if err := rows.Scan(&e.Slug, &e.Name, &e.ViewedAt); err != nil {
			zap.L().Warn("storage: skipping corrupt history row", zap.Error(err))
			continue
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "storage: iterate history")
}

func (s *SQLite) RecordView(ctx context.Context, slug, name string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO view_history (slug, name, viewed_at) VALUES (?, ?, ?)
		 ON CONFLICT(slug) DO UPDATE SET name = excluded.name, viewed_at = excluded.viewed_at`,
		slug, name, now)
	if err != nil {
		return eris.Wrapf(err, "storage: record view %s", slug)
	}

	// Trim beyond the cap, oldest first.
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM view_history WHERE slug NOT IN (
			SELECT slug FROM view_history ORDER BY viewed_at DESC LIMIT ?
		)`, HistoryCap)
	return eris.Wrap(err, "storage: trim history")
}

func (s *SQLite) ClearHistory(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM view_history`)
	return eris.Wrap(err, "storage: clear history")
}
