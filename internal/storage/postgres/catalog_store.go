// Package postgres provides the Postgres-backed catalog repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imagifhub/media-catalog/internal/catalog"
)

// CatalogStoreConfig controls the Postgres connection pool.
type CatalogStoreConfig struct {
	DSN             string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
}

// pgxPool narrows pgxpool.Pool to what the store uses, so tests can
// substitute a pgxmock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// CatalogStore implements catalog.Repository on Postgres.
type CatalogStore struct {
	pool pgxPool
}

// NewCatalogStore creates a Postgres-backed CatalogStore using the
// provided config.
func NewCatalogStore(ctx context.Context, cfg CatalogStoreConfig) (*CatalogStore, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("db.dsn is required")
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		poolCfg.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &CatalogStore{pool: pool}, nil
}

// NewCatalogStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewCatalogStoreWithPool(pool pgxPool) (*CatalogStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &CatalogStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *CatalogStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Insert commits one entry atomically and returns it with its assigned id.
func (s *CatalogStore) Insert(ctx context.Context, entry catalog.Entry) (catalog.Entry, error) {
	if entry.URL == "" {
		return catalog.Entry{}, fmt.Errorf("insert entry: %w", catalog.ErrRejected)
	}
	row := s.pool.QueryRow(ctx, `
INSERT INTO media_content (url, category, keywords, likes)
VALUES ($1, $2, $3, 0)
RETURNING id, created_at`,
		entry.URL,
		catalog.CanonicalCategory(entry.Category),
		entry.Keywords,
	)
	out := entry
	out.Category = catalog.CanonicalCategory(entry.Category)
	out.Likes = 0
	if err := row.Scan(&out.ID, &out.CreatedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
			return catalog.Entry{}, fmt.Errorf("insert entry: %w", catalog.ErrRejected)
		}
		return catalog.Entry{}, fmt.Errorf("insert entry: %w", err)
	}
	return out, nil
}

// Query returns all entries matching the filter. Category comparison is
// against the canonical taxonomy form; search is a case-insensitive
// substring test over keywords.
func (s *CatalogStore) Query(ctx context.Context, filter catalog.Filter) ([]catalog.Entry, error) {
	query := `SELECT id, url, category, keywords, likes, created_at FROM media_content`
	var (
		conds []string
		args  []any
	)
	if c := catalog.CanonicalCategory(filter.Category); c != catalog.CategoryAll {
		args = append(args, c)
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		conds = append(conds, fmt.Sprintf("keywords ILIKE $%d", len(args)))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY id DESC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// Like records a like idempotently and returns the new count. The
// counter is only ever moved by an in-database increment guarded by the
// unique like relation, never by a read-modify-write from the client.
func (s *CatalogStore) Like(ctx context.Context, mediaID int64, subscriberID string) (int, error) {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO media_likes (subscriber_id, media_id)
VALUES ($1, $2)
ON CONFLICT (subscriber_id, media_id) DO NOTHING`,
		subscriberID, mediaID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		// 23503: foreign key violation means the media row is gone.
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, catalog.ErrNotFound
		}
		return 0, fmt.Errorf("insert like: %w", err)
	}

	var likes int
	if tag.RowsAffected() == 1 {
		err = s.pool.QueryRow(ctx,
			`UPDATE media_content SET likes = likes + 1 WHERE id = $1 RETURNING likes`,
			mediaID,
		).Scan(&likes)
	} else {
		err = s.pool.QueryRow(ctx,
			`SELECT likes FROM media_content WHERE id = $1`,
			mediaID,
		).Scan(&likes)
	}
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, catalog.ErrNotFound
		}
		return 0, fmt.Errorf("read like count: %w", err)
	}
	return likes, nil
}

// Delete removes an entry; like and playlist rows cascade.
func (s *CatalogStore) Delete(ctx context.Context, mediaID int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM media_content WHERE id = $1`, mediaID)
	if err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

// ListByIDs batch-fetches entries; unknown ids are skipped.
func (s *CatalogStore) ListByIDs(ctx context.Context, ids []int64) ([]catalog.Entry, error) {
	if len(ids) == 0 {
		return []catalog.Entry{}, nil
	}
	rows, err := s.pool.Query(ctx, `
SELECT id, url, category, keywords, likes, created_at
FROM media_content WHERE id = ANY($1) ORDER BY id DESC`, ids)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// SaveToPlaylist upserts the (user, media) pair; duplicates are no-ops.
func (s *CatalogStore) SaveToPlaylist(ctx context.Context, userID string, mediaID int64) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO playlist_items (user_id, media_id)
VALUES ($1, $2)
ON CONFLICT (user_id, media_id) DO NOTHING`,
		userID, mediaID,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return catalog.ErrNotFound
		}
		return fmt.Errorf("save to playlist: %w", err)
	}
	return nil
}

// Playlist lists a user's saved entries, newest save first.
func (s *CatalogStore) Playlist(ctx context.Context, userID string) ([]catalog.Entry, error) {
	rows, err := s.pool.Query(ctx, `
SELECT m.id, m.url, m.category, m.keywords, m.likes, m.created_at
FROM playlist_items p
JOIN media_content m ON m.id = p.media_id
WHERE p.user_id = $1
ORDER BY p.media_id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list playlist: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// RemoveFromPlaylist deletes one saved pair; removing an absent pair is
// not an error.
func (s *CatalogStore) RemoveFromPlaylist(ctx context.Context, userID string, mediaID int64) error {
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM playlist_items WHERE user_id = $1 AND media_id = $2`,
		userID, mediaID,
	); err != nil {
		return fmt.Errorf("remove from playlist: %w", err)
	}
	return nil
}

func scanEntries(rows pgx.Rows) ([]catalog.Entry, error) {
	entries := []catalog.Entry{}
	for rows.Next() {
		var e catalog.Entry
		if err := rows.Scan(&e.ID, &e.URL, &e.Category, &e.Keywords, &e.Likes, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}
