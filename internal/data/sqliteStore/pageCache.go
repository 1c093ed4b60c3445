package sqliteStore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/akolanti/localrag/internal/domain/ragErrors"
)

func (s *Store) Get(ctx context.Context, contentHash string, pageIndex int) (string, bool, error) {
	var text string
	err := s.db.QueryRowContext(ctx,
		"SELECT text FROM page_cache WHERE content_hash = ? AND page_index = ?",
		contentHash, pageIndex).Scan(&text)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, ragErrors.Storage("get cached page", err)
	}
	return text, true, nil
}

func (s *Store) Put(ctx context.Context, contentHash string, pageIndex int, text string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO page_cache (content_hash, page_index, text, cached_at) VALUES (?, ?, ?, ?)",
		contentHash, pageIndex, text, formatTime(time.Now()))
	return ragErrors.Storage("cache page", err)
}

func (s *Store) Clear(ctx context.Context, contentHash string) (int, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM page_cache WHERE content_hash = ?", contentHash)
	if err != nil {
		return 0, ragErrors.Storage("clear page cache", err)
	}
	n, err := res.RowsAffected()
	return int(n), ragErrors.Storage("clear page cache", err)
}

func (s *Store) ClearForCollection(ctx context.Context, collection string) (int, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM page_cache WHERE content_hash IN (SELECT file_hash FROM documents WHERE collection = ?)",
		collection)
	if err != nil {
		return 0, ragErrors.Storage("clear page cache for collection", err)
	}
	n, err := res.RowsAffected()
	return int(n), ragErrors.Storage("clear page cache for collection", err)
}

// Count returns the number of cached pages for a hash.
func (s *Store) Count(ctx context.Context, contentHash string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM page_cache WHERE content_hash = ?", contentHash).Scan(&n)
	return n, ragErrors.Storage("count cached pages", err)
}
