package sqliteStore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
)

func (s *Store) CreateCollection(ctx context.Context, name string) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO collections (name, created_at) VALUES (?, ?)",
		name, formatTime(time.Now()))
	if err != nil {
		return false, ragErrors.Storage("create collection", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, ragErrors.Storage("create collection", err)
	}
	return n == 1, nil
}

func (s *Store) CollectionExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM collections WHERE name = ?", name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, ragErrors.Storage("collection exists", err)
	}
	return true, nil
}

// GetCollection returns nil when the collection does not exist.
func (s *Store) GetCollection(ctx context.Context, name string) (*commonModels.Collection, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT c.name, c.created_at, COUNT(d.doc_id)
		FROM collections c LEFT JOIN documents d ON d.collection = c.name
		WHERE c.name = ?
		GROUP BY c.name, c.created_at`, name)

	var c commonModels.Collection
	var created string
	err := row.Scan(&c.Name, &created, &c.DocumentCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ragErrors.Storage("get collection", err)
	}
	c.CreatedAt = parseTime(created)
	return &c, nil
}

func (s *Store) ListCollections(ctx context.Context) ([]commonModels.Collection, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.name, c.created_at, COUNT(d.doc_id)
		FROM collections c LEFT JOIN documents d ON d.collection = c.name
		GROUP BY c.name, c.created_at
		ORDER BY c.name`)
	if err != nil {
		return nil, ragErrors.Storage("list collections", err)
	}
	defer rows.Close()

	var out []commonModels.Collection
	for rows.Next() {
		var c commonModels.Collection
		var created string
		if err := rows.Scan(&c.Name, &created, &c.DocumentCount); err != nil {
			return nil, ragErrors.Storage("list collections", err)
		}
		c.CreatedAt = parseTime(created)
		out = append(out, c)
	}
	return out, ragErrors.Storage("list collections", rows.Err())
}

// DeleteCollection removes the collection; its document records cascade.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM collections WHERE name = ?", name)
	return ragErrors.Storage("delete collection", err)
}
