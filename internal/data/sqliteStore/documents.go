package sqliteStore

import (
	"context"
	"database/sql"
	"errors"

	"github.com/akolanti/localrag/internal/domain/commonModels"
	"github.com/akolanti/localrag/internal/domain/ragErrors"
)

const documentColumns = "doc_id, file_path, file_hash, file_mtime, file_type, collection, chunk_count, indexed_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (commonModels.DocumentRecord, error) {
	var d commonModels.DocumentRecord
	var docType, indexed string
	err := r.Scan(&d.DocId, &d.FilePath, &d.FileHash, &d.FileMtime, &docType, &d.Collection, &d.ChunkCount, &indexed)
	d.DocType = commonModels.DocType(docType)
	d.IndexedAt = parseTime(indexed)
	return d, err
}

// GetDocumentByPath returns nil when no record exists for (path, collection).
func (s *Store) GetDocumentByPath(ctx context.Context, path string, collection string) (*commonModels.DocumentRecord, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE file_path = ? AND collection = ?",
		path, collection)
	d, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ragErrors.Storage("get document", err)
	}
	return &d, nil
}

// UpsertDocument replaces any prior row for the doc id.
func (s *Store) UpsertDocument(ctx context.Context, d commonModels.DocumentRecord) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO documents ("+documentColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		d.DocId, d.FilePath, d.FileHash, d.FileMtime, string(d.DocType), d.Collection, d.ChunkCount, formatTime(d.IndexedAt))
	return ragErrors.Storage("upsert document", err)
}

func (s *Store) UpdateDocumentMtime(ctx context.Context, docId string, mtime float64) error {
	_, err := s.db.ExecContext(ctx, "UPDATE documents SET file_mtime = ? WHERE doc_id = ?", mtime, docId)
	return ragErrors.Storage("update document mtime", err)
}

func (s *Store) DeleteDocument(ctx context.Context, docId string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM documents WHERE doc_id = ?", docId)
	return ragErrors.Storage("delete document", err)
}

func (s *Store) ListDocuments(ctx context.Context, collection string) ([]commonModels.DocumentRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+documentColumns+" FROM documents WHERE collection = ? ORDER BY file_path", collection)
	if err != nil {
		return nil, ragErrors.Storage("list documents", err)
	}
	defer rows.Close()

	var out []commonModels.DocumentRecord
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, ragErrors.Storage("list documents", err)
		}
		out = append(out, d)
	}
	return out, ragErrors.Storage("list documents", rows.Err())
}

func (s *Store) ListContentHashes(ctx context.Context, collection string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT file_hash FROM documents WHERE collection = ?", collection)
	if err != nil {
		return nil, ragErrors.Storage("list content hashes", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, ragErrors.Storage("list content hashes", err)
		}
		out = append(out, h)
	}
	return out, ragErrors.Storage("list content hashes", rows.Err())
}
