package storage

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_document_store.go -package=mocks neurovault/internal/storage DocumentStore,AccessLogStore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned when a record is not found.
	ErrNotFound = errors.New("record not found")
)

// DocumentStore defines the interface for document record operations.
type DocumentStore interface {
	// Insert inserts a single document. The record's ID must be set (UUID)
	// before calling this method.
	Insert(ctx context.Context, doc *DocumentRecord) error
	// GetByID gets a document by its ID. Returns ErrNotFound if not found.
	GetByID(ctx context.Context, id string) (*DocumentRecord, error)
	// ListByUser returns a user's documents ordered by cognitive score
	// descending. tier filters to one tier when non-empty; limit <= 0 means
	// no limit.
	ListByUser(ctx context.Context, userID, tier string, offset, limit int) ([]DocumentRecord, error)
	// ListAll returns every document across all users, used by the
	// background re-scoring sweep.
	ListAll(ctx context.Context) ([]DocumentRecord, error)
	// Delete removes a document record.
	Delete(ctx context.Context, id string) error
	// UpdateLifecycle rewrites a document's access signals and cached score
	// state after a recorded access.
	UpdateLifecycle(ctx context.Context, id string, accessCount int, lastAccessed time.Time, cognitiveScore float64, tier string) error
	// UpdateScores applies all updates in one transaction so the cached
	// state committed to disk always matches one search response.
	UpdateScores(ctx context.Context, updates []ScoreUpdate) error
	// UpdateIndexIDs rewrites a document's vector index references, used
	// after an index rebuild reassigns local ids.
	UpdateIndexIDs(ctx context.Context, id string, indexIDs []int64) error
}

// DocumentRepo provides methods for document operations.
// It implements the DocumentStore interface.
type DocumentRepo struct {
	db *sql.DB
}

// NewDocumentRepo creates a new DocumentRepo.
func NewDocumentRepo(db *sql.DB) *DocumentRepo {
	return &DocumentRepo{db: db}
}

const documentColumns = `id, user_id, filename, file_type, content_text, chunk_count,
	tier, cognitive_score, semantic_score, access_count, last_accessed, created_at,
	index_ids, file_size, project_tags, description`

// Insert inserts a single document record.
func (r *DocumentRepo) Insert(ctx context.Context, doc *DocumentRecord) error {
	indexIDs, err := json.Marshal(doc.IndexIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal index ids: %w", err)
	}
	tags, err := json.Marshal(doc.ProjectTags)
	if err != nil {
		return fmt.Errorf("failed to marshal project tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO documents (`+documentColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.UserID, doc.Filename, doc.FileType, doc.ContentText, doc.ChunkCount,
		doc.Tier, doc.CognitiveScore, doc.SemanticScore, doc.AccessCount, doc.LastAccessed, doc.CreatedAt,
		string(indexIDs), doc.FileSize, string(tags), doc.Description,
	)
	if err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return nil
}

// GetByID gets a document by its ID. Returns ErrNotFound if not found.
func (r *DocumentRepo) GetByID(ctx context.Context, id string) (*DocumentRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+documentColumns+` FROM documents WHERE id = ?`, id)

	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query document: %w", err)
	}
	return doc, nil
}

// ListByUser returns a user's documents ordered by cognitive score descending.
func (r *DocumentRepo) ListByUser(ctx context.Context, userID, tier string, offset, limit int) ([]DocumentRecord, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE user_id = ?`
	args := []any{userID}
	if tier != "" {
		query += ` AND tier = ?`
		args = append(args, tier)
	}
	query += ` ORDER BY cognitive_score DESC`
	if limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, limit, offset)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// ListAll returns every document across all users.
func (r *DocumentRepo) ListAll(ctx context.Context) ([]DocumentRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+documentColumns+` FROM documents ORDER BY user_id, cognitive_score DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var docs []DocumentRecord
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, *doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return docs, nil
}

// Delete removes a document record.
func (r *DocumentRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateLifecycle rewrites a document's access signals and cached score state.
func (r *DocumentRepo) UpdateLifecycle(ctx context.Context, id string, accessCount int, lastAccessed time.Time, cognitiveScore float64, tier string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE documents SET access_count = ?, last_accessed = ?, cognitive_score = ?, tier = ? WHERE id = ?`,
		accessCount, lastAccessed, cognitiveScore, tier, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update document lifecycle: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateScores applies all score updates in a single transaction.
func (r *DocumentRepo) UpdateScores(ctx context.Context, updates []ScoreUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx,
		`UPDATE documents SET semantic_score = ?, cognitive_score = ?, tier = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare score update: %w", err)
	}
	defer func() {
		_ = stmt.Close()
	}()

	for _, u := range updates {
		if _, err := stmt.ExecContext(ctx, u.SemanticScore, u.CognitiveScore, u.Tier, u.ID); err != nil {
			return fmt.Errorf("failed to update scores for document %s: %w", u.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit score updates: %w", err)
	}
	return nil
}

// UpdateIndexIDs rewrites a document's vector index references.
func (r *DocumentRepo) UpdateIndexIDs(ctx context.Context, id string, indexIDs []int64) error {
	encoded, err := json.Marshal(indexIDs)
	if err != nil {
		return fmt.Errorf("failed to marshal index ids: %w", err)
	}
	res, err := r.db.ExecContext(ctx, `UPDATE documents SET index_ids = ? WHERE id = ?`, string(encoded), id)
	if err != nil {
		return fmt.Errorf("failed to update index ids: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// scanner abstracts over *sql.Row and *sql.Rows for scanDocument.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*DocumentRecord, error) {
	var doc DocumentRecord
	var contentText, description sql.NullString
	var indexIDs, tags string

	err := s.Scan(
		&doc.ID, &doc.UserID, &doc.Filename, &doc.FileType, &contentText, &doc.ChunkCount,
		&doc.Tier, &doc.CognitiveScore, &doc.SemanticScore, &doc.AccessCount, &doc.LastAccessed, &doc.CreatedAt,
		&indexIDs, &doc.FileSize, &tags, &description,
	)
	if err != nil {
		return nil, err
	}

	doc.ContentText = contentText.String
	doc.Description = description.String
	if err := json.Unmarshal([]byte(indexIDs), &doc.IndexIDs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal index ids: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &doc.ProjectTags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal project tags: %w", err)
	}
	return &doc, nil
}
