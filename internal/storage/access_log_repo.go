package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// AccessLogStore defines the interface for access log operations.
type AccessLogStore interface {
	// Insert appends a single access log entry.
	Insert(ctx context.Context, entry *AccessLogRecord) error
	// ListByDocument returns the most recent entries for a document, newest
	// first. limit <= 0 means no limit.
	ListByDocument(ctx context.Context, documentID string, limit int) ([]AccessLogRecord, error)
}

// AccessLogRepo provides methods for access log operations.
// It implements the AccessLogStore interface.
type AccessLogRepo struct {
	db *sql.DB
}

// NewAccessLogRepo creates a new AccessLogRepo.
func NewAccessLogRepo(db *sql.DB) *AccessLogRepo {
	return &AccessLogRepo{db: db}
}

// Insert appends a single access log entry.
func (r *AccessLogRepo) Insert(ctx context.Context, entry *AccessLogRecord) error {
	accessType := entry.AccessType
	if accessType == "" {
		accessType = "search"
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO access_logs (document_id, user_id, accessed_at, query_used, relevance_score, access_type)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.DocumentID, entry.UserID, entry.AccessedAt, entry.QueryUsed, entry.RelevanceScore, accessType,
	)
	if err != nil {
		return fmt.Errorf("failed to insert access log: %w", err)
	}
	if id, err := res.LastInsertId(); err == nil {
		entry.ID = id
	}
	return nil
}

// ListByDocument returns the most recent entries for a document, newest first.
func (r *AccessLogRepo) ListByDocument(ctx context.Context, documentID string, limit int) ([]AccessLogRecord, error) {
	query := `SELECT id, document_id, user_id, accessed_at, query_used, relevance_score, access_type
		FROM access_logs WHERE document_id = ? ORDER BY accessed_at DESC, id DESC`
	args := []any{documentID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query access logs: %w", err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var entries []AccessLogRecord
	for rows.Next() {
		var e AccessLogRecord
		var queryUsed sql.NullString
		if err := rows.Scan(&e.ID, &e.DocumentID, &e.UserID, &e.AccessedAt, &queryUsed, &e.RelevanceScore, &e.AccessType); err != nil {
			return nil, fmt.Errorf("failed to scan access log: %w", err)
		}
		e.QueryUsed = queryUsed.String
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return entries, nil
}
