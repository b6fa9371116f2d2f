package storage

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// New opens a SQLite database connection at the given path.
// It enables foreign keys and sets connection pool settings.
func New(path string) (*sql.DB, error) {
	// Foreign keys are off by default in SQLite; the DSN parameter enables
	// them on every pooled connection, not just the first.
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Verify connection
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// Migrate runs database migrations to create the required tables.
// It is idempotent and can be run multiple times safely.
func Migrate(db *sql.DB) error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			filename TEXT NOT NULL,
			file_type TEXT NOT NULL,
			content_text TEXT,
			chunk_count INTEGER NOT NULL DEFAULT 0,
			tier TEXT NOT NULL DEFAULT 'Contextual',
			cognitive_score REAL NOT NULL DEFAULT 0,
			semantic_score REAL NOT NULL DEFAULT 0,
			access_count INTEGER NOT NULL DEFAULT 0,
			last_accessed DATETIME NOT NULL,
			created_at DATETIME NOT NULL,
			index_ids TEXT NOT NULL DEFAULT '[]',
			file_size INTEGER NOT NULL DEFAULT 0,
			project_tags TEXT NOT NULL DEFAULT '[]',
			description TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_user ON documents(user_id);`,
		`CREATE INDEX IF NOT EXISTS idx_documents_user_tier ON documents(user_id, tier);`,
		`CREATE TABLE IF NOT EXISTS access_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			document_id TEXT NOT NULL,
			user_id TEXT NOT NULL,
			accessed_at DATETIME NOT NULL,
			query_used TEXT,
			relevance_score REAL NOT NULL DEFAULT 0,
			access_type TEXT NOT NULL DEFAULT 'search',
			FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
		);`,
		`CREATE INDEX IF NOT EXISTS idx_access_logs_document ON access_logs(document_id);`,
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}

	return nil
}
