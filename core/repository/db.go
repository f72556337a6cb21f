package repository

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

// DB wraps the database handle shared by the repositories
type DB struct {
	*sql.DB
}

// NewDB opens the database and ensures the schema exists
func NewDB(databaseURL string) (*DB, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	wrapped := &DB{DB: db}
	if err := wrapped.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return wrapped, nil
}

func (db *DB) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			element_id TEXT NOT NULL,
			studio_name TEXT NOT NULL,
			part_id TEXT NOT NULL DEFAULT '',
			part_name TEXT NOT NULL DEFAULT '',
			format TEXT NOT NULL,
			config_tag TEXT NOT NULL DEFAULT '',
			combine BOOLEAN NOT NULL DEFAULT FALSE,
			status TEXT NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			entry_name TEXT NOT NULL DEFAULT '',
			entry_size BIGINT NOT NULL DEFAULT 0,
			content_type TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS job_events (
			id BIGSERIAL PRIMARY KEY,
			job_id TEXT NOT NULL,
			at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			from_status TEXT,
			to_status TEXT NOT NULL,
			reason TEXT NOT NULL DEFAULT '',
			meta_json TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS job_artifacts (
			id BIGSERIAL PRIMARY KEY,
			job_id TEXT NOT NULL,
			type TEXT NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			meta_json TEXT NOT NULL DEFAULT '{}'
		)`,
		`CREATE INDEX IF NOT EXISTS idx_job_events_job_id ON job_events (job_id)`,
		`CREATE INDEX IF NOT EXISTS idx_job_artifacts_job_id ON job_artifacts (job_id)`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
