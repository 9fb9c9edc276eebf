package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"
)

type Config struct {
	DSN         string // ":memory:" keeps the journal for the life of the process only
	DialTimeout time.Duration
}

const schema = `
CREATE TABLE IF NOT EXISTS extract_job (
	id             TEXT PRIMARY KEY,
	document_id    TEXT NOT NULL,
	document_index INTEGER NOT NULL,
	method         TEXT NOT NULL,
	status         TEXT NOT NULL,
	text           TEXT NOT NULL DEFAULT '',
	error_message  TEXT NOT NULL DEFAULT '',
	started_at     TEXT NOT NULL,
	finished_at    TEXT
);
CREATE INDEX IF NOT EXISTS extract_job_document ON extract_job(document_id, started_at);
`

// Open opens the SQLite journal and creates its schema.
func Open(ctx context.Context, cfg Config, logger *slog.Logger) (*sql.DB, error) {
	if cfg.DSN == "" {
		cfg.DSN = ":memory:"
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 3 * time.Second
	}
	logger.Debug("opening journal database", "dsn", cfg.DSN)
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		logger.Error("failed to open journal database", "error", err)
		return nil, err
	}
	// a single connection keeps one in-memory database for every caller
	db.SetMaxOpenConns(1)

	ctx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		logger.Error("failed to migrate journal database", "error", err)
		return nil, fmt.Errorf("migrate journal: %w", err)
	}
	logger.Debug("journal database ready")
	return db, nil
}

// Close closes the database connections gracefully
func Close(db *sql.DB, logger *slog.Logger) {
	if db == nil {
		return
	}
	if err := db.Close(); err != nil {
		logger.Error("failed to close journal database", "error", err)
	}
}

// HealthCheck pings the journal database.
func HealthCheck(ctx context.Context, db *sql.DB, timeout time.Duration) error {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return db.PingContext(ctx)
}
