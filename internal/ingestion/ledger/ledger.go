// Package ledger keeps one PostgreSQL row per document id recording the
// outcome of the latest ingest run for it.
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/document"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/internal/ingestion/pipeline"
	"github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/postgres"
)

const schema = `
CREATE TABLE IF NOT EXISTS ingest_runs (
    document_id    TEXT PRIMARY KEY,
    s3_bucket      TEXT NOT NULL,
    s3_key         TEXT NOT NULL,
    status         TEXT NOT NULL,
    language       TEXT NOT NULL DEFAULT '',
    entity_count   INTEGER NOT NULL DEFAULT 0,
    content_length INTEGER NOT NULL DEFAULT 0,
    detail         TEXT NOT NULL DEFAULT '',
    updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS ingest_runs_status_idx ON ingest_runs (status, updated_at DESC);
`

// Entry is a stored ledger row.
type Entry struct {
	pipeline.Run
	UpdatedAt time.Time
}

type Store struct {
	db     *postgres.Client
	logger *slog.Logger
	now    func() time.Time
}

func New(db *postgres.Client) *Store {
	return &Store{
		db:     db,
		logger: slog.Default().With("component", "ingest-ledger"),
		now:    time.Now,
	}
}

// EnsureSchema creates the ingest_runs table if it is missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	err := s.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, schema)
		return err
	})
	if err != nil {
		return fmt.Errorf("creating ingest_runs schema: %w", err)
	}
	s.logger.Info("ingest ledger schema ready")
	return nil
}

// Record upserts the run. A later run for the same document id replaces the
// earlier row.
func (s *Store) Record(ctx context.Context, run pipeline.Run) error {
	_, err := s.db.DB.ExecContext(ctx,
		`INSERT INTO ingest_runs
			(document_id, s3_bucket, s3_key, status, language, entity_count, content_length, detail, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (document_id) DO UPDATE SET
			s3_bucket = EXCLUDED.s3_bucket,
			s3_key = EXCLUDED.s3_key,
			status = EXCLUDED.status,
			language = EXCLUDED.language,
			entity_count = EXCLUDED.entity_count,
			content_length = EXCLUDED.content_length,
			detail = EXCLUDED.detail,
			updated_at = EXCLUDED.updated_at`,
		run.DocumentID, run.Ref.Bucket, run.Ref.Key, run.Status, run.Language,
		run.EntityCount, run.ContentLength, run.Detail, s.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording ingest run for %s: %w", run.DocumentID, err)
	}
	return nil
}

// Get returns the row for documentID, or nil, nil when none exists.
func (s *Store) Get(ctx context.Context, documentID string) (*Entry, error) {
	var e Entry
	err := s.db.DB.QueryRowContext(ctx,
		`SELECT document_id, s3_bucket, s3_key, status, language, entity_count, content_length, detail, updated_at
		FROM ingest_runs WHERE document_id = $1`, documentID,
	).Scan(&e.DocumentID, &e.Ref.Bucket, &e.Ref.Key, &e.Status, &e.Language,
		&e.EntityCount, &e.ContentLength, &e.Detail, &e.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying ingest run %s: %w", documentID, err)
	}
	return &e, nil
}

// Failed lists the most recently failed runs, newest first.
func (s *Store) Failed(ctx context.Context, limit int) ([]document.ObjectRef, error) {
	rows, err := s.db.DB.QueryContext(ctx,
		`SELECT s3_bucket, s3_key FROM ingest_runs WHERE status = $1 ORDER BY updated_at DESC LIMIT $2`,
		pipeline.StatusFailed, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying failed runs: %w", err)
	}
	defer rows.Close()

	var refs []document.ObjectRef
	for rows.Next() {
		var ref document.ObjectRef
		if err := rows.Scan(&ref.Bucket, &ref.Key); err != nil {
			return nil, fmt.Errorf("scanning failed run: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}
