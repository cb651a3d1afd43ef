package file

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const repoTimeout = 5 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS uploads (
    bucket            TEXT        NOT NULL,
    object_key        TEXT        NOT NULL,
    original_filename TEXT        NOT NULL,
    content_type      TEXT        NOT NULL,
    size_bytes        BIGINT      NOT NULL,
    event_published   BOOLEAN     NOT NULL DEFAULT FALSE,
    processed         BOOLEAN     NOT NULL DEFAULT FALSE,
    uploaded_at       TIMESTAMPTZ NOT NULL,
    processed_at      TIMESTAMPTZ,
    PRIMARY KEY (bucket, object_key)
);
CREATE INDEX IF NOT EXISTS uploads_uploaded_at_idx ON uploads (uploaded_at DESC);`

// Repository records uploads in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository builds a new ledger repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnsureSchema creates the uploads table when missing.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure uploads schema: %w", err)
	}
	return nil
}

// Record upserts an upload. Same-key writes overwrite the object, so the row
// is reset to unprocessed.
func (r *Repository) Record(ctx context.Context, entry LedgerEntry) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO uploads (bucket, object_key, original_filename, content_type, size_bytes, event_published, processed, uploaded_at, processed_at)
VALUES ($1, $2, $3, $4, $5, $6, FALSE, $7, NULL)
ON CONFLICT (bucket, object_key) DO UPDATE SET
    original_filename = EXCLUDED.original_filename,
    content_type      = EXCLUDED.content_type,
    size_bytes        = EXCLUDED.size_bytes,
    event_published   = EXCLUDED.event_published,
    processed         = FALSE,
    uploaded_at       = EXCLUDED.uploaded_at,
    processed_at      = NULL;`

	_, err := r.pool.Exec(ctx, query,
		entry.Bucket,
		entry.ObjectKey,
		entry.OriginalFilename,
		entry.ContentType,
		entry.SizeBytes,
		entry.EventPublished,
		entry.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("record upload: %w", err)
	}
	return nil
}

// MarkPublished flags an upload whose announcement reached the topic.
func (r *Repository) MarkPublished(ctx context.Context, bucket, key string) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `UPDATE uploads SET event_published = TRUE WHERE bucket = $1 AND object_key = $2;`
	if _, err := r.pool.Exec(ctx, query, bucket, key); err != nil {
		return fmt.Errorf("mark upload published: %w", err)
	}
	return nil
}

// MarkProcessed flags an upload as enriched. Unknown keys are ignored since
// objects may predate the ledger.
func (r *Repository) MarkProcessed(ctx context.Context, bucket, key string, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `UPDATE uploads SET processed = TRUE, processed_at = $3 WHERE bucket = $1 AND object_key = $2;`
	if _, err := r.pool.Exec(ctx, query, bucket, key, at); err != nil {
		return fmt.Errorf("mark upload processed: %w", err)
	}
	return nil
}

// List returns the most recent uploads.
func (r *Repository) List(ctx context.Context, limit int) ([]LedgerEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT bucket, object_key, original_filename, content_type, size_bytes, event_published, processed, uploaded_at, processed_at
FROM uploads
ORDER BY uploaded_at DESC
LIMIT $1;`

	rows, err := r.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}
	defer rows.Close()

	entries := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.Bucket, &e.ObjectKey, &e.OriginalFilename, &e.ContentType, &e.SizeBytes, &e.EventPublished, &e.Processed, &e.UploadedAt, &e.ProcessedAt); err != nil {
			return nil, fmt.Errorf("scan upload: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate uploads: %w", err)
	}
	return entries, nil
}

// Ping checks database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
