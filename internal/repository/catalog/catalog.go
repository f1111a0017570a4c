// Package catalog records every mirrored asset so the library can be listed
// without scanning the bucket. Rows are keyed by destination key and
// upserted, which keeps the table consistent with the overwrite-safe storage
// model: re-processing a source rewrites the same row.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/WebRendHQ/MaclellanFamily.com/internal/entities"
)

type Repository struct {
	dbpool *pgxpool.Pool
}

func New(ctx context.Context, databaseDSN string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, databaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	return &Repository{dbpool: pool}, nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.dbpool.Ping(ctx)
}

func (r *Repository) Close() {
	r.dbpool.Close()
}

func (r *Repository) UpsertAsset(ctx context.Context, a entities.Asset) error {
	_, err := r.dbpool.Exec(ctx, `
		INSERT INTO assets (key, source_path, kind, owner_folder, width, height, size_bytes, content_type, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (key) DO UPDATE SET
			source_path  = EXCLUDED.source_path,
			kind         = EXCLUDED.kind,
			owner_folder = EXCLUDED.owner_folder,
			width        = EXCLUDED.width,
			height       = EXCLUDED.height,
			size_bytes   = EXCLUDED.size_bytes,
			content_type = EXCLUDED.content_type,
			updated_at   = now()`,
		a.Key, a.SourcePath, string(a.Kind), a.OwnerFolder, a.Width, a.Height, a.SizeBytes, a.ContentType,
	)
	if err != nil {
		return fmt.Errorf("upsert asset %q: %w", a.Key, err)
	}
	return nil
}

// ListByOwner returns the catalog rows for one user folder, newest first.
func (r *Repository) ListByOwner(ctx context.Context, ownerFolder string) ([]entities.Asset, error) {
	rows, err := r.dbpool.Query(ctx, `
		SELECT key, source_path, kind, owner_folder, width, height, size_bytes, content_type, updated_at
		FROM assets
		WHERE owner_folder = $1
		ORDER BY updated_at DESC`,
		ownerFolder,
	)
	if err != nil {
		return nil, fmt.Errorf("list assets for %q: %w", ownerFolder, err)
	}
	defer rows.Close()

	var assets []entities.Asset
	for rows.Next() {
		var a entities.Asset
		var kind string
		if err := rows.Scan(&a.Key, &a.SourcePath, &kind, &a.OwnerFolder, &a.Width, &a.Height, &a.SizeBytes, &a.ContentType, &a.UpdatedTimestamp); err != nil {
			return nil, err
		}
		a.Kind = entities.MediaKind(kind)
		assets = append(assets, a)
	}
	return assets, rows.Err()
}
