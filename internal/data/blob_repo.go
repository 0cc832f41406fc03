package data

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimanage/farmreg/internal/domain/model"
)

// BlobRepo stores rendered card artifacts as bytea rows.
type BlobRepo struct {
	pool  *pgxpool.Pool
	clock TimeProvider
}

func NewBlobRepo(pool *pgxpool.Pool, clock TimeProvider) *BlobRepo {
	if clock == nil {
		clock = RealTimeProvider{}
	}
	return &BlobRepo{pool: pool, clock: clock}
}

func (r *BlobRepo) Upload(ctx context.Context, blob *model.Blob) (string, error) {
	var id string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO blobs (farmer_id, kind, filename, content_type, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		blob.FarmerID, blob.Kind, blob.Filename, blob.ContentType, blob.Data, r.clock.Now(),
	).Scan(&id)
	if err != nil {
		return "", classify(err, "blob")
	}
	return id, nil
}

func (r *BlobRepo) Get(ctx context.Context, id string) (*model.Blob, error) {
	var b model.Blob
	err := r.pool.QueryRow(ctx, `
		SELECT id, farmer_id, kind, filename, content_type, data, created_at
		FROM blobs WHERE id = $1`, id,
	).Scan(&b.ID, &b.FarmerID, &b.Kind, &b.Filename, &b.ContentType, &b.Data, &b.CreatedAt)
	if err != nil {
		return nil, classify(err, "blob")
	}
	return &b, nil
}
