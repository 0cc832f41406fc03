package data

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agrimanage/farmreg/internal/domain/model"
)

const jobColumns = `id, farmer_id, status, retry_count, max_retries, last_error,
	scheduled_at, lease_expires_at, enqueued_at, started_at, completed_at`

// JobRepo provides the card generation queue backed by the card_jobs table.
type JobRepo struct {
	pool  *pgxpool.Pool
	clock TimeProvider
}

func NewJobRepo(pool *pgxpool.Pool, clock TimeProvider) *JobRepo {
	if clock == nil {
		clock = RealTimeProvider{}
	}
	return &JobRepo{pool: pool, clock: clock}
}

func (r *JobRepo) Enqueue(ctx context.Context, farmerID string, maxRetries int) (*model.CardJob, error) {
	now := r.clock.Now()
	row := r.pool.QueryRow(ctx, `
		INSERT INTO card_jobs (farmer_id, status, max_retries, scheduled_at, enqueued_at)
		VALUES ($1, 'pending', $2, $3, $3)
		RETURNING `+jobColumns,
		farmerID, maxRetries, now)
	return scanJob(row)
}

// ReserveNext claims the oldest runnable job with FOR UPDATE SKIP LOCKED so
// concurrent workers never receive the same job. Jobs whose lease expired are
// redelivered as if still pending.
func (r *JobRepo) ReserveNext(ctx context.Context, lease time.Duration) (*model.CardJob, error) {
	now := r.clock.Now()
	row := r.pool.QueryRow(ctx, `
		WITH next AS (
			SELECT id FROM card_jobs
			WHERE (status = 'pending' AND scheduled_at <= $1)
			   OR (status = 'running' AND lease_expires_at < $1)
			ORDER BY scheduled_at ASC, enqueued_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		UPDATE card_jobs j
		SET status = 'running',
		    started_at = COALESCE(j.started_at, $1),
		    lease_expires_at = $2
		FROM next
		WHERE j.id = next.id
		RETURNING `+jobColumnsQualified("j"),
		now, now.Add(lease))
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isNotFound(err) {
			return nil, model.ErrNoJobsAvailable
		}
		return nil, err
	}
	return job, nil
}

// Complete marks a running job done. Returns false when the job was no longer
// running, which happens after a lease expired and another worker took over.
func (r *JobRepo) Complete(ctx context.Context, id string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE card_jobs
		SET status = 'completed', completed_at = $2, lease_expires_at = NULL
		WHERE id = $1 AND status = 'running'`,
		id, r.clock.Now())
	if err != nil {
		return false, classify(err, "job")
	}
	return tag.RowsAffected() == 1, nil
}

// Fail records a failed attempt. The job returns to pending with a delayed
// schedule until retries are exhausted, then lands in failed as a dead letter.
func (r *JobRepo) Fail(ctx context.Context, id, errMsg string, retryDelay time.Duration) (*model.CardJob, error) {
	now := r.clock.Now()
	row := r.pool.QueryRow(ctx, `
		UPDATE card_jobs
		SET retry_count = retry_count + 1,
		    last_error = $2,
		    lease_expires_at = NULL,
		    status = CASE WHEN retry_count + 1 >= max_retries THEN 'failed' ELSE 'pending' END,
		    scheduled_at = CASE WHEN retry_count + 1 >= max_retries THEN scheduled_at ELSE $3 END,
		    completed_at = CASE WHEN retry_count + 1 >= max_retries THEN $4 ELSE NULL END
		WHERE id = $1
		RETURNING `+jobColumns,
		id, errMsg, now.Add(retryDelay), now)
	return scanJob(row)
}

// FailTerminal moves a job straight to failed regardless of remaining retries.
func (r *JobRepo) FailTerminal(ctx context.Context, id, errMsg string) (*model.CardJob, error) {
	now := r.clock.Now()
	row := r.pool.QueryRow(ctx, `
		UPDATE card_jobs
		SET status = 'failed', last_error = $2, lease_expires_at = NULL, completed_at = $3
		WHERE id = $1
		RETURNING `+jobColumns,
		id, errMsg, now)
	return scanJob(row)
}

func (r *JobRepo) GetByID(ctx context.Context, id string) (*model.CardJob, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM card_jobs WHERE id = $1`, id)
	return scanJob(row)
}

func scanJob(row rowScanner) (*model.CardJob, error) {
	var j model.CardJob
	err := row.Scan(
		&j.ID, &j.FarmerID, &j.Status, &j.RetryCount, &j.MaxRetries, &j.LastError,
		&j.ScheduledAt, &j.LeaseExpiresAt, &j.EnqueuedAt, &j.StartedAt, &j.CompletedAt)
	if err != nil {
		return nil, classify(err, "job")
	}
	return &j, nil
}

func jobColumnsQualified(alias string) string {
	return alias + `.id, ` + alias + `.farmer_id, ` + alias + `.status, ` +
		alias + `.retry_count, ` + alias + `.max_retries, ` + alias + `.last_error, ` +
		alias + `.scheduled_at, ` + alias + `.lease_expires_at, ` + alias + `.enqueued_at, ` +
		alias + `.started_at, ` + alias + `.completed_at`
}
