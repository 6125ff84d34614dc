package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
)

const jobColumns = `id, scope, scope_key, status, items_found, items_fetched,
	error, created_at, started_at, finished_at`

// Repository implements contracts.JobRepository over radar.scan_jobs.
type Repository struct {
	pool database.Pool
}

// NewRepository creates the job queue repository.
func NewRepository(pool database.Pool) *Repository {
	return &Repository{pool: pool}
}

// EnqueueWithCooldown inserts the job unless another job for the same
// (scope, key) was created inside the cooldown window. The advisory lock
// serializes concurrent admissions on the same key, so check and insert
// behave as one step.
func (r *Repository) EnqueueWithCooldown(ctx context.Context, job *contracts.ScanJob, cooldown time.Duration) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin enqueue: %w", err)
	}
	defer tx.Rollback(ctx)

	lockKey := string(job.Scope) + ":" + job.ScopeKey
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, lockKey); err != nil {
		return fmt.Errorf("acquire admission lock: %w", err)
	}

	var last time.Time
	err = tx.QueryRow(ctx, `
		SELECT created_at FROM radar.scan_jobs
		WHERE scope = $1 AND scope_key = $2 AND created_at > $3
		ORDER BY created_at DESC
		LIMIT 1`,
		job.Scope, job.ScopeKey, time.Now().Add(-cooldown),
	).Scan(&last)

	if err == nil {
		retryAfter := cooldown - time.Since(last)
		if retryAfter < time.Second {
			retryAfter = time.Second
		}
		return &CooldownError{Scope: job.Scope, Key: job.ScopeKey, RetryAfter: retryAfter}
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("check cooldown: %w", err)
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO radar.scan_jobs (id, scope, scope_key, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`,
		job.ID, job.Scope, job.ScopeKey, contracts.JobQueued,
	).Scan(&job.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	job.Status = contracts.JobQueued

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit enqueue: %w", err)
	}
	return nil
}

// ClaimNext atomically claims the oldest queued job and marks it running.
// SKIP LOCKED lets concurrent workers claim disjoint jobs without blocking.
// Returns nil when the queue is empty.
func (r *Repository) ClaimNext(ctx context.Context) (*contracts.ScanJob, error) {
	query := `
		UPDATE radar.scan_jobs SET status = $1, started_at = NOW()
		WHERE id = (
			SELECT id FROM radar.scan_jobs
			WHERE status = $2
			ORDER BY created_at
			FOR UPDATE SKIP LOCKED
			LIMIT 1
		)
		RETURNING ` + jobColumns

	row := r.pool.QueryRow(ctx, query, contracts.JobRunning, contracts.JobQueued)
	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("claim job: %w", err)
	}
	return job, nil
}

// MarkSuccess finishes a job with its item counts.
func (r *Repository) MarkSuccess(ctx context.Context, id uuid.UUID, itemsFound, itemsFetched int) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE radar.scan_jobs
		SET status = $2, items_found = $3, items_fetched = $4, finished_at = NOW()
		WHERE id = $1`,
		id, contracts.JobSuccess, itemsFound, itemsFetched)
	if err != nil {
		return fmt.Errorf("mark job success: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// MarkError finishes a job with an error message.
func (r *Repository) MarkError(ctx context.Context, id uuid.UUID, msg string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE radar.scan_jobs
		SET status = $2, error = $3, finished_at = NOW()
		WHERE id = $1`,
		id, contracts.JobError, msg)
	if err != nil {
		return fmt.Errorf("mark job error: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("job %s not found", id)
	}
	return nil
}

// GetByID returns the job, nil when unknown.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*contracts.ScanJob, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+jobColumns+` FROM radar.scan_jobs WHERE id = $1`, id)

	job, err := scanJob(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get job %s: %w", id, err)
	}
	return job, nil
}

// List returns jobs matching the filter, newest first.
func (r *Repository) List(ctx context.Context, filter contracts.JobFilter) ([]*contracts.ScanJob, error) {
	qb := sq.Select(jobColumns).
		From("radar.scan_jobs").
		PlaceholderFormat(sq.Dollar).
		OrderBy("created_at DESC")

	if filter.Scope != "" {
		qb = qb.Where(sq.Eq{"scope": filter.Scope})
	}
	if filter.ScopeKey != "" {
		qb = qb.Where(sq.Eq{"scope_key": filter.ScopeKey})
	}
	if filter.Status != "" {
		qb = qb.Where(sq.Eq{"status": filter.Status})
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	qb = qb.Limit(uint64(limit))

	query, args, err := qb.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build job query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*contracts.ScanJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job rows: %w", err)
	}

	return jobs, nil
}

// FailStale marks jobs stuck in running longer than maxAge as error. Repairs
// queue state after a worker died mid-job.
func (r *Repository) FailStale(ctx context.Context, maxAge time.Duration) (int, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE radar.scan_jobs
		SET status = $1, error = 'worker timeout', finished_at = NOW()
		WHERE status = $2 AND started_at < $3`,
		contracts.JobError, contracts.JobRunning, time.Now().Add(-maxAge))
	if err != nil {
		return 0, fmt.Errorf("fail stale jobs: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanJob(row rowScanner) (*contracts.ScanJob, error) {
	var job contracts.ScanJob
	err := row.Scan(
		&job.ID, &job.Scope, &job.ScopeKey, &job.Status,
		&job.ItemsFound, &job.ItemsFetched, &job.Error,
		&job.CreatedAt, &job.StartedAt, &job.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}
