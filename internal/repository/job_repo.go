package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skregdev/skreg/internal/models"
)

// JobRepository defines the interface for vetting job data operations.
type JobRepository interface {
	Create(ctx context.Context, job *models.VettingJob) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.VettingJob, error)
	GetStatus(ctx context.Context, id uuid.UUID) (models.JobStatus, error)
	Complete(ctx context.Context, id uuid.UUID, status models.JobStatus, results *models.JobResults) error
	ListStalePending(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error)
}

type jobRepo struct {
	pool *pgxpool.Pool
}

// NewJobRepository creates a new vetting job repository.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepo{pool: pool}
}

// Create inserts a new pending job.
func (r *jobRepo) Create(ctx context.Context, job *models.VettingJob) error {
	query := `
		INSERT INTO vetting_jobs (id, version_id)
		VALUES ($1, $2)
		RETURNING status, created_at`

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}

	return r.pool.QueryRow(ctx, query, job.ID, job.VersionID).Scan(&job.Status, &job.CreatedAt)
}

// GetByID retrieves a job by its UUID.
func (r *jobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.VettingJob, error) {
	query := `
		SELECT id, version_id, status, results, created_at, completed_at
		FROM vetting_jobs WHERE id = $1`

	var job models.VettingJob
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.VersionID,
		&job.Status,
		&job.Results,
		&job.CreatedAt,
		&job.CompletedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// GetStatus retrieves just the status column. Workers re-check it
// after acquiring the claim lock.
func (r *jobRepo) GetStatus(ctx context.Context, id uuid.UUID) (models.JobStatus, error) {
	var status models.JobStatus
	err := r.pool.QueryRow(ctx, `SELECT status FROM vetting_jobs WHERE id = $1`, id).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return status, nil
}

// Complete writes the terminal status, results, and completion time in
// a single statement.
func (r *jobRepo) Complete(ctx context.Context, id uuid.UUID, status models.JobStatus, results *models.JobResults) error {
	var payload []byte
	if results != nil {
		var err error
		payload, err = json.Marshal(results)
		if err != nil {
			return err
		}
	}

	_, err := r.pool.Exec(ctx,
		`UPDATE vetting_jobs SET status = $2, results = $3, completed_at = now() WHERE id = $1`,
		id, status, payload,
	)
	return err
}

// ListStalePending returns pending jobs older than the grace window.
// Used by startup recovery to re-enqueue work lost to a crash.
func (r *jobRepo) ListStalePending(ctx context.Context, olderThan time.Duration) ([]uuid.UUID, error) {
	query := `
		SELECT id FROM vetting_jobs
		WHERE status = 'pending' AND created_at < now() - make_interval(secs => $1)
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, olderThan.Seconds())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
