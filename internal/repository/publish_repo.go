package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skregdev/skreg/internal/models"
)

// PublishRepository records an admitted upload. The package upsert,
// version insert, and job insert commit or roll back together.
type PublishRepository interface {
	CreatePublication(ctx context.Context, pkg *models.Package, v *models.Version, job *models.VettingJob) error
}

type publishRepo struct {
	pool *pgxpool.Pool
}

// NewPublishRepository creates a new publish repository.
func NewPublishRepository(pool *pgxpool.Pool) PublishRepository {
	return &publishRepo{pool: pool}
}

// CreatePublication upserts the package, inserts the version, and
// enqueues a pending vetting job in a single transaction.
func (r *publishRepo) CreatePublication(ctx context.Context, pkg *models.Package, v *models.Version, job *models.VettingJob) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO packages (id, namespace_id, name, description, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace_id, name) DO UPDATE
		SET description = EXCLUDED.description, category = EXCLUDED.category
		RETURNING id, created_at`,
		pkg.ID, pkg.NamespaceID, pkg.Name, pkg.Description, pkg.Category,
	).Scan(&pkg.ID, &pkg.CreatedAt)
	if err != nil {
		return err
	}

	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	if v.Signer == "" {
		v.Signer = models.SignerRegistry
	}
	v.PackageID = pkg.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO versions (id, package_id, version, sha256, storage_path)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`,
		v.ID, v.PackageID, v.Version, v.SHA256, v.StoragePath,
	).Scan(&v.CreatedAt)
	if err != nil {
		return err
	}

	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	job.VersionID = v.ID
	err = tx.QueryRow(ctx, `
		INSERT INTO vetting_jobs (id, version_id)
		VALUES ($1, $2)
		RETURNING status, created_at`,
		job.ID, job.VersionID,
	).Scan(&job.Status, &job.CreatedAt)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}
