package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skregdev/skreg/internal/models"
)

// PackageRepository defines the interface for package data operations.
type PackageRepository interface {
	Upsert(ctx context.Context, pkg *models.Package) error
	GetByName(ctx context.Context, namespaceID uuid.UUID, name string) (*models.Package, error)
	ListAllNames(ctx context.Context) ([]models.PackageSummary, error)
	Search(ctx context.Context, query string, limit int) ([]models.PackageSummary, error)
}

type packageRepo struct {
	pool *pgxpool.Pool
}

// NewPackageRepository creates a new package repository.
func NewPackageRepository(pool *pgxpool.Pool) PackageRepository {
	return &packageRepo{pool: pool}
}

// Upsert inserts a package or refreshes its description and category
// when the (namespace, name) pair already exists.
func (r *packageRepo) Upsert(ctx context.Context, pkg *models.Package) error {
	query := `
		INSERT INTO packages (id, namespace_id, name, description, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (namespace_id, name) DO UPDATE
		SET description = EXCLUDED.description, category = EXCLUDED.category
		RETURNING id, created_at`

	if pkg.ID == uuid.Nil {
		pkg.ID = uuid.New()
	}

	return r.pool.QueryRow(ctx, query,
		pkg.ID,
		pkg.NamespaceID,
		pkg.Name,
		pkg.Description,
		pkg.Category,
	).Scan(&pkg.ID, &pkg.CreatedAt)
}

// GetByName retrieves a package by namespace and name.
func (r *packageRepo) GetByName(ctx context.Context, namespaceID uuid.UUID, name string) (*models.Package, error) {
	query := `
		SELECT id, namespace_id, name, description, category, created_at
		FROM packages WHERE namespace_id = $1 AND name = $2`

	var pkg models.Package
	err := r.pool.QueryRow(ctx, query, namespaceID, name).Scan(
		&pkg.ID,
		&pkg.NamespaceID,
		&pkg.Name,
		&pkg.Description,
		&pkg.Category,
		&pkg.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &pkg, nil
}

// ListAllNames returns every package with its namespace slug. Used by
// the vetting worker's name-distance check.
func (r *packageRepo) ListAllNames(ctx context.Context) ([]models.PackageSummary, error) {
	query := `
		SELECT n.slug, p.name, p.description, p.category
		FROM packages p
		JOIN namespaces n ON n.id = p.namespace_id
		ORDER BY n.slug, p.name`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSummaries(rows)
}

// Search returns packages whose name or description matches the query,
// most recent first.
func (r *packageRepo) Search(ctx context.Context, query string, limit int) ([]models.PackageSummary, error) {
	if limit <= 0 {
		limit = 20
	}
	sql := `
		SELECT n.slug, p.name, p.description, p.category
		FROM packages p
		JOIN namespaces n ON n.id = p.namespace_id
		WHERE p.name ILIKE '%' || $1 || '%' OR p.description ILIKE '%' || $1 || '%'
		ORDER BY p.created_at DESC
		LIMIT $2`

	rows, err := r.pool.Query(ctx, sql, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSummaries(rows)
}

func scanSummaries(rows pgx.Rows) ([]models.PackageSummary, error) {
	var out []models.PackageSummary
	for rows.Next() {
		var s models.PackageSummary
		if err := rows.Scan(&s.Namespace, &s.Name, &s.Description, &s.Category); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
