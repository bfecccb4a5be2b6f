// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skregdev/skreg/internal/models"
)

// NamespaceRepository defines the interface for namespace data operations.
type NamespaceRepository interface {
	Create(ctx context.Context, ns *models.Namespace) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Namespace, error)
	GetBySlug(ctx context.Context, slug string) (*models.Namespace, error)
	ListSlugs(ctx context.Context) ([]string, error)
	Ban(ctx context.Context, id uuid.UUID) error
}

type namespaceRepo struct {
	pool *pgxpool.Pool
}

// NewNamespaceRepository creates a new namespace repository.
func NewNamespaceRepository(pool *pgxpool.Pool) NamespaceRepository {
	return &namespaceRepo{pool: pool}
}

// Create inserts a new namespace.
func (r *namespaceRepo) Create(ctx context.Context, ns *models.Namespace) error {
	query := `
		INSERT INTO namespaces (id, slug, email)
		VALUES ($1, $2, $3)
		RETURNING created_at`

	if ns.ID == uuid.Nil {
		ns.ID = uuid.New()
	}

	return r.pool.QueryRow(ctx, query, ns.ID, ns.Slug, ns.Email).Scan(&ns.CreatedAt)
}

// GetByID retrieves a namespace by its UUID.
func (r *namespaceRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Namespace, error) {
	query := `
		SELECT id, slug, email, banned_at, created_at
		FROM namespaces WHERE id = $1`

	var ns models.Namespace
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&ns.ID,
		&ns.Slug,
		&ns.Email,
		&ns.BannedAt,
		&ns.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ns, nil
}

// GetBySlug retrieves a namespace by its slug.
func (r *namespaceRepo) GetBySlug(ctx context.Context, slug string) (*models.Namespace, error) {
	query := `
		SELECT id, slug, email, banned_at, created_at
		FROM namespaces WHERE slug = $1`

	var ns models.Namespace
	err := r.pool.QueryRow(ctx, query, slug).Scan(
		&ns.ID,
		&ns.Slug,
		&ns.Email,
		&ns.BannedAt,
		&ns.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ns, nil
}

// ListSlugs returns every namespace slug.
func (r *namespaceRepo) ListSlugs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT slug FROM namespaces ORDER BY slug`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}
	return slugs, rows.Err()
}

// Ban marks a namespace as banned from publishing.
func (r *namespaceRepo) Ban(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE namespaces SET banned_at = now() WHERE id = $1`, id)
	return err
}
