package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/skregdev/skreg/internal/models"
)

// APIKeyRepository defines the interface for API key data operations.
type APIKeyRepository interface {
	Create(ctx context.Context, key *models.APIKey) error
	GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
}

type apiKeyRepo struct {
	pool *pgxpool.Pool
}

// NewAPIKeyRepository creates a new API key repository.
func NewAPIKeyRepository(pool *pgxpool.Pool) APIKeyRepository {
	return &apiKeyRepo{pool: pool}
}

// Create inserts a new API key record.
func (r *apiKeyRepo) Create(ctx context.Context, key *models.APIKey) error {
	query := `
		INSERT INTO api_keys (id, namespace_id, key_hash, email)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if key.ID == uuid.Nil {
		key.ID = uuid.New()
	}

	return r.pool.QueryRow(ctx, query,
		key.ID,
		key.NamespaceID,
		key.KeyHash,
		key.Email,
	).Scan(&key.CreatedAt)
}

// GetByHash retrieves an API key by the hash of its presented form.
func (r *apiKeyRepo) GetByHash(ctx context.Context, keyHash string) (*models.APIKey, error) {
	query := `
		SELECT id, namespace_id, key_hash, email, last_used_at, created_at
		FROM api_keys WHERE key_hash = $1`

	var key models.APIKey
	err := r.pool.QueryRow(ctx, query, keyHash).Scan(
		&key.ID,
		&key.NamespaceID,
		&key.KeyHash,
		&key.Email,
		&key.LastUsedAt,
		&key.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &key, nil
}

// TouchLastUsed records that the key was just used for authentication.
func (r *apiKeyRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE api_keys SET last_used_at = now() WHERE id = $1`, id)
	return err
}
