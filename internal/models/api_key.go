package models

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// APIKeyPrefix is the literal prefix every issued key starts with.
const APIKeyPrefix = "skreg_"

// APIKey represents an API key for publishing into a namespace.
// Only the SHA-256 hash of the key material is stored.
type APIKey struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	NamespaceID uuid.UUID  `json:"namespace_id" db:"namespace_id"`
	KeyHash     string     `json:"-" db:"key_hash"`
	Email       string     `json:"email" db:"email"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty" db:"last_used_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// GenerateAPIKey returns a fresh key in presentation form
// (skreg_ + 64 hex chars) along with the hash stored server side.
func GenerateAPIKey() (key string, hash string, err error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", "", fmt.Errorf("failed to generate key material: %w", err)
	}
	key = APIKeyPrefix + hex.EncodeToString(raw)
	return key, HashAPIKey(key), nil
}

// HashAPIKey returns the hex SHA-256 of the full presented key.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
