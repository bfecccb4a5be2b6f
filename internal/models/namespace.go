// Package models defines the database row types shared by the
// repository and handler layers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Namespace represents a publisher namespace.
type Namespace struct {
	ID        uuid.UUID  `json:"id" db:"id"`
	Slug      string     `json:"slug" db:"slug"`
	Email     string     `json:"email" db:"email"`
	BannedAt  *time.Time `json:"banned_at,omitempty" db:"banned_at"`
	CreatedAt time.Time  `json:"created_at" db:"created_at"`
}

// Banned reports whether the namespace is banned from publishing.
func (n *Namespace) Banned() bool {
	return n.BannedAt != nil
}
