package models

import (
	"time"

	"github.com/google/uuid"
)

// Package represents a named skill package within a namespace.
type Package struct {
	ID          uuid.UUID `json:"id" db:"id"`
	NamespaceID uuid.UUID `json:"namespace_id" db:"namespace_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	Category    *string   `json:"category,omitempty" db:"category"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// PackageSummary is the search-result projection of a package.
type PackageSummary struct {
	Namespace   string  `json:"namespace"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Category    *string `json:"category,omitempty"`
	Latest      string  `json:"latest,omitempty"`
}
