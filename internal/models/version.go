package models

import (
	"time"

	"github.com/google/uuid"
)

// Signer values recorded on a version row.
const (
	SignerRegistry  = "registry"
	SignerPublisher = "publisher"
)

// Version represents one immutable published version of a package.
type Version struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	PackageID   uuid.UUID  `json:"package_id" db:"package_id"`
	Version     string     `json:"version" db:"version"`
	SHA256      string     `json:"sha256" db:"sha256"`
	StoragePath string     `json:"storage_path" db:"storage_path"`
	SigPath     string     `json:"sig_path" db:"sig_path"`
	Signer      string     `json:"signer" db:"signer"`
	CertSerial  *int64     `json:"cert_serial,omitempty" db:"cert_serial"`
	YankedAt    *time.Time `json:"yanked_at,omitempty" db:"yanked_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Yanked reports whether the version has been withdrawn.
func (v *Version) Yanked() bool {
	return v.YankedAt != nil
}

// Signed reports whether vetting has attached a signature yet.
func (v *Version) Signed() bool {
	return v.SigPath != ""
}
