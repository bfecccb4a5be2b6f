package skill

import (
	"fmt"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// MinDescriptionLen is the minimum trimmed length of a manifest description.
const MinDescriptionLen = 20

// Manifest is the contents of manifest.json inside a .skill archive.
// The SHA256 field is self-referential: it is the canonical digest of
// the archive's own content, stamped in by the two-pass packer.
type Manifest struct {
	Namespace    Namespace       `json:"namespace"`
	Name         PackageName     `json:"name"`
	Version      *semver.Version `json:"version"`
	Description  string          `json:"description"`
	Category     string          `json:"category,omitempty"`
	SHA256       Digest          `json:"sha256"`
	CertChainPEM []string        `json:"cert_chain_pem"`
}

// Validate checks the invariants not already enforced by field types.
func (m *Manifest) Validate() error {
	if m.Version == nil {
		return fmt.Errorf("manifest is missing a version")
	}
	if got := len(strings.TrimSpace(m.Description)); got < MinDescriptionLen {
		return fmt.Errorf("description is too short: %d characters after trimming, minimum %d", got, MinDescriptionLen)
	}
	return nil
}

// StorageKey returns the object-storage key for a tarball:
// {namespace}/{name}/{version}/{sha256}.skill
func StorageKey(ns, name, version, sha256 string) string {
	return fmt.Sprintf("%s/%s/%s/%s.skill", ns, name, version, sha256)
}

// SigKey converts a tarball storage key into its detached-signature key.
func SigKey(storageKey string) string {
	return strings.TrimSuffix(storageKey, ".skill") + ".sig"
}
