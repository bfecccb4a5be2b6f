// Package skill defines the validated domain types shared by the
// registry server, the vetting worker, and the installer: namespace and
// package-name slugs, SHA-256 digests, package references, and the
// manifest embedded in every .skill archive.
package skill

import (
	"encoding/json"
	"fmt"
	"strings"
)

// MaxSlugLen is the maximum length of a namespace or package-name slug.
const MaxSlugLen = 64

// ValidateSlug checks that s is non-empty, at most MaxSlugLen characters,
// and contains only lowercase ASCII letters, digits, and hyphens.
func ValidateSlug(s string) error {
	if s == "" {
		return fmt.Errorf("slug must not be empty")
	}
	if len(s) > MaxSlugLen {
		return fmt.Errorf("slug exceeds maximum length of %d characters (got %d)", MaxSlugLen, len(s))
	}
	for _, c := range s {
		if (c < 'a' || c > 'z') && (c < '0' || c > '9') && c != '-' {
			return fmt.Errorf("slug contains invalid character %q: only lowercase alphanumeric and hyphens allowed", c)
		}
	}
	return nil
}

// Namespace is a validated publisher namespace slug.
type Namespace string

// NewNamespace validates slug and returns it as a Namespace.
func NewNamespace(slug string) (Namespace, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", fmt.Errorf("invalid namespace: %w", err)
	}
	return Namespace(slug), nil
}

func (n Namespace) String() string { return string(n) }

// UnmarshalJSON validates the slug on deserialization.
func (n *Namespace) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	ns, err := NewNamespace(s)
	if err != nil {
		return err
	}
	*n = ns
	return nil
}

// PackageName is a validated package name slug, same rules as Namespace.
type PackageName string

// NewPackageName validates name and returns it as a PackageName.
func NewPackageName(name string) (PackageName, error) {
	if err := ValidateSlug(name); err != nil {
		return "", fmt.Errorf("invalid package name: %w", err)
	}
	return PackageName(name), nil
}

func (p PackageName) String() string { return string(p) }

// UnmarshalJSON validates the name on deserialization.
func (p *PackageName) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	name, err := NewPackageName(s)
	if err != nil {
		return err
	}
	*p = name
	return nil
}

// Digest is a SHA-256 digest as exactly 64 lowercase hex characters.
type Digest string

// ParseDigest validates hex and returns it lowercase-normalized.
func ParseDigest(hex string) (Digest, error) {
	if len(hex) != 64 {
		return "", fmt.Errorf("expected 64 hex characters, got %d", len(hex))
	}
	lower := strings.ToLower(hex)
	for _, c := range lower {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return "", fmt.Errorf("digest contains non-hex character %q", c)
		}
	}
	return Digest(lower), nil
}

func (d Digest) String() string { return string(d) }

// UnmarshalJSON validates and normalizes the digest on deserialization.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dg, err := ParseDigest(s)
	if err != nil {
		return err
	}
	*d = dg
	return nil
}
