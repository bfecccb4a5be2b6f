// Package installer materializes verified packages on local disk.
package installer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/skregdev/skreg/internal/registry"
	"github.com/skregdev/skreg/internal/signing"
	"github.com/skregdev/skreg/internal/skill"
	"github.com/skregdev/skreg/internal/skill/pack"
)

// IntegrityError is a digest mismatch between downloaded bytes and the
// resolved manifest. Never recoverable.
type IntegrityError struct {
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("artifact digest mismatch: expected %s, got %s", e.Expected, e.Actual)
}

// Installer downloads, verifies, and extracts packages.
type Installer struct {
	client   *registry.Client
	verifier *signing.Verifier
	root     string
}

// New creates an installer rooted at root.
func New(client *registry.Client, verifier *signing.Verifier, root string) *Installer {
	return &Installer{client: client, verifier: verifier, root: root}
}

// Install resolves ref, verifies digest, signature, and revocation,
// and extracts the package into {root}/{namespace}/{name}/{version}.
// A partial install is removed before the error returns.
func (i *Installer) Install(ctx context.Context, ref skill.PackageRef) (*skill.InstalledPackage, error) {
	manifest, err := i.client.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", ref, err)
	}

	artifact, err := i.client.DownloadArtifact(ctx, manifest)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", ref, err)
	}

	sig, err := i.client.DownloadSignature(ctx, manifest)
	if err != nil {
		return nil, fmt.Errorf("downloading signature for %s: %w", ref, err)
	}

	sum := sha256.Sum256(artifact)
	actual := hex.EncodeToString(sum[:])
	if actual != manifest.SHA256 {
		return nil, &IntegrityError{Expected: manifest.SHA256, Actual: actual}
	}

	verified, err := i.verifier.Verify(ctx, manifest.SHA256, sig, manifest.CertChainPEM)
	if err != nil {
		return nil, fmt.Errorf("verifying signature for %s: %w", ref, err)
	}

	target := filepath.Join(i.root, manifest.Namespace, manifest.Name, manifest.Version)
	if err := pack.UnpackBytes(artifact, target); err != nil {
		os.RemoveAll(target)
		return nil, fmt.Errorf("extracting %s: %w", ref, err)
	}

	signer := skill.RegistrySigner()
	if !verified.Registry {
		signer = skill.PublisherSigner(verified.CertSerial)
	}

	digest, err := skill.ParseDigest(manifest.SHA256)
	if err != nil {
		os.RemoveAll(target)
		return nil, fmt.Errorf("resolved manifest for %s carries a bad digest: %w", ref, err)
	}

	return &skill.InstalledPackage{
		Ref:         ref,
		SHA256:      digest,
		Signer:      signer,
		InstallPath: target,
	}, nil
}

// Uninstall removes an installed version directory, or the whole
// package directory when the ref has no version.
func (i *Installer) Uninstall(ref skill.PackageRef) error {
	target := filepath.Join(i.root, string(ref.Namespace), string(ref.Name))
	if ref.Version != nil {
		target = filepath.Join(target, ref.Version.String())
	}

	if _, err := os.Stat(target); os.IsNotExist(err) {
		return fmt.Errorf("%s is not installed", ref)
	}
	return os.RemoveAll(target)
}
