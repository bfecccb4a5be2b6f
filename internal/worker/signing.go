package worker

import (
	"context"
	"fmt"

	"github.com/skregdev/skreg/internal/models"
	"github.com/skregdev/skreg/internal/secrets"
	"github.com/skregdev/skreg/internal/signing"
	"github.com/skregdev/skreg/internal/skill"
	"github.com/skregdev/skreg/internal/storage"
)

// artifactSigner fetches the registry CA key and signs vetted
// artifacts.
type artifactSigner struct {
	source secrets.Source
	arn    string
	store  storage.BlobStore
}

func newArtifactSigner(source secrets.Source, arn string, store storage.BlobStore) *artifactSigner {
	return &artifactSigner{source: source, arn: arn, store: store}
}

// sign produces the detached registry signature for a version and
// uploads it next to the artifact. Returns the signature object key.
func (s *artifactSigner) sign(ctx context.Context, v *models.Version) (string, error) {
	payload, err := s.source.Fetch(ctx, s.arn)
	if err != nil {
		return "", fmt.Errorf("fetching CA key: %w", err)
	}

	key, err := signing.ParseKeySecret(payload)
	if err != nil {
		return "", fmt.Errorf("parsing CA key: %w", err)
	}

	sig, err := signing.SignDigest(key, v.SHA256)
	if err != nil {
		return "", fmt.Errorf("signing digest: %w", err)
	}

	sigKey := skill.SigKey(v.StoragePath)
	if err := s.store.Put(ctx, sigKey, sig); err != nil {
		return "", fmt.Errorf("uploading signature: %w", err)
	}
	return sigKey, nil
}
