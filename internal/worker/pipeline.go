package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/skregdev/skreg/internal/models"
	"github.com/skregdev/skreg/internal/repository"
	"github.com/skregdev/skreg/internal/secrets"
	"github.com/skregdev/skreg/internal/skill"
	"github.com/skregdev/skreg/internal/skill/pack"
	"github.com/skregdev/skreg/internal/storage"
)

var stageNames = [4]string{"structure", "content", "safety", "signing"}

// Pipeline runs the four vetting stages over one claimed job.
type Pipeline struct {
	packages repository.PackageRepository
	versions repository.VersionRepository
	store    storage.BlobStore
	signer   *artifactSigner
}

// NewPipeline creates a vetting pipeline.
func NewPipeline(
	packages repository.PackageRepository,
	versions repository.VersionRepository,
	store storage.BlobStore,
	source secrets.Source,
	caSecretARN string,
) *Pipeline {
	return &Pipeline{
		packages: packages,
		versions: versions,
		store:    store,
		signer:   newArtifactSigner(source, caSecretARN, store),
	}
}

// Outcome is the terminal result of one pipeline run.
type Outcome struct {
	Status  models.JobStatus
	Results models.JobResults
}

// Run downloads and unpacks the artifact for v, then executes Stages
// 1-4 in order. The first failure aborts the pipeline; a quarantine
// finding at Stage 3 yields status quarantined instead of fail.
func (p *Pipeline) Run(ctx context.Context, v *models.Version, pkgName string) Outcome {
	var results models.JobResults

	fail := func(stage int, err error) Outcome {
		status := models.JobStatusFail
		var q *quarantineError
		if errors.As(err, &q) {
			status = models.JobStatusQuarantined
		}
		results.Stages = append(results.Stages, models.StageResult{
			Stage:  stage,
			Name:   stageNames[stage-1],
			Passed: false,
			Detail: err.Error(),
		})
		results.Message = fmt.Sprintf("Stage %d failed: %v", stage, err)
		return Outcome{Status: status, Results: results}
	}
	pass := func(stage int, started time.Time) {
		stageDuration.WithLabelValues(stageNames[stage-1]).Observe(time.Since(started).Seconds())
		results.Stages = append(results.Stages, models.StageResult{
			Stage:  stage,
			Name:   stageNames[stage-1],
			Passed: true,
		})
	}

	scratch, err := os.MkdirTemp("", "skreg-vet-*")
	if err != nil {
		results.Message = "scratch directory: " + err.Error()
		return Outcome{Status: models.JobStatusFail, Results: results}
	}
	defer os.RemoveAll(scratch)

	artifact, err := p.store.Get(ctx, v.StoragePath)
	if err != nil {
		results.Message = "downloading artifact: " + err.Error()
		return Outcome{Status: models.JobStatusFail, Results: results}
	}

	unpacked := filepath.Join(scratch, "unpacked")
	if err := pack.UnpackBytes(artifact, unpacked); err != nil {
		results.Message = "unpacking artifact: " + err.Error()
		return Outcome{Status: models.JobStatusFail, Results: results}
	}

	// Stage 1: structure
	started := time.Now()
	if err := checkStructure(unpacked); err != nil {
		return fail(1, err)
	}
	pass(1, started)

	// Stage 2: content
	started = time.Now()
	manifestRaw, err := os.ReadFile(filepath.Join(unpacked, "manifest.json"))
	if err != nil {
		return fail(2, err)
	}
	var manifest skill.Manifest
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		return fail(2, fmt.Errorf("parsing manifest: %w", err))
	}
	if err := checkContent(unpacked, &manifest); err != nil {
		return fail(2, err)
	}
	pass(2, started)

	// Stage 3: safety
	started = time.Now()
	if err := checkSafety(ctx, pkgName, v.Version, p.packages, p.versions); err != nil {
		return fail(3, err)
	}
	pass(3, started)

	// Stage 4: signing
	started = time.Now()
	sigKey, err := p.signer.sign(ctx, v)
	if err != nil {
		return fail(4, err)
	}
	if err := p.versions.SetSignature(ctx, v.ID, sigKey, models.SignerRegistry, nil); err != nil {
		return fail(4, fmt.Errorf("recording signature: %w", err))
	}
	pass(4, started)

	results.Message = "all stages passed"
	return Outcome{Status: models.JobStatusPass, Results: results}
}
