// Package handler provides HTTP handlers for the registry API.
package handler

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/skregdev/skreg/internal/middleware"
	"github.com/skregdev/skreg/internal/models"
	apierrors "github.com/skregdev/skreg/internal/pkg/errors"
	"github.com/skregdev/skreg/internal/pkg/response"
	"github.com/skregdev/skreg/internal/repository"
	"github.com/skregdev/skreg/internal/skill"
	"github.com/skregdev/skreg/internal/skill/pack"
	"github.com/skregdev/skreg/internal/storage"
)

// JobNotifier announces a freshly enqueued vetting job to workers.
type JobNotifier interface {
	NotifyVettingJob(ctx context.Context, jobID uuid.UUID) error
}

// PublishHandler handles artifact publication.
type PublishHandler struct {
	packages repository.PackageRepository
	versions repository.VersionRepository
	publish  repository.PublishRepository
	store    storage.BlobStore
	notifier JobNotifier
	maxBytes int64
}

// NewPublishHandler creates a new publish handler.
func NewPublishHandler(
	packages repository.PackageRepository,
	versions repository.VersionRepository,
	publish repository.PublishRepository,
	store storage.BlobStore,
	notifier JobNotifier,
	maxBytes int64,
) *PublishHandler {
	return &PublishHandler{
		packages: packages,
		versions: versions,
		publish:  publish,
		store:    store,
		notifier: notifier,
		maxBytes: maxBytes,
	}
}

// PublishResponse is the body of an accepted publish.
type PublishResponse struct {
	JobID   uuid.UUID `json:"job_id"`
	Message string    `json:"message"`
}

// Publish handles POST /v1/publish.
//
// The upload is admitted in order: body bounded and digested, archive
// unpacked, manifest validated, ownership and digest enforced, version
// uniqueness probed, bytes uploaded, then the package/version/job rows
// committed together. The upload precedes the insert so a crash in
// between leaves an orphan blob rather than a row without bytes.
func (h *PublishHandler) Publish(w http.ResponseWriter, r *http.Request) {
	nsID, slug, ok := middleware.NamespaceFromContext(r.Context())
	if !ok {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBytes))
	if err != nil {
		response.Error(w, apierrors.NewUnprocessableError("Upload exceeds the size limit or could not be read"))
		return
	}

	sum := sha256.Sum256(body)
	digest := hex.EncodeToString(sum[:])

	scratch, err := os.MkdirTemp("", "skreg-admit-*")
	if err != nil {
		response.InternalError(w)
		return
	}
	defer os.RemoveAll(scratch)

	if err := pack.UnpackBytes(body, scratch); err != nil {
		response.Error(w, apierrors.NewUnprocessableError("Tarball is not a valid .skill archive: "+err.Error()))
		return
	}

	manifestRaw, err := os.ReadFile(filepath.Join(scratch, "manifest.json"))
	if err != nil {
		response.Error(w, apierrors.NewUnprocessableError("Archive is missing manifest.json"))
		return
	}

	var manifest skill.Manifest
	if err := json.Unmarshal(manifestRaw, &manifest); err != nil {
		response.Error(w, apierrors.NewUnprocessableError("Manifest is invalid: "+err.Error()))
		return
	}
	if err := manifest.Validate(); err != nil {
		response.Error(w, apierrors.NewUnprocessableError("Manifest is invalid: "+err.Error()))
		return
	}

	if string(manifest.Namespace) != slug {
		response.Error(w, apierrors.ErrForbidden.WithMessage("Manifest namespace does not match the authenticated namespace"))
		return
	}

	if _, err := pack.VerifyStampedDigest(scratch); err != nil {
		response.Error(w, apierrors.NewUnprocessableError("Digest mismatch: "+err.Error()))
		return
	}

	version := manifest.Version.String()
	name := string(manifest.Name)

	existing, err := h.packages.GetByName(r.Context(), nsID, name)
	if err != nil {
		response.InternalError(w)
		return
	}
	if existing != nil {
		exists, err := h.versions.Exists(r.Context(), existing.ID, version)
		if err != nil {
			response.InternalError(w)
			return
		}
		if exists {
			response.Error(w, apierrors.NewConflictError("Version "+version+" of "+slug+"/"+name+" already exists"))
			return
		}
	}

	storageKey := skill.StorageKey(slug, name, version, digest)
	if err := h.store.Put(r.Context(), storageKey, body); err != nil {
		response.Error(w, apierrors.ErrServiceUnavailable.WithMessage("Object storage is unavailable"))
		return
	}

	pkg := &models.Package{
		NamespaceID: nsID,
		Name:        name,
		Description: manifest.Description,
	}
	if manifest.Category != "" {
		pkg.Category = &manifest.Category
	}
	v := &models.Version{
		Version:     version,
		SHA256:      digest,
		StoragePath: storageKey,
	}
	job := &models.VettingJob{}

	if err := h.publish.CreatePublication(r.Context(), pkg, v, job); err != nil {
		response.InternalError(w)
		return
	}

	// Notification loss is tolerable, startup recovery re-enqueues
	_ = h.notifier.NotifyVettingJob(r.Context(), job.ID)

	middleware.IncrementPublishes()
	response.Accepted(w, PublishResponse{
		JobID:   job.ID,
		Message: "accepted for vetting",
	})
}
