package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/skregdev/skreg/internal/middleware"
	"github.com/skregdev/skreg/internal/models"
	"github.com/skregdev/skreg/internal/pkg/response"
	"github.com/skregdev/skreg/internal/repository"
	"github.com/skregdev/skreg/internal/storage"
)

// PackageHandler serves package metadata and artifact downloads.
type PackageHandler struct {
	namespaces repository.NamespaceRepository
	packages   repository.PackageRepository
	versions   repository.VersionRepository
	store      storage.BlobStore
}

// NewPackageHandler creates a new package handler.
func NewPackageHandler(
	namespaces repository.NamespaceRepository,
	packages repository.PackageRepository,
	versions repository.VersionRepository,
	store storage.BlobStore,
) *PackageHandler {
	return &PackageHandler{
		namespaces: namespaces,
		packages:   packages,
		versions:   versions,
		store:      store,
	}
}

// ManifestResponse is the served view of a published version. The
// cert chain is empty for registry-signed versions, which is every
// version the vetting worker admits.
type ManifestResponse struct {
	Namespace    string   `json:"namespace"`
	Name         string   `json:"name"`
	Version      string   `json:"version"`
	Description  string   `json:"description"`
	Category     string   `json:"category,omitempty"`
	SHA256       string   `json:"sha256"`
	Signer       string   `json:"signer"`
	CertChainPEM []string `json:"cert_chain_pem"`
	Yanked       bool     `json:"yanked,omitempty"`
}

// resolve walks namespace slug, package name, and version (or
// "latest") down to a version row. A nil version with nil error means
// not found.
func (h *PackageHandler) resolve(r *http.Request) (*models.Package, *models.Version, error) {
	ns, err := h.namespaces.GetBySlug(r.Context(), chi.URLParam(r, "namespace"))
	if err != nil || ns == nil {
		return nil, nil, err
	}

	pkg, err := h.packages.GetByName(r.Context(), ns.ID, chi.URLParam(r, "name"))
	if err != nil || pkg == nil {
		return nil, nil, err
	}

	want := chi.URLParam(r, "version")
	if want == "latest" {
		v, err := h.versions.Latest(r.Context(), pkg.ID)
		return pkg, v, err
	}
	v, err := h.versions.GetByVersion(r.Context(), pkg.ID, want)
	return pkg, v, err
}

// Get handles GET /v1/packages/{namespace}/{name}/{version}.
func (h *PackageHandler) Get(w http.ResponseWriter, r *http.Request) {
	pkg, v, err := h.resolve(r)
	if err != nil {
		response.InternalError(w)
		return
	}
	if v == nil {
		response.NotFound(w, "Package version")
		return
	}

	resp := ManifestResponse{
		Namespace:    chi.URLParam(r, "namespace"),
		Name:         pkg.Name,
		Version:      v.Version,
		Description:  pkg.Description,
		SHA256:       v.SHA256,
		Signer:       v.Signer,
		CertChainPEM: []string{},
		Yanked:       v.Yanked(),
	}
	if pkg.Category != nil {
		resp.Category = *pkg.Category
	}

	response.OK(w, resp)
}

// Download handles GET /v1/download/{namespace}/{name}/{version}.
func (h *PackageHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, false)
}

// DownloadSig handles GET /v1/download/{namespace}/{name}/{version}/sig.
func (h *PackageHandler) DownloadSig(w http.ResponseWriter, r *http.Request) {
	h.serveBlob(w, r, true)
}

func (h *PackageHandler) serveBlob(w http.ResponseWriter, r *http.Request, sig bool) {
	_, v, err := h.resolve(r)
	if err != nil {
		response.InternalError(w)
		return
	}
	if v == nil {
		response.NotFound(w, "Package version")
		return
	}

	key := v.StoragePath
	kind := "artifact"
	if sig {
		if v.SigPath == "" {
			response.NotFound(w, "Signature")
			return
		}
		key = v.SigPath
		kind = "signature"
	}

	data, err := h.store.Get(r.Context(), key)
	if err == storage.ErrNotFound {
		response.NotFound(w, "Artifact")
		return
	}
	if err != nil {
		response.InternalError(w)
		return
	}

	middleware.IncrementDownloads(kind)
	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Skill-SHA256", v.SHA256)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
