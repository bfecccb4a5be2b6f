package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/skregdev/skreg/internal/models"
	apierrors "github.com/skregdev/skreg/internal/pkg/errors"
	"github.com/skregdev/skreg/internal/pkg/response"
	"github.com/skregdev/skreg/internal/repository"
	"github.com/skregdev/skreg/internal/skill"
)

// NamespaceHandler handles namespace registration.
type NamespaceHandler struct {
	namespaces repository.NamespaceRepository
	keys       repository.APIKeyRepository
	validate   *validator.Validate
}

// NewNamespaceHandler creates a new namespace handler.
func NewNamespaceHandler(namespaces repository.NamespaceRepository, keys repository.APIKeyRepository) *NamespaceHandler {
	return &NamespaceHandler{
		namespaces: namespaces,
		keys:       keys,
		validate:   validator.New(),
	}
}

// RegisterNamespaceRequest is the body for POST /v1/namespaces.
type RegisterNamespaceRequest struct {
	Slug  string `json:"slug" validate:"required,min=3,max=64"`
	Email string `json:"email" validate:"required,email"`
}

// RegisterNamespaceResponse returns the one-time plaintext API key.
type RegisterNamespaceResponse struct {
	ID     uuid.UUID `json:"id"`
	Slug   string    `json:"slug"`
	APIKey string    `json:"api_key"`
}

// Register handles POST /v1/namespaces.
func (h *NamespaceHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterNamespaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, apierrors.NewUnprocessableError("Invalid registration: "+err.Error()))
		return
	}
	if err := skill.ValidateSlug(req.Slug); err != nil {
		response.Error(w, apierrors.NewUnprocessableError("Invalid slug: "+err.Error()))
		return
	}

	existing, err := h.namespaces.GetBySlug(r.Context(), req.Slug)
	if err != nil {
		response.InternalError(w)
		return
	}
	if existing != nil {
		response.Error(w, apierrors.NewConflictError("Namespace slug is already taken"))
		return
	}

	ns := &models.Namespace{Slug: req.Slug, Email: req.Email}
	if err := h.namespaces.Create(r.Context(), ns); err != nil {
		response.InternalError(w)
		return
	}

	plaintext, hash, err := models.GenerateAPIKey()
	if err != nil {
		response.InternalError(w)
		return
	}
	key := &models.APIKey{
		NamespaceID: ns.ID,
		KeyHash:     hash,
		Email:       req.Email,
	}
	if err := h.keys.Create(r.Context(), key); err != nil {
		response.InternalError(w)
		return
	}

	response.Created(w, RegisterNamespaceResponse{
		ID:     ns.ID,
		Slug:   ns.Slug,
		APIKey: plaintext,
	})
}
