package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/skregdev/skreg/internal/models"
	apierrors "github.com/skregdev/skreg/internal/pkg/errors"
	"github.com/skregdev/skreg/internal/pkg/response"
	"github.com/skregdev/skreg/internal/repository"
)

// JobHandler serves vetting job status.
type JobHandler struct {
	jobs repository.JobRepository
}

// NewJobHandler creates a new job handler.
func NewJobHandler(jobs repository.JobRepository) *JobHandler {
	return &JobHandler{jobs: jobs}
}

// JobResponse is the poll view of a vetting job.
type JobResponse struct {
	ID      uuid.UUID        `json:"id"`
	Status  models.JobStatus `json:"status"`
	Message string           `json:"message,omitempty"`
}

// Get handles GET /v1/jobs/{id}.
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid job id"))
		return
	}

	job, err := h.jobs.GetByID(r.Context(), id)
	if err != nil {
		response.InternalError(w)
		return
	}
	if job == nil {
		response.NotFound(w, "Job")
		return
	}

	resp := JobResponse{ID: job.ID, Status: job.Status}
	if len(job.Results) > 0 {
		var results models.JobResults
		if err := json.Unmarshal(job.Results, &results); err == nil {
			resp.Message = results.Message
		}
	}

	response.OK(w, resp)
}
