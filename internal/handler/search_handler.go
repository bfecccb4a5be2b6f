package handler

import (
	"net/http"
	"strconv"

	"github.com/skregdev/skreg/internal/models"
	"github.com/skregdev/skreg/internal/pkg/response"
	"github.com/skregdev/skreg/internal/repository"
)

// SearchHandler serves package search.
type SearchHandler struct {
	packages repository.PackageRepository
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(packages repository.PackageRepository) *SearchHandler {
	return &SearchHandler{packages: packages}
}

// SearchResponse is the body of a search result page.
type SearchResponse struct {
	Query   string                  `json:"query"`
	Results []models.PackageSummary `json:"results"`
}

// Search handles GET /v1/search?q=&limit=.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	limit := 20
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			switch {
			case n < 1:
				limit = 1
			case n > 100:
				limit = 100
			default:
				limit = n
			}
		}
	}

	results, err := h.packages.Search(r.Context(), query, limit)
	if err != nil {
		response.InternalError(w)
		return
	}
	if results == nil {
		results = []models.PackageSummary{}
	}

	response.OK(w, SearchResponse{Query: query, Results: results})
}
