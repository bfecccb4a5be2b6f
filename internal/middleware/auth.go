// Package middleware provides HTTP middleware for the registry API.
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/skregdev/skreg/internal/models"
	apierrors "github.com/skregdev/skreg/internal/pkg/errors"
	"github.com/skregdev/skreg/internal/pkg/response"
	"github.com/skregdev/skreg/internal/repository"
)

type contextKey string

const (
	// NamespaceIDKey carries the authenticated namespace UUID.
	NamespaceIDKey contextKey = "namespace_id"
	// NamespaceSlugKey carries the authenticated namespace slug.
	NamespaceSlugKey contextKey = "namespace_slug"
)

// Auth returns middleware that authenticates publish requests with a
// bearer API key. Keys are presented as skreg_<64 hex> and matched by
// SHA-256 hash. A banned namespace authenticates but is forbidden.
func Auth(keys repository.APIKeyRepository, namespaces repository.NamespaceRepository) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				response.Error(w, apierrors.ErrUnauthorized)
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			if !strings.HasPrefix(token, models.APIKeyPrefix) {
				response.Error(w, apierrors.ErrUnauthorized)
				return
			}

			key, err := keys.GetByHash(r.Context(), models.HashAPIKey(token))
			if err != nil {
				response.InternalError(w)
				return
			}
			if key == nil {
				response.Error(w, apierrors.ErrUnauthorized)
				return
			}

			ns, err := namespaces.GetByID(r.Context(), key.NamespaceID)
			if err != nil {
				response.InternalError(w)
				return
			}
			if ns == nil {
				response.Error(w, apierrors.ErrUnauthorized)
				return
			}
			if ns.Banned() {
				response.Error(w, apierrors.ErrForbidden.WithMessage("Namespace is banned from publishing"))
				return
			}

			// Best effort, auth must not fail on it
			_ = keys.TouchLastUsed(r.Context(), key.ID)

			ctx := context.WithValue(r.Context(), NamespaceIDKey, ns.ID)
			ctx = context.WithValue(ctx, NamespaceSlugKey, ns.Slug)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// NamespaceFromContext returns the authenticated namespace id and slug.
func NamespaceFromContext(ctx context.Context) (uuid.UUID, string, bool) {
	id, ok := ctx.Value(NamespaceIDKey).(uuid.UUID)
	if !ok {
		return uuid.Nil, "", false
	}
	slug, ok := ctx.Value(NamespaceSlugKey).(string)
	if !ok {
		return uuid.Nil, "", false
	}
	return id, slug, true
}
