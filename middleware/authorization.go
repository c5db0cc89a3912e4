package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/utils"
	"go.uber.org/zap"
)

// RequireOrgRole admits callers holding at least min in the organization
// named by the URL parameter param. Platform staff are always admitted.
// Must run after RequireAuth.
func (m *AuthMiddleware) RequireOrgRole(param string, min models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := GetRequestIDFromContext(ctx)

			identity := GetIdentityFromContext(ctx)
			if identity == nil {
				m.logger.Error("identity not found in context",
					zap.String("request_id", requestID))
				_ = utils.WriteBearerChallenge(w)
				return
			}

			orgID := chi.URLParam(r, param)
			if identity.HasPlatformRole() || identity.HasMinimumRole(orgID, min) {
				next.ServeHTTP(w, r)
				return
			}

			m.logger.Info("insufficient role",
				zap.String("request_id", requestID),
				zap.String("user_id", identity.ID),
				zap.String("organization_id", orgID),
				zap.Stringer("required_role", min))
			_ = utils.WriteForbidden(w, "Access denied")
		})
	}
}

// RequirePlatformRole admits only SaaS staff. Must run after RequireAuth.
func (m *AuthMiddleware) RequirePlatformRole(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := GetIdentityFromContext(r.Context())
		if identity == nil {
			_ = utils.WriteBearerChallenge(w)
			return
		}
		if !identity.HasPlatformRole() {
			m.logger.Info("platform role required",
				zap.String("request_id", GetRequestIDFromContext(r.Context())),
				zap.String("user_id", identity.ID))
			_ = utils.WriteForbidden(w, "Access denied")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUUIDParam rejects requests whose URL parameter param is not a UUID
// with 400, before any handler reaches the store.
func RequireUUIDParam(param, message string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := utils.ValidateUUID(chi.URLParam(r, param)); err != nil {
				_ = utils.WriteBadRequest(w, message, nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
