package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/upb/whatsapp-saas/auth"
	"github.com/upb/whatsapp-saas/internal/observability"
	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/services"
	"github.com/upb/whatsapp-saas/utils"
	"go.uber.org/zap"
)

// IdentityResolver turns a bearer token into the caller's identity
type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (*models.Identity, error)
}

// AuthMiddleware provides authentication middleware functionality
type AuthMiddleware struct {
	resolver IdentityResolver
	logger   *zap.Logger
	metrics  *observability.Metrics
}

// NewAuthMiddleware creates a new AuthMiddleware. metrics may be nil.
func NewAuthMiddleware(resolver IdentityResolver, logger *zap.Logger, metrics *observability.Metrics) *AuthMiddleware {
	return &AuthMiddleware{
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
	}
}

// RequireAuth resolves the caller and stores the identity on the request
// context. Every failure gets the same 401 body and Bearer challenge; the
// reason only goes to the log and the outcome counter.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		requestID := GetRequestIDFromContext(ctx)

		token := extractToken(r)
		if token == "" {
			m.logger.Debug("missing token",
				zap.String("request_id", requestID),
				zap.String("path", r.URL.Path))
			m.metrics.ObserveOutcome(observability.OutcomeMissingToken)
			_ = utils.WriteBearerChallenge(w)
			return
		}

		identity, err := m.resolver.Resolve(ctx, token)
		if err != nil {
			outcome := outcomeFor(err)
			m.logger.Warn("authentication failed",
				zap.String("request_id", requestID),
				zap.String("reason", outcome),
				zap.Error(err))
			m.metrics.ObserveOutcome(outcome)
			_ = utils.WriteBearerChallenge(w)
			return
		}

		m.metrics.ObserveOutcome(observability.OutcomeAuthenticated)
		m.logger.Debug("authentication successful",
			zap.String("request_id", requestID),
			zap.String("user_id", identity.ID),
			zap.Int("memberships", len(identity.Memberships)))

		next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, identity)))
	})
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, services.ErrTokenExpired):
		return observability.OutcomeExpiredToken
	case errors.Is(err, services.ErrIdentityNotFound):
		return observability.OutcomeNoProfile
	case errors.Is(err, services.ErrStoreUnavailable):
		return observability.OutcomeStoreError
	default:
		return observability.OutcomeInvalidToken
	}
}

// extractToken reads the bearer token from the Authorization header, falling
// back to the session cookie set by the login handler.
func extractToken(r *http.Request) string {
	if token := extractBearerToken(r); token != "" {
		return token
	}
	if cookie, err := r.Cookie(auth.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// extractBearerToken extracts the Bearer token from the Authorization header
func extractBearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
