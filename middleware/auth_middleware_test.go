package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/upb/whatsapp-saas/internal/observability"
	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/services"
	"go.uber.org/zap"
)

// MockResolver is a mock implementation of IdentityResolver
type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Identity), args.Error(1)
}

func testIdentity(userID string, ms ...*models.Membership) *models.Identity {
	if ms == nil {
		ms = []*models.Membership{}
	}
	return &models.Identity{ID: userID, Email: userID + "@example.com", Memberships: ms}
}

func member(orgID string, role models.Role) *models.Membership {
	return &models.Membership{ID: "m-" + orgID, OrganizationID: orgID, Role: role, IsActive: true}
}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func TestRequireAuth(t *testing.T) {
	logger := zap.NewNop()

	t.Run("bearer header resolves identity", func(t *testing.T) {
		resolver := new(MockResolver)
		mw := NewAuthMiddleware(resolver, logger, nil)
		identity := testIdentity("u1", member("o1", models.RoleOrganizationOwner))
		resolver.On("Resolve", mock.Anything, "valid-token").Return(identity, nil)

		handler := mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := GetIdentityFromContext(r.Context())
			require.NotNil(t, got)
			assert.Same(t, identity, got)
			w.WriteHeader(http.StatusOK)
		}))

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "Bearer valid-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertExpectations(t)
	})

	t.Run("cookie is used when header is absent", func(t *testing.T) {
		resolver := new(MockResolver)
		mw := NewAuthMiddleware(resolver, logger, nil)
		resolver.On("Resolve", mock.Anything, "cookie-token").Return(testIdentity("u2"), nil)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
		w := httptest.NewRecorder()
		mw.RequireAuth(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertExpectations(t)
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		resolver := new(MockResolver)
		mw := NewAuthMiddleware(resolver, logger, nil)
		resolver.On("Resolve", mock.Anything, "header-token").Return(testIdentity("u3"), nil)

		req := httptest.NewRequest(http.MethodGet, "/test", nil)
		req.Header.Set("Authorization", "bearer header-token")
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: "cookie-token"})
		w := httptest.NewRecorder()
		mw.RequireAuth(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		resolver.AssertNotCalled(t, "Resolve", mock.Anything, "cookie-token")
	})

	t.Run("missing or malformed header is rejected without resolving", func(t *testing.T) {
		for _, header := range []string{"", "Basic dXNlcjpwYXNz", "Bearer", "Token abc"} {
			resolver := new(MockResolver)
			mw := NewAuthMiddleware(resolver, logger, nil)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			mw.RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			})).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code, "header %q", header)
			assert.Equal(t, `Bearer realm="api"`, w.Header().Get("WWW-Authenticate"))
			resolver.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything)
		}
	})
}

func TestRequireAuth_FailuresLookIdentical(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		outcome string
	}{
		{"invalid", services.ErrInvalidToken.Wrap(errors.New("signature")), observability.OutcomeInvalidToken},
		{"expired", services.ErrTokenExpired.Wrap(errors.New("exp")), observability.OutcomeExpiredToken},
		{"no profile", services.ErrIdentityNotFound, observability.OutcomeNoProfile},
		{"store down", services.ErrStoreUnavailable.Wrap(context.DeadlineExceeded), observability.OutcomeStoreError},
		{"unexpected", errors.New("boom"), observability.OutcomeInvalidToken},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resolver := new(MockResolver)
			metrics := observability.NewMetrics(prometheus.NewRegistry())
			mw := NewAuthMiddleware(resolver, zap.NewNop(), metrics)
			resolver.On("Resolve", mock.Anything, "tok").Return(nil, tt.err)

			req := httptest.NewRequest(http.MethodGet, "/test", nil)
			req.Header.Set("Authorization", "Bearer tok")
			w := httptest.NewRecorder()
			mw.RequireAuth(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, `Bearer realm="api"`, w.Header().Get("WWW-Authenticate"))
			assert.NotContains(t, w.Body.String(), "expired")
			assert.NotContains(t, w.Body.String(), "profile")
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthOutcomes.WithLabelValues(tt.outcome)))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, "Authentication failed", body["message"])
			bodies = append(bodies, body["message"].(string)+"|"+body["error"].(string))
		})
	}

	for _, b := range bodies {
		assert.Equal(t, bodies[0], b)
	}
}

func TestRequireAuth_CountsSuccess(t *testing.T) {
	resolver := new(MockResolver)
	metrics := observability.NewMetrics(prometheus.NewRegistry())
	mw := NewAuthMiddleware(resolver, zap.NewNop(), metrics)
	resolver.On("Resolve", mock.Anything, "tok").Return(testIdentity("u1"), nil)

	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("Authorization", "Bearer tok")
	mw.RequireAuth(http.HandlerFunc(okHandler)).ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.AuthOutcomes.WithLabelValues(observability.OutcomeAuthenticated)))
}

func TestRequireOrgRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.Identity
		orgID    string
		want     int
	}{
		{"owner passes admin check", testIdentity("u1", member("o1", models.RoleOrganizationOwner)), "o1", http.StatusOK},
		{"admin passes admin check", testIdentity("u1", member("o1", models.RoleOrganizationAdmin)), "o1", http.StatusOK},
		{"user fails admin check", testIdentity("u1", member("o1", models.RoleOrganizationUser)), "o1", http.StatusForbidden},
		{"owner of other org fails", testIdentity("u1", member("o2", models.RoleOrganizationOwner)), "o1", http.StatusForbidden},
		{"unknown role fails", testIdentity("u1", member("o1", models.RoleUnknown)), "o1", http.StatusForbidden},
		{"platform staff passes anywhere", testIdentity("s1", member("o9", models.RoleSaaSAccountant)), "o1", http.StatusOK},
		{"no identity", nil, "o1", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewAuthMiddleware(new(MockResolver), zap.NewNop(), nil)

			r := chi.NewRouter()
			r.With(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					if tt.identity != nil {
						req = req.WithContext(WithIdentity(req.Context(), tt.identity))
					}
					next.ServeHTTP(w, req)
				})
			}, mw.RequireOrgRole("orgID", models.RoleOrganizationAdmin)).
				Get("/orgs/{orgID}/members", okHandler)

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/orgs/"+tt.orgID+"/members", nil))

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRequireUUIDParam(t *testing.T) {
	platform := testIdentity("s1", member("9b2c6f0e-1d3a-4c7e-8f21-5a6b7c8d9e0f", models.RoleSaaSAdmin))

	tests := []struct {
		name       string
		orgID      string
		want       int
		wantCalled bool
	}{
		{"malformed id never reaches the handler", "not-a-uuid", http.StatusBadRequest, false},
		{"numeric id", "42", http.StatusBadRequest, false},
		{"valid id", "550e8400-e29b-41d4-a716-446655440000", http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewAuthMiddleware(new(MockResolver), zap.NewNop(), nil)
			called := false

			r := chi.NewRouter()
			r.With(func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
					next.ServeHTTP(w, req.WithContext(WithIdentity(req.Context(), platform)))
				})
			},
				RequireUUIDParam("orgID", "invalid organization id"),
				mw.RequireOrgRole("orgID", models.RoleOrganizationAdmin),
			).Get("/api/organizations/{orgID}/members", func(w http.ResponseWriter, r *http.Request) {
				called = true
				okHandler(w, r)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/organizations/"+tt.orgID+"/members", nil))

			assert.Equal(t, tt.want, w.Code)
			assert.Equal(t, tt.wantCalled, called)
			if tt.want == http.StatusBadRequest {
				assert.Contains(t, w.Body.String(), "invalid organization id")
			}
		})
	}
}

func TestRequirePlatformRole(t *testing.T) {
	tests := []struct {
		name     string
		identity *models.Identity
		want     int
	}{
		{"super admin", testIdentity("s1", member("o1", models.RoleSaaSSuperAdmin)), http.StatusOK},
		{"accountant", testIdentity("s2", member("o1", models.RoleSaaSAccountant)), http.StatusOK},
		{"org owner", testIdentity("u1", member("o1", models.RoleOrganizationOwner)), http.StatusForbidden},
		{"no memberships", testIdentity("u2"), http.StatusForbidden},
		{"no identity", nil, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mw := NewAuthMiddleware(new(MockResolver), zap.NewNop(), nil)

			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tt.identity != nil {
				req = req.WithContext(WithIdentity(req.Context(), tt.identity))
			}
			w := httptest.NewRecorder()
			mw.RequirePlatformRole(http.HandlerFunc(okHandler)).ServeHTTP(w, req)

			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	assert.Nil(t, GetIdentityFromContext(ctx))
	assert.Equal(t, "", GetRequestIDFromContext(ctx))

	identity := testIdentity("u1")
	ctx = WithIdentity(WithRequestID(ctx, "req-1"), identity)

	assert.Same(t, identity, GetIdentityFromContext(ctx))
	assert.Equal(t, "req-1", GetRequestIDFromContext(ctx))
}
