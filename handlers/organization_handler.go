package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/upb/whatsapp-saas/middleware"
	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/services"
	"github.com/upb/whatsapp-saas/utils"
	"go.uber.org/zap"
)

// OrganizationManager is the subset of services.OrganizationService the HTTP layer uses
type OrganizationManager interface {
	List(ctx context.Context, identity *models.Identity, limit, offset int) ([]*models.Organization, error)
	Create(ctx context.Context, identity *models.Identity, req services.CreateOrganizationRequest) (*models.Organization, error)
	ListMembers(ctx context.Context, identity *models.Identity, orgID string) ([]*models.MemberWithProfile, error)
	Invite(ctx context.Context, identity *models.Identity, orgID string, req services.InviteRequest) (*models.Membership, error)
	DashboardStats(ctx context.Context, identity *models.Identity) (*services.DashboardStats, error)
}

// OrganizationHandler serves the tenant endpoints. Every route it handles
// sits behind AuthMiddleware.RequireAuth.
type OrganizationHandler struct {
	orgs   OrganizationManager
	logger *zap.Logger
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(orgs OrganizationManager, logger *zap.Logger) *OrganizationHandler {
	return &OrganizationHandler{
		orgs:   orgs,
		logger: logger,
	}
}

// MeResponse is the body of GET /api/auth/me
type MeResponse struct {
	User        *models.Profile      `json:"user"`
	Memberships []*models.Membership `json:"memberships"`
}

// HandleMe handles GET /api/auth/me
func (h *OrganizationHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	_ = utils.WriteOK(w, MeResponse{User: identity.Profile, Memberships: identity.Memberships})
}

// HandleDashboardStats handles GET /api/dashboard/stats
func (h *OrganizationHandler) HandleDashboardStats(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}
	stats, err := h.orgs.DashboardStats(r.Context(), identity)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, stats)
}

// HandleList handles GET /api/organizations
func (h *OrganizationHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	limit, err := queryInt(r, "limit")
	if err != nil {
		_ = utils.WriteBadRequest(w, "limit must be an integer", nil)
		return
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		_ = utils.WriteBadRequest(w, "offset must be an integer", nil)
		return
	}

	orgs, err := h.orgs.List(r.Context(), identity, limit, offset)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, orgs)
}

// HandleCreate handles POST /api/organizations
func (h *OrganizationHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req services.CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	org, err := h.orgs.Create(r.Context(), identity, req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteCreated(w, org)
}

// HandleListMembers handles GET /api/organizations/{orgID}/members
func (h *OrganizationHandler) HandleListMembers(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	members, err := h.orgs.ListMembers(r.Context(), identity, chi.URLParam(r, "orgID"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, members)
}

// HandleInvite handles POST /api/organizations/{orgID}/invite
func (h *OrganizationHandler) HandleInvite(w http.ResponseWriter, r *http.Request) {
	identity, ok := h.identity(w, r)
	if !ok {
		return
	}

	var req services.InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}
	if err := utils.ValidateStruct(&req); err != nil {
		HandleValidationError(w, err, h.logger)
		return
	}

	m, err := h.orgs.Invite(r.Context(), identity, chi.URLParam(r, "orgID"), req)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse{
		Data:    m,
		Message: "User invited successfully",
	})
}

func (h *OrganizationHandler) identity(w http.ResponseWriter, r *http.Request) (*models.Identity, bool) {
	identity := middleware.GetIdentityFromContext(r.Context())
	if identity == nil {
		h.logger.Error("identity not found in context",
			zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())))
		_ = utils.WriteBearerChallenge(w)
		return nil, false
	}
	return identity, true
}

func queryInt(r *http.Request, key string) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
