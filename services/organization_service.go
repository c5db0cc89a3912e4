package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/repositories"
	"go.uber.org/zap"
)

// DefaultOrganizationPageSize is used when a platform listing asks for no limit
const DefaultOrganizationPageSize = 100

// CreateOrganizationRequest is the body of POST /organizations
type CreateOrganizationRequest struct {
	Name   string  `json:"name" validate:"required,max=255"`
	Domain *string `json:"domain,omitempty" validate:"omitempty,fqdn"`
}

// InviteRequest is the body of POST /organizations/{orgID}/invite
type InviteRequest struct {
	Email string `json:"email" validate:"required,email"`
	Role  string `json:"role,omitempty" validate:"omitempty,role"`
}

// DashboardStats summarizes what the caller can see
type DashboardStats struct {
	TotalOrganizations int `json:"total_organizations"`
	TotalUsers         int `json:"total_users"`
	ActiveCampaigns    int `json:"active_campaigns"`
	TotalMessagesSent  int `json:"total_messages_sent"`
}

// OrganizationService implements the tenant-facing organization operations
type OrganizationService struct {
	txMgr       repositories.TransactionManager
	orgs        repositories.OrganizationRepository
	profiles    repositories.ProfileRepository
	memberships repositories.MembershipRepository
	logger      *zap.Logger
}

// NewOrganizationService creates a new organization service
func NewOrganizationService(txMgr repositories.TransactionManager, repos *repositories.Repositories, logger *zap.Logger) *OrganizationService {
	return &OrganizationService{
		txMgr:       txMgr,
		orgs:        repos.Organizations,
		profiles:    repos.Profiles,
		memberships: repos.Memberships,
		logger:      logger,
	}
}

// List returns every active organization for platform staff, and the
// caller's own organizations for everyone else.
func (s *OrganizationService) List(ctx context.Context, identity *models.Identity, limit, offset int) ([]*models.Organization, error) {
	if !identity.HasPlatformRole() {
		return identity.Organizations(), nil
	}

	if limit <= 0 {
		limit = DefaultOrganizationPageSize
	}
	if offset < 0 {
		offset = 0
	}
	orgs, err := s.orgs.List(ctx, limit, offset)
	if err != nil {
		return nil, WrapInternal("failed to list organizations", err)
	}
	return orgs, nil
}

// Create inserts an organization and makes the caller its owner, atomically
func (s *OrganizationService) Create(ctx context.Context, identity *models.Identity, req CreateOrganizationRequest) (*models.Organization, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, NewDomainError(ErrorTypeValidation, "organization name is required", nil)
	}

	org, err := WithTransactionResult(ctx, s.txMgr, func(ctx context.Context) (*models.Organization, error) {
		org := models.NewOrganization(name, req.Domain)
		if err := s.orgs.Create(ctx, org); err != nil {
			return nil, err
		}
		owner := models.NewMembership(identity.ID, org.ID, models.RoleOrganizationOwner, identity.ID)
		if err := s.memberships.Create(ctx, owner); err != nil {
			return nil, err
		}
		return org, nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, NewDomainError(ErrorTypeConflict, "organization already exists", err)
		}
		return nil, WrapInternal("failed to create organization", err)
	}

	s.logger.Info("organization created",
		zap.String("organization_id", org.ID),
		zap.String("owner_id", identity.ID))
	return org, nil
}

// ListMembers returns the active members of orgID with their profiles
func (s *OrganizationService) ListMembers(ctx context.Context, identity *models.Identity, orgID string) ([]*models.MemberWithProfile, error) {
	if !canManage(identity, orgID) {
		return nil, ErrInsufficientRole
	}

	members, err := s.memberships.ListActiveByOrganization(ctx, orgID)
	if err != nil {
		return nil, WrapInternal("failed to list members", err)
	}
	return members, nil
}

// Invite adds an already-registered user to orgID. The granted role defaults
// to organization_user and may not outrank the inviter's own role in the
// organization unless the inviter is platform staff.
func (s *OrganizationService) Invite(ctx context.Context, identity *models.Identity, orgID string, req InviteRequest) (*models.Membership, error) {
	if !canManage(identity, orgID) {
		return nil, ErrInsufficientRole
	}

	role := models.RoleOrganizationUser
	if req.Role != "" {
		role = models.ParseRole(req.Role)
		if !role.Valid() {
			return nil, ErrInvalidInput.Wrap(fmt.Errorf("%w: %q", models.ErrInvalidRole, req.Role))
		}
	}

	if !identity.HasPlatformRole() {
		own := identity.MembershipFor(orgID)
		if own == nil || role.Rank() > own.Role.Rank() {
			return nil, ErrRoleEscalation
		}
	}

	if _, err := s.orgs.GetByID(ctx, orgID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrganizationNotFound
		}
		return nil, WrapInternal("failed to load organization", err)
	}

	invitee, err := s.profiles.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrInviteeNotFound
		}
		return nil, WrapInternal("failed to look up invitee", err)
	}

	existing, err := s.memberships.GetByUserAndOrganization(ctx, invitee.ID, orgID)
	switch {
	case err == nil && existing != nil:
		return nil, ErrAlreadyMember
	case err != nil && !errors.Is(err, repositories.ErrNotFound):
		return nil, WrapInternal("failed to check membership", err)
	}

	m := models.NewMembership(invitee.ID, orgID, role, identity.ID)
	if err := s.memberships.Create(ctx, m); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return nil, ErrAlreadyMember
		}
		return nil, WrapInternal("failed to create membership", err)
	}

	s.logger.Info("user invited",
		zap.String("organization_id", orgID),
		zap.String("invitee_id", invitee.ID),
		zap.String("invited_by", identity.ID),
		zap.Stringer("role", role))
	return m, nil
}

// DashboardStats returns global counts for platform staff and the caller's
// membership count for everyone else. Campaign and message counters are
// always zero.
func (s *OrganizationService) DashboardStats(ctx context.Context, identity *models.Identity) (*DashboardStats, error) {
	if !identity.HasPlatformRole() {
		return &DashboardStats{TotalOrganizations: len(identity.Memberships)}, nil
	}

	orgs, err := s.orgs.Count(ctx)
	if err != nil {
		return nil, WrapInternal("failed to count organizations", err)
	}
	users, err := s.profiles.Count(ctx)
	if err != nil {
		return nil, WrapInternal("failed to count users", err)
	}
	return &DashboardStats{TotalOrganizations: orgs, TotalUsers: users}, nil
}

func canManage(identity *models.Identity, orgID string) bool {
	return identity.HasPlatformRole() || identity.HasMinimumRole(orgID, models.RoleOrganizationAdmin)
}
