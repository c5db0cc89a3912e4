package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/upb/whatsapp-saas/auth"
	"github.com/upb/whatsapp-saas/models"
)

type MockVerifier struct {
	mock.Mock
}

func (m *MockVerifier) Verify(token string) (*auth.Claims, error) {
	args := m.Called(token)
	if c := args.Get(0); c != nil {
		return c.(*auth.Claims), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	args := m.Called(ctx, email)
	if p := args.Get(0); p != nil {
		return p.(*models.Profile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockProfileRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockOrganizationRepository struct {
	mock.Mock
}

func (m *MockOrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	args := m.Called(ctx, org)
	return args.Error(0)
}

func (m *MockOrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	args := m.Called(ctx, id)
	if o := args.Get(0); o != nil {
		return o.(*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrganizationRepository) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	args := m.Called(ctx, limit, offset)
	if o := args.Get(0); o != nil {
		return o.([]*models.Organization), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockOrganizationRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type MockMembershipRepository struct {
	mock.Mock
}

func (m *MockMembershipRepository) Create(ctx context.Context, ms *models.Membership) error {
	args := m.Called(ctx, ms)
	return args.Error(0)
}

func (m *MockMembershipRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.Membership, error) {
	args := m.Called(ctx, userID)
	if ms := args.Get(0); ms != nil {
		return ms.([]*models.Membership), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMembershipRepository) ListActiveByOrganization(ctx context.Context, orgID string) ([]*models.MemberWithProfile, error) {
	args := m.Called(ctx, orgID)
	if ms := args.Get(0); ms != nil {
		return ms.([]*models.MemberWithProfile), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockMembershipRepository) GetByUserAndOrganization(ctx context.Context, userID, orgID string) (*models.Membership, error) {
	args := m.Called(ctx, userID, orgID)
	if ms := args.Get(0); ms != nil {
		return ms.(*models.Membership), args.Error(1)
	}
	return nil, args.Error(1)
}

func membership(userID, orgID string, role models.Role) *models.Membership {
	return &models.Membership{
		ID:             "m-" + userID + "-" + orgID,
		UserID:         userID,
		OrganizationID: orgID,
		Role:           role,
		IsActive:       true,
		Organization:   &models.Organization{ID: orgID, Name: "Org " + orgID, IsActive: true, SubscriptionTier: models.TierFree},
	}
}

func identityWith(userID string, ms ...*models.Membership) *models.Identity {
	if ms == nil {
		ms = []*models.Membership{}
	}
	return &models.Identity{
		ID:          userID,
		Email:       userID + "@example.com",
		Profile:     &models.Profile{ID: userID, Email: userID + "@example.com", Timezone: models.DefaultTimezone},
		Memberships: ms,
	}
}
