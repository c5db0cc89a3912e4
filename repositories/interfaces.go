package repositories

import (
	"context"
	"errors"

	"github.com/upb/whatsapp-saas/models"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")

	// ErrDuplicate is returned when an insert violates a unique constraint
	ErrDuplicate = errors.New("record already exists")
)

// TransactionManager manages database transactions
type TransactionManager interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) (Transaction, error)

	// InTransaction executes a function within a transaction.
	// Repositories called with the ctx passed to fn join the transaction.
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx Transaction) error) error
}

// Transaction represents a database transaction
type Transaction interface {
	Commit() error
	Rollback() error
	Context() context.Context
}

// ProfileRepository reads user profiles. Profiles are created by the auth
// provider's signup hook, never by this service.
type ProfileRepository interface {
	// GetByID retrieves a profile by the auth subject id
	GetByID(ctx context.Context, id string) (*models.Profile, error)

	// GetByEmail retrieves a profile by email address
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)

	// Count returns the number of profiles
	Count(ctx context.Context) (int, error)
}

// OrganizationRepository handles organization data operations
type OrganizationRepository interface {
	Create(ctx context.Context, org *models.Organization) error
	GetByID(ctx context.Context, id string) (*models.Organization, error)

	// List retrieves all organizations, inactive included, newest first
	List(ctx context.Context, limit, offset int) ([]*models.Organization, error)

	// Count returns the number of organizations, inactive included
	Count(ctx context.Context) (int, error)
}

// MembershipRepository handles organization membership data operations
type MembershipRepository interface {
	// Create inserts a membership; ErrDuplicate if the user is already in the organization
	Create(ctx context.Context, m *models.Membership) error

	// ListActiveByUser returns the user's active memberships, each with its
	// organization embedded, in (created_at, id) order
	ListActiveByUser(ctx context.Context, userID string) ([]*models.Membership, error)

	// ListActiveByOrganization returns the organization's active members with their profiles
	ListActiveByOrganization(ctx context.Context, orgID string) ([]*models.MemberWithProfile, error)

	// GetByUserAndOrganization returns the membership regardless of its active flag
	GetByUserAndOrganization(ctx context.Context, userID, orgID string) (*models.Membership, error)
}

// Repositories holds all repository instances
type Repositories struct {
	Profiles      ProfileRepository
	Organizations OrganizationRepository
	Memberships   MembershipRepository
}
