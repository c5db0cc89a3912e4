package postgres

import (
	"context"
	"fmt"

	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/repositories"
	"go.uber.org/zap"
)

const organizationColumns = `id, name, domain, created_at, updated_at, is_active, subscription_tier, max_users, settings`

// OrganizationRepository implements the repositories.OrganizationRepository interface
type OrganizationRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewOrganizationRepository creates a new organization repository
func NewOrganizationRepository(db *DB, logger *zap.Logger) repositories.OrganizationRepository {
	return &OrganizationRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new organization
func (r *OrganizationRepository) Create(ctx context.Context, org *models.Organization) error {
	query := `
		INSERT INTO organizations (` + organizationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		org.ID,
		org.Name,
		org.Domain,
		org.CreatedAt,
		org.UpdatedAt,
		org.IsActive,
		org.SubscriptionTier,
		org.MaxUsers,
		org.Settings,
	)
	if err != nil {
		return fmt.Errorf("failed to create organization: %w", mapError(err))
	}

	r.logger.Debug("organization created", zap.String("id", org.ID), zap.String("name", org.Name))
	return nil
}

// GetByID retrieves an organization by ID
func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (*models.Organization, error) {
	query := `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`

	executor := GetExecutor(ctx, r.db)
	org := &models.Organization{}

	err := executor.QueryRowContext(ctx, query, id).Scan(
		&org.ID,
		&org.Name,
		&org.Domain,
		&org.CreatedAt,
		&org.UpdatedAt,
		&org.IsActive,
		&org.SubscriptionTier,
		&org.MaxUsers,
		&org.Settings,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get organization %s: %w", id, mapError(err))
	}

	return org, nil
}

// List retrieves every organization, active or not, with pagination
func (r *OrganizationRepository) List(ctx context.Context, limit, offset int) ([]*models.Organization, error) {
	query := `
		SELECT ` + organizationColumns + `
		FROM organizations
		ORDER BY created_at DESC, id
		LIMIT $1 OFFSET $2
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list organizations: %w", err)
	}
	defer rows.Close()

	orgs := make([]*models.Organization, 0)
	for rows.Next() {
		org := &models.Organization{}
		err := rows.Scan(
			&org.ID,
			&org.Name,
			&org.Domain,
			&org.CreatedAt,
			&org.UpdatedAt,
			&org.IsActive,
			&org.SubscriptionTier,
			&org.MaxUsers,
			&org.Settings,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan organization: %w", err)
		}
		orgs = append(orgs, org)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating organization rows: %w", err)
	}

	return orgs, nil
}

// Count returns the number of organizations
func (r *OrganizationRepository) Count(ctx context.Context) (int, error) {
	var n int
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM organizations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count organizations: %w", err)
	}
	return n, nil
}
