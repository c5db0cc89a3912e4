package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/repositories"
	"go.uber.org/zap"
)

const membershipColumns = `m.id, m.user_id, m.organization_id, m.role, m.invited_by, m.invited_at, m.accepted_at, m.created_at, m.updated_at, m.is_active`

// MembershipRepository implements the repositories.MembershipRepository interface
type MembershipRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewMembershipRepository creates a new membership repository
func NewMembershipRepository(db *DB, logger *zap.Logger) repositories.MembershipRepository {
	return &MembershipRepository{
		db:     db,
		logger: logger,
	}
}

// Create creates a new membership
func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	query := `
		INSERT INTO organization_memberships
			(id, user_id, organization_id, role, invited_by, invited_at, accepted_at, created_at, updated_at, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	executor := GetExecutor(ctx, r.db)
	_, err := executor.ExecContext(ctx, query,
		m.ID,
		m.UserID,
		m.OrganizationID,
		m.Role,
		m.InvitedBy,
		m.InvitedAt,
		m.AcceptedAt,
		m.CreatedAt,
		m.UpdatedAt,
		m.IsActive,
	)
	if err != nil {
		return fmt.Errorf("failed to create membership: %w", mapError(err))
	}

	r.logger.Debug("membership created",
		zap.String("id", m.ID),
		zap.String("user_id", m.UserID),
		zap.String("organization_id", m.OrganizationID),
		zap.Stringer("role", m.Role))
	return nil
}

// ListActiveByUser retrieves a user's active memberships with their organizations
func (r *MembershipRepository) ListActiveByUser(ctx context.Context, userID string) ([]*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `,
			o.id, o.name, o.domain, o.created_at, o.updated_at, o.is_active, o.subscription_tier, o.max_users, o.settings
		FROM organization_memberships m
		LEFT JOIN organizations o ON o.id = m.organization_id
		WHERE m.user_id = $1 AND m.is_active = true
		ORDER BY m.created_at, m.id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships: %w", err)
	}
	defer rows.Close()

	memberships := make([]*models.Membership, 0)
	for rows.Next() {
		m := &models.Membership{}
		var org nullableOrganization

		dest := append(membershipDest(m), org.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan membership: %w", err)
		}
		m.Organization = org.value()
		memberships = append(memberships, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating membership rows: %w", err)
	}

	return memberships, nil
}

// ListActiveByOrganization retrieves an organization's active members with their profiles
func (r *MembershipRepository) ListActiveByOrganization(ctx context.Context, orgID string) ([]*models.MemberWithProfile, error) {
	query := `
		SELECT ` + membershipColumns + `,
			p.id, p.email, p.first_name, p.last_name, p.avatar_url, p.phone, p.timezone,
			p.created_at, p.updated_at, p.last_login, p.is_active
		FROM organization_memberships m
		LEFT JOIN user_profiles p ON p.id = m.user_id
		WHERE m.organization_id = $1 AND m.is_active = true
		ORDER BY m.created_at, m.id
	`

	executor := GetExecutor(ctx, r.db)
	rows, err := executor.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	members := make([]*models.MemberWithProfile, 0)
	for rows.Next() {
		mp := &models.MemberWithProfile{}
		var p nullableProfile

		dest := append(membershipDest(&mp.Membership), p.dest()...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		mp.Profile = p.value()
		members = append(members, mp)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating member rows: %w", err)
	}

	return members, nil
}

// GetByUserAndOrganization retrieves a membership by its (user, organization) pair
func (r *MembershipRepository) GetByUserAndOrganization(ctx context.Context, userID, orgID string) (*models.Membership, error) {
	query := `
		SELECT ` + membershipColumns + `
		FROM organization_memberships m
		WHERE m.user_id = $1 AND m.organization_id = $2
	`

	executor := GetExecutor(ctx, r.db)
	m := &models.Membership{}
	if err := executor.QueryRowContext(ctx, query, userID, orgID).Scan(membershipDest(m)...); err != nil {
		return nil, fmt.Errorf("failed to get membership: %w", mapError(err))
	}
	return m, nil
}

func membershipDest(m *models.Membership) []interface{} {
	return []interface{}{
		&m.ID,
		&m.UserID,
		&m.OrganizationID,
		&m.Role,
		&m.InvitedBy,
		&m.InvitedAt,
		&m.AcceptedAt,
		&m.CreatedAt,
		&m.UpdatedAt,
		&m.IsActive,
	}
}

// nullableOrganization receives the right side of a LEFT JOIN on organizations
type nullableOrganization struct {
	id        sql.NullString
	name      sql.NullString
	domain    sql.NullString
	createdAt sql.NullTime
	updatedAt sql.NullTime
	isActive  sql.NullBool
	tier      sql.NullString
	maxUsers  sql.NullInt64
	settings  models.Settings
}

func (o *nullableOrganization) dest() []interface{} {
	return []interface{}{
		&o.id, &o.name, &o.domain, &o.createdAt, &o.updatedAt,
		&o.isActive, &o.tier, &o.maxUsers, &o.settings,
	}
}

func (o *nullableOrganization) value() *models.Organization {
	if !o.id.Valid {
		return nil
	}
	org := &models.Organization{
		ID:               o.id.String,
		Name:             o.name.String,
		CreatedAt:        o.createdAt.Time,
		UpdatedAt:        o.updatedAt.Time,
		IsActive:         o.isActive.Bool,
		SubscriptionTier: models.SubscriptionTier(o.tier.String),
		MaxUsers:         int(o.maxUsers.Int64),
		Settings:         o.settings,
	}
	if o.domain.Valid {
		d := o.domain.String
		org.Domain = &d
	}
	return org
}

// nullableProfile receives the right side of a LEFT JOIN on user_profiles
type nullableProfile struct {
	id        sql.NullString
	email     sql.NullString
	firstName sql.NullString
	lastName  sql.NullString
	avatarURL sql.NullString
	phone     sql.NullString
	timezone  sql.NullString
	createdAt sql.NullTime
	updatedAt sql.NullTime
	lastLogin sql.NullTime
	isActive  sql.NullBool
}

func (p *nullableProfile) dest() []interface{} {
	return []interface{}{
		&p.id, &p.email, &p.firstName, &p.lastName, &p.avatarURL, &p.phone,
		&p.timezone, &p.createdAt, &p.updatedAt, &p.lastLogin, &p.isActive,
	}
}

func (p *nullableProfile) value() *models.Profile {
	if !p.id.Valid {
		return nil
	}
	profile := &models.Profile{
		ID:        p.id.String,
		Email:     p.email.String,
		FirstName: optString(p.firstName),
		LastName:  optString(p.lastName),
		AvatarURL: optString(p.avatarURL),
		Phone:     optString(p.phone),
		Timezone:  models.DefaultTimezone,
		CreatedAt: p.createdAt.Time,
		UpdatedAt: p.updatedAt.Time,
		IsActive:  p.isActive.Bool,
	}
	if p.timezone.Valid && p.timezone.String != "" {
		profile.Timezone = p.timezone.String
	}
	if p.lastLogin.Valid {
		t := p.lastLogin.Time
		profile.LastLogin = &t
	}
	return profile
}

func optString(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
