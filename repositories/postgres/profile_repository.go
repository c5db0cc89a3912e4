package postgres

import (
	"context"
	"fmt"

	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/repositories"
	"go.uber.org/zap"
)

const profileColumns = `id, email, first_name, last_name, avatar_url, phone, timezone, created_at, updated_at, last_login, is_active`

// ProfileRepository implements the repositories.ProfileRepository interface
type ProfileRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *DB, logger *zap.Logger) repositories.ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a profile by ID
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE id = $1`
	p, err := r.getOne(ctx, query, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return p, nil
}

// GetByEmail retrieves a profile by email, case-insensitively
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	query := `SELECT ` + profileColumns + ` FROM user_profiles WHERE lower(email) = lower($1)`
	p, err := r.getOne(ctx, query, email)
	if err != nil {
		return nil, fmt.Errorf("failed to get profile by email: %w", err)
	}
	return p, nil
}

// Count returns the number of profiles
func (r *ProfileRepository) Count(ctx context.Context) (int, error) {
	var n int
	executor := GetExecutor(ctx, r.db)
	if err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_profiles`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return n, nil
}

func (r *ProfileRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.Profile, error) {
	executor := GetExecutor(ctx, r.db)
	p := &models.Profile{}

	var timezone *string
	err := executor.QueryRowContext(ctx, query, arg).Scan(
		&p.ID,
		&p.Email,
		&p.FirstName,
		&p.LastName,
		&p.AvatarURL,
		&p.Phone,
		&timezone,
		&p.CreatedAt,
		&p.UpdatedAt,
		&p.LastLogin,
		&p.IsActive,
	)
	if err != nil {
		return nil, mapError(err)
	}

	p.Timezone = models.DefaultTimezone
	if timezone != nil && *timezone != "" {
		p.Timezone = *timezone
	}
	return p, nil
}
