package services

import (
	"context"
	"errors"
	"time"

	"github.com/upb/whatsapp-saas/auth"
	"github.com/upb/whatsapp-saas/internal/observability"
	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/repositories"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultStoreTimeout bounds the profile and membership reads of one hydration.
const DefaultStoreTimeout = 5 * time.Second

// TokenVerifier checks a bearer token and returns its claims
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

// IdentityService turns a bearer token into a request-scoped Identity
type IdentityService struct {
	verifier     TokenVerifier
	profiles     repositories.ProfileRepository
	memberships  repositories.MembershipRepository
	storeTimeout time.Duration
	logger       *zap.Logger
	metrics      *observability.Metrics
}

// NewIdentityService creates a new identity service. A non-positive
// storeTimeout falls back to DefaultStoreTimeout; metrics may be nil.
func NewIdentityService(
	verifier TokenVerifier,
	profiles repositories.ProfileRepository,
	memberships repositories.MembershipRepository,
	storeTimeout time.Duration,
	logger *zap.Logger,
	metrics *observability.Metrics,
) *IdentityService {
	if storeTimeout <= 0 {
		storeTimeout = DefaultStoreTimeout
	}
	return &IdentityService{
		verifier:     verifier,
		profiles:     profiles,
		memberships:  memberships,
		storeTimeout: storeTimeout,
		logger:       logger,
		metrics:      metrics,
	}
}

// Resolve verifies token and hydrates the caller it names.
//
// Every failure is an unauthorized DomainError: ErrTokenExpired,
// ErrInvalidToken, ErrIdentityNotFound or ErrStoreUnavailable. The verifier
// or store cause is kept in the chain for logging.
func (s *IdentityService) Resolve(ctx context.Context, token string) (*models.Identity, error) {
	claims, err := s.verifier.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, ErrTokenExpired.Wrap(err)
		}
		return nil, ErrInvalidToken.Wrap(err)
	}
	return s.Hydrate(ctx, claims.Subject, claims.Email, claims)
}

// Hydrate loads the profile and active memberships of subjectID. The two
// reads run concurrently and share one deadline; the first failure cancels
// the other. Nothing is returned unless both reads succeed.
func (s *IdentityService) Hydrate(ctx context.Context, subjectID, email string, claims *auth.Claims) (identity *models.Identity, err error) {
	if subjectID == "" || email == "" {
		return nil, ErrInvalidToken.Wrap(errors.New("token has no subject or email"))
	}

	start := time.Now()
	defer func() { s.metrics.ObserveHydration(start, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	var (
		profile     *models.Profile
		memberships []*models.Membership
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.profiles.GetByID(gctx, subjectID)
		if err != nil {
			return err
		}
		profile = p
		return nil
	})
	g.Go(func() error {
		ms, err := s.memberships.ListActiveByUser(gctx, subjectID)
		if err != nil {
			return err
		}
		memberships = ms
		return nil
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrIdentityNotFound.Wrap(err)
		}
		s.logger.Error("identity store read failed",
			zap.String("user_id", subjectID),
			zap.Error(err))
		return nil, ErrStoreUnavailable.Wrap(err)
	}

	if memberships == nil {
		memberships = []*models.Membership{}
	}

	identity = &models.Identity{
		ID:          subjectID,
		Email:       email,
		Profile:     profile,
		Memberships: memberships,
	}
	if claims != nil {
		identity.Claims = claims.Raw
	}
	return identity, nil
}
