package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/upb/whatsapp-saas/auth"
	"github.com/upb/whatsapp-saas/config"
	"github.com/upb/whatsapp-saas/internal/observability"
	"github.com/upb/whatsapp-saas/middleware"
	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/repositories"
	"github.com/upb/whatsapp-saas/repositories/postgres"
	"github.com/upb/whatsapp-saas/services"
	"go.uber.org/zap"
)

// Dependencies holds all application dependencies.
// This is the central wiring point for dependency injection.
type Dependencies struct {
	// Infrastructure
	Config *config.Config
	DB     *postgres.DB
	Logger *zap.Logger

	// Repository Factory
	RepoFactory *postgres.RepositoryFactory

	// Repositories
	Profiles      repositories.ProfileRepository
	Organizations repositories.OrganizationRepository
	Memberships   repositories.MembershipRepository
	TxManager     repositories.TransactionManager

	// Metrics
	Registry *prometheus.Registry
	Metrics  *observability.Metrics

	// Services
	IdentityService     *services.IdentityService
	OrganizationService *services.OrganizationService

	// Auth
	authHandler    *auth.Handler
	AuthMiddleware *middleware.AuthMiddleware
}

// NewDependencies connects to the database and wires every component
func NewDependencies(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Dependencies, error) {
	factory, err := postgres.NewRepositoryFactory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps, err := NewDependenciesFromFactory(ctx, cfg, factory, logger)
	if err != nil {
		_ = factory.Close()
		return nil, err
	}
	return deps, nil
}

// NewDependenciesFromFactory wires every component over an existing pool
func NewDependenciesFromFactory(ctx context.Context, cfg *config.Config, factory *postgres.RepositoryFactory, logger *zap.Logger) (*Dependencies, error) {
	deps := &Dependencies{
		Config:      cfg,
		Logger:      logger,
		RepoFactory: factory,
		DB:          factory.GetDB(),
	}

	if err := deps.initDatabase(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	deps.initRepositories()
	deps.initMetrics()
	deps.initServices()
	deps.initAuth()

	logger.Info("all dependencies initialized successfully")
	return deps, nil
}

// initDatabase checks connectivity and bootstraps the schema when asked to
func (d *Dependencies) initDatabase(ctx context.Context) error {
	if err := d.DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	if d.Config.Database.InitSchema {
		if err := d.DB.InitSchema(ctx); err != nil {
			return fmt.Errorf("failed to initialize schema: %w", err)
		}
	}

	d.Logger.Info("database connection established",
		zap.String("connection", d.Config.Database.LogString()))
	return nil
}

// initRepositories initializes all repository instances
func (d *Dependencies) initRepositories() {
	repos := d.RepoFactory.NewRepositories()

	d.Profiles = repos.Profiles
	d.Organizations = repos.Organizations
	d.Memberships = repos.Memberships
	d.TxManager = d.RepoFactory.GetTransactionManager()

	d.Logger.Info("repositories initialized")
}

// initMetrics builds a private registry so tests and multiple instances in
// one process never collide on global registration.
func (d *Dependencies) initMetrics() {
	d.Registry = prometheus.NewRegistry()
	d.Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	d.Metrics = observability.NewMetrics(d.Registry)
}

func (d *Dependencies) initServices() {
	d.OrganizationService = services.NewOrganizationService(d.TxManager, &repositories.Repositories{
		Profiles:      d.Profiles,
		Organizations: d.Organizations,
		Memberships:   d.Memberships,
	}, d.Logger)
}

func (d *Dependencies) initAuth() {
	cfg := d.Config.Auth

	if cfg.JWTSecret == "" {
		d.Logger.Warn("JWT secret not configured, every authenticated route will return 401")
		d.AuthMiddleware = middleware.NewAuthMiddleware(rejectAllResolver{}, d.Logger, d.Metrics)
	} else {
		verifier := auth.NewVerifier(cfg.JWTSecret, cfg.JWTAudience)
		d.IdentityService = services.NewIdentityService(
			verifier, d.Profiles, d.Memberships, cfg.StoreTimeout, d.Logger, d.Metrics)
		d.AuthMiddleware = middleware.NewAuthMiddleware(d.IdentityService, d.Logger, d.Metrics)
	}

	var provider auth.Authenticator
	if cfg.ProviderEnabled() {
		provider = auth.NewProviderClient(cfg.ProviderURL, cfg.ProviderAPIKey, cfg.ProviderTimeout)
		d.Logger.Info("auth provider configured", zap.String("url", cfg.ProviderURL))
	} else {
		d.Logger.Warn("auth provider not configured, login and registration disabled")
	}
	d.authHandler = auth.NewHandler(provider, d.Config.IsProduction(), d.Logger)
}

// AuthHandler returns the login/register handler, building a disabled one
// when none was wired
func (d *Dependencies) AuthHandler() *auth.Handler {
	if d.authHandler == nil {
		d.authHandler = auth.NewHandler(nil, false, d.Logger)
	}
	return d.authHandler
}

// Auth returns the authentication middleware, rejecting every request when
// none was wired
func (d *Dependencies) Auth() *middleware.AuthMiddleware {
	if d.AuthMiddleware == nil {
		d.AuthMiddleware = middleware.NewAuthMiddleware(rejectAllResolver{}, d.Logger, d.Metrics)
	}
	return d.AuthMiddleware
}

// rejectAllResolver rejects all tokens (used when no JWT secret is configured)
type rejectAllResolver struct{}

func (rejectAllResolver) Resolve(context.Context, string) (*models.Identity, error) {
	return nil, services.ErrInvalidToken.Wrap(errors.New("authentication not configured"))
}

// Close gracefully shuts down all dependencies
func (d *Dependencies) Close(ctx context.Context) error {
	d.Logger.Info("shutting down dependencies")

	var errs []error

	if d.RepoFactory != nil {
		if err := d.RepoFactory.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		} else {
			d.Logger.Info("database connection closed")
		}
	}

	if d.Logger != nil {
		_ = d.Logger.Sync()
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors during shutdown: %w", errors.Join(errs...))
	}

	return nil
}
