package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/upb/whatsapp-saas/app"
	"github.com/upb/whatsapp-saas/handlers"
	"github.com/upb/whatsapp-saas/middleware"
	"github.com/upb/whatsapp-saas/models"
	"github.com/upb/whatsapp-saas/utils"
)

const defaultRequestTimeout = 60 * time.Second

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()
	cfg := deps.Config

	requestTimeout := cfg.Server.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	// Core middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(chimw.Recoverer)
	r.Use(chimw.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           cfg.CORS.MaxAge,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	health := handlers.NewHealthHandler(db, deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if cfg.Observability.MetricsEnabled && deps.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	authHandler := deps.AuthHandler()
	authn := deps.Auth()
	orgs := handlers.NewOrganizationHandler(deps.OrganizationService, deps.Logger)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", health.HandleHealth)
		r.Get("/plans", handlers.HandlePlans)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", authHandler.HandleLogin)
			r.Post("/register", authHandler.HandleRegister)
			r.Post("/logout", authHandler.HandleLogout)
			r.With(authn.RequireAuth).Get("/me", orgs.HandleMe)
		})

		// Everything below requires a resolved identity
		r.Group(func(r chi.Router) {
			r.Use(authn.RequireAuth)

			r.Get("/dashboard/stats", orgs.HandleDashboardStats)

			r.Route("/organizations", func(r chi.Router) {
				r.Get("/", orgs.HandleList)
				r.Post("/", orgs.HandleCreate)

				r.Route("/{orgID}", func(r chi.Router) {
					r.Use(middleware.RequireUUIDParam("orgID", "invalid organization id"))
					r.Use(authn.RequireOrgRole("orgID", models.RoleOrganizationAdmin))
					r.Get("/members", orgs.HandleListMembers)
					r.Post("/invite", orgs.HandleInvite)
				})
			})

			r.Route("/whatsapp", func(r chi.Router) {
				r.Get("/campaigns", handlers.HandleEmptyList)
				r.Get("/templates", handlers.HandleEmptyList)
				r.Get("/contacts", handlers.HandleEmptyList)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
