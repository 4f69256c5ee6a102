// Package routes configures the HTTP router and middleware.
package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/conformeahq/conformea/pkg/audit"
	"github.com/conformeahq/conformea/pkg/config"
	"github.com/conformeahq/conformea/pkg/database"
	"github.com/conformeahq/conformea/pkg/events"
	"github.com/conformeahq/conformea/pkg/logger"
	"github.com/conformeahq/conformea/pkg/models"

	"github.com/conformeahq/conformea/internal/handlers"
	"github.com/conformeahq/conformea/internal/middleware"
	"github.com/conformeahq/conformea/internal/repository"
	"github.com/conformeahq/conformea/internal/service"
)

// Config holds dependencies for route setup.
type Config struct {
	DB        *database.DB
	Config    *config.Config
	Logger    *logger.Logger
	Publisher events.Publisher
	BuildInfo BuildInfo
}

// BuildInfo contains build information.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// New creates a new chi router with all routes and middleware configured.
func New(cfg Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(chimiddleware.Compress(5))

	// CORS configuration
	origins := cfg.Config.API.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Initialize repositories
	assessmentRepo := repository.NewAssessmentRepository(cfg.DB.Pool())
	planRepo := repository.NewPlanRepository(cfg.DB.Pool())
	evidenceRepo := repository.NewEvidenceRepository(cfg.DB.Pool())

	auditor := audit.NewLogger(cfg.DB.Pool(), cfg.Logger)

	// Initialize service layer
	assessmentSvc := service.NewAssessmentService(assessmentRepo, cfg.Publisher, auditor)
	planSvc := service.NewPlanService(planRepo, assessmentSvc, cfg.Publisher, auditor)
	evidenceSvc := service.NewEvidenceService(evidenceRepo, planRepo, cfg.Publisher, auditor)
	reportSvc := service.NewReportService(assessmentSvc)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(handlers.HealthHandlerConfig{
		DB:        cfg.DB,
		Events:    publisherHealth(cfg.Publisher),
		Version:   cfg.BuildInfo.Version,
		GitCommit: cfg.BuildInfo.GitCommit,
	})
	frameworkHandler := handlers.NewFrameworkHandler(cfg.Logger)
	assessmentHandler := handlers.NewAssessmentHandler(assessmentSvc, reportSvc, cfg.Logger)
	planHandler := handlers.NewPlanHandler(planSvc, cfg.Logger)
	evidenceHandler := handlers.NewEvidenceHandler(evidenceSvc, cfg.Logger)
	auditHandler := handlers.NewAuditHandler(auditor, cfg.Logger)

	// Health endpoints (no auth required)
	r.Get("/healthz", healthHandler.Liveness)
	r.Get("/readyz", healthHandler.Readiness)
	r.Get("/version", healthHandler.Version)

	// Metrics endpoint
	if cfg.Config.Metrics.Enabled {
		r.Get(cfg.Config.Metrics.Path, healthHandler.Metrics)
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Apply authentication middleware to all API routes
		r.Use(middleware.Auth(cfg.Config.Auth, cfg.Logger))
		r.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig(), cfg.Logger))

		// Framework catalog
		r.Route("/frameworks", func(r chi.Router) {
			r.Get("/", frameworkHandler.List)
			r.Get("/{framework}/controls", frameworkHandler.Controls)
		})

		// Assessments
		r.Route("/assessments", func(r chi.Router) {
			r.Get("/", assessmentHandler.List)
			r.With(middleware.RequireRole(models.RoleContributor)).Post("/", assessmentHandler.Create)
			r.Get("/{id}", assessmentHandler.Get)
			r.Get("/{id}/scores", assessmentHandler.Scores)
			r.Get("/{id}/gaps", assessmentHandler.Gaps)
			r.Get("/{id}/report", assessmentHandler.Report)
			r.With(middleware.RequireRole(models.RoleContributor)).Put("/{id}/responses/{controlID}", assessmentHandler.UpdateResponse)
			r.With(middleware.RequireRole(models.RoleRSSI)).Post("/{id}/reset", assessmentHandler.Reset)
			r.With(middleware.RequireRole(models.RoleRSSI)).Post("/{id}/complete", assessmentHandler.Complete)
		})

		// Action plans
		r.Route("/plans", func(r chi.Router) {
			r.Get("/", planHandler.List)
			r.With(middleware.RequireRole(models.RoleContributor)).Post("/", planHandler.Create)
			r.With(middleware.RequireRole(models.RoleRSSI)).Post("/generate", planHandler.Generate)
			r.Get("/{id}", planHandler.Get)
			r.With(middleware.RequireRole(models.RoleContributor)).Patch("/{id}", planHandler.Update)
			r.With(middleware.RequireRole(models.RoleContributor)).Put("/{id}/status", planHandler.Transition)
			r.Get("/{id}/evidence", evidenceHandler.ListByPlan)
			r.With(middleware.RequireRole(models.RoleContributor)).Post("/{id}/evidence", evidenceHandler.Submit)
		})

		// Evidence
		r.Route("/evidence", func(r chi.Router) {
			r.Get("/{id}", evidenceHandler.Get)
			r.With(middleware.RequireRole(models.RoleRSSI)).Post("/{id}/validate", evidenceHandler.Validate)
			r.With(middleware.RequireRole(models.RoleRSSI)).Patch("/{id}/remarks", evidenceHandler.AmendRemarks)
		})

		// Audit trail
		r.With(middleware.RequireRole(models.RoleRSSI)).Get("/audit", auditHandler.List)
	})

	return r
}

// publisherHealth returns the publisher as a health checker when it
// supports one. The noop publisher does not.
func publisherHealth(p events.Publisher) handlers.HealthChecker {
	if hc, ok := p.(handlers.HealthChecker); ok {
		return hc
	}
	return nil
}
