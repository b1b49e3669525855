package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/config"
	"github.com/payhub-app/payhub-api/internal/database"
	"github.com/payhub-app/payhub-api/internal/http/handler"
	"github.com/payhub-app/payhub-api/internal/http/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	_ "github.com/payhub-app/payhub-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                   *config.Config
	logger                *zap.Logger
	db                    *gorm.DB
	authMiddleware        *auth.Middleware
	rateLimiter           *middleware.RateLimiter
	userHandler           *handler.UserHandler
	contractorHandler     *handler.ContractorHandler
	projectHandler        *handler.ProjectHandler
	materialPersonHandler *handler.MaterialPersonHandler
	statusHandler         *handler.StatusHandler
	invoiceHandler        *handler.InvoiceHandler
	paymentHandler        *handler.PaymentHandler
	workflowHandler       *handler.WorkflowHandler
	approvalHandler       *handler.ApprovalHandler
	fileHandler           *handler.FileHandler
	exportHandler         *handler.ExportHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	userHandler *handler.UserHandler,
	contractorHandler *handler.ContractorHandler,
	projectHandler *handler.ProjectHandler,
	materialPersonHandler *handler.MaterialPersonHandler,
	statusHandler *handler.StatusHandler,
	invoiceHandler *handler.InvoiceHandler,
	paymentHandler *handler.PaymentHandler,
	workflowHandler *handler.WorkflowHandler,
	approvalHandler *handler.ApprovalHandler,
	fileHandler *handler.FileHandler,
	exportHandler *handler.ExportHandler,
) *Router {
	return &Router{
		cfg:                   cfg,
		logger:                logger,
		db:                    db,
		authMiddleware:        authMiddleware,
		rateLimiter:           rateLimiter,
		userHandler:           userHandler,
		contractorHandler:     contractorHandler,
		projectHandler:        projectHandler,
		materialPersonHandler: materialPersonHandler,
		statusHandler:         statusHandler,
		invoiceHandler:        invoiceHandler,
		paymentHandler:        paymentHandler,
		workflowHandler:       workflowHandler,
		approvalHandler:       approvalHandler,
		fileHandler:           fileHandler,
		exportHandler:         exportHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP) // Apply IP-based rate limiting globally

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats": map[string]interface{}{
				"max_open_connections": stats.MaxOpenConnections,
				"open_connections":     stats.OpenConnections,
				"in_use":               stats.InUse,
				"idle":                 stats.Idle,
				"wait_count":           stats.WaitCount,
				"wait_duration_ms":     stats.WaitDuration.Milliseconds(),
				"max_idle_closed":      stats.MaxIdleClosed,
				"max_lifetime_closed":  stats.MaxLifetimeClosed,
			},
		})
	})

	// Combined readiness check (checks all dependencies)
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		// Check database
		if err := database.HealthCheck(rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "healthy",
				"checks": checks,
			})
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status": "unhealthy",
				"checks": checks,
			})
		}
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Current user
			r.Get("/me", rt.userHandler.Me)

			// Users (admin only)
			r.With(rt.authMiddleware.RequireAdmin).Get("/users", rt.userHandler.List)

			// Contractors
			r.Route("/contractors", func(r chi.Router) {
				r.Get("/", rt.contractorHandler.List)
				r.Post("/", rt.contractorHandler.Create)
				r.Get("/search", rt.contractorHandler.Search)
				r.Get("/{id}", rt.contractorHandler.GetByID)
				r.Put("/{id}", rt.contractorHandler.Update)
				r.Delete("/{id}", rt.contractorHandler.Delete)
			})

			// Projects
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Post("/", rt.projectHandler.Create)
				r.Get("/search", rt.projectHandler.Search)
				r.Get("/{id}", rt.projectHandler.GetByID)
				r.Put("/{id}", rt.projectHandler.Update)
				r.Delete("/{id}", rt.projectHandler.Delete)
			})

			// Material persons
			r.Route("/material-persons", func(r chi.Router) {
				r.Get("/", rt.materialPersonHandler.List)
				r.Post("/", rt.materialPersonHandler.Create)
				r.Get("/{id}", rt.materialPersonHandler.GetByID)
				r.Put("/{id}", rt.materialPersonHandler.Update)
				r.Delete("/{id}", rt.materialPersonHandler.Delete)
			})

			// Statuses (reads for everyone, writes for admins)
			r.Route("/statuses", func(r chi.Router) {
				r.Get("/", rt.statusHandler.List)
				r.Get("/{id}", rt.statusHandler.GetByID)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Post("/", rt.statusHandler.Create)
					r.Put("/{id}", rt.statusHandler.Update)
					r.Delete("/{id}", rt.statusHandler.Delete)
				})
			})

			// Invoices
			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", rt.invoiceHandler.List)
				r.Post("/", rt.invoiceHandler.Create)
				r.Get("/export", rt.exportHandler.ExportInvoices)
				r.Get("/{id}", rt.invoiceHandler.GetByID)
				r.Put("/{id}", rt.invoiceHandler.Update)
				r.Delete("/{id}", rt.invoiceHandler.Delete)

				// Sub-resources
				r.Get("/{id}/payments", rt.invoiceHandler.ListPayments)
				r.Get("/{id}/balance", rt.invoiceHandler.Balance)
				r.Get("/{id}/history", rt.invoiceHandler.History)
			})

			// Payments
			r.Route("/payments", func(r chi.Router) {
				r.Get("/", rt.paymentHandler.List)
				r.Post("/", rt.paymentHandler.Create)
				r.Get("/{id}", rt.paymentHandler.GetByID)
				r.Delete("/{id}", rt.paymentHandler.Delete)

				// Lifecycle endpoints
				r.Post("/{id}/submit", rt.paymentHandler.Submit)
				r.Post("/{id}/confirm", rt.paymentHandler.Confirm)
				r.Post("/{id}/reject", rt.paymentHandler.Reject)
				r.Post("/{id}/cancel", rt.paymentHandler.Cancel)
			})

			// Workflow templates (reads for everyone, writes for admins)
			r.Route("/workflows", func(r chi.Router) {
				r.Get("/", rt.workflowHandler.List)
				r.Get("/{id}", rt.workflowHandler.GetByID)

				r.Group(func(r chi.Router) {
					r.Use(rt.authMiddleware.RequireAdmin)
					r.Post("/", rt.workflowHandler.Create)
					r.Put("/{id}", rt.workflowHandler.Update)
					r.Delete("/{id}", rt.workflowHandler.Delete)
					r.Put("/{id}/stages", rt.workflowHandler.ReplaceStages)
					r.Post("/{id}/stages/reorder", rt.workflowHandler.ReorderStages)
				})
			})

			// Approvals
			r.Route("/approvals", func(r chi.Router) {
				r.Route("/{entityType}/{entityId}", func(r chi.Router) {
					r.Get("/", rt.approvalHandler.GetForEntity)
					r.Post("/start", rt.approvalHandler.Start)
					r.Get("/history", rt.approvalHandler.History)
				})

				r.Route("/instances/{id}", func(r chi.Router) {
					r.Get("/", rt.approvalHandler.GetInstance)
					r.Post("/approve", rt.approvalHandler.Approve)
					r.Post("/reject", rt.approvalHandler.Reject)
					r.Post("/cancel", rt.approvalHandler.Cancel)
				})
			})

			// File attachments
			r.Route("/files", func(r chi.Router) {
				r.Post("/{entityType}/{entityId}", rt.fileHandler.Upload)
				r.Get("/{entityType}/{entityId}", rt.fileHandler.List)
				r.Get("/{id}/download", rt.fileHandler.Download)
				r.Delete("/{id}", rt.fileHandler.Delete)
			})
		})
	})

	return r
}
