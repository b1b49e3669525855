package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/payhub-app/payhub-api/docs"
	"github.com/payhub-app/payhub-api/internal/accounting"
	"github.com/payhub-app/payhub-api/internal/auth"
	"github.com/payhub-app/payhub-api/internal/config"
	"github.com/payhub-app/payhub-api/internal/database"
	"github.com/payhub-app/payhub-api/internal/export"
	"github.com/payhub-app/payhub-api/internal/http/handler"
	"github.com/payhub-app/payhub-api/internal/http/middleware"
	"github.com/payhub-app/payhub-api/internal/http/router"
	"github.com/payhub-app/payhub-api/internal/jobs"
	"github.com/payhub-app/payhub-api/internal/logger"
	"github.com/payhub-app/payhub-api/internal/repository"
	"github.com/payhub-app/payhub-api/internal/service"
	"github.com/payhub-app/payhub-api/internal/storage"
	"go.uber.org/zap"
)

// paymentSyncTimeout bounds a single reconciliation run against the
// accounting system.
const paymentSyncTimeout = 10 * time.Minute

// @title PayHub API
// @version 1.0
// @description Purchase invoice, payment and approval workflow management API
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.email support@payhub.app

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations
// @Security BearerAuth
// @Security ApiKeyAuth

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "payhub-staging.azurecontainerapps.io"
	case "production":
		docs.SwaggerInfo.Host = "api.payhub.app"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database with retry logic
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Initialize accounting system connection (optional - for reconciliation)
	// This connection is read-only and the app continues without it if not configured
	var accountingClient *accounting.Client
	if cfg.Accounting.Enabled {
		accountingClient, err = accounting.NewClient(&cfg.Accounting, log)
		if err != nil {
			// Log error but don't fail - reconciliation is optional
			log.Warn("Accounting connection failed, continuing without it",
				zap.Error(err),
			)
		} else if accountingClient != nil {
			log.Info("Accounting system connected successfully",
				zap.Int("max_open_conns", cfg.Accounting.MaxOpenConns),
				zap.Int("query_timeout_seconds", cfg.Accounting.QueryTimeout),
			)
		}
	} else {
		log.Info("Accounting system not configured, skipping",
			zap.Bool("enabled", cfg.Accounting.Enabled),
		)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	contractorRepo := repository.NewContractorRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	materialPersonRepo := repository.NewMaterialPersonRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	workflowRepo := repository.NewWorkflowRepository(db)
	instanceRepo := repository.NewInstanceRepository(db)
	actionRepo := repository.NewActionRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)

	// Initialize services
	userService := service.NewUserService(userRepo, log)
	contractorService := service.NewContractorService(contractorRepo, log)
	projectService := service.NewProjectService(projectRepo, log)
	materialPersonService := service.NewMaterialPersonService(materialPersonRepo, log)
	statusService := service.NewStatusService(statusRepo, db, log)
	invoiceService := service.NewInvoiceService(invoiceRepo, contractorRepo, db, log)
	paymentService := service.NewPaymentService(paymentRepo, invoiceRepo, instanceRepo, actionRepo, db, log)
	workflowService := service.NewWorkflowService(workflowRepo, instanceRepo, db, log)
	approvalService := service.NewApprovalService(instanceRepo, workflowRepo, actionRepo, db, log)
	fileService := service.NewFileService(attachmentRepo, fileStorage, cfg.Storage.MaxUploadSizeMB, log)
	exportService := service.NewExportService(invoiceRepo, export.NewExcelExporter(log), log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	userHandler := handler.NewUserHandler(userService, log)
	contractorHandler := handler.NewContractorHandler(contractorService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	materialPersonHandler := handler.NewMaterialPersonHandler(materialPersonService, log)
	statusHandler := handler.NewStatusHandler(statusService, log)
	invoiceHandler := handler.NewInvoiceHandler(invoiceService, paymentService, approvalService, log)
	paymentHandler := handler.NewPaymentHandler(paymentService, log)
	workflowHandler := handler.NewWorkflowHandler(workflowService, log)
	approvalHandler := handler.NewApprovalHandler(approvalService, log)
	fileHandler := handler.NewFileHandler(fileService, log)
	exportHandler := handler.NewExportHandler(exportService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		authMiddleware,
		rateLimiter,
		userHandler,
		contractorHandler,
		projectHandler,
		materialPersonHandler,
		statusHandler,
		invoiceHandler,
		paymentHandler,
		workflowHandler,
		approvalHandler,
		fileHandler,
		exportHandler,
	)

	// Initialize and start scheduler for background jobs
	var scheduler *jobs.Scheduler
	if cfg.Jobs.PaymentSyncEnabled && accountingClient != nil {
		scheduler = jobs.NewScheduler(log)

		reconciliationService := service.NewReconciliationService(db, paymentRepo, accountingClient, log)

		// runStartupSync=true reconciles stale payments immediately on boot
		if err := jobs.RegisterPaymentSyncJob(
			scheduler,
			reconciliationService,
			log,
			cfg.Jobs.PaymentSyncSchedule,
			paymentSyncTimeout,
			true,
		); err != nil {
			log.Error("Failed to register payment sync job", zap.Error(err))
		} else {
			scheduler.Start()
			log.Info("Scheduler started with payment sync job",
				zap.String("cron_expr", cfg.Jobs.PaymentSyncSchedule),
				zap.Duration("timeout", paymentSyncTimeout),
			)
		}
	} else {
		log.Info("Payment reconciliation disabled",
			zap.Bool("sync_enabled", cfg.Jobs.PaymentSyncEnabled),
			zap.Bool("accounting_client_available", accountingClient != nil),
		)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		// Stop scheduler if running
		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		// Close accounting connection if initialized
		if accountingClient != nil {
			if err := accountingClient.Close(); err != nil {
				log.Warn("Error closing accounting connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
