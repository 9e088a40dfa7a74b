package main

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberLogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"

	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/sefazor/proparse-backend/internal/config"
	"github.com/sefazor/proparse-backend/internal/handler"
	"github.com/sefazor/proparse-backend/internal/middleware"
	"github.com/sefazor/proparse-backend/internal/repository"
	"github.com/sefazor/proparse-backend/internal/service"
	"github.com/sefazor/proparse-backend/pkg/database"
	"github.com/sefazor/proparse-backend/pkg/email"
	"github.com/sefazor/proparse-backend/pkg/extraction"
	"github.com/sefazor/proparse-backend/pkg/logger"
	"github.com/sefazor/proparse-backend/pkg/payment"
	"github.com/sefazor/proparse-backend/pkg/storage"
	"github.com/sefazor/proparse-backend/pkg/utils"
)

func main() {
	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Config'i yükle
	cfg := config.LoadConfig()

	zapLogger := logger.NewLogger()
	defer zapLogger.Sync()

	// Initialize database
	db := database.NewDatabase()

	// Run migrations (tablolar + deduct_credits fonksiyonu + paket seed)
	if err := database.RunMigrations(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Repositories
	userRepo := repository.NewUserRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	creditRepo := repository.NewCreditRepository(db)
	docRepo := repository.NewDocumentRepository(db)
	usageRepo := repository.NewUsageLogRepository(db)
	packageRepo := repository.NewCreditPackageRepository(db)
	purchaseRepo := repository.NewUserCreditPurchaseRepository(db)
	trainingRepo := repository.NewTrainingRepository(db)

	// Storage service (Cloudflare R2)
	r2Storage, err := storage.NewCloudflareStorage(cfg)
	if err != nil {
		log.Fatal("Failed to initialize R2 storage:", err)
	}

	// Email service
	emailService := email.NewEmailService()

	// AI extraction client
	extractionClient := extraction.NewClient(cfg)

	// Services
	creditService := service.NewCreditService(userRepo, groupRepo, creditRepo, emailService, zapLogger)
	authService := service.NewAuthService(userRepo, emailService)
	userService := service.NewUserService(userRepo, usageRepo, creditRepo, groupRepo)
	documentService := service.NewDocumentService(docRepo, usageRepo, userRepo, r2Storage, extractionClient, creditService, zapLogger)
	exportService := service.NewExportService()
	groupService := service.NewGroupService(groupRepo, userRepo, creditRepo, emailService)
	trainingService := service.NewTrainingService(trainingRepo, r2Storage, extractionClient, cfg.FineTuneThreshold, zapLogger)
	adminService := service.NewAdminService(userRepo, groupRepo, creditRepo, docRepo, usageRepo, purchaseRepo, zapLogger)

	// Stripe service
	stripeService := payment.NewStripeService(os.Getenv("STRIPE_SECRET_KEY"))
	paymentService := service.NewPaymentService(stripeService, userRepo, groupRepo, packageRepo, purchaseRepo, creditRepo)

	// Validator'ı önce tanımla
	validator := utils.NewValidator()

	// Handlers
	authHandler := handler.NewAuthHandler(authService, validator)
	userHandler := handler.NewUserHandler(userService)
	documentHandler := handler.NewDocumentHandler(documentService, exportService, validator)
	groupHandler := handler.NewGroupHandler(groupService, userService, validator)
	paymentHandler := handler.NewPaymentHandler(paymentService, zapLogger)
	adminHandler := handler.NewAdminHandler(adminService, validator)
	trainingHandler := handler.NewTrainingHandler(trainingService)

	// Router
	app := fiber.New()

	// Global Middleware'ler önce tanımlanmalı
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("CORS_ALLOW_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE",
		AllowCredentials: true,
	}))
	app.Use(fiberLogger.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
	}))

	api := app.Group("/api")

	// Public routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Stripe webhook (public)
	api.Post("/payments/webhook", paymentHandler.HandleStripeWebhook)

	// Public routes (auth middleware'den ÖNCE olmalı)
	api.Get("/payments/packages", paymentHandler.GetCreditPackages)

	// Protected routes
	api.Use(middleware.AuthMiddleware())
	{
		user := api.Group("/user")
		user.Get("/profile", userHandler.GetMyProfile)
		user.Put("/profile", userHandler.UpdateProfile)
		user.Post("/change-password", userHandler.ChangePassword)
		user.Get("/credits", userHandler.GetCreditBalance)
		user.Get("/credits/transactions", userHandler.GetCreditTransactions)
		user.Get("/usage", userHandler.GetUsageHistory)
		user.Get("/group", groupHandler.GetMyGroup)

		// Document pipeline
		documents := api.Group("/documents")
		documents.Post("/upload", documentHandler.Upload)
		documents.Post("/classify", documentHandler.Classify)
		documents.Post("/extract", documentHandler.Extract)
		documents.Get("/", documentHandler.GetDocuments)
		documents.Get("/:id", documentHandler.GetDocument)
		documents.Get("/:id/export", documentHandler.Export)
		documents.Delete("/:id", documentHandler.DeleteDocument)

		// Payment routes (protected)
		payments := api.Group("/payments")
		payments.Get("/history", paymentHandler.GetPurchaseHistory)
		payments.Post("/checkout/:packageId", paymentHandler.CreateCheckoutSession)

		// Admin console
		admin := api.Group("/admin", middleware.AdminMiddleware())
		admin.Get("/stats", adminHandler.GetStats)
		admin.Get("/users", adminHandler.ListUsers)
		admin.Get("/users/:id", adminHandler.GetUserDetail)
		admin.Put("/users/:id", adminHandler.UpdateUser)
		admin.Post("/users/:id/credits", adminHandler.GrantCredits)
		admin.Get("/payments", adminHandler.ListPayments)
		admin.Get("/usage-logs", adminHandler.ListUsageLogs)

		// Group management (admin)
		admin.Post("/groups", groupHandler.CreateGroup)
		admin.Get("/groups", groupHandler.ListGroups)
		admin.Get("/groups/:id", groupHandler.GetGroup)
		admin.Delete("/groups/:id", groupHandler.DeleteGroup)
		admin.Put("/groups/:id/status", groupHandler.SetActive)
		admin.Post("/groups/:id/credits", groupHandler.AddCredits)
		admin.Post("/groups/:id/members", groupHandler.AddMember)
		admin.Delete("/groups/:id/members/:userId", groupHandler.RemoveMember)
		admin.Post("/groups/:id/transfer-ownership", groupHandler.TransferOwnership)

		// Training data curation (admin)
		admin.Post("/training/batches", trainingHandler.UploadBatch)
		admin.Get("/training/batches/:batchId", trainingHandler.GetBatch)
		admin.Get("/training/documents", trainingHandler.ListDocuments)
		admin.Get("/training/documents/:id", trainingHandler.GetDocument)
		admin.Post("/training/documents/:id/verify", trainingHandler.Verify)
		admin.Post("/training/documents/:id/reject", trainingHandler.Reject)
		admin.Post("/training/export/:documentType", trainingHandler.ExportJSONL)
		admin.Get("/training/jobs", trainingHandler.ListFineTuneJobs)
	}

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Fatal(app.Listen(":" + port))
}
