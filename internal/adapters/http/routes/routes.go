package routes

import (
	"lendhub/internal/adapters/http/handlers"
	"lendhub/internal/adapters/http/middleware"
	"lendhub/internal/adapters/persistence/repositories"
	"lendhub/internal/config"
	"lendhub/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// Setup configures all routes for the application and returns the sweep
// service so main can stop it on shutdown.
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) *services.SweepService {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	refreshTokenRepo := repositories.NewRefreshTokenRepository(db)
	sectionRepo := repositories.NewSectionRepository(db)
	productRepo := repositories.NewProductRepository(db)
	reservationRepo := repositories.NewReservationRepository(db)
	maintenanceRepo := repositories.NewMaintenanceRepository(db)
	creditRepo := repositories.NewCreditRepository(db)
	movementRepo := repositories.NewMovementRepository(db)

	// Initialize services
	creditService := services.NewCreditService(creditRepo)
	authService := services.NewAuthService(userRepo, refreshTokenRepo, creditService, cfg)
	userService := services.NewUserService(userRepo, creditService)
	catalogService := services.NewCatalogService(sectionRepo, productRepo)
	notifyService := services.NewNotifyService(cfg.Reservation.NotifyWebhookURL)
	reservationService := services.NewReservationService(
		db,
		reservationRepo,
		maintenanceRepo,
		productRepo,
		movementRepo,
		creditService,
		cfg.Reservation.RefundDeadlineHours,
	)
	maintenanceService := services.NewMaintenanceService(maintenanceRepo, productRepo, reservationService)
	dashboardService := services.NewDashboardService(db)
	sweepService := services.NewSweepService(maintenanceService, refreshTokenRepo)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, cfg)
	userHandler := handlers.NewUserHandler(userService, creditService)
	catalogHandler := handlers.NewCatalogHandler(catalogService)
	reservationHandler := handlers.NewReservationHandler(reservationService, notifyService, cfg)
	maintenanceHandler := handlers.NewMaintenanceHandler(maintenanceService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	// Auth routes (public)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, cfg)

	// User management routes (Admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.AuthMiddleware(cfg))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (Authenticated users)
	profileRoutes := apiV1.Group("/profile")
	profileRoutes.Use(middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	// Catalog routes (public reads, Admin writes)
	catalogRoutes := apiV1.Group("/catalog")
	setupCatalogRoutes(catalogRoutes, catalogHandler, cfg)

	// Reservation routes (Authenticated users)
	reservationRoutes := apiV1.Group("/reservations")
	reservationRoutes.Use(middleware.AuthMiddleware(cfg))
	setupReservationRoutes(reservationRoutes, reservationHandler)

	// Maintenance routes (Officer/Admin only)
	maintenanceRoutes := apiV1.Group("/maintenances")
	maintenanceRoutes.Use(middleware.AuthMiddleware(cfg))
	maintenanceRoutes.Use(middleware.OfficerOrAdmin())
	setupMaintenanceRoutes(maintenanceRoutes, maintenanceHandler)

	// Dashboard routes
	dashboardRoutes := apiV1.Group("/dashboard")
	dashboardRoutes.Use(middleware.AuthMiddleware(cfg))
	setupDashboardRoutes(dashboardRoutes, dashboardHandler)

	return sweepService
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/register", middleware.AuthRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Get("/sessions", middleware.AuthMiddleware(cfg), handler.Sessions)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupUserRoutes configures user management routes (Admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id", handler.UpdateUser)
	router.Delete("/:id", handler.DeleteUser)
	router.Post("/:id/credits/topup", handler.TopUpCredits)
	router.Post("/:id/credits/adjust", handler.AdjustCredits)
	router.Get("/:id/credits/history", handler.UserCreditHistory)
}

// setupProfileRoutes configures profile routes (Authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", middleware.StrictRateLimiter(), handler.ChangePassword)
	router.Get("/credits", handler.GetBalance)
	router.Get("/credits/history", handler.GetCreditHistory)
}

// setupCatalogRoutes configures section and product routes
func setupCatalogRoutes(router fiber.Router, handler *handlers.CatalogHandler, cfg *config.Config) {
	// Public reads, cacheable. OptionalAuth identifies the caller when a
	// token is present without requiring one.
	router.Use(middleware.OptionalAuth(cfg))
	router.Get("/sections", middleware.CatalogCache(), handler.ListSections)
	router.Get("/sections/:id", handler.GetSection)
	router.Get("/products", handler.ListProducts)
	router.Get("/products/:id", handler.GetProduct)

	// Admin writes
	adminRoutes := router.Group("")
	adminRoutes.Use(middleware.AuthMiddleware(cfg))
	adminRoutes.Use(middleware.AdminOnly())
	adminRoutes.Post("/sections", handler.CreateSection)
	adminRoutes.Put("/sections/:id", handler.UpdateSection)
	adminRoutes.Delete("/sections/:id", handler.DeleteSection)
	adminRoutes.Post("/products", handler.CreateProduct)
	adminRoutes.Put("/products/:id", handler.UpdateProduct)
	adminRoutes.Delete("/products/:id", handler.DeleteProduct)
}

// setupReservationRoutes configures reservation lifecycle routes
func setupReservationRoutes(router fiber.Router, handler *handlers.ReservationHandler) {
	// Member routes. Static paths register before "/:id" so they match first.
	router.Post("/", handler.Create)
	router.Get("/availability", handler.CheckAvailability)
	router.Get("/my", handler.MyReservations)
	router.Get("/overdue", middleware.OfficerOrAdmin(), handler.Overdue)
	router.Get("/reference/:reference", middleware.OfficerOrAdmin(), handler.GetByReference)
	router.Get("/product/:productId/movements", middleware.OfficerOrAdmin(), handler.ProductMovements)
	router.Get("/:id", handler.Get)
	router.Get("/:id/qr", handler.GetQRToken)
	router.Post("/:id/cancel", handler.Cancel)

	// Officer/Admin routes
	staffRoutes := router.Group("")
	staffRoutes.Use(middleware.OfficerOrAdmin())
	staffRoutes.Get("/", handler.List)
	staffRoutes.Post("/checkout", handler.CheckoutByToken)
	staffRoutes.Post("/:id/checkout", handler.Checkout)
	staffRoutes.Post("/:id/return", handler.Return)
	staffRoutes.Post("/:id/refund", handler.Refund)
	staffRoutes.Get("/:id/movements", handler.Movements)
}

// setupMaintenanceRoutes configures maintenance window routes (Officer/Admin)
func setupMaintenanceRoutes(router fiber.Router, handler *handlers.MaintenanceHandler) {
	router.Post("/preview", handler.Preview)
	router.Post("/", handler.Create)
	router.Get("/product/:productId", handler.ListByProduct)
	router.Get("/:id", handler.Get)
	router.Post("/:id/end", handler.End)
	router.Post("/:id/cancel", handler.CancelScheduled)
}

// setupDashboardRoutes configures dashboard routes
func setupDashboardRoutes(router fiber.Router, handler *handlers.DashboardHandler) {
	// User dashboard (All authenticated users)
	router.Get("/user", handler.UserDashboard)

	// Admin dashboard (Officer/Admin only)
	router.Get("/admin", middleware.OfficerOrAdmin(), handler.AdminDashboard)
}
