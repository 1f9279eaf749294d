package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"easyshopas-backend/internal/adapters/http/handlers"
	"easyshopas-backend/internal/adapters/http/middleware"
	"easyshopas-backend/internal/adapters/persistence/repositories"
	"easyshopas-backend/internal/config"
	"easyshopas-backend/internal/core/domain"
	"easyshopas-backend/internal/core/services"
	"easyshopas-backend/internal/pkg/password"
	"easyshopas-backend/internal/pkg/token"
	"easyshopas-backend/internal/pkg/totp"
)

// Setup configures all routes for the application
func Setup(app *fiber.App, db *gorm.DB, cfg *config.Config) {
	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)

	// Initialize crypto primitives from explicit configuration
	tokens := token.NewService(cfg.Auth)
	totpEngine := totp.NewEngine(cfg.TOTP)
	hasher := password.NewHasher(cfg.Auth.BcryptCost)

	// Outbound mail: real SMTP in prod, log-only in dev
	var sender services.Sender
	if cfg.IsProd() {
		sender = services.NewSMTPSender(cfg.Mail)
	} else {
		sender = services.NewLogSender()
	}

	// Initialize services
	authService := services.NewAuthService(userRepo, tokens, totpEngine, hasher, cfg)
	userService := services.NewUserService(userRepo, hasher)
	twoFactorService := services.NewTwoFactorService(userRepo, totpEngine)
	mailService := services.NewMailService(sender, cfg.BaseURL)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(cfg)
	authHandler := handlers.NewAuthHandler(authService, mailService, cfg)
	userHandler := handlers.NewUserHandler(userService)
	twoFactorHandler := handlers.NewTwoFactorHandler(twoFactorService, mailService)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// API v1 group
	apiV1 := app.Group("/api/v1")

	// Auth routes (public)
	authRoutes := apiV1.Group("/auth")
	setupAuthRoutes(authRoutes, authHandler, authService)

	// Email verification redemption (public, token in query)
	apiV1.Get("/verification", authHandler.VerifyEmail)

	// Password reset request/confirm (public, strict rate limit)
	apiV1.Post("/users/reset-password", middleware.StrictRateLimiter(), authHandler.RequestPasswordReset)
	apiV1.Put("/users/reset-password", middleware.StrictRateLimiter(), authHandler.ConfirmPasswordReset)

	// User management routes (admin only)
	userRoutes := apiV1.Group("/users")
	userRoutes.Use(middleware.Protected(authService))
	userRoutes.Use(middleware.AdminOnly())
	setupUserRoutes(userRoutes, userHandler)

	// Profile routes (any authenticated role)
	profileRoutes := apiV1.Group("/profile")
	profileRoutes.Use(middleware.Protected(authService))
	profileRoutes.Use(middleware.RequireRoles(domain.RoleAdmin, domain.RoleVendor, domain.RoleUser))
	setupProfileRoutes(profileRoutes, userHandler)

	// Two-factor routes
	twoFactorRoutes := apiV1.Group("/2fa")
	twoFactorRoutes.Use(middleware.Protected(authService))
	setupTwoFactorRoutes(twoFactorRoutes, twoFactorHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, authService *services.AuthService) {
	// Public routes
	router.Post("/register", middleware.StrictRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.Refresh)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.Protected(authService), handler.Me)
}

// setupUserRoutes configures user management routes (admin only)
func setupUserRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.ListUsers)
	router.Get("/:id", handler.GetUser)
	router.Put("/:id/role", handler.SetRole)
}

// setupProfileRoutes configures profile routes (authenticated)
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Delete("/", handler.DeleteAccount)
	router.Put("/password", handler.ChangePassword)
}

// setupTwoFactorRoutes configures 2FA enrollment routes. Each operation
// declares its permitted-role set at the point of definition.
func setupTwoFactorRoutes(router fiber.Router, handler *handlers.TwoFactorHandler) {
	router.Post("/enable", middleware.RequireRoles(domain.RoleAdmin, domain.RoleUser), handler.Enable)
	router.Post("/disable", middleware.RequireRoles(domain.RoleAdmin, domain.RoleUser), handler.Disable)
	router.Post("/verify", middleware.RequireRoles(domain.RoleAdmin, domain.RoleUser, domain.RoleVendor), handler.VerifyCode)
	router.Get("/qr-code", middleware.RequireRoles(domain.RoleAdmin, domain.RoleUser, domain.RoleVendor), handler.QRCode)
	router.Post("/send-code", middleware.StrictRateLimiter(), middleware.RequireRoles(domain.RoleAdmin, domain.RoleUser, domain.RoleVendor), handler.SendCode)
}
