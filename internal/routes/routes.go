package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/example/paisa/internal/config"
	"github.com/example/paisa/internal/handlers"
	"github.com/example/paisa/internal/middleware"
	"github.com/example/paisa/internal/services"
	"github.com/example/paisa/internal/session"
)

// Register wires up all HTTP routes.
func Register(app *fiber.App, db *gorm.DB, sessions *session.Store, cfg *config.Config) {
	aadhaarClient := services.NewAadhaarClient(cfg.AadhaarAPIURL)
	smsClient := services.NewSMSClient(cfg.SMSAPIURL, cfg.SMSAPIKey)
	geocodeClient := services.NewGeocodeClient(cfg.GeocodeAPIURL)
	verification := services.NewVerificationService(db, aadhaarClient, smsClient, cfg.IdentityCacheDir)

	authHandler := handlers.NewAuthHandler(db, cfg, sessions, smsClient)
	verificationHandler := handlers.NewVerificationHandler(verification)
	profileHandler := handlers.NewProfileHandler(db, geocodeClient, cfg.AvatarDir)
	categoryHandler := handlers.NewCategoryHandler(db)
	transactionHandler := handlers.NewTransactionHandler(db)
	budgetHandler := handlers.NewBudgetHandler(db)

	api := app.Group("/api")

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/resend-confirmation", authHandler.ResendConfirmation)

	// Protected routes
	protected := api.Group("", middleware.AuthMiddleware(cfg, sessions))

	protected.Get("/auth/session", authHandler.Session)
	protected.Post("/auth/logout", authHandler.Logout)

	verify := protected.Group("/verification")
	verify.Post("/aadhaar", verificationHandler.Lookup)
	verify.Post("/otp", verificationHandler.SendOTP)
	verify.Post("/otp/resend", verificationHandler.ResendOTP)
	verify.Post("/otp/confirm", verificationHandler.Confirm)

	protected.Get("/profile", profileHandler.GetProfile)
	protected.Put("/profile", profileHandler.UpdateProfile)
	protected.Post("/profile/location", profileHandler.SetLocation)
	protected.Post("/profile/avatar", profileHandler.UploadAvatar)
	protected.Get("/profile/avatar", profileHandler.DownloadAvatar)

	protected.Get("/categories", categoryHandler.ListCategories)

	protected.Post("/transactions", transactionHandler.CreateTransaction)
	protected.Get("/transactions", transactionHandler.ListTransactions)

	protected.Get("/budgets", budgetHandler.GetBudget)
	protected.Put("/budgets", budgetHandler.SaveBudget)
}
