package main

import (
	"hoarding-service/internal/handler"
	"hoarding-service/internal/middleware"
	"hoarding-service/pkg/config"
	"hoarding-service/pkg/database"
	"hoarding-service/pkg/jwtutil"
	"hoarding-service/pkg/logger"
	"hoarding-service/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting hoarding service...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Initialize handler-level settings (upload directory, limits)
	handler.Initialize(cfg)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)
	e.GET("/public-search", handler.PublicSearch)
	e.Static("/uploads", cfg.Upload.Path)

	// Authentication routes - these don't belong under /api since they're for getting access to the API
	auth := e.Group("/auth")
	auth.POST("/login", handler.Login)
	auth.POST("/register", handler.Register)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// User management
	users := api.Group("/users")
	users.GET("/profile", handler.GetProfile)
	users.PATCH("/profile", handler.UpdateProfile)
	users.POST("/change-password", handler.ChangePassword)
	users.POST("/avatar", handler.UploadAvatar)
	users.GET("", handler.ListUsers)

	// Hoarding management
	hoardings := api.Group("/hoardings")
	hoardings.POST("", handler.CreateHoarding)
	hoardings.GET("", handler.ListHoardings)
	hoardings.GET("/analytics", handler.HoardingAnalytics)
	hoardings.GET("/:id", handler.GetHoarding)
	hoardings.PATCH("/:id", handler.UpdateHoarding)
	hoardings.DELETE("/:id", handler.DeleteHoarding)
	hoardings.POST("/:id/images", handler.UploadHoardingImages)
	hoardings.DELETE("/:id/images", handler.RemoveHoardingImage)

	// Photography assignments
	assignments := api.Group("/assignments")
	assignments.POST("", handler.CreateAssignment)
	assignments.GET("", handler.ListAssignments)
	assignments.GET("/:id", handler.GetAssignment)
	assignments.PATCH("/:id", handler.UpdateAssignment)
	assignments.PATCH("/:id/status", handler.UpdateAssignmentStatus)
	assignments.DELETE("/:id", handler.DeleteAssignment)

	// Rental contracts
	contracts := api.Group("/contracts")
	contracts.POST("", handler.CreateContract)
	contracts.GET("", handler.ListContracts)
	contracts.GET("/:id", handler.GetContract)
	contracts.PATCH("/:id", handler.UpdateContract)
	contracts.DELETE("/:id", handler.DeleteContract)

	// Invoices
	billings := api.Group("/billings")
	billings.POST("", handler.CreateBilling)
	billings.GET("", handler.ListBillings)
	billings.GET("/:id", handler.GetBilling)
	billings.PATCH("/:id", handler.UpdateBilling)
	billings.DELETE("/:id", handler.DeleteBilling)

	// Proof photos
	photos := api.Group("/photos")
	photos.POST("", handler.UploadPhoto)
	photos.GET("", handler.ListPhotos)
	photos.GET("/:id", handler.GetPhoto)
	photos.PATCH("/:id/status", handler.UpdatePhotoStatus)
	photos.DELETE("/:id", handler.DeletePhoto)

	// Cross-entity search
	api.GET("/search", handler.Search)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
