package router

import (
	"log"

	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/pulseboard/pulse/internal/cache"
	"github.com/pulseboard/pulse/internal/handlers"
	"github.com/pulseboard/pulse/internal/middleware"
	"github.com/pulseboard/pulse/internal/models"
	"github.com/pulseboard/pulse/internal/repositories"
	"github.com/pulseboard/pulse/internal/services"
	"github.com/pulseboard/pulse/internal/upload"
	"github.com/pulseboard/pulse/pkg/config"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo, cfg *config.Config) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	e.Use(middleware.SessionAuthMiddleware(cfg.JWTSecret))
	log.Println("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, db *gorm.DB, cfg *config.Config) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Post{},
		&models.Comment{},
		&models.Follow{},
	)
	if err != nil {
		log.Fatalf("Failed to auto migrate models: %v", err)
	}
	log.Println("PostgreSQL auto-migrations completed for all models.")

	// Health check - always accessible
	e.GET("/healthz", handlers.HealthCheck)

	// Uploaded images
	e.Static("/media", cfg.UploadDir)

	// --- Initialize repositories ---
	userRepo := repositories.NewPostgresUserRepository(db)
	groupRepo := repositories.NewPostgresGroupRepository(db)
	postRepo := repositories.NewPostgresPostRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)

	// --- Initialize services ---
	queryService := services.NewQueryService(postRepo, userRepo, groupRepo, commentRepo, followRepo)
	mutationService := services.NewMutationService(postRepo, userRepo, commentRepo, followRepo)

	imageStore, err := upload.NewImageStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	pageCache := cache.NewTTLCache(cfg.CacheTTL)

	// --- Auth routes ---
	authGroup := e.Group("/auth")
	authHandler := handlers.NewAuthHandler(userRepo, cfg.JWTSecret)
	authHandler.RegisterAuthRoutes(authGroup)
	log.Println("Auth routes configured.")

	// --- Public pages ---
	postHandler := handlers.NewPostHandler(queryService, mutationService, groupRepo, imageStore, pageCache, cfg.CacheTTL)
	postHandler.RegisterPublicRoutes(e.Group(""))
	log.Println("Public post routes configured.")

	// --- Protected pages (require a session) ---
	protected := e.Group("", middleware.RequireAuthMiddleware())
	postHandler.RegisterProtectedRoutes(protected)
	log.Println("Protected post routes configured.")

	followHandler := handlers.NewFollowHandler(queryService, mutationService, userRepo)
	followHandler.RegisterFollowRoutes(protected)
	log.Println("Follow routes configured.")

	log.Println("All routes configured.")
}
