package main

import (
	"log"

	"github.com/labstack/echo/v4"
	"github.com/pulseboard/pulse/internal/handlers"
	"github.com/pulseboard/pulse/internal/router"
	"github.com/pulseboard/pulse/internal/validators"
	"github.com/pulseboard/pulse/pkg/config"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := config.InitDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.CloseDB() // Ensure database connection is closed when main exits

	// Create Echo instance
	e := echo.New()

	// Templates
	renderer, err := handlers.NewTemplateRenderer(cfg.TemplatesGlob)
	if err != nil {
		log.Fatalf("Failed to parse templates: %v", err)
	}
	e.Renderer = renderer

	// Setup global middleware
	router.SetupMiddleware(e, cfg)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, cfg)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
