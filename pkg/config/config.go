package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          string
	Env           string
	DatabaseURL   string
	JWTSecret     string
	CacheTTL      time.Duration
	UploadDir     string
	TemplatesGlob string
}

func Load() *Config {
	// Load environment variables from .env file before any are read.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:          getEnv("PORT", "8080"),
		Env:           getEnv("ENV", "development"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		JWTSecret:     getEnv("JWT_SECRET", "supersecretjwtkey"),
		CacheTTL:      getDurationEnv("CACHE_TTL", 20*time.Second),
		UploadDir:     getEnv("UPLOAD_DIR", "media"),
		TemplatesGlob: getEnv("TEMPLATES_GLOB", "web/templates/*.html"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
