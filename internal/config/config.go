package config

import (
	"fmt"
	"os"
	"time"

	"blog-api/pkg/database"
	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv         string
	AppName        string
	Port           string
	Debug          bool
	AllowedOrigins string

	Database database.Config
	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	PermissionCacheTTL time.Duration

	UploadFolder string
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		AppName:        getEnv("APP_NAME", "blog-api"),
		Port:           getEnv("PORT", "8080"),
		Debug:          getEnv("APP_DEBUG", "false") == "true",
		AllowedOrigins: getEnv("ALLOWED_ORIGINS", "http://localhost:3000"),

		Database: database.Config{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASS"),
			Name:     getEnv("DB_NAME", "blog_api"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		RedisURL: getEnv("REDIS_URL", "redis://localhost:6379/0"),

		JWTSecret: getEnv("JWT_SECRET", "change-me"),

		UploadFolder: getEnv("UPLOAD_FOLDER", "blog_api"),
	}

	var err error
	cfg.JWTTTL, err = time.ParseDuration(getEnv("JWT_TTL", "24h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL: %w", err)
	}
	cfg.PermissionCacheTTL, err = time.ParseDuration(getEnv("PERMISSION_CACHE_TTL", "5m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PERMISSION_CACHE_TTL: %w", err)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
