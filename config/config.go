package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Firebase FirebaseConfig
	Media    MediaConfig
	Auth     AuthConfig
	App      AppConfig
}

type ServerConfig struct {
	Port        string
	CORSOrigins []string
}

type DatabaseConfig struct {
	DSN string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type FirebaseConfig struct {
	CredentialsPath string
}

type MediaConfig struct {
	Bucket    string
	Region    string
	PublicURL string
}

// AuthConfig controls the side-channel session cookie minted for
// request-time authorization checks.
type AuthConfig struct {
	CookieName string
	CookieTTL  time.Duration
	Secure     bool
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        getEnv("PORT", "8080"),
			CORSOrigins: splitEnv("CORS_ORIGINS", "http://localhost:3000"),
		},
		Database: DatabaseConfig{
			DSN: getEnv("DB_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		Media: MediaConfig{
			Bucket:    getEnv("MEDIA_BUCKET", ""),
			Region:    getEnv("MEDIA_REGION", "us-east-1"),
			PublicURL: getEnv("MEDIA_PUBLIC_URL", ""),
		},
		Auth: AuthConfig{
			CookieName: getEnv("AUTH_COOKIE_NAME", "authToken"),
			CookieTTL:  time.Duration(getEnvAsInt("AUTH_COOKIE_TTL_MINUTES", 60)) * time.Minute,
			Secure:     getEnv("AUTH_COOKIE_SECURE", "true") == "true",
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.Database.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}

	if c.Auth.CookieTTL <= 0 {
		return fmt.Errorf("AUTH_COOKIE_TTL_MINUTES must be positive")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func splitEnv(key, defaultValue string) []string {
	raw := getEnv(key, defaultValue)
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			out = append(out, v)
		}
	}
	return out
}
