package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	Port     string
	LogLevel string

	// Storage settings
	DatabaseDriver string // "sqlite" or "postgres"
	DatabasePath   string
	DatabaseURL    string
	MigrationsPath string // empty means the migrations embedded in the binary

	// Admin access
	JWTSecret         string
	AdminPasswordHash string
	AdminTokenExpiry  time.Duration

	// HTTP behaviour
	AllowedOrigins  []string
	RateLimitRPS    float64
	RateLimitBurst  int
	RequestTimeout  time.Duration
	MaxBodyBytes    int64
	StatsCacheTTL   time.Duration
	ShutdownTimeout time.Duration
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
func LoadConfig() {
	// 1. Try loading from the current directory
	errEnv := godotenv.Load()

	// 2. If not found, try the parent directory (common when running from a subfolder)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")
	Cfg = FromEnv()

	log.Printf("Configuration loaded: Port=%s, LogLevel=%s, Driver=%s, DBPath=%s, AdminAuth=%t",
		Cfg.Port, Cfg.LogLevel, Cfg.DatabaseDriver, Cfg.DatabasePath, Cfg.AdminAuthEnabled())
}

// FromEnv builds an AppConfig from the current process environment.
func FromEnv() *AppConfig {
	driver := strings.ToLower(getEnv("DATABASE_DRIVER", "sqlite"))
	if driver != "sqlite" && driver != "postgres" {
		log.Printf("WARNING: Unknown DATABASE_DRIVER '%s', using sqlite", driver)
		driver = "sqlite"
	}

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret != "" && len(jwtSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters.")
	}

	return &AppConfig{
		Port:     getEnv("PORT", "8080"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		DatabaseDriver: driver,
		DatabasePath:   getEnv("DATABASE_PATH", "./tradejournal.db"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		MigrationsPath: getEnv("MIGRATIONS_PATH", ""),

		JWTSecret:         jwtSecret,
		AdminPasswordHash: getEnv("ADMIN_PASSWORD_HASH", ""),
		AdminTokenExpiry:  getEnvAsDuration("ADMIN_TOKEN_EXPIRY", 12*time.Hour),

		AllowedOrigins:  getEnvAsList("ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5000"}),
		RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 30),
		RequestTimeout:  getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		MaxBodyBytes:    int64(getEnvAsInt("MAX_BODY_BYTES", 1<<20)),
		StatsCacheTTL:   getEnvAsDuration("STATS_CACHE_TTL", 5*time.Minute),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// AdminAuthEnabled reports whether admin routes require a bearer token.
func (c *AppConfig) AdminAuthEnabled() bool {
	return c.JWTSecret != ""
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsInt retrieves an environment variable as an integer or returns a fallback.
func getEnvAsInt(key string, fallback int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid integer value for %s ('%s'), using default: %d", key, valueStr, fallback)
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid float value for %s ('%s'), using default: %v", key, valueStr, fallback)
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsList parses a comma-separated variable, dropping empty items.
func getEnvAsList(key string, fallback []string) []string {
	valueStr := getEnv(key, "")
	if strings.TrimSpace(valueStr) == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
