package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	DatabasePath string
	LogLevel     string

	// Import limits
	MaxImportSizeBytes int64

	// Database transaction budgets for the import pipeline.
	// TxMaxWait bounds how long we wait to begin a transaction,
	// TxTimeout bounds the whole transaction once started.
	TxMaxWait time.Duration
	TxTimeout time.Duration

	// External instrument metadata lookup (ISIN -> type)
	MetadataBaseURL      string
	MetadataBatchSize    int
	MetadataRateLimit    int // requests per window
	MetadataRateWindow   time.Duration
	MetadataTimeout      time.Duration
	MetadataMaxRetries   int
	MetadataCooldown429  time.Duration
	MetadataCacheExpiry  time.Duration
	MetadataCacheCleanup time.Duration
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the application.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory (common when running from /backend)
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found in current or parent directory. Relying on OS environment variables (expected in production).")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	log.Println("Loading application configuration...")

	maxImportSizeBytesStr := getEnv("MAX_IMPORT_SIZE_BYTES", "10485760") // 10MB default
	maxImportSizeBytes, err := strconv.ParseInt(maxImportSizeBytesStr, 10, 64)
	if err != nil {
		log.Printf("WARNING: Invalid MAX_IMPORT_SIZE_BYTES format '%s'. Using default 10MB. Error: %v", maxImportSizeBytesStr, err)
		maxImportSizeBytes = 10 * 1024 * 1024
	}

	Cfg = &AppConfig{
		// Core
		DatabasePath: getEnv("DATABASE_PATH", "./cartera.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),

		// Import
		MaxImportSizeBytes: maxImportSizeBytes,
		TxMaxWait:          getEnvAsDuration("TX_MAX_WAIT", 5*time.Second),
		TxTimeout:          getEnvAsDuration("TX_TIMEOUT", 30*time.Second),

		// Metadata lookup
		MetadataBaseURL:      getEnv("METADATA_BASE_URL", "https://api.openfigi.example/v1"),
		MetadataBatchSize:    getEnvAsInt("METADATA_BATCH_SIZE", 25),
		MetadataRateLimit:    getEnvAsInt("METADATA_RATE_LIMIT", 10),
		MetadataRateWindow:   getEnvAsDuration("METADATA_RATE_WINDOW", time.Minute),
		MetadataTimeout:      getEnvAsDuration("METADATA_TIMEOUT", 15*time.Second),
		MetadataMaxRetries:   getEnvAsInt("METADATA_MAX_RETRIES", 3),
		MetadataCooldown429:  getEnvAsDuration("METADATA_COOLDOWN_429", 30*time.Second),
		MetadataCacheExpiry:  getEnvAsDuration("METADATA_CACHE_EXPIRY", 12*time.Hour),
		MetadataCacheCleanup: getEnvAsDuration("METADATA_CACHE_CLEANUP", time.Hour),
	}

	log.Printf("Configuration loaded: LogLevel=%s, DBPath=%s, MetadataURL=%s",
		Cfg.LogLevel, Cfg.DatabasePath, Cfg.MetadataBaseURL)
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
