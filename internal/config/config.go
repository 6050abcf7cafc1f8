package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Leonardo generation API
	LeonardoAPIKey  string
	LeonardoBaseURL string
	LeonardoModelID string
	LeonardoTimeout time.Duration

	// Generation pipeline
	PollInterval          time.Duration
	MaxPollWait           time.Duration
	ResultDownloadRetries int
	MaxUploadBytes        int64

	// Supabase
	SupabaseURL           string
	SupabaseServiceKey    string
	SupabaseJWTSecret     string
	SupabaseStorageBucket string

	// Links
	SignedURLTTL time.Duration
	ShareTTL     time.Duration
	ShareBaseURL string

	// Database
	DatabaseURL string

	// Server
	Port        string
	Environment string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		LeonardoAPIKey:  getEnv("LEONARDO_API_KEY", ""),
		LeonardoBaseURL: getEnv("LEONARDO_API_BASE_URL", "https://cloud.leonardo.ai/api/rest/v1"),
		LeonardoModelID: getEnv("LEONARDO_MODEL_ID", "de7d3faf-762f-48e0-b3b7-9d0ac3a3fcf3"),
		LeonardoTimeout: getEnvDuration("LEONARDO_TIMEOUT", 30*time.Second),

		PollInterval:          getEnvDuration("POLL_INTERVAL", 3*time.Second),
		MaxPollWait:           getEnvDuration("MAX_POLL_WAIT", 5*time.Minute),
		ResultDownloadRetries: getEnvInt("RESULT_DOWNLOAD_RETRIES", 3),
		MaxUploadBytes:        int64(getEnvInt("MAX_UPLOAD_BYTES", 15<<20)),

		SupabaseURL:           getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey:    getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseJWTSecret:     getEnv("SUPABASE_JWT_SECRET", ""),
		SupabaseStorageBucket: getEnv("SUPABASE_STORAGE_BUCKET", "photobooth"),

		SignedURLTTL: getEnvDuration("SIGNED_URL_TTL", time.Hour),
		ShareTTL:     getEnvDuration("SHARE_TTL", 7*24*time.Hour),
		ShareBaseURL: getEnv("SHARE_BASE_URL", "http://localhost:3000/share"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		Port:        getEnv("PORT", "8080"),
		Environment: getEnv("ENVIRONMENT", "development"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.LeonardoAPIKey == "" {
		return fmt.Errorf("LEONARDO_API_KEY is required")
	}
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.SupabaseJWTSecret == "" {
		return fmt.Errorf("SUPABASE_JWT_SECRET is required")
	}
	if c.LeonardoTimeout <= 0 {
		return fmt.Errorf("LEONARDO_TIMEOUT must be positive")
	}
	if c.PollInterval <= 0 {
		return fmt.Errorf("POLL_INTERVAL must be positive")
	}
	if c.MaxPollWait < c.PollInterval {
		return fmt.Errorf("MAX_POLL_WAIT must be at least POLL_INTERVAL")
	}
	if c.ResultDownloadRetries < 1 {
		return fmt.Errorf("RESULT_DOWNLOAD_RETRIES must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
