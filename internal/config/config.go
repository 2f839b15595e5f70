package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultCodeLength  = 6
	minCodeLength      = 4
	defaultMaxAttempts = 5
)

// Config holds the process-wide configuration. It is built once at startup
// and handed to each component; nothing reads it through a package variable.
type Config struct {
	ServerPort     string
	DatabaseDriver string
	DatabaseURL    string

	// BaseURL is the public short-url prefix with trailing slashes removed.
	BaseURL string

	ShortCodeLength      int
	ShortCodeMaxAttempts int

	RedisURL string
	CacheTTL time.Duration

	JWTSecret string
	JWTTTL    time.Duration

	ClickWorkerCount int
	ClickQueueSize   int
	ClickTimeout     time.Duration

	AllowedOrigins []string

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables.
// A .env file in the current directory is loaded first when present.
func Load() (*Config, error) {
	// Attempt to load .env file, but don't fail if it's not there (for production)
	_ = godotenv.Load()

	cfg := &Config{
		ServerPort:           getEnv("SERVER_PORT", ":8080"),
		DatabaseDriver:       getEnv("DATABASE_DRIVER", "postgres"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		BaseURL:              strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		ShortCodeLength:      getEnvInt("SHORT_CODE_LENGTH", defaultCodeLength),
		ShortCodeMaxAttempts: getEnvInt("SHORT_CODE_MAX_ATTEMPTS", defaultMaxAttempts),
		RedisURL:             getEnv("REDIS_URL", ""),
		CacheTTL:             time.Duration(getEnvInt("CACHE_TTL_SECONDS", 3600)) * time.Second,
		JWTSecret:            getEnv("JWT_SECRET", ""),
		JWTTTL:               time.Duration(getEnvInt("JWT_TTL_MINUTES", 60)) * time.Minute,
		ClickWorkerCount:     getEnvInt("CLICK_WORKER_COUNT", 2),
		ClickQueueSize:       getEnvInt("CLICK_QUEUE_SIZE", 1024),
		ClickTimeout:         time.Duration(getEnvInt("CLICK_TIMEOUT_SECONDS", 5)) * time.Second,
		AllowedOrigins:       splitList(getEnv("ALLOWED_ORIGINS", "")),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		LogFormat:            getEnv("LOG_FORMAT", "text"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first missing or out-of-range setting.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL environment variable is required")
	}
	if c.DatabaseDriver != "postgres" && c.DatabaseDriver != "sqlite3" {
		return fmt.Errorf("DATABASE_DRIVER must be postgres or sqlite3, got %q", c.DatabaseDriver)
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET environment variable is required")
	}
	if c.BaseURL == "" {
		return errors.New("BASE_URL must not be empty")
	}
	if c.ShortCodeLength < minCodeLength {
		return fmt.Errorf("SHORT_CODE_LENGTH must be at least %d, got %d", minCodeLength, c.ShortCodeLength)
	}
	if c.ShortCodeMaxAttempts < 1 {
		return fmt.Errorf("SHORT_CODE_MAX_ATTEMPTS must be at least 1, got %d", c.ShortCodeMaxAttempts)
	}
	if c.ClickWorkerCount < 1 {
		return fmt.Errorf("CLICK_WORKER_COUNT must be at least 1, got %d", c.ClickWorkerCount)
	}
	if c.ClickQueueSize < 1 {
		return fmt.Errorf("CLICK_QUEUE_SIZE must be at least 1, got %d", c.ClickQueueSize)
	}
	return nil
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt falls back on unset or unparsable values.
func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func splitList(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
