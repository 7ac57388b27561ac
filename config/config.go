package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// HTTP server
	ListenAddr string

	// Storage
	DatabasePath string

	// Auth
	JWTSecret string

	// Email (SMTP) configuration
	SMTPHost     string
	SMTPPort     int
	SMTPUser     string
	SMTPPassword string

	// Price check cycle
	CheckInterval  time.Duration
	RequestTimeout time.Duration
	WorkerLimit    int

	// Product limits
	MaxProductsPerUser int

	// Rate-limit cooldown after a 429 from a site
	RateLimitBlock time.Duration

	// Memcache configuration (optional; in-memory cooldown cache when empty)
	MemcacheAddr string

	// Redis configuration (optional; alert event stream disabled when empty)
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Environment
	Environment string
}

const defaultJWTSecret = "change-this-in-production"

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	checkInterval, _ := strconv.Atoi(getEnv("PRICE_CHECK_INTERVAL_SECONDS", "3600"))
	requestTimeout, _ := strconv.Atoi(getEnv("REQUEST_TIMEOUT_SECONDS", "10"))
	workerLimit, _ := strconv.Atoi(getEnv("CHECK_WORKER_LIMIT", "4"))
	maxProducts, _ := strconv.Atoi(getEnv("MAX_PRODUCTS_PER_USER", "5"))
	rateLimitBlock, _ := strconv.Atoi(getEnv("RATE_LIMIT_BLOCK_SECONDS", "300"))
	smtpPort, _ := strconv.Atoi(getEnv("SMTP_PORT", "587"))
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	redisStreamMaxLength, _ := strconv.Atoi(getEnv("REDIS_STREAM_MAXLEN", "500"))

	return Config{
		ListenAddr:           getEnv("LISTEN_ADDR", ":5000"),
		DatabasePath:         getEnv("DATABASE_PATH", "pricetracker.db"),
		JWTSecret:            getEnv("JWT_SECRET", defaultJWTSecret),
		SMTPHost:             getEnv("SMTP_HOST", "smtp.gmail.com"),
		SMTPPort:             smtpPort,
		SMTPUser:             getEnv("SMTP_USER", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		CheckInterval:        time.Duration(checkInterval) * time.Second,
		RequestTimeout:       time.Duration(requestTimeout) * time.Second,
		WorkerLimit:          workerLimit,
		MaxProductsPerUser:   maxProducts,
		RateLimitBlock:       time.Duration(rateLimitBlock) * time.Second,
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", ""),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              redisDB,
		RedisStream:          getEnv("REDIS_STREAM", "price_alerts"),
		RedisStreamMaxLength: redisStreamMaxLength,
		Environment:          getEnv("PRICETRACKER_ENVIRONMENT", "development"),
	}
}

// Validate checks that the configuration is usable
func (c *Config) Validate() error {
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check interval must be positive, got %v", c.CheckInterval)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive, got %v", c.RequestTimeout)
	}
	if c.WorkerLimit <= 0 {
		return fmt.Errorf("worker limit must be positive, got %d", c.WorkerLimit)
	}
	if c.MaxProductsPerUser <= 0 {
		return fmt.Errorf("max products per user must be positive, got %d", c.MaxProductsPerUser)
	}
	if c.DatabasePath == "" {
		return fmt.Errorf("database path must not be empty")
	}
	if c.Environment == "production" {
		if c.JWTSecret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.SMTPUser == "" || c.SMTPPassword == "" {
			return fmt.Errorf("SMTP_USER and SMTP_PASSWORD must be set in production")
		}
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
