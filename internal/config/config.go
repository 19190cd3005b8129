package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL           string
	PortfolioAPIURL       string
	PortfolioClientID     string
	PortfolioClientSecret string
	PortfolioTokenURL     string
	HTTPAddr              string
	RabbitMQURL           string // empty disables completion events
	RetentionKeep         int
	RetentionSchedule     string
	LogLevel              string
	ShutdownTimeout       int // seconds
	HTTPTimeout           int // seconds
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	retentionKeep, err := intEnv("RETENTION_KEEP", 10)
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := intEnv("SHUTDOWN_TIMEOUT", 30)
	if err != nil {
		return nil, err
	}
	httpTimeout, err := intEnv("HTTP_TIMEOUT", 60)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DatabaseURL:           dbURL,
		PortfolioAPIURL:       os.Getenv("PORTFOLIO_API_URL"),
		PortfolioClientID:     os.Getenv("PORTFOLIO_CLIENT_ID"),
		PortfolioClientSecret: os.Getenv("PORTFOLIO_CLIENT_SECRET"),
		PortfolioTokenURL:     os.Getenv("PORTFOLIO_TOKEN_URL"),
		HTTPAddr:              stringEnv("HTTP_ADDR", ":8080"),
		RabbitMQURL:           os.Getenv("RABBITMQ_URL"),
		RetentionKeep:         retentionKeep,
		RetentionSchedule:     stringEnv("RETENTION_SCHEDULE", "@every 1h"),
		LogLevel:              stringEnv("LOG_LEVEL", "info"),
		ShutdownTimeout:       shutdownTimeout,
		HTTPTimeout:           httpTimeout,
	}
	return cfg, nil
}

// Warnings lists settings that leave part of the worker unable to run
func (c *Config) Warnings() []string {
	var warnings []string
	if c.PortfolioAPIURL == "" {
		warnings = append(warnings, "PORTFOLIO_API_URL not set, sync jobs will fail")
	}
	if c.PortfolioClientID == "" || c.PortfolioClientSecret == "" || c.PortfolioTokenURL == "" {
		warnings = append(warnings, "PORTFOLIO_CLIENT_ID, PORTFOLIO_CLIENT_SECRET or PORTFOLIO_TOKEN_URL not set, expired tokens cannot be refreshed")
	}
	if c.RabbitMQURL == "" {
		warnings = append(warnings, "RABBITMQ_URL not set, sync completion events are disabled")
	}
	return warnings
}

func stringEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}
