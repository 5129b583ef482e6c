package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64

	// Remote model
	GeminiAPIKey      string
	GeminiModel       string
	GeminiMaxAttempts int

	// Image preprocessing
	MaxImageDimension int
	JPEGQuality       int
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// HasGeminiCredentials reports whether an API key was supplied. A missing key is
// not a startup failure; analyze calls report it instead.
func (c *Config) HasGeminiCredentials() bool {
	return strings.TrimSpace(c.GeminiAPIKey) != ""
}

// LoadFromEnv reads configuration from the process environment. Values from a
// .env file in the working directory are applied first when the file exists;
// variables already set in the environment win.
func LoadFromEnv() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8000"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 60*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 30*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 20*1024*1024), // 20MB
		GeminiAPIKey:       strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:        getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiMaxAttempts:  int(parseIntOrDefault("GEMINI_MAX_ATTEMPTS", 2)),
		MaxImageDimension:  int(parseIntOrDefault("MAX_IMAGE_DIMENSION", 1024)),
		JPEGQuality:        int(parseIntOrDefault("JPEG_QUALITY", 90)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges of every numeric setting.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s)",
			c.RequestTimeout, c.AnalysisTimeout)
	}
	if c.GeminiMaxAttempts < 1 {
		return fmt.Errorf("GEMINI_MAX_ATTEMPTS must be >= 1 (got %d)", c.GeminiMaxAttempts)
	}
	if c.MaxImageDimension < 1 {
		return fmt.Errorf("MAX_IMAGE_DIMENSION must be >= 1 (got %d)", c.MaxImageDimension)
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		return fmt.Errorf("JPEG_QUALITY must be within 1..100 (got %d)", c.JPEGQuality)
	}
	if strings.TrimSpace(c.GeminiModel) == "" {
		return fmt.Errorf("GEMINI_MODEL must not be empty")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
