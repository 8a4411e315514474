package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	// Load environment variables from .env files when present.
	_ "github.com/joho/godotenv/autoload"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Import        ImportConfig
	Retention     RetentionConfig
	Observability ObservabilityConfig
}

type ServerConfig struct {
	Host               string
	Port               int
	RateLimitPerSecond int
	RateLimitBurst     int
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

// ImportConfig bounds the statement-import pipeline.
type ImportConfig struct {
	MaxFileBytes      int64
	MaxLines          int
	HourlyImportLimit int
	FuzzyThreshold    float64
	// ArchiveDir keeps raw uploads on disk; empty disables archiving.
	ArchiveDir string
}

// RetentionConfig controls the learned-correction sweep. A zero
// CorrectionRetention disables eviction entirely.
type RetentionConfig struct {
	CorrectionRetention time.Duration
	SweepSchedule       string
}

type ObservabilityConfig struct {
	MetricsEnabled bool
	MetricsPort    int
	LogLevel       slog.Level
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:               getEnv("SERVER_HOST", "localhost"),
			Port:               getEnvAsInt("SERVER_PORT", 8080),
			RateLimitPerSecond: getEnvAsInt("SERVER_RATE_LIMIT_PER_SECOND", 100),
			RateLimitBurst:     getEnvAsInt("SERVER_RATE_LIMIT_BURST", 200),
		},
		Database: DatabaseConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvAsInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", "postgres"),
			Database: getEnv("POSTGRES_DB", "dinarly-dev"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Import: ImportConfig{
			MaxFileBytes:      getEnvAsInt64("IMPORT_MAX_FILE_BYTES", 5*1024*1024),
			MaxLines:          getEnvAsInt("IMPORT_MAX_LINES", 10000),
			HourlyImportLimit: getEnvAsInt("IMPORT_HOURLY_LIMIT", 10),
			FuzzyThreshold:    getEnvAsFloat("IMPORT_FUZZY_THRESHOLD", 0.85),
			ArchiveDir:        getEnv("IMPORT_ARCHIVE_DIR", ""),
		},
		Retention: RetentionConfig{
			CorrectionRetention: getEnvAsDuration("CORRECTION_RETENTION", 0),
			SweepSchedule:       getEnv("CORRECTION_SWEEP_SCHEDULE", "0 3 * * *"),
		},
		Observability: ObservabilityConfig{
			MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
			MetricsPort:    getEnvAsInt("METRICS_PORT", 9090),
			LogLevel:       getEnvAsLogLevel("LOG_LEVEL", slog.LevelInfo),
		},
	}

	if cfg.Import.FuzzyThreshold <= 0 || cfg.Import.FuzzyThreshold > 1 {
		return nil, fmt.Errorf("IMPORT_FUZZY_THRESHOLD must be in (0, 1], got %v", cfg.Import.FuzzyThreshold)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsLogLevel(key string, defaultValue slog.Level) slog.Level {
	valueStr := os.Getenv(key)
	var level slog.Level
	if err := level.UnmarshalText([]byte(valueStr)); err == nil {
		return level
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
