package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Database configuration
	Database DatabaseConfig

	// Authentication configuration
	Auth AuthConfig

	// Permission cache configuration
	Cache CacheConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnTimeout  time.Duration
}

// AuthConfig holds token issuing configuration
type AuthConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
}

// CacheConfig holds permission cache configuration
type CacheConfig struct {
	// Backend is "memory" or "redis"
	Backend string
	Size    int
	TTL     time.Duration

	RedisURL      string
	RedisPassword string
	RedisDB       int
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       string
	LogFormat      string
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SLOVAR_HOST", "0.0.0.0"),
			Port:            getEnv("SLOVAR_PORT", "8080"),
			ReadTimeout:     getEnvDuration("SLOVAR_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("SLOVAR_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("SLOVAR_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SLOVAR_SHUTDOWN_TIMEOUT", 30*time.Second),
			HealthPort:      getEnv("SLOVAR_HEALTH_PORT", "9090"),
		},
		Database: DatabaseConfig{
			URL:          getEnv("SLOVAR_POSTGRES_URL", ""),
			MaxOpenConns: getEnvInt("SLOVAR_POSTGRES_MAX_CONNS", 25),
			MaxIdleConns: getEnvInt("SLOVAR_POSTGRES_IDLE_CONNS", 5),
			ConnTimeout:  getEnvDuration("SLOVAR_POSTGRES_TIMEOUT", 5*time.Second),
		},
		Auth: AuthConfig{
			TokenSecret: getEnv("SLOVAR_TOKEN_SECRET", ""),
			TokenTTL:    getEnvDuration("SLOVAR_TOKEN_TTL", 24*time.Hour),
		},
		Cache: CacheConfig{
			Backend:       getEnv("SLOVAR_CACHE_BACKEND", "memory"),
			Size:          getEnvInt("SLOVAR_CACHE_SIZE", 4096),
			TTL:           getEnvDuration("SLOVAR_CACHE_TTL", 5*time.Minute),
			RedisURL:      getEnv("SLOVAR_REDIS_URL", "localhost:6379"),
			RedisPassword: getEnv("SLOVAR_REDIS_PASSWORD", ""),
			RedisDB:       getEnvInt("SLOVAR_REDIS_DB", 0),
		},
		Observability: ObservabilityConfig{
			LogLevel:       getEnv("SLOVAR_LOG_LEVEL", "info"),
			LogFormat:      getEnv("SLOVAR_LOG_FORMAT", "json"),
			MetricsEnabled: getEnvBool("SLOVAR_METRICS_ENABLED", true),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Database.URL == "" {
		return fmt.Errorf("postgres URL is required")
	}

	if c.Auth.TokenSecret == "" {
		return fmt.Errorf("token secret is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token TTL must be positive")
	}

	switch c.Cache.Backend {
	case "memory":
		if c.Cache.Size <= 0 {
			return fmt.Errorf("cache size must be positive for memory cache")
		}
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("redis URL is required for redis cache")
		}
	default:
		return fmt.Errorf("invalid cache backend: %s (must be memory or redis)", c.Cache.Backend)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache TTL must be positive")
	}

	return nil
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
