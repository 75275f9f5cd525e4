package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends
const (
	SessionBackendMemory = "memory"
	SessionBackendFile   = "file"
	SessionBackendRedis  = "redis"
)

// Config holds all configuration for academy-console
type Config struct {
	Server    ServerConfig
	API       APIConfig
	Session   SessionConfig
	Database  DatabaseConfig
	Templates TemplatesConfig
	Cleanup   CleanupConfig
	Notices   NoticesConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	SecureCookies  bool
}

// APIConfig holds the academy REST API connection
type APIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// SessionConfig holds the session store configuration
type SessionConfig struct {
	Backend       string
	Dir           string
	RedisAddress  string
	RedisPassword string
	RedisDB       int
	TTL           time.Duration
	JWTSecret     string
}

// DatabaseConfig holds PostgreSQL configuration. An empty DSN keeps
// builder drafts in memory.
type DatabaseConfig struct {
	DSN           string
	MigrationsDir string
	MaxOpenConns  int
	MaxIdleConns  int
}

// TemplatesConfig holds template preset configuration
type TemplatesConfig struct {
	Dir string
}

// CleanupConfig holds cleanup worker configuration
type CleanupConfig struct {
	Interval time.Duration
	DraftTTL time.Duration
}

// NoticesConfig holds transient notice configuration
type NoticesConfig struct {
	TTL time.Duration
}

// Load loads configuration from environment variables, after reading an
// optional .env file (ENV_FILE overrides its path)
func Load() (*Config, error) {
	if err := loadDotEnv(getEnv("ENV_FILE", ".env")); err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
			SecureCookies:  getEnvAsBool("SECURE_COOKIES", false),
		},
		API: APIConfig{
			BaseURL: getEnv("ACADEMY_API_URL", "http://localhost:8081"),
			Timeout: getEnvAsDuration("ACADEMY_API_TIMEOUT", 30*time.Second),
		},
		Session: SessionConfig{
			Backend:       getEnv("SESSION_BACKEND", SessionBackendFile),
			Dir:           getEnv("SESSION_DIR", "./data/sessions"),
			RedisAddress:  getEnv("REDIS_ADDRESS", "localhost:6379"),
			RedisPassword: getEnv("REDIS_PASSWORD", ""),
			RedisDB:       getEnvAsInt("REDIS_DB", 0),
			TTL:           getEnvAsDuration("SESSION_TTL", 0),
			JWTSecret:     getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			DSN:           getEnv("DATABASE_DSN", ""),
			MigrationsDir: getEnv("MIGRATIONS_DIR", ""),
			MaxOpenConns:  getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:  getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
		},
		Templates: TemplatesConfig{
			Dir: getEnv("TEMPLATES_DIR", "./templates"),
		},
		Cleanup: CleanupConfig{
			Interval: getEnvAsDuration("CLEANUP_INTERVAL", 5*time.Minute),
			DraftTTL: getEnvAsDuration("DRAFT_TTL", 24*time.Hour),
		},
		Notices: NoticesConfig{
			TTL: getEnvAsDuration("NOTICE_TTL", 4*time.Second),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.API.BaseURL == "" {
		return fmt.Errorf("academy API URL is required")
	}

	switch c.Session.Backend {
	case SessionBackendMemory:
	case SessionBackendFile:
		if c.Session.Dir == "" {
			return fmt.Errorf("session dir is required for the file backend")
		}
	case SessionBackendRedis:
		if c.Session.RedisAddress == "" {
			return fmt.Errorf("redis address is required for the redis backend")
		}
	default:
		return fmt.Errorf("unknown session backend: %q", c.Session.Backend)
	}

	if c.Cleanup.DraftTTL <= 0 {
		return fmt.Errorf("draft TTL must be positive")
	}

	return nil
}

// loadDotEnv reads path into the environment when it exists.
// Variables already set take precedence.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	var result []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			result = append(result, item)
		}
	}
	if len(result) == 0 {
		return defaultValue
	}
	return result
}
