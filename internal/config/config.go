package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	SessionBackendPostgres = "postgres"
	SessionBackendRedis    = "redis"

	DeletePolicyAny   = "any"
	DeletePolicyOwner = "owner"
)

type Config struct {
	// Server
	Port        string
	Environment string
	LogLevel    string

	// Database
	DatabaseURL string
	DBLogLevel  string

	// Sessions
	SessionSecret        string
	SessionTTL           time.Duration
	SessionCookieName    string
	SessionBackend       string
	SessionPurgeSchedule string

	// Redis (only when SessionBackend is "redis")
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Listings
	RequireAuth         bool
	ListingDeletePolicy string

	// Pages
	LoginRedirect string
	LoginPage     string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 getEnv("PORT", "8080"),
		Environment:          getEnv("ENVIRONMENT", "development"),
		LogLevel:             getEnv("LOG_LEVEL", "info"),
		DatabaseURL:          getEnv("DATABASE_URL", ""),
		DBLogLevel:           getEnv("DB_LOG_LEVEL", "warn"),
		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionTTL:           time.Duration(getEnvInt("SESSION_TTL_HOURS", 24)) * time.Hour,
		SessionCookieName:    getEnv("SESSION_COOKIE_NAME", "session"),
		SessionBackend:       strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendPostgres)),
		SessionPurgeSchedule: getEnv("SESSION_PURGE_SCHEDULE", "@every 1h"),
		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisPassword:        getEnv("REDIS_PASSWORD", ""),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RequireAuth:          getEnvBool("REQUIRE_AUTH", true),
		ListingDeletePolicy:  strings.ToLower(getEnv("LISTING_DELETE_POLICY", DeletePolicyAny)),
		LoginRedirect:        getEnv("LOGIN_REDIRECT", "/dashboard.html"),
		LoginPage:            getEnv("LOGIN_PAGE", "/login.html"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL environment variable is required")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET environment variable is required")
	}
	if c.SessionTTL <= 0 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive")
	}

	switch c.SessionBackend {
	case SessionBackendPostgres:
	case SessionBackendRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("REDIS_ADDR is required when SESSION_BACKEND=redis")
		}
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.SessionBackend)
	}

	switch c.ListingDeletePolicy {
	case DeletePolicyAny, DeletePolicyOwner:
	default:
		return fmt.Errorf("unknown LISTING_DELETE_POLICY %q", c.ListingDeletePolicy)
	}

	return nil
}

// IsLocal reports whether cookies may be sent over plain HTTP.
func (c *Config) IsLocal() bool {
	return c.Environment == "development" || c.Environment == "test"
}

// String renders the config for startup logs with secrets masked.
func (c *Config) String() string {
	var sb strings.Builder
	fields := []struct {
		name  string
		value string
	}{
		{"Port", c.Port},
		{"Environment", c.Environment},
		{"LogLevel", c.LogLevel},
		{"DatabaseURL", maskValue(c.DatabaseURL)},
		{"DBLogLevel", c.DBLogLevel},
		{"SessionSecret", maskValue(c.SessionSecret)},
		{"SessionTTL", c.SessionTTL.String()},
		{"SessionCookieName", c.SessionCookieName},
		{"SessionBackend", c.SessionBackend},
		{"SessionPurgeSchedule", c.SessionPurgeSchedule},
		{"RedisAddr", c.RedisAddr},
		{"RedisPassword", maskValue(c.RedisPassword)},
		{"RequireAuth", strconv.FormatBool(c.RequireAuth)},
		{"ListingDeletePolicy", c.ListingDeletePolicy},
	}
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(f.name)
		sb.WriteString("=")
		sb.WriteString(f.value)
	}
	return sb.String()
}

func maskValue(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 3 {
		return strings.Repeat("*", 7)
	}
	return value[:3] + strings.Repeat("*", 7)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}
