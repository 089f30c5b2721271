// Package config provides configuration management for the hackathon service.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the complete application configuration.
type Config struct {
	Server   ServerConfig
	Log      LogConfig
	Cache    CacheConfig
	Auth     AuthConfig
	Database DatabaseConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port           string
	RateLimit      int
	RateWindow     time.Duration
	RequestTimeout time.Duration
	CORSOrigins    []string
	SwaggerUser    string
	SwaggerPass    string

	// IdempotencyTTL is how long replayable write responses are kept. Zero disables replay.
	IdempotencyTTL     time.Duration
	IdempotencyMaxSize int
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string
	Pretty bool
}

// CacheConfig holds the page cache configuration.
type CacheConfig struct {
	DefaultTTL     time.Duration
	StaleTime      time.Duration
	GCInterval     time.Duration
	MaxSize        int
	MaxMemoryUsage int64
	// WarmUp lists hackathon statuses whose first list page is prefetched on startup.
	WarmUp []string
}

// AuthConfig holds authentication configuration.
type AuthConfig struct {
	Enabled      bool
	JWTSecretKey string
	TokenTTL     time.Duration
	// APIKeyHashes are bcrypt hashes of the admin API keys.
	APIKeyHashes []string
}

// DatabaseConfig holds MongoDB configuration.
type DatabaseConfig struct {
	URI          string
	DatabaseName string
	AuditTTL     time.Duration
	Enabled      bool
	// CircuitBreaker configuration
	CircuitBreakerFailureThreshold int
	CircuitBreakerSuccessThreshold int
	CircuitBreakerTimeout          time.Duration
}

// Load creates a Config from environment variables.
func Load() Config {
	return Config{
		Server: ServerConfig{
			Port:               getEnv("PORT", "8080"),
			RateLimit:          getEnvInt("RATE_LIMIT", 100),
			RateWindow:         getEnvDuration("RATE_WINDOW", time.Minute),
			RequestTimeout:     getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
			CORSOrigins:        parseCORSOrigins(os.Getenv("CORS_ORIGINS")),
			SwaggerUser:        getEnv("SWAGGER_USER", ""),
			SwaggerPass:        getEnv("SWAGGER_PASS", ""),
			IdempotencyTTL:     getEnvDuration("IDEMPOTENCY_TTL", 5*time.Minute),
			IdempotencyMaxSize: getEnvInt("IDEMPOTENCY_MAX_SIZE", 10000),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Pretty: getEnvBool("LOG_PRETTY", false),
		},
		Cache: CacheConfig{
			DefaultTTL:     getEnvDuration("CACHE_DEFAULT_TTL", 5*time.Minute),
			StaleTime:      getEnvDuration("CACHE_STALE_TIME", 30*time.Second),
			GCInterval:     getEnvDuration("CACHE_GC_INTERVAL", 10*time.Minute),
			MaxSize:        getEnvInt("CACHE_MAX_SIZE", 100),
			MaxMemoryUsage: getEnvInt64("CACHE_MAX_MEMORY", 50*1024*1024),
			WarmUp:         parseList(os.Getenv("CACHE_WARMUP")),
		},
		Auth: AuthConfig{
			Enabled:      getEnvBool("AUTH_ENABLED", false),
			JWTSecretKey: getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			TokenTTL:     getEnvDuration("JWT_TOKEN_TTL", 12*time.Hour),
			APIKeyHashes: parseList(os.Getenv("API_KEY_HASHES")),
		},
		Database: DatabaseConfig{
			URI:                            getEnv("MONGODB_URI", "mongodb://localhost:27017"),
			DatabaseName:                   getEnv("MONGODB_DATABASE", "hackathons"),
			AuditTTL:                       getEnvDuration("MONGODB_AUDIT_TTL", 30*24*time.Hour),
			Enabled:                        getEnvBool("MONGODB_ENABLED", false),
			CircuitBreakerFailureThreshold: getEnvInt("CIRCUIT_BREAKER_FAILURE_THRESHOLD", 5),
			CircuitBreakerSuccessThreshold: getEnvInt("CIRCUIT_BREAKER_SUCCESS_THRESHOLD", 2),
			CircuitBreakerTimeout:          getEnvDuration("CIRCUIT_BREAKER_TIMEOUT", 30*time.Second),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.ParseInt(v, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultValue
}

// parseList splits a comma separated value, dropping blanks.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if v := strings.TrimSpace(p); v != "" {
			result = append(result, v)
		}
	}
	return result
}

func parseCORSOrigins(s string) []string {
	// Default origins for the local frontend dev server
	defaults := []string{
		"http://localhost:3000",
		"http://127.0.0.1:3000",
	}
	return append(defaults, parseList(s)...)
}
