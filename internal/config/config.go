package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// User cache type constants
const (
	UserCacheTypeMemory = "memory"
	UserCacheTypeRedis  = "redis"
)

// Log output constants
const (
	LogOutputStdout = "stdout"
	LogOutputFile   = "file"
)

type Config struct {
	// Server settings
	ServerAddr   string
	BaseURL      string
	FrontendURL  string // Dashboard origin; OAuth callback redirects land here
	IsProduction bool

	// Session settings
	SessionSecret string
	SessionMaxAge int // seconds

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)
	DBInitTimeout  time.Duration

	// Strava OAuth
	StravaClientID     string
	StravaClientSecret string
	StravaRedirectURL  string
	StravaScopes       []string
	StravaAuthURL      string
	StravaTokenURL     string
	StravaAPIURL       string

	// Strava HTTP client
	StravaTimeout       time.Duration
	StravaMaxRetries    int
	StravaRetryDelay    time.Duration
	StravaMaxRetryDelay time.Duration

	// Token lifecycle
	TokenExpirySkew time.Duration // Refresh this long before the stored expiry

	// Sync
	SyncPageSize int
	SyncMaxPages int

	// Remote mirror of local edits
	MirrorBufferSize      int
	MirrorTimeout         time.Duration
	MirrorShutdownTimeout time.Duration

	// Logging
	LogLevel          string
	LogFormat         string // "json" or "text"
	LogOutput         string // "stdout" or "file"
	LogFilePath       string
	LogFileMaxSize    int // megabytes
	LogFileMaxBackups int
	LogFileMaxAge     int // days
	LogFileCompress   bool

	// Metrics
	MetricsEnabled bool
	MetricsToken   string

	// Rate limiting
	EnableRateLimit          bool
	RateLimitStore           string // "memory" or "redis"
	RateLimitCleanupInterval time.Duration
	LoginRateLimit           int // requests per minute
	SyncRateLimit            int // requests per minute

	// Redis
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	RedisConnTimeout time.Duration

	// User cache
	UserCacheType string // "memory" or "redis"
	UserCacheTTL  time.Duration

	// CORS
	CORSAllowedOrigins []string

	// Shutdown
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	// Determine database driver and DSN
	driver := getEnv("DATABASE_DRIVER", "sqlite")
	var dsn string
	if driver == "sqlite" {
		dsn = getEnv("DATABASE_DSN", getEnv("DATABASE_PATH", "fitdash.db"))
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	baseURL := getEnv("BASE_URL", "http://localhost:8080")
	frontendURL := getEnv("FRONTEND_URL", baseURL)

	return &Config{
		ServerAddr:   getEnv("SERVER_ADDR", ":8080"),
		BaseURL:      baseURL,
		FrontendURL:  frontendURL,
		IsProduction: getEnv("ENVIRONMENT", "development") == "production",

		SessionSecret: getEnv("SESSION_SECRET", "session-secret-change-in-production"),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 600), // only spans the connect round-trip

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,
		DBInitTimeout:  getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),

		// Strava OAuth
		StravaClientID:     getEnv("STRAVA_CLIENT_ID", ""),
		StravaClientSecret: getEnv("STRAVA_CLIENT_SECRET", ""),
		StravaRedirectURL: getEnv(
			"STRAVA_REDIRECT_URL",
			strings.TrimSuffix(baseURL, "/")+"/api/strava/callback",
		),
		StravaScopes: getEnvSlice(
			"STRAVA_SCOPES",
			[]string{"activity:read_all", "activity:write"},
		),
		StravaAuthURL:  getEnv("STRAVA_AUTH_URL", "https://www.strava.com/oauth/authorize"),
		StravaTokenURL: getEnv("STRAVA_TOKEN_URL", "https://www.strava.com/oauth/token"),
		StravaAPIURL:   getEnv("STRAVA_API_URL", "https://www.strava.com/api/v3"),

		StravaTimeout:       getEnvDuration("STRAVA_TIMEOUT", 10*time.Second),
		StravaMaxRetries:    getEnvInt("STRAVA_MAX_RETRIES", 2),
		StravaRetryDelay:    getEnvDuration("STRAVA_RETRY_DELAY", 1*time.Second),
		StravaMaxRetryDelay: getEnvDuration("STRAVA_MAX_RETRY_DELAY", 5*time.Second),

		TokenExpirySkew: getEnvDuration("STRAVA_TOKEN_EXPIRY_SKEW", 60*time.Second),

		SyncPageSize: getEnvInt("STRAVA_SYNC_PAGE_SIZE", 50),
		SyncMaxPages: getEnvInt("STRAVA_SYNC_MAX_PAGES", 10),

		MirrorBufferSize:      getEnvInt("MIRROR_BUFFER_SIZE", 256),
		MirrorTimeout:         getEnvDuration("MIRROR_TIMEOUT", 10*time.Second),
		MirrorShutdownTimeout: getEnvDuration("MIRROR_SHUTDOWN_TIMEOUT", 15*time.Second),

		// Logging
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
		LogOutput:         getEnv("LOG_OUTPUT", LogOutputStdout),
		LogFilePath:       getEnv("LOG_FILE_PATH", "logs/fitdash.log"),
		LogFileMaxSize:    getEnvInt("LOG_FILE_MAX_SIZE", 100),
		LogFileMaxBackups: getEnvInt("LOG_FILE_MAX_BACKUPS", 5),
		LogFileMaxAge:     getEnvInt("LOG_FILE_MAX_AGE", 30),
		LogFileCompress:   getEnvBool("LOG_FILE_COMPRESS", true),

		// Metrics
		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		// Rate limiting
		EnableRateLimit:          getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:           getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		RateLimitCleanupInterval: getEnvDuration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		LoginRateLimit:           getEnvInt("LOGIN_RATE_LIMIT", 30),
		SyncRateLimit:            getEnvInt("SYNC_RATE_LIMIT", 6),

		// Redis
		RedisAddr:        getEnv("REDIS_ADDR", ""),
		RedisPassword:    getEnv("REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		RedisConnTimeout: getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),

		// User cache
		UserCacheType: getEnv("USER_CACHE_TYPE", UserCacheTypeMemory),
		UserCacheTTL:  getEnvDuration("USER_CACHE_TTL", 5*time.Minute),

		CORSAllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", []string{frontendURL}),

		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// Validate checks the loaded configuration for values that cannot work at runtime.
func (c *Config) Validate() error {
	switch c.RateLimitStore {
	case RateLimitStoreMemory:
	case RateLimitStoreRedis:
		if c.EnableRateLimit && c.RedisAddr == "" {
			return fmt.Errorf("RATE_LIMIT_STORE=%q requires REDIS_ADDR", c.RateLimitStore)
		}
	default:
		return fmt.Errorf(
			"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
			c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
		)
	}

	switch c.UserCacheType {
	case UserCacheTypeMemory:
	case UserCacheTypeRedis:
		if c.RedisAddr == "" {
			return fmt.Errorf("USER_CACHE_TYPE=%q requires REDIS_ADDR", c.UserCacheType)
		}
	default:
		return fmt.Errorf(
			"invalid USER_CACHE_TYPE value: %q (must be %q or %q)",
			c.UserCacheType, UserCacheTypeMemory, UserCacheTypeRedis,
		)
	}

	if c.UserCacheTTL <= 0 {
		return errors.New("USER_CACHE_TTL must be a positive duration")
	}
	if c.SyncPageSize <= 0 || c.SyncPageSize > 200 {
		// Strava caps per_page at 200
		return fmt.Errorf("STRAVA_SYNC_PAGE_SIZE must be between 1 and 200, got %d", c.SyncPageSize)
	}
	if c.SyncMaxPages <= 0 {
		return fmt.Errorf("STRAVA_SYNC_MAX_PAGES must be positive, got %d", c.SyncMaxPages)
	}
	if c.TokenExpirySkew < 0 {
		return errors.New("STRAVA_TOKEN_EXPIRY_SKEW must not be negative")
	}
	if c.MirrorBufferSize <= 0 {
		return fmt.Errorf("MIRROR_BUFFER_SIZE must be positive, got %d", c.MirrorBufferSize)
	}
	if c.IsProduction && (c.StravaClientID == "" || c.StravaClientSecret == "") {
		return errors.New("STRAVA_CLIENT_ID and STRAVA_CLIENT_SECRET are required in production")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
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

func getEnvSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		if parts := splitAndTrim(value, ","); len(parts) > 0 {
			return parts
		}
	}
	return defaultValue
}

func splitAndTrim(s, sep string) []string {
	var out []string
	for _, part := range strings.Split(s, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
