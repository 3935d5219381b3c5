package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Backend  BackendConfig
	Session  SessionConfig
	Gate     GateConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values for the session audit log.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// BackendConfig points at the REST backend that owns all business state.
type BackendConfig struct {
	BaseURL        string
	TimeoutSeconds int
}

// Session store kinds.
const (
	SessionStoreRedis  = "redis"
	SessionStoreMemory = "memory"
)

// SessionConfig controls where session records live and how the cookie looks.
type SessionConfig struct {
	Store               string
	CookieName          string
	CookieSecure        bool
	CookieMaxAgeSeconds int
	KeyPrefix           string
	IdleTTLMinutes      int
	PageCacheTTLSeconds int
	PageCachePrefix     string
}

// GateConfig tunes token validation inside the session gate.
type GateConfig struct {
	ValidationTimeoutSeconds int
	ClockSkewSeconds         int
}

// Load reads configuration from the given env files (".env" when none) and the environment,
// applying defaults where possible.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFiles...); err != nil {
		return nil, fmt.Errorf("load env files: %w", err)
	}

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	store := strings.ToLower(getEnv("SESSION_STORE", SessionStoreRedis))
	if store != SessionStoreRedis && store != SessionStoreMemory {
		return nil, fmt.Errorf("invalid SESSION_STORE %q: want %s or %s", store, SessionStoreRedis, SessionStoreMemory)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "ticket-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "3000"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 5)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_BASE_URL", "http://127.0.0.1:8080"), "/"),
			TimeoutSeconds: getEnvAsInt("BACKEND_TIMEOUT_SECONDS", 15),
		},
		Session: SessionConfig{
			Store:               store,
			CookieName:          getEnv("SESSION_COOKIE_NAME", "user-token"),
			CookieSecure:        getEnvAsBool("SESSION_COOKIE_SECURE", false),
			CookieMaxAgeSeconds: getEnvAsInt("SESSION_COOKIE_MAX_AGE_SECONDS", 60*60*24),
			KeyPrefix:           getEnv("SESSION_KEY_PREFIX", "portal:session:"),
			IdleTTLMinutes:      getEnvAsInt("SESSION_IDLE_TTL_MINUTES", 0),
			PageCacheTTLSeconds: getEnvAsInt("PAGE_CACHE_TTL_SECONDS", 300),
			PageCachePrefix:     getEnv("PAGE_CACHE_KEY_PREFIX", "portal:pages:"),
		},
		Gate: GateConfig{
			ValidationTimeoutSeconds: getEnvAsInt("GATE_VALIDATION_TIMEOUT_SECONDS", 5),
			ClockSkewSeconds:         getEnvAsInt("GATE_CLOCK_SKEW_SECONDS", 30),
		},
	}

	if cfg.Backend.BaseURL == "" {
		return nil, fmt.Errorf("BACKEND_BASE_URL must not be empty")
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Timeout returns the per-call backend timeout.
func (b BackendConfig) Timeout() time.Duration {
	if b.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(b.TimeoutSeconds) * time.Second
}

// IdleTTL returns the server-side session expiry; zero means none.
func (s SessionConfig) IdleTTL() time.Duration {
	if s.IdleTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(s.IdleTTLMinutes) * time.Minute
}

// PageCacheTTL returns how long page data stays cached; zero disables caching.
func (s SessionConfig) PageCacheTTL() time.Duration {
	if s.PageCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(s.PageCacheTTLSeconds) * time.Second
}

// ValidationTimeout bounds the validate-token call.
func (g GateConfig) ValidationTimeout() time.Duration {
	if g.ValidationTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.ValidationTimeoutSeconds) * time.Second
}

// ClockSkew is tolerated when reading a token's own expiry.
func (g GateConfig) ClockSkew() time.Duration {
	if g.ClockSkewSeconds < 0 {
		return 0
	}
	return time.Duration(g.ClockSkewSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
