package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Session backends.
const (
	SessionBackendMemory   = "memory"
	SessionBackendRedis    = "redis"
	SessionBackendPostgres = "postgres"
)

// Config aggregates runtime configuration for the dashboard.
type Config struct {
	App       AppConfig
	ClinicAPI ClinicAPIConfig
	Session   SessionConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Logger    LoggerConfig
	RateLimit RateLimitConfig
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

// ClinicAPIConfig points the dashboard at the clinic REST API.
type ClinicAPIConfig struct {
	BaseURL        string
	RegisterPath   string
	RecordsPath    string
	TimeoutSeconds int
	// JWTSecret enables HS256 signature checks on issued tokens. Empty means claims
	// are decoded without verification.
	JWTSecret string
}

// SessionConfig defines where tokens live and how the session cookie behaves.
type SessionConfig struct {
	Backend              string
	CookieName           string
	CookieSecure         bool
	Secret               string
	FallbackTTLMinutes   int
	SweepIntervalSeconds int
	SnapshotSize         int
	SnapshotTTLMinutes   int
}

// PostgresConfig holds DB connection values.
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

// RateLimitConfig throttles login attempts per client.
type RateLimitConfig struct {
	LoginPerMinute int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	backend := strings.ToLower(getEnv("SESSION_BACKEND", SessionBackendMemory))
	switch backend {
	case SessionBackendMemory, SessionBackendRedis, SessionBackendPostgres:
	default:
		return nil, fmt.Errorf("invalid SESSION_BACKEND %q", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "petnice-dashboard"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		ClinicAPI: ClinicAPIConfig{
			BaseURL:        strings.TrimRight(getEnv("CLINIC_API_BASE_URL", "http://localhost:3000"), "/"),
			RegisterPath:   getEnv("CLINIC_API_REGISTER_PATH", "/api/auth/register"),
			RecordsPath:    getEnv("CLINIC_API_RECORDS_PATH", "/api/records"),
			TimeoutSeconds: getEnvAsInt("CLINIC_API_TIMEOUT_SECONDS", 30),
			JWTSecret:      os.Getenv("CLINIC_API_JWT_SECRET"),
		},
		Session: SessionConfig{
			Backend:              backend,
			CookieName:           getEnv("SESSION_COOKIE_NAME", "vet_session"),
			CookieSecure:         getEnvAsBool("SESSION_COOKIE_SECURE", false),
			Secret:               os.Getenv("SESSION_SECRET"),
			FallbackTTLMinutes:   getEnvAsInt("SESSION_FALLBACK_TTL_MINUTES", 60),
			SweepIntervalSeconds: getEnvAsInt("SESSION_SWEEP_INTERVAL_SECONDS", 300),
			SnapshotSize:         getEnvAsInt("SESSION_SNAPSHOT_SIZE", 1024),
			SnapshotTTLMinutes:   getEnvAsInt("SESSION_SNAPSHOT_TTL_MINUTES", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
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
		RateLimit: RateLimitConfig{
			LoginPerMinute: getEnvAsInt("LOGIN_RATE_LIMIT_PER_MINUTE", 10),
		},
	}

	if cfg.Session.Backend == SessionBackendPostgres && cfg.Postgres.DSN == "" {
		return nil, fmt.Errorf("SESSION_BACKEND=postgres requires POSTGRES_DSN")
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

// Timeout returns the per-call timeout for clinic API requests.
func (c ClinicAPIConfig) Timeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// FallbackTTL bounds storage of tokens whose expiry cannot be read.
func (s SessionConfig) FallbackTTL() time.Duration {
	if s.FallbackTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(s.FallbackTTLMinutes) * time.Minute
}

// SweepInterval is how often expired sessions are purged.
func (s SessionConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSeconds <= 0 {
		return 0
	}
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

// SnapshotTTL is how long a last-good list stays available after a failed fetch.
func (s SessionConfig) SnapshotTTL() time.Duration {
	if s.SnapshotTTLMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(s.SnapshotTTLMinutes) * time.Minute
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
