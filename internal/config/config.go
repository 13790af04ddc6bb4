package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the full runtime configuration tree.
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Auth        AuthConfig
	RateLimit   RateLimitConfig
	Cors        CORSConfig
	Security    SecurityConfig
	Monitoring  MonitoringConfig
	Diagnostics DiagnosticsConfig
	Uploads     UploadConfig
	Dues        DuesConfig
	Scheduler   SchedulerConfig
}

// AppConfig captures application-level settings.
type AppConfig struct {
	Name     string
	Env      string
	Version  string
	Port     string
	BaseURL  string
	LogLevel string
}

// DatabaseConfig stores database connectivity info.
type DatabaseConfig struct {
	Driver          string
	DSN             string
	ReadOnlyDSN     string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	AutoMigrate     bool
}

// RedisConfig stores redis connectivity info.
type RedisConfig struct {
	Addr     string
	Username string
	Password string
	DB       int
	TLS      bool
}

// AuthConfig stores JWT settings.
type AuthConfig struct {
	AccessSecret    string
	RefreshSecret   string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	TokenIssuer     string
	SecretVersion   string
}

// RateLimitConfig manages throttling parameters.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerMinute int
	Burst             int
	Window            time.Duration
	RedisPrefix       string
}

// CORSConfig declares cross-origin policy.
type CORSConfig struct {
	AllowedOrigins   []string
	AllowedMethods   []string
	AllowedHeaders   []string
	AllowCredentials bool
	MaxAge           time.Duration
}

// SecurityConfig covers app hardening toggles.
type SecurityConfig struct {
	AllowRegistration bool
	BcryptCost        int
	// AdminUsername/AdminPassword bootstrap the first admin account when set.
	AdminUsername string
	AdminPassword string
}

// MonitoringConfig adds observability tunables.
type MonitoringConfig struct {
	PrometheusEnabled bool
	SentryDSN         string
	SentrySampleRate  float64
}

// DiagnosticsConfig governs debug helpers.
type DiagnosticsConfig struct {
	EnableDebugLogs bool
	MaxLogLines     int
}

// UploadConfig controls member photo storage.
type UploadConfig struct {
	Dir          string
	MaxBytes     int64
	AllowedTypes []string
}

// DuesConfig holds the monthly dues defaults and report cache tuning.
type DuesConfig struct {
	DefaultAmount  int64
	ReportCacheTTL time.Duration
}

// SchedulerConfig drives background jobs.
type SchedulerConfig struct {
	Enabled     bool
	DuesSpec    string
	SeedOnStart bool
}

// Load reads from environment (optionally .env) and builds Config.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		App: AppConfig{
			Name:     getenv("APP_NAME", "asso-api"),
			Env:      getenv("APP_ENV", "development"),
			Version:  getenv("APP_VERSION", "0.1.0"),
			Port:     getenv("PORT", "8080"),
			BaseURL:  getenv("BASE_URL", "http://localhost:8080"),
			LogLevel: getenv("LOG_LEVEL", "info"),
		},
		Database: DatabaseConfig{
			Driver:          strings.ToLower(getenv("DB_DRIVER", "mysql")),
			DSN:             getenv("DB_DSN", "asso:asso@tcp(db:3306)/asso?parseTime=true&multiStatements=true"),
			ReadOnlyDSN:     getenv("DB_READ_DSN", ""),
			MaxOpenConns:    getInt("DB_MAX_OPEN", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE", 10),
			ConnMaxLifetime: time.Duration(getInt("DB_CONN_MAX_LIFETIME_MIN", 30)) * time.Minute,
			AutoMigrate:     getBool("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Addr:     getenv("REDIS_ADDR", ""),
			Username: getenv("REDIS_USER", ""),
			Password: getenv("REDIS_PASSWORD", ""),
			DB:       getInt("REDIS_DB", 0),
			TLS:      getBool("REDIS_TLS", false),
		},
		Auth: AuthConfig{
			AccessSecret:    getenv("JWT_ACCESS_SECRET", getenv("JWT_SECRET", "change-me")),
			RefreshSecret:   getenv("JWT_REFRESH_SECRET", getenv("JWT_SECRET", "change-me")),
			AccessTokenTTL:  time.Duration(getInt("JWT_ACCESS_EXP_MIN", 60)) * time.Minute,
			RefreshTokenTTL: time.Duration(getInt("JWT_REFRESH_EXP_HOURS", 72)) * time.Hour,
			TokenIssuer:     getenv("JWT_ISSUER", "asso-api"),
			SecretVersion:   getenv("JWT_SECRET_VERSION", "v1"),
		},
		RateLimit: RateLimitConfig{
			Enabled:           getBool("RATE_LIMIT_ENABLED", true),
			RequestsPerMinute: getInt("RATE_LIMIT_PER_MIN", 120),
			Burst:             getInt("RATE_LIMIT_BURST", 10),
			Window:            time.Duration(getInt("RATE_LIMIT_WINDOW_SEC", 60)) * time.Second,
			RedisPrefix:       getenv("RATE_LIMIT_PREFIX", "ratelimit"),
		},
		Cors: CORSConfig{
			AllowedOrigins:   splitAndTrim(getenv("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")),
			AllowedMethods:   splitAndTrim(getenv("CORS_METHODS", "GET,POST,PUT,DELETE,OPTIONS")),
			AllowedHeaders:   splitAndTrim(getenv("CORS_HEADERS", "Authorization,Content-Type,Accept,X-Requested-With")),
			AllowCredentials: getBool("CORS_ALLOW_CREDENTIALS", true),
			MaxAge:           time.Duration(getInt("CORS_MAX_AGE_SEC", 600)) * time.Second,
		},
		Security: SecurityConfig{
			AllowRegistration: getBool("ALLOW_REGISTRATION", true),
			BcryptCost:        getInt("BCRYPT_COST", 10),
			AdminUsername:     getenv("ADMIN_USERNAME", ""),
			AdminPassword:     getenv("ADMIN_PASSWORD", ""),
		},
		Monitoring: MonitoringConfig{
			PrometheusEnabled: getBool("PROMETHEUS_ENABLED", true),
			SentryDSN:         getenv("SENTRY_DSN", ""),
			SentrySampleRate:  getFloat("SENTRY_SAMPLE_RATE", 0.2),
		},
		Diagnostics: DiagnosticsConfig{
			EnableDebugLogs: getBool("ENABLE_DEBUG_LOGS", false),
			MaxLogLines:     getInt("DEBUG_LOG_LIMIT", 200),
		},
		Uploads: UploadConfig{
			Dir:          getenv("UPLOAD_DIR", "uploads"),
			MaxBytes:     int64(getInt("UPLOAD_MAX_KB", 4096)) * 1024,
			AllowedTypes: splitAndTrim(getenv("UPLOAD_EXTENSIONS", ".jpg,.jpeg,.png,.webp")),
		},
		Dues: DuesConfig{
			DefaultAmount:  int64(getInt("DUES_DEFAULT_AMOUNT", 5000)),
			ReportCacheTTL: time.Duration(getInt("DUES_REPORT_CACHE_SEC", 60)) * time.Second,
		},
		Scheduler: SchedulerConfig{
			Enabled:     getBool("SCHEDULER_ENABLED", true),
			DuesSpec:    getenv("SCHEDULER_DUES_SPEC", "5 0 1 1 *"),
			SeedOnStart: getBool("SCHEDULER_SEED_ON_START", true),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.AccessSecret == "" || c.Auth.RefreshSecret == "" {
		return fmt.Errorf("jwt secrets must be provided")
	}
	switch c.Database.Driver {
	case "postgres", "mysql":
	default:
		return fmt.Errorf("unsupported db driver %s", c.Database.Driver)
	}
	port, err := strconv.Atoi(c.App.Port)
	if err != nil {
		return fmt.Errorf("invalid port %q: must be a number", c.App.Port)
	}
	if port < 1 || port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", port)
	}
	if c.Dues.DefaultAmount <= 0 {
		return fmt.Errorf("dues default amount must be positive")
	}
	if c.Security.AdminUsername != "" && len(c.Security.AdminPassword) < 6 {
		return fmt.Errorf("admin password must be at least 6 characters")
	}
	if c.RateLimit.Enabled && (c.RateLimit.RequestsPerMinute <= 0 || c.RateLimit.Window <= 0) {
		return fmt.Errorf("rate limit needs a positive quota and window")
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("upload size limit must be positive")
	}
	return nil
}

func getenv(key, def string) string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	return val
}

func getInt(key string, def int) int {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return def
	}
	return i
}

func getBool(key string, def bool) bool {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return def
	}
	return parsed
}

func getFloat(key string, def float64) float64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return def
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return def
	}
	return parsed
}

func splitAndTrim(val string) []string {
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		trim := strings.TrimSpace(p)
		if trim != "" {
			out = append(out, trim)
		}
	}
	return out
}
