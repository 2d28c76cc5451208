package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Mubarak21/BOQBackend-sub001/pkg/auth"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/invitations"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/middleware"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/observability"
	"github.com/Mubarak21/BOQBackend-sub001/pkg/storage"
	"gopkg.in/yaml.v3"
)

// MinSecretLength is the minimum length, in bytes, of each token secret
const MinSecretLength = 32

// Config holds all application configuration
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Auth          AuthConfig          `yaml:"auth"`
	RateLimit     RateLimitConfig     `yaml:"rate_limit"`
	Storage       storage.Config      `yaml:"storage"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string        `yaml:"host"`
	Port            string        `yaml:"port"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Health/metrics server (separate port for k8s probes)
	HealthPort string `yaml:"health_port"`

	// TrustProxy makes X-Forwarded-For / X-Real-IP authoritative for the
	// client address used by rate limiting and audit.
	TrustProxy  bool     `yaml:"trust_proxy"`
	CORSOrigins []string `yaml:"cors_origins"`
}

// AuthConfig holds token, password and invitation settings
type AuthConfig struct {
	AccessTokenSecret        string        `yaml:"access_token_secret"`
	RefreshTokenSecret       string        `yaml:"refresh_token_secret"`
	AccessTokenTTL           time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL          time.Duration `yaml:"refresh_token_ttl"`
	RevocationSweepThreshold int           `yaml:"revocation_sweep_threshold"`
	PasswordAlgorithm        string        `yaml:"password_algorithm"`
	InvitationTTL            time.Duration `yaml:"invitation_ttl"`
	CookieSecure             bool          `yaml:"cookie_secure"`

	// AuditLogDir, when set, adds a rotating NDJSON file sink to the audit trail
	AuditLogDir string `yaml:"audit_log_dir"`
}

// RateLimitConfig holds the limiter applied to register and login
type RateLimitConfig struct {
	Window      time.Duration `yaml:"window"`
	MaxRequests int           `yaml:"max_requests"`
	// Backend is memory or redis
	Backend     string `yaml:"backend"`
	RedisPrefix string `yaml:"redis_prefix"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel string `yaml:"log_level"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	// OpenTelemetry
	OTelEnabled        bool    `yaml:"otel_enabled"`
	OTelEndpoint       string  `yaml:"otel_endpoint"`
	OTelServiceName    string  `yaml:"otel_service_name"`
	OTelServiceVersion string  `yaml:"otel_service_version"`
	OTelInsecure       bool    `yaml:"otel_insecure"` // Use insecure gRPC connection
	OTelSampleRatio    float64 `yaml:"otel_sample_ratio"`
}

// Default returns the configuration used when nothing is overridden.
// Token secrets have no default.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            "8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			HealthPort:      "9090",
		},
		Auth: AuthConfig{
			AccessTokenTTL:           auth.DefaultAccessTTL,
			RefreshTokenTTL:          auth.DefaultRefreshTTL,
			RevocationSweepThreshold: auth.DefaultSweepThreshold,
			PasswordAlgorithm:        "argon2id",
			InvitationTTL:            invitations.DefaultTTL,
			CookieSecure:             true,
		},
		RateLimit: RateLimitConfig{
			Window:      15 * time.Minute,
			MaxRequests: 100,
			Backend:     "memory",
			RedisPrefix: "boq:ratelimit",
		},
		Storage: storage.DefaultConfig(),
		Observability: ObservabilityConfig{
			LogLevel:           "info",
			MetricsEnabled:     true,
			OTelEndpoint:       "localhost:4317",
			OTelServiceName:    "boq-backend",
			OTelServiceVersion: "1.0.0",
			OTelInsecure:       true,
			OTelSampleRatio:    1.0,
		},
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML
// file named by BOQ_CONFIG_FILE, then BOQ_* environment variables, and
// validates the result.
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("BOQ_CONFIG_FILE"); path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadFile overlays the YAML document at path onto c
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	s := &c.Server
	s.Host = getEnv("BOQ_HOST", s.Host)
	s.Port = getEnv("BOQ_PORT", s.Port)
	s.ReadTimeout = getEnvDuration("BOQ_READ_TIMEOUT", s.ReadTimeout)
	s.WriteTimeout = getEnvDuration("BOQ_WRITE_TIMEOUT", s.WriteTimeout)
	s.IdleTimeout = getEnvDuration("BOQ_IDLE_TIMEOUT", s.IdleTimeout)
	s.ShutdownTimeout = getEnvDuration("BOQ_SHUTDOWN_TIMEOUT", s.ShutdownTimeout)
	s.HealthPort = getEnv("BOQ_HEALTH_PORT", s.HealthPort)
	s.TrustProxy = getEnvBool("BOQ_TRUST_PROXY", s.TrustProxy)
	s.CORSOrigins = getEnvList("BOQ_CORS_ORIGINS", s.CORSOrigins)

	a := &c.Auth
	a.AccessTokenSecret = getEnv("BOQ_ACCESS_TOKEN_SECRET", a.AccessTokenSecret)
	a.RefreshTokenSecret = getEnv("BOQ_REFRESH_TOKEN_SECRET", a.RefreshTokenSecret)
	a.AccessTokenTTL = getEnvDuration("BOQ_ACCESS_TOKEN_TTL", a.AccessTokenTTL)
	a.RefreshTokenTTL = getEnvDuration("BOQ_REFRESH_TOKEN_TTL", a.RefreshTokenTTL)
	a.RevocationSweepThreshold = getEnvInt("BOQ_REVOCATION_SWEEP_THRESHOLD", a.RevocationSweepThreshold)
	a.PasswordAlgorithm = getEnv("BOQ_PASSWORD_ALGORITHM", a.PasswordAlgorithm)
	a.InvitationTTL = getEnvDuration("BOQ_INVITATION_TTL", a.InvitationTTL)
	a.CookieSecure = getEnvBool("BOQ_COOKIE_SECURE", a.CookieSecure)
	a.AuditLogDir = getEnv("BOQ_AUDIT_LOG_DIR", a.AuditLogDir)

	r := &c.RateLimit
	r.Window = getEnvDuration("BOQ_RATE_LIMIT_WINDOW", r.Window)
	r.MaxRequests = getEnvInt("BOQ_RATE_LIMIT_MAX", r.MaxRequests)
	r.Backend = getEnv("BOQ_RATE_LIMIT_BACKEND", r.Backend)
	r.RedisPrefix = getEnv("BOQ_RATE_LIMIT_REDIS_PREFIX", r.RedisPrefix)

	st := &c.Storage
	st.PostgresURL = getEnv("BOQ_DATABASE_URL", st.PostgresURL)
	st.PostgresMaxConns = getEnvInt("BOQ_POSTGRES_MAX_CONNS", st.PostgresMaxConns)
	st.PostgresMinConns = getEnvInt("BOQ_POSTGRES_MIN_CONNS", st.PostgresMinConns)
	st.PostgresTimeout = getEnvDuration("BOQ_POSTGRES_TIMEOUT", st.PostgresTimeout)
	st.AutoMigrate = getEnvBool("BOQ_AUTO_MIGRATE", st.AutoMigrate)
	st.RedisURL = getEnv("BOQ_REDIS_URL", st.RedisURL)
	st.RedisPassword = getEnv("BOQ_REDIS_PASSWORD", st.RedisPassword)
	st.RedisDB = getEnvInt("BOQ_REDIS_DB", st.RedisDB)
	st.RedisPoolSize = getEnvInt("BOQ_REDIS_POOL_SIZE", st.RedisPoolSize)
	st.RedisTimeout = getEnvDuration("BOQ_REDIS_TIMEOUT", st.RedisTimeout)
	st.AccountCacheSize = getEnvInt("BOQ_ACCOUNT_CACHE_SIZE", st.AccountCacheSize)
	st.AccountCacheTTL = getEnvDuration("BOQ_ACCOUNT_CACHE_TTL", st.AccountCacheTTL)

	o := &c.Observability
	o.LogLevel = getEnv("BOQ_LOG_LEVEL", o.LogLevel)
	o.MetricsEnabled = getEnvBool("BOQ_METRICS_ENABLED", o.MetricsEnabled)
	o.OTelEnabled = getEnvBool("BOQ_OTEL_ENABLED", o.OTelEnabled)
	o.OTelEndpoint = getEnv("BOQ_OTEL_ENDPOINT", o.OTelEndpoint)
	o.OTelServiceName = getEnv("BOQ_OTEL_SERVICE_NAME", o.OTelServiceName)
	o.OTelServiceVersion = getEnv("BOQ_OTEL_SERVICE_VERSION", o.OTelServiceVersion)
	o.OTelInsecure = getEnvBool("BOQ_OTEL_INSECURE", o.OTelInsecure)
	o.OTelSampleRatio = getEnvFloat("BOQ_OTEL_SAMPLE_RATIO", o.OTelSampleRatio)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	// Validate server config
	if c.Server.Port == "" {
		errs = append(errs, errors.New("server port is required"))
	}
	if c.Server.HealthPort == "" {
		errs = append(errs, errors.New("health port is required"))
	}
	if c.Server.Port != "" && c.Server.Port == c.Server.HealthPort {
		errs = append(errs, errors.New("server port and health port must be different"))
	}

	// Validate token secrets
	if len(c.Auth.AccessTokenSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("BOQ_ACCESS_TOKEN_SECRET must be at least %d bytes", MinSecretLength))
	}
	if len(c.Auth.RefreshTokenSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("BOQ_REFRESH_TOKEN_SECRET must be at least %d bytes", MinSecretLength))
	}
	if c.Auth.AccessTokenSecret != "" && c.Auth.AccessTokenSecret == c.Auth.RefreshTokenSecret {
		errs = append(errs, errors.New("access and refresh token secrets must differ"))
	}
	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		errs = append(errs, errors.New("token TTLs must be positive"))
	}
	if c.Auth.InvitationTTL <= 0 {
		errs = append(errs, errors.New("invitation TTL must be positive"))
	}
	if c.Auth.RevocationSweepThreshold <= 0 {
		errs = append(errs, errors.New("revocation sweep threshold must be positive"))
	}
	switch c.Auth.PasswordAlgorithm {
	case "argon2id", "bcrypt":
	default:
		errs = append(errs, fmt.Errorf("invalid password algorithm: %s (must be argon2id or bcrypt)", c.Auth.PasswordAlgorithm))
	}

	// Validate rate limiting
	if c.RateLimit.Window <= 0 || c.RateLimit.MaxRequests <= 0 {
		errs = append(errs, errors.New("rate limit window and max requests must be positive"))
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if !c.Storage.UseRedis() {
			errs = append(errs, errors.New("redis URL is required for the redis rate limit backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid rate limit backend: %s (must be memory or redis)", c.RateLimit.Backend))
	}

	// Validate OpenTelemetry config
	if c.Observability.OTelEnabled {
		if c.Observability.OTelEndpoint == "" {
			errs = append(errs, errors.New("OpenTelemetry endpoint is required when OTel is enabled"))
		}
		if c.Observability.OTelServiceName == "" {
			errs = append(errs, errors.New("OpenTelemetry service name is required when OTel is enabled"))
		}
	}

	return errors.Join(errs...)
}

// CodecConfig converts the auth section for auth.NewTokenCodec
func (a AuthConfig) CodecConfig() auth.CodecConfig {
	return auth.CodecConfig{
		AccessSecret:  []byte(a.AccessTokenSecret),
		RefreshSecret: []byte(a.RefreshTokenSecret),
		AccessTTL:     a.AccessTokenTTL,
		RefreshTTL:    a.RefreshTokenTTL,
	}
}

// LimiterConfig converts the rate limit section for the middleware stores
func (r RateLimitConfig) LimiterConfig() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{MaxRequests: r.MaxRequests, Window: r.Window}
}

// TracingConfig converts the OTel settings for observability.InitTracing
func (o ObservabilityConfig) TracingConfig() observability.TracingConfig {
	return observability.TracingConfig{
		Enabled:        o.OTelEnabled,
		Endpoint:       o.OTelEndpoint,
		ServiceName:    o.OTelServiceName,
		ServiceVersion: o.OTelServiceVersion,
		Insecure:       o.OTelInsecure,
		SampleRatio:    o.OTelSampleRatio,
	}
}

// Level parses LogLevel
func (o ObservabilityConfig) Level() observability.LogLevel {
	return observability.ParseLogLevel(o.LogLevel)
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

// getEnvFloat returns a float environment variable or a default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
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

// getEnvList splits a comma-separated environment variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
