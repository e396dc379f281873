package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/repclub/guard/internal/ratelimit"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Security SecurityConfig
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	TrustedProxies []string // CIDR ranges whose forwarding headers are honored
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// SecurityConfig holds the policy knobs for the security core. The
// lockout and limiter values are policy constants with env overrides, not
// derived values.
type SecurityConfig struct {
	SessionSecret      string
	TOTPIssuer         string                  `validate:"required"`
	ReauthThreshold    time.Duration           `validate:"gt=0"`
	Lockout            ratelimit.LockoutPolicy `validate:"required"`
	LoginLimit         ratelimit.Config        `validate:"required"`
	ExportLimit        ratelimit.Config        `validate:"required"`
	APILimit           ratelimit.Config        `validate:"required"`
	AuditRetentionDays int                     `validate:"gt=0"`
}

var validate = validator.New()

func Load() (*Config, error) {
	_ = godotenv.Load()

	sessionSecret := getEnv("SESSION_JWT_SECRET", "")
	if sessionSecret == "" {
		return nil, fmt.Errorf("SESSION_JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			TrustedProxies: getEnvAsSlice("TRUSTED_PROXIES"),
		},
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			Name:            getEnv("DB_NAME", "guard"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxConns:        int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:        int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
		},
		Security: SecurityConfig{
			SessionSecret:   sessionSecret,
			TOTPIssuer:      getEnv("TOTP_ISSUER", "Rep Club"),
			ReauthThreshold: getEnvAsDuration("REAUTH_THRESHOLD", 15*time.Minute),
			Lockout: ratelimit.LockoutPolicy{
				MaxAttempts:     getEnvAsInt("LOCKOUT_MAX_ATTEMPTS", 5),
				LockoutDuration: getEnvAsDuration("LOCKOUT_DURATION", 15*time.Minute),
				AttemptWindow:   getEnvAsDuration("LOCKOUT_ATTEMPT_WINDOW", 5*time.Minute),
			},
			LoginLimit:         limitFromEnv("LOGIN_LIMIT", ratelimit.Login),
			ExportLimit:        limitFromEnv("EXPORT_LIMIT", ratelimit.Export),
			APILimit:           limitFromEnv("API_LIMIT", ratelimit.API),
			AuditRetentionDays: getEnvAsInt("AUDIT_RETENTION_DAYS", 90),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	if err := validateSessionSecret(sessionSecret, env); err != nil {
		return nil, err
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// limitFromEnv overrides a preset's thresholds from <name>_MAX and
// <name>_WINDOW while keeping the preset's key prefix
func limitFromEnv(name string, preset ratelimit.Config) ratelimit.Config {
	preset.MaxRequests = getEnvAsInt(name+"_MAX", preset.MaxRequests)
	preset.Window = getEnvAsDuration(name+"_WINDOW", preset.Window)
	return preset
}

// validateSessionSecret enforces minimum strength for the session secret
func validateSessionSecret(secret, env string) error {
	minLength := 16 // Development minimum
	if env == "production" {
		minLength = 32 // Production requires stronger secret (256 bits)
	}

	if len(secret) < minLength {
		return fmt.Errorf("SESSION_JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("SESSION_JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsSlice(key string) []string {
	value, ok := os.LookupEnv(key)
	if !ok || value == "" {
		return nil
	}

	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}
