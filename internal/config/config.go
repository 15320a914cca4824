package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported attempt store backends
const (
	StorePostgres = "postgres"
	StoreRedis    = "redis"
)

type Config struct {
	Database   DatabaseConfig
	Redis      RedisConfig
	Server     ServerConfig
	BruteForce BruteForceConfig
	Auth       AuthConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
}

type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	TrustedProxies []string
	// LoginChecksPerMinute caps public login-check requests per client IP
	LoginChecksPerMinute int
}

type BruteForceConfig struct {
	Store           string
	TimeThreshold   int64 // seconds
	FailTolerance   int64
	BanPeriod       int64 // seconds
	Retention       time.Duration
	CleanupInterval time.Duration
}

type AuthConfig struct {
	AdminJWTSecret string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "loginguard"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
		},
		Redis: RedisConfig{
			Addr:      getEnv("REDIS_ADDR", "localhost:6379"),
			Password:  getEnv("REDIS_PASSWORD", ""),
			DB:        getEnvAsInt("REDIS_DB", 0),
			KeyPrefix: getEnv("REDIS_KEY_PREFIX", "bfp"),
		},
		Server: ServerConfig{
			Port:                 getEnv("PORT", "8080"),
			Env:                  env,
			LogLevel:             getEnv("LOG_LEVEL", "info"),
			ReadTimeout:          getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:         getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:          getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			TrustedProxies:       parseList(getEnv("TRUSTED_PROXIES", "")),
			LoginChecksPerMinute: getEnvAsInt("LOGIN_CHECKS_PER_MINUTE", 120),
		},
		BruteForce: BruteForceConfig{
			Store:           strings.ToLower(getEnv("BFP_STORE", StorePostgres)),
			TimeThreshold:   getEnvAsInt64("BFP_TIME_THRESHOLD", 60),
			FailTolerance:   getEnvAsInt64("BFP_FAIL_TOLERANCE", 3),
			BanPeriod:       getEnvAsInt64("BFP_BAN_PERIOD", 300),
			Retention:       getEnvAsDuration("BFP_RETENTION", 24*time.Hour),
			CleanupInterval: getEnvAsDuration("BFP_CLEANUP_INTERVAL", 1*time.Hour),
		},
		Auth: AuthConfig{
			AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
		},
	}

	if err := cfg.BruteForce.validate(); err != nil {
		return nil, err
	}

	if cfg.BruteForce.Store == StorePostgres && cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required when BFP_STORE=%s", StorePostgres)
	}

	if cfg.Auth.AdminJWTSecret == "" {
		return nil, fmt.Errorf("ADMIN_JWT_SECRET is required")
	}

	if err := validateJWTSecret(cfg.Auth.AdminJWTSecret, env); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *BruteForceConfig) validate() error {
	switch c.Store {
	case StorePostgres, StoreRedis:
	default:
		return fmt.Errorf("BFP_STORE must be %q or %q (got %q)", StorePostgres, StoreRedis, c.Store)
	}

	if c.TimeThreshold < 0 {
		return fmt.Errorf("BFP_TIME_THRESHOLD must not be negative")
	}
	if c.FailTolerance < 0 {
		return fmt.Errorf("BFP_FAIL_TOLERANCE must not be negative")
	}
	if c.BanPeriod < 0 {
		return fmt.Errorf("BFP_BAN_PERIOD must not be negative")
	}
	if c.TimeThreshold > MaxPolicySeconds {
		return fmt.Errorf("BFP_TIME_THRESHOLD must not exceed %d seconds", MaxPolicySeconds)
	}
	if c.BanPeriod > MaxPolicySeconds {
		return fmt.Errorf("BFP_BAN_PERIOD must not exceed %d seconds", MaxPolicySeconds)
	}
	if c.CleanupInterval <= 0 {
		return fmt.Errorf("BFP_CLEANUP_INTERVAL must be positive")
	}

	// Rows younger than the window must survive retention or counts silently drop
	if c.Retention < time.Duration(c.TimeThreshold)*time.Second {
		return fmt.Errorf("BFP_RETENTION must be at least BFP_TIME_THRESHOLD")
	}

	return nil
}

// validateJWTSecret enforces minimum security standards for the admin token secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("ADMIN_JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("ADMIN_JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func parseList(raw string) []string {
	if raw == "" {
		return []string{}
	}
	items := strings.Split(raw, ",")
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
