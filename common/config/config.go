package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service   ServiceConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Rotation  RotationConfig
	Multisig  MultisigConfig
	RateLimit RateLimitConfig
	Telemetry TelemetryConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host          string
	Port          int
	Database      string
	User          string
	Password      string
	MaxConns      int
	MinConns      int
	MaxIdleTime   time.Duration
	MaxLifetime   time.Duration
	MigrationsDir string
}

// RedisConfig holds Redis connection settings
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// RotationConfig holds rotation scheduler settings
type RotationConfig struct {
	PollCron string
	LockTTL  time.Duration
}

// MultisigConfig holds withdrawal approval settings
type MultisigConfig struct {
	ProposalExpiry    time.Duration
	SweepCron         string
	DefaultDailyLimit string
}

// RateLimitConfig holds request throttling settings
type RateLimitConfig struct {
	Enabled             bool
	FundMutationsPerMin int64
	GlobalPerMin        int64
}

// TelemetryConfig holds observability settings
type TelemetryConfig struct {
	EnablePprof bool
	PprofPort   int
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 8080),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
		},
		Database: DatabaseConfig{
			Host:          getEnv("POSTGRES_HOST", "localhost"),
			Port:          getEnvInt("POSTGRES_PORT", 5432),
			Database:      getEnv("POSTGRES_DB", "treasury"),
			User:          getEnv("POSTGRES_USER", "treasury"),
			Password:      getEnv("POSTGRES_PASSWORD", "treasury"),
			MaxConns:      getEnvInt("POSTGRES_MAX_CONNS", 50),
			MinConns:      getEnvInt("POSTGRES_MIN_CONNS", 10),
			MaxIdleTime:   getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime:   getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
			MigrationsDir: getEnv("MIGRATIONS_DIR", "migrations"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Rotation: RotationConfig{
			PollCron: getEnv("ROTATION_POLL_CRON", "*/5 * * * *"),
			LockTTL:  getEnvDuration("ROTATION_LOCK_TTL", 2*time.Minute),
		},
		Multisig: MultisigConfig{
			ProposalExpiry:    getEnvDuration("MULTISIG_PROPOSAL_EXPIRY", 72*time.Hour),
			SweepCron:         getEnv("MULTISIG_SWEEP_CRON", "*/10 * * * *"),
			DefaultDailyLimit: getEnv("MULTISIG_DEFAULT_DAILY_LIMIT", "10000"),
		},
		RateLimit: RateLimitConfig{
			Enabled:             getEnvBool("RATE_LIMIT_ENABLED", true),
			FundMutationsPerMin: int64(getEnvInt("RATE_LIMIT_FUND_PER_MIN", 30)),
			GlobalPerMin:        int64(getEnvInt("RATE_LIMIT_GLOBAL_PER_MIN", 300)),
		},
		Telemetry: TelemetryConfig{
			EnablePprof: getEnvBool("ENABLE_PPROF", false),
			PprofPort:   getEnvInt("PPROF_PORT", 6060),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Multisig.ProposalExpiry <= 0 {
		return fmt.Errorf("proposal expiry must be positive")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the host:port address for Redis
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
