package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Payroll  PayrollConfig
	Redis    RedisConfig
	Audit    AuditConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Driver   string // postgres or memory
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
	SeedFile string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	AccessExpiration time.Duration
}

type PayrollConfig struct {
	RecalcConcurrency  int
	ExcludedRoles      []user.Role
	AutoRecalcInterval time.Duration
	LockTTL            time.Duration
}

// RedisConfig is optional. An empty Addr selects the in-process lock.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuditConfig struct {
	Sink        string // log or kafka
	KafkaBroker []string
	KafkaTopic  string
}

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"

	AuditSinkLog   = "log"
	AuditSinkKafka = "kafka"
)

func Load() (*Config, error) {
	// A missing .env is fine; the environment may be set by the container.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	config := &Config{}

	// Application configuration
	appPort, err := strconv.Atoi(getEnv("APP_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_PORT: %w", err)
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS", "http://localhost:3000"),
	}

	// Database configuration
	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}
	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	config.Database = DatabaseConfig{
		Driver:   strings.ToLower(getEnv("STORE_DRIVER", DriverPostgres)),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "payroll"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(maxConns),
		SeedFile: getEnv("SEED_FILE", ""),
	}

	// JWT configuration
	accessExpiration, err := time.ParseDuration(getEnv("JWT_ACCESS_EXPIRATION_TIME", "1h"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}

	config.JWT = JWTConfig{
		Secret:           getEnv("JWT_SECRET_KEY", ""),
		AccessExpiration: accessExpiration,
	}

	// Payroll configuration
	concurrency, err := strconv.Atoi(getEnv("PAYROLL_RECALC_CONCURRENCY", "4"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_RECALC_CONCURRENCY: %w", err)
	}
	interval, err := time.ParseDuration(getEnv("PAYROLL_AUTO_RECALC_INTERVAL", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_AUTO_RECALC_INTERVAL: %w", err)
	}
	lockTTL, err := time.ParseDuration(getEnv("PAYROLL_LOCK_TTL", "10m"))
	if err != nil {
		return nil, fmt.Errorf("invalid PAYROLL_LOCK_TTL: %w", err)
	}

	var excluded []user.Role
	for _, name := range getEnvSlice("PAYROLL_EXCLUDED_ROLES", string(user.RoleIntern)) {
		role, err := user.ParseRole(name)
		if err != nil {
			return nil, fmt.Errorf("invalid PAYROLL_EXCLUDED_ROLES entry %q: %w", name, err)
		}
		excluded = append(excluded, role)
	}

	config.Payroll = PayrollConfig{
		RecalcConcurrency:  concurrency,
		ExcludedRoles:      excluded,
		AutoRecalcInterval: interval,
		LockTTL:            lockTTL,
	}

	// Redis configuration
	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	config.Redis = RedisConfig{
		Addr:     getEnv("REDIS_ADDR", ""),
		Password: getEnv("REDIS_PASSWORD", ""),
		DB:       redisDB,
	}

	// Audit configuration
	config.Audit = AuditConfig{
		Sink:        strings.ToLower(getEnv("AUDIT_SINK", AuditSinkLog)),
		KafkaBroker: getEnvSlice("KAFKA_BROKERS", ""),
		KafkaTopic:  getEnv("KAFKA_AUDIT_TOPIC", "payroll.audit"),
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT_SECRET_KEY is required")
	}
	if c.JWT.AccessExpiration <= 0 {
		return fmt.Errorf("JWT_ACCESS_EXPIRATION_TIME must be positive")
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required")
		}
		if c.Database.SeedFile != "" {
			return fmt.Errorf("SEED_FILE is only supported with STORE_DRIVER=%s", DriverMemory)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unsupported STORE_DRIVER %q", c.Database.Driver)
	}

	if c.Payroll.RecalcConcurrency < 1 {
		return fmt.Errorf("PAYROLL_RECALC_CONCURRENCY must be at least 1")
	}
	if c.Payroll.AutoRecalcInterval < 0 {
		return fmt.Errorf("PAYROLL_AUTO_RECALC_INTERVAL must not be negative")
	}
	if c.Payroll.LockTTL <= 0 {
		return fmt.Errorf("PAYROLL_LOCK_TTL must be positive")
	}

	switch c.Audit.Sink {
	case AuditSinkLog:
	case AuditSinkKafka:
		if len(c.Audit.KafkaBroker) == 0 {
			return fmt.Errorf("KAFKA_BROKERS is required when AUDIT_SINK=%s", AuditSinkKafka)
		}
		if c.Audit.KafkaTopic == "" {
			return fmt.Errorf("KAFKA_AUDIT_TOPIC is required when AUDIT_SINK=%s", AuditSinkKafka)
		}
	default:
		return fmt.Errorf("unsupported AUDIT_SINK %q", c.Audit.Sink)
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// SlogLevel maps LOG_LEVEL onto slog, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvSlice(key, fallback string) []string {
	value := getEnv(key, fallback)
	if value == "" {
		return []string{}
	}
	var result []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			result = append(result, part)
		}
	}
	return result
}
