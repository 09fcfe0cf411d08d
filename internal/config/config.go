package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"campus-market-backend/internal/infrastructure/database"
)

const defaultJWTSecret = "your-secret-key-change-in-production"

// maxStoredTextLength is the width of the VARCHAR text columns of return_requests.
const maxStoredTextLength = 1000

// Config holds the whole application configuration.
// Every field is populated from environment variables.
type Config struct {
	App      AppConfig
	Database *database.DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	HTTP     HTTPConfig
	Returns  ReturnsConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
	Enabled  bool
}

type JWTConfig struct {
	Secret            string
	AccessTokenExpiry int // minutes
}

// HTTPConfig groups transport-level knobs (CORS, rate limiting).
type HTTPConfig struct {
	AllowedOrigins []string
	RateLimitRPS   float64 // tokens per second for write endpoints
	RateLimitBurst int
}

// ReturnsConfig groups the business limits of the return workflow.
type ReturnsConfig struct {
	MaxReasonLength    int
	MaxNotesLength     int
	ReturnableStatuses []string
	DetailCacheTTL     time.Duration
	DefaultPageSize    int
	MaxPageSize        int
}

// Load reads config from environment variables.
func Load() (*Config, error) {
	dbConfig, err := LoadDatabaseConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load database config: %w", err)
	}

	env := &envReader{}
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Campus Market API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Database: dbConfig,
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
			Enabled:  env.Bool("REDIS_ENABLED", true),
		},
		JWT: JWTConfig{
			Secret:            getEnv("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry: env.Int("JWT_ACCESS_EXPIRY", 60),
		},
		HTTP: HTTPConfig{
			AllowedOrigins: getEnvList("HTTP_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			RateLimitRPS:   env.Float("HTTP_RATE_LIMIT_RPS", 5),
			RateLimitBurst: env.Int("HTTP_RATE_LIMIT_BURST", 10),
		},
		Returns: ReturnsConfig{
			MaxReasonLength:    env.Int("RETURNS_MAX_REASON_LENGTH", 1000),
			MaxNotesLength:     env.Int("RETURNS_MAX_NOTES_LENGTH", 1000),
			ReturnableStatuses: getEnvList("RETURNS_RETURNABLE_ORDER_STATUSES", []string{"Completed"}),
			DetailCacheTTL:     env.Duration("RETURNS_DETAIL_CACHE_TTL", 10*time.Minute),
			DefaultPageSize:    env.Int("RETURNS_DEFAULT_PAGE_SIZE", 20),
			MaxPageSize:        env.Int("RETURNS_MAX_PAGE_SIZE", 100),
		},
	}
	if env.err != nil {
		return nil, env.err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks the config for unsafe or inconsistent values.
func (c *Config) Validate() error {
	if c.Returns.MaxReasonLength <= 0 || c.Returns.MaxNotesLength <= 0 {
		return fmt.Errorf("RETURNS_MAX_REASON_LENGTH and RETURNS_MAX_NOTES_LENGTH must be positive")
	}
	if c.Returns.MaxReasonLength > maxStoredTextLength || c.Returns.MaxNotesLength > maxStoredTextLength {
		return fmt.Errorf("RETURNS_MAX_REASON_LENGTH and RETURNS_MAX_NOTES_LENGTH must not exceed %d", maxStoredTextLength)
	}
	if len(c.Returns.ReturnableStatuses) == 0 {
		return fmt.Errorf("RETURNS_RETURNABLE_ORDER_STATUSES must not be empty")
	}
	if c.Returns.DefaultPageSize <= 0 || c.Returns.DefaultPageSize > c.Returns.MaxPageSize {
		return fmt.Errorf("RETURNS_DEFAULT_PAGE_SIZE must be in [1, RETURNS_MAX_PAGE_SIZE]")
	}

	// Production environment must not run with development secrets
	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD must be set in production")
		}
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvList splits a comma separated variable, dropping empty items.
func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

// envReader parses typed variables, falling back to the default when unset.
// The first malformed value is kept in err.
type envReader struct {
	err error
}

func (r *envReader) Int(key string, defaultValue int) int {
	return parseEnv(r, key, defaultValue, strconv.Atoi)
}

func (r *envReader) Float(key string, defaultValue float64) float64 {
	return parseEnv(r, key, defaultValue, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func (r *envReader) Bool(key string, defaultValue bool) bool {
	return parseEnv(r, key, defaultValue, strconv.ParseBool)
}

func (r *envReader) Duration(key string, defaultValue time.Duration) time.Duration {
	return parseEnv(r, key, defaultValue, time.ParseDuration)
}

func parseEnv[T any](r *envReader, key string, defaultValue T, parse func(string) (T, error)) T {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := parse(strings.TrimSpace(valueStr))
	if err != nil {
		if r.err == nil {
			r.err = fmt.Errorf("invalid %s %q: %w", key, valueStr, err)
		}
		return defaultValue
	}
	return value
}
