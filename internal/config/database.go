package config

import (
	"fmt"
	"time"

	"campus-market-backend/internal/infrastructure/database"
)

// LoadDatabaseConfig reads the Postgres settings from environment variables.
func LoadDatabaseConfig() (*database.DBConfig, error) {
	env := &envReader{}
	cfg := &database.DBConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     env.Int("DB_PORT", 5432),
		Username: getEnv("DB_USER", "campus"),
		Password: getEnv("DB_PASSWORD", "secret"),
		DBName:   getEnv("DB_NAME", "campus_market_dev"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),

		MaxConns:          int32(env.Int("DB_MAX_CONNECTIONS", 25)),
		MinConns:          int32(env.Int("DB_MIN_CONNECTIONS", 5)),
		MaxConnLifetime:   env.Duration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
		MaxConnIdleTime:   env.Duration("DB_MAX_CONN_IDLE_TIME", time.Minute),
		HealthCheckPeriod: env.Duration("DB_HEALTH_CHECK_PERIOD", time.Minute),

		MaxRetries:     env.Int("DB_MAX_RETRIES", 5),
		RetryDelay:     env.Duration("DB_RETRY_DELAY", time.Second),
		ConnectTimeout: env.Duration("DB_CONNECT_TIMEOUT", 10*time.Second),

		AutoMigrate: env.Bool("DB_AUTO_MIGRATE", true),
	}
	if env.err != nil {
		return nil, env.err
	}

	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("DB_PORT must be in [1, 65535]")
	}
	if cfg.MaxConns < 1 || cfg.MinConns < 0 || cfg.MinConns > cfg.MaxConns {
		return nil, fmt.Errorf("DB_MAX_CONNECTIONS must be positive and DB_MIN_CONNECTIONS within [0, DB_MAX_CONNECTIONS]")
	}
	return cfg, nil
}
