package database

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Ping checks that the database is reachable within 5 seconds.
func (db *PostgresDB) Ping(ctx context.Context) error {
	if db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.Pool.Ping(pingCtx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}

// Close closes every pooled connection. Safe to call more than once.
func (db *PostgresDB) Close() {
	if db.Pool == nil {
		return
	}

	log.Info().Msg("[DATABASE] Closing database connection pool...")
	db.Pool.Close()
	db.Pool = nil
}

// PoolStats is a snapshot of the pool used by the health endpoint.
type PoolStats struct {
	AcquiredConns int32 `json:"acquired_conns"`
	IdleConns     int32 `json:"idle_conns"`
	TotalConns    int32 `json:"total_conns"`
	MaxConns      int32 `json:"max_conns"`
}

// Stats returns the current pool statistics.
func (db *PostgresDB) Stats() (*PoolStats, error) {
	if db.Pool == nil {
		return nil, fmt.Errorf("database pool is not initialized")
	}

	raw := db.Pool.Stat()
	return &PoolStats{
		AcquiredConns: raw.AcquiredConns(),
		IdleConns:     raw.IdleConns(),
		TotalConns:    raw.TotalConns(),
		MaxConns:      raw.MaxConns(),
	}, nil
}
