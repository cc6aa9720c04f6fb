// Package postgres provides PostgreSQL-based implementations of the store
// interfaces.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"reliefwatch/internal/config"
)

// DB wraps a PostgreSQL connection pool.
type DB struct {
	pool *pgxpool.Pool
}

// NewDB creates a new PostgreSQL connection pool.
func NewDB(ctx context.Context, cfg *config.PostgresConfig) (*DB, error) {
	connString := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s&pool_max_conns=%d",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.Database,
		cfg.SSLMode,
		cfg.MaxOpenConns,
	)

	poolConfig, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse postgres config: %w", err)
	}

	poolConfig.MaxConns = cfg.MaxOpenConns
	poolConfig.MinConns = cfg.MaxIdleConns
	poolConfig.MaxConnLifetime = time.Hour

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Pool returns the underlying connection pool.
func (db *DB) Pool() *pgxpool.Pool {
	return db.pool
}

// Close closes the connection pool.
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// RunMigrations creates the required database tables.
func (db *DB) RunMigrations(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS ingestion_endpoints (
			id VARCHAR(36) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			source_kind VARCHAR(20) NOT NULL,
			path VARCHAR(64) UNIQUE NOT NULL,
			secret VARCHAR(128) NOT NULL,
			active BOOLEAN DEFAULT TRUE,
			keywords JSONB NOT NULL DEFAULT '[]',
			regions JSONB NOT NULL DEFAULT '[]',
			min_severity VARCHAR(20),
			total_received BIGINT DEFAULT 0,
			total_failed BIGINT DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE TABLE IF NOT EXISTS webhook_events (
			id VARCHAR(36) PRIMARY KEY,
			endpoint_id VARCHAR(36) NOT NULL,
			payload BYTEA,
			headers JSONB,
			status VARCHAR(20) NOT NULL,
			event_id VARCHAR(36),
			error TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			processed_at TIMESTAMP WITH TIME ZONE
		);

		CREATE INDEX IF NOT EXISTS idx_webhook_events_status ON webhook_events(status);
		CREATE INDEX IF NOT EXISTS idx_webhook_events_endpoint ON webhook_events(endpoint_id);

		CREATE TABLE IF NOT EXISTS events (
			id VARCHAR(36) PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			source_ref TEXT,
			source_kind VARCHAR(20) NOT NULL,
			location TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			relevance DOUBLE PRECISION,
			sentiment DOUBLE PRECISION,
			crisis_id VARCHAR(36),
			analyzed BOOLEAN DEFAULT FALSE,
			published_at TIMESTAMP WITH TIME ZONE NOT NULL,
			fetched_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_events_crisis ON events(crisis_id);
		CREATE INDEX IF NOT EXISTS idx_events_analyzed ON events(analyzed);

		CREATE TABLE IF NOT EXISTS crises (
			id VARCHAR(36) PRIMARY KEY,
			title TEXT NOT NULL,
			description TEXT,
			type VARCHAR(30) NOT NULL,
			severity VARCHAR(20) NOT NULL,
			status VARCHAR(20) NOT NULL,
			confidence DOUBLE PRECISION DEFAULT 0,
			location TEXT,
			region TEXT,
			country TEXT,
			latitude DOUBLE PRECISION,
			longitude DOUBLE PRECISION,
			tags JSONB NOT NULL DEFAULT '[]',
			detected_at TIMESTAMP WITH TIME ZONE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_crises_type_status ON crises(type, status);
		CREATE INDEX IF NOT EXISTS idx_crises_detected ON crises(detected_at);

		CREATE TABLE IF NOT EXISTS alert_subscriptions (
			id VARCHAR(36) PRIMARY KEY,
			email VARCHAR(255) NOT NULL,
			name VARCHAR(255),
			regions JSONB NOT NULL DEFAULT '[]',
			crisis_types JSONB NOT NULL DEFAULT '[]',
			min_severity VARCHAR(20) NOT NULL,
			cadence VARCHAR(20) NOT NULL,
			verified BOOLEAN DEFAULT FALSE,
			active BOOLEAN DEFAULT TRUE,
			unsubscribe_token VARCHAR(64) UNIQUE NOT NULL,
			verification_token VARCHAR(64) UNIQUE NOT NULL,
			last_notified_at TIMESTAMP WITH TIME ZONE,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL,
			updated_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_subscriptions_cadence ON alert_subscriptions(cadence);

		CREATE TABLE IF NOT EXISTS sent_notifications (
			id VARCHAR(36) PRIMARY KEY,
			subscription_id VARCHAR(36) NOT NULL,
			crisis_id VARCHAR(36),
			subject TEXT NOT NULL,
			content TEXT,
			status VARCHAR(20) NOT NULL,
			sent_at TIMESTAMP WITH TIME ZONE,
			error TEXT,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_pair
			ON sent_notifications(subscription_id, crisis_id)
			WHERE crisis_id IS NOT NULL;
	`

	_, err := db.pool.Exec(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
