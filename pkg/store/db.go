package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
)

// Store is the Postgres-backed message store with a Redis layer for
// unseen-count caching. It implements the chat.MessageStore contract.
type Store struct {
	DB     *sql.DB
	RDB    *redis.Client
	logger *slog.Logger
}

func NewStore(ctx context.Context, pgConnStr, redisURL string, logger *slog.Logger) (*Store, error) {
	var db *sql.DB
	var err error

	// Retry Postgres a few times; docker-compose brings it up in parallel.
	for i := 0; i < 5; i++ {
		db, err = sql.Open("postgres", pgConnStr)
		if err == nil {
			err = db.PingContext(ctx)
			if err == nil {
				logger.Info("PostgreSQL connection successful", "attempt", i+1)
				break
			}
		}
		logger.Warn("Waiting for PostgreSQL...", "attempt", i+1, "max_attempts", 5, "error", err)
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL", "error", err)
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	rdb, err := InitRedis(redisURL, logger)
	if err != nil {
		return nil, err
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to ping Redis", "error", err)
		return nil, fmt.Errorf("pinging redis: %w", err)
	}

	logger.Info("Successfully connected to PostgreSQL and Redis")

	return &Store{DB: db, RDB: rdb, logger: logger}, nil
}

func (s *Store) InitSchema(ctx context.Context) error {
	s.logger.Info("Initializing database schema")

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
			name VARCHAR(100) NOT NULL,
			bio TEXT DEFAULT '',
			avatar_url TEXT,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY,
			sender_id UUID NOT NULL,
			receiver_id UUID NOT NULL,
			kind VARCHAR(10) NOT NULL DEFAULT 'text' CHECK (kind IN ('text', 'call')),
			text TEXT NOT NULL DEFAULT '',
			image_url TEXT,
			audio_url TEXT,
			video_url TEXT,
			call_type VARCHAR(10),
			call_status VARCHAR(10),
			call_duration INTEGER NOT NULL DEFAULT 0,
			seen BOOLEAN NOT NULL DEFAULT FALSE,
			is_deleted BOOLEAN NOT NULL DEFAULT FALSE,
			deleted_for TEXT[] NOT NULL DEFAULT '{}',
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		);

		CREATE INDEX IF NOT EXISTS idx_messages_pair
			ON messages(sender_id, receiver_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_messages_unseen
			ON messages(receiver_id, sender_id) WHERE seen = FALSE;
	`

	if _, err := s.DB.ExecContext(ctx, schema); err != nil {
		s.logger.Error("Failed to initialize schema", "error", err)
		return fmt.Errorf("initializing schema: %w", err)
	}

	s.logger.Info("Database schema initialized successfully")
	return nil
}

func (s *Store) Close() error {
	s.logger.Info("Closing store connections")

	var errs []error
	if err := s.DB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("postgres close error: %w", err))
	}
	if err := s.RDB.Close(); err != nil {
		errs = append(errs, fmt.Errorf("redis close error: %w", err))
	}
	if len(errs) > 0 {
		s.logger.Error("Errors closing store", "error_count", len(errs))
		return fmt.Errorf("errors closing store: %v", errs)
	}
	return nil
}
