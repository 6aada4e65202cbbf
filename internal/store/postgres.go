// internal/store/postgres.go
package store

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect builds a pgx pool from the POSTGRES_USER / POSTGRES_PASSWORD /
// PG_HOST / PG_PORT / PG_DATABASE environment variables and verifies the
// connection with a bounded ping.
func Connect(ctx context.Context) (*pgxpool.Pool, error) {
	connStr := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		os.Getenv("PG_HOST"),
		os.Getenv("PG_PORT"),
		os.Getenv("PG_DATABASE"),
	)

	config, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("unable to parse pgx config: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to create pgx pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db ping error: %w", err)
	}

	return pool, nil
}

// EnsureSchema provisions the tables the service needs. The invitation id
// is time-sortable (UUIDv7); receiver lookups go through a secondary index.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id uuid PRIMARY KEY,
			email text UNIQUE NOT NULL,
			password text NOT NULL,
			username text NOT NULL,
			given_name text NOT NULL DEFAULT '',
			surname text NOT NULL DEFAULT '',
			friends uuid[] NOT NULL DEFAULT '{}'
		)`,
		`CREATE TABLE IF NOT EXISTS friend_invitations (
			id uuid PRIMARY KEY,
			inviter uuid NOT NULL,
			receiver uuid NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS friend_invitations_receiver_idx
			ON friend_invitations (receiver)`,
	}
	for _, q := range stmts {
		if _, err := pool.Exec(ctx, q); err != nil {
			return fmt.Errorf("failed to provision schema: %w", err)
		}
	}
	return nil
}
