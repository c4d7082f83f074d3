package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EnsureSchema creates the persistence tables when missing. Called once at
// startup before any store is used.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS user_contexts (
			phone      TEXT PRIMARY KEY,
			history    JSONB NOT NULL DEFAULT '[]'::jsonb,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS group_members (
			group_id     TEXT PRIMARY KEY,
			group_name   TEXT NOT NULL DEFAULT '',
			members      JSONB NOT NULL DEFAULT '[]'::jsonb,
			member_count INT NOT NULL DEFAULT 0,
			captured_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			expires_at   TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_group_members_expires_at ON group_members (expires_at)`,
		`CREATE TABLE IF NOT EXISTS leads (
			id      BIGSERIAL PRIMARY KEY,
			company TEXT NOT NULL,
			contact TEXT NOT NULL DEFAULT '',
			role    TEXT NOT NULL DEFAULT '',
			sector  TEXT NOT NULL,
			region  TEXT NOT NULL DEFAULT '',
			email   TEXT
		)`,
	}
	for _, stmt := range ddl {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}
