package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// statements are idempotent so startup can run them unconditionally.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS roles (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL UNIQUE,
		description TEXT NOT NULL DEFAULT '',
		permissions TEXT[] NOT NULL DEFAULT '{}',
		is_system   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		name          TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role          TEXT NOT NULL,
		is_active     BOOLEAN NOT NULL DEFAULT TRUE,
		last_login    TIMESTAMPTZ,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,

	// seq breaks ordering ties between events sharing a timestamp:
	// insertion order wins.
	`CREATE TABLE IF NOT EXISTS audit_events (
		id             UUID PRIMARY KEY,
		seq            BIGSERIAL NOT NULL,
		action         TEXT NOT NULL,
		actor_user_id  UUID,
		actor_email    TEXT NOT NULL,
		target_user_id UUID,
		target_email   TEXT,
		details        JSONB,
		ip_address     TEXT,
		user_agent     TEXT,
		created_at     TIMESTAMPTZ NOT NULL
	)`,

	// the two access patterns the trail is read along
	`CREATE INDEX IF NOT EXISTS idx_audit_events_action_created_at
		ON audit_events (action, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_events_actor_created_at
		ON audit_events (actor_user_id, created_at DESC)`,
}

func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		_, err := pool.Exec(ctx, stmt)

		if err != nil {
			return err
		}
	}

	return nil
}
