package postgres

import (
	"context"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

func New(dsn string) (*sqlx.DB, error) {
	return sqlx.Connect("pgx", dsn)
}

const schema = `
CREATE TABLE IF NOT EXISTS user_account (
    id                     UUID PRIMARY KEY,
    name                   TEXT NOT NULL,
    email                  TEXT NOT NULL UNIQUE,
    password_hash          TEXT NOT NULL,
    reset_token_hash       TEXT,
    reset_token_expires_at TIMESTAMPTZ,
    created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    CONSTRAINT user_account_reset_pair CHECK ((reset_token_hash IS NULL) = (reset_token_expires_at IS NULL))
);
CREATE INDEX IF NOT EXISTS user_account_reset_token_hash_idx ON user_account (reset_token_hash);
`

// EnsureSchema creates the user table and its indexes when missing.
func EnsureSchema(ctx context.Context, db *sqlx.DB) error {
	_, err := db.ExecContext(ctx, schema)
	return err
}
