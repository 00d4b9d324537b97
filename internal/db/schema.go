package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema holds the three relations: credentials, one profile per user, and the workout log.
const Schema = `
CREATE TABLE IF NOT EXISTS users
(
    id            SERIAL PRIMARY KEY,
    email         VARCHAR     NOT NULL UNIQUE,
    username      VARCHAR     NOT NULL UNIQUE,
    password_hash VARCHAR     NOT NULL,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS user_details
(
    username VARCHAR PRIMARY KEY REFERENCES users (username),
    gender   VARCHAR NOT NULL,
    age      INTEGER NOT NULL,
    height   INTEGER NOT NULL,
    weight   INTEGER NOT NULL,
    bmi      DOUBLE PRECISION
);

CREATE TABLE IF NOT EXISTS progress
(
    id              SERIAL PRIMARY KEY,
    username        VARCHAR          NOT NULL REFERENCES users (username),
    date            DATE             NOT NULL,
    duration        INTEGER          NOT NULL,
    heart_rate      INTEGER          NOT NULL,
    body_temp       DOUBLE PRECISION NOT NULL,
    steps_taken     INTEGER          NOT NULL,
    calories_burned DOUBLE PRECISION NOT NULL
);

CREATE INDEX IF NOT EXISTS ix_progress_username_date ON progress (username, date);
`

// EnsureSchema creates missing tables, safe to run on every start
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
