// Package db opens the PostgreSQL database and runs the startup and
// background maintenance tasks of the server.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            BIGSERIAL PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    password_hash BYTEA NOT NULL,
    role          TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('admin', 'user')),
    approved      BOOLEAN NOT NULL DEFAULT FALSE,
    created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS vendors (
    id      BIGSERIAL PRIMARY KEY,
    name    TEXT NOT NULL,
    country TEXT
);

CREATE TABLE IF NOT EXISTS models (
    id          BIGSERIAL PRIMARY KEY,
    vendor_id   BIGINT NOT NULL REFERENCES vendors(id) ON DELETE RESTRICT,
    name        TEXT NOT NULL,
    device_type TEXT
);

CREATE TABLE IF NOT EXISTS locations (
    id   BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL,
    note TEXT
);

CREATE TABLE IF NOT EXISTS devices (
    id               BIGSERIAL PRIMARY KEY,
    model_id         BIGINT NOT NULL REFERENCES models(id) ON DELETE RESTRICT,
    location_id      BIGINT REFERENCES locations(id) ON DELETE RESTRICT,
    serial_number    TEXT,
    inventory_number TEXT,
    status           TEXT NOT NULL DEFAULT 'active',
    installed_at     DATE,
    description      TEXT
);

CREATE INDEX IF NOT EXISTS devices_model_id_idx ON devices (model_id);
CREATE INDEX IF NOT EXISTS devices_location_id_idx ON devices (location_id);
CREATE INDEX IF NOT EXISTS users_pending_idx ON users (created_at) WHERE approved = false;
`

// Pool limits applied to every connection opened by InitPostgres.
const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// InitPostgres connects to dsn, checks the connection and creates the schema
// if it does not exist yet.
func InitPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	if err := createSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func createSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}
