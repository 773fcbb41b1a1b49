package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection
type DB struct {
	*sql.DB
}

// Open opens a SQLite database, e.g. "file:/app/data/coinfolio.db?_fk=1"
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// SQLite allows a single writer
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	return &DB{DB: db}, nil
}

const schema = `
CREATE TABLE IF NOT EXISTS portfolios (
	user_id              TEXT PRIMARY KEY,
	currency             TEXT NOT NULL,
	total_value          TEXT NOT NULL,
	total_cost           TEXT NOT NULL,
	total_pnl            TEXT NOT NULL,
	total_pnl_percentage TEXT NOT NULL,
	updated_at           INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	id             TEXT PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES portfolios(user_id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	coin_id        TEXT NOT NULL,
	coin_name      TEXT NOT NULL,
	coin_symbol    TEXT NOT NULL,
	coin_image     TEXT NOT NULL,
	amount         TEXT NOT NULL,
	purchase_price TEXT NOT NULL,
	current_price  TEXT NOT NULL,
	added_at       INTEGER NOT NULL
);
`

// InitSchema ensures the portfolio tables exist
func (db *DB) InitSchema(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to init sqlite schema: %w", err)
	}
	return nil
}
