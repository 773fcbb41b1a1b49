package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// DB wraps the database connection
type DB struct {
	*sql.DB
}

// NewDB creates a new database connection
// connectionString should be in the format: "host=localhost port=5432 user=postgres password=postgres dbname=coinfolio sslmode=disable"
func NewDB(connectionString string) (*DB, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db}, nil
}

// schema creates the portfolio tables when missing
const schema = `
CREATE TABLE IF NOT EXISTS portfolios (
	user_id              TEXT PRIMARY KEY,
	currency             TEXT NOT NULL,
	total_value          NUMERIC NOT NULL,
	total_cost           NUMERIC NOT NULL,
	total_pnl            NUMERIC NOT NULL,
	total_pnl_percentage NUMERIC NOT NULL,
	updated_at           TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS holdings (
	id             UUID PRIMARY KEY,
	user_id        TEXT NOT NULL REFERENCES portfolios(user_id) ON DELETE CASCADE,
	position       INTEGER NOT NULL,
	coin_id        TEXT NOT NULL,
	coin_name      TEXT NOT NULL,
	coin_symbol    TEXT NOT NULL,
	coin_image     TEXT NOT NULL,
	amount         NUMERIC NOT NULL,
	purchase_price NUMERIC NOT NULL,
	current_price  NUMERIC NOT NULL,
	added_at       TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS holdings_user_position ON holdings (user_id, position);
`

// Migrate ensures the schema exists
func (db *DB) Migrate(ctx context.Context) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.DB.Close()
}
