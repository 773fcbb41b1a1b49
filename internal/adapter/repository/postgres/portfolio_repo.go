package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository
type portfolioRepository struct {
	db *DB
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *DB) domain.PortfolioRepository {
	return &portfolioRepository{db: db}
}

// Save replaces the stored portfolio and its holdings in one transaction
func (r *portfolioRepository) Save(ctx context.Context, snapshot *domain.Portfolio) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	upsert := `
		INSERT INTO portfolios (user_id, currency, total_value, total_cost, total_pnl, total_pnl_percentage, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			currency = EXCLUDED.currency,
			total_value = EXCLUDED.total_value,
			total_cost = EXCLUDED.total_cost,
			total_pnl = EXCLUDED.total_pnl,
			total_pnl_percentage = EXCLUDED.total_pnl_percentage,
			updated_at = EXCLUDED.updated_at
	`
	_, err = tx.ExecContext(ctx, upsert,
		snapshot.UserID,
		snapshot.Currency,
		snapshot.TotalValue.String(),
		snapshot.TotalCost.String(),
		snapshot.TotalPnL.String(),
		snapshot.TotalPnLPercentage.String(),
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert portfolio: %w", domain.ErrPersistence, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE user_id = $1`, snapshot.UserID); err != nil {
		return fmt.Errorf("%w: failed to clear holdings: %w", domain.ErrPersistence, err)
	}

	insert := `
		INSERT INTO holdings (id, user_id, position, coin_id, coin_name, coin_symbol, coin_image,
			amount, purchase_price, current_price, added_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for i, h := range snapshot.Holdings {
		_, err := tx.ExecContext(ctx, insert,
			h.ID,
			snapshot.UserID,
			i,
			h.CoinID,
			h.CoinName,
			h.CoinSymbol,
			h.CoinImage,
			h.Amount.String(),
			h.PurchasePrice.String(),
			h.CurrentPrice.String(),
			h.AddedAt,
		)
		if err != nil {
			return fmt.Errorf("%w: failed to insert holding %s: %w", domain.ErrPersistence, h.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit portfolio: %w", domain.ErrPersistence, err)
	}
	return nil
}

// Get retrieves the stored portfolio of a user; unknown users get an empty portfolio
func (r *portfolioRepository) Get(ctx context.Context, userID string) (*domain.Portfolio, error) {
	query := `
		SELECT currency, total_value, total_cost, total_pnl, total_pnl_percentage
		FROM portfolios
		WHERE user_id = $1
	`

	p := domain.Portfolio{UserID: userID, Holdings: []domain.Holding{}}
	var totalValue, totalCost, totalPnL, totalPnLPct string

	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&p.Currency,
		&totalValue,
		&totalCost,
		&totalPnL,
		&totalPnLPct,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &p, nil
		}
		return nil, fmt.Errorf("%w: failed to get portfolio: %w", domain.ErrPersistence, err)
	}

	if err := parseDecimals(
		field{"total_value", totalValue, &p.TotalValue},
		field{"total_cost", totalCost, &p.TotalCost},
		field{"total_pnl", totalPnL, &p.TotalPnL},
		field{"total_pnl_percentage", totalPnLPct, &p.TotalPnLPercentage},
	); err != nil {
		return nil, err
	}

	holdings, err := r.listHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	p.Holdings = holdings

	return &p, nil
}

// listHoldings retrieves the holdings of a user in display order
func (r *portfolioRepository) listHoldings(ctx context.Context, userID string) ([]domain.Holding, error) {
	query := `
		SELECT id, coin_id, coin_name, coin_symbol, coin_image, amount, purchase_price, current_price, added_at
		FROM holdings
		WHERE user_id = $1
		ORDER BY position ASC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list holdings: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	holdings := make([]domain.Holding, 0)
	for rows.Next() {
		var h domain.Holding
		var amount, purchasePrice, currentPrice string

		if err := rows.Scan(
			&h.ID,
			&h.CoinID,
			&h.CoinName,
			&h.CoinSymbol,
			&h.CoinImage,
			&amount,
			&purchasePrice,
			&currentPrice,
			&h.AddedAt,
		); err != nil {
			return nil, fmt.Errorf("%w: failed to scan holding: %w", domain.ErrPersistence, err)
		}

		if err := parseDecimals(
			field{"amount", amount, &h.Amount},
			field{"purchase_price", purchasePrice, &h.PurchasePrice},
			field{"current_price", currentPrice, &h.CurrentPrice},
		); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate holdings: %w", domain.ErrPersistence, err)
	}

	return holdings, nil
}

// field is a NUMERIC column read as text
type field struct {
	name  string
	raw   string
	value *decimal.Decimal
}

// parseDecimals parses NUMERIC columns (DECIMAL)
func parseDecimals(fields ...field) error {
	for _, f := range fields {
		v, err := decimal.NewFromString(f.raw)
		if err != nil {
			return fmt.Errorf("%w: failed to parse %s: %w", domain.ErrPersistence, f.name, err)
		}
		*f.value = v
	}
	return nil
}
