package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
)

// portfolioRepository implements domain.PortfolioRepository on SQLite
// Decimals are stored as text, timestamps as unix milliseconds.
type portfolioRepository struct {
	db *DB
}

// NewPortfolioRepository creates a new SQLite portfolio repository
func NewPortfolioRepository(db *DB) domain.PortfolioRepository {
	return &portfolioRepository{db: db}
}

func (r *portfolioRepository) Save(ctx context.Context, snapshot *domain.Portfolio) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: failed to begin transaction: %w", domain.ErrPersistence, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO portfolios (user_id, currency, total_value, total_cost, total_pnl, total_pnl_percentage, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			currency = excluded.currency,
			total_value = excluded.total_value,
			total_cost = excluded.total_cost,
			total_pnl = excluded.total_pnl,
			total_pnl_percentage = excluded.total_pnl_percentage,
			updated_at = excluded.updated_at`,
		snapshot.UserID,
		snapshot.Currency,
		snapshot.TotalValue.String(),
		snapshot.TotalCost.String(),
		snapshot.TotalPnL.String(),
		snapshot.TotalPnLPercentage.String(),
		time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: failed to upsert portfolio: %w", domain.ErrPersistence, err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM holdings WHERE user_id = ?`, snapshot.UserID); err != nil {
		return fmt.Errorf("%w: failed to clear holdings: %w", domain.ErrPersistence, err)
	}

	for i, h := range snapshot.Holdings {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO holdings (id, user_id, position, coin_id, coin_name, coin_symbol, coin_image,
				amount, purchase_price, current_price, added_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			h.ID.String(),
			snapshot.UserID,
			i,
			h.CoinID,
			h.CoinName,
			h.CoinSymbol,
			h.CoinImage,
			h.Amount.String(),
			h.PurchasePrice.String(),
			h.CurrentPrice.String(),
			h.AddedAt.UnixMilli(),
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

func (r *portfolioRepository) Get(ctx context.Context, userID string) (*domain.Portfolio, error) {
	p := domain.Portfolio{UserID: userID, Holdings: []domain.Holding{}}
	var totals [4]string

	err := r.db.QueryRowContext(ctx, `
		SELECT currency, total_value, total_cost, total_pnl, total_pnl_percentage
		FROM portfolios WHERE user_id = ?`, userID).
		Scan(&p.Currency, &totals[0], &totals[1], &totals[2], &totals[3])
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &p, nil
		}
		return nil, fmt.Errorf("%w: failed to get portfolio: %w", domain.ErrPersistence, err)
	}

	targets := []*decimal.Decimal{&p.TotalValue, &p.TotalCost, &p.TotalPnL, &p.TotalPnLPercentage}
	for i, raw := range totals {
		if *targets[i], err = decimal.NewFromString(raw); err != nil {
			return nil, fmt.Errorf("%w: failed to parse portfolio totals: %w", domain.ErrPersistence, err)
		}
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, coin_id, coin_name, coin_symbol, coin_image, amount, purchase_price, current_price, added_at
		FROM holdings WHERE user_id = ? ORDER BY position ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list holdings: %w", domain.ErrPersistence, err)
	}
	defer rows.Close()

	for rows.Next() {
		h, err := scanHolding(rows)
		if err != nil {
			return nil, err
		}
		p.Holdings = append(p.Holdings, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: failed to iterate holdings: %w", domain.ErrPersistence, err)
	}

	return &p, nil
}

func scanHolding(rows *sql.Rows) (domain.Holding, error) {
	var h domain.Holding
	var id, amount, purchasePrice, currentPrice string
	var addedAt int64

	if err := rows.Scan(&id, &h.CoinID, &h.CoinName, &h.CoinSymbol, &h.CoinImage,
		&amount, &purchasePrice, &currentPrice, &addedAt); err != nil {
		return h, fmt.Errorf("%w: failed to scan holding: %w", domain.ErrPersistence, err)
	}

	var err error
	if h.ID, err = uuid.Parse(id); err != nil {
		return h, fmt.Errorf("%w: failed to parse holding id: %w", domain.ErrPersistence, err)
	}
	if h.Amount, err = decimal.NewFromString(amount); err != nil {
		return h, fmt.Errorf("%w: failed to parse amount: %w", domain.ErrPersistence, err)
	}
	if h.PurchasePrice, err = decimal.NewFromString(purchasePrice); err != nil {
		return h, fmt.Errorf("%w: failed to parse purchase_price: %w", domain.ErrPersistence, err)
	}
	if h.CurrentPrice, err = decimal.NewFromString(currentPrice); err != nil {
		return h, fmt.Errorf("%w: failed to parse current_price: %w", domain.ErrPersistence, err)
	}
	h.AddedAt = time.UnixMilli(addedAt).UTC()

	return h, nil
}
