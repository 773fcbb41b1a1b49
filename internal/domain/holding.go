package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding represents one owned position in a coin
// ID, CoinID and PurchasePrice never change after creation.
// CurrentPrice and the derived fields follow the market.
type Holding struct {
	ID            uuid.UUID
	CoinID        string
	CoinName      string
	CoinSymbol    string
	CoinImage     string
	Amount        decimal.Decimal
	PurchasePrice decimal.Decimal // Price paid per unit
	CurrentPrice  decimal.Decimal // Latest known market price per unit
	AddedAt       time.Time

	// Derived from Amount, PurchasePrice and CurrentPrice
	Value         decimal.Decimal
	CostBasis     decimal.Decimal
	PnL           decimal.Decimal
	PnLPercentage decimal.Decimal
}

// Validate ensures the holding adheres to domain rules
// Returns an error wrapping ErrValidation if validation fails
func (h *Holding) Validate() error {
	if h.CoinID == "" {
		return fmt.Errorf("%w: coin id cannot be empty", ErrValidation)
	}
	if h.Amount.IsNegative() {
		return fmt.Errorf("%w: amount cannot be negative", ErrValidation)
	}
	if h.PurchasePrice.IsNegative() {
		return fmt.Errorf("%w: purchase price cannot be negative", ErrValidation)
	}
	if h.CurrentPrice.IsNegative() {
		return fmt.Errorf("%w: current price cannot be negative", ErrValidation)
	}
	return nil
}
