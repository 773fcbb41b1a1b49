package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultUserID is the portfolio owner used when none is configured
const DefaultUserID = "default"

// Portfolio is the ordered holdings collection of one user plus its aggregates
// The aggregates are always the exact sums over Holdings; they are only ever
// written by the valuation package.
type Portfolio struct {
	UserID   string
	Currency string
	Holdings []Holding // Insertion order is display order

	TotalValue         decimal.Decimal
	TotalCost          decimal.Decimal
	TotalPnL           decimal.Decimal
	TotalPnLPercentage decimal.Decimal
}

// Clone returns a deep copy whose holdings slice can be mutated freely
func (p Portfolio) Clone() Portfolio {
	out := p
	out.Holdings = make([]Holding, len(p.Holdings))
	copy(out.Holdings, p.Holdings)
	return out
}

// CoinSet returns the distinct coin ids held in the portfolio
func (p Portfolio) CoinSet() CoinSet {
	return CoinSetOf(p.Holdings)
}

// IndexOf returns the position of the holding with the given id, or -1
func (p Portfolio) IndexOf(id uuid.UUID) int {
	for i := range p.Holdings {
		if p.Holdings[i].ID == id {
			return i
		}
	}
	return -1
}
