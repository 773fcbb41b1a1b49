package valuation

import (
	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Valuation is the derived view of one position
type Valuation struct {
	Value         decimal.Decimal
	CostBasis     decimal.Decimal
	PnL           decimal.Decimal
	PnLPercentage decimal.Decimal
}

// Valuate computes value, cost basis and P&L of a position
// Logic:
//   - Value = amount * currentPrice
//   - CostBasis = amount * purchasePrice
//   - PnL = Value - CostBasis
//   - PnLPercentage = PnL / CostBasis * 100, or 0 when CostBasis is 0
//
// Pure: inputs are validated upstream, so there are no error conditions.
func Valuate(amount, purchasePrice, currentPrice decimal.Decimal) Valuation {
	value := amount.Mul(currentPrice)
	costBasis := amount.Mul(purchasePrice)
	pnl := value.Sub(costBasis)

	return Valuation{
		Value:         value,
		CostBasis:     costBasis,
		PnL:           pnl,
		PnLPercentage: percentage(pnl, costBasis),
	}
}

// Revalue recomputes the derived fields of a holding in place
func Revalue(h *domain.Holding) {
	v := Valuate(h.Amount, h.PurchasePrice, h.CurrentPrice)
	h.Value = v.Value
	h.CostBasis = v.CostBasis
	h.PnL = v.PnL
	h.PnLPercentage = v.PnLPercentage
}

// Aggregate revalues every holding and recomputes the portfolio totals
// This is the only writer of the portfolio aggregate fields.
func Aggregate(p *domain.Portfolio) {
	totalValue := decimal.Zero
	totalCost := decimal.Zero
	for i := range p.Holdings {
		Revalue(&p.Holdings[i])
		totalValue = totalValue.Add(p.Holdings[i].Value)
		totalCost = totalCost.Add(p.Holdings[i].CostBasis)
	}

	p.TotalValue = totalValue
	p.TotalCost = totalCost
	p.TotalPnL = totalValue.Sub(totalCost)
	p.TotalPnLPercentage = percentage(p.TotalPnL, totalCost)
}

// percentage returns part/base*100, defined as 0 when base is not positive
func percentage(part, base decimal.Decimal) decimal.Decimal {
	if !base.IsPositive() {
		return decimal.Zero
	}
	return part.Div(base).Mul(hundred)
}
