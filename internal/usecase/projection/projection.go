package projection

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
)

var hundred = decimal.NewFromInt(100)

// Projection is the projected portfolio total at one horizon
type Projection struct {
	Horizon   domain.Horizon
	Total     decimal.Decimal
	Change    decimal.Decimal // Total - current total value
	Covered   int             // Holdings backed by a prediction
	Holdings  int
	Complete  bool // Every holding had a prediction
	Breakdown []HoldingProjection
}

// HoldingProjection is the projected value of one holding at one horizon
type HoldingProjection struct {
	HoldingID      uuid.UUID
	CoinID         string
	ProjectedValue decimal.Decimal
	ChangePercent  decimal.Decimal // Predicted price vs current price, 0 without prediction
	Prediction     *domain.Prediction
}

// Project computes the projected total value of the holdings at a horizon
// Each holding contributes predicted_price * amount when the batch has a
// prediction for its coin, and its current value otherwise.
// A nil batch projects to the current total.
func Project(holdings []domain.Holding, batch *domain.PredictionBatch, horizon domain.Horizon) decimal.Decimal {
	total := decimal.Zero
	for _, h := range holdings {
		total = total.Add(projectHolding(h, batch, horizon).ProjectedValue)
	}
	return total
}

// Breakdown returns the projection of every holding, in holdings order
func Breakdown(holdings []domain.Holding, batch *domain.PredictionBatch, horizon domain.Horizon) []HoldingProjection {
	out := make([]HoldingProjection, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, projectHolding(h, batch, horizon))
	}
	return out
}

// ProjectAll computes one Projection per horizon for a portfolio
func ProjectAll(p domain.Portfolio, batch *domain.PredictionBatch, horizons []domain.Horizon) []Projection {
	out := make([]Projection, 0, len(horizons))
	for _, horizon := range horizons {
		breakdown := Breakdown(p.Holdings, batch, horizon)

		total := decimal.Zero
		covered := 0
		for _, hp := range breakdown {
			total = total.Add(hp.ProjectedValue)
			if hp.Prediction != nil {
				covered++
			}
		}

		out = append(out, Projection{
			Horizon:   horizon,
			Total:     total,
			Change:    total.Sub(p.TotalValue),
			Covered:   covered,
			Holdings:  len(p.Holdings),
			Complete:  covered == len(p.Holdings),
			Breakdown: breakdown,
		})
	}
	return out
}

// Preview projects a prospective position of amount units of a coin
// ok is false when the batch has no prediction for the coin at that horizon.
func Preview(coinID string, amount decimal.Decimal, batch *domain.PredictionBatch, horizon domain.Horizon) (decimal.Decimal, bool) {
	p, ok := batch.Get(coinID, horizon)
	if !ok {
		return decimal.Zero, false
	}
	return p.PredictedPrice.Mul(amount), true
}

func projectHolding(h domain.Holding, batch *domain.PredictionBatch, horizon domain.Horizon) HoldingProjection {
	hp := HoldingProjection{
		HoldingID:      h.ID,
		CoinID:         h.CoinID,
		ProjectedValue: h.Value,
		ChangePercent:  decimal.Zero,
	}

	p, ok := batch.Get(h.CoinID, horizon)
	if !ok {
		// Fallback: no change from the current valuation
		return hp
	}

	hp.Prediction = &p
	hp.ProjectedValue = p.PredictedPrice.Mul(h.Amount)
	if h.CurrentPrice.IsPositive() {
		hp.ChangePercent = p.PredictedPrice.Sub(h.CurrentPrice).Div(h.CurrentPrice).Mul(hundred)
	}
	return hp
}
