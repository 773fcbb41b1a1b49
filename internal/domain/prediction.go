package domain

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Horizon is a forecast lead time in hours
type Horizon int

const (
	Horizon24h Horizon = 24
	Horizon7d  Horizon = 168
)

// DefaultHorizons are requested whenever any holding needs projection display
var DefaultHorizons = []Horizon{Horizon24h, Horizon7d}

// Label renders the horizon the way the dashboard names it ("24h", "7d")
func (h Horizon) Label() string {
	if h%24 == 0 && h > 24 {
		return strconv.Itoa(int(h)/24) + "d"
	}
	return strconv.Itoa(int(h)) + "h"
}

// Trend represents the forecast direction
type Trend string

const (
	TrendBullish Trend = "bullish"
	TrendBearish Trend = "bearish"
)

// Prediction is an external forecast of one coin's price at a given horizon and currency
// Treated as immutable once received.
type Prediction struct {
	CoinID                 string
	Horizon                Horizon
	Currency               string
	CurrentPrice           decimal.Decimal
	PredictedPrice         decimal.Decimal
	ConservativePrediction decimal.Decimal
	OptimisticPrediction   decimal.Decimal
	Confidence             decimal.Decimal // 0-100
	Trend                  Trend
	PredictionTimestamp    time.Time
	Volatility             decimal.Decimal
	AverageDailyChange     decimal.Decimal
}

var hundred = decimal.NewFromInt(100)

// Validate checks the forecast is usable for projections
// The predicted price must lie between the conservative and optimistic bounds,
// in either ordering: the forecaster swaps them for bearish trends.
func (p *Prediction) Validate() error {
	if p.PredictedPrice.IsNegative() {
		return fmt.Errorf("%w: negative predicted price", ErrValidation)
	}
	if p.Confidence.IsNegative() || p.Confidence.GreaterThan(hundred) {
		return fmt.Errorf("%w: confidence %s out of range", ErrValidation, p.Confidence)
	}
	if p.Trend != TrendBullish && p.Trend != TrendBearish {
		return fmt.Errorf("%w: unknown trend %q", ErrValidation, p.Trend)
	}

	lo, hi := p.ConservativePrediction, p.OptimisticPrediction
	if lo.GreaterThan(hi) {
		lo, hi = hi, lo
	}
	if p.PredictedPrice.LessThan(lo) || p.PredictedPrice.GreaterThan(hi) {
		return fmt.Errorf("%w: predicted price %s outside range [%s, %s]", ErrValidation, p.PredictedPrice, lo, hi)
	}
	return nil
}

// PredictionKey identifies a batch entry
type PredictionKey struct {
	CoinID  string
	Horizon Horizon
}

// PredictionBatch is one versioned, atomically committed set of predictions
// Entries exist only for the (coin, horizon) pairs whose fetch succeeded.
type PredictionBatch struct {
	Version     uint64
	Fingerprint string // CoinSet fingerprint the batch was computed for
	Currency    string
	Predictions map[PredictionKey]Prediction
	CommittedAt time.Time
}

// Get returns the prediction for a pair; ok is false when absent or when the batch is nil
func (b *PredictionBatch) Get(coinID string, horizon Horizon) (Prediction, bool) {
	if b == nil {
		return Prediction{}, false
	}
	p, ok := b.Predictions[PredictionKey{CoinID: coinID, Horizon: horizon}]
	return p, ok
}

// Len returns the number of present predictions
func (b *PredictionBatch) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Predictions)
}
