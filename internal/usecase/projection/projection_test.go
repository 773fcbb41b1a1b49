package projection

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
	"github.com/simaogato/coinfolio-backend/internal/usecase/valuation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portfolioOf(holdings ...domain.Holding) domain.Portfolio {
	p := domain.Portfolio{Holdings: holdings}
	valuation.Aggregate(&p)
	return p
}

func bitcoinHolding() domain.Holding {
	return domain.Holding{
		ID:            uuid.New(),
		CoinID:        "bitcoin",
		Amount:        decimal.NewFromInt(2),
		PurchasePrice: decimal.NewFromInt(20000),
		CurrentPrice:  decimal.NewFromInt(25000),
	}
}

func batchOf(entries map[domain.PredictionKey]int64) *domain.PredictionBatch {
	b := &domain.PredictionBatch{Version: 1, Predictions: map[domain.PredictionKey]domain.Prediction{}}
	for k, price := range entries {
		b.Predictions[k] = domain.Prediction{CoinID: k.CoinID, Horizon: k.Horizon, PredictedPrice: decimal.NewFromInt(price)}
	}
	return b
}

func TestProject_BitcoinExample(t *testing.T) {
	p := portfolioOf(bitcoinHolding())
	batch := batchOf(map[domain.PredictionKey]int64{
		{CoinID: "bitcoin", Horizon: domain.Horizon24h}: 26000,
	})

	assert.True(t, decimal.NewFromInt(52000).Equal(Project(p.Holdings, batch, domain.Horizon24h)))
	// No 168h entry: fallback to current value
	assert.True(t, decimal.NewFromInt(50000).Equal(Project(p.Holdings, batch, domain.Horizon7d)))
}

func TestProject_FullFallback(t *testing.T) {
	eth := domain.Holding{ID: uuid.New(), CoinID: "ethereum", Amount: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(1500)}
	p := portfolioOf(bitcoinHolding(), eth)

	// Nil batch and a batch with entries only for other coins both fall back entirely
	assert.True(t, p.TotalValue.Equal(Project(p.Holdings, nil, domain.Horizon24h)))
	other := batchOf(map[domain.PredictionKey]int64{{CoinID: "solana", Horizon: domain.Horizon24h}: 20})
	assert.True(t, p.TotalValue.Equal(Project(p.Holdings, other, domain.Horizon24h)))
}

func TestProject_AllPredicted(t *testing.T) {
	eth := domain.Holding{ID: uuid.New(), CoinID: "ethereum", Amount: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(1500)}
	btc2 := bitcoinHolding()
	btc2.Amount = decimal.RequireFromString("0.5")
	p := portfolioOf(bitcoinHolding(), eth, btc2)

	batch := batchOf(map[domain.PredictionKey]int64{
		{CoinID: "bitcoin", Horizon: domain.Horizon7d}:  30000,
		{CoinID: "ethereum", Horizon: domain.Horizon7d}: 1000,
	})

	// 2*30000 + 10*1000 + 0.5*30000
	assert.True(t, decimal.NewFromInt(85000).Equal(Project(p.Holdings, batch, domain.Horizon7d)))
}

func TestProjectAll(t *testing.T) {
	eth := domain.Holding{ID: uuid.New(), CoinID: "ethereum", Amount: decimal.NewFromInt(10), CurrentPrice: decimal.NewFromInt(1500)}
	p := portfolioOf(bitcoinHolding(), eth)
	batch := batchOf(map[domain.PredictionKey]int64{
		{CoinID: "bitcoin", Horizon: domain.Horizon24h}:  26000,
		{CoinID: "ethereum", Horizon: domain.Horizon24h}: 1200,
		{CoinID: "bitcoin", Horizon: domain.Horizon7d}:   24000,
	})

	projections := ProjectAll(p, batch, domain.DefaultHorizons)
	require.Len(t, projections, 2)

	day := projections[0]
	assert.Equal(t, domain.Horizon24h, day.Horizon)
	assert.True(t, decimal.NewFromInt(64000).Equal(day.Total)) // 52000 + 12000
	assert.True(t, decimal.NewFromInt(-1000).Equal(day.Change))
	assert.True(t, day.Complete)
	assert.Equal(t, 2, day.Covered)

	week := projections[1]
	assert.True(t, decimal.NewFromInt(63000).Equal(week.Total)) // 48000 + 15000 fallback
	assert.False(t, week.Complete)
	assert.Equal(t, 1, week.Covered)
	require.Len(t, week.Breakdown, 2)
	assert.Equal(t, "bitcoin", week.Breakdown[0].CoinID)
	assert.True(t, decimal.NewFromInt(-4).Equal(week.Breakdown[0].ChangePercent))
	assert.Nil(t, week.Breakdown[1].Prediction)
	assert.True(t, week.Breakdown[1].ChangePercent.IsZero())
}

func TestPreview(t *testing.T) {
	batch := batchOf(map[domain.PredictionKey]int64{{CoinID: "bitcoin", Horizon: domain.Horizon24h}: 26000})

	value, ok := Preview("bitcoin", decimal.RequireFromString("0.5"), batch, domain.Horizon24h)
	assert.True(t, ok)
	assert.True(t, decimal.NewFromInt(13000).Equal(value))

	_, ok = Preview("bitcoin", decimal.NewFromInt(1), batch, domain.Horizon7d)
	assert.False(t, ok)
}
