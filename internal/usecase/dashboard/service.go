package dashboard

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
	"github.com/simaogato/coinfolio-backend/internal/usecase/holdings"
	"github.com/simaogato/coinfolio-backend/internal/usecase/market"
	"github.com/simaogato/coinfolio-backend/internal/usecase/prediction"
	"github.com/simaogato/coinfolio-backend/internal/usecase/projection"
	"github.com/simaogato/coinfolio-backend/internal/usecase/valuation"
)

// Overview is everything the portfolio page shows
type Overview struct {
	Portfolio   domain.Portfolio
	Projections []projection.Projection
	Batch       *domain.PredictionBatch
	Predicting  bool
	MarketAsOf  time.Time
}

// PreviewInput represents a prospective holding shown before it is added
type PreviewInput struct {
	CoinID        string
	Amount        decimal.Decimal
	PurchasePrice decimal.Decimal
}

// PreviewResult is the valuation and forecast of a prospective holding
type PreviewResult struct {
	Coin      domain.Coin
	Valuation valuation.Valuation
	Forecasts []PreviewForecast
}

// PreviewForecast is the projected value of a prospective holding at one horizon
type PreviewForecast struct {
	Horizon        domain.Horizon
	ProjectedValue decimal.Decimal
	Available      bool
}

// DashboardService wires the holdings, market and prediction use cases together
// Holding changes are coalesced into a single pending prediction sync that Run consumes.
type DashboardService struct {
	Store       *holdings.HoldingStore
	Market      *market.MarketService
	Predictions *prediction.Coordinator

	logger  *log.Logger
	pending chan struct{}

	// pricingMu serializes market refreshes with currency switches so the
	// store always ends up in the currency the market service quotes
	pricingMu sync.Mutex
}

// NewDashboardService creates a new DashboardService instance
func NewDashboardService(
	store *holdings.HoldingStore,
	marketService *market.MarketService,
	coordinator *prediction.Coordinator,
	logger *log.Logger,
) *DashboardService {
	if logger == nil {
		logger = log.Default()
	}
	s := &DashboardService{
		Store:       store,
		Market:      marketService,
		Predictions: coordinator,
		logger:      logger,
		pending:     make(chan struct{}, 1),
	}
	store.Subscribe(func(domain.Portfolio) { s.requestSync() })
	return s
}

// Start hydrates the store, loads market prices and fetches the first predictions
// A load failure is logged and returned once; the service keeps running with an empty portfolio.
func (s *DashboardService) Start(ctx context.Context) error {
	hydrateErr := s.Store.Hydrate(ctx)

	// A stored display currency wins over the configured default
	if currency := s.Store.Snapshot().Currency; currency != s.Market.Currency() {
		if err := market.ValidateCurrency(currency); err != nil {
			s.logger.Printf("dashboard: ignoring stored currency: %v", err)
		} else {
			s.Market.UseCurrency(currency)
		}
	}

	if err := s.RefreshPrices(ctx); err != nil {
		s.logger.Printf("dashboard: initial market refresh failed: %v", err)
	}
	s.SyncPredictions(ctx)

	return hydrateErr
}

// Run refreshes market prices every interval and syncs predictions after holding changes
// It blocks until ctx is done.
func (s *DashboardService) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.RefreshPrices(ctx); err != nil {
				s.logger.Printf("dashboard: market refresh failed: %v", err)
			}
		case <-s.pending:
			s.SyncPredictions(ctx)
		}
	}
}

// RefreshPrices fetches the latest market snapshot and reprices the holdings
func (s *DashboardService) RefreshPrices(ctx context.Context) error {
	s.pricingMu.Lock()
	defer s.pricingMu.Unlock()

	snapshot, err := s.Market.Refresh(ctx, s.Store.Snapshot().CoinSet())
	if err != nil {
		return err
	}
	s.Store.SetCurrency(snapshot.Currency, snapshot.Prices())
	return nil
}

// SetCurrency switches the display currency
// Logic:
//  1. Validate the currency code
//  2. Fetch market prices in the new currency (nothing changes if this fails)
//  3. Reprice the holdings in the new currency
//  4. Re-trigger predictions for the new currency
func (s *DashboardService) SetCurrency(ctx context.Context, currency string) (*domain.Portfolio, error) {
	if err := market.ValidateCurrency(currency); err != nil {
		return nil, err
	}

	s.pricingMu.Lock()
	defer s.pricingMu.Unlock()

	snapshot, err := s.Market.SetCurrency(ctx, currency, s.Store.Snapshot().CoinSet())
	if err != nil {
		return nil, err
	}
	s.Store.SetCurrency(snapshot.Currency, snapshot.Prices())
	s.requestSync()

	p := s.Store.Snapshot()
	return &p, nil
}

// SyncPredictions re-triggers the coordinator if the coin set or currency changed
func (s *DashboardService) SyncPredictions(ctx context.Context) (*domain.PredictionBatch, bool) {
	p := s.Store.Snapshot()
	return s.Predictions.Sync(ctx, p.Holdings, p.Currency)
}

// AddHolding adds a holding priced from the latest market snapshot
func (s *DashboardService) AddHolding(ctx context.Context, input holdings.AddHoldingInput) (*domain.Holding, error) {
	return s.Store.Add(ctx, input)
}

// RemoveHolding removes a holding; unknown ids are ignored
func (s *DashboardService) RemoveHolding(ctx context.Context, id uuid.UUID) error {
	return s.Store.Remove(ctx, id)
}

// Overview returns the portfolio with its projections at every configured horizon
// Projections only use a batch computed in the portfolio currency; otherwise
// every holding falls back to its current value.
func (s *DashboardService) Overview(ctx context.Context) (*Overview, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p := s.Store.Snapshot()
	batch := s.usableBatch(p.Currency)

	overview := &Overview{
		Portfolio:   p,
		Projections: projection.ProjectAll(p, batch, s.Predictions.Horizons),
		Batch:       batch,
		Predicting:  s.Predictions.InFlight(),
	}
	if snapshot := s.Market.Snapshot(); snapshot != nil {
		overview.MarketAsOf = snapshot.FetchedAt
	}
	return overview, nil
}

// Preview values a prospective holding and projects it with the latest predictions
func (s *DashboardService) Preview(ctx context.Context, input PreviewInput) (*PreviewResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.CoinID == "" {
		return nil, fmt.Errorf("%w: coin id cannot be empty", domain.ErrValidation)
	}
	if input.Amount.IsNegative() || input.PurchasePrice.IsNegative() {
		return nil, fmt.Errorf("%w: amount and purchase price cannot be negative", domain.ErrValidation)
	}

	coin, ok := s.Market.Coin(input.CoinID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCoin, input.CoinID)
	}

	batch := s.usableBatch(s.Store.Snapshot().Currency)
	result := &PreviewResult{
		Coin:      coin,
		Valuation: valuation.Valuate(input.Amount, input.PurchasePrice, coin.CurrentPrice),
	}
	for _, horizon := range s.Predictions.Horizons {
		value, ok := projection.Preview(input.CoinID, input.Amount, batch, horizon)
		result.Forecasts = append(result.Forecasts, PreviewForecast{
			Horizon:        horizon,
			ProjectedValue: value,
			Available:      ok,
		})
	}
	return result, nil
}

func (s *DashboardService) usableBatch(currency string) *domain.PredictionBatch {
	batch := s.Predictions.Latest()
	if batch == nil || batch.Currency != currency {
		return nil
	}
	return batch
}

func (s *DashboardService) requestSync() {
	select {
	case s.pending <- struct{}{}:
	default:
	}
}
