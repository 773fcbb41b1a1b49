package holdings

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
	"github.com/simaogato/coinfolio-backend/internal/usecase/valuation"
)

// PriceSource resolves a coin against the latest known market snapshot
type PriceSource interface {
	Coin(coinID string) (domain.Coin, bool)
}

// AddHoldingInput represents the input for adding a holding
// Amount and PurchasePrice are pointers so that a missing value can be told apart from zero.
type AddHoldingInput struct {
	CoinID        string
	Amount        *decimal.Decimal
	PurchasePrice *decimal.Decimal
}

// Validate checks the input before any lookup or state change
func (in AddHoldingInput) Validate() error {
	if in.CoinID == "" {
		return fmt.Errorf("%w: coin id cannot be empty", domain.ErrValidation)
	}
	if in.Amount == nil {
		return fmt.Errorf("%w: amount is required", domain.ErrValidation)
	}
	if in.Amount.IsNegative() {
		return fmt.Errorf("%w: amount cannot be negative", domain.ErrValidation)
	}
	if in.PurchasePrice == nil {
		return fmt.Errorf("%w: purchase price is required", domain.ErrValidation)
	}
	if in.PurchasePrice.IsNegative() {
		return fmt.Errorf("%w: purchase price cannot be negative", domain.ErrValidation)
	}
	return nil
}

// HoldingStore owns the ordered holdings of one user and the portfolio aggregates
// Every committed state has been saved through Repo first, so memory never
// diverges from the durable snapshot.
type HoldingStore struct {
	Repo   domain.PortfolioRepository
	Prices PriceSource

	logger *log.Logger
	now    func() time.Time

	// mutateMu serializes mutations, including their save call
	mutateMu  sync.Mutex
	mu        sync.RWMutex
	portfolio domain.Portfolio
	listeners []func(domain.Portfolio)
}

// NewHoldingStore creates an empty HoldingStore; call Hydrate to load the stored portfolio
func NewHoldingStore(repo domain.PortfolioRepository, prices PriceSource, userID, currency string, logger *log.Logger) *HoldingStore {
	if logger == nil {
		logger = log.Default()
	}
	if userID == "" {
		userID = domain.DefaultUserID
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	p := domain.Portfolio{UserID: userID, Currency: domain.NormalizeCurrency(currency), Holdings: []domain.Holding{}}
	valuation.Aggregate(&p)

	return &HoldingStore{
		Repo:      repo,
		Prices:    prices,
		logger:    logger,
		now:       time.Now,
		portfolio: p,
	}
}

// Subscribe registers a listener called with the new state after every committed change
// Listeners run while mutations are serialized: they must return quickly and
// must not mutate the store.
func (s *HoldingStore) Subscribe(fn func(domain.Portfolio)) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Hydrate loads the stored portfolio once at startup
// On failure the store stays empty and the error is returned.
func (s *HoldingStore) Hydrate(ctx context.Context) error {
	userID := s.Snapshot().UserID

	stored, err := s.Repo.Get(ctx, userID)
	if err != nil {
		s.logger.Printf("holdings: failed to load portfolio of %s, starting empty: %v", userID, err)
		return persistenceError("load", err)
	}
	if stored == nil {
		stored = &domain.Portfolio{}
	}

	_, _, err = s.mutate(ctx, false, func(p *domain.Portfolio) bool {
		p.Holdings = append([]domain.Holding{}, stored.Holdings...)
		if stored.Currency != "" {
			p.Currency = domain.NormalizeCurrency(stored.Currency)
		}
		return true
	})
	if err != nil {
		return err
	}

	s.logger.Printf("holdings: loaded %d holdings for %s", len(stored.Holdings), userID)
	return nil
}

// Add validates the input, prices the new holding and appends it
// Logic:
//  1. Validate coin id, amount and purchase price
//  2. Resolve the current price from the market snapshot (ErrUnknownCoin if absent)
//  3. Append with a fresh ID, recompute aggregates, save the full snapshot
//  4. Commit only once the save succeeded
func (s *HoldingStore) Add(ctx context.Context, input AddHoldingInput) (*domain.Holding, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}

	coin, ok := s.Prices.Coin(input.CoinID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownCoin, input.CoinID)
	}

	holding := domain.Holding{
		ID:            uuid.New(),
		CoinID:        input.CoinID,
		CoinName:      coin.Name,
		CoinSymbol:    coin.Symbol,
		CoinImage:     coin.Image,
		Amount:        *input.Amount,
		PurchasePrice: *input.PurchasePrice,
		CurrentPrice:  coin.CurrentPrice,
		AddedAt:       s.now(),
	}
	if err := holding.Validate(); err != nil {
		return nil, err
	}

	next, _, err := s.mutate(ctx, true, func(p *domain.Portfolio) bool {
		p.Holdings = append(p.Holdings, holding)
		return true
	})
	if err != nil {
		return nil, err
	}

	added := next.Holdings[next.IndexOf(holding.ID)]
	return &added, nil
}

// Remove deletes the holding with the given id
// Removing an unknown id is a no-op.
func (s *HoldingStore) Remove(ctx context.Context, id uuid.UUID) error {
	_, _, err := s.mutate(ctx, true, func(p *domain.Portfolio) bool {
		i := p.IndexOf(id)
		if i < 0 {
			return false
		}
		p.Holdings = append(p.Holdings[:i], p.Holdings[i+1:]...)
		return true
	})
	return err
}

// List returns a copy of the holdings in display order
func (s *HoldingStore) List() []domain.Holding {
	return s.Snapshot().Holdings
}

// Snapshot returns a copy of the full portfolio
func (s *HoldingStore) Snapshot() domain.Portfolio {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.portfolio.Clone()
}

// ReplaceCurrentPrices updates the current price of every held coin present in prices
// Coins absent from the map keep their price. Never fails and does not persist.
func (s *HoldingStore) ReplaceCurrentPrices(prices map[string]decimal.Decimal) {
	_, _, _ = s.mutate(context.Background(), false, func(p *domain.Portfolio) bool {
		return applyPrices(p, prices)
	})
}

// SetCurrency switches the portfolio currency together with the prices quoted in it
func (s *HoldingStore) SetCurrency(currency string, prices map[string]decimal.Decimal) {
	currency = domain.NormalizeCurrency(currency)
	_, _, _ = s.mutate(context.Background(), false, func(p *domain.Portfolio) bool {
		changed := applyPrices(p, prices)
		if p.Currency != currency {
			p.Currency = currency
			changed = true
		}
		return changed
	})
}

func applyPrices(p *domain.Portfolio, prices map[string]decimal.Decimal) bool {
	changed := false
	for i := range p.Holdings {
		price, ok := prices[p.Holdings[i].CoinID]
		if !ok || price.IsNegative() {
			continue
		}
		if !price.Equal(p.Holdings[i].CurrentPrice) {
			p.Holdings[i].CurrentPrice = price
			changed = true
		}
	}
	return changed
}

// mutate applies a change to a copy of the state, recomputes the aggregates,
// optionally saves the copy and only then commits it and notifies listeners.
// apply returns false when there is nothing to change.
func (s *HoldingStore) mutate(ctx context.Context, persist bool, apply func(p *domain.Portfolio) bool) (domain.Portfolio, bool, error) {
	s.mutateMu.Lock()
	defer s.mutateMu.Unlock()

	next := s.Snapshot()
	if !apply(&next) {
		return next, false, nil
	}
	valuation.Aggregate(&next)

	if persist {
		if err := s.Repo.Save(ctx, &next); err != nil {
			s.logger.Printf("holdings: save failed, mutation discarded: %v", err)
			return domain.Portfolio{}, false, persistenceError("save", err)
		}
	}

	s.mu.Lock()
	s.portfolio = next
	s.mu.Unlock()

	for _, fn := range s.listeners {
		fn(next.Clone())
	}
	return next, true, nil
}

func persistenceError(op string, err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return fmt.Errorf("failed to %s portfolio: %w", op, err)
	}
	return fmt.Errorf("failed to %s portfolio: %w: %w", op, domain.ErrPersistence, err)
}
