package market

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/simaogato/coinfolio-backend/internal/domain"
)

// DefaultCatalog lists the coins offered when adding a holding
var DefaultCatalog = []string{
	"bitcoin", "ethereum", "tether", "binancecoin", "solana",
	"cardano", "xrp", "polkadot", "chainlink", "litecoin",
	"polygon", "avalanche-2", "dogecoin", "shiba-inu", "stellar",
	"internet-computer", "vechain", "filecoin", "tron", "ethereum-classic",
	"cosmos", "tezos", "eos", "monero", "bitcoin-cash",
}

// MarketService caches the latest market snapshot for the catalog and the held coins
type MarketService struct {
	Provider domain.MarketDataProvider
	Catalog  domain.CoinSet

	logger *log.Logger

	mu       sync.RWMutex
	currency string
	snapshot *domain.MarketSnapshot
}

// NewMarketService creates a new MarketService instance
func NewMarketService(provider domain.MarketDataProvider, catalog []string, currency string, logger *log.Logger) *MarketService {
	if logger == nil {
		logger = log.Default()
	}
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	return &MarketService{
		Provider: provider,
		Catalog:  domain.NewCoinSet(catalog...),
		logger:   logger,
		currency: domain.NormalizeCurrency(currency),
	}
}

// Currency returns the active display currency
func (s *MarketService) Currency() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currency
}

// Snapshot returns the latest snapshot, nil before the first successful refresh
func (s *MarketService) Snapshot() *domain.MarketSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Coin returns the latest market entry for a coin
func (s *MarketService) Coin(coinID string) (domain.Coin, bool) {
	return s.Snapshot().Coin(coinID)
}

// Refresh fetches the catalog plus the held coins in the active currency
// A refresh that finishes after a currency switch is dropped.
func (s *MarketService) Refresh(ctx context.Context, held domain.CoinSet) (*domain.MarketSnapshot, error) {
	currency := s.Currency()

	snapshot, err := s.fetch(ctx, held, currency)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currency != currency {
		s.logger.Printf("market: dropping %s snapshot, currency switched to %s", currency, s.currency)
		return s.snapshot, nil
	}
	s.snapshot = snapshot
	return snapshot, nil
}

// UseCurrency switches the active currency without fetching
// The cached snapshot is dropped when it is quoted in another currency.
func (s *MarketService) UseCurrency(currency string) {
	currency = domain.NormalizeCurrency(currency)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currency == currency {
		return
	}
	s.currency = currency
	if s.snapshot != nil && s.snapshot.Currency != currency {
		s.snapshot = nil
	}
	s.logger.Printf("market: display currency set to %s", currency)
}

// SetCurrency fetches a snapshot in the new currency and switches to it
// The active currency is left untouched if the fetch fails.
func (s *MarketService) SetCurrency(ctx context.Context, currency string, held domain.CoinSet) (*domain.MarketSnapshot, error) {
	currency = domain.NormalizeCurrency(currency)

	snapshot, err := s.fetch(ctx, held, currency)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.currency = currency
	s.snapshot = snapshot
	s.mu.Unlock()

	s.logger.Printf("market: display currency set to %s", currency)
	return snapshot, nil
}

func (s *MarketService) fetch(ctx context.Context, held domain.CoinSet, currency string) (*domain.MarketSnapshot, error) {
	coins := s.Catalog.Union(held)

	snapshot, err := s.Provider.GetMarketSnapshot(ctx, coins.IDs(), currency)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market data in %s: %w", currency, err)
	}
	if snapshot.Currency == "" {
		snapshot.Currency = currency
	}
	return snapshot, nil
}
