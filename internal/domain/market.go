package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the display currency used until the user picks another
const DefaultCurrency = "usd"

// NormalizeCurrency lowercases and trims a currency code
func NormalizeCurrency(code string) string {
	return strings.ToLower(strings.TrimSpace(code))
}

// Coin is the market view of one asset in one currency
type Coin struct {
	ID                       string
	Symbol                   string
	Name                     string
	Image                    string
	CurrentPrice             decimal.Decimal
	PriceChangePercentage24h decimal.Decimal
}

// MarketSnapshot is the latest known set of market prices in one currency
type MarketSnapshot struct {
	Currency  string
	Coins     map[string]Coin
	FetchedAt time.Time
}

// Coin returns the market entry for a coin id
func (s *MarketSnapshot) Coin(id string) (Coin, bool) {
	if s == nil {
		return Coin{}, false
	}
	c, ok := s.Coins[id]
	return c, ok
}

// Prices returns the current price of every coin in the snapshot
func (s *MarketSnapshot) Prices() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(s.Coins))
	for id, c := range s.Coins {
		out[id] = c.CurrentPrice
	}
	return out
}
