package domain

import (
	"context"
)

// PortfolioRepository defines the interface for portfolio persistence operations
// Implementations wrap failures with ErrPersistence.
type PortfolioRepository interface {
	// Save replaces the stored portfolio of snapshot.UserID with the full snapshot
	Save(ctx context.Context, snapshot *Portfolio) error

	// Get retrieves the stored portfolio of a user
	// A user without a stored portfolio gets an empty one, not an error
	Get(ctx context.Context, userID string) (*Portfolio, error)
}

// MarketDataProvider supplies current market prices
type MarketDataProvider interface {
	// GetMarketSnapshot returns market data for the given coins in the given currency
	GetMarketSnapshot(ctx context.Context, coinIDs []string, currency string) (*MarketSnapshot, error)
}

// PredictionProvider supplies externally computed price forecasts
type PredictionProvider interface {
	// GetPrediction fetches the forecast of one coin at one horizon
	// Failures (timeout, network error, non-success response) wrap ErrPredictionUnavailable
	GetPrediction(ctx context.Context, coinID string, horizon Horizon, currency string) (*Prediction, error)
}
