package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the use cases and adapters.
// Callers wrap them with fmt.Errorf("...: %w", err) and test with errors.Is.
var (
	// ErrValidation marks input rejected before any state change
	ErrValidation = errors.New("invalid input")

	// ErrUnknownCoin is a validation failure: the coin is absent from the market snapshot
	ErrUnknownCoin = fmt.Errorf("%w: unknown coin", ErrValidation)

	// ErrPersistence marks a failed save or load against the portfolio store
	ErrPersistence = errors.New("persistence failure")

	// ErrPredictionUnavailable marks a failed forecast fetch for one (coin, horizon, currency)
	ErrPredictionUnavailable = errors.New("prediction unavailable")
)
