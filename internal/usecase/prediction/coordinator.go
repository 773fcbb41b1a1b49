package prediction

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/simaogato/coinfolio-backend/internal/domain"
	"golang.org/x/sync/singleflight"
)

// DefaultFetchTimeout bounds each forecast fetch when no timeout is configured
const DefaultFetchTimeout = 10 * time.Second

// runKey identifies what a run was computed for
type runKey struct {
	fingerprint string
	currency    string
}

// result is the settled outcome of one (coin, horizon) fetch
type result struct {
	key        domain.PredictionKey
	prediction domain.Prediction
	err        error
}

// Coordinator fetches forecasts for every held coin at every horizon and
// commits them as one versioned batch.
// A batch is only committed if no newer run started while it was in flight.
type Coordinator struct {
	Provider domain.PredictionProvider
	Horizons []domain.Horizon
	Timeout  time.Duration

	logger *log.Logger
	now    func() time.Time

	// group deduplicates in-flight fetches per (coin, horizon, currency)
	group singleflight.Group

	mu       sync.RWMutex
	version  uint64
	started  *runKey
	inFlight int
	latest   *domain.PredictionBatch
}

// NewCoordinator creates a new Coordinator instance
func NewCoordinator(provider domain.PredictionProvider, horizons []domain.Horizon, timeout time.Duration, logger *log.Logger) *Coordinator {
	if len(horizons) == 0 {
		horizons = domain.DefaultHorizons
	}
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Coordinator{
		Provider: provider,
		Horizons: append([]domain.Horizon{}, horizons...),
		Timeout:  timeout,
		logger:   logger,
		now:      time.Now,
	}
}

// Latest returns the authoritative batch, nil before the first commit
func (c *Coordinator) Latest() *domain.PredictionBatch {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.latest
}

// InFlight reports whether a run has not settled yet
func (c *Coordinator) InFlight() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.inFlight > 0
}

// Sync runs Refresh only when the coin set or the currency differs from the
// latest started run. It returns the latest batch and whether a new one was committed.
func (c *Coordinator) Sync(ctx context.Context, holdings []domain.Holding, currency string) (*domain.PredictionBatch, bool) {
	key := runKey{
		fingerprint: domain.CoinSetOf(holdings).Fingerprint(),
		currency:    domain.NormalizeCurrency(currency),
	}

	c.mu.RLock()
	unchanged := c.started != nil && *c.started == key
	latest := c.latest
	c.mu.RUnlock()

	if unchanged {
		return latest, false
	}
	return c.Refresh(ctx, holdings, currency)
}

// Refresh fetches every (coin, horizon) pair of the holdings concurrently
// Logic:
//  1. Distinct coin ids across the holdings
//  2. Cross product with the configured horizons
//  3. New version for this run
//  4. One goroutine per pair; a failed pair never cancels the others
//  5. Wait for every pair to settle, keep only the successes
//  6. Commit unless a newer run has started meanwhile
//
// It returns the authoritative batch after the run and whether this run's batch was committed.
func (c *Coordinator) Refresh(ctx context.Context, holdings []domain.Holding, currency string) (*domain.PredictionBatch, bool) {
	coins := domain.CoinSetOf(holdings)
	currency = domain.NormalizeCurrency(currency)
	version := c.begin(runKey{fingerprint: coins.Fingerprint(), currency: currency})
	defer c.end()

	ids := coins.IDs()
	results := make([]result, len(ids)*len(c.Horizons))

	var wg sync.WaitGroup
	i := 0
	for _, coinID := range ids {
		for _, horizon := range c.Horizons {
			coinID, horizon := coinID, horizon
			idx := i
			i++
			wg.Add(1)
			go func() {
				defer wg.Done()
				p, err := c.fetch(ctx, coinID, horizon, currency)
				results[idx] = result{
					key:        domain.PredictionKey{CoinID: coinID, Horizon: horizon},
					prediction: p,
					err:        err,
				}
			}()
		}
	}
	wg.Wait()

	batch := &domain.PredictionBatch{
		Version:     version,
		Fingerprint: coins.Fingerprint(),
		Currency:    currency,
		Predictions: make(map[domain.PredictionKey]domain.Prediction, len(results)),
	}
	for _, r := range results {
		if r.err != nil {
			c.logger.Printf("prediction: %s %s in %s unavailable: %v", r.key.CoinID, r.key.Horizon.Label(), currency, r.err)
			continue
		}
		batch.Predictions[r.key] = r.prediction
	}

	return c.commit(batch)
}

func (c *Coordinator) begin(key runKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.version++
	c.started = &key
	c.inFlight++
	return c.version
}

func (c *Coordinator) end() {
	c.mu.Lock()
	c.inFlight--
	c.mu.Unlock()
}

func (c *Coordinator) commit(batch *domain.PredictionBatch) (*domain.PredictionBatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if batch.Version != c.version {
		c.logger.Printf("prediction: discarding batch v%d, v%d is newer", batch.Version, c.version)
		return c.latest, false
	}

	batch.CommittedAt = c.now()
	c.latest = batch
	c.logger.Printf("prediction: committed batch v%d (%d predictions for [%s] in %s)",
		batch.Version, batch.Len(), batch.Fingerprint, batch.Currency)
	return batch, true
}

// fetch returns one forecast, joining an identical fetch already in flight
func (c *Coordinator) fetch(ctx context.Context, coinID string, horizon domain.Horizon, currency string) (domain.Prediction, error) {
	key := fmt.Sprintf("%s|%d|%s", coinID, horizon, currency)

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// A shared fetch must outlive the caller that happened to start it
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.Timeout)
		defer cancel()

		p, err := c.Provider.GetPrediction(fetchCtx, coinID, horizon, currency)
		if err != nil {
			if errors.Is(err, domain.ErrPredictionUnavailable) {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %w", domain.ErrPredictionUnavailable, err)
		}
		if p == nil {
			return nil, fmt.Errorf("%w: empty response", domain.ErrPredictionUnavailable)
		}
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrPredictionUnavailable, err)
		}
		return *p, nil
	})
	if err != nil {
		return domain.Prediction{}, err
	}

	p := v.(domain.Prediction)
	p.CoinID = coinID
	p.Horizon = horizon
	p.Currency = currency
	return p, nil
}
