package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/coinfolio-backend/internal/domain"
	"github.com/simaogato/coinfolio-backend/internal/usecase/dashboard"
	"github.com/simaogato/coinfolio-backend/internal/usecase/holdings"
	"github.com/simaogato/coinfolio-backend/internal/usecase/market"
	"github.com/simaogato/coinfolio-backend/internal/usecase/prediction"
)

const testToken = "test-token"

// memoryRepository keeps the last saved snapshot
type memoryRepository struct {
	mu       sync.Mutex
	saved    *domain.Portfolio
	failSave bool
}

func (r *memoryRepository) Save(_ context.Context, snapshot *domain.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failSave {
		return fmt.Errorf("%w: disk full", domain.ErrPersistence)
	}
	p := snapshot.Clone()
	r.saved = &p
	return nil
}

func (r *memoryRepository) Get(_ context.Context, userID string) (*domain.Portfolio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		return &domain.Portfolio{UserID: userID}, nil
	}
	p := r.saved.Clone()
	return &p, nil
}

// fixedMarket quotes bitcoin and ethereum in usd and eur
type fixedMarket struct{}

var quotes = map[string]map[string]int64{
	"usd": {"bitcoin": 25000, "ethereum": 1500},
	"eur": {"bitcoin": 23000, "ethereum": 1400},
}

func (fixedMarket) GetMarketSnapshot(_ context.Context, coinIDs []string, currency string) (*domain.MarketSnapshot, error) {
	prices, ok := quotes[currency]
	if !ok {
		return nil, errors.New("unsupported vs_currency")
	}
	snapshot := &domain.MarketSnapshot{Currency: currency, Coins: map[string]domain.Coin{}, FetchedAt: time.Now()}
	for _, id := range coinIDs {
		if price, ok := prices[id]; ok {
			snapshot.Coins[id] = domain.Coin{ID: id, Name: id, Symbol: id[:3], CurrentPrice: decimal.NewFromInt(price)}
		}
	}
	return snapshot, nil
}

// bitcoinForecaster only knows the 24h bitcoin forecast in usd
type bitcoinForecaster struct{}

func (bitcoinForecaster) GetPrediction(_ context.Context, coinID string, horizon domain.Horizon, currency string) (*domain.Prediction, error) {
	if coinID != "bitcoin" || horizon != domain.Horizon24h || currency != "usd" {
		return nil, fmt.Errorf("%w: no forecast", domain.ErrPredictionUnavailable)
	}
	return &domain.Prediction{
		CoinID:                 coinID,
		Horizon:                horizon,
		Currency:               currency,
		CurrentPrice:           decimal.NewFromInt(25000),
		PredictedPrice:         decimal.NewFromInt(26000),
		ConservativePrediction: decimal.NewFromInt(25500),
		OptimisticPrediction:   decimal.NewFromInt(26500),
		Confidence:             decimal.NewFromInt(70),
		Trend:                  domain.TrendBullish,
	}, nil
}

type harness struct {
	client    *Client
	dashboard *dashboard.DashboardService
	repo      *memoryRepository
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()
	logger := log.New(io.Discard, "", 0)

	repo := &memoryRepository{}
	marketService := market.NewMarketService(fixedMarket{}, []string{"bitcoin", "ethereum"}, "usd", logger)
	store := holdings.NewHoldingStore(repo, marketService, domain.DefaultUserID, "usd", logger)
	coordinator := prediction.NewCoordinator(bitcoinForecaster{}, domain.DefaultHorizons, time.Second, logger)
	svc := dashboard.NewDashboardService(store, marketService, coordinator, logger)
	require.NoError(t, svc.Start(ctx))

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		RecoveryInterceptor(logger),
		AuthInterceptor(testToken),
	))
	RegisterPortfolioServiceServer(srv, NewServer(svc))
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &harness{client: NewClient(conn), dashboard: svc, repo: repo}
}

func authed() context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", testToken)
}

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	require.NoError(t, err)
	return s
}

func decimalAt(t *testing.T, s *structpb.Struct, key string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s.Fields[key].GetStringValue())
	require.NoError(t, err, key)
	return d
}

func assertCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	st, ok := status.FromError(err)
	require.True(t, ok, "error should be a gRPC status")
	assert.Equal(t, code, st.Code(), st.Message())
}

func TestServer_RequiresToken(t *testing.T) {
	h := newHarness(t)

	_, err := h.client.GetPortfolio(context.Background(), nil)

	assertCode(t, err, codes.Unauthenticated)
}

func TestServer_AddHoldingAndProject(t *testing.T) {
	h := newHarness(t)
	ctx := authed()

	// Add 2 BTC bought at 20000, now quoted at 25000
	resp, err := h.client.AddHolding(ctx, mustStruct(t, map[string]any{
		"coin_id":        "bitcoin",
		"amount":         "2",
		"purchase_price": 20000,
	}))
	require.NoError(t, err)
	holding := resp.Fields["holding"].GetStructValue()
	assert.True(t, decimalAt(t, holding, "value").Equal(decimal.NewFromInt(50000)))
	assert.True(t, decimalAt(t, holding, "pnl_percentage").Equal(decimal.NewFromInt(25)))

	// Execute the pending prediction sync the way Run would
	h.dashboard.SyncPredictions(context.Background())

	resp, err = h.client.GetPortfolio(ctx, nil)
	require.NoError(t, err)
	portfolio := resp.Fields["portfolio"].GetStructValue()
	assert.Equal(t, "usd", portfolio.Fields["currency"].GetStringValue())
	assert.Len(t, portfolio.Fields["holdings"].GetListValue().GetValues(), 1)
	assert.True(t, decimalAt(t, portfolio, "total_value").Equal(decimal.NewFromInt(50000)))
	assert.True(t, decimalAt(t, portfolio, "total_cost").Equal(decimal.NewFromInt(40000)))
	assert.True(t, decimalAt(t, portfolio, "total_pnl").Equal(decimal.NewFromInt(10000)))

	resp, err = h.client.GetProjections(ctx, nil)
	require.NoError(t, err)
	projections := resp.Fields["projections"].GetListValue().GetValues()
	require.Len(t, projections, 2)

	day := projections[0].GetStructValue()
	assert.Equal(t, "24h", day.Fields["label"].GetStringValue())
	assert.True(t, decimalAt(t, day, "total").Equal(decimal.NewFromInt(52000)))
	assert.True(t, day.Fields["complete"].GetBoolValue())

	week := projections[1].GetStructValue()
	assert.Equal(t, "7d", week.Fields["label"].GetStringValue())
	assert.True(t, decimalAt(t, week, "total").Equal(decimal.NewFromInt(50000)))
	assert.False(t, week.Fields["complete"].GetBoolValue())
}

func TestServer_AddHoldingValidation(t *testing.T) {
	h := newHarness(t)
	ctx := authed()

	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"negative amount", map[string]any{"coin_id": "bitcoin", "amount": "-1", "purchase_price": "100"}},
		{"missing amount", map[string]any{"coin_id": "bitcoin", "purchase_price": "100"}},
		{"malformed amount", map[string]any{"coin_id": "bitcoin", "amount": "two", "purchase_price": "100"}},
		{"unknown coin", map[string]any{"coin_id": "dogecoin", "amount": "1", "purchase_price": "100"}},
		{"missing coin", map[string]any{"amount": "1", "purchase_price": "100"}},
		{"nan amount", map[string]any{"coin_id": "bitcoin", "amount": math.NaN(), "purchase_price": 1}},
		{"infinite purchase price", map[string]any{"coin_id": "bitcoin", "amount": 1, "purchase_price": math.Inf(1)}},
		{"boolean amount", map[string]any{"coin_id": "bitcoin", "amount": true, "purchase_price": 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.client.AddHolding(ctx, mustStruct(t, tt.fields))
			assertCode(t, err, codes.InvalidArgument)
		})
	}

	assert.Empty(t, h.dashboard.Store.List())
}

func TestServer_AddHoldingPersistenceFailure(t *testing.T) {
	h := newHarness(t)
	h.repo.mu.Lock()
	h.repo.failSave = true
	h.repo.mu.Unlock()

	_, err := h.client.AddHolding(authed(), mustStruct(t, map[string]any{
		"coin_id": "bitcoin", "amount": "1", "purchase_price": "100",
	}))

	assertCode(t, err, codes.Unavailable)
	assert.Empty(t, h.dashboard.Store.List())
}

func TestServer_RemoveHolding(t *testing.T) {
	h := newHarness(t)
	ctx := authed()

	resp, err := h.client.AddHolding(ctx, mustStruct(t, map[string]any{
		"coin_id": "ethereum", "amount": "1", "purchase_price": "1000",
	}))
	require.NoError(t, err)
	id := resp.Fields["holding"].GetStructValue().Fields["id"].GetStringValue()

	resp, err = h.client.RemoveHolding(ctx, mustStruct(t, map[string]any{"id": id}))
	require.NoError(t, err)
	assert.Equal(t, id, resp.Fields["removed_id"].GetStringValue())
	assert.Empty(t, h.dashboard.Store.List())

	_, err = h.client.RemoveHolding(ctx, mustStruct(t, map[string]any{"id": "not-a-uuid"}))
	assertCode(t, err, codes.InvalidArgument)
}

func TestServer_SetCurrency(t *testing.T) {
	h := newHarness(t)
	ctx := authed()

	_, err := h.client.AddHolding(ctx, mustStruct(t, map[string]any{
		"coin_id": "bitcoin", "amount": "1", "purchase_price": "20000",
	}))
	require.NoError(t, err)

	resp, err := h.client.SetCurrency(ctx, mustStruct(t, map[string]any{"currency": "EUR"}))
	require.NoError(t, err)
	portfolio := resp.Fields["portfolio"].GetStructValue()
	assert.Equal(t, "eur", portfolio.Fields["currency"].GetStringValue())
	assert.True(t, decimalAt(t, portfolio, "total_value").Equal(decimal.NewFromInt(23000)))

	_, err = h.client.SetCurrency(ctx, mustStruct(t, map[string]any{"currency": "zzz"}))
	assertCode(t, err, codes.InvalidArgument)
}

func TestServer_PreviewHolding(t *testing.T) {
	h := newHarness(t)
	ctx := authed()

	_, err := h.client.AddHolding(ctx, mustStruct(t, map[string]any{
		"coin_id": "bitcoin", "amount": "1", "purchase_price": "20000",
	}))
	require.NoError(t, err)
	h.dashboard.SyncPredictions(context.Background())

	resp, err := h.client.PreviewHolding(ctx, mustStruct(t, map[string]any{
		"coin_id": "bitcoin", "amount": 0.5,
	}))
	require.NoError(t, err)
	assert.True(t, decimalAt(t, resp, "value").Equal(decimal.NewFromInt(12500)))

	forecasts := resp.Fields["forecasts"].GetListValue().GetValues()
	require.Len(t, forecasts, 2)
	day := forecasts[0].GetStructValue()
	assert.True(t, day.Fields["available"].GetBoolValue())
	assert.True(t, decimalAt(t, day, "projected_value").Equal(decimal.NewFromInt(13000)))
	assert.False(t, forecasts[1].GetStructValue().Fields["available"].GetBoolValue())

	_, err = h.client.PreviewHolding(ctx, mustStruct(t, map[string]any{"coin_id": "bitcoin"}))
	assertCode(t, err, codes.InvalidArgument)

	_, err = h.client.PreviewHolding(ctx, mustStruct(t, map[string]any{"coin_id": "bitcoin", "amount": math.Inf(-1)}))
	assertCode(t, err, codes.InvalidArgument)
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
	}{
		{"validation", fmt.Errorf("%w: amount cannot be negative", domain.ErrValidation), codes.InvalidArgument},
		{"unknown coin", domain.ErrUnknownCoin, codes.InvalidArgument},
		{"persistence", fmt.Errorf("save: %w", domain.ErrPersistence), codes.Unavailable},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded},
		{"other", errors.New("boom"), codes.Internal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertCode(t, mapError(tt.err), tt.code)
		})
	}

	assert.NoError(t, mapError(nil))
}
