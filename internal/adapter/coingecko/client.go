package coingecko

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
)

// DefaultBaseURL is the public CoinGecko v3 API
const DefaultBaseURL = "https://api.coingecko.com/api/v3"

// Client implements domain.MarketDataProvider against the CoinGecko markets endpoint
type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client

	now func() time.Time
}

// NewClient creates a new CoinGecko client
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// marketEntry is one element of the /coins/markets response
type marketEntry struct {
	ID                       string              `json:"id"`
	Symbol                   string              `json:"symbol"`
	Name                     string              `json:"name"`
	Image                    string              `json:"image"`
	CurrentPrice             decimal.NullDecimal `json:"current_price"`
	PriceChangePercentage24h decimal.NullDecimal `json:"price_change_percentage_24h"`
}

// GetMarketSnapshot fetches market data for coinIDs quoted in currency
func (c *Client) GetMarketSnapshot(ctx context.Context, coinIDs []string, currency string) (*domain.MarketSnapshot, error) {
	currency = domain.NormalizeCurrency(currency)
	snapshot := &domain.MarketSnapshot{
		Currency:  currency,
		Coins:     make(map[string]domain.Coin, len(coinIDs)),
		FetchedAt: c.now(),
	}
	if len(coinIDs) == 0 {
		return snapshot, nil
	}

	q := url.Values{}
	q.Set("vs_currency", currency)
	q.Set("ids", strings.Join(coinIDs, ","))
	q.Set("order", "market_cap_desc")
	q.Set("per_page", fmt.Sprint(len(coinIDs)))
	q.Set("page", "1")
	q.Set("sparkline", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.BaseURL+"/coins/markets?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build coingecko request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.APIKey)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("coingecko request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read coingecko response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coingecko returned %d: %s", resp.StatusCode, preview(body))
	}

	var entries []marketEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse coingecko json: %w; body: %s", err, preview(body))
	}

	for _, e := range entries {
		if e.ID == "" || !e.CurrentPrice.Valid {
			continue
		}
		snapshot.Coins[e.ID] = domain.Coin{
			ID:                       e.ID,
			Symbol:                   e.Symbol,
			Name:                     e.Name,
			Image:                    e.Image,
			CurrentPrice:             e.CurrentPrice.Decimal,
			PriceChangePercentage24h: e.PriceChangePercentage24h.Decimal,
		}
	}
	return snapshot, nil
}

func preview(body []byte) string {
	s := string(body)
	if len(s) > 120 {
		s = s[:120]
	}
	return s
}
