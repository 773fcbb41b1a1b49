package forecast

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/coinfolio-backend/internal/domain"
)

// Client implements domain.PredictionProvider against the forecast service
// GET {BaseURL}/api/predict/{coin}?hours=&currency=
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient creates a new forecast client
// The coordinator bounds every call with its own deadline; timeout is a backstop.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: timeout},
	}
}

// predictResponse mirrors the forecast service payload
type predictResponse struct {
	CoinID                 string          `json:"coin_id"`
	CurrentPrice           decimal.Decimal `json:"current_price"`
	PredictedPrice         decimal.Decimal `json:"predicted_price"`
	ConservativePrediction decimal.Decimal `json:"conservative_prediction"`
	OptimisticPrediction   decimal.Decimal `json:"optimistic_prediction"`
	Confidence             decimal.Decimal `json:"confidence"`
	Trend                  string          `json:"trend"`
	PredictionTimestamp    string          `json:"prediction_timestamp"`
	HoursToTarget          int             `json:"hours_to_target"`
	Volatility             decimal.Decimal `json:"volatility"`
	AverageDailyChange     decimal.Decimal `json:"average_daily_change"`
}

// GetPrediction fetches one forecast; every failure wraps domain.ErrPredictionUnavailable
func (c *Client) GetPrediction(ctx context.Context, coinID string, horizon domain.Horizon, currency string) (*domain.Prediction, error) {
	q := url.Values{}
	q.Set("hours", strconv.Itoa(int(horizon)))
	q.Set("currency", domain.NormalizeCurrency(currency))
	endpoint := fmt.Sprintf("%s/api/predict/%s?%s", c.BaseURL, url.PathEscape(coinID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrPredictionUnavailable, coinID, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrPredictionUnavailable, coinID, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: failed to read response: %w", domain.ErrPredictionUnavailable, coinID, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s: forecast service returned %d", domain.ErrPredictionUnavailable, coinID, resp.StatusCode)
	}

	var pr predictResponse
	if err := json.Unmarshal(body, &pr); err != nil {
		return nil, fmt.Errorf("%w: %s: failed to parse response: %w", domain.ErrPredictionUnavailable, coinID, err)
	}

	p := &domain.Prediction{
		CoinID:                 coinID,
		Horizon:                horizon,
		Currency:               domain.NormalizeCurrency(currency),
		CurrentPrice:           pr.CurrentPrice,
		PredictedPrice:         pr.PredictedPrice,
		ConservativePrediction: pr.ConservativePrediction,
		OptimisticPrediction:   pr.OptimisticPrediction,
		Confidence:             pr.Confidence,
		Trend:                  domain.Trend(strings.ToLower(pr.Trend)),
		Volatility:             pr.Volatility,
		AverageDailyChange:     pr.AverageDailyChange,
	}
	if pr.PredictionTimestamp != "" {
		if p.PredictionTimestamp, err = parseTimestamp(pr.PredictionTimestamp); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", domain.ErrPredictionUnavailable, coinID, err)
		}
	}
	return p, nil
}

// timestampLayouts covers RFC 3339 and naive ISO 8601 with or without fractions
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid prediction_timestamp %q", raw)
}
