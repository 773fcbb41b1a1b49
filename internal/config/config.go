package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/simaogato/coinfolio-backend/internal/domain"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds the server settings read from the environment
type Config struct {
	GRPCPort             string
	APIToken             string
	StoreDriver          string
	DBConnStr            string
	SQLitePath           string
	UserID               string
	Currency             string
	CoinGeckoBaseURL     string
	CoinGeckoAPIKey      string
	ForecastBaseURL      string
	FetchTimeout         time.Duration
	PriceRefreshInterval time.Duration
	Horizons             []domain.Horizon
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// Load reads the configuration, falling back to local development defaults
func Load() (Config, error) {
	cfg := Config{
		GRPCPort:         envOr("GRPC_PORT", ":8080"),
		APIToken:         envOr("API_TOKEN", "dev-token"),
		StoreDriver:      strings.ToLower(envOr("STORE_DRIVER", DriverPostgres)),
		SQLitePath:       envOr("SQLITE_PATH", "/app/data/coinfolio.db"),
		UserID:           envOr("PORTFOLIO_USER_ID", domain.DefaultUserID),
		Currency:         domain.NormalizeCurrency(envOr("DISPLAY_CURRENCY", domain.DefaultCurrency)),
		CoinGeckoBaseURL: envOr("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		CoinGeckoAPIKey:  os.Getenv("COINGECKO_API_KEY"),
		ForecastBaseURL:  envOr("FORECAST_BASE_URL", "http://localhost:8000"),
	}

	if !strings.Contains(cfg.GRPCPort, ":") {
		cfg.GRPCPort = ":" + cfg.GRPCPort
	}

	switch cfg.StoreDriver {
	case DriverPostgres, DriverSQLite:
	default:
		return Config{}, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	cfg.DBConnStr = os.Getenv("DB_CONN_STR")
	if cfg.DBConnStr == "" {
		// If explicit string is missing, build it from individual vars (Docker friendly)
		cfg.DBConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			envOr("DB_HOST", "localhost"),
			envOr("DB_PORT", "5432"),
			envOr("DB_USER", "postgres"),
			envOr("DB_PASSWORD", "postgres"),
			envOr("DB_NAME", "coinfolio"),
		)
	}

	var err error
	if cfg.FetchTimeout, err = parseDuration("FETCH_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PriceRefreshInterval, err = parseDuration("PRICE_REFRESH_INTERVAL", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Horizons, err = parseHorizons(os.Getenv("PREDICTION_HORIZONS")); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func parseDuration(key string, def time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return def, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, raw)
	}
	return d, nil
}

// parseHorizons reads a comma separated list of hours, e.g. "24,168"
func parseHorizons(raw string) ([]domain.Horizon, error) {
	if strings.TrimSpace(raw) == "" {
		return append([]domain.Horizon(nil), domain.DefaultHorizons...), nil
	}
	var out []domain.Horizon
	seen := make(map[domain.Horizon]bool)
	for _, part := range strings.Split(raw, ",") {
		hours, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || hours <= 0 {
			return nil, fmt.Errorf("invalid PREDICTION_HORIZONS entry %q", part)
		}
		h := domain.Horizon(hours)
		if !seen[h] {
			seen[h] = true
			out = append(out, h)
		}
	}
	return out, nil
}
