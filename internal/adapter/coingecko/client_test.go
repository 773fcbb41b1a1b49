package coingecko

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMarketSnapshot(t *testing.T) {
	var gotQuery, gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/coins/markets", r.URL.Path)
		gotQuery = r.URL.RawQuery
		gotKey = r.Header.Get("x-cg-demo-api-key")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"bitcoin","symbol":"btc","name":"Bitcoin","image":"https://img/btc.png","current_price":25000.5,"price_change_percentage_24h":-1.25},
			{"id":"ethereum","symbol":"eth","name":"Ethereum","image":"","current_price":1500,"price_change_percentage_24h":null},
			{"id":"ghost","symbol":"gh","name":"Ghost","image":"","current_price":null}
		]`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "demo-key", time.Second)

	snapshot, err := client.GetMarketSnapshot(context.Background(), []string{"bitcoin", "ethereum", "ghost"}, "EUR")

	require.NoError(t, err)
	assert.Equal(t, "demo-key", gotKey)
	assert.Contains(t, gotQuery, "vs_currency=eur")
	assert.Contains(t, gotQuery, "ids=bitcoin%2Cethereum%2Cghost")
	assert.Equal(t, "eur", snapshot.Currency)
	require.Len(t, snapshot.Coins, 2)

	btc, ok := snapshot.Coin("bitcoin")
	require.True(t, ok)
	assert.Equal(t, "Bitcoin", btc.Name)
	assert.True(t, btc.CurrentPrice.Equal(decimal.RequireFromString("25000.5")))
	assert.True(t, btc.PriceChangePercentage24h.Equal(decimal.RequireFromString("-1.25")))

	eth, ok := snapshot.Coin("ethereum")
	require.True(t, ok)
	assert.True(t, eth.PriceChangePercentage24h.IsZero())

	_, ok = snapshot.Coin("ghost")
	assert.False(t, ok)
}

func TestGetMarketSnapshot_NoCoinsSkipsRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	snapshot, err := NewClient(srv.URL, "", time.Second).GetMarketSnapshot(context.Background(), nil, "usd")

	require.NoError(t, err)
	assert.False(t, called)
	assert.Empty(t, snapshot.Coins)
}

func TestGetMarketSnapshot_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":{"error_code":429}}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).GetMarketSnapshot(context.Background(), []string{"bitcoin"}, "usd")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGetMarketSnapshot_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "", time.Second).GetMarketSnapshot(context.Background(), []string{"bitcoin"}, "usd")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse coingecko json")
}
