package binanceclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

type mockLogger struct{}

func (m *mockLogger) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {}
func (m *mockLogger) Info(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Warn(ctx context.Context, msg string, fields ...map[string]interface{})  {}
func (m *mockLogger) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
}

func newTestOracle(t *testing.T, handler http.HandlerFunc) (*Oracle, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	oracle, err := New(Config{
		BaseURL:          srv.URL,
		QuoteAsset:       "usdt",
		SupportedSymbols: []string{"BTC", "ETH", "SOL"},
		Logger:           &mockLogger{},
	})
	require.NoError(t, err)
	return oracle, &calls
}

func TestNew_RequiresSupportedSymbols(t *testing.T) {
	_, err := New(Config{Logger: &mockLogger{}})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}

func TestFetchPrices_Success(t *testing.T) {
	oracle, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/ticker/price"), r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"symbol":"BTCUSDT","price":"118000.10","time":1700000000000},
			{"symbol":"ETHUSDT","price":"4500.5","time":1700000000000},
			{"symbol":"DOGEUSDT","price":"0.2","time":1700000000000}
		]`))
	})

	prices, err := oracle.FetchPrices(context.Background(), []string{"BTC", "ETH"})
	require.NoError(t, err)
	require.Len(t, prices, 2)
	assert.Equal(t, "118000.1", prices["BTC"].String())
	assert.Equal(t, "4500.5", prices["ETH"].String())
}

func TestFetchPrices_RejectsWithoutCallingUpstream(t *testing.T) {
	tests := []struct {
		name    string
		symbols []string
	}{
		{name: "empty set", symbols: nil},
		{name: "unsupported symbol", symbols: []string{"BTC", "DOGE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			oracle, calls := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(`[]`))
			})

			prices, err := oracle.FetchPrices(context.Background(), tt.symbols)
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrOracleUnavailable)
			assert.Nil(t, prices)
			assert.Equal(t, 0, *calls)
		})
	}
}

func TestFetchPrices_MissingTicker(t *testing.T) {
	oracle, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"BTCUSDT","price":"118000","time":1}]`))
	})

	_, err := oracle.FetchPrices(context.Background(), []string{"BTC", "SOL"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrOracleUnavailable)
	assert.Contains(t, err.Error(), "SOLUSDT")
}

func TestFetchPrices_APIErrorMapping(t *testing.T) {
	oracle, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"code":-1003,"msg":"Too many requests."}`))
	})

	_, err := oracle.FetchPrices(context.Background(), []string{"BTC"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrOracleUnavailable)
	assert.ErrorIs(t, err, ports.ErrRateLimited)
}

func TestFetchPrices_UnparseablePrice(t *testing.T) {
	oracle, _ := newTestOracle(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"symbol":"ETHUSDT","price":"n/a","time":1}]`))
	})

	_, err := oracle.FetchPrices(context.Background(), []string{"ETH"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ports.ErrOracleUnavailable)
	assert.ErrorIs(t, err, ports.ErrUnknown)
}
