package staticprices

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

var allSymbols = []string{"BTC", "ETH", "BNB", "SOL", "XRP", "ADA", "POL", "BASE"}

func TestNew_DefaultTable(t *testing.T) {
	oracle, err := New(DefaultPrices, allSymbols)
	require.NoError(t, err)

	prices, err := oracle.FetchPrices(context.Background(), []string{"BTC", "POL"})
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("118000").Equal(prices["BTC"]))
	assert.True(t, decimal.RequireFromString("0.25").Equal(prices["POL"]))
}

func TestNew_InvalidTables(t *testing.T) {
	tests := []struct {
		name      string
		table     map[string]string
		supported []string
	}{
		{name: "no supported symbols", table: DefaultPrices, supported: nil},
		{name: "unparseable price", table: map[string]string{"BTC": "lots"}, supported: []string{"BTC"}},
		{name: "non-positive price", table: map[string]string{"BTC": "0"}, supported: []string{"BTC"}},
		{name: "supported symbol without price", table: map[string]string{"BTC": "1"}, supported: []string{"BTC", "ETH"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.table, tt.supported)
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrConfigurationError)
		})
	}
}

func TestFetchPrices_Rejections(t *testing.T) {
	oracle, err := New(DefaultPrices, allSymbols)
	require.NoError(t, err)

	tests := []struct {
		name    string
		symbols []string
	}{
		{name: "empty set", symbols: []string{}},
		{name: "unsupported symbol", symbols: []string{"BTC", "DOGE"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prices, err := oracle.FetchPrices(context.Background(), tt.symbols)
			require.Error(t, err)
			assert.ErrorIs(t, err, ports.ErrOracleUnavailable)
			assert.Nil(t, prices)
		})
	}
}

func TestLoadFile_MergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prices.yaml")
	content := "prices:\n  BTC: 120000.5\n  ETH: \"4000\"\n  DOGE: 0.1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	oracle, err := LoadFile(path, []string{"BTC", "ETH", "SOL", "DOGE"})
	require.NoError(t, err)

	prices, err := oracle.FetchPrices(context.Background(), []string{"BTC", "ETH", "SOL", "DOGE"})
	require.NoError(t, err)
	assert.Equal(t, "120000.5", prices["BTC"].String())
	assert.Equal(t, "4000", prices["ETH"].String())
	assert.Equal(t, "200", prices["SOL"].String())
	assert.Equal(t, "0.1", prices["DOGE"].String())
}

func TestLoadFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadFile(filepath.Join(dir, "missing.yaml"), allSymbols)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("prices:\n  BTC: [1, 2]\n"), 0o644))
	_, err = LoadFile(bad, allSymbols)
	assert.ErrorIs(t, err, ports.ErrConfigurationError)
}
