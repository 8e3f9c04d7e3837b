package accounting

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

func TestSummarize_EmptyBook(t *testing.T) {
	book := NewBook()
	book.RealizedPnL = dec("12.5")

	summary, err := Summarize(book, nil, "USD", testNow)
	require.NoError(t, err)

	assertDecimal(t, "12.5", summary.RealizedPnL)
	assertDecimal(t, "0", summary.UnrealizedPnL)
	assert.Equal(t, "USD", summary.Currency)
	assert.Empty(t, summary.Positions)
	assert.Equal(t, testNow, summary.UpdatedAt)
}

func TestSummarize_ValuesEveryPosition(t *testing.T) {
	book := applyAll(t,
		trade(domain.Buy, "BTC", "40000", "1", "10"),
		trade(domain.Buy, "BTC", "42000", "1", "0"),
		trade(domain.Sell, "BTC", "45000", "1", "5"),
		trade(domain.Buy, "ETH", "2000", "2", "0"),
	)
	prices := map[string]decimal.Decimal{
		"BTC": dec("118000"),
		"ETH": dec("1500"),
	}

	summary, err := Summarize(book, prices, "EUR", testNow)
	require.NoError(t, err)

	assertDecimal(t, "3990", summary.RealizedPnL)
	assert.Equal(t, "USD", summary.Currency)
	require.Len(t, summary.Positions, 2)

	btc := summary.Positions[0]
	assert.Equal(t, "BTC", btc.Symbol)
	assertDecimal(t, "118000", btc.CurrentPrice)
	assertDecimal(t, "118000", btc.CurrentValue)
	assertDecimal(t, "76995", btc.UnrealizedPnL)
	assertDecimal(t, "187.77", btc.UnrealizedPnLPercentage)

	eth := summary.Positions[1]
	assert.Equal(t, "ETH", eth.Symbol)
	assertDecimal(t, "-1000", eth.UnrealizedPnL)
	assertDecimal(t, "-25", eth.UnrealizedPnLPercentage)

	assertDecimal(t, "75995", summary.UnrealizedPnL)
}

func TestSummarize_RejectsPartialPricing(t *testing.T) {
	book := applyAll(t,
		trade(domain.Buy, "BTC", "40000", "1", "0"),
		trade(domain.Buy, "ETH", "2000", "1", "0"),
	)

	_, err := Summarize(book, map[string]decimal.Decimal{"BTC": dec("1")}, "USD", testNow)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ports.ErrOracleUnavailable))
	assert.Contains(t, err.Error(), "ETH")
}

func TestUnrealizedPnL_ZeroCostHasZeroPercentage(t *testing.T) {
	pos := domain.Position{Symbol: "XRP", Quantity: dec("10"), TotalCost: decimal.Zero}

	valued := UnrealizedPnL(pos, dec("3"))

	assertDecimal(t, "30", valued.UnrealizedPnL)
	assertDecimal(t, "0", valued.UnrealizedPnLPercentage)
}

func TestSymbols_SortedAndDistinct(t *testing.T) {
	positions := map[string]domain.Position{"SOL": {}, "BTC": {}, "ETH": {}}
	assert.Equal(t, []string{"BTC", "ETH", "SOL"}, Symbols(positions))
	assert.Empty(t, Symbols(nil))
}
