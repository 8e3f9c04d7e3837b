package accounting

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

var testNow = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}

func trade(side domain.OrderSide, symbol, price, qty, fee string) domain.Trade {
	return domain.Trade{
		Symbol:    symbol,
		Side:      side,
		Price:     dec(price),
		Quantity:  dec(qty),
		Fee:       dec(fee),
		Currency:  "USD",
		Timestamp: testNow,
	}
}

func applyAll(t *testing.T, trades ...domain.Trade) Book {
	t.Helper()
	book := NewBook()
	for _, tr := range trades {
		var err error
		book, _, err = Apply(book, tr, testNow)
		require.NoError(t, err)
	}
	return book
}

func TestApply_BTCScenario(t *testing.T) {
	book := NewBook()

	book, out, err := Apply(book, trade(domain.Buy, "BTC", "40000", "1.0", "10"), testNow)
	require.NoError(t, err)
	assert.False(t, out.Closed)
	pos := book.Positions["BTC"]
	assertDecimal(t, "1", pos.Quantity)
	assertDecimal(t, "40010", pos.AveragePrice)
	assertDecimal(t, "40010", pos.TotalCost)
	assertDecimal(t, "0", pos.RealizedPnL)

	book, _, err = Apply(book, trade(domain.Buy, "BTC", "42000", "1.0", "0"), testNow)
	require.NoError(t, err)
	pos = book.Positions["BTC"]
	assertDecimal(t, "2", pos.Quantity)
	assertDecimal(t, "41005", pos.AveragePrice)
	assertDecimal(t, "82010", pos.TotalCost)

	book, out, err = Apply(book, trade(domain.Sell, "BTC", "45000", "1.0", "5"), testNow)
	require.NoError(t, err)
	assertDecimal(t, "3990", out.RealizedPnL)
	pos = book.Positions["BTC"]
	assertDecimal(t, "1", pos.Quantity)
	assertDecimal(t, "41005", pos.AveragePrice)
	assertDecimal(t, "41005", pos.TotalCost)
	assertDecimal(t, "3990", pos.RealizedPnL)
	assertDecimal(t, "3990", book.RealizedPnL)
}

func TestApply_BuySequenceIsCostWeighted(t *testing.T) {
	tests := []struct {
		name      string
		trades    []domain.Trade
		wantQty   string
		wantTotal string
		wantAvg   string
	}{
		{
			name:      "single buy with fee",
			trades:    []domain.Trade{trade(domain.Buy, "ETH", "2000", "2", "4")},
			wantQty:   "2",
			wantTotal: "4004",
			wantAvg:   "2002",
		},
		{
			name: "unequal quantities are weighted, not averaged",
			trades: []domain.Trade{
				trade(domain.Buy, "ETH", "1000", "3", "0"),
				trade(domain.Buy, "ETH", "2000", "1", "0"),
			},
			wantQty:   "4",
			wantTotal: "5000",
			wantAvg:   "1250",
		},
		{
			name: "fractional quantities round average to 8 digits",
			trades: []domain.Trade{
				trade(domain.Buy, "SOL", "100", "1", "0"),
				trade(domain.Buy, "SOL", "101", "2", "0"),
			},
			wantQty:   "3",
			wantTotal: "302",
			wantAvg:   "100.66666667",
		},
		{
			name: "fees accumulate into cost basis",
			trades: []domain.Trade{
				trade(domain.Buy, "ADA", "0.5", "100", "0.1"),
				trade(domain.Buy, "ADA", "0.6", "50", "0.05"),
				trade(domain.Buy, "ADA", "0.55", "25.5", "0"),
			},
			wantQty:   "175.5",
			wantTotal: "94.175",
			wantAvg:   "0.53660969",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := applyAll(t, tt.trades...)
			require.Len(t, book.Positions, 1)
			pos := book.Positions[tt.trades[0].Symbol]

			assertDecimal(t, tt.wantQty, pos.Quantity)
			assertDecimal(t, tt.wantTotal, pos.TotalCost)
			assertDecimal(t, tt.wantAvg, pos.AveragePrice)

			expectedTotal := decimal.Zero
			for _, tr := range tt.trades {
				expectedTotal = expectedTotal.Add(tr.Notional()).Add(tr.Fee)
			}
			assert.True(t, expectedTotal.Round(domain.Precision).Equal(pos.TotalCost))
			assert.True(t, pos.TotalCost.DivRound(pos.Quantity, domain.Precision).Equal(pos.AveragePrice))
			assertDecimal(t, "0", book.RealizedPnL)
		})
	}
}

func TestApply_SellKeepsAveragePrice(t *testing.T) {
	book := applyAll(t,
		trade(domain.Buy, "ETH", "1000", "3", "0"),
		trade(domain.Buy, "ETH", "2000", "1", "0"),
	)
	before := book.Positions["ETH"]

	book, out, err := Apply(book, trade(domain.Sell, "ETH", "1500", "1.5", "2"), testNow)
	require.NoError(t, err)

	after := book.Positions["ETH"]
	assert.True(t, before.AveragePrice.Equal(after.AveragePrice))
	assertDecimal(t, "2.5", after.Quantity)
	assertDecimal(t, "3125", after.TotalCost)
	// (1500*1.5 - 2) - 1250*1.5
	assertDecimal(t, "373", out.RealizedPnL)
	assertDecimal(t, "373", after.RealizedPnL)
	assert.False(t, out.Closed)
}

func TestApply_PartialSellsKeepTotalCostNearAverageTimesQuantity(t *testing.T) {
	book := applyAll(t, trade(domain.Buy, "ETH", "100", "3", "2"))
	assertDecimal(t, "100.66666667", book.Positions["ETH"].AveragePrice)
	assertDecimal(t, "302", book.Positions["ETH"].TotalCost)

	sells := []struct {
		price, qty string
	}{
		{"110", "0.7"},
		{"95", "1.1"},
		{"120.5", "0.45"},
		{"101", "0.5"},
	}

	// Each rounding step (the opening buy, then every sell) may add at most 1e-8 of drift.
	for i, sell := range sells {
		var err error
		book, _, err = Apply(book, trade(domain.Sell, "ETH", sell.price, sell.qty, "0"), testNow)
		require.NoError(t, err)

		pos := book.Positions["ETH"]
		assertDecimal(t, "100.66666667", pos.AveragePrice)

		drift := pos.TotalCost.Sub(pos.AveragePrice.Mul(pos.Quantity)).Abs()
		bound := dec("0.00000001").Mul(decimal.NewFromInt(int64(i + 2)))
		assert.True(t, drift.LessThanOrEqual(bound), "after sell %d: drift %s exceeds %s", i+1, drift, bound)
	}
	assertDecimal(t, "0.25", book.Positions["ETH"].Quantity)
}

func TestApply_SellExactQuantityRemovesPosition(t *testing.T) {
	book := applyAll(t,
		trade(domain.Buy, "BTC", "40000", "0.5", "0"),
		trade(domain.Buy, "ETH", "2000", "1", "0"),
	)

	book, out, err := Apply(book, trade(domain.Sell, "BTC", "41000", "0.5", "1"), testNow)
	require.NoError(t, err)

	assert.True(t, out.Closed)
	assertDecimal(t, "499", out.RealizedPnL)
	assertDecimal(t, "0", out.Position.Quantity)
	_, held := book.Positions["BTC"]
	assert.False(t, held, "closed position must be removed from the map")
	assert.Contains(t, book.Positions, "ETH")
	assertDecimal(t, "499", book.RealizedPnL)
}

func TestApply_InsufficientPosition(t *testing.T) {
	tests := []struct {
		name          string
		setup         []domain.Trade
		sell          domain.Trade
		wantAvailable string
	}{
		{
			name:          "never bought",
			sell:          trade(domain.Sell, "BTC", "45000", "1", "0"),
			wantAvailable: "0",
		},
		{
			name:          "sell more than held",
			setup:         []domain.Trade{trade(domain.Buy, "BTC", "40000", "1", "0")},
			sell:          trade(domain.Sell, "BTC", "45000", "1.00000001", "0"),
			wantAvailable: "1",
		},
		{
			name: "symbol previously closed",
			setup: []domain.Trade{
				trade(domain.Buy, "SOL", "100", "2", "0"),
				trade(domain.Sell, "SOL", "110", "2", "0"),
			},
			sell:          trade(domain.Sell, "SOL", "120", "1", "0"),
			wantAvailable: "0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			book := applyAll(t, tt.setup...)
			snapshot := book.Clone()

			next, _, err := Apply(book, tt.sell, testNow)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ports.ErrInsufficientPosition))

			var insufficient *ports.InsufficientPositionError
			require.True(t, errors.As(err, &insufficient))
			assert.Equal(t, tt.sell.Symbol, insufficient.Symbol)
			assertDecimal(t, tt.wantAvailable, insufficient.Available)
			assert.True(t, tt.sell.Quantity.Equal(insufficient.Requested))

			assert.Equal(t, snapshot, next)
			assert.Equal(t, snapshot, book)
		})
	}
}

func TestApply_AccumulatorEqualsSumOfSells(t *testing.T) {
	trades := []domain.Trade{
		trade(domain.Buy, "BTC", "40000", "2", "20"),
		trade(domain.Buy, "ETH", "2500", "4", "0"),
		trade(domain.Sell, "BTC", "38000", "0.5", "3"),
		trade(domain.Buy, "BTC", "39000", "1", "5"),
		trade(domain.Sell, "ETH", "2700", "4", "1"),
		trade(domain.Sell, "BTC", "41000", "1.25", "0"),
	}

	book := NewBook()
	expected := decimal.Zero
	for _, tr := range trades {
		pre := book.Positions[tr.Symbol]
		var (
			out Outcome
			err error
		)
		book, out, err = Apply(book, tr, testNow)
		require.NoError(t, err)

		if tr.Side == domain.Sell {
			want := tr.Notional().Sub(tr.Fee).Sub(pre.AveragePrice.Mul(tr.Quantity)).Round(domain.Precision)
			assert.True(t, want.Equal(out.RealizedPnL), "sell of %s", tr.Symbol)
			expected = expected.Add(want)
		} else {
			assertDecimal(t, "0", out.RealizedPnL)
		}
		assert.True(t, expected.Equal(book.RealizedPnL))
	}

	assert.NotContains(t, book.Positions, "ETH")
	btc := book.Positions["BTC"]
	assertDecimal(t, "1.25", btc.Quantity)
	tolerance := dec("0.00000001")
	assert.True(t, btc.TotalCost.Sub(btc.AveragePrice.Mul(btc.Quantity)).Abs().LessThanOrEqual(tolerance))
}

func TestApply_DoesNotMutateInputBook(t *testing.T) {
	book := applyAll(t, trade(domain.Buy, "BTC", "40000", "1", "0"))
	snapshot := book.Clone()

	_, _, err := Apply(book, trade(domain.Buy, "BTC", "50000", "1", "0"), testNow)
	require.NoError(t, err)
	_, _, err = Apply(book, trade(domain.Sell, "BTC", "50000", "1", "0"), testNow)
	require.NoError(t, err)

	assert.Equal(t, snapshot, book)
}

func TestApply_RejectsMalformedTrades(t *testing.T) {
	tests := []struct {
		name      string
		trade     domain.Trade
		wantField string
	}{
		{name: "zero price", trade: trade(domain.Buy, "BTC", "0", "1", "0"), wantField: "price"},
		{name: "negative quantity", trade: trade(domain.Buy, "BTC", "1", "-1", "0"), wantField: "quantity"},
		{name: "negative fee", trade: trade(domain.Buy, "BTC", "1", "1", "-0.1"), wantField: "fee"},
		{name: "unknown side", trade: trade(domain.OrderSide("HOLD"), "BTC", "1", "1", "0"), wantField: "side"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Apply(NewBook(), tt.trade, testNow)
			require.Error(t, err)
			var verr *ports.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.wantField, verr.Field)
			assert.True(t, errors.Is(err, ports.ErrValidation))
		})
	}
}
