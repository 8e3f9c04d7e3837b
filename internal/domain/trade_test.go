package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewTradeRef(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want string
	}{
		{name: "uuid", id: "3f2a9c1e-7b4d-4e8a-9c1d-2b3a4c5d6e7f", want: "TRADE_3F2A9C1E7B4D"},
		{name: "short id", id: "abc", want: "TRADE_ABC"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewTradeRef(tt.id))
		})
	}
}

func TestTrade_Notional(t *testing.T) {
	trade := Trade{Price: decimal.RequireFromString("0.5"), Quantity: decimal.RequireFromString("3")}
	assert.Equal(t, "1.5", trade.Notional().String())
}

func TestOrderSide_IsValid(t *testing.T) {
	assert.True(t, Buy.IsValid())
	assert.True(t, Sell.IsValid())
	assert.False(t, OrderSide("buy").IsValid())
	assert.False(t, OrderSide("").IsValid())
}
