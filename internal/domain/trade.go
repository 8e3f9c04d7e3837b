package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TradeInput is a caller-supplied trade before validation and normalization.
// Nil decimals and a zero Timestamp mean the field was not provided.
type TradeInput struct {
	ID        int64
	Symbol    string
	Side      OrderSide
	Price     *decimal.Decimal
	Quantity  *decimal.Decimal
	Fee       *decimal.Decimal
	Timestamp time.Time
}

// Trade is an executed trade as recorded in the ledger. It is never mutated after creation.
type Trade struct {
	ID        int64           `json:"id"`    // Caller-supplied trade id (not required to be unique)
	RefID     string          `json:"refId"` // System-generated reference, e.g. TRADE_3F2A9C0B11D4
	Symbol    string          `json:"symbol"`
	Side      OrderSide       `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Quantity  decimal.Decimal `json:"quantity"`
	Fee       decimal.Decimal `json:"fee"`
	Currency  string          `json:"currency"`
	Timestamp time.Time       `json:"timestamp"` // Execution time (UTC)
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Notional returns price × quantity.
func (t Trade) Notional() decimal.Decimal {
	return t.Price.Mul(t.Quantity)
}

// TradeRefPrefix prefixes every trade reference id.
const TradeRefPrefix = "TRADE_"

// NewTradeRef derives a trade reference from an opaque unique id: TRADE_ followed by
// its first 12 hex characters in upper case.
func NewTradeRef(id string) string {
	hex := strings.ToUpper(strings.ReplaceAll(id, "-", ""))
	if len(hex) > 12 {
		hex = hex[:12]
	}
	return TradeRefPrefix + hex
}
