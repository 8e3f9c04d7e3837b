package domain

// OrderSide represents the side of a trade (BUY or SELL).
type OrderSide string

const (
	Buy  OrderSide = "BUY"
	Sell OrderSide = "SELL"
)

// IsValid reports whether the side is one of the supported values.
func (s OrderSide) IsValid() bool {
	return s == Buy || s == Sell
}

const (
	// Precision is the number of fractional digits carried by every persisted decimal.
	Precision int32 = 8
	// PercentPrecision is used for unrealized PnL percentages.
	PercentPrecision int32 = 2
	// DefaultCurrency is reported when no position carries a currency.
	DefaultCurrency = "USD"
)
