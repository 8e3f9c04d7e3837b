package ports

import (
	"context"

	"github.com/shopspring/decimal"
)

// PriceOracle resolves current mark prices for a set of symbols.
type PriceOracle interface {
	// FetchPrices returns a price for every requested symbol or fails as a whole.
	// Implementations must reject an empty request and any unsupported symbol
	// with an error wrapping ErrOracleUnavailable.
	FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error)
}

// IDGenerator produces opaque unique strings used for human-readable trade references.
type IDGenerator interface {
	Next() string
}
