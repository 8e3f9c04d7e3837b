package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Position is the aggregated long holding of one symbol under the average-cost method.
type Position struct {
	Symbol       string          `json:"symbol"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"` // Cost-weighted, fees included
	TotalCost    decimal.Decimal `json:"totalCost"`    // Running total, not recomputed from AveragePrice
	RealizedPnL  decimal.Decimal `json:"realizedPnL"`  // Cumulative for this symbol while the position is open
	Currency     string          `json:"currency"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}
