package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PositionPnL is a position enriched with its mark-to-market valuation.
type PositionPnL struct {
	Position
	CurrentPrice            decimal.Decimal
	CurrentValue            decimal.Decimal
	UnrealizedPnL           decimal.Decimal
	UnrealizedPnLPercentage decimal.Decimal
}

// PnLSummary combines portfolio realized PnL with unrealized PnL of the open positions.
type PnLSummary struct {
	RealizedPnL   decimal.Decimal
	UnrealizedPnL decimal.Decimal
	Currency      string
	Positions     []PositionPnL
	UpdatedAt     time.Time
}
