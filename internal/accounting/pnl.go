package accounting

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

var hundred = decimal.NewFromInt(100)

// Symbols returns the distinct symbols held in positions, sorted.
func Symbols(positions map[string]domain.Position) []string {
	symbols := make([]string, 0, len(positions))
	for sym := range positions {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)
	return symbols
}

// UnrealizedPnL values a single position at currentPrice.
func UnrealizedPnL(pos domain.Position, currentPrice decimal.Decimal) domain.PositionPnL {
	currentValue := round(currentPrice.Mul(pos.Quantity))
	unrealized := currentValue.Sub(pos.TotalCost)

	percentage := decimal.Zero
	if !pos.TotalCost.IsZero() {
		percentage = unrealized.Mul(hundred).DivRound(pos.TotalCost, domain.PercentPrecision)
	}

	return domain.PositionPnL{
		Position:                pos,
		CurrentPrice:            currentPrice,
		CurrentValue:            currentValue,
		UnrealizedPnL:           unrealized,
		UnrealizedPnLPercentage: percentage,
	}
}

// Summarize combines the realized accumulator with the mark-to-market valuation of every
// open position. prices must contain every held symbol; partial pricing is rejected.
// The total unrealized PnL is the sum of the per-position values.
func Summarize(book Book, prices map[string]decimal.Decimal, defaultCurrency string, now time.Time) (*domain.PnLSummary, error) {
	summary := &domain.PnLSummary{
		RealizedPnL:   book.RealizedPnL,
		UnrealizedPnL: decimal.Zero,
		Currency:      defaultCurrency,
		Positions:     make([]domain.PositionPnL, 0, len(book.Positions)),
		UpdatedAt:     now,
	}

	for _, sym := range Symbols(book.Positions) {
		pos := book.Positions[sym]
		price, ok := prices[sym]
		if !ok {
			return nil, fmt.Errorf("no price returned for symbol %s: %w", sym, ports.ErrOracleUnavailable)
		}

		valued := UnrealizedPnL(pos, price)
		summary.Positions = append(summary.Positions, valued)
		summary.UnrealizedPnL = summary.UnrealizedPnL.Add(valued.UnrealizedPnL)
		if pos.Currency != "" {
			summary.Currency = pos.Currency
		}
	}

	return summary, nil
}
