// Package accounting implements average-cost position accounting.
//
// The functions in this package are pure: they take the current book and a trade
// and return a new book. Persistence and locking are the caller's concern.
package accounting

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

// Book is the authoritative accounting state: open positions keyed by symbol
// and the portfolio-level realized PnL accumulator.
type Book struct {
	Positions   map[string]domain.Position
	RealizedPnL decimal.Decimal
}

// NewBook returns the cold-start book: no positions and zero realized PnL.
func NewBook() Book {
	return Book{Positions: make(map[string]domain.Position)}
}

// Clone returns a copy of the book whose position map can be mutated freely.
func (b Book) Clone() Book {
	positions := make(map[string]domain.Position, len(b.Positions))
	for sym, pos := range b.Positions {
		positions[sym] = pos
	}
	return Book{Positions: positions, RealizedPnL: b.RealizedPnL}
}

// Outcome describes the effect of a single trade on the book.
type Outcome struct {
	Position    domain.Position // State of the position after the trade
	Closed      bool            // True when the trade exhausted the position and it was removed
	RealizedPnL decimal.Decimal // Realized PnL of this trade, zero for buys
}

// Apply folds trade into book and returns the resulting book. The input book is not modified.
// A sell that exceeds the available quantity fails with *ports.InsufficientPositionError
// and no state change.
func Apply(book Book, trade domain.Trade, now time.Time) (Book, Outcome, error) {
	if !trade.Price.IsPositive() {
		return book, Outcome{}, ports.NewValidationError("price", "Price must be positive")
	}
	if !trade.Quantity.IsPositive() {
		return book, Outcome{}, ports.NewValidationError("quantity", "Quantity must be positive")
	}
	if trade.Fee.IsNegative() {
		return book, Outcome{}, ports.NewValidationError("fee", "Fee cannot be negative")
	}

	switch trade.Side {
	case domain.Buy:
		return applyBuy(book, trade, now)
	case domain.Sell:
		return applySell(book, trade, now)
	default:
		return book, Outcome{}, ports.NewValidationError("side", "Side must be BUY or SELL")
	}
}

// applyBuy adds to (or opens) a position using the weighted-average-cost method:
// the average price is the running total cost divided by the running quantity.
func applyBuy(book Book, trade domain.Trade, now time.Time) (Book, Outcome, error) {
	next := book.Clone()
	tradeCost := trade.Notional().Add(trade.Fee)

	pos, exists := next.Positions[trade.Symbol]
	if !exists {
		pos = domain.Position{
			Symbol:       trade.Symbol,
			Quantity:     round(trade.Quantity),
			AveragePrice: tradeCost.DivRound(trade.Quantity, domain.Precision),
			TotalCost:    round(tradeCost),
			RealizedPnL:  decimal.Zero,
			Currency:     trade.Currency,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
	} else {
		newQuantity := pos.Quantity.Add(trade.Quantity)
		newTotalCost := pos.TotalCost.Add(tradeCost)

		pos.Quantity = round(newQuantity)
		pos.TotalCost = round(newTotalCost)
		pos.AveragePrice = newTotalCost.DivRound(newQuantity, domain.Precision)
		pos.UpdatedAt = now
	}

	next.Positions[trade.Symbol] = pos
	return next, Outcome{Position: pos, RealizedPnL: decimal.Zero}, nil
}

// applySell reduces a position and realizes PnL against the pre-trade average price.
// The average price of the remaining quantity is unchanged.
func applySell(book Book, trade domain.Trade, now time.Time) (Book, Outcome, error) {
	pos, exists := book.Positions[trade.Symbol]
	if !exists || pos.Quantity.IsZero() || pos.Quantity.LessThan(trade.Quantity) {
		return book, Outcome{}, &ports.InsufficientPositionError{
			Symbol:    trade.Symbol,
			Available: pos.Quantity,
			Requested: trade.Quantity,
		}
	}

	next := book.Clone()

	proceeds := trade.Notional().Sub(trade.Fee)
	costRemoved := round(pos.AveragePrice.Mul(trade.Quantity))
	realized := round(proceeds.Sub(costRemoved))

	pos.Quantity = round(pos.Quantity.Sub(trade.Quantity))
	pos.TotalCost = round(pos.TotalCost.Sub(costRemoved))
	pos.RealizedPnL = pos.RealizedPnL.Add(realized)
	pos.UpdatedAt = now

	next.RealizedPnL = next.RealizedPnL.Add(realized)

	outcome := Outcome{Position: pos, RealizedPnL: realized}
	if pos.Quantity.IsZero() {
		delete(next.Positions, trade.Symbol)
		outcome.Closed = true
		return next, outcome, nil
	}

	next.Positions[trade.Symbol] = pos
	return next, outcome, nil
}

func round(d decimal.Decimal) decimal.Decimal {
	return d.Round(domain.Precision)
}
