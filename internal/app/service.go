package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawankumargali/pnl-tracker/config"
	"github.com/pawankumargali/pnl-tracker/internal/accounting"
	"github.com/pawankumargali/pnl-tracker/internal/domain"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

const minSymbolLength = 3

// PortfolioService records trades and serves positions and PnL from the durable store.
type PortfolioService struct {
	cfg    *config.Config
	logger ports.Logger
	store  ports.Store
	oracle ports.PriceOracle
	ids    ports.IDGenerator
	now    func() time.Time
}

// NewPortfolioService creates a new application service instance.
func NewPortfolioService(
	cfg *config.Config,
	logger ports.Logger,
	store ports.Store,
	oracle ports.PriceOracle,
	ids ports.IDGenerator,
) (*PortfolioService, error) {

	// Validate dependencies
	if cfg == nil || logger == nil || store == nil || oracle == nil || ids == nil {
		return nil, fmt.Errorf("missing required dependencies for PortfolioService")
	}

	// Validate config values needed by service
	if cfg.TradeHistoryKey == "" || cfg.PositionsKey == "" || cfg.RealizedPnLKey == "" {
		return nil, fmt.Errorf("configuration store keys must be set")
	}
	if cfg.StoreTTL < 0 {
		return nil, fmt.Errorf("configuration StoreTTL cannot be negative")
	}

	return &PortfolioService{
		cfg:    cfg,
		logger: logger,
		store:  store,
		oracle: oracle,
		ids:    ids,
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// RecordTrade validates and normalizes a trade, appends it to the ledger and applies it
// to the position book. The ledger, the position map and the accumulator change together
// in one store transaction, serialized against every other writer of the store. A rejected
// trade (validation or insufficient position) leaves every key untouched.
func (s *PortfolioService) RecordTrade(ctx context.Context, in domain.TradeInput) (*domain.Trade, error) {
	op := "RecordTrade"

	trade, err := normalizeTrade(in)
	if err != nil {
		s.logger.Warn(ctx, op+": Rejected invalid trade", ports.Fields{"error": err.Error()})
		return nil, err
	}

	now := s.now()
	trade.RefID = domain.NewTradeRef(s.ids.Next())
	trade.Currency = s.currency()
	trade.CreatedAt = now
	trade.UpdatedAt = now

	var outcome accounting.Outcome
	var rejected error
	err = s.store.Update(ctx, s.keys(), s.cfg.StoreTTL, func(current map[string][]byte) ([]ports.Entry, error) {
		var entries []ports.Entry
		entries, outcome, rejected = s.applyTrade(current, trade, now)
		return entries, rejected
	})
	if rejected != nil {
		if errors.Is(rejected, ports.ErrInsufficientPosition) {
			s.logger.Warn(ctx, op+": Trade rejected by accounting engine", ports.Fields{
				"refId":    trade.RefID,
				"symbol":   trade.Symbol,
				"side":     trade.Side,
				"quantity": trade.Quantity.String(),
				"error":    rejected.Error(),
			})
		} else {
			s.logger.Error(ctx, rejected, op+": Failed to prepare state update", ports.Fields{"refId": trade.RefID})
		}
		return nil, rejected
	}
	if err != nil {
		err = fmt.Errorf("commit trade %s: %w: %w", trade.RefID, ports.ErrPersistence, err)
		s.logger.Error(ctx, err, op+": Failed to commit trade", ports.Fields{
			"refId":  trade.RefID,
			"symbol": trade.Symbol,
		})
		return nil, err
	}

	fields := ports.Fields{
		"refId":    trade.RefID,
		"id":       trade.ID,
		"symbol":   trade.Symbol,
		"side":     trade.Side,
		"price":    trade.Price.String(),
		"quantity": trade.Quantity.String(),
		"fee":      trade.Fee.String(),
		"position": outcome.Position.Quantity.String(),
	}
	if trade.Side == domain.Sell {
		fields["realizedPnL"] = outcome.RealizedPnL.String()
		fields["closed"] = outcome.Closed
	}
	s.logger.Info(ctx, op+": Trade recorded", fields)

	return &trade, nil
}

// applyTrade folds trade into the current state and returns the entries to commit.
// The accumulator key is written from the first SELL onwards.
func (s *PortfolioService) applyTrade(current map[string][]byte, trade domain.Trade, now time.Time) ([]ports.Entry, accounting.Outcome, error) {
	book, err := s.decodeBook(current)
	if err != nil {
		return nil, accounting.Outcome{}, err
	}
	next, outcome, err := accounting.Apply(book, trade, now)
	if err != nil {
		return nil, accounting.Outcome{}, err
	}

	trades, err := s.decodeTrades(current)
	if err != nil {
		return nil, accounting.Outcome{}, err
	}
	history, err := json.Marshal(append(trades, trade))
	if err != nil {
		return nil, accounting.Outcome{}, fmt.Errorf("encode trade history: %w: %w", ports.ErrPersistence, err)
	}
	positions, err := json.Marshal(next.Positions)
	if err != nil {
		return nil, accounting.Outcome{}, fmt.Errorf("encode positions: %w: %w", ports.ErrPersistence, err)
	}

	entries := []ports.Entry{
		{Key: s.cfg.TradeHistoryKey, Value: history},
		{Key: s.cfg.PositionsKey, Value: positions},
	}
	if _, exists := current[s.cfg.RealizedPnLKey]; exists || trade.Side == domain.Sell {
		realized, err := json.Marshal(next.RealizedPnL)
		if err != nil {
			return nil, accounting.Outcome{}, fmt.Errorf("encode realized pnl: %w: %w", ports.ErrPersistence, err)
		}
		entries = append(entries, ports.Entry{Key: s.cfg.RealizedPnLKey, Value: realized})
	}
	return entries, outcome, nil
}

// ListTrades returns the ledger in insertion order.
func (s *PortfolioService) ListTrades(ctx context.Context) ([]domain.Trade, error) {
	current, err := s.read(ctx, s.cfg.TradeHistoryKey)
	if err != nil {
		s.logger.Error(ctx, err, "ListTrades: Failed to load trade history")
		return nil, err
	}
	trades, err := s.decodeTrades(current)
	if err != nil {
		s.logger.Error(ctx, err, "ListTrades: Failed to decode trade history")
		return nil, err
	}
	return trades, nil
}

// GetPositions returns every open position keyed by symbol.
func (s *PortfolioService) GetPositions(ctx context.Context) (map[string]domain.Position, error) {
	book, err := s.loadBook(ctx)
	if err != nil {
		s.logger.Error(ctx, err, "GetPositions: Failed to load positions")
		return nil, err
	}
	return book.Positions, nil
}

// ListPositions returns every open position sorted by symbol.
func (s *PortfolioService) ListPositions(ctx context.Context) ([]domain.Position, error) {
	positions, err := s.GetPositions(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Position, 0, len(positions))
	for _, sym := range accounting.Symbols(positions) {
		out = append(out, positions[sym])
	}
	return out, nil
}

// GetPnLSummary values every open position at the oracle's current prices and combines
// the result with the realized PnL accumulator.
func (s *PortfolioService) GetPnLSummary(ctx context.Context) (*domain.PnLSummary, error) {
	op := "GetPnLSummary"

	// Positions and accumulator come from one snapshot; pricing happens outside any transaction.
	book, err := s.loadBook(ctx)
	if err != nil {
		s.logger.Error(ctx, err, op+": Failed to load positions")
		return nil, err
	}

	prices := map[string]decimal.Decimal{}
	if len(book.Positions) > 0 {
		symbols := accounting.Symbols(book.Positions)
		prices, err = s.oracle.FetchPrices(ctx, symbols)
		if err != nil {
			if !errors.Is(err, ports.ErrOracleUnavailable) {
				err = fmt.Errorf("%w: %w", ports.ErrOracleUnavailable, err)
			}
			s.logger.Error(ctx, err, op+": Failed to fetch prices", ports.Fields{"symbols": strings.Join(symbols, ",")})
			return nil, err
		}
	}

	summary, err := accounting.Summarize(book, prices, s.currency(), s.now())
	if err != nil {
		s.logger.Error(ctx, err, op+": Failed to value positions")
		return nil, err
	}

	s.logger.Debug(ctx, op+": Summary computed", ports.Fields{
		"positions":     len(summary.Positions),
		"realizedPnL":   summary.RealizedPnL.String(),
		"unrealizedPnL": summary.UnrealizedPnL.String(),
	})
	return summary, nil
}

func (s *PortfolioService) currency() string {
	if s.cfg.DefaultCurrency == "" {
		return domain.DefaultCurrency
	}
	return s.cfg.DefaultCurrency
}

// normalizeTrade validates caller input and rounds every decimal to domain.Precision.
func normalizeTrade(in domain.TradeInput) (domain.Trade, error) {
	if in.ID <= 0 {
		return domain.Trade{}, ports.NewValidationError("id", "ID must be a positive integer")
	}

	symbol := strings.ToUpper(strings.TrimSpace(in.Symbol))
	if symbol == "" {
		return domain.Trade{}, ports.NewValidationError("symbol", "Symbol is required")
	}
	if len(symbol) < minSymbolLength {
		return domain.Trade{}, ports.NewValidationError("symbol", fmt.Sprintf("Symbol must be at least %d characters", minSymbolLength))
	}

	side := domain.OrderSide(strings.ToUpper(strings.TrimSpace(string(in.Side))))
	if !side.IsValid() {
		return domain.Trade{}, ports.NewValidationError("side", "Side must be BUY or SELL")
	}

	price, err := positiveDecimal("price", in.Price)
	if err != nil {
		return domain.Trade{}, err
	}
	quantity, err := positiveDecimal("quantity", in.Quantity)
	if err != nil {
		return domain.Trade{}, err
	}

	fee := decimal.Zero
	if in.Fee != nil {
		fee = in.Fee.Round(domain.Precision)
		if fee.IsNegative() {
			return domain.Trade{}, ports.NewValidationError("fee", "Fee cannot be negative")
		}
	}

	if in.Timestamp.IsZero() {
		return domain.Trade{}, ports.NewValidationError("timestamp", "Timestamp is required")
	}

	return domain.Trade{
		ID:        in.ID,
		Symbol:    symbol,
		Side:      side,
		Price:     price,
		Quantity:  quantity,
		Fee:       fee,
		Timestamp: in.Timestamp.UTC(),
	}, nil
}

func positiveDecimal(field string, d *decimal.Decimal) (decimal.Decimal, error) {
	title := strings.ToUpper(field[:1]) + field[1:]
	if d == nil {
		return decimal.Zero, ports.NewValidationError(field, title+" is required")
	}
	rounded := d.Round(domain.Precision)
	if !rounded.IsPositive() {
		return decimal.Zero, ports.NewValidationError(field, title+" must be positive")
	}
	return rounded, nil
}

// --- Store access ---

func (s *PortfolioService) keys() []string {
	return []string{s.cfg.TradeHistoryKey, s.cfg.PositionsKey, s.cfg.RealizedPnLKey}
}

func (s *PortfolioService) read(ctx context.Context, keys ...string) (map[string][]byte, error) {
	current, err := s.store.GetMany(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w: %w", strings.Join(keys, ","), ports.ErrPersistence, err)
	}
	return current, nil
}

// loadBook reads the position map and the accumulator as one snapshot.
func (s *PortfolioService) loadBook(ctx context.Context) (accounting.Book, error) {
	current, err := s.read(ctx, s.cfg.PositionsKey, s.cfg.RealizedPnLKey)
	if err != nil {
		return accounting.NewBook(), err
	}
	return s.decodeBook(current)
}

// decodeBook builds the book from raw values. Absent keys are the cold-start state.
func (s *PortfolioService) decodeBook(current map[string][]byte) (accounting.Book, error) {
	book := accounting.NewBook()

	positions := map[string]domain.Position{}
	found, err := decodeJSON(current, s.cfg.PositionsKey, &positions)
	if err != nil {
		return book, err
	}
	if found && positions != nil {
		book.Positions = positions
	}

	var realized decimal.Decimal
	found, err = decodeJSON(current, s.cfg.RealizedPnLKey, &realized)
	if err != nil {
		return book, err
	}
	if found {
		book.RealizedPnL = realized
	}
	return book, nil
}

func (s *PortfolioService) decodeTrades(current map[string][]byte) ([]domain.Trade, error) {
	trades := []domain.Trade{}
	found, err := decodeJSON(current, s.cfg.TradeHistoryKey, &trades)
	if err != nil {
		return nil, err
	}
	if !found || trades == nil {
		return []domain.Trade{}, nil
	}
	return trades, nil
}

func decodeJSON(current map[string][]byte, key string, v interface{}) (bool, error) {
	data, found := current[key]
	if !found || len(data) == 0 {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w: %w", key, ports.ErrPersistence, err)
	}
	return true, nil
}
