package httpapi

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

// recordTradeRequest is the body of POST /api/v1/trades. Numeric fields accept a
// JSON number or a numeric string.
type recordTradeRequest struct {
	ID        json.RawMessage `json:"id"`
	Symbol    *string         `json:"symbol"`
	Side      *string         `json:"side"`
	Price     json.RawMessage `json:"price"`
	Quantity  json.RawMessage `json:"quantity"`
	Fee       json.RawMessage `json:"fee"`
	Timestamp *string         `json:"timestamp"`
}

// Accepted timestamp layouts. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (req recordTradeRequest) toInput() (domain.TradeInput, error) {
	var in domain.TradeInput

	if isNull(req.ID) {
		return in, ports.NewValidationError("id", "ID is required")
	}
	id, err := strconv.ParseInt(string(req.ID), 10, 64)
	if err != nil {
		return in, ports.NewValidationError("id", "ID must be a positive integer")
	}
	in.ID = id

	if req.Symbol == nil {
		return in, ports.NewValidationError("symbol", "Symbol is required")
	}
	in.Symbol = *req.Symbol

	if req.Side == nil {
		return in, ports.NewValidationError("side", "Side is required")
	}
	in.Side = domain.OrderSide(*req.Side)

	if in.Price, err = parseDecimal("price", req.Price); err != nil {
		return in, err
	}
	if in.Quantity, err = parseDecimal("quantity", req.Quantity); err != nil {
		return in, err
	}
	if in.Fee, err = parseDecimal("fee", req.Fee); err != nil {
		return in, err
	}

	if req.Timestamp == nil {
		return in, ports.NewValidationError("timestamp", "Timestamp is required")
	}
	if in.Timestamp, err = parseTimestamp(*req.Timestamp); err != nil {
		return in, err
	}
	return in, nil
}

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || string(raw) == "null"
}

// parseDecimal returns nil for an absent field.
func parseDecimal(field string, raw json.RawMessage) (*decimal.Decimal, error) {
	if isNull(raw) {
		return nil, nil
	}
	text := string(raw)
	if strings.HasPrefix(text, `"`) {
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, ports.NewValidationError(field, "Invalid input: expected number")
		}
	}
	d, err := decimal.NewFromString(strings.TrimSpace(text))
	if err != nil {
		return nil, ports.NewValidationError(field, "Invalid input: expected number")
	}
	return &d, nil
}

func parseTimestamp(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, ports.NewValidationError("timestamp", "Invalid date")
}

type tradeResponse struct {
	ID        int64     `json:"id"`
	RefID     string    `json:"refId"`
	Symbol    string    `json:"symbol"`
	Side      string    `json:"side"`
	Price     string    `json:"price"`
	Quantity  string    `json:"quantity"`
	Fee       string    `json:"fee"`
	Currency  string    `json:"currency"`
	Timestamp time.Time `json:"timestamp"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func newTradeResponse(t domain.Trade) tradeResponse {
	return tradeResponse{
		ID:        t.ID,
		RefID:     t.RefID,
		Symbol:    t.Symbol,
		Side:      string(t.Side),
		Price:     money(t.Price),
		Quantity:  money(t.Quantity),
		Fee:       money(t.Fee),
		Currency:  t.Currency,
		Timestamp: t.Timestamp,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

type positionResponse struct {
	Symbol       string    `json:"symbol"`
	Quantity     string    `json:"quantity"`
	AveragePrice string    `json:"averagePrice"`
	TotalCost    string    `json:"totalCost"`
	RealizedPnL  string    `json:"realizedPnL"`
	Currency     string    `json:"currency"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func newPositionResponse(p domain.Position) positionResponse {
	return positionResponse{
		Symbol:       p.Symbol,
		Quantity:     money(p.Quantity),
		AveragePrice: money(p.AveragePrice),
		TotalCost:    money(p.TotalCost),
		RealizedPnL:  money(p.RealizedPnL),
		Currency:     p.Currency,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

type positionPnLResponse struct {
	positionResponse
	CurrentPrice            string `json:"currentPrice"`
	CurrentValue            string `json:"currentValue"`
	UnrealizedPnL           string `json:"unrealizedPnL"`
	UnrealizedPnLPercentage string `json:"unrealizedPnLPercentage"`
}

type pnlSummaryResponse struct {
	RealizedPnL   string                `json:"realizedPnL"`
	UnrealizedPnL string                `json:"unrealizedPnL"`
	Currency      string                `json:"currency"`
	Positions     []positionPnLResponse `json:"positions"`
	UpdatedAt     time.Time             `json:"updatedAt"`
}

func newPnLSummaryResponse(s *domain.PnLSummary) pnlSummaryResponse {
	out := pnlSummaryResponse{
		RealizedPnL:   money(s.RealizedPnL),
		UnrealizedPnL: money(s.UnrealizedPnL),
		Currency:      s.Currency,
		Positions:     make([]positionPnLResponse, 0, len(s.Positions)),
		UpdatedAt:     s.UpdatedAt,
	}
	for _, p := range s.Positions {
		out.Positions = append(out.Positions, positionPnLResponse{
			positionResponse:        newPositionResponse(p.Position),
			CurrentPrice:            money(p.CurrentPrice),
			CurrentValue:            money(p.CurrentValue),
			UnrealizedPnL:           money(p.UnrealizedPnL),
			UnrealizedPnLPercentage: p.UnrealizedPnLPercentage.StringFixed(domain.PercentPrecision),
		})
	}
	return out
}

// money renders a monetary value with exactly domain.Precision fractional digits.
func money(d decimal.Decimal) string {
	return d.StringFixed(domain.Precision)
}
