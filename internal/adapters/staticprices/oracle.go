package staticprices

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

// DefaultPrices is the built-in mark price table.
var DefaultPrices = map[string]string{
	"BTC":  "118000",
	"ETH":  "4500",
	"BNB":  "1000",
	"SOL":  "200",
	"XRP":  "3",
	"ADA":  "1",
	"POL":  "0.25",
	"BASE": "0.05",
}

// priceFile is the YAML layout of a price table file:
//
//	prices:
//	  BTC: 118000
//	  POL: "0.25"
type priceFile struct {
	Prices map[string]yaml.Node `yaml:"prices"`
}

// Oracle implements ports.PriceOracle from a fixed price table.
type Oracle struct {
	prices    map[string]decimal.Decimal
	supported map[string]struct{}
}

// New builds an oracle from a symbol -> price table. Every supported symbol needs a price.
func New(table map[string]string, supportedSymbols []string) (*Oracle, error) {
	if len(supportedSymbols) == 0 {
		return nil, fmt.Errorf("supported symbols are required: %w", ports.ErrConfigurationError)
	}

	prices := make(map[string]decimal.Decimal, len(table))
	for symbol, raw := range table {
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid price %q for %s: %w: %w", raw, symbol, ports.ErrConfigurationError, err)
		}
		if !price.IsPositive() {
			return nil, fmt.Errorf("price for %s must be positive: %w", symbol, ports.ErrConfigurationError)
		}
		prices[strings.ToUpper(strings.TrimSpace(symbol))] = price
	}

	supported := make(map[string]struct{}, len(supportedSymbols))
	for _, s := range supportedSymbols {
		s = strings.ToUpper(strings.TrimSpace(s))
		if _, ok := prices[s]; !ok {
			return nil, fmt.Errorf("no price configured for supported symbol %s: %w", s, ports.ErrConfigurationError)
		}
		supported[s] = struct{}{}
	}

	return &Oracle{prices: prices, supported: supported}, nil
}

// LoadFile reads a YAML price table and merges it over DefaultPrices.
func LoadFile(path string, supportedSymbols []string) (*Oracle, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read price table %s: %w: %w", path, ports.ErrConfigurationError, err)
	}

	var file priceFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse price table %s: %w: %w", path, ports.ErrConfigurationError, err)
	}

	table := make(map[string]string, len(DefaultPrices)+len(file.Prices))
	for s, p := range DefaultPrices {
		table[s] = p
	}
	for s, node := range file.Prices {
		if node.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("price for %s must be a scalar (line %d): %w", s, node.Line, ports.ErrConfigurationError)
		}
		table[s] = node.Value
	}
	return New(table, supportedSymbols)
}

// FetchPrices returns the configured price of each symbol.
func (o *Oracle) FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch prices: %w: %w", ports.ErrOracleUnavailable, err)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("fetch prices: no symbols requested: %w", ports.ErrOracleUnavailable)
	}

	var unsupported []string
	for _, s := range symbols {
		if _, ok := o.supported[s]; !ok {
			unsupported = append(unsupported, s)
		}
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return nil, fmt.Errorf("fetch prices: unsupported symbols %s: %w", strings.Join(unsupported, ","), ports.ErrOracleUnavailable)
	}

	out := make(map[string]decimal.Decimal, len(symbols))
	for _, s := range symbols {
		out[s] = o.prices[s]
	}
	return out, nil
}
