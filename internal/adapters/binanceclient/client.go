package binanceclient

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/adshao/go-binance/v2/common"
	"github.com/adshao/go-binance/v2/futures"
	"github.com/shopspring/decimal"

	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

const (
	// Base URLs
	baseURLProduction = "https://fapi.binance.com"
	baseURLTestnet    = "https://testnet.binancefuture.com"

	defaultQuoteAsset = "USDT"
)

// Oracle implements ports.PriceOracle with the Binance USDⓈ-M futures ticker.
type Oracle struct {
	futuresClient *futures.Client
	logger        ports.Logger
	quoteAsset    string
	supported     map[string]struct{}
}

// Config holds configuration specific to the Binance oracle adapter.
type Config struct {
	APIKey           string
	SecretKey        string
	UseTestnet       bool
	BaseURL          string // Overrides the production/testnet URL when set
	QuoteAsset       string // Pair suffix, e.g. USDT makes BTC -> BTCUSDT
	SupportedSymbols []string
	Logger           ports.Logger
}

// New creates a new Binance price oracle.
func New(cfg Config) (*Oracle, error) {
	if cfg.Logger == nil {
		return nil, fmt.Errorf("logger is required for Binance oracle")
	}
	if len(cfg.SupportedSymbols) == 0 {
		return nil, fmt.Errorf("supported symbols are required for Binance oracle: %w", ports.ErrConfigurationError)
	}
	if cfg.APIKey == "" || cfg.SecretKey == "" {
		// The ticker endpoint is public.
		cfg.Logger.Debug(context.Background(), "APIKey or SecretKey is empty. Oracle uses public endpoints only.")
	}

	client := futures.NewClient(cfg.APIKey, cfg.SecretKey)

	// Set BaseURL directly instead of using global futures.UseTestnet
	switch {
	case cfg.BaseURL != "":
		client.BaseURL = cfg.BaseURL
	case cfg.UseTestnet:
		client.BaseURL = baseURLTestnet
	default:
		client.BaseURL = baseURLProduction
	}
	cfg.Logger.Info(context.Background(), "Binance oracle configured", ports.Fields{"baseURL": client.BaseURL, "testnet": cfg.UseTestnet})

	quote := strings.ToUpper(strings.TrimSpace(cfg.QuoteAsset))
	if quote == "" {
		quote = defaultQuoteAsset
	}

	supported := make(map[string]struct{}, len(cfg.SupportedSymbols))
	for _, s := range cfg.SupportedSymbols {
		supported[strings.ToUpper(strings.TrimSpace(s))] = struct{}{}
	}

	return &Oracle{
		futuresClient: client,
		logger:        cfg.Logger,
		quoteAsset:    quote,
		supported:     supported,
	}, nil
}

// handleError translates Binance API and transport errors into ports errors.
// Every result also wraps ports.ErrOracleUnavailable so callers can classify it.
func (o *Oracle) handleError(ctx context.Context, err error, operation string) error {
	if err == nil {
		return nil
	}

	fields := ports.Fields{"operation": operation, "originalError": err.Error()}

	var mappedErr error
	var apiErr *common.APIError
	switch {
	case errors.As(err, &apiErr):
		fields["apiErrorCode"] = apiErr.Code
		fields["apiErrorMessage"] = apiErr.Message
		switch apiErr.Code {
		case -1003: // Too many requests
			mappedErr = ports.ErrRateLimited
		case -1021: // Timestamp outside of the recvWindow
			mappedErr = ports.ErrTimeout
		case -1121: // Invalid symbol
			mappedErr = ports.ErrNotFound
		default:
			mappedErr = ports.ErrUnknown
		}
	case errors.Is(err, context.DeadlineExceeded):
		mappedErr = ports.ErrTimeout
	case errors.Is(err, context.Canceled):
		mappedErr = ports.ErrContextCanceled
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset by peer"),
		strings.Contains(err.Error(), "no such host"):
		mappedErr = ports.ErrConnectionFailed
	default:
		mappedErr = ports.ErrUnknown
	}

	o.logger.Error(ctx, err, fmt.Sprintf("%s failed", operation), fields)
	return fmt.Errorf("%s failed: %w: %w: %w", operation, ports.ErrOracleUnavailable, mappedErr, err)
}

// pair maps a portfolio symbol to its futures pair, e.g. BTC -> BTCUSDT.
func (o *Oracle) pair(symbol string) string {
	return symbol + o.quoteAsset
}

// FetchPrices returns the latest ticker price for every requested symbol.
func (o *Oracle) FetchPrices(ctx context.Context, symbols []string) (map[string]decimal.Decimal, error) {
	op := "FetchPrices"
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%s: no symbols requested: %w", op, ports.ErrOracleUnavailable)
	}

	wanted := make(map[string]string, len(symbols)) // pair -> symbol
	var unsupported []string
	for _, s := range symbols {
		if _, ok := o.supported[s]; !ok {
			unsupported = append(unsupported, s)
			continue
		}
		wanted[o.pair(s)] = s
	}
	if len(unsupported) > 0 {
		sort.Strings(unsupported)
		return nil, fmt.Errorf("%s: unsupported symbols %s: %w", op, strings.Join(unsupported, ","), ports.ErrOracleUnavailable)
	}

	tickers, err := o.futuresClient.NewListPricesService().Do(ctx)
	if err != nil {
		return nil, o.handleError(ctx, err, op)
	}

	prices := make(map[string]decimal.Decimal, len(wanted))
	for _, t := range tickers {
		symbol, ok := wanted[t.Symbol]
		if !ok {
			continue
		}
		price, err := decimal.NewFromString(t.Price)
		if err != nil {
			parseErr := fmt.Errorf("could not parse price '%s' for %s: %w", t.Price, t.Symbol, err)
			return nil, o.handleError(ctx, parseErr, op)
		}
		prices[symbol] = price
	}

	if len(prices) != len(wanted) {
		var missing []string
		for p, s := range wanted {
			if _, ok := prices[s]; !ok {
				missing = append(missing, p)
			}
		}
		sort.Strings(missing)
		err := fmt.Errorf("no ticker returned for %s", strings.Join(missing, ","))
		return nil, o.handleError(ctx, err, op)
	}

	o.logger.Debug(ctx, op+" successful", ports.Fields{"symbols": len(prices)})
	return prices, nil
}
