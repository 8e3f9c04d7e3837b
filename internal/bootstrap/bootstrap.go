// Package bootstrap builds the adapters selected by configuration. It is shared by
// the API server and the pnlctl command line tool.
package bootstrap

import (
	"context"
	"fmt"
	"time"

	"github.com/pawankumargali/pnl-tracker/config"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/binanceclient"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/idgen"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/logger"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/memory"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/postgres"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/sqlite"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/staticprices"
	"github.com/pawankumargali/pnl-tracker/internal/app"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

// NewLogger returns the logger selected by LOG_FORMAT.
func NewLogger(cfg *config.Config) ports.Logger {
	return logger.NewZerologLogger(cfg.LogLevel, cfg.LogFormat == config.LogFormatConsole)
}

// NewStore opens the store selected by STORE_DRIVER.
func NewStore(ctx context.Context, cfg *config.Config, log ports.Logger) (ports.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreSQLite:
		store, err := sqlite.NewStore(sqlite.Config{DBPath: cfg.DBPath, Logger: log})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StorePostgres:
		store, err := postgres.NewStore(ctx, postgres.Config{DatabaseURL: cfg.DatabaseURL, Logger: log})
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.StoreMemory:
		log.Warn(ctx, "Using in-memory store, state is lost on restart")
		return memory.NewStore(time.Minute), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q: %w", cfg.StoreDriver, ports.ErrConfigurationError)
	}
}

// NewOracle builds the price oracle selected by PRICE_SOURCE.
func NewOracle(cfg *config.Config, log ports.Logger) (ports.PriceOracle, error) {
	switch cfg.PriceSource {
	case config.PriceSourceBinance:
		oracle, err := binanceclient.New(binanceclient.Config{
			APIKey:           cfg.APIKey,
			SecretKey:        cfg.SecretKey,
			UseTestnet:       cfg.IsTestnet,
			QuoteAsset:       cfg.QuoteAsset,
			SupportedSymbols: cfg.SupportedSymbols,
			Logger:           log,
		})
		if err != nil {
			return nil, err
		}
		return oracle, nil
	case config.PriceSourceStatic:
		var oracle *staticprices.Oracle
		var err error
		if cfg.PriceTablePath != "" {
			oracle, err = staticprices.LoadFile(cfg.PriceTablePath, cfg.SupportedSymbols)
		} else {
			oracle, err = staticprices.New(staticprices.DefaultPrices, cfg.SupportedSymbols)
		}
		if err != nil {
			return nil, err
		}
		log.Info(context.Background(), "Static price oracle configured", ports.Fields{"table": cfg.PriceTablePath, "symbols": len(cfg.SupportedSymbols)})
		return oracle, nil
	default:
		return nil, fmt.Errorf("unknown price source %q: %w", cfg.PriceSource, ports.ErrConfigurationError)
	}
}

// NewService opens the store and oracle and returns the portfolio service.
// The returned store must be closed by the caller.
func NewService(ctx context.Context, cfg *config.Config, log ports.Logger) (*app.PortfolioService, ports.Store, error) {
	store, err := NewStore(ctx, cfg, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	oracle, err := NewOracle(cfg, log)
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to initialize price oracle: %w", err)
	}

	svc, err := app.NewPortfolioService(cfg, log, store, oracle, idgen.New())
	if err != nil {
		store.Close()
		return nil, nil, fmt.Errorf("failed to initialize portfolio service: %w", err)
	}
	return svc, store, nil
}
