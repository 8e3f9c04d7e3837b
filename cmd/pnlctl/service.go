package main

import (
	"context"
	"errors"
	"flag"
	"fmt"

	"github.com/pawankumargali/pnl-tracker/config"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/logger"
	"github.com/pawankumargali/pnl-tracker/internal/app"
	"github.com/pawankumargali/pnl-tracker/internal/bootstrap"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

var verbose = flag.Bool("v", false, "log at the configured LOG_LEVEL instead of errors only")

// openService loads configuration and opens the configured store.
// The returned close function releases the store.
func openService(ctx context.Context) (*app.PortfolioService, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	if !*verbose {
		cfg.LogLevel = logger.LevelError
	}
	log := bootstrap.NewLogger(cfg)

	svc, store, err := bootstrap.NewService(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if err := store.Close(); err != nil {
			log.Error(ctx, err, "Error closing store")
		}
	}
	return svc, closeFn, nil
}

// describe renders an error for the terminal.
func describe(err error) string {
	var vErr *ports.ValidationError
	var posErr *ports.InsufficientPositionError
	switch {
	case errors.As(err, &vErr):
		return fmt.Sprintf("invalid input: %s", vErr.Error())
	case errors.As(err, &posErr):
		return posErr.Error()
	default:
		return err.Error()
	}
}
