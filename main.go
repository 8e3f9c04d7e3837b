package main

import (
	"context"
	"log" // Use standard log only for initial fatal errors before logger is set up
	"os"
	"os/signal"
	"syscall"

	"github.com/pawankumargali/pnl-tracker/config"
	"github.com/pawankumargali/pnl-tracker/internal/adapters/httpapi"
	"github.com/pawankumargali/pnl-tracker/internal/bootstrap"
)

func main() {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err) // Use standard log before logger is ready
	}

	// 2. Initialize Logger
	appLogger := bootstrap.NewLogger(cfg)
	appLogger.Info(context.Background(), "Logger initialized", map[string]interface{}{"level": cfg.LogLevel.String(), "format": cfg.LogFormat})

	// Create a context that is canceled by SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Initialize Store, Price Oracle and Application Service
	svc, store, err := bootstrap.NewService(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize portfolio service")
		log.Fatalf("FATAL: Failed to initialize portfolio service: %v", err) // Also log to stderr
	}
	defer func() {
		if err := store.Close(); err != nil {
			appLogger.Error(context.Background(), err, "Error closing store")
		}
	}()
	appLogger.Info(context.Background(), "Portfolio service initialized", map[string]interface{}{
		"store":       cfg.StoreDriver,
		"priceSource": cfg.PriceSource,
	})

	// 4. Initialize HTTP Server
	server, err := httpapi.New(httpapi.Config{
		Port:            cfg.Port,
		RateLimitRPM:    cfg.RateLimitRPM,
		ShutdownTimeout: cfg.ShutdownTimeout,
		Logger:          appLogger,
	}, svc)
	if err != nil {
		appLogger.Error(context.Background(), err, "FATAL: Failed to initialize HTTP server")
		log.Fatalf("FATAL: Failed to initialize HTTP server: %v", err)
	}

	// 5. Serve until a shutdown signal arrives
	if err := server.Start(ctx); err != nil {
		appLogger.Error(context.Background(), err, "HTTP server exited with error")
		stop()
		store.Close()
		log.Fatalf("FATAL: HTTP server exited with error: %v", err)
	}

	appLogger.Info(context.Background(), "Application finished gracefully.")
}
