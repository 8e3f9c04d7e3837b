// Package httpapi exposes the portfolio service over a JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/pawankumargali/pnl-tracker/internal/domain"
	"github.com/pawankumargali/pnl-tracker/internal/ports"
)

// PortfolioService is the subset of app.PortfolioService served over HTTP.
type PortfolioService interface {
	RecordTrade(ctx context.Context, in domain.TradeInput) (*domain.Trade, error)
	ListTrades(ctx context.Context) ([]domain.Trade, error)
	ListPositions(ctx context.Context) ([]domain.Position, error)
	GetPnLSummary(ctx context.Context) (*domain.PnLSummary, error)
}

// Config holds configuration for the HTTP server.
type Config struct {
	Port            int
	RateLimitRPM    int
	ShutdownTimeout time.Duration
	Logger          ports.Logger
}

// Server wires routes and middleware around a PortfolioService.
type Server struct {
	svc             PortfolioService
	logger          ports.Logger
	limiter         *ipRateLimiter
	handler         http.Handler
	httpServer      *http.Server
	shutdownTimeout time.Duration
}

// New creates a new HTTP server. It does not start listening.
func New(cfg Config, svc PortfolioService) (*Server, error) {
	if cfg.Logger == nil || svc == nil {
		return nil, fmt.Errorf("missing required dependencies for HTTP server")
	}
	if cfg.RateLimitRPM <= 0 {
		return nil, fmt.Errorf("rate limit must be positive: %w", ports.ErrConfigurationError)
	}
	shutdownTimeout := cfg.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	s := &Server{
		svc:             svc,
		logger:          cfg.Logger,
		limiter:         newIPRateLimiter(cfg.RateLimitRPM),
		shutdownTimeout: shutdownTimeout,
	}

	mux := http.NewServeMux()
	// Trades
	mux.HandleFunc("POST /api/v1/trades", s.handleRecordTrade)
	mux.HandleFunc("GET /api/v1/trades", s.handleListTrades)

	// Positions & PnL
	mux.HandleFunc("GET /api/v1/positions/portfolio", s.handlePortfolio)
	mux.HandleFunc("GET /api/v1/positions/pnl", s.handlePnLSummary)

	// Health
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.HandleFunc("/", s.handleNotFound)

	// Outermost first: recovery, logging, security headers, CORS, rate limit.
	s.handler = s.recoverPanics(s.logRequests(securityHeaders(withCORS(s.rateLimit(mux)))))

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start serves until ctx is canceled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	s.logger.Info(ctx, "API service listening", ports.Fields{"addr": s.httpServer.Addr})

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "Shutdown requested, draining HTTP connections", ports.Fields{"timeout": s.shutdownTimeout.String()})
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
