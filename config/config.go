package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/joho/godotenv"

	"github.com/pawankumargali/pnl-tracker/internal/adapters/logger" // Import the logger package for LogLevel
)

// Store drivers.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Price sources.
const (
	PriceSourceStatic  = "static"
	PriceSourceBinance = "binance"
)

// Log formats.
const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// Config holds all application configuration.
type Config struct {
	// HTTP Server
	Port            int
	RateLimitRPM    int // Requests per minute per client IP
	ShutdownTimeout time.Duration

	// Store
	StoreDriver     string
	DBPath          string
	DatabaseURL     string
	StoreTTL        time.Duration // Applied to every write
	TradeHistoryKey string
	PositionsKey    string
	RealizedPnLKey  string

	// Portfolio
	DefaultCurrency  string
	SupportedSymbols []string

	// Price Oracle
	PriceSource    string
	PriceTablePath string // Optional YAML table for the static source
	APIKey         string
	SecretKey      string
	IsTestnet      bool
	QuoteAsset     string

	// Logging
	LogLevel  logger.LogLevel // Use the LogLevel type from the logger adapter
	LogFormat string
}

// LoadConfig loads configuration from environment variables (.env file).
func LoadConfig() (*Config, error) {
	// Load .env file, but don't fail if it doesn't exist (allow pure env vars)
	_ = godotenv.Load()

	cfg := &Config{}
	var err error
	var errs []string // Collect validation errors

	// HTTP Server
	cfg.Port, err = getEnvAsIntRequired("PORT", 8081)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid PORT: %v", err))
	} else if cfg.Port <= 0 || cfg.Port > 65535 {
		errs = append(errs, "PORT must be between 1 and 65535")
	}

	cfg.RateLimitRPM, err = getEnvAsIntRequired("RATE_LIMIT_RPM", 30)
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid RATE_LIMIT_RPM: %v", err))
	} else if cfg.RateLimitRPM <= 0 {
		errs = append(errs, "RATE_LIMIT_RPM must be positive")
	}

	shutdownSeconds := getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 10)
	if shutdownSeconds <= 0 {
		errs = append(errs, "SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	cfg.ShutdownTimeout = time.Duration(shutdownSeconds) * time.Second

	// Store
	cfg.StoreDriver = strings.ToLower(getEnv("STORE_DRIVER", StoreSQLite))
	cfg.DBPath = getEnv("DB_PATH", "./data/pnl_tracker.db")
	cfg.DatabaseURL = getEnv("DATABASE_URL", "")
	switch cfg.StoreDriver {
	case StoreSQLite:
		if cfg.DBPath == "" {
			errs = append(errs, "DB_PATH must be set")
		}
	case StorePostgres:
		if cfg.DatabaseURL == "" {
			errs = append(errs, "DATABASE_URL must be set when STORE_DRIVER is postgres")
		}
	case StoreMemory:
	default:
		errs = append(errs, fmt.Sprintf("STORE_DRIVER must be one of %s, %s, %s", StoreSQLite, StorePostgres, StoreMemory))
	}

	ttlSeconds, err := getEnvAsIntRequired("STORE_TTL_SECONDS", 604800) // One week
	if err != nil {
		errs = append(errs, fmt.Sprintf("invalid STORE_TTL_SECONDS: %v", err))
	} else if ttlSeconds < 0 {
		errs = append(errs, "STORE_TTL_SECONDS cannot be negative")
	}
	cfg.StoreTTL = time.Duration(ttlSeconds) * time.Second

	cfg.TradeHistoryKey = getEnv("TRADE_HISTORY_KEY", "trade_history")
	cfg.PositionsKey = getEnv("POSITIONS_KEY", "user_positions")
	cfg.RealizedPnLKey = getEnv("REALIZED_PNL_KEY", "portfolio_realized_pnl")
	if cfg.TradeHistoryKey == cfg.PositionsKey || cfg.TradeHistoryKey == cfg.RealizedPnLKey || cfg.PositionsKey == cfg.RealizedPnLKey {
		errs = append(errs, "TRADE_HISTORY_KEY, POSITIONS_KEY and REALIZED_PNL_KEY must be distinct")
	}

	// Portfolio
	cfg.DefaultCurrency = strings.ToUpper(getEnv("DEFAULT_CURRENCY", "USD"))
	if money.GetCurrency(cfg.DefaultCurrency) == nil {
		errs = append(errs, fmt.Sprintf("DEFAULT_CURRENCY %q is not an ISO 4217 currency code", cfg.DefaultCurrency))
	}

	cfg.SupportedSymbols = getEnvAsList("SUPPORTED_SYMBOLS", []string{"BTC", "ETH", "BNB", "SOL", "XRP", "ADA", "POL", "BASE"})
	if len(cfg.SupportedSymbols) == 0 {
		errs = append(errs, "SUPPORTED_SYMBOLS must list at least one symbol")
	}

	// Price Oracle
	cfg.PriceSource = strings.ToLower(getEnv("PRICE_SOURCE", PriceSourceStatic))
	if cfg.PriceSource != PriceSourceStatic && cfg.PriceSource != PriceSourceBinance {
		errs = append(errs, fmt.Sprintf("PRICE_SOURCE must be %s or %s", PriceSourceStatic, PriceSourceBinance))
	}
	cfg.PriceTablePath = getEnv("PRICE_TABLE_PATH", "")
	cfg.APIKey = getEnv("BINANCE_API_KEY", "")
	cfg.SecretKey = getEnv("BINANCE_API_SECRET", "")
	cfg.IsTestnet = getEnvAsBool("IS_TESTNET", false)
	cfg.QuoteAsset = strings.ToUpper(getEnv("QUOTE_ASSET", "USDT"))

	// Logging
	logLevelStr := getEnv("LOG_LEVEL", "INFO")
	cfg.LogLevel = logger.ParseLevel(logLevelStr) // Use the parser from the logger package
	cfg.LogFormat = strings.ToLower(getEnv("LOG_FORMAT", LogFormatJSON))
	switch cfg.LogFormat {
	case LogFormatJSON, LogFormatConsole:
	default:
		errs = append(errs, fmt.Sprintf("LOG_FORMAT must be one of %s, %s", LogFormatJSON, LogFormatConsole))
	}

	// Combine validation errors
	if len(errs) > 0 {
		return nil, fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return cfg, nil
}

// --- Env Var Helpers ---

func getEnv(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsIntRequired(key string, defaultValue int) (int, error) {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		// Use default if env var is not set at all
		return defaultValue, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		// Return error if env var is set but invalid
		return 0, fmt.Errorf("invalid integer value '%s' for key %s: %w", valueStr, key, err)
	}
	return value, nil
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// getEnvAsList splits a comma separated value into upper-cased, de-duplicated items.
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	seen := make(map[string]bool)
	var out []string
	for _, item := range strings.Split(valueStr, ",") {
		item = strings.ToUpper(strings.TrimSpace(item))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}
