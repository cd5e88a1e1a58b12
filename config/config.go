// Package config gathers the settings of the ptrade command and service.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/papertrade"
	"github.com/joho/godotenv"
)

// Storage backends.
const (
	StoreMemory   = "memory"
	StoreFile     = "file"
	StorePebble   = "pebble"
	StorePostgres = "postgres"
)

// Environment variables, all optional.
const (
	EnvCurrency       = "PTRADE_CURRENCY"
	EnvUser           = "PTRADE_USER"
	EnvStore          = "PTRADE_STORE"
	EnvDataDir        = "PTRADE_DATA_DIR"
	EnvDSN            = "PTRADE_POSTGRES_DSN"
	EnvPricesFile     = "PTRADE_PRICES_FILE"
	EnvEODHDKey       = "EODHD_API_KEY"
	EnvEODHDExchange  = "PTRADE_EODHD_EXCHANGE"
	EnvFeedURL        = "PTRADE_FEED_URL"
	EnvFeedMaxAge     = "PTRADE_FEED_MAX_AGE"
	EnvListen         = "PTRADE_LISTEN"
	EnvAllowedOrigins = "PTRADE_ALLOWED_ORIGINS"
	EnvLogLevel       = "PTRADE_LOG_LEVEL"
	EnvLogFile        = "PTRADE_LOG_FILE"
	EnvRetries        = "PTRADE_RETRIES"
)

// Config holds every setting. Priority: flags > environment > .env file > defaults.
type Config struct {
	Currency string // currency of new ledgers.
	User     string // default user for the CLI.

	Store   string // one of the Store* backends.
	DataDir string // directory for the file and pebble stores.
	DSN     string // postgres connection string.

	// Price sources, first match wins: PricesFile, FeedURL, EODHDKey.
	PricesFile    string
	FeedURL       string
	FeedMaxAge    time.Duration
	EODHDKey      string
	EODHDExchange string

	Listen         string
	AllowedOrigins []string

	LogLevel string
	LogFile  string

	Retries int // conflict retries per order.
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Currency:       papertrade.DefaultCurrency,
		User:           "default",
		Store:          StoreFile,
		DataDir:        ".ptrade",
		FeedMaxAge:     30 * time.Second,
		EODHDExchange:  "US",
		Listen:         "localhost:8080",
		AllowedOrigins: []string{"http://localhost:3000"},
		LogLevel:       "info",
		Retries:        3,
	}
}

// Load returns the defaults overridden by the .env file at envPath (or ./.env
// when empty, silently ignored if missing) and by the environment.
//
// The result is not validated: callers apply their own overrides, command
// line flags for instance, then call Validate.
func Load(envPath string) (Config, error) {
	cfg := Default()
	if envPath != "" {
		if err := godotenv.Load(envPath); err != nil {
			return cfg, fmt.Errorf("cannot load %s: %w", envPath, err)
		}
	} else {
		_ = godotenv.Load()
	}

	setString(&cfg.Currency, EnvCurrency)
	setString(&cfg.User, EnvUser)
	setString(&cfg.Store, EnvStore)
	setString(&cfg.DataDir, EnvDataDir)
	setString(&cfg.DSN, EnvDSN)
	setString(&cfg.PricesFile, EnvPricesFile)
	setString(&cfg.EODHDKey, EnvEODHDKey)
	setString(&cfg.EODHDExchange, EnvEODHDExchange)
	setString(&cfg.FeedURL, EnvFeedURL)
	setString(&cfg.Listen, EnvListen)
	setString(&cfg.LogLevel, EnvLogLevel)
	setString(&cfg.LogFile, EnvLogFile)
	if v := os.Getenv(EnvAllowedOrigins); v != "" {
		cfg.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv(EnvFeedMaxAge); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvFeedMaxAge, err)
		}
		cfg.FeedMaxAge = d
	}
	if v := os.Getenv(EnvRetries); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s: %w", EnvRetries, err)
		}
		cfg.Retries = n
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if err := papertrade.ValidateCurrency(c.Currency); err != nil {
		return err
	}
	switch c.Store {
	case StoreMemory, StoreFile, StorePebble:
	case StorePostgres:
		if c.DSN == "" {
			return fmt.Errorf("store %q requires %s", c.Store, EnvDSN)
		}
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	if c.Retries < 0 {
		return fmt.Errorf("retries cannot be negative, got %d", c.Retries)
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
