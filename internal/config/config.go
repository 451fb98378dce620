package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"
)

type Config struct {
	// HTTP Server
	Port string

	// Backend selection
	DataBackend        string
	SQLiteDBPath       string
	DatabaseURL        string
	DemoCategoriesFile string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Google Sheets export
	GoogleSpreadsheetID   string
	GoogleCredentialsFile string
	GoogleOAuthClientFile string
	GoogleOAuthTokenFile  string
	SheetsSummaryTab      string
	SheetsTransactionsTab string

	// Presentation
	Timezone string
	Currency string

	// Rate limiting
	RateLimitPerMinute int
	RateLimitBurst     int

	// Caching
	SnapshotTTL   time.Duration
	ViewCacheSize int

	// Worker
	SyncBatchSize int
	SyncInterval  time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

func Load() *Config {
	cfg := &Config{
		Port: getEnv("PORT", "8081"),

		DataBackend:        getEnv("DATA_BACKEND", "sqlite"),
		SQLiteDBPath:       getEnv("SQLITE_DB_PATH", "./data/finanse.db"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		DemoCategoriesFile: getEnv("DEMO_CATEGORIES_FILE", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finanse"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "ledger_changes"),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleCredentialsFile: getEnv("GOOGLE_CREDENTIALS_FILE", ""),
		GoogleOAuthClientFile: getEnv("GOOGLE_OAUTH_CLIENT_FILE", ""),
		GoogleOAuthTokenFile:  getEnv("GOOGLE_TOKEN_FILE", ""),
		SheetsSummaryTab:      getEnv("SHEETS_SUMMARY_TAB", "Monthly"),
		SheetsTransactionsTab: getEnv("SHEETS_TRANSACTIONS_TAB", "Transactions"),

		Timezone: getEnv("TIMEZONE", "Europe/Warsaw"),
		Currency: getEnv("CURRENCY", "PLN"),

		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 120),
		RateLimitBurst:     getEnvInt("RATE_LIMIT_BURST", 20),

		SnapshotTTL:   getEnvDuration("SNAPSHOT_TTL", 30*time.Second),
		ViewCacheSize: getEnvInt("VIEW_CACHE_SIZE", 256),

		SyncBatchSize: getEnvInt("SYNC_BATCH_SIZE", 10),
		SyncInterval:  getEnvDuration("SYNC_INTERVAL", 30*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),
	}

	return cfg
}

// Location resolves Timezone, falling back to UTC when it is unknown.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// SheetsEnabled reports whether a spreadsheet export target is configured.
func (c *Config) SheetsEnabled() bool {
	return c.GoogleSpreadsheetID != ""
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{"memory", "postgres", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.DataBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate Postgres configuration if backend is postgres
	if c.DataBackend == "postgres" {
		if c.DatabaseURL == "" {
			errors = append(errors, "DATABASE_URL is required when using postgres backend")
		} else if u, err := url.Parse(c.DatabaseURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL: %v", err))
		} else if u.Scheme != "postgres" && u.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid DATABASE_URL scheme '%s': must be 'postgres' or 'postgresql'", u.Scheme))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	// Validate Google Sheets export if a spreadsheet is configured
	if c.SheetsEnabled() {
		hasServiceAccount := c.GoogleCredentialsFile != ""
		hasOAuth := c.GoogleOAuthClientFile != "" && c.GoogleOAuthTokenFile != ""
		if !hasServiceAccount && !hasOAuth {
			errors = append(errors, "either GOOGLE_CREDENTIALS_FILE or both GOOGLE_OAUTH_CLIENT_FILE and GOOGLE_TOKEN_FILE must be provided for sheets export")
		}
		for _, f := range []string{c.GoogleCredentialsFile, c.GoogleOAuthClientFile, c.GoogleOAuthTokenFile} {
			if f == "" {
				continue
			}
			if _, err := os.Stat(f); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google credentials file does not exist: %s", f))
			}
		}
		if c.SheetsSummaryTab == "" || c.SheetsTransactionsTab == "" {
			errors = append(errors, "sheet tab names cannot be empty")
		}
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		errors = append(errors, fmt.Sprintf("invalid timezone '%s': %v", c.Timezone, err))
	}

	// Validate rate limiting
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}
	if c.RateLimitBurst < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit burst %d: must be at least 1", c.RateLimitBurst))
	}

	// Validate caching
	if c.SnapshotTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid snapshot TTL %v: must not be negative", c.SnapshotTTL))
	}
	if c.ViewCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid view cache size %d: must be at least 1", c.ViewCacheSize))
	}

	// Validate worker configuration
	if c.SyncBatchSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at least 1", c.SyncBatchSize))
	} else if c.SyncBatchSize > 1000 {
		errors = append(errors, fmt.Sprintf("invalid sync batch size %d: must be at most 1000", c.SyncBatchSize))
	}

	if c.SyncInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at least 1 second", c.SyncInterval))
	} else if c.SyncInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sync interval %v: must be at most 24 hours", c.SyncInterval))
	}

	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be 'json' or 'text'", c.LogFormat))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
