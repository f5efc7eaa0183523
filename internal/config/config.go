package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP       HTTPConfig
	Algod      AlgodConfig
	Ledger     LedgerConfig
	Reconciler ReconcilerConfig
	Logging    LoggingConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	AllowedOriginsCSV string
}

// AlgodConfig describes connectivity to the Algorand node.
type AlgodConfig struct {
	Address string
	Token   string
}

// LedgerConfig describes connectivity to the MongoDB-backed transaction
// ledger.
type LedgerConfig struct {
	URI            string
	Database       string
	Collection     string
	ConnectTimeout time.Duration
	MaxPoolSize    uint64
}

// ReconcilerConfig controls the background reconciliation poller.
type ReconcilerConfig struct {
	Enabled   bool
	Interval  time.Duration
	BatchSize int
	Workers   int
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

const (
	defaultHost               = "0.0.0.0"
	defaultPort               = 8080
	defaultReadTimeout        = 10 * time.Second
	defaultWriteTimeout       = 15 * time.Second
	defaultIdleTimeout        = 60 * time.Second
	defaultShutdownTimeout    = 10 * time.Second
	defaultLoggingLevel       = "info"
	defaultLoggingFormat      = "text"
	defaultAlgodAddress       = "https://testnet-api.algonode.cloud"
	defaultMongoURI           = "mongodb://localhost:27017"
	defaultMongoDatabase      = "algopay"
	defaultMongoCollection    = "transactions"
	defaultMongoTimeout       = 10 * time.Second
	defaultMongoPoolSize      = 10
	defaultReconcileInterval  = 15 * time.Second
	defaultReconcileBatchSize = 100
	defaultReconcileWorkers   = 4
)

// Load reads configuration from environment variables, applying defaults.
func Load() (Config, error) {
	cfg := Config{
		HTTP: HTTPConfig{
			Host:            valueOrDefault("SERVER_HOST", defaultHost),
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			IdleTimeout:     defaultIdleTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Algod: AlgodConfig{
			Address: valueOrDefault("ALGOD_SERVER", defaultAlgodAddress),
			Token:   os.Getenv("ALGOD_TOKEN"),
		},
		Ledger: LedgerConfig{
			URI:            valueOrDefault("MONGODB_URI", defaultMongoURI),
			Database:       valueOrDefault("MONGODB_DATABASE", defaultMongoDatabase),
			Collection:     valueOrDefault("MONGODB_COLLECTION", defaultMongoCollection),
			ConnectTimeout: defaultMongoTimeout,
			MaxPoolSize:    uint64(parseIntWithDefault("MONGODB_MAX_POOL_SIZE", defaultMongoPoolSize)),
		},
		Reconciler: ReconcilerConfig{
			Enabled:   parseBoolWithDefault("RECONCILER_ENABLED", true),
			Interval:  defaultReconcileInterval,
			BatchSize: parseIntWithDefault("RECONCILER_BATCH_SIZE", defaultReconcileBatchSize),
			Workers:   parseIntWithDefault("RECONCILER_WORKERS", defaultReconcileWorkers),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if v := os.Getenv("SERVER_READ_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ReadTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.WriteTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_IDLE_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.IdleTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_IDLE_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.HTTP.ShutdownTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("MONGODB_CONNECT_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Ledger.ConnectTimeout = d
		} else {
			return Config{}, fmt.Errorf("invalid MONGODB_CONNECT_TIMEOUT: %w", err)
		}
	}

	if v := os.Getenv("RECONCILER_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Reconciler.Interval = d
		} else {
			return Config{}, fmt.Errorf("invalid RECONCILER_INTERVAL: %w", err)
		}
	}

	cfg.HTTP.AllowedOriginsCSV = os.Getenv("SERVER_ALLOWED_ORIGINS")

	return cfg, nil
}

func valueOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBoolWithDefault(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		val, err := strconv.ParseBool(v)
		if err != nil {
			return fallback
		}
		return val
	}
	return fallback
}

func parseIntWithDefault(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if val, err := strconv.Atoi(v); err == nil {
			return val
		}
	}
	return fallback
}

func parsePort(key string, fallback int) (int, error) {
	if v := os.Getenv(key); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s value %q: %w", key, v, err)
		}
		if port <= 0 || port > 65535 {
			return 0, fmt.Errorf("port %d is out of range", port)
		}
		return port, nil
	}
	return fallback, nil
}
