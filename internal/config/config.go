package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config aggregates application configuration values.
type Config struct {
	HTTP    HTTPConfig
	Store   StoreConfig
	Cipher  CipherConfig
	Logging LoggingConfig
	Limits  LimitsConfig
	Cache   CacheConfig
}

// HTTPConfig governs HTTP server behaviour.
type HTTPConfig struct {
	Host              string
	Port              int
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	ShutdownTimeout   time.Duration
	MetricsEnabled    bool
	AllowedOriginsCSV string
}

// StoreConfig describes connectivity to the document store.
type StoreConfig struct {
	URI            string
	Database       string
	ConnectTimeout time.Duration
	MaxPoolSize    int
}

// CipherConfig carries the field-encryption key. The key is always supplied
// externally; startup fails without it. Regenerating the key orphans data
// encrypted under the previous one.
type CipherConfig struct {
	Key string
}

// LoggingConfig controls structured logging settings.
type LoggingConfig struct {
	Level         string
	Format        string // text|json
	IncludeCaller bool
}

// LimitsConfig bounds result-set sizes on read paths.
type LimitsConfig struct {
	ListMaxLimit             int64
	AnalyticsMaxTransactions int64
}

// CacheConfig controls the advisory transaction-history cache. A zero TTL
// disables caching.
type CacheConfig struct {
	TTL time.Duration
}

const (
	defaultHost                = "0.0.0.0"
	defaultPort                = 8080
	defaultReadTimeout         = 10 * time.Second
	defaultWriteTimeout        = 15 * time.Second
	defaultIdleTimeout         = 60 * time.Second
	defaultShutdownTimeout     = 10 * time.Second
	defaultLoggingLevel        = "info"
	defaultLoggingFormat       = "text"
	defaultStoreDatabase       = "finrecord"
	defaultStoreConnectTimeout = 10 * time.Second
	defaultStoreMaxPoolSize    = 10
	defaultListMaxLimit        = 100
	defaultAnalyticsMaxTx      = 1000
	defaultCacheTTL            = time.Hour
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
		Store: StoreConfig{
			URI:            os.Getenv("MONGO_URI"),
			Database:       valueOrDefault("MONGO_DATABASE", defaultStoreDatabase),
			ConnectTimeout: defaultStoreConnectTimeout,
			MaxPoolSize:    parseIntWithDefault("MONGO_MAX_POOL_SIZE", defaultStoreMaxPoolSize),
		},
		Cipher: CipherConfig{
			Key: os.Getenv("CIPHER_KEY"),
		},
		Logging: LoggingConfig{
			Level:         valueOrDefault("LOG_LEVEL", defaultLoggingLevel),
			Format:        valueOrDefault("LOG_FORMAT", defaultLoggingFormat),
			IncludeCaller: parseBoolWithDefault("LOG_INCLUDE_CALLER", false),
		},
		Limits: LimitsConfig{
			ListMaxLimit:             int64(parseIntWithDefault("LIST_MAX_LIMIT", defaultListMaxLimit)),
			AnalyticsMaxTransactions: int64(parseIntWithDefault("ANALYTICS_MAX_TRANSACTIONS", defaultAnalyticsMaxTx)),
		},
		Cache: CacheConfig{
			TTL: defaultCacheTTL,
		},
	}

	port, err := parsePort("SERVER_PORT", defaultPort)
	if err != nil {
		return Config{}, err
	}
	cfg.HTTP.Port = port

	if d, err := parseDuration("SERVER_READ_TIMEOUT", cfg.HTTP.ReadTimeout); err != nil {
		return Config{}, err
	} else {
		cfg.HTTP.ReadTimeout = d
	}
	if d, err := parseDuration("SERVER_WRITE_TIMEOUT", cfg.HTTP.WriteTimeout); err != nil {
		return Config{}, err
	} else {
		cfg.HTTP.WriteTimeout = d
	}
	if d, err := parseDuration("SERVER_IDLE_TIMEOUT", cfg.HTTP.IdleTimeout); err != nil {
		return Config{}, err
	} else {
		cfg.HTTP.IdleTimeout = d
	}
	if d, err := parseDuration("SERVER_SHUTDOWN_TIMEOUT", cfg.HTTP.ShutdownTimeout); err != nil {
		return Config{}, err
	} else {
		cfg.HTTP.ShutdownTimeout = d
	}
	if d, err := parseDuration("MONGO_CONNECT_TIMEOUT", cfg.Store.ConnectTimeout); err != nil {
		return Config{}, err
	} else {
		cfg.Store.ConnectTimeout = d
	}
	if d, err := parseDuration("CACHE_TTL", cfg.Cache.TTL); err != nil {
		return Config{}, err
	} else {
		cfg.Cache.TTL = d
	}

	cfg.HTTP.MetricsEnabled = parseBoolWithDefault("SERVER_METRICS_ENABLED", true)
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

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return d, nil
	}
	return fallback, nil
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
