package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store drivers. memory keeps everything in process and needs no URL.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "pgx"
	DriverMemory   = "memory"
)

type Config struct {
	StoreDriver  string
	StoreURL     string
	StoreKey     string
	StoreTimeout time.Duration
	SiteURL      string
	HTTPAddr     string
	LogLevel     string
	LogDev       bool
	StateFile    string
	Timezone     *time.Location
	SeedDemo     bool
	TrustProxy   bool
}

// MustLoad reads .env when present, then the environment, and exits naming
// every missing mandatory variable.
func MustLoad() Config {
	_ = godotenv.Load()
	cfg, err := Load(os.Getenv)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		StoreDriver: value(getenv, "MONIFLY_STORE_DRIVER", DriverMySQL),
		StoreURL:    getenv("MONIFLY_STORE_URL"),
		StoreKey:    getenv("MONIFLY_STORE_KEY"),
		SiteURL:     strings.TrimRight(value(getenv, "MONIFLY_SITE_URL", "http://localhost:3000"), "/"),
		HTTPAddr:    value(getenv, "MONIFLY_HTTP_ADDR", ":8080"),
		LogLevel:    value(getenv, "MONIFLY_LOG_LEVEL", "info"),
		StateFile:   getenv("MONIFLY_STATE_FILE"),
	}

	var missing []string
	if cfg.StoreURL == "" && cfg.StoreDriver != DriverMemory {
		missing = append(missing, "MONIFLY_STORE_URL")
	}
	if cfg.StoreKey == "" {
		missing = append(missing, "MONIFLY_STORE_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}

	switch cfg.StoreDriver {
	case DriverMySQL, DriverPostgres, DriverMemory:
	default:
		return Config{}, fmt.Errorf("MONIFLY_STORE_DRIVER must be mysql, pgx or memory, got %q", cfg.StoreDriver)
	}

	var err error
	if cfg.LogDev, err = boolValue(getenv, "MONIFLY_LOG_DEV"); err != nil {
		return Config{}, err
	}
	if cfg.SeedDemo, err = boolValue(getenv, "MONIFLY_SEED_DEMO"); err != nil {
		return Config{}, err
	}
	if cfg.TrustProxy, err = boolValue(getenv, "MONIFLY_TRUST_PROXY"); err != nil {
		return Config{}, err
	}

	cfg.StoreTimeout = 5 * time.Second
	if raw := getenv("MONIFLY_STORE_TIMEOUT"); raw != "" {
		if cfg.StoreTimeout, err = time.ParseDuration(raw); err != nil {
			return Config{}, fmt.Errorf("MONIFLY_STORE_TIMEOUT: %w", err)
		}
	}

	if cfg.Timezone, err = time.LoadLocation(value(getenv, "MONIFLY_TIMEZONE", "America/Bogota")); err != nil {
		return Config{}, fmt.Errorf("MONIFLY_TIMEZONE: %w", err)
	}
	return cfg, nil
}

func value(getenv func(string) string, key, fallback string) string {
	if v := strings.TrimSpace(getenv(key)); v != "" {
		return v
	}
	return fallback
}

func boolValue(getenv func(string) string, key string) (bool, error) {
	raw := getenv(key)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
