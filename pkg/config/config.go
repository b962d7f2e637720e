// Package config reads service settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

// Config holds everything cmd/api needs to start.
type Config struct {
	HTTPAddr        string
	StoreDriver     string
	DatabaseURL     string
	RedisAddr       string
	SessionTTL      time.Duration
	CatalogCacheTTL time.Duration
	Managers        []string
	Admins          []string
	OtelHost        string
	OtelProbability float64
	TLSCert         string
	TLSKey          string
	LogLevel        string
}

// Load reads the environment through getenv and validates the result.
// Pass os.Getenv outside of tests.
func Load(getenv func(string) string) (Config, error) {
	cfg := Config{
		HTTPAddr:    orDefault(getenv("HTTP_ADDR"), ":8443"),
		StoreDriver: strings.ToLower(orDefault(getenv("STORE_DRIVER"), DriverPostgres)),
		DatabaseURL: getenv("DATABASE_URL"),
		RedisAddr:   orDefault(getenv("REDIS_ADDR"), "localhost:6379"),
		Managers:    list(getenv("MANAGERS")),
		Admins:      list(getenv("ADMINS")),
		OtelHost:    getenv("OTEL_HOST"),
		TLSCert:     getenv("TLS_CERT"),
		TLSKey:      getenv("TLS_KEY"),
		LogLevel:    orDefault(getenv("LOG_LEVEL"), "info"),
	}

	var errs []error
	var err error
	if cfg.SessionTTL, err = duration(getenv("SESSION_TTL"), time.Hour); err != nil {
		errs = append(errs, fmt.Errorf("SESSION_TTL: %w", err))
	}
	if cfg.CatalogCacheTTL, err = duration(getenv("CATALOG_CACHE_TTL"), 5*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("CATALOG_CACHE_TTL: %w", err))
	}
	if cfg.OtelProbability, err = probability(getenv("OTEL_PROBABILITY")); err != nil {
		errs = append(errs, fmt.Errorf("OTEL_PROBABILITY: %w", err))
	}

	switch cfg.StoreDriver {
	case DriverMemory:
	case DriverPostgres, DriverMySQL:
		if cfg.DatabaseURL == "" {
			errs = append(errs, fmt.Errorf("DATABASE_URL is required for store driver %q", cfg.StoreDriver))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER: unknown driver %q", cfg.StoreDriver))
	}
	if (cfg.TLSCert == "") != (cfg.TLSKey == "") {
		errs = append(errs, errors.New("TLS_CERT and TLS_KEY must be set together"))
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return cfg, nil
}

// FromEnv is Load(os.Getenv).
func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func list(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func duration(v string, def time.Duration) (time.Duration, error) {
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("must be positive, got %s", d)
	}
	return d, nil
}

func probability(v string) (float64, error) {
	if v == "" {
		return 1.0, nil
	}
	p, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if p < 0 || p > 1 {
		return 0, fmt.Errorf("must be within [0,1], got %v", p)
	}
	return p, nil
}
