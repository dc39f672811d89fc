// Package config reads platescore settings from the environment, optionally
// seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/dukerupert/platescore/internal/catalog"
)

const envPrefix = "PLATESCORE_"

type Config struct {
	Port      string
	DBPath    string
	LogLevel  string
	LogFormat string

	Catalog catalog.Config
	// CatalogCacheTTL is how long catalog results are reused. Zero disables
	// the cache.
	CatalogCacheTTL time.Duration

	// CurationFile overrides the embedded curation lists when set.
	CurationFile string
	// ScoringPolicy is a JSON file overriding scoring.DefaultPolicy.
	ScoringPolicy string

	// SearchRateLimit is the number of catalog-backed requests a client IP
	// may make per minute. Zero disables limiting.
	SearchRateLimit int
}

// Load reads the given .env files (".env" when none are named) without
// overriding variables already set, then builds a Config from the
// environment. A missing .env file is not an error.
func Load(envFiles ...string) (Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load env file: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config using getenv for lookups.
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(envPrefix + key)); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:          get("PORT", "8080"),
		DBPath:        get("DB_PATH", "platescore.db"),
		LogLevel:      get("LOG_LEVEL", "info"),
		LogFormat:     get("LOG_FORMAT", "text"),
		CurationFile:  get("CURATION_FILE", ""),
		ScoringPolicy: get("SCORING_POLICY", ""),
		Catalog: catalog.Config{
			RegionalURL: strings.TrimRight(get("CATALOG_REGIONAL_URL", catalog.DefaultRegionalURL), "/"),
			GlobalURL:   strings.TrimRight(get("CATALOG_GLOBAL_URL", catalog.DefaultGlobalURL), "/"),
			UserAgent:   get("CATALOG_USER_AGENT", catalog.DefaultUserAgent),
		},
	}

	switch f := strings.ToLower(cfg.LogFormat); f {
	case "text", "json":
		cfg.LogFormat = f
	default:
		return Config{}, fmt.Errorf("%sLOG_FORMAT must be text or json, got %q", envPrefix, cfg.LogFormat)
	}

	timeout, err := time.ParseDuration(get("CATALOG_TIMEOUT", catalog.DefaultTimeout.String()))
	if err != nil {
		return Config{}, fmt.Errorf("parse %sCATALOG_TIMEOUT: %w", envPrefix, err)
	}
	if timeout <= 0 {
		return Config{}, fmt.Errorf("%sCATALOG_TIMEOUT must be positive, got %s", envPrefix, timeout)
	}
	cfg.Catalog.Timeout = timeout

	ttl, err := time.ParseDuration(get("CATALOG_CACHE_TTL", catalog.DefaultCacheTTL.String()))
	if err != nil {
		return Config{}, fmt.Errorf("parse %sCATALOG_CACHE_TTL: %w", envPrefix, err)
	}
	if ttl < 0 {
		return Config{}, fmt.Errorf("%sCATALOG_CACHE_TTL must not be negative, got %s", envPrefix, ttl)
	}
	cfg.CatalogCacheTTL = ttl

	limit, err := strconv.Atoi(get("SEARCH_RATE_LIMIT", "60"))
	if err != nil {
		return Config{}, fmt.Errorf("parse %sSEARCH_RATE_LIMIT: %w", envPrefix, err)
	}
	if limit < 0 {
		return Config{}, fmt.Errorf("%sSEARCH_RATE_LIMIT must not be negative, got %d", envPrefix, limit)
	}
	cfg.SearchRateLimit = limit

	return cfg, nil
}
