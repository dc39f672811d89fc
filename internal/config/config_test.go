package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/platescore/internal/catalog"
)

func envMap(m map[string]string) func(string) string {
	return func(key string) string { return m[key] }
}

func TestFromEnvDefaults(t *testing.T) {
	cfg, err := FromEnv(envMap(nil))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.DBPath != "platescore.db" {
		t.Errorf("DBPath = %q, want platescore.db", cfg.DBPath)
	}
	if cfg.LogLevel != "info" || cfg.LogFormat != "text" {
		t.Errorf("log = %q/%q, want info/text", cfg.LogLevel, cfg.LogFormat)
	}
	if cfg.Catalog.RegionalURL != catalog.DefaultRegionalURL || cfg.Catalog.GlobalURL != catalog.DefaultGlobalURL {
		t.Errorf("catalog urls = %q, %q", cfg.Catalog.RegionalURL, cfg.Catalog.GlobalURL)
	}
	if cfg.Catalog.Timeout != 10*time.Second {
		t.Errorf("timeout = %v, want 10s", cfg.Catalog.Timeout)
	}
	if cfg.CatalogCacheTTL != 30*time.Minute {
		t.Errorf("CatalogCacheTTL = %v, want 30m", cfg.CatalogCacheTTL)
	}
	if cfg.SearchRateLimit != 60 {
		t.Errorf("SearchRateLimit = %d, want 60", cfg.SearchRateLimit)
	}
	if cfg.CurationFile != "" || cfg.ScoringPolicy != "" {
		t.Errorf("expected no override files, got %q %q", cfg.CurationFile, cfg.ScoringPolicy)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	cfg, err := FromEnv(envMap(map[string]string{
		"PLATESCORE_PORT":                 "9000",
		"PLATESCORE_DB_PATH":              "/tmp/x.db",
		"PLATESCORE_LOG_FORMAT":           "JSON",
		"PLATESCORE_CATALOG_REGIONAL_URL": "http://localhost:9999/api/v2/",
		"PLATESCORE_CATALOG_TIMEOUT":      "2500ms",
		"PLATESCORE_SEARCH_RATE_LIMIT":    "0",
		"PLATESCORE_CATALOG_CACHE_TTL":    "0s",
		"PLATESCORE_SCORING_POLICY":       "policy.json",
	}))
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.Port != "9000" || cfg.DBPath != "/tmp/x.db" {
		t.Errorf("port/db = %q/%q", cfg.Port, cfg.DBPath)
	}
	if cfg.LogFormat != "json" {
		t.Errorf("LogFormat = %q, want json", cfg.LogFormat)
	}
	if cfg.Catalog.RegionalURL != "http://localhost:9999/api/v2" {
		t.Errorf("RegionalURL = %q", cfg.Catalog.RegionalURL)
	}
	if cfg.Catalog.Timeout != 2500*time.Millisecond {
		t.Errorf("timeout = %v", cfg.Catalog.Timeout)
	}
	if cfg.SearchRateLimit != 0 {
		t.Errorf("SearchRateLimit = %d, want 0", cfg.SearchRateLimit)
	}
	if cfg.CatalogCacheTTL != 0 {
		t.Errorf("CatalogCacheTTL = %v, want 0", cfg.CatalogCacheTTL)
	}
	if cfg.ScoringPolicy != "policy.json" {
		t.Errorf("ScoringPolicy = %q", cfg.ScoringPolicy)
	}
}

func TestFromEnvInvalid(t *testing.T) {
	tests := []struct {
		key, value, wantErr string
	}{
		{"PLATESCORE_CATALOG_TIMEOUT", "soon", "CATALOG_TIMEOUT"},
		{"PLATESCORE_CATALOG_TIMEOUT", "-1s", "must be positive"},
		{"PLATESCORE_SEARCH_RATE_LIMIT", "lots", "SEARCH_RATE_LIMIT"},
		{"PLATESCORE_SEARCH_RATE_LIMIT", "-5", "must not be negative"},
		{"PLATESCORE_LOG_FORMAT", "xml", "LOG_FORMAT"},
		{"PLATESCORE_CATALOG_CACHE_TTL", "-1m", "must not be negative"},
	}
	for _, tt := range tests {
		_, err := FromEnv(envMap(map[string]string{tt.key: tt.value}))
		if err == nil {
			t.Errorf("%s=%s: expected error", tt.key, tt.value)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("%s=%s: error %q does not mention %q", tt.key, tt.value, err, tt.wantErr)
		}
	}
}

func TestLoadEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	content := "PLATESCORE_PORT=7070\nPLATESCORE_DB_PATH=fromfile.db\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	// Variables already in the environment win over the file.
	t.Setenv("PLATESCORE_DB_PATH", "fromenv.db")
	t.Setenv("PLATESCORE_PORT", "")
	os.Unsetenv("PLATESCORE_PORT")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "7070" {
		t.Errorf("Port = %q, want 7070", cfg.Port)
	}
	if cfg.DBPath != "fromenv.db" {
		t.Errorf("DBPath = %q, want fromenv.db", cfg.DBPath)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.env")); err != nil {
		t.Fatalf("Load with missing file: %v", err)
	}
}
