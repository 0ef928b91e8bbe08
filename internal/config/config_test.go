package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Addr() != ":8080" {
		t.Errorf("unexpected addr %s", cfg.Addr())
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Store.Driver != StoreDriverMemory {
		t.Errorf("expected memory store by default, got %s", cfg.Store.Driver)
	}
	if cfg.Pricing.Low != "6.50" || cfg.Pricing.Span != "2.00" {
		t.Errorf("unexpected price range %s/%s", cfg.Pricing.Low, cfg.Pricing.Span)
	}
	if cfg.Widgets.CarouselInterval != 5*time.Second {
		t.Errorf("unexpected carousel interval: %s", cfg.Widgets.CarouselInterval)
	}
	if cfg.Widgets.SliderStepInterval != 30*time.Millisecond {
		t.Errorf("unexpected slider step: %s", cfg.Widgets.SliderStepInterval)
	}
	if !cfg.Widgets.ScrollToCatalogueOnClose {
		t.Errorf("expected scroll to catalogue on close to default true")
	}
	if cfg.Pages.Capacity != defaultPageCapacity || cfg.Pages.TTL != defaultPageTTL {
		t.Errorf("unexpected page limits: %+v", cfg.Pages)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("unexpected log level %s", cfg.LogLevel)
	}
	if cfg.Dev {
		t.Errorf("dev mode should be off by default")
	}
}

func TestLoadWithOverrides(t *testing.T) {
	env := map[string]string{
		"GELATO_WEB_PORT":                         "9090",
		"GELATO_WEB_READ_TIMEOUT":                 "20s",
		"GELATO_WEB_STORE_DRIVER":                 "SQLite",
		"GELATO_WEB_STORE_DSN":                    "file:test.db",
		"GELATO_WEB_SESSION_HASH_KEY":             "0123456789abcdef0123456789abcdef",
		"GELATO_WEB_SESSION_BLOCK_KEY":            "0123456789abcdef",
		"GELATO_WEB_SESSION_SECURE":               "yes",
		"GELATO_WEB_PAGE_TTL":                     "5m",
		"GELATO_WEB_PAGE_CAPACITY":                "16",
		"GELATO_WEB_PRICE_LOW":                    "5.00",
		"GELATO_WEB_PRICE_SPAN":                   "0",
		"GELATO_WEB_CAROUSEL_INTERVAL":            "2s",
		"GELATO_WEB_SCROLL_TO_CATALOGUE_ON_CLOSE": "off",
		"GELATO_WEB_LOG_LEVEL":                    "DEBUG",
		"GELATO_WEB_DEV":                          "1",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" || cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Store.Driver != StoreDriverSQLite || cfg.Store.DSN != "file:test.db" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
	if !cfg.Session.Secure || len(cfg.Session.BlockKey) != 16 {
		t.Errorf("unexpected session config: %+v", cfg.Session)
	}
	if cfg.Pages.TTL != 5*time.Minute || cfg.Pages.Capacity != 16 {
		t.Errorf("unexpected page config: %+v", cfg.Pages)
	}
	if cfg.Pricing.Low != "5.00" || cfg.Pricing.Span != "0" {
		t.Errorf("unexpected pricing: %+v", cfg.Pricing)
	}
	if cfg.Widgets.CarouselInterval != 2*time.Second || cfg.Widgets.ScrollToCatalogueOnClose {
		t.Errorf("unexpected widget config: %+v", cfg.Widgets)
	}
	if cfg.LogLevel != "debug" || !cfg.Dev {
		t.Errorf("unexpected log level %s / dev %v", cfg.LogLevel, cfg.Dev)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	content := "# local overrides\nexport GELATO_WEB_PORT=7070\nGELATO_WEB_STORE_DRIVER=\"sqlite\"\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv(),
		WithEnvMap(map[string]string{"GELATO_WEB_PORT": "6060"}))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "6060" {
		t.Errorf("explicit map should win over dotenv, got %s", cfg.Server.Port)
	}
	if cfg.Store.Driver != StoreDriverSQLite {
		t.Errorf("expected driver from dotenv, got %s", cfg.Store.Driver)
	}
}

func TestLoadSystemEnvBeatsDotEnv(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("GELATO_WEB_PORT=7070\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("GELATO_WEB_PORT", "7171")

	cfg, err := Load(context.Background(), WithEnvFile(envPath))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Server.Port != "7171" {
		t.Errorf("expected OS env to win, got %s", cfg.Server.Port)
	}
}

func TestLoadInvalidFields(t *testing.T) {
	env := map[string]string{
		"GELATO_WEB_PORT":              "not-a-port",
		"GELATO_WEB_STORE_DRIVER":      "redis",
		"GELATO_WEB_SESSION_HASH_KEY":  "short",
		"GELATO_WEB_SESSION_BLOCK_KEY": "abc",
		"GELATO_WEB_PAGE_CAPACITY":     "-1",
		"GELATO_WEB_PRICE_LOW":         "cheap",
	}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatalf("expected validation error")
	}

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	want := []string{"Server.Port", "Store.Driver", "Session.HashKey", "Session.BlockKey", "Pages.Capacity", "Pricing.Low"}
	got := vErr.Fields()
	for _, field := range want {
		if !slices.Contains(got, field) {
			t.Errorf("expected %s in invalid fields %v", field, got)
		}
	}
}
