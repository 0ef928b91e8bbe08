package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	envPrefix = "GELATO_WEB_"

	defaultEnvFile            = ".env"
	defaultPort               = "8080"
	defaultReadTimeout        = 15 * time.Second
	defaultWriteTimeout       = 30 * time.Second
	defaultIdleTimeout        = 120 * time.Second
	defaultLogLevel           = "info"
	defaultStoreDriver        = StoreDriverMemory
	defaultStoreDSN           = "file:gelato.db?_pragma=busy_timeout(5000)"
	defaultPageTTL            = 30 * time.Minute
	defaultPageCapacity       = 1024
	defaultPriceLow           = "6.50"
	defaultPriceSpan          = "2.00"
	defaultCarouselInterval   = 5 * time.Second
	defaultSliderStepInterval = 30 * time.Millisecond
)

// Store drivers understood by the server.
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

// Config is the storefront server's runtime configuration.
type Config struct {
	Server   ServerConfig
	Store    StoreConfig
	Session  SessionConfig
	Pages    PageConfig
	Pricing  PricingConfig
	Widgets  WidgetConfig
	LogLevel string
	Dev      bool
}

// ServerConfig holds the listener settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// StoreConfig selects the persistent key/value backend.
type StoreConfig struct {
	Driver string
	DSN    string
	// Retention purges browser scopes untouched for this long. Zero keeps
	// everything. Only the sqlite driver honours it.
	Retention time.Duration
}

// SessionConfig holds the browser scope cookie keys. Empty keys mean the
// server generates ephemeral ones at boot.
type SessionConfig struct {
	HashKey  string
	BlockKey string
	Secure   bool
}

// PageConfig bounds the registry of live pages.
type PageConfig struct {
	TTL      time.Duration
	Capacity int
}

// PricingConfig is the per-load price range, as decimal strings.
type PricingConfig struct {
	Low  string
	Span string
}

// WidgetConfig tunes timers and presentation conveniences.
type WidgetConfig struct {
	CarouselInterval         time.Duration
	SliderStepInterval       time.Duration
	ScrollToCatalogueOnClose bool
}

// ValidationError lists every invalid field, named as Config paths.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return "config: invalid " + strings.Join(e.fields, ", ")
}

// Fields returns the invalid field paths in check order.
func (e *ValidationError) Fields() []string {
	return slices.Clone(e.fields)
}

// Option adjusts where Load reads values from.
type Option func(*sources)

// sources is the ordered set of places a GELATO_WEB_ key is looked up in.
type sources struct {
	envFile   string
	overrides map[string]string
	system    bool
	dotenv    map[string]string
}

// WithEnvFile reads a dotenv file instead of ./.env. An empty path skips dotenv.
func WithEnvFile(path string) Option {
	return func(s *sources) { s.envFile = path }
}

// WithEnvMap supplies values that win over every other source. Keys carry the
// GELATO_WEB_ prefix.
func WithEnvMap(values map[string]string) Option {
	return func(s *sources) { s.overrides = values }
}

// WithoutSystemEnv ignores the process environment.
func WithoutSystemEnv() Option {
	return func(s *sources) { s.system = false }
}

// Load resolves configuration from defaults, the dotenv file, the process
// environment and explicit overrides, in increasing precedence, then validates it.
func Load(_ context.Context, opts ...Option) (Config, error) {
	src := &sources{envFile: defaultEnvFile, system: true}
	for _, opt := range opts {
		opt(src)
	}
	dotenv, err := readDotEnv(src.envFile)
	if err != nil {
		return Config{}, err
	}
	src.dotenv = dotenv

	cfg := Config{
		Server: ServerConfig{
			Port:         src.str("PORT", defaultPort),
			ReadTimeout:  src.duration("READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: src.duration("WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  src.duration("IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Store: StoreConfig{
			Driver:    strings.ToLower(src.str("STORE_DRIVER", defaultStoreDriver)),
			DSN:       src.str("STORE_DSN", defaultStoreDSN),
			Retention: src.duration("STORE_RETENTION", 0),
		},
		Session: SessionConfig{
			HashKey:  src.str("SESSION_HASH_KEY", ""),
			BlockKey: src.str("SESSION_BLOCK_KEY", ""),
			Secure:   src.boolean("SESSION_SECURE", false),
		},
		Pages: PageConfig{
			TTL:      src.duration("PAGE_TTL", defaultPageTTL),
			Capacity: src.integer("PAGE_CAPACITY", defaultPageCapacity),
		},
		Pricing: PricingConfig{
			Low:  src.str("PRICE_LOW", defaultPriceLow),
			Span: src.str("PRICE_SPAN", defaultPriceSpan),
		},
		Widgets: WidgetConfig{
			CarouselInterval:         src.duration("CAROUSEL_INTERVAL", defaultCarouselInterval),
			SliderStepInterval:       src.duration("SLIDER_STEP_INTERVAL", defaultSliderStepInterval),
			ScrollToCatalogueOnClose: src.boolean("SCROLL_TO_CATALOGUE_ON_CLOSE", true),
		},
		LogLevel: strings.ToLower(src.str("LOG_LEVEL", defaultLogLevel)),
		Dev:      src.boolean("DEV", false),
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + strings.TrimPrefix(c.Server.Port, ":")
}

func (c Config) validate() error {
	var invalid []string

	if port, err := strconv.Atoi(strings.TrimPrefix(c.Server.Port, ":")); err != nil || port < 0 || port > 65535 {
		invalid = append(invalid, "Server.Port")
	}
	switch c.Store.Driver {
	case StoreDriverMemory:
	case StoreDriverSQLite:
		if strings.TrimSpace(c.Store.DSN) == "" {
			invalid = append(invalid, "Store.DSN")
		}
	default:
		invalid = append(invalid, "Store.Driver")
	}
	if c.Store.Retention < 0 {
		invalid = append(invalid, "Store.Retention")
	}
	if key := c.Session.HashKey; key != "" && len(key) < 32 {
		invalid = append(invalid, "Session.HashKey")
	}
	switch len(c.Session.BlockKey) {
	case 0, 16, 24, 32:
	default:
		invalid = append(invalid, "Session.BlockKey")
	}
	if c.Pages.TTL <= 0 {
		invalid = append(invalid, "Pages.TTL")
	}
	if c.Pages.Capacity <= 0 {
		invalid = append(invalid, "Pages.Capacity")
	}
	if !isNonNegativeDecimal(c.Pricing.Low) {
		invalid = append(invalid, "Pricing.Low")
	}
	if !isNonNegativeDecimal(c.Pricing.Span) {
		invalid = append(invalid, "Pricing.Span")
	}
	if c.Widgets.CarouselInterval <= 0 {
		invalid = append(invalid, "Widgets.CarouselInterval")
	}
	if c.Widgets.SliderStepInterval <= 0 {
		invalid = append(invalid, "Widgets.SliderStepInterval")
	}

	if len(invalid) > 0 {
		return &ValidationError{fields: invalid}
	}
	return nil
}

func isNonNegativeDecimal(value string) bool {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	return err == nil && f >= 0
}

// lookup returns the first non-empty value for key across the sources.
func (s *sources) lookup(key string) (string, bool) {
	key = envPrefix + key
	if v := s.overrides[key]; v != "" {
		return v, true
	}
	if s.system {
		if v := os.Getenv(key); v != "" {
			return v, true
		}
	}
	if v := s.dotenv[key]; v != "" {
		return v, true
	}
	return "", false
}

func (s *sources) str(key, fallback string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return fallback
}

// duration ignores unparsable values and keeps the fallback.
func (s *sources) duration(key string, fallback time.Duration) time.Duration {
	v, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func (s *sources) integer(key string, fallback int) int {
	v, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func (s *sources) boolean(key string, fallback bool) bool {
	v, ok := s.lookup(key)
	if !ok {
		return fallback
	}
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return fallback
}

// readDotEnv parses KEY=VALUE lines. Blank lines, comments and an "export "
// prefix are tolerated; surrounding quotes are stripped. A missing file is not
// an error.
func readDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()

	values := map[string]string{}
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		key, value, ok := strings.Cut(strings.TrimPrefix(line, "export "), "=")
		if key = strings.TrimSpace(key); !ok || key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), `"'`)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return values, nil
}
