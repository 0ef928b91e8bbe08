package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
	"github.com/GreyDragonEnt/Gelatomessina/internal/store"
)

const (
	DefaultCapacity = 1024
	DefaultTTL      = 30 * time.Minute
)

var (
	errBackendRequired = errors.New("storefront: store backend is required")
	// ErrNoBrowser is returned when a page is requested without a browser id.
	ErrNoBrowser = errors.New("storefront: browser id is required")
	// ErrPageExpired is returned for a page id that is no longer the browser's
	// live page. The client has to reload to see current prices.
	ErrPageExpired = errors.New("storefront: page expired")
)

// RegistryConfig sizes a Registry.
type RegistryConfig struct {
	Capacity int
	TTL      time.Duration
	Options  Options
	Logger   *zap.Logger
}

// Registry keeps the live page of each browser. Pages idle past the TTL or
// pushed out by capacity are closed, which stops their timers. Persisted state
// is untouched by eviction, but requests for an evicted or replaced page fail
// with ErrPageExpired until the browser loads a new one.
type Registry struct {
	mu      sync.Mutex
	backend store.ScopedBackend
	pages   *expirable.LRU[string, *Page]
	opts    Options
	logger  *zap.Logger
}

// NewRegistry builds a Registry over a scoped backend.
func NewRegistry(backend store.ScopedBackend, cfg RegistryConfig) (*Registry, error) {
	if backend == nil {
		return nil, errBackendRequired
	}
	if cfg.Capacity <= 0 {
		cfg.Capacity = DefaultCapacity
	}
	if cfg.TTL <= 0 {
		cfg.TTL = DefaultTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = requestctx.NoopLogger()
	}
	r := &Registry{backend: backend, opts: cfg.Options, logger: logger}
	r.pages = expirable.NewLRU[string, *Page](cfg.Capacity, r.evicted, cfg.TTL)
	return r, nil
}

func (r *Registry) evicted(browserID string, page *Page) {
	page.Close()
	r.logger.Debug("page evicted",
		zap.String("browser_id", browserID),
		zap.String("page_id", page.ID()),
	)
}

// Load performs a full page load for browserID, replacing any live page.
func (r *Registry) Load(ctx context.Context, browserID, colourHint string) (*Page, error) {
	browserID = strings.TrimSpace(browserID)
	if browserID == "" {
		return nil, ErrNoBrowser
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages.Remove(browserID)
	return r.create(ctx, browserID, colourHint)
}

// Get returns the live page of browserID if it is the page pageID. It never
// builds a page: a fresh one would carry prices the browser has not shown.
func (r *Registry) Get(browserID, pageID string) (*Page, error) {
	browserID = strings.TrimSpace(browserID)
	if browserID == "" {
		return nil, ErrNoBrowser
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	page, ok := r.pages.Get(browserID)
	if !ok || pageID == "" || page.ID() != strings.TrimSpace(pageID) {
		return nil, ErrPageExpired
	}
	return page, nil
}

// Peek returns the live page without creating or refreshing it.
func (r *Registry) Peek(browserID string) (*Page, bool) {
	return r.pages.Peek(strings.TrimSpace(browserID))
}

// Len is the number of live pages.
func (r *Registry) Len() int { return r.pages.Len() }

// Close evicts every page.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pages.Purge()
}

func (r *Registry) create(ctx context.Context, browserID, colourHint string) (*Page, error) {
	page, err := NewPage(ctx, browserID, store.Scoped(r.backend, browserID), colourHint, r.opts)
	if err != nil {
		return nil, err
	}
	r.pages.Add(browserID, page)
	return page, nil
}
