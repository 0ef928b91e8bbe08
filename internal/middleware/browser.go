package middleware

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/securecookie"
	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
)

const (
	defaultBrowserCookie   = "gelato_browser"
	defaultBrowserLifetime = 400 * 24 * time.Hour
)

// ErrInvalidBrowserConfig indicates bad cookie keys.
var ErrInvalidBrowserConfig = errors.New("middleware: invalid browser config")

// Browser identifies one browser profile across reloads and sessions. Its
// ID scopes everything the shop persists for that browser.
type Browser struct {
	ID        string    `json:"id"`
	CSRFToken string    `json:"csrf"`
	CreatedAt time.Time `json:"createdAt"`
	// New is set when the cookie was issued on this request.
	New bool `json:"-"`
}

// BrowserConfig controls the browser scope cookie.
type BrowserConfig struct {
	CookieName string
	HashKey    []byte
	BlockKey   []byte
	Secure     bool
	Lifetime   time.Duration
	Now        func() time.Time
	Logger     *zap.Logger
}

// BrowserScope issues and verifies the signed browser cookie.
type BrowserScope struct {
	cfg   BrowserConfig
	codec *securecookie.SecureCookie
}

// NewBrowserScope builds a BrowserScope. Without a hash key an ephemeral one is
// generated, so cookies stop verifying after a restart.
func NewBrowserScope(cfg BrowserConfig) (*BrowserScope, error) {
	if cfg.CookieName == "" {
		cfg.CookieName = defaultBrowserCookie
	}
	if cfg.Lifetime <= 0 {
		cfg.Lifetime = defaultBrowserLifetime
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = requestctx.NoopLogger()
	}
	switch len(cfg.BlockKey) {
	case 0, 16, 24, 32:
	default:
		return nil, fmt.Errorf("%w: block key must be 16, 24 or 32 bytes", ErrInvalidBrowserConfig)
	}
	if len(cfg.HashKey) == 0 {
		cfg.HashKey = securecookie.GenerateRandomKey(32)
		if cfg.HashKey == nil {
			return nil, fmt.Errorf("%w: could not generate hash key", ErrInvalidBrowserConfig)
		}
		cfg.Logger.Warn("browser scope: using ephemeral hash key; set GELATO_WEB_SESSION_HASH_KEY to keep carts across restarts")
	}
	var block []byte
	if len(cfg.BlockKey) > 0 {
		block = cfg.BlockKey
	}
	codec := securecookie.New(cfg.HashKey, block)
	codec.SetSerializer(securecookie.JSONEncoder{})
	codec.MaxAge(int(cfg.Lifetime.Seconds()))
	return &BrowserScope{cfg: cfg, codec: codec}, nil
}

// Middleware attaches the Browser to the request, issuing a cookie when the
// request carried none or an unverifiable one.
func (s *BrowserScope) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, ok := s.read(r)
		if !ok {
			b = &Browser{
				ID:        uuid.NewString(),
				CSRFToken: newCSRFToken(),
				CreatedAt: s.cfg.Now().UTC(),
				New:       true,
			}
			if err := s.write(w, b); err != nil {
				requestctx.Logger(r.Context()).Error("browser scope: issue cookie", zap.Error(err))
			}
		}
		ctx := WithBrowser(r.Context(), b)
		ctx = requestctx.WithBrowserID(ctx, b.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *BrowserScope) read(r *http.Request) (*Browser, bool) {
	c, err := r.Cookie(s.cfg.CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	var b Browser
	if err := s.codec.Decode(s.cfg.CookieName, c.Value, &b); err != nil {
		return nil, false
	}
	if _, err := uuid.Parse(b.ID); err != nil || b.CSRFToken == "" {
		return nil, false
	}
	return &b, true
}

func (s *BrowserScope) write(w http.ResponseWriter, b *Browser) error {
	encoded, err := s.codec.Encode(s.cfg.CookieName, b)
	if err != nil {
		return fmt.Errorf("encode browser cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.Secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(s.cfg.Lifetime.Seconds()),
	})
	return nil
}

// Secure reports whether cookies carry the Secure flag.
func (s *BrowserScope) Secure() bool { return s.cfg.Secure }

func newCSRFToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
