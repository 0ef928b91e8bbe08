package middleware

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
)

var testHashKey = []byte("0123456789abcdef0123456789abcdef")

func newScope(t *testing.T) *BrowserScope {
	t.Helper()
	s, err := NewBrowserScope(BrowserConfig{HashKey: testHashKey})
	require.NoError(t, err)
	return s
}

func captureBrowser(t *testing.T, s *BrowserScope, req *http.Request) (*Browser, *httptest.ResponseRecorder) {
	t.Helper()
	var got *Browser
	var scoped string
	h := s.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = BrowserFromContext(r.Context())
		scoped = requestctx.BrowserID(r.Context())
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.NotNil(t, got)
	require.Equal(t, got.ID, scoped)
	return got, rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestBrowserScopeIssuesAndReusesCookie(t *testing.T) {
	s := newScope(t)

	first, rec := captureBrowser(t, s, httptest.NewRequest(http.MethodGet, "/", nil))
	require.True(t, first.New)
	cookie := cookieNamed(rec, defaultBrowserCookie)
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)
	second, rec2 := captureBrowser(t, s, req)
	require.False(t, second.New)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, first.CSRFToken, second.CSRFToken)
	require.Nil(t, cookieNamed(rec2, defaultBrowserCookie))
}

func TestBrowserScopeRejectsTamperedCookie(t *testing.T) {
	s := newScope(t)
	other, err := NewBrowserScope(BrowserConfig{HashKey: []byte("ffffffffffffffffffffffffffffffff")})
	require.NoError(t, err)

	_, rec := captureBrowser(t, other, httptest.NewRequest(http.MethodGet, "/", nil))
	forged := cookieNamed(rec, defaultBrowserCookie)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(forged)
	b, _ := captureBrowser(t, s, req)
	require.True(t, b.New)
}

func TestBrowserScopeValidatesBlockKey(t *testing.T) {
	_, err := NewBrowserScope(BrowserConfig{HashKey: testHashKey, BlockKey: []byte("short")})
	require.ErrorIs(t, err, ErrInvalidBrowserConfig)
}

func csrfHandler(t *testing.T) http.Handler {
	t.Helper()
	s := newScope(t)
	return HTMX(s.Middleware(CSRF(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))))
}

func TestCSRFRequiresTokenOnUnsafeMethods(t *testing.T) {
	h := csrfHandler(t)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusNoContent, rec.Code)
	browserCookie := cookieNamed(rec, defaultBrowserCookie)
	csrfCookie := cookieNamed(rec, csrfCookieName)
	require.NotNil(t, csrfCookie)
	require.False(t, csrfCookie.HttpOnly)

	post := httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	post.AddCookie(browserCookie)
	post.Header.Set("HX-Request", "true")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, post)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "csrf_invalid")

	post = httptest.NewRequest(http.MethodPost, "/cart/items", nil)
	post.AddCookie(browserCookie)
	post.Header.Set(csrfHeaderName, csrfCookie.Value)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, post)
	require.Equal(t, http.StatusNoContent, rec.Code)

	form := url.Values{"csrf_token": {csrfCookie.Value}}
	post = httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(form.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	post.AddCookie(browserCookie)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, post)
	require.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTMXAndColourHint(t *testing.T) {
	var (
		htmx bool
		meta HTMXRequest
		hint string
	)
	h := HTMX(ColourSchemeHint(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		meta, htmx = HTMXFromContext(r.Context())
		hint = ColourHint(r.Context())
	})))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("HX-Request", "true")
	req.Header.Set("HX-Trigger", "cart-toggle")
	req.Header.Set("HX-Target", "cart-panel")
	req.Header.Set("Sec-CH-Prefers-Color-Scheme", `"dark"`)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.True(t, htmx)
	require.Equal(t, HTMXRequest{Target: "cart-panel", Trigger: "cart-toggle"}, meta)
	require.Equal(t, `"dark"`, hint)
	require.Contains(t, rec.Header().Values("Vary"), "HX-Request")
	require.Equal(t, "Sec-CH-Prefers-Color-Scheme", rec.Header().Get("Accept-CH"))
}

func TestPlainRequestIsNotHTMX(t *testing.T) {
	var htmx bool
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		htmx = IsHTMX(r.Context())
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	require.False(t, htmx)
}
