package middleware

import "context"

type (
	htmxKey    struct{}
	browserKey struct{}
	hintKey    struct{}
)

// WithHTMX marks the request as issued by htmx.
func WithHTMX(ctx context.Context, req HTMXRequest) context.Context {
	return context.WithValue(ctx, htmxKey{}, req)
}

// HTMXFromContext returns the htmx metadata and whether the request came from htmx.
func HTMXFromContext(ctx context.Context) (HTMXRequest, bool) {
	req, ok := ctx.Value(htmxKey{}).(HTMXRequest)
	return req, ok
}

// IsHTMX reports whether the request came from htmx.
func IsHTMX(ctx context.Context) bool {
	_, ok := HTMXFromContext(ctx)
	return ok
}

func WithBrowser(ctx context.Context, b *Browser) context.Context {
	return context.WithValue(ctx, browserKey{}, b)
}

// BrowserFromContext returns the browser scope, or nil before the scope middleware ran.
func BrowserFromContext(ctx context.Context) *Browser {
	b, _ := ctx.Value(browserKey{}).(*Browser)
	return b
}

// WithColourHint stores the OS colour scheme preference sent by the client.
func WithColourHint(ctx context.Context, hint string) context.Context {
	return context.WithValue(ctx, hintKey{}, hint)
}

// ColourHint returns the stored preference, or "".
func ColourHint(ctx context.Context) string {
	v, _ := ctx.Value(hintKey{}).(string)
	return v
}
