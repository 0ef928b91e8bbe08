package middleware

import (
	"net/http"

	"github.com/GreyDragonEnt/Gelatomessina/internal/theme"
)

// ColourSchemeHint asks the browser for its colour scheme preference and
// records whatever it already sent.
func ColourSchemeHint(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Accept-CH", theme.HintHeader)
		h.Add("Vary", theme.HintHeader)
		h.Set("Critical-CH", theme.HintHeader)
		ctx := WithColourHint(r.Context(), r.Header.Get(theme.HintHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
