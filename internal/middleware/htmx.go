package middleware

import "net/http"

// HTMXRequest describes the htmx headers of a request.
type HTMXRequest struct {
	// Target is the id of the element the response will be swapped into.
	Target string
	// Trigger is the id of the element that fired the request.
	Trigger string
	Boosted bool
}

// HTMX records htmx request metadata on the context. Responses vary on
// HX-Request because the same URL answers with a fragment or a redirect.
func HTMX(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "HX-Request")
		if r.Header.Get("HX-Request") != "true" {
			next.ServeHTTP(w, r)
			return
		}
		req := HTMXRequest{
			Target:  r.Header.Get("HX-Target"),
			Trigger: r.Header.Get("HX-Trigger"),
			Boosted: r.Header.Get("HX-Boosted") == "true",
		}
		next.ServeHTTP(w, r.WithContext(WithHTMX(r.Context(), req)))
	})
}
