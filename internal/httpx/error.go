// Package httpx writes JSON replies for clients that are not rendering HTML:
// the slider endpoints and error replies to non-htmx callers.
package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
)

// Error is a client-facing failure. Code is a stable snake_case identifier;
// Message is safe to show to a shopper.
type Error struct {
	Code    string
	Message string
	Status  int
}

func (e Error) Error() string { return e.Code + ": " + e.Message }

// NewError builds an Error. A zero status means 500.
func NewError(code, message string, status int) Error {
	if status == 0 {
		status = http.StatusInternalServerError
	}
	return Error{Code: oneLine(code, 80), Message: oneLine(message, 512), Status: status}
}

type envelope struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Status    int    `json:"status"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
}

// WriteError writes err as the JSON error envelope, tagged with the request and
// trace ids found on ctx.
func WriteError(ctx context.Context, w http.ResponseWriter, err Error) {
	if err.Status == 0 {
		err.Status = http.StatusInternalServerError
	}
	WriteJSON(w, err.Status, envelope{
		Error:     err.Code,
		Message:   err.Message,
		Status:    err.Status,
		RequestID: oneLine(middleware.GetReqID(ctx), 80),
		TraceID:   requestctx.TraceID(ctx),
	})
}

// WriteJSON encodes v with status. Replies describe live page state, so they
// are never cached.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	h := w.Header()
	h.Set("Content-Type", "application/json; charset=utf-8")
	h.Set("Cache-Control", "no-store")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func oneLine(value string, limit int) string {
	value = strings.TrimSpace(strings.Join(strings.Fields(value), " "))
	if len(value) > limit {
		value = value[:limit]
	}
	return value
}
