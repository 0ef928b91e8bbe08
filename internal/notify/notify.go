// Package notify collects transient, auto-dismissing messages raised while
// handling a request so the HTTP layer can surface them as toasts.
package notify

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
)

// DismissAfter is how long a toast stays visible.
const DismissAfter = 5 * time.Second

// TriggerEvent is the client event name carried in the HX-Trigger header.
const TriggerEvent = "notify"

// Severity classifies a notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityError   Severity = "error"
)

// Normalize maps unknown severities to info.
func (s Severity) Normalize() Severity {
	switch Severity(strings.ToLower(strings.TrimSpace(string(s)))) {
	case SeveritySuccess:
		return SeveritySuccess
	case SeverityError:
		return SeverityError
	default:
		return SeverityInfo
	}
}

// Notifier shows a message to the user. Fire-and-forget.
type Notifier interface {
	Notify(ctx context.Context, message string, severity Severity)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, message string, severity Severity)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, message string, severity Severity) {
	f(ctx, message, severity)
}

// Discard drops every notification.
var Discard Notifier = NotifierFunc(func(context.Context, string, Severity) {})

// Notification is a single user-visible message.
type Notification struct {
	Message      string   `json:"message"`
	Severity     Severity `json:"severity"`
	DismissAfter int64    `json:"dismissAfterMs"`
	// Announce asks the client to mirror the message into an aria-live region.
	Announce bool `json:"announce"`
}

// Role returns the ARIA role matching the severity.
func (n Notification) Role() string {
	if n.Severity == SeverityError {
		return "alert"
	}
	return "status"
}

// Queue buffers notifications raised during one request.
type Queue struct {
	mu    sync.Mutex
	items []Notification
}

// NewQueue constructs an empty queue.
func NewQueue() *Queue { return &Queue{} }

// Notify appends a notification. Blank messages are ignored.
func (q *Queue) Notify(ctx context.Context, message string, severity Severity) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	n := Notification{
		Message:      message,
		Severity:     severity.Normalize(),
		DismissAfter: DismissAfter.Milliseconds(),
		Announce:     true,
	}
	q.mu.Lock()
	q.items = append(q.items, n)
	q.mu.Unlock()

	requestctx.Logger(ctx).Debug("notification raised",
		zap.String("severity", string(n.Severity)),
		zap.String("message", message),
	)
}

// Drain returns buffered notifications and empties the queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

// Pending returns a copy of the buffered notifications without draining them.
func (q *Queue) Pending() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]Notification, len(q.items))
	copy(out, q.items)
	return out
}

// TriggerHeader encodes notifications as an HX-Trigger header value. It
// returns "" when there is nothing to send.
func TriggerHeader(items []Notification) (string, error) {
	if len(items) == 0 {
		return "", nil
	}
	raw, err := json.Marshal(map[string][]Notification{TriggerEvent: items})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

type contextKey struct{}

// WithNotifier stores n on ctx.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, contextKey{}, n)
}

// FromContext returns the request notifier, or Discard.
func FromContext(ctx context.Context) Notifier {
	if ctx != nil {
		if n, ok := ctx.Value(contextKey{}).(Notifier); ok && n != nil {
			return n
		}
	}
	return Discard
}

// Contextual is a Notifier that forwards to whichever notifier the call's
// context carries. Long-lived components hold it so each request's messages
// land in that request's queue.
type Contextual struct{}

// Notify forwards to FromContext(ctx).
func (Contextual) Notify(ctx context.Context, message string, severity Severity) {
	FromContext(ctx).Notify(ctx, message, severity)
}
