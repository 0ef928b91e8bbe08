package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/cart"
	"github.com/GreyDragonEnt/Gelatomessina/internal/cartview"
	"github.com/GreyDragonEnt/Gelatomessina/internal/catalogue"
	"github.com/GreyDragonEnt/Gelatomessina/internal/content"
	"github.com/GreyDragonEnt/Gelatomessina/internal/httpx"
	mw "github.com/GreyDragonEnt/Gelatomessina/internal/middleware"
	"github.com/GreyDragonEnt/Gelatomessina/internal/notify"
	"github.com/GreyDragonEnt/Gelatomessina/internal/observability"
	"github.com/GreyDragonEnt/Gelatomessina/internal/quiz"
	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
	"github.com/GreyDragonEnt/Gelatomessina/internal/storefront"
)

// faultMessage is the only thing a user sees when a handler panics.
const faultMessage = "Something went wrong. Please refresh the page."

// pageHeader names the page a fragment request acts on. Plain form posts send
// the same value as the page_id field.
const pageHeader = "X-Page-ID"

type server struct {
	logger   *zap.Logger
	pages    *storefront.Registry
	scope    *mw.BrowserScope
	renderer *renderer
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(observability.TraceMiddleware())
	r.Use(observability.InjectLoggerMiddleware(s.logger))
	r.Use(mw.HTMX)
	r.Use(mw.ColourSchemeHint)
	r.Use(s.scope.Middleware)
	r.Use(observability.RequestLoggerMiddleware())
	r.Use(observability.RecoveryMiddleware(s.logger, s.recovered))

	r.Handle("/assets/*", http.StripPrefix("/assets", mw.Assets(assetFS())))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(mw.CSRF(s.scope.Secure()))
		r.Use(requestNotifications)

		r.Get("/", s.home)

		r.Get("/cart", s.cartFragment)
		r.Delete("/cart", s.cartCommand(cartview.CommandClear))
		r.Post("/cart/items", s.cartCommand(cartview.CommandAdd))
		r.Post("/cart/items/{id}/increment", s.cartCommand(cartview.CommandIncrement))
		r.Post("/cart/items/{id}/decrement", s.cartCommand(cartview.CommandDecrement))
		r.Post("/cart/items/{id}/quantity", s.cartCommand(cartview.CommandSetQty))
		r.Delete("/cart/items/{id}", s.cartCommand(cartview.CommandRemove))
		r.Post("/cart/open", s.cartCommand(cartview.CommandOpen))
		r.Post("/cart/close", s.cartCommand(cartview.CommandClose))
		r.Post("/cart/checkout", s.cartCommand(cartview.CommandCheckout))

		r.Get("/quiz", s.quizFragment)
		r.Post("/quiz/answer", s.quizAnswer)
		r.Post("/quiz/reset", s.quizReset)
		r.Post("/quiz/share", s.quizShare)

		r.Get("/carousel", s.carouselFragment)
		r.Post("/carousel/{index}", s.carouselSelect)

		r.Get("/slider", s.sliderState)
		r.Post("/slider/hover", s.sliderHover)
		r.Post("/slider/leave", s.sliderLeave)
		r.Post("/slider/resize", s.sliderResize)
		r.Post("/slider/scroll", s.sliderScroll)

		r.Post("/theme/toggle", s.themeToggle)
		r.Post("/theme/preference", s.themePreference)

		r.Post("/notify/card/{name}", s.notifyCard)
		r.Post("/notify/ugc/{index}", s.notifyPost)
		r.Post("/notify/social/{platform}", s.notifySocial)

		r.Post("/track/open", s.trackOpen)
		r.Post("/track/close", s.trackClose)
	})
	return r
}

// requestNotifications gives each request its own notification queue.
func requestNotifications(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := notify.WithNotifier(r.Context(), notify.NewQueue())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func queueFrom(r *http.Request) *notify.Queue {
	if q, ok := notify.FromContext(r.Context()).(*notify.Queue); ok {
		return q
	}
	return notify.NewQueue()
}

// page returns the live page the request was issued from.
func (s *server) page(r *http.Request) (*storefront.Page, error) {
	id := r.Header.Get(pageHeader)
	if id == "" {
		id = r.PostFormValue("page_id")
	}
	return s.pages.Get(requestctx.BrowserID(r.Context()), id)
}

// fragment renders name for htmx requests. Plain form posts are redirected to
// the full page instead.
func (s *server) fragment(w http.ResponseWriter, r *http.Request, status int, name string, data pageData) {
	if !mw.IsHTMX(r.Context()) && r.Method != http.MethodGet {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	setTrigger(w, r, "HX-Trigger", data.Toasts)
	data.OOB = true
	s.renderer.render(w, r, status, name, data)
}

// withPage runs fn under the page lock and renders the resulting fragment.
func (s *server) withPage(w http.ResponseWriter, r *http.Request, name string, fn func(p *storefront.Page) (int, error)) {
	p, err := s.page(r)
	if err != nil {
		s.failed(w, r, err)
		return
	}
	var (
		data   pageData
		status int
	)
	err = p.Do(func(p *storefront.Page) error {
		var fnErr error
		if fn != nil {
			status, fnErr = fn(p)
		}
		data = buildPageData(r, p, queueFrom(r).Drain())
		return fnErr
	})
	if err != nil {
		s.failed(w, r, err)
		return
	}
	s.fragment(w, r, status, name, data)
}

func setTrigger(w http.ResponseWriter, r *http.Request, header string, toasts []notify.Notification) {
	value, err := notify.TriggerHeader(toasts)
	if err != nil {
		requestctx.Logger(r.Context()).Warn("encode notifications", zap.Error(err))
		return
	}
	if value != "" {
		w.Header().Set(header, value)
	}
}

func setEvents(w http.ResponseWriter, header string, events map[string]any) {
	if len(events) == 0 {
		return
	}
	raw, err := json.Marshal(events)
	if err != nil {
		return
	}
	w.Header().Set(header, string(raw))
}

// expired asks the client to reload: htmx follows HX-Refresh, plain requests
// are sent back to the full page and fetch callers get a 409.
func (s *server) expired(w http.ResponseWriter, r *http.Request) {
	requestctx.Logger(r.Context()).Info("stale page", zap.String("page_id", r.Header.Get(pageHeader)))
	if !mw.IsHTMX(r.Context()) && !strings.Contains(r.Header.Get("Accept"), "application/json") {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}
	w.Header().Set("HX-Refresh", "true")
	httpx.WriteError(r.Context(), w, httpx.NewError("page_expired", "Page expired. Reload to continue.", http.StatusConflict))
}

// failed maps handler errors to responses.
func (s *server) failed(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, storefront.ErrPageExpired) {
		s.expired(w, r)
		return
	}
	status := http.StatusInternalServerError
	code := "internal_error"
	switch {
	case errors.Is(err, storefront.ErrNoBrowser):
		status, code = http.StatusBadRequest, "browser_required"
	case errors.Is(err, catalogue.ErrUnknownFlavour):
		status, code = http.StatusNotFound, "unknown_flavour"
	case errors.Is(err, content.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, cartview.ErrUnknownCommand):
		status, code = http.StatusBadRequest, "unknown_command"
	case errors.Is(err, quiz.ErrInvalidOption):
		status, code = http.StatusUnprocessableEntity, "invalid_option"
	case errors.Is(err, errBadRequest):
		status, code = http.StatusBadRequest, "bad_request"
	}
	logger := requestctx.Logger(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	} else {
		logger.Info("request rejected", zap.Error(err))
	}
	httpx.WriteError(r.Context(), w, httpx.NewError(code, strings.TrimSpace(http.StatusText(status)), status))
}

// recovered is the user-facing reply after a panic: one generic error
// notification and nothing else. Other pages are unaffected.
func (s *server) recovered(w http.ResponseWriter, r *http.Request) {
	toast := []notify.Notification{{
		Message:      faultMessage,
		Severity:     notify.SeverityError,
		DismissAfter: notify.DismissAfter.Milliseconds(),
		Announce:     true,
	}}
	setTrigger(w, r, "HX-Trigger", toast)
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		httpx.WriteError(r.Context(), w, httpx.NewError("internal_error", faultMessage, http.StatusInternalServerError))
		return
	}
	s.renderer.render(w, r, http.StatusInternalServerError, "toasts", pageData{Toasts: toast, OOB: true})
}

func (s *server) persistWarning(r *http.Request, err error) {
	if errors.Is(err, cart.ErrPersist) {
		requestctx.Logger(r.Context()).Error("cart change not persisted", zap.Error(err))
	}
}
