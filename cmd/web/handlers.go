package main

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/cart"
	"github.com/GreyDragonEnt/Gelatomessina/internal/cartview"
	mw "github.com/GreyDragonEnt/Gelatomessina/internal/middleware"
	"github.com/GreyDragonEnt/Gelatomessina/internal/quiz"
	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
	"github.com/GreyDragonEnt/Gelatomessina/internal/storefront"
)

var errBadRequest = errors.New("bad request")

// home is a full page (re)load: it replaces the browser's live page.
func (s *server) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := s.pages.Load(ctx, requestctx.BrowserID(ctx), mw.ColourHint(ctx))
	if err != nil {
		s.failed(w, r, err)
		return
	}
	var data pageData
	_ = p.Do(func(p *storefront.Page) error {
		data = buildPageData(r, p, queueFrom(r).Drain())
		return nil
	})
	s.renderer.render(w, r, http.StatusOK, "base", data)
}

func (s *server) cartFragment(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, "cart", nil)
}

// cartCommand builds a handler that dispatches one cart command from the
// route and form values.
func (s *server) cartCommand(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cmd := cartview.Command{
			Name:    name,
			ItemID:  chi.URLParam(r, "id"),
			Flavour: strings.TrimSpace(r.FormValue("name")),
			Opener:  opener(r),
		}
		if name == cartview.CommandSetQty {
			qty, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
			if err != nil {
				s.failed(w, r, errBadRequest)
				return
			}
			cmd.Quantity = qty
		}

		s.withPage(w, r, "cart", func(p *storefront.Page) (int, error) {
			err := p.Cart().Dispatch(r.Context(), cmd)
			if name == cartview.CommandClose {
				panelEvents(w, p.Cart().Panel())
			}
			switch {
			case err == nil:
				return http.StatusOK, nil
			case errors.Is(err, cart.ErrPersist):
				s.persistWarning(r, err)
				return http.StatusOK, nil
			case errors.Is(err, cartview.ErrCheckoutDisabled):
				return http.StatusConflict, nil
			default:
				return 0, err
			}
		})
	}
}

// opener is the control that should get focus back when a panel closes: the
// explicit form value, else the element that fired the htmx request.
func opener(r *http.Request) string {
	if v := strings.TrimSpace(r.FormValue("opener")); v != "" {
		return v
	}
	req, _ := mw.HTMXFromContext(r.Context())
	return req.Trigger
}

// panelEvents asks the client to move focus and scroll after the panel settles.
func panelEvents(w http.ResponseWriter, panel cartview.PanelView) {
	events := map[string]any{}
	if panel.FocusTarget != "" {
		events["focus"] = panel.FocusTarget
	}
	if panel.ScrollTarget != "" {
		events["scrollTo"] = panel.ScrollTarget
	}
	setEvents(w, "HX-Trigger-After-Settle", events)
}

func (s *server) quizFragment(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, "quiz", nil)
}

func (s *server) quizAnswer(w http.ResponseWriter, r *http.Request) {
	option, err := strconv.Atoi(strings.TrimSpace(r.FormValue("option")))
	if err != nil {
		s.failed(w, r, errBadRequest)
		return
	}
	s.withPage(w, r, "quiz", func(p *storefront.Page) (int, error) {
		if err := p.Quiz().Answer(option); err != nil && !errors.Is(err, quiz.ErrFinished) {
			return 0, err
		}
		return http.StatusOK, nil
	})
}

func (s *server) quizReset(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, "quiz", func(p *storefront.Page) (int, error) {
		p.Quiz().Reset()
		return http.StatusOK, nil
	})
}

func (s *server) quizShare(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, "toasts", func(p *storefront.Page) (int, error) {
		p.ShareQuiz(r.Context())
		return http.StatusOK, nil
	})
}

func (s *server) carouselFragment(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, "carousel", nil)
}

func (s *server) carouselSelect(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.failed(w, r, errBadRequest)
		return
	}
	s.withPage(w, r, "carousel", func(p *storefront.Page) (int, error) {
		p.Carousel().Select(index)
		return http.StatusOK, nil
	})
}

func (s *server) themeToggle(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, "theme_toggle", func(p *storefront.Page) (int, error) {
		t, err := p.Theme().Toggle(r.Context())
		if err != nil {
			requestctx.Logger(r.Context()).Warn("theme not persisted", zap.Error(err))
		}
		setEvents(w, "HX-Trigger-After-Swap", map[string]any{"theme": string(t)})
		return http.StatusOK, nil
	})
}

// themePreference follows an OS colour scheme change reported by the client.
// A stored choice wins, so the toggle may come back unchanged.
func (s *server) themePreference(w http.ResponseWriter, r *http.Request) {
	scheme := strings.TrimSpace(r.FormValue("scheme"))
	s.withPage(w, r, "theme_toggle", func(p *storefront.Page) (int, error) {
		if p.Theme().PreferenceChanged(scheme) {
			setEvents(w, "HX-Trigger-After-Swap", map[string]any{"theme": string(p.Theme().Current())})
		}
		return http.StatusOK, nil
	})
}

func (s *server) notifyCard(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	s.withPage(w, r, "toasts", func(p *storefront.Page) (int, error) {
		return http.StatusOK, p.CardClicked(r.Context(), name)
	})
}

func (s *server) notifyPost(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.failed(w, r, errBadRequest)
		return
	}
	s.withPage(w, r, "toasts", func(p *storefront.Page) (int, error) {
		return http.StatusOK, p.PostClicked(r.Context(), index)
	})
}

func (s *server) notifySocial(w http.ResponseWriter, r *http.Request) {
	platform := chi.URLParam(r, "platform")
	s.withPage(w, r, "toasts", func(p *storefront.Page) (int, error) {
		return http.StatusOK, p.SocialClicked(r.Context(), platform)
	})
}

func (s *server) trackOpen(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, "track_modal", func(p *storefront.Page) (int, error) {
		p.Track().Open(opener(r))
		return http.StatusOK, nil
	})
}

func (s *server) trackClose(w http.ResponseWriter, r *http.Request) {
	s.withPage(w, r, "track_modal", func(p *storefront.Page) (int, error) {
		panelEvents(w, p.Track().Close())
		return http.StatusOK, nil
	})
}
