package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/GreyDragonEnt/Gelatomessina/internal/httpx"
	"github.com/GreyDragonEnt/Gelatomessina/internal/storefront"
	"github.com/GreyDragonEnt/Gelatomessina/internal/widget"
)

// sliderJSON applies fn to the page's slider and replies with its state.
func (s *server) sliderJSON(w http.ResponseWriter, r *http.Request, fn func(*widget.Slider)) {
	p, err := s.page(r)
	if err != nil {
		s.failed(w, r, err)
		return
	}
	var state widget.SliderState
	_ = p.Do(func(p *storefront.Page) error {
		if fn != nil {
			fn(p.Slider())
		}
		state = p.Slider().State()
		return nil
	})
	httpx.WriteJSON(w, http.StatusOK, state)
}

func (s *server) sliderState(w http.ResponseWriter, r *http.Request) {
	s.sliderJSON(w, r, nil)
}

func (s *server) sliderHover(w http.ResponseWriter, r *http.Request) {
	s.sliderJSON(w, r, (*widget.Slider).Hover)
}

func (s *server) sliderLeave(w http.ResponseWriter, r *http.Request) {
	s.sliderJSON(w, r, (*widget.Slider).Leave)
}

func (s *server) sliderResize(w http.ResponseWriter, r *http.Request) {
	limit, ok := intForm(r, "max")
	if !ok {
		s.failed(w, r, errBadRequest)
		return
	}
	s.sliderJSON(w, r, func(sl *widget.Slider) { sl.Resize(limit) })
}

func (s *server) sliderScroll(w http.ResponseWriter, r *http.Request) {
	pos, ok := intForm(r, "position")
	if !ok {
		s.failed(w, r, errBadRequest)
		return
	}
	s.sliderJSON(w, r, func(sl *widget.Slider) { sl.Scroll(pos) })
}

func intForm(r *http.Request, key string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(key)))
	return v, err == nil
}
