package main

import (
	"html/template"
	"net/http"

	"github.com/GreyDragonEnt/Gelatomessina/internal/cartview"
	"github.com/GreyDragonEnt/Gelatomessina/internal/catalogue"
	"github.com/GreyDragonEnt/Gelatomessina/internal/content"
	mw "github.com/GreyDragonEnt/Gelatomessina/internal/middleware"
	"github.com/GreyDragonEnt/Gelatomessina/internal/notify"
	"github.com/GreyDragonEnt/Gelatomessina/internal/quiz"
	"github.com/GreyDragonEnt/Gelatomessina/internal/seo"
	"github.com/GreyDragonEnt/Gelatomessina/internal/storefront"
	"github.com/GreyDragonEnt/Gelatomessina/internal/theme"
)

const shopName = "Gelato Messina"

var pageMeta = seo.Meta{
	Title:       shopName + " | Australian flavours, scooped daily",
	Description: "Australian-inspired gelato flavours, a flavour personality quiz and a peek at our farm.",
}

// pageData is shared by the full layout and every fragment.
type pageData struct {
	Meta      seo.Meta
	JSONLD    template.JS
	PageID    string
	CSRFToken string
	Theme     theme.Theme
	Cart      cartview.View
	Flavours  []catalogue.Item
	Quiz      quizView
	Carousel  carouselView
	Posts     []content.Post
	Socials   []content.Social
	Track     cartview.PanelView
	Toasts    []notify.Notification
	// OOB marks fragments that should be swapped out of band.
	OOB bool
}

type quizView struct {
	Done     bool
	Number   int
	Total    int
	Progress int
	Question quiz.Question
	Result   quiz.Personality
}

type carouselView struct {
	Slides []content.Slide
	Active int
}

// buildPageData snapshots p. The caller holds the page lock.
func buildPageData(r *http.Request, p *storefront.Page, toasts []notify.Notification) pageData {
	q := p.Quiz()
	qv := quizView{
		Done:     q.Done(),
		Number:   q.Index() + 1,
		Total:    q.Total(),
		Progress: q.Progress(),
	}
	if question, ok := q.Current(); ok {
		qv.Question = question
	} else {
		qv.Result = q.Result()
	}

	flavours := p.Catalogue().Items()
	meta := pageMeta
	if slides := p.Content().Slides; len(slides) > 0 {
		meta.OGImage = slides[0].Src
	}
	return pageData{
		Meta:      meta,
		JSONLD:    seo.Script(seo.Organization(shopName, "", ""), seo.Menu("Flavours", flavours)),
		PageID:    p.ID(),
		CSRFToken: mw.CSRFToken(r),
		Theme:     p.Theme().Current(),
		Cart:      p.Cart().Refresh(),
		Flavours:  flavours,
		Quiz:      qv,
		Carousel: carouselView{
			Slides: p.Content().Slides,
			Active: p.Carousel().Index(),
		},
		Posts:   p.Content().Posts,
		Socials: p.Content().Socials,
		Track:   p.Track().View(),
		Toasts:  toasts,
	}
}
