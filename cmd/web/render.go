package main

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/GreyDragonEnt/Gelatomessina/internal/format"
	"github.com/GreyDragonEnt/Gelatomessina/internal/requestctx"
)

var (
	//go:embed templates/*.tmpl
	embeddedTemplates embed.FS
	//go:embed assets
	embeddedAssets embed.FS
)

// assetFS is the static asset tree rooted at assets/.
func assetFS() fs.FS {
	sub, err := fs.Sub(embeddedAssets, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// renderer executes the page layout and fragments. In dev mode templates are
// reparsed from disk on each request.
type renderer struct {
	dev   bool
	dir   string
	mu    sync.Mutex
	cache *template.Template
}

func newRenderer(dev bool, dir string) (*renderer, error) {
	r := &renderer{dev: dev, dir: dir}
	if dev {
		if _, err := os.Stat(dir); err != nil {
			r.dev = false
		}
	}
	t, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.cache = t
	return r, nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"price":    func(d decimal.Decimal) string { return format.Price(d) },
		"currency": func(d decimal.Decimal) string { return format.Currency(d) },
		"plural":   format.Plural,
		"add":      func(a, b int) int { return a + b },
	}
}

func (r *renderer) parse() (*template.Template, error) {
	var fsys fs.FS = embeddedTemplates
	pattern := "templates/*.tmpl"
	if r.dev {
		fsys = os.DirFS(r.dir)
		pattern = "*.tmpl"
	}
	t, err := template.New("_root").Funcs(templateFuncs()).ParseFS(fsys, pattern)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return t, nil
}

func (r *renderer) templates() (*template.Template, error) {
	if !r.dev {
		return r.cache, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	t, err := r.parse()
	if err != nil {
		return nil, err
	}
	r.cache = t
	return t, nil
}

// render executes name into a buffer first so a template failure never leaves
// a half-written response.
func (r *renderer) render(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	t, err := r.templates()
	if err != nil {
		r.fail(w, req, err)
		return
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		r.fail(w, req, fmt.Errorf("execute %s: %w", name, err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (r *renderer) fail(w http.ResponseWriter, req *http.Request, err error) {
	requestctx.Logger(req.Context()).Error("template render failed", zap.Error(err))
	http.Error(w, "template error", http.StatusInternalServerError)
}
