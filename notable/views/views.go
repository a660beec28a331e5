// Package views renders the HTML pages. Templates are embedded; each page is
// parsed together with the shared layout.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"notable/notable/sources"
	"notable/notable/utils/logging"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var files embed.FS

// Page is the data every template receives. Data holds the page's own values.
type Page struct {
	Title    string
	Theme    string
	SignedIn bool
	User     sources.User
	Path     string
	Flash    string
	// Live makes the page subscribe to note change events.
	Live bool
	Data interface{}
}

type Renderer struct {
	pages map[string]*template.Template
}

var funcs = template.FuncMap{
	"timeAgo":  func(t time.Time) string { return TimeAgo(t, time.Now()) },
	"truncate": Truncate,
}

func New() (*Renderer, error) {
	layout, err := template.New("layout.html").Funcs(funcs).ParseFS(files, "templates/layout.html")
	if err != nil {
		return nil, err
	}
	names, err := fs.Glob(files, "templates/*.html")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template)}
	for _, name := range names {
		base := strings.TrimPrefix(name, "templates/")
		if base == "layout.html" {
			continue
		}
		t, err := template.Must(layout.Clone()).ParseFS(files, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", base, err)
		}
		r.pages[strings.TrimSuffix(base, ".html")] = t
	}
	return r, nil
}

// Render executes page into a buffer first so a template error never leaves
// a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, p Page) {
	t, ok := r.pages[page]
	if !ok {
		logging.ErrorLogger.Error("unknown page", zap.String("page", page))
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	if p.Theme == "" {
		p.Theme = "light"
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		logging.ErrorLogger.Error("render failed", zap.String("page", page), zap.Error(err))
		http.Error(w, "Something went wrong", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write(buf.Bytes())
}

// TimeAgo formats t relative to now the way note cards show it.
func TimeAgo(t, now time.Time) string {
	d := now.Sub(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return plural(int(d/time.Minute), "minute") + " ago"
	case d < 24*time.Hour:
		return plural(int(d/time.Hour), "hour") + " ago"
	case d < 30*24*time.Hour:
		return plural(int(d/(24*time.Hour)), "day") + " ago"
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// Truncate shortens s to at most n runes, adding an ellipsis when cut.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return strings.TrimSpace(string(r[:n])) + "…"
}
