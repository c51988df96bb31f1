package handlers

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ahsanfayaz52/notesapp/internal/auth"
	"github.com/ahsanfayaz52/notesapp/internal/models"
	"github.com/ahsanfayaz52/notesapp/templates"
)

// PageData is what every page template receives.
type PageData struct {
	CurrentUser *models.User
	Note        *models.Note
	Notes       []models.Note
	Form        any
	Action      string
}

// URLs reverses named routes.
type URLs struct {
	router *mux.Router
}

func (u *URLs) Reverse(name string, pairs ...string) (string, error) {
	route := u.router.Get(name)
	if route == nil {
		return "", fmt.Errorf("no route named %q", name)
	}
	url, err := route.URL(pairs...)
	if err != nil {
		return "", fmt.Errorf("reverse %s: %w", name, err)
	}
	return url.String(), nil
}

// MustReverse is Reverse for route names known at compile time.
func (u *URLs) MustReverse(name string, pairs ...string) string {
	s, err := u.Reverse(name, pairs...)
	if err != nil {
		panic(err)
	}
	return s
}

type Renderer struct {
	pages  map[string]*template.Template
	logger *slog.Logger
}

func NewRenderer(urls *URLs, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"url": urls.Reverse,
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006, 15:04")
		},
	}

	files, err := fs.Glob(templates.FS, "*.html")
	if err != nil {
		return nil, err
	}
	pages := make(map[string]*template.Template, len(files))
	for _, file := range files {
		if file == "base.html" {
			continue
		}
		ts, err := template.New(file).Funcs(funcs).ParseFS(templates.FS, "base.html", file)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[file] = ts
	}
	return &Renderer{pages: pages, logger: logger}, nil
}

// Render executes page into a buffer first so a template error still
// produces a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, data *PageData) {
	if data == nil {
		data = &PageData{}
	}
	if data.CurrentUser == nil {
		data.CurrentUser = auth.UserFromContext(r.Context())
	}

	ts, ok := rd.pages[page]
	if !ok {
		serverError(rd.logger, w, r, fmt.Errorf("template %s does not exist", page))
		return
	}

	buf := new(bytes.Buffer)
	if err := ts.ExecuteTemplate(buf, "base", data); err != nil {
		serverError(rd.logger, w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
