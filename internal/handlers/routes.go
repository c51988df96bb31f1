package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ahsanfayaz52/notesapp/internal/auth"
	"github.com/ahsanfayaz52/notesapp/internal/middleware"
)

const slugPattern = "{slug:[-a-zA-Z0-9_]+}"

type Deps struct {
	Notes        NoteRepository
	Users        UserRepository
	Tokens       TokenRepository
	JWT          *auth.JWTService
	CookieSecure bool
	Logger       *slog.Logger
}

// NewRouter wires every page under its route name.
func NewRouter(d Deps) (*mux.Router, error) {
	r := mux.NewRouter()
	urls := &URLs{router: r}

	views, err := NewRenderer(urls, d.Logger)
	if err != nil {
		return nil, err
	}
	notes := NewNoteHandler(d.Notes, views, urls, d.Logger)
	users := NewAuthHandler(d.Users, d.Tokens, d.JWT, d.CookieSecure, views, urls, d.Logger)

	r.Use(middleware.RequestID(), middleware.AccessLog(d.Logger), auth.LoadUser(d.JWT, d.Users, d.Tokens))

	r.HandleFunc("/", notes.Home).Methods(http.MethodGet).Name("notes:home")
	r.HandleFunc("/auth/login/", users.Login).Methods(http.MethodGet, http.MethodPost).Name("users:login")
	r.HandleFunc("/auth/logout/", users.Logout).Methods(http.MethodGet, http.MethodPost).Name("users:logout")
	r.HandleFunc("/auth/signup/", users.Signup).Methods(http.MethodGet, http.MethodPost).Name("users:signup")

	// Authenticated routes
	s := r.PathPrefix("/").Subrouter()
	s.HandleFunc("/notes/", notes.List).Methods(http.MethodGet).Name("notes:list")
	s.HandleFunc("/add/", notes.Add).Methods(http.MethodGet, http.MethodPost).Name("notes:add")
	s.HandleFunc("/note/"+slugPattern+"/", notes.Detail).Methods(http.MethodGet).Name("notes:detail")
	s.HandleFunc("/edit/"+slugPattern+"/", notes.Edit).Methods(http.MethodGet, http.MethodPost).Name("notes:edit")
	s.HandleFunc("/delete/"+slugPattern+"/", notes.Delete).Methods(http.MethodGet, http.MethodPost, http.MethodDelete).Name("notes:delete")
	s.HandleFunc("/done/", notes.Success).Methods(http.MethodGet).Name("notes:success")

	s.Use(auth.RequireLogin(urls.MustReverse("users:login")), middleware.NoStore())

	return r, nil
}
