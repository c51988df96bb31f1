package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/ahsanfayaz52/notesapp/internal/auth"
	"github.com/ahsanfayaz52/notesapp/internal/db"
	"github.com/ahsanfayaz52/notesapp/internal/forms"
	"github.com/ahsanfayaz52/notesapp/internal/models"
)

type UserRepository interface {
	auth.UserFinder
	forms.UsernameChecker
	Create(ctx context.Context, u *models.User) error
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// TokenRepository records logged-out tokens.
type TokenRepository interface {
	auth.RevocationChecker
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

type AuthHandler struct {
	users        UserRepository
	tokens       TokenRepository
	jwtService   *auth.JWTService
	cookieSecure bool
	views        *Renderer
	urls         *URLs
	logger       *slog.Logger
}

func NewAuthHandler(users UserRepository, tokens TokenRepository, jwtService *auth.JWTService, cookieSecure bool, views *Renderer, urls *URLs, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		users:        users,
		tokens:       tokens,
		jwtService:   jwtService,
		cookieSecure: cookieSecure,
		views:        views,
		urls:         urls,
		logger:       logger,
	}
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		form := forms.ParseLoginForm(nil)
		form.Next = r.URL.Query().Get("next")
		h.views.Render(w, r, http.StatusOK, "login.html", &PageData{Form: form})
		return
	}

	if err := r.ParseForm(); err != nil {
		badRequest(w)
		return
	}
	form := forms.ParseLoginForm(r.PostForm)
	if !form.Validate() {
		h.views.Render(w, r, http.StatusOK, "login.html", &PageData{Form: form})
		return
	}

	user, err := h.users.GetByUsername(r.Context(), form.Username)
	if err != nil && !errors.Is(err, db.ErrUserNotFound) {
		serverError(h.logger, w, r, err)
		return
	}
	if user == nil || !auth.CheckPassword(user.PasswordHash, form.Password) {
		h.logger.Info("login failed", "username", form.Username)
		form.InvalidCredentials()
		h.views.Render(w, r, http.StatusOK, "login.html", &PageData{Form: form})
		return
	}

	token, err := h.jwtService.GenerateToken(user.ID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	auth.SetTokenCookie(w, token, h.jwtService.TTL(), h.cookieSecure)

	h.logger.Info("login", "user_id", user.ID, "username", user.Username)

	target := form.Next
	if !auth.SafeNext(target) {
		target = h.urls.MustReverse("notes:list")
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Logout revokes the token server-side as well, so a copied cookie stops
// working too.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.CookieName); err == nil {
		if claims, err := h.jwtService.ParseToken(cookie.Value); err == nil {
			if err := h.tokens.Revoke(r.Context(), claims.TokenID, claims.ExpiresAt); err != nil {
				serverError(h.logger, w, r, err)
				return
			}
			h.logger.Info("logout", "user_id", claims.UserID)
		}
	}

	auth.ClearTokenCookie(w)
	// the page below must already render as anonymous
	r = r.WithContext(auth.WithUser(r.Context(), nil))
	h.views.Render(w, r, http.StatusOK, "logout.html", nil)
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		h.views.Render(w, r, http.StatusOK, "signup.html", &PageData{Form: forms.ParseSignupForm(nil)})
		return
	}

	if err := r.ParseForm(); err != nil {
		badRequest(w)
		return
	}
	form := forms.ParseSignupForm(r.PostForm)
	ok, err := form.Validate(r.Context(), h.users)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	if !ok {
		h.views.Render(w, r, http.StatusOK, "signup.html", &PageData{Form: form})
		return
	}

	hash, err := auth.HashPassword(form.Password1)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	user := &models.User{Username: form.Username, PasswordHash: hash}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrUsernameTaken) {
			form.UsernameTaken()
			h.views.Render(w, r, http.StatusOK, "signup.html", &PageData{Form: form})
			return
		}
		serverError(h.logger, w, r, err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	http.Redirect(w, r, h.urls.MustReverse("users:login"), http.StatusSeeOther)
}
