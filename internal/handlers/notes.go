package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/ahsanfayaz52/notesapp/internal/auth"
	"github.com/ahsanfayaz52/notesapp/internal/db"
	"github.com/ahsanfayaz52/notesapp/internal/forms"
	"github.com/ahsanfayaz52/notesapp/internal/models"
)

type NoteRepository interface {
	forms.SlugChecker
	Create(ctx context.Context, n *models.Note) error
	ListByAuthor(ctx context.Context, authorID int) ([]models.Note, error)
	GetBySlug(ctx context.Context, slug string, authorID int) (*models.Note, error)
	Update(ctx context.Context, n *models.Note) error
	Delete(ctx context.Context, slug string, authorID int) error
}

// NoteHandler serves the note pages. Every lookup is scoped to the
// logged-in author, so somebody else's note answers 404.
type NoteHandler struct {
	notes  NoteRepository
	views  *Renderer
	urls   *URLs
	logger *slog.Logger
}

func NewNoteHandler(notes NoteRepository, views *Renderer, urls *URLs, logger *slog.Logger) *NoteHandler {
	return &NoteHandler{notes: notes, views: views, urls: urls, logger: logger}
}

func (h *NoteHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "home.html", nil)
}

func (h *NoteHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())

	notes, err := h.notes.ListByAuthor(r.Context(), user.ID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}

	h.views.Render(w, r, http.StatusOK, "list.html", &PageData{Notes: notes})
}

func (h *NoteHandler) Add(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	action := h.urls.MustReverse("notes:add")

	if r.Method == http.MethodGet {
		h.views.Render(w, r, http.StatusOK, "form.html", &PageData{Form: forms.NewNoteForm(nil), Action: action})
		return
	}

	if err := r.ParseForm(); err != nil {
		badRequest(w)
		return
	}
	form := forms.ParseNoteForm(r.PostForm)
	ok, err := form.Validate(r.Context(), h.notes, 0)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	if !ok {
		h.views.Render(w, r, http.StatusOK, "form.html", &PageData{Form: form, Action: action})
		return
	}

	note := &models.Note{AuthorID: user.ID}
	form.Apply(note)
	if err := h.notes.Create(r.Context(), note); err != nil {
		if h.formError(form, err) {
			h.views.Render(w, r, http.StatusOK, "form.html", &PageData{Form: form, Action: action})
			return
		}
		serverError(h.logger, w, r, err)
		return
	}

	h.logger.Info("note created", "note_id", note.ID, "slug", note.Slug, "author_id", user.ID)
	http.Redirect(w, r, h.urls.MustReverse("notes:success"), http.StatusSeeOther)
}

func (h *NoteHandler) Edit(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownNote(w, r)
	if !ok {
		return
	}
	action := h.urls.MustReverse("notes:edit", "slug", note.Slug)

	if r.Method == http.MethodGet {
		h.views.Render(w, r, http.StatusOK, "form.html", &PageData{Note: note, Form: forms.NewNoteForm(note), Action: action})
		return
	}

	if err := r.ParseForm(); err != nil {
		badRequest(w)
		return
	}
	form := forms.ParseNoteForm(r.PostForm)
	valid, err := form.Validate(r.Context(), h.notes, note.ID)
	if err != nil {
		serverError(h.logger, w, r, err)
		return
	}
	if !valid {
		h.views.Render(w, r, http.StatusOK, "form.html", &PageData{Note: note, Form: form, Action: action})
		return
	}

	form.Apply(note)
	if err := h.notes.Update(r.Context(), note); err != nil {
		if errors.Is(err, db.ErrNoteNotFound) {
			notFound(w, r)
			return
		}
		if h.formError(form, err) {
			h.views.Render(w, r, http.StatusOK, "form.html", &PageData{Note: note, Form: form, Action: action})
			return
		}
		serverError(h.logger, w, r, err)
		return
	}

	h.logger.Info("note updated", "note_id", note.ID, "slug", note.Slug)
	http.Redirect(w, r, h.urls.MustReverse("notes:success"), http.StatusSeeOther)
}

func (h *NoteHandler) Detail(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownNote(w, r)
	if !ok {
		return
	}
	h.views.Render(w, r, http.StatusOK, "detail.html", &PageData{Note: note})
}

// Delete asks for confirmation on GET and removes the note on POST or DELETE.
func (h *NoteHandler) Delete(w http.ResponseWriter, r *http.Request) {
	note, ok := h.ownNote(w, r)
	if !ok {
		return
	}

	if r.Method == http.MethodGet {
		h.views.Render(w, r, http.StatusOK, "delete.html", &PageData{Note: note})
		return
	}

	if err := h.notes.Delete(r.Context(), note.Slug, note.AuthorID); err != nil {
		if errors.Is(err, db.ErrNoteNotFound) {
			notFound(w, r)
			return
		}
		serverError(h.logger, w, r, err)
		return
	}

	h.logger.Info("note deleted", "note_id", note.ID, "slug", note.Slug)
	http.Redirect(w, r, h.urls.MustReverse("notes:success"), http.StatusSeeOther)
}

func (h *NoteHandler) Success(w http.ResponseWriter, r *http.Request) {
	h.views.Render(w, r, http.StatusOK, "success.html", nil)
}

// ownNote loads the note named in the URL if the current user wrote it and
// answers 404 otherwise.
func (h *NoteHandler) ownNote(w http.ResponseWriter, r *http.Request) (*models.Note, bool) {
	user := auth.UserFromContext(r.Context())
	slug := mux.Vars(r)["slug"]

	note, err := h.notes.GetBySlug(r.Context(), slug, user.ID)
	if err != nil {
		if errors.Is(err, db.ErrNoteNotFound) {
			notFound(w, r)
		} else {
			serverError(h.logger, w, r, err)
		}
		return nil, false
	}
	return note, true
}

// formError turns store validation failures into form errors.
func (h *NoteHandler) formError(form *forms.NoteForm, err error) bool {
	switch {
	case errors.Is(err, db.ErrSlugTaken):
		form.SlugTaken()
	case errors.Is(err, db.ErrEmptySlug):
		form.Errors.Add("slug", "Could not build a slug from the title, please enter one.")
	default:
		return false
	}
	return true
}
