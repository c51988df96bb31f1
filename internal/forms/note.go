package forms

import (
	"context"
	"net/url"

	"github.com/ahsanfayaz52/notesapp/internal/models"
)

// SlugWarning follows the offending slug in the uniqueness error.
const SlugWarning = " - such a slug already exists, please choose a unique value!"

// SlugChecker reports whether a slug is used by a note other than excludeID.
type SlugChecker interface {
	SlugExists(ctx context.Context, slug string, excludeID int) (bool, error)
}

type NoteForm struct {
	Title string `form:"title" validate:"required,max=100"`
	Text  string `form:"text" validate:"required"`
	Slug  string `form:"slug" validate:"omitempty,max=100,slug"`

	Errors Errors `form:"-" validate:"-"`
}

// NewNoteForm returns a form prefilled from n, or an empty one when n is nil.
func NewNoteForm(n *models.Note) *NoteForm {
	f := &NoteForm{Errors: Errors{}}
	if n != nil {
		f.Title = n.Title
		f.Text = n.Text
		f.Slug = n.Slug
	}
	return f
}

func ParseNoteForm(v url.Values) *NoteForm {
	return &NoteForm{
		Title:  field(v, "title"),
		Text:   field(v, "text"),
		Slug:   field(v, "slug"),
		Errors: Errors{},
	}
}

// Validate checks the submitted values, fills a blank slug from the title
// and makes sure no note other than excludeID already uses the slug.
func (f *NoteForm) Validate(ctx context.Context, notes SlugChecker, excludeID int) (bool, error) {
	f.Errors = Errors{}
	runValidator(f, f.Errors)

	if f.Slug == "" && !f.Errors.Has("title") {
		f.Slug = models.Slugify(f.Title)
		if f.Slug == "" {
			f.Errors.Add("slug", "Could not build a slug from the title, please enter one.")
		}
	}

	if f.Slug != "" && !f.Errors.Has("slug") {
		taken, err := notes.SlugExists(ctx, f.Slug, excludeID)
		if err != nil {
			return false, err
		}
		if taken {
			f.SlugTaken()
		}
	}
	return f.Errors.Valid(), nil
}

// SlugTaken records a uniqueness failure detected after validation.
func (f *NoteForm) SlugTaken() {
	f.Errors.Add("slug", f.Slug+SlugWarning)
}

// Apply copies the cleaned values onto n.
func (f *NoteForm) Apply(n *models.Note) {
	n.Title = f.Title
	n.Text = f.Text
	n.Slug = f.Slug
}
