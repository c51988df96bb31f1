package models

import (
	"strings"
	"time"

	"github.com/gosimple/slug"
)

const (
	TitleMaxLength = 100
	SlugMaxLength  = 100
)

type Note struct {
	ID        int
	AuthorID  int
	Title     string
	Text      string
	Slug      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Slugify transliterates title into a URL-safe slug of at most
// SlugMaxLength characters. It returns "" when nothing usable is left.
func Slugify(title string) string {
	s := slug.Make(title)
	if len(s) > SlugMaxLength {
		s = s[:SlugMaxLength]
	}
	return strings.Trim(s, "-_")
}

// EnsureSlug fills an empty slug from the title.
func (n *Note) EnsureSlug() {
	if strings.TrimSpace(n.Slug) == "" {
		n.Slug = Slugify(n.Title)
	}
}
