package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ahsanfayaz52/notesapp/internal/models"
)

var ErrEmptySlug = errors.New("slug is empty")

const noteColumns = "id, author_id, title, text, slug, created_at, updated_at"

// NoteStore persists notes. Every read or write that a user can trigger is
// scoped by author, so another user's note behaves as if it did not exist.
type NoteStore struct {
	db *DB
}

func NewNoteStore(d *DB) *NoteStore {
	return &NoteStore{db: d}
}

// Create inserts n for n.AuthorID, deriving the slug from the title when it
// is blank. The slug must not be used by any other note.
func (s *NoteStore) Create(ctx context.Context, n *models.Note) error {
	n.EnsureSlug()
	if n.Slug == "" {
		return ErrEmptySlug
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	taken, err := s.slugTaken(ctx, tx, n.Slug, 0)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugTaken
	}

	id, err := s.db.insert(ctx, tx,
		"INSERT INTO notes (author_id, title, text, slug) VALUES (?, ?, ?, ?)",
		n.AuthorID, n.Title, n.Text, n.Slug)
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	n.ID = id
	return nil
}

// ListByAuthor returns the author's notes in insertion order.
func (s *NoteStore) ListByAuthor(ctx context.Context, authorID int) ([]models.Note, error) {
	rows, err := s.db.QueryContext(ctx,
		s.db.Rebind("SELECT "+noteColumns+" FROM notes WHERE author_id = ? ORDER BY id"),
		authorID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	var notes []models.Note
	for rows.Next() {
		var n models.Note
		if err := rows.Scan(&n.ID, &n.AuthorID, &n.Title, &n.Text, &n.Slug, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, n)
	}
	return notes, rows.Err()
}

// GetBySlug returns the note with slug if authorID wrote it.
func (s *NoteStore) GetBySlug(ctx context.Context, slug string, authorID int) (*models.Note, error) {
	var n models.Note
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT "+noteColumns+" FROM notes WHERE slug = ? AND author_id = ?"),
		slug, authorID,
	).Scan(&n.ID, &n.AuthorID, &n.Title, &n.Text, &n.Slug, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoteNotFound
		}
		return nil, fmt.Errorf("get note: %w", err)
	}
	return &n, nil
}

// SlugExists reports whether any note other than excludeID uses slug.
// Pass 0 to check against all notes.
func (s *NoteStore) SlugExists(ctx context.Context, slug string, excludeID int) (bool, error) {
	return s.slugTaken(ctx, s.db, slug, excludeID)
}

// Update rewrites title, text and slug of n. The author never changes; a note
// that n.AuthorID does not own is reported as ErrNoteNotFound.
func (s *NoteStore) Update(ctx context.Context, n *models.Note) error {
	n.EnsureSlug()
	if n.Slug == "" {
		return ErrEmptySlug
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var id int
	err = tx.QueryRowContext(ctx,
		s.db.Rebind("SELECT id FROM notes WHERE id = ? AND author_id = ?"),
		n.ID, n.AuthorID,
	).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("lookup note: %w", err)
	}

	taken, err := s.slugTaken(ctx, tx, n.Slug, n.ID)
	if err != nil {
		return err
	}
	if taken {
		return ErrSlugTaken
	}

	_, err = tx.ExecContext(ctx, s.db.Rebind(`
		UPDATE notes
		SET title = ?, text = ?, slug = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND author_id = ?`),
		n.Title, n.Text, n.Slug, n.ID, n.AuthorID)
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("update note: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Delete removes the note with slug if authorID wrote it.
func (s *NoteStore) Delete(ctx context.Context, slug string, authorID int) error {
	res, err := s.db.ExecContext(ctx,
		s.db.Rebind("DELETE FROM notes WHERE slug = ? AND author_id = ?"),
		slug, authorID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if err := affectedOne(res); err != nil {
		if errors.Is(err, errNoRowsAffected) {
			return ErrNoteNotFound
		}
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Count returns the number of notes of every author.
func (s *NoteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM notes").Scan(&n); err != nil {
		return 0, fmt.Errorf("count notes: %w", err)
	}
	return n, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *NoteStore) slugTaken(ctx context.Context, q queryRower, slug string, excludeID int) (bool, error) {
	var n int
	err := q.QueryRowContext(ctx,
		s.db.Rebind("SELECT COUNT(*) FROM notes WHERE slug = ? AND id <> ?"),
		slug, excludeID,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return n > 0, nil
}
