package db

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/ahsanfayaz52/notesapp/internal/models"
)

func newTestDB(t testing.TB) *DB {
	t.Helper()
	d, err := Open(context.Background(), Options{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func createUser(t testing.TB, users *UserStore, name string) *models.User {
	t.Helper()
	u := &models.User{Username: name, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), Options{Driver: "oracle"})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}

func TestRebind(t *testing.T) {
	pg := &DB{Dialect: Postgres}
	assert.Equal(t, "SELECT 1 WHERE a = $1 AND b = $2", pg.Rebind("SELECT 1 WHERE a = ? AND b = ?"))

	lite := &DB{Dialect: SQLite}
	assert.Equal(t, "SELECT 1 WHERE a = ?", lite.Rebind("SELECT 1 WHERE a = ?"))
}

func TestMigrate_Idempotent(t *testing.T) {
	d := newTestDB(t)
	require.NoError(t, d.Migrate(context.Background()))
}

func TestNoteStore_CreateAndGet(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	author := createUser(t, NewUserStore(d), "author")
	notes := NewNoteStore(d)

	n := &models.Note{AuthorID: author.ID, Title: "Заголовок", Text: "Текст"}
	require.NoError(t, notes.Create(ctx, n))
	assert.NotZero(t, n.ID)
	assert.Equal(t, "zagolovok", n.Slug)

	got, err := notes.GetBySlug(ctx, "zagolovok", author.ID)
	require.NoError(t, err)
	assert.Equal(t, n.ID, got.ID)
	assert.Equal(t, "Текст", got.Text)
	assert.Equal(t, author.ID, got.AuthorID)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestNoteStore_GetBySlug_OtherAuthor(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(d)
	author := createUser(t, users, "author")
	reader := createUser(t, users, "reader")
	notes := NewNoteStore(d)

	require.NoError(t, notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "t", Text: "x", Slug: "slug"}))

	_, err := notes.GetBySlug(ctx, "slug", reader.ID)
	assert.ErrorIs(t, err, ErrNoteNotFound)
}

func TestNoteStore_SlugUniqueAcrossAuthors(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(d)
	author := createUser(t, users, "author")
	other := createUser(t, users, "other")
	notes := NewNoteStore(d)

	require.NoError(t, notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "a", Text: "x", Slug: "slug"}))

	err := notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "b", Text: "y", Slug: "slug"})
	assert.ErrorIs(t, err, ErrSlugTaken)
	err = notes.Create(ctx, &models.Note{AuthorID: other.ID, Title: "b", Text: "y", Slug: "slug"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	count, err := notes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNoteStore_CreateEmptySlug(t *testing.T) {
	d := newTestDB(t)
	author := createUser(t, NewUserStore(d), "author")

	err := NewNoteStore(d).Create(context.Background(), &models.Note{AuthorID: author.ID, Title: "!!!", Text: "x"})
	assert.ErrorIs(t, err, ErrEmptySlug)
}

func TestNoteStore_ListByAuthor(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(d)
	author := createUser(t, users, "author")
	reader := createUser(t, users, "reader")
	notes := NewNoteStore(d)

	for i := 0; i < 10; i++ {
		require.NoError(t, notes.Create(ctx, &models.Note{
			AuthorID: author.ID,
			Title:    fmt.Sprintf("Заголовок %d", i),
			Text:     fmt.Sprintf("Текст %d", i),
			Slug:     fmt.Sprintf("slug%d", i),
		}))
	}
	require.NoError(t, notes.Create(ctx, &models.Note{AuthorID: reader.ID, Title: "r", Text: "r", Slug: "reader-note"}))

	list, err := notes.ListByAuthor(ctx, author.ID)
	require.NoError(t, err)
	require.Len(t, list, 10)
	for i := 1; i < len(list); i++ {
		assert.Less(t, list[i-1].ID, list[i].ID)
	}
	for _, n := range list {
		assert.Equal(t, author.ID, n.AuthorID)
	}

	list, err = notes.ListByAuthor(ctx, reader.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "reader-note", list[0].Slug)
}

func TestNoteStore_Update(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(d)
	author := createUser(t, users, "author")
	reader := createUser(t, users, "reader")
	notes := NewNoteStore(d)

	n := &models.Note{AuthorID: author.ID, Title: "t", Text: "old", Slug: "slug"}
	require.NoError(t, notes.Create(ctx, n))
	require.NoError(t, notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "t2", Text: "x", Slug: "other"}))

	// the note keeps its own slug
	require.NoError(t, notes.Update(ctx, &models.Note{ID: n.ID, AuthorID: author.ID, Title: "t", Text: "new", Slug: "slug"}))
	got, err := notes.GetBySlug(ctx, "slug", author.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Text)

	err = notes.Update(ctx, &models.Note{ID: n.ID, AuthorID: author.ID, Title: "t", Text: "new", Slug: "other"})
	assert.ErrorIs(t, err, ErrSlugTaken)

	err = notes.Update(ctx, &models.Note{ID: n.ID, AuthorID: reader.ID, Title: "t", Text: "hijack", Slug: "slug"})
	assert.ErrorIs(t, err, ErrNoteNotFound)

	got, err = notes.GetBySlug(ctx, "slug", author.ID)
	require.NoError(t, err)
	assert.Equal(t, "new", got.Text)
}

func TestNoteStore_Delete(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(d)
	author := createUser(t, users, "author")
	reader := createUser(t, users, "reader")
	notes := NewNoteStore(d)

	require.NoError(t, notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "t", Text: "x", Slug: "slug"}))

	assert.ErrorIs(t, notes.Delete(ctx, "slug", reader.ID), ErrNoteNotFound)
	count, err := notes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, notes.Delete(ctx, "slug", author.ID))
	count, err = notes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	assert.ErrorIs(t, notes.Delete(ctx, "slug", author.ID), ErrNoteNotFound)
}

func TestNoteStore_CascadeOnUserDelete(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(d)
	author := createUser(t, users, "author")
	notes := NewNoteStore(d)

	require.NoError(t, notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "t", Text: "x", Slug: "slug"}))

	_, err := d.ExecContext(ctx, "DELETE FROM users WHERE id = ?", author.ID)
	require.NoError(t, err)
	count, err := notes.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "notes must go with their author")

	err = notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "t", Text: "x", Slug: "orphan"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrSlugTaken)
	assert.Contains(t, err.Error(), "FOREIGN KEY")
}

func TestNoteStore_SlugIsCaseSensitive(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	author := createUser(t, NewUserStore(d), "author")
	notes := NewNoteStore(d)

	require.NoError(t, notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "t", Text: "lower", Slug: "slug"}))
	require.NoError(t, notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: "t", Text: "upper", Slug: "SLUG"}))

	got, err := notes.GetBySlug(ctx, "SLUG", author.ID)
	require.NoError(t, err)
	assert.Equal(t, "upper", got.Text)
}

func TestMySQLSchema_BinaryCollation(t *testing.T) {
	schema := strings.Join(mysqlSchema, "\n")
	for _, column := range []string{"username", "slug"} {
		re := regexp.MustCompile(`(?m)^\s*` + column + ` VARCHAR\(\d+\) CHARACTER SET utf8mb4 COLLATE utf8mb4_bin UNIQUE NOT NULL,$`)
		assert.Regexp(t, re, schema, "%s must compare case-sensitively", column)
	}
}

func TestSQLiteDSN(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{":memory:", "file::memory:?_pragma=foreign_keys(1)"},
		{"notes.db", "file:notes.db?_pragma=foreign_keys(1)"},
		{"file:notes.db?mode=rwc", "file:notes.db?mode=rwc&_pragma=foreign_keys(1)"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sqliteDSN(tt.path))
	}
}

func TestOpen_ForeignKeysOnEveryConnection(t *testing.T) {
	ctx := context.Background()
	d, err := Open(ctx, Options{Driver: "sqlite", Path: filepath.Join(t.TempDir(), "notes.db")})
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })

	// Close each connection after use so every query gets a fresh one.
	d.SetMaxIdleConns(0)
	for i := 0; i < 3; i++ {
		var on int
		require.NoError(t, d.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&on))
		assert.Equal(t, 1, on)
	}
}

func TestTokenStore(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	tokens := NewTokenStore(d)
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	tokens.now = func() time.Time { return now }

	revoked, err := tokens.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, tokens.Revoke(ctx, "a", now.Add(time.Hour)))
	require.NoError(t, tokens.Revoke(ctx, "a", now.Add(time.Hour)), "revoking twice is fine")
	require.NoError(t, tokens.Revoke(ctx, "stale", now.Add(time.Minute)))

	revoked, err = tokens.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	now = now.Add(30 * time.Minute)
	require.NoError(t, tokens.Revoke(ctx, "b", now.Add(time.Hour)))

	revoked, err = tokens.IsRevoked(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, revoked, "expired entries are pruned")
	revoked, err = tokens.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestUserStore(t *testing.T) {
	d := newTestDB(t)
	ctx := context.Background()
	users := NewUserStore(d)

	u := createUser(t, users, "Пользователь")
	err := users.Create(ctx, &models.User{Username: "Пользователь", PasswordHash: "y"})
	assert.ErrorIs(t, err, ErrUsernameTaken)

	got, err := users.GetByUsername(ctx, "Пользователь")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	got, err = users.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "Пользователь", got.Username)

	_, err = users.GetByID(ctx, u.ID+100)
	assert.ErrorIs(t, err, ErrUserNotFound)

	exists, err := users.UsernameExists(ctx, "Пользователь")
	require.NoError(t, err)
	assert.True(t, exists)
}

// Whatever sequence of creates is attempted, stored slugs stay unique.
func TestNoteStore_SlugUniqueness_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		d := newTestDB(t)
		ctx := context.Background()
		users := NewUserStore(d)
		authors := []*models.User{createUser(t, users, "a"), createUser(t, users, "b")}
		notes := NewNoteStore(d)

		attempts := rapid.IntRange(1, 20).Draw(rt, "attempts")
		for i := 0; i < attempts; i++ {
			author := rapid.SampledFrom(authors).Draw(rt, "author")
			s := rapid.SampledFrom([]string{"", "one", "two", "three"}).Draw(rt, "slug")
			title := rapid.SampledFrom([]string{"One", "Two", "Заголовок"}).Draw(rt, "title")
			err := notes.Create(ctx, &models.Note{AuthorID: author.ID, Title: title, Text: "x", Slug: s})
			if err != nil && !errors.Is(err, ErrSlugTaken) {
				rt.Fatalf("create: %v", err)
			}
		}

		seen := map[string]bool{}
		for _, a := range authors {
			list, err := notes.ListByAuthor(ctx, a.ID)
			if err != nil {
				rt.Fatalf("list: %v", err)
			}
			for _, n := range list {
				if seen[n.Slug] {
					rt.Fatalf("duplicate slug %q", n.Slug)
				}
				seen[n.Slug] = true
			}
		}
	})
}
