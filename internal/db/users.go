package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ahsanfayaz52/notesapp/internal/models"
)

type UserStore struct {
	db *DB
}

func NewUserStore(d *DB) *UserStore {
	return &UserStore{db: d}
}

// Create stores u with an already hashed password and sets u.ID.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	id, err := s.db.insert(ctx, s.db,
		"INSERT INTO users (username, password) VALUES (?, ?)",
		u.Username, u.PasswordHash)
	if err != nil {
		if s.db.IsUniqueViolation(err) {
			return ErrUsernameTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	u.ID = id
	return nil
}

func (s *UserStore) GetByID(ctx context.Context, id int) (*models.User, error) {
	return s.getBy(ctx, "id", id)
}

func (s *UserStore) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getBy(ctx, "username", username)
}

func (s *UserStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT COUNT(*) FROM users WHERE username = ?"), username,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return n > 0, nil
}

func (s *UserStore) getBy(ctx context.Context, column string, value any) (*models.User, error) {
	var u models.User
	err := s.db.QueryRowContext(ctx,
		s.db.Rebind("SELECT id, username, password, created_at FROM users WHERE "+column+" = ?"),
		value,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}
