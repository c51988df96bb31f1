package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrNoteNotFound   = errors.New("note not found")
	ErrUserNotFound   = errors.New("user not found")
	ErrSlugTaken      = errors.New("slug already taken")
	ErrUsernameTaken  = errors.New("username already taken")
	ErrUnknownDriver  = errors.New("unknown database driver")
	errNoRowsAffected = errors.New("no rows affected")
)

type Dialect string

const (
	SQLite   Dialect = "sqlite"
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// Options selects and addresses the backing database.
type Options struct {
	Driver   string
	Path     string
	DSN      string
	Host     string
	User     string
	Password string
	Name     string
}

// DB wraps a connection pool together with the SQL dialect it speaks.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects to the configured database and makes sure the schema exists.
func Open(ctx context.Context, opts Options) (*DB, error) {
	var (
		d   *DB
		err error
	)
	switch Dialect(strings.ToLower(opts.Driver)) {
	case SQLite, "sqlite3", "":
		d, err = openSQLite(ctx, opts.Path)
	case MySQL:
		d, err = openMySQL(ctx, opts)
	case Postgres, "postgresql":
		d, err = openPostgres(ctx, opts)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, opts.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := d.Migrate(ctx); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// Migrate creates the tables this application needs if they are missing.
func (d *DB) Migrate(ctx context.Context) error {
	var stmts []string
	switch d.Dialect {
	case MySQL:
		stmts = mysqlSchema
	case Postgres:
		stmts = postgresSchema
	default:
		stmts = sqliteSchema
	}
	for _, stmt := range stmts {
		if _, err := d.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Rebind rewrites ? placeholders into the dialect's bind variables.
func (d *DB) Rebind(query string) string {
	if d.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// IsUniqueViolation reports whether err came from a UNIQUE constraint.
func (d *DB) IsUniqueViolation(err error) bool {
	switch d.Dialect {
	case MySQL:
		return isMySQLUniqueViolation(err)
	case Postgres:
		return isPostgresUniqueViolation(err)
	default:
		return isSQLiteUniqueViolation(err)
	}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// insert runs an INSERT and returns the new primary key. lib/pq does not
// implement LastInsertId, so Postgres goes through RETURNING.
func (d *DB) insert(ctx context.Context, ex execer, query string, args ...any) (int, error) {
	if d.Dialect == Postgres {
		var id int
		if err := ex.QueryRowContext(ctx, d.Rebind(query+" RETURNING id"), args...).Scan(&id); err != nil {
			return 0, err
		}
		return id, nil
	}
	res, err := ex.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

func affectedOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errNoRowsAffected
	}
	return nil
}
